package main

import (
	"fmt"
	"os"

	"github.com/chazu/tapevm/pkg/bytecode"
	"github.com/chazu/tapevm/pkg/expr"
	"github.com/chazu/tapevm/pkg/image"
	"github.com/chazu/tapevm/pkg/programs"
)

// source is a program named on the command line: either a built-in
// sample or an image file.
type source struct {
	name    string
	tree    expr.Expr // nil for images
	program *bytecode.Program
}

// loadSource resolves arg to a sample name or an image path. n sizes
// samples and is ignored for images.
func loadSource(arg string, n int) (*source, error) {
	if s, ok := programs.Lookup(arg); ok {
		if n <= 0 {
			n = s.DefaultN
		}
		tree := s.Build(n)
		p, err := bytecode.Compile(tree)
		if err != nil {
			return nil, fmt.Errorf("compiling %s: %w", arg, err)
		}
		return &source{name: arg, tree: tree, program: p}, nil
	}

	if _, err := os.Stat(arg); err != nil {
		return nil, fmt.Errorf("%q is neither a sample program nor an image file", arg)
	}
	p, err := image.Load(arg)
	if err != nil {
		return nil, err
	}
	return &source{name: arg, program: p}, nil
}
