// Package closure evaluates expression trees by compiling them once into
// a tree of Go closures. It is the baseline the tape VM is measured
// against and shares its value semantics.
package closure

import (
	"errors"
	"fmt"

	"github.com/chazu/tapevm/pkg/expr"
	"github.com/chazu/tapevm/pkg/value"
)

// errReturn unwinds an early return up to the nearest value boundary.
var errReturn = errors.New("return signal")

type evalFn func(f *Frame) (value.Value, error)

// Frame holds the globals of one execution.
type Frame struct {
	globals []value.Value
}

// Reset sets every global back to 0.
func (f *Frame) Reset() {
	for i := range f.globals {
		f.globals[i] = value.Float(0)
	}
}

// Globals returns a copy of the global slots.
func (f *Frame) Globals() []value.Value {
	out := make([]value.Value, len(f.globals))
	copy(out, f.globals)
	return out
}

// Program is a compiled closure tree.
type Program struct {
	root    evalFn
	globals []string
}

// Compile builds the closure tree for e.
func Compile(e expr.Expr) (*Program, error) {
	c := &compiler{slots: make(map[string]int)}
	root, err := c.compile(e)
	if err != nil {
		return nil, err
	}
	return &Program{root: root, globals: c.globals}, nil
}

// Globals returns the global names indexed by slot.
func (p *Program) Globals() []string { return p.globals }

// NewFrame returns a frame with every global set to 0.
func (p *Program) NewFrame() *Frame {
	f := &Frame{globals: make([]value.Value, len(p.globals))}
	f.Reset()
	return f
}

// Exec runs the program against f.
func (p *Program) Exec(f *Frame) (value.Value, error) {
	return absorb(p.root(f))
}

// Run executes the program once with fresh globals.
func (p *Program) Run() (value.Value, error) {
	return p.Exec(p.NewFrame())
}

// absorb ends a return at a value boundary.
func absorb(v value.Value, err error) (value.Value, error) {
	if err == errReturn {
		return v, nil
	}
	return v, err
}

type compiler struct {
	globals []string
	slots   map[string]int
}

func (c *compiler) slot(b expr.Binding) (int, error) {
	g, ok := b.(expr.Global)
	if !ok {
		return 0, fmt.Errorf("unsupported binding %T", b)
	}
	if s, ok := c.slots[g.Name()]; ok {
		return s, nil
	}
	s := len(c.globals)
	c.globals = append(c.globals, g.Name())
	c.slots[g.Name()] = s
	return s, nil
}

func (c *compiler) compile(e expr.Expr) (evalFn, error) {
	switch n := e.(type) {
	case nil:
		return nil, fmt.Errorf("cannot compile nil expression")

	case *expr.FloatLit:
		v := value.Float(n.Value)
		return func(*Frame) (value.Value, error) { return v, nil }, nil

	case *expr.BoolLit:
		v := value.Bool(n.Value)
		return func(*Frame) (value.Value, error) { return v, nil }, nil

	case *expr.Var:
		s, err := c.slot(n.Binding)
		if err != nil {
			return nil, err
		}
		return func(f *Frame) (value.Value, error) { return f.globals[s], nil }, nil

	case *expr.Assign:
		s, err := c.slot(n.Binding)
		if err != nil {
			return nil, err
		}
		inner, err := c.compile(n.Value)
		if err != nil {
			return nil, err
		}
		return func(f *Frame) (value.Value, error) {
			v, err := absorb(inner(f))
			if err != nil {
				return value.Nil, err
			}
			f.globals[s] = v
			return value.Nil, nil
		}, nil

	case *expr.BinaryOp:
		return c.binary(n)

	case *expr.Block:
		return c.block(n)

	case *expr.While:
		return c.loop(n)

	case *expr.Return:
		inner, err := c.compile(n.Value)
		if err != nil {
			return nil, err
		}
		return func(f *Frame) (value.Value, error) {
			v, err := absorb(inner(f))
			if err != nil {
				return value.Nil, err
			}
			return v, errReturn
		}, nil

	case *expr.If:
		return c.conditional(n)
	}
	return nil, fmt.Errorf("cannot compile %T", e)
}

func (c *compiler) binary(n *expr.BinaryOp) (evalFn, error) {
	if !n.Op.Valid() {
		return nil, fmt.Errorf("unknown operator %s", n.Op)
	}
	lhs, err := c.compile(n.Left)
	if err != nil {
		return nil, err
	}
	rhs, err := c.compile(n.Right)
	if err != nil {
		return nil, err
	}
	op := n.Op
	return func(f *Frame) (value.Value, error) {
		l, err := absorb(lhs(f))
		if err != nil {
			return value.Nil, err
		}
		r, err := absorb(rhs(f))
		if err != nil {
			return value.Nil, err
		}
		return value.Apply(op, l, r)
	}, nil
}

func (c *compiler) block(n *expr.Block) (evalFn, error) {
	stmts := make([]evalFn, len(n.Statements))
	for i, s := range n.Statements {
		fn, err := c.compile(s)
		if err != nil {
			return nil, err
		}
		stmts[i] = fn
	}
	return func(f *Frame) (value.Value, error) {
		for _, s := range stmts {
			if v, err := s(f); err != nil {
				return v, err
			}
		}
		return value.Nil, nil
	}, nil
}

func (c *compiler) loop(n *expr.While) (evalFn, error) {
	cond, err := c.compile(n.Cond)
	if err != nil {
		return nil, err
	}
	body, err := c.compile(n.Body)
	if err != nil {
		return nil, err
	}
	return func(f *Frame) (value.Value, error) {
		for {
			ok, err := absorb(cond(f))
			if err != nil {
				return value.Nil, err
			}
			if !ok.Truthy() {
				return value.Nil, nil
			}
			if v, err := body(f); err != nil {
				return v, err
			}
		}
	}, nil
}

func (c *compiler) conditional(n *expr.If) (evalFn, error) {
	type branch struct{ cond, body evalFn }
	branches := make([]branch, len(n.Branches))
	for i, b := range n.Branches {
		cond, err := c.compile(b.Cond)
		if err != nil {
			return nil, err
		}
		body, err := c.compile(b.Body)
		if err != nil {
			return nil, err
		}
		branches[i] = branch{cond, body}
	}
	otherwise := func(*Frame) (value.Value, error) { return value.Nil, nil }
	if n.Else != nil {
		fn, err := c.compile(n.Else)
		if err != nil {
			return nil, err
		}
		otherwise = fn
	}
	return func(f *Frame) (value.Value, error) {
		for _, b := range branches {
			ok, err := absorb(b.cond(f))
			if err != nil {
				return value.Nil, err
			}
			if ok.Truthy() {
				return b.body(f)
			}
		}
		return otherwise(f)
	}, nil
}
