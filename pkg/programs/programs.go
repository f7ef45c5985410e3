// Package programs is a registry of sample expression trees used by the
// CLI, the benchmarks and the cross-strategy tests.
package programs

import (
	"sort"

	"github.com/chazu/tapevm/pkg/expr"
)

// Sample is a named program parameterised by a size n.
type Sample struct {
	Name        string
	Description string
	DefaultN    int

	// Build returns a fresh tree for size n.
	Build func(n int) expr.Expr

	// Native computes the expected result in plain Go.
	Native func(n int) float64
}

var registry = map[string]Sample{}

func register(s Sample) {
	registry[s.Name] = s
}

// Lookup returns the sample with the given name.
func Lookup(name string) (Sample, bool) {
	s, ok := registry[name]
	return s, ok
}

// All returns every sample sorted by name.
func All() []Sample {
	out := make([]Sample, 0, len(registry))
	for _, s := range registry {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Names returns the sorted sample names.
func Names() []string {
	all := All()
	names := make([]string, len(all))
	for i, s := range all {
		names[i] = s.Name
	}
	return names
}

func init() {
	register(Sample{
		Name:        "count",
		Description: "count a global down from n to zero",
		DefaultN:    1_000_000,
		Build:       Count,
		Native: func(n int) float64 {
			x := float64(n)
			for x > 0 {
				x = x - 1
			}
			return x
		},
	})
	register(Sample{
		Name:        "nested",
		Description: "returns escaping blocks and loops inside assignments",
		DefaultN:    1,
		Build:       func(int) expr.Expr { return Nested() },
		Native:      func(int) float64 { return 60 },
	})
	register(Sample{
		Name:        "sum",
		Description: "sum the integers 1..n",
		DefaultN:    100_000,
		Build:       Sum,
		Native: func(n int) float64 {
			s := 0.0
			for i := 1; i <= n; i++ {
				s += float64(i)
			}
			return s
		},
	})
	register(Sample{
		Name:        "fib",
		Description: "iterative fibonacci number n",
		DefaultN:    50,
		Build:       Fib,
		Native: func(n int) float64 {
			a, b := 0.0, 1.0
			for i := 0; i < n; i++ {
				a, b = b, a+b
			}
			return a
		},
	})
	register(Sample{
		Name:        "collatz",
		Description: "steps for n to reach 1 under the collatz map",
		DefaultN:    27,
		Build:       Collatz,
		Native: func(n int) float64 {
			x, steps := n, 0
			for x != 1 {
				if x%2 == 0 {
					x /= 2
				} else {
					x = 3*x + 1
				}
				steps++
			}
			return float64(steps)
		},
	})
}

// Count builds
//
//	x = n
//	while x > 0 { x = x - 1 }
//	return x
func Count(n int) expr.Expr {
	x := expr.Global("x")
	return expr.NewBlock(
		x.Assign(expr.Float(float64(n))),
		expr.NewWhile(
			expr.NewBinary(x.Var(), expr.Gt, expr.Float(0)),
			expr.NewBlock(
				x.Assign(expr.NewBinary(x.Var(), expr.Sub, expr.Float(1))),
			),
		),
		expr.NewReturn(x.Var()),
	)
}

// Nested builds a program whose returns escape a block and a loop nested
// inside assignments. It evaluates to 60 and never assigns skipped.
func Nested() expr.Expr {
	test, t := expr.Global("test"), expr.Global("t")
	return expr.NewBlock(
		test.Assign(expr.NewBlock(
			expr.NewReturn(expr.Float(10)),
			expr.Global("skipped").Assign(expr.Float(1)),
		)),
		t.Assign(expr.NewBlock(
			expr.NewWhile(
				expr.Bool(true),
				expr.NewBlock(expr.NewReturn(expr.Float(50))),
			),
		)),
		expr.NewReturn(expr.NewBinary(test.Var(), expr.Add, t.Var())),
	)
}

// Sum builds a loop adding 1..n.
func Sum(n int) expr.Expr {
	i, s := expr.Global("i"), expr.Global("s")
	return expr.NewBlock(
		i.Assign(expr.Float(0)),
		s.Assign(expr.Float(0)),
		expr.NewWhile(
			expr.NewBinary(i.Var(), expr.Lt, expr.Float(float64(n))),
			expr.NewBlock(
				i.Assign(expr.NewBinary(i.Var(), expr.Add, expr.Float(1))),
				s.Assign(expr.NewBinary(s.Var(), expr.Add, i.Var())),
			),
		),
		expr.NewReturn(s.Var()),
	)
}

// Fib builds an iterative computation of the nth fibonacci number.
func Fib(n int) expr.Expr {
	a, b, tmp, i := expr.Global("a"), expr.Global("b"), expr.Global("tmp"), expr.Global("i")
	return expr.NewBlock(
		a.Assign(expr.Float(0)),
		b.Assign(expr.Float(1)),
		i.Assign(expr.Float(0)),
		expr.NewWhile(
			expr.NewBinary(i.Var(), expr.Lt, expr.Float(float64(n))),
			expr.NewBlock(
				tmp.Assign(expr.NewBinary(a.Var(), expr.Add, b.Var())),
				a.Assign(b.Var()),
				b.Assign(tmp.Var()),
				i.Assign(expr.NewBinary(i.Var(), expr.Add, expr.Float(1))),
			),
		),
		expr.NewReturn(a.Var()),
	)
}

// Collatz builds a loop counting collatz steps from n down to 1.
func Collatz(n int) expr.Expr {
	x, steps := expr.Global("x"), expr.Global("steps")
	even := expr.NewBinary(
		expr.NewBinary(x.Var(), expr.Rem, expr.Float(2)),
		expr.Eq,
		expr.Float(0),
	)
	return expr.NewBlock(
		x.Assign(expr.Float(float64(n))),
		steps.Assign(expr.Float(0)),
		expr.NewWhile(
			expr.NewBinary(x.Var(), expr.Neq, expr.Float(1)),
			expr.NewBlock(
				expr.NewIf(
					even,
					x.Assign(expr.NewBinary(x.Var(), expr.Div, expr.Float(2))),
					x.Assign(expr.NewBinary(
						expr.NewBinary(expr.Float(3), expr.Mul, x.Var()),
						expr.Add,
						expr.Float(1),
					)),
				),
				steps.Assign(expr.NewBinary(steps.Var(), expr.Add, expr.Float(1))),
			),
		),
		expr.NewReturn(steps.Var()),
	)
}
