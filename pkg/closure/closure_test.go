package closure

import (
	"errors"
	"reflect"
	"testing"

	"github.com/chazu/tapevm/pkg/bytecode"
	"github.com/chazu/tapevm/pkg/expr"
	"github.com/chazu/tapevm/pkg/programs"
	"github.com/chazu/tapevm/pkg/value"
)

func mustRun(t *testing.T, e expr.Expr) value.Value {
	t.Helper()
	p, err := Compile(e)
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
	v, err := p.Run()
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	return v
}

func TestCountDown(t *testing.T) {
	if v := mustRun(t, programs.Count(100)); v != value.Float(0) {
		t.Errorf("Expected 0, got %v", v)
	}
}

func TestNestedReturns(t *testing.T) {
	p, err := Compile(programs.Nested())
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
	f := p.NewFrame()
	v, err := p.Exec(f)
	if err != nil {
		t.Fatalf("Exec failed: %v", err)
	}
	if v != value.Float(60) {
		t.Errorf("Expected 60, got %v", v)
	}

	want := map[string]value.Value{"test": value.Float(10), "t": value.Float(50), "skipped": value.Float(0)}
	globals := f.Globals()
	for i, name := range p.Globals() {
		if globals[i] != want[name] {
			t.Errorf("%s = %v, want %v", name, globals[i], want[name])
		}
	}
}

func TestTypeMismatch(t *testing.T) {
	for _, e := range []expr.Expr{
		expr.NewBinary(expr.Float(1), expr.Div, expr.Bool(true)),
		expr.NewBinary(expr.Bool(true), expr.Lt, expr.Float(1)),
	} {
		p, err := Compile(e)
		if err != nil {
			t.Fatalf("Compile failed: %v", err)
		}
		if _, err := p.Run(); !errors.Is(err, value.ErrTypeMismatch) {
			t.Errorf("err = %v, want ErrTypeMismatch", err)
		}
	}
}

func TestCompileErrors(t *testing.T) {
	if _, err := Compile(nil); err == nil {
		t.Error("Compile(nil) should fail")
	}
	if _, err := Compile(expr.NewBinary(expr.Float(1), expr.Operator(42), expr.Float(1))); err == nil {
		t.Error("unknown operator should fail")
	}
}

func TestFrameReset(t *testing.T) {
	p, err := Compile(programs.Sum(10))
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
	f := p.NewFrame()
	for i := 0; i < 2; i++ {
		v, err := p.Exec(f)
		if err != nil {
			t.Fatalf("Exec failed: %v", err)
		}
		if v != value.Float(55) {
			t.Errorf("run %d: Expected 55, got %v", i, v)
		}
		f.Reset()
	}
}

// The closure tree and the tape must agree on results and on the final
// state of every global.
func TestAgreesWithTape(t *testing.T) {
	x := expr.Global("x")
	extra := []expr.Expr{
		expr.NewBinary(expr.Float(1), expr.Add, expr.NewBlock(expr.NewReturn(expr.Float(2)), expr.Float(100))),
		expr.NewIf(expr.NewBlock(expr.NewReturn(expr.Bool(true))), expr.Float(1), expr.Float(2)),
		expr.NewBlock(
			expr.NewWhile(expr.Bool(true), expr.NewBlock(
				x.Assign(expr.NewBinary(x.Var(), expr.Add, expr.Float(1))),
				expr.NewIf(expr.NewBinary(x.Var(), expr.Gte, expr.Float(4)), expr.NewReturn(x.Var()), nil),
			)),
			x.Assign(expr.Float(-1)),
		),
	}

	cases := extra
	for _, s := range programs.All() {
		cases = append(cases, s.Build(20))
	}

	for i, e := range cases {
		cp, err := Compile(e)
		if err != nil {
			t.Fatalf("case %d: Compile failed: %v", i, err)
		}
		frame := cp.NewFrame()
		cv, err := cp.Exec(frame)
		if err != nil {
			t.Fatalf("case %d: closure failed: %v", i, err)
		}

		tp, err := bytecode.Compile(e)
		if err != nil {
			t.Fatalf("case %d: bytecode compile failed: %v", i, err)
		}
		ctx := tp.NewContext()
		tv, err := ctx.Execute()
		if err != nil {
			t.Fatalf("case %d: tape failed: %v", i, err)
		}

		if cv != tv {
			t.Errorf("case %d: closure = %v, tape = %v", i, cv, tv)
		}
		if !reflect.DeepEqual(cp.Globals(), tp.Globals) {
			t.Errorf("case %d: globals %v vs %v", i, cp.Globals(), tp.Globals)
		}
		if !reflect.DeepEqual(frame.Globals(), ctx.Globals()) {
			t.Errorf("case %d: global values %v vs %v", i, frame.Globals(), ctx.Globals())
		}
	}
}
