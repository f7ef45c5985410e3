package bytecode

import (
	"math"
	"reflect"
	"strings"
	"testing"

	"github.com/chazu/tapevm/pkg/expr"
	"github.com/chazu/tapevm/pkg/programs"
)

func mustCompile(t *testing.T, e expr.Expr) *Program {
	t.Helper()
	p, err := Compile(e)
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
	return p
}

func op(o Opcode) uint64 { return uint64(o) }

func bits(f float64) uint64 { return math.Float64bits(f) }

// ============ Literal Tests ============

func TestCompileFloat(t *testing.T) {
	p := mustCompile(t, expr.Float(2.5))
	want := []uint64{op(OpFloat), bits(2.5)}
	if !reflect.DeepEqual(p.Code, want) {
		t.Errorf("Code = %v, want %v", p.Code, want)
	}
}

func TestCompileBool(t *testing.T) {
	if p := mustCompile(t, expr.Bool(true)); p.Code[0] != op(OpTrue) {
		t.Errorf("true compiled to %s", Opcode(p.Code[0]))
	}
	if p := mustCompile(t, expr.Bool(false)); p.Code[0] != op(OpFalse) {
		t.Errorf("false compiled to %s", Opcode(p.Code[0]))
	}
}

// ============ Global Tests ============

func TestCompileAssign(t *testing.T) {
	p := mustCompile(t, expr.Global("x").Assign(expr.Float(5)))
	want := []uint64{op(OpAssign), 0, op(OpFloat), bits(5)}
	if !reflect.DeepEqual(p.Code, want) {
		t.Errorf("Code = %v, want %v", p.Code, want)
	}
	if !reflect.DeepEqual(p.Globals, []string{"x"}) {
		t.Errorf("Globals = %v, want [x]", p.Globals)
	}
}

func TestGlobalSlotsAreStable(t *testing.T) {
	x, y := expr.Global("x"), expr.Global("y")
	p := mustCompile(t, expr.NewBlock(
		x.Var(),
		y.Var(),
		x.Var(),
		y.Assign(x.Var()),
	))

	if !reflect.DeepEqual(p.Globals, []string{"x", "y"}) {
		t.Fatalf("Globals = %v, want [x y]", p.Globals)
	}

	want := []uint64{
		op(OpBlock), 11,
		op(OpVar), 0,
		op(OpVar), 1,
		op(OpVar), 0,
		op(OpAssign), 1, op(OpVar), 0,
	}
	want[1] = uint64(len(want))
	if !reflect.DeepEqual(p.Code, want) {
		t.Errorf("Code = %v, want %v", p.Code, want)
	}

	if slot, ok := p.GlobalSlot("y"); !ok || slot != 1 {
		t.Errorf("GlobalSlot(y) = %d, %v; want 1", slot, ok)
	}
	if _, ok := p.GlobalSlot("z"); ok {
		t.Error("GlobalSlot(z) should fail")
	}
}

// ============ Operator Tests ============

func TestCompileBinaryPrefixLayout(t *testing.T) {
	x := expr.Global("x")
	p := mustCompile(t, expr.NewBinary(x.Var(), expr.Rem, expr.Float(3)))
	want := []uint64{op(OpRem), op(OpVar), 0, op(OpFloat), bits(3)}
	if !reflect.DeepEqual(p.Code, want) {
		t.Errorf("Code = %v, want %v", p.Code, want)
	}
}

func TestCompileComparisons(t *testing.T) {
	tests := []struct {
		operator expr.Operator
		want     Opcode
	}{
		{expr.Eq, OpEq},
		{expr.Neq, OpNeq},
		{expr.Lt, OpLt},
		{expr.Lte, OpLte},
		{expr.Gt, OpGt},
		{expr.Gte, OpGte},
	}

	for _, tt := range tests {
		p := mustCompile(t, expr.NewBinary(expr.Float(1), tt.operator, expr.Float(2)))
		if got := Opcode(p.Code[0]); got != tt.want {
			t.Errorf("%s compiled to %s, want %s", tt.operator, got, tt.want)
		}
	}
}

// ============ Control Flow Tests ============

func TestCompileCountLayout(t *testing.T) {
	p := mustCompile(t, programs.Count(100))

	want := []uint64{
		op(OpBlockChecked), 26,
		op(OpAssign), 0, op(OpFloat), bits(100),
		op(OpHintWhile), op(OpWhile), 23,
		op(OpGt), op(OpVar), 0, op(OpFloat), bits(0),
		op(OpBlock), 23,
		op(OpAssign), 0, op(OpSub), op(OpVar), 0, op(OpFloat), bits(1),
		op(OpHintReturn), op(OpVar), 0,
	}
	if !reflect.DeepEqual(p.Code, want) {
		t.Errorf("Code =\n%v\nwant\n%v", p.Code, want)
	}
}

func TestCheckedBlockSelection(t *testing.T) {
	x := expr.Global("x")
	tests := []struct {
		name string
		body expr.Expr
		want Opcode
	}{
		{"plain statements", expr.NewBlock(x.Assign(expr.Float(1)), x.Var()), OpBlock},
		{"direct return", expr.NewBlock(expr.NewReturn(expr.Float(1))), OpBlockChecked},
		{"loop", expr.NewBlock(expr.NewWhile(expr.Bool(false), expr.NewBlock())), OpBlockChecked},
		{"nested block return", expr.NewBlock(expr.NewBlock(expr.NewReturn(x.Var()))), OpBlockChecked},
		{"return in branch", expr.NewBlock(expr.NewIf(expr.Bool(true), expr.NewReturn(x.Var()), nil)), OpBlockChecked},
		{"return inside assign", expr.NewBlock(x.Assign(expr.NewBlock(expr.NewReturn(expr.Float(1))))), OpBlock},
		{"empty", expr.NewBlock(), OpBlock},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := mustCompile(t, tt.body)
			if got := Opcode(p.Code[0]); got != tt.want {
				t.Errorf("block compiled to %s, want %s", got, tt.want)
			}
		})
	}
}

// A return in a nested block makes every enclosing block checked, so the
// return leaves the outer block too and the trailing assignment never runs.
func TestNestedReturnChecksOuterBlock(t *testing.T) {
	x := expr.Global("x")
	p := mustCompile(t, expr.NewBlock(
		expr.NewBlock(expr.NewReturn(expr.Float(10))),
		x.Assign(expr.Float(1)),
	))

	want := []uint64{
		op(OpBlockChecked), 11,
		op(OpBlockChecked), 7,
		op(OpHintReturn), op(OpFloat), bits(10),
		op(OpAssign), 0, op(OpFloat), bits(1),
	}
	if !reflect.DeepEqual(p.Code, want) {
		t.Fatalf("Code = %v, want %v", p.Code, want)
	}

	ctx := p.NewContext()
	v, err := ctx.Execute()
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if n, _ := v.AsFloat(); n != 10 {
		t.Errorf("Expected 10, got %v", v)
	}
	if g, _ := ctx.Global(0); g.String() != "0" {
		t.Errorf("x = %v, want 0 (assignment after the return must not run)", g)
	}
	if ctx.Offset() != len(p.Code) {
		t.Errorf("cursor at %d, want end of tape %d", ctx.Offset(), len(p.Code))
	}
}

// Statements after a return are still compiled.
func TestStatementsAfterReturnAreEmitted(t *testing.T) {
	p := mustCompile(t, expr.NewBlock(
		expr.NewReturn(expr.Float(1)),
		expr.Global("late").Assign(expr.Float(2)),
	))
	if !reflect.DeepEqual(p.Globals, []string{"late"}) {
		t.Errorf("Globals = %v, want [late]", p.Globals)
	}
}

func TestCompileIfLayout(t *testing.T) {
	p := mustCompile(t, expr.NewIf(expr.Bool(true), expr.Float(1), nil))
	want := []uint64{
		op(OpConditional), 1, 8,
		8, op(OpTrue), op(OpFloat), bits(1),
		op(OpNil),
	}
	want[2] = uint64(len(want))
	want[3] = 7
	if !reflect.DeepEqual(p.Code, want) {
		t.Errorf("Code = %v, want %v", p.Code, want)
	}
}

func TestCompiledJumpsArePatched(t *testing.T) {
	for _, s := range programs.All() {
		p := mustCompile(t, s.Build(3))
		if err := p.Validate(); err != nil {
			t.Errorf("%s: Validate failed: %v", s.Name, err)
		}
	}
}

// ============ Error Tests ============

func TestCompileErrors(t *testing.T) {
	tests := []struct {
		name string
		e    expr.Expr
		want string
	}{
		{"nil", nil, "nil expression"},
		{"nil statement", expr.NewBlock(expr.Float(1), nil), "nil expression"},
		{"bad operator", expr.NewBinary(expr.Float(1), expr.Operator(99), expr.Float(2)), "unknown operator"},
	}

	for _, tt := range tests {
		_, err := Compile(tt.e)
		if err == nil || !strings.Contains(err.Error(), tt.want) {
			t.Errorf("%s: err = %v, want containing %q", tt.name, err, tt.want)
		}
	}
}
