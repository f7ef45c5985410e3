package bytecode

import (
	"strings"
	"testing"

	"github.com/chazu/tapevm/pkg/expr"
)

func TestAllOpcodesHaveInfo(t *testing.T) {
	for _, op := range AllOpcodes() {
		info := GetOpcodeInfo(op)
		if info.Name == "" || strings.HasPrefix(info.Name, "UNKNOWN") {
			t.Errorf("opcode 0x%02X has no name", byte(op))
		}
	}
	if OpcodeCount() != len(AllOpcodes()) {
		t.Errorf("OpcodeCount() = %d, want %d", OpcodeCount(), len(AllOpcodes()))
	}
}

func TestUnknownOpcodeName(t *testing.T) {
	if got := Opcode(0x00).String(); got != "UNKNOWN(0x00)" {
		t.Errorf("String() = %q, want UNKNOWN(0x00)", got)
	}
	if Opcode(0x00).Defined() {
		t.Error("0x00 should not be defined")
	}
}

func TestOpcodeCategories(t *testing.T) {
	binaries := []Opcode{OpAdd, OpSub, OpMul, OpDiv, OpRem, OpEq, OpNeq, OpLt, OpLte, OpGt, OpGte}
	for _, op := range binaries {
		if !op.IsBinary() {
			t.Errorf("%s should be binary", op)
		}
	}
	for _, op := range []Opcode{OpFloat, OpVar, OpBlock, Opcode(0x3A)} {
		if op.IsBinary() {
			t.Errorf("%s should not be binary", op)
		}
	}
	for _, op := range []Opcode{OpHintReturn, OpHintBreak, OpHintWhile} {
		if !op.IsHint() {
			t.Errorf("%s should be a hint", op)
		}
	}
	if !OpBlock.IsBlock() || !OpBlockChecked.IsBlock() || OpWhile.IsBlock() {
		t.Error("IsBlock categories wrong")
	}
}

// Every operator must compile to the opcode carrying its own symbol.
func TestOperatorOpcodeMapping(t *testing.T) {
	for _, operator := range expr.Operators() {
		op, ok := OpcodeFor(operator)
		if !ok {
			t.Errorf("no opcode for %s", operator)
			continue
		}
		if sym := GetOpcodeInfo(op).Symbol; sym != operator.String() {
			t.Errorf("%s compiles to %s with symbol %q", operator, op, sym)
		}
		if back := opcodeOperators[op]; back != operator {
			t.Errorf("%s maps back to %s", op, back)
		}
	}
}

func TestEveryOpcodeHasAHandler(t *testing.T) {
	for _, op := range AllOpcodes() {
		if op == OpWhile {
			if completionHandlers[op] == nil {
				t.Errorf("%s has no loop handler", op)
			}
			if valueHandlers[op] != nil {
				t.Errorf("%s should not have a value handler", op)
			}
			continue
		}
		if valueHandlers[op] == nil {
			t.Errorf("%s has no value handler", op)
		}
	}
}
