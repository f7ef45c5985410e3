package bytecode

import "fmt"

// Opcode is the tag stored in an instruction word.
// Opcodes are organized into ranges by category for easy identification.
// Zero is never emitted, so an unpatched or zeroed word fails to decode.
type Opcode byte

const (
	// ========================================================================
	// Literals (0x10-0x1F)
	// ========================================================================

	OpFloat Opcode = 0x10 // Float literal: OpFloat <bits>
	OpTrue  Opcode = 0x11 // Boolean true
	OpFalse Opcode = 0x12 // Boolean false
	OpNil   Opcode = 0x13 // Nil, used for a conditional without else

	// ========================================================================
	// Globals (0x20-0x2F)
	// ========================================================================

	OpVar    Opcode = 0x20 // Read global: OpVar <slot>
	OpAssign Opcode = 0x21 // Store global: OpAssign <slot> <expr>

	// ========================================================================
	// Arithmetic (0x30-0x3F)
	// ========================================================================

	OpAdd Opcode = 0x30 // <lhs> + <rhs>
	OpSub Opcode = 0x31 // <lhs> - <rhs>
	OpMul Opcode = 0x32 // <lhs> * <rhs>
	OpDiv Opcode = 0x33 // <lhs> / <rhs>
	OpRem Opcode = 0x34 // <lhs> % <rhs>, truncated remainder

	// ========================================================================
	// Comparison (0x40-0x4F)
	// ========================================================================

	OpEq  Opcode = 0x40 // <lhs> == <rhs>, any kinds
	OpNeq Opcode = 0x41 // <lhs> != <rhs>, any kinds
	OpLt  Opcode = 0x42 // <lhs> < <rhs>
	OpLte Opcode = 0x43 // <lhs> <= <rhs>
	OpGt  Opcode = 0x44 // <lhs> > <rhs>
	OpGte Opcode = 0x45 // <lhs> >= <rhs>

	// ========================================================================
	// Control flow (0x50-0x5F)
	// ========================================================================

	OpBlock        Opcode = 0x50 // OpBlock <end> <stmt>...
	OpBlockChecked Opcode = 0x51 // OpBlockChecked <end> <stmt>..., stops at a return
	OpWhile        Opcode = 0x52 // OpWhile <end> <cond> <body>, loop shaped
	OpConditional  Opcode = 0x53 // OpConditional <count> <end> (<next> <cond> <body>)* <else>

	// ========================================================================
	// Hints (0xF0-0xFF)
	// ========================================================================

	OpHintReturn Opcode = 0xF0 // Early return: OpHintReturn <expr>
	OpHintBreak  Opcode = 0xF1 // Reserved, never emitted
	OpHintWhile  Opcode = 0xF2 // Loop exit marker: OpHintWhile OpWhile ...
)

// OpcodeInfo provides metadata about each opcode for debugging and validation.
type OpcodeInfo struct {
	Name     string // Human-readable name
	Symbol   string // Infix symbol for binary operators
	Operands int    // Fixed operand words following the opcode
	Children int    // Nested expressions following the operands (-1 = variable)
}

// opcodeInfoTable maps opcodes to their metadata.
var opcodeInfoTable = map[Opcode]OpcodeInfo{
	// Literals
	OpFloat: {"FLOAT", "", 1, 0},
	OpTrue:  {"TRUE", "", 0, 0},
	OpFalse: {"FALSE", "", 0, 0},
	OpNil:   {"NIL", "", 0, 0},

	// Globals
	OpVar:    {"VAR", "", 1, 0},
	OpAssign: {"ASSIGN", "", 1, 1},

	// Arithmetic
	OpAdd: {"ADD", "+", 0, 2},
	OpSub: {"SUB", "-", 0, 2},
	OpMul: {"MUL", "*", 0, 2},
	OpDiv: {"DIV", "/", 0, 2},
	OpRem: {"REM", "%", 0, 2},

	// Comparison
	OpEq:  {"EQ", "==", 0, 2},
	OpNeq: {"NEQ", "!=", 0, 2},
	OpLt:  {"LT", "<", 0, 2},
	OpLte: {"LTE", "<=", 0, 2},
	OpGt:  {"GT", ">", 0, 2},
	OpGte: {"GTE", ">=", 0, 2},

	// Control flow
	OpBlock:        {"BLOCK", "", 1, -1},
	OpBlockChecked: {"BLOCK_CHECKED", "", 1, -1},
	OpWhile:        {"WHILE", "", 1, 2},
	OpConditional:  {"CONDITIONAL", "", 2, -1},

	// Hints
	OpHintReturn: {"HINT_RETURN", "", 0, 1},
	OpHintBreak:  {"HINT_BREAK", "", 0, 0},
	OpHintWhile:  {"HINT_WHILE", "", 0, 1},
}

// GetOpcodeInfo returns metadata for an opcode.
// Returns a zero OpcodeInfo with name "UNKNOWN" if the opcode is not recognized.
func GetOpcodeInfo(op Opcode) OpcodeInfo {
	if info, ok := opcodeInfoTable[op]; ok {
		return info
	}
	return OpcodeInfo{Name: fmt.Sprintf("UNKNOWN(0x%02X)", byte(op))}
}

// String returns the human-readable name of an opcode.
func (op Opcode) String() string {
	return GetOpcodeInfo(op).Name
}

// Defined reports whether op has metadata.
func (op Opcode) Defined() bool {
	_, ok := opcodeInfoTable[op]
	return ok
}

// IsBinary returns true if this opcode applies an operator to two operands.
func (op Opcode) IsBinary() bool {
	return op >= OpAdd && op <= OpGte && op.Defined()
}

// IsHint returns true if this opcode is an in-band hint.
func (op Opcode) IsHint() bool {
	return op >= OpHintReturn && op <= OpHintWhile
}

// IsBlock returns true for both block variants.
func (op Opcode) IsBlock() bool {
	return op == OpBlock || op == OpBlockChecked
}

// AllOpcodes returns a slice of all defined opcodes.
func AllOpcodes() []Opcode {
	opcodes := make([]Opcode, 0, len(opcodeInfoTable))
	for op := range opcodeInfoTable {
		opcodes = append(opcodes, op)
	}
	return opcodes
}

// OpcodeCount returns the number of defined opcodes.
func OpcodeCount() int {
	return len(opcodeInfoTable)
}
