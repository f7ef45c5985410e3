// Package bytecode compiles expression trees to a flat tape of 64-bit
// words and executes the tape by direct handler dispatch.
//
// # Tape layout
//
// Every word is an opcode tag, the bit pattern of a float64, or an
// unsigned integer (global slot, absolute jump target, branch count).
// Operands follow their opcode and nested expressions follow the operands
// in prefix order, so
//
//	global x = x - 1
//
// compiles to
//
//	ASSIGN 0  SUB  VAR 0  FLOAT 1
//
// Jump targets are absolute offsets just past the construct they close.
// The compiler emits them as zero placeholders and backpatches them once
// the construct is complete; a zero target at run time is an unresolved
// jump.
//
// # Dispatch
//
// There is no interpreter loop. Execution reads an opcode, looks it up in
// the jump table for the expected result shape and calls the handler.
// Each handler reads its own operands and calls back into the dispatcher
// for nested expressions. Two shapes exist: value.Value for ordinary
// expressions and Completion for loops, which must report whether their
// body returned.
//
// # Returns
//
// A return unwinds as an error sentinel carrying its payload. Checked
// blocks and loops skip to their end and pass it on; assignments,
// operands, conditions and the program root absorb it and use the payload
// as the value. Hint opcodes mark the places where this can happen so
// plain blocks never pay for the check.
//
// # Concurrency
//
// A Program is read-only after compilation. Any number of CallContexts
// may execute it at once, each on its own goroutine.
package bytecode
