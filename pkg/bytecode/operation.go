package bytecode

import "github.com/chazu/tapevm/pkg/value"

// Completion is the result shape of loop opcodes. Propagate reports that
// the loop body executed a return and Value is its payload.
type Completion struct {
	Value     value.Value
	Propagate bool
}

// Shape is the set of results an opcode handler can produce.
type Shape interface {
	value.Value | Completion
}

// Handler executes one opcode. The cursor is positioned just past the
// opcode word; the handler consumes its own operands and nested
// expressions.
type Handler[S Shape] func(ctx *CallContext) (S, error)

// Operation is a decoded opcode bound to the handler for its shape.
type Operation[S Shape] struct {
	Op Opcode
	At int // offset of the opcode word
	fn Handler[S]
}

// Call runs the operation against ctx.
func (o Operation[S]) Call(ctx *CallContext) (S, error) {
	return o.fn(ctx)
}

// Jump tables, one per shape. Filled in by init in handlers.go.
var (
	valueHandlers      [256]Handler[value.Value]
	completionHandlers [256]Handler[Completion]
)

// nextOperation reads the word at the cursor and resolves it against the
// jump table for shape S. A word that is not an opcode, or an opcode with
// no handler of that shape, is rejected.
func nextOperation[S Shape](t *Tape) (Operation[S], error) {
	at := t.pos
	w, err := t.Next()
	if err != nil {
		return Operation[S]{}, err
	}
	if w > 0xFF {
		return Operation[S]{}, newError(CodeBadOpcode, at, "word 0x%x is not an opcode", w)
	}
	op := Opcode(w)

	var fn Handler[S]
	switch h := any(&fn).(type) {
	case *Handler[value.Value]:
		*h = valueHandlers[op]
	case *Handler[Completion]:
		*h = completionHandlers[op]
	}
	if fn == nil {
		if !op.Defined() {
			return Operation[S]{}, newError(CodeBadOpcode, at, "unknown opcode: 0x%02x", byte(op))
		}
		return Operation[S]{}, newError(CodeBadOpcode, at, "%s has no %s-shaped handler", op, shapeName[S]())
	}
	return Operation[S]{Op: op, At: at, fn: fn}, nil
}

func shapeName[S Shape]() string {
	var s S
	if _, ok := any(s).(Completion); ok {
		return "loop"
	}
	return "value"
}
