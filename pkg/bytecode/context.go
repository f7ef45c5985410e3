package bytecode

import (
	"fmt"
	"io"

	"github.com/chazu/tapevm/pkg/value"
)

// CallContext holds the state of one execution of a tape: the cursor, an
// evaluation stack for operands in flight, and the global slots.
// A CallContext is not safe for concurrent use; run one per goroutine.
type CallContext struct {
	tape    Tape
	stack   []value.Value
	globals []value.Value

	trace io.Writer
}

// NewCallContext prepares an execution of code with globalCount global
// slots, each initialised to 0.
func NewCallContext(code []uint64, globalCount int) *CallContext {
	ctx := &CallContext{
		tape:    NewTape(code),
		stack:   make([]value.Value, 0, 16),
		globals: make([]value.Value, globalCount),
	}
	ctx.resetGlobals()
	return ctx
}

// Run executes a compiled program once with fresh globals.
func Run(p *Program) (value.Value, error) {
	return NewCallContext(p.Code, len(p.Globals)).Execute()
}

// Execute evaluates the expression at the cursor. A return that reaches
// the top level becomes the result.
func (ctx *CallContext) Execute() (value.Value, error) {
	return ctx.operand()
}

// Reset rewinds the tape and clears the stack and globals so the context
// can execute the same code again.
func (ctx *CallContext) Reset() {
	ctx.tape.Restore(0)
	ctx.stack = ctx.stack[:0]
	ctx.resetGlobals()
}

func (ctx *CallContext) resetGlobals() {
	for i := range ctx.globals {
		ctx.globals[i] = value.Float(0)
	}
}

// SetTrace writes one line per dispatched opcode to w. Pass nil to stop.
func (ctx *CallContext) SetTrace(w io.Writer) {
	ctx.trace = w
}

// Globals returns a copy of the global slots.
func (ctx *CallContext) Globals() []value.Value {
	out := make([]value.Value, len(ctx.globals))
	copy(out, ctx.globals)
	return out
}

// Global returns the value in slot i.
func (ctx *CallContext) Global(i int) (value.Value, bool) {
	if i < 0 || i >= len(ctx.globals) {
		return value.Nil, false
	}
	return ctx.globals[i], true
}

// Offset returns the tape cursor position.
func (ctx *CallContext) Offset() int { return ctx.tape.Offset() }

// StackDepth returns the number of operands held on the evaluation stack.
func (ctx *CallContext) StackDepth() int { return len(ctx.stack) }

// eval dispatches the value-shaped opcode at the cursor. A return signal
// is passed through to the caller.
func (ctx *CallContext) eval() (value.Value, error) {
	op, err := nextOperation[value.Value](&ctx.tape)
	if err != nil {
		return value.Nil, err
	}
	if ctx.trace != nil {
		ctx.traceOp(op.Op, op.At)
	}
	return op.fn(ctx)
}

// operand is eval at a value boundary: a return signal stops here and its
// payload becomes the value.
func (ctx *CallContext) operand() (value.Value, error) {
	v, err := ctx.eval()
	if err == errReturnSignal {
		return v, nil
	}
	return v, err
}

func (ctx *CallContext) push(v value.Value) {
	ctx.stack = append(ctx.stack, v)
}

func (ctx *CallContext) pop() value.Value {
	n := len(ctx.stack) - 1
	v := ctx.stack[n]
	ctx.stack = ctx.stack[:n]
	return v
}

func (ctx *CallContext) slot() (int, error) {
	at := ctx.tape.Offset()
	i, err := ctx.tape.NextInt()
	if err != nil {
		return 0, err
	}
	if i >= len(ctx.globals) {
		return 0, newError(CodeOutOfRange, at, "global slot %d out of range (%d globals)", i, len(ctx.globals))
	}
	return i, nil
}

func (ctx *CallContext) traceOp(op Opcode, at int) {
	fmt.Fprintf(ctx.trace, "[%04d] %-14s depth=%d\n", at, op, len(ctx.stack))
}
