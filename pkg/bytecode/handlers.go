package bytecode

import (
	"github.com/chazu/tapevm/pkg/expr"
	"github.com/chazu/tapevm/pkg/value"
)

func init() {
	valueHandlers[OpFloat] = opFloat
	valueHandlers[OpTrue] = opTrue
	valueHandlers[OpFalse] = opFalse
	valueHandlers[OpNil] = opNil

	valueHandlers[OpVar] = opVar
	valueHandlers[OpAssign] = opAssign

	for op, operator := range opcodeOperators {
		valueHandlers[op] = binaryHandler(operator)
	}

	valueHandlers[OpBlock] = opBlock
	valueHandlers[OpBlockChecked] = opBlockChecked
	valueHandlers[OpConditional] = opConditional

	valueHandlers[OpHintReturn] = opHintReturn
	valueHandlers[OpHintBreak] = opHintBreak
	valueHandlers[OpHintWhile] = opHintWhile

	completionHandlers[OpWhile] = opWhile
}

// ============ Literals ============

func opFloat(ctx *CallContext) (value.Value, error) {
	f, err := ctx.tape.NextFloat()
	if err != nil {
		return value.Nil, err
	}
	return value.Float(f), nil
}

func opTrue(*CallContext) (value.Value, error)  { return value.Bool(true), nil }
func opFalse(*CallContext) (value.Value, error) { return value.Bool(false), nil }
func opNil(*CallContext) (value.Value, error)   { return value.Nil, nil }

// ============ Globals ============

func opVar(ctx *CallContext) (value.Value, error) {
	i, err := ctx.slot()
	if err != nil {
		return value.Nil, err
	}
	return ctx.globals[i], nil
}

func opAssign(ctx *CallContext) (value.Value, error) {
	i, err := ctx.slot()
	if err != nil {
		return value.Nil, err
	}
	v, err := ctx.operand()
	if err != nil {
		return value.Nil, err
	}
	ctx.globals[i] = v
	return value.Nil, nil
}

// ============ Arithmetic and comparison ============

// binaryHandler evaluates both operands in order, keeping the left one on
// the evaluation stack while the right one runs.
func binaryHandler(operator expr.Operator) Handler[value.Value] {
	return func(ctx *CallContext) (value.Value, error) {
		at := ctx.tape.Offset() - 1
		lhs, err := ctx.operand()
		if err != nil {
			return value.Nil, err
		}
		ctx.push(lhs)
		rhs, err := ctx.operand()
		lhs = ctx.pop()
		if err != nil {
			return value.Nil, err
		}
		v, err := value.Apply(operator, lhs, rhs)
		if err != nil {
			return value.Nil, wrapError(CodeTypeMismatch, at, err)
		}
		return v, nil
	}
}

// ============ Blocks ============

func opBlock(ctx *CallContext) (value.Value, error) {
	end, err := ctx.tape.NextTarget()
	if err != nil {
		return value.Nil, err
	}
	for ctx.tape.Offset() < end {
		if _, err := ctx.eval(); err != nil {
			return value.Nil, err
		}
	}
	return value.Nil, blockEnd(ctx, end)
}

// opBlockChecked stops at the first statement that returns, moves past
// the block and passes the return on.
func opBlockChecked(ctx *CallContext) (value.Value, error) {
	end, err := ctx.tape.NextTarget()
	if err != nil {
		return value.Nil, err
	}
	for ctx.tape.Offset() < end {
		v, err := ctx.eval()
		if err == errReturnSignal {
			if err := ctx.tape.MoveTo(end); err != nil {
				return value.Nil, err
			}
			return v, errReturnSignal
		}
		if err != nil {
			return value.Nil, err
		}
	}
	return value.Nil, blockEnd(ctx, end)
}

func blockEnd(ctx *CallContext, end int) error {
	if ctx.tape.Offset() != end {
		return newError(CodeOutOfRange, ctx.tape.Offset(), "block statements overran end %d", end)
	}
	return nil
}

// ============ Loops ============

func opHintWhile(ctx *CallContext) (value.Value, error) {
	op, err := nextOperation[Completion](&ctx.tape)
	if err != nil {
		return value.Nil, err
	}
	if ctx.trace != nil {
		ctx.traceOp(op.Op, op.At)
	}
	c, err := op.Call(ctx)
	if err != nil {
		return value.Nil, err
	}
	if c.Propagate {
		return c.Value, errReturnSignal
	}
	return value.Nil, nil
}

func opWhile(ctx *CallContext) (Completion, error) {
	end, err := ctx.tape.NextTarget()
	if err != nil {
		return Completion{}, err
	}
	start := ctx.tape.Save()
	for {
		cond, err := ctx.operand()
		if err != nil {
			return Completion{}, err
		}
		if !cond.Truthy() {
			break
		}
		v, err := ctx.eval()
		if err == errReturnSignal {
			if err := ctx.tape.MoveTo(end); err != nil {
				return Completion{}, err
			}
			return Completion{Value: v, Propagate: true}, nil
		}
		if err != nil {
			return Completion{}, err
		}
		ctx.tape.Restore(start)
	}
	if err := ctx.tape.MoveTo(end); err != nil {
		return Completion{}, err
	}
	return Completion{}, nil
}

// ============ Conditionals ============

func opConditional(ctx *CallContext) (value.Value, error) {
	count, err := ctx.tape.NextInt()
	if err != nil {
		return value.Nil, err
	}
	end, err := ctx.tape.NextTarget()
	if err != nil {
		return value.Nil, err
	}
	for i := 0; i < count; i++ {
		next, err := ctx.tape.NextTarget()
		if err != nil {
			return value.Nil, err
		}
		cond, err := ctx.operand()
		if err != nil {
			return value.Nil, err
		}
		if !cond.Truthy() {
			if err := ctx.tape.MoveTo(next); err != nil {
				return value.Nil, err
			}
			continue
		}
		v, err := ctx.eval()
		if err != nil && err != errReturnSignal {
			return value.Nil, err
		}
		if merr := ctx.tape.MoveTo(end); merr != nil {
			return value.Nil, merr
		}
		return v, err
	}
	return ctx.eval()
}

// ============ Hints ============

func opHintReturn(ctx *CallContext) (value.Value, error) {
	v, err := ctx.operand()
	if err != nil {
		return value.Nil, err
	}
	return v, errReturnSignal
}

func opHintBreak(ctx *CallContext) (value.Value, error) {
	return value.Nil, newError(CodeUnknownHint, ctx.tape.Offset()-1, "%s is reserved", OpHintBreak)
}
