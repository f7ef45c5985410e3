package bytecode

import (
	"fmt"
	"math"
	"slices"

	"fortio.org/safecast"
	"github.com/tliron/commonlog"

	"github.com/chazu/tapevm/pkg/expr"
)

var log = commonlog.GetLogger("tapevm.bytecode")

// operatorOpcodes maps each binary operator to the opcode implementing it.
var operatorOpcodes = map[expr.Operator]Opcode{
	expr.Add: OpAdd,
	expr.Sub: OpSub,
	expr.Mul: OpMul,
	expr.Div: OpDiv,
	expr.Rem: OpRem,
	expr.Eq:  OpEq,
	expr.Neq: OpNeq,
	expr.Lt:  OpLt,
	expr.Lte: OpLte,
	expr.Gt:  OpGt,
	expr.Gte: OpGte,
}

var opcodeOperators = invertOperators(operatorOpcodes)

func invertOperators(m map[expr.Operator]Opcode) map[Opcode]expr.Operator {
	out := make(map[Opcode]expr.Operator, len(m))
	for operator, op := range m {
		out[op] = operator
	}
	return out
}

// OpcodeFor returns the opcode implementing a binary operator.
func OpcodeFor(op expr.Operator) (Opcode, bool) {
	code, ok := operatorOpcodes[op]
	return code, ok
}

// ImCompiler converts an expression tree to a tape.
// A compiler is used for a single tree.
type ImCompiler struct {
	code []uint64

	// Global slot allocation, in order of first appearance
	globals   []string
	globalMap map[string]int

	// Placeholder offsets not yet patched
	pending map[int]struct{}
}

// NewImCompiler returns an empty compiler.
func NewImCompiler() *ImCompiler {
	return &ImCompiler{
		code:      make([]uint64, 0, 64),
		globalMap: make(map[string]int),
		pending:   make(map[int]struct{}),
	}
}

// Compile compiles e into a new program.
func Compile(e expr.Expr) (*Program, error) {
	return NewImCompiler().Compile(e)
}

// Compile emits e and returns the finished program.
func (c *ImCompiler) Compile(e expr.Expr) (*Program, error) {
	if err := c.compileExpr(e); err != nil {
		return nil, err
	}
	if len(c.pending) > 0 {
		return nil, fmt.Errorf("internal error: %d jump placeholders left unpatched", len(c.pending))
	}
	log.Debugf("compiled %d words, %d globals", len(c.code), len(c.globals))
	return &Program{
		Code:    slices.Clip(c.code),
		Globals: slices.Clip(c.globals),
	}, nil
}

func (c *ImCompiler) compileExpr(e expr.Expr) error {
	switch n := e.(type) {
	case nil:
		return fmt.Errorf("cannot compile nil expression")

	case *expr.FloatLit:
		c.emit(OpFloat)
		c.emitWord(math.Float64bits(n.Value))

	case *expr.BoolLit:
		if n.Value {
			c.emit(OpTrue)
		} else {
			c.emit(OpFalse)
		}

	case *expr.Var:
		slot, err := c.globalSlot(n.Binding)
		if err != nil {
			return err
		}
		c.emit(OpVar)
		return c.emitInt(slot)

	case *expr.Assign:
		slot, err := c.globalSlot(n.Binding)
		if err != nil {
			return err
		}
		c.emit(OpAssign)
		if err := c.emitInt(slot); err != nil {
			return err
		}
		return c.compileExpr(n.Value)

	case *expr.BinaryOp:
		op, ok := operatorOpcodes[n.Op]
		if !ok {
			return fmt.Errorf("unknown operator %s", n.Op)
		}
		c.emit(op)
		if err := c.compileExpr(n.Left); err != nil {
			return err
		}
		return c.compileExpr(n.Right)

	case *expr.Block:
		return c.compileBlock(n)

	case *expr.While:
		return c.compileWhile(n)

	case *expr.Return:
		c.emit(OpHintReturn)
		return c.compileExpr(n.Value)

	case *expr.If:
		return c.compileIf(n)

	default:
		return fmt.Errorf("cannot compile %T", e)
	}
	return nil
}

func (c *ImCompiler) compileBlock(n *expr.Block) error {
	op := OpBlock
	if slices.ContainsFunc(n.Statements, needsCheck) {
		op = OpBlockChecked
	}
	c.emit(op)
	end := c.emitPlaceholder()
	for _, stmt := range n.Statements {
		if err := c.compileExpr(stmt); err != nil {
			return err
		}
	}
	return c.patch(end)
}

func (c *ImCompiler) compileWhile(n *expr.While) error {
	c.emit(OpHintWhile)
	c.emit(OpWhile)
	end := c.emitPlaceholder()
	if err := c.compileExpr(n.Cond); err != nil {
		return err
	}
	if err := c.compileExpr(n.Body); err != nil {
		return err
	}
	return c.patch(end)
}

func (c *ImCompiler) compileIf(n *expr.If) error {
	c.emit(OpConditional)
	if err := c.emitInt(len(n.Branches)); err != nil {
		return err
	}
	end := c.emitPlaceholder()
	for _, b := range n.Branches {
		next := c.emitPlaceholder()
		if err := c.compileExpr(b.Cond); err != nil {
			return err
		}
		if err := c.compileExpr(b.Body); err != nil {
			return err
		}
		if err := c.patch(next); err != nil {
			return err
		}
	}
	if n.Else == nil {
		c.emit(OpNil)
	} else if err := c.compileExpr(n.Else); err != nil {
		return err
	}
	return c.patch(end)
}

// needsCheck reports whether a statement can raise a return into the
// block that contains it. Assignments and operands stop returns, so only
// statement-level constructs count.
func needsCheck(e expr.Expr) bool {
	switch n := e.(type) {
	case *expr.Return, *expr.While:
		return true
	case *expr.Block:
		return slices.ContainsFunc(n.Statements, needsCheck)
	case *expr.If:
		for _, b := range n.Branches {
			if needsCheck(b.Body) {
				return true
			}
		}
		return n.Else != nil && needsCheck(n.Else)
	}
	return false
}

// globalSlot returns the slot of a binding, allocating the next one on
// first use.
func (c *ImCompiler) globalSlot(b expr.Binding) (int, error) {
	g, ok := b.(expr.Global)
	if !ok {
		return 0, fmt.Errorf("unsupported binding %T", b)
	}
	name := g.Name()
	if slot, ok := c.globalMap[name]; ok {
		return slot, nil
	}
	slot := len(c.globals)
	c.globals = append(c.globals, name)
	c.globalMap[name] = slot
	return slot, nil
}

// ============ Emit helpers ============

func (c *ImCompiler) emit(op Opcode) {
	c.code = append(c.code, uint64(op))
}

func (c *ImCompiler) emitWord(w uint64) {
	c.code = append(c.code, w)
}

func (c *ImCompiler) emitInt(n int) error {
	w, err := safecast.Conv[uint64](n)
	if err != nil {
		return fmt.Errorf("operand %d: %w", n, err)
	}
	c.emitWord(w)
	return nil
}

// emitPlaceholder emits a zero jump word and returns its offset for
// patching.
func (c *ImCompiler) emitPlaceholder() int {
	offset := len(c.code)
	c.code = append(c.code, 0)
	c.pending[offset] = struct{}{}
	return offset
}

// patch points a placeholder at the current end of the tape.
func (c *ImCompiler) patch(placeholder int) error {
	if _, ok := c.pending[placeholder]; !ok {
		return fmt.Errorf("internal error: no placeholder at %d", placeholder)
	}
	w, err := safecast.Conv[uint64](len(c.code))
	if err != nil {
		return err
	}
	c.code[placeholder] = w
	delete(c.pending, placeholder)
	return nil
}
