package bytecode

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Node is one decoded instruction with the expressions nested inside it.
// Operands holds the raw operand words in tape order; Children holds the
// nested expressions in evaluation order.
type Node struct {
	Op       Opcode
	Offset   int
	Operands []uint64
	Children []*Node
}

// Decode walks the whole tape following the jump words written by the
// compiler and returns the root instruction.
func Decode(p *Program) (*Node, error) {
	d := &decoder{tape: NewTape(p.Code), globals: p.Globals}
	root, err := d.node(false)
	if err != nil {
		return nil, err
	}
	if d.tape.Offset() != d.tape.Len() {
		return nil, newError(CodeOutOfRange, d.tape.Offset(), "%d trailing words after root expression", d.tape.Len()-d.tape.Offset())
	}
	return root, nil
}

type decoder struct {
	tape    Tape
	globals []string
}

func (d *decoder) node(loop bool) (*Node, error) {
	at := d.tape.Offset()
	w, err := d.tape.Peek()
	if err != nil {
		return nil, err
	}
	op := Opcode(w)
	if w > 0xFF || !op.Defined() {
		return nil, newError(CodeBadOpcode, at, "unknown opcode: 0x%x", w)
	}
	if op == OpHintBreak {
		return nil, newError(CodeUnknownHint, at, "%s is reserved", op)
	}
	if (op == OpWhile) != loop {
		shape := "value"
		if loop {
			shape = "loop"
		}
		return nil, newError(CodeBadOpcode, at, "%s has no %s-shaped handler", op, shape)
	}

	if err := d.tape.Skip(1); err != nil {
		return nil, err
	}

	n := &Node{Op: op, Offset: at}
	switch {
	case op == OpFloat:
		err = d.operand(n)

	case op == OpVar:
		err = d.slot(n)

	case op == OpAssign:
		if err = d.slot(n); err == nil {
			err = d.children(n, 1)
		}

	case op.IsBinary():
		err = d.children(n, 2)

	case op.IsBlock():
		var end int
		if end, err = d.target(n); err != nil {
			return nil, err
		}
		for d.tape.Offset() < end {
			if err = d.children(n, 1); err != nil {
				return nil, err
			}
		}
		err = d.expectAt(end)

	case op == OpHintReturn:
		err = d.children(n, 1)

	case op == OpHintWhile:
		var loopNode *Node
		if loopNode, err = d.node(true); err == nil {
			n.Children = append(n.Children, loopNode)
		}

	case op == OpWhile:
		var end int
		if end, err = d.target(n); err != nil {
			return nil, err
		}
		if err = d.children(n, 2); err != nil {
			return nil, err
		}
		err = d.expectAt(end)

	case op == OpConditional:
		err = d.conditional(n)
	}
	if err != nil {
		return nil, err
	}
	return n, nil
}

func (d *decoder) conditional(n *Node) error {
	at := d.tape.Offset()
	count, err := d.tape.NextInt()
	if err != nil {
		return err
	}
	if count > d.tape.Len() {
		return newError(CodeOutOfRange, at, "branch count %d exceeds tape length", count)
	}
	n.Operands = append(n.Operands, uint64(count))
	end, err := d.target(n)
	if err != nil {
		return err
	}
	for i := 0; i < count; i++ {
		next, err := d.target(n)
		if err != nil {
			return err
		}
		if err := d.children(n, 2); err != nil {
			return err
		}
		if err := d.expectAt(next); err != nil {
			return err
		}
	}
	if err := d.children(n, 1); err != nil {
		return err
	}
	return d.expectAt(end)
}

func (d *decoder) operand(n *Node) error {
	w, err := d.tape.Next()
	if err != nil {
		return err
	}
	n.Operands = append(n.Operands, w)
	return nil
}

func (d *decoder) slot(n *Node) error {
	at := d.tape.Offset()
	i, err := d.tape.NextInt()
	if err != nil {
		return err
	}
	if i >= len(d.globals) {
		return newError(CodeOutOfRange, at, "global slot %d out of range (%d globals)", i, len(d.globals))
	}
	n.Operands = append(n.Operands, uint64(i))
	return nil
}

func (d *decoder) target(n *Node) (int, error) {
	t, err := d.tape.NextTarget()
	if err != nil {
		return 0, err
	}
	n.Operands = append(n.Operands, uint64(t))
	return t, nil
}

func (d *decoder) children(n *Node, count int) error {
	for i := 0; i < count; i++ {
		child, err := d.node(false)
		if err != nil {
			return err
		}
		n.Children = append(n.Children, child)
	}
	return nil
}

func (d *decoder) expectAt(offset int) error {
	if d.tape.Offset() != offset {
		return newError(CodeOutOfRange, d.tape.Offset(), "expected construct to end at %d", offset)
	}
	return nil
}

// ============ Surface syntax ============

// Disassemble renders the program as readable source.
func Disassemble(p *Program) (string, error) {
	root, err := Decode(p)
	if err != nil {
		return "", err
	}
	r := &renderer{globals: p.Globals}
	r.expr(root)
	r.sb.WriteString("\n")
	return r.sb.String(), nil
}

type renderer struct {
	sb      strings.Builder
	globals []string
	depth   int
}

func (r *renderer) expr(n *Node) {
	switch {
	case n.Op == OpFloat:
		r.sb.WriteString(formatFloat(n.Operands[0]))
	case n.Op == OpTrue:
		r.sb.WriteString("true")
	case n.Op == OpFalse:
		r.sb.WriteString("false")
	case n.Op == OpNil:
		r.sb.WriteString("nil")
	case n.Op == OpVar:
		r.sb.WriteString(r.globals[n.Operands[0]])
	case n.Op == OpAssign:
		fmt.Fprintf(&r.sb, "global %s = ", r.globals[n.Operands[0]])
		r.expr(n.Children[0])
	case n.Op.IsBinary():
		r.operand(n.Children[0])
		fmt.Fprintf(&r.sb, " %s ", GetOpcodeInfo(n.Op).Symbol)
		r.operand(n.Children[1])
	case n.Op.IsBlock():
		r.block(n.Children)
	case n.Op == OpHintReturn:
		r.sb.WriteString("return ")
		r.expr(n.Children[0])
	case n.Op == OpHintBreak:
		r.sb.WriteString("break")
	case n.Op == OpHintWhile:
		loop := n.Children[0]
		r.sb.WriteString("while ")
		r.expr(loop.Children[0])
		r.sb.WriteString(" ")
		r.body(loop.Children[1])
	case n.Op == OpConditional:
		r.conditional(n)
	}
}

// operand parenthesizes nested binary expressions.
func (r *renderer) operand(n *Node) {
	if n.Op.IsBinary() {
		r.sb.WriteString("(")
		r.expr(n)
		r.sb.WriteString(")")
		return
	}
	r.expr(n)
}

func (r *renderer) block(stmts []*Node) {
	if len(stmts) == 0 {
		r.sb.WriteString("{}")
		return
	}
	r.sb.WriteString("{\n")
	r.depth++
	for _, s := range stmts {
		r.indent()
		r.expr(s)
		r.sb.WriteString("\n")
	}
	r.depth--
	r.indent()
	r.sb.WriteString("}")
}

// body renders a loop or branch body as a block even when it is a single
// expression.
func (r *renderer) body(n *Node) {
	if n.Op.IsBlock() {
		r.expr(n)
		return
	}
	r.block([]*Node{n})
}

func (r *renderer) conditional(n *Node) {
	count := int(n.Operands[0])
	for i := 0; i < count; i++ {
		if i > 0 {
			r.sb.WriteString(" else ")
		}
		r.sb.WriteString("if ")
		r.expr(n.Children[2*i])
		r.sb.WriteString(" ")
		r.body(n.Children[2*i+1])
	}
	elseNode := n.Children[2*count]
	if elseNode.Op == OpNil && count > 0 {
		return
	}
	if count > 0 {
		r.sb.WriteString(" else ")
		r.body(elseNode)
		return
	}
	r.expr(elseNode)
}

func (r *renderer) indent() {
	r.sb.WriteString(strings.Repeat("    ", r.depth))
}

func formatFloat(bits uint64) string {
	return strconv.FormatFloat(math.Float64frombits(bits), 'g', -1, 64)
}

// ============ Listing ============

// Listing returns one line per instruction with its offset, opcode and
// operands, indented by nesting depth.
func Listing(p *Program) (string, error) {
	root, err := Decode(p)
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "; %d words, %d globals\n", len(p.Code), len(p.Globals))
	for i, name := range p.Globals {
		fmt.Fprintf(&sb, ";   [%3d] %s\n", i, name)
	}
	sb.WriteString("\n")
	for _, line := range ListingLines(root, p.Globals) {
		sb.WriteString(line)
		sb.WriteString("\n")
	}
	return sb.String(), nil
}

// ListingLines renders a decoded tree as listing lines.
func ListingLines(root *Node, globals []string) []string {
	var lines []string
	var walk func(n *Node, depth int)
	walk = func(n *Node, depth int) {
		lines = append(lines, fmt.Sprintf("%04d  %s%s", n.Offset, strings.Repeat("  ", depth), instruction(n, globals)))
		for _, c := range n.Children {
			walk(c, depth+1)
		}
	}
	walk(root, 0)
	return lines
}

func instruction(n *Node, globals []string) string {
	name := n.Op.String()
	switch {
	case n.Op == OpFloat:
		return fmt.Sprintf("%s %s", name, formatFloat(n.Operands[0]))
	case n.Op == OpVar || n.Op == OpAssign:
		slot := n.Operands[0]
		return fmt.Sprintf("%s %d ; %s", name, slot, globals[slot])
	case n.Op.IsBlock() || n.Op == OpWhile:
		return fmt.Sprintf("%s -> %04d", name, n.Operands[0])
	case n.Op == OpConditional:
		return fmt.Sprintf("%s %d -> %04d", name, n.Operands[0], n.Operands[1])
	}
	return name
}
