package expr

// Float returns a float literal.
func Float(f float64) *FloatLit { return &FloatLit{Value: f} }

// Bool returns a boolean literal.
func Bool(b bool) *BoolLit { return &BoolLit{Value: b} }

// NewBinary returns left op right.
func NewBinary(left Expr, op Operator, right Expr) *BinaryOp {
	return &BinaryOp{Left: left, Op: op, Right: right}
}

// NewBlock returns a block of the given statements.
func NewBlock(statements ...Expr) *Block {
	return &Block{Statements: statements}
}

// NewWhile returns a loop running body while cond is truthy.
func NewWhile(cond, body Expr) *While {
	return &While{Cond: cond, Body: body}
}

// NewReturn returns an early exit carrying value.
func NewReturn(value Expr) *Return {
	return &Return{Value: value}
}

// NewIf returns a single-branch conditional. elseExpr may be nil.
func NewIf(cond, body, elseExpr Expr) *If {
	return &If{Branches: []Branch{{Cond: cond, Body: body}}, Else: elseExpr}
}

// ElseIf appends a branch and returns the receiver.
func (n *If) ElseIf(cond, body Expr) *If {
	n.Branches = append(n.Branches, Branch{Cond: cond, Body: body})
	return n
}

// Walk calls fn for e and then each of its descendants in evaluation order.
// Returning false from fn skips the node's children.
func Walk(e Expr, fn func(Expr) bool) {
	if e == nil || !fn(e) {
		return
	}
	switch n := e.(type) {
	case *Assign:
		Walk(n.Value, fn)
	case *BinaryOp:
		Walk(n.Left, fn)
		Walk(n.Right, fn)
	case *Block:
		for _, s := range n.Statements {
			Walk(s, fn)
		}
	case *While:
		Walk(n.Cond, fn)
		Walk(n.Body, fn)
	case *Return:
		Walk(n.Value, fn)
	case *If:
		for _, b := range n.Branches {
			Walk(b.Cond, fn)
			Walk(b.Body, fn)
		}
		Walk(n.Else, fn)
	}
}

// References returns the binding names of every Var and Assign in e,
// one entry per occurrence.
func References(e Expr) []string {
	var names []string
	Walk(e, func(n Expr) bool {
		switch n := n.(type) {
		case *Var:
			names = append(names, n.Binding.Name())
		case *Assign:
			names = append(names, n.Binding.Name())
		}
		return true
	})
	return names
}
