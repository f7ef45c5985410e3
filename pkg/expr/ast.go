// Package expr defines the expression tree evaluated by both execution
// strategies. Trees are built programmatically; there is no parser.
package expr

// ---------------------------------------------------------------------------
// Expression nodes
// ---------------------------------------------------------------------------

// Expr is the interface implemented by all expression nodes.
type Expr interface {
	expr() // marker method
}

// FloatLit is a 64-bit floating point literal.
type FloatLit struct {
	Value float64
}

// BoolLit is a boolean literal.
type BoolLit struct {
	Value bool
}

// Var reads a variable.
type Var struct {
	Binding Binding
}

// Assign stores the value of an expression into a variable.
// The assignment itself evaluates to nil.
type Assign struct {
	Binding Binding
	Value   Expr
}

// BinaryOp applies an operator to two operands, left first.
type BinaryOp struct {
	Left  Expr
	Op    Operator
	Right Expr
}

// Block evaluates its statements in order and evaluates to nil.
type Block struct {
	Statements []Expr
}

// While repeats Body for as long as Cond is truthy.
type While struct {
	Cond Expr
	Body Expr
}

// Return exits the nearest enclosing value boundary with Value.
type Return struct {
	Value Expr
}

// Branch is one condition/body pair of an If.
type Branch struct {
	Cond Expr
	Body Expr
}

// If evaluates the body of the first branch whose condition is truthy,
// or Else when none is. A nil Else evaluates to nil.
type If struct {
	Branches []Branch
	Else     Expr
}

func (*FloatLit) expr() {}
func (*BoolLit) expr()  {}
func (*Var) expr()      {}
func (*Assign) expr()   {}
func (*BinaryOp) expr() {}
func (*Block) expr()    {}
func (*While) expr()    {}
func (*Return) expr()   {}
func (*If) expr()       {}

// ---------------------------------------------------------------------------
// Bindings
// ---------------------------------------------------------------------------

// Binding names the storage an Assign or Var refers to.
type Binding interface {
	Name() string
	binding() // marker method
}

// Global is a program-wide variable identified by name.
type Global string

// Name returns the variable name.
func (g Global) Name() string { return string(g) }

func (Global) binding() {}

// Var returns a read of the global.
func (g Global) Var() *Var { return &Var{Binding: g} }

// Assign returns a store of value into the global.
func (g Global) Assign(value Expr) *Assign { return &Assign{Binding: g, Value: value} }
