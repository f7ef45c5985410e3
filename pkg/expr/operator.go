package expr

import "fmt"

// Operator is a binary operator.
type Operator uint8

const (
	Add Operator = iota
	Sub
	Mul
	Div
	Rem
	Eq
	Neq
	Lt
	Lte
	Gt
	Gte

	operatorCount
)

var operatorSymbols = [operatorCount]string{
	Add: "+",
	Sub: "-",
	Mul: "*",
	Div: "/",
	Rem: "%",
	Eq:  "==",
	Neq: "!=",
	Lt:  "<",
	Lte: "<=",
	Gt:  ">",
	Gte: ">=",
}

// String returns the infix symbol of the operator.
func (op Operator) String() string {
	if op < operatorCount {
		return operatorSymbols[op]
	}
	return fmt.Sprintf("Operator(%d)", uint8(op))
}

// Valid reports whether op is a defined operator.
func (op Operator) Valid() bool {
	return op < operatorCount
}

// IsComparison reports whether op produces a boolean.
func (op Operator) IsComparison() bool {
	return op >= Eq && op <= Gte
}

// Operators returns every defined operator in declaration order.
func Operators() []Operator {
	ops := make([]Operator, 0, operatorCount)
	for op := Operator(0); op < operatorCount; op++ {
		ops = append(ops, op)
	}
	return ops
}
