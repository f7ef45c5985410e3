// Package value defines the runtime values shared by the tape VM and the
// closure compiler, together with the semantics of every binary operator.
package value

import (
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/chazu/tapevm/pkg/expr"
)

// Kind identifies the variant held by a Value.
// The declaration order is also the ordering between variants.
type Kind uint8

const (
	KindNil Kind = iota
	KindBoolean
	KindFloat
)

func (k Kind) String() string {
	switch k {
	case KindNil:
		return "nil"
	case KindBoolean:
		return "boolean"
	case KindFloat:
		return "float"
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// Value is a tagged union of nil, boolean and float. Values are copied,
// never shared.
type Value struct {
	kind Kind
	b    bool
	f    float64
}

// Nil is the nil value.
var Nil = Value{}

// Bool returns a boolean value.
func Bool(b bool) Value { return Value{kind: KindBoolean, b: b} }

// Float returns a float value.
func Float(f float64) Value { return Value{kind: KindFloat, f: f} }

// Kind returns the variant tag.
func (v Value) Kind() Kind { return v.kind }

// IsNil reports whether v is nil.
func (v Value) IsNil() bool { return v.kind == KindNil }

// AsFloat returns the float payload and whether v is a float.
func (v Value) AsFloat() (float64, bool) { return v.f, v.kind == KindFloat }

// AsBool returns the boolean payload and whether v is a boolean.
func (v Value) AsBool() (bool, bool) { return v.b, v.kind == KindBoolean }

// Truthy reports whether v counts as true in a condition.
// A float is truthy only when it is exactly 1.0.
func (v Value) Truthy() bool {
	switch v.kind {
	case KindBoolean:
		return v.b
	case KindFloat:
		return v.f == 1.0
	}
	return false
}

// Equal reports structural equality. Values of different kinds are never
// equal and NaN is not equal to itself.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindBoolean:
		return v.b == o.b
	case KindFloat:
		return v.f == o.f
	}
	return true
}

// Compare orders v against o: first by kind, then by payload, with false
// before true. ok is false when either float is NaN.
func (v Value) Compare(o Value) (cmp int, ok bool) {
	if v.kind != o.kind {
		if v.kind < o.kind {
			return -1, true
		}
		return 1, true
	}
	switch v.kind {
	case KindBoolean:
		switch {
		case v.b == o.b:
			return 0, true
		case !v.b:
			return -1, true
		}
		return 1, true
	case KindFloat:
		switch {
		case math.IsNaN(v.f) || math.IsNaN(o.f):
			return 0, false
		case v.f < o.f:
			return -1, true
		case v.f > o.f:
			return 1, true
		}
		return 0, true
	}
	return 0, true
}

func (v Value) String() string {
	switch v.kind {
	case KindBoolean:
		return strconv.FormatBool(v.b)
	case KindFloat:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	}
	return "nil"
}

// ErrTypeMismatch is returned when an operator receives an operand of a
// kind it is not defined for.
var ErrTypeMismatch = errors.New("type mismatch")

// Apply evaluates lhs op rhs. Arithmetic and ordering operators require
// float operands; equality accepts any kinds.
func Apply(op expr.Operator, lhs, rhs Value) (Value, error) {
	switch op {
	case expr.Eq:
		return Bool(lhs.Equal(rhs)), nil
	case expr.Neq:
		return Bool(!lhs.Equal(rhs)), nil
	}

	if lhs.kind != KindFloat || rhs.kind != KindFloat {
		return Nil, fmt.Errorf("%w: %s %s %s", ErrTypeMismatch, lhs.kind, op, rhs.kind)
	}
	a, b := lhs.f, rhs.f
	if op.IsComparison() {
		cmp, ok := lhs.Compare(rhs)
		return Bool(ok && ordered(op, cmp)), nil
	}

	switch op {
	case expr.Add:
		return Float(a + b), nil
	case expr.Sub:
		return Float(a - b), nil
	case expr.Mul:
		return Float(a * b), nil
	case expr.Div:
		return Float(a / b), nil
	case expr.Rem:
		return Float(math.Mod(a, b)), nil
	}
	return Nil, fmt.Errorf("unknown operator %s", op)
}

// ordered reports whether a comparison result satisfies an ordering
// operator.
func ordered(op expr.Operator, cmp int) bool {
	switch op {
	case expr.Lt:
		return cmp < 0
	case expr.Lte:
		return cmp <= 0
	case expr.Gt:
		return cmp > 0
	case expr.Gte:
		return cmp >= 0
	}
	return false
}
