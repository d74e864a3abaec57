// Package value implements the VM's tagged scalar type: Number, String,
// Boolean and Null, plus the arithmetic, equality, ordering and truthiness
// rules that every opcode builds on.
//
// Value is a closed sum type sealed behind an unexported method rather than
// a bare `any` with scattered type assertions, so arithmetic and coercion
// rules live in one exhaustive switch instead of being re-derived at every
// call site.
package value

import (
	"fmt"
	"math"
	"strconv"

	"github.com/icn-covm/governance-vm/covmerr"
)

// Value is implemented only by Number, String, Boolean and Null. The
// unexported method seals the interface to this package.
type Value interface {
	value()
	String() string
}

type Number float64
type String string
type Boolean bool
type Null struct{}

func (Number) value()  {}
func (String) value()  {}
func (Boolean) value() {}
func (Null) value()    {}

func (n Number) String() string  { return strconv.FormatFloat(float64(n), 'g', -1, 64) }
func (s String) String() string  { return string(s) }
func (b Boolean) String() string { return strconv.FormatBool(bool(b)) }
func (Null) String() string      { return "null" }

// Truthy reports whether v is considered true in a conditional context:
// false/0/NaN/""/null are falsy, everything else is truthy.
func Truthy(v Value) bool {
	switch t := v.(type) {
	case Boolean:
		return bool(t)
	case Number:
		f := float64(t)
		return f != 0 && !math.IsNaN(f)
	case String:
		return len(t) > 0
	case Null:
		return false
	default:
		return false
	}
}

// Equal implements structural equality within a tag, with Boolean<->Number
// interop (true <-> 1, false <-> 0). All other cross-tag comparisons are
// false, never an error.
func Equal(a, b Value) bool {
	switch x := a.(type) {
	case Number:
		switch y := b.(type) {
		case Number:
			return float64(x) == float64(y)
		case Boolean:
			return float64(x) == boolToFloat(bool(y))
		default:
			return false
		}
	case String:
		y, ok := b.(String)
		return ok && x == y
	case Boolean:
		switch y := b.(type) {
		case Boolean:
			return x == y
		case Number:
			return boolToFloat(bool(x)) == float64(y)
		default:
			return false
		}
	case Null:
		_, ok := b.(Null)
		return ok
	default:
		return false
	}
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// Compare orders two Values. Only Number-Number and String-String pairs are
// ordered; anything else is a ValidationError.
func Compare(a, b Value) (int, error) {
	switch x := a.(type) {
	case Number:
		y, ok := b.(Number)
		if !ok {
			return 0, covmerr.Newf(covmerr.KindValidationError, "cannot order %s against %s", typeName(a), typeName(b))
		}
		switch {
		case float64(x) < float64(y):
			return -1, nil
		case float64(x) > float64(y):
			return 1, nil
		default:
			return 0, nil
		}
	case String:
		y, ok := b.(String)
		if !ok {
			return 0, covmerr.Newf(covmerr.KindValidationError, "cannot order %s against %s", typeName(a), typeName(b))
		}
		switch {
		case x < y:
			return -1, nil
		case x > y:
			return 1, nil
		default:
			return 0, nil
		}
	default:
		return 0, covmerr.Newf(covmerr.KindValidationError, "cannot order %s against %s", typeName(a), typeName(b))
	}
}

func typeName(v Value) string {
	switch v.(type) {
	case Number:
		return "number"
	case String:
		return "string"
	case Boolean:
		return "boolean"
	case Null:
		return "null"
	default:
		return fmt.Sprintf("%T", v)
	}
}

// Add implements "+": Number+Number adds, Boolean coerces to Number first,
// any String operand concatenates the left-to-right textual form.
func Add(a, b Value) (Value, error) {
	_, aStr := a.(String)
	_, bStr := b.(String)
	if aStr || bStr {
		return String(a.String() + b.String()), nil
	}
	an, aok := toNumber(a)
	bn, bok := toNumber(b)
	if !aok || !bok {
		return nil, covmerr.Newf(covmerr.KindArithmeticError, "cannot add %s and %s", typeName(a), typeName(b))
	}
	return Number(an + bn), nil
}

func toNumber(v Value) (float64, bool) {
	switch t := v.(type) {
	case Number:
		return float64(t), true
	case Boolean:
		return boolToFloat(bool(t)), true
	default:
		return 0, false
	}
}

func binaryNumeric(op string, a, b Value, fn func(x, y float64) (float64, error)) (Value, error) {
	an, aok := a.(Number)
	bn, bok := b.(Number)
	if !aok || !bok {
		return nil, covmerr.Newf(covmerr.KindArithmeticError, "%s requires numbers, got %s and %s", op, typeName(a), typeName(b))
	}
	r, err := fn(float64(an), float64(bn))
	if err != nil {
		return nil, err
	}
	return Number(r), nil
}

func Sub(a, b Value) (Value, error) {
	return binaryNumeric("sub", a, b, func(x, y float64) (float64, error) { return x - y, nil })
}

func Mul(a, b Value) (Value, error) {
	return binaryNumeric("mul", a, b, func(x, y float64) (float64, error) { return x * y, nil })
}

func Div(a, b Value) (Value, error) {
	return binaryNumeric("div", a, b, func(x, y float64) (float64, error) {
		if y == 0 {
			return 0, covmerr.New(covmerr.KindArithmeticError, "division by zero")
		}
		return x / y, nil
	})
}

func Mod(a, b Value) (Value, error) {
	return binaryNumeric("mod", a, b, func(x, y float64) (float64, error) {
		if y == 0 {
			return 0, covmerr.New(covmerr.KindArithmeticError, "modulo by zero")
		}
		return math.Mod(x, y), nil
	})
}

func Negate(a Value) (Value, error) {
	n, ok := a.(Number)
	if !ok {
		return nil, covmerr.Newf(covmerr.KindArithmeticError, "negate requires a number, got %s", typeName(a))
	}
	return Number(-float64(n)), nil
}

func Not(a Value) Value {
	return Boolean(!Truthy(a))
}
