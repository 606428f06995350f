package lang

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"reflect"
	"strconv"
	"strings"
)

// Value is any script value: nil (null), [Undefined], bool, int, float64,
// string, an [Object], a [Callable], or an opaque host value owned by a
// [Bridge].
type Value = any

type undefinedType struct{}

func (undefinedType) String() string { return "undefined" }

// Undefined is the value of a name that is declared but never assigned, or
// not declared at all. It is distinct from nil (null).
var Undefined Value = undefinedType{}

// Callable is a value that can be invoked from script code.
type Callable interface {
	Call(ctx context.Context, this Value, args []Value) (Value, error)
}

// NativeFunc adapts a Go function to [Callable].
type NativeFunc func(ctx context.Context, this Value, args []Value) (Value, error)

// Call implements [Callable].
func (f NativeFunc) Call(ctx context.Context, this Value, args []Value) (Value, error) {
	return f(ctx, this, args)
}

// arg returns args[i], or [Undefined] past the end.
func arg(args []Value, i int) Value {
	if i < len(args) {
		return args[i]
	}

	return Undefined
}

// isHost reports whether v is outside the script value model.
func isHost(v Value) bool {
	switch v.(type) {
	case nil, undefinedType, bool, int, float64, string, Object, Callable:
		return false
	}

	return true
}

// TypeOf returns the script type name of v.
func TypeOf(v Value) string {
	switch v := v.(type) {
	case nil:
		return "null"
	case undefinedType:
		return "undefined"
	case bool:
		return "boolean"
	case int, float64:
		return "number"
	case string:
		return "string"
	default:
		switch reflect.ValueOf(v).Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
			reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
			reflect.Float32, reflect.Float64:
			return "number"
		case reflect.String:
			return "string"
		case reflect.Bool:
			return "boolean"
		}

		return "object"
	}
}

// ToBoolean reports whether v is truthy.
func ToBoolean(v Value) bool {
	switch v := v.(type) {
	case nil, undefinedType:
		return false
	case bool:
		return v
	case int:
		return v != 0
	case float64:
		return v != 0 && !math.IsNaN(v)
	case string:
		return v != ""
	}

	return true
}

// ToString renders v the way string concatenation does.
func ToString(v Value) string {
	switch v := v.(type) {
	case nil:
		return "null"
	case undefinedType:
		return "undefined"
	case bool:
		return strconv.FormatBool(v)
	case int:
		return strconv.Itoa(v)
	case float64:
		return formatNumber(v)
	case string:
		return v
	case *ArrayObject:
		parts := make([]string, len(v.elems))
		for i, e := range v.elems {
			if e != nil && e != Undefined {
				parts[i] = ToString(e)
			}
		}

		return strings.Join(parts, ",")
	case *Function:
		return v.Signature()
	case Object:
		return "[object Object]"
	case Callable:
		return "function () { [native code] }"
	}

	return fmt.Sprint(v)
}

func formatNumber(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	case math.Abs(f) >= 1e21:
		return strconv.FormatFloat(f, 'g', -1, 64)
	}

	return strconv.FormatFloat(f, 'f', -1, 64)
}

// toNumber converts v to a number. isInt is set when the result is exact
// in n; otherwise it is in f.
func toNumber(v Value) (n int, f float64, isInt, ok bool) {
	switch v := v.(type) {
	case nil:
		return 0, 0, true, true
	case undefinedType:
		return 0, math.NaN(), false, true
	case bool:
		if v {
			return 1, 1, true, true
		}

		return 0, 0, true, true
	case int:
		return v, float64(v), true, true
	case float64:
		return 0, v, false, true
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return 0, 0, true, true
		}

		if i, err := strconv.Atoi(s); err == nil {
			return i, float64(i), true, true
		}

		if x, err := strconv.ParseFloat(s, 64); err == nil {
			return 0, x, false, true
		}

		return 0, math.NaN(), false, true
	}

	rv := reflect.ValueOf(v)

	switch {
	case rv.CanInt():
		return int(rv.Int()), float64(rv.Int()), true, true
	case rv.CanUint():
		return int(rv.Uint()), float64(rv.Uint()), true, true
	case rv.CanFloat():
		return 0, rv.Float(), false, true
	}

	return 0, 0, false, false
}

func operandError(op string, x, y Value) *Error {
	return ErrInvalidOperand.With(
		slog.String("op", op),
		slog.String("left", TypeOf(x)),
		slog.String("right", TypeOf(y)),
	)
}

// Integer operations report false when the result does not fit in an int.
// Callers then fall back to float64.

func addInt(x, y int) (int, bool) {
	n := x + y

	return n, (x >= 0) != (y >= 0) || (n >= 0) == (x >= 0)
}

func subInt(x, y int) (int, bool) {
	n := x - y

	return n, (x >= 0) == (y >= 0) || (n >= 0) == (x >= 0)
}

func mulInt(x, y int) (int, bool) {
	if x == 0 || y == 0 {
		return 0, true
	}

	n := x * y
	if (x == -1 && y == math.MinInt) || (y == -1 && x == math.MinInt) {
		return n, false
	}

	return n, n/y == x
}

func divOverflows(x, y int) bool { return x == math.MinInt && y == -1 }

// Arithmetic applies a binary arithmetic operator.
func Arithmetic(op string, x, y Value) (Value, error) {
	if op == "+" {
		_, xs := x.(string)
		_, ys := y.(string)

		if xs || ys {
			return ToString(x) + ToString(y), nil
		}
	}

	xi, xf, xInt, xok := toNumber(x)
	yi, yf, yInt, yok := toNumber(y)

	if !xok || !yok {
		return nil, operandError(op, x, y)
	}

	both := xInt && yInt

	switch op {
	case "+":
		if n, ok := addInt(xi, yi); both && ok {
			return n, nil
		}

		return xf + yf, nil

	case "-":
		if n, ok := subInt(xi, yi); both && ok {
			return n, nil
		}

		return xf - yf, nil

	case "*":
		if n, ok := mulInt(xi, yi); both && ok {
			return n, nil
		}

		return xf * yf, nil

	case "/":
		if both && yi != 0 && xi%yi == 0 && !divOverflows(xi, yi) {
			return xi / yi, nil
		}

		return xf / yf, nil

	case "\\":
		if !both {
			xi, yi = int(xf), int(yf)
		}

		if yi == 0 {
			return nil, ErrDivideByZero.With(slog.String("op", op))
		}

		if divOverflows(xi, yi) {
			return -float64(xi), nil
		}

		return xi / yi, nil

	case "%":
		if !both {
			return math.Mod(xf, yf), nil
		}

		if yi == 0 {
			return nil, ErrDivideByZero.With(slog.String("op", op))
		}

		return xi % yi, nil
	}

	return nil, operandError(op, x, y)
}

// Negate applies unary "+" or "-".
func Negate(op string, x Value) (Value, error) {
	n, f, isInt, ok := toNumber(x)
	if !ok {
		return nil, operandError(op, x, nil)
	}

	switch {
	case op == "+" && isInt:
		return n, nil
	case op == "+":
		return f, nil
	case isInt && n != math.MinInt:
		return -n, nil
	case isInt:
		return -f, nil
	}

	return -f, nil
}

// StrictEquals compares without type coercion.
func StrictEquals(x, y Value) bool {
	if TypeOf(x) == "number" && TypeOf(y) == "number" {
		_, xf, _, _ := toNumber(x)
		_, yf, _, _ := toNumber(y)

		return xf == yf
	}

	return identical(x, y)
}

// LooseEquals compares with numeric and string coercion.
func LooseEquals(x, y Value) bool {
	xn := x == nil || x == Undefined
	yn := y == nil || y == Undefined

	if xn || yn {
		return xn && yn
	}

	switch {
	case TypeOf(x) == TypeOf(y):
		return StrictEquals(x, y)
	case isPrimitive(x) && isPrimitive(y):
		_, xf, _, _ := toNumber(x)
		_, yf, _, _ := toNumber(y)

		return xf == yf
	}

	return identical(x, y)
}

func isPrimitive(v Value) bool {
	switch v.(type) {
	case bool, int, float64, string:
		return true
	}

	return false
}

// identical compares by identity, without panicking on host values of
// uncomparable types.
func identical(x, y Value) bool {
	if x == nil || y == nil {
		return x == nil && y == nil
	}

	tx := reflect.TypeOf(x)
	if tx != reflect.TypeOf(y) || !tx.Comparable() {
		return false
	}

	return x == y
}

// Compare applies a comparison operator.
func Compare(op string, x, y Value) (bool, error) {
	switch op {
	case "===":
		return StrictEquals(x, y), nil
	case "!==":
		return !StrictEquals(x, y), nil
	case "==":
		return LooseEquals(x, y), nil
	case "!=":
		return !LooseEquals(x, y), nil
	}

	if xs, ok := x.(string); ok {
		if ys, ok := y.(string); ok {
			return ordered(op, strings.Compare(xs, ys)), nil
		}
	}

	_, xf, _, xok := toNumber(x)
	_, yf, _, yok := toNumber(y)

	if !xok || !yok {
		return false, operandError(op, x, y)
	}

	if math.IsNaN(xf) || math.IsNaN(yf) {
		return false, nil
	}

	switch {
	case xf < yf:
		return ordered(op, -1), nil
	case xf > yf:
		return ordered(op, 1), nil
	}

	return ordered(op, 0), nil
}

func ordered(op string, c int) bool {
	switch op {
	case "<":
		return c < 0
	case ">":
		return c > 0
	case "<=":
		return c <= 0
	case ">=":
		return c >= 0
	}

	return false
}
