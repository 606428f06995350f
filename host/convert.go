package host

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"reflect"
	"slices"
	"strings"

	"github.com/ardnew/ajs/lang"
)

var (
	contextType = reflect.TypeFor[context.Context]()
	errorType   = reflect.TypeFor[error]()
	anyType     = reflect.TypeFor[any]()
)

// converter carries the evaluation context into script callbacks and
// collects the first error a callback raises.
type converter struct {
	ctx context.Context
	err error
}

func (c *converter) fail(err error) {
	if c.err == nil {
		c.err = err
	}
}

// call invokes fn with script arguments and converts its results.
func call(ctx context.Context, name string, fn reflect.Value, args []lang.Value) (lang.Value, error) {
	c := &converter{ctx: ctx}
	t := fn.Type()

	in := make([]reflect.Value, 0, t.NumIn())

	first := 0
	if t.NumIn() > 0 && t.In(0) == contextType {
		in = append(in, reflect.ValueOf(ctx))
		first = 1
	}

	fixed := t.NumIn() - first
	if t.IsVariadic() {
		fixed--
	}

	if !t.IsVariadic() && len(args) > fixed {
		return nil, lang.ErrArgumentMismatch.With(
			slog.String("func", name),
			slog.Int("want", fixed),
			slog.Int("got", len(args)),
		)
	}

	for i := range fixed {
		a := lang.Undefined
		if i < len(args) {
			a = args[i]
		}

		x, err := c.convert(a, t.In(first+i))
		if err != nil {
			return nil, mismatch(name, i, err)
		}

		in = append(in, x)
	}

	if t.IsVariadic() {
		et := t.In(t.NumIn() - 1).Elem()

		for i := fixed; i < len(args); i++ {
			x, err := c.convert(args[i], et)
			if err != nil {
				return nil, mismatch(name, i, err)
			}

			in = append(in, x)
		}
	}

	out := fn.Call(in)

	if c.err != nil {
		return nil, c.err
	}

	if n := len(out); n > 0 && t.Out(n-1) == errorType {
		if err, _ := out[n-1].Interface().(error); err != nil {
			return nil, err
		}

		out = out[:n-1]
	}

	switch len(out) {
	case 0:
		return lang.Undefined, nil
	case 1:
		return fromGo(out[0]), nil
	}

	elems := make([]lang.Value, len(out))
	for i, o := range out {
		elems[i] = fromGo(o)
	}

	return lang.NewArrayObject(nil, elems...), nil
}

func mismatch(name string, i int, err error) error {
	return lang.ErrArgumentMismatch.Wrap(err).With(
		slog.String("func", name),
		slog.Int("arg", i),
	)
}

var errConvert = errors.New("cannot convert")

func convertError(v lang.Value, t reflect.Type) error {
	return fmt.Errorf("%w %s to %s", errConvert, lang.TypeOf(v), t)
}

// convert returns v as a value assignable to t.
func (c *converter) convert(v lang.Value, t reflect.Type) (reflect.Value, error) {
	if v == nil || v == lang.Undefined {
		return reflect.Zero(t), nil
	}

	if t == anyType {
		e := lang.Export(v)
		if e == nil {
			return reflect.Zero(t), nil
		}

		return reflect.ValueOf(e), nil
	}

	rv := reflect.ValueOf(v)
	if rv.Type().AssignableTo(t) {
		return rv, nil
	}

	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		switch n := v.(type) {
		case int:
			return reflect.ValueOf(n).Convert(t), nil
		case float64:
			if n == math.Trunc(n) {
				return reflect.ValueOf(int64(n)).Convert(t), nil
			}
		}

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		switch n := v.(type) {
		case int:
			if n >= 0 {
				return reflect.ValueOf(uint64(n)).Convert(t), nil
			}
		case float64:
			if n >= 0 && n == math.Trunc(n) {
				return reflect.ValueOf(uint64(n)).Convert(t), nil
			}
		}

	case reflect.Float32, reflect.Float64:
		switch n := v.(type) {
		case int:
			return reflect.ValueOf(float64(n)).Convert(t), nil
		case float64:
			return reflect.ValueOf(n).Convert(t), nil
		}

	case reflect.String:
		if s, ok := v.(string); ok {
			return reflect.ValueOf(s).Convert(t), nil
		}

	case reflect.Bool:
		if b, ok := v.(bool); ok {
			return reflect.ValueOf(b).Convert(t), nil
		}

	case reflect.Slice:
		if a, ok := v.(*lang.ArrayObject); ok {
			s := reflect.MakeSlice(t, a.Len(), a.Len())

			for i, e := range a.Elements() {
				x, err := c.convert(e, t.Elem())
				if err != nil {
					return reflect.Value{}, err
				}

				s.Index(i).Set(x)
			}

			return s, nil
		}

	case reflect.Map:
		if o, ok := v.(lang.Object); ok && t.Key().Kind() == reflect.String {
			m := reflect.MakeMapWithSize(t, len(o.Names()))

			for _, name := range o.Names() {
				e, _ := o.Own(name)

				x, err := c.convert(e, t.Elem())
				if err != nil {
					return reflect.Value{}, err
				}

				m.SetMapIndex(reflect.ValueOf(name).Convert(t.Key()), x)
			}

			return m, nil
		}

	case reflect.Func:
		if fn, ok := v.(lang.Callable); ok {
			return c.callback(fn, t), nil
		}
	}

	return reflect.Value{}, convertError(v, t)
}

// callback adapts a script function to the Go function type t. A script
// error is recorded on c and the Go caller sees zero results.
func (c *converter) callback(fn lang.Callable, t reflect.Type) reflect.Value {
	return reflect.MakeFunc(t, func(in []reflect.Value) []reflect.Value {
		out := make([]reflect.Value, t.NumOut())
		for i := range out {
			out[i] = reflect.Zero(t.Out(i))
		}

		args := make([]lang.Value, 0, len(in))
		for _, x := range in {
			if x.Type() == contextType {
				continue
			}

			args = append(args, fromGo(x))
		}

		v, err := fn.Call(c.ctx, lang.Undefined, args)
		if err == nil && len(out) > 0 && t.Out(0) != errorType {
			out[0], err = c.convert(v, t.Out(0))
			if err != nil {
				out[0] = reflect.Zero(t.Out(0))
			}
		}

		if err != nil {
			if n := len(out); n > 0 && t.Out(n-1) == errorType {
				out[n-1] = reflect.ValueOf(&err).Elem()
			} else {
				c.fail(err)
			}
		}

		return out
	})
}

// fromGo converts a Go result to a script value.
func fromGo(v reflect.Value) lang.Value {
	if !v.IsValid() {
		return lang.Undefined
	}

	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return int(v.Int())

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return int(v.Uint())

	case reflect.Float32, reflect.Float64:
		return v.Float()

	case reflect.String:
		return v.String()

	case reflect.Bool:
		return v.Bool()

	case reflect.Interface:
		if v.IsNil() {
			return nil
		}

		return fromGo(v.Elem())

	case reflect.Pointer, reflect.Func:
		if v.IsNil() {
			return nil
		}

	case reflect.Slice, reflect.Array:
		if v.Kind() == reflect.Slice && v.IsNil() {
			return nil
		}

		elems := make([]lang.Value, v.Len())
		for i := range elems {
			elems[i] = fromGo(v.Index(i))
		}

		return lang.NewArrayObject(nil, elems...)

	case reflect.Map:
		if v.IsNil() {
			return nil
		}

		if v.Type().Key().Kind() == reflect.String {
			keys := v.MapKeys()
			slices.SortFunc(keys, func(a, b reflect.Value) int {
				return strings.Compare(a.String(), b.String())
			})

			o := lang.NewDynamicObject(nil)
			for _, k := range keys {
				o.SetValue(k.String(), fromGo(v.MapIndex(k)))
			}

			return o
		}
	}

	if !v.CanInterface() {
		return lang.Undefined
	}

	return v.Interface()
}
