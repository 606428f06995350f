package lang

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// callNative implements Function.call(thisArg, argsArray).
var callNative NativeFunc = func(ctx context.Context, this Value, args []Value) (Value, error) {
	fn, ok := this.(Callable)
	if !ok {
		return nil, ErrNotCallable.With(slog.String("method", "call"))
	}

	var rest []Value

	switch a := arg(args, 1).(type) {
	case *ArrayObject:
		rest = a.Elements()
	case []Value:
		rest = a
	}

	return fn.Call(ctx, arg(args, 0), rest)
}

// applyNative implements Function.apply(thisArg, ...args).
var applyNative NativeFunc = func(ctx context.Context, this Value, args []Value) (Value, error) {
	fn, ok := this.(Callable)
	if !ok {
		return nil, ErrNotCallable.With(slog.String("method", "apply"))
	}

	var rest []Value
	if len(args) > 1 {
		rest = args[1:]
	}

	return fn.Call(ctx, arg(args, 0), rest)
}

func (rt *Runtime) installBuiltins() {
	rt.object = rt.NewFunction("Object", func(context.Context, Value, []Value) (Value, error) {
		return rt.NewObject(), nil
	})
	rt.object.construct = func(context.Context, []Value) (Value, error) {
		return rt.NewObject(), nil
	}
	rt.object.SetProperty("keys", NativeFunc(objectKeys(rt)), false)

	rt.array = rt.NewFunction("Array", func(_ context.Context, _ Value, args []Value) (Value, error) {
		return rt.NewArray(args...), nil
	})
	rt.array.construct = func(_ context.Context, args []Value) (Value, error) {
		return rt.NewArray(args...), nil
	}

	proto := rt.array.Prototype()
	for name, fn := range arrayMethods(rt) {
		proto.SetProperty(name, fn, false)
	}

	rt.function = rt.NewFunction("Function", func(context.Context, Value, []Value) (Value, error) {
		return Undefined, nil
	})

	rt.global.Define("Object", rt.object)
	rt.global.Define("Array", rt.array)
	rt.global.Define("Function", rt.function)
	rt.global.Define("print", rt.NewFunction("print", rt.print))
}

func (rt *Runtime) print(_ context.Context, _ Value, args []Value) (Value, error) {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = ToString(a)
	}

	if _, err := fmt.Fprintln(rt.cfg.output, strings.Join(parts, " ")); err != nil {
		return nil, err
	}

	return Undefined, nil
}

func objectKeys(rt *Runtime) NativeFunc {
	return func(_ context.Context, _ Value, args []Value) (Value, error) {
		o, ok := arg(args, 0).(Object)
		if !ok {
			return nil, ErrNotObject.With(slog.String("type", TypeOf(arg(args, 0))))
		}

		names := o.Names()

		keys := make([]Value, len(names))
		for i, n := range names {
			keys[i] = n
		}

		return rt.NewArray(keys...), nil
	}
}

// arrayMethod adapts a function over the receiver array.
func arrayMethod(name string, fn func(a *ArrayObject, args []Value) (Value, error)) NativeFunc {
	return func(_ context.Context, this Value, args []Value) (Value, error) {
		a, ok := this.(*ArrayObject)
		if !ok {
			return nil, ErrNotObject.With(
				slog.String("method", name),
				slog.String("receiver", TypeOf(this)),
			)
		}

		return fn(a, args)
	}
}

func arrayMethods(rt *Runtime) map[string]NativeFunc {
	return map[string]NativeFunc{
		"push": arrayMethod("push", func(a *ArrayObject, args []Value) (Value, error) {
			return a.Push(args...), nil
		}),
		"pop": arrayMethod("pop", func(a *ArrayObject, _ []Value) (Value, error) {
			return a.Pop(), nil
		}),
		"shift": arrayMethod("shift", func(a *ArrayObject, _ []Value) (Value, error) {
			return a.Shift(), nil
		}),
		"unshift": arrayMethod("unshift", func(a *ArrayObject, args []Value) (Value, error) {
			return a.Unshift(args...), nil
		}),
		"join": arrayMethod("join", func(a *ArrayObject, args []Value) (Value, error) {
			sep := ","
			if s, ok := arg(args, 0).(string); ok {
				sep = s
			}

			parts := make([]string, a.Len())
			for i, e := range a.Elements() {
				if e != nil && e != Undefined {
					parts[i] = ToString(e)
				}
			}

			return strings.Join(parts, sep), nil
		}),
		"slice": arrayMethod("slice", func(a *ArrayObject, args []Value) (Value, error) {
			n := a.Len()
			start := sliceBound(arg(args, 0), 0, n)
			end := sliceBound(arg(args, 1), n, n)

			if start > end {
				start = end
			}

			return rt.NewArray(a.Elements()[start:end]...), nil
		}),
		"indexOf": arrayMethod("indexOf", func(a *ArrayObject, args []Value) (Value, error) {
			for i, e := range a.Elements() {
				if StrictEquals(e, arg(args, 0)) {
					return i, nil
				}
			}

			return -1, nil
		}),
	}
}

// sliceBound clamps a slice argument to [0, n]. Negative values count from
// the end; a missing value yields def.
func sliceBound(v Value, def, n int) int {
	if v == Undefined {
		return def
	}

	i, f, isInt, ok := toNumber(v)
	if !ok {
		return def
	}

	if !isInt {
		i = int(f)
	}

	if i < 0 {
		i += n
	}

	return max(0, min(i, n))
}
