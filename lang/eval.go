package lang

import (
	"context"
	"log/slog"
)

// Execute runs cmd against env.
func (rt *Runtime) Execute(ctx context.Context, cmd Command, env *Env) error {
	_, err := rt.exec(ctx, env, cmd)

	return err
}

// Evaluate computes the value of x in env.
func (rt *Runtime) Evaluate(ctx context.Context, x Expr, env *Env) (Value, error) {
	return rt.eval(ctx, env, x)
}

// exec runs cmd and returns the value of the last expression command it
// ran directly, which the embedding API reports as a program result.
func (rt *Runtime) exec(ctx context.Context, env *Env, cmd Command) (Value, error) {
	switch c := cmd.(type) {
	case nil, *NoOperation:
		return Undefined, nil

	case *Var:
		env.DefineVariable(c.Name)

	case *SetVariable:
		v, err := rt.eval(ctx, env, c.Value)
		if err != nil {
			return nil, err
		}

		env.SetValue(c.Name, v)

	case *Set:
		ref, err := rt.resolve(ctx, env, c.Target)
		if err != nil {
			return nil, err
		}

		v, err := rt.eval(ctx, env, c.Value)
		if err != nil {
			return nil, err
		}

		return Undefined, rt.store(ctx, ref, v)

	case *SetArray:
		obj, err := rt.eval(ctx, env, c.X)
		if err != nil {
			return nil, err
		}

		key, err := rt.index(ctx, env, c.Args)
		if err != nil {
			return nil, err
		}

		v, err := rt.eval(ctx, env, c.Value)
		if err != nil {
			return nil, err
		}

		return Undefined, rt.store(ctx, reference{obj: obj, key: key, indexed: true, pos: c.Pos()}, v)

	case *ExprCommand:
		return rt.eval(ctx, env, c.X)

	case *Return:
		var v Value = Undefined

		if c.X != nil {
			var err error
			if v, err = rt.eval(ctx, env, c.X); err != nil {
				return nil, err
			}
		}

		env.SetReturnValue(v)

	case *If:
		cond, err := rt.eval(ctx, env, c.Cond)
		if err != nil {
			return nil, err
		}

		if ToBoolean(cond) {
			return rt.exec(ctx, env, c.Then)
		}

		if c.Else != nil {
			return rt.exec(ctx, env, c.Else)
		}

	case *While:
		return Undefined, rt.loop(ctx, env, c.Cond, nil, c.Body)

	case *For:
		if c.Init != nil {
			if _, err := rt.exec(ctx, env, c.Init); err != nil {
				return nil, err
			}
		}

		return Undefined, rt.loop(ctx, env, c.Cond, c.Step, c.Body)

	case *ForEach:
		return Undefined, rt.forEach(ctx, env, c)

	case *Delete:
		return Undefined, rt.delete(ctx, env, c.X)

	case *Composite:
		return rt.execComposite(ctx, env, c)

	default:
		return nil, ErrInvalidTarget.With(slog.String("command", nodeName(cmd)))
	}

	return Undefined, nil
}

func (rt *Runtime) execComposite(ctx context.Context, env *Env, c *Composite) (Value, error) {
	for _, h := range c.Hoisted {
		if _, err := rt.exec(ctx, env, h); err != nil {
			return nil, err
		}
	}

	var last Value = Undefined

	for _, cmd := range c.Commands {
		v, err := rt.exec(ctx, env, cmd)
		if err != nil {
			return nil, err
		}

		if _, ok := cmd.(*ExprCommand); ok {
			last = v
		}

		if _, ok := env.ReturnValue(); ok {
			break
		}
	}

	return last, nil
}

// loop runs body while cond holds, in env itself, so that variables of the
// loop header stay visible after it ends.
func (rt *Runtime) loop(ctx context.Context, env *Env, cond Expr, step, body Command) error {
	for {
		if err := ctx.Err(); err != nil {
			return ErrCanceled.Wrap(context.Cause(ctx))
		}

		if cond != nil {
			v, err := rt.eval(ctx, env, cond)
			if err != nil {
				return err
			}

			if !ToBoolean(v) {
				return nil
			}
		}

		if _, err := rt.exec(ctx, env, body); err != nil {
			return err
		}

		if _, ok := env.ReturnValue(); ok {
			return nil
		}

		if step != nil {
			if _, err := rt.exec(ctx, env, step); err != nil {
				return err
			}
		}
	}
}

func (rt *Runtime) forEach(ctx context.Context, env *Env, c *ForEach) error {
	src, err := rt.eval(ctx, env, c.Iter)
	if err != nil {
		return err
	}

	var items []Value

	switch o := src.(type) {
	case nil, undefinedType:
		return nil
	case *ArrayObject:
		items = append(items, o.Elements()...)
	case Object:
		for _, name := range o.Names() {
			items = append(items, name)
		}
	default:
		return ErrNotObject.
			With(slog.String("type", TypeOf(src))).
			WithPosition(c.Iter.Pos())
	}

	for _, item := range items {
		if err := ctx.Err(); err != nil {
			return ErrCanceled.Wrap(context.Cause(ctx))
		}

		env.SetValue(c.Name, item)

		if _, err := rt.exec(ctx, env, c.Body); err != nil {
			return err
		}

		if _, ok := env.ReturnValue(); ok {
			return nil
		}
	}

	return nil
}

func (rt *Runtime) delete(ctx context.Context, env *Env, x Expr) error {
	switch t := x.(type) {
	case *Variable:
		env.RemoveValue(t.Name)

		return nil

	case *Dot:
		if t.Call {
			break
		}

		obj, err := rt.eval(ctx, env, t.X)
		if err != nil {
			return err
		}

		return removeMember(obj, t.Name, x.Pos())

	case *Indexed:
		obj, err := rt.eval(ctx, env, t.X)
		if err != nil {
			return err
		}

		key, err := rt.index(ctx, env, t.Args)
		if err != nil {
			return err
		}

		if a, ok := obj.(*ArrayObject); ok {
			if i, ok := key.(int); ok && i >= 0 && i < a.Len() {
				a.SetIndex(i, Undefined)

				return nil
			}
		}

		return removeMember(obj, ToString(key), x.Pos())
	}

	return ErrInvalidTarget.
		With(slog.String("expr", nodeName(x))).
		WithPosition(x.Pos())
}

func removeMember(obj Value, name string, pos Position) error {
	o, ok := obj.(Object)
	if !ok {
		return ErrNotObject.
			With(slog.String("type", TypeOf(obj)), slog.String("member", name)).
			WithPosition(pos)
	}

	o.RemoveValue(name)

	return nil
}

func (rt *Runtime) eval(ctx context.Context, env *Env, x Expr) (Value, error) {
	switch e := x.(type) {
	case *Constant:
		return e.Value, nil

	case *Variable:
		if v, ok := env.Lookup(e.Name); ok {
			return v, nil
		}

		if b := rt.cfg.bridge; b != nil {
			if v, ok := b.Resolve(e.Name); ok {
				return v, nil
			}
		}

		return Undefined, nil

	case *Unary:
		v, err := rt.eval(ctx, env, e.X)
		if err != nil {
			return nil, err
		}

		r, err := Negate(e.Op, v)

		return r, withPos(err, e.Pos())

	case *Binary:
		l, r, err := rt.evalPair(ctx, env, e.X, e.Y)
		if err != nil {
			return nil, err
		}

		v, err := Arithmetic(e.Op, l, r)

		return v, withPos(err, e.Pos())

	case *CompareExpr:
		l, r, err := rt.evalPair(ctx, env, e.X, e.Y)
		if err != nil {
			return nil, err
		}

		ok, err := Compare(e.Op, l, r)

		return ok, withPos(err, e.Pos())

	case *And:
		l, err := rt.eval(ctx, env, e.X)
		if err != nil || !ToBoolean(l) {
			return l, err
		}

		return rt.eval(ctx, env, e.Y)

	case *Or:
		l, err := rt.eval(ctx, env, e.X)
		if err != nil || ToBoolean(l) {
			return l, err
		}

		return rt.eval(ctx, env, e.Y)

	case *Not:
		v, err := rt.eval(ctx, env, e.X)
		if err != nil {
			return nil, err
		}

		return !ToBoolean(v), nil

	case *Increment:
		return rt.increment(ctx, env, e)

	case *Dot:
		return rt.evalDot(ctx, env, e)

	case *Indexed:
		obj, err := rt.eval(ctx, env, e.X)
		if err != nil {
			return nil, err
		}

		key, err := rt.index(ctx, env, e.Args)
		if err != nil {
			return nil, err
		}

		return rt.load(ctx, reference{obj: obj, key: key, indexed: true, pos: e.Pos()})

	case *InvokeExpr:
		return rt.evalInvoke(ctx, env, e)

	case *NewExpr:
		return rt.evalNew(ctx, env, e)

	case *TypeOfExpr:
		v, err := rt.eval(ctx, env, e.X)
		if err != nil {
			return nil, err
		}

		return TypeOf(v), nil

	case *InstanceOfExpr:
		l, r, err := rt.evalPair(ctx, env, e.X, e.Type)
		if err != nil {
			return nil, err
		}

		fn, ok := r.(*Function)
		if !ok {
			return nil, ErrNotConstructor.
				With(slog.String("type", TypeOf(r))).
				WithPosition(e.Pos())
		}

		return InstanceOf(l, fn), nil

	case *FunctionExpr:
		fn := rt.closure(e, env)
		if e.Name != "" {
			env.Define(e.Name, fn)
		}

		return fn, nil

	case *ObjectLit:
		obj := rt.NewObject()

		for i, name := range e.Names {
			v, err := rt.eval(ctx, env, e.Values[i])
			if err != nil {
				return nil, err
			}

			obj.SetValue(name, v)
		}

		return obj, nil

	case *ArrayLit:
		elems, err := rt.evalList(ctx, env, e.Elems)
		if err != nil {
			return nil, err
		}

		return rt.NewArray(elems...), nil
	}

	return nil, ErrInvalidOperand.With(slog.String("expr", nodeName(x)))
}

// withPos attaches pos to a non-nil error.
func withPos(err error, pos Position) error {
	if err == nil {
		return nil
	}

	return WrapError(err).WithPosition(pos)
}

func (rt *Runtime) evalPair(ctx context.Context, env *Env, x, y Expr) (Value, Value, error) {
	l, err := rt.eval(ctx, env, x)
	if err != nil {
		return nil, nil, err
	}

	r, err := rt.eval(ctx, env, y)
	if err != nil {
		return nil, nil, err
	}

	return l, r, nil
}

func (rt *Runtime) evalList(ctx context.Context, env *Env, xs []Expr) ([]Value, error) {
	vs := make([]Value, len(xs))

	for i, x := range xs {
		v, err := rt.eval(ctx, env, x)
		if err != nil {
			return nil, err
		}

		vs[i] = v
	}

	return vs, nil
}

// index evaluates a bracketed argument list. Only the first argument is the
// key; the rest are evaluated for their side effects.
func (rt *Runtime) index(ctx context.Context, env *Env, args []Expr) (Value, error) {
	vs, err := rt.evalList(ctx, env, args)
	if err != nil {
		return nil, err
	}

	return arg(vs, 0), nil
}

func (rt *Runtime) evalDot(ctx context.Context, env *Env, d *Dot) (Value, error) {
	obj, err := rt.eval(ctx, env, d.X)
	if err != nil {
		return nil, err
	}

	if !d.Call {
		return rt.load(ctx, reference{obj: obj, name: d.Name, pos: d.Pos()})
	}

	args, err := rt.evalList(ctx, env, d.Args)
	if err != nil {
		return nil, err
	}

	switch o := obj.(type) {
	case Object:
		v, err := Invoke(ctx, o, d.Name, args)

		return v, withPos(err, d.Pos())

	case nil, undefinedType, bool, int, float64, string, Callable:
		return nil, ErrNotObject.
			With(slog.String("type", TypeOf(obj)), slog.String("member", d.Name)).
			WithPosition(d.Pos())
	}

	return rt.interop(ctx, "invoke", d.Name, func(b Bridge) (Value, error) {
		return b.Invoke(ctx, obj, d.Name, args)
	})
}

func (rt *Runtime) evalInvoke(ctx context.Context, env *Env, e *InvokeExpr) (Value, error) {
	callee, err := rt.eval(ctx, env, e.Callee)
	if err != nil {
		return nil, err
	}

	args, err := rt.evalList(ctx, env, e.Args)
	if err != nil {
		return nil, err
	}

	switch fn := callee.(type) {
	case Callable:
		v, err := rt.callPlain(ctx, fn, args)
		if err != nil {
			return nil, withPos(err, e.Pos())
		}

		return v, nil

	case nil, undefinedType, bool, int, float64, string, Object:
		return nil, ErrNotCallable.
			With(slog.String("type", TypeOf(callee)), slog.String("callee", nodeName(e.Callee))).
			WithPosition(e.Pos())
	}

	return rt.interop(ctx, "call", nodeName(e.Callee), func(b Bridge) (Value, error) {
		return b.Call(ctx, callee, args)
	})
}

func (rt *Runtime) evalNew(ctx context.Context, env *Env, e *NewExpr) (Value, error) {
	typ, err := rt.eval(ctx, env, e.Type)
	if err != nil {
		return nil, err
	}

	args, err := rt.evalList(ctx, env, e.Args)
	if err != nil {
		return nil, err
	}

	switch fn := typ.(type) {
	case *Function:
		if fn.construct != nil {
			return fn.construct(ctx, args)
		}

		if fn.native != nil {
			return nil, ErrNotConstructor.
				With(slog.String("function", fn.Name)).
				WithPosition(e.Pos())
		}

		obj := NewDynamicObject(fn)

		if _, err := fn.Call(ctx, obj, args); err != nil {
			return nil, err
		}

		return obj, nil

	case nil, undefinedType, bool, int, float64, string, Object, Callable:
		return nil, ErrNotConstructor.
			With(slog.String("type", TypeOf(typ)), slog.String("name", nodeName(e.Type))).
			WithPosition(e.Pos())
	}

	return rt.interop(ctx, "new", nodeName(e.Type), func(b Bridge) (Value, error) {
		return b.New(ctx, typ, args)
	})
}

func (rt *Runtime) increment(ctx context.Context, env *Env, e *Increment) (Value, error) {
	ref, err := rt.resolve(ctx, env, e.Target)
	if err != nil {
		return nil, err
	}

	old, err := rt.load(ctx, ref)
	if err != nil {
		return nil, err
	}

	n, f, isInt, ok := toNumber(old)
	if !ok {
		op := "++"
		if e.Delta < 0 {
			op = "--"
		}

		return nil, operandError(op, old, nil).WithPosition(e.Pos())
	}

	var cur, next Value = f, f + float64(e.Delta)
	if isInt {
		cur = n
		if sum, ok := addInt(n, e.Delta); ok {
			next = sum
		}
	}

	if err := rt.store(ctx, ref, next); err != nil {
		return nil, err
	}

	if e.Prefix {
		return next, nil
	}

	return cur, nil
}

// reference is a resolved assignment target: a variable in env, a named
// member of obj, or an indexed element of obj.
type reference struct {
	env     *Env
	obj     Value
	name    string
	key     Value
	indexed bool
	pos     Position
}

func (rt *Runtime) resolve(ctx context.Context, env *Env, x Expr) (reference, error) {
	switch t := x.(type) {
	case *Variable:
		return reference{env: env, name: t.Name, pos: t.Pos()}, nil

	case *Dot:
		if t.Call {
			break
		}

		obj, err := rt.eval(ctx, env, t.X)
		if err != nil {
			return reference{}, err
		}

		return reference{obj: obj, name: t.Name, pos: t.Pos()}, nil

	case *Indexed:
		obj, err := rt.eval(ctx, env, t.X)
		if err != nil {
			return reference{}, err
		}

		key, err := rt.index(ctx, env, t.Args)
		if err != nil {
			return reference{}, err
		}

		return reference{obj: obj, key: key, indexed: true, pos: t.Pos()}, nil
	}

	return reference{}, ErrInvalidTarget.
		With(slog.String("expr", nodeName(x))).
		WithPosition(x.Pos())
}

func (ref reference) member() string {
	if ref.indexed {
		return ToString(ref.key)
	}

	return ref.name
}

func (rt *Runtime) load(ctx context.Context, ref reference) (Value, error) {
	if ref.env != nil {
		return ref.env.GetValue(ref.name), nil
	}

	switch o := ref.obj.(type) {
	case *ArrayObject:
		if i, ok := ref.key.(int); ok && ref.indexed && i >= 0 && i < o.Len() {
			return o.Index(i), nil
		}

		return o.GetValue(ref.member()), nil

	case Object:
		return o.GetValue(ref.member()), nil

	case string:
		if ref.indexed {
			if i, ok := ref.key.(int); ok {
				r := []rune(o)
				if i < 0 || i >= len(r) {
					return Undefined, nil
				}

				return string(r[i]), nil
			}
		}

		if ref.member() == "length" {
			return len([]rune(o)), nil
		}

		return Undefined, nil

	case nil, undefinedType, bool, int, float64, Callable:
		return nil, rt.accessError(ref)
	}

	return rt.interop(ctx, "get", ref.member(), func(b Bridge) (Value, error) {
		return b.Get(ctx, ref.obj, ref.member())
	})
}

func (rt *Runtime) store(ctx context.Context, ref reference, v Value) error {
	if ref.env != nil {
		ref.env.SetValue(ref.name, v)

		return nil
	}

	switch o := ref.obj.(type) {
	case *ArrayObject:
		if i, ok := ref.key.(int); ok && ref.indexed {
			o.SetIndex(i, v)

			return nil
		}

		o.SetValue(ref.member(), v)

		return nil

	case Object:
		o.SetValue(ref.member(), v)

		return nil

	case nil, undefinedType, bool, int, float64, string, Callable:
		return rt.accessError(ref)
	}

	_, err := rt.interop(ctx, "set", ref.member(), func(b Bridge) (Value, error) {
		return nil, b.Set(ctx, ref.obj, ref.member(), v)
	})

	return err
}

func (rt *Runtime) accessError(ref reference) error {
	sentinel := ErrNotObject
	if ref.indexed {
		sentinel = ErrNotIndexable
	}

	return sentinel.
		With(slog.String("type", TypeOf(ref.obj)), slog.String("member", ref.member())).
		WithPosition(ref.pos)
}

// invoke runs a scripted function body in a fresh scope chained to the
// function's closure.
func (rt *Runtime) invoke(
	ctx context.Context,
	f *Function,
	this Value,
	args []Value,
) (v Value, returned bool, err error) {
	if rt.depth >= rt.cfg.maxDepth {
		return nil, false, ErrMaxDepthExceeded.With(
			slog.String("function", f.Name),
			slog.Int("depth", rt.depth),
		)
	}

	if err := ctx.Err(); err != nil {
		return nil, false, ErrCanceled.Wrap(context.Cause(ctx))
	}

	rt.depth++
	defer func() { rt.depth-- }()

	rt.cfg.logger.TraceContext(ctx, "invoke",
		slog.String("function", f.Name),
		slog.Int("args", len(args)),
		slog.Int("depth", rt.depth),
	)

	env := NewEnv(f.closure)
	env.Define("this", this)
	env.Define("arguments", rt.NewArray(args...))

	for i, name := range f.Params {
		env.Define(name, arg(args, i))
	}

	if f.Body != nil {
		if _, err := rt.exec(ctx, env, f.Body); err != nil {
			return nil, false, err
		}
	}

	if v, ok := env.ReturnValue(); ok {
		return v, true, nil
	}

	if this != Undefined {
		return this, false, nil
	}

	return Undefined, false, nil
}

// callPlain calls fn with the global object bound as this. A script function
// that ends without a return statement yields Undefined, not the global
// object.
func (rt *Runtime) callPlain(ctx context.Context, fn Callable, args []Value) (Value, error) {
	f, ok := fn.(*Function)
	if !ok || f.native != nil {
		return fn.Call(ctx, rt.this, args)
	}

	v, returned, err := rt.invoke(ctx, f, rt.this, args)
	if err != nil || returned {
		return v, err
	}

	return Undefined, nil
}

// closure creates the function value of e over env.
func (rt *Runtime) closure(e *FunctionExpr, env *Env) *Function {
	fn := newFunction(rt, e.Name)
	fn.Params = e.Params
	fn.Body = e.Body
	fn.closure = env

	return fn
}
