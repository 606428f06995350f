package lang

import (
	"context"
	"log/slog"
	"strings"
)

// Runtime evaluates scripts against a persistent global scope.
//
// A Runtime is not safe for concurrent use.
type Runtime struct {
	cfg    config
	global *Env
	this   *globalObject

	object   *Function
	array    *Function
	function *Function

	depth int
}

// New returns a runtime whose global scope holds the builtins and any
// values supplied with [WithGlobals].
func New(opts ...Option) *Runtime {
	rt := &Runtime{cfg: makeConfig(opts...), global: NewEnv(nil)}
	rt.this = &globalObject{rt: rt}

	rt.installBuiltins()

	for name, v := range rt.cfg.globals {
		rt.global.Define(name, v)
	}

	return rt
}

// Global returns the root scope.
func (rt *Runtime) Global() *Env { return rt.global }

// Set binds name to v in the global scope.
func (rt *Runtime) Set(name string, v Value) { rt.global.Define(name, v) }

// Get returns the global value of name, or [Undefined].
func (rt *Runtime) Get(name string) Value { return rt.global.GetValue(name) }

// Exec parses src and runs it in the global scope.
func (rt *Runtime) Exec(ctx context.Context, src string) error {
	_, err := rt.Eval(ctx, src)

	return err
}

// Eval parses src, runs it in the global scope and returns the value of its
// last top-level expression statement, or of a top-level return.
func (rt *Runtime) Eval(ctx context.Context, src string) (Value, error) {
	ast, err := ParseString(ctx, src, WithLogger(rt.cfg.logger))
	if err != nil {
		return nil, err
	}

	return rt.Run(ctx, ast)
}

// Run executes a parsed program in the global scope.
func (rt *Runtime) Run(ctx context.Context, ast *AST) (Value, error) {
	if ast == nil || ast.Program == nil {
		return Undefined, nil
	}

	rt.cfg.logger.TraceContext(ctx, "execute",
		slog.Int("hoisted", len(ast.Program.Hoisted)),
		slog.Int("commands", len(ast.Program.Commands)),
	)

	defer rt.global.ClearReturnValue()

	v, err := rt.exec(ctx, rt.global, ast.Program)
	if err != nil {
		return nil, err
	}

	if ret, ok := rt.global.ReturnValue(); ok {
		return ret, nil
	}

	return v, nil
}

// EvalExpression parses src as a single expression and evaluates it in the
// global scope.
func (rt *Runtime) EvalExpression(ctx context.Context, src string) (Value, error) {
	p := NewParser(src)

	x, err := p.require(p.ParseExpression())
	if err != nil {
		return nil, err
	}

	if tok, err := p.lex.Next(); err != nil {
		return nil, err
	} else if tok != nil {
		return nil, unexpected(tok)
	}

	return rt.eval(ctx, rt.global, x)
}

// Call invokes fn with the global object bound as this.
func (rt *Runtime) Call(ctx context.Context, fn Value, args ...Value) (Value, error) {
	c, ok := fn.(Callable)
	if !ok {
		return nil, ErrNotCallable.With(slog.String("type", TypeOf(fn)))
	}

	return rt.callPlain(ctx, c, args)
}

// NewObject returns an empty object that delegates to Object.prototype.
func (rt *Runtime) NewObject() *DynamicObject {
	return NewDynamicObject(rt.object)
}

// NewArray returns an array that delegates to Array.prototype.
func (rt *Runtime) NewArray(elems ...Value) *ArrayObject {
	return NewArrayObject(rt.array, elems...)
}

// NewFunction wraps a Go function as a script function object.
func (rt *Runtime) NewFunction(name string, fn NativeFunc) *Function {
	f := newFunction(rt, name)
	f.native = fn

	return f
}

// Names returns the names bound in the global scope, sorted.
func (rt *Runtime) Names() []string { return rt.global.Names() }

// Builtin reports whether name is one of the globals installed by [New].
func Builtin(name string) bool {
	switch name {
	case "Object", "Array", "Function", "print":
		return true
	}

	return false
}

// Lookup resolves a dotted path such as "config.log.level" starting at the
// global scope.
func (rt *Runtime) Lookup(path string) (Value, bool) {
	head, rest, more := strings.Cut(path, ".")

	v, ok := rt.global.Lookup(head)

	for ok && more {
		o, isObj := v.(Object)
		if !isObj {
			return nil, false
		}

		head, rest, more = strings.Cut(rest, ".")

		if v, ok = o.Own(head); !ok {
			v = o.GetValue(head)
			ok = v != Undefined
		}
	}

	return v, ok
}
