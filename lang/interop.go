package lang

import (
	"context"
	"log/slog"
)

// Bridge connects scripts to values owned by the host program.
//
// The runtime consults the bridge for a global name that is not bound in any
// scope, and for every member access, call or construction whose target is a
// host value, i.e. any value outside the script value model. Failures should
// wrap [ErrInterop] (or one of its refinements) so that embedders can tell a
// faulty integration apart from a faulty script.
type Bridge interface {
	// Resolve returns the host value registered under a simple or dotted
	// name.
	Resolve(name string) (Value, bool)

	// New constructs an instance of the host type typ.
	New(ctx context.Context, typ Value, args []Value) (Value, error)

	// Call invokes the host function fn.
	Call(ctx context.Context, fn Value, args []Value) (Value, error)

	// Get reads member of target.
	Get(ctx context.Context, target Value, member string) (Value, error)

	// Set writes member of target.
	Set(ctx context.Context, target Value, member string, v Value) error

	// Invoke calls method member of target.
	Invoke(ctx context.Context, target Value, member string, args []Value) (Value, error)
}

// interop runs op against the configured bridge, tracing the operation and
// classifying any failure under [ErrInterop].
func (rt *Runtime) interop(
	ctx context.Context,
	op, member string,
	fn func(Bridge) (Value, error),
) (Value, error) {
	b := rt.cfg.bridge
	if b == nil {
		return nil, ErrNoBridge.With(
			slog.String("op", op),
			slog.String("member", member),
		)
	}

	rt.cfg.logger.TraceContext(ctx, "interop",
		slog.String("op", op),
		slog.String("member", member),
	)

	v, err := fn(b)
	if err != nil {
		return nil, ErrInterop.Wrap(err).With(
			slog.String("op", op),
			slog.String("member", member),
		)
	}

	return rt.adopt(v, make(map[Object]bool)), nil
}

// adopt associates objects built by a bridge without a runtime, which have
// no Function, with Array or Object so that their prototype methods apply.
func (rt *Runtime) adopt(v Value, seen map[Object]bool) Value {
	switch o := v.(type) {
	case *ArrayObject:
		if seen[o] || o.fn != nil {
			return v
		}

		seen[o] = true
		o.fn = rt.array

		for _, e := range o.elems {
			rt.adopt(e, seen)
		}

	case *DynamicObject:
		if seen[o] || o.fn != nil {
			return v
		}

		seen[o] = true
		o.fn = rt.object

		for _, e := range o.values {
			rt.adopt(e, seen)
		}
	}

	return v
}
