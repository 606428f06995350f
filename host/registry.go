package host

import (
	"context"
	"log/slog"
	"maps"
	"reflect"
	"slices"
	"strconv"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"github.com/ardnew/ajs/lang"
)

// Namespace is a named group of host values. Scripts reach its members with
// dot notation.
type Namespace struct {
	name    string
	mu      sync.RWMutex
	members map[string]any
}

func newNamespace(name string) *Namespace {
	return &Namespace{name: name, members: make(map[string]any)}
}

// Name returns the dotted name the namespace is registered under.
func (ns *Namespace) Name() string { return ns.name }

// String implements [fmt.Stringer].
func (ns *Namespace) String() string { return "[namespace " + ns.name + "]" }

// Names returns the member names in sorted order.
func (ns *Namespace) Names() []string {
	ns.mu.RLock()
	defer ns.mu.RUnlock()

	return slices.Sorted(maps.Keys(ns.members))
}

func (ns *Namespace) lookup(member string) (any, bool) {
	ns.mu.RLock()
	defer ns.mu.RUnlock()

	for _, name := range candidates(member) {
		if v, ok := ns.members[name]; ok {
			return v, true
		}
	}

	return nil, false
}

func (ns *Namespace) child(name string) *Namespace {
	ns.mu.Lock()
	defer ns.mu.Unlock()

	if sub, ok := ns.members[name].(*Namespace); ok {
		return sub
	}

	full := name
	if ns.name != "" {
		full = ns.name + "." + name
	}

	sub := newNamespace(full)
	ns.members[name] = sub

	return sub
}

func (ns *Namespace) set(name string, v any) {
	ns.mu.Lock()
	defer ns.mu.Unlock()

	ns.members[name] = v
}

// Type is a host type that scripts construct with new.
type Type struct {
	name string
	ctor reflect.Value
}

// NewType returns a Type named name built by ctor, which must be a function.
// Its arguments are converted like those of any other host function.
func NewType(name string, ctor any) *Type {
	v := reflect.ValueOf(ctor)
	if v.Kind() != reflect.Func {
		panic("host: constructor of " + name + " is not a function")
	}

	return &Type{name: name, ctor: v}
}

// Name returns the type name.
func (t *Type) Name() string { return t.name }

// String implements [fmt.Stringer].
func (t *Type) String() string { return "[type " + t.name + "]" }

// Registry is a reflection-based [lang.Bridge] over registered host values.
// It is safe for concurrent use.
type Registry struct {
	root *Namespace
}

var _ lang.Bridge = (*Registry)(nil)

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{root: newNamespace("")}
}

// Register binds v to the dotted name. Missing intermediate namespaces are
// created; an existing value at name is replaced.
func (r *Registry) Register(name string, v any) *Registry {
	ns := r.root
	parts := strings.Split(name, ".")

	for _, part := range parts[:len(parts)-1] {
		ns = ns.child(part)
	}

	ns.set(parts[len(parts)-1], v)

	return r
}

// Names returns the member names under the dotted path, or the top-level
// names when path is empty. It returns nil when path does not name a
// namespace.
func (r *Registry) Names(path string) []string {
	if path == "" {
		return r.root.Names()
	}

	v, ok := r.Resolve(path)
	if !ok {
		return nil
	}

	if ns, ok := v.(*Namespace); ok {
		return ns.Names()
	}

	return nil
}

// Resolve implements [lang.Bridge].
func (r *Registry) Resolve(name string) (lang.Value, bool) {
	var cur any = r.root

	for part := range strings.SplitSeq(name, ".") {
		ns, ok := cur.(*Namespace)
		if !ok {
			return nil, false
		}

		if cur, ok = ns.lookup(part); !ok {
			return nil, false
		}
	}

	return fromGo(reflect.ValueOf(cur)), true
}

// New implements [lang.Bridge].
func (r *Registry) New(ctx context.Context, typ lang.Value, args []lang.Value) (lang.Value, error) {
	t, ok := typ.(*Type)
	if !ok {
		return nil, lang.ErrTypeNotFound.With(slog.String("type", describe(typ)))
	}

	return call(ctx, t.name, t.ctor, args)
}

// Call implements [lang.Bridge].
func (r *Registry) Call(ctx context.Context, fn lang.Value, args []lang.Value) (lang.Value, error) {
	if t, ok := fn.(*Type); ok {
		return r.New(ctx, t, args)
	}

	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func || v.IsNil() {
		return nil, lang.ErrNotCallable.With(slog.String("type", describe(fn)))
	}

	return call(ctx, describe(fn), v, args)
}

// Get implements [lang.Bridge].
func (r *Registry) Get(_ context.Context, target lang.Value, member string) (lang.Value, error) {
	if ns, ok := target.(*Namespace); ok {
		if v, ok := ns.lookup(member); ok {
			return fromGo(reflect.ValueOf(v)), nil
		}

		return nil, memberNotFound(target, member)
	}

	v := reflect.ValueOf(target)

	if m, ok := method(v, member); ok {
		return m.Interface(), nil
	}

	if f, ok := field(v, member); ok {
		return fromGo(f), nil
	}

	e := indirect(v)

	switch e.Kind() {
	case reflect.Map:
		if k, ok := mapKey(e, member); ok {
			if x := e.MapIndex(k); x.IsValid() {
				return fromGo(x), nil
			}

			return lang.Undefined, nil
		}

	case reflect.Slice, reflect.Array, reflect.String:
		if member == "length" {
			return e.Len(), nil
		}

		if i, err := strconv.Atoi(member); err == nil {
			if i < 0 || i >= e.Len() {
				return lang.Undefined, nil
			}

			return fromGo(e.Index(i)), nil
		}
	}

	return nil, memberNotFound(target, member)
}

// Set implements [lang.Bridge].
func (r *Registry) Set(ctx context.Context, target lang.Value, member string, val lang.Value) error {
	if ns, ok := target.(*Namespace); ok {
		ns.set(member, val)

		return nil
	}

	c := &converter{ctx: ctx}
	v := reflect.ValueOf(target)

	if f, ok := field(v, member); ok {
		if !f.CanSet() {
			return lang.ErrMemberNotFound.With(
				slog.String("type", describe(target)),
				slog.String("member", member),
				slog.String("reason", "not settable"),
			)
		}

		x, err := c.convert(val, f.Type())
		if err != nil {
			return mismatch(member, 0, err)
		}

		f.Set(x)

		return nil
	}

	e := indirect(v)

	switch e.Kind() {
	case reflect.Map:
		if k, ok := mapKey(e, member); ok && !e.IsNil() {
			x, err := c.convert(val, e.Type().Elem())
			if err != nil {
				return mismatch(member, 0, err)
			}

			e.SetMapIndex(k, x)

			return nil
		}

	case reflect.Slice:
		if i, err := strconv.Atoi(member); err == nil && i >= 0 && i < e.Len() {
			x, err := c.convert(val, e.Type().Elem())
			if err != nil {
				return mismatch(member, 0, err)
			}

			e.Index(i).Set(x)

			return nil
		}
	}

	return memberNotFound(target, member)
}

// Invoke implements [lang.Bridge].
func (r *Registry) Invoke(ctx context.Context, target lang.Value, member string, args []lang.Value) (lang.Value, error) {
	if ns, ok := target.(*Namespace); ok {
		v, ok := ns.lookup(member)
		if !ok {
			return nil, memberNotFound(target, member)
		}

		if t, ok := v.(*Type); ok {
			return r.New(ctx, t, args)
		}

		fn := reflect.ValueOf(v)
		if fn.Kind() != reflect.Func {
			return nil, lang.ErrNotCallable.With(
				slog.String("type", describe(v)),
				slog.String("member", ns.name+"."+member),
			)
		}

		return call(ctx, ns.name+"."+member, fn, args)
	}

	v := reflect.ValueOf(target)

	if m, ok := method(v, member); ok {
		return call(ctx, describe(target)+"."+member, m, args)
	}

	if f, ok := field(v, member); ok && f.Kind() == reflect.Func && !f.IsNil() {
		return call(ctx, describe(target)+"."+member, f, args)
	}

	return nil, memberNotFound(target, member)
}

// candidates returns member as written followed by its upper-cased-first
// form when that differs.
func candidates(member string) []string {
	r, size := utf8.DecodeRuneInString(member)
	if u := unicode.ToUpper(r); r != utf8.RuneError && u != r {
		return []string{member, string(u) + member[size:]}
	}

	return []string{member}
}

func method(v reflect.Value, member string) (reflect.Value, bool) {
	if !v.IsValid() {
		return reflect.Value{}, false
	}

	for _, name := range candidates(member) {
		if m := v.MethodByName(name); m.IsValid() {
			return m, true
		}
	}

	return reflect.Value{}, false
}

func field(v reflect.Value, member string) (reflect.Value, bool) {
	e := indirect(v)
	if e.Kind() != reflect.Struct {
		return reflect.Value{}, false
	}

	for _, name := range candidates(member) {
		sf, ok := e.Type().FieldByName(name)
		if ok && sf.IsExported() {
			return e.FieldByIndex(sf.Index), true
		}
	}

	return reflect.Value{}, false
}

func indirect(v reflect.Value) reflect.Value {
	for v.IsValid() && (v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface) {
		if v.IsNil() {
			return reflect.Value{}
		}

		v = v.Elem()
	}

	return v
}

func mapKey(m reflect.Value, member string) (reflect.Value, bool) {
	kt := m.Type().Key()
	if kt.Kind() != reflect.String {
		return reflect.Value{}, false
	}

	return reflect.ValueOf(member).Convert(kt), true
}

func describe(v any) string {
	switch t := v.(type) {
	case *Namespace:
		return t.name
	case *Type:
		return t.name
	case nil:
		return "null"
	}

	return reflect.TypeOf(v).String()
}

func memberNotFound(target any, member string) error {
	return lang.ErrMemberNotFound.With(
		slog.String("type", describe(target)),
		slog.String("member", member),
	)
}
