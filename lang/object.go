package lang

import (
	"context"
	"log/slog"
	"slices"
	"strings"
)

// maxProtoDepth bounds prototype chain walks so that cyclic chains
// terminate.
const maxProtoDepth = 64

// Object is the capability every script-visible object provides.
type Object interface {
	// Function returns the function whose prototype this object delegates
	// to on lookup misses, or nil.
	Function() *Function

	// GetValue returns the named property, searching the prototype chain,
	// or [Undefined].
	GetValue(name string) Value

	// Own returns the named property from own storage only.
	Own(name string) (Value, bool)

	// SetValue writes an enumerable own property.
	SetValue(name string, v Value)

	// SetProperty writes an own property with the given enumerability.
	SetProperty(name string, v Value, enumerable bool)

	RemoveValue(name string)
	HasName(name string) bool

	// Names returns own enumerable property names in insertion order.
	Names() []string
}

// DynamicObject is a general-purpose object with own property storage and
// prototype delegation through its associated [Function].
type DynamicObject struct {
	fn     *Function
	values map[string]Value
	keys   []string
	hidden map[string]bool
}

// NewDynamicObject returns an empty object associated with fn, which may be
// nil.
func NewDynamicObject(fn *Function) *DynamicObject {
	o := new(DynamicObject)
	o.init(fn)

	return o
}

func (o *DynamicObject) init(fn *Function) {
	o.fn = fn
	o.values = make(map[string]Value)
}

// Function implements [Object].
func (o *DynamicObject) Function() *Function { return o.fn }

// GetValue implements [Object].
func (o *DynamicObject) GetValue(name string) Value {
	if v, ok := o.values[name]; ok {
		return v
	}

	return protoValue(o.fn, name)
}

// Own implements [Object].
func (o *DynamicObject) Own(name string) (Value, bool) {
	v, ok := o.values[name]

	return v, ok
}

// SetValue implements [Object]. It never writes through to a prototype.
func (o *DynamicObject) SetValue(name string, v Value) {
	o.SetProperty(name, v, true)
}

// SetProperty implements [Object].
func (o *DynamicObject) SetProperty(name string, v Value, enumerable bool) {
	if _, ok := o.values[name]; !ok {
		o.keys = append(o.keys, name)
	}

	o.values[name] = v

	switch {
	case !enumerable:
		if o.hidden == nil {
			o.hidden = make(map[string]bool)
		}

		o.hidden[name] = true
	case o.hidden != nil:
		delete(o.hidden, name)
	}
}

// RemoveValue implements [Object].
func (o *DynamicObject) RemoveValue(name string) {
	if _, ok := o.values[name]; !ok {
		return
	}

	delete(o.values, name)
	delete(o.hidden, name)
	o.keys = slices.DeleteFunc(o.keys, func(k string) bool { return k == name })
}

// HasName implements [Object].
func (o *DynamicObject) HasName(name string) bool {
	_, ok := o.values[name]

	return ok
}

// Names implements [Object].
func (o *DynamicObject) Names() []string {
	names := make([]string, 0, len(o.keys))

	for _, k := range o.keys {
		if !o.hidden[k] {
			names = append(names, k)
		}
	}

	return names
}

// protoValue resolves name through the prototype objects reachable from fn.
func protoValue(fn *Function, name string) Value {
	for range maxProtoDepth {
		if fn == nil {
			break
		}

		proto, ok := fn.values["prototype"].(Object)
		if !ok {
			break
		}

		if v, ok := proto.Own(name); ok {
			return v
		}

		fn = proto.Function()
	}

	return Undefined
}

// ArrayObject is an object whose storage is an ordered element sequence.
// Its length is computed from the live element count.
type ArrayObject struct {
	DynamicObject
	elems []Value
}

// NewArrayObject returns an array associated with fn holding elems.
func NewArrayObject(fn *Function, elems ...Value) *ArrayObject {
	a := &ArrayObject{elems: slices.Clone(elems)}
	a.init(fn)

	return a
}

// Elements returns the live element slice.
func (a *ArrayObject) Elements() []Value { return a.elems }

// Len returns the element count.
func (a *ArrayObject) Len() int { return len(a.elems) }

// Index returns the element at i, or [Undefined] out of range.
func (a *ArrayObject) Index(i int) Value {
	if i < 0 || i >= len(a.elems) {
		return Undefined
	}

	return a.elems[i]
}

// MaxArrayGap is the largest number of [Undefined] elements SetIndex inserts
// to reach an index past the end of an array.
const MaxArrayGap = 1 << 16

// SetIndex stores v at i, growing the array with [Undefined] as needed. A
// negative index, or one more than [MaxArrayGap] past the end, is stored as
// a named property instead.
func (a *ArrayObject) SetIndex(i int, v Value) {
	n := len(a.elems)
	if i < 0 || i-n > MaxArrayGap {
		a.SetValue(ToString(i), v)

		return
	}

	if i >= n {
		a.elems = slices.Grow(a.elems, i+1-n)[:i+1]
		for j := n; j < i; j++ {
			a.elems[j] = Undefined
		}
	}

	a.elems[i] = v
}

// Push appends values and returns the new length.
func (a *ArrayObject) Push(vs ...Value) int {
	a.elems = append(a.elems, vs...)

	return len(a.elems)
}

// Pop removes and returns the last element, or [Undefined] when empty.
func (a *ArrayObject) Pop() Value {
	n := len(a.elems)
	if n == 0 {
		return Undefined
	}

	v := a.elems[n-1]
	a.elems = a.elems[:n-1]

	return v
}

// Shift removes and returns the first element, or [Undefined] when empty.
func (a *ArrayObject) Shift() Value {
	if len(a.elems) == 0 {
		return Undefined
	}

	v := a.elems[0]
	a.elems = slices.Delete(a.elems, 0, 1)

	return v
}

// Unshift prepends values and returns the new length.
func (a *ArrayObject) Unshift(vs ...Value) int {
	a.elems = slices.Insert(a.elems, 0, vs...)

	return len(a.elems)
}

// GetValue implements [Object]. "length" is computed.
func (a *ArrayObject) GetValue(name string) Value {
	if name == "length" {
		return len(a.elems)
	}

	return a.DynamicObject.GetValue(name)
}

// Own implements [Object].
func (a *ArrayObject) Own(name string) (Value, bool) {
	if name == "length" {
		return len(a.elems), true
	}

	return a.DynamicObject.Own(name)
}

// Function is a callable object. Scripted functions carry parameter names,
// a body and the [Env] they close over; native functions wrap a
// [NativeFunc]. A Function is its own associated function, so lookup misses
// consult its "prototype" property.
type Function struct {
	DynamicObject

	Name   string
	Params []string
	Body   *Composite

	closure   *Env
	native    NativeFunc
	construct func(ctx context.Context, args []Value) (Value, error)
	rt        *Runtime
}

func newFunction(rt *Runtime, name string) *Function {
	f := &Function{Name: name, rt: rt}
	f.init(nil)
	f.SetProperty("prototype", NewDynamicObject(rt.object), false)
	f.SetProperty("call", callNative, false)
	f.SetProperty("apply", applyNative, false)

	return f
}

// Function implements [Object]. It returns f itself.
func (f *Function) Function() *Function { return f }

// GetValue implements [Object].
func (f *Function) GetValue(name string) Value {
	if v, ok := f.values[name]; ok {
		return v
	}

	return protoValue(f, name)
}

// Prototype returns the object instances of f delegate to.
func (f *Function) Prototype() Object {
	p, _ := f.values["prototype"].(Object)

	return p
}

// Arity returns the number of declared parameters.
func (f *Function) Arity() int { return len(f.Params) }

// Closure returns the scope the function was created in, or nil for
// native functions.
func (f *Function) Closure() *Env { return f.closure }

// Call implements [Callable].
func (f *Function) Call(ctx context.Context, this Value, args []Value) (Value, error) {
	if f.native != nil {
		return f.native(ctx, this, args)
	}

	v, _, err := f.rt.invoke(ctx, f, this, args)

	return v, err
}

// Signature returns the declaration header of f, "function name(a, b)".
func (f *Function) Signature() string {
	var b strings.Builder

	b.WriteString("function")

	if f.Name != "" {
		b.WriteString(" " + f.Name)
	}

	b.WriteString("(" + strings.Join(f.Params, ", ") + ")")

	return b.String()
}

// LogValue implements slog.LogValuer.
func (f *Function) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("name", f.Name),
		slog.Int("arity", f.Arity()),
		slog.Bool("native", f.native != nil),
	)
}

// globalObject presents the root [Env] as an [Object]. It is the this value
// of plain function calls.
type globalObject struct {
	rt *Runtime
}

func (g *globalObject) env() *Env { return g.rt.global }

func (g *globalObject) Function() *Function { return g.rt.object }

func (g *globalObject) GetValue(name string) Value { return g.env().GetValue(name) }

func (g *globalObject) Own(name string) (Value, bool) {
	v, ok := g.env().values[name]

	return v, ok
}

func (g *globalObject) SetValue(name string, v Value) { g.env().Define(name, v) }

func (g *globalObject) SetProperty(name string, v Value, _ bool) { g.env().Define(name, v) }

func (g *globalObject) RemoveValue(name string) { delete(g.env().values, name) }

func (g *globalObject) HasName(name string) bool { return g.env().Has(name) }

func (g *globalObject) Names() []string { return g.env().Names() }

// Invoke calls the named method of o with o bound as this.
func Invoke(ctx context.Context, o Object, name string, args []Value) (Value, error) {
	m := o.GetValue(name)

	c, ok := m.(Callable)
	if !ok {
		return nil, ErrNotCallable.With(
			slog.String("member", name),
			slog.String("type", TypeOf(m)),
		)
	}

	return c.Call(ctx, o, args)
}

// InvokeCallable calls c with o bound as this.
func InvokeCallable(ctx context.Context, o Object, c Callable, args []Value) (Value, error) {
	return c.Call(ctx, o, args)
}

// InstanceOf reports whether fn appears in the delegation chain of v.
func InstanceOf(v Value, fn *Function) bool {
	if fn == nil {
		return false
	}

	if _, ok := v.(*Function); ok && fn.rt != nil && fn == fn.rt.function {
		return true
	}

	o, ok := v.(Object)
	if !ok {
		return false
	}

	for range maxProtoDepth {
		cur := o.Function()
		if cur == nil {
			return false
		}

		if cur == fn {
			return true
		}

		p := cur.Prototype()
		if p == nil {
			return false
		}

		o = p
	}

	return false
}
