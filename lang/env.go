package lang

import (
	"maps"
	"slices"
)

// Env is a lexical scope: a mutable name table chained to its parent.
//
// An Env is shared, not copied, by every closure created while it is
// current, so writes made through one holder are seen by all of them.
type Env struct {
	parent *Env
	values map[string]Value

	ret      Value
	returned bool
}

// NewEnv returns an empty scope whose lookups fall back to parent.
func NewEnv(parent *Env) *Env {
	return &Env{parent: parent, values: make(map[string]Value)}
}

// Parent returns the enclosing scope, or nil for the root.
func (e *Env) Parent() *Env { return e.parent }

// Root returns the outermost scope of the chain.
func (e *Env) Root() *Env {
	for e.parent != nil {
		e = e.parent
	}

	return e
}

// GetValue returns the value bound to name in the nearest scope that has
// it, or [Undefined].
func (e *Env) GetValue(name string) Value {
	if v, ok := e.Lookup(name); ok {
		return v
	}

	return Undefined
}

// Lookup is like [Env.GetValue] but reports whether name is bound at all.
func (e *Env) Lookup(name string) (Value, bool) {
	for s := e; s != nil; s = s.parent {
		if v, ok := s.values[name]; ok {
			return v, true
		}
	}

	return nil, false
}

// SetValue assigns to the nearest scope that owns name. When no scope owns
// it the binding is created in the root.
func (e *Env) SetValue(name string, v Value) {
	s := e
	for s.parent != nil {
		if _, ok := s.values[name]; ok {
			break
		}

		s = s.parent
	}

	s.values[name] = v
}

// DefineVariable binds name in this scope as [Undefined], shadowing any
// outer binding.
func (e *Env) DefineVariable(name string) {
	e.values[name] = Undefined
}

// Define binds name to v in this scope.
func (e *Env) Define(name string, v Value) {
	e.values[name] = v
}

// RemoveValue deletes the nearest binding of name. It is not an error if
// there is none.
func (e *Env) RemoveValue(name string) {
	for s := e; s != nil; s = s.parent {
		if _, ok := s.values[name]; ok {
			delete(s.values, name)

			return
		}
	}
}

// Has reports whether name is bound in this scope itself.
func (e *Env) Has(name string) bool {
	_, ok := e.values[name]

	return ok
}

// Names returns the names bound in this scope, sorted.
func (e *Env) Names() []string {
	return slices.Sorted(maps.Keys(e.values))
}

// ReturnValue reports the value set by a return command executed in this
// scope, if any.
func (e *Env) ReturnValue() (Value, bool) {
	return e.ret, e.returned
}

// SetReturnValue raises the return signal.
func (e *Env) SetReturnValue(v Value) {
	e.ret, e.returned = v, true
}

// ClearReturnValue lowers the return signal.
func (e *Env) ClearReturnValue() {
	e.ret, e.returned = nil, false
}
