package env

import (
	"riposte/pkg/heap"
	"riposte/pkg/intern"
	"riposte/pkg/value"
)

// Context carries the call information that created a frame: the caller
// environment, the invoked closure, the effective argument count, and the
// dots list/naming flag captured for forwarding (spec.md §3).
type Context struct {
	Caller    heap.HeapObject // enclosing caller's Environment
	Function  value.Value     // the Closure that was invoked
	Nargs     int32
	Dots      value.Value // List of captured "..." values
	DotNames  value.Value // parallel Character vector of their names, if any
	NamedDots bool
}

// Environment is a Dictionary plus a lexical parent pointer and optional
// call Context (spec.md §3, C4). It is the unit of GC-visible scope: a
// closure captured within it, or any stack frame referencing it, keeps it
// (and everything reachable from its dictionary) alive.
type Environment struct {
	heap.Header
	Dict    *Dictionary
	Parent  *Environment
	attrs   *value.Attrs
	Ctx     *Context
}

// New creates an environment bound to parent (nil for the root/global
// environment), with room for capacityHint bindings before rehashing.
func New(parent *Environment, capacityHint int, h *heap.Heap) *Environment {
	e := &Environment{Dict: NewDictionary(capacityHint), Parent: parent}
	h.Alloc(e)
	return e
}

// AsValue wraps e as a value.Value of the Environment tag.
func AsValue(e *Environment) value.Value {
	return value.NewEnvironmentValue(e)
}

// FromValue type-asserts an Environment back out of a value.Value carrying
// the Environment tag.
func FromValue(v value.Value) *Environment {
	return v.Heap().(*Environment)
}

func (e *Environment) Trace(visit func(heap.HeapObject)) {
	visit(e.Dict)
	if e.Parent != nil {
		visit(e.Parent)
	}
	if e.Ctx != nil {
		if e.Ctx.Caller != nil {
			visit(e.Ctx.Caller)
		}
		if ho := e.Ctx.Function.Heap(); ho != nil {
			visit(ho)
		}
		if ho := e.Ctx.Dots.Heap(); ho != nil {
			visit(ho)
		}
		if ho := e.Ctx.DotNames.Heap(); ho != nil {
			visit(ho)
		}
	}
	e.attrs.Each(func(_ intern.Handle, v value.Value) {
		if ho := v.Heap(); ho != nil {
			visit(ho)
		}
	})
}

func (e *Environment) Attrs() *value.Attrs     { return e.attrs }
func (e *Environment) SetAttrs(a *value.Attrs) { e.attrs = a }

func (e *Environment) Has(name intern.Handle) bool { return e.Dict.Has(name) }

func (e *Environment) Get(name intern.Handle) (value.Value, bool) { return e.Dict.Get(name) }

func (e *Environment) Set(name intern.Handle, v value.Value) { e.Dict.Insert(name, v) }

func (e *Environment) Remove(name intern.Handle) bool { return e.Dict.Remove(name) }

// Clone copies e's dictionary with room for extra more entries, per
// spec.md §4.4's clone(extra). The clone keeps e's parent link; e's
// context and attributes are not copied.
func (e *Environment) Clone(extra int, h *heap.Heap) *Environment {
	ne := &Environment{Dict: e.Dict.Clone(extra), Parent: e.Parent}
	h.Alloc(ne)
	return ne
}

// GetRecursive walks the lexical parent chain starting at e, returning the
// first binding found and the environment that holds it.
func (e *Environment) GetRecursive(name intern.Handle) (value.Value, *Environment, bool) {
	for env := e; env != nil; env = env.Parent {
		if v, ok := env.Get(name); ok {
			return v, env, true
		}
	}
	return value.NilValue(), nil, false
}

// InsertRecursive implements <<-: write into the innermost ancestor already
// binding name, or create the binding in the outermost visited environment
// if no ancestor binds it (spec.md §4.4, §8 scenario 6).
func (e *Environment) InsertRecursive(name intern.Handle, v value.Value) {
	outermost := e
	for env := e; env != nil; env = env.Parent {
		if env.Has(name) {
			env.Set(name, v)
			return
		}
		outermost = env
	}
	outermost.Set(name, v)
}
