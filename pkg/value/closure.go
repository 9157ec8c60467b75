package value

import "riposte/pkg/heap"

// ClosureObj pairs an immutable Prototype with the lexical environment
// captured when it was created (spec.md §3). Env is opaque at this layer —
// concretely an *env.Environment — so that pkg/value does not need to
// import pkg/env; callers that need the environment itself go through
// package env's accessor.
type ClosureObj struct {
	heap.Header
	Proto *Prototype
	Env   heap.HeapObject
}

func (c *ClosureObj) Trace(visit func(heap.HeapObject)) {
	if c.Env != nil {
		visit(c.Env)
	}
	for _, v := range c.Proto.Constants {
		if ho := v.Heap(); ho != nil {
			visit(ho)
		}
	}
	for _, cc := range c.Proto.Calls {
		if ho := cc.Call.Heap(); ho != nil {
			visit(ho)
		}
		for _, a := range cc.Arguments {
			if ho := a.Heap(); ho != nil {
				visit(ho)
			}
		}
	}
}

func NewClosure(proto *Prototype, env heap.HeapObject, h *heap.Heap) Value {
	c := &ClosureObj{Proto: proto, Env: env}
	h.Alloc(c)
	return Value{tag: Closure, length: 1, obj: c}
}

func (v Value) AsClosure() *ClosureObj {
	return v.obj.(*ClosureObj)
}

// Equal implements the identity-based equality dispatch.cpp's
// ClosureBinaryDispatch grounds: two closures are equal iff they share both
// prototype and environment.
func (c *ClosureObj) Equal(o *ClosureObj) bool {
	return c.Proto == o.Proto && c.Env == o.Env
}
