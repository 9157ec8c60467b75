package value

import "riposte/pkg/heap"

// PromiseObj is a deferred computation bound in an environment, forced at
// most once per binding site (spec.md §3, §4.6). It carries either a
// reference to Code holding the thunk's bytecode (an expression promise),
// or an indication that it refers to the dotIndex-th element of its
// environment's "..." list (a dotdot promise) — grounded on
// original_source/src/call.cpp's force() and assignDot().
type PromiseObj struct {
	heap.Header
	Code     *Prototype // nil for a dotdot promise
	IsDotdot bool
	DotIndex int32
	Env      heap.HeapObject // environment the thunk evaluates in
	Forced   bool
	Result   Value // cached value once Forced, so re-forcing is a no-op
}

func (p *PromiseObj) Trace(visit func(heap.HeapObject)) {
	if p.Env != nil {
		visit(p.Env)
	}
	if p.Code != nil {
		for _, v := range p.Code.Constants {
			if ho := v.Heap(); ho != nil {
				visit(ho)
			}
		}
	}
	if p.Forced {
		if ho := p.Result.Heap(); ho != nil {
			visit(ho)
		}
	}
}

// NewExpressionPromise creates a promise for an unevaluated expression,
// to be forced in env.
func NewExpressionPromise(code *Prototype, env heap.HeapObject, h *heap.Heap) Value {
	p := &PromiseObj{Code: code, Env: env}
	h.Alloc(p)
	return Value{tag: Promise, length: 1, obj: p}
}

// NewDotdotPromise creates a promise that forwards the dotIndex-th element
// of env's "..." list, re-targeted to a new environment the way
// original_source/src/call.cpp's argument() re-wraps forwarded dot promises.
func NewDotdotPromise(dotIndex int32, env heap.HeapObject, h *heap.Heap) Value {
	p := &PromiseObj{IsDotdot: true, DotIndex: dotIndex, Env: env}
	h.Alloc(p)
	return Value{tag: Promise, length: 1, obj: p}
}

func (v Value) AsPromise() *PromiseObj {
	return v.obj.(*PromiseObj)
}
