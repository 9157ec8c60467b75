package value

import "riposte/pkg/heap"

// PairlistObj is a single cons cell (car, cdr, tag), used for R's internal
// pairlist representation of argument/formal lists (spec.md §3).
type PairlistObj struct {
	heap.Header
	Car Value
	Cdr Value
	Tag Value
}

func (p *PairlistObj) Trace(visit func(heap.HeapObject)) {
	if ho := p.Car.Heap(); ho != nil {
		visit(ho)
	}
	if ho := p.Cdr.Heap(); ho != nil {
		visit(ho)
	}
	if ho := p.Tag.Heap(); ho != nil {
		visit(ho)
	}
}

func NewPairlist(car, cdr, tag Value, h *heap.Heap) Value {
	p := &PairlistObj{Car: car, Cdr: cdr, Tag: tag}
	h.Alloc(p)
	return Value{tag: Pairlist, length: 1, obj: p}
}

func (v Value) AsPairlist() *PairlistObj {
	return v.obj.(*PairlistObj)
}

// ExternalptrObj wraps an opaque foreign pointer with a descriptive tag and
// a protector value, the way R's EXTPTR type does (spec.md §3). HandleID is
// a process-unique identifier assigned at registration time so the driver's
// profile dump can report installed-handle counts without aliasing on
// pointer reuse across GC cycles (see DESIGN.md: wired via google/uuid).
type ExternalptrObj struct {
	heap.Header
	Ptr      interface{}
	ExtTag   Value
	Prot     Value
	HandleID string
}

func (e *ExternalptrObj) Trace(visit func(heap.HeapObject)) {
	if ho := e.ExtTag.Heap(); ho != nil {
		visit(ho)
	}
	if ho := e.Prot.Heap(); ho != nil {
		visit(ho)
	}
}

func NewExternalptr(ptr interface{}, tag, prot Value, handleID string, h *heap.Heap) Value {
	e := &ExternalptrObj{Ptr: ptr, ExtTag: tag, Prot: prot, HandleID: handleID}
	h.Alloc(e)
	return Value{tag: Externalptr, length: 1, obj: e}
}

func (v Value) AsExternalptr() *ExternalptrObj {
	return v.obj.(*ExternalptrObj)
}
