package value

import (
	"riposte/pkg/heap"
	"riposte/pkg/intern"
)

// Attrs is the small attributes dictionary every heap-backed vector can
// carry (class, dim, names, ...). R attribute sets are typically tiny
// (a handful of entries), so unlike the Environment's open-addressing
// Dictionary (C4, pkg/env — sized for large, hot variable scopes) this is a
// simple linear-scan slice of pairs.
type Attrs struct {
	entries []attrEntry
}

type attrEntry struct {
	name intern.Handle
	val  Value
}

func (a *Attrs) Get(name intern.Handle) (Value, bool) {
	if a == nil {
		return NilValue(), false
	}
	for _, e := range a.entries {
		if e.name == name {
			return e.val, true
		}
	}
	return NilValue(), false
}

// Each calls f for every attribute value, in no particular order. Used by
// GC tracing in packages (like env) that attach an Attrs to their own
// heap-allocated types.
func (a *Attrs) Each(f func(name intern.Handle, v Value)) {
	if a == nil {
		return
	}
	for _, e := range a.entries {
		f(e.name, e.val)
	}
}

func (a *Attrs) Set(name intern.Handle, v Value) *Attrs {
	if a == nil {
		a = &Attrs{}
	}
	for i, e := range a.entries {
		if e.name == name {
			a.entries[i].val = v
			return a
		}
	}
	a.entries = append(a.entries, attrEntry{name: name, val: v})
	return a
}

// LogicalBuffer is the heap buffer backing a Logical vector longer than one
// element (NA is represented by NAByte).
type LogicalBuffer struct {
	heap.Header
	data  []byte
	attrs *Attrs
}

func newLogicalBuffer(xs []byte) *LogicalBuffer {
	buf := make([]byte, len(xs))
	copy(buf, xs)
	return &LogicalBuffer{data: buf}
}

func (b *LogicalBuffer) Trace(visit func(heap.HeapObject)) { traceAttrs(b.attrs, visit) }

// IntegerBuffer backs an Integer vector longer than one element.
type IntegerBuffer struct {
	heap.Header
	data  []int32
	attrs *Attrs
}

func newIntegerBuffer(xs []int32) *IntegerBuffer {
	buf := make([]int32, len(xs))
	copy(buf, xs)
	return &IntegerBuffer{data: buf}
}

func (b *IntegerBuffer) Trace(visit func(heap.HeapObject)) { traceAttrs(b.attrs, visit) }

// DoubleBuffer backs a Double vector longer than one element.
type DoubleBuffer struct {
	heap.Header
	data  []float64
	attrs *Attrs
}

func newDoubleBuffer(xs []float64) *DoubleBuffer {
	buf := make([]float64, len(xs))
	copy(buf, xs)
	return &DoubleBuffer{data: buf}
}

func (b *DoubleBuffer) Trace(visit func(heap.HeapObject)) { traceAttrs(b.attrs, visit) }

// CharacterBuffer backs a Character vector longer than one element. Equality
// between elements is the pointer-equality of their interned handles; the
// handles themselves are never freed, so there is nothing further to trace.
type CharacterBuffer struct {
	heap.Header
	data  []intern.Handle
	attrs *Attrs
}

func newCharacterBuffer(hs []intern.Handle) *CharacterBuffer {
	buf := make([]intern.Handle, len(hs))
	copy(buf, hs)
	return &CharacterBuffer{data: buf}
}

func (b *CharacterBuffer) Trace(visit func(heap.HeapObject)) { traceAttrs(b.attrs, visit) }

// RawBuffer backs a Raw vector longer than one element.
type RawBuffer struct {
	heap.Header
	data  []byte
	attrs *Attrs
}

func newRawBuffer(bs []byte) *RawBuffer {
	buf := make([]byte, len(bs))
	copy(buf, bs)
	return &RawBuffer{data: buf}
}

func (b *RawBuffer) Trace(visit func(heap.HeapObject)) { traceAttrs(b.attrs, visit) }

// ListBuffer backs a List value: a vector of Values (spec.md §3).
type ListBuffer struct {
	heap.Header
	data  []Value
	attrs *Attrs
}

func newListBuffer(items []Value) *ListBuffer {
	buf := make([]Value, len(items))
	copy(buf, items)
	return &ListBuffer{data: buf}
}

func (b *ListBuffer) Trace(visit func(heap.HeapObject)) {
	for _, v := range b.data {
		if ho := v.Heap(); ho != nil {
			visit(ho)
		}
	}
	traceAttrs(b.attrs, visit)
}

func traceAttrs(a *Attrs, visit func(heap.HeapObject)) {
	if a == nil {
		return
	}
	for _, e := range a.entries {
		if ho := e.val.Heap(); ho != nil {
			visit(ho)
		}
	}
}

// WithAttrs replaces the attributes dictionary on v's heap buffer and
// returns v; the buffer is shared, so every copy of v sees the change.
// Only heap-backed vectors (length > 1, or any List) carry attributes: an
// immediate scalar or empty vector is returned unchanged and a is not
// attached to it.
func (v Value) WithAttrs(a *Attrs) Value {
	switch b := v.obj.(type) {
	case *LogicalBuffer:
		b.attrs = a
	case *IntegerBuffer:
		b.attrs = a
	case *DoubleBuffer:
		b.attrs = a
	case *CharacterBuffer:
		b.attrs = a
	case *RawBuffer:
		b.attrs = a
	case *ListBuffer:
		b.attrs = a
	}
	return v
}
