package value

import (
	"math"

	"riposte/pkg/heap"
	"riposte/pkg/intern"
)

// NAByte is the sentinel logical/raw byte used for a missing element.
const NAByte byte = 2

// Value is the 16-byte-conceptual tagged union described in spec.md §3:
// a type tag plus either an inline scalar payload or a pointer to a
// heap-allocated buffer. Grounded on the teacher's Value{Type; as struct{
// ...; obj interface{}}} shape (_examples/nooga-paserati/pkg/value/value.go),
// generalized from the teacher's JS variants to Riposte's 17 R-style ones.
type Value struct {
	tag    Tag
	length int32
	bits   uint64      // immediate payload for scalars (≤1 element)
	obj    interface{} // heap pointer for non-scalar payloads
}

func (v Value) Tag() Tag      { return v.tag }
func (v Value) Length() int32 { return v.length }

func (v Value) IsNil() bool    { return v.tag == Nil }
func (v Value) IsNull() bool   { return v.tag == Null }
func (v Value) IsLogical() bool { return v.tag == Logical || v.tag == Logical32 }
func (v Value) IsInteger() bool { return v.tag == Integer || v.tag == Integer32 }
func (v Value) IsDouble() bool  { return v.tag == Double }
func (v Value) IsCharacter() bool {
	return v.tag == Character || v.tag == ScalarString
}
func (v Value) IsRaw() bool         { return v.tag == Raw }
func (v Value) IsList() bool        { return v.tag == List }
func (v Value) IsEnvironment() bool { return v.tag == Environment }
func (v Value) IsClosure() bool     { return v.tag == Closure }
func (v Value) IsPromise() bool     { return v.tag == Promise }
func (v Value) IsExternalptr() bool { return v.tag == Externalptr }
func (v Value) IsPairlist() bool    { return v.tag == Pairlist }

// IsVector reports whether v is one of the atomic/list vector types.
func (v Value) IsVector() bool {
	switch v.tag {
	case Null, Raw, Logical, Logical32, Integer, Integer32, Double, Character, ScalarString, List:
		return true
	default:
		return false
	}
}

// NilValue is the absence-of-value marker (a dictionary miss, an unbound
// optional argument).
func NilValue() Value { return Value{tag: Nil} }

// NullValue is R's empty value.
func NullValue() Value { return Value{tag: Null} }

// --- Logical ---

func NewLogical(b byte) Value {
	return Value{tag: Logical, length: 1, bits: uint64(b)}
}

func NewLogicalVector(xs []byte, h *heap.Heap) Value {
	if len(xs) <= 1 {
		if len(xs) == 0 {
			return Value{tag: Logical, length: 0}
		}
		return NewLogical(xs[0])
	}
	buf := newLogicalBuffer(xs)
	h.Alloc(buf)
	return Value{tag: Logical, length: int32(len(xs)), obj: buf}
}

func (v Value) AsLogicalSlice() []byte {
	if v.obj != nil {
		return v.obj.(*LogicalBuffer).data
	}
	if v.length == 0 {
		return nil
	}
	return []byte{byte(v.bits)}
}

// --- Integer ---

func NewInteger(i int32) Value {
	return Value{tag: Integer, length: 1, bits: uint64(uint32(i))}
}

func NewInteger32(i int32) Value {
	return Value{tag: Integer32, length: 1, bits: uint64(uint32(i))}
}

func NewIntegerVector(xs []int32, h *heap.Heap) Value {
	if len(xs) <= 1 {
		if len(xs) == 0 {
			return Value{tag: Integer, length: 0}
		}
		return NewInteger(xs[0])
	}
	buf := newIntegerBuffer(xs)
	h.Alloc(buf)
	return Value{tag: Integer, length: int32(len(xs)), obj: buf}
}

func (v Value) AsIntegerSlice() []int32 {
	if v.obj != nil {
		return v.obj.(*IntegerBuffer).data
	}
	if v.length == 0 {
		return nil
	}
	return []int32{int32(uint32(v.bits))}
}

// --- Double ---

func NewDouble(f float64) Value {
	return Value{tag: Double, length: 1, bits: math.Float64bits(f)}
}

func NewDoubleVector(xs []float64, h *heap.Heap) Value {
	if len(xs) <= 1 {
		if len(xs) == 0 {
			return Value{tag: Double, length: 0}
		}
		return NewDouble(xs[0])
	}
	buf := newDoubleBuffer(xs)
	h.Alloc(buf)
	return Value{tag: Double, length: int32(len(xs)), obj: buf}
}

func (v Value) AsDoubleSlice() []float64 {
	if v.obj != nil {
		return v.obj.(*DoubleBuffer).data
	}
	if v.length == 0 {
		return nil
	}
	return []float64{math.Float64frombits(v.bits)}
}

// --- Character ---

func NewCharacter(h intern.Handle) Value {
	return Value{tag: Character, length: 1, bits: uint64(h)}
}

// NewScalarString is the narrow scalar alias for a single interned string
// (spec.md §3), used by bytecode ops that want an unboxed string fast path.
func NewScalarString(h intern.Handle) Value {
	return Value{tag: ScalarString, length: 1, bits: uint64(h)}
}

func NewCharacterVector(hs []intern.Handle, h *heap.Heap) Value {
	if len(hs) <= 1 {
		if len(hs) == 0 {
			return Value{tag: Character, length: 0}
		}
		return NewCharacter(hs[0])
	}
	buf := newCharacterBuffer(hs)
	h.Alloc(buf)
	return Value{tag: Character, length: int32(len(hs)), obj: buf}
}

func (v Value) AsCharacterSlice() []intern.Handle {
	if v.obj != nil {
		return v.obj.(*CharacterBuffer).data
	}
	if v.length == 0 {
		return nil
	}
	return []intern.Handle{intern.Handle(v.bits)}
}

// --- Raw ---

func NewRaw(b byte) Value { return Value{tag: Raw, length: 1, bits: uint64(b)} }

func NewRawVector(bs []byte, h *heap.Heap) Value {
	if len(bs) <= 1 {
		if len(bs) == 0 {
			return Value{tag: Raw, length: 0}
		}
		return NewRaw(bs[0])
	}
	buf := newRawBuffer(bs)
	h.Alloc(buf)
	return Value{tag: Raw, length: int32(len(bs)), obj: buf}
}

func (v Value) AsRawSlice() []byte {
	if v.obj != nil {
		return v.obj.(*RawBuffer).data
	}
	if v.length == 0 {
		return nil
	}
	return []byte{byte(v.bits)}
}

// --- List ---

// NewList always allocates a heap-backed ListBuffer, even for zero or one
// elements: list elements are themselves Values and R list semantics
// (attributes, names) make the immediate fast path not worth the
// complexity the atomic vector types get.
func NewList(items []Value, h *heap.Heap) Value {
	buf := newListBuffer(items)
	h.Alloc(buf)
	return Value{tag: List, length: int32(len(items)), obj: buf}
}

func (v Value) AsListSlice() []Value {
	if v.obj == nil {
		return nil
	}
	return v.obj.(*ListBuffer).data
}

// NewEnvironmentValue wraps any heap.HeapObject (concretely an
// *env.Environment) as an Environment-tagged Value. Kept generic here so
// pkg/value does not need to import pkg/env.
func NewEnvironmentValue(e heap.HeapObject) Value {
	return Value{tag: Environment, length: 1, obj: e}
}

// Heap returns the underlying heap.HeapObject for any heap-backed value, or
// nil for an immediate scalar. Used by the GC root walk and by package env
// to type-assert environments/closures/promises out of a Value.
func (v Value) Heap() heap.HeapObject {
	if v.obj == nil {
		return nil
	}
	if ho, ok := v.obj.(heap.HeapObject); ok {
		return ho
	}
	return nil
}

// Attrs returns the attributes dictionary attached to a heap-backed vector
// value, or nil if it carries none.
func (v Value) Attrs() *Attrs {
	switch b := v.obj.(type) {
	case *LogicalBuffer:
		return b.attrs
	case *IntegerBuffer:
		return b.attrs
	case *DoubleBuffer:
		return b.attrs
	case *CharacterBuffer:
		return b.attrs
	case *RawBuffer:
		return b.attrs
	case *ListBuffer:
		return b.attrs
	default:
		return nil
	}
}

// HasAttributes reports whether v carries any attributes, the fast-path
// gate C8's dispatcher checks before trying a builtin operator.
func (v Value) HasAttributes() bool {
	a := v.Attrs()
	return a != nil && len(a.entries) > 0
}
