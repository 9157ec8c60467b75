package value

import "math"

// Equal implements the identity/structural equality law from spec.md §8:
// eq(v, v) = true and neq(v, v) = false for any attribute-free value;
// environments and closures compare by identity of their components.
func Equal(a, b Value) bool {
	if a.tag != b.tag {
		// Logical/Logical32, Integer/Integer32, Character/ScalarString are
		// narrow aliases of the same representation.
		if !sameFamily(a.tag, b.tag) {
			return false
		}
	}
	switch {
	case a.IsLogical() && b.IsLogical():
		return byteSliceEqual(a.AsLogicalSlice(), b.AsLogicalSlice())
	case a.IsInteger() && b.IsInteger():
		return intSliceEqual(a.AsIntegerSlice(), b.AsIntegerSlice())
	case a.IsDouble() && b.IsDouble():
		return floatSliceEqual(a.AsDoubleSlice(), b.AsDoubleSlice())
	case a.IsCharacter() && b.IsCharacter():
		return handleSliceEqual(a.AsCharacterSlice(), b.AsCharacterSlice())
	case a.IsRaw() && b.IsRaw():
		return byteSliceEqual(a.AsRawSlice(), b.AsRawSlice())
	case a.IsEnvironment() && b.IsEnvironment():
		return a.obj == b.obj
	case a.IsClosure() && b.IsClosure():
		return a.AsClosure().Equal(b.AsClosure())
	case a.IsNull() && b.IsNull(), a.IsNil() && b.IsNil():
		return true
	default:
		return a.obj == b.obj && a.bits == b.bits && a.length == b.length
	}
}

func sameFamily(a, b Tag) bool {
	fam := func(t Tag) int {
		switch t {
		case Logical, Logical32:
			return 1
		case Integer, Integer32:
			return 2
		case Character, ScalarString:
			return 3
		default:
			return int(t) + 100
		}
	}
	return fam(a) == fam(b)
}

func intSliceEqual(a, b []int32) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func floatSliceEqual(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if math.Float64bits(a[i]) != math.Float64bits(b[i]) {
			return false
		}
	}
	return true
}

func handleSliceEqual[T comparable](a, b []T) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func byteSliceEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
