// Package env implements the open-addressing Dictionary and the lexical
// Environment built on top of it (C4), grounded on spec.md §4.4 and on
// original_source/src/call.cpp's use of Environment.get/insert/
// getRecursive for argument binding and <<- scope-chain writes.
package env

import (
	"riposte/pkg/heap"
	"riposte/pkg/intern"
	"riposte/pkg/value"
)

type slotState uint8

const (
	slotEmpty slotState = iota
	slotOccupied
	slotTombstone
)

type slot struct {
	state slotState
	name  intern.Handle
	val   value.Value
}

// Dictionary is a quadratic-probe open-addressing hash table keyed by
// interned string handles. Table size is always a power of two.
//
// spec.md §9's first open question — whether remove() needs a tombstone
// distinct from "empty" so a concurrent find() doesn't terminate probing
// early — is resolved here in favor of an explicit tombstone state (see
// SPEC_FULL.md / DESIGN.md): slotTombstone keeps probing alive past a
// removed slot, while slotEmpty is still the terminator a lookup can trust.
type Dictionary struct {
	heap.Header
	slots []slot
	used  int // occupied + tombstone
	live  int // occupied only
}

const minCapacity = 8

func nextPow2(n int) int {
	p := minCapacity
	for p < n {
		p <<= 1
	}
	return p
}

// NewDictionary creates a dictionary with room for at least capacityHint
// entries before its first rehash.
func NewDictionary(capacityHint int) *Dictionary {
	// Insert rehashes once the table is more than half full, so size for
	// twice the hint.
	return &Dictionary{slots: make([]slot, nextPow2(capacityHint*2))}
}

func (d *Dictionary) ksize() uint32 { return uint32(len(d.slots) - 1) }

func hashOf(h intern.Handle, ksize uint32) uint32 {
	return (uint32(h) >> 3) & ksize
}

// probe calls visit(idx) for each slot in the probe sequence for name,
// stopping when visit returns false.
func (d *Dictionary) probe(name intern.Handle, visit func(idx int) bool) {
	ksize := d.ksize()
	idx := hashOf(name, ksize)
	j := uint32(0)
	for {
		if !visit(int(idx)) {
			return
		}
		j++
		idx = (idx + j) & ksize
	}
}

// find returns the index of the occupied slot holding name, or -1 if name
// is not present. It scans past tombstones but stops at the first truly
// empty slot, per the dictionary's tombstone invariant.
func (d *Dictionary) find(name intern.Handle) int {
	found := -1
	d.probe(name, func(idx int) bool {
		s := &d.slots[idx]
		switch s.state {
		case slotEmpty:
			return false
		case slotOccupied:
			if s.name == name {
				found = idx
				return false
			}
		case slotTombstone:
			// keep scanning
		}
		return true
	})
	return found
}

// Has reports whether name is currently bound.
func (d *Dictionary) Has(name intern.Handle) bool { return d.find(name) >= 0 }

// Get returns the bound value and true, or a Nil value and false if name is
// not bound — the C4 "returns Nil pair if absent" contract.
func (d *Dictionary) Get(name intern.Handle) (value.Value, bool) {
	idx := d.find(name)
	if idx < 0 {
		return value.NilValue(), false
	}
	return d.slots[idx].val, true
}

// Insert binds name to v, creating the slot if absent and rehashing first
// if the load factor would be exceeded.
func (d *Dictionary) Insert(name intern.Handle, v value.Value) {
	if idx := d.find(name); idx >= 0 {
		d.slots[idx].val = v
		return
	}
	if (d.used+1)*2 > len(d.slots) {
		d.rehash(len(d.slots) * 2)
	}
	d.insertNew(name, v)
}

// insertNew assumes name is not already present and the table has room.
func (d *Dictionary) insertNew(name intern.Handle, v value.Value) {
	target := -1
	d.probe(name, func(idx int) bool {
		s := &d.slots[idx]
		switch s.state {
		case slotEmpty:
			target = idx
			return false
		case slotTombstone:
			if target < 0 {
				target = idx
			}
		case slotOccupied:
			// keep scanning
		}
		return true
	})
	s := &d.slots[target]
	wasTomb := s.state == slotTombstone
	*s = slot{state: slotOccupied, name: name, val: v}
	d.live++
	if !wasTomb {
		d.used++
	}
}

// Remove marks name's slot as a tombstone so later lookups keep probing
// past it instead of terminating early.
func (d *Dictionary) Remove(name intern.Handle) bool {
	idx := d.find(name)
	if idx < 0 {
		return false
	}
	d.slots[idx] = slot{state: slotTombstone, name: name}
	d.live--
	return true
}

func (d *Dictionary) rehash(newSize int) {
	old := d.slots
	d.slots = make([]slot, newSize)
	d.used = 0
	d.live = 0
	for _, s := range old {
		if s.state == slotOccupied {
			d.insertNew(s.name, s.val)
		}
	}
}

// Clone copies the dictionary, sized with room for extra more entries
// before its first rehash.
func (d *Dictionary) Clone(extra int) *Dictionary {
	nd := NewDictionary(d.live + extra)
	d.Each(func(name intern.Handle, v value.Value) {
		nd.Insert(name, v)
	})
	return nd
}

// Each iterates bound entries in bucket-index order (not insertion order),
// per spec.md §4.4.
func (d *Dictionary) Each(f func(name intern.Handle, v value.Value)) {
	for _, s := range d.slots {
		if s.state == slotOccupied {
			f(s.name, s.val)
		}
	}
}

// Len returns the number of currently bound entries.
func (d *Dictionary) Len() int { return d.live }

func (d *Dictionary) Trace(visit func(heap.HeapObject)) {
	for _, s := range d.slots {
		if s.state == slotOccupied {
			if ho := s.val.Heap(); ho != nil {
				visit(ho)
			}
		}
	}
}
