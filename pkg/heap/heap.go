// Package heap implements the region-based bump allocator and mark-sweep
// collector with finalizers described for the execution core (C3). Regions
// are fixed-capacity slabs of object slots; Go's own runtime still owns the
// underlying memory safety, so this package is a logical layer that
// reproduces the documented region/mark/sweep/finalizer protocol on top of
// it — grounded on original_source/src/gc.cpp's Heap::mark/Heap::sweep and
// on the teacher's pre-grown-slice arena (pkg/parser/arena.go).
package heap

import "sync"

// RegionCapacity is the number of object slots per region, chosen so a
// region's bookkeeping mirrors the spec's 64 KiB / 64-byte-slot layout
// (63 usable mark bits per region) without depending on raw byte packing.
const RegionCapacity = 63

// RegionBatch is how many fresh regions are carved when the free-list runs
// dry, matching original_source/src/gc.cpp's makeRegions(256) call.
const RegionBatch = 256

// HeapObject is implemented by every GC-visible allocation. Header exposes
// the mark bit and region membership the collector needs.
type HeapObject interface {
	gcHeader() *Header
}

// Traceable is implemented by heap objects that hold references to other
// heap objects; Trace must call visit on each direct child.
type Traceable interface {
	HeapObject
	Trace(visit func(HeapObject))
}

// Finalizer is called exactly once, before an object's slot is reused, with
// a pointer to the object being collected. Finalizers may not allocate.
type Finalizer func(HeapObject)

// Header is embedded in every heap-allocated object.
type Header struct {
	region    *Region
	slot      int
	marked    bool
	finalizer Finalizer
}

func (h *Header) gcHeader() *Header { return h }

// SetFinalizer installs f to run once, just before this object's storage is
// reclaimed. Pass nil to clear.
func (h *Header) SetFinalizer(f Finalizer) { h.finalizer = f }

// Region is a fixed-capacity slab of object slots, bump-allocated into and
// collectively mark-swept.
type Region struct {
	objects [RegionCapacity]HeapObject
	used    int
	oversize bool
	next    *Region // free-list chain
}

// Heap owns the region free-list, the list of live (allocated) regions, and
// drives the mark/sweep cycle.
type Heap struct {
	mu         sync.Mutex
	current    *Region
	regions    []*Region // regions popped from the free-list and not yet returned to it by sweep
	freeList   []*Region
	oversize   []*Region
	liveCount  int
	threshold  int
	roots      []RootFunc
}

// RootFunc is called during Mark to report every HeapObject the caller
// holds a live reference to (registers, stack frames, gc-protect stacks,
// global interpreter state, installed foreign handles).
type RootFunc func(visit func(HeapObject))

// New creates an empty heap with the given live-set threshold for triggering
// an automatic mark/sweep at Alloc time (0 disables automatic collection;
// callers may still invoke Collect explicitly at a safe point).
func New(threshold int) *Heap {
	return &Heap{threshold: threshold}
}

// AddRoot registers a root provider. Roots are walked in registration order
// on every Mark.
func (h *Heap) AddRoot(r RootFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.roots = append(h.roots, r)
}

// Alloc installs obj into the current region, popping a fresh region from
// the free-list (refilling it in batches of RegionBatch) when the current
// region is full. obj's Header must be zero-valued on entry.
func (h *Heap) Alloc(obj HeapObject) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.current == nil || h.current.used == RegionCapacity {
		h.popRegion()
	}
	r := h.current
	slot := r.used
	r.objects[slot] = obj
	r.used++
	*obj.gcHeader() = Header{region: r, slot: slot}
	h.liveCount++

	if h.threshold > 0 && h.liveCount >= h.threshold {
		h.collectLocked()
	}
}

// AllocOversize installs obj into its own single-object region, outside the
// normal bump arena, as spec.md §4.3 allows for vectors too large to share a
// region.
func (h *Heap) AllocOversize(obj HeapObject) {
	h.mu.Lock()
	defer h.mu.Unlock()
	r := &Region{oversize: true}
	r.objects[0] = obj
	r.used = 1
	*obj.gcHeader() = Header{region: r, slot: 0}
	h.oversize = append(h.oversize, r)
	h.liveCount++
}

func (h *Heap) popRegion() {
	if len(h.freeList) == 0 {
		for i := 0; i < RegionBatch; i++ {
			h.freeList = append(h.freeList, &Region{})
		}
	}
	n := len(h.freeList) - 1
	r := h.freeList[n]
	h.freeList = h.freeList[:n]
	r.used = 0
	r.oversize = false
	for i := range r.objects {
		r.objects[i] = nil
	}
	h.current = r
	h.regions = append(h.regions, r)
}

// Collect runs Mark then Sweep. Safe to call only at a safe point where no
// other goroutine is mutating reachable heap state.
func (h *Heap) Collect() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.collectLocked()
}

func (h *Heap) collectLocked() {
	h.mark()
	h.sweep()
}

func (h *Heap) mark() {
	visit := func(obj HeapObject) {
		markRecursive(obj)
	}
	for _, root := range h.roots {
		root(visit)
	}
}

func markRecursive(obj HeapObject) {
	if obj == nil {
		return
	}
	hdr := obj.gcHeader()
	if hdr.marked {
		return
	}
	hdr.marked = true
	if t, ok := obj.(Traceable); ok {
		t.Trace(markRecursive)
	}
}

func (h *Heap) sweep() {
	live := 0

	sweepRegion := func(r *Region) bool {
		anyLive := false
		for i := 0; i < r.used; i++ {
			obj := r.objects[i]
			if obj == nil {
				continue
			}
			hdr := obj.gcHeader()
			if !hdr.marked {
				if hdr.finalizer != nil {
					hdr.finalizer(obj)
				}
				r.objects[i] = nil
			} else {
				hdr.marked = false
				anyLive = true
				live++
			}
		}
		return anyLive
	}

	kept := h.regions[:0]
	for _, r := range h.regions {
		if sweepRegion(r) {
			kept = append(kept, r)
		} else if r != h.current {
			h.freeList = append(h.freeList, r)
		} else {
			kept = append(kept, r)
		}
	}
	h.regions = kept

	oversizeKept := h.oversize[:0]
	for _, r := range h.oversize {
		if sweepRegion(r) {
			oversizeKept = append(oversizeKept, r)
		}
	}
	h.oversize = oversizeKept

	h.liveCount = live
}

// Stats reports the heap's current live-set size and region counts, for
// the driver's verbose/profile dump.
type Stats struct {
	LiveObjects  int
	LiveRegions  int
	FreeRegions  int
	OversizeRegions int
}

func (h *Heap) Stats() Stats {
	h.mu.Lock()
	defer h.mu.Unlock()
	return Stats{
		LiveObjects:     h.liveCount,
		LiveRegions:     len(h.regions),
		FreeRegions:     len(h.freeList),
		OversizeRegions: len(h.oversize),
	}
}
