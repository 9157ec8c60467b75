// Package taskpool implements the fork-join work-stealing task pool
// (C9, spec.md §4.9): a fixed set of worker goroutines, each owning a
// mutex-guarded deque of Tasks, that cooperatively split and steal ranges of
// work until a DoAll call's range is fully consumed. Grounded on
// original_source/src/interpreter.h's Thread::doall/run/split/dequeue/
// steal, adapted from raw pthreads + a spinlock to goroutines guarded by
// sync.Mutex, with atomic counters via sync/atomic the way the teacher's
// worker pool (_examples/nooga-paserati/pkg/modules/worker_pool.go) tracks
// started/stopped/activeJobs.
package taskpool

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// HeaderFunc runs once per task before its range is split across workers,
// producing an opaque context value every TaskFunc invocation for that
// task receives — original_source's TaskHeaderPtr.
type HeaderFunc func(args interface{}, a, b uint64) interface{}

// TaskFunc processes the sub-range [a, b) of a task, using the context hdr
// produced by its HeaderFunc (nil if none was supplied).
type TaskFunc func(args interface{}, hdr interface{}, a, b uint64)

// task is one (sub-)range of work in flight, split and requeued as worker
// threads relinquish pieces of it to stealers. done is shared by every
// split descending from the original DoAll call, so DoAll can block until
// the whole range — not just this worker's slice — is finished.
type task struct {
	header    HeaderFunc
	fn        TaskFunc
	args      interface{}
	hdr       interface{}
	a, b      uint64
	alignment uint64
	ppt       uint64
	done      *int64
}

// Pool owns a fixed set of worker goroutines and dispatches DoAll calls to
// them. Call Close to stop the workers once the pool is no longer needed.
type Pool struct {
	workers []*worker
	closing chan struct{}
	closed  int32
}

type worker struct {
	pool  *Pool
	index int

	mu     sync.Mutex
	tasks  []task // used as a deque: push/pop front for own work, steal from back
	steals int64
}

// New starts a Pool with n worker goroutines. n<=0 defaults to
// runtime.NumCPU(), mirroring spec.md's "-j" CLI flag default.
func New(n int) *Pool {
	if n <= 0 {
		n = runtime.NumCPU()
	}
	p := &Pool{closing: make(chan struct{})}
	p.workers = make([]*worker, n)
	for i := 0; i < n; i++ {
		w := &worker{pool: p, index: i}
		p.workers[i] = w
		go w.loop()
	}
	return p
}

// Close stops every worker goroutine. It does not wait for in-flight
// DoAll calls; call it only after all DoAll calls have returned.
func (p *Pool) Close() {
	if atomic.CompareAndSwapInt32(&p.closed, 0, 1) {
		close(p.closing)
	}
}

// NumWorkers reports how many worker goroutines this pool owns.
func (p *Pool) NumWorkers() int { return len(p.workers) }

// Stats reports the sum of the steal attempts currently recorded against
// the workers and not yet consumed by their run loops (each run resets its
// worker's counter to zero), for the driver's -p profile dump.
type Stats struct {
	Workers      int
	StealSignals int64
}

func (p *Pool) Stats() Stats {
	s := Stats{Workers: len(p.workers)}
	for _, w := range p.workers {
		s.StealSignals += atomic.LoadInt64(&w.steals)
	}
	return s
}

// DoAll processes [a, b) in chunks of size ppt (rounded up to a multiple
// of alignment). The calling goroutine runs the range itself (matching
// original_source's doall, which begins by running synchronously before
// falling back to dequeue/steal), relinquishing pieces to its deque when
// peers record steal attempts, then keeps dequeuing and stealing until
// every split descendant of the range has completed.
//
// caller must be one of the pool's own worker indices (0..NumWorkers()-1)
// if called from inside a TaskFunc (nested doall); top-level callers
// should pass -1, in which case the calling goroutine acts as worker 0,
// sharing worker 0's deque and steal counter with that worker's own
// goroutine.
func (p *Pool) DoAll(header HeaderFunc, fn TaskFunc, args interface{}, a, b uint64, alignment, ppt uint64, caller int) {
	if a >= b || fn == nil {
		return
	}
	if alignment == 0 {
		alignment = 1
	}
	if ppt == 0 {
		ppt = 1
	}
	tmp := ppt + alignment - 1
	ppt = tmp - (tmp % alignment)
	if ppt == 0 {
		ppt = 1
	}

	done := new(int64)
	*done = 1
	t := task{header: header, fn: fn, args: args, a: a, b: b, alignment: alignment, ppt: ppt, done: done}

	runnerIdx := caller
	if runnerIdx < 0 || runnerIdx >= len(p.workers) {
		runnerIdx = 0
	}
	w := p.workers[runnerIdx]
	w.run(t)

	for atomic.LoadInt64(done) != 0 {
		if s, ok := w.dequeue(); ok {
			w.run(s)
			continue
		}
		if s, ok := w.steal(); ok {
			w.run(s)
			continue
		}
		runtime.Gosched()
	}
}

func (w *worker) loop() {
	for {
		select {
		case <-w.pool.closing:
			return
		default:
		}
		if t, ok := w.dequeue(); ok {
			w.run(t)
			continue
		}
		if t, ok := w.steal(); ok {
			w.run(t)
			continue
		}
		runtime.Gosched()
	}
}

// run executes t, relinquishing a trailing portion of its range to the
// deque whenever a peer has recorded a steal attempt against this worker
// (atomic_xchg(&steals, 0) in original_source), so idle peers get work
// without this worker having to coordinate with them directly.
func (w *worker) run(t task) {
	var hdr interface{}
	if t.header != nil {
		hdr = t.header(t.args, t.a, t.b)
		// Pieces split off below inherit the computed context rather than
		// running the header again.
		t.hdr = hdr
		t.header = nil
	} else {
		hdr = t.hdr
	}

	for t.a < t.b {
		s := atomic.SwapInt64(&w.steals, 0)
		if s > 0 && (t.b-t.a) > t.ppt {
			n := t
			if t.b-t.a > t.ppt*4 {
				half := w.split(t)
				n.a = half
				t.b = half
			} else {
				t.b = t.a + t.ppt
				n.a = t.a + t.ppt
			}
			if n.a < n.b {
				atomic.AddInt64(t.done, 1)
				w.pushFront(n)
			}
		}
		end := t.a + t.ppt
		if end > t.b {
			end = t.b
		}
		t.fn(t.args, hdr, t.a, end)
		t.a = end
	}
	atomic.AddInt64(t.done, -1)
}

func (w *worker) split(t task) uint64 {
	half := (t.a + t.b) / 2
	r := half + t.alignment/2
	half = r - (r % t.alignment)
	if half < t.a {
		half = t.a
	}
	if half > t.b {
		half = t.b
	}
	return half
}

func (w *worker) pushFront(t task) {
	w.mu.Lock()
	w.tasks = append([]task{t}, w.tasks...)
	w.mu.Unlock()
}

func (w *worker) dequeue() (task, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.tasks) == 0 {
		return task{}, false
	}
	t := w.tasks[0]
	w.tasks = w.tasks[1:]
	return t, true
}

// steal takes from the back of a peer's deque, per original_source's
// Thread::steal, and otherwise records a steal attempt against every
// empty peer so their next run() call relinquishes some work.
func (w *worker) steal() (task, bool) {
	for i, peer := range w.pool.workers {
		if i == w.index {
			continue
		}
		peer.mu.Lock()
		if len(peer.tasks) > 0 {
			t := peer.tasks[len(peer.tasks)-1]
			peer.tasks = peer.tasks[:len(peer.tasks)-1]
			peer.mu.Unlock()
			return t, true
		}
		atomic.AddInt64(&peer.steals, 1)
		peer.mu.Unlock()
	}
	return task{}, false
}
