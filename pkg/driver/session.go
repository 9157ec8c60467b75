// Package driver is the persistent interpreter session that sits above
// the execution core, the counterpart to
// _examples/nooga-paserati/pkg/driver/driver.go's Paserati struct: one
// long-lived *vm.VM plus the bookkeeping (foreign-handle registry, verbose
// and profile dump state) a CLI or REPL needs across many evaluations. It
// carries no parser or compiler — those are out of scope — so a Session is
// handed already-built *value.Prototype values rather than source text.
package driver

import (
	"fmt"
	"io"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"riposte/pkg/env"
	"riposte/pkg/errors"
	"riposte/pkg/value"
	"riposte/pkg/vm"
)

// Session wraps a *vm.VM, keeping it alive across repeated Eval calls so
// top-level bindings persist the way a Paserati session's globals do.
type Session struct {
	VM      *vm.VM
	Verbose bool

	handles map[string]*value.ExternalptrObj // keyed by HandleID, google/uuid-assigned
}

// Options configures a new Session, mirroring the CLI surface's -j/-v.
type Options struct {
	RegisterFileSize int
	Workers          int
	Verbose          bool
}

// New starts a Session with its own VM.
func New(opts Options) *Session {
	return &Session{
		VM:      vm.New(opts.RegisterFileSize, opts.Workers),
		Verbose: opts.Verbose,
		handles: make(map[string]*value.ExternalptrObj),
	}
}

// Close releases the underlying VM's task pool.
func (s *Session) Close() { s.VM.Close() }

// Eval runs proto to completion against the session's persistent global
// environment (or callerEnv, if non-nil) and reports elapsed diagnostics
// when Verbose is set.
func (s *Session) Eval(proto *value.Prototype, callerEnv *env.Environment) (value.Value, error) {
	v, err := s.VM.Interpret(proto, callerEnv)
	if s.Verbose {
		s.logStats(os.Stderr)
	}
	return v, err
}

// RegisterHandle installs a foreign pointer as an Externalptr, assigning it
// a fresh google/uuid so the profile dump can count live installed handles
// without risking collisions across GC cycles that might otherwise reuse a
// freed object's address as its identity.
func (s *Session) RegisterHandle(ptr interface{}, tag, prot value.Value) value.Value {
	id := uuid.New().String()
	v := value.NewExternalptr(ptr, tag, prot, id, s.VM.Heap)
	s.handles[id] = v.AsExternalptr()
	return v
}

// UnregisterHandle drops id from the registry (the Externalptr value
// itself, if still reachable, is unaffected — this only stops the profile
// dump from counting it).
func (s *Session) UnregisterHandle(id string) {
	delete(s.handles, id)
}

// logStats writes a one-line heap/pool summary to w, the verbose-mode
// counterpart to the teacher's debugPrintf in pkg/driver/driver.go, using
// go-humanize so byte and task counts stay readable at scale.
func (s *Session) logStats(w io.Writer) {
	hs := s.VM.Heap.Stats()
	ps := s.VM.Pool.Stats()
	approxBytes := uint64(hs.LiveObjects) * 64 // nominal 64-byte slot, per RegionCapacity's layout note
	fmt.Fprintf(w, "[riposte] live=%s (%s) regions=%d free=%d workers=%d handles=%d steal-signals=%s\n",
		humanize.Comma(int64(hs.LiveObjects)), humanize.Bytes(approxBytes),
		hs.LiveRegions, hs.FreeRegions, ps.Workers, len(s.handles),
		humanize.Comma(ps.StealSignals))
}

// Profile writes a fuller diagnostic dump to w under the given name (the
// CLI's -p <name> flag), for post-mortem inspection rather than per-eval
// tracing.
func (s *Session) Profile(w io.Writer, name string) {
	hs := s.VM.Heap.Stats()
	ps := s.VM.Pool.Stats()
	approxBytes := uint64(hs.LiveObjects) * 64
	fmt.Fprintf(w, "profile %q:\n", name)
	fmt.Fprintf(w, "  heap: %s objects live (%s), %d regions, %d free, %d oversize\n",
		humanize.Comma(int64(hs.LiveObjects)), humanize.Bytes(approxBytes),
		hs.LiveRegions, hs.FreeRegions, hs.OversizeRegions)
	fmt.Fprintf(w, "  pool: %d workers, %s pending steal signals\n",
		ps.Workers, humanize.Comma(ps.StealSignals))
	fmt.Fprintf(w, "  handles: %d installed\n", len(s.handles))
}

// Fatal reports an *errors.InternalError to stderr with its stack dump and
// aborts the process, spec.md §7's "internal errors ... fatal; abort after
// dumping the stack" — the one error kind a Session never tries to
// recover from.
func Fatal(ie *errors.InternalError) {
	errors.DumpAndAbort(ie)
}
