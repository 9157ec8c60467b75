// Package vm is the top-level driver (C10) tying the bytecode loop to the
// register file (pkg/frame), the environment/GC (pkg/env, pkg/heap), and
// the argument-matching, promise-forcing and generic-dispatch machinery
// (pkg/match, pkg/promise, pkg/dispatch) into one execution core. Grounded
// on the teacher's _examples/nooga-paserati/pkg/vm/vm.go (register-stack
// VM shape, run-to-completion loop) and on
// _examples/nooga-paserati/pkg/driver/driver.go's persistent session
// wrapper, adapted to Riposte's value/environment model. No parser or
// compiler is implemented (explicitly out of scope); callers hand the VM
// an already-built *value.Prototype.
package vm

import (
	"riposte/pkg/env"
	"riposte/pkg/frame"
	"riposte/pkg/heap"
	"riposte/pkg/taskpool"
	"riposte/pkg/value"
)

// DefaultHeapThreshold is the live-object count at which a fresh VM first
// considers collecting, mirroring original_source/src/gc.cpp's
// makeRegions(256) initial batch.
const DefaultHeapThreshold = 1 << 16

// VM owns one thread's execution state: its register stack, the shared
// heap, and the shared task pool used by parallel vector builtins
// (spec.md §5). Multiple VMs (one per worker thread, spec.md's
// "per-thread register file") can share a single *heap.Heap and
// *taskpool.Pool.
type VM struct {
	Heap  *heap.Heap
	Stack *frame.Stack
	Pool  *taskpool.Pool

	Global *env.Environment
}

// New creates a VM with its own register stack and a fresh heap/pool,
// rooted at a global environment. registerFileSize<=0 uses
// frame.DefaultRegisterFileSize; workers<=0 uses runtime.NumCPU() (see
// taskpool.New).
func New(registerFileSize int, workers int) *VM {
	h := heap.New(DefaultHeapThreshold)
	g := env.New(nil, 64, h)
	vm := &VM{
		Heap:   h,
		Stack:  frame.NewStack(registerFileSize),
		Pool:   taskpool.New(workers),
		Global: g,
	}
	h.AddRoot(func(visit func(heap.HeapObject)) {
		visit(vm.Global)
		vm.Stack.VisitRoots(visit)
	})
	return vm
}

// Close releases the VM's task pool. The heap and register stack need no
// explicit teardown.
func (vm *VM) Close() { vm.Pool.Close() }

// RuntimeError reports a condition the bytecode loop itself should never
// reach (an empty call stack, an opcode value outside value.OpCode's
// range) — spec.md's "internal errors ... shouldn't get here" category.
// It satisfies errors.RiposteError as an Internal kind. Caller-caused
// failures the loop can identify precisely (an unbound variable, a call
// on a non-function) use errors.UserError instead, not RuntimeError.
type RuntimeError struct {
	Msg string
}

func (e *RuntimeError) Error() string   { return e.Msg }
func (e *RuntimeError) Kind() string    { return "Internal" }
func (e *RuntimeError) Message() string { return e.Msg }
func (e *RuntimeError) Unwrap() error   { return nil }

// Interpret runs proto to completion directly in the VM's Global
// environment (or in the supplied callerEnv, if non-nil — used by tests
// that want to run a Prototype directly against a specific scope), so its
// top-level bindings land in that environment, and returns its final
// value. This is the entry point spec.md §6 names.
func (vm *VM) Interpret(proto *value.Prototype, callerEnv *env.Environment) (value.Value, error) {
	target := callerEnv
	if target == nil {
		target = vm.Global
	}
	if _, err := vm.Stack.Push(target, proto, 0, 0); err != nil {
		return value.NilValue(), err
	}
	return vm.Run()
}

