// Package promise implements lazy-promise forcing (C6, spec.md §4.6),
// grounded on original_source/src/call.cpp's force(): push a stack frame
// for the promise's thunk, seed its first registers with the calling
// environment and the target binding, run to completion, then never do it
// again.
package promise

import (
	"fmt"

	"riposte/pkg/env"
	"riposte/pkg/frame"
	"riposte/pkg/heap"
	"riposte/pkg/value"
)

// Runner executes the frame currently on top of s until it returns,
// producing the value that frame's code evaluated to. Package vm supplies
// the concrete bytecode loop; keeping it as a parameter here (rather than
// an import) avoids a vm<->promise import cycle, since vm itself calls
// Force whenever it hits an OpForce instruction.
type Runner func(s *frame.Stack) (value.Value, error)

// ForceError wraps a failure encountered while evaluating a promise's
// thunk, so callers can tell "the promise's body errored" apart from a
// malformed promise.
type ForceError struct {
	Cause error
}

func (e *ForceError) Error() string { return fmt.Sprintf("error forcing promise: %v", e.Cause) }
func (e *ForceError) Unwrap() error { return e.Cause }

// Force evaluates p exactly once, caching and returning the result on every
// subsequent call. targetEnv/targetIndex identify where the promise was
// bound, mirroring original_source's force() seeding REGISTER(0)/REGISTER(1)
// with the binding site so a self-referencing promise body can see its own
// not-yet-overwritten slot.
func Force(s *frame.Stack, h *heap.Heap, run Runner, targetEnv *env.Environment, targetName value.Value, p *value.PromiseObj) (value.Value, error) {
	if p.Forced {
		return p.Result, nil
	}

	var result value.Value
	var err error
	if p.IsDotdot {
		result, err = forceDotdot(s, h, run, p)
	} else {
		result, err = forceExpression(s, h, run, targetEnv, targetName, p)
	}
	if err != nil {
		return value.NilValue(), err
	}

	p.Forced = true
	p.Result = result
	return result, nil
}

func forceExpression(s *frame.Stack, h *heap.Heap, run Runner, targetEnv *env.Environment, targetName value.Value, p *value.PromiseObj) (value.Value, error) {
	thunkEnv, ok := p.Env.(*env.Environment)
	if !ok {
		return value.NilValue(), fmt.Errorf("promise environment is not an *env.Environment")
	}

	f, err := s.Push(thunkEnv, p.Code, 0, 0)
	if err != nil {
		return value.NilValue(), &ForceError{Cause: err}
	}
	f.IsPromise = true
	if len(f.Registers) > 0 {
		f.Registers[0] = env.AsValue(targetEnv)
	}
	if len(f.Registers) > 1 {
		f.Registers[1] = targetName
	}

	result, err := run(s)
	if err != nil {
		return value.NilValue(), &ForceError{Cause: err}
	}
	return result, nil
}

// forceDotdot resolves a "..." forwarding promise by reaching into the
// captured dots list on its owning environment's Context and indexing
// dotIndex, forcing recursively if that element is itself a promise —
// original_source/src/call.cpp's assignDot/argument() forward dotdot
// promises the same way rather than re-running any bytecode for them.
func forceDotdot(s *frame.Stack, h *heap.Heap, run Runner, p *value.PromiseObj) (value.Value, error) {
	owner, ok := p.Env.(*env.Environment)
	if !ok {
		return value.NilValue(), fmt.Errorf("dotdot promise environment is not an *env.Environment")
	}
	if owner.Ctx == nil {
		return value.NilValue(), fmt.Errorf("dotdot promise's environment has no captured dots")
	}
	items := owner.Ctx.Dots.AsListSlice()
	if int(p.DotIndex) < 0 || int(p.DotIndex) >= len(items) {
		return value.NilValue(), fmt.Errorf("dotdot promise index %d out of bounds (%d captured)", p.DotIndex, len(items))
	}
	elem := items[p.DotIndex]
	if !elem.IsPromise() {
		return elem, nil
	}
	return Force(s, h, run, owner, value.NewInteger(p.DotIndex), elem.AsPromise())
}
