// Package dispatch implements generic operator dispatch (C8, spec.md §4.8):
// when a builtin arithmetic/comparison op can't handle its operands'
// types directly, it looks up a same-named closure in the lexical scope
// and calls it instead. Grounded on original_source/src/call.cpp's three
// GenericDispatch overloads, StopDispatch, the Environment/Closure
// equality specializations, and IfElseDispatch.
package dispatch

import (
	"fmt"

	"riposte/pkg/env"
	"riposte/pkg/errors"
	"riposte/pkg/frame"
	"riposte/pkg/heap"
	"riposte/pkg/intern"
	"riposte/pkg/match"
	"riposte/pkg/value"
)

// Runner executes the frame currently on top of s until it returns,
// producing the value that frame's code evaluated to. Supplied by package
// vm to avoid a vm<->dispatch import cycle, the same arrangement package
// promise uses for Force.
type Runner func(s *frame.Stack) (value.Value, error)

func noGeneric(msg string) error {
	return &errors.UserError{Class: errors.ClassUnknownGeneric, Msg: msg}
}

func lookupGeneric(callerEnv *env.Environment, op intern.Handle) (value.Value, bool) {
	f, _, ok := callerEnv.GetRecursive(op)
	if !ok || !f.IsClosure() {
		return value.NilValue(), false
	}
	return f, true
}

func callGeneric(h *heap.Heap, s *frame.Stack, run Runner, callerEnv *env.Environment, f value.Value, args []value.Value, names []intern.Handle) (value.Value, error) {
	dotIndex := int32(len(args))
	call := &value.CompiledCall{Arguments: args, Names: names, DotIndex: dotIndex}

	var fenv *env.Environment
	var err error
	if names == nil {
		fenv, err = match.FastMatchArgs(h, callerEnv, f, call)
	} else {
		fenv, err = match.MatchArgs(h, callerEnv, f, call)
	}
	if err != nil {
		return value.NilValue(), err
	}

	fr, err := s.Push(fenv, f.AsClosure().Proto, 0, 0)
	if err != nil {
		return value.NilValue(), err
	}
	_ = fr
	return run(s)
}

// Unary dispatches op(a) to a user-defined generic, for builtins that
// don't recognize a's type.
func Unary(h *heap.Heap, s *frame.Stack, run Runner, callerEnv *env.Environment, op intern.Handle, a value.Value) (value.Value, error) {
	f, ok := lookupGeneric(callerEnv, op)
	if !ok {
		return value.NilValue(), noGeneric(fmt.Sprintf("failed to find generic for builtin op: %s type: %s", op.String(), a.Tag()))
	}
	return callGeneric(h, s, run, callerEnv, f, []value.Value{a}, nil)
}

// Binary dispatches op(a, b) to a user-defined generic.
func Binary(h *heap.Heap, s *frame.Stack, run Runner, callerEnv *env.Environment, op intern.Handle, a, b value.Value) (value.Value, error) {
	f, ok := lookupGeneric(callerEnv, op)
	if !ok {
		return value.NilValue(), noGeneric(fmt.Sprintf("failed to find generic for builtin op: %s type: %s %s", op.String(), a.Tag(), b.Tag()))
	}
	return callGeneric(h, s, run, callerEnv, f, []value.Value{a, b}, nil)
}

// Ternary dispatches op(a, b, cond) to a user-defined generic — the
// ifelse(test, yes, no) shape — naming the third argument "value" the way
// original_source's three-argument GenericDispatch does, so a generic that
// only cares about the condition can match it by name.
func Ternary(h *heap.Heap, s *frame.Stack, run Runner, callerEnv *env.Environment, op intern.Handle, a, b, c value.Value) (value.Value, error) {
	f, ok := lookupGeneric(callerEnv, op)
	if !ok {
		return value.NilValue(), noGeneric(fmt.Sprintf("failed to find generic for builtin op: %s", op.String()))
	}
	names := []intern.Handle{intern.Empty, intern.Empty, intern.ValueName}
	return callGeneric(h, s, run, callerEnv, f, []value.Value{a, b, c}, names)
}

// Stop dispatches to the __stop__ handler bound in scope, the hook a
// Riposte script installs to intercept fatal errors (spec.md §4.8).
// Returns (value, false, nil) if no handler is installed, so the caller
// can fall back to its default fatal-error behavior.
func Stop(h *heap.Heap, s *frame.Stack, run Runner, callerEnv *env.Environment, msg value.Value) (value.Value, bool, error) {
	f, ok := lookupGeneric(callerEnv, intern.Stop)
	if !ok {
		return value.NilValue(), false, nil
	}
	v, err := callGeneric(h, s, run, callerEnv, f, []value.Value{msg}, nil)
	return v, true, err
}

// EnvironmentEqual implements original_source's EnvironmentBinaryDispatch
// eq specialization: two Environment values are equal iff they're the
// identical environment object.
func EnvironmentEqual(a, b *env.Environment) bool { return a == b }

// EnvironmentNotEqual is EnvironmentEqual's negation.
func EnvironmentNotEqual(a, b *env.Environment) bool { return a != b }

// ClosureEqual implements original_source's ClosureBinaryDispatch eq
// specialization: identity of both the prototype and the captured
// environment.
func ClosureEqual(a, b *value.ClosureObj) bool { return a.Equal(b) }

// ClosureNotEqual is ClosureEqual's negation.
func ClosureNotEqual(a, b *value.ClosureObj) bool { return !a.Equal(b) }

// IfElse implements vectorized ifelse(cond, a, b): elementwise selection
// between a's and b's corresponding element according to cond, recycling
// the shorter vector the way R's vector recycling rules do. Grounded on
// original_source's IfElseDispatch, generalized from its per-type
// Zip3<IfElseVOp<T>> specializations into one Go switch over the common
// numeric/character lattice.
func IfElse(h *heap.Heap, a, b, cond value.Value) (value.Value, error) {
	if !a.IsVector() || !b.IsVector() {
		return value.NilValue(), &errors.UserError{Class: errors.ClassNonZippable, Msg: "non-zippable argument to ifelse operator"}
	}
	n := maxLen(a.Length(), b.Length(), cond.Length())
	condBytes := cond.AsLogicalSlice()

	switch {
	case a.IsCharacter() || b.IsCharacter():
		as, bs := a.AsCharacterSlice(), b.AsCharacterSlice()
		out := make([]intern.Handle, n)
		for i := int32(0); i < n; i++ {
			out[i] = pickHandle(condBytes, as, bs, i)
		}
		return value.NewCharacterVector(out, h), nil
	case a.IsDouble() || b.IsDouble():
		as, bs := asDoubleLattice(a), asDoubleLattice(b)
		out := make([]float64, n)
		for i := int32(0); i < n; i++ {
			out[i] = pickFloat(condBytes, as, bs, i)
		}
		return value.NewDoubleVector(out, h), nil
	case a.IsInteger() || b.IsInteger():
		as, bs := a.AsIntegerSlice(), b.AsIntegerSlice()
		out := make([]int32, n)
		for i := int32(0); i < n; i++ {
			out[i] = pickInt32(condBytes, as, bs, i)
		}
		return value.NewIntegerVector(out, h), nil
	case a.IsLogical() || b.IsLogical():
		as, bs := a.AsLogicalSlice(), b.AsLogicalSlice()
		out := make([]byte, n)
		for i := int32(0); i < n; i++ {
			out[i] = pickByte(condBytes, as, bs, i)
		}
		return value.NewLogicalVector(out, h), nil
	case a.IsNull() || b.IsNull() || cond.IsNull():
		return value.NullValue(), nil
	default:
		return value.NilValue(), &errors.UserError{Class: errors.ClassNonZippable, Msg: "non-zippable argument to ifelse operator"}
	}
}

func maxLen(xs ...int32) int32 {
	m := int32(0)
	for _, x := range xs {
		if x > m {
			m = x
		}
	}
	return m
}

func asDoubleLattice(v value.Value) []float64 {
	if v.IsDouble() {
		return v.AsDoubleSlice()
	}
	ints := v.AsIntegerSlice()
	out := make([]float64, len(ints))
	for i, x := range ints {
		out[i] = float64(x)
	}
	return out
}

func pickByte(cond []byte, as, bs []byte, i int32) byte {
	if len(cond) == 0 {
		return value.NAByte
	}
	c := cond[int(i)%len(cond)]
	if c == 1 {
		return as[int(i)%len(as)]
	}
	if c == 0 {
		return bs[int(i)%len(bs)]
	}
	return value.NAByte
}

func pickInt32(cond []byte, as, bs []int32, i int32) int32 {
	if len(cond) == 0 || len(as) == 0 || len(bs) == 0 {
		return 0
	}
	c := cond[int(i)%len(cond)]
	if c == 1 {
		return as[int(i)%len(as)]
	}
	return bs[int(i)%len(bs)]
}

func pickFloat(cond []byte, as, bs []float64, i int32) float64 {
	if len(cond) == 0 || len(as) == 0 || len(bs) == 0 {
		return 0
	}
	c := cond[int(i)%len(cond)]
	if c == 1 {
		return as[int(i)%len(as)]
	}
	return bs[int(i)%len(bs)]
}

func pickHandle(cond []byte, as, bs []intern.Handle, i int32) intern.Handle {
	if len(cond) == 0 || len(as) == 0 || len(bs) == 0 {
		return intern.NA
	}
	c := cond[int(i)%len(cond)]
	if c == 1 {
		return as[int(i)%len(as)]
	}
	return bs[int(i)%len(bs)]
}
