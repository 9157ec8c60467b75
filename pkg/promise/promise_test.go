package promise

import (
	"errors"
	"testing"

	"riposte/pkg/env"
	"riposte/pkg/frame"
	"riposte/pkg/heap"
	"riposte/pkg/value"
)

func TestForceExpressionPromiseRunsOnceAndCaches(t *testing.T) {
	h := heap.New(1 << 20)
	s := frame.NewStack(256)
	thunkEnv := env.New(nil, 4, h)
	targetEnv := env.New(nil, 4, h)

	proto := &value.Prototype{NumRegisters: 4}
	p := value.NewExpressionPromise(proto, thunkEnv, h).AsPromise()

	runs := 0
	run := func(st *frame.Stack) (value.Value, error) {
		runs++
		st.Pop()
		return value.NewInteger(42), nil
	}

	v, err := Force(s, h, run, targetEnv, value.NewCharacter(0), p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.AsIntegerSlice()[0] != 42 {
		t.Fatalf("expected 42, got %v", v)
	}
	if runs != 1 {
		t.Fatalf("expected exactly one run, got %d", runs)
	}

	// Forcing again must not re-run the thunk.
	v2, err := Force(s, h, run, targetEnv, value.NewCharacter(0), p)
	if err != nil {
		t.Fatalf("unexpected error on re-force: %v", err)
	}
	if v2.AsIntegerSlice()[0] != 42 {
		t.Fatalf("expected cached 42, got %v", v2)
	}
	if runs != 1 {
		t.Fatalf("expected run count to stay at 1 after re-force, got %d", runs)
	}
	if !p.Forced {
		t.Fatalf("expected Forced to be true")
	}
}

func TestForceExpressionPromiseSeedsTargetRegisters(t *testing.T) {
	h := heap.New(1 << 20)
	s := frame.NewStack(256)
	thunkEnv := env.New(nil, 4, h)
	targetEnv := env.New(nil, 4, h)

	proto := &value.Prototype{NumRegisters: 4}
	p := value.NewExpressionPromise(proto, thunkEnv, h).AsPromise()

	var seenReg0, seenReg1 value.Value
	run := func(st *frame.Stack) (value.Value, error) {
		top := st.Top()
		seenReg0 = top.Registers[0]
		seenReg1 = top.Registers[1]
		if !top.IsPromise {
			t.Fatalf("expected frame to be marked IsPromise")
		}
		st.Pop()
		return value.NilValue(), nil
	}

	if _, err := Force(s, h, run, targetEnv, value.NewInteger(7), p); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if env.FromValue(seenReg0) != targetEnv {
		t.Fatalf("register 0 should carry the target environment")
	}
	if seenReg1.AsIntegerSlice()[0] != 7 {
		t.Fatalf("register 1 should carry the target index, got %v", seenReg1)
	}
}

func TestForceDotdotReturnsCapturedElement(t *testing.T) {
	h := heap.New(1 << 20)
	s := frame.NewStack(256)
	owner := env.New(nil, 4, h)
	owner.Ctx = &env.Context{
		Dots: value.NewList([]value.Value{value.NewInteger(10), value.NewInteger(20)}, h),
	}

	p := value.NewDotdotPromise(1, owner, h).AsPromise()
	run := func(st *frame.Stack) (value.Value, error) { return value.NilValue(), nil }

	v, err := Force(s, h, run, owner, value.NilValue(), p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.AsIntegerSlice()[0] != 20 {
		t.Fatalf("expected captured element 20, got %v", v)
	}
}

func TestForceDotdotOutOfBoundsErrors(t *testing.T) {
	h := heap.New(1 << 20)
	s := frame.NewStack(256)
	owner := env.New(nil, 4, h)
	owner.Ctx = &env.Context{
		Dots: value.NewList([]value.Value{value.NewInteger(10)}, h),
	}

	p := value.NewDotdotPromise(5, owner, h).AsPromise()
	run := func(st *frame.Stack) (value.Value, error) { return value.NilValue(), nil }

	if _, err := Force(s, h, run, owner, value.NilValue(), p); err == nil {
		t.Fatalf("expected out-of-bounds error")
	}
}

func TestForceExpressionPropagatesRunError(t *testing.T) {
	h := heap.New(1 << 20)
	s := frame.NewStack(256)
	thunkEnv := env.New(nil, 4, h)
	targetEnv := env.New(nil, 4, h)

	proto := &value.Prototype{NumRegisters: 4}
	p := value.NewExpressionPromise(proto, thunkEnv, h).AsPromise()

	wantErr := errors.New("boom")
	run := func(st *frame.Stack) (value.Value, error) { return value.NilValue(), wantErr }

	_, err := Force(s, h, run, targetEnv, value.NilValue(), p)
	if err == nil {
		t.Fatalf("expected error to propagate")
	}
	var fe *ForceError
	if !errors.As(err, &fe) {
		t.Fatalf("expected *ForceError wrapper, got %T", err)
	}
	if p.Forced {
		t.Fatalf("promise must not be marked Forced when its thunk errored")
	}
}
