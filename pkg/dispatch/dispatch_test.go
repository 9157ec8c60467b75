package dispatch

import (
	"testing"

	"riposte/pkg/env"
	"riposte/pkg/frame"
	"riposte/pkg/heap"
	"riposte/pkg/intern"
	"riposte/pkg/value"
)

func TestUnaryDispatchErrorsWithoutGeneric(t *testing.T) {
	h := heap.New(1 << 20)
	s := frame.NewStack(256)
	callerEnv := env.New(nil, 4, h)
	run := func(*frame.Stack) (value.Value, error) { return value.NilValue(), nil }

	_, err := Unary(h, s, run, callerEnv, intern.Intern("+"), value.NewInteger(1))
	if err == nil {
		t.Fatalf("expected dispatch error when no generic is bound")
	}
}

func TestBinaryDispatchInvokesBoundClosure(t *testing.T) {
	h := heap.New(1 << 20)
	s := frame.NewStack(256)
	callerEnv := env.New(nil, 4, h)

	proto := &value.Prototype{
		Parameters:   []intern.Handle{intern.Intern("a"), intern.Intern("b")},
		Defaults:     []value.Value{value.NilValue(), value.NilValue()},
		DotIndex:     2,
		NumRegisters: 4,
		Name:         "plus",
	}
	closure := value.NewClosure(proto, callerEnv, h)
	callerEnv.Set(intern.Intern("+"), closure)

	var capturedA, capturedB value.Value
	run := func(st *frame.Stack) (value.Value, error) {
		top := st.Top()
		capturedA, _ = top.Env.Get(intern.Intern("a"))
		capturedB, _ = top.Env.Get(intern.Intern("b"))
		st.Pop()
		return value.NewInteger(99), nil
	}

	v, err := Binary(h, s, run, callerEnv, intern.Intern("+"), value.NewInteger(3), value.NewInteger(4))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.AsIntegerSlice()[0] != 99 {
		t.Fatalf("expected generic's return value 99, got %v", v)
	}
	if capturedA.AsIntegerSlice()[0] != 3 || capturedB.AsIntegerSlice()[0] != 4 {
		t.Fatalf("expected a=3 b=4 bound in the generic's frame, got a=%v b=%v", capturedA, capturedB)
	}
}

func TestStopDispatchReportsNoHandler(t *testing.T) {
	h := heap.New(1 << 20)
	s := frame.NewStack(256)
	callerEnv := env.New(nil, 4, h)
	run := func(*frame.Stack) (value.Value, error) { return value.NilValue(), nil }

	_, handled, err := Stop(h, s, run, callerEnv, value.NewCharacter(intern.Intern("boom")))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if handled {
		t.Fatalf("expected handled=false when no __stop__ is bound")
	}
}

func TestEnvironmentAndClosureEquality(t *testing.T) {
	h := heap.New(1 << 20)
	e1 := env.New(nil, 4, h)
	e2 := env.New(nil, 4, h)

	if !EnvironmentEqual(e1, e1) {
		t.Fatalf("expected an environment to equal itself")
	}
	if EnvironmentEqual(e1, e2) {
		t.Fatalf("expected distinct environments to be unequal")
	}
	if !EnvironmentNotEqual(e1, e2) {
		t.Fatalf("expected EnvironmentNotEqual to hold for distinct environments")
	}

	proto := &value.Prototype{NumRegisters: 1}
	c1 := value.NewClosure(proto, e1, h).AsClosure()
	c2 := value.NewClosure(proto, e1, h).AsClosure()
	c3 := value.NewClosure(proto, e2, h).AsClosure()

	if !ClosureEqual(c1, c2) {
		t.Fatalf("expected closures sharing proto+env to be equal")
	}
	if ClosureEqual(c1, c3) {
		t.Fatalf("expected closures with different envs to be unequal")
	}
}

func TestIfElseSelectsElementwise(t *testing.T) {
	h := heap.New(1 << 20)
	cond := value.NewLogicalVector([]byte{1, 0, 1}, h)
	a := value.NewIntegerVector([]int32{10, 20, 30}, h)
	b := value.NewIntegerVector([]int32{-1, -2, -3}, h)

	v, err := IfElse(h, a, b, cond)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := v.AsIntegerSlice()
	want := []int32{10, -2, 30}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("index %d: got %d want %d", i, got[i], want[i])
		}
	}
}

func TestIfElseRecyclesShorterOperand(t *testing.T) {
	h := heap.New(1 << 20)
	cond := value.NewLogicalVector([]byte{1, 0, 1, 0}, h)
	a := value.NewInteger(7)
	b := value.NewInteger(-7)

	v, err := IfElse(h, a, b, cond)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := v.AsIntegerSlice()
	want := []int32{7, -7, 7, -7}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("index %d: got %d want %d", i, got[i], want[i])
		}
	}
}

func TestIfElseRejectsNonVectorArguments(t *testing.T) {
	h := heap.New(1 << 20)
	cond := value.NewLogicalVector([]byte{1}, h)
	closureVal := value.NewClosure(&value.Prototype{NumRegisters: 1}, env.New(nil, 2, h), h)

	if _, err := IfElse(h, closureVal, value.NewInteger(1), cond); err == nil {
		t.Fatalf("expected error for non-vector argument")
	}
}
