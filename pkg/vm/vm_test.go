package vm

import (
	"testing"

	"riposte/pkg/env"
	"riposte/pkg/intern"
	"riposte/pkg/value"
)

func TestInterpretLoadConstAndReturn(t *testing.T) {
	m := New(256, 1)
	defer m.Close()

	proto := &value.Prototype{
		NumRegisters: 2,
		Constants:    []value.Value{value.NewInteger(42)},
		Code: []value.Instruction{
			{Op: value.OpLoadConst, A: 0, B: 0},
			{Op: value.OpReturn, A: 0},
		},
	}

	v, err := m.Interpret(proto, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.AsIntegerSlice()[0] != 42 {
		t.Fatalf("expected 42, got %v", v)
	}
}

func TestInterpretSetAndGetVar(t *testing.T) {
	m := New(256, 1)
	defer m.Close()

	xHandle := intern.Intern("x")
	proto := &value.Prototype{
		NumRegisters: 2,
		Constants: []value.Value{
			value.NewInteger(7),
			value.NewCharacter(xHandle),
		},
		Code: []value.Instruction{
			{Op: value.OpLoadConst, A: 0, B: 0},
			{Op: value.OpSetVar, A: 0, B: 1},
			{Op: value.OpGetVar, A: 1, B: 1},
			{Op: value.OpReturn, A: 1},
		},
	}

	v, err := m.Interpret(proto, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.AsIntegerSlice()[0] != 7 {
		t.Fatalf("expected 7, got %v", v)
	}
}

func TestInterpretGetVarMissingErrors(t *testing.T) {
	m := New(256, 1)
	defer m.Close()

	proto := &value.Prototype{
		NumRegisters: 1,
		Constants:    []value.Value{value.NewCharacter(intern.Intern("nonexistent"))},
		Code: []value.Instruction{
			{Op: value.OpGetVar, A: 0, B: 0},
			{Op: value.OpReturn, A: 0},
		},
	}

	if _, err := m.Interpret(proto, nil); err == nil {
		t.Fatalf("expected an error for an unbound variable lookup")
	}
}

func TestInterpretJumpIfFalseSkipsBranch(t *testing.T) {
	m := New(256, 1)
	defer m.Close()

	proto := &value.Prototype{
		NumRegisters: 2,
		Constants: []value.Value{
			value.NewLogical(0),
			value.NewInteger(1),
			value.NewInteger(2),
		},
		Code: []value.Instruction{
			{Op: value.OpLoadConst, A: 0, B: 0}, // cond = FALSE
			{Op: value.OpJumpIfFalse, A: 0, B: 4},
			{Op: value.OpLoadConst, A: 1, B: 1}, // skipped
			{Op: value.OpJump, A: 5},
			{Op: value.OpLoadConst, A: 1, B: 2}, // taken
			{Op: value.OpReturn, A: 1},
		},
	}

	v, err := m.Interpret(proto, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.AsIntegerSlice()[0] != 2 {
		t.Fatalf("expected branch target value 2, got %v", v)
	}
}

func TestInterpretForceResolvesPromiseAndRebindsVariable(t *testing.T) {
	m := New(256, 1)
	defer m.Close()

	thunkEnv := env.New(m.Global, 4, m.Heap)
	thunkProto := &value.Prototype{
		NumRegisters: 2,
		Constants:    []value.Value{value.NewInteger(123)},
		Code: []value.Instruction{
			{Op: value.OpLoadConst, A: 0, B: 0},
			{Op: value.OpReturn, A: 0},
		},
	}
	p := value.NewExpressionPromise(thunkProto, thunkEnv, m.Heap)

	yHandle := intern.Intern("y")
	callerEnv := env.New(m.Global, 4, m.Heap)
	callerEnv.Set(yHandle, p)

	proto := &value.Prototype{
		NumRegisters: 2,
		Constants:    []value.Value{value.NewCharacter(yHandle)},
		Code: []value.Instruction{
			{Op: value.OpGetVar, A: 0, B: 0},
			{Op: value.OpForce, A: 0, B: 0},
			{Op: value.OpReturn, A: 0},
		},
	}

	v, err := m.Interpret(proto, callerEnv)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.AsIntegerSlice()[0] != 123 {
		t.Fatalf("expected forced value 123, got %v", v)
	}
	rebound, ok := callerEnv.Get(yHandle)
	if !ok || rebound.AsIntegerSlice()[0] != 123 {
		t.Fatalf("expected y rebound to forced value in callerEnv, got %v, %v", rebound, ok)
	}
	if !p.AsPromise().Forced {
		t.Fatalf("expected promise to be marked Forced")
	}
}

func TestInterpretCallInvokesClosureAndMatchesArgs(t *testing.T) {
	m := New(256, 1)
	defer m.Close()

	calleeProto := &value.Prototype{
		Parameters:   []intern.Handle{intern.Intern("n")},
		Defaults:     []value.Value{value.NilValue()},
		DotIndex:     1,
		NumRegisters: 2,
		Code: []value.Instruction{
			{Op: value.OpGetVar, A: 0, B: 0},
			{Op: value.OpReturn, A: 0},
		},
		Constants: []value.Value{value.NewCharacter(intern.Intern("n"))},
	}
	closure := value.NewClosure(calleeProto, m.Global, m.Heap)

	fHandle := intern.Intern("f")
	m.Global.Set(fHandle, closure)

	callerProto := &value.Prototype{
		NumRegisters: 3,
		Constants: []value.Value{
			value.NewCharacter(fHandle),
			value.NewInteger(5),
		},
		Calls: []value.CompiledCall{
			{Arguments: []value.Value{value.NewInteger(5)}, Names: []intern.Handle{intern.Empty}, DotIndex: 1},
		},
		Code: []value.Instruction{
			{Op: value.OpGetVar, A: 0, B: 0},
			{Op: value.OpCall, A: 1, B: 0, C: 0},
			{Op: value.OpReturn, A: 1},
		},
	}

	v, err := m.Interpret(callerProto, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.AsIntegerSlice()[0] != 5 {
		t.Fatalf("expected call result 5, got %v", v)
	}
}

func TestInterpretCallOnNonClosureErrors(t *testing.T) {
	m := New(256, 1)
	defer m.Close()

	proto := &value.Prototype{
		NumRegisters: 2,
		Constants:    []value.Value{value.NewInteger(1)},
		Calls:        []value.CompiledCall{{Arguments: nil, Names: nil, DotIndex: 0}},
		Code: []value.Instruction{
			{Op: value.OpLoadConst, A: 0, B: 0},
			{Op: value.OpCall, A: 1, B: 0, C: 0},
			{Op: value.OpReturn, A: 1},
		},
	}

	if _, err := m.Interpret(proto, nil); err == nil {
		t.Fatalf("expected error calling a non-closure value")
	}
}
