package vm

import (
	"fmt"

	"riposte/pkg/dispatch"
	"riposte/pkg/env"
	"riposte/pkg/errors"
	"riposte/pkg/frame"
	"riposte/pkg/intern"
	"riposte/pkg/match"
	"riposte/pkg/promise"
	"riposte/pkg/value"
)

// Run executes instructions in the frame on top of vm.Stack until it
// returns (OpReturn) or a call pushes and fully unwinds a deeper frame,
// producing that frame's final value. Grounded on the teacher's run()
// dispatch loop (_examples/nooga-paserati/pkg/vm/vm.go), generalized from
// the teacher's stack-machine bytecode to Riposte's OpCode set.
//
// Run is also the Runner callback package promise and package dispatch
// invoke to evaluate a promise's thunk or a generic's closure body — both
// packages accept any func(*frame.Stack) (value.Value, error) to avoid
// importing vm (which would cycle back to them).
func (vm *VM) Run() (value.Value, error) {
	baseDepth := vm.Stack.Depth()

	for {
		f := vm.Stack.Top()
		if f == nil {
			return value.NilValue(), &RuntimeError{Msg: "run: empty call stack"}
		}
		code := f.Code
		if int(f.ReturnPC) >= len(code.Code) {
			vm.Stack.Pop()
			if vm.Stack.Depth() < baseDepth {
				return value.NilValue(), nil
			}
			continue
		}
		inst := code.Code[f.ReturnPC]
		f.ReturnPC++

		switch inst.Op {
		case value.OpLoadConst:
			f.Registers[inst.A] = code.Constants[inst.B]

		case value.OpGetVar:
			name := constHandle(code, inst.B)
			v, _, ok := f.Env.GetRecursive(name)
			if !ok {
				return value.NilValue(), &errors.UserError{Class: errors.ClassUnboundVariable, Msg: fmt.Sprintf("object %q not found", name.String())}
			}
			f.Registers[inst.A] = v

		case value.OpSetVar:
			name := constHandle(code, inst.B)
			f.Env.InsertRecursive(name, f.Registers[inst.A])

		case value.OpForce:
			v := f.Registers[inst.A]
			if v.IsPromise() {
				forced, err := promise.Force(vm.Stack, vm.Heap, vm.runner(), f.Env, value.NilValue(), v.AsPromise())
				if err != nil {
					return value.NilValue(), err
				}
				f.Registers[inst.A] = forced
				if inst.B >= 0 {
					f.Env.Set(constHandle(code, inst.B), forced)
				}
			}

		case value.OpJump:
			f.ReturnPC = inst.A

		case value.OpJumpIfFalse:
			if isFalsy(f.Registers[inst.A]) {
				f.ReturnPC = inst.B
			}

		case value.OpCall:
			result, err := vm.call(f, inst)
			if err != nil {
				return value.NilValue(), err
			}
			f.Registers[inst.A] = result

		case value.OpReturn:
			result := f.Registers[inst.A]
			vm.Stack.Pop()
			if vm.Stack.Depth() < baseDepth {
				return result, nil
			}
			caller := vm.Stack.Top()
			caller.Registers[f.OutRegister] = result

		default:
			return value.NilValue(), &RuntimeError{Msg: fmt.Sprintf("unknown opcode %d", inst.Op)}
		}
	}
}

func constHandle(code *value.Prototype, idx int32) intern.Handle {
	c := code.Constants[idx]
	if c.IsCharacter() {
		return c.AsCharacterSlice()[0]
	}
	return intern.Empty
}

// isFalsy mirrors R's scalar-logical truthiness test: NA or FALSE are
// falsy, anything else (including a non-scalar, by taking its first
// element) is truthy.
func isFalsy(v value.Value) bool {
	if !v.IsLogical() {
		return false
	}
	bs := v.AsLogicalSlice()
	if len(bs) == 0 {
		return true
	}
	return bs[0] != 1
}

// call executes OpCall: inst.B names the register holding the closure to
// invoke, inst.C indexes code.Calls for the compiled call site, inst.A is
// the destination register for the result.
func (vm *VM) call(f *frame.Frame, inst value.Instruction) (value.Value, error) {
	callee := f.Registers[inst.B]
	if !callee.IsClosure() {
		return value.NilValue(), &errors.UserError{Class: errors.ClassNotAFunction, Msg: fmt.Sprintf("attempt to apply non-function (%s)", callee.Tag())}
	}
	cc := &f.Code.Calls[inst.C]

	named := false
	for _, n := range cc.Names {
		if n != intern.Empty {
			named = true
			break
		}
	}

	closure := callee.AsClosure()
	var fenv *env.Environment
	var err error
	if named {
		fenv, err = match.MatchArgs(vm.Heap, f.Env, callee, cc)
	} else {
		fenv, err = match.FastMatchArgs(vm.Heap, f.Env, callee, cc)
	}
	if err != nil {
		return value.NilValue(), err
	}

	if _, err := vm.Stack.Push(fenv, closure.Proto, inst.A, 0); err != nil {
		return value.NilValue(), err
	}

	return vm.Run()
}

// Unary/Binary/Ternary hand an operator and its operands straight to
// dispatch.Unary/Binary/Ternary (user-defined generics bound in env); the
// VM implements no native operator primitives of its own. Exposed so tests
// and a future arithmetic library can drive generic dispatch without a
// full bytecode program.
func (vm *VM) Unary(env *env.Environment, op intern.Handle, a value.Value) (value.Value, error) {
	return dispatch.Unary(vm.Heap, vm.Stack, vm.runner(), env, op, a)
}

func (vm *VM) Binary(env *env.Environment, op intern.Handle, a, b value.Value) (value.Value, error) {
	return dispatch.Binary(vm.Heap, vm.Stack, vm.runner(), env, op, a, b)
}

func (vm *VM) Ternary(env *env.Environment, op intern.Handle, a, b, c value.Value) (value.Value, error) {
	return dispatch.Ternary(vm.Heap, vm.Stack, vm.runner(), env, op, a, b, c)
}

// runner adapts vm.Run (which always operates on vm.Stack) to the
// func(*frame.Stack) (value.Value, error) shape package promise and
// package dispatch expect, so they never need to import vm.
func (vm *VM) runner() func(s *frame.Stack) (value.Value, error) {
	return func(s *frame.Stack) (value.Value, error) { return vm.Run() }
}
