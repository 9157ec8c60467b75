// Package match implements the three-phase argument-matching protocol
// (C7, spec.md §4.7): exact name, then partial-prefix, then positional,
// with a fast path for calls that use neither names nor "...". Grounded
// directly on original_source/src/call.cpp's argument()/name()/
// numArguments()/namedArguments()/MatchArgs()/FastMatchArgs().
package match

import (
	"fmt"

	"riposte/pkg/env"
	"riposte/pkg/errors"
	"riposte/pkg/heap"
	"riposte/pkg/intern"
	"riposte/pkg/value"
)

// maxArguments bounds the generic-matching scratch arrays, mirroring
// original_source's fixed-size state.assignment/state.set and its
// "Too many arguments for fixed size assignment arrays" error.
const maxArguments = 256

func unusedArguments(protoName string) error {
	return &errors.UserError{
		Class: errors.ClassUnusedArgument,
		Msg:   fmt.Sprintf("unused arguments in call to %s", protoName),
	}
}

// argument returns the value at position index across call's own
// arguments and env's captured "..." list, per original_source's
// argument(): positions below call.DotIndex come from call.Arguments,
// positions spanning the dots list come from env's captured dots (wrapped
// in a fresh dotdot-forwarding promise if the underlying element is
// itself a promise, so a promise is never forced from two call sites),
// and anything past that comes from the remaining call.Arguments.
func argument(index int32, dots []value.Value, call *value.CompiledCall, env heap.HeapObject, h *heap.Heap) value.Value {
	if index < call.DotIndex {
		return call.Arguments[index]
	}
	index -= call.DotIndex
	ndots := int32(len(dots))
	if index < ndots {
		elem := dots[index]
		if elem.IsPromise() {
			return value.NewDotdotPromise(index, env, h)
		}
		return elem
	}
	index -= ndots
	return call.Arguments[call.DotIndex+index+1]
}

// name mirrors argument() but for the parallel names array.
func name(index int32, dots []value.Value, dotNames []intern.Handle, call *value.CompiledCall) intern.Handle {
	if index < call.DotIndex {
		if int(index) < len(call.Names) {
			return call.Names[index]
		}
		return intern.Empty
	}
	index -= call.DotIndex
	ndots := int32(len(dots))
	if index < ndots {
		if int(index) < len(dotNames) {
			return dotNames[index]
		}
		return intern.Empty
	}
	index -= ndots
	pos := call.DotIndex + index + 1
	if int(pos) < len(call.Names) {
		return call.Names[pos]
	}
	return intern.Empty
}

// numArguments is the effective argument count once the "..." placeholder
// in call.Arguments is replaced by however many elements env's dots list
// actually holds.
func numArguments(dots []value.Value, call *value.CompiledCall) int32 {
	if int(call.DotIndex) < len(call.Arguments) {
		return int32(len(call.Arguments)) - 1 + int32(len(dots))
	}
	return int32(len(call.Arguments))
}

// namedArguments reports whether any effective argument carries a name.
func namedArguments(dotNames []intern.Handle, call *value.CompiledCall) bool {
	if int(call.DotIndex) < len(call.Arguments) {
		return len(call.Names) > 0 || len(dotNames) > 0
	}
	return len(call.Names) > 0
}

// assignArgument binds name to v in assignEnv, re-targeting v's evaluation
// environment to evalEnv if v is a promise — original_source's
// assignArgument, which lets a default-argument promise evaluate lazily in
// the callee's own frame while an argument promise evaluates in the
// caller's.
func assignArgument(evalEnv *env.Environment, assignEnv *env.Environment, name intern.Handle, v value.Value) {
	if v.IsPromise() {
		v.AsPromise().Env = evalEnv
	}
	assignEnv.Set(name, v)
}

// assignDot is assignArgument's counterpart for building a new "..." list
// rather than a dictionary binding.
func assignDot(evalEnv *env.Environment, v value.Value) value.Value {
	if v.IsPromise() {
		v.AsPromise().Env = evalEnv
	}
	return v
}

// FastMatchArgs matches a call with no named arguments and no "..." among
// its own arguments (the parameter list may still declare "..."). It skips
// straight to positional assignment, the common case, per
// original_source's FastMatchArgs.
func FastMatchArgs(h *heap.Heap, callerEnv *env.Environment, closure value.Value, call *value.CompiledCall) (*env.Environment, error) {
	proto := closure.AsClosure().Proto
	parameters := proto.Parameters
	defaults := proto.Defaults
	arguments := call.Arguments
	pDotIndex := proto.DotIndex

	end := pDotIndex
	if int32(len(arguments)) < end {
		end = int32(len(arguments))
	}

	fenv := env.New(callerEnv, len(arguments)+5, h)

	for i, extraName := range call.ExtraNames {
		assignArgument(callerEnv, fenv, extraName, call.ExtraArgs[i])
	}

	for i := int32(0); i < int32(len(parameters)); i++ {
		if i < end && !arguments[i].IsNil() {
			assignArgument(callerEnv, fenv, parameters[i], arguments[i])
		} else {
			assignArgument(fenv, fenv, parameters[i], defaults[i])
		}
	}

	if int32(len(arguments)) > end {
		if pDotIndex < int32(len(parameters)) {
			dots := make([]value.Value, int32(len(arguments))-end)
			for i := end; i < int32(len(arguments)); i++ {
				dots[i-end] = assignDot(callerEnv, arguments[i])
			}
			fenv.Ctx = &env.Context{Dots: value.NewList(dots, h)}
		} else {
			return nil, unusedArguments(proto.Name)
		}
	}

	finishBind(fenv, callerEnv, closure, int32(len(arguments)))
	return fenv, nil
}

// MatchArgs is the generic three-phase matcher: exact name, then
// prefix (only against parameters before "..."; the first still-unbound
// parameter with a matching prefix wins), then
// positional fill of whatever named/dots slots remain — original_source's
// MatchArgs.
func MatchArgs(h *heap.Heap, callerEnv *env.Environment, closure value.Value, call *value.CompiledCall) (*env.Environment, error) {
	proto := closure.AsClosure().Proto
	parameters := proto.Parameters
	defaults := proto.Defaults
	pDotIndex := proto.DotIndex

	var dots []value.Value
	var dotNames []intern.Handle
	if callerEnv.Ctx != nil {
		dots = callerEnv.Ctx.Dots.AsListSlice()
		dotNames = callerEnv.Ctx.DotNames.AsCharacterSlice()
	}

	numArgs := numArguments(dots, call)
	named := namedArguments(dotNames, call)

	fenv := env.New(callerEnv, minInt(int(numArgs), len(parameters))+5, h)

	for i, extraName := range call.ExtraNames {
		assignArgument(callerEnv, fenv, extraName, call.ExtraArgs[i])
	}
	for i, p := range parameters {
		assignArgument(fenv, fenv, p, defaults[i])
	}

	switch {
	case !named:
		end := pDotIndex
		if numArgs < end {
			end = numArgs
		}
		for i := int32(0); i < end; i++ {
			arg := argument(i, dots, call, callerEnv, h)
			if !arg.IsNil() {
				assignArgument(callerEnv, fenv, parameters[i], arg)
			}
		}
		if numArgs > end {
			if pDotIndex < int32(len(parameters)) {
				newdots := make([]value.Value, numArgs-end)
				for i := end; i < numArgs; i++ {
					newdots[i-end] = assignDot(callerEnv, argument(i, dots, call, callerEnv, h))
				}
				fenv.Ctx = &env.Context{Dots: value.NewList(newdots, h)}
			} else {
				return nil, unusedArguments(proto.Name)
			}
		}

	case len(parameters) == 1 && pDotIndex == 0:
		if numArgs > 0 {
			newdots := make([]value.Value, numArgs)
			names := make([]intern.Handle, numArgs)
			for i := int32(0); i < numArgs; i++ {
				newdots[i] = assignDot(callerEnv, argument(i, dots, call, callerEnv, h))
				names[i] = name(i, dots, dotNames, call)
			}
			fenv.Ctx = &env.Context{
				Dots:      value.NewList(newdots, h),
				DotNames:  value.NewCharacterVector(names, h),
				NamedDots: true,
			}
		}

	default:
		if numArgs > maxArguments {
			return nil, &errors.UserError{
				Class: errors.ClassTooManyArguments,
				Msg:   "too many arguments for fixed size assignment arrays",
			}
		}
		assignment := make([]int32, numArgs)
		set := make([]int32, len(parameters))
		for i := range assignment {
			assignment[i] = -1
		}
		for j := range set {
			set[j] = int32(-(j + 1))
		}

		// Phase A: exact name matches.
		for i := int32(0); i < numArgs; i++ {
			n := name(i, dots, dotNames, call)
			if n == intern.Empty {
				continue
			}
			for j, p := range parameters {
				if int32(j) != pDotIndex && n == p {
					assignment[i] = int32(j)
					set[j] = i
					break
				}
			}
		}
		// Phase B: prefix matches, only against parameters before "...";
		// the first still-unbound parameter whose name has the prefix wins.
		for i := int32(0); i < numArgs; i++ {
			if assignment[i] >= 0 {
				continue
			}
			n := name(i, dots, dotNames, call)
			if n == intern.Empty {
				continue
			}
			ns := n.String()
			for j := int32(0); j < pDotIndex; j++ {
				if set[j] < 0 && hasPrefix(parameters[j].String(), ns) {
					assignment[i] = j
					set[j] = i
					break
				}
			}
		}
		// Phase C: positional fill of whatever named slots remain.
		firstEmpty := int32(0)
		for i := int32(0); i < numArgs; i++ {
			n := name(i, dots, dotNames, call)
			if n != intern.Empty {
				continue
			}
			for ; firstEmpty < pDotIndex; firstEmpty++ {
				if set[firstEmpty] < 0 {
					assignment[i] = firstEmpty
					set[firstEmpty] = i
					break
				}
			}
		}

		numDots := numArgs
		for j, p := range parameters {
			if int32(j) != pDotIndex && set[j] >= 0 {
				arg := argument(set[j], dots, call, callerEnv, h)
				if !arg.IsNil() {
					assignArgument(callerEnv, fenv, p, arg)
				}
				numDots--
			}
		}

		if numDots > 0 {
			if pDotIndex < int32(len(parameters)) {
				newdots := make([]value.Value, 0, numDots)
				names := make([]intern.Handle, 0, numDots)
				anyNamed := false
				for i := int32(0); i < numArgs; i++ {
					if assignment[i] >= 0 {
						continue
					}
					n := name(i, dots, dotNames, call)
					if n != intern.Empty {
						anyNamed = true
					}
					newdots = append(newdots, assignDot(callerEnv, argument(i, dots, call, callerEnv, h)))
					names = append(names, n)
				}
				ctx := &env.Context{Dots: value.NewList(newdots, h)}
				if anyNamed {
					ctx.DotNames = value.NewCharacterVector(names, h)
					ctx.NamedDots = true
				}
				fenv.Ctx = ctx
			} else {
				return nil, unusedArguments(proto.Name)
			}
		}
	}

	finishBind(fenv, callerEnv, closure, numArgs)
	return fenv, nil
}

// finishBind records the call bookkeeping every matcher leaves behind
// regardless of path, in fenv.Ctx: the caller environment (Caller), the
// invoked closure (Function) and the effective argument count (Nargs).
// The original call expression is not recorded.
func finishBind(fenv *env.Environment, callerEnv *env.Environment, closure value.Value, numArgs int32) {
	if fenv.Ctx == nil {
		fenv.Ctx = &env.Context{}
	}
	fenv.Ctx.Caller = callerEnv
	fenv.Ctx.Function = closure
	fenv.Ctx.Nargs = numArgs
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func hasPrefix(s, prefix string) bool {
	if len(prefix) > len(s) {
		return false
	}
	return s[:len(prefix)] == prefix
}
