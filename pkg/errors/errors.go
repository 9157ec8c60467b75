// Package errors implements the three error kinds named by the execution
// core's error handling design: UserError (the caller's fault — unused
// arguments, out-of-bounds subscripts, an unknown generic, and the like),
// CompileError (passed through unchanged from an external compiler
// collaborator, never constructed by the core itself), and InternalError
// (the core's own invariants broke; fatal, carries a stack dump). Adapted
// from the PaseratiError interface and DisplayErrors pretty-printer in
// _examples/nooga-paserati/pkg/errors/errors.go, collapsed from that
// teacher's four concrete kinds (Syntax/Type/Compile/Runtime) down to the
// three this core distinguishes.
package errors

import (
	"fmt"
	"os"
	"runtime/debug"
	"strings"
)

// RiposteError is the interface every error value the core surfaces across
// a package boundary implements.
type RiposteError interface {
	error
	Kind() string // "User", "Compile", or "Internal"
	Message() string
	Unwrap() error
}

// User error classes, per the catalogue of caller mistakes the core can
// detect on its own (argument matching, subscripting, generic dispatch,
// ifelse recycling).
const (
	ClassUnusedArgument   = "unused-argument"
	ClassTooManyArguments = "too-many-arguments"
	ClassSubscriptOOB     = "subscript-out-of-bounds"
	ClassNotScalar        = "not-scalar-selection"
	ClassUnknownGeneric   = "unknown-generic"
	ClassNonZippable      = "non-zippable-operand"
	ClassUnboundVariable  = "unbound-variable"
	ClassNotAFunction     = "not-a-function"
)

// UserError is the caller's fault: it is catchable at the REPL boundary
// and, if user code has bound a __stop__ handler (pkg/dispatch.Stop), can
// be intercepted before it ever reaches the driver.
type UserError struct {
	Class string // one of the Class* constants above
	Msg   string
	Cause error
}

func (e *UserError) Error() string {
	return fmt.Sprintf("Error (%s): %s", e.Class, e.Msg)
}
func (e *UserError) Kind() string    { return "User" }
func (e *UserError) Message() string { return e.Msg }
func (e *UserError) Unwrap() error   { return e.Cause }
func (e *UserError) CausedBy(cause error) *UserError {
	e.Cause = cause
	return e
}

// CompileError is raised by the external compiler collaborator (out of
// scope for this core) and surfaced unmodified. The core never constructs
// one; pkg/driver forwards whatever its compiler dependency returns.
type CompileError struct {
	Position
	Msg   string
	Cause error
}

func (e *CompileError) Error() string {
	if e.Position.IsZero() {
		return fmt.Sprintf("Compile Error: %s", e.Msg)
	}
	return fmt.Sprintf("Compile Error at %d:%d: %s", e.Line, e.Column, e.Msg)
}
func (e *CompileError) Kind() string    { return "Compile" }
func (e *CompileError) Message() string { return e.Msg }
func (e *CompileError) Unwrap() error   { return e.Cause }
func (e *CompileError) CausedBy(cause error) *CompileError {
	e.Cause = cause
	return e
}

// InternalError means one of the core's own invariants broke — register
// file overflow, a GC invariant violation, an unreachable switch arm.
// Fatal: the driver dumps Stack and aborts rather than trying to recover,
// mirroring dumpStack in original_source/src/call.cpp.
type InternalError struct {
	Msg   string
	Stack string
	Cause error
}

// NewInternalError captures the current goroutine's stack alongside msg,
// the Go equivalent of dumpStack walking the native call frames.
func NewInternalError(msg string) *InternalError {
	return &InternalError{Msg: msg, Stack: string(debug.Stack())}
}

func (e *InternalError) Error() string {
	return fmt.Sprintf("Internal Error: %s", e.Msg)
}
func (e *InternalError) Kind() string    { return "Internal" }
func (e *InternalError) Message() string { return e.Msg }
func (e *InternalError) Unwrap() error   { return e.Cause }
func (e *InternalError) CausedBy(cause error) *InternalError {
	e.Cause = cause
	return e
}

// DisplayErrors prints a batch of errors to stderr. CompileErrors that
// carry a Position get the source line and a caret marker underneath it,
// the way the teacher's pretty-printer does; everything else prints as a
// single line.
func DisplayErrors(source string, errs []RiposteError) {
	if len(errs) == 0 {
		return
	}

	var lines []string
	if source != "" {
		lines = strings.Split(source, "\n")
	}

	for _, err := range errs {
		ce, ok := err.(*CompileError)
		if !ok || ce.Position.IsZero() {
			fmt.Fprintf(os.Stderr, "%s Error: %s\n", err.Kind(), err.Message())
			continue
		}

		lineIdx := ce.Line - 1
		if lineIdx < 0 || lineIdx >= len(lines) {
			fmt.Fprintf(os.Stderr, "%s Error at %d:%d: %s\n", err.Kind(), ce.Line, ce.Column, err.Message())
			continue
		}

		sourceLine := strings.TrimRight(lines[lineIdx], "\r\n\t ")
		fmt.Fprintf(os.Stderr, "%s Error at %d:%d: %s\n", err.Kind(), ce.Line, ce.Column, err.Message())
		fmt.Fprintf(os.Stderr, "  %s\n", sourceLine)
		caret := ce.Column - 1 // Column is 1-based
		if caret < 0 {
			caret = 0
		}
		fmt.Fprintf(os.Stderr, "  %s^\n", strings.Repeat(" ", caret))
	}
}

// DumpAndAbort prints ie to stderr along with its captured stack and exits
// the process. Internal errors are never recoverable.
func DumpAndAbort(ie *InternalError) {
	fmt.Fprintf(os.Stderr, "Internal Error: %s\n", ie.Msg)
	if ie.Cause != nil {
		fmt.Fprintf(os.Stderr, "caused by: %v\n", ie.Cause)
	}
	fmt.Fprintln(os.Stderr, ie.Stack)
	os.Exit(70)
}
