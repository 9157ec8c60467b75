package errors

import (
	"errors"
	"testing"
)

func TestUserErrorImplementsRiposteError(t *testing.T) {
	var e RiposteError = &UserError{Class: ClassUnusedArgument, Msg: "unused arguments in call to f"}
	if e.Kind() != "User" {
		t.Fatalf("expected Kind() User, got %s", e.Kind())
	}
	if e.Message() != "unused arguments in call to f" {
		t.Fatalf("unexpected Message(): %s", e.Message())
	}
}

func TestUserErrorCausedByUnwraps(t *testing.T) {
	cause := errors.New("underlying")
	ue := (&UserError{Msg: "wrapped"}).CausedBy(cause)

	if !errors.Is(ue, cause) {
		t.Fatalf("expected errors.Is to find cause through Unwrap")
	}
}

func TestCompileErrorFormatsPositionWhenPresent(t *testing.T) {
	withPos := &CompileError{Position: Position{Line: 3, Column: 5}, Msg: "bad token"}
	if got := withPos.Error(); got != "Compile Error at 3:5: bad token" {
		t.Fatalf("unexpected formatted error: %q", got)
	}

	withoutPos := &CompileError{Msg: "bad token"}
	if got := withoutPos.Error(); got != "Compile Error: bad token" {
		t.Fatalf("unexpected formatted error: %q", got)
	}
}

func TestInternalErrorCapturesStack(t *testing.T) {
	ie := NewInternalError("register stack overflow")
	if ie.Stack == "" {
		t.Fatalf("expected NewInternalError to capture a non-empty stack trace")
	}
	if ie.Kind() != "Internal" {
		t.Fatalf("expected Kind() Internal, got %s", ie.Kind())
	}
}

func TestDisplayErrorsPrintsSourceLineForPositionedCompileError(t *testing.T) {
	// Exercised for side effects only (writes to stderr); the interesting
	// assertion is that it does not panic across the position/no-position
	// and in-bounds/out-of-bounds branches.
	errs := []RiposteError{
		&CompileError{Position: Position{Line: 1, Column: 2}, Msg: "boom"},
		&CompileError{Msg: "no position"},
		&UserError{Class: ClassUnboundVariable, Msg: "object \"x\" not found"},
		&CompileError{Position: Position{Line: 99, Column: 0}, Msg: "out of range"},
	}
	DisplayErrors("let x = 1\n", errs)
}
