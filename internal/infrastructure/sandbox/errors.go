package sandbox

import (
	"errors"
	"fmt"
	"strings"

	"go.starlark.net/resolve"
	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

// SyntaxError reports code that does not parse.
type SyntaxError struct {
	Line int
	Msg  string
}

func (e *SyntaxError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Msg)
	}
	return e.Msg
}

// NameError reports a reference to an undefined name.
type NameError struct {
	Line int
	Name string
	Msg  string
}

func (e *NameError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Msg)
	}
	return e.Msg
}

// RuntimeError reports a failure while the code was running.
type RuntimeError struct {
	Msg       string
	Backtrace string
	cause     error
}

func (e *RuntimeError) Error() string { return e.Msg }
func (e *RuntimeError) Unwrap() error { return e.cause }

// TimeoutError reports code stopped by the wall-clock limit or the step ceiling.
type TimeoutError struct {
	Reason string
}

func (e *TimeoutError) Error() string {
	return "execution stopped: " + e.Reason
}

// classify maps an interpreter error onto the typed execution errors.
func classify(err error) error {
	if err == nil {
		return nil
	}

	var serr syntax.Error
	if errors.As(err, &serr) {
		return &SyntaxError{Line: int(serr.Pos.Line), Msg: serr.Msg}
	}

	var rerrs resolve.ErrorList
	if errors.As(err, &rerrs) && len(rerrs) > 0 {
		first := rerrs[0]
		if name, ok := strings.CutPrefix(first.Msg, "undefined: "); ok {
			return &NameError{Line: int(first.Pos.Line), Name: name, Msg: fmt.Sprintf("name '%s' is not defined", name)}
		}
		return &SyntaxError{Line: int(first.Pos.Line), Msg: first.Msg}
	}

	var eerr *starlark.EvalError
	if errors.As(err, &eerr) {
		return &RuntimeError{Msg: eerr.Msg, Backtrace: eerr.Backtrace(), cause: eerr}
	}
	return &RuntimeError{Msg: err.Error(), cause: err}
}
