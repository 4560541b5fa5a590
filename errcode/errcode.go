package errcode

import "errors"

// Code is a stable, comparable error identifier.
// It is a string newtype, allocation-free, and implements error.
type Code string

func (c Code) Error() string { return string(c) }

// Canonical codes (short, stable).
const (
	OK Code = "ok"

	// Conditions reserved by the serial capability contract. Neither is a fault.
	WouldBlock Code = "would_block"
	TimedOut   Code = "timed_out"

	Unsupported   Code = "unsupported"
	InvalidParams Code = "invalid_params"

	Error Code = "error" // generic fallback
)

// E keeps context and a cause for setup-time failures.
type E struct {
	C   Code
	Op  string
	Msg string
	Err error
}

func (e *E) Error() string {
	s := string(e.C)
	if e.Op != "" {
		s = e.Op + ": " + s
	}
	if e.Msg != "" {
		s += ": " + e.Msg
	}
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}
func (e *E) Unwrap() error { return e.Err }
func (e *E) Code() Code    { return e.C }

// Is lets errors.Is(err, someCode) match an *E carrying that code.
func (e *E) Is(target error) bool {
	c, ok := target.(Code)
	return ok && c == e.C
}

// Of extracts a Code from an error, defaulting to Error.
func Of(err error) Code {
	if err == nil {
		return OK
	}
	var c Code
	if errors.As(err, &c) {
		return c
	}
	type coder interface{ Code() Code }
	var x coder
	if errors.As(err, &x) {
		return x.Code()
	}
	return Error
}

// IsCondition reports whether err is one of the non-fault conditions.
func IsCondition(err error) bool {
	return errors.Is(err, WouldBlock) || errors.Is(err, TimedOut)
}
