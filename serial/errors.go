package serial

import (
	"errors"

	"embedded-serial-go/errcode"
)

const (
	// ErrWouldBlock is returned by non-blocking calls when no progress is
	// possible right now. Retry later.
	ErrWouldBlock = errcode.WouldBlock

	// ErrTimedOut is returned by timeout-bounded calls when the deadline
	// elapsed before the word was moved.
	ErrTimedOut = errcode.TimedOut

	// ErrUnsupported is returned by wrappers asked for a capability the
	// wrapped driver does not have.
	ErrUnsupported = errcode.Unsupported
)

func IsWouldBlock(err error) bool { return errors.Is(err, ErrWouldBlock) }
func IsTimedOut(err error) bool   { return errors.Is(err, ErrTimedOut) }

// IsFault reports whether err is a genuine driver fault: non-nil and neither
// ErrWouldBlock nor ErrTimedOut.
func IsFault(err error) bool {
	return err != nil && !errcode.IsCondition(err)
}
