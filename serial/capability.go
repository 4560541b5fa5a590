package serial

import "time"

// ---- Blocking ----

// BlockingRx receives one word, suspending the caller until a word arrives
// or the driver reports a fault. It never returns ErrWouldBlock or
// ErrTimedOut.
type BlockingRx[W Word] interface {
	Receive() (W, error)
}

// BlockingTx hands one word to the peripheral, suspending the caller until
// the hardware has accepted it (queued, not necessarily clocked out) or a
// fault occurs.
type BlockingTx[W Word] interface {
	Transmit(w W) error
}

// ---- Blocking with timeout ----

// TimeoutRx is BlockingRx bounded by d. It returns ErrTimedOut if d elapses
// first. When a fault and the deadline become known at the same instant the
// fault is reported. d <= 0 checks once without waiting.
//
// Drivers with no way to bound the wait must not implement this.
type TimeoutRx[W Word] interface {
	ReceiveTimeout(d time.Duration) (W, error)
}

// TimeoutTx is BlockingTx bounded by d, with the same rules as TimeoutRx.
type TimeoutTx[W Word] interface {
	TransmitTimeout(w W, d time.Duration) error
}

// ---- Non-blocking ----

// NonBlockingRx returns a word if one is already available, otherwise
// ErrWouldBlock at once. A WouldBlock result changes no driver state.
type NonBlockingRx[W Word] interface {
	TryReceive() (W, error)
}

// NonBlockingTx accepts w if the hardware has room, otherwise returns
// ErrWouldBlock at once and w is not sent.
type NonBlockingTx[W Word] interface {
	TryTransmit(w W) error
}

// ---- Duplex ----

type BlockingDuplex[W Word] interface {
	BlockingRx[W]
	BlockingTx[W]
}

type TimeoutDuplex[W Word] interface {
	TimeoutRx[W]
	TimeoutTx[W]
}

type NonBlockingDuplex[W Word] interface {
	NonBlockingRx[W]
	NonBlockingTx[W]
}

// Octet forms, the common case.
type (
	ByteBlockingRx        = BlockingRx[byte]
	ByteBlockingTx        = BlockingTx[byte]
	ByteTimeoutRx         = TimeoutRx[byte]
	ByteTimeoutTx         = TimeoutTx[byte]
	ByteNonBlockingRx     = NonBlockingRx[byte]
	ByteNonBlockingTx     = NonBlockingTx[byte]
	ByteBlockingDuplex    = BlockingDuplex[byte]
	ByteTimeoutDuplex     = TimeoutDuplex[byte]
	ByteNonBlockingDuplex = NonBlockingDuplex[byte]
)
