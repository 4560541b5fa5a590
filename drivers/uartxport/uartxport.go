// Package uartxport exposes an interrupt-driven RP2 UART (tinygo-uartx) as
// a byte-wide serial port.
//
// The hardware receive path is buffered and signals a readiness edge, so
// receive is offered in all three modes. The transmit path of uartx only
// blocks, so transmit is offered as BlockingTx.
package uartxport

import (
	"context"
	"errors"
	"time"

	"embedded-serial-go/serial"
)

// Port is the subset of *uartx.UART the adapter needs.
type Port interface {
	WriteByte(b byte) error
	Write(p []byte) (int, error)

	Buffered() int
	Read(p []byte) (int, error)
	Readable() <-chan struct{}
	RecvSomeContext(ctx context.Context, p []byte) (int, error)
}

// UART adapts a Port. Receive calls must come from a single goroutine, as
// must transmit calls.
type UART struct {
	p  Port
	rb [1]byte
}

var (
	_ serial.BlockingRx[byte]    = (*UART)(nil)
	_ serial.TimeoutRx[byte]     = (*UART)(nil)
	_ serial.NonBlockingRx[byte] = (*UART)(nil)
	_ serial.BlockingTx[byte]    = (*UART)(nil)

	_ serial.BlockingRxBuffer[byte]    = (*UART)(nil)
	_ serial.TimeoutRxBuffer[byte]     = (*UART)(nil)
	_ serial.NonBlockingRxBuffer[byte] = (*UART)(nil)
	_ serial.BlockingTxBuffer[byte]    = (*UART)(nil)
)

func New(p Port) *UART { return &UART{p: p} }

// Readable exposes the underlying receive edge.
func (u *UART) Readable() <-chan struct{} { return u.p.Readable() }

// ---- RX ----

func (u *UART) TryReceive() (byte, error) {
	if u.p.Buffered() == 0 {
		return 0, serial.ErrWouldBlock
	}
	n, err := u.p.Read(u.rb[:])
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, serial.ErrWouldBlock
	}
	return u.rb[0], nil
}

func (u *UART) TryReceiveBuffer(buf []byte) (int, error) {
	if len(buf) == 0 {
		return 0, nil
	}
	avail := u.p.Buffered()
	if avail == 0 {
		return 0, serial.ErrWouldBlock
	}
	n, err := u.p.Read(buf[:min(avail, len(buf))])
	if err != nil {
		return n, err
	}
	if n < len(buf) {
		return n, serial.ErrWouldBlock
	}
	return n, nil
}

func (u *UART) Receive() (byte, error) {
	if _, err := u.recv(context.Background(), u.rb[:]); err != nil {
		return 0, err
	}
	return u.rb[0], nil
}

func (u *UART) ReceiveBuffer(buf []byte) (int, error) {
	return u.recv(context.Background(), buf)
}

func (u *UART) ReceiveTimeout(d time.Duration) (byte, error) {
	n, err := u.ReceiveBufferTimeout(u.rb[:], d)
	if n == 0 {
		return 0, err
	}
	return u.rb[0], nil
}

// ReceiveBufferTimeout bounds the wait for each byte by d.
func (u *UART) ReceiveBufferTimeout(buf []byte, d time.Duration) (int, error) {
	n := 0
	for n < len(buf) {
		k, err := u.recvWithin(buf[n:], d)
		n += k
		if err != nil {
			return n, err
		}
	}
	return n, nil
}

// recvWithin waits at most d for the first byte of buf, then takes whatever
// else is already buffered.
func (u *UART) recvWithin(buf []byte, d time.Duration) (int, error) {
	if k, err := u.TryReceiveBuffer(buf); k > 0 || !serial.IsWouldBlock(err) {
		if serial.IsWouldBlock(err) {
			err = nil
		}
		return k, err
	}
	if d <= 0 {
		return 0, serial.ErrTimedOut
	}
	ctx, cancel := context.WithTimeout(context.Background(), d)
	defer cancel()
	k, err := u.p.RecvSomeContext(ctx, buf[:1])
	if k > 0 {
		return k, nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		// Last look before reporting the timeout.
		if k, err := u.TryReceiveBuffer(buf[:1]); k > 0 || !serial.IsWouldBlock(err) {
			return k, err
		}
		return 0, serial.ErrTimedOut
	}
	return 0, err
}

func (u *UART) recv(ctx context.Context, buf []byte) (int, error) {
	n := 0
	for n < len(buf) {
		k, err := u.p.RecvSomeContext(ctx, buf[n:])
		n += k
		if err != nil {
			return n, err
		}
	}
	return n, nil
}

// ---- TX ----

func (u *UART) Transmit(b byte) error { return u.p.WriteByte(b) }

func (u *UART) TransmitBuffer(buf []byte) (int, error) {
	n := 0
	for n < len(buf) {
		k, err := u.p.Write(buf[n:])
		n += k
		if err != nil {
			return n, err
		}
		if k == 0 {
			return n, errShortWrite
		}
	}
	return n, nil
}

var errShortWrite = errors.New("uartxport: write made no progress")
