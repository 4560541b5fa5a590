// Package uartbridge presents serial capabilities as a tinygo drivers.UART
// so stock device drivers (GPS, modems, fingerprint readers) can run on any
// port in this module, including the loopback and I²C bridges.
package uartbridge

import (
	"embedded-serial-go/serial"
	"embedded-serial-go/x/ring"

	"tinygo.org/x/drivers"
)

// DefaultSize is the staging buffer depth used when Config.Size is unset.
const DefaultSize = 64

// Config is optional.
type Config struct {
	// Size of the receive staging buffer, a power of two. Default 64.
	// It bounds what Buffered can report.
	Size int
}

// UART is a drivers.UART over a non-blocking receiver and a blocking
// transmitter. Like the hardware ports it stands in for, reads never block:
// Read returns what has arrived so far.
type UART struct {
	rx      serial.NonBlockingRx[byte]
	tx      serial.BlockingTx[byte]
	pending *ring.Ring[byte]
	fault   error
	scratch [16]byte
}

var _ drivers.UART = (*UART)(nil)

func New(rx serial.NonBlockingRx[byte], tx serial.BlockingTx[byte], cfg Config) *UART {
	return &UART{
		rx:      rx,
		tx:      tx,
		pending: ring.New[byte](ring.CoalescePow2(cfg.Size, DefaultSize)),
	}
}

// fill moves received bytes into the staging buffer until it is full or
// the receiver would block. A fault is held for the next Read.
func (u *UART) fill() {
	for u.fault == nil {
		k := min(u.pending.Space(), len(u.scratch))
		if k == 0 {
			return
		}
		n, err := serial.TryReceiveBuffer(u.rx, u.scratch[:k])
		u.pending.WriteFrom(u.scratch[:n])
		if err != nil {
			if !serial.IsWouldBlock(err) {
				u.fault = err
			}
			return
		}
	}
}

// Buffered reports how many bytes Read can return without waiting.
func (u *UART) Buffered() int {
	u.fill()
	return u.pending.Available()
}

// Read returns up to len(p) bytes that have already arrived. A receive
// fault is returned once, after the bytes that preceded it.
func (u *UART) Read(p []byte) (int, error) {
	n := u.pending.ReadInto(p)
	if n < len(p) {
		u.fill()
		n += u.pending.ReadInto(p[n:])
	}
	if n == 0 && u.fault != nil {
		err := u.fault
		u.fault = nil
		return 0, err
	}
	return n, nil
}

// Write blocks until all of p is queued.
func (u *UART) Write(p []byte) (int, error) {
	return serial.TransmitBuffer(u.tx, p)
}
