// Package serialtest provides a scripted serial driver and conformance
// checks for code built on package serial.
package serialtest

import (
	"sync"

	"embedded-serial-go/serial"
)

// Mock is a non-blocking duplex driver whose receive side is fed by Load
// and whose transmit side records into Sent. It is safe for a test
// goroutine to feed it while another goroutine polls it.
type Mock[W serial.Word] struct {
	mu     sync.Mutex
	rx     []W
	tx     []W
	txRoom int // words TryTransmit will still accept; <0 means unlimited
	rxErr  []error
	txErr  []error
	rd     chan struct{}
}

var (
	_ serial.NonBlockingDuplex[byte]   = (*Mock[byte])(nil)
	_ serial.NonBlockingDuplex[uint16] = (*Mock[uint16])(nil)
)

func NewMock[W serial.Word]() *Mock[W] {
	return &Mock[W]{txRoom: -1, rd: make(chan struct{}, 1)}
}

// Load appends words to the receive queue and raises Readable.
func (m *Mock[W]) Load(ws ...W) {
	m.mu.Lock()
	m.rx = append(m.rx, ws...)
	m.mu.Unlock()
	select {
	case m.rd <- struct{}{}:
	default:
	}
}

// FailReceive queues a fault returned once by a later receive attempt,
// ahead of any loaded words.
func (m *Mock[W]) FailReceive(err error) {
	m.mu.Lock()
	m.rxErr = append(m.rxErr, err)
	m.mu.Unlock()
	select {
	case m.rd <- struct{}{}:
	default:
	}
}

// FailTransmit queues a fault returned once by a later transmit attempt.
func (m *Mock[W]) FailTransmit(err error) {
	m.mu.Lock()
	m.txErr = append(m.txErr, err)
	m.mu.Unlock()
}

// SetTxRoom limits how many more words TryTransmit accepts before it
// reports WouldBlock. n < 0 removes the limit.
func (m *Mock[W]) SetTxRoom(n int) {
	m.mu.Lock()
	m.txRoom = n
	m.mu.Unlock()
}

// Sent returns a copy of everything transmitted so far.
func (m *Mock[W]) Sent() []W {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]W(nil), m.tx...)
}

// Pending returns the number of loaded words not yet received.
func (m *Mock[W]) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rx)
}

// Readable fires when words or a fault are loaded.
func (m *Mock[W]) Readable() <-chan struct{} { return m.rd }

func (m *Mock[W]) TryReceive() (W, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var zero W
	if len(m.rxErr) > 0 {
		err := m.rxErr[0]
		m.rxErr = m.rxErr[1:]
		return zero, err
	}
	if len(m.rx) == 0 {
		return zero, serial.ErrWouldBlock
	}
	w := m.rx[0]
	m.rx = m.rx[1:]
	return w, nil
}

func (m *Mock[W]) TryTransmit(w W) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.txErr) > 0 {
		err := m.txErr[0]
		m.txErr = m.txErr[1:]
		return err
	}
	if m.txRoom == 0 {
		return serial.ErrWouldBlock
	}
	if m.txRoom > 0 {
		m.txRoom--
	}
	m.tx = append(m.tx, w)
	return nil
}
