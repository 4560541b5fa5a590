// Package loopback provides a serial port whose transmit side is wired to
// its own receive side through a bounded FIFO. It implements every
// capability in package serial and is the reference driver for tests and
// host self-checks.
//
// One goroutine may own the receive side while another owns the transmit
// side; each side is single-owner.
package loopback

import (
	"context"
	"sync"
	"time"

	"embedded-serial-go/serial"
	"embedded-serial-go/x/ring"
	"embedded-serial-go/x/waitx"
)

// DefaultSize is the FIFO depth used when Config.Size is zero or invalid.
const DefaultSize = 64

// Config controls the simulated hardware. All fields are optional.
type Config struct {
	// Size is the FIFO depth in words, a power of two. Default 64.
	Size int
}

// Port is a loopback serial port moving words of type W.
type Port[W serial.Word] struct {
	fifo *ring.Ring[W]

	// Coalesced edges: rxReady after a word lands or a fault is armed,
	// txReady after a word leaves the FIFO.
	rxReady chan struct{}
	txReady chan struct{}

	mu    sync.Mutex
	fault error
}

var (
	_ serial.BlockingDuplex[byte]      = (*Port[byte])(nil)
	_ serial.TimeoutDuplex[byte]       = (*Port[byte])(nil)
	_ serial.NonBlockingDuplex[byte]   = (*Port[byte])(nil)
	_ serial.NonBlockingDuplex[uint16] = (*Port[uint16])(nil)

	_ serial.BlockingRxBuffer[byte]    = (*Port[byte])(nil)
	_ serial.BlockingTxBuffer[byte]    = (*Port[byte])(nil)
	_ serial.NonBlockingRxBuffer[byte] = (*Port[byte])(nil)
	_ serial.NonBlockingTxBuffer[byte] = (*Port[byte])(nil)
)

func New[W serial.Word](cfg Config) *Port[W] {
	return &Port[W]{
		fifo:    ring.New[W](ring.CoalescePow2(cfg.Size, DefaultSize)),
		rxReady: make(chan struct{}, 1),
		txReady: make(chan struct{}, 1),
	}
}

// InjectFault arms err to be returned once by the next receive-side call,
// ahead of any buffered words. Words already in the FIFO are kept.
func (p *Port[W]) InjectFault(err error) {
	p.mu.Lock()
	p.fault = err
	p.mu.Unlock()
	notify(p.rxReady)
}

// Buffered returns the number of words waiting to be received.
func (p *Port[W]) Buffered() int { return p.fifo.Available() }

// Readable fires after words arrive. Edges are coalesced; re-check with
// TryReceive after a wake.
func (p *Port[W]) Readable() <-chan struct{} { return p.rxReady }

// Writable fires after FIFO space is freed.
func (p *Port[W]) Writable() <-chan struct{} { return p.txReady }

func (p *Port[W]) takeFault() error {
	p.mu.Lock()
	err := p.fault
	p.fault = nil
	p.mu.Unlock()
	return err
}

func (p *Port[W]) rxSignal() waitx.Signal { return waitx.Signal{Ready: p.rxReady} }
func (p *Port[W]) txSignal() waitx.Signal { return waitx.Signal{Ready: p.txReady} }

// ---- Non-blocking ----

func (p *Port[W]) TryReceive() (W, error) {
	var zero W
	if err := p.takeFault(); err != nil {
		return zero, err
	}
	w, ok := p.fifo.Get()
	if !ok {
		return zero, serial.ErrWouldBlock
	}
	notify(p.txReady)
	return w, nil
}

func (p *Port[W]) TryTransmit(w W) error {
	if !p.fifo.Put(w) {
		return serial.ErrWouldBlock
	}
	notify(p.rxReady)
	return nil
}

func (p *Port[W]) TryReceiveBuffer(buf []W) (int, error) {
	if len(buf) == 0 {
		return 0, nil
	}
	if err := p.takeFault(); err != nil {
		return 0, err
	}
	n := p.fifo.ReadInto(buf)
	if n > 0 {
		notify(p.txReady)
	}
	if n < len(buf) {
		return n, serial.ErrWouldBlock
	}
	return n, nil
}

func (p *Port[W]) TryTransmitBuffer(buf []W) (int, error) {
	if len(buf) == 0 {
		return 0, nil
	}
	n := p.fifo.WriteFrom(buf)
	if n > 0 {
		notify(p.rxReady)
	}
	if n < len(buf) {
		return n, serial.ErrWouldBlock
	}
	return n, nil
}

// ---- Blocking ----

func (p *Port[W]) Receive() (W, error) {
	return waitx.Block(context.Background(), p.rxSignal(), p.TryReceive)
}

func (p *Port[W]) Transmit(w W) error {
	return waitx.BlockErr(context.Background(), p.txSignal(), func() error { return p.TryTransmit(w) })
}

func (p *Port[W]) ReceiveBuffer(buf []W) (int, error) {
	return p.pump(buf, p.rxSignal(), p.TryReceiveBuffer)
}

func (p *Port[W]) TransmitBuffer(buf []W) (int, error) {
	return p.pump(buf, p.txSignal(), p.TryTransmitBuffer)
}

// pump moves buf in FIFO-sized chunks, parking between chunks.
func (p *Port[W]) pump(buf []W, s waitx.Signal, try func([]W) (int, error)) (int, error) {
	n := 0
	for n < len(buf) {
		k, err := waitx.Block(context.Background(), s, func() (int, error) {
			k, err := try(buf[n:])
			if k > 0 {
				return k, nil
			}
			return 0, err
		})
		n += k
		if err != nil {
			return n, err
		}
	}
	return n, nil
}

// ---- Blocking with timeout ----

func (p *Port[W]) ReceiveTimeout(d time.Duration) (W, error) {
	return waitx.BlockTimeout(d, p.rxSignal(), p.TryReceive)
}

func (p *Port[W]) TransmitTimeout(w W, d time.Duration) error {
	return waitx.BlockTimeoutErr(d, p.txSignal(), func() error { return p.TryTransmit(w) })
}

func notify(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}
