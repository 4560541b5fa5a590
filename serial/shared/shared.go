// Package shared lets several goroutines use one serial driver.
//
// Port wraps a driver with one lock per direction and re-exposes every
// capability. One receiver and one transmitter may therefore run at once,
// so the driver must keep its receive and transmit state apart, as every
// driver in this module does. Capabilities the driver lacks return
// serial.ErrUnsupported. Buffer operations hold the lock for the whole
// buffer, so words from concurrent callers never interleave.
//
// Waiting for the lock follows the mode of the call: blocking calls wait,
// timeout calls count the wait against their timeout, and non-blocking
// calls report ErrWouldBlock while another caller holds the direction.
package shared

import (
	"time"

	"embedded-serial-go/errcode"
	"embedded-serial-go/serial"
)

// Port is a lock-guarded view of a driver moving words of type W.
type Port[W serial.Word] struct {
	rx  lock
	tx  lock
	drv any
}

var (
	_ serial.BlockingDuplex[byte]    = (*Port[byte])(nil)
	_ serial.TimeoutDuplex[byte]     = (*Port[byte])(nil)
	_ serial.NonBlockingDuplex[byte] = (*Port[byte])(nil)

	_ serial.BlockingRxBuffer[byte]    = (*Port[byte])(nil)
	_ serial.BlockingTxBuffer[byte]    = (*Port[byte])(nil)
	_ serial.TimeoutRxBuffer[byte]     = (*Port[byte])(nil)
	_ serial.TimeoutTxBuffer[byte]     = (*Port[byte])(nil)
	_ serial.NonBlockingRxBuffer[byte] = (*Port[byte])(nil)
	_ serial.NonBlockingTxBuffer[byte] = (*Port[byte])(nil)
)

// New wraps drv, which should implement at least one capability of package
// serial for word type W.
func New[W serial.Word](drv any) *Port[W] {
	return &Port[W]{rx: newLock(), tx: newLock(), drv: drv}
}

// Caps lists which capabilities a driver provides.
type Caps struct {
	BlockingRx, BlockingTx       bool
	TimeoutRx, TimeoutTx         bool
	NonBlockingRx, NonBlockingTx bool
}

// Caps reports the capabilities of the wrapped driver.
func (p *Port[W]) Caps() Caps {
	var c Caps
	_, c.BlockingRx = p.drv.(serial.BlockingRx[W])
	_, c.BlockingTx = p.drv.(serial.BlockingTx[W])
	_, c.TimeoutRx = p.drv.(serial.TimeoutRx[W])
	_, c.TimeoutTx = p.drv.(serial.TimeoutTx[W])
	_, c.NonBlockingRx = p.drv.(serial.NonBlockingRx[W])
	_, c.NonBlockingTx = p.drv.(serial.NonBlockingTx[W])
	return c
}

func unsupported(op string) error {
	return &errcode.E{C: errcode.Unsupported, Op: "shared." + op}
}

// lock is a one-slot semaphore so waits can be bounded or skipped.
type lock chan struct{}

func newLock() lock { return make(lock, 1) }

func (l lock) acquire() { l <- struct{}{} }

func (l lock) tryAcquire() bool {
	select {
	case l <- struct{}{}:
		return true
	default:
		return false
	}
}

// acquireWithin waits at most d and returns the time left.
func (l lock) acquireWithin(d time.Duration) (time.Duration, bool) {
	if l.tryAcquire() {
		return d, true
	}
	if d <= 0 {
		return 0, false
	}
	start := time.Now()
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case l <- struct{}{}:
		return max(d-time.Since(start), 0), true
	case <-t.C:
		return 0, false
	}
}

func (l lock) release() { <-l }

// ---- Blocking ----

func (p *Port[W]) Receive() (W, error) {
	var zero W
	d, ok := p.drv.(serial.BlockingRx[W])
	if !ok {
		return zero, unsupported("Receive")
	}
	p.rx.acquire()
	defer p.rx.release()
	return d.Receive()
}

func (p *Port[W]) Transmit(w W) error {
	d, ok := p.drv.(serial.BlockingTx[W])
	if !ok {
		return unsupported("Transmit")
	}
	p.tx.acquire()
	defer p.tx.release()
	return d.Transmit(w)
}

func (p *Port[W]) ReceiveBuffer(buf []W) (int, error) {
	d, ok := p.drv.(serial.BlockingRx[W])
	if !ok {
		return 0, unsupported("ReceiveBuffer")
	}
	p.rx.acquire()
	defer p.rx.release()
	return serial.ReceiveBuffer(d, buf)
}

func (p *Port[W]) TransmitBuffer(buf []W) (int, error) {
	d, ok := p.drv.(serial.BlockingTx[W])
	if !ok {
		return 0, unsupported("TransmitBuffer")
	}
	p.tx.acquire()
	defer p.tx.release()
	return serial.TransmitBuffer(d, buf)
}

// ---- Blocking with timeout ----

func (p *Port[W]) ReceiveTimeout(timeout time.Duration) (W, error) {
	var zero W
	d, ok := p.drv.(serial.TimeoutRx[W])
	if !ok {
		return zero, unsupported("ReceiveTimeout")
	}
	left, ok := p.rx.acquireWithin(timeout)
	if !ok {
		return zero, serial.ErrTimedOut
	}
	defer p.rx.release()
	return d.ReceiveTimeout(left)
}

func (p *Port[W]) TransmitTimeout(w W, timeout time.Duration) error {
	d, ok := p.drv.(serial.TimeoutTx[W])
	if !ok {
		return unsupported("TransmitTimeout")
	}
	left, ok := p.tx.acquireWithin(timeout)
	if !ok {
		return serial.ErrTimedOut
	}
	defer p.tx.release()
	return d.TransmitTimeout(w, left)
}

// ReceiveBufferTimeout bounds the wait for the lock by timeout; once held,
// each word gets the full timeout.
func (p *Port[W]) ReceiveBufferTimeout(buf []W, timeout time.Duration) (int, error) {
	d, ok := p.drv.(serial.TimeoutRx[W])
	if !ok {
		return 0, unsupported("ReceiveBufferTimeout")
	}
	if len(buf) == 0 {
		return 0, nil
	}
	if _, ok := p.rx.acquireWithin(timeout); !ok {
		return 0, serial.ErrTimedOut
	}
	defer p.rx.release()
	return serial.ReceiveBufferTimeout(d, buf, timeout)
}

func (p *Port[W]) TransmitBufferTimeout(buf []W, timeout time.Duration) (int, error) {
	d, ok := p.drv.(serial.TimeoutTx[W])
	if !ok {
		return 0, unsupported("TransmitBufferTimeout")
	}
	if len(buf) == 0 {
		return 0, nil
	}
	if _, ok := p.tx.acquireWithin(timeout); !ok {
		return 0, serial.ErrTimedOut
	}
	defer p.tx.release()
	return serial.TransmitBufferTimeout(d, buf, timeout)
}

// ---- Non-blocking ----

func (p *Port[W]) TryReceive() (W, error) {
	var zero W
	d, ok := p.drv.(serial.NonBlockingRx[W])
	if !ok {
		return zero, unsupported("TryReceive")
	}
	if !p.rx.tryAcquire() {
		return zero, serial.ErrWouldBlock
	}
	defer p.rx.release()
	return d.TryReceive()
}

func (p *Port[W]) TryTransmit(w W) error {
	d, ok := p.drv.(serial.NonBlockingTx[W])
	if !ok {
		return unsupported("TryTransmit")
	}
	if !p.tx.tryAcquire() {
		return serial.ErrWouldBlock
	}
	defer p.tx.release()
	return d.TryTransmit(w)
}

func (p *Port[W]) TryReceiveBuffer(buf []W) (int, error) {
	d, ok := p.drv.(serial.NonBlockingRx[W])
	if !ok {
		return 0, unsupported("TryReceiveBuffer")
	}
	if len(buf) == 0 {
		return 0, nil
	}
	if !p.rx.tryAcquire() {
		return 0, serial.ErrWouldBlock
	}
	defer p.rx.release()
	return serial.TryReceiveBuffer(d, buf)
}

func (p *Port[W]) TryTransmitBuffer(buf []W) (int, error) {
	d, ok := p.drv.(serial.NonBlockingTx[W])
	if !ok {
		return 0, unsupported("TryTransmitBuffer")
	}
	if len(buf) == 0 {
		return 0, nil
	}
	if !p.tx.tryAcquire() {
		return 0, serial.ErrWouldBlock
	}
	defer p.tx.release()
	return serial.TryTransmitBuffer(d, buf)
}
