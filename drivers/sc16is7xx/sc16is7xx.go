// Package sc16is7xx drives the NXP SC16IS7xx family of I²C-bridged UARTs
// and exposes each channel through the capability interfaces of package
// serial.
//
// The bridge has 64-byte receive and transmit FIFOs whose fill levels are
// readable over the bus, so non-blocking calls map directly onto register
// reads. Blocking and timeout calls poll those levels at Config.PollInterval
// or wake on Config.Ready when the board routes the IRQ line.
//
// Line faults (overrun, parity, framing, break) are returned as *LineError.
// Bus errors from I2C.Tx are returned unchanged.
//
// NOTE: baud rate and frame format are left as configured by the caller
// (or the power-on defaults); this driver only enables the FIFOs.
package sc16is7xx

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"embedded-serial-go/errcode"
	"embedded-serial-go/serial"
	"embedded-serial-go/x/waitx"

	"tinygo.org/x/drivers"
)

// Errors matched by LineError via errors.Is.
var (
	ErrOverrun = errors.New("sc16is7xx: overrun")
	ErrParity  = errors.New("sc16is7xx: parity error")
	ErrFraming = errors.New("sc16is7xx: framing error")
	ErrBreak   = errors.New("sc16is7xx: break")
)

// LineError reports receive faults latched in the line status register.
// For parity, framing and break faults the offending byte is discarded so
// the next call makes progress.
type LineError struct {
	LSR uint8
}

func (e *LineError) Error() string {
	var parts []string
	for _, f := range e.faults() {
		parts = append(parts, strings.TrimPrefix(f.Error(), "sc16is7xx: "))
	}
	return "sc16is7xx: line fault: " + strings.Join(parts, ", ")
}

func (e *LineError) faults() []error {
	var out []error
	if e.LSR&lsrOverrun != 0 {
		out = append(out, ErrOverrun)
	}
	if e.LSR&lsrParity != 0 {
		out = append(out, ErrParity)
	}
	if e.LSR&lsrFraming != 0 {
		out = append(out, ErrFraming)
	}
	if e.LSR&lsrBreak != 0 {
		out = append(out, ErrBreak)
	}
	return out
}

func (e *LineError) Is(target error) bool {
	for _, f := range e.faults() {
		if f == target {
			return true
		}
	}
	return false
}

// Config controls addressing and wait behaviour. All fields are optional.
type Config struct {
	// Address defaults to 0x48 if zero.
	Address uint16
	// Channel selects A (0) or B (1) on dual-channel parts.
	Channel uint8
	// PollInterval between FIFO level checks while blocked. Default 1 ms.
	PollInterval time.Duration
	// Ready, if set, is signalled from the IRQ line handler and wakes
	// blocked calls before the next poll.
	Ready <-chan struct{}
}

// Device is one UART channel of an SC16IS7xx.
type Device struct {
	bus  drivers.I2C
	addr uint16
	ch   uint8
	sig  waitx.Signal

	// mu serialises bus transactions. Receive and transmit each own a
	// scratch buffer so the two directions can run from different
	// goroutines.
	mu     sync.Mutex
	rx, tx scratch
}

// Fixed buffers to avoid per-call heap allocations.
type scratch struct {
	w [1 + FIFODepth]byte
	r [1]byte
}

var (
	_ serial.BlockingDuplex[byte]      = (*Device)(nil)
	_ serial.TimeoutDuplex[byte]       = (*Device)(nil)
	_ serial.NonBlockingDuplex[byte]   = (*Device)(nil)
	_ serial.NonBlockingRxBuffer[byte] = (*Device)(nil)
	_ serial.NonBlockingTxBuffer[byte] = (*Device)(nil)
)

// New creates a Device. The I²C bus must already be configured. The chip is
// not touched until Configure.
func New(bus drivers.I2C, cfg Config) (*Device, error) {
	if cfg.Channel > 1 {
		return nil, &errcode.E{C: errcode.InvalidParams, Op: "sc16is7xx.New", Msg: "channel must be 0 or 1"}
	}
	addr := cfg.Address
	if addr == 0 {
		addr = AddressDefault
	}
	iv := cfg.PollInterval
	if iv <= 0 {
		iv = time.Millisecond
	}
	return &Device{
		bus:  bus,
		addr: addr,
		ch:   cfg.Channel,
		sig:  waitx.Signal{Ready: cfg.Ready, Interval: iv},
	}, nil
}

// Configure enables and clears both FIFOs.
func (d *Device) Configure() error {
	return d.writeReg(&d.tx, regFCR, fcrFIFOEnable|fcrResetRX|fcrResetTX)
}

// ---- register access ----

func (d *Device) xfer(w, r []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.bus.Tx(d.addr, w, r)
}

func (d *Device) readReg(s *scratch, reg uint8) (uint8, error) {
	s.w[0] = subaddr(reg, d.ch)
	if err := d.xfer(s.w[:1], s.r[:1]); err != nil {
		return 0, err
	}
	return s.r[0], nil
}

func (d *Device) writeReg(s *scratch, reg, val uint8) error {
	s.w[0] = subaddr(reg, d.ch)
	s.w[1] = val
	return d.xfer(s.w[:2], nil)
}

// lineStatus reads LSR and turns latched faults into a *LineError,
// discarding the faulty byte for character-level faults.
func (d *Device) lineStatus() (uint8, error) {
	lsr, err := d.readReg(&d.rx, regLSR)
	if err != nil {
		return 0, err
	}
	if lsr&lsrErrors == 0 {
		return lsr, nil
	}
	if lsr&lsrCharError != 0 {
		if _, err := d.readReg(&d.rx, regRHR); err != nil {
			return 0, err
		}
	}
	return lsr, &LineError{LSR: lsr & lsrErrors}
}

// ---- Non-blocking ----

func (d *Device) TryReceive() (byte, error) {
	lsr, err := d.lineStatus()
	if err != nil {
		return 0, err
	}
	if lsr&lsrDataReady == 0 {
		return 0, serial.ErrWouldBlock
	}
	return d.readReg(&d.rx, regRHR)
}

func (d *Device) TryTransmit(b byte) error {
	room, err := d.readReg(&d.tx, regTXLVL)
	if err != nil {
		return err
	}
	if room == 0 {
		return serial.ErrWouldBlock
	}
	return d.writeReg(&d.tx, regTHR, b)
}

// TryReceiveBuffer drains up to len(buf) bytes with one burst read of RHR.
// When the FIFO holds a faulty byte it falls back to byte-at-a-time reads
// so the fault is reported at its position.
func (d *Device) TryReceiveBuffer(buf []byte) (int, error) {
	if len(buf) == 0 {
		return 0, nil
	}
	lsr, err := d.lineStatus()
	if err != nil {
		return 0, err
	}
	if lsr&lsrFIFOError != 0 {
		return d.receiveEach(buf)
	}
	lvl, err := d.readReg(&d.rx, regRXLVL)
	if err != nil {
		return 0, err
	}
	n := min(int(lvl), len(buf))
	if n > 0 {
		d.rx.w[0] = subaddr(regRHR, d.ch)
		if err := d.xfer(d.rx.w[:1], buf[:n]); err != nil {
			return 0, err
		}
	}
	if n < len(buf) {
		return n, serial.ErrWouldBlock
	}
	return n, nil
}

func (d *Device) receiveEach(buf []byte) (int, error) {
	for i := range buf {
		b, err := d.TryReceive()
		if err != nil {
			return i, err
		}
		buf[i] = b
	}
	return len(buf), nil
}

// TryTransmitBuffer queues as much of buf as TXLVL allows in one burst.
func (d *Device) TryTransmitBuffer(buf []byte) (int, error) {
	if len(buf) == 0 {
		return 0, nil
	}
	room, err := d.readReg(&d.tx, regTXLVL)
	if err != nil {
		return 0, err
	}
	n := min(int(room), len(buf), FIFODepth)
	if n > 0 {
		d.tx.w[0] = subaddr(regTHR, d.ch)
		copy(d.tx.w[1:], buf[:n])
		if err := d.xfer(d.tx.w[:1+n], nil); err != nil {
			return 0, err
		}
	}
	if n < len(buf) {
		return n, serial.ErrWouldBlock
	}
	return n, nil
}

// ---- Blocking ----

func (d *Device) Receive() (byte, error) {
	return waitx.Block(context.Background(), d.sig, d.TryReceive)
}

func (d *Device) Transmit(b byte) error {
	return waitx.BlockErr(context.Background(), d.sig, func() error { return d.TryTransmit(b) })
}

// ---- Blocking with timeout ----

func (d *Device) ReceiveTimeout(timeout time.Duration) (byte, error) {
	return waitx.BlockTimeout(timeout, d.sig, d.TryReceive)
}

func (d *Device) TransmitTimeout(b byte, timeout time.Duration) error {
	return waitx.BlockTimeoutErr(timeout, d.sig, func() error { return d.TryTransmit(b) })
}
