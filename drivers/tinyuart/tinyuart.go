// Package tinyuart adapts any tinygo drivers.UART (machine.UART, USB CDC,
// soft UARTs) to the byte-wide capabilities of package serial.
//
// drivers.UART has no readiness edge, so blocking receive polls Buffered at
// Config.PollInterval. Write on these ports blocks until queued, so
// transmit is offered as BlockingTx only.
package tinyuart

import (
	"context"
	"errors"
	"time"

	"embedded-serial-go/serial"
	"embedded-serial-go/x/waitx"

	"tinygo.org/x/drivers"
)

// Config is optional.
type Config struct {
	// PollInterval between Buffered checks while blocked. Default 1 ms.
	PollInterval time.Duration
}

// Port wraps a drivers.UART.
type Port struct {
	u   drivers.UART
	sig waitx.Signal
	rb  [1]byte
	wb  [1]byte
}

var (
	_ serial.BlockingRx[byte]          = (*Port)(nil)
	_ serial.TimeoutRx[byte]           = (*Port)(nil)
	_ serial.NonBlockingRx[byte]       = (*Port)(nil)
	_ serial.BlockingTx[byte]          = (*Port)(nil)
	_ serial.NonBlockingRxBuffer[byte] = (*Port)(nil)
	_ serial.BlockingTxBuffer[byte]    = (*Port)(nil)
)

var errNoProgress = errors.New("tinyuart: write made no progress")

func New(u drivers.UART, cfg Config) *Port {
	iv := cfg.PollInterval
	if iv <= 0 {
		iv = waitx.DefaultInterval
	}
	return &Port{u: u, sig: waitx.Signal{Interval: iv}}
}

func (p *Port) TryReceive() (byte, error) {
	if p.u.Buffered() == 0 {
		return 0, serial.ErrWouldBlock
	}
	n, err := p.u.Read(p.rb[:])
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, serial.ErrWouldBlock
	}
	return p.rb[0], nil
}

func (p *Port) TryReceiveBuffer(buf []byte) (int, error) {
	if len(buf) == 0 {
		return 0, nil
	}
	avail := p.u.Buffered()
	if avail == 0 {
		return 0, serial.ErrWouldBlock
	}
	n, err := p.u.Read(buf[:min(avail, len(buf))])
	if err != nil {
		return n, err
	}
	if n < len(buf) {
		return n, serial.ErrWouldBlock
	}
	return n, nil
}

func (p *Port) Receive() (byte, error) {
	return waitx.Block(context.Background(), p.sig, p.TryReceive)
}

func (p *Port) ReceiveTimeout(d time.Duration) (byte, error) {
	return waitx.BlockTimeout(d, p.sig, p.TryReceive)
}

func (p *Port) Transmit(b byte) error {
	p.wb[0] = b
	_, err := p.TransmitBuffer(p.wb[:])
	return err
}

func (p *Port) TransmitBuffer(buf []byte) (int, error) {
	n := 0
	for n < len(buf) {
		k, err := p.u.Write(buf[n:])
		n += k
		if err != nil {
			return n, err
		}
		if k == 0 {
			return n, errNoProgress
		}
	}
	return n, nil
}
