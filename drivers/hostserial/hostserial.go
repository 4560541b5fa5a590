// Package hostserial exposes an operating-system serial device (USB CDC,
// FTDI, /dev/tty*, COMn) through the byte-wide capabilities of package
// serial, on top of go.bug.st/serial.
//
// The OS driver offers blocking reads with an optional read timeout, so the
// port implements BlockingRx, TimeoutRx and BlockingTx. It does not offer
// the non-blocking forms.
package hostserial

import (
	"time"

	"embedded-serial-go/errcode"
	"embedded-serial-go/serial"

	bugst "go.bug.st/serial"
)

// MinTimeout is the shortest read timeout passed to the OS. Shorter
// timeouts, including zero, are raised to it.
const MinTimeout = time.Millisecond

// portIO is the subset of go.bug.st/serial.Port used here.
type portIO interface {
	Read(p []byte) (int, error)
	Write(p []byte) (int, error)
	Close() error
	SetReadTimeout(d time.Duration) error
}

// DefaultMode is 115200 baud, 8N1.
func DefaultMode() *bugst.Mode {
	return &bugst.Mode{
		BaudRate: 115200,
		DataBits: 8,
		Parity:   bugst.NoParity,
		StopBits: bugst.OneStopBit,
	}
}

// Port is an open host serial device.
type Port struct {
	name string
	io   portIO
	rto  time.Duration // last timeout set on io; 0 until first set
	rb   [1]byte
	wb   [1]byte
}

var (
	_ serial.BlockingRx[byte]       = (*Port)(nil)
	_ serial.TimeoutRx[byte]        = (*Port)(nil)
	_ serial.BlockingTx[byte]       = (*Port)(nil)
	_ serial.BlockingRxBuffer[byte] = (*Port)(nil)
	_ serial.TimeoutRxBuffer[byte]  = (*Port)(nil)
	_ serial.BlockingTxBuffer[byte] = (*Port)(nil)
)

// Open opens the named device. A nil mode means DefaultMode.
func Open(name string, mode *bugst.Mode) (*Port, error) {
	if name == "" {
		return nil, &errcode.E{C: errcode.InvalidParams, Op: "hostserial.Open", Msg: "empty device name"}
	}
	if mode == nil {
		mode = DefaultMode()
	}
	p, err := bugst.Open(name, mode)
	if err != nil {
		return nil, &errcode.E{C: errcode.Error, Op: "hostserial.Open", Msg: name, Err: err}
	}
	return newPort(name, p), nil
}

func newPort(name string, io portIO) *Port { return &Port{name: name, io: io} }

// List returns the serial device names the OS reports.
func List() ([]string, error) {
	names, err := bugst.GetPortsList()
	if err != nil {
		return nil, &errcode.E{C: errcode.Error, Op: "hostserial.List", Err: err}
	}
	return names, nil
}

func (p *Port) Name() string { return p.name }

func (p *Port) Close() error { return p.io.Close() }

func (p *Port) setTimeout(d time.Duration) error {
	if d != bugst.NoTimeout && d < MinTimeout {
		d = MinTimeout
	}
	if d == p.rto {
		return nil
	}
	if err := p.io.SetReadTimeout(d); err != nil {
		return err
	}
	p.rto = d
	return nil
}

// ---- RX ----

func (p *Port) Receive() (byte, error) {
	if _, err := p.ReceiveBuffer(p.rb[:]); err != nil {
		return 0, err
	}
	return p.rb[0], nil
}

func (p *Port) ReceiveBuffer(buf []byte) (int, error) {
	if err := p.setTimeout(bugst.NoTimeout); err != nil {
		return 0, err
	}
	n := 0
	for n < len(buf) {
		k, err := p.io.Read(buf[n:])
		n += k
		if err != nil {
			return n, err
		}
	}
	return n, nil
}

func (p *Port) ReceiveTimeout(d time.Duration) (byte, error) {
	if _, err := p.ReceiveBufferTimeout(p.rb[:], d); err != nil {
		return 0, err
	}
	return p.rb[0], nil
}

// ReceiveBufferTimeout bounds each read by d; a read that returns nothing
// within d ends the transfer with ErrTimedOut.
func (p *Port) ReceiveBufferTimeout(buf []byte, d time.Duration) (int, error) {
	if len(buf) == 0 {
		return 0, nil
	}
	if err := p.setTimeout(d); err != nil {
		return 0, err
	}
	n := 0
	for n < len(buf) {
		k, err := p.io.Read(buf[n:])
		n += k
		if err != nil {
			return n, err
		}
		if k == 0 {
			return n, serial.ErrTimedOut
		}
	}
	return n, nil
}

// ---- TX ----

func (p *Port) Transmit(b byte) error {
	p.wb[0] = b
	_, err := p.TransmitBuffer(p.wb[:])
	return err
}

func (p *Port) TransmitBuffer(buf []byte) (int, error) {
	n := 0
	for n < len(buf) {
		k, err := p.io.Write(buf[n:])
		n += k
		if err != nil {
			return n, err
		}
		if k == 0 {
			return n, &errcode.E{C: errcode.Error, Op: "hostserial.Write", Msg: p.name + ": no progress"}
		}
	}
	return n, nil
}
