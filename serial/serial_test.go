package serial_test

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"embedded-serial-go/errcode"
	"embedded-serial-go/serial"
	"embedded-serial-go/serial/serialtest"
)

var errOverrun = errors.New("uart: overrun")

// --- scripted fakes ---

// script replays one result per call; past the end it returns final.
type script[W serial.Word] struct {
	words []W
	errs  []error // errs[i] != nil replaces words[i]
	final error
	calls int
}

func (s *script[W]) next() (W, error) {
	i := s.calls
	s.calls++
	var zero W
	if i >= len(s.words) {
		return zero, s.final
	}
	if i < len(s.errs) && s.errs[i] != nil {
		return zero, s.errs[i]
	}
	return s.words[i], nil
}

func (s *script[W]) Receive() (W, error) { return s.next() }
func (s *script[W]) ReceiveTimeout(time.Duration) (W, error) { return s.next() }
func (s *script[W]) TryReceive() (W, error) { return s.next() }
func (s *script[W]) Transmit(W) error { _, err := s.next(); return err }
func (s *script[W]) TransmitTimeout(W, time.Duration) error { _, err := s.next(); return err }
func (s *script[W]) TryTransmit(W) error { _, err := s.next(); return err }

var (
	_ serial.BlockingDuplex[byte]      = (*script[byte])(nil)
	_ serial.TimeoutDuplex[byte]       = (*script[byte])(nil)
	_ serial.NonBlockingDuplex[uint16] = (*script[uint16])(nil)
)

// bulk records whether the buffer override was used.
type bulk struct {
	script[byte]
	bulkCalls int
}

func (b *bulk) ReceiveBuffer(buf []byte) (int, error) {
	b.bulkCalls++
	for i := range buf {
		buf[i] = byte(i)
	}
	return len(buf), nil
}

// --- end-to-end scenario ---

func TestMock_PreloadedThenReloaded(t *testing.T) {
	m := serialtest.NewMock[byte]()
	m.Load(0x41, 0x42)

	for _, want := range []byte{0x41, 0x42} {
		got, err := m.TryReceive()
		if err != nil || got != want {
			t.Fatalf("TryReceive = %#x,%v want %#x", got, err, want)
		}
	}
	if _, err := m.TryReceive(); !errors.Is(err, serial.ErrWouldBlock) {
		t.Fatalf("third TryReceive err=%v want WouldBlock", err)
	}
	m.Load(0x43)
	if got, err := m.TryReceive(); err != nil || got != 0x43 {
		t.Fatalf("after reload TryReceive = %#x,%v", got, err)
	}
}

func TestMock_IdleWouldBlockIsIdempotent(t *testing.T) {
	m := serialtest.NewMock[byte]()
	if err := serialtest.CheckIdleWouldBlock[byte](m, m.Load, 0x7E, 5); err != nil {
		t.Fatal(err)
	}
}

func TestMock_PartialProgress(t *testing.T) {
	m := serialtest.NewMock[uint16]()
	seq := []uint16{0x100, 0x001, 0x1FF, 0x0AA, 0x155, 0x000}
	for k := 0; k < len(seq); k++ {
		if err := serialtest.CheckPartialProgress[uint16](m, m.Load, seq, k); err != nil {
			t.Fatalf("k=%d: %v", k, err)
		}
	}
}

// --- buffer layer ---

func TestReceiveBuffer_FaultReportsCount(t *testing.T) {
	s := &script[byte]{words: []byte{1, 2, 3, 4}, errs: []error{nil, nil, errOverrun}}
	buf := make([]byte, 4)
	n, err := serial.ReceiveBuffer[byte](s, buf)
	if n != 2 || err != errOverrun {
		t.Fatalf("n=%d err=%v want 2, overrun", n, err)
	}
	if buf[0] != 1 || buf[1] != 2 {
		t.Fatalf("buf=%v", buf)
	}
}

func TestTransmitBuffer_AllOrFault(t *testing.T) {
	s := &script[byte]{words: []byte{0, 0, 0}}
	n, err := serial.TransmitBuffer[byte](s, []byte("abc"))
	if n != 3 || err != nil {
		t.Fatalf("n=%d err=%v", n, err)
	}

	s = &script[byte]{words: []byte{0, 0}, errs: []error{nil, errOverrun}}
	n, err = serial.TransmitBuffer[byte](s, []byte("abc"))
	if n != 1 || !errors.Is(err, errOverrun) {
		t.Fatalf("n=%d err=%v", n, err)
	}
}

func TestReceiveBufferTimeout_StopsOnTimedOut(t *testing.T) {
	s := &script[byte]{words: []byte{9, 8}, final: serial.ErrTimedOut}
	buf := make([]byte, 5)
	n, err := serial.ReceiveBufferTimeout[byte](s, buf, time.Millisecond)
	if n != 2 || !serial.IsTimedOut(err) {
		t.Fatalf("n=%d err=%v", n, err)
	}
	if serial.IsFault(err) {
		t.Fatal("TimedOut classified as fault")
	}
}

func TestTransmitBufferTimeout_StopsOnTimedOut(t *testing.T) {
	s := &script[uint16]{words: []uint16{0}, final: serial.ErrTimedOut}
	n, err := serial.TransmitBufferTimeout[uint16](s, []uint16{0x1FF, 0x100}, time.Millisecond)
	if n != 1 || !serial.IsTimedOut(err) {
		t.Fatalf("n=%d err=%v", n, err)
	}
}

func TestTryTransmitBuffer_WouldBlockPartial(t *testing.T) {
	m := serialtest.NewMock[byte]()
	m.SetTxRoom(2)
	n, err := serial.TryTransmitBuffer[byte](m, []byte("hello"))
	if n != 2 || !serial.IsWouldBlock(err) {
		t.Fatalf("n=%d err=%v", n, err)
	}
	m.SetTxRoom(-1)
	n, err = serial.TryTransmitBuffer[byte](m, []byte("hello")[n:])
	if n != 3 || err != nil {
		t.Fatalf("resume n=%d err=%v", n, err)
	}
	if got := string(m.Sent()); got != "hello" {
		t.Fatalf("sent %q", got)
	}
}

func TestBuffer_EmptyDoesNotTouchDriver(t *testing.T) {
	s := &script[byte]{final: errOverrun}
	if n, err := serial.ReceiveBuffer[byte](s, nil); n != 0 || err != nil {
		t.Fatalf("ReceiveBuffer(nil) = %d,%v", n, err)
	}
	if n, err := serial.TryTransmitBuffer[byte](s, []byte{}); n != 0 || err != nil {
		t.Fatalf("TryTransmitBuffer(empty) = %d,%v", n, err)
	}
	if s.calls != 0 {
		t.Fatalf("driver called %d times", s.calls)
	}
}

func TestReceiveBuffer_UsesOverride(t *testing.T) {
	b := &bulk{}
	buf := make([]byte, 4)
	n, err := serial.ReceiveBuffer[byte](b, buf)
	if n != 4 || err != nil || b.bulkCalls != 1 || b.calls != 0 {
		t.Fatalf("n=%d err=%v bulk=%d single=%d", n, err, b.bulkCalls, b.calls)
	}
}

func TestFaultPassesThroughUnwrapped(t *testing.T) {
	m := serialtest.NewMock[byte]()
	m.Load(1)
	m.FailReceive(fmt.Errorf("%w", errOverrun))
	m.FailReceive(errors.New("x"))

	_, err := m.TryReceive()
	if !errors.Is(err, errOverrun) {
		t.Fatalf("err=%v", err)
	}
	n, err := serial.TryReceiveBuffer[byte](m, make([]byte, 3))
	if n != 0 || err == nil || err.Error() != "x" {
		t.Fatalf("n=%d err=%v", n, err)
	}
	if got, err := m.TryReceive(); got != 1 || err != nil {
		t.Fatalf("data after faults = %d,%v", got, err)
	}
}

// --- taxonomy ---

func TestClassification(t *testing.T) {
	cases := []struct {
		err                   error
		block, timeout, fault bool
	}{
		{nil, false, false, false},
		{serial.ErrWouldBlock, true, false, false},
		{serial.ErrTimedOut, false, true, false},
		{fmt.Errorf("rx: %w", serial.ErrTimedOut), false, true, false},
		{errOverrun, false, false, true},
		{serial.ErrUnsupported, false, false, true},
	}
	for _, c := range cases {
		if serial.IsWouldBlock(c.err) != c.block || serial.IsTimedOut(c.err) != c.timeout || serial.IsFault(c.err) != c.fault {
			t.Errorf("%v: block=%v timeout=%v fault=%v", c.err,
				serial.IsWouldBlock(c.err), serial.IsTimedOut(c.err), serial.IsFault(c.err))
		}
	}
	if errcode.Of(serial.ErrWouldBlock) != errcode.WouldBlock {
		t.Fatal("ErrWouldBlock code mismatch")
	}
}

func TestMask9(t *testing.T) {
	if uint16(0xFFFF)&serial.Mask9 != 0x1FF {
		t.Fatal("Mask9")
	}
}
