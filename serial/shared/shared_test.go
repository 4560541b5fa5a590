package shared

import (
	"errors"
	"sync"
	"testing"
	"time"

	"embedded-serial-go/drivers/loopback"
	"embedded-serial-go/serial"
	"embedded-serial-go/serial/serialtest"
)

func TestUnsupportedCapabilities(t *testing.T) {
	p := New[byte](serialtest.NewMock[byte]())
	c := p.Caps()
	if !c.NonBlockingRx || !c.NonBlockingTx || c.BlockingRx || c.TimeoutTx {
		t.Fatalf("caps=%+v", c)
	}
	if _, err := p.Receive(); !errors.Is(err, serial.ErrUnsupported) {
		t.Fatalf("Receive err=%v", err)
	}
	if err := p.TransmitTimeout('x', time.Millisecond); !errors.Is(err, serial.ErrUnsupported) {
		t.Fatalf("TransmitTimeout err=%v", err)
	}
	if _, err := p.ReceiveBuffer(make([]byte, 2)); !errors.Is(err, serial.ErrUnsupported) {
		t.Fatalf("ReceiveBuffer err=%v", err)
	}
	if !serial.IsFault(serial.ErrUnsupported) {
		t.Fatal("ErrUnsupported should classify as a fault")
	}
}

func TestForwardsToDriver(t *testing.T) {
	m := serialtest.NewMock[uint16]()
	p := New[uint16](m)
	m.Load(0x1A5)
	if w, err := p.TryReceive(); err != nil || w != 0x1A5 {
		t.Fatalf("TryReceive=%#x,%v", w, err)
	}
	if _, err := p.TryReceive(); !serial.IsWouldBlock(err) {
		t.Fatalf("idle err=%v", err)
	}
	if n, err := serial.TryTransmitBuffer[uint16](p, []uint16{0x100, 0x0FF}); n != 2 || err != nil {
		t.Fatalf("TryTransmitBuffer=%d,%v", n, err)
	}
	if got := m.Sent(); len(got) != 2 || got[0] != 0x100 || got[1] != 0x0FF {
		t.Fatalf("sent=%v", got)
	}
}

func TestTryReportsWouldBlockWhileHeld(t *testing.T) {
	p := New[byte](loopback.New[byte](loopback.Config{}))
	p.rx.acquire()
	if _, err := p.TryReceive(); !serial.IsWouldBlock(err) {
		t.Fatalf("TryReceive err=%v", err)
	}
	start := time.Now()
	if _, err := p.ReceiveTimeout(10 * time.Millisecond); !serial.IsTimedOut(err) {
		t.Fatalf("ReceiveTimeout err=%v", err)
	}
	if time.Since(start) < 10*time.Millisecond {
		t.Fatal("ReceiveTimeout returned before its deadline")
	}
	p.rx.release()
	// Transmit side is independent.
	if err := p.TryTransmit('a'); err != nil {
		t.Fatalf("TryTransmit err=%v", err)
	}
}

func TestConcurrentBuffersDoNotInterleave(t *testing.T) {
	lp := loopback.New[byte](loopback.Config{Size: 16})
	p := New[byte](lp)

	const writers, size = 4, 40
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(tag byte) {
			defer wg.Done()
			msg := make([]byte, size)
			for j := range msg {
				msg[j] = tag
			}
			if n, err := p.TransmitBuffer(msg); n != size || err != nil {
				t.Errorf("TransmitBuffer %c: %d,%v", tag, n, err)
			}
		}('A' + byte(i))
	}

	got := make([]byte, writers*size)
	if n, err := p.ReceiveBuffer(got); n != len(got) || err != nil {
		t.Fatalf("ReceiveBuffer=%d,%v", n, err)
	}
	wg.Wait()

	for blk := 0; blk < writers; blk++ {
		run := got[blk*size : (blk+1)*size]
		for _, b := range run {
			if b != run[0] {
				t.Fatalf("block %d interleaved: %q", blk, run)
			}
		}
	}
}

func TestBlockingReceiveWithTimeoutDriver(t *testing.T) {
	lp := loopback.New[byte](loopback.Config{})
	p := New[byte](lp)
	if err := serialtest.CheckReceiveTimeout[byte](p, 15*time.Millisecond, 500*time.Millisecond); err != nil {
		t.Fatal(err)
	}
	if err := serialtest.CheckRoundTrip[byte](p, p, []byte("shared loopback round trip")); err != nil {
		t.Fatal(err)
	}
}
