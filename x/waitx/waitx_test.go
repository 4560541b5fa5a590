package waitx

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"embedded-serial-go/errcode"
)

var errFraming = errors.New("framing")

func TestBlockTimeout_ExpiresWithTimedOut(t *testing.T) {
	var calls atomic.Int32
	try := func() (byte, error) {
		calls.Add(1)
		return 0, errcode.WouldBlock
	}
	const d = 20 * time.Millisecond
	start := time.Now()
	_, err := BlockTimeout(d, Signal{Interval: 2 * time.Millisecond}, try)
	el := time.Since(start)
	if err != errcode.TimedOut {
		t.Fatalf("err=%v want TimedOut", err)
	}
	if el < d {
		t.Fatalf("returned after %v, before the %v deadline", el, d)
	}
	if el > d+500*time.Millisecond {
		t.Fatalf("overran deadline: %v", el)
	}
	if calls.Load() < 2 {
		t.Fatalf("expected retries, got %d calls", calls.Load())
	}
}

func TestBlockTimeout_ZeroDurationSingleAttempt(t *testing.T) {
	var calls int
	_, err := BlockTimeout(0, Signal{}, func() (byte, error) {
		calls++
		return 0, errcode.WouldBlock
	})
	if err != errcode.TimedOut || calls != 1 {
		t.Fatalf("err=%v calls=%d", err, calls)
	}
}

func TestBlockTimeout_ReadyEdgeWakes(t *testing.T) {
	ready := make(chan struct{}, 1)
	var have atomic.Bool
	try := func() (byte, error) {
		if have.Load() {
			return 0x5A, nil
		}
		return 0, errcode.WouldBlock
	}
	go func() {
		time.Sleep(5 * time.Millisecond)
		have.Store(true)
		ready <- struct{}{}
	}()
	w, err := BlockTimeout(time.Second, Signal{Ready: ready}, try)
	if err != nil || w != 0x5A {
		t.Fatalf("got %#x,%v", w, err)
	}
}

func TestBlockTimeout_FaultAtDeadlineWins(t *testing.T) {
	// The fault only becomes visible once the deadline has passed; the final
	// attempt must surface it rather than TimedOut.
	const d = 10 * time.Millisecond
	start := time.Now()
	try := func() (byte, error) {
		if time.Since(start) >= d {
			return 0, errFraming
		}
		return 0, errcode.WouldBlock
	}
	_, err := BlockTimeout(d, Signal{Interval: time.Hour}, try)
	if !errors.Is(err, errFraming) {
		t.Fatalf("err=%v want framing fault", err)
	}
}

func TestBlock_ContextCancel(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	err := BlockErr(ctx, Signal{}, func() error { return errcode.WouldBlock })
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err=%v", err)
	}
}

func TestBlock_FaultPassesThrough(t *testing.T) {
	err := BlockErr(context.Background(), Signal{}, func() error { return errFraming })
	if err != errFraming {
		t.Fatalf("err=%v", err)
	}
}
