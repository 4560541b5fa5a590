package serialtest

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"embedded-serial-go/serial"
)

// CheckIdleWouldBlock calls TryReceive n times on a port with nothing
// pending, then loads w and expects exactly w back. Failed attempts must not
// disturb what a later call observes.
func CheckIdleWouldBlock[W serial.Word](rx serial.NonBlockingRx[W], load func(...W), w W, n int) error {
	for i := 0; i < n; i++ {
		if got, err := rx.TryReceive(); !serial.IsWouldBlock(err) {
			return fmt.Errorf("idle TryReceive #%d = %v, %v; want WouldBlock", i, got, err)
		}
	}
	load(w)
	got, err := rx.TryReceive()
	if err != nil || got != w {
		return fmt.Errorf("TryReceive after load = %v, %v; want %v", got, err, w)
	}
	if got, err := rx.TryReceive(); !serial.IsWouldBlock(err) {
		return fmt.Errorf("TryReceive after drain = %v, %v; want WouldBlock", got, err)
	}
	return nil
}

// CheckReceiveTimeout expects ReceiveTimeout(d) on a silent port to return
// exactly ErrTimedOut after at least d and no later than d+slack.
func CheckReceiveTimeout[W serial.Word](rx serial.TimeoutRx[W], d, slack time.Duration) error {
	start := time.Now()
	got, err := rx.ReceiveTimeout(d)
	el := time.Since(start)
	if !errors.Is(err, serial.ErrTimedOut) {
		return fmt.Errorf("ReceiveTimeout = %v, %v; want ErrTimedOut", got, err)
	}
	if el < d {
		return fmt.Errorf("timed out after %v, before the %v deadline", el, d)
	}
	if el > d+slack {
		return fmt.Errorf("timed out after %v, beyond %v+%v", el, d, slack)
	}
	return nil
}

// CheckRoundTrip transmits seq with TransmitBuffer and reads it back with
// ReceiveBuffer. tx and rx must be wired together (loopback). The transmit
// runs on its own goroutine so seq may exceed the driver's FIFO. If the
// receive fails, rx is drained for up to a second so that goroutine can
// finish; the error says when it could not.
func CheckRoundTrip[W serial.Word](tx serial.BlockingTx[W], rx serial.BlockingRx[W], seq []W) error {
	txDone := make(chan error, 1)
	go func() {
		n, err := serial.TransmitBuffer(tx, seq)
		if err == nil && n != len(seq) {
			err = fmt.Errorf("TransmitBuffer moved %d of %d without error", n, len(seq))
		}
		txDone <- err
	}()

	got := make([]W, len(seq))
	n, err := serial.ReceiveBuffer(rx, got)
	if err != nil {
		if !drainUntil(rx, txDone, time.Second) {
			return fmt.Errorf("ReceiveBuffer after %d words: %w (transmitter still blocked)", n, err)
		}
		return fmt.Errorf("ReceiveBuffer after %d words: %w", n, err)
	}
	if err := <-txDone; err != nil {
		return fmt.Errorf("TransmitBuffer: %w", err)
	}
	if i := firstDiff(seq, got); i >= 0 {
		return fmt.Errorf("round trip differs at %d: got %v want %v", i, got[i], seq[i])
	}
	return nil
}

// drainUntil discards received words until the transmitter reports done or
// d elapses, so a failed receive does not leave it parked on a full FIFO.
// Receivers without TryReceive are not drained. It reports whether the
// transmitter finished.
func drainUntil[W serial.Word](rx serial.BlockingRx[W], txDone <-chan error, d time.Duration) bool {
	deadline := time.After(d)
	nrx, canDrain := rx.(serial.NonBlockingRx[W])
	for {
		select {
		case <-txDone:
			return true
		case <-deadline:
			return false
		default:
		}
		if !canDrain {
			select {
			case <-txDone:
				return true
			case <-deadline:
				return false
			}
		}
		if _, err := nrx.TryReceive(); err != nil {
			time.Sleep(time.Millisecond)
		}
	}
}

// CheckPartialProgress loads seq[:k], expects a TryReceiveBuffer of
// len(seq) to stop at k with ErrWouldBlock, loads the rest, and expects a
// second call of len(seq)-k to complete the transfer without gaps or
// duplicates.
func CheckPartialProgress[W serial.Word](rx serial.NonBlockingRx[W], load func(...W), seq []W, k int) error {
	if k < 0 || k >= len(seq) {
		return fmt.Errorf("k=%d out of range for %d words", k, len(seq))
	}
	load(seq[:k]...)
	first := make([]W, len(seq))
	n, err := serial.TryReceiveBuffer(rx, first)
	if n != k || !serial.IsWouldBlock(err) {
		return fmt.Errorf("first TryReceiveBuffer = %d, %v; want %d, WouldBlock", n, err, k)
	}
	load(seq[k:]...)
	second := make([]W, len(seq)-k)
	n, err = serial.TryReceiveBuffer(rx, second)
	if n != len(second) || err != nil {
		return fmt.Errorf("second TryReceiveBuffer = %d, %v; want %d, nil", n, err, len(second))
	}
	all := append(first[:k:k], second...)
	if !slices.Equal(all, seq) {
		return fmt.Errorf("reassembled %v, want %v", all, seq)
	}
	return nil
}

func firstDiff[W comparable](want, got []W) int {
	for i := range want {
		if i >= len(got) || got[i] != want[i] {
			return i
		}
	}
	return -1
}
