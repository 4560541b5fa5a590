// Package waitx turns a non-blocking attempt into a suspending one for
// drivers. The attempt is retried when the driver's readiness edge fires or
// a poll interval elapses, so the caller's goroutine parks instead of
// spinning.
//
// Deadlines use time.Timer, which runs on the monotonic clock. When a
// deadline fires, one last attempt is made: a word or a fault seen by that
// attempt is reported instead of the timeout.
package waitx

import (
	"context"
	"errors"
	"time"

	"embedded-serial-go/errcode"
)

// DefaultInterval is the re-check period used when a Signal has no
// readiness channel and no interval of its own.
const DefaultInterval = time.Millisecond

// Signal tells the wait loop when to retry.
type Signal struct {
	// Ready is a coalesced edge channel; nil if the driver has none.
	Ready <-chan struct{}
	// Interval re-checks even without an edge. Zero means DefaultInterval
	// when Ready is nil and no periodic re-check otherwise.
	Interval time.Duration
}

func (s Signal) interval() time.Duration {
	if s.Interval > 0 {
		return s.Interval
	}
	if s.Ready == nil {
		return DefaultInterval
	}
	return 0
}

func wouldBlock(err error) bool { return errors.Is(err, errcode.WouldBlock) }

// Block retries try until it returns anything but WouldBlock, or ctx ends.
// On ctx end it returns ctx.Err() unless the final attempt made progress or
// faulted.
func Block[T any](ctx context.Context, s Signal, try func() (T, error)) (T, error) {
	v, err := try()
	if !wouldBlock(err) {
		return v, err
	}
	var tick <-chan time.Time
	if iv := s.interval(); iv > 0 {
		t := time.NewTicker(iv)
		defer t.Stop()
		tick = t.C
	}
	for {
		select {
		case <-s.Ready:
		case <-tick:
		case <-ctx.Done():
			v, err = try()
			if wouldBlock(err) {
				var zero T
				return zero, ctx.Err()
			}
			return v, err
		}
		v, err = try()
		if !wouldBlock(err) {
			return v, err
		}
	}
}

// BlockTimeout retries try for at most d and returns errcode.TimedOut if no
// attempt got past WouldBlock. d <= 0 makes a single attempt.
func BlockTimeout[T any](d time.Duration, s Signal, try func() (T, error)) (T, error) {
	v, err := try()
	if !wouldBlock(err) {
		return v, err
	}
	var zero T
	if d <= 0 {
		return zero, errcode.TimedOut
	}
	deadline := time.NewTimer(d)
	defer deadline.Stop()

	var tick <-chan time.Time
	if iv := s.interval(); iv > 0 {
		t := time.NewTicker(iv)
		defer t.Stop()
		tick = t.C
	}
	for {
		select {
		case <-s.Ready:
		case <-tick:
		case <-deadline.C:
			v, err = try()
			if wouldBlock(err) {
				return zero, errcode.TimedOut
			}
			return v, err
		}
		v, err = try()
		if !wouldBlock(err) {
			return v, err
		}
	}
}

// BlockErr is Block for attempts with no result value.
func BlockErr(ctx context.Context, s Signal, try func() error) error {
	_, err := Block(ctx, s, func() (struct{}, error) { return struct{}{}, try() })
	return err
}

// BlockTimeoutErr is BlockTimeout for attempts with no result value.
func BlockTimeoutErr(d time.Duration, s Signal, try func() error) error {
	_, err := BlockTimeout(d, s, func() (struct{}, error) { return struct{}{}, try() })
	return err
}
