// Package lineio runs bounded reader goroutines over non-blocking serial
// receivers and delivers what arrives as events, either as raw chunks or
// split into lines.
package lineio

import (
	"context"
	"sync"
	"time"

	"embedded-serial-go/errcode"
	"embedded-serial-go/serial"
	"embedded-serial-go/x/mathx"
	"embedded-serial-go/x/timex"
)

const (
	ModeBytes = "bytes"
	ModeLines = "lines"
)

// Frame bounds. MaxFrame is clamped into [MinFrame, MaxFrameLimit].
const (
	MinFrame      = 8
	MaxFrameLimit = 256
	maxIdleFlush  = 2 * time.Second
	defaultPoll   = 10 * time.Millisecond
)

type Event struct {
	DevID string
	Dir   string // "rx" | "tx"
	Data  []byte
	TS    time.Time
	Err   error // receive fault; Data is empty
}

type ReaderCfg struct {
	DevID string
	Port  serial.NonBlockingRx[byte]
	// Ready is the port's readiness edge, if it has one.
	Ready <-chan struct{}
	Mode  string // ModeBytes | ModeLines
	// MaxFrame bounds chunk and line length. Clamped 8..256; zero means 256.
	MaxFrame int
	// IdleFlush emits a partial line after this much silence (lines mode).
	// Clamped 0..2s; zero disables.
	IdleFlush time.Duration
	// PollInterval re-checks the port without an edge. Default 10 ms when
	// Ready is nil; otherwise zero (edge only).
	PollInterval time.Duration
}

type Worker struct {
	outQ chan Event

	mu     sync.Mutex
	frames map[string]int
}

func New(outBuf int) *Worker {
	if outBuf <= 0 {
		outBuf = 64
	}
	return &Worker{outQ: make(chan Event, outBuf), frames: make(map[string]int)}
}

func (w *Worker) Events() <-chan Event { return w.outQ }

func (w *Worker) emit(ev Event) {
	select {
	case w.outQ <- ev:
	default:
		// drop if consumer is slow
	}
}

// Register starts a bounded reader goroutine for a port. Returns cancel.
func (w *Worker) Register(ctx context.Context, cfg ReaderCfg) (func(), error) {
	if cfg.Port == nil {
		return nil, &errcode.E{C: errcode.InvalidParams, Op: "lineio.Register", Msg: "nil port"}
	}
	if cfg.Mode == "" {
		cfg.Mode = ModeBytes
	}
	if cfg.Mode != ModeBytes && cfg.Mode != ModeLines {
		return nil, &errcode.E{C: errcode.InvalidParams, Op: "lineio.Register", Msg: "mode " + cfg.Mode}
	}
	max := cfg.MaxFrame
	if max == 0 {
		max = MaxFrameLimit
	}
	max = mathx.Clamp(max, MinFrame, MaxFrameLimit)
	idle := mathx.Clamp(cfg.IdleFlush, 0, maxIdleFlush)
	poll := cfg.PollInterval
	if poll <= 0 && cfg.Ready == nil {
		poll = defaultPoll
	}

	w.mu.Lock()
	w.frames[cfg.DevID] = max
	w.mu.Unlock()

	cctx, cancel := context.WithCancel(ctx)
	go w.run(cctx, cfg, max, idle, poll)

	return func() {
		cancel()
		w.mu.Lock()
		delete(w.frames, cfg.DevID)
		w.mu.Unlock()
	}, nil
}

func (w *Worker) run(ctx context.Context, cfg ReaderCfg, max int, idle, poll time.Duration) {
	buf := make([]byte, max)
	var line []byte
	lines := cfg.Mode == ModeLines

	timer := timex.StoppedTimer()
	defer timer.Stop()

	var tick <-chan time.Time
	if poll > 0 {
		t := time.NewTicker(poll)
		defer t.Stop()
		tick = t.C
	}

	flush := func(now time.Time) {
		if len(line) == 0 {
			return
		}
		payload := append([]byte(nil), line...)
		line = line[:0]
		w.emit(Event{DevID: cfg.DevID, Dir: "rx", Data: payload, TS: now})
	}

	// drain empties the port. It reports whether any byte arrived.
	drain := func() bool {
		got := false
		for {
			n, err := serial.TryReceiveBuffer(cfg.Port, buf)
			if n > 0 {
				got = true
				now := time.Now()
				if lines {
					for _, b := range buf[:n] {
						switch b {
						case '\n':
							flush(now)
						case '\r':
						default:
							if len(line) < max {
								line = append(line, b)
							}
						}
					}
				} else {
					w.emit(Event{DevID: cfg.DevID, Dir: "rx", Data: append([]byte(nil), buf[:n]...), TS: now})
				}
			}
			switch {
			case err == nil:
				continue
			case serial.IsWouldBlock(err):
				return got
			default:
				w.emit(Event{DevID: cfg.DevID, Dir: "rx", TS: time.Now(), Err: err})
				return got
			}
		}
	}

	for {
		if drain() {
			// Arm idle flush only when needed.
			if lines && len(line) > 0 && idle > 0 {
				timex.ResetTimer(timer, idle)
			} else {
				timer.Stop()
				timex.DrainTimer(timer)
			}
		}
		select {
		case <-ctx.Done():
			return
		case <-cfg.Ready:
		case <-tick:
		case <-timer.C:
			flush(time.Now())
		}
	}
}

// EmitTX publishes a TX echo event, split into frames of the device's
// registered MaxFrame.
func (w *Worker) EmitTX(devID string, data []byte) {
	w.mu.Lock()
	max, ok := w.frames[devID]
	w.mu.Unlock()
	if !ok {
		max = MaxFrameLimit
	}
	now := time.Now()
	for len(data) > 0 {
		k := min(len(data), max)
		w.emit(Event{DevID: devID, Dir: "tx", Data: append([]byte(nil), data[:k]...), TS: now})
		data = data[k:]
	}
}
