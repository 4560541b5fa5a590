package serial

import "time"

// Buffer operations move a slice of words by repeating the single-word
// primitive. All of them share one result contract:
//
//   - n == len(buf) if and only if err == nil;
//   - an early stop returns the words moved so far together with
//     ErrWouldBlock, ErrTimedOut or the driver's fault, unchanged;
//   - an empty buf returns (0, nil) without calling the driver.
//
// A driver may implement the matching *Buffer interface to move the whole
// slice at once (DMA, bulk FIFO access); it must keep the same contract.

type BlockingRxBuffer[W Word] interface {
	ReceiveBuffer(buf []W) (int, error)
}

type BlockingTxBuffer[W Word] interface {
	TransmitBuffer(buf []W) (int, error)
}

type TimeoutRxBuffer[W Word] interface {
	ReceiveBufferTimeout(buf []W, d time.Duration) (int, error)
}

type TimeoutTxBuffer[W Word] interface {
	TransmitBufferTimeout(buf []W, d time.Duration) (int, error)
}

type NonBlockingRxBuffer[W Word] interface {
	TryReceiveBuffer(buf []W) (int, error)
}

type NonBlockingTxBuffer[W Word] interface {
	TryTransmitBuffer(buf []W) (int, error)
}

// ReceiveBuffer fills buf from rx, blocking per word.
func ReceiveBuffer[W Word](rx BlockingRx[W], buf []W) (int, error) {
	if len(buf) == 0 {
		return 0, nil
	}
	if b, ok := rx.(BlockingRxBuffer[W]); ok {
		return b.ReceiveBuffer(buf)
	}
	for i := range buf {
		w, err := rx.Receive()
		if err != nil {
			return i, err
		}
		buf[i] = w
	}
	return len(buf), nil
}

// TransmitBuffer sends all of buf through tx, blocking per word.
func TransmitBuffer[W Word](tx BlockingTx[W], buf []W) (int, error) {
	if len(buf) == 0 {
		return 0, nil
	}
	if b, ok := tx.(BlockingTxBuffer[W]); ok {
		return b.TransmitBuffer(buf)
	}
	for i, w := range buf {
		if err := tx.Transmit(w); err != nil {
			return i, err
		}
	}
	return len(buf), nil
}

// ReceiveBufferTimeout fills buf from rx. d bounds the wait for each word,
// not the whole buffer.
func ReceiveBufferTimeout[W Word](rx TimeoutRx[W], buf []W, d time.Duration) (int, error) {
	if len(buf) == 0 {
		return 0, nil
	}
	if b, ok := rx.(TimeoutRxBuffer[W]); ok {
		return b.ReceiveBufferTimeout(buf, d)
	}
	for i := range buf {
		w, err := rx.ReceiveTimeout(d)
		if err != nil {
			return i, err
		}
		buf[i] = w
	}
	return len(buf), nil
}

// TransmitBufferTimeout sends buf through tx. d bounds the wait for each
// word.
func TransmitBufferTimeout[W Word](tx TimeoutTx[W], buf []W, d time.Duration) (int, error) {
	if len(buf) == 0 {
		return 0, nil
	}
	if b, ok := tx.(TimeoutTxBuffer[W]); ok {
		return b.TransmitBufferTimeout(buf, d)
	}
	for i, w := range buf {
		if err := tx.TransmitTimeout(w, d); err != nil {
			return i, err
		}
	}
	return len(buf), nil
}

// TryReceiveBuffer takes as many already-available words as fit in buf.
func TryReceiveBuffer[W Word](rx NonBlockingRx[W], buf []W) (int, error) {
	if len(buf) == 0 {
		return 0, nil
	}
	if b, ok := rx.(NonBlockingRxBuffer[W]); ok {
		return b.TryReceiveBuffer(buf)
	}
	for i := range buf {
		w, err := rx.TryReceive()
		if err != nil {
			return i, err
		}
		buf[i] = w
	}
	return len(buf), nil
}

// TryTransmitBuffer queues as much of buf as the hardware has room for.
func TryTransmitBuffer[W Word](tx NonBlockingTx[W], buf []W) (int, error) {
	if len(buf) == 0 {
		return 0, nil
	}
	if b, ok := tx.(NonBlockingTxBuffer[W]); ok {
		return b.TryTransmitBuffer(buf)
	}
	for i, w := range buf {
		if err := tx.TryTransmit(w); err != nil {
			return i, err
		}
	}
	return len(buf), nil
}
