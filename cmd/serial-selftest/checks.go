package main

import (
	"bytes"
	"time"

	"embedded-serial-go/serial"
	"embedded-serial-go/x/conv"
)

// port is what every check needs: a blocking transmitter wired to a
// receiver with timeouts.
type port interface {
	serial.BlockingTx[byte]
	serial.TimeoutRx[byte]
}

func runAll(tx serial.BlockingTx[byte], rx serial.TimeoutRx[byte]) bool {
	ok := true

	println("[serial] smoke: send 'hello-serial' and verify")
	if smoke(tx, rx, []byte("hello-serial"), 500*time.Millisecond) {
		println("[serial] smoke: PASS")
	} else {
		println("[serial] smoke: FAIL")
		ok = false
	}

	println("[serial] integrity: 4096 bytes, chunk 64")
	if integrity(tx, rx, 4096, 64, 250*time.Millisecond) {
		println("[serial] integrity: PASS")
	} else {
		println("[serial] integrity: FAIL")
		ok = false
	}

	println("[serial] throughput: 1s, chunk 256, concurrent R/W")
	if throughput(tx, rx, time.Second, 256, 250*time.Millisecond) {
		println("[serial] throughput: PASS")
	} else {
		println("[serial] throughput: FAIL")
		ok = false
	}

	println("[serial] timeout: idle receive, 50ms")
	if idleTimeout(rx, 50*time.Millisecond) {
		println("[serial] timeout: PASS")
	} else {
		println("[serial] timeout: FAIL")
		ok = false
	}

	ntx, okTx := tx.(serial.NonBlockingTx[byte])
	nrx, okRx := rx.(serial.NonBlockingRx[byte])
	if okTx && okRx {
		println("[serial] partial: non-blocking resume")
		if partial(ntx, nrx, []byte("partial-progress"), 7) {
			println("[serial] partial: PASS")
		} else {
			println("[serial] partial: FAIL")
			ok = false
		}
	} else {
		println("[serial] partial: skipped (port has no non-blocking pair)")
	}
	return ok
}

// Smoke test: send msg and read exactly len(msg) bytes back.
func smoke(tx serial.BlockingTx[byte], rx serial.TimeoutRx[byte], msg []byte, perByte time.Duration) bool {
	if _, err := serial.TransmitBuffer(tx, msg); err != nil {
		println("[serial] smoke: transmit:", err.Error())
		return false
	}
	got := make([]byte, len(msg))
	n, err := serial.ReceiveBufferTimeout(rx, got, perByte)
	if err != nil {
		println("[serial] smoke: received", n, "bytes:", err.Error())
		return false
	}
	if !bytes.Equal(got, msg) {
		println("[serial] smoke: got", string(conv.HexBytes(make([]byte, 3*len(got)), got)))
		return false
	}
	return true
}

// Integrity test: send a deterministic stream from a writer goroutine;
// compare FNV-1a hashes.
func integrity(tx serial.BlockingTx[byte], rx serial.TimeoutRx[byte], totalBytes, chunk int, perByte time.Duration) bool {
	const off = uint32(2166136261)
	const prime = uint32(16777619)

	txHash := make(chan uint32, 1)
	go func() {
		gen := patternGenerator(0xA5)
		h := off
		out := make([]byte, chunk)
		for written := 0; written < totalBytes; {
			k := min(chunk, totalBytes-written)
			fillPattern(out[:k], &gen)
			n, err := serial.TransmitBuffer(tx, out[:k])
			for i := 0; i < n; i++ {
				h ^= uint32(out[i])
				h *= prime
			}
			written += n
			if err != nil {
				println("[serial] integrity: transmit:", err.Error())
				break
			}
		}
		txHash <- h
	}()

	rxHash := off
	in := make([]byte, chunk)
	received := 0
	for received < totalBytes {
		n, err := serial.ReceiveBufferTimeout(rx, in[:min(chunk, totalBytes-received)], perByte)
		for i := 0; i < n; i++ {
			rxHash ^= uint32(in[i])
			rxHash *= prime
		}
		received += n
		if err != nil {
			println("[serial] integrity: receive:", err.Error())
			break
		}
	}
	th := <-txHash
	println("[serial] integrity: received=", received)
	println("[serial] integrity: txHash=", th, " rxHash=", rxHash)
	return received == totalBytes && th == rxHash
}

// Throughput test: a writer goroutine streams chunks for d while the caller
// reads; the reader stops once the writer is done and the line goes idle.
func throughput(tx serial.BlockingTx[byte], rx serial.TimeoutRx[byte], d time.Duration, chunk int, perByte time.Duration) bool {
	out := make([]byte, chunk)
	gen := patternGenerator(0x42)
	fillPattern(out, &gen)

	start := time.Now()
	wrote := make(chan int, 1)
	go func() {
		written := 0
		for time.Since(start) < d {
			out[0] ^= gen.next()
			n, err := serial.TransmitBuffer(tx, out)
			written += n
			if err != nil {
				println("[serial] throughput: transmit:", err.Error())
				break
			}
		}
		wrote <- written
	}()

	in := make([]byte, chunk)
	received, written := 0, -1
	for {
		n, err := serial.ReceiveBufferTimeout(rx, in, perByte)
		received += n
		if err == nil {
			continue
		}
		if !serial.IsTimedOut(err) {
			println("[serial] throughput: receive:", err.Error())
			select {
			case written = <-wrote:
			case <-time.After(time.Second):
			}
			return false
		}
		if written >= 0 {
			break
		}
		select {
		case written = <-wrote:
		default:
		}
	}

	elapsed := time.Since(start)
	if elapsed <= 0 {
		elapsed = time.Nanosecond
	}
	println("[serial] throughput: TX bytes=", written, " (~", int64(written)*int64(time.Second)/int64(elapsed), " B/s)")
	println("[serial] throughput: RX bytes=", received, " (~", int64(received)*int64(time.Second)/int64(elapsed), " B/s)")
	return written > 0 && received == written
}

func idleTimeout(rx serial.TimeoutRx[byte], d time.Duration) bool {
	start := time.Now()
	_, err := rx.ReceiveTimeout(d)
	el := time.Since(start)
	if !serial.IsTimedOut(err) {
		if err != nil {
			println("[serial] timeout: unexpected:", err.Error())
		} else {
			println("[serial] timeout: unexpected byte on idle line")
		}
		return false
	}
	println("[serial] timeout: elapsed ms=", el.Milliseconds())
	return el >= d
}

// partial loads the first k bytes, expects a short non-blocking read, then
// finishes the transfer.
func partial(tx serial.NonBlockingTx[byte], rx serial.NonBlockingRx[byte], msg []byte, k int) bool {
	if n, err := serial.TryTransmitBuffer(tx, msg[:k]); n != k || err != nil {
		return false
	}
	got := make([]byte, len(msg))
	n, err := serial.TryReceiveBuffer(rx, got)
	if n != k || !serial.IsWouldBlock(err) {
		println("[serial] partial: first read n=", n)
		return false
	}
	if m, err := serial.TryTransmitBuffer(tx, msg[k:]); m != len(msg)-k || err != nil {
		return false
	}
	m, err := serial.TryReceiveBuffer(rx, got[k:])
	return m == len(msg)-k && err == nil && bytes.Equal(got, msg)
}

// --- tiny utilities (no fmt) ---

// Simple deterministic pattern generator (xorshift8 over byte).
type patGen struct{ s byte }

func patternGenerator(seed byte) patGen { return patGen{s: seed} }
func (g *patGen) next() byte {
	x := g.s
	x ^= x << 3
	x ^= x >> 5
	x ^= x << 1
	g.s = x
	return x
}
func fillPattern(dst []byte, g *patGen) {
	for i := 0; i < len(dst); i++ {
		dst[i] = g.next()
	}
}
