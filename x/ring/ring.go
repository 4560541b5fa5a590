// Package ring provides a single-producer, single-consumer ring of words
// for driver-internal FIFOs.
package ring

import "sync/atomic"

// Ring is a single-producer, single-consumer ring. One goroutine may write
// while another reads; neither side may be shared further. Readiness
// signalling is left to the owner.
type Ring[W any] struct {
	buf  []W
	mask uint32
	rd   atomic.Uint32 // consumer index (monotonic)
	wr   atomic.Uint32 // producer index (monotonic)
}

// New allocates a ring holding size words. size must be a power of two >= 2.
func New[W any](size int) *Ring[W] {
	if !IsPow2(size) || size < 2 {
		panic("ring: size must be power of two >= 2")
	}
	return &Ring[W]{
		buf:  make([]W, size),
		mask: uint32(size - 1),
	}
}

func (r *Ring[W]) size() uint32 { return uint32(len(r.buf)) }

// Cap returns the ring capacity in words.
func (r *Ring[W]) Cap() int { return len(r.buf) }

// Producer side

func (r *Ring[W]) Space() int {
	rd := r.rd.Load()
	wr := r.wr.Load()
	return int(r.size() - (wr - rd))
}

// Put stores one word. It reports false if the ring is full.
func (r *Ring[W]) Put(w W) bool {
	rd := r.rd.Load()
	wr := r.wr.Load()
	if wr-rd == r.size() {
		return false
	}
	r.buf[wr&r.mask] = w
	r.wr.Store(wr + 1) // release
	return true
}

// WriteFrom copies as much of src as fits and returns the count.
func (r *Ring[W]) WriteFrom(src []W) (n int) {
	if len(src) == 0 {
		return 0
	}
	rd := r.rd.Load()
	wr := r.wr.Load()
	beforeAvail := wr - rd
	space := int(r.size() - beforeAvail)
	if space <= 0 {
		return 0
	}
	if len(src) < space {
		space = len(src)
	}
	n = space

	size := r.size()
	wrIdx := wr & r.mask
	first := int(size - wrIdx)
	if first > n {
		first = n
	}
	copy(r.buf[wrIdx:wrIdx+uint32(first)], src[:first])
	if second := n - first; second > 0 {
		copy(r.buf[:second], src[first:n])
	}
	r.wr.Store(wr + uint32(n)) // release
	return n
}

// Consumer side

func (r *Ring[W]) Available() int {
	rd := r.rd.Load()
	wr := r.wr.Load()
	return int(wr - rd)
}

// Get removes one word. It reports false if the ring is empty.
func (r *Ring[W]) Get() (w W, ok bool) {
	rd := r.rd.Load()
	wr := r.wr.Load() // acquire
	if wr == rd {
		return w, false
	}
	w = r.buf[rd&r.mask]
	r.rd.Store(rd + 1) // release
	return w, true
}

// ReadInto copies up to len(dst) words out and returns the count.
func (r *Ring[W]) ReadInto(dst []W) (n int) {
	if len(dst) == 0 {
		return 0
	}
	rd := r.rd.Load()
	wr := r.wr.Load() // acquire
	avail := int(wr - rd)
	if avail <= 0 {
		return 0
	}
	if len(dst) < avail {
		avail = len(dst)
	}
	n = avail

	size := r.size()
	rdIdx := rd & r.mask
	first := int(size - rdIdx)
	if first > n {
		first = n
	}
	copy(dst[:first], r.buf[rdIdx:rdIdx+uint32(first)])
	if second := n - first; second > 0 {
		copy(dst[first:n], r.buf[:second])
	}
	r.rd.Store(rd + uint32(n)) // release
	return n
}

// IsPow2 reports whether n is a positive power of two.
func IsPow2(n int) bool { return n > 0 && (n&(n-1)) == 0 }

// CoalescePow2 returns v if it is a usable ring size, otherwise d.
func CoalescePow2(v, d int) int {
	if v <= 0 || !IsPow2(v) {
		return d
	}
	if v < 2 {
		return 2
	}
	return v
}
