// Package conv formats numbers without fmt or strconv, for TinyGo builds.
package conv

const hexd = "0123456789ABCDEF"

// U8Hex writes 2-digit uppercase hex without 0x into buf.
func U8Hex(buf []byte, n uint8) []byte {
	if len(buf) < 2 {
		return buf[:0]
	}
	buf[0] = hexd[n>>4]
	buf[1] = hexd[n&0xF]
	return buf[:2]
}

// HexBytes writes b as space-separated hex pairs into buf and returns the
// used slice. Output stops at the last pair that fits.
func HexBytes(buf, b []byte) []byte {
	n := 0
	for i, v := range b {
		need := 2
		if i > 0 {
			need = 3
		}
		if n+need > len(buf) {
			break
		}
		if i > 0 {
			buf[n] = ' '
			n++
		}
		U8Hex(buf[n:], v)
		n += 2
	}
	return buf[:n]
}
