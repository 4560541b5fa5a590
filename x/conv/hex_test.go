package conv

import "testing"

func TestU8Hex(t *testing.T) {
	var b [2]byte
	if got := string(U8Hex(b[:], 0x0F)); got != "0F" {
		t.Fatalf("got %q", got)
	}
	if got := U8Hex(b[:1], 0xFF); len(got) != 0 {
		t.Fatalf("short buffer got %q", got)
	}
}

func TestHexBytes(t *testing.T) {
	buf := make([]byte, 32)
	if got := string(HexBytes(buf, []byte{0x41, 0x00, 0xFE})); got != "41 00 FE" {
		t.Fatalf("got %q", got)
	}
	// Truncates at the last whole pair.
	if got := string(HexBytes(buf[:7], []byte{1, 2, 3})); got != "01 02" {
		t.Fatalf("truncated got %q", got)
	}
	if got := HexBytes(buf, nil); len(got) != 0 {
		t.Fatalf("empty got %q", got)
	}
}
