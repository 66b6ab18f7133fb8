package endian

import "testing"

func TestSelect(t *testing.T) {
	if Select(true) != Big() {
		t.Fatalf("Select(true) should return the big-endian engine")
	}
	if Select(false) != Little() {
		t.Fatalf("Select(false) should return the little-endian engine")
	}
}

func TestLittleBigDiffer(t *testing.T) {
	buf := []byte{0x01, 0x00, 0x00, 0x00}
	if got := Little().Uint32(buf); got != 1 {
		t.Fatalf("Little().Uint32 = %d, want 1", got)
	}
	if got := Big().Uint32(buf); got != 0x01000000 {
		t.Fatalf("Big().Uint32 = %#x, want 0x01000000", got)
	}
}
