package signaturestream

import (
	"bytes"
	"crypto/rand"
	"crypto/rsa"
	"testing"

	"github.com/widberg/serioussave/internal/endian"
	"github.com/widberg/serioussave/keyring"
)

func testRing(t *testing.T, name string) (keyring.Ring, *rsa.PrivateKey) {
	t.Helper()
	priv, err := rsa.GenerateKey(rand.Reader, 1024)
	if err != nil {
		t.Fatalf("rsa.GenerateKey: %v", err)
	}
	return keyring.Ring{name: keyring.Keys{Public: &priv.PublicKey, Private: priv}}, priv
}

// TestHeaderSizeUnsignedV1 pins S2: a version-1, unsigned header is exactly
// magic (12 bytes) plus six u32 fields (24 bytes).
func TestHeaderSizeUnsignedV1(t *testing.T) {
	var buf bytes.Buffer
	payload := []byte{0x01, 0x02, 0x03}
	err := Write(&buf, WriteOptions{Endian: endian.Little(), Version: 1}, payload)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}

	const wantHeaderSize = 12 + 24
	if buf.Len() != wantHeaderSize+len(payload) {
		t.Fatalf("stream length = %d, want %d (header) + %d (body)", buf.Len(), wantHeaderSize, len(payload))
	}
	if !bytes.Equal(buf.Bytes()[:12], []byte(magic)) {
		t.Fatalf("magic = %q, want %q", buf.Bytes()[:12], magic)
	}
	if !bytes.Equal(buf.Bytes()[wantHeaderSize:], payload) {
		t.Fatalf("body = %v, want %v", buf.Bytes()[wantHeaderSize:], payload)
	}
}

func TestRoundTripUnsigned(t *testing.T) {
	var buf bytes.Buffer
	payload := []byte("player profile contents")
	if err := Write(&buf, WriteOptions{Endian: endian.Little(), Version: 1}, payload); err != nil {
		t.Fatalf("Write: %v", err)
	}

	got, err := Read(bytes.NewReader(buf.Bytes()), ReadOptions{Endian: endian.Little()})
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Fatalf("Read = %q, want %q", got, payload)
	}
}

func TestRoundTripSignedAndVerifies(t *testing.T) {
	ring, _ := testRing(t, "test-key")
	e := endian.Little()
	payload := make([]byte, BlockSize+100)
	for i := range payload {
		payload[i] = byte(i)
	}

	var buf bytes.Buffer
	opts := WriteOptions{
		Endian:  e,
		Version: 5,
		Sign:    &SignOptions{KeyRing: ring, SignKeyName: "test-key"},
	}
	if err := Write(&buf, opts, payload); err != nil {
		t.Fatalf("Write: %v", err)
	}

	got, err := Read(bytes.NewReader(buf.Bytes()), ReadOptions{Endian: e, KeyRing: ring})
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Fatalf("round trip payload mismatch: got %d bytes, want %d", len(got), len(payload))
	}
}

func TestFlippedSignatureByteWarnsNotFails(t *testing.T) {
	ring, _ := testRing(t, "test-key")
	e := endian.Little()
	payload := []byte("save data")

	var buf bytes.Buffer
	opts := WriteOptions{
		Endian:  e,
		Version: 5,
		Sign:    &SignOptions{KeyRing: ring, SignKeyName: "test-key"},
	}
	if err := Write(&buf, opts, payload); err != nil {
		t.Fatalf("Write: %v", err)
	}

	data := buf.Bytes()
	// The header signature bytes sit near the end of the header, well past
	// the fixed prefix; flip a byte in the middle of the stream to land
	// inside either the header or block signature without needing to
	// recompute offsets.
	flipAt := len(data) - len(payload) - 4
	data[flipAt] ^= 0xFF

	got, err := Read(bytes.NewReader(data), ReadOptions{Endian: e, KeyRing: ring})
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Fatalf("Read with flipped signature byte = %q, want unchanged payload %q", got, payload)
	}
}

// seekBuffer is an in-memory io.WriteSeeker, the minimum WriteGzip needs to
// backpatch the Extra field's sizes after the gzip body is finalized.
type seekBuffer struct {
	data []byte
	pos  int64
}

func (s *seekBuffer) Write(p []byte) (int, error) {
	end := s.pos + int64(len(p))
	if end > int64(len(s.data)) {
		grown := make([]byte, end)
		copy(grown, s.data)
		s.data = grown
	}
	copy(s.data[s.pos:end], p)
	s.pos = end
	return len(p), nil
}

func (s *seekBuffer) Seek(offset int64, whence int) (int64, error) {
	var base int64
	switch whence {
	case 0:
		base = 0
	case 1:
		base = s.pos
	case 2:
		base = int64(len(s.data))
	}
	s.pos = base + offset
	return s.pos, nil
}

func TestGzipRoundTrip(t *testing.T) {
	e := endian.Little()
	payload := []byte("a save that gets gzipped and backpatched")

	sb := &seekBuffer{}
	if err := WriteGzip(sb, WriteOptions{Endian: e, Version: 1}, payload); err != nil {
		t.Fatalf("WriteGzip: %v", err)
	}

	got, err := ReadGzip(bytes.NewReader(sb.data), ReadOptions{Endian: e})
	if err != nil {
		t.Fatalf("ReadGzip: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Fatalf("ReadGzip round trip = %q, want %q", got, payload)
	}
}
