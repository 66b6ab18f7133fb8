package savefile

import (
	"bytes"
	"testing"

	"github.com/widberg/serioussave/internal/endian"
	"github.com/widberg/serioussave/internal/xerrors"
	"github.com/widberg/serioussave/keyring"
)

func TestGuessMemoryStreamName(t *testing.T) {
	cases := []struct {
		fileName string
		want     string
		ok       bool
	}{
		{"PlayerProfile.dat", "<memory stream:PlayerProfile.dat>", true},
		{"PlayerProfile_unrestricted.dat", "<memory stream:PlayerProfile_unrestricted.dat>", true},
		{"All.dat", "Content/Talos/All.dat", true},
		{"DLC.dat", "Content/Talos/DLC.dat", true},
		{"save0001.dat", "", false},
	}
	for _, c := range cases {
		got, ok := GuessMemoryStreamName(c.fileName)
		if ok != c.ok || got != c.want {
			t.Errorf("GuessMemoryStreamName(%q) = (%q, %v), want (%q, %v)", c.fileName, got, ok, c.want, c.ok)
		}
	}
}

func TestCreateExtractRoundTripUnsigned(t *testing.T) {
	input := []byte("raw ctsemeta payload bytes")

	var buf bytes.Buffer
	err := Create(&buf, input, CreateOptions{
		Endian:  endian.Little(),
		Version: 1,
		NoSign:  true,
		Gzip:    false,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := Extract(buf.Bytes(), ExtractOptions{
		Endian: endian.Little(),
		Gzip:   false,
	})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if !bytes.Equal(got, input) {
		t.Fatalf("Extract = %q, want %q", got, input)
	}
}

// seekBuffer is a minimal in-memory io.WriteSeeker for exercising the gzip
// path, which needs to backpatch sizes after the stream is finalized.
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

func TestCreateExtractRoundTripGzipSigned(t *testing.T) {
	ring := keyring.Default()
	input := []byte("gzip-wrapped, signed ctsemeta payload")

	sb := &seekBuffer{}
	err := Create(sb, input, CreateOptions{
		Endian:      endian.Little(),
		KeyRing:     ring,
		SignKeyName: keyring.SignKeyGameLocal,
		Version:     5,
		Gzip:        true,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := Extract(sb.data, ExtractOptions{
		Endian:  endian.Little(),
		KeyRing: ring,
		Gzip:    true,
	})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if !bytes.Equal(got, input) {
		t.Fatalf("Extract = %q, want %q", got, input)
	}
}

func TestCreateGzipRequiresSeekableWriter(t *testing.T) {
	var buf bytes.Buffer // bytes.Buffer is not an io.Seeker
	err := Create(&buf, []byte("data"), CreateOptions{
		Endian: endian.Little(),
		Gzip:   true,
		NoSign: true,
	})
	if !xerrors.Is(err, xerrors.Io) {
		t.Fatalf("Create with non-seekable writer and Gzip=true: err = %v, want an Io-kind error", err)
	}
}

func TestNewBytesSource(t *testing.T) {
	data := []byte{1, 2, 3}
	src := NewBytes(data)
	if !bytes.Equal(src.Bytes(), data) {
		t.Fatalf("Bytes() = %v, want %v", src.Bytes(), data)
	}
	if err := src.Close(); err != nil {
		t.Fatalf("Close on a non-mmap source: %v", err)
	}
}
