package wire

import (
	"bytes"
	"io"
	"testing"

	"github.com/widberg/serioussave/internal/endian"
	"github.com/widberg/serioussave/internal/xerrors"
)

func TestStringRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	e := endian.Little()
	if err := WriteString(&buf, e, "Content/Talos/All.dat"); err != nil {
		t.Fatalf("WriteString: %v", err)
	}
	got, err := ReadString(&buf, e)
	if err != nil {
		t.Fatalf("ReadString: %v", err)
	}
	if got != "Content/Talos/All.dat" {
		t.Fatalf("ReadString = %q, want %q", got, "Content/Talos/All.dat")
	}
}

func TestStringRejectsInvalidUTF8(t *testing.T) {
	var buf bytes.Buffer
	e := endian.Little()
	if err := WriteBytes(&buf, e, []byte{0xff, 0xfe, 0xfd}); err != nil {
		t.Fatalf("WriteBytes: %v", err)
	}
	_, err := ReadString(&buf, e)
	if !xerrors.Is(err, xerrors.BadEncoding) {
		t.Fatalf("ReadString err = %v, want BadEncoding", err)
	}
}

func TestVectorRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	e := endian.Little()
	items := []uint32{1, 2, 3, 0xB1B}
	err := WriteVector(&buf, e, items, func(w io.Writer, e endian.Engine, v uint32) error {
		return WriteUint32(w, e, v)
	})
	if err != nil {
		t.Fatalf("WriteVector: %v", err)
	}
	got, err := ReadVector(&buf, e, ReadUint32)
	if err != nil {
		t.Fatalf("ReadVector: %v", err)
	}
	if len(got) != len(items) {
		t.Fatalf("ReadVector len = %d, want %d", len(got), len(items))
	}
	for i := range items {
		if got[i] != items[i] {
			t.Errorf("element %d = %d, want %d", i, got[i], items[i])
		}
	}
}

func TestEmptyVectorRejectsNonZero(t *testing.T) {
	var buf bytes.Buffer
	e := endian.Little()
	if err := WriteUint32(&buf, e, 3); err != nil {
		t.Fatalf("WriteUint32: %v", err)
	}
	err := ReadEmptyVector(&buf, e, "MSGS")
	if !xerrors.Is(err, xerrors.InvariantViolated) {
		t.Fatalf("ReadEmptyVector err = %v, want InvariantViolated", err)
	}
}

func TestFloat32RoundTrip(t *testing.T) {
	var buf bytes.Buffer
	e := endian.Big()
	if err := WriteFloat32(&buf, e, 3.5); err != nil {
		t.Fatalf("WriteFloat32: %v", err)
	}
	got, err := ReadFloat32(&buf, e)
	if err != nil {
		t.Fatalf("ReadFloat32: %v", err)
	}
	if got != 3.5 {
		t.Fatalf("ReadFloat32 = %v, want 3.5", got)
	}
}

func TestUnexpectedEOF(t *testing.T) {
	_, err := ReadUint32(bytes.NewReader([]byte{1, 2}), endian.Little())
	if !xerrors.Is(err, xerrors.UnexpectedEof) {
		t.Fatalf("ReadUint32 err = %v, want UnexpectedEof", err)
	}
}
