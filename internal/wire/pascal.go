// Package wire implements the Pascal-prefixed primitives shared by the
// signature-stream container and the CTSEMETA codec: a u32 count followed
// by that many bytes or elements, no terminator, no padding.
package wire

import (
	"fmt"
	"io"
	"math"
	"unicode/utf8"

	"github.com/widberg/serioussave/internal/endian"
	"github.com/widberg/serioussave/internal/xerrors"
)

// ReadString reads a Pascal-prefixed UTF-8 string: a u32 byte count followed
// by that many bytes. It fails with BadEncoding if the bytes are not valid
// UTF-8.
func ReadString(r io.Reader, e endian.Engine) (string, error) {
	b, err := ReadBytes(r, e)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(b) {
		return "", xerrors.New(xerrors.BadEncoding, "pascal string is not valid UTF-8")
	}
	return string(b), nil
}

// WriteString writes a Pascal-prefixed string: a u32 byte count followed by
// the UTF-8 bytes.
func WriteString(w io.Writer, e endian.Engine, s string) error {
	return WriteBytes(w, e, []byte(s))
}

// ReadBytes reads a Pascal-prefixed byte vector: a u32 count followed by
// that many raw bytes.
func ReadBytes(r io.Reader, e endian.Engine) ([]byte, error) {
	n, err := ReadUint32(r, e)
	if err != nil {
		return nil, err
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, xerrors.Wrap(xerrors.UnexpectedEof, "pascal byte vector", err)
	}
	return buf, nil
}

// WriteBytes writes a Pascal-prefixed byte vector.
func WriteBytes(w io.Writer, e endian.Engine, b []byte) error {
	if err := WriteUint32(w, e, uint32(len(b))); err != nil {
		return err
	}
	if _, err := w.Write(b); err != nil {
		return xerrors.Wrap(xerrors.Io, "pascal byte vector", err)
	}
	return nil
}

// ReadVector reads a Pascal-prefixed vector of elements decoded by read, one
// at a time, in order.
func ReadVector[T any](r io.Reader, e endian.Engine, read func(io.Reader, endian.Engine) (T, error)) ([]T, error) {
	n, err := ReadUint32(r, e)
	if err != nil {
		return nil, err
	}
	out := make([]T, n)
	for i := range out {
		v, err := read(r, e)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		out[i] = v
	}
	return out, nil
}

// WriteVector writes a Pascal-prefixed vector of elements encoded by write,
// one at a time, in order.
func WriteVector[T any](w io.Writer, e endian.Engine, items []T, write func(io.Writer, endian.Engine, T) error) error {
	if err := WriteUint32(w, e, uint32(len(items))); err != nil {
		return err
	}
	for i, v := range items {
		if err := write(w, e, v); err != nil {
			return fmt.Errorf("element %d: %w", i, err)
		}
	}
	return nil
}

// ReadEmptyVector reads a Pascal-prefixed vector asserted to contain zero
// elements: its presence on the wire is part of the format even though it
// never carries data.
func ReadEmptyVector(r io.Reader, e endian.Engine, section string) error {
	n, err := ReadUint32(r, e)
	if err != nil {
		return err
	}
	if n != 0 {
		return xerrors.New(xerrors.InvariantViolated, fmt.Sprintf("%s: expected empty vector, got %d elements", section, n))
	}
	return nil
}

// WriteEmptyVector writes the zero count for a reserved, always-empty
// vector section.
func WriteEmptyVector(w io.Writer, e endian.Engine) error {
	return WriteUint32(w, e, 0)
}

func ReadUint8(r io.Reader) (uint8, error) {
	var buf [1]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, xerrors.Wrap(xerrors.UnexpectedEof, "u8", err)
	}
	return buf[0], nil
}

func WriteUint8(w io.Writer, v uint8) error {
	_, err := w.Write([]byte{v})
	if err != nil {
		return xerrors.Wrap(xerrors.Io, "u8", err)
	}
	return nil
}

func ReadUint16(r io.Reader, e endian.Engine) (uint16, error) {
	var buf [2]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, xerrors.Wrap(xerrors.UnexpectedEof, "u16", err)
	}
	return e.Uint16(buf[:]), nil
}

func WriteUint16(w io.Writer, e endian.Engine, v uint16) error {
	var buf [2]byte
	e.PutUint16(buf[:], v)
	if _, err := w.Write(buf[:]); err != nil {
		return xerrors.Wrap(xerrors.Io, "u16", err)
	}
	return nil
}

func ReadUint32(r io.Reader, e endian.Engine) (uint32, error) {
	var buf [4]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, xerrors.Wrap(xerrors.UnexpectedEof, "u32", err)
	}
	return e.Uint32(buf[:]), nil
}

func WriteUint32(w io.Writer, e endian.Engine, v uint32) error {
	var buf [4]byte
	e.PutUint32(buf[:], v)
	if _, err := w.Write(buf[:]); err != nil {
		return xerrors.Wrap(xerrors.Io, "u32", err)
	}
	return nil
}

func ReadInt32(r io.Reader, e endian.Engine) (int32, error) {
	v, err := ReadUint32(r, e)
	return int32(v), err
}

func WriteInt32(w io.Writer, e endian.Engine, v int32) error {
	return WriteUint32(w, e, uint32(v))
}

func ReadUint64(r io.Reader, e endian.Engine) (uint64, error) {
	var buf [8]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, xerrors.Wrap(xerrors.UnexpectedEof, "u64", err)
	}
	return e.Uint64(buf[:]), nil
}

func WriteUint64(w io.Writer, e endian.Engine, v uint64) error {
	var buf [8]byte
	e.PutUint64(buf[:], v)
	if _, err := w.Write(buf[:]); err != nil {
		return xerrors.Wrap(xerrors.Io, "u64", err)
	}
	return nil
}

func ReadInt64(r io.Reader, e endian.Engine) (int64, error) {
	v, err := ReadUint64(r, e)
	return int64(v), err
}

func WriteInt64(w io.Writer, e endian.Engine, v int64) error {
	return WriteUint64(w, e, uint64(v))
}

func ReadFloat32(r io.Reader, e endian.Engine) (float32, error) {
	v, err := ReadUint32(r, e)
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(v), nil
}

func WriteFloat32(w io.Writer, e endian.Engine, v float32) error {
	return WriteUint32(w, e, math.Float32bits(v))
}
