// Package ctsemeta implements the inner CTSEMETA codec: a self-describing
// typed object tree whose shape is driven by an embedded type table (spec
// section 3.3/3.4). The structural skeleton (sections.go) is fixed; the
// value tree (value.go) is interpreted against whatever types the file
// itself defines, making this package a small interpreter over the type
// table rather than a fixed schema decoder.
package ctsemeta

import (
	"io"

	"github.com/widberg/serioussave/internal/endian"
	"github.com/widberg/serioussave/internal/xerrors"
)

// endianCookie discriminates the file's byte order: the four bytes right
// after the CTSEMETA magic, read/written in whatever order the caller
// declares.
const endianCookie uint32 = 0x1234ABCD

func readMagic(r io.Reader, literal string) error {
	buf := make([]byte, len(literal))
	if _, err := io.ReadFull(r, buf); err != nil {
		return xerrors.Wrap(xerrors.UnexpectedEof, "magic "+literal, err)
	}
	if string(buf) != literal {
		return xerrors.New(xerrors.BadMagic, "expected magic "+literal+", got "+string(buf))
	}
	return nil
}

func writeMagic(w io.Writer, literal string) error {
	if _, err := w.Write([]byte(literal)); err != nil {
		return xerrors.Wrap(xerrors.Io, "magic "+literal, err)
	}
	return nil
}

// readEndianCookie reads the 4-byte cookie and reports whether it matches
// the expected value under e — callers use this to validate the caller's
// asserted endianness against the file itself (spec invariant P5).
func readEndianCookie(r io.Reader, e endian.Engine) error {
	var buf [4]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return xerrors.Wrap(xerrors.UnexpectedEof, "endian cookie", err)
	}
	if e.Uint32(buf[:]) != endianCookie {
		return xerrors.New(xerrors.BadMagic, "endian cookie mismatch")
	}
	return nil
}

func writeEndianCookie(w io.Writer, e endian.Engine) error {
	var buf [4]byte
	e.PutUint32(buf[:], endianCookie)
	if _, err := w.Write(buf[:]); err != nil {
		return xerrors.Wrap(xerrors.Io, "endian cookie", err)
	}
	return nil
}
