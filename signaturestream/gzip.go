package signaturestream

import (
	"encoding/binary"
	"io"

	"github.com/klauspost/compress/gzip"

	"github.com/widberg/serioussave/internal/xerrors"
)

// gzipHeaderSize is the byte offset of the body in a gzip stream carrying a
// 12-byte Extra field: 10 fixed header bytes + 2 bytes of XLEN + 12 bytes of
// extra data.
const gzipHeaderSize = 0x18

// gzipFooterSize is the trailing CRC32 + ISIZE footer every gzip member
// carries.
const gzipFooterSize = 0x8

// extraFieldSize is the length of the Croteam-specific Extra sub-field:
// "CT" + u16 field length (always 8) + u32 compressed size + u32
// decompressed size.
const extraFieldSize = 0xC

// extraFieldOffset is where the Extra sub-field begins within the gzip
// header, counted from the start of the stream.
const extraFieldOffset = 0xC

// ReadGzip decompresses a gzip-wrapped signature stream and parses it. The
// "CT" Extra sub-field carrying the compressed/decompressed sizes is
// informational only; decompression does not depend on it.
func ReadGzip(r io.Reader, opts ReadOptions) ([]byte, error) {
	gz, err := gzip.NewReader(r)
	if err != nil {
		return nil, xerrors.Wrap(xerrors.Io, "opening gzip envelope", err)
	}
	defer gz.Close()
	return Read(gz, opts)
}

// countingWriter tracks how many bytes have passed through it, the same
// running total the original encoder accumulates as decompressed_size while
// it writes the header and blocks.
type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	if err != nil {
		return n, xerrors.Wrap(xerrors.Io, "gzip body", err)
	}
	return n, nil
}

// WriteGzip writes data as a signature stream, gzip-compressed, with the
// Croteam "CT" Extra sub-field backpatched with the final compressed and
// decompressed sizes once the gzip member is complete. w must be seekable
// because the sizes are not known until the compressor has finished.
func WriteGzip(w io.WriteSeeker, opts WriteOptions, data []byte) error {
	gz, err := gzip.NewWriterLevel(w, gzip.DefaultCompression)
	if err != nil {
		return xerrors.Wrap(xerrors.Io, "creating gzip writer", err)
	}
	gz.Extra = make([]byte, extraFieldSize)
	gz.OS = 0 // matches the original encoder's operating_system(0)

	cw := &countingWriter{w: gz}
	if err := Write(cw, opts, data); err != nil {
		gz.Close()
		return err
	}
	decompressedSize := cw.n

	if err := gz.Close(); err != nil {
		return xerrors.Wrap(xerrors.Io, "finishing gzip envelope", err)
	}

	endPos, err := w.Seek(0, io.SeekCurrent)
	if err != nil {
		return xerrors.Wrap(xerrors.Io, "locating end of gzip stream", err)
	}
	compressedSize := endPos - gzipHeaderSize - gzipFooterSize
	if compressedSize < 0 {
		return xerrors.New(xerrors.InvariantViolated, "gzip stream shorter than its own header and footer")
	}

	if _, err := w.Seek(extraFieldOffset, io.SeekStart); err != nil {
		return xerrors.Wrap(xerrors.Io, "seeking to extra field", err)
	}
	var extra [extraFieldSize]byte
	extra[0], extra[1] = 'C', 'T'
	binary.LittleEndian.PutUint16(extra[2:4], 8)
	binary.LittleEndian.PutUint32(extra[4:8], uint32(compressedSize))
	binary.LittleEndian.PutUint32(extra[8:12], uint32(decompressedSize))
	if _, err := w.Write(extra[:]); err != nil {
		return xerrors.Wrap(xerrors.Io, "writing extra field", err)
	}

	if _, err := w.Seek(endPos, io.SeekStart); err != nil {
		return xerrors.Wrap(xerrors.Io, "restoring write position", err)
	}
	return nil
}
