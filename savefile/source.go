// Package savefile ties the signature-stream and CTSEMETA codecs together
// into the extract/create operations the CLI exposes, the same role
// main.rs plays over signature_stream.rs and ctsemeta.rs in the original
// tool.
package savefile

import (
	"os"

	mmap "github.com/edsrzf/mmap-go"

	"github.com/widberg/serioussave/internal/xerrors"
)

// Source is a memory-mapped input file, mirroring the teacher's File/mmap
// pattern (pe.New/pe.NewBytes) but reduced to what the save-file pipeline
// actually needs: a flat byte slice to read the signature stream from.
type Source struct {
	data mmap.MMap
	f    *os.File
	buf  []byte
}

// Open memory-maps name for reading.
func Open(name string) (*Source, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, xerrors.Wrap(xerrors.Io, "opening save file", err)
	}
	data, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		f.Close()
		return nil, xerrors.Wrap(xerrors.Io, "memory-mapping save file", err)
	}
	return &Source{data: data, f: f}, nil
}

// NewBytes wraps an in-memory buffer as a Source, bypassing mmap entirely —
// useful for tests and for callers that already hold the bytes.
func NewBytes(data []byte) *Source {
	return &Source{buf: data}
}

// Bytes returns the source's full contents.
func (s *Source) Bytes() []byte {
	if s.data != nil {
		return s.data
	}
	return s.buf
}

// Close unmaps the file, if one is open.
func (s *Source) Close() error {
	if s.data != nil {
		if err := s.data.Unmap(); err != nil {
			return xerrors.Wrap(xerrors.Io, "unmapping save file", err)
		}
	}
	if s.f != nil {
		return s.f.Close()
	}
	return nil
}
