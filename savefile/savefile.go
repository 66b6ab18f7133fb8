package savefile

import (
	"bytes"
	"io"

	"github.com/go-kratos/kratos/v2/log"

	"github.com/widberg/serioussave/ctsemeta"
	"github.com/widberg/serioussave/internal/endian"
	"github.com/widberg/serioussave/internal/xerrors"
	"github.com/widberg/serioussave/keyring"
	"github.com/widberg/serioussave/signaturestream"
)

// ExtractOptions configures Extract.
type ExtractOptions struct {
	Endian           endian.Engine
	KeyRing          keyring.Ring
	MemoryStreamName *string
	UserID           *string
	Gzip             bool
	JSON             bool
	Logger           *log.Helper
}

// Extract ungzips (if requested), designatures, and optionally decodes the
// CTSEMETA tree to JSON, mirroring main.rs's Extract command. When
// opts.JSON is false the result is the raw designatured CTSEMETA bytes.
func Extract(data []byte, opts ExtractOptions) ([]byte, error) {
	e := opts.Endian
	if e == nil {
		e = endian.Little()
	}
	readOpts := signaturestream.ReadOptions{
		Endian:           e,
		KeyRing:          opts.KeyRing,
		MemoryStreamName: opts.MemoryStreamName,
		UserID:           opts.UserID,
		Logger:           opts.Logger,
	}

	var payload []byte
	var err error
	if opts.Gzip {
		payload, err = signaturestream.ReadGzip(bytes.NewReader(data), readOpts)
	} else {
		payload, err = signaturestream.Read(bytes.NewReader(data), readOpts)
	}
	if err != nil {
		return nil, err
	}

	if !opts.JSON {
		return payload, nil
	}

	meta, err := ctsemeta.Read(bytes.NewReader(payload), e, opts.Logger)
	if err != nil {
		return nil, err
	}
	return meta.ToJSON()
}

// CreateOptions configures Create.
type CreateOptions struct {
	Endian           endian.Engine
	KeyRing          keyring.Ring
	MemoryStreamName *string
	UserID           *string
	SignKeyName      string
	NoSign           bool
	Version          uint32
	Gzip             bool
	JSON             bool
	Logger           *log.Helper
}

// Create encodes input (raw CTSEMETA bytes, or its JSON rendering if
// opts.JSON) into a signed, optionally gzipped signature stream written to
// w. w must be seekable when opts.Gzip is set (spec section 4.5/9).
func Create(w io.Writer, input []byte, opts CreateOptions) error {
	e := opts.Endian
	if e == nil {
		e = endian.Little()
	}

	payload := input
	if opts.JSON {
		meta, err := ctsemeta.FromJSON(input)
		if err != nil {
			return err
		}
		var buf bytes.Buffer
		if err := meta.Write(&buf, e); err != nil {
			return err
		}
		payload = buf.Bytes()
	}

	var sign *signaturestream.SignOptions
	if !opts.NoSign {
		sign = &signaturestream.SignOptions{
			KeyRing:          opts.KeyRing,
			SignKeyName:      opts.SignKeyName,
			MemoryStreamName: opts.MemoryStreamName,
			UserID:           opts.UserID,
		}
	}
	writeOpts := signaturestream.WriteOptions{
		Endian:  e,
		Sign:    sign,
		Version: opts.Version,
		Logger:  opts.Logger,
	}

	if opts.Gzip {
		ws, ok := w.(io.WriteSeeker)
		if !ok {
			return xerrors.New(xerrors.Io, "gzip output requires a seekable writer")
		}
		return signaturestream.WriteGzip(ws, writeOpts, payload)
	}
	return signaturestream.Write(w, writeOpts, payload)
}
