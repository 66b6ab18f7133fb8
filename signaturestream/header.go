package signaturestream

import (
	"io"

	"github.com/widberg/serioussave/internal/endian"
	"github.com/widberg/serioussave/internal/wire"
	"github.com/widberg/serioussave/internal/xerrors"
)

// magic is the 12-byte literal every signature stream begins with.
const magic = "SIGSTRM12GIS"

const (
	maxBlockSize     = 0x80000
	maxHashSize      = 0x1000
	maxSignatureSize = 0x1000

	// BlockSize is the block size new signature streams are always written
	// with.
	BlockSize = 0x10000
)

// header is the version-gated fixed-shape prefix of a signature stream, as
// laid out in spec section 3.1. Not every field is present on every
// version: HasMemoryStreamName requires v>=2, HasUserID requires v>=3,
// SignatureRelatedString requires v>=5, and the sign-key name + signature
// bytes only appear if v>=3 and SignatureSize>0.
type header struct {
	Version                uint32
	BlockSize              uint32
	HashMethodID           uint32
	HashSize               int32
	Salt                   uint32
	HasMemoryStreamName    uint32 // only meaningful if Version >= 2
	HasUserID              uint32 // only meaningful if Version >= 3
	SignatureRelatedString string // only meaningful if Version >= 5
	SignatureSize          uint32
	SignKeyName            string
	Signature              []byte
}

func clampU32(v, lo, hi uint32) uint32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampI32(v, lo, hi int32) int32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// readHeader consumes the header fields in version-gated order. It does not
// attempt signature verification; that is layered on top by readVerifyingInfo
// since it needs the key ring.
func readHeader(r io.Reader, e endian.Engine) (header, error) {
	var h header

	magicBuf := make([]byte, len(magic))
	if _, err := io.ReadFull(r, magicBuf); err != nil {
		return h, xerrors.Wrap(xerrors.UnexpectedEof, "signature stream magic", err)
	}
	if string(magicBuf) != magic {
		return h, xerrors.New(xerrors.BadMagic, "signature stream magic mismatch")
	}

	var err error
	if h.Version, err = wire.ReadUint32(r, e); err != nil {
		return h, err
	}
	blockSize, err := wire.ReadUint32(r, e)
	if err != nil {
		return h, err
	}
	h.BlockSize = clampU32(blockSize, 0, maxBlockSize)

	if h.HashMethodID, err = wire.ReadUint32(r, e); err != nil {
		return h, err
	}
	hashSize, err := wire.ReadInt32(r, e)
	if err != nil {
		return h, err
	}
	h.HashSize = clampI32(hashSize, 0, maxHashSize)
	if h.HashSize > 0 {
		unused := make([]byte, h.HashSize)
		if _, err := io.ReadFull(r, unused); err != nil {
			return h, xerrors.Wrap(xerrors.UnexpectedEof, "legacy hash size padding", err)
		}
	}

	if h.Salt, err = wire.ReadUint32(r, e); err != nil {
		return h, err
	}

	if h.Version >= 2 {
		if h.HasMemoryStreamName, err = wire.ReadUint32(r, e); err != nil {
			return h, err
		}
	}
	if h.Version >= 3 {
		if h.HasUserID, err = wire.ReadUint32(r, e); err != nil {
			return h, err
		}
	}
	if h.Version >= 5 {
		if h.SignatureRelatedString, err = wire.ReadString(r, e); err != nil {
			return h, err
		}
	}

	sigSize, err := wire.ReadUint32(r, e)
	if err != nil {
		return h, err
	}
	h.SignatureSize = clampU32(sigSize, 0, maxSignatureSize)

	if h.Version >= 3 && h.SignatureSize > 0 {
		if h.SignKeyName, err = wire.ReadString(r, e); err != nil {
			return h, err
		}
		h.Signature = make([]byte, h.SignatureSize)
		if _, err := io.ReadFull(r, h.Signature); err != nil {
			return h, xerrors.Wrap(xerrors.UnexpectedEof, "header signature", err)
		}
	}

	return h, nil
}

// headerHashWrite writes, to w (normally a hash.Hash), the bytes the header
// signature is computed over, in declared endianness. Both the read
// (verify) and write (sign) paths share this one definition so they can
// never drift apart.
func headerHashWrite(w io.Writer, e endian.Engine, h header, memoryStreamName, userID []byte) error {
	if err := wire.WriteUint32(w, e, h.Version); err != nil {
		return err
	}
	if err := wire.WriteUint32(w, e, h.BlockSize); err != nil {
		return err
	}
	if err := wire.WriteUint32(w, e, h.HashMethodID); err != nil {
		return err
	}
	if err := wire.WriteInt32(w, e, h.HashSize); err != nil {
		return err
	}
	if err := wire.WriteUint32(w, e, h.Salt); err != nil {
		return err
	}
	if h.Version >= 2 {
		if err := wire.WriteUint32(w, e, h.HasMemoryStreamName); err != nil {
			return err
		}
		// Subtle asymmetry (spec section 4.4): the header hash only
		// includes the memory-stream-name bytes themselves if the
		// container version is >= 4, even though the flag is read/written
		// starting at version 2. Preserve this exactly; it may be a bug in
		// the original engine, but compatibility demands it.
		if h.Version >= 4 && h.HasMemoryStreamName != 0 && memoryStreamName != nil {
			if _, err := w.Write(memoryStreamName); err != nil {
				return xerrors.Wrap(xerrors.Io, "header hash: memory stream name", err)
			}
		}
	}
	if h.Version >= 3 {
		if err := wire.WriteUint32(w, e, h.HasUserID); err != nil {
			return err
		}
		if h.HasUserID != 0 && userID != nil {
			if _, err := w.Write(userID); err != nil {
				return xerrors.Wrap(xerrors.Io, "header hash: user id", err)
			}
		}
	}
	if h.Version >= 5 {
		if _, err := w.Write([]byte(h.SignatureRelatedString)); err != nil {
			return xerrors.Wrap(xerrors.Io, "header hash: signature related string", err)
		}
	}
	if err := wire.WriteUint32(w, e, h.SignatureSize); err != nil {
		return err
	}
	if _, err := w.Write([]byte(h.SignKeyName)); err != nil {
		return xerrors.Wrap(xerrors.Io, "header hash: sign key name", err)
	}
	return nil
}

// writeHeaderFields emits the version-gated header layout (everything up to
// but not including the signature-size/signature bytes, which the caller
// fills in once it knows whether signing succeeded).
func writeHeaderPrefix(w io.Writer, e endian.Engine, h header) error {
	if _, err := w.Write([]byte(magic)); err != nil {
		return xerrors.Wrap(xerrors.Io, "signature stream magic", err)
	}
	if err := wire.WriteUint32(w, e, h.Version); err != nil {
		return err
	}
	if err := wire.WriteUint32(w, e, h.BlockSize); err != nil {
		return err
	}
	if err := wire.WriteUint32(w, e, h.HashMethodID); err != nil {
		return err
	}
	if err := wire.WriteInt32(w, e, h.HashSize); err != nil {
		return err
	}
	if err := wire.WriteUint32(w, e, h.Salt); err != nil {
		return err
	}
	if h.Version >= 2 {
		if err := wire.WriteUint32(w, e, h.HasMemoryStreamName); err != nil {
			return err
		}
	}
	if h.Version >= 3 {
		if err := wire.WriteUint32(w, e, h.HasUserID); err != nil {
			return err
		}
	}
	if h.Version >= 5 {
		if err := wire.WriteString(w, e, h.SignatureRelatedString); err != nil {
			return err
		}
	}
	return nil
}
