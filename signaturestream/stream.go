// Package signaturestream implements the outer signed, block-interleaved
// container (spec section 3.1/4.4): a version-gated header followed by an
// interleaved stream of fixed-size payload blocks, each followed by its own
// signature. Parsing never fails on a bad signature — it warns and returns
// the payload anyway — but writing always produces cryptographically valid
// signatures when a signing key is supplied.
package signaturestream

import (
	"crypto/rsa"
	"io"

	"github.com/go-kratos/kratos/v2/log"

	"github.com/widberg/serioussave/internal/endian"
	"github.com/widberg/serioussave/internal/wire"
	"github.com/widberg/serioussave/internal/xerrors"
	"github.com/widberg/serioussave/internal/xlog"
	"github.com/widberg/serioussave/keyring"
)

// ReadOptions configures Read/ReadGzip.
type ReadOptions struct {
	// Endian is the byte order the caller asserts this stream uses; the
	// container has no self-identifying endianness.
	Endian endian.Engine
	// KeyRing supplies public keys for verification. A nil ring disables
	// verification entirely (every signature is skipped, not just warned
	// about).
	KeyRing keyring.Ring
	// MemoryStreamName and UserID, if the header's flags require them,
	// must match what the file was signed with for verification to
	// succeed; a missing value degrades verification to a warning, never a
	// fatal error.
	MemoryStreamName *string
	UserID           *string
	// Logger receives non-fatal warnings (bad signatures, missing keys).
	// Nil uses the package default, filtered by SERIOUSSAVE_LOG.
	Logger *log.Helper
}

// SignOptions configures signing on the write path. A nil *SignOptions
// passed to WriteOptions disables signing outright (signature_size=0, no
// header or block signatures, the file remains well-formed but
// unauthenticated).
type SignOptions struct {
	KeyRing          keyring.Ring
	SignKeyName      string
	MemoryStreamName *string
	UserID           *string
}

// WriteOptions configures Write/WriteGzip.
type WriteOptions struct {
	Endian  endian.Engine
	Sign    *SignOptions
	Version uint32
	Logger  *log.Helper
}

// verifyingInfo is resolved once per header if a header signature is
// present and its named key exists in the ring.
type verifyingInfo struct {
	publicKey             *rsa.PublicKey
	hashMethod            HashMethod
	salt                  uint32
	memoryStreamNameBytes []byte
	userIDBytes           []byte
}

// Read parses a raw (non-gzipped) signature stream, verifying the header
// and per-block signatures opportunistically: any mismatch is logged as a
// warning and decoding continues, per spec invariant (a).
func Read(r io.Reader, opts ReadOptions) ([]byte, error) {
	logger := xlog.Or(opts.Logger)
	e := opts.Endian
	if e == nil {
		e = endian.Little()
	}

	h, err := readHeader(r, e)
	if err != nil {
		return nil, err
	}

	vinfo := resolveVerifyingInfo(h, e, opts, logger)

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, xerrors.Wrap(xerrors.Io, "reading signature stream body", err)
	}

	return deinterleaveBlocks(data, h, e, vinfo, logger)
}

func resolveVerifyingInfo(h header, e endian.Engine, opts ReadOptions, logger *log.Helper) *verifyingInfo {
	if h.Signature == nil || opts.KeyRing == nil {
		return nil
	}
	keys, ok := opts.KeyRing.Get(h.SignKeyName)
	if !ok {
		logger.Warnf("no key %q in key ring", h.SignKeyName)
		return nil
	}
	hashMethod, ok := ParseHashMethod(h.HashMethodID)
	if !ok {
		logger.Warnf("unknown hash method %d", h.HashMethodID)
		return nil
	}

	hasher := hashMethod.newHasher()
	var memName, userID []byte
	if err := writeHeaderDigestInput(hasher, e, h, opts, &memName, &userID, logger); err != nil {
		logger.Warnf("failed to compute header digest: %v", err)
		return nil
	}
	digest := hasher.Sum(nil)

	if err := hashMethod.pssVerify(keys.Public, digest, h.Signature); err != nil {
		logger.Warnf("invalid signature in header: %v", err)
	}

	return &verifyingInfo{
		publicKey:             keys.Public,
		hashMethod:            hashMethod,
		salt:                  h.Salt,
		memoryStreamNameBytes: memName,
		userIDBytes:           userID,
	}
}

// writeHeaderDigestInput feeds w with the header hash input (section 4.4),
// recording which optional byte slices actually participated so the
// verifyingInfo can reuse them for block verification (section 4.4's
// "subtle contract": per-block input is unconditional on the flag, unlike
// the header's v>=4 gate on the memory-stream-name bytes).
func writeHeaderDigestInput(w io.Writer, e endian.Engine, h header, opts ReadOptions, memName, userID *[]byte, logger *log.Helper) error {
	if h.Version >= 2 && h.HasMemoryStreamName != 0 {
		if opts.MemoryStreamName != nil {
			*memName = []byte(*opts.MemoryStreamName)
		} else {
			logger.Warnf("save requires memory stream name to be verified but one was not provided")
		}
	}
	if h.Version >= 3 && h.HasUserID != 0 {
		if opts.UserID != nil {
			*userID = []byte(*opts.UserID)
		} else {
			logger.Warnf("save requires user id to be verified but one was not provided")
		}
	}
	return headerHashWrite(w, e, h, *memName, *userID)
}

// deinterleaveBlocks consumes the block/signature-interleaved body,
// unconditionally appending every block's payload to the output and
// warning (never failing) on any signature mismatch.
func deinterleaveBlocks(data []byte, h header, e endian.Engine, vinfo *verifyingInfo, logger *log.Helper) ([]byte, error) {
	var out []byte
	pos := 0

	for blockIndex := uint32(0); ; blockIndex++ {
		remaining := int64(len(data) - pos)
		if remaining == 0 {
			break
		}

		var blockSize int64
		if remaining >= int64(h.BlockSize)+int64(h.SignatureSize) {
			blockSize = int64(h.BlockSize)
		} else {
			blockSize = remaining - int64(h.SignatureSize)
			if blockSize < 0 {
				return nil, xerrors.New(xerrors.UnexpectedEof, "remaining bytes shorter than trailing signature")
			}
		}

		blockData := data[pos : pos+int(blockSize)]
		pos += int(blockSize)

		sig := data[pos : pos+int(h.SignatureSize)]
		pos += int(h.SignatureSize)

		out = append(out, blockData...)

		if vinfo != nil {
			if err := verifyBlock(vinfo, e, blockIndex, blockData, sig); err != nil {
				logger.Warnf("invalid signature for block %d: %v", blockIndex, err)
			}
		}
	}

	return out, nil
}

func verifyBlock(v *verifyingInfo, e endian.Engine, blockIndex uint32, blockData, sig []byte) error {
	hasher := v.hashMethod.newHasher()
	if err := wire.WriteUint32(hasher, e, v.salt^(blockIndex+0xB1B)); err != nil {
		return err
	}
	if v.memoryStreamNameBytes != nil {
		hasher.Write(v.memoryStreamNameBytes)
	}
	if v.userIDBytes != nil {
		hasher.Write(v.userIDBytes)
	}
	hasher.Write(blockData)
	return v.hashMethod.pssVerify(v.publicKey, hasher.Sum(nil), sig)
}
