package signaturestream

import (
	"crypto/rand"
	"crypto/rsa"
	"encoding/binary"
	"io"

	"github.com/go-kratos/kratos/v2/log"

	"github.com/widberg/serioussave/internal/endian"
	"github.com/widberg/serioussave/internal/wire"
	"github.com/widberg/serioussave/internal/xlog"
)

// signingInfo is resolved once per header, symmetric with verifyingInfo,
// and reused for every block's signature.
type signingInfo struct {
	privateKey            *rsa.PrivateKey
	hashMethod            HashMethod
	salt                  uint32
	memoryStreamNameBytes []byte
	userIDBytes           []byte
}

// Write emits data as a signature stream: a version-gated header (signed if
// opts.Sign names a key the ring holds a private half for) followed by the
// data split into fixed-size blocks, each followed by its own signature
// when signing is active.
func Write(w io.Writer, opts WriteOptions, data []byte) error {
	logger := xlog.Or(opts.Logger)
	e := opts.Endian
	if e == nil {
		e = endian.Little()
	}

	var salt [4]byte
	if _, err := rand.Read(salt[:]); err != nil {
		return err
	}

	h := header{
		Version:      opts.Version,
		BlockSize:    BlockSize,
		HashMethodID: uint32(signatureStreamHashMethod),
		HashSize:     0,
		Salt:         binary.LittleEndian.Uint32(salt[:]),
	}
	if opts.Sign != nil {
		if opts.Sign.MemoryStreamName != nil {
			h.HasMemoryStreamName = 1
		}
		if opts.Sign.UserID != nil {
			h.HasUserID = 1
		}
	}

	sinfo, err := writeHeader(w, e, &h, opts.Sign, logger)
	if err != nil {
		return err
	}

	return writeBlocks(w, e, h, data, sinfo)
}

// writeHeader writes the version-gated header prefix and, if eligible,
// computes and writes the header signature, returning the signing context
// to reuse for every block. Any failure to sign (missing key, crypto
// failure) degrades to an unsigned header (signature_size=0) with a
// warning, never a fatal error: an unsigned file is still well-formed.
func writeHeader(w io.Writer, e endian.Engine, h *header, signOpts *SignOptions, logger *log.Helper) (*signingInfo, error) {
	if err := writeHeaderPrefix(w, e, *h); err != nil {
		return nil, err
	}

	if h.Version < 3 || signOpts == nil {
		return nil, wire.WriteUint32(w, e, 0)
	}

	keys, ok := signOpts.KeyRing.Get(signOpts.SignKeyName)
	if !ok || keys.Private == nil {
		logger.Warnf("no private key %q in key ring", signOpts.SignKeyName)
		return nil, wire.WriteUint32(w, e, 0)
	}

	hashMethod, ok := ParseHashMethod(h.HashMethodID)
	if !ok {
		return nil, wire.WriteUint32(w, e, 0)
	}

	sigSize, err := hashMethod.signatureSize(keys.Private)
	if err != nil {
		logger.Warnf("failed to size header signature: %v", err)
		return nil, wire.WriteUint32(w, e, 0)
	}

	var memName, userID []byte
	if signOpts.MemoryStreamName != nil {
		memName = []byte(*signOpts.MemoryStreamName)
	}
	if signOpts.UserID != nil {
		userID = []byte(*signOpts.UserID)
	}

	hh := *h
	hh.SignatureSize = uint32(sigSize)
	hh.SignKeyName = signOpts.SignKeyName

	hasher := hashMethod.newHasher()
	if err := headerHashWrite(hasher, e, hh, memName, userID); err != nil {
		return nil, err
	}
	sig, err := hashMethod.pssSign(keys.Private, hasher.Sum(nil))
	if err != nil {
		logger.Warnf("failed to sign header: %v", err)
		return nil, wire.WriteUint32(w, e, 0)
	}

	if err := wire.WriteUint32(w, e, uint32(len(sig))); err != nil {
		return nil, err
	}
	if err := wire.WriteString(w, e, signOpts.SignKeyName); err != nil {
		return nil, err
	}
	if _, err := w.Write(sig); err != nil {
		return nil, err
	}

	h.SignatureSize = uint32(len(sig))
	h.SignKeyName = signOpts.SignKeyName

	return &signingInfo{
		privateKey:            keys.Private,
		hashMethod:            hashMethod,
		salt:                  h.Salt,
		memoryStreamNameBytes: memName,
		userIDBytes:           userID,
	}, nil
}

// writeBlocks splits data into h.BlockSize chunks and writes each one
// followed by its signature, when sinfo is non-nil.
func writeBlocks(w io.Writer, e endian.Engine, h header, data []byte, sinfo *signingInfo) error {
	blockSize := int(h.BlockSize)
	for start := 0; start < len(data); start += blockSize {
		end := start + blockSize
		if end > len(data) {
			end = len(data)
		}
		block := data[start:end]
		if _, err := w.Write(block); err != nil {
			return err
		}
		if sinfo == nil {
			continue
		}
		sig, err := signBlock(sinfo, e, uint32(start/blockSize), block)
		if err != nil {
			return err
		}
		if _, err := w.Write(sig); err != nil {
			return err
		}
	}
	return nil
}

func signBlock(s *signingInfo, e endian.Engine, blockIndex uint32, block []byte) ([]byte, error) {
	hasher := s.hashMethod.newHasher()
	if err := wire.WriteUint32(hasher, e, s.salt^(blockIndex+0xB1B)); err != nil {
		return nil, err
	}
	if s.memoryStreamNameBytes != nil {
		hasher.Write(s.memoryStreamNameBytes)
	}
	if s.userIDBytes != nil {
		hasher.Write(s.userIDBytes)
	}
	hasher.Write(block)
	return s.hashMethod.pssSign(s.privateKey, hasher.Sum(nil))
}
