package signaturestream

import (
	"crypto/rsa"
	"crypto/sha1"
	"crypto/sha256"
	"hash"

	"github.com/cxmcc/tiger"
	"github.com/widberg/serioussave/internal/xerrors"
)

// HashMethod identifies one of the three digests this format names. The
// numeric values are the wire encoding, not an internal enumeration choice.
type HashMethod uint32

const (
	HashSha1   HashMethod = 4
	HashTiger  HashMethod = 5
	HashSha256 HashMethod = 6
)

// pssSaltLength is fixed for all three digests.
const pssSaltLength = 11

// signatureStreamHashMethod is the digest newly-written signature streams
// always use.
const signatureStreamHashMethod = HashSha1

// ParseHashMethod validates a wire hash-method id.
func ParseHashMethod(id uint32) (HashMethod, bool) {
	switch HashMethod(id) {
	case HashSha1, HashTiger, HashSha256:
		return HashMethod(id), true
	default:
		return 0, false
	}
}

// newHasher returns a fresh hash.Hash for the method.
func (m HashMethod) newHasher() hash.Hash {
	switch m {
	case HashSha1:
		return sha1.New()
	case HashTiger:
		return tiger.New()
	case HashSha256:
		return sha256.New()
	default:
		panic("signaturestream: unknown hash method")
	}
}

// pssSign signs digest (the output of a finalized hasher) with an 11-byte
// salt, matching this format's fixed PSS parameters for every digest.
func (m HashMethod) pssSign(priv *rsa.PrivateKey, digest []byte) ([]byte, error) {
	sig, err := signPSS(priv, m.newHasher, digest, pssSaltLength)
	if err != nil {
		return nil, xerrors.Wrap(xerrors.CryptoFailure, "pss sign", err)
	}
	return sig, nil
}

// pssVerify reports whether sig is a valid PSS signature of digest under
// pub. A mismatch is reported as a plain error, not a fatal xerrors kind:
// callers treat verification failures as warnings (spec: signature
// mismatches are non-fatal).
func (m HashMethod) pssVerify(pub *rsa.PublicKey, digest, sig []byte) error {
	return verifyPSS(pub, m.newHasher, digest, sig, pssSaltLength)
}

// signatureSize performs a dry-run sign over the empty-final digest, the
// cheapest way to learn how many bytes a real signature will occupy so the
// header can reserve room for it before the real digest exists.
func (m HashMethod) signatureSize(priv *rsa.PrivateKey) (int, error) {
	h := m.newHasher()
	sig, err := m.pssSign(priv, h.Sum(nil))
	if err != nil {
		return 0, err
	}
	return len(sig), nil
}
