package signaturestream

// RSA-PSS sign/verify generic over any hash.Hash constructor, not just the
// crypto.Hash identifiers crypto/rsa's SignPSS recognizes. The Tiger digest
// this format supports has no registered crypto.Hash id (and, at 24 bytes,
// no size-compatible stand-in among the registered ones), so PSS padding
// (RFC 8017 EMSA-PSS) and the raw RSA exponentiation are implemented here
// directly against the exported rsa.PrivateKey/PublicKey fields, the same
// approach used wherever Go code needs PSS over a digest crypto/rsa wasn't
// built to recognize.

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/subtle"
	"errors"
	"hash"
	"math/big"
)

var errPSSVerify = errors.New("pss: verification failed")

func emsaPSSEncode(mHash []byte, emBits int, salt []byte, newHash func() hash.Hash) ([]byte, error) {
	hLen := len(mHash)
	sLen := len(salt)
	emLen := (emBits + 7) / 8

	if emLen < hLen+sLen+2 {
		return nil, errors.New("pss: key too short for this hash and salt length")
	}

	h := newHash()
	var mPrime [8]byte
	h.Write(mPrime[:])
	h.Write(mHash)
	h.Write(salt)
	hSum := h.Sum(nil)

	ps := make([]byte, emLen-sLen-hLen-2)
	db := make([]byte, 0, len(ps)+1+sLen)
	db = append(db, ps...)
	db = append(db, 0x01)
	db = append(db, salt...)

	maskedDB := make([]byte, len(db))
	mgf1XOR(maskedDB, newHash, hSum)
	for i := range maskedDB {
		maskedDB[i] ^= db[i]
	}

	// Zero out the leading bits that don't belong to the modulus.
	numEmBits := emBits % 8
	if numEmBits != 0 {
		maskedDB[0] &= 0xFF >> (8 - uint(numEmBits))
	}

	em := make([]byte, 0, emLen)
	em = append(em, maskedDB...)
	em = append(em, hSum...)
	em = append(em, 0xBC)
	return em, nil
}

func emsaPSSVerify(mHash, em []byte, emBits, sLen int, newHash func() hash.Hash) error {
	hLen := len(mHash)
	emLen := (emBits + 7) / 8
	if emLen < hLen+sLen+2 {
		return errPSSVerify
	}
	if len(em) != emLen || em[len(em)-1] != 0xBC {
		return errPSSVerify
	}

	dbLen := emLen - hLen - 1
	maskedDB := em[:dbLen]
	hSum := em[dbLen : dbLen+hLen]

	numEmBits := emBits % 8
	if numEmBits != 0 && em[0]&(0xFF<<uint(numEmBits)) != 0 {
		return errPSSVerify
	}

	db := make([]byte, dbLen)
	mgf1XOR(db, newHash, hSum)
	for i := range db {
		db[i] ^= maskedDB[i]
	}
	if numEmBits != 0 {
		db[0] &= 0xFF >> (8 - uint(numEmBits))
	}

	psLen := dbLen - sLen - 1
	for i := 0; i < psLen; i++ {
		if db[i] != 0 {
			return errPSSVerify
		}
	}
	if db[psLen] != 0x01 {
		return errPSSVerify
	}
	salt := db[psLen+1:]

	h := newHash()
	var mPrime [8]byte
	h.Write(mPrime[:])
	h.Write(mHash)
	h.Write(salt)
	hSumPrime := h.Sum(nil)

	if subtle.ConstantTimeCompare(hSum, hSumPrime) != 1 {
		return errPSSVerify
	}
	return nil
}

// mgf1XOR XORs dst in place with MGF1(seed), the PSS mask generation
// function built from repeated applications of newHash.
func mgf1XOR(dst []byte, newHash func() hash.Hash, seed []byte) {
	h := newHash()
	hLen := h.Size()
	var counter [4]byte
	done := 0
	for done < len(dst) {
		h.Reset()
		h.Write(seed)
		h.Write(counter[:])
		digest := h.Sum(nil)

		n := copy(dst[done:], digest)
		_ = hLen
		done += n
		incCounter(&counter)
	}
}

func incCounter(c *[4]byte) {
	for i := 3; i >= 0; i-- {
		c[i]++
		if c[i] != 0 {
			return
		}
	}
}

func signPSS(priv *rsa.PrivateKey, newHash func() hash.Hash, digest []byte, saltLen int) ([]byte, error) {
	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return nil, err
	}
	emBits := priv.N.BitLen() - 1
	em, err := emsaPSSEncode(digest, emBits, salt, newHash)
	if err != nil {
		return nil, err
	}

	m := new(big.Int).SetBytes(em)
	if m.Cmp(priv.N) >= 0 {
		return nil, errors.New("pss: message representative out of range")
	}
	c := new(big.Int).Exp(m, priv.D, priv.N)

	k := (priv.N.BitLen() + 7) / 8
	sig := make([]byte, k)
	c.FillBytes(sig)
	return sig, nil
}

func verifyPSS(pub *rsa.PublicKey, newHash func() hash.Hash, digest, sig []byte, saltLen int) error {
	k := (pub.N.BitLen() + 7) / 8
	if len(sig) != k {
		return errPSSVerify
	}
	c := new(big.Int).SetBytes(sig)
	if c.Cmp(pub.N) >= 0 {
		return errPSSVerify
	}
	e := big.NewInt(int64(pub.E))
	m := new(big.Int).Exp(c, e, pub.N)

	emBits := pub.N.BitLen() - 1
	emLen := (emBits + 7) / 8
	em := make([]byte, emLen)
	emBytes := m.Bytes()
	if len(emBytes) > emLen {
		return errPSSVerify
	}
	copy(em[emLen-len(emBytes):], emBytes)

	return emsaPSSVerify(digest, em, emBits, saltLen, newHash)
}
