// Package keyring holds the named RSA key pairs used to sign and verify
// signature-stream headers and blocks. Keys are supplied as PKCS#1 PEM,
// the same encoding the teacher's certificate parsing (security.go) reads
// with crypto/x509, except here the keys are RSA key pairs rather than
// X.509 certificates, so x509.ParsePKCS1PrivateKey/ParsePKCS1PublicKey
// cover parsing directly without a certificate wrapper.
package keyring

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"

	"github.com/widberg/serioussave/internal/xerrors"
)

// Keys is a named RSA key pair. Private may be nil for public-only entries
// (verification-only keys, such as the official signing key).
type Keys struct {
	Public  *rsa.PublicKey
	Private *rsa.PrivateKey
}

// Ring is a named map of RSA key pairs, read-only once constructed: the
// signing/verification state machine only ever looks keys up by name, never
// mutates the ring, so concurrent readers are safe without synchronization.
type Ring map[string]Keys

// Get returns the keys named name, and whether they were found.
func (r Ring) Get(name string) (Keys, bool) {
	k, ok := r[name]
	return k, ok
}

// decodePKCS1PrivatePEM parses a PKCS#1 RSA private key PEM literal.
func decodePKCS1PrivatePEM(literal string) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode([]byte(literal))
	if block == nil {
		return nil, xerrors.New(xerrors.CryptoFailure, "no PEM block found in private key")
	}
	key, err := x509.ParsePKCS1PrivateKey(block.Bytes)
	if err != nil {
		return nil, xerrors.Wrap(xerrors.CryptoFailure, "parsing PKCS#1 private key", err)
	}
	return key, nil
}

// decodePKCS1PublicPEM parses a PKCS#1 RSA public key PEM literal.
func decodePKCS1PublicPEM(literal string) (*rsa.PublicKey, error) {
	block, _ := pem.Decode([]byte(literal))
	if block == nil {
		return nil, xerrors.New(xerrors.CryptoFailure, "no PEM block found in public key")
	}
	key, err := x509.ParsePKCS1PublicKey(block.Bytes)
	if err != nil {
		return nil, xerrors.Wrap(xerrors.CryptoFailure, "parsing PKCS#1 public key", err)
	}
	return key, nil
}

// mustInsertPrivate panics on malformed embedded key material: these PEM
// literals are compiled into the binary and never come from untrusted
// input, so a parse failure here is a build-time defect, not a runtime one.
func mustInsertPrivate(r Ring, name, privatePEM string) {
	priv, err := decodePKCS1PrivatePEM(privatePEM)
	if err != nil {
		panic(err)
	}
	r[name] = Keys{Public: &priv.PublicKey, Private: priv}
}

func mustInsertPublic(r Ring, name, publicPEM string) {
	pub, err := decodePKCS1PublicPEM(publicPEM)
	if err != nil {
		panic(err)
	}
	r[name] = Keys{Public: pub}
}

// Default returns the built-in key ring: three private keys the tool can
// sign with, and one public-only key used only to verify official saves.
func Default() Ring {
	r := make(Ring, 4)
	mustInsertPrivate(r, SignKeyGameLocal, gameLocalPrivatePEM)
	mustInsertPrivate(r, SignKeyEditorSignature, editorSignaturePrivatePEM)
	mustInsertPrivate(r, SignKeyLicenseSignature, licenseSignaturePrivatePEM)
	mustInsertPublic(r, SignKeyOfficialSignature, officialSignaturePublicPEM)
	return r
}
