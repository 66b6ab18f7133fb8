package xerrors

import (
	"errors"
	"testing"
)

func TestIsMatchesKind(t *testing.T) {
	err := New(BadMagic, "signature stream magic mismatch")
	if !Is(err, BadMagic) {
		t.Fatalf("Is(%v, BadMagic) = false, want true", err)
	}
	if Is(err, Io) {
		t.Fatalf("Is(%v, Io) = true, want false", err)
	}
}

func TestWrapNilCauseReturnsNil(t *testing.T) {
	if err := Wrap(Io, "context", nil); err != nil {
		t.Fatalf("Wrap with nil cause = %v, want nil", err)
	}
}

func TestWrapUnwraps(t *testing.T) {
	cause := errors.New("underlying")
	err := Wrap(CryptoFailure, "pss sign", cause)
	if !errors.Is(err, cause) {
		t.Fatalf("errors.Is(%v, cause) = false, want true", err)
	}
	if !Is(err, CryptoFailure) {
		t.Fatalf("Is(%v, CryptoFailure) = false, want true", err)
	}
}

func TestIsThroughPlainWrap(t *testing.T) {
	cause := New(UnknownType, "external type id 7")
	err := errors.New("prefix: " + cause.Error())
	if Is(err, UnknownType) {
		t.Fatalf("Is should not match an error that isn't an *Error in its chain")
	}
}

func TestKindString(t *testing.T) {
	cases := map[Kind]string{
		Io:                "io",
		BadMagic:          "bad magic",
		BadEncoding:       "bad encoding",
		UnexpectedEof:     "unexpected eof",
		InvariantViolated: "invariant violated",
		UnknownType:       "unknown type",
		KeyNotFound:       "key not found",
		CryptoFailure:     "crypto failure",
	}
	for k, want := range cases {
		if got := k.String(); got != want {
			t.Errorf("Kind(%d).String() = %q, want %q", k, got, want)
		}
	}
}
