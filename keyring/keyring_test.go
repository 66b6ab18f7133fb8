package keyring

import "testing"

func TestDefaultHasAllFourKeys(t *testing.T) {
	r := Default()
	names := []string{SignKeyGameLocal, SignKeyEditorSignature, SignKeyLicenseSignature, SignKeyOfficialSignature}
	for _, name := range names {
		if _, ok := r.Get(name); !ok {
			t.Errorf("Default ring missing key %q", name)
		}
	}
}

func TestDefaultPrivateHalves(t *testing.T) {
	r := Default()
	private := []string{SignKeyGameLocal, SignKeyEditorSignature, SignKeyLicenseSignature}
	for _, name := range private {
		keys, ok := r.Get(name)
		if !ok || keys.Private == nil {
			t.Errorf("%q should carry a private half", name)
		}
	}

	keys, ok := r.Get(SignKeyOfficialSignature)
	if !ok {
		t.Fatalf("%q not found", SignKeyOfficialSignature)
	}
	if keys.Private != nil {
		t.Errorf("%q should be public-only", SignKeyOfficialSignature)
	}
	if keys.Public == nil {
		t.Errorf("%q should still carry a public key", SignKeyOfficialSignature)
	}
}

func TestGetMissing(t *testing.T) {
	r := Default()
	if _, ok := r.Get("SignKey.DoesNotExist"); ok {
		t.Fatalf("Get of unknown key should report false")
	}
}
