package crypto

import (
	"testing"

	"github.com/NebulousLabs/fastrand"
)

func randomScalar(t *testing.T) Scalar {
	t.Helper()
	var s Scalar
	for {
		fastrand.Read(s[:])
		s[31] &= 0x1f // keep well under the group order so SetCanonicalBytes succeeds
		if _, err := decodeScalar(s); err == nil {
			return s
		}
	}
}

func TestDeriveAndUnderiveRoundTrip(t *testing.T) {
	capability := NewDefaultCapability()

	viewSecret := randomScalar(t)
	spendSecret := randomScalar(t)
	spendPublic, err := capability.SecretKeyToPublicKey(spendSecret)
	if err != nil {
		t.Fatalf("SecretKeyToPublicKey: %v", err)
	}

	txSecret := randomScalar(t)
	txPublic, err := capability.SecretKeyToPublicKey(txSecret)
	if err != nil {
		t.Fatalf("SecretKeyToPublicKey(tx): %v", err)
	}

	// The sender derives using the receiver's public view key and its own
	// tx secret key; the receiver derives using the tx public key and its
	// own private view key. Both must reach the same shared secret, so we
	// only exercise the receiver side here (GenerateKeyDerivation takes a
	// tx public key and a private view key either way).
	derivation, err := capability.GenerateKeyDerivation(txPublic, viewSecret)
	if err != nil {
		t.Fatalf("GenerateKeyDerivation: %v", err)
	}

	const outputIndex = 3
	outputKey, err := capability.DerivePublicKey(derivation, outputIndex, spendPublic)
	if err != nil {
		t.Fatalf("DerivePublicKey: %v", err)
	}

	recoveredSpendPublic, err := capability.UnderivePublicKey(derivation, outputIndex, outputKey)
	if err != nil {
		t.Fatalf("UnderivePublicKey: %v", err)
	}
	if recoveredSpendPublic != spendPublic {
		t.Fatalf("underive did not recover the base spend key: got %s want %s", recoveredSpendPublic, spendPublic)
	}

	oneTimeSecret, err := capability.DeriveSecretKey(derivation, outputIndex, spendSecret)
	if err != nil {
		t.Fatalf("DeriveSecretKey: %v", err)
	}
	oneTimePublicFromSecret, err := capability.SecretKeyToPublicKey(oneTimeSecret)
	if err != nil {
		t.Fatalf("SecretKeyToPublicKey(oneTime): %v", err)
	}
	if oneTimePublicFromSecret != outputKey {
		t.Fatalf("one-time secret key does not match derived output key")
	}
}

func TestGenerateKeyImageRequiresPrivateKey(t *testing.T) {
	capability := NewDefaultCapability()
	var outputKey Point
	fastrand.Read(outputKey[:])
	if _, err := capability.GenerateKeyImage(outputKey, NilScalar); err == nil {
		t.Fatal("expected an error generating a key image with a nil private key")
	}
}

func TestCNFastHashDeterministic(t *testing.T) {
	capability := NewDefaultCapability()
	a := capability.CNFastHash([]byte("hello"))
	b := capability.CNFastHash([]byte("hello"))
	if a != b {
		t.Fatal("CNFastHash is not deterministic")
	}
	c := capability.CNFastHash([]byte("world"))
	if a == c {
		t.Fatal("CNFastHash collided on different input")
	}
}
