package crypto

// Capability is the pluggable set of cryptographic primitives the
// Attribution Engine and transaction signing path depend on (spec §6).
// A hardware wallet supplies the same Capability with SecretKeyToPublicKey
// and signing-adjacent functions backed by the device; the engine never
// inspects which implementation it was given beyond checking whether the
// primary subwallet's private spend key is NilScalar (meaning: signing
// requires the external device).
type Capability interface {
	// GenerateKeyDerivation computes D = 8 * a * P for transaction public
	// key P and private view key a (the ECDH shared secret).
	GenerateKeyDerivation(txPublicKey Point, privateViewKey Scalar) (Derivation, error)

	// DerivePublicKey computes the one-time output public key
	// K_o = H_s(D, i)*G + B for output index i and base public spend key B.
	DerivePublicKey(d Derivation, outputIndex uint64, base Point) (Point, error)

	// DeriveSecretKey computes the one-time output private key
	// k_o = H_s(D, i) + b for output index i and base private spend key b.
	DeriveSecretKey(d Derivation, outputIndex uint64, base Scalar) (Scalar, error)

	// UnderivePublicKey recovers the base public spend key B from a known
	// one-time output key K_o: B = K_o - H_s(D, i)*G. The caller then
	// checks B against the set of tracked subaddress spend keys.
	UnderivePublicKey(d Derivation, outputIndex uint64, outputKey Point) (Point, error)

	// GenerateKeyImage computes the spend nullifier p*H_p(P) for one-time
	// public key P and one-time private key p.
	GenerateKeyImage(oneTimePublicKey Point, oneTimePrivateKey Scalar) (Point, error)

	// CNFastHash is the CryptoNote fast hash (Keccak-256) used throughout
	// derivation and signing.
	CNFastHash(data []byte) Hash

	// SecretKeyToPublicKey returns the public key b*G for a private key b.
	SecretKeyToPublicKey(sk Scalar) (Point, error)

	// GenerateRingSignatures produces a ring signature over the given
	// message proving knowledge of one of the private keys corresponding
	// to the decoy set, without revealing which.
	GenerateRingSignatures(prefixHash Hash, keyImage Point, publicKeys []Point, privateKey Scalar, secretIndex int) (RingSignature, error)

	// CheckRingSignatures verifies a ring signature produced by
	// GenerateRingSignatures.
	CheckRingSignatures(prefixHash Hash, keyImage Point, publicKeys []Point, sig RingSignature) (bool, error)
}
