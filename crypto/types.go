// Package crypto defines the pluggable crypto capability set the wallet
// synchronization engine depends on (spec §6) and a default software
// implementation of it. Callers that need a hardware-wallet-backed signer
// supply their own Capability implementation; the engine never branches on
// the concrete type beyond checking whether a private spend key is the
// null sentinel.
package crypto

import (
	"encoding/hex"
	"fmt"
)

const (
	// PointSize is the width in bytes of a compressed Edwards point
	// (public keys, one-time output keys, tx public keys, key images).
	PointSize = 32

	// ScalarSize is the width in bytes of a curve scalar (private keys,
	// derivation scalars).
	ScalarSize = 32

	// HashSize is the width in bytes of a cn_fast_hash digest.
	HashSize = 32
)

type (
	// Point is a compressed Edwards25519 point: a public spend key, a
	// public view key, a one-time output key, a transaction public key or
	// a key image, depending on context.
	Point [PointSize]byte

	// Scalar is a curve scalar: a private spend key, a private view key,
	// or a one-time private ("ephemeral") key.
	Scalar [ScalarSize]byte

	// Hash is a cn_fast_hash (Keccak-256) digest.
	Hash [HashSize]byte

	// Derivation is the shared secret produced by ECDH between a
	// transaction public key and a private view key.
	Derivation [PointSize]byte
)

// String implements fmt.Stringer, hex-encoding the point.
func (p Point) String() string { return hex.EncodeToString(p[:]) }

// String implements fmt.Stringer, hex-encoding the hash.
func (h Hash) String() string { return hex.EncodeToString(h[:]) }

// MarshalText implements encoding.TextMarshaler, so Point fields and map
// keys serialize to the hex strings the wire protocol and wallet
// document use (spec §6), not a raw JSON byte array.
func (p Point) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *Point) UnmarshalText(text []byte) error {
	v, err := PointFromString(string(text))
	if err != nil {
		return err
	}
	*p = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (s Scalar) MarshalText() ([]byte, error) { return []byte(hex.EncodeToString(s[:])), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Scalar) UnmarshalText(text []byte) error {
	v, err := ScalarFromString(string(text))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (h Hash) MarshalText() ([]byte, error) { return []byte(h.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (h *Hash) UnmarshalText(text []byte) error {
	v, err := HashFromString(string(text))
	if err != nil {
		return err
	}
	*h = v
	return nil
}

// PointFromString parses a hex-encoded Point.
func PointFromString(s string) (Point, error) {
	var p Point
	if err := decodeFixed(s, p[:]); err != nil {
		return Point{}, fmt.Errorf("crypto: decoding point %q: %w", s, err)
	}
	return p, nil
}

// ScalarFromString parses a hex-encoded Scalar.
func ScalarFromString(s string) (Scalar, error) {
	var v Scalar
	if err := decodeFixed(s, v[:]); err != nil {
		return Scalar{}, fmt.Errorf("crypto: decoding scalar %q: %w", s, err)
	}
	return v, nil
}

// HashFromString parses a hex-encoded Hash.
func HashFromString(s string) (Hash, error) {
	var h Hash
	if err := decodeFixed(s, h[:]); err != nil {
		return Hash{}, fmt.Errorf("crypto: decoding hash %q: %w", s, err)
	}
	return h, nil
}

func decodeFixed(s string, dst []byte) error {
	b, err := hex.DecodeString(s)
	if err != nil {
		return err
	}
	if len(b) != len(dst) {
		return fmt.Errorf("expected %d bytes, got %d", len(dst), len(b))
	}
	copy(dst, b)
	return nil
}

// IsNil returns true if p is the all-zero sentinel, used to mean "not
// applicable" (e.g. a key image on a view-only scan, or an absent private
// spend key).
func (p Point) IsNil() bool { return p == Point{} }

// IsNil returns true if s is the all-zero sentinel.
func (s Scalar) IsNil() bool { return s == Scalar{} }

// NilPoint is the all-zero sentinel Point.
var NilPoint Point

// NilScalar is the all-zero sentinel Scalar.
var NilScalar Scalar

// RingSignature is a single ring signature covering one key input's set of
// mixin candidates.
type RingSignature struct {
	Signatures [][ScalarSize]byte
}
