package types

import "github.com/QbitNetwork/Qbit-wallet-backend/crypto"

// SubWallet is one (public, [private]) spend-key pair tracked by the
// wallet, sharing the wallet-wide private view key. Invariant: a given key
// image appears in exactly one of {Unspent, Spent, Locked} across every
// subwallet in the store (spec §3, §8).
type SubWallet struct {
	PublicSpendKey  crypto.Point
	PrivateSpendKey crypto.Scalar // crypto.NilScalar for a view-only subwallet

	Unspent []TransactionInput
	Spent   []TransactionInput
	Locked  []TransactionInput

	ScanHeight    BlockHeight
	ScanTimestamp uint64
}

// IsViewOnly reports whether this subwallet can detect spends (it cannot,
// if it has no private spend key to compute key images with).
func (sw SubWallet) IsViewOnly() bool {
	return sw.PrivateSpendKey.IsNil()
}
