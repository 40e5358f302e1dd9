package types

import "github.com/QbitNetwork/Qbit-wallet-backend/crypto"

// TransactionInput is an owned, one-time stealth output discovered by the
// Attribution Engine and held by the Subwallets Store. It is immutable
// once created except for SpendHeight (set when the matching key image is
// later seen as spent) and GlobalOutputIndex (late-filled when the node
// that served the block didn't carry it inline). Invariant: SpendHeight
// == 0 iff the input is unspent.
type TransactionInput struct {
	// Owner is the public spend key of the subwallet this output belongs
	// to, letting the Subwallets Store route an attributed input without
	// a separate lookup table.
	Owner             crypto.Point
	KeyImage          crypto.Point
	Amount            uint64
	BlockHeight       BlockHeight
	TxPublicKey       crypto.Point
	TxOutputIndex     uint64
	GlobalOutputIndex uint64
	OutputKey         crypto.Point
	SpendHeight       BlockHeight
	UnlockTime        uint64
	ParentTxHash      crypto.Hash

	// SpendingTransactionHash is set while the input is held Locked
	// pending a send this wallet created, so a miss on its key image can
	// be attributed back to the send that locked it.
	SpendingTransactionHash crypto.Hash

	// PrivateEphemeral is the one-time private key for this output. It is
	// the all-zero sentinel for view-only wallets, for which spend
	// detection via key image is impossible.
	PrivateEphemeral crypto.Scalar
}

// IsSpent reports whether the input has been marked spent.
func (in TransactionInput) IsSpent() bool { return in.SpendHeight != 0 }

// IsUnlocked reports whether the input's UnlockTime has passed, given the
// current network height. Lock rule (spec §4.4): UnlockTime == 0 is always
// unlocked; a value at or above MaxBlockNumberThreshold is interpreted as a
// wall-clock Unix timestamp rather than a block height.
func (in TransactionInput) IsUnlocked(networkHeight BlockHeight, nowUnix uint64) bool {
	return IsUnlockTimeUnlocked(in.UnlockTime, networkHeight, nowUnix)
}

// MaxBlockNumberThreshold is the boundary (2^32) above which an
// UnlockTime value is interpreted as a Unix timestamp instead of a block
// height, matching the CryptoNote convention referenced throughout spec §4.
const MaxBlockNumberThreshold = uint64(1) << 32

// IsUnlockTimeUnlocked applies the lock rule described in spec §4.4 to a
// raw unlock_time value.
func IsUnlockTimeUnlocked(unlockTime uint64, currentHeight BlockHeight, nowUnix uint64) bool {
	if unlockTime == 0 {
		return true
	}
	if unlockTime >= MaxBlockNumberThreshold {
		return nowUnix >= unlockTime
	}
	return uint64(currentHeight)+1 >= unlockTime
}
