// Package types holds the core data model of the wallet synchronization
// engine: the wire-level Block/RawTx shapes coming from the remote node,
// and the wallet-owned Input/Transaction/SubWallet/SynchronizationStatus
// records derived from them (spec §3).
package types

import "github.com/QbitNetwork/Qbit-wallet-backend/crypto"

// BlockHeight indexes blocks from genesis (height 0).
type BlockHeight uint64

// Block is a raw block as streamed from the remote node.
type Block struct {
	Height       BlockHeight
	Hash         crypto.Hash
	Timestamp    uint64
	Coinbase     *RawTx
	Transactions []RawTx
}

// KeyOutput is a single one-time stealth output inside a RawTx.
type KeyOutput struct {
	Key         crypto.Point
	Amount      uint64
	GlobalIndex *uint64
}

// KeyInput is a single spent key image reference inside a RawTx.
type KeyInput struct {
	Amount   uint64
	KeyImage crypto.Point
}

// RawTx is a transaction exactly as carried on the wire, before any
// wallet-side attribution has been computed.
type RawTx struct {
	Hash        crypto.Hash
	PublicKey   crypto.Point
	UnlockTime  uint64
	PaymentID   string
	KeyOutputs  []KeyOutput
	KeyInputs   []KeyInput
}

// HasGlobalIndexes reports whether every key output in the transaction
// already carries its global index (set by nodes that serve a pre-indexed
// cache; see the Attribution Engine's late-fill path).
func (tx RawTx) HasGlobalIndexes() bool {
	for _, o := range tx.KeyOutputs {
		if o.GlobalIndex == nil {
			return false
		}
	}
	return true
}
