package types

import "github.com/QbitNetwork/Qbit-wallet-backend/crypto"

// Transaction is the wallet's attributed view of a RawTx: a per-subwallet
// signed delta, positive for incoming, negative for outgoing, zero for a
// fusion (self-to-self) transaction.
type Transaction struct {
	Hash        crypto.Hash
	Transfers   map[crypto.Point]int64
	Fee         uint64
	BlockHeight BlockHeight
	Timestamp   uint64
	PaymentID   string
	UnlockTime  uint64
	IsCoinbase  bool

	// Confirmed is false for a transaction still living only in the
	// unconfirmed/locked set (spec §4.4's locked-transaction tracking).
	Confirmed bool
}

// NetChange sums all transfers, which by construction must equal the
// total net change the transaction causes across the wallet's subwallets.
func (t Transaction) NetChange() int64 {
	var total int64
	for _, v := range t.Transfers {
		total += v
	}
	return total
}

// IsFusion reports whether this transaction nets to zero across every
// subwallet, the CryptoNote-family signature of a self-consolidation
// (fusion) transaction.
func (t Transaction) IsFusion() bool {
	return len(t.Transfers) > 0 && t.NetChange() == 0
}

// TransactionData is the result of scanning a single block: the fully
// formed records the Attribution Engine hands to the Subwallets Store for
// atomic commit (spec §4.2, §7 — "build full TransactionData first, then
// apply").
type TransactionData struct {
	TransactionsToAdd    []Transaction
	InputsToAdd          []TransactionInput
	KeyImagesToMarkSpent []SpentKeyImage
}

// SpentKeyImage names a key image discovered as spent by a processed
// block, together with the subwallet (by public spend key) that owns it.
type SpentKeyImage struct {
	Owner       crypto.Point
	KeyImage    crypto.Point
	BlockHeight BlockHeight
}
