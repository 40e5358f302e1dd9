package types

import "github.com/QbitNetwork/Qbit-wallet-backend/crypto"

// WalletFileFormatVersion is the current on-disk wallet document version
// (spec §6). Bump this whenever WalletDocument's shape changes in a way
// that requires a migration.
const WalletFileFormatVersion = 1

// WalletDocument is the persisted wallet state, matching the JSON
// document shape enumerated in spec §6. It round-trips through
// persist.SaveWalletDocument / persist.LoadWalletDocument.
type WalletDocument struct {
	WalletFileFormatVersion uint32              `json:"walletFileFormatVersion"`
	SubWallets              SubWalletsDocument  `json:"subWallets"`
	WalletSynchronizer      SynchronizerDocument `json:"walletSynchronizer"`
}

// SubWalletsDocument is the "subWallets" section of WalletDocument.
type SubWalletsDocument struct {
	PublicSpendKeys    []crypto.Point        `json:"publicSpendKeys"`
	SubWallet          []SubWalletDocument   `json:"subWallet"`
	Transactions       []Transaction         `json:"transactions"`
	LockedTransactions []crypto.Hash         `json:"lockedTransactions"`
	PrivateViewKey     crypto.Scalar         `json:"privateViewKey"`
	IsViewWallet       bool                  `json:"isViewWallet"`
	TxPrivateKeys      []TxPrivateKeyRecord  `json:"txPrivateKeys"`
}

// SubWalletDocument is one entry of the "subWallet" array.
type SubWalletDocument struct {
	Address            string              `json:"address"`
	PublicSpendKey     crypto.Point        `json:"publicSpendKey"`
	PrivateSpendKey    *crypto.Scalar      `json:"privateSpendKey,omitempty"`
	UnspentInputs      []TransactionInput  `json:"unspentInputs"`
	LockedInputs       []TransactionInput  `json:"lockedInputs"`
	SpentInputs        []TransactionInput  `json:"spentInputs"`
	SyncStartHeight    BlockHeight         `json:"syncStartHeight"`
	SyncStartTimestamp uint64              `json:"syncStartTimestamp"`
}

// TxPrivateKeyRecord records the per-outgoing-transaction private key
// needed to later prove payment, keyed by transaction hash.
type TxPrivateKeyRecord struct {
	TransactionHash crypto.Hash   `json:"transactionHash"`
	TxPrivateKey    crypto.Scalar `json:"txPrivateKey"`
}

// SynchronizerDocument is the "walletSynchronizer" section of
// WalletDocument.
type SynchronizerDocument struct {
	StartHeight                    BlockHeight                      `json:"startHeight"`
	StartTimestamp                 uint64                            `json:"startTimestamp"`
	PrivateViewKey                 crypto.Scalar                     `json:"privateViewKey"`
	TransactionSynchronizerStatus  TransactionSynchronizerStatusDoc  `json:"transactionSynchronizerStatus"`
}

// TransactionSynchronizerStatusDoc mirrors SynchronizationStatus in the
// wire/document shape named by spec §6.
type TransactionSynchronizerStatusDoc struct {
	LastKnownBlockHashes []crypto.Hash `json:"lastKnownBlockHashes"`
	LastKnownBlockHeight BlockHeight   `json:"lastKnownBlockHeight"`
	BlockHashCheckpoints []crypto.Hash `json:"blockHashCheckpoints"`
}
