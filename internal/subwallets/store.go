// Package subwallets implements the Subwallets Store of spec §4.4: the
// single authoritative in-memory store of subwallet state, guarded by one
// RWMutex the way the teacher's modules/wallet.Wallet guards its keys and
// outputs maps, snapshotted to a WalletDocument and persisted atomically
// through the persist package.
package subwallets

import (
	"sync"
	"time"

	"github.com/QbitNetwork/Qbit-wallet-backend/build"
	"github.com/QbitNetwork/Qbit-wallet-backend/crypto"
	"github.com/QbitNetwork/Qbit-wallet-backend/modules"
	"github.com/QbitNetwork/Qbit-wallet-backend/persist"
	"github.com/QbitNetwork/Qbit-wallet-backend/types"
)

var _ modules.SubwalletsStore = (*Store)(nil)

// LockedMissThreshold is F, the number of consecutive locked-transaction
// checks in which the daemon reports a locked send notFound before the
// send is canceled back to spendable (spec §4.4, §9).
const LockedMissThreshold = 10

// PruneInterval is P, the height interval at which spent inputs older
// than the respend safety margin are pruned from memory (spec §4.4).
const PruneInterval = 5000

// Store is the Subwallets Store. All mutation happens through its
// methods; callers never reach into a SubWallet's slices directly.
type Store struct {
	mu sync.RWMutex

	privateViewKey crypto.Scalar
	isViewWallet   bool

	wallets map[crypto.Point]*types.SubWallet
	order   []crypto.Point // insertion order, for deterministic GetSubWallets

	transactions       []types.Transaction
	lockedMissStreak   map[crypto.Hash]int // keyed by the transaction hash of the locked send
	lockedTransactions map[crypto.Hash]bool

	status types.SynchronizationStatus

	log *persist.Logger
}

// New returns an empty Store for a wallet whose private view key is
// privateViewKey (crypto.NilScalar for a view-only wallet, per spec §3).
func New(privateViewKey crypto.Scalar, startHeight types.BlockHeight, log *persist.Logger) *Store {
	return &Store{
		privateViewKey:      privateViewKey,
		isViewWallet:        privateViewKey.IsNil(),
		wallets:             make(map[crypto.Point]*types.SubWallet),
		lockedMissStreak:    make(map[crypto.Hash]int),
		lockedTransactions:  make(map[crypto.Hash]bool),
		status:              types.NewSynchronizationStatus(startHeight),
		log:                 log,
	}
}

// PrivateViewKey returns the wallet-wide private view key shared by every
// subwallet.
func (s *Store) PrivateViewKey() crypto.Scalar {
	return s.privateViewKey
}

// IsViewWallet reports whether this wallet can detect spends at all.
func (s *Store) IsViewWallet() bool {
	return s.isViewWallet
}

// AddSubWallet registers a new subwallet. priv may be crypto.NilScalar
// for a view-only subwallet of a non-view-only wallet (spec §4.4
// heterogeneous spend-key support).
func (s *Store) AddSubWallet(pub crypto.Point, priv crypto.Scalar, scanHeight types.BlockHeight) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.wallets[pub]; exists {
		return types.NewWalletError(types.ErrKeyFormatInvalid, "subwallet %s already exists", pub)
	}

	s.wallets[pub] = &types.SubWallet{
		PublicSpendKey:  pub,
		PrivateSpendKey: priv,
		ScanHeight:      scanHeight,
	}
	s.order = append(s.order, pub)
	return nil
}

// GetSubWallets returns a snapshot copy of every tracked subwallet, safe
// for the caller to read without holding the store's lock (spec §4.4
// "copy-out on read" rule).
func (s *Store) GetSubWallets() []types.SubWallet {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]types.SubWallet, 0, len(s.order))
	for _, pub := range s.order {
		sw := *s.wallets[pub]
		sw.Unspent = append([]types.TransactionInput(nil), sw.Unspent...)
		sw.Spent = append([]types.TransactionInput(nil), sw.Spent...)
		sw.Locked = append([]types.TransactionInput(nil), sw.Locked...)
		out = append(out, sw)
	}
	return out
}

// Status returns a copy of the current synchronization status.
func (s *Store) Status() types.SynchronizationStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// minHeight returns the lowest ScanHeight across every tracked subwallet.
// Nothing in this module calls it: the Block Pipeline's start height is
// taken from the synchronization status (see cmd/walletd).
func (s *Store) minHeight() types.BlockHeight {
	var min types.BlockHeight
	first := true
	for _, sw := range s.wallets {
		if first || sw.ScanHeight < min {
			min = sw.ScanHeight
			first = false
		}
	}
	return min
}

// ApplyTransactionData merges one block's attribution results into the
// store: new transactions, new unspent inputs, and key images to mark
// spent, in that order, then advances every affected subwallet's scan
// height and sets the synchronization status's LastKnownHeight to height.
// No block hash is passed in, so no (height, hash) pair is recorded in
// the status. This is the Store's single write path for chain-derived
// state (spec §4.4).
func (s *Store) ApplyTransactionData(height types.BlockHeight, data types.TransactionData) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.transactions = append(s.transactions, data.TransactionsToAdd...)

	for _, in := range data.InputsToAdd {
		sw, ok := s.wallets[in.Owner]
		if !ok {
			build.Severe("attribution produced an input for unknown subwallet", in.Owner)
			continue
		}
		sw.Unspent = append(sw.Unspent, in)
	}

	for _, ski := range data.KeyImagesToMarkSpent {
		sw, ok := s.wallets[ski.Owner]
		if !ok {
			build.Severe("attribution produced a spent key image for unknown subwallet", ski.Owner)
			continue
		}
		s.markSpentLocked(sw, ski.KeyImage, ski.BlockHeight)
	}

	for _, pub := range s.order {
		sw := s.wallets[pub]
		if height >= sw.ScanHeight {
			sw.ScanHeight = height + 1
		}
	}
	s.status.LastKnownHeight = height

	if height%PruneInterval == 0 {
		s.pruneSpentLocked(height)
	}

	return nil
}

// markSpentLocked moves an input from Unspent (or Locked) to Spent by key
// image, recording the spend height. Called with s.mu held.
func (s *Store) markSpentLocked(sw *types.SubWallet, keyImage crypto.Point, spendHeight types.BlockHeight) {
	for i, in := range sw.Unspent {
		if in.KeyImage == keyImage {
			in.SpendHeight = spendHeight
			sw.Unspent = append(sw.Unspent[:i], sw.Unspent[i+1:]...)
			sw.Spent = append(sw.Spent, in)
			return
		}
	}
	for i, in := range sw.Locked {
		if in.KeyImage == keyImage {
			in.SpendHeight = spendHeight
			sw.Locked = append(sw.Locked[:i], sw.Locked[i+1:]...)
			sw.Spent = append(sw.Spent, in)
			delete(s.lockedTransactions, in.SpendingTransactionHash)
			delete(s.lockedMissStreak, in.SpendingTransactionHash)
			return
		}
	}
}

// Balance returns the unlocked and locked balance of the given
// subwallet's public spend key (spec §4.4 balance algorithm: an input
// counts toward unlocked only if both the unlock_time rule is satisfied
// and it is not held Locked pending a send).
func (s *Store) Balance(pub crypto.Point) (unlocked, locked uint64, err error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sw, ok := s.wallets[pub]
	if !ok {
		return 0, 0, types.NewWalletError(types.ErrSubwalletNotFound, "no subwallet with public spend key %s", pub)
	}

	networkHeight := s.status.LastKnownHeight
	now := uint64(time.Now().Unix())
	for _, in := range sw.Unspent {
		if in.IsUnlocked(networkHeight, now) {
			unlocked += in.Amount
		} else {
			locked += in.Amount
		}
	}
	for _, in := range sw.Locked {
		locked += in.Amount
	}
	return unlocked, locked, nil
}

// RewindTo discards chain-derived state above height from every
// subwallet and the synchronization status, used on fork detection
// (spec §4.3) and explicit rescan (spec §10).
func (s *Store) RewindTo(height types.BlockHeight) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, pub := range s.order {
		sw := s.wallets[pub]
		sw.Unspent = rewindInputs(sw.Unspent, height)
		spent := rewindInputs(sw.Spent, height)
		sw.Spent = spent[:0:0]
		for _, in := range spent {
			if in.IsSpent() {
				sw.Spent = append(sw.Spent, in)
			} else {
				// its spend was above height: the input is unspent again
				sw.Unspent = append(sw.Unspent, in)
			}
		}
		sw.Locked = rewindInputs(sw.Locked, height)
		if sw.ScanHeight > height+1 {
			sw.ScanHeight = height + 1
		}
	}

	kept := s.transactions[:0:0]
	for _, tx := range s.transactions {
		if tx.BlockHeight <= height {
			kept = append(kept, tx)
		}
	}
	s.transactions = kept

	s.status.RewindTo(height)
	return nil
}

// rewindInputs drops inputs first observed after height, and un-spends
// any input whose SpendHeight is above height (the spend itself may have
// been on the now-orphaned fork).
func rewindInputs(ins []types.TransactionInput, height types.BlockHeight) []types.TransactionInput {
	out := ins[:0:0]
	for _, in := range ins {
		if in.BlockHeight > height {
			continue
		}
		if in.SpendHeight > height {
			in.SpendHeight = 0
		}
		out = append(out, in)
	}
	return out
}

// Save snapshots the store into a WalletDocument and persists it
// atomically to path.
func (s *Store) Save(path string) error {
	s.mu.RLock()
	doc := s.snapshotLocked()
	s.mu.RUnlock()
	return persist.SaveWalletDocument(path, doc)
}

func (s *Store) snapshotLocked() types.WalletDocument {
	doc := types.WalletDocument{
		WalletFileFormatVersion: types.WalletFileFormatVersion,
		SubWallets: types.SubWalletsDocument{
			Transactions:   append([]types.Transaction(nil), s.transactions...),
			PrivateViewKey: s.privateViewKey,
			IsViewWallet:   s.isViewWallet,
		},
		WalletSynchronizer: types.SynchronizerDocument{
			PrivateViewKey: s.privateViewKey,
			TransactionSynchronizerStatus: types.TransactionSynchronizerStatusDoc{
				LastKnownBlockHeight: s.status.LastKnownHeight,
			},
		},
	}
	for _, bh := range s.status.RecentHashes {
		doc.WalletSynchronizer.TransactionSynchronizerStatus.LastKnownBlockHashes = append(
			doc.WalletSynchronizer.TransactionSynchronizerStatus.LastKnownBlockHashes, bh.Hash)
	}
	for _, bh := range s.status.Checkpoints {
		doc.WalletSynchronizer.TransactionSynchronizerStatus.BlockHashCheckpoints = append(
			doc.WalletSynchronizer.TransactionSynchronizerStatus.BlockHashCheckpoints, bh.Hash)
	}
	for _, pub := range s.order {
		sw := s.wallets[pub]
		sd := types.SubWalletDocument{
			PublicSpendKey:     sw.PublicSpendKey,
			UnspentInputs:      append([]types.TransactionInput(nil), sw.Unspent...),
			LockedInputs:       append([]types.TransactionInput(nil), sw.Locked...),
			SpentInputs:        append([]types.TransactionInput(nil), sw.Spent...),
			SyncStartHeight:    sw.ScanHeight,
			SyncStartTimestamp: sw.ScanTimestamp,
		}
		if !sw.PrivateSpendKey.IsNil() {
			priv := sw.PrivateSpendKey
			sd.PrivateSpendKey = &priv
		}
		doc.SubWallets.PublicSpendKeys = append(doc.SubWallets.PublicSpendKeys, sw.PublicSpendKey)
		doc.SubWallets.SubWallet = append(doc.SubWallets.SubWallet, sd)
	}
	return doc
}

// LoadInto restores a Store's internal state from a previously persisted
// WalletDocument. The set of locked sends is rebuilt from the Locked
// inputs' SpendingTransactionHash, with every miss streak starting at 0.
// Sparse checkpoints are not restored: the document keeps their hashes
// without heights.
func LoadInto(doc types.WalletDocument, log *persist.Logger) *Store {
	s := New(doc.SubWallets.PrivateViewKey, 0, log)
	s.transactions = append([]types.Transaction(nil), doc.SubWallets.Transactions...)

	recent := doc.WalletSynchronizer.TransactionSynchronizerStatus.LastKnownBlockHashes
	for i, h := range recent {
		height := doc.WalletSynchronizer.TransactionSynchronizerStatus.LastKnownBlockHeight - types.BlockHeight(len(recent)-1-i)
		s.status.RecentHashes = append(s.status.RecentHashes, types.BlockHash{Height: height, Hash: h})
	}
	s.status.LastKnownHeight = doc.WalletSynchronizer.TransactionSynchronizerStatus.LastKnownBlockHeight

	for _, sd := range doc.SubWallets.SubWallet {
		priv := crypto.NilScalar
		if sd.PrivateSpendKey != nil {
			priv = *sd.PrivateSpendKey
		}
		sw := &types.SubWallet{
			PublicSpendKey:  sd.PublicSpendKey,
			PrivateSpendKey: priv,
			Unspent:         append([]types.TransactionInput(nil), sd.UnspentInputs...),
			Locked:          append([]types.TransactionInput(nil), sd.LockedInputs...),
			Spent:           append([]types.TransactionInput(nil), sd.SpentInputs...),
			ScanHeight:      sd.SyncStartHeight,
			ScanTimestamp:   sd.SyncStartTimestamp,
		}
		s.wallets[sd.PublicSpendKey] = sw
		s.order = append(s.order, sd.PublicSpendKey)
		for _, in := range sw.Locked {
			s.lockedTransactions[in.SpendingTransactionHash] = true
		}
	}
	return s
}
