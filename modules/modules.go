// Package modules declares the interfaces the Coordinator wires together,
// the way the teacher's own top-level modules package declares the
// contracts between its consensus/wallet/gateway components rather than
// letting them depend on each other's concrete types.
package modules

import (
	"context"

	"github.com/QbitNetwork/Qbit-wallet-backend/crypto"
	"github.com/QbitNetwork/Qbit-wallet-backend/types"
)

// NodeClient is the Node Client component of spec §4.6: a thin, swappable
// transport to a remote daemon.
type NodeClient interface {
	GetWalletSyncData(ctx context.Context, blockHashCheckpoints []crypto.Hash, startHeight, startTimestamp types.BlockHeight, blockCount int) (blocks []types.Block, topBlock *types.Block, err error)
	GetGlobalIndexesForRange(ctx context.Context, startHeight, endHeight types.BlockHeight) (map[crypto.Hash][]uint64, error)
	GetRandomOutputs(ctx context.Context, amounts []uint64, mixin int) (map[uint64][]RandomOutput, error)
	SendRawTransaction(ctx context.Context, raw []byte) error
	GetDaemonInfo(ctx context.Context) (DaemonInfo, error)
	GetTransactionsStatus(ctx context.Context, hashes []crypto.Hash) (inPool, notFound []crypto.Hash, err error)
	Connected() bool
}

// RandomOutput is one decoy output candidate returned for ring
// construction.
type RandomOutput struct {
	GlobalIndex uint64       `json:"globalIndex"`
	Key         crypto.Point `json:"outputKey"`
}

// DaemonInfo is the remote node's reported chain state.
type DaemonInfo struct {
	NetworkHeight types.BlockHeight
	LocalHeight   types.BlockHeight
	PeerCount     int
	Synced        bool
}

// BlockPipeline is the Block Acquisition Pipeline of spec §4.1: a
// bounded, backpressured, prefetching buffer of blocks ready for
// consumption by the Attribution Engine.
type BlockPipeline interface {
	Start(ctx context.Context)
	Stop()
	NextBlock(ctx context.Context) (types.Block, bool)
	Reset(startHeight types.BlockHeight)
	Status() PipelineStatus
}

// PipelineStatus reports the pipeline's internal state for diagnostics.
type PipelineStatus struct {
	QueueDepth  int
	BatchSize   int
	LastFetched types.BlockHeight
	Stalled     bool

	// DeadNode is latched true once no fetch has succeeded for longer
	// than DeadNodeTimeout, and cleared on the next successful fetch
	// (spec §4.1 liveness). The Coordinator edge-detects this to emit
	// EventDeadNode exactly once per outage.
	DeadNode bool
}

// AttributionEngine is the Output-Scanning & Attribution Engine of
// spec §4.2: it turns raw blocks into subwallet-attributed transaction
// data.
type AttributionEngine interface {
	ProcessBlock(ctx context.Context, block types.Block, subWallets []types.SubWallet, privateViewKey crypto.Scalar) (types.TransactionData, error)
}

// SubwalletsStore is the Subwallets Store of spec §4.4: the single
// authoritative in-memory store of subwallet state, mutated only through
// its own methods.
type SubwalletsStore interface {
	AddSubWallet(pub crypto.Point, priv crypto.Scalar, scanHeight types.BlockHeight) error
	GetSubWallets() []types.SubWallet
	ApplyTransactionData(height types.BlockHeight, data types.TransactionData) error
	Balance(pub crypto.Point) (unlocked, locked uint64, err error)
	RewindTo(height types.BlockHeight) error
	Status() types.SynchronizationStatus
	Save(path string) error

	// LockedTransactionHashes and ReconcileLockedTransactions back the
	// locked-transaction cancellation protocol (spec §4.4's
	// get_locked_transaction_hashes): the Coordinator polls the daemon
	// for these hashes' status and feeds the notFound set back in.
	LockedTransactionHashes() []crypto.Hash
	ReconcileLockedTransactions(notFound []crypto.Hash) []crypto.Hash
}

// EventKind enumerates the events the Coordinator broadcasts over its
// event bus (spec §9 Design Notes: event bus).
type EventKind int

const (
	EventSynced EventKind = iota
	EventNewBlock
	EventTransactionFound
	EventLockedTransactionsCanceled
	EventHeightChanged
	EventDisconnected
	EventReconnected

	// EventDeadNode fires once per outage when the Block Pipeline sees
	// no successful fetch for over DeadNodeTimeout, and is re-armed by
	// the next successful fetch so a later outage fires again (spec
	// §4.1, §4.5).
	EventDeadNode
)

// Event is the payload broadcast for every EventKind.
type Event struct {
	Kind   EventKind
	Height types.BlockHeight
	Data   interface{}
}
