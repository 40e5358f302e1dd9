package types

import "github.com/QbitNetwork/Qbit-wallet-backend/crypto"

const (
	// RecentHashWindow is K, the number of most-recently-processed
	// (height, hash) pairs kept densely for checkpoint construction
	// (spec §3, §4.1).
	RecentHashWindow = 100

	// SparseCheckpointInterval is C, the height interval at which a
	// (height, hash) pair is retained indefinitely as a sparse
	// checkpoint, letting the remote node find a common ancestor even
	// after the dense recent-hash tail has rolled off.
	SparseCheckpointInterval = 5000
)

// BlockHash pairs a height with the hash observed for it.
type BlockHash struct {
	Height BlockHeight
	Hash   crypto.Hash
}

// SynchronizationStatus is the append-only-in-spirit log of processed
// blocks: a dense ring buffer of the last RecentHashWindow hashes plus a
// sparse checkpoint every SparseCheckpointInterval heights. Hashes are
// strictly monotonic in height until a fork is observed (spec §3).
type SynchronizationStatus struct {
	LastKnownHeight BlockHeight
	RecentHashes    []BlockHash // dense tail, oldest first, capped at RecentHashWindow
	Checkpoints     []BlockHash // sparse, oldest first
}

// NewSynchronizationStatus returns a status positioned just before
// startHeight, with no history — the state used by Reset.
func NewSynchronizationStatus(startHeight BlockHeight) SynchronizationStatus {
	if startHeight == 0 {
		return SynchronizationStatus{LastKnownHeight: 0}
	}
	return SynchronizationStatus{LastKnownHeight: startHeight - 1}
}

// StoreBlockHash appends (height, hash) to the status, trimming the dense
// tail to RecentHashWindow and adding a sparse checkpoint every
// SparseCheckpointInterval heights.
func (s *SynchronizationStatus) StoreBlockHash(height BlockHeight, hash crypto.Hash) {
	bh := BlockHash{Height: height, Hash: hash}
	s.RecentHashes = append(s.RecentHashes, bh)
	if len(s.RecentHashes) > RecentHashWindow {
		s.RecentHashes = s.RecentHashes[len(s.RecentHashes)-RecentHashWindow:]
	}
	if height%SparseCheckpointInterval == 0 {
		s.Checkpoints = append(s.Checkpoints, bh)
	}
	s.LastKnownHeight = height
}

// TopHash returns the hash most recently recorded, if any.
func (s SynchronizationStatus) TopHash() (crypto.Hash, bool) {
	if len(s.RecentHashes) == 0 {
		return crypto.Hash{}, false
	}
	return s.RecentHashes[len(s.RecentHashes)-1].Hash, true
}

// CheckpointsDescending composes the checkpoint list submitted to the
// remote node: the caller's storedBlockHashesDesc, then the dense recent
// tail (most-recent first, matching the wire protocol's descending
// convention), then the sparse checkpoints in stored order (oldest first), per spec
// §4.1 step 2 ("stored_block_hashes_desc + recent_hashes +
// sparse_checkpoints").
func (s SynchronizationStatus) CheckpointsDescending(storedBlockHashesDesc []BlockHash) []BlockHash {
	out := make([]BlockHash, 0, len(storedBlockHashesDesc)+len(s.RecentHashes)+len(s.Checkpoints))
	out = append(out, storedBlockHashesDesc...)
	for i := len(s.RecentHashes) - 1; i >= 0; i-- {
		out = append(out, s.RecentHashes[i])
	}
	out = append(out, s.Checkpoints...)
	return out
}

// RewindTo truncates the dense and sparse history down to (and including)
// the given height, used when rewinding to a prior scan height without
// discarding everything (spec §4.1 rewind semantics, as distinct from
// Reset).
func (s *SynchronizationStatus) RewindTo(height BlockHeight) {
	filtered := s.RecentHashes[:0:0]
	for _, bh := range s.RecentHashes {
		if bh.Height <= height {
			filtered = append(filtered, bh)
		}
	}
	s.RecentHashes = filtered

	filteredCheckpoints := s.Checkpoints[:0:0]
	for _, bh := range s.Checkpoints {
		if bh.Height <= height {
			filteredCheckpoints = append(filteredCheckpoints, bh)
		}
	}
	s.Checkpoints = filteredCheckpoints
	s.LastKnownHeight = height
}
