package subwallets

import "github.com/QbitNetwork/Qbit-wallet-backend/crypto"

// LockInputsForSend moves the inputs named by keyImages (found in
// Unspent) into the Locked set for their owning subwallets, associating
// them with txHash so a later miss streak can be attributed to this send
// (spec §4.4 locked-transaction tracking).
func (s *Store) LockInputsForSend(txHash crypto.Hash, keyImages []crypto.Point) {
	s.mu.Lock()
	defer s.mu.Unlock()

	want := make(map[crypto.Point]bool, len(keyImages))
	for _, ki := range keyImages {
		want[ki] = true
	}

	for _, pub := range s.order {
		sw := s.wallets[pub]
		remaining := sw.Unspent[:0:0]
		for _, in := range sw.Unspent {
			if want[in.KeyImage] {
				in.SpendingTransactionHash = txHash
				sw.Locked = append(sw.Locked, in)
			} else {
				remaining = append(remaining, in)
			}
		}
		sw.Unspent = remaining
	}
	s.lockedTransactions[txHash] = true
	s.lockedMissStreak[txHash] = 0
}

// LockedTransactionHashes returns the hash of every send currently
// holding inputs Locked, for the Coordinator's locked-transactions poll
// (spec §4.4's get_locked_transaction_hashes).
func (s *Store) LockedTransactionHashes() []crypto.Hash {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]crypto.Hash, 0, len(s.lockedTransactions))
	for h := range s.lockedTransactions {
		out = append(out, h)
	}
	return out
}

// ReconcileLockedTransactions advances the miss streak for every locked
// send the daemon reported notFound (absent from both the pool and the
// chain) and resets the streak for every other tracked send, canceling
// -- moving its inputs back to Unspent -- any send that has missed
// LockedMissThreshold (F) consecutive checks in a row (spec §4.4, §9
// resolved open question). A send's key images being seen spent on
// chain is handled separately by markSpentLocked, which forgets the
// send outright rather than going through this streak. Returns the
// hashes canceled by this call, for event emission.
func (s *Store) ReconcileLockedTransactions(notFound []crypto.Hash) []crypto.Hash {
	s.mu.Lock()
	defer s.mu.Unlock()

	missing := make(map[crypto.Hash]bool, len(notFound))
	for _, h := range notFound {
		missing[h] = true
	}

	var canceled []crypto.Hash
	for txHash := range s.lockedTransactions {
		if !missing[txHash] {
			s.lockedMissStreak[txHash] = 0
			continue
		}
		s.lockedMissStreak[txHash]++
		if s.lockedMissStreak[txHash] >= LockedMissThreshold {
			s.cancelLockedLocked(txHash)
			canceled = append(canceled, txHash)
		}
	}
	return canceled
}

// cancelLockedLocked moves every input locked under txHash back to
// Unspent and forgets the send. Called with s.mu held.
func (s *Store) cancelLockedLocked(txHash crypto.Hash) {
	for _, pub := range s.order {
		sw := s.wallets[pub]
		remaining := sw.Locked[:0:0]
		for _, in := range sw.Locked {
			if in.SpendingTransactionHash == txHash {
				in.SpendingTransactionHash = crypto.Hash{}
				sw.Unspent = append(sw.Unspent, in)
			} else {
				remaining = append(remaining, in)
			}
		}
		sw.Locked = remaining
	}
	delete(s.lockedTransactions, txHash)
	delete(s.lockedMissStreak, txHash)
}
