package subwallets

import "github.com/QbitNetwork/Qbit-wallet-backend/types"

// RespendSafetyMargin is the number of blocks a spent input is retained
// in the Spent set after its spend height before being eligible for
// pruning, wide enough to survive the fork-handling rewind window of
// spec §4.3.
const RespendSafetyMargin = 100

// pruneSpentLocked drops Spent inputs whose spend height is
// RespendSafetyMargin or more blocks behind the current synchronized height,
// keeping the Store's memory footprint bounded for wallets with long
// transaction histories (spec §4.4). Called with s.mu held, every
// PruneInterval heights.
func (s *Store) pruneSpentLocked(height types.BlockHeight) {
	if height < RespendSafetyMargin {
		return
	}
	cutoff := height - RespendSafetyMargin

	for _, pub := range s.order {
		sw := s.wallets[pub]
		kept := sw.Spent[:0:0]
		for _, in := range sw.Spent {
			if in.SpendHeight == 0 || in.SpendHeight > cutoff {
				kept = append(kept, in)
			}
		}
		sw.Spent = kept
	}
}
