package nodeclient

import (
	"encoding/hex"
	"strconv"
)

// formatAmount renders an amount the way the wire protocol keys its
// per-denomination random-output buckets (spec §6).
func formatAmount(amount uint64) string {
	return strconv.FormatUint(amount, 10)
}

func encodeHex(raw []byte) string {
	return hex.EncodeToString(raw)
}
