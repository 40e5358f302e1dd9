// Package config loads the enumerated Configuration of spec §6 from a TOML
// file, in the format the teacher's own dependency tree already vendors
// (github.com/pelletier/go-toml), with sane defaults for every field a
// deployment doesn't override.
package config

import (
	"fmt"
	"os"
	"time"

	toml "github.com/pelletier/go-toml"

	"github.com/QbitNetwork/Qbit-wallet-backend/types"
)

// MixinRange is the (minimum, maximum) mixin count effective starting at a
// given chain height.
type MixinRange struct {
	Height types.BlockHeight `toml:"height"`
	Min    uint64            `toml:"min"`
	Max    uint64            `toml:"max"`
}

// Config is the enumerated Configuration of spec §6.
type Config struct {
	DecimalPlaces  uint8  `toml:"decimal_places"`
	AddressPrefix  uint64 `toml:"address_prefix"`
	TickerSymbol   string `toml:"ticker_symbol"`

	RequestTimeout    time.Duration `toml:"request_timeout_ms"`
	BlockTargetTime   time.Duration `toml:"block_target_seconds"`

	SyncThreadInterval               time.Duration `toml:"sync_thread_interval_ms"`
	DaemonUpdateInterval             time.Duration `toml:"daemon_update_interval_ms"`
	LockedTransactionsCheckInterval  time.Duration `toml:"locked_transactions_check_interval_ms"`
	BlocksPerTick                    int           `toml:"blocks_per_tick"`

	ScanCoinbaseTransactions bool `toml:"scan_coinbase_transactions"`

	MinimumFee         uint64 `toml:"minimum_fee"`
	MinimumFeePerByte  uint64 `toml:"minimum_fee_per_byte"`
	FeePerByteChunkSize uint64 `toml:"fee_per_byte_chunk_size"`

	MixinLimits []MixinRange `toml:"mixin_limits"`

	StandardAddressLength   int `toml:"standard_address_length"`
	IntegratedAddressLength int `toml:"integrated_address_length"`

	BlockStoreMemoryLimitBytes uint64 `toml:"block_store_memory_limit_bytes"`
	BlocksPerDaemonRequest     int    `toml:"blocks_per_daemon_request"`

	MaxLastFetchedBlockInterval          time.Duration `toml:"max_last_fetched_block_interval_s"`
	MaxLastUpdatedNetworkHeightInterval  time.Duration `toml:"max_last_updated_network_height_interval_s"`
	MaxLastUpdatedLocalHeightInterval    time.Duration `toml:"max_last_updated_local_height_interval_s"`

	CustomUserAgent string `toml:"custom_user_agent"`
}

// Default returns the Configuration with the defaults named throughout
// spec.md (batch cap 100, K=100 recent hashes, C=5000 checkpoint interval,
// F=10 cancellation threshold, P=5000 prune interval are spec constants
// living next to the components that use them, not here).
func Default() Config {
	return Config{
		DecimalPlaces:                       6,
		AddressPrefix:                       0,
		TickerSymbol:                        "QBT",
		RequestTimeout:                      30 * time.Second,
		BlockTargetTime:                     90 * time.Second,
		SyncThreadInterval:                  3 * time.Second,
		DaemonUpdateInterval:                10 * time.Second,
		LockedTransactionsCheckInterval:     5 * time.Second,
		BlocksPerTick:                       1,
		ScanCoinbaseTransactions:            true,
		MinimumFee:                          10,
		MinimumFeePerByte:                   1,
		FeePerByteChunkSize:                 256,
		StandardAddressLength:               99,
		IntegratedAddressLength:             187,
		BlockStoreMemoryLimitBytes:          50 * 1000 * 1000,
		BlocksPerDaemonRequest:              100,
		MaxLastFetchedBlockInterval:         3 * time.Minute,
		MaxLastUpdatedNetworkHeightInterval: 3 * time.Minute,
		MaxLastUpdatedLocalHeightInterval:   3 * time.Minute,
		CustomUserAgent:                     "qbit-wallet-backend",
	}
}

// LoadFile reads a TOML configuration file, applying it on top of
// Default() so an absent field keeps its default value.
func LoadFile(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("config: reading %s: %w", path, err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate rejects configuration values that this engine cannot operate
// under, returning a types.WalletError so the caller's validation-error
// handling stays uniform with the rest of the public surface (spec §7).
func (c Config) Validate() error {
	if c.BlocksPerDaemonRequest <= 0 || c.BlocksPerDaemonRequest > 100 {
		return types.NewWalletError(types.ErrDaemonSyncError,
			"blocks_per_daemon_request must be in (0,100], got %d", c.BlocksPerDaemonRequest)
	}
	if c.BlocksPerTick <= 0 {
		return types.NewWalletError(types.ErrDaemonSyncError,
			"blocks_per_tick must be positive, got %d", c.BlocksPerTick)
	}
	for _, mr := range c.MixinLimits {
		if mr.Min > mr.Max {
			return types.NewWalletError(types.ErrMixinOutOfRange,
				"mixin_limits entry at height %d has min > max", mr.Height)
		}
	}
	return nil
}

// MixinRangeFor returns the (min, max) mixin range in effect at the given
// height, the last entry in MixinLimits whose Height is <= height.
func (c Config) MixinRangeFor(height types.BlockHeight) (min, max uint64, ok bool) {
	for i := len(c.MixinLimits) - 1; i >= 0; i-- {
		if c.MixinLimits[i].Height <= height {
			return c.MixinLimits[i].Min, c.MixinLimits[i].Max, true
		}
	}
	return 0, 0, false
}
