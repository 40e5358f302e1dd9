package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultValidates(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("Default() should validate, got %v", err)
	}
}

func TestLoadFileOverridesDefaultsPartially(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	contents := `ticker_symbol = "XQB"
blocks_per_tick = 5
`
	if err := os.WriteFile(path, []byte(contents), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.TickerSymbol != "XQB" {
		t.Errorf("expected overridden ticker symbol, got %q", cfg.TickerSymbol)
	}
	if cfg.BlocksPerTick != 5 {
		t.Errorf("expected overridden blocks_per_tick, got %d", cfg.BlocksPerTick)
	}
	if cfg.DecimalPlaces != Default().DecimalPlaces {
		t.Errorf("expected untouched field to keep its default, got %d", cfg.DecimalPlaces)
	}
}

func TestValidateRejectsBadBlocksPerDaemonRequest(t *testing.T) {
	cfg := Default()
	cfg.BlocksPerDaemonRequest = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for blocks_per_daemon_request = 0")
	}
	cfg.BlocksPerDaemonRequest = 101
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for blocks_per_daemon_request = 101")
	}
}

func TestValidateRejectsInvertedMixinRange(t *testing.T) {
	cfg := Default()
	cfg.MixinLimits = []MixinRange{{Height: 0, Min: 10, Max: 2}}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for inverted mixin range")
	}
}

func TestMixinRangeForPicksLatestApplicableEntry(t *testing.T) {
	cfg := Default()
	cfg.MixinLimits = []MixinRange{
		{Height: 0, Min: 0, Max: 3},
		{Height: 1000, Min: 1, Max: 5},
		{Height: 2000, Min: 2, Max: 10},
	}

	min, max, ok := cfg.MixinRangeFor(1500)
	if !ok || min != 1 || max != 5 {
		t.Errorf("expected the height-1000 entry at height 1500, got min=%d max=%d ok=%v", min, max, ok)
	}

	min, max, ok = cfg.MixinRangeFor(50)
	if !ok || min != 0 || max != 3 {
		t.Errorf("expected the height-0 entry at height 50, got min=%d max=%d ok=%v", min, max, ok)
	}

	if _, _, ok := cfg.MixinRangeFor(0); !ok {
		t.Error("expected a match at height 0 given a height-0 entry")
	}
}

func TestLoadFileMissingReturnsError(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "does-not-exist.toml"))
	if err == nil {
		t.Fatal("expected error for missing config file")
	}
}
