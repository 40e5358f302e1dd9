package persist

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/QbitNetwork/Qbit-wallet-backend/types"
)

func TestSaveLoadJSONRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.json")

	doc := types.WalletDocument{
		WalletFileFormatVersion: types.WalletFileFormatVersion,
		SubWallets: types.SubWalletsDocument{
			IsViewWallet: false,
		},
	}

	if err := SaveWalletDocument(path, doc); err != nil {
		t.Fatalf("SaveWalletDocument: %v", err)
	}

	loaded, err := LoadWalletDocument(path)
	if err != nil {
		t.Fatalf("LoadWalletDocument: %v", err)
	}
	if loaded.WalletFileFormatVersion != doc.WalletFileFormatVersion {
		t.Errorf("version mismatch: got %d, want %d", loaded.WalletFileFormatVersion, doc.WalletFileFormatVersion)
	}
}

func TestLoadWalletDocumentRejectsBadVersion(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.json")

	doc := types.WalletDocument{WalletFileFormatVersion: 9999}
	if err := SaveWalletDocument(path, doc); err != nil {
		t.Fatalf("SaveWalletDocument: %v", err)
	}

	if _, err := LoadWalletDocument(path); err == nil {
		t.Fatal("expected error loading a future-versioned wallet document, got nil")
	}
}

func TestSaveJSONLeavesNoTempFilesBehind(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.json")

	if err := SaveJSON(path, map[string]int{"a": 1}); err != nil {
		t.Fatalf("SaveJSON: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 1 || entries[0].Name() != "doc.json" {
		t.Fatalf("expected exactly one file doc.json, got %v", entries)
	}
}

func TestLoggerStartupShutdownBrackets(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(&buf)
	l.Close()

	out := buf.String()
	if !bytes.Contains([]byte(out), []byte("STARTUP")) {
		t.Error("expected STARTUP marker in log output")
	}
	if !bytes.Contains([]byte(out), []byte("SHUTDOWN")) {
		t.Error("expected SHUTDOWN marker in log output")
	}
}
