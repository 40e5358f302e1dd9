package nodeclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/QbitNetwork/Qbit-wallet-backend/crypto"
	"github.com/QbitNetwork/Qbit-wallet-backend/types"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *Client) {
	t.Helper()
	srv := httptest.NewServer(handler)

	c := &Client{
		baseURL:    srv.URL,
		httpClient: srv.Client(),
	}
	return srv, c
}

func TestGetWalletSyncDataDecodesBlocks(t *testing.T) {
	srv, c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		resp := getWalletSyncDataResponse{
			Status: "OK",
			Items: []wireBlock{
				{Height: 5, Timestamp: 100, Transactions: []wireRawTx{
					{PaymentID: "abc", KeyOutputs: []wireKeyOutput{{Amount: 10}}},
				}},
			},
		}
		json.NewEncoder(w).Encode(resp)
	})
	defer srv.Close()

	blocks, top, err := c.GetWalletSyncData(context.Background(), nil, 5, 0, 100)
	if err != nil {
		t.Fatalf("GetWalletSyncData: %v", err)
	}
	if top != nil {
		t.Errorf("expected nil top block, got %+v", top)
	}
	if len(blocks) != 1 || blocks[0].Height != 5 {
		t.Fatalf("expected one block at height 5, got %+v", blocks)
	}
	if len(blocks[0].Transactions) != 1 || blocks[0].Transactions[0].PaymentID != "abc" {
		t.Errorf("expected transaction with payment id abc, got %+v", blocks[0].Transactions)
	}
}

func TestPostJSONReturns404AsWalletError(t *testing.T) {
	srv, c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	defer srv.Close()

	_, _, err := c.GetWalletSyncData(context.Background(), nil, 0, 0, 10)
	if err == nil {
		t.Fatal("expected error for 404 response")
	}
	var werr *types.WalletError
	if !errors.As(err, &werr) {
		t.Fatalf("expected a *types.WalletError for 404 response, got %T: %v", err, err)
	}
}

func TestConnectedFlipsOnFailure(t *testing.T) {
	c := &Client{
		baseURL:    "http://127.0.0.1:1", // nothing listening
		httpClient: &http.Client{Timeout: 200 * time.Millisecond},
	}
	c.setConnected(true)
	_, _, err := c.GetWalletSyncData(context.Background(), nil, 0, 0, 10)
	if err == nil {
		t.Fatal("expected transport error connecting to a closed port")
	}
	if c.Connected() {
		t.Error("expected Connected() to report false after a transport failure")
	}
}

func TestGetGlobalIndexesForRangeDecodesHashKeys(t *testing.T) {
	h := crypto.Hash{1, 2, 3}
	srv, c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		resp := getGlobalIndexesResponse{Indexes: map[string][]uint64{h.String(): {1, 2, 3}}}
		json.NewEncoder(w).Encode(resp)
	})
	defer srv.Close()

	out, err := c.GetGlobalIndexesForRange(context.Background(), 1, 10)
	if err != nil {
		t.Fatalf("GetGlobalIndexesForRange: %v", err)
	}
	idxs, ok := out[h]
	if !ok || len(idxs) != 3 {
		t.Fatalf("expected 3 indexes for hash %s, got %+v", h, out)
	}
}

func TestNormalizeHostRejectsEmpty(t *testing.T) {
	if _, err := normalizeHost(""); err == nil {
		t.Fatal("expected error for empty host")
	}
	if _, err := normalizeHost("  "); err != nil && !strings.Contains(err.Error(), "empty") {
		t.Fatalf("unexpected error: %v", err)
	}
}
