// Package nodeclient implements the Node Client of spec §4.6: a thin,
// swappable HTTP/JSON transport to a remote CryptoNote-family daemon,
// grounded on the teacher's pkg/client.HTTPClient request/response
// wrapping but adapted from its local-daemon/password-auth model to the
// wire protocol enumerated in spec §6.
package nodeclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/QbitNetwork/Qbit-wallet-backend/modules"
	"github.com/QbitNetwork/Qbit-wallet-backend/types"
)

// Client is the Node Client. It holds a single persistent *http.Client
// and negotiates HTTPS-with-HTTP-fallback once, up front, the way the
// teacher's HTTPClient resolves its RootURL once at construction.
type Client struct {
	baseURL    string
	httpClient *http.Client
	userAgent  string

	connected int32 // atomic bool
}

// non2xx returns true for non-success HTTP status codes, matching the
// teacher's client.Non2xx helper.
func non2xx(code int) bool {
	return code < 200 || code > 299
}

// New probes host for an HTTPS endpoint, falling back to HTTP if the TLS
// handshake fails, and returns a connected Client (spec §4.6 "attempt
// HTTPS first, fall back to HTTP").
func New(ctx context.Context, host string, requestTimeout time.Duration, userAgent string) (*Client, error) {
	host, err := normalizeHost(host)
	if err != nil {
		return nil, err
	}

	c := &Client{
		httpClient: &http.Client{Timeout: requestTimeout},
		userAgent:  userAgent,
	}

	for _, scheme := range []string{"https", "http"} {
		base := scheme + "://" + host
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+"/info", nil)
		if err != nil {
			return nil, fmt.Errorf("nodeclient: building probe request: %w", err)
		}
		resp, err := c.httpClient.Do(req)
		if err != nil {
			continue
		}
		resp.Body.Close()
		c.baseURL = base
		atomic.StoreInt32(&c.connected, 1)
		return c, nil
	}
	return nil, types.NewWalletError(types.ErrTransport, "could not reach %s over https or http", host)
}

// Connected reports whether the last request to the daemon got an HTTP
// response (of any status); it is false after a transport failure.
func (c *Client) Connected() bool {
	return atomic.LoadInt32(&c.connected) == 1
}

func (c *Client) setConnected(v bool) {
	if v {
		atomic.StoreInt32(&c.connected, 1)
	} else {
		atomic.StoreInt32(&c.connected, 0)
	}
}

// postJSON posts req as JSON to call and decodes the response into reply,
// mirroring the teacher's apiPost/PostResp pair but speaking JSON bodies
// throughout instead of query-encoded POST bodies.
func (c *Client) postJSON(ctx context.Context, call string, req, reply interface{}) error {
	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("nodeclient: marshaling request for %s: %w", call, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+call, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("nodeclient: building request for %s: %w", call, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.userAgent != "" {
		httpReq.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.setConnected(false)
		return types.NewWalletError(types.ErrTransport, "no response from daemon for %s: %v", call, err)
	}
	defer resp.Body.Close()
	c.setConnected(true)

	if resp.StatusCode == http.StatusNotFound {
		return types.NewWalletError(types.ErrTransport, "daemon does not recognize call %s", call)
	}
	if non2xx(resp.StatusCode) {
		var apiErr struct {
			Error string `json:"error"`
		}
		json.NewDecoder(resp.Body).Decode(&apiErr)
		return types.NewWalletError(types.ErrTransport, "daemon returned %d for %s: %s", resp.StatusCode, call, apiErr.Error)
	}
	if reply == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(reply); err != nil {
		return types.NewWalletError(types.ErrMalformedResponse, "decoding response for %s: %v", call, err)
	}
	return nil
}

var errHostEmpty = errors.New("nodeclient: host must not be empty")

func normalizeHost(host string) (string, error) {
	host = strings.TrimSpace(host)
	host = strings.TrimSuffix(host, "/")
	if host == "" {
		return "", errHostEmpty
	}
	return host, nil
}

var _ modules.NodeClient = (*Client)(nil)
