package httprpc

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/fxamacker/cbor/v2"

	"github.com/union-dao/governance-kernel/core"
)

// Resolver maps a canister's Principal to the base URL of the actor host
// serving it. transport/httprpc is the concrete stand-in for the platform's
// message-routing substrate (spec §1): it needs an actual address to dial,
// which the platform's own routing would otherwise supply.
type Resolver interface {
	Resolve(canister core.Principal) (string, error)
}

// StaticResolver is a fixed canister-to-address table, sufficient for a
// single-process deployment wired up by cmd/governd.
type StaticResolver map[core.Principal]string

func (r StaticResolver) Resolve(canister core.Principal) (string, error) {
	addr, ok := r[canister]
	if !ok {
		return "", fmt.Errorf("httprpc: no known address for canister %q", canister)
	}
	return addr, nil
}

// Client implements core.RemoteCaller over plain HTTP POST requests,
// grounded on the teacher's walletserver/main.go + cmd/explorer/server.go
// request/response routing.
type Client struct {
	resolver Resolver
	http     *http.Client
}

// NewClient builds a Client that resolves canister addresses via resolver.
func NewClient(resolver Resolver) *Client {
	return &Client{
		resolver: resolver,
		http:     &http.Client{Timeout: 10 * time.Second},
	}
}

// Call implements core.RemoteCaller: it resolves endpoint's canister to an
// address, POSTs args (CBOR-encoded unless already raw bytes) to
// /<method_name>, and returns the raw response body.
func (c *Client) Call(ctx context.Context, endpoint core.RemoteCallEndpoint, args any) ([]byte, error) {
	base, err := c.resolver.Resolve(endpoint.CanisterID)
	if err != nil {
		return nil, err
	}

	var body []byte
	if raw, ok := args.([]byte); ok {
		body = raw
	} else {
		body, err = cbor.Marshal(args)
		if err != nil {
			return nil, fmt.Errorf("httprpc: encoding args for %s: %w", endpoint, err)
		}
	}

	url := strings.TrimRight(base, "/") + "/" + endpoint.MethodName
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/cbor")
	req.Header.Set("X-Correlation-Id", core.NewCorrelationID())

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &core.RemoteCallError{Kind: core.RemoteCallReject, Message: err.Error()}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &core.RemoteCallError{Kind: core.RemoteCallReject, Message: string(respBody)}
	}
	return respBody, nil
}
