// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-credstore.
//
// go-credstore is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

// Package nodeclient dials Ethereum JSON-RPC nodes. Each Dial returns a new
// client owned by the caller; nothing is retained between calls.
package nodeclient

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/jeremyhahn/go-credstore/pkg/adapters/logger"
)

// DefaultTimeout bounds connection setup when a Factory sets none.
const DefaultTimeout = 10 * time.Second

var (
	ErrInvalidEndpoint = errors.New("nodeclient: invalid endpoint")
	ErrDial            = errors.New("nodeclient: dial failed")
)

// Client is an Ethereum node client bound to one endpoint.
type Client struct {
	endpoint string
	eth      *ethclient.Client
}

// Endpoint returns the endpoint the client was dialed with.
func (c *Client) Endpoint() string { return c.endpoint }

// ChainID returns the chain id reported by the node.
func (c *Client) ChainID(ctx context.Context) (*big.Int, error) {
	return c.eth.ChainID(ctx)
}

// BlockNumber returns the most recent block number.
func (c *Client) BlockNumber(ctx context.Context) (uint64, error) {
	return c.eth.BlockNumber(ctx)
}

// Close releases the connection.
func (c *Client) Close() {
	c.eth.Close()
}

// Factory dials clients. Its zero value is usable.
type Factory struct {
	// Timeout bounds connection setup. Zero means DefaultTimeout.
	Timeout time.Duration
	Logger  logger.Logger
}

// Dial connects to endpoint: an http(s):// or ws(s):// URL, or an IPC
// socket path.
func (f *Factory) Dial(ctx context.Context, endpoint string) (*Client, error) {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return nil, fmt.Errorf("%w: empty", ErrInvalidEndpoint)
	}
	if scheme, _, ok := strings.Cut(endpoint, "://"); ok && !supportedScheme(scheme) {
		return nil, fmt.Errorf("%w: unsupported scheme %q", ErrInvalidEndpoint, scheme)
	}

	timeout := f.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	dialCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	eth, err := ethclient.DialContext(dialCtx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrDial, endpoint, err)
	}

	log := f.Logger
	if log == nil {
		log = logger.NewNop()
	}
	log.DebugContext(ctx, "node client dialed", logger.String("endpoint", endpoint))

	return &Client{endpoint: endpoint, eth: eth}, nil
}

// Dial connects to endpoint with default options.
func Dial(ctx context.Context, endpoint string) (*Client, error) {
	var f Factory
	return f.Dial(ctx, endpoint)
}

func supportedScheme(scheme string) bool {
	switch strings.ToLower(scheme) {
	case "http", "https", "ws", "wss", "stdio":
		return true
	}
	return false
}
