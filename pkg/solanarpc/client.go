// Package solanarpc adapts the Solana JSON-RPC API to the narrow ledger
// operations used by the staker: account lookup, blockhash fetch and raw submission.
package solanarpc

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/gagliardetto/solana-go/rpc/jsonrpc"
)

// Sentinel errors for RPC operations
var (
	ErrAccountLookup = errors.New("account lookup failed")
	ErrBlockhash     = errors.New("latest blockhash request failed")
	ErrSend          = errors.New("send transaction failed")
)

// Client represents a Solana JSON-RPC client
type Client struct {
	rpc        *rpc.Client
	commitment rpc.CommitmentType
}

// NewClient creates a client for endpoint using the given HTTP client
func NewClient(httpClient *http.Client, endpoint string) *Client {
	rpcClient := jsonrpc.NewClientWithOpts(endpoint, &jsonrpc.RPCClientOpts{
		HTTPClient: httpClient,
	})
	return &Client{
		rpc:        rpc.NewWithCustomRPCClient(rpcClient),
		commitment: rpc.CommitmentConfirmed,
	}
}

// AccountExists reports whether the ledger knows about address
func (c *Client) AccountExists(ctx context.Context, address solana.PublicKey) (bool, error) {
	_, err := c.rpc.GetAccountInfoWithOpts(ctx, address, &rpc.GetAccountInfoOpts{
		Commitment: c.commitment,
	})
	if errors.Is(err, rpc.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%w: %s: %w", ErrAccountLookup, address, err)
	}
	return true, nil
}

// LatestBlockhash fetches the most recent finalized blockhash
func (c *Client) LatestBlockhash(ctx context.Context) (solana.Hash, error) {
	out, err := c.rpc.GetLatestBlockhash(ctx, rpc.CommitmentFinalized)
	if err != nil {
		return solana.Hash{}, fmt.Errorf("%w: %w", ErrBlockhash, err)
	}
	if out == nil || out.Value == nil {
		return solana.Hash{}, fmt.Errorf("%w: empty response", ErrBlockhash)
	}
	return out.Value.Blockhash, nil
}

// SendRawTransaction submits a signed, serialized transaction
func (c *Client) SendRawTransaction(ctx context.Context, rawTx []byte, skipPreflight bool) (solana.Signature, error) {
	sig, err := c.rpc.SendRawTransactionWithOpts(ctx, rawTx, rpc.TransactionOpts{
		SkipPreflight:       skipPreflight,
		PreflightCommitment: c.commitment,
	})
	if err != nil {
		return solana.Signature{}, fmt.Errorf("%w: %w", ErrSend, err)
	}
	return sig, nil
}
