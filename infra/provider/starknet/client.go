// Package starknet implements blockchain.Oracle over the Starknet JSON-RPC API.
package starknet

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/amirasaad/treasury/pkg/provider/blockchain"
)

// txHashNotFound is the JSON-RPC error code for an unknown transaction.
const txHashNotFound = 29

// Client is a minimal Starknet JSON-RPC client.
type Client struct {
	url        string
	httpClient *http.Client
	logger     *slog.Logger
	nextID     atomic.Int64
}

// New returns a client for the node at url.
func New(url string, timeout time.Duration, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		url:        url,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger.With("provider", "starknet"),
	}
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int64  `json:"id"`
	Method  string `json:"method"`
	Params  any    `json:"params"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *rpcError) Error() string {
	return fmt.Sprintf("starknet rpc error %d: %s", e.Code, e.Message)
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

func (c *Client) call(ctx context.Context, method string, params any, out any) error {
	body, err := json.Marshal(rpcRequest{JSONRPC: "2.0", ID: c.nextID.Add(1), Method: method, Params: params})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", blockchain.ErrOracleUnavailable, err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("%w: node returned status %d: %s",
			blockchain.ErrOracleUnavailable, resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var rpcResp rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&rpcResp); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	if rpcResp.Error != nil {
		if rpcResp.Error.Code == txHashNotFound {
			return blockchain.ErrTransactionNotFound
		}
		return rpcResp.Error
	}
	return json.Unmarshal(rpcResp.Result, out)
}

type statusResult struct {
	FinalityStatus  string `json:"finality_status"`
	ExecutionStatus string `json:"execution_status"`
}

type receiptResult struct {
	BlockNumber *int64 `json:"block_number"`
}

// GetTransaction reports the finality status of hash and, once the
// transaction is accepted, the block it landed in. A reverted execution is
// reported as REJECTED.
func (c *Client) GetTransaction(ctx context.Context, hash string) (*blockchain.TxInfo, error) {
	var status statusResult
	if err := c.call(ctx, "starknet_getTransactionStatus", []string{hash}, &status); err != nil {
		c.logger.Error("Error retrieving transaction status", "hash", hash, "error", err)
		return nil, err
	}

	info := &blockchain.TxInfo{Hash: hash, Status: blockchain.TxStatus(status.FinalityStatus)}
	if status.ExecutionStatus == "REVERTED" {
		info.Status = blockchain.StatusRejected
		return info, nil
	}
	if !info.Status.Confirmed() {
		return info, nil
	}

	var receipt receiptResult
	if err := c.call(ctx, "starknet_getTransactionReceipt", []string{hash}, &receipt); err != nil {
		c.logger.Warn("Transaction accepted but receipt unavailable", "hash", hash, "error", err)
		return info, nil
	}
	info.BlockNumber = receipt.BlockNumber
	c.logger.Debug("Retrieved transaction", "hash", hash, "status", info.Status)
	return info, nil
}

// BlockNumber returns the latest accepted block.
func (c *Client) BlockNumber(ctx context.Context) (int64, error) {
	var raw json.RawMessage
	if err := c.call(ctx, "starknet_blockNumber", []any{}, &raw); err != nil {
		return 0, err
	}
	n, err := strconv.ParseInt(strings.Trim(string(raw), `"`), 10, 64)
	if err != nil {
		return 0, errors.Join(fmt.Errorf("unexpected block number %s", raw), err)
	}
	return n, nil
}
