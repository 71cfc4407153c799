// Package blockchain declares the on-chain collaborators the treasury
// consumes: a transaction status oracle and a wallet signature verifier.
package blockchain

import (
	"context"
	"errors"
)

// Common errors for oracle operations
var (
	ErrOracleUnavailable   = errors.New("blockchain oracle unavailable")
	ErrTransactionNotFound = errors.New("transaction not found on chain")
)

// TxStatus is the finality status reported by the chain.
type TxStatus string

const (
	StatusReceived     TxStatus = "RECEIVED"
	StatusAcceptedOnL2 TxStatus = "ACCEPTED_ON_L2"
	StatusAcceptedOnL1 TxStatus = "ACCEPTED_ON_L1"
	StatusRejected     TxStatus = "REJECTED"
)

// Confirmed reports whether the status settles a pending record.
func (s TxStatus) Confirmed() bool {
	return s == StatusAcceptedOnL2 || s == StatusAcceptedOnL1
}

// Failed reports whether the status fails a pending record.
func (s TxStatus) Failed() bool {
	return s == StatusRejected
}

// TxInfo is what the oracle knows about one transaction.
type TxInfo struct {
	Hash        string   `json:"hash"`
	Status      TxStatus `json:"status"`
	BlockNumber *int64   `json:"blockNumber,omitempty"`
}

// Oracle looks up on-chain transactions.
type Oracle interface {
	GetTransaction(ctx context.Context, hash string) (*TxInfo, error)
	BlockNumber(ctx context.Context) (int64, error)
}

// SignatureVerifier checks that message was signed by the wallet at address.
// It is declared for the authentication layer and not consumed by the ledger.
type SignatureVerifier interface {
	VerifySignature(ctx context.Context, address, signature, message string) (bool, error)
}
