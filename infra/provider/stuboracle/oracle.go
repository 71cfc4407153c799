// Package stuboracle is an in-memory blockchain.Oracle for development and tests.
package stuboracle

import (
	"context"
	"sync"

	"github.com/amirasaad/treasury/pkg/provider/blockchain"
)

// Oracle answers from a table of known transactions. Unknown hashes report
// RECEIVED so pending records stay pending.
type Oracle struct {
	mu     sync.RWMutex
	txs    map[string]blockchain.TxInfo
	errs   map[string]error
	height int64
}

// New returns an empty stub oracle.
func New() *Oracle {
	return &Oracle{txs: make(map[string]blockchain.TxInfo), errs: make(map[string]error)}
}

// Set records the answer for hash.
func (o *Oracle) Set(hash string, status blockchain.TxStatus, blockNumber *int64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.txs[hash] = blockchain.TxInfo{Hash: hash, Status: status, BlockNumber: blockNumber}
	if blockNumber != nil && *blockNumber > o.height {
		o.height = *blockNumber
	}
}

// Fail makes lookups of hash return err. A nil err clears the failure.
func (o *Oracle) Fail(hash string, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if err == nil {
		delete(o.errs, hash)
		return
	}
	o.errs[hash] = err
}

// GetTransaction returns the scripted status for hash.
func (o *Oracle) GetTransaction(_ context.Context, hash string) (*blockchain.TxInfo, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	if err, ok := o.errs[hash]; ok {
		return nil, err
	}
	if info, ok := o.txs[hash]; ok {
		return &info, nil
	}
	return &blockchain.TxInfo{Hash: hash, Status: blockchain.StatusReceived}, nil
}

// BlockNumber returns the highest block number scripted so far.
func (o *Oracle) BlockNumber(context.Context) (int64, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.height, nil
}
