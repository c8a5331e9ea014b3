package ethclient

import (
	"context"
	"errors"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"

	"gozksync/zktx"
)

// DefaultPollInterval is how often PendingTransaction.Wait queries for the receipt.
const DefaultPollInterval = time.Second

// ReceiptFetcher returns the receipt of an L2 transaction, or ethereum.NotFound while it
// is still pending.
type ReceiptFetcher interface {
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*zktx.Receipt, error)
}

// PendingTransaction is a submitted L2 transaction whose receipt has not been seen yet.
type PendingTransaction struct {
	hash     common.Hash
	backend  ReceiptFetcher
	interval time.Duration
	logger   log.Logger
}

// NewPendingTransaction tracks hash through backend, polling at DefaultPollInterval.
func NewPendingTransaction(backend ReceiptFetcher, hash common.Hash) *PendingTransaction {
	return &PendingTransaction{
		hash:     hash,
		backend:  backend,
		interval: DefaultPollInterval,
		logger:   log.Root(),
	}
}

// WithInterval returns a copy of p polling at interval.
func (p *PendingTransaction) WithInterval(interval time.Duration) *PendingTransaction {
	cp := *p
	cp.interval = interval
	return &cp
}

func (p *PendingTransaction) Hash() common.Hash {
	return p.hash
}

// Wait polls until the receipt is available or ctx is done. Lookup errors other than
// ethereum.NotFound are logged and retried.
func (p *PendingTransaction) Wait(ctx context.Context) (*zktx.Receipt, error) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		receipt, err := p.backend.TransactionReceipt(ctx, p.hash)
		if err == nil && receipt != nil {
			return receipt, nil
		}
		if err != nil && !errors.Is(err, ethereum.NotFound) {
			p.logger.Trace("Receipt retrieval failed", "hash", p.hash, "err", err)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

// SendTransactionAndTrack submits tx and returns a handle to wait for its receipt.
func (c *Client) SendTransactionAndTrack(ctx context.Context, tx *zktx.TxEnvelope) (*PendingTransaction, error) {
	hash, err := c.SendTransaction(ctx, tx)
	if err != nil {
		return nil, err
	}
	return NewPendingTransaction(c, hash), nil
}
