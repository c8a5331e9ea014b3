package ethclient

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPendingTransactionWait(t *testing.T) {
	txHash := common.HexToHash("0xb85668399db249d62d06bbc59eace82e01364602fb7159e161ca810ff6ddbbf4")
	var polls atomic.Int32
	client := newTestClient(t, func(method string, params []json.RawMessage) (interface{}, error) {
		assert.Equal(t, "eth_getTransactionReceipt", method)
		if polls.Add(1) < 3 {
			return nil, nil
		}
		return receiptWith(txHash), nil
	})

	pending := NewPendingTransaction(client, txHash).WithInterval(10 * time.Millisecond)
	assert.Equal(t, txHash, pending.Hash())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	receipt, err := pending.Wait(ctx)
	require.NoError(t, err)
	assert.Equal(t, txHash, receipt.TxHash)
	assert.True(t, receipt.Succeeded())
	assert.Equal(t, int32(3), polls.Load())
}

func TestPendingTransactionWait_ContextDone(t *testing.T) {
	client := newTestClient(t, func(method string, params []json.RawMessage) (interface{}, error) {
		return nil, nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := NewPendingTransaction(client, common.Hash{0x01}).WithInterval(5 * time.Millisecond).Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestPendingTransactionWait_RetriesErrors(t *testing.T) {
	txHash := common.Hash{0x02}
	var polls atomic.Int32
	client := newTestClient(t, func(method string, params []json.RawMessage) (interface{}, error) {
		if polls.Add(1) == 1 {
			return nil, assert.AnError
		}
		return receiptWith(txHash), nil
	})

	receipt, err := NewPendingTransaction(client, txHash).WithInterval(time.Millisecond).Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, txHash, receipt.TxHash)
}
