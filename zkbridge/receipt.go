package zkbridge

import (
	"github.com/ethereum/go-ethereum/core/types"

	"gozksync/ethclient"
)

// L1TransactionReceipt is the L1 receipt of a deposit, bound to the L2 client the
// resulting L2 transaction can be followed on.
type L1TransactionReceipt struct {
	receipt *types.Receipt
	l2      ethclient.ReceiptFetcher
}

func NewL1TransactionReceipt(receipt *types.Receipt, l2 ethclient.ReceiptFetcher) *L1TransactionReceipt {
	return &L1TransactionReceipt{receipt: receipt, l2: l2}
}

// Receipt returns the L1 receipt.
func (r *L1TransactionReceipt) Receipt() *types.Receipt {
	return r.receipt
}

// PriorityRequest decodes the first NewPriorityRequest event of the receipt. Logs with the
// event topic that fail to decode are skipped.
func (r *L1TransactionReceipt) PriorityRequest() (*PriorityRequest, error) {
	for _, l := range r.receipt.Logs {
		if len(l.Topics) == 0 || l.Topics[0] != newPriorityRequestTopic {
			continue
		}
		var req PriorityRequest
		if err := bridgehubABI.UnpackIntoInterface(&req, "NewPriorityRequest", l.Data); err != nil {
			continue
		}
		return &req, nil
	}
	return nil, ErrNewPriorityRequestLogNotFound
}

// L2Tx returns a handle on the L2 transaction the deposit requested.
func (r *L1TransactionReceipt) L2Tx() (*ethclient.PendingTransaction, error) {
	req, err := r.PriorityRequest()
	if err != nil {
		return nil, err
	}
	return ethclient.NewPendingTransaction(r.l2, req.TxHash), nil
}
