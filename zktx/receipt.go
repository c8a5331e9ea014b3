package zktx

import (
	"encoding/json"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
)

// L2ToL1Log is a system log emitted on L2 for delivery to L1.
type L2ToL1Log struct {
	BlockNumber      hexutil.Uint64  `json:"blockNumber"`
	BlockHash        common.Hash     `json:"blockHash"`
	L1BatchNumber    *hexutil.Uint64 `json:"l1BatchNumber"`
	TransactionIndex hexutil.Uint64  `json:"transactionIndex"`
	TransactionHash  common.Hash     `json:"transactionHash"`
	TxIndexInL1Batch *hexutil.Uint64 `json:"txIndexInL1Batch"`
	ShardID          hexutil.Uint64  `json:"shardId"`
	IsService        bool            `json:"isService"`
	Sender           common.Address  `json:"sender"`
	Key              common.Hash     `json:"key"`
	Value            common.Hash     `json:"value"`
	LogIndex         hexutil.Uint64  `json:"logIndex"`
}

// Receipt is an L2 transaction receipt: the Ethereum receipt plus the L1 batch the
// transaction was included in and the L2 to L1 logs it produced. The batch fields are nil
// until the batch is sealed.
type Receipt struct {
	*types.Receipt

	L1BatchNumber  *big.Int
	L1BatchTxIndex *big.Int
	L2ToL1Logs     []*L2ToL1Log
}

type receiptExtras struct {
	L1BatchNumber  *hexutil.Big `json:"l1BatchNumber"`
	L1BatchTxIndex *hexutil.Big `json:"l1BatchTxIndex"`
	L2ToL1Logs     []*L2ToL1Log `json:"l2ToL1Logs"`
}

func (r *Receipt) UnmarshalJSON(input []byte) error {
	base := new(types.Receipt)
	if err := json.Unmarshal(input, base); err != nil {
		return err
	}
	var extras receiptExtras
	if err := json.Unmarshal(input, &extras); err != nil {
		return err
	}
	r.Receipt = base
	r.L1BatchNumber = (*big.Int)(extras.L1BatchNumber)
	r.L1BatchTxIndex = (*big.Int)(extras.L1BatchTxIndex)
	r.L2ToL1Logs = extras.L2ToL1Logs
	return nil
}

func (r Receipt) MarshalJSON() ([]byte, error) {
	fields := make(map[string]json.RawMessage)
	if r.Receipt != nil {
		enc, err := json.Marshal(r.Receipt)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(enc, &fields); err != nil {
			return nil, err
		}
	}
	enc, err := json.Marshal(receiptExtras{
		L1BatchNumber:  (*hexutil.Big)(r.L1BatchNumber),
		L1BatchTxIndex: (*hexutil.Big)(r.L1BatchTxIndex),
		L2ToL1Logs:     r.L2ToL1Logs,
	})
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(enc, &fields); err != nil {
		return nil, err
	}
	return json.Marshal(fields)
}

// Succeeded reports whether the transaction executed without reverting.
func (r *Receipt) Succeeded() bool {
	return r.Receipt != nil && r.Status == types.ReceiptStatusSuccessful
}
