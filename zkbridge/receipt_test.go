package zkbridge

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestL1TransactionReceipt_PriorityRequest(t *testing.T) {
	receipt := NewL1TransactionReceipt(&types.Receipt{
		Status: types.ReceiptStatusSuccessful,
		Logs: []*types.Log{
			{Topics: []common.Hash{{0x01}}},
			// Right topic, undecodable data.
			{Topics: []common.Hash{newPriorityRequestTopic}, Data: []byte{0x01}},
			priorityRequestLog(t, testL2TxHash),
		},
	}, newMockL2())

	req, err := receipt.PriorityRequest()
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(42), req.TxID)
	assert.Equal(t, testL2TxHash, req.TxHash)
	assert.Equal(t, uint64(1_700_000_000), req.ExpirationTimestamp)
	assert.Equal(t, big.NewInt(255), req.Transaction.TxType)
	assert.Equal(t, big.NewInt(500_000), req.Transaction.GasLimit)
	assert.Equal(t, big.NewInt(42), req.Transaction.Nonce)
	assert.Empty(t, req.FactoryDeps)

	l2Tx, err := receipt.L2Tx()
	require.NoError(t, err)
	assert.Equal(t, testL2TxHash, l2Tx.Hash())
}

func TestL1TransactionReceipt_NoPriorityRequest(t *testing.T) {
	receipt := NewL1TransactionReceipt(&types.Receipt{
		Logs: []*types.Log{{Topics: []common.Hash{{0x01}}}, {}},
	}, newMockL2())

	_, err := receipt.L2Tx()
	require.ErrorIs(t, err, ErrNewPriorityRequestLogNotFound)
	assert.EqualError(t, err, "NewPriorityRequest event log was not found in L1 -> L2 transaction.")

	var commErr *L1CommunicationError
	require.ErrorAs(t, err, &commErr)
	assert.Equal(t, KindNewPriorityRequestLogNotFound, commErr.Kind)
}

func TestDeposit_NoPriorityRequestLog(t *testing.T) {
	f := newFixture(t)
	f.l1.omitPriorityLog = true

	receipt, err := f.executor(NewDepositRequest(nil)).Execute(context.Background())
	require.NoError(t, err)
	_, err = receipt.L2Tx()
	assert.ErrorIs(t, err, ErrNewPriorityRequestLogNotFound)
}

func TestEncodeTokenData(t *testing.T) {
	data, err := encodeTokenData("Dai Stablecoin", "DAI", 18)
	require.NoError(t, err)

	parts, err := tokenDataArgs.Unpack(data)
	require.NoError(t, err)
	require.Len(t, parts, 3)

	decode := func(args abi.Arguments, b interface{}) interface{} {
		out, err := args.Unpack(b.([]byte))
		require.NoError(t, err)
		require.Len(t, out, 1)
		return out[0]
	}
	assert.Equal(t, "Dai Stablecoin", decode(stringArgs, parts[0]))
	assert.Equal(t, "DAI", decode(stringArgs, parts[1]))
	assert.Equal(t, big.NewInt(18), decode(uint256Args, parts[2]))
	assert.Len(t, parts[2], 32)
}
