package ethclient

import (
	"context"
	"encoding/json"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gozksync/zktx"
)

// mockFeeEstimator implements FeeEstimator for testing the fee filler.
type mockFeeEstimator struct {
	fee   *Fee
	err   error
	calls int
}

func (m *mockFeeEstimator) EstimateFee(ctx context.Context, req zktx.TransactionRequest) (*Fee, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.fee, nil
}

func testFee() *Fee {
	return &Fee{
		GasLimit:             hexutil.Uint64(300000),
		GasPerPubdataLimit:   (*hexutil.Big)(big.NewInt(50000)),
		MaxFeePerGas:         (*hexutil.Big)(big.NewInt(250000000)),
		MaxPriorityFeePerGas: (*hexutil.Big)(big.NewInt(0)),
	}
}

func TestFillFees(t *testing.T) {
	from := common.HexToAddress("0x1111111111111111111111111111111111111111")

	tests := []struct {
		name        string
		req         zktx.TransactionRequest
		wantGas     uint64
		wantMaxFee  *big.Int
		wantTip     *big.Int
		wantPubdata *uint256.Int
	}{
		{
			name:        "all missing",
			req:         zktx.TransactionRequest{}.WithFrom(from),
			wantGas:     300000,
			wantMaxFee:  big.NewInt(250000000),
			wantTip:     big.NewInt(0),
			wantPubdata: uint256.NewInt(50000),
		},
		{
			name: "keeps set fields",
			req: zktx.TransactionRequest{}.
				WithFrom(from).
				WithGas(1000).
				WithMaxFeePerGas(big.NewInt(7)),
			wantGas:     1000,
			wantMaxFee:  big.NewInt(7),
			wantTip:     big.NewInt(0),
			wantPubdata: uint256.NewInt(50000),
		},
		{
			name: "zero gas per pubdata counts as missing",
			req: zktx.TransactionRequest{}.
				WithFrom(from).
				WithGas(1000).
				WithMaxFeePerGas(big.NewInt(7)).
				WithMaxPriorityFeePerGas(big.NewInt(1)).
				WithGasPerPubdata(uint256.NewInt(0)),
			wantGas:     1000,
			wantMaxFee:  big.NewInt(7),
			wantTip:     big.NewInt(1),
			wantPubdata: uint256.NewInt(50000),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			est := &mockFeeEstimator{fee: testFee()}
			got, err := FillFees(context.Background(), est, tt.req)
			require.NoError(t, err)
			assert.Equal(t, 1, est.calls)

			assert.Equal(t, tt.wantGas, uint64(*got.Gas))
			assert.Equal(t, tt.wantMaxFee, got.MaxFeePerGas.ToInt())
			assert.Equal(t, 0, tt.wantTip.Cmp(got.MaxPriorityFeePerGas.ToInt()))
			require.NotNil(t, got.Eip712Meta)
			assert.Equal(t, tt.wantPubdata, got.Eip712Meta.GasPerPubdata)
		})
	}
}

func TestFillFees_Complete(t *testing.T) {
	// A complete request is not re-estimated, even without a sender.
	req := zktx.TransactionRequest{}.
		WithGas(1000).
		WithMaxFeePerGas(big.NewInt(7)).
		WithMaxPriorityFeePerGas(big.NewInt(1)).
		WithGasPerPubdata(uint256.NewInt(800))
	est := &mockFeeEstimator{fee: testFee()}

	got, err := FillFees(context.Background(), est, req)
	require.NoError(t, err)
	assert.Equal(t, 0, est.calls)
	assert.Equal(t, req, got)
	assert.False(t, NeedsFees(req))
}

func TestFillFees_Errors(t *testing.T) {
	est := &mockFeeEstimator{fee: testFee()}
	_, err := FillFees(context.Background(), est, zktx.TransactionRequest{})
	assert.ErrorIs(t, err, ErrMissingFrom)
	assert.Equal(t, 0, est.calls)

	estErr := errors.New("rpc down")
	est = &mockFeeEstimator{err: estErr}
	_, err = FillFees(context.Background(), est, zktx.TransactionRequest{}.WithFrom(common.HexToAddress("0x01")))
	assert.ErrorIs(t, err, estErr)
}

func TestPrepareTransaction(t *testing.T) {
	from := common.HexToAddress("0x1111111111111111111111111111111111111111")
	var methods []string
	client := newTestClient(t, func(method string, params []json.RawMessage) (interface{}, error) {
		methods = append(methods, method)
		switch method {
		case "eth_chainId":
			return "0x10e", nil
		case "eth_getTransactionCount":
			var tag string
			require.NoError(t, json.Unmarshal(params[1], &tag))
			assert.Equal(t, "pending", tag)
			return "0x5", nil
		case "zks_estimateFee":
			return json.RawMessage(`{
				"gas_limit": "0x493e0",
				"gas_per_pubdata_limit": "0xc350",
				"max_fee_per_gas": "0xee6b280",
				"max_priority_fee_per_gas": "0x0"
			}`), nil
		}
		t.Errorf("unexpected method %s", method)
		return nil, nil
	})

	req, err := client.PrepareTransaction(context.Background(), zktx.TransactionRequest{}.
		WithFrom(from).
		WithTo(common.HexToAddress("0x02")).
		WithValue(big.NewInt(1)))
	require.NoError(t, err)
	assert.Equal(t, []string{"eth_chainId", "eth_getTransactionCount", "zks_estimateFee"}, methods)
	assert.Empty(t, req.MissingFields())

	built, err := req.BuildUnsigned()
	require.NoError(t, err)
	assert.Equal(t, zktx.Eip712TxType, built.Type())
	assert.Equal(t, big.NewInt(270), built.ChainID())
	assert.Equal(t, uint64(5), built.Nonce())
	assert.Equal(t, uint64(300000), built.Gas())
}

func TestPrepareTransaction_MissingFrom(t *testing.T) {
	client := newTestClient(t, func(method string, params []json.RawMessage) (interface{}, error) {
		return "0x10e", nil
	})
	_, err := client.PrepareTransaction(context.Background(), zktx.TransactionRequest{})
	assert.ErrorIs(t, err, ErrMissingFrom)
}
