package zktx

import (
	"encoding/json"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetaJSON(t *testing.T) {
	meta := Meta{
		GasPerPubdata:   uint256.NewInt(50000),
		FactoryDeps:     [][]byte{{1, 2}},
		CustomSignature: []byte{0xab},
		Paymaster: &PaymasterParams{
			Paymaster: common.HexToAddress("0x99E12239CBf8112fBB3f7Fd473d0558031abcbb5"),
			Input:     []byte{0x12, 0x34},
		},
	}
	enc, err := json.Marshal(meta)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"gasPerPubdata": "0xc350",
		"factoryDeps": [[1, 2]],
		"customSignature": "0xab",
		"paymasterParams": {
			"paymaster": "0x99e12239cbf8112fbb3f7fd473d0558031abcbb5",
			"paymasterInput": [18, 52]
		}
	}`, string(enc))

	var dec Meta
	require.NoError(t, json.Unmarshal(enc, &dec))
	assert.Equal(t, meta, dec)
}

func TestMetaJSONDefaults(t *testing.T) {
	var dec Meta
	require.NoError(t, json.Unmarshal([]byte(`{"gasPerPubdata":"0x320","factoryDeps":["0x0102"]}`), &dec))
	assert.Equal(t, uint256.NewInt(800), dec.GasPerPubdata)
	assert.Equal(t, [][]byte{{1, 2}}, dec.FactoryDeps)
	assert.Nil(t, dec.CustomSignature)
	assert.Nil(t, dec.Paymaster)

	var arr ByteArray
	assert.Error(t, json.Unmarshal([]byte(`[256]`), &arr))
}

func TestTransactionRequestSettersCopy(t *testing.T) {
	base := TransactionRequest{}.WithFrom(common.HexToAddress("0x01"))
	withMeta := base.WithGasPerPubdata(uint256.NewInt(800))

	assert.Nil(t, base.Eip712Meta)
	require.NotNil(t, withMeta.Eip712Meta)
	assert.Equal(t, uint256.NewInt(800), withMeta.Eip712Meta.GasPerPubdata)
	assert.Equal(t, Eip712TxType, withMeta.OutputType())
	assert.Equal(t, DynamicFeeTxType, base.OutputType())
	assert.Equal(t, LegacyTxType, base.WithGasPrice(big.NewInt(1)).OutputType())

	deps := withMeta.WithFactoryDeps([][]byte{{1}})
	assert.Empty(t, withMeta.Eip712Meta.FactoryDeps)
	assert.Len(t, deps.Eip712Meta.FactoryDeps, 1)
	assert.Equal(t, uint256.NewInt(800), deps.Eip712Meta.GasPerPubdata)
}

func TestTransactionRequestMissingFields(t *testing.T) {
	req := TransactionRequest{}.WithGasPerPubdata(uint256.NewInt(800))
	assert.Equal(t, []string{"chainId", "nonce", "gas", "from", "maxFeePerGas", "maxPriorityFeePerGas"}, req.MissingFields())

	_, err := req.BuildUnsigned()
	assert.ErrorIs(t, err, ErrMissingField)
	assert.Contains(t, err.Error(), "maxPriorityFeePerGas")

	legacy := TransactionRequest{}.WithGasPrice(big.NewInt(1)).WithChainID(1).WithNonce(0)
	assert.Equal(t, []string{"gas"}, legacy.MissingFields())
}

func TestTransactionRequestBuildUnsigned(t *testing.T) {
	tx := testTx()
	req := TransactionRequest{}.
		WithChainID(270).
		WithNonce(1).
		WithGas(12).
		WithFrom(tx.From).
		WithTo(*tx.To).
		WithValue(big.NewInt(10)).
		WithInput([]byte{1, 2, 3}).
		WithMaxFeePerGas(big.NewInt(11)).
		WithMaxPriorityFeePerGas(big.NewInt(0)).
		WithMeta(tx.Meta)

	built, err := req.BuildUnsigned()
	require.NoError(t, err)
	got, ok := built.Eip712()
	require.True(t, ok)
	assert.Equal(t, tx, got)

	back := RequestFromTransaction(built)
	rebuilt, err := back.BuildUnsigned()
	require.NoError(t, err)
	assert.Equal(t, built, rebuilt)
}

func TestTransactionRequestBuildNative(t *testing.T) {
	to := common.HexToAddress("0x02")
	req := TransactionRequest{}.
		WithChainID(300).
		WithNonce(5).
		WithGas(21000).
		WithTo(to).
		WithMaxFeePerGas(big.NewInt(20)).
		WithMaxPriorityFeePerGas(big.NewInt(2))

	built, err := req.BuildUnsigned()
	require.NoError(t, err)
	native, ok := built.Native()
	require.True(t, ok)
	assert.Equal(t, uint8(DynamicFeeTxType), native.Type())
	assert.Equal(t, big.NewInt(300), native.ChainId())
	assert.Equal(t, uint64(5), native.Nonce())
	assert.Equal(t, big.NewInt(20), native.GasFeeCap())
	assert.Equal(t, &to, native.To())
}

func TestTransactionRequestJSON(t *testing.T) {
	req := TransactionRequest{}.
		WithFrom(common.HexToAddress("0x01")).
		WithGasPerPubdata(uint256.NewInt(800))
	enc, err := json.Marshal(req)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"from": "0x0000000000000000000000000000000000000001",
		"input": "0x",
		"eip712Meta": {"gasPerPubdata": "0x320", "factoryDeps": []}
	}`, string(enc))
}
