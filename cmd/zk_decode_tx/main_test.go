package main

import (
	"bytes"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gozksync/zktx"
)

const testKey = "7726827caac94a7f9e1b160f7ea819f172f7b6f9d2a97f992c38edeab82d4110"

func signedEip712(t *testing.T, from common.Address) []byte {
	t.Helper()
	key, err := crypto.HexToECDSA(testKey)
	require.NoError(t, err)

	to := common.HexToAddress("0x82112600a140ceaa9d7da373bb65453f7d99af4b")
	tx := &zktx.TxEip712{
		ChainID:   270,
		Nonce:     uint256.NewInt(1),
		GasTipCap: uint256.NewInt(0),
		GasFeeCap: uint256.NewInt(11),
		Gas:       12,
		To:        &to,
		From:      from,
		Value:     uint256.NewInt(10),
		Data:      []byte{1, 2, 3},
		Meta:      zktx.Meta{GasPerPubdata: uint256.NewInt(50_000)},
	}
	hash, err := tx.SigningHash()
	require.NoError(t, err)
	sig, err := crypto.Sign(hash.Bytes(), key)
	require.NoError(t, err)
	signed, err := tx.WithSignature(sig)
	require.NoError(t, err)

	raw, err := signed.MarshalBinary()
	require.NoError(t, err)
	return raw
}

func TestDescribeEip712Signer(t *testing.T) {
	key, err := crypto.HexToECDSA(testKey)
	require.NoError(t, err)
	signer := crypto.PubkeyToAddress(key.PublicKey)
	other := common.HexToAddress("0x00000000000000000000000000000000000000d0")

	tests := []struct {
		name string
		from common.Address
		want string
	}{
		{
			name: "signer is sender",
			from: signer,
			want: "Signer:    " + signer.Hex() + "\n",
		},
		{
			name: "signer differs from sender",
			from: other,
			want: "Signer:    " + signer.Hex() + " (does not match From)\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			require.NoError(t, describe(&out, signedEip712(t, tt.from)))

			assert.Contains(t, out.String(), "Type:      Era EIP-712\n")
			assert.Contains(t, out.String(), "From:      "+tt.from.Hex()+"\n")
			assert.Contains(t, out.String(), tt.want)
			assert.Contains(t, out.String(), "Gas per pubdata: 50000\n")
		})
	}
}

func TestDescribeNative(t *testing.T) {
	key, err := crypto.HexToECDSA(testKey)
	require.NoError(t, err)

	tx, err := types.SignNewTx(key, types.LatestSignerForChainID(big.NewInt(1)), &types.DynamicFeeTx{
		ChainID:   big.NewInt(1),
		Nonce:     3,
		GasTipCap: big.NewInt(1),
		GasFeeCap: big.NewInt(2),
		Gas:       21_000,
		Value:     big.NewInt(5),
	})
	require.NoError(t, err)
	raw, err := tx.MarshalBinary()
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, describe(&out, raw))
	assert.Contains(t, out.String(), "Hash:      "+tx.Hash().Hex()+"\n")
	assert.Contains(t, out.String(), "To:        (contract creation)\n")
	assert.Contains(t, out.String(), "Sender:    "+crypto.PubkeyToAddress(key.PublicKey).Hex()+"\n")
	assert.NotContains(t, out.String(), "Signer:")
}
