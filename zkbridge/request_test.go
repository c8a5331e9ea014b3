package zkbridge

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDepositRequest(t *testing.T) {
	req := NewDepositRequest(uint256.NewInt(5))

	assert.Equal(t, uint256.NewInt(5), req.Amount)
	assert.Nil(t, req.Receiver)
	assert.Equal(t, EtherL1Address, req.Token)
	assert.True(t, req.IsETH())
	assert.Nil(t, req.BridgeAddress)
	assert.Equal(t, uint256.NewInt(RequiredL1ToL2GasPerPubdataLimit), req.GasPerPubdataLimit)
	assert.True(t, req.AutoApproval)
	assert.Equal(t, "eth", req.path())

	sender := common.HexToAddress("0x01")
	assert.Equal(t, sender, req.receiverOr(sender))
}

func TestDepositRequestSetters(t *testing.T) {
	base := NewDepositRequest(uint256.NewInt(5))
	receiver := common.HexToAddress("0x02")
	token := common.HexToAddress("0x03")
	bridge := common.HexToAddress("0x04")

	req := base.
		WithReceiver(receiver).
		WithToken(token).
		WithBridgeAddress(bridge).
		WithGasPerPubdataLimit(uint256.NewInt(1000)).
		WithAutoApproval(false)

	require.NotNil(t, req.Receiver)
	assert.Equal(t, receiver, *req.Receiver)
	assert.Equal(t, receiver, req.receiverOr(common.HexToAddress("0x01")))
	assert.Equal(t, token, req.Token)
	assert.False(t, req.IsETH())
	assert.Equal(t, "erc20", req.path())
	require.NotNil(t, req.BridgeAddress)
	assert.Equal(t, bridge, *req.BridgeAddress)
	assert.Equal(t, uint256.NewInt(1000), req.GasPerPubdataLimit)
	assert.False(t, req.AutoApproval)

	// Setters return copies.
	assert.Nil(t, base.Receiver)
	assert.True(t, base.IsETH())
	assert.Nil(t, base.BridgeAddress)
	assert.Equal(t, uint256.NewInt(RequiredL1ToL2GasPerPubdataLimit), base.GasPerPubdataLimit)
	assert.True(t, base.AutoApproval)
}

func TestDepositRequestZeroValue(t *testing.T) {
	var req DepositRequest
	assert.Equal(t, 0, req.amount().Sign())
	assert.Equal(t, uint256.NewInt(RequiredL1ToL2GasPerPubdataLimit), req.gasPerPubdataLimit())

	assert.Equal(t, 0, NewDepositRequest(nil).amount().Sign())
}

func TestDepositRequestNilGasPerPubdataLimit(t *testing.T) {
	req := NewDepositRequest(uint256.NewInt(1)).
		WithGasPerPubdataLimit(uint256.NewInt(1000)).
		WithGasPerPubdataLimit(nil)
	assert.Equal(t, uint256.NewInt(RequiredL1ToL2GasPerPubdataLimit), req.GasPerPubdataLimit)
	assert.Equal(t, uint256.NewInt(RequiredL1ToL2GasPerPubdataLimit), req.gasPerPubdataLimit())
}
