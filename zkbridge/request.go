package zkbridge

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// RequiredL1ToL2GasPerPubdataLimit is the gas-per-pubdata limit the bridge hub requires for
// priority transactions.
const RequiredL1ToL2GasPerPubdataLimit = 800

// EtherL1Address is the token address that stands for the L1 native asset.
var EtherL1Address = common.Address{}

// DepositRequest describes a single L1 -> L2 deposit. Build it with NewDepositRequest and
// the With* methods, each of which returns a modified copy.
type DepositRequest struct {
	Amount *uint256.Int
	// Receiver on L2. Defaults to the sender.
	Receiver *common.Address
	// Token is the L1 token address, EtherL1Address for ETH.
	Token common.Address
	// BridgeAddress is an explicit L1 bridge. Without one the chain's shared default
	// bridge is used.
	BridgeAddress      *common.Address
	GasPerPubdataLimit *uint256.Int
	// AutoApproval allows the deposit to raise the token allowance of the bridge.
	AutoApproval bool
}

// NewDepositRequest returns an ETH deposit of amount to the sender with the required
// gas-per-pubdata limit and auto-approval enabled.
func NewDepositRequest(amount *uint256.Int) DepositRequest {
	if amount == nil {
		amount = new(uint256.Int)
	}
	return DepositRequest{
		Amount:             new(uint256.Int).Set(amount),
		Token:              EtherL1Address,
		GasPerPubdataLimit: uint256.NewInt(RequiredL1ToL2GasPerPubdataLimit),
		AutoApproval:       true,
	}
}

func (r DepositRequest) WithReceiver(receiver common.Address) DepositRequest {
	r.Receiver = &receiver
	return r
}

func (r DepositRequest) WithToken(token common.Address) DepositRequest {
	r.Token = token
	return r
}

func (r DepositRequest) WithBridgeAddress(bridge common.Address) DepositRequest {
	r.BridgeAddress = &bridge
	return r
}

// WithGasPerPubdataLimit sets the L2 gas per pubdata byte limit. A nil limit restores
// RequiredL1ToL2GasPerPubdataLimit.
func (r DepositRequest) WithGasPerPubdataLimit(limit *uint256.Int) DepositRequest {
	if limit == nil {
		r.GasPerPubdataLimit = uint256.NewInt(RequiredL1ToL2GasPerPubdataLimit)
		return r
	}
	r.GasPerPubdataLimit = new(uint256.Int).Set(limit)
	return r
}

func (r DepositRequest) WithAutoApproval(enabled bool) DepositRequest {
	r.AutoApproval = enabled
	return r
}

// IsETH reports whether the request deposits the L1 native asset.
func (r DepositRequest) IsETH() bool {
	return r.Token == EtherL1Address
}

func (r DepositRequest) receiverOr(sender common.Address) common.Address {
	if r.Receiver != nil {
		return *r.Receiver
	}
	return sender
}

func (r DepositRequest) amount() *big.Int {
	if r.Amount == nil {
		return new(big.Int)
	}
	return r.Amount.ToBig()
}

func (r DepositRequest) gasPerPubdataLimit() *uint256.Int {
	if r.GasPerPubdataLimit == nil {
		return uint256.NewInt(RequiredL1ToL2GasPerPubdataLimit)
	}
	return r.GasPerPubdataLimit
}

func (r DepositRequest) path() string {
	if r.IsETH() {
		return "eth"
	}
	return "erc20"
}
