package ethclient

import (
	"context"
	"errors"
	"fmt"

	"github.com/holiman/uint256"

	"gozksync/zktx"
)

// ErrMissingFrom is returned when a request that needs fee estimation or a nonce has no
// sender.
var ErrMissingFrom = errors.New("transaction request has no sender")

// FeeEstimator estimates the fee fields of a transaction request. *Client implements it
// with zks_estimateFee.
type FeeEstimator interface {
	EstimateFee(ctx context.Context, req zktx.TransactionRequest) (*Fee, error)
}

// NeedsFees reports whether FillFees would query the estimator for req.
func NeedsFees(req zktx.TransactionRequest) bool {
	return gasPerPubdata(req).IsZero() ||
		req.Gas == nil ||
		req.MaxFeePerGas == nil ||
		req.MaxPriorityFeePerGas == nil
}

// FillFees completes the gas limit, fee caps and gas per pubdata of req from a single
// estimate. Only missing fields are set; a gas per pubdata of zero counts as missing. A
// request that already has all four is returned unchanged without calling est.
func FillFees(ctx context.Context, est FeeEstimator, req zktx.TransactionRequest) (zktx.TransactionRequest, error) {
	if !NeedsFees(req) {
		return req, nil
	}
	if req.From == nil {
		return req, ErrMissingFrom
	}

	fee, err := est.EstimateFee(ctx, req)
	if err != nil {
		return req, fmt.Errorf("failed to estimate fee: %w", err)
	}

	if req.Gas == nil {
		req = req.WithGas(uint64(fee.GasLimit))
	}
	if req.MaxFeePerGas == nil && fee.MaxFeePerGas != nil {
		req = req.WithMaxFeePerGas(fee.MaxFeePerGas.ToInt())
	}
	if req.MaxPriorityFeePerGas == nil && fee.MaxPriorityFeePerGas != nil {
		req = req.WithMaxPriorityFeePerGas(fee.MaxPriorityFeePerGas.ToInt())
	}
	if gasPerPubdata(req).IsZero() && fee.GasPerPubdataLimit != nil {
		limit, overflow := uint256.FromBig(fee.GasPerPubdataLimit.ToInt())
		if overflow {
			return req, fmt.Errorf("gas per pubdata limit %s overflows 256 bits", fee.GasPerPubdataLimit)
		}
		req = req.WithGasPerPubdata(limit)
	}
	return req, nil
}

func gasPerPubdata(req zktx.TransactionRequest) *uint256.Int {
	if req.Eip712Meta == nil || req.Eip712Meta.GasPerPubdata == nil {
		return new(uint256.Int)
	}
	return req.Eip712Meta.GasPerPubdata
}

// PrepareTransaction fills the chain ID, the pending nonce of the sender and the fees of
// req, leaving every field that is already set untouched.
func (c *Client) PrepareTransaction(ctx context.Context, req zktx.TransactionRequest) (zktx.TransactionRequest, error) {
	if req.ChainID == nil {
		chainID, err := c.ChainID(ctx)
		if err != nil {
			return req, fmt.Errorf("failed to get chain ID: %w", err)
		}
		req = req.WithChainID(chainID.Uint64())
	}
	if req.Nonce == nil {
		if req.From == nil {
			return req, ErrMissingFrom
		}
		nonce, err := c.PendingNonceAt(ctx, *req.From)
		if err != nil {
			return req, fmt.Errorf("failed to get nonce: %w", err)
		}
		req = req.WithNonce(nonce)
	}
	return FillFees(ctx, c, req)
}
