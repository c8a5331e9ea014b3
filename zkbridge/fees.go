package zkbridge

import (
	"context"
	"fmt"
	"math"
	"math/big"

	"github.com/ethereum-optimism/optimism/op-service/txmgr"
)

// Scaling applied to L1 gas estimates of deposit and approval transactions.
const (
	l1GasLimitScaleNumerator   = 12
	l1GasLimitScaleDenominator = 10
)

// ScaleL1GasLimit pads an L1 gas estimate by 20%, truncating. Results beyond uint64
// saturate at math.MaxUint64.
func ScaleL1GasLimit(gas uint64) uint64 {
	q, r := gas/l1GasLimitScaleDenominator, gas%l1GasLimitScaleDenominator
	rem := r * l1GasLimitScaleNumerator / l1GasLimitScaleDenominator
	if q > (math.MaxUint64-rem)/l1GasLimitScaleNumerator {
		return math.MaxUint64
	}
	return q*l1GasLimitScaleNumerator + rem
}

// l1Fees are the EIP-1559 fee caps used for every L1 transaction of one deposit.
type l1Fees struct {
	maxFee *big.Int
	tip    *big.Int
}

// paddedBaseFee is the fee offer for the base fee alone: 1.5x the current base fee.
func paddedBaseFee(baseFee *big.Int) *big.Int {
	padded := new(big.Int).Mul(baseFee, big.NewInt(3))
	return padded.Div(padded, big.NewInt(2))
}

// depositFees queries the L1 priority fee and pads the latest base fee. The max fee is
// the padded base fee plus the priority fee. A tip below minTip is raised to it.
func depositFees(ctx context.Context, backend txmgr.ETHBackend, minTip *big.Int) (l1Fees, error) {
	tip, err := backend.SuggestGasTipCap(ctx)
	if err != nil {
		return l1Fees{}, stepError(msgPriorityFee, err)
	}
	if minTip != nil && tip.Cmp(minTip) < 0 {
		tip = new(big.Int).Set(minTip)
	}

	head, err := backend.HeaderByNumber(ctx, nil)
	if err != nil {
		return l1Fees{}, stepError(msgBaseFees, err)
	}
	baseFee := head.BaseFee
	if baseFee == nil {
		// Chains without EIP-1559 headers price by the suggested fee alone.
		baseFee = tip
	}

	maxFee := paddedBaseFee(baseFee)
	maxFee.Add(maxFee, tip)
	return l1Fees{maxFee: maxFee, tip: tip}, nil
}

// DepositGasPriceEstimatorFn is a txmgr.GasPriceEstimatorFn applying the deposit fee policy,
// for L1 transactions sent through an op-service transaction manager alongside deposits.
// The returned base fee is already padded by 1.5x.
func DepositGasPriceEstimatorFn(ctx context.Context, backend txmgr.ETHBackend) (*big.Int, *big.Int, *big.Int, error) {
	fees, err := depositFees(ctx, backend, nil)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to estimate deposit fees: %w", err)
	}
	baseFee := new(big.Int).Sub(fees.maxFee, fees.tip)
	// No blob transactions are sent for deposits.
	return fees.tip, baseFee, big.NewInt(0), nil
}

var _ txmgr.GasPriceEstimatorFn = DepositGasPriceEstimatorFn
