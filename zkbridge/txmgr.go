package zkbridge

import (
	"math/big"
	"time"

	opcrypto "github.com/ethereum-optimism/optimism/op-service/crypto"
	"github.com/ethereum-optimism/optimism/op-service/txmgr"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/params"
)

// l1BlockTime paces rebroadcasts and receipt polling of L1 bridge traffic.
const l1BlockTime = 12 * time.Second

// Fee bounds of L1 bridge traffic, in gwei. The limit multiplier caps a rebroadcast at
// five times the first offer once fees exceed the threshold.
const (
	l1MinFeeGwei            = 1
	l1FeeLimitThresholdGwei = 100
	l1FeeLimitMultiplier    = 5
)

func gwei(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), big.NewInt(params.GWei))
}

// NewL1TxMgrConfig creates a txmgr.Config for L1 bridge traffic that is not part of a
// deposit, such as standalone token approvals. Fees follow the deposit policy through
// DepositGasPriceEstimatorFn. TxSendTimeout stays zero, so a send is bounded only by ctx.
//
//	cfg, err := zkbridge.NewL1TxMgrConfig(l1, chainID, wallet.SignerFn(chainID), from)
//	if err != nil {
//	    return err
//	}
//	mgr, err := txmgr.NewSimpleTxManagerFromConfig("zk-l1", logger, &txmetrics.NoopTxMetrics{}, cfg)
func NewL1TxMgrConfig(backend txmgr.ETHBackend, chainID *big.Int, signer opcrypto.SignerFn, from common.Address) (*txmgr.Config, error) {
	cfg := &txmgr.Config{
		Backend: backend,
		ChainID: chainID,
		Signer:  signer,
		From:    from,

		GasPriceEstimatorFn: DepositGasPriceEstimatorFn,

		// An approval is final once mined; a dropped one is noticed within ten blocks.
		NumConfirmations:          1,
		SafeAbortNonceTooLowCount: 3,
		ReceiptQueryInterval:      l1BlockTime,
		TxNotInMempoolTimeout:     10 * l1BlockTime,
		NetworkTimeout:            10 * time.Second,
		RetryInterval:             time.Second,
		MaxRetries:                10,
		CellProofTime:             1<<63 - 1, // no blob transactions
	}

	cfg.RebroadcastInterval.Store(int64(l1BlockTime))
	cfg.ResubmissionTimeout.Store(int64(4 * l1BlockTime))
	cfg.FeeLimitThreshold.Store(gwei(l1FeeLimitThresholdGwei))
	cfg.FeeLimitMultiplier.Store(l1FeeLimitMultiplier)
	cfg.MinBaseFee.Store(gwei(l1MinFeeGwei))
	cfg.MinTipCap.Store(gwei(l1MinFeeGwei))
	cfg.MinBlobTxFee.Store(big.NewInt(1))

	return cfg, nil
}

// ApprovalCandidate builds the txmgr candidate of an ERC20 approve(spender, amount) call.
// The gas limit is left to the manager's estimate.
func ApprovalCandidate(token, spender common.Address, amount *big.Int) (txmgr.TxCandidate, error) {
	data, err := erc20ABI.Pack("approve", spender, amount)
	if err != nil {
		return txmgr.TxCandidate{}, stepError(msgEncodeCall, err)
	}
	return txmgr.TxCandidate{
		TxData: data,
		To:     &token,
		Value:  new(big.Int),
	}, nil
}
