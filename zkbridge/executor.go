// Package zkbridge deposits ETH and ERC20 tokens from L1 to L2 through the bridge hub.
package zkbridge

import (
	"context"
	"fmt"
	"math/big"

	opcrypto "github.com/ethereum-optimism/optimism/op-service/crypto"
	"github.com/ethereum-optimism/optimism/op-service/txmgr"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/log"

	"gozksync/ethclient"
	"gozksync/zktx"
)

// L1Client is the L1 node a deposit is sent through. go-ethereum's ethclient.Client
// satisfies it.
type L1Client interface {
	txmgr.ETHBackend
	bind.DeployBackend
	ChainID(ctx context.Context) (*big.Int, error)
}

// L2Client is the L2 node a deposit lands on. *ethclient.Client satisfies it.
type L2Client interface {
	ethclient.ReceiptFetcher
	ChainID(ctx context.Context) (*big.Int, error)
	BridgeContracts(ctx context.Context) (*ethclient.BridgeAddresses, error)
	BridgehubContract(ctx context.Context) (*common.Address, error)
	EstimateGasL1ToL2(ctx context.Context, req zktx.TransactionRequest) (*big.Int, error)
}

// Wallet signs the L1 transactions of a deposit. *zkwallet.Wallet satisfies it.
type Wallet interface {
	DefaultSignerAddress() common.Address
	SignerFn(chainID *big.Int) opcrypto.SignerFn
}

type Option func(*DepositExecutor)

func WithLogger(l log.Logger) Option {
	return func(e *DepositExecutor) {
		e.log = l
	}
}

func WithMetrics(m Metricer) Option {
	return func(e *DepositExecutor) {
		e.metrics = m
	}
}

// WithMinTipCap sets a floor for the L1 priority fee.
func WithMinTipCap(tip *big.Int) Option {
	return func(e *DepositExecutor) {
		e.minTip = tip
	}
}

// DepositExecutor runs one DepositRequest. Steps run strictly in order and a failed step
// ends the deposit; an approval already mined stays on chain.
type DepositExecutor struct {
	l1      L1Client
	l2      L2Client
	wallet  Wallet
	request DepositRequest

	log     log.Logger
	metrics Metricer
	minTip  *big.Int
}

func NewDepositExecutor(l1 L1Client, l2 L2Client, wallet Wallet, request DepositRequest, opts ...Option) *DepositExecutor {
	e := &DepositExecutor{
		l1:      l1,
		l2:      l2,
		wallet:  wallet,
		request: request,
		log:     log.Root(),
		metrics: NoopMetrics,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.log = e.log.New("token", request.Token, "path", request.path())
	return e
}

// bridgePair is the L1 bridge a token deposit goes through and its L2 counterpart.
type bridgePair struct {
	l1 common.Address
	l2 common.Address
}

// l1Call is an L1 contract call to be sent as a transaction.
type l1Call struct {
	to    common.Address
	data  []byte
	value *big.Int
}

// Execute approves the bridge when needed, sends the deposit transaction and waits for its
// L1 receipt. The receipt is returned even if the transaction reverted.
func (e *DepositExecutor) Execute(ctx context.Context) (*L1TransactionReceipt, error) {
	path := e.request.path()
	e.metrics.RecordDepositStarted(path)
	receipt, err := e.execute(ctx)
	if err != nil {
		e.metrics.RecordDepositFailed(path)
		e.log.Warn("Deposit failed", "err", err)
		return nil, err
	}
	return receipt, nil
}

func (e *DepositExecutor) execute(ctx context.Context) (*L1TransactionReceipt, error) {
	chainID, err := e.l2.ChainID(ctx)
	if err != nil {
		return nil, stepError(msgL2ChainID, err)
	}

	var bridges *bridgePair
	if !e.request.IsETH() {
		bridges, err = e.bridgeAddresses(ctx, chainID)
		if err != nil {
			return nil, err
		}
		e.log.Debug("Resolved bridge addresses", "l1Bridge", bridges.l1, "l2Bridge", bridges.l2)
	}

	sender := e.wallet.DefaultSignerAddress()
	receiver := e.request.receiverOr(sender)

	fees, err := depositFees(ctx, e.l1, e.minTip)
	if err != nil {
		return nil, err
	}
	e.log.Debug("Computed L1 fees", "maxFeePerGas", fees.maxFee, "maxPriorityFeePerGas", fees.tip)

	deposit, err := e.depositCall(ctx, sender, receiver, bridges, chainID, fees)
	if err != nil {
		return nil, err
	}

	if bridges != nil {
		if err := e.approveTokens(ctx, sender, bridges.l1, fees); err != nil {
			return nil, err
		}
	}

	return e.submit(ctx, sender, deposit, fees)
}

func (e *DepositExecutor) bridgeAddresses(ctx context.Context, chainID *big.Int) (*bridgePair, error) {
	if e.request.BridgeAddress != nil {
		l1Bridge := *e.request.BridgeAddress
		var l2Bridge common.Address
		if err := e.call(ctx, l1BridgeABI, l1Bridge, &l2Bridge, "l2BridgeAddress", chainID); err != nil {
			return nil, stepError(msgL2BridgeAddress, err)
		}
		return &bridgePair{l1: l1Bridge, l2: l2Bridge}, nil
	}

	registry, err := e.l2.BridgeContracts(ctx)
	if err != nil {
		return nil, stepError(msgBridgeContracts, err)
	}
	if registry.L1SharedDefaultBridge == nil {
		return nil, stepError(msgNoL1SharedBridge, nil)
	}
	if registry.L2SharedDefaultBridge == nil {
		return nil, stepError(msgNoL2SharedBridge, nil)
	}
	return &bridgePair{l1: *registry.L1SharedDefaultBridge, l2: *registry.L2SharedDefaultBridge}, nil
}

// depositCall builds the bridge hub call: requestL2TransactionDirect for ETH and
// requestL2TransactionTwoBridges for tokens.
func (e *DepositExecutor) depositCall(ctx context.Context, sender, receiver common.Address, bridges *bridgePair, chainID *big.Int, fees l1Fees) (*l1Call, error) {
	hub, err := e.l2.BridgehubContract(ctx)
	if err != nil {
		return nil, stepError(msgBridgehub, err)
	}
	if hub == nil {
		return nil, stepError(msgBridgehub, nil)
	}

	amount := e.request.amount()
	gasPerPubdata := e.request.gasPerPubdataLimit()

	if bridges == nil {
		l2Tx := zktx.TransactionRequest{}.
			WithFrom(sender).
			WithTo(receiver).
			WithValue(amount).
			WithGasPerPubdata(gasPerPubdata).
			WithInput([]byte{})
		l2Gas, baseCost, err := e.l2TxGasData(ctx, *hub, l2Tx, chainID, fees)
		if err != nil {
			return nil, err
		}

		mintValue := new(big.Int).Add(baseCost, amount)
		data, err := bridgehubABI.Pack("requestL2TransactionDirect", l2TransactionRequestDirect{
			ChainID:                  chainID,
			MintValue:                mintValue,
			L2Contract:               receiver,
			L2Value:                  amount,
			L2Calldata:               []byte{},
			L2GasLimit:               l2Gas,
			L2GasPerPubdataByteLimit: gasPerPubdata.ToBig(),
			FactoryDeps:              [][]byte{},
			RefundRecipient:          sender,
		})
		if err != nil {
			return nil, stepError(msgEncodeCall, err)
		}
		return &l1Call{to: *hub, data: data, value: mintValue}, nil
	}

	tokenData, err := e.tokenData(ctx)
	if err != nil {
		return nil, stepError(msgTokenData, err)
	}
	finalizeDeposit, err := l2BridgeABI.Pack("finalizeDeposit", sender, receiver, e.request.Token, amount, tokenData)
	if err != nil {
		return nil, stepError(msgEncodeCall, err)
	}

	l2Tx := zktx.TransactionRequest{}.
		WithFrom(ApplyL1ToL2Alias(bridges.l1)).
		WithTo(bridges.l2).
		WithGasPerPubdata(gasPerPubdata).
		WithInput(finalizeDeposit)
	l2Gas, baseCost, err := e.l2TxGasData(ctx, *hub, l2Tx, chainID, fees)
	if err != nil {
		return nil, err
	}

	secondBridgeCalldata, err := depositTokenArgs.Pack(e.request.Token, amount, receiver)
	if err != nil {
		return nil, stepError(msgEncodeCall, err)
	}
	data, err := bridgehubABI.Pack("requestL2TransactionTwoBridges", l2TransactionRequestTwoBridges{
		ChainID:                  chainID,
		MintValue:                baseCost,
		L2Value:                  new(big.Int),
		L2GasLimit:               l2Gas,
		L2GasPerPubdataByteLimit: gasPerPubdata.ToBig(),
		RefundRecipient:          sender,
		SecondBridgeAddress:      bridges.l1,
		SecondBridgeValue:        new(big.Int),
		SecondBridgeCalldata:     secondBridgeCalldata,
	})
	if err != nil {
		return nil, stepError(msgEncodeCall, err)
	}
	return &l1Call{to: *hub, data: data, value: baseCost}, nil
}

// l2TxGasData estimates the L2 gas limit of l2Tx and asks the bridge hub what that costs
// in L1 currency.
func (e *DepositExecutor) l2TxGasData(ctx context.Context, hub common.Address, l2Tx zktx.TransactionRequest, chainID *big.Int, fees l1Fees) (*big.Int, *big.Int, error) {
	l2Gas, err := e.l2.EstimateGasL1ToL2(ctx, l2Tx)
	if err != nil {
		return nil, nil, stepError(msgL1ToL2Gas, err)
	}

	var baseCost *big.Int
	err = e.call(ctx, bridgehubABI, hub, &baseCost, "l2TransactionBaseCost", chainID, fees.maxFee, l2Gas, e.request.gasPerPubdataLimit().ToBig())
	if err != nil {
		return nil, nil, stepError(msgBaseCost, err)
	}
	return l2Gas, baseCost, nil
}

func (e *DepositExecutor) tokenData(ctx context.Context) ([]byte, error) {
	var (
		name, symbol string
		decimals     uint8
	)
	if err := e.call(ctx, erc20ABI, e.request.Token, &name, "name"); err != nil {
		return nil, fmt.Errorf("name: %w", err)
	}
	if err := e.call(ctx, erc20ABI, e.request.Token, &symbol, "symbol"); err != nil {
		return nil, fmt.Errorf("symbol: %w", err)
	}
	if err := e.call(ctx, erc20ABI, e.request.Token, &decimals, "decimals"); err != nil {
		return nil, fmt.Errorf("decimals: %w", err)
	}
	return encodeTokenData(name, symbol, decimals)
}

// approveTokens raises the allowance of l1Bridge to cover the deposit and waits for the
// approval to be mined.
func (e *DepositExecutor) approveTokens(ctx context.Context, sender, l1Bridge common.Address, fees l1Fees) error {
	var allowance *big.Int
	if err := e.call(ctx, erc20ABI, e.request.Token, &allowance, "allowance", sender, l1Bridge); err != nil {
		return stepError(msgAllowance, err)
	}

	deficit := new(big.Int).Sub(e.request.amount(), allowance)
	if deficit.Sign() <= 0 {
		return nil
	}
	if !e.request.AutoApproval {
		return stepError(msgAutoApproval, nil)
	}

	data, err := erc20ABI.Pack("approve", l1Bridge, deficit)
	if err != nil {
		return stepError(msgEncodeCall, err)
	}
	approve := &l1Call{to: e.request.Token, data: data}
	gas, err := e.estimateL1Gas(ctx, sender, approve, fees)
	if err != nil {
		return err
	}

	e.log.Info("Approving token allowance", "l1Bridge", l1Bridge, "deficit", deficit)
	tx, err := e.send(ctx, sender, approve, gas, fees)
	if err != nil {
		return stepError(msgApprove, err)
	}
	receipt, err := bind.WaitMined(ctx, e.l1, tx)
	if err != nil {
		return stepError(msgApproveFailed, err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return stepError(msgApproveFailed, nil)
	}
	e.metrics.RecordApproval()
	return nil
}

func (e *DepositExecutor) submit(ctx context.Context, sender common.Address, deposit *l1Call, fees l1Fees) (*L1TransactionReceipt, error) {
	gas, err := e.estimateL1Gas(ctx, sender, deposit, fees)
	if err != nil {
		return nil, err
	}

	tx, err := e.send(ctx, sender, deposit, gas, fees)
	if err != nil {
		return nil, stepError(msgSendDeposit, err)
	}
	e.log.Info("Submitted deposit transaction", "hash", tx.Hash(), "gas", gas, "value", deposit.value)
	e.metrics.RecordDepositSubmitted(e.request.path(), gas)

	receipt, err := bind.WaitMined(ctx, e.l1, tx)
	if err != nil {
		return nil, stepError(msgDepositReceipt, err)
	}
	return NewL1TransactionReceipt(receipt, e.l2), nil
}

// estimateL1Gas returns the scaled gas estimate for call.
func (e *DepositExecutor) estimateL1Gas(ctx context.Context, from common.Address, call *l1Call, fees l1Fees) (uint64, error) {
	gas, err := e.l1.EstimateGas(ctx, ethereum.CallMsg{
		From:      from,
		To:        &call.to,
		GasFeeCap: fees.maxFee,
		GasTipCap: fees.tip,
		Value:     call.value,
		Data:      call.data,
	})
	if err != nil {
		return 0, stepError(msgL1GasLimit, err)
	}
	return ScaleL1GasLimit(gas), nil
}

// send signs call as a dynamic fee transaction from the given account and broadcasts it.
func (e *DepositExecutor) send(ctx context.Context, from common.Address, call *l1Call, gas uint64, fees l1Fees) (*types.Transaction, error) {
	chainID, err := e.l1.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get L1 chain ID: %w", err)
	}
	nonce, err := e.l1.PendingNonceAt(ctx, from)
	if err != nil {
		return nil, fmt.Errorf("failed to get nonce: %w", err)
	}

	value := call.value
	if value == nil {
		value = new(big.Int)
	}
	tx := types.NewTx(&types.DynamicFeeTx{
		ChainID:   chainID,
		Nonce:     nonce,
		GasTipCap: fees.tip,
		GasFeeCap: fees.maxFee,
		Gas:       gas,
		To:        &call.to,
		Value:     value,
		Data:      call.data,
	})
	signed, err := e.wallet.SignerFn(chainID)(ctx, from, tx)
	if err != nil {
		return nil, fmt.Errorf("failed to sign transaction: %w", err)
	}
	if err := e.l1.SendTransaction(ctx, signed); err != nil {
		return nil, err
	}
	return signed, nil
}

// call runs a read-only contract call against the latest L1 state and unpacks the single
// return value into out.
func (e *DepositExecutor) call(ctx context.Context, contract abi.ABI, to common.Address, out interface{}, method string, args ...interface{}) error {
	data, err := contract.Pack(method, args...)
	if err != nil {
		return err
	}
	result, err := e.l1.CallContract(ctx, ethereum.CallMsg{To: &to, Data: data}, nil)
	if err != nil {
		return err
	}
	return contract.UnpackIntoInterface(out, method, result)
}
