package zkbridge

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/require"

	"gozksync/ethclient"
	"gozksync/zktx"
	"gozksync/zkwallet"
)

const richKey = "0x7726827caac94a7f9e1b160f7ea819f172f7b6f9d2a97f992c38edeab82d4110"

var (
	gweiUnit = big.NewInt(1_000_000_000)

	testHub      = common.HexToAddress("0x00000000000000000000000000000000000000aa")
	testL1Bridge = common.HexToAddress("0x00000000000000000000000000000000000000b1")
	testL2Bridge = common.HexToAddress("0x00000000000000000000000000000000000000b2")
	testToken    = common.HexToAddress("0x00000000000000000000000000000000000000c0")
	testL2TxHash = common.HexToHash("0xb85668399db249d62d06bbc59eace82e01364602fb7159e161ca810ff6ddbbf4")
)

func gweis(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), gweiUnit)
}

// mockL1 implements L1Client. Contract calls are answered by selector and every sent
// transaction is mined at once.
type mockL1 struct {
	t  *testing.T
	mu sync.Mutex

	chainID     *big.Int
	tip         *big.Int
	tipErr      error
	baseFee     *big.Int
	headerErr   error
	gasEstimate uint64
	estimateErr error
	sendErr     error
	callErrs    map[string]error

	l2Bridge  common.Address
	baseCost  *big.Int
	allowance *big.Int

	approveReverts  bool
	omitPriorityLog bool

	tipCalls  int
	calls     []string
	callArgs  map[string][]interface{}
	estimates []ethereum.CallMsg
	sent      []*types.Transaction
	receipts  map[common.Hash]*types.Receipt
}

func newMockL1(t *testing.T) *mockL1 {
	return &mockL1{
		t:           t,
		chainID:     big.NewInt(9),
		tip:         gweis(2),
		baseFee:     gweis(10),
		gasEstimate: 100_000,
		l2Bridge:    testL2Bridge,
		baseCost:    big.NewInt(1_000_000_000_000_000),
		allowance:   new(big.Int),
		callArgs:    make(map[string][]interface{}),
		callErrs:    make(map[string]error),
		receipts:    make(map[common.Hash]*types.Receipt),
	}
}

func (m *mockL1) ChainID(ctx context.Context) (*big.Int, error) {
	return m.chainID, nil
}

func (m *mockL1) BlockNumber(ctx context.Context) (uint64, error) {
	return 1, nil
}

func (m *mockL1) CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, contract := range []abi.ABI{bridgehubABI, l1BridgeABI, erc20ABI} {
		method, err := contract.MethodById(msg.Data[:4])
		if err != nil {
			continue
		}
		args, err := method.Inputs.Unpack(msg.Data[4:])
		require.NoError(m.t, err)
		m.calls = append(m.calls, method.Name)
		m.callArgs[method.Name] = args
		if err := m.callErrs[method.Name]; err != nil {
			return nil, err
		}

		switch method.Name {
		case "l2TransactionBaseCost":
			return method.Outputs.Pack(m.baseCost)
		case "l2BridgeAddress":
			return method.Outputs.Pack(m.l2Bridge)
		case "allowance":
			return method.Outputs.Pack(m.allowance)
		case "name":
			return method.Outputs.Pack("Test Token")
		case "symbol":
			return method.Outputs.Pack("TT")
		case "decimals":
			return method.Outputs.Pack(uint8(18))
		}
	}
	return nil, fmt.Errorf("unexpected call to %s: %x", msg.To, msg.Data[:4])
}

func (m *mockL1) TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.receipts[txHash]; ok {
		return r, nil
	}
	return nil, ethereum.NotFound
}

func (m *mockL1) SendTransaction(ctx context.Context, tx *types.Transaction) error {
	if m.sendErr != nil {
		return m.sendErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	receipt := &types.Receipt{
		Type:        tx.Type(),
		Status:      types.ReceiptStatusSuccessful,
		TxHash:      tx.Hash(),
		BlockNumber: big.NewInt(int64(len(m.sent) + 1)),
		GasUsed:     tx.Gas() / 2,
	}
	switch *tx.To() {
	case testHub:
		receipt.Logs = append(receipt.Logs, &types.Log{Address: testHub, Topics: []common.Hash{{0x01}}})
		if !m.omitPriorityLog {
			receipt.Logs = append(receipt.Logs, priorityRequestLog(m.t, testL2TxHash))
		}
	default:
		if m.approveReverts {
			receipt.Status = types.ReceiptStatusFailed
		}
	}
	m.sent = append(m.sent, tx)
	m.receipts[tx.Hash()] = receipt
	return nil
}

func (m *mockL1) HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error) {
	if m.headerErr != nil {
		return nil, m.headerErr
	}
	return &types.Header{Number: big.NewInt(1), BaseFee: m.baseFee}, nil
}

func (m *mockL1) SuggestGasTipCap(ctx context.Context) (*big.Int, error) {
	m.mu.Lock()
	m.tipCalls++
	m.mu.Unlock()
	if m.tipErr != nil {
		return nil, m.tipErr
	}
	return new(big.Int).Set(m.tip), nil
}

func (m *mockL1) SuggestGasPrice(ctx context.Context) (*big.Int, error) {
	return m.SuggestGasTipCap(ctx)
}

func (m *mockL1) BlobBaseFee(ctx context.Context) (*big.Int, error) {
	return nil, errors.New("blobs not supported")
}

func (m *mockL1) NonceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (uint64, error) {
	return 0, nil
}

func (m *mockL1) PendingNonceAt(ctx context.Context, account common.Address) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return uint64(len(m.sent)), nil
}

func (m *mockL1) EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.estimates = append(m.estimates, msg)
	if m.estimateErr != nil {
		return 0, m.estimateErr
	}
	return m.gasEstimate, nil
}

func (m *mockL1) CodeAt(ctx context.Context, account common.Address, blockNumber *big.Int) ([]byte, error) {
	return nil, nil
}

func (m *mockL1) Close() {}

// mockL2 implements L2Client.
type mockL2 struct {
	mu sync.Mutex

	chainID    *big.Int
	chainErr   error
	bridges    *ethclient.BridgeAddresses
	bridgesErr error
	hub        *common.Address
	hubErr     error
	l2Gas      *big.Int
	gasErr     error

	methods   []string
	estimates []zktx.TransactionRequest
}

func newMockL2() *mockL2 {
	l1Bridge, l2Bridge, hub := testL1Bridge, testL2Bridge, testHub
	return &mockL2{
		chainID: big.NewInt(270),
		bridges: &ethclient.BridgeAddresses{
			L1SharedDefaultBridge: &l1Bridge,
			L2SharedDefaultBridge: &l2Bridge,
		},
		hub:   &hub,
		l2Gas: big.NewInt(500_000),
	}
}

func (m *mockL2) record(method string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.methods = append(m.methods, method)
}

func (m *mockL2) ChainID(ctx context.Context) (*big.Int, error) {
	m.record("eth_chainId")
	return m.chainID, m.chainErr
}

func (m *mockL2) BridgeContracts(ctx context.Context) (*ethclient.BridgeAddresses, error) {
	m.record("zks_getBridgeContracts")
	return m.bridges, m.bridgesErr
}

func (m *mockL2) BridgehubContract(ctx context.Context) (*common.Address, error) {
	m.record("zks_getBridgehubContract")
	return m.hub, m.hubErr
}

func (m *mockL2) EstimateGasL1ToL2(ctx context.Context, req zktx.TransactionRequest) (*big.Int, error) {
	m.record("zks_estimateGasL1ToL2")
	m.mu.Lock()
	m.estimates = append(m.estimates, req)
	m.mu.Unlock()
	return m.l2Gas, m.gasErr
}

func (m *mockL2) TransactionReceipt(ctx context.Context, txHash common.Hash) (*zktx.Receipt, error) {
	m.record("eth_getTransactionReceipt")
	return &zktx.Receipt{Receipt: &types.Receipt{
		TxHash: txHash,
		Status: types.ReceiptStatusSuccessful,
	}}, nil
}

func priorityRequestLog(t *testing.T, txHash common.Hash) *types.Log {
	zero := func() *big.Int { return new(big.Int) }
	canonical := L2CanonicalTransaction{
		TxType:                 big.NewInt(255),
		From:                   zero(),
		To:                     zero(),
		GasLimit:               big.NewInt(500_000),
		GasPerPubdataByteLimit: big.NewInt(RequiredL1ToL2GasPerPubdataLimit),
		MaxFeePerGas:           zero(),
		MaxPriorityFeePerGas:   zero(),
		Paymaster:              zero(),
		Nonce:                  big.NewInt(42),
		Value:                  zero(),
		Reserved:               [4]*big.Int{zero(), zero(), zero(), zero()},
		Data:                   []byte{},
		Signature:              []byte{},
		FactoryDeps:            []*big.Int{},
		PaymasterInput:         []byte{},
		ReservedDynamic:        []byte{},
	}
	data, err := bridgehubABI.Events["NewPriorityRequest"].Inputs.Pack(
		big.NewInt(42), txHash, uint64(1_700_000_000), canonical, [][]byte{})
	require.NoError(t, err)
	return &types.Log{
		Address: testHub,
		Topics:  []common.Hash{newPriorityRequestTopic},
		Data:    data,
	}
}

type fixture struct {
	l1     *mockL1
	l2     *mockL2
	wallet *zkwallet.Wallet
	sender common.Address
}

func newFixture(t *testing.T) *fixture {
	signer, err := zkwallet.PrivateKeySignerFromHex(richKey)
	require.NoError(t, err)
	return &fixture{
		l1:     newMockL1(t),
		l2:     newMockL2(),
		wallet: zkwallet.New(signer),
		sender: signer.Address(),
	}
}

func (f *fixture) executor(req DepositRequest, opts ...Option) *DepositExecutor {
	return NewDepositExecutor(f.l1, f.l2, f.wallet, req, opts...)
}
