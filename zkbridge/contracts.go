package zkbridge

import (
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

const l2CanonicalTransactionComponents = `[
	{"name": "txType", "type": "uint256"},
	{"name": "from", "type": "uint256"},
	{"name": "to", "type": "uint256"},
	{"name": "gasLimit", "type": "uint256"},
	{"name": "gasPerPubdataByteLimit", "type": "uint256"},
	{"name": "maxFeePerGas", "type": "uint256"},
	{"name": "maxPriorityFeePerGas", "type": "uint256"},
	{"name": "paymaster", "type": "uint256"},
	{"name": "nonce", "type": "uint256"},
	{"name": "value", "type": "uint256"},
	{"name": "reserved", "type": "uint256[4]"},
	{"name": "data", "type": "bytes"},
	{"name": "signature", "type": "bytes"},
	{"name": "factoryDeps", "type": "uint256[]"},
	{"name": "paymasterInput", "type": "bytes"},
	{"name": "reservedDynamic", "type": "bytes"}
]`

var bridgehubABI = mustParseABI(`[
	{
		"type": "function",
		"name": "requestL2TransactionDirect",
		"stateMutability": "payable",
		"inputs": [{"name": "request", "type": "tuple", "components": [
			{"name": "chainId", "type": "uint256"},
			{"name": "mintValue", "type": "uint256"},
			{"name": "l2Contract", "type": "address"},
			{"name": "l2Value", "type": "uint256"},
			{"name": "l2Calldata", "type": "bytes"},
			{"name": "l2GasLimit", "type": "uint256"},
			{"name": "l2GasPerPubdataByteLimit", "type": "uint256"},
			{"name": "factoryDeps", "type": "bytes[]"},
			{"name": "refundRecipient", "type": "address"}
		]}],
		"outputs": [{"name": "canonicalTxHash", "type": "bytes32"}]
	},
	{
		"type": "function",
		"name": "requestL2TransactionTwoBridges",
		"stateMutability": "payable",
		"inputs": [{"name": "request", "type": "tuple", "components": [
			{"name": "chainId", "type": "uint256"},
			{"name": "mintValue", "type": "uint256"},
			{"name": "l2Value", "type": "uint256"},
			{"name": "l2GasLimit", "type": "uint256"},
			{"name": "l2GasPerPubdataByteLimit", "type": "uint256"},
			{"name": "refundRecipient", "type": "address"},
			{"name": "secondBridgeAddress", "type": "address"},
			{"name": "secondBridgeValue", "type": "uint256"},
			{"name": "secondBridgeCalldata", "type": "bytes"}
		]}],
		"outputs": [{"name": "canonicalTxHash", "type": "bytes32"}]
	},
	{
		"type": "function",
		"name": "l2TransactionBaseCost",
		"stateMutability": "view",
		"inputs": [
			{"name": "_chainId", "type": "uint256"},
			{"name": "_gasPrice", "type": "uint256"},
			{"name": "_l2GasLimit", "type": "uint256"},
			{"name": "_l2GasPerPubdataByteLimit", "type": "uint256"}
		],
		"outputs": [{"name": "", "type": "uint256"}]
	},
	{
		"type": "event",
		"name": "NewPriorityRequest",
		"anonymous": false,
		"inputs": [
			{"name": "txId", "type": "uint256", "indexed": false},
			{"name": "txHash", "type": "bytes32", "indexed": false},
			{"name": "expirationTimestamp", "type": "uint64", "indexed": false},
			{"name": "transaction", "type": "tuple", "indexed": false, "components": ` + l2CanonicalTransactionComponents + `},
			{"name": "factoryDeps", "type": "bytes[]", "indexed": false}
		]
	}
]`)

var l1BridgeABI = mustParseABI(`[
	{
		"type": "function",
		"name": "l2BridgeAddress",
		"stateMutability": "view",
		"inputs": [{"name": "_chainId", "type": "uint256"}],
		"outputs": [{"name": "", "type": "address"}]
	}
]`)

var l2BridgeABI = mustParseABI(`[
	{
		"type": "function",
		"name": "finalizeDeposit",
		"stateMutability": "nonpayable",
		"inputs": [
			{"name": "_l1Sender", "type": "address"},
			{"name": "_l2Receiver", "type": "address"},
			{"name": "_l1Token", "type": "address"},
			{"name": "_amount", "type": "uint256"},
			{"name": "_data", "type": "bytes"}
		],
		"outputs": []
	}
]`)

var erc20ABI = mustParseABI(`[
	{
		"type": "function",
		"name": "allowance",
		"stateMutability": "view",
		"inputs": [{"name": "owner", "type": "address"}, {"name": "spender", "type": "address"}],
		"outputs": [{"name": "", "type": "uint256"}]
	},
	{
		"type": "function",
		"name": "approve",
		"stateMutability": "nonpayable",
		"inputs": [{"name": "spender", "type": "address"}, {"name": "value", "type": "uint256"}],
		"outputs": [{"name": "", "type": "bool"}]
	},
	{"type": "function", "name": "name", "stateMutability": "view", "inputs": [], "outputs": [{"name": "", "type": "string"}]},
	{"type": "function", "name": "symbol", "stateMutability": "view", "inputs": [], "outputs": [{"name": "", "type": "string"}]},
	{"type": "function", "name": "decimals", "stateMutability": "view", "inputs": [], "outputs": [{"name": "", "type": "uint8"}]}
]`)

var (
	stringArgs  = abi.Arguments{{Type: mustType("string")}}
	uint256Args = abi.Arguments{{Type: mustType("uint256")}}

	// (bytes name, bytes symbol, bytes decimals), each abi-encoded on its own.
	tokenDataArgs = abi.Arguments{{Type: mustType("bytes")}, {Type: mustType("bytes")}, {Type: mustType("bytes")}}

	// Second bridge calldata of a token deposit: (token, amount, receiver).
	depositTokenArgs = abi.Arguments{{Type: mustType("address")}, {Type: mustType("uint256")}, {Type: mustType("address")}}
)

func mustParseABI(def string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(def))
	if err != nil {
		panic(err)
	}
	return parsed
}

func mustType(t string) abi.Type {
	typ, err := abi.NewType(t, "", nil)
	if err != nil {
		panic(err)
	}
	return typ
}

// Field order follows the contract structs; the abi package copies tuples by position.

type l2TransactionRequestDirect struct {
	ChainID                  *big.Int `abi:"chainId"`
	MintValue                *big.Int
	L2Contract               common.Address
	L2Value                  *big.Int
	L2Calldata               []byte
	L2GasLimit               *big.Int
	L2GasPerPubdataByteLimit *big.Int
	FactoryDeps              [][]byte
	RefundRecipient          common.Address
}

type l2TransactionRequestTwoBridges struct {
	ChainID                  *big.Int `abi:"chainId"`
	MintValue                *big.Int
	L2Value                  *big.Int
	L2GasLimit               *big.Int
	L2GasPerPubdataByteLimit *big.Int
	RefundRecipient          common.Address
	SecondBridgeAddress      common.Address
	SecondBridgeValue        *big.Int
	SecondBridgeCalldata     []byte
}

// L2CanonicalTransaction is the L2 transaction the bridge hub puts in the priority queue.
type L2CanonicalTransaction struct {
	TxType                 *big.Int
	From                   *big.Int
	To                     *big.Int
	GasLimit               *big.Int
	GasPerPubdataByteLimit *big.Int
	MaxFeePerGas           *big.Int
	MaxPriorityFeePerGas   *big.Int
	Paymaster              *big.Int
	Nonce                  *big.Int
	Value                  *big.Int
	Reserved               [4]*big.Int
	Data                   []byte
	Signature              []byte
	FactoryDeps            []*big.Int
	PaymasterInput         []byte
	ReservedDynamic        []byte
}

// PriorityRequest is the decoded NewPriorityRequest event of the bridge hub.
type PriorityRequest struct {
	TxID                *big.Int `abi:"txId"`
	TxHash              common.Hash
	ExpirationTimestamp uint64
	Transaction         L2CanonicalTransaction
	FactoryDeps         [][]byte
}

// newPriorityRequestTopic is the topic0 of NewPriorityRequest.
var newPriorityRequestTopic = bridgehubABI.Events["NewPriorityRequest"].ID

// encodeTokenData packs ERC20 metadata the way the shared bridge expects it in
// finalizeDeposit.
func encodeTokenData(name, symbol string, decimals uint8) ([]byte, error) {
	encName, err := stringArgs.Pack(name)
	if err != nil {
		return nil, err
	}
	encSymbol, err := stringArgs.Pack(symbol)
	if err != nil {
		return nil, err
	}
	encDecimals, err := uint256Args.Pack(new(big.Int).SetUint64(uint64(decimals)))
	if err != nil {
		return nil, err
	}
	return tokenDataArgs.Pack(encName, encSymbol, encDecimals)
}
