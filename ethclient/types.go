package ethclient

import (
	"encoding/json"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
)

// Header is an L2 block header. L1BatchNumber and L1BatchTimestamp are nil while the
// block's batch is still open.
type Header struct {
	*types.Header

	Hash             common.Hash
	L1BatchNumber    *big.Int
	L1BatchTimestamp *big.Int
}

// rpcHeader is the block object returned by eth_getBlockByNumber. All fields are
// pointers so absent values can be told apart from zero.
type rpcHeader struct {
	ParentHash  *common.Hash      `json:"parentHash"`
	UncleHash   *common.Hash      `json:"sha3Uncles"`
	Coinbase    *common.Address   `json:"miner"`
	Root        *common.Hash      `json:"stateRoot"`
	TxHash      *common.Hash      `json:"transactionsRoot"`
	ReceiptHash *common.Hash      `json:"receiptsRoot"`
	Bloom       *types.Bloom      `json:"logsBloom"`
	Difficulty  *hexutil.Big      `json:"difficulty"`
	Number      *hexutil.Big      `json:"number"`
	GasLimit    *hexutil.Uint64   `json:"gasLimit"`
	GasUsed     *hexutil.Uint64   `json:"gasUsed"`
	Time        *hexutil.Uint64   `json:"timestamp"`
	Extra       *hexutil.Bytes    `json:"extraData"`
	MixDigest   *common.Hash      `json:"mixHash"`
	Nonce       *types.BlockNonce `json:"nonce"`
	BaseFee     *hexutil.Big      `json:"baseFeePerGas"`

	L1BatchNumber    *hexutil.Big `json:"l1BatchNumber"`
	L1BatchTimestamp *hexutil.Big `json:"l1BatchTimestamp"`

	Hash *common.Hash `json:"hash"`
}

func (h *rpcHeader) toHeader() *Header {
	header := &types.Header{}

	if h.ParentHash != nil {
		header.ParentHash = *h.ParentHash
	}
	if h.UncleHash != nil {
		header.UncleHash = *h.UncleHash
	}
	if h.Coinbase != nil {
		header.Coinbase = *h.Coinbase
	}
	if h.Root != nil {
		header.Root = *h.Root
	}
	if h.TxHash != nil {
		header.TxHash = *h.TxHash
	}
	if h.ReceiptHash != nil {
		header.ReceiptHash = *h.ReceiptHash
	}
	if h.Bloom != nil {
		header.Bloom = *h.Bloom
	}
	if h.Difficulty != nil {
		header.Difficulty = (*big.Int)(h.Difficulty)
	}
	if h.Number != nil {
		header.Number = (*big.Int)(h.Number)
	}
	if h.GasLimit != nil {
		header.GasLimit = uint64(*h.GasLimit)
	}
	if h.GasUsed != nil {
		header.GasUsed = uint64(*h.GasUsed)
	}
	if h.Time != nil {
		header.Time = uint64(*h.Time)
	}
	if h.Extra != nil {
		header.Extra = *h.Extra
	}
	if h.MixDigest != nil {
		header.MixDigest = *h.MixDigest
	}
	if h.Nonce != nil {
		header.Nonce = *h.Nonce
	}
	if h.BaseFee != nil {
		header.BaseFee = (*big.Int)(h.BaseFee)
	}

	// The node hashes L2 blocks differently from Ethereum, so the reported hash is kept
	// rather than recomputed from the fields.
	out := &Header{Header: header}
	if h.Hash != nil {
		out.Hash = *h.Hash
	}
	out.L1BatchNumber = (*big.Int)(h.L1BatchNumber)
	out.L1BatchTimestamp = (*big.Int)(h.L1BatchTimestamp)
	return out
}

// Fee is the zks_estimateFee result.
type Fee struct {
	GasLimit             hexutil.Uint64 `json:"gas_limit"`
	GasPerPubdataLimit   *hexutil.Big   `json:"gas_per_pubdata_limit"`
	MaxFeePerGas         *hexutil.Big   `json:"max_fee_per_gas"`
	MaxPriorityFeePerGas *hexutil.Big   `json:"max_priority_fee_per_gas"`
}

// BridgeAddresses lists the bridge contracts known to the node. Any of them may be
// unset on a given chain.
type BridgeAddresses struct {
	L1SharedDefaultBridge *common.Address `json:"l1SharedDefaultBridge"`
	L2SharedDefaultBridge *common.Address `json:"l2SharedDefaultBridge"`
	L1Erc20DefaultBridge  *common.Address `json:"l1Erc20DefaultBridge"`
	L2Erc20DefaultBridge  *common.Address `json:"l2Erc20DefaultBridge"`
	L1WethBridge          *common.Address `json:"l1WethBridge"`
	L2WethBridge          *common.Address `json:"l2WethBridge"`
	L2LegacySharedBridge  *common.Address `json:"l2LegacySharedBridge"`
}

type BaseSystemContractsHashes struct {
	Bootloader  common.Hash  `json:"bootloader"`
	DefaultAA   common.Hash  `json:"default_aa"`
	EvmEmulator *common.Hash `json:"evm_emulator"`
}

// BlockStatus is the finality of a block or batch: "sealed" or "verified".
type BlockStatus string

const (
	BlockStatusSealed   BlockStatus = "sealed"
	BlockStatusVerified BlockStatus = "verified"
)

// BatchProgress holds the L1 commit, prove and execute stages of a block or batch.
type BatchProgress struct {
	RootHash      *common.Hash `json:"rootHash"`
	Status        BlockStatus  `json:"status"`
	CommitTxHash  *common.Hash `json:"commitTxHash"`
	CommittedAt   *time.Time   `json:"committedAt"`
	ProveTxHash   *common.Hash `json:"proveTxHash"`
	ProvenAt      *time.Time   `json:"provenAt"`
	ExecuteTxHash *common.Hash `json:"executeTxHash"`
	ExecutedAt    *time.Time   `json:"executedAt"`
}

// BlockDetails is the zks_getBlockDetails result.
type BlockDetails struct {
	Number          uint64         `json:"number"`
	L1BatchNumber   uint64         `json:"l1BatchNumber"`
	OperatorAddress common.Address `json:"operatorAddress"`
	ProtocolVersion *string        `json:"protocolVersion"`
	Timestamp       uint64         `json:"timestamp"`
	L1TxCount       uint64         `json:"l1TxCount"`
	L2TxCount       uint64         `json:"l2TxCount"`
	BatchProgress
	L1GasPrice                *hexutil.Big              `json:"l1GasPrice"`
	L2FairGasPrice            *hexutil.Big              `json:"l2FairGasPrice"`
	FairPubdataPrice          *hexutil.Big              `json:"fairPubdataPrice"`
	BaseSystemContractsHashes BaseSystemContractsHashes `json:"baseSystemContractsHashes"`
}

// L1BatchDetails is the zks_getL1BatchDetails result.
type L1BatchDetails struct {
	Number    uint64 `json:"number"`
	Timestamp uint64 `json:"timestamp"`
	L1TxCount uint64 `json:"l1TxCount"`
	L2TxCount uint64 `json:"l2TxCount"`
	BatchProgress
	L1GasPrice                *hexutil.Big              `json:"l1GasPrice"`
	L2FairGasPrice            *hexutil.Big              `json:"l2FairGasPrice"`
	FairPubdataPrice          *hexutil.Big              `json:"fairPubdataPrice"`
	BaseSystemContractsHashes BaseSystemContractsHashes `json:"baseSystemContractsHashes"`
}

// TransactionStatus is the L2 processing stage of a transaction.
type TransactionStatus string

const (
	TransactionStatusPending  TransactionStatus = "pending"
	TransactionStatusIncluded TransactionStatus = "included"
	TransactionStatusVerified TransactionStatus = "verified"
	TransactionStatusFailed   TransactionStatus = "failed"
)

// TransactionDetails is the zks_getTransactionDetails result.
type TransactionDetails struct {
	IsL1Originated   bool              `json:"isL1Originated"`
	Status           TransactionStatus `json:"status"`
	Fee              *hexutil.Big      `json:"fee"`
	GasPerPubdata    *hexutil.Big      `json:"gasPerPubdata"`
	InitiatorAddress common.Address    `json:"initiatorAddress"`
	ReceivedAt       string            `json:"receivedAt"`
	EthCommitTxHash  *common.Hash      `json:"ethCommitTxHash"`
	EthProveTxHash   *common.Hash      `json:"ethProveTxHash"`
	EthExecuteTxHash *common.Hash      `json:"ethExecuteTxHash"`
}

type FeeModelConfig struct {
	MinimalL2GasPrice   *hexutil.Big `json:"minimal_l2_gas_price"`
	ComputeOverheadPart float64      `json:"compute_overhead_part"`
	PubdataOverheadPart float64      `json:"pubdata_overhead_part"`
	BatchOverheadL1Gas  *hexutil.Big `json:"batch_overhead_l1_gas"`
	MaxGasPerBatch      *hexutil.Big `json:"max_gas_per_batch"`
	MaxPubdataPerBatch  *hexutil.Big `json:"max_pubdata_per_batch"`
}

type ConversionRatio struct {
	Numerator   uint64 `json:"numerator"`
	Denominator uint64 `json:"denominator"`
}

type FeeParamsV2 struct {
	Config          FeeModelConfig  `json:"config"`
	L1GasPrice      *hexutil.Big    `json:"l1_gas_price"`
	L1PubdataPrice  *hexutil.Big    `json:"l1_pubdata_price"`
	ConversionRatio ConversionRatio `json:"conversion_ratio"`
}

// FeeParams is the zks_getFeeParams result. The node tags the parameters with their
// fee model version; V2 is the only one in use.
type FeeParams struct {
	V2 *FeeParamsV2 `json:"V2,omitempty"`
}

type VerifierConfig struct {
	RecursionSchedulerLevelVkHash common.Hash `json:"recursion_scheduler_level_vk_hash"`
}

// ProtocolVersion is the zks_getProtocolVersion result.
type ProtocolVersion struct {
	MinorVersion          *uint16                    `json:"minorVersion"`
	Timestamp             uint64                     `json:"timestamp"`
	VerificationKeyHashes *VerifierConfig            `json:"verification_keys_hashes"`
	BaseSystemContracts   *BaseSystemContractsHashes `json:"base_system_contracts"`
	BootloaderCodeHash    *common.Hash               `json:"bootloaderCodeHash"`
	DefaultAccountHash    *common.Hash               `json:"defaultAccountCodeHash"`
	EvmEmulatorCodeHash   *common.Hash               `json:"evmSimulatorCodeHash"`
	L2SystemUpgradeTxHash *common.Hash               `json:"l2SystemUpgradeTxHash"`
}

type StorageProof struct {
	Key   common.Hash   `json:"key"`
	Proof []common.Hash `json:"proof"`
	Value common.Hash   `json:"value"`
	Index uint64        `json:"index"`
}

// Proof is the zks_getProof result.
type Proof struct {
	Address      common.Address `json:"address"`
	StorageProof []StorageProof `json:"storageProof"`
}

// L2ToL1LogProof is the Merkle proof of an L2 to L1 log or message within its batch.
type L2ToL1LogProof struct {
	Proof []common.Hash `json:"proof"`
	ID    uint32        `json:"id"`
	Root  common.Hash   `json:"root"`
}

// BlockRange is an inclusive range of L2 block numbers.
type BlockRange struct {
	From uint64
	To   uint64
}

func (r *BlockRange) UnmarshalJSON(input []byte) error {
	var pair [2]hexutil.Uint64
	if err := json.Unmarshal(input, &pair); err != nil {
		return err
	}
	r.From, r.To = uint64(pair[0]), uint64(pair[1])
	return nil
}

func (r BlockRange) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]hexutil.Uint64{hexutil.Uint64(r.From), hexutil.Uint64(r.To)})
}

// Execute is the call a raw block transaction performs.
type Execute struct {
	ContractAddress *common.Address `json:"contractAddress"`
	Calldata        hexutil.Bytes   `json:"calldata"`
	Value           *hexutil.Big    `json:"value"`
	FactoryDeps     []hexutil.Bytes `json:"factoryDeps"`
}

// RawBlockTransaction is a transaction in the node's native representation, as listed by
// zks_getRawBlockTransactions. CommonData is tagged by origin (L1, L2 or
// ProtocolUpgrade) and left undecoded.
type RawBlockTransaction struct {
	CommonData          json.RawMessage `json:"common_data"`
	Execute             Execute         `json:"execute"`
	ReceivedTimestampMs uint64          `json:"received_timestamp_ms"`
	RawBytes            *hexutil.Bytes  `json:"raw_bytes"`
}

// Origin returns the variant tag of CommonData, or "" if it is not a tagged object.
func (t *RawBlockTransaction) Origin() string {
	var tagged map[string]json.RawMessage
	if err := json.Unmarshal(t.CommonData, &tagged); err != nil || len(tagged) != 1 {
		return ""
	}
	for k := range tagged {
		return k
	}
	return ""
}
