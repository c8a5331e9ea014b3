package ethclient

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"gozksync/zktx"
)

// MainContract returns the address of the chain's diamond proxy on L1.
func (c *Client) MainContract(ctx context.Context) (common.Address, error) {
	var result common.Address
	err := c.c.CallContext(ctx, &result, "zks_getMainContract")
	return result, err
}

// TestnetPaymaster returns the testnet paymaster address, or nil if the chain has none.
func (c *Client) TestnetPaymaster(ctx context.Context) (*common.Address, error) {
	var result *common.Address
	err := c.c.CallContext(ctx, &result, "zks_getTestnetPaymaster")
	return result, err
}

// L1ChainID returns the chain ID of the settlement layer.
func (c *Client) L1ChainID(ctx context.Context) (*big.Int, error) {
	var result hexutil.Big
	if err := c.c.CallContext(ctx, &result, "zks_L1ChainId"); err != nil {
		return nil, err
	}
	return (*big.Int)(&result), nil
}

// L1BatchNumber returns the latest L1 batch number.
func (c *Client) L1BatchNumber(ctx context.Context) (uint64, error) {
	var result hexutil.Uint64
	err := c.c.CallContext(ctx, &result, "zks_L1BatchNumber")
	return uint64(result), err
}

// EstimateFee estimates the gas limit, fee caps and gas per pubdata for req.
func (c *Client) EstimateFee(ctx context.Context, req zktx.TransactionRequest) (*Fee, error) {
	var result Fee
	if err := c.c.CallContext(ctx, &result, "zks_estimateFee", req); err != nil {
		return nil, err
	}
	return &result, nil
}

// EstimateGasL1ToL2 estimates the L2 gas limit of a priority transaction described by req.
func (c *Client) EstimateGasL1ToL2(ctx context.Context, req zktx.TransactionRequest) (*big.Int, error) {
	var result hexutil.Big
	if err := c.c.CallContext(ctx, &result, "zks_estimateGasL1ToL2", req); err != nil {
		return nil, err
	}
	return (*big.Int)(&result), nil
}

// BridgehubContract returns the L1 Bridgehub address, or nil if the node does not report one.
func (c *Client) BridgehubContract(ctx context.Context) (*common.Address, error) {
	var result *common.Address
	err := c.c.CallContext(ctx, &result, "zks_getBridgehubContract")
	return result, err
}

// BridgeContracts returns the default bridge addresses of the chain.
func (c *Client) BridgeContracts(ctx context.Context) (*BridgeAddresses, error) {
	var result BridgeAddresses
	if err := c.c.CallContext(ctx, &result, "zks_getBridgeContracts"); err != nil {
		return nil, err
	}
	return &result, nil
}

// BaseTokenL1Address returns the L1 address of the chain's base token.
func (c *Client) BaseTokenL1Address(ctx context.Context) (common.Address, error) {
	var result common.Address
	err := c.c.CallContext(ctx, &result, "zks_getBaseTokenL1Address")
	return result, err
}

// AllAccountBalances returns every token balance of account, keyed by token address.
func (c *Client) AllAccountBalances(ctx context.Context, account common.Address) (map[common.Address]*big.Int, error) {
	var result map[common.Address]*hexutil.Big
	if err := c.c.CallContext(ctx, &result, "zks_getAllAccountBalances", account); err != nil {
		return nil, err
	}
	balances := make(map[common.Address]*big.Int, len(result))
	for token, balance := range result {
		balances[token] = (*big.Int)(balance)
	}
	return balances, nil
}

// L2ToL1MsgProof returns the proof of a message sent to L1 from block by sender. msg is
// the keccak256 hash of the message. logPosition selects the L1 messenger event within
// the block; nil selects the first message.
func (c *Client) L2ToL1MsgProof(ctx context.Context, block uint64, sender common.Address, msg common.Hash, logPosition *uint64) (*L2ToL1LogProof, error) {
	var result *L2ToL1LogProof
	err := c.c.CallContext(ctx, &result, "zks_getL2ToL1MsgProof", block, sender, msg, logPosition)
	return notFoundIfNil(result, err)
}

// L2ToL1LogProof returns the proof of an L2 to L1 log produced by txHash. index selects
// the log within the transaction; nil selects the first one.
func (c *Client) L2ToL1LogProof(ctx context.Context, txHash common.Hash, index *uint64) (*L2ToL1LogProof, error) {
	var result *L2ToL1LogProof
	err := c.c.CallContext(ctx, &result, "zks_getL2ToL1LogProof", txHash, index)
	return notFoundIfNil(result, err)
}

func (c *Client) BlockDetails(ctx context.Context, block uint64) (*BlockDetails, error) {
	var result *BlockDetails
	err := c.c.CallContext(ctx, &result, "zks_getBlockDetails", block)
	return notFoundIfNil(result, err)
}

func (c *Client) TransactionDetails(ctx context.Context, txHash common.Hash) (*TransactionDetails, error) {
	var result *TransactionDetails
	err := c.c.CallContext(ctx, &result, "zks_getTransactionDetails", txHash)
	return notFoundIfNil(result, err)
}

// RawBlockTransactions lists the transactions of block in the node's native encoding.
func (c *Client) RawBlockTransactions(ctx context.Context, block uint64) ([]RawBlockTransaction, error) {
	var result []RawBlockTransaction
	err := c.c.CallContext(ctx, &result, "zks_getRawBlockTransactions", block)
	return result, err
}

func (c *Client) L1BatchDetails(ctx context.Context, batch uint64) (*L1BatchDetails, error) {
	var result *L1BatchDetails
	err := c.c.CallContext(ctx, &result, "zks_getL1BatchDetails", batch)
	return notFoundIfNil(result, err)
}

// BytecodeByHash returns the bytecode with the given versioned bytecode hash.
func (c *Client) BytecodeByHash(ctx context.Context, hash common.Hash) ([]byte, error) {
	var result *hexutil.Bytes
	if err := c.c.CallContext(ctx, &result, "zks_getBytecodeByHash", hash); err != nil {
		return nil, err
	}
	if result == nil {
		return nil, ethereum.NotFound
	}
	return *result, nil
}

// L1BatchBlockRange returns the first and last L2 block of batch.
func (c *Client) L1BatchBlockRange(ctx context.Context, batch uint64) (*BlockRange, error) {
	var result *BlockRange
	err := c.c.CallContext(ctx, &result, "zks_getL1BatchBlockRange", batch)
	return notFoundIfNil(result, err)
}

func (c *Client) L1GasPrice(ctx context.Context) (*big.Int, error) {
	var result hexutil.Big
	if err := c.c.CallContext(ctx, &result, "zks_getL1GasPrice"); err != nil {
		return nil, err
	}
	return (*big.Int)(&result), nil
}

func (c *Client) FeeParams(ctx context.Context) (*FeeParams, error) {
	var result FeeParams
	if err := c.c.CallContext(ctx, &result, "zks_getFeeParams"); err != nil {
		return nil, err
	}
	return &result, nil
}

// ProtocolVersion returns the given protocol version, or the current one if id is nil.
func (c *Client) ProtocolVersion(ctx context.Context, id *uint16) (*ProtocolVersion, error) {
	var result *ProtocolVersion
	err := c.c.CallContext(ctx, &result, "zks_getProtocolVersion", id)
	return notFoundIfNil(result, err)
}

// Proof returns Merkle proofs for the storage keys of account as of batch.
func (c *Client) Proof(ctx context.Context, account common.Address, keys []common.Hash, batch uint64) (*Proof, error) {
	if keys == nil {
		keys = []common.Hash{}
	}
	var result *Proof
	err := c.c.CallContext(ctx, &result, "zks_getProof", account, keys, batch)
	return notFoundIfNil(result, err)
}

func notFoundIfNil[T any](result *T, err error) (*T, error) {
	if err != nil {
		return nil, err
	}
	if result == nil {
		return nil, ethereum.NotFound
	}
	return result, nil
}
