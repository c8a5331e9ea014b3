package zktx

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
)

const (
	eip712DomainName    = "zkSync"
	eip712DomainVersion = "2"
	eip712PrimaryType   = "Transaction"
)

var eip712Types = apitypes.Types{
	"EIP712Domain": {
		{Name: "name", Type: "string"},
		{Name: "version", Type: "string"},
		{Name: "chainId", Type: "uint256"},
	},
	eip712PrimaryType: {
		{Name: "txType", Type: "uint256"},
		{Name: "from", Type: "uint256"},
		{Name: "to", Type: "uint256"},
		{Name: "gasLimit", Type: "uint256"},
		{Name: "gasPerPubdataByteLimit", Type: "uint256"},
		{Name: "maxFeePerGas", Type: "uint256"},
		{Name: "maxPriorityFeePerGas", Type: "uint256"},
		{Name: "paymaster", Type: "uint256"},
		{Name: "nonce", Type: "uint256"},
		{Name: "value", Type: "uint256"},
		{Name: "data", Type: "bytes"},
		{Name: "factoryDeps", Type: "bytes32[]"},
		{Name: "paymasterInput", Type: "bytes"},
	},
}

// TypedData returns the EIP-712 structure that tx's signature commits to. Addresses are
// widened to uint256 and factory dependencies are replaced by their bytecode hashes.
func (tx *TxEip712) TypedData() (apitypes.TypedData, error) {
	deps, err := tx.Meta.FactoryDepsHashes()
	if err != nil {
		return apitypes.TypedData{}, err
	}
	depHashes := make([][]byte, len(deps))
	for i := range deps {
		depHashes[i] = deps[i].Bytes()
	}

	var (
		paymaster      common.Address
		paymasterInput = []byte{}
		to             common.Address
	)
	if p := tx.Meta.Paymaster; p != nil {
		paymaster = p.Paymaster
		paymasterInput = bytesOrEmpty(p.Input)
	}
	if tx.To != nil {
		to = *tx.To
	}

	return apitypes.TypedData{
		Types:       eip712Types,
		PrimaryType: eip712PrimaryType,
		Domain: apitypes.TypedDataDomain{
			Name:    eip712DomainName,
			Version: eip712DomainVersion,
			ChainId: (*math.HexOrDecimal256)(new(big.Int).SetUint64(tx.ChainID)),
		},
		Message: apitypes.TypedDataMessage{
			"txType":                 hexInt(big.NewInt(int64(Eip712TxType))),
			"from":                   addressToInt(tx.From),
			"to":                     addressToInt(to),
			"gasLimit":               hexInt(new(big.Int).SetUint64(tx.Gas)),
			"gasPerPubdataByteLimit": hexInt(u256OrZero(tx.Meta.GasPerPubdata).ToBig()),
			"maxFeePerGas":           hexInt(u256OrZero(tx.GasFeeCap).ToBig()),
			"maxPriorityFeePerGas":   hexInt(u256OrZero(tx.GasTipCap).ToBig()),
			"paymaster":              addressToInt(paymaster),
			"nonce":                  hexInt(u256OrZero(tx.Nonce).ToBig()),
			"value":                  hexInt(u256OrZero(tx.Value).ToBig()),
			"data":                   bytesOrEmpty(tx.Data),
			"factoryDeps":            depHashes,
			"paymasterInput":         paymasterInput,
		},
	}, nil
}

// SigningHash returns the domain-separated hash the sender signs:
// keccak256(0x19 0x01 || domainSeparator || hashStruct(tx)).
// It fails if a factory dependency is not valid bytecode.
func (tx *TxEip712) SigningHash() (common.Hash, error) {
	td, err := tx.TypedData()
	if err != nil {
		return common.Hash{}, err
	}
	hash, _, err := apitypes.TypedDataAndHash(td)
	if err != nil {
		return common.Hash{}, fmt.Errorf("eip712 hash: %w", err)
	}
	return common.BytesToHash(hash), nil
}

func addressToInt(addr common.Address) *math.HexOrDecimal256 {
	return hexInt(new(big.Int).SetBytes(addr.Bytes()))
}

func hexInt(v *big.Int) *math.HexOrDecimal256 {
	return (*math.HexOrDecimal256)(v)
}
