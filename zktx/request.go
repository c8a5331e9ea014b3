package zktx

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/hashicorp/go-multierror"
	"github.com/holiman/uint256"
)

var ErrMissingField = errors.New("missing transaction field")

// ByteArray is a byte string serialized as a JSON array of numbers, the form the node
// expects for factory dependencies and paymaster input. It decodes from either an array
// or a hex string.
type ByteArray []byte

func (b ByteArray) MarshalJSON() ([]byte, error) {
	nums := make([]uint16, len(b))
	for i, v := range b {
		nums[i] = uint16(v)
	}
	return json.Marshal(nums)
}

func (b *ByteArray) UnmarshalJSON(input []byte) error {
	if len(input) > 0 && input[0] == '"' {
		var h hexutil.Bytes
		if err := h.UnmarshalJSON(input); err != nil {
			return err
		}
		*b = ByteArray(h)
		return nil
	}
	var nums []uint16
	if err := json.Unmarshal(input, &nums); err != nil {
		return err
	}
	out := make([]byte, len(nums))
	for i, n := range nums {
		if n > 0xff {
			return fmt.Errorf("byte array element %d out of range: %d", i, n)
		}
		out[i] = byte(n)
	}
	*b = out
	return nil
}

type metaJSON struct {
	GasPerPubdata   *hexutil.U256        `json:"gasPerPubdata"`
	FactoryDeps     []ByteArray          `json:"factoryDeps"`
	CustomSignature *hexutil.Bytes       `json:"customSignature,omitempty"`
	PaymasterParams *paymasterParamsJSON `json:"paymasterParams,omitempty"`
}

type paymasterParamsJSON struct {
	Paymaster      common.Address `json:"paymaster"`
	PaymasterInput ByteArray      `json:"paymasterInput"`
}

func (m Meta) MarshalJSON() ([]byte, error) {
	enc := metaJSON{
		GasPerPubdata: (*hexutil.U256)(u256OrZero(m.GasPerPubdata)),
		FactoryDeps:   make([]ByteArray, len(m.FactoryDeps)),
	}
	for i, dep := range m.FactoryDeps {
		enc.FactoryDeps[i] = dep
	}
	if m.CustomSignature != nil {
		sig := hexutil.Bytes(m.CustomSignature)
		enc.CustomSignature = &sig
	}
	if p := m.Paymaster; p != nil {
		enc.PaymasterParams = &paymasterParamsJSON{Paymaster: p.Paymaster, PaymasterInput: bytesOrEmpty(p.Input)}
	}
	return json.Marshal(&enc)
}

func (m *Meta) UnmarshalJSON(input []byte) error {
	var dec metaJSON
	if err := json.Unmarshal(input, &dec); err != nil {
		return err
	}
	*m = Meta{GasPerPubdata: new(uint256.Int)}
	if dec.GasPerPubdata != nil {
		m.GasPerPubdata.Set((*uint256.Int)(dec.GasPerPubdata))
	}
	m.FactoryDeps = make([][]byte, len(dec.FactoryDeps))
	for i, dep := range dec.FactoryDeps {
		m.FactoryDeps[i] = dep
	}
	if dec.CustomSignature != nil {
		m.CustomSignature = *dec.CustomSignature
	}
	if p := dec.PaymasterParams; p != nil {
		m.Paymaster = &PaymasterParams{Paymaster: p.Paymaster, Input: bytesOrEmpty(p.PaymasterInput)}
	}
	return nil
}

// TransactionRequest is the JSON-RPC form of a transaction under construction. Setting
// Eip712Meta turns it into a 0x71 request. Fields are filled with the With* methods,
// which return modified copies and leave the receiver untouched.
type TransactionRequest struct {
	From                 *common.Address `json:"from,omitempty"`
	To                   *common.Address `json:"to,omitempty"`
	Gas                  *hexutil.Uint64 `json:"gas,omitempty"`
	GasPrice             *hexutil.Big    `json:"gasPrice,omitempty"`
	MaxFeePerGas         *hexutil.Big    `json:"maxFeePerGas,omitempty"`
	MaxPriorityFeePerGas *hexutil.Big    `json:"maxPriorityFeePerGas,omitempty"`
	Value                *hexutil.Big    `json:"value,omitempty"`
	Input                hexutil.Bytes   `json:"input"`
	Nonce                *hexutil.Uint64 `json:"nonce,omitempty"`
	ChainID              *hexutil.Uint64 `json:"chainId,omitempty"`
	Type                 *hexutil.Uint64 `json:"type,omitempty"`
	Eip712Meta           *Meta           `json:"eip712Meta,omitempty"`
}

func (r TransactionRequest) WithFrom(from common.Address) TransactionRequest {
	r.From = &from
	return r
}

func (r TransactionRequest) WithTo(to common.Address) TransactionRequest {
	r.To = &to
	return r
}

func (r TransactionRequest) WithGas(gas uint64) TransactionRequest {
	r.Gas = (*hexutil.Uint64)(&gas)
	return r
}

func (r TransactionRequest) WithGasPrice(price *big.Int) TransactionRequest {
	r.GasPrice = bigPtr(price)
	return r
}

func (r TransactionRequest) WithMaxFeePerGas(fee *big.Int) TransactionRequest {
	r.MaxFeePerGas = bigPtr(fee)
	return r
}

func (r TransactionRequest) WithMaxPriorityFeePerGas(fee *big.Int) TransactionRequest {
	r.MaxPriorityFeePerGas = bigPtr(fee)
	return r
}

func (r TransactionRequest) WithValue(value *big.Int) TransactionRequest {
	r.Value = bigPtr(value)
	return r
}

func (r TransactionRequest) WithInput(input []byte) TransactionRequest {
	r.Input = common.CopyBytes(input)
	return r
}

func (r TransactionRequest) WithNonce(nonce uint64) TransactionRequest {
	r.Nonce = (*hexutil.Uint64)(&nonce)
	return r
}

func (r TransactionRequest) WithChainID(id uint64) TransactionRequest {
	r.ChainID = (*hexutil.Uint64)(&id)
	return r
}

// WithMeta replaces the network metadata, making r a 0x71 request.
func (r TransactionRequest) WithMeta(meta Meta) TransactionRequest {
	cpy := meta.copy()
	r.Eip712Meta = &cpy
	return r
}

// WithGasPerPubdata sets the gas-per-pubdata limit, creating the metadata if needed.
func (r TransactionRequest) WithGasPerPubdata(limit *uint256.Int) TransactionRequest {
	meta := r.meta()
	meta.GasPerPubdata = copyU256(limit)
	r.Eip712Meta = &meta
	return r
}

// WithFactoryDeps sets the factory dependencies, creating the metadata if needed.
func (r TransactionRequest) WithFactoryDeps(deps [][]byte) TransactionRequest {
	meta := r.meta()
	meta.FactoryDeps = make([][]byte, len(deps))
	for i, dep := range deps {
		meta.FactoryDeps[i] = common.CopyBytes(dep)
	}
	r.Eip712Meta = &meta
	return r
}

// WithPaymaster sets the paymaster parameters, creating the metadata if needed.
func (r TransactionRequest) WithPaymaster(params PaymasterParams) TransactionRequest {
	meta := r.meta()
	meta.Paymaster = &PaymasterParams{Paymaster: params.Paymaster, Input: common.CopyBytes(params.Input)}
	r.Eip712Meta = &meta
	return r
}

// WithCustomSignature sets the custom signature, creating the metadata if needed.
func (r TransactionRequest) WithCustomSignature(sig []byte) TransactionRequest {
	meta := r.meta()
	meta.CustomSignature = common.CopyBytes(sig)
	r.Eip712Meta = &meta
	return r
}

func (r TransactionRequest) meta() Meta {
	if r.Eip712Meta == nil {
		return Meta{GasPerPubdata: new(uint256.Int)}
	}
	return r.Eip712Meta.copy()
}

// OutputType returns the type BuildUnsigned produces for r.
func (r TransactionRequest) OutputType() TxType {
	switch {
	case r.Eip712Meta != nil:
		return Eip712TxType
	case r.GasPrice != nil && r.MaxFeePerGas == nil:
		return LegacyTxType
	default:
		return DynamicFeeTxType
	}
}

// MissingFields lists the JSON names of the fields BuildUnsigned still needs.
func (r TransactionRequest) MissingFields() []string {
	var missing []string
	check := func(set bool, name string) {
		if !set {
			missing = append(missing, name)
		}
	}
	// Legacy transactions have no chain ID field.
	check(r.ChainID != nil || r.OutputType() == LegacyTxType, "chainId")
	check(r.Nonce != nil, "nonce")
	check(r.Gas != nil, "gas")
	switch r.OutputType() {
	case Eip712TxType:
		check(r.From != nil, "from")
		check(r.MaxFeePerGas != nil, "maxFeePerGas")
		check(r.MaxPriorityFeePerGas != nil, "maxPriorityFeePerGas")
	case LegacyTxType:
		check(r.GasPrice != nil, "gasPrice")
	default:
		check(r.MaxFeePerGas != nil, "maxFeePerGas")
		check(r.MaxPriorityFeePerGas != nil, "maxPriorityFeePerGas")
	}
	return missing
}

// BuildUnsigned builds the unsigned transaction described by r: a 0x71 transaction when
// metadata is present, a standard one otherwise. Every missing field is reported.
func (r TransactionRequest) BuildUnsigned() (TypedTransaction, error) {
	if missing := r.MissingFields(); len(missing) > 0 {
		var merr *multierror.Error
		for _, name := range missing {
			merr = multierror.Append(merr, fmt.Errorf("%w: %s", ErrMissingField, name))
		}
		return TypedTransaction{}, fmt.Errorf("build %v transaction: %w", r.OutputType(), merr)
	}

	value := new(big.Int)
	if r.Value != nil {
		value = r.Value.ToInt()
	}
	switch r.OutputType() {
	case Eip712TxType:
		tx := &TxEip712{
			ChainID: uint64(*r.ChainID),
			Nonce:   uint256.NewInt(uint64(*r.Nonce)),
			Gas:     uint64(*r.Gas),
			To:      copyAddressPtr(r.To),
			From:    *r.From,
			Data:    bytesOrEmpty(common.CopyBytes(r.Input)),
			Meta:    r.Eip712Meta.copy(),
		}
		var overflow bool
		for _, f := range []struct {
			name string
			dst  **uint256.Int
			src  *big.Int
		}{
			{"maxPriorityFeePerGas", &tx.GasTipCap, r.MaxPriorityFeePerGas.ToInt()},
			{"maxFeePerGas", &tx.GasFeeCap, r.MaxFeePerGas.ToInt()},
			{"value", &tx.Value, value},
		} {
			if f.src.Sign() < 0 {
				return TypedTransaction{}, fmt.Errorf("%s is negative", f.name)
			}
			if *f.dst, overflow = uint256.FromBig(f.src); overflow {
				return TypedTransaction{}, fmt.Errorf("%s exceeds 256 bits", f.name)
			}
		}
		if tx.Meta.GasPerPubdata == nil {
			tx.Meta.GasPerPubdata = new(uint256.Int)
		}
		return TypedTransaction{eip712: tx}, nil
	case LegacyTxType:
		return NewNativeTransaction(types.NewTx(&types.LegacyTx{
			Nonce:    uint64(*r.Nonce),
			GasPrice: new(big.Int).Set(r.GasPrice.ToInt()),
			Gas:      uint64(*r.Gas),
			To:       copyAddressPtr(r.To),
			Value:    value,
			Data:     common.CopyBytes(r.Input),
		})), nil
	default:
		return NewNativeTransaction(types.NewTx(&types.DynamicFeeTx{
			ChainID:   new(big.Int).SetUint64(uint64(*r.ChainID)),
			Nonce:     uint64(*r.Nonce),
			GasTipCap: new(big.Int).Set(r.MaxPriorityFeePerGas.ToInt()),
			GasFeeCap: new(big.Int).Set(r.MaxFeePerGas.ToInt()),
			Gas:       uint64(*r.Gas),
			To:        copyAddressPtr(r.To),
			Value:     value,
			Data:      common.CopyBytes(r.Input),
		})), nil
	}
}

// RequestFromTransaction converts an unsigned transaction back into request form,
// keeping its variant.
func RequestFromTransaction(tx TypedTransaction) TransactionRequest {
	var r TransactionRequest
	if chainID := tx.ChainID(); chainID != nil && chainID.IsUint64() {
		r = r.WithChainID(chainID.Uint64())
	}
	r = r.WithNonce(tx.Nonce()).
		WithGas(tx.Gas()).
		WithValue(tx.Value()).
		WithInput(tx.Data())
	if to := tx.To(); to != nil {
		r = r.WithTo(*to)
	}
	if from, ok := tx.From(); ok {
		r = r.WithFrom(from)
	}
	switch {
	case tx.eip712 != nil:
		r = r.WithMaxFeePerGas(tx.GasFeeCap()).
			WithMaxPriorityFeePerGas(tx.GasTipCap()).
			WithMeta(tx.eip712.Meta)
	case tx.native != nil && tx.Type() == LegacyTxType:
		r = r.WithGasPrice(tx.native.GasPrice())
	default:
		r = r.WithMaxFeePerGas(tx.GasFeeCap()).
			WithMaxPriorityFeePerGas(tx.GasTipCap())
	}
	typ := uint64(tx.Type())
	r.Type = (*hexutil.Uint64)(&typ)
	return r
}

func bigPtr(v *big.Int) *hexutil.Big {
	if v == nil {
		return nil
	}
	return (*hexutil.Big)(new(big.Int).Set(v))
}
