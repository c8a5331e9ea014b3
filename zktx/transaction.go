// Package zktx implements the transaction formats of a zkSync Era style L2 network.
//
// The network accepts every Ethereum transaction type plus its own EIP-712 type (0x71),
// which carries an explicit sender, a gas-per-pubdata limit, factory dependencies and
// optional paymaster parameters. TxEip712 holds the unsigned fields of that type,
// SignedTx binds them to a signature, and TypedTransaction / TxEnvelope are the closed
// unions over the 0x71 type and the standard go-ethereum transaction.
package zktx

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/holiman/uint256"
)

var (
	ErrExpectedList         = errors.New("rlp: expected list")
	ErrTrailingBytes        = errors.New("rlp: trailing bytes after transaction")
	ErrInvalidSigParity     = errors.New("invalid signature parity")
	ErrInvalidSigLength     = errors.New("invalid signature length")
	ErrInvalidDestination   = errors.New("invalid destination length")
	ErrUnexpectedMetaFormat = errors.New("unexpected eip712 meta format")
)

// ListLengthMismatchError is returned when the fields of a transaction do not consume
// exactly the payload length declared by its list header.
type ListLengthMismatchError struct {
	Expected int
	Got      int
}

func (e *ListLengthMismatchError) Error() string {
	return fmt.Sprintf("rlp: list length mismatch: expected %d, got %d", e.Expected, e.Got)
}

// PaymasterParams names the account sponsoring a transaction's fees and the input it
// receives.
type PaymasterParams struct {
	Paymaster common.Address
	Input     []byte
}

// Meta holds the network-specific part of a 0x71 transaction. Factory dependencies are
// accepted as arbitrary bytes and validated only when their hashes are requested.
type Meta struct {
	GasPerPubdata   *uint256.Int
	FactoryDeps     [][]byte
	// CustomSignature is nil when absent. Once encoded, absent and empty are both the
	// empty string, which decodes to a non-nil empty slice; only encodings that stop
	// before the field decode to nil.
	CustomSignature []byte
	Paymaster       *PaymasterParams
}

// FactoryDepsHashes returns the bytecode hash of every factory dependency, in order.
func (m *Meta) FactoryDepsHashes() ([]common.Hash, error) {
	hashes := make([]common.Hash, 0, len(m.FactoryDeps))
	for i, dep := range m.FactoryDeps {
		h, err := HashBytecode(dep)
		if err != nil {
			return nil, fmt.Errorf("factory dependency %d: %w", i, err)
		}
		hashes = append(hashes, h)
	}
	return hashes, nil
}

func (m *Meta) copy() Meta {
	cpy := Meta{
		GasPerPubdata:   copyU256(m.GasPerPubdata),
		CustomSignature: common.CopyBytes(m.CustomSignature),
	}
	if m.FactoryDeps != nil {
		cpy.FactoryDeps = make([][]byte, len(m.FactoryDeps))
		for i, dep := range m.FactoryDeps {
			cpy.FactoryDeps[i] = common.CopyBytes(dep)
		}
	}
	if m.Paymaster != nil {
		cpy.Paymaster = &PaymasterParams{
			Paymaster: m.Paymaster.Paymaster,
			Input:     common.CopyBytes(m.Paymaster.Input),
		}
	}
	return cpy
}

// TxEip712 is the unsigned 0x71 transaction. Unlike EIP-1559 it has no access list and
// names its sender explicitly; the sender must match the signer for the network to
// accept it.
type TxEip712 struct {
	ChainID   uint64
	Nonce     *uint256.Int // only the low 64 bits are meaningful, see SignedTx.Nonce
	GasTipCap *uint256.Int
	GasFeeCap *uint256.Int
	Gas       uint64
	To        *common.Address // nil means contract creation
	From      common.Address
	Value     *uint256.Int
	Data      []byte
	Meta      Meta
}

// Copy returns a deep copy of tx.
func (tx *TxEip712) Copy() *TxEip712 {
	cpy := &TxEip712{
		ChainID:   tx.ChainID,
		Nonce:     copyU256(tx.Nonce),
		GasTipCap: copyU256(tx.GasTipCap),
		GasFeeCap: copyU256(tx.GasFeeCap),
		Gas:       tx.Gas,
		To:        copyAddressPtr(tx.To),
		From:      tx.From,
		Value:     copyU256(tx.Value),
		Data:      common.CopyBytes(tx.Data),
		Meta:      tx.Meta.copy(),
	}
	return cpy
}

// EffectiveGasPrice returns the price per gas paid under the given base fee. A nil base
// fee yields the fee cap.
func (tx *TxEip712) EffectiveGasPrice(baseFee *big.Int) *big.Int {
	feeCap := u256OrZero(tx.GasFeeCap).ToBig()
	if baseFee == nil {
		return feeCap
	}
	price := new(big.Int).Add(baseFee, u256OrZero(tx.GasTipCap).ToBig())
	if price.Cmp(feeCap) > 0 {
		return feeCap
	}
	return price
}

// MarshalBinary returns the typed encoding of tx with an empty signature, as used by
// accounts that authorize through the custom signature.
func (tx *TxEip712) MarshalBinary() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte(byte(Eip712TxType))
	if err := tx.encode(&buf, sigValues{}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// sigValues are the signature fields as they appear on the wire: v is the y parity.
type sigValues struct {
	V    uint64
	R, S uint256.Int
}

func (tx *TxEip712) encode(w io.Writer, sig sigValues) error {
	var customSig interface{} = []byte{}
	if tx.Meta.CustomSignature != nil {
		customSig = tx.Meta.CustomSignature
	}
	var paymaster interface{} = []byte{}
	if p := tx.Meta.Paymaster; p != nil {
		paymaster = []interface{}{p.Paymaster, bytesOrEmpty(p.Input)}
	}
	factoryDeps := tx.Meta.FactoryDeps
	if factoryDeps == nil {
		factoryDeps = [][]byte{}
	}

	return rlp.Encode(w, []interface{}{
		u256OrZero(tx.Nonce),
		u256OrZero(tx.GasTipCap),
		u256OrZero(tx.GasFeeCap),
		tx.Gas,
		destination(tx.To),
		u256OrZero(tx.Value),
		bytesOrEmpty(tx.Data),
		sig.V,
		&sig.R,
		&sig.S,
		tx.ChainID,
		tx.From,
		u256OrZero(tx.Meta.GasPerPubdata),
		factoryDeps,
		customSig,
		paymaster,
	})
}

// listReader walks the items of an RLP list payload one at a time.
type listReader struct {
	rest []byte
}

func (r *listReader) more() bool {
	return len(r.rest) > 0
}

func (r *listReader) kind() (rlp.Kind, error) {
	k, _, _, err := rlp.Split(r.rest)
	return k, err
}

func (r *listReader) decode(val interface{}) error {
	_, _, rest, err := rlp.Split(r.rest)
	if err != nil {
		return err
	}
	item := r.rest[:len(r.rest)-len(rest)]
	r.rest = rest
	return rlp.DecodeBytes(item, val)
}

// decodeEip712 decodes the list form of a signed 0x71 transaction. The input must not
// carry the type byte.
func decodeEip712(b []byte) (*TxEip712, sigValues, error) {
	var sig sigValues

	kind, content, rest, err := rlp.Split(b)
	if err != nil {
		return nil, sig, err
	}
	if kind != rlp.List {
		return nil, sig, ErrExpectedList
	}
	if len(rest) > 0 {
		return nil, sig, fmt.Errorf("%w: %d", ErrTrailingBytes, len(rest))
	}

	var (
		tx = &TxEip712{
			Nonce:     new(uint256.Int),
			GasTipCap: new(uint256.Int),
			GasFeeCap: new(uint256.Int),
			Value:     new(uint256.Int),
			Meta:      Meta{GasPerPubdata: new(uint256.Int)},
		}
		to []byte
		r  = &listReader{rest: content}
	)
	fields := []struct {
		name string
		val  interface{}
	}{
		{"nonce", tx.Nonce},
		{"maxPriorityFeePerGas", tx.GasTipCap},
		{"maxFeePerGas", tx.GasFeeCap},
		{"gasLimit", &tx.Gas},
		{"to", &to},
		{"value", tx.Value},
		{"input", &tx.Data},
		{"v", &sig.V},
		{"r", &sig.R},
		{"s", &sig.S},
		{"chainId", &tx.ChainID},
		{"from", &tx.From},
		{"gasPerPubdata", tx.Meta.GasPerPubdata},
		{"factoryDeps", &tx.Meta.FactoryDeps},
	}
	for _, f := range fields {
		if err := r.decode(f.val); err != nil {
			return nil, sig, fmt.Errorf("decode %s: %w", f.name, err)
		}
	}
	if sig.V > 1 {
		return nil, sig, fmt.Errorf("%w: %d", ErrInvalidSigParity, sig.V)
	}
	// Empty input and an empty dependency list decode to nil, as they are built.
	if len(tx.Data) == 0 {
		tx.Data = nil
	}
	if len(tx.Meta.FactoryDeps) == 0 {
		tx.Meta.FactoryDeps = nil
	}
	switch len(to) {
	case 0:
	case common.AddressLength:
		addr := common.BytesToAddress(to)
		tx.To = &addr
	default:
		return nil, sig, fmt.Errorf("%w: %d", ErrInvalidDestination, len(to))
	}

	// Older encodings stop before the optional trailing fields.
	if r.more() {
		if k, err := r.kind(); err != nil {
			return nil, sig, err
		} else if k != rlp.String {
			return nil, sig, fmt.Errorf("%w: custom signature is a list", ErrUnexpectedMetaFormat)
		}
		if err := r.decode(&tx.Meta.CustomSignature); err != nil {
			return nil, sig, fmt.Errorf("decode customSignature: %w", err)
		}
	}
	if r.more() {
		k, err := r.kind()
		if err != nil {
			return nil, sig, err
		}
		if k == rlp.List {
			var p struct {
				Paymaster common.Address
				Input     []byte
			}
			if err := r.decode(&p); err != nil {
				return nil, sig, fmt.Errorf("decode paymasterParams: %w", err)
			}
			tx.Meta.Paymaster = &PaymasterParams{Paymaster: p.Paymaster, Input: p.Input}
		} else {
			var empty []byte
			if err := r.decode(&empty); err != nil {
				return nil, sig, fmt.Errorf("decode paymasterParams: %w", err)
			}
			if len(empty) != 0 {
				return nil, sig, fmt.Errorf("%w: paymaster params is a non-empty string", ErrUnexpectedMetaFormat)
			}
		}
	}

	if r.more() {
		return nil, sig, &ListLengthMismatchError{
			Expected: len(content),
			Got:      len(content) - len(r.rest),
		}
	}
	return tx, sig, nil
}

func destination(to *common.Address) interface{} {
	if to == nil {
		return []byte{}
	}
	return *to
}

func bytesOrEmpty(b []byte) []byte {
	if b == nil {
		return []byte{}
	}
	return b
}

func u256OrZero(v *uint256.Int) *uint256.Int {
	if v == nil {
		return new(uint256.Int)
	}
	return v
}

func copyU256(v *uint256.Int) *uint256.Int {
	if v == nil {
		return nil
	}
	return new(uint256.Int).Set(v)
}

func copyAddressPtr(a *common.Address) *common.Address {
	if a == nil {
		return nil
	}
	cpy := *a
	return &cpy
}
