package zktx

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/hashicorp/go-multierror"
)

var (
	ErrEmptyTransaction = errors.New("empty transaction")
	ErrNoKnownVariant   = errors.New("transaction did not match any known variant")
	ErrNoVariant        = errors.New("transaction has no variant set")
)

// TypedTransaction is an unsigned transaction of one of the two kinds the network accepts:
// a standard go-ethereum transaction or a 0x71 transaction. The zero value holds neither
// and is only useful as a placeholder.
type TypedTransaction struct {
	native *types.Transaction
	eip712 *TxEip712
}

// NewNativeTransaction wraps a standard transaction.
func NewNativeTransaction(tx *types.Transaction) TypedTransaction {
	return TypedTransaction{native: tx}
}

// NewEip712Transaction wraps a 0x71 transaction. tx is copied.
func NewEip712Transaction(tx *TxEip712) TypedTransaction {
	return TypedTransaction{eip712: tx.Copy()}
}

// Type returns the transaction type of the active variant.
func (t TypedTransaction) Type() TxType {
	if t.eip712 != nil {
		return Eip712TxType
	}
	if t.native != nil {
		return TxType(t.native.Type())
	}
	return LegacyTxType
}

// Native returns the standard transaction, if that variant is active.
func (t TypedTransaction) Native() (*types.Transaction, bool) {
	return t.native, t.native != nil
}

// Eip712 returns a copy of the 0x71 transaction, if that variant is active.
func (t TypedTransaction) Eip712() (*TxEip712, bool) {
	if t.eip712 == nil {
		return nil, false
	}
	return t.eip712.Copy(), true
}

// ChainID returns the chain ID, or nil for a legacy transaction, which only carries one
// once signed.
func (t TypedTransaction) ChainID() *big.Int {
	switch {
	case t.eip712 != nil:
		return new(big.Int).SetUint64(t.eip712.ChainID)
	case t.native != nil && t.native.Type() == types.LegacyTxType:
		return nil
	case t.native != nil:
		return t.native.ChainId()
	}
	return nil
}

// Nonce returns the nonce. A 0x71 nonce is reduced modulo 2^64.
func (t TypedTransaction) Nonce() uint64 {
	switch {
	case t.eip712 != nil:
		return u256OrZero(t.eip712.Nonce).Uint64()
	case t.native != nil:
		return t.native.Nonce()
	}
	return 0
}

func (t TypedTransaction) Gas() uint64 {
	switch {
	case t.eip712 != nil:
		return t.eip712.Gas
	case t.native != nil:
		return t.native.Gas()
	}
	return 0
}

func (t TypedTransaction) GasFeeCap() *big.Int {
	switch {
	case t.eip712 != nil:
		return u256OrZero(t.eip712.GasFeeCap).ToBig()
	case t.native != nil:
		return t.native.GasFeeCap()
	}
	return nil
}

func (t TypedTransaction) GasTipCap() *big.Int {
	switch {
	case t.eip712 != nil:
		return u256OrZero(t.eip712.GasTipCap).ToBig()
	case t.native != nil:
		return t.native.GasTipCap()
	}
	return nil
}

func (t TypedTransaction) Value() *big.Int {
	switch {
	case t.eip712 != nil:
		return u256OrZero(t.eip712.Value).ToBig()
	case t.native != nil:
		return t.native.Value()
	}
	return nil
}

func (t TypedTransaction) Data() []byte {
	switch {
	case t.eip712 != nil:
		return common.CopyBytes(t.eip712.Data)
	case t.native != nil:
		return t.native.Data()
	}
	return nil
}

func (t TypedTransaction) To() *common.Address {
	switch {
	case t.eip712 != nil:
		return copyAddressPtr(t.eip712.To)
	case t.native != nil:
		return t.native.To()
	}
	return nil
}

// From returns the explicit sender. Standard transactions carry none before signing.
func (t TypedTransaction) From() (common.Address, bool) {
	if t.eip712 != nil {
		return t.eip712.From, true
	}
	return common.Address{}, false
}

// TxEnvelope is a signed transaction of either kind, ready for submission.
type TxEnvelope struct {
	native *types.Transaction
	eip712 *SignedTx
}

// NewNativeEnvelope wraps a signed standard transaction.
func NewNativeEnvelope(tx *types.Transaction) *TxEnvelope {
	return &TxEnvelope{native: tx}
}

// NewEip712Envelope wraps a signed 0x71 transaction.
func NewEip712Envelope(tx *SignedTx) *TxEnvelope {
	return &TxEnvelope{eip712: tx}
}

// DecodeTxEnvelope decodes the EIP-2718 encoding of a signed transaction. A leading type
// byte selects the decoder. An untyped list is tried as a legacy transaction first and
// then as a 0x71 list without its type byte.
func DecodeTxEnvelope(b []byte) (*TxEnvelope, error) {
	if len(b) == 0 {
		return nil, ErrEmptyTransaction
	}
	if b[0] > 0x7f {
		return decodeUntyped(b)
	}
	typ, err := ParseTxType(b[0])
	if err != nil {
		return nil, err
	}
	if typ == Eip712TxType {
		signed, err := DecodeSignedTx(b[1:])
		if err != nil {
			return nil, fmt.Errorf("decode %v transaction: %w", typ, err)
		}
		return NewEip712Envelope(signed), nil
	}
	native := new(types.Transaction)
	if err := native.UnmarshalBinary(b); err != nil {
		return nil, fmt.Errorf("decode %v transaction: %w", typ, err)
	}
	return NewNativeEnvelope(native), nil
}

func decodeUntyped(b []byte) (*TxEnvelope, error) {
	var merr *multierror.Error

	native := new(types.Transaction)
	err := native.UnmarshalBinary(b)
	if err == nil {
		return NewNativeEnvelope(native), nil
	}
	merr = multierror.Append(merr, fmt.Errorf("native: %w", err))

	signed, err := DecodeSignedTx(b)
	if err == nil {
		return NewEip712Envelope(signed), nil
	}
	merr = multierror.Append(merr, fmt.Errorf("eip712: %w", err))

	return nil, fmt.Errorf("%w: %w", ErrNoKnownVariant, merr.ErrorOrNil())
}

// MarshalBinary returns the EIP-2718 encoding of the envelope.
func (e *TxEnvelope) MarshalBinary() ([]byte, error) {
	switch {
	case e.eip712 != nil:
		return e.eip712.MarshalBinary()
	case e.native != nil:
		return e.native.MarshalBinary()
	}
	return nil, ErrNoVariant
}

func (e *TxEnvelope) Type() TxType {
	if e.eip712 != nil {
		return Eip712TxType
	}
	if e.native != nil {
		return TxType(e.native.Type())
	}
	return LegacyTxType
}

func (e *TxEnvelope) Hash() common.Hash {
	switch {
	case e.eip712 != nil:
		return e.eip712.Hash()
	case e.native != nil:
		return e.native.Hash()
	}
	return common.Hash{}
}

// Native returns the standard transaction, if that variant is active.
func (e *TxEnvelope) Native() (*types.Transaction, bool) {
	return e.native, e.native != nil
}

// Eip712 returns the signed 0x71 transaction, if that variant is active.
func (e *TxEnvelope) Eip712() (*SignedTx, bool) {
	return e.eip712, e.eip712 != nil
}

// Unsigned returns the transaction without the envelope, keeping the active variant. The
// native variant keeps its signature values, go-ethereum has no unsigned form for them.
func (e *TxEnvelope) Unsigned() TypedTransaction {
	switch {
	case e.eip712 != nil:
		return TypedTransaction{eip712: e.eip712.Tx()}
	case e.native != nil:
		return TypedTransaction{native: e.native}
	}
	return TypedTransaction{}
}

// Sender returns the explicit sender of a 0x71 transaction, or recovers the signer of a
// standard one.
func (e *TxEnvelope) Sender() (common.Address, error) {
	switch {
	case e.eip712 != nil:
		return e.eip712.From(), nil
	case e.native != nil:
		return types.Sender(types.LatestSignerForChainID(e.native.ChainId()), e.native)
	}
	return common.Address{}, ErrNoVariant
}
