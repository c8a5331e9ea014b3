package zktx

import (
	"fmt"

	"github.com/ethereum/go-ethereum/core/types"
)

// TxType is a transaction type accepted by the L2 network: every Ethereum type plus the
// network's own EIP-712 type.
type TxType uint8

const (
	LegacyTxType     TxType = types.LegacyTxType
	AccessListTxType TxType = types.AccessListTxType
	DynamicFeeTxType TxType = types.DynamicFeeTxType
	BlobTxType       TxType = types.BlobTxType
	SetCodeTxType    TxType = types.SetCodeTxType
	Eip712TxType     TxType = 0x71
)

// ParseTxType maps a type byte to a known transaction type.
func ParseTxType(b byte) (TxType, error) {
	switch t := TxType(b); t {
	case LegacyTxType, AccessListTxType, DynamicFeeTxType, BlobTxType, SetCodeTxType, Eip712TxType:
		return t, nil
	default:
		return 0, fmt.Errorf("%w: 0x%02x", types.ErrTxTypeNotSupported, b)
	}
}

// IsEthereum reports whether t is one of the standard Ethereum types.
func (t TxType) IsEthereum() bool {
	return t <= SetCodeTxType
}

func (t TxType) String() string {
	switch t {
	case LegacyTxType:
		return "Legacy"
	case AccessListTxType:
		return "EIP-2930"
	case DynamicFeeTxType:
		return "EIP-1559"
	case BlobTxType:
		return "EIP-4844"
	case SetCodeTxType:
		return "EIP-7702"
	case Eip712TxType:
		return "Era EIP-712"
	default:
		return fmt.Sprintf("Unknown(0x%02x)", uint8(t))
	}
}
