package zktx

import (
	"bytes"
	"fmt"
	"io"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
	"golang.org/x/crypto/sha3"
)

// SignedTx is a 0x71 transaction bound to its signature. It is immutable once built.
type SignedTx struct {
	tx   TxEip712
	sig  sigValues
	hash common.Hash
}

// WithSignature binds tx to a 65-byte [R || S || V] signature over its SigningHash.
// V may be given as the parity (0, 1) or in the legacy form (27, 28).
func (tx *TxEip712) WithSignature(sig []byte) (*SignedTx, error) {
	if len(sig) != crypto.SignatureLength {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSigLength, len(sig))
	}
	v := uint64(sig[crypto.RecoveryIDOffset])
	if v >= 27 {
		v -= 27
	}
	if v > 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSigParity, sig[crypto.RecoveryIDOffset])
	}
	values := sigValues{V: v}
	values.R.SetBytes(sig[:32])
	values.S.SetBytes(sig[32:64])
	return newSignedTx(tx.Copy(), values)
}

func newSignedTx(tx *TxEip712, sig sigValues) (*SignedTx, error) {
	signed := &SignedTx{tx: *tx, sig: sig}
	sigHash, err := tx.SigningHash()
	if err != nil {
		return nil, err
	}
	signed.hash = rlpHash(sigHash, signed.hashedSignature())
	return signed, nil
}

// hashedSignature is the signature committed to by the transaction hash: the custom
// signature when one is set, the ECDSA signature otherwise.
func (tx *SignedTx) hashedSignature() []byte {
	if len(tx.tx.Meta.CustomSignature) > 0 {
		return tx.tx.Meta.CustomSignature
	}
	sig := tx.Signature()
	sig[crypto.RecoveryIDOffset] += 27
	return sig
}

// rlpHash is keccak256(signingHash || keccak256(signature)).
func rlpHash(signingHash common.Hash, sig []byte) (h common.Hash) {
	inner := sha3.NewLegacyKeccak256()
	inner.Write(sig)

	outer := sha3.NewLegacyKeccak256()
	outer.Write(signingHash.Bytes())
	outer.Write(inner.Sum(nil))
	outer.Sum(h[:0])
	return h
}

// DecodeSignedTx decodes a signed 0x71 transaction from its RLP list, without the type
// byte. The hash is computed here, so a factory dependency that is not a valid bytecode
// fails the decode rather than a later FactoryDepsHashes call.
func DecodeSignedTx(b []byte) (*SignedTx, error) {
	tx, sig, err := decodeEip712(b)
	if err != nil {
		return nil, err
	}
	return newSignedTx(tx, sig)
}

// EncodeRLP implements rlp.Encoder. It writes the list form without the type byte.
func (tx *SignedTx) EncodeRLP(w io.Writer) error {
	return tx.tx.encode(w, tx.sig)
}

// MarshalBinary returns the EIP-2718 encoding: 0x71 followed by the RLP list.
func (tx *SignedTx) MarshalBinary() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte(byte(Eip712TxType))
	if err := tx.EncodeRLP(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Tx returns a copy of the unsigned transaction.
func (tx *SignedTx) Tx() *TxEip712 { return tx.tx.Copy() }

// Hash returns the transaction hash.
func (tx *SignedTx) Hash() common.Hash { return tx.hash }

// Signature returns the signature as [R || S || V] with V in {0, 1}.
func (tx *SignedTx) Signature() []byte {
	sig := make([]byte, crypto.SignatureLength)
	tx.sig.R.WriteToSlice(sig[:32])
	tx.sig.S.WriteToSlice(sig[32:64])
	sig[crypto.RecoveryIDOffset] = byte(tx.sig.V)
	return sig
}

// RawSignatureValues returns the V, R, S signature values of the transaction.
func (tx *SignedTx) RawSignatureValues() (v, r, s *big.Int) {
	return new(big.Int).SetUint64(tx.sig.V), tx.sig.R.ToBig(), tx.sig.S.ToBig()
}

// Sender recovers the address that produced the signature.
func (tx *SignedTx) Sender() (common.Address, error) {
	sigHash, err := tx.tx.SigningHash()
	if err != nil {
		return common.Address{}, err
	}
	pub, err := crypto.SigToPub(sigHash.Bytes(), tx.Signature())
	if err != nil {
		return common.Address{}, err
	}
	return crypto.PubkeyToAddress(*pub), nil
}

// Nonce returns the nonce reduced modulo 2^64.
func (tx *SignedTx) Nonce() uint64 { return u256OrZero(tx.tx.Nonce).Uint64() }

func (tx *SignedTx) ChainID() *big.Int { return new(big.Int).SetUint64(tx.tx.ChainID) }
func (tx *SignedTx) Gas() uint64 { return tx.tx.Gas }
func (tx *SignedTx) GasFeeCap() *big.Int { return u256OrZero(tx.tx.GasFeeCap).ToBig() }
func (tx *SignedTx) GasTipCap() *big.Int { return u256OrZero(tx.tx.GasTipCap).ToBig() }
func (tx *SignedTx) Value() *big.Int { return u256OrZero(tx.tx.Value).ToBig() }
func (tx *SignedTx) Data() []byte { return common.CopyBytes(tx.tx.Data) }
func (tx *SignedTx) From() common.Address { return tx.tx.From }
func (tx *SignedTx) To() *common.Address { return copyAddressPtr(tx.tx.To) }
func (tx *SignedTx) GasPerPubdata() *uint256.Int {
	return copyU256(u256OrZero(tx.tx.Meta.GasPerPubdata))
}
