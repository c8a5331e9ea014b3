// Package zkwallet holds the signing credentials used for L2 transactions and for the L1
// transactions of a deposit.
package zkwallet

import (
	"bytes"
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"sort"
	"strings"
	"sync"

	opcrypto "github.com/ethereum-optimism/optimism/op-service/crypto"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"

	"gozksync/zktx"
)

var (
	ErrMissingCredential = errors.New("missing signing credential")
	ErrNoDefaultSigner   = errors.New("wallet has no default signer")
)

// Signer produces secp256k1 signatures for a single account.
type Signer interface {
	Address() common.Address
	// SignHash returns the 65-byte [R || S || V] signature of hash with V in {0, 1}.
	SignHash(ctx context.Context, hash common.Hash) ([]byte, error)
}

// PrivateKeySigner signs with an in-memory private key.
type PrivateKeySigner struct {
	key  *ecdsa.PrivateKey
	addr common.Address
}

func NewPrivateKeySigner(key *ecdsa.PrivateKey) *PrivateKeySigner {
	return &PrivateKeySigner{key: key, addr: crypto.PubkeyToAddress(key.PublicKey)}
}

// PrivateKeySignerFromHex parses a hex private key, with or without the 0x prefix.
func PrivateKeySignerFromHex(hexKey string) (*PrivateKeySigner, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(hexKey, "0x"))
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}
	return NewPrivateKeySigner(key), nil
}

func (s *PrivateKeySigner) Address() common.Address {
	return s.addr
}

func (s *PrivateKeySigner) SignHash(_ context.Context, hash common.Hash) ([]byte, error) {
	return crypto.Sign(hash.Bytes(), s.key)
}

// Wallet is a set of signers keyed by address, one of which is the default. It is safe
// for concurrent use.
type Wallet struct {
	mu      sync.RWMutex
	def     common.Address
	hasDef  bool
	signers map[common.Address]Signer
}

// New returns a wallet with signer as its default.
func New(signer Signer) *Wallet {
	w := &Wallet{signers: make(map[common.Address]Signer)}
	w.RegisterDefaultSigner(signer)
	return w
}

// RegisterSigner adds signer, replacing any signer for the same address.
func (w *Wallet) RegisterSigner(signer Signer) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.signers == nil {
		w.signers = make(map[common.Address]Signer)
	}
	w.signers[signer.Address()] = signer
}

// RegisterDefaultSigner adds signer and makes it the default.
func (w *Wallet) RegisterDefaultSigner(signer Signer) {
	w.RegisterSigner(signer)
	w.mu.Lock()
	w.def, w.hasDef = signer.Address(), true
	w.mu.Unlock()
}

// DefaultSignerAddress returns the address of the default signer, or the zero address if
// none was registered.
func (w *Wallet) DefaultSignerAddress() common.Address {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.def
}

func (w *Wallet) HasSignerFor(addr common.Address) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	_, ok := w.signers[addr]
	return ok
}

// SignerAddresses returns the addresses of all signers in ascending byte order.
func (w *Wallet) SignerAddresses() []common.Address {
	w.mu.RLock()
	addrs := make([]common.Address, 0, len(w.signers))
	for addr := range w.signers {
		addrs = append(addrs, addr)
	}
	w.mu.RUnlock()

	sort.Slice(addrs, func(i, j int) bool {
		return bytes.Compare(addrs[i][:], addrs[j][:]) < 0
	})
	return addrs
}

// DefaultSigner returns the default signer.
func (w *Wallet) DefaultSigner() (Signer, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if !w.hasDef {
		return nil, ErrNoDefaultSigner
	}
	return w.signers[w.def], nil
}

func (w *Wallet) signerFor(addr common.Address) (Signer, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	s, ok := w.signers[addr]
	if !ok {
		return nil, fmt.Errorf("%w for %s", ErrMissingCredential, addr)
	}
	return s, nil
}

// SignTransaction signs tx with the signer registered for from. A 0x71 transaction is
// signed over its EIP-712 signing hash; a native one with the latest go-ethereum signer
// for its chain ID.
func (w *Wallet) SignTransaction(ctx context.Context, from common.Address, tx zktx.TypedTransaction) (*zktx.TxEnvelope, error) {
	signer, err := w.signerFor(from)
	if err != nil {
		return nil, err
	}

	if eip712, ok := tx.Eip712(); ok {
		hash, err := eip712.SigningHash()
		if err != nil {
			return nil, fmt.Errorf("compute signing hash: %w", err)
		}
		sig, err := signer.SignHash(ctx, hash)
		if err != nil {
			return nil, fmt.Errorf("sign transaction: %w", err)
		}
		signed, err := eip712.WithSignature(sig)
		if err != nil {
			return nil, err
		}
		return zktx.NewEip712Envelope(signed), nil
	}

	native, ok := tx.Native()
	if !ok {
		return nil, zktx.ErrNoVariant
	}
	signed, err := signNative(ctx, signer, tx.ChainID(), native)
	if err != nil {
		return nil, err
	}
	return zktx.NewNativeEnvelope(signed), nil
}

func signNative(ctx context.Context, signer Signer, chainID *big.Int, tx *types.Transaction) (*types.Transaction, error) {
	txSigner := types.LatestSignerForChainID(chainID)
	sig, err := signer.SignHash(ctx, txSigner.Hash(tx))
	if err != nil {
		return nil, fmt.Errorf("sign transaction: %w", err)
	}
	signed, err := tx.WithSignature(txSigner, sig)
	if err != nil {
		return nil, fmt.Errorf("sign transaction: %w", err)
	}
	return signed, nil
}

// SignerFn returns an op-service SignerFn that signs L1 transactions for chainID with
// any signer held by the wallet.
func (w *Wallet) SignerFn(chainID *big.Int) opcrypto.SignerFn {
	return func(ctx context.Context, addr common.Address, tx *types.Transaction) (*types.Transaction, error) {
		signer, err := w.signerFor(addr)
		if err != nil {
			return nil, err
		}
		return signNative(ctx, signer, chainID, tx)
	}
}
