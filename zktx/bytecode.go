package zktx

import (
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/ethereum/go-ethereum/common"
)

const (
	bytecodeWordSize      = 32
	bytecodeHashVersion   = 0x0100
	maxBytecodeLengthWord = math.MaxUint16
)

var (
	ErrBytecodeNotAligned         = errors.New("bytecode cannot be split into 32-byte words")
	ErrBytecodeLengthExceedsLimit = errors.New("bytecode length exceeds limit")
	ErrBytecodeEvenWords          = errors.New("bytecode must have odd number of words")
)

// HashBytecode returns the versioned hash under which the network stores deployed
// bytecode: 0x0100, the big-endian word count, then the last 28 bytes of its SHA-256.
func HashBytecode(bytecode []byte) (common.Hash, error) {
	if len(bytecode)%bytecodeWordSize != 0 {
		return common.Hash{}, ErrBytecodeNotAligned
	}
	words := len(bytecode) / bytecodeWordSize
	if words > maxBytecodeLengthWord {
		return common.Hash{}, fmt.Errorf("%w: %d words, the maximum is %d", ErrBytecodeLengthExceedsLimit, words, maxBytecodeLengthWord)
	}
	if words%2 == 0 {
		return common.Hash{}, ErrBytecodeEvenWords
	}

	digest := sha256.Sum256(bytecode)

	var h common.Hash
	binary.BigEndian.PutUint16(h[0:2], bytecodeHashVersion)
	binary.BigEndian.PutUint16(h[2:4], uint16(words))
	copy(h[4:], digest[4:])
	return h, nil
}
