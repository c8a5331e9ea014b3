package zktx

import (
	"bytes"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashBytecode(t *testing.T) {
	tests := []struct {
		name     string
		bytecode []byte
		want     string
	}{
		{
			name:     "one word",
			bytecode: bytes.Repeat([]byte{0x0a}, 32),
			want:     "0x01000001e7718454476f04edeb935022ae4f4d90934ab7ce913ff20c8baeb399",
		},
		{
			name:     "three words",
			bytecode: bytes.Repeat([]byte{0x14}, 96),
			want:     "0x01000003c743f1d99f4d7dc11f5d9630e32ff5a212c5aaf64c7ac815193463d4",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := HashBytecode(tt.bytecode)
			require.NoError(t, err)
			assert.Equal(t, common.HexToHash(tt.want), got)

			again, err := HashBytecode(tt.bytecode)
			require.NoError(t, err)
			assert.Equal(t, got, again)
		})
	}
}

func TestHashBytecodeInvalid(t *testing.T) {
	tests := []struct {
		name     string
		bytecode []byte
		wantErr  error
	}{
		{"empty", nil, ErrBytecodeEvenWords},
		{"single byte", []byte{0x01}, ErrBytecodeNotAligned},
		{"partial word", make([]byte, 33), ErrBytecodeNotAligned},
		{"two words", make([]byte, 64), ErrBytecodeEvenWords},
		{"too long", make([]byte, 32*(maxBytecodeLengthWord+2)), ErrBytecodeLengthExceedsLimit},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := HashBytecode(tt.bytecode)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestHashBytecodeLayout(t *testing.T) {
	h, err := HashBytecode(make([]byte, 32*5))
	require.NoError(t, err)
	assert.Equal(t, []byte{0x01, 0x00, 0x00, 0x05}, h[:4])
}
