package zkbridge

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// l1ToL2AliasOffset is added to the address of an L1 contract to obtain the sender the L2
// sees for its messages.
var l1ToL2AliasOffset = new(uint256.Int).SetBytes20(common.FromHex("0x1111000000000000000000000000000000001111"))

// ApplyL1ToL2Alias returns the L2 alias of an L1 contract address: the address plus the
// alias offset, modulo 2^160.
func ApplyL1ToL2Alias(l1 common.Address) common.Address {
	n := new(uint256.Int).SetBytes20(l1.Bytes())
	n.Add(n, l1ToL2AliasOffset)
	return common.Address(n.Bytes20())
}

// UndoL1ToL2Alias reverses ApplyL1ToL2Alias.
func UndoL1ToL2Alias(l2 common.Address) common.Address {
	n := new(uint256.Int).SetBytes20(l2.Bytes())
	n.Sub(n, l1ToL2AliasOffset)
	return common.Address(n.Bytes20())
}
