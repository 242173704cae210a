// Package aptos verifies Aptos sparse Merkle proofs of account state
// against a state root.
package aptos

import (
	"github.com/larskuhtz/zk-light-clients/crypto"
)

// HashLen is the length of an Aptos HashValue.
const HashLen = 32

// PlaceholderHash stands in for an empty subtree.
var PlaceholderHash = [HashLen]byte([]byte("SPARSE_MERKLE_PLACEHOLDER_HASH__"))

// Every hashed type is domain separated by a salt derived from its name.
var (
	leafSalt     = crypto.SHA3_256([]byte("APTOS::SparseMerkleLeafNode"))
	internalSalt = crypto.SHA3_256([]byte("APTOS::SparseMerkleInternal"))
)

// HashLeaf returns the hash of a leaf node holding valueHash under key.
func HashLeaf(key, valueHash [HashLen]byte) [HashLen]byte {
	return crypto.SHA3_256(leafSalt[:], key[:], valueHash[:])
}

// HashInternal is the sparse Merkle tree node hasher.
func HashInternal(left, right [HashLen]byte) [HashLen]byte {
	return crypto.SHA3_256(internalSalt[:], left[:], right[:])
}
