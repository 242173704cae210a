// Package aptostest builds in-memory Aptos sparse Merkle trees for tests.
package aptostest

import (
	"encoding/binary"

	"github.com/larskuhtz/zk-light-clients/aptos"
	"github.com/larskuhtz/zk-light-clients/crypto"
)

// Tree is a sparse Merkle tree in which each leaf sits at the shallowest
// depth that separates it from every other key.
type Tree struct {
	leaves []aptos.LeafNode
}

// NewTree returns a tree over leaves. Keys must be distinct.
func NewTree(leaves []aptos.LeafNode) *Tree {
	return &Tree{leaves: append([]aptos.LeafNode(nil), leaves...)}
}

// Leaves derives n leaves deterministically from seed.
func Leaves(n int, seed uint64) []aptos.LeafNode {
	out := make([]aptos.LeafNode, n)
	for i := range out {
		var buf [16]byte
		binary.LittleEndian.PutUint64(buf[:8], seed)
		binary.LittleEndian.PutUint64(buf[8:], uint64(i))
		out[i].Key = crypto.SHA3_256([]byte("aptostest key"), buf[:])
		out[i].ValueHash = crypto.SHA3_256([]byte("aptostest value"), buf[:])
	}
	return out
}

func bit(key [aptos.HashLen]byte, depth int) bool {
	return key[depth/8]&(0x80>>(uint(depth)%8)) != 0
}

func split(leaves []aptos.LeafNode, depth int) (left, right []aptos.LeafNode) {
	for _, l := range leaves {
		if bit(l.Key, depth) {
			right = append(right, l)
		} else {
			left = append(left, l)
		}
	}
	return left, right
}

func subtreeHash(leaves []aptos.LeafNode, depth int) [aptos.HashLen]byte {
	switch len(leaves) {
	case 0:
		return aptos.PlaceholderHash
	case 1:
		return leaves[0].Hash()
	}
	left, right := split(leaves, depth)
	return aptos.HashInternal(subtreeHash(left, depth+1), subtreeHash(right, depth+1))
}

// Root returns the root hash.
func (t *Tree) Root() [aptos.HashLen]byte {
	return subtreeHash(t.leaves, 0)
}

// Prove returns the proof for key, which is an inclusion proof when key is
// in the tree and an exclusion proof otherwise.
func (t *Tree) Prove(key [aptos.HashLen]byte) *aptos.SparseMerkleProof {
	var siblings [][aptos.HashLen]byte
	leaves := t.leaves
	for depth := 0; len(leaves) > 1; depth++ {
		left, right := split(leaves, depth)
		if bit(key, depth) {
			siblings = append(siblings, subtreeHash(left, depth+1))
			leaves = right
		} else {
			siblings = append(siblings, subtreeHash(right, depth+1))
			leaves = left
		}
	}
	proof := new(aptos.SparseMerkleProof)
	if len(leaves) == 1 {
		leaf := leaves[0]
		proof.Leaf = &leaf
	}
	for i := len(siblings) - 1; i >= 0; i-- {
		proof.Siblings = append(proof.Siblings, siblings[i])
	}
	return proof
}
