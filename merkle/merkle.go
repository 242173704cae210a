// Package merkle verifies binary Merkle inclusion proofs independent of the
// chain that produced them. A proof is a leaf hash, an ordered list of
// sibling hashes from the leaf level up to the root, and a Path that decides
// on which side the running hash sits at each level.
package merkle

import (
	"crypto/subtle"
	"errors"
	"fmt"

	"github.com/larskuhtz/zk-light-clients/crypto"
)

// MaxSiblings bounds the length of any proof: a tree keyed by 256-bit
// values has at most 256 levels.
const MaxSiblings = 256

// Verification errors. ErrBranchDepth marks a malformed proof,
// ErrRootMismatch a well-formed proof that does not establish inclusion.
var (
	ErrBranchDepth  = errors.New("merkle: invalid branch depth")
	ErrRootMismatch = errors.New("merkle: computed root does not match")
)

// Hasher combines two child nodes into their parent.
type Hasher func(left, right [32]byte) [32]byte

// SHA256 is the SSZ node hasher: sha256(left || right).
func SHA256(left, right [32]byte) [32]byte {
	return crypto.SHA256(left[:], right[:])
}

// Path reports, for a proof of the given depth, whether the running hash
// is the right child at level (0 is the leaf level).
type Path interface {
	IsRight(level, depth int) bool
}

// IndexPath takes directions from the bits of a leaf index, least
// significant bit first. Fixed-depth trees (SSZ) use it.
type IndexPath uint64

// IsRight implements Path.
func (p IndexPath) IsRight(level, _ int) bool {
	return (uint64(p)>>uint(level))&1 == 1
}

// KeyPath takes directions from a 256-bit key read most significant bit
// first from the root, so the leaf level uses bit depth-1. Sparse trees
// (Aptos) use it.
type KeyPath [32]byte

// IsRight implements Path.
func (p KeyPath) IsRight(level, depth int) bool {
	bit := depth - 1 - level
	return p[bit/8]&(0x80>>(uint(bit)%8)) != 0
}

// Root folds the siblings over leaf and returns the resulting root. It
// performs exactly len(siblings) hash operations regardless of the path.
func Root(h Hasher, leaf [32]byte, siblings [][32]byte, path Path) [32]byte {
	depth := len(siblings)
	node := leaf
	for level, sibling := range siblings {
		if path.IsRight(level, depth) {
			node = h(sibling, node)
		} else {
			node = h(node, sibling)
		}
	}
	return node
}

// Verify reports whether folding siblings over leaf reproduces root.
func Verify(h Hasher, leaf [32]byte, siblings [][32]byte, path Path, root [32]byte) bool {
	if len(siblings) > MaxSiblings {
		return false
	}
	computed := Root(h, leaf, siblings, path)
	return subtle.ConstantTimeCompare(computed[:], root[:]) == 1
}

// VerifyBranch checks a fixed-depth branch: siblings must have exactly
// depth entries, and the folded root must equal root.
func VerifyBranch(h Hasher, leaf [32]byte, siblings [][32]byte, depth int, path Path, root [32]byte) error {
	if depth <= 0 || depth > MaxSiblings || len(siblings) != depth {
		return fmt.Errorf("%w: have %d siblings, want %d", ErrBranchDepth, len(siblings), depth)
	}
	if !Verify(h, leaf, siblings, path, root) {
		return ErrRootMismatch
	}
	return nil
}

// Branch is a self-contained fixed-depth inclusion proof.
type Branch struct {
	Leaf     [32]byte
	Siblings [][32]byte
	Index    uint64
	Root     [32]byte
}

// Verify checks b with the given hasher, using its sibling count as depth.
func (b *Branch) Verify(h Hasher) error {
	return VerifyBranch(h, b.Leaf, b.Siblings, len(b.Siblings), IndexPath(b.Index), b.Root)
}
