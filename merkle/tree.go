package merkle

// Tree is a complete binary Merkle tree over a power-of-two number of
// leaves, padded with zero hashes. It builds proofs consumed by Verify.
type Tree struct {
	levels [][][32]byte // levels[0] = leaves, last = root
}

// NewTree builds a tree over leaves. An empty leaf set yields a single zero
// leaf.
func NewTree(h Hasher, leaves [][32]byte) *Tree {
	n := 1
	for n < len(leaves) {
		n <<= 1
	}
	layer := make([][32]byte, n)
	copy(layer, leaves)

	levels := [][][32]byte{layer}
	for len(layer) > 1 {
		next := make([][32]byte, len(layer)/2)
		for i := range next {
			next[i] = h(layer[2*i], layer[2*i+1])
		}
		levels = append(levels, next)
		layer = next
	}
	return &Tree{levels: levels}
}

// Root returns the tree root.
func (t *Tree) Root() [32]byte {
	return t.levels[len(t.levels)-1][0]
}

// Depth returns the number of levels above the leaves.
func (t *Tree) Depth() int {
	return len(t.levels) - 1
}

// Proof returns the leaf-to-root sibling path for the leaf at index.
func (t *Tree) Proof(index uint64) ([][32]byte, bool) {
	if index >= uint64(len(t.levels[0])) {
		return nil, false
	}
	siblings := make([][32]byte, 0, t.Depth())
	i := index
	for d := 0; d < t.Depth(); d++ {
		siblings = append(siblings, t.levels[d][i^1])
		i >>= 1
	}
	return siblings, true
}

// ComputeRoot is shorthand for NewTree(h, leaves).Root().
func ComputeRoot(h Hasher, leaves [][32]byte) [32]byte {
	return NewTree(h, leaves).Root()
}

// LogRoot returns the root of an unpadded Merkle log over nodes. The left
// subtree always holds the largest power of two strictly below the node
// count, so appending nodes never changes the shape of earlier subtrees.
// An empty log yields the zero hash.
func LogRoot(h Hasher, nodes [][32]byte) [32]byte {
	switch len(nodes) {
	case 0:
		return [32]byte{}
	case 1:
		return nodes[0]
	}
	k := 1
	for k*2 < len(nodes) {
		k *= 2
	}
	return h(LogRoot(h, nodes[:k]), LogRoot(h, nodes[k:]))
}
