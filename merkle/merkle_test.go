package merkle

import (
	"errors"
	"testing"

	"pgregory.net/rapid"

	"github.com/larskuhtz/zk-light-clients/crypto"
)

func makeLeaves(n int) [][32]byte {
	leaves := make([][32]byte, n)
	for i := range leaves {
		leaves[i] = crypto.SHA256([]byte{byte(i), byte(i >> 8)})
	}
	return leaves
}

func TestTreeProofs(t *testing.T) {
	leaves := makeLeaves(8)
	tree := NewTree(SHA256, leaves)
	if tree.Depth() != 3 {
		t.Fatalf("depth = %d, want 3", tree.Depth())
	}
	for i, leaf := range leaves {
		siblings, ok := tree.Proof(uint64(i))
		if !ok {
			t.Fatalf("no proof for leaf %d", i)
		}
		if err := VerifyBranch(SHA256, leaf, siblings, 3, IndexPath(i), tree.Root()); err != nil {
			t.Fatalf("leaf %d: %v", i, err)
		}
	}
	if _, ok := tree.Proof(8); ok {
		t.Fatal("proof returned for out-of-range index")
	}
}

func TestTreePadding(t *testing.T) {
	leaves := makeLeaves(5)
	padded := append(makeLeaves(5), [32]byte{}, [32]byte{}, [32]byte{})
	if ComputeRoot(SHA256, leaves) != ComputeRoot(SHA256, padded) {
		t.Fatal("implicit zero padding differs from explicit padding")
	}
	if ComputeRoot(SHA256, nil) != ([32]byte{}) {
		t.Fatal("empty tree root should be the zero leaf")
	}
}

func TestLogRoot(t *testing.T) {
	l := makeLeaves(5)
	h := SHA256
	if LogRoot(h, nil) != ([32]byte{}) {
		t.Fatal("empty log root should be zero")
	}
	if LogRoot(h, l[:1]) != l[0] {
		t.Fatal("single node log root should be the node")
	}
	if got, want := LogRoot(h, l[:3]), h(h(l[0], l[1]), l[2]); got != want {
		t.Fatalf("3 nodes: %x, want %x", got, want)
	}
	if got, want := LogRoot(h, l[:4]), ComputeRoot(h, l[:4]); got != want {
		t.Fatalf("4 nodes: %x, want %x", got, want)
	}
	if got, want := LogRoot(h, l), h(ComputeRoot(h, l[:4]), l[4]); got != want {
		t.Fatalf("5 nodes: %x, want %x", got, want)
	}
}

func TestVerifyBranchErrors(t *testing.T) {
	leaves := makeLeaves(4)
	tree := NewTree(SHA256, leaves)
	siblings, _ := tree.Proof(2)

	if err := VerifyBranch(SHA256, leaves[2], siblings[:1], 2, IndexPath(2), tree.Root()); !errors.Is(err, ErrBranchDepth) {
		t.Fatalf("truncated branch: err = %v, want ErrBranchDepth", err)
	}
	if err := VerifyBranch(SHA256, leaves[1], siblings, 2, IndexPath(2), tree.Root()); !errors.Is(err, ErrRootMismatch) {
		t.Fatalf("wrong leaf: err = %v, want ErrRootMismatch", err)
	}
	if err := VerifyBranch(SHA256, leaves[2], siblings, 2, IndexPath(3), tree.Root()); !errors.Is(err, ErrRootMismatch) {
		t.Fatalf("wrong index: err = %v, want ErrRootMismatch", err)
	}

	b := Branch{Leaf: leaves[2], Siblings: siblings, Index: 2, Root: tree.Root()}
	if err := b.Verify(SHA256); err != nil {
		t.Fatalf("Branch.Verify: %v", err)
	}
}

func TestKeyPathDirections(t *testing.T) {
	var key KeyPath
	key[0] = 0b1010_0000
	// With depth 3 the leaf level reads bit 2, the top level bit 0.
	want := []bool{true, false, true}
	for level, w := range want {
		if got := key.IsRight(level, 3); got != w {
			t.Errorf("level %d: IsRight = %v, want %v", level, got, w)
		}
	}
}

func TestVerifyTooManySiblings(t *testing.T) {
	siblings := make([][32]byte, MaxSiblings+1)
	if Verify(SHA256, [32]byte{1}, siblings, IndexPath(0), [32]byte{}) {
		t.Fatal("oversized proof verified")
	}
}

func TestInclusionProperties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		depth := rapid.IntRange(1, 8).Draw(t, "depth")
		leaves := makeLeaves(1 << depth)
		index := rapid.IntRange(0, len(leaves)-1).Draw(t, "index")
		tree := NewTree(SHA256, leaves)
		siblings, _ := tree.Proof(uint64(index))
		root := tree.Root()

		if !Verify(SHA256, leaves[index], siblings, IndexPath(index), root) {
			t.Fatalf("valid proof rejected")
		}

		// Flipping any single bit in a sibling breaks the proof.
		s := rapid.IntRange(0, len(siblings)-1).Draw(t, "sibling")
		bit := rapid.IntRange(0, 255).Draw(t, "bit")
		tampered := append([][32]byte(nil), siblings...)
		tampered[s][bit/8] ^= 1 << (bit % 8)
		if Verify(SHA256, leaves[index], tampered, IndexPath(index), root) {
			t.Fatalf("tampered sibling %d bit %d verified", s, bit)
		}

		// Flipping a bit of the leaf breaks the proof.
		leaf := leaves[index]
		leaf[bit/8] ^= 1 << (bit % 8)
		if Verify(SHA256, leaf, siblings, IndexPath(index), root) {
			t.Fatalf("tampered leaf verified")
		}

		// Truncation never verifies.
		if err := VerifyBranch(SHA256, leaves[index], siblings[:len(siblings)-1], depth, IndexPath(index), root); err == nil {
			t.Fatalf("truncated proof verified")
		}
		if Verify(SHA256, leaves[index], siblings[:len(siblings)-1], IndexPath(index), root) {
			t.Fatalf("truncated proof verified without depth check")
		}
	})
}
