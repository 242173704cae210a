package ssz

import (
	"testing"

	"github.com/larskuhtz/zk-light-clients/merkle"
)

func TestMerkleizeEmpty(t *testing.T) {
	if got := Merkleize(nil, 0); got != ([32]byte{}) {
		t.Fatalf("empty root = %x", got)
	}
	if got := Merkleize(nil, 8); got != ZeroHash(3) {
		t.Fatalf("empty root with limit 8 = %x, want %x", got, ZeroHash(3))
	}
}

func TestMerkleizeMatchesPaddedTree(t *testing.T) {
	chunks := [][32]byte{{1}, {2}, {3}}
	want := merkle.ComputeRoot(merkle.SHA256, [][32]byte{{1}, {2}, {3}, {}})
	if got := Merkleize(chunks, 0); got != want {
		t.Fatalf("root = %x, want %x", got, want)
	}
	padded := merkle.SHA256(want, ZeroHash(2))
	if got := Merkleize(chunks, 8); got != padded {
		t.Fatalf("root with limit 8 = %x, want %x", got, padded)
	}
}

func TestPack(t *testing.T) {
	chunks := Pack(make([]byte, 33))
	if len(chunks) != 2 {
		t.Fatalf("chunks = %d, want 2", len(chunks))
	}
	if len(Pack(nil)) != 1 {
		t.Fatal("empty input should pack to one zero chunk")
	}
}

func TestHashTreeRootByteVector(t *testing.T) {
	var pk [48]byte
	pk[0], pk[47] = 0xaa, 0xbb
	var lo, hi [32]byte
	copy(lo[:], pk[:32])
	copy(hi[:], pk[32:])
	if got := HashTreeRootByteVector(pk[:]); got != merkle.SHA256(lo, hi) {
		t.Fatalf("root = %x", got)
	}
	var root [32]byte
	root[5] = 1
	if got := HashTreeRootByteVector(root[:]); got != root {
		t.Fatal("32-byte vector should be its own root")
	}
}

func TestHashTreeRootByteList(t *testing.T) {
	empty := HashTreeRootByteList(nil, 32)
	if want := MixInLength([32]byte{}, 0); empty != want {
		t.Fatalf("empty list root = %x, want %x", empty, want)
	}
	data := []byte{1, 2, 3}
	var chunk [32]byte
	copy(chunk[:], data)
	if got := HashTreeRootByteList(data, 32); got != MixInLength(chunk, 3) {
		t.Fatalf("root = %x", got)
	}
}

func TestHashTreeRootUint64(t *testing.T) {
	got := HashTreeRootUint64(0x0102)
	if got[0] != 0x02 || got[1] != 0x01 || got[2] != 0 {
		t.Fatalf("root = %x", got)
	}
}
