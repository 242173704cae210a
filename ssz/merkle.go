package ssz

import (
	"encoding/binary"

	"github.com/larskuhtz/zk-light-clients/merkle"
)

// BytesPerChunk is the number of bytes in each leaf chunk for Merkleization.
const BytesPerChunk = 32

var zeroHashes = func() [65][32]byte {
	var z [65][32]byte
	for i := 1; i < len(z); i++ {
		z[i] = merkle.SHA256(z[i-1], z[i-1])
	}
	return z
}()

// ZeroHash returns the root of an empty subtree of the given depth.
func ZeroHash(depth int) [32]byte {
	return zeroHashes[depth]
}

func nextPowerOfTwo(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

// Pack packs serialized basic values into 32-byte chunks, right-padding the
// last chunk with zeros.
func Pack(serialized []byte) [][32]byte {
	if len(serialized) == 0 {
		return [][32]byte{{}}
	}
	chunks := make([][32]byte, (len(serialized)+BytesPerChunk-1)/BytesPerChunk)
	for i := range chunks {
		copy(chunks[i][:], serialized[i*BytesPerChunk:])
	}
	return chunks
}

// Merkleize computes the root of chunks padded with zero chunks up to limit
// (rounded to a power of two). A zero limit pads to the chunk count.
// Padding beyond the supplied chunks is taken from the zero hash cache, so
// large limits do not allocate full layers.
func Merkleize(chunks [][32]byte, limit int) [32]byte {
	if limit < len(chunks) {
		limit = len(chunks)
	}
	limit = nextPowerOfTwo(limit)
	depth := 0
	for 1<<depth < limit {
		depth++
	}
	if len(chunks) == 0 {
		return zeroHashes[depth]
	}
	layer := make([][32]byte, len(chunks))
	copy(layer, chunks)
	for d := 0; d < depth; d++ {
		if len(layer)%2 == 1 {
			layer = append(layer, zeroHashes[d])
		}
		next := make([][32]byte, len(layer)/2)
		for i := range next {
			next[i] = merkle.SHA256(layer[2*i], layer[2*i+1])
		}
		layer = next
	}
	return layer[0]
}

// MixInLength mixes a root with a list length.
func MixInLength(root [32]byte, length uint64) [32]byte {
	var chunk [32]byte
	binary.LittleEndian.PutUint64(chunk[:8], length)
	return merkle.SHA256(root, chunk)
}

// HashTreeRootUint64 computes the hash tree root of a uint64.
func HashTreeRootUint64(v uint64) [32]byte {
	var chunk [32]byte
	binary.LittleEndian.PutUint64(chunk[:8], v)
	return chunk
}

// HashTreeRootByteVector computes the hash tree root of a fixed byte vector
// such as a 48-byte public key or a 96-byte signature. Vectors of at most 32
// bytes are their own single chunk.
func HashTreeRootByteVector(b []byte) [32]byte {
	return Merkleize(Pack(b), 0)
}

// HashTreeRootByteList computes the hash tree root of a byte list with the
// given maximum length.
func HashTreeRootByteList(data []byte, maxLen int) [32]byte {
	limit := (maxLen + BytesPerChunk - 1) / BytesPerChunk
	var chunks [][32]byte
	if len(data) > 0 {
		chunks = Pack(data)
	}
	return MixInLength(Merkleize(chunks, limit), uint64(len(data)))
}

// HashTreeRootVector computes the root of a vector of composite elements.
func HashTreeRootVector(elementRoots [][32]byte) [32]byte {
	return Merkleize(elementRoots, 0)
}

// HashTreeRootContainer computes the root of a container from its field roots.
func HashTreeRootContainer(fieldRoots [][32]byte) [32]byte {
	return Merkleize(fieldRoots, 0)
}
