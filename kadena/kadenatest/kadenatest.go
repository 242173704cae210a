// Package kadenatest builds mined Chainweb layer windows for tests.
package kadenatest

import (
	"encoding/binary"

	"github.com/holiman/uint256"

	"github.com/larskuhtz/zk-light-clients/crypto"
	"github.com/larskuhtz/zk-light-clients/kadena"
)

// Version is the chainweb version of generated headers.
const Version uint32 = 5

// Chains is the generated graph: four chains, each adjacent to the other
// three.
var Chains = []uint32{0, 1, 2, 3}

// Target returns 2^256-1 shifted right by bits, little endian. Mining a
// header against it takes about 2^bits attempts.
func Target(bits uint) kadena.Hash {
	v := new(uint256.Int).SetAllOne()
	v.Rsh(v, bits)
	be := v.Bytes32()
	var t kadena.Hash
	for i := range be {
		t[i] = be[len(be)-1-i]
	}
	return t
}

// DefaultTarget keeps mining cheap.
var DefaultTarget = Target(2)

// Mine searches nonces from the current one until the header meets its
// target, then sets the declared hash.
func Mine(h *kadena.ChainHeader) {
	for h.VerifyPoW() != nil {
		h.Nonce++
	}
	h.Hash = h.ComputeHash()
}

func seedHash(tag string, chain uint32) kadena.Hash {
	var c [4]byte
	binary.LittleEndian.PutUint32(c[:], chain)
	return crypto.SHA512_256([]byte(tag), c[:])
}

func adjacents(chain uint32, hash func(uint32) kadena.Hash) []kadena.Adjacent {
	var out []kadena.Adjacent
	for _, c := range Chains {
		if c != chain {
			out = append(out, kadena.Adjacent{ChainID: c, Hash: hash(c)})
		}
	}
	return out
}

// NewLayer mines one layer on top of prev. A nil prev starts from
// deterministic genesis parents.
func NewLayer(prev *kadena.LayerHeader, height uint64, target kadena.Hash) *kadena.LayerHeader {
	parent := func(c uint32) kadena.Hash { return seedHash("parent", c) }
	if prev != nil {
		parent = func(c uint32) kadena.Hash { return prev.Chain(c).Hash }
	}
	headers := make([]*kadena.ChainHeader, 0, len(Chains))
	for _, c := range Chains {
		h := &kadena.ChainHeader{
			Time:        1_700_000_000_000_000 + height*30_000_000,
			Parent:      parent(c),
			Adjacents:   adjacents(c, parent),
			Target:      target,
			PayloadHash: seedHash("payload", c),
			ChainID:     c,
			Height:      height,
			Version:     Version,
			EpochStart:  1_700_000_000_000_000,
		}
		Mine(h)
		headers = append(headers, h)
	}
	return kadena.NewLayerHeader(height, headers)
}

// NewWindow mines n linked layers starting at height start.
func NewWindow(n int, start uint64) []*kadena.LayerHeader {
	return NewWindowWithTarget(n, start, DefaultTarget)
}

// NewWindowWithTarget is NewWindow with an explicit target for every header.
func NewWindowWithTarget(n int, start uint64, target kadena.Hash) []*kadena.LayerHeader {
	layers := make([]*kadena.LayerHeader, 0, n)
	var prev *kadena.LayerHeader
	for i := 0; i < n; i++ {
		prev = NewLayer(prev, start+uint64(i), target)
		layers = append(layers, prev)
	}
	return layers
}
