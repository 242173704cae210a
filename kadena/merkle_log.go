package kadena

import (
	"encoding/binary"

	"github.com/larskuhtz/zk-light-clients/crypto"
	"github.com/larskuhtz/zk-light-clients/merkle"
)

// Merkle log tags of the header fields. Hash-valued fields (parent,
// payload, adjacents) enter the log as tree nodes and carry no tag.
const (
	tagChainID      uint16 = 0x0002
	tagHeight       uint16 = 0x0003
	tagWeight       uint16 = 0x0004
	tagFeatureFlags uint16 = 0x0006
	tagCreationTime uint16 = 0x0007
	tagVersion      uint16 = 0x0008
	tagHashTarget   uint16 = 0x0011
	tagEpochStart   uint16 = 0x0019
	tagNonce        uint16 = 0x0020
)

// logLeaf hashes a tagged input: SHA-512/256(0x00 || tag (big endian) || b).
func logLeaf(tag uint16, b []byte) [32]byte {
	var t [2]byte
	binary.BigEndian.PutUint16(t[:], tag)
	return crypto.SHA512_256([]byte{0x00}, t[:], b)
}

func u64(v uint64) []byte { return binary.LittleEndian.AppendUint64(nil, v) }

func u32(v uint32) []byte { return binary.LittleEndian.AppendUint32(nil, v) }

// logEntries returns the Merkle log of the header: eleven header entries
// followed by the adjacent parent hashes in encoding order.
func (h *ChainHeader) logEntries() [][32]byte {
	nodes := make([][32]byte, 0, 11+len(h.Adjacents))
	nodes = append(nodes,
		logLeaf(tagFeatureFlags, u64(h.Flags)),
		logLeaf(tagCreationTime, u64(h.Time)),
		h.Parent,
		logLeaf(tagHashTarget, h.Target[:]),
		h.PayloadHash,
		logLeaf(tagChainID, u32(h.ChainID)),
		logLeaf(tagWeight, h.Weight[:]),
		logLeaf(tagHeight, u64(h.Height)),
		logLeaf(tagVersion, u32(h.Version)),
		logLeaf(tagEpochStart, u64(h.EpochStart)),
		logLeaf(tagNonce, u64(h.Nonce)),
	)
	for _, a := range h.Adjacents {
		nodes = append(nodes, a.Hash)
	}
	return nodes
}

// ComputeHash returns the block hash, the root of the header's Merkle log.
func (h *ChainHeader) ComputeHash() Hash {
	return merkle.LogRoot(ChainwebHasher, h.logEntries())
}
