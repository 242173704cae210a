package kadena

import (
	"cmp"
	"encoding/binary"
	"errors"
	"fmt"
	"slices"

	"github.com/larskuhtz/zk-light-clients/crypto"
	"github.com/larskuhtz/zk-light-clients/merkle"
)

// Layer list framing errors.
var (
	ErrItemLength  = errors.New("kadena: invalid layer item length")
	ErrEmptyLayer  = errors.New("kadena: layer without chain headers")
	ErrTagMismatch = errors.New("kadena: layer tag does not match chainweb version")
	ErrLayerHeight = errors.New("kadena: header height differs from layer height")
)

const (
	itemLengthLen = 8
	itemTagLen    = 4
)

// ChainwebLeaf tags a block hash as a Merkle leaf.
func ChainwebLeaf(h Hash) [32]byte {
	return crypto.SHA512_256([]byte{0x00}, h[:])
}

// ChainwebHasher is the node hasher for layer header roots.
func ChainwebHasher(left, right [32]byte) [32]byte {
	return crypto.SHA512_256([]byte{0x01}, left[:], right[:])
}

// LayerHeader groups the headers of every chain in the graph at one height.
type LayerHeader struct {
	Height       uint64
	ChainHeaders []*ChainHeader
}

// NewLayerHeader returns a layer with its headers ordered by chain id.
func NewLayerHeader(height uint64, headers []*ChainHeader) *LayerHeader {
	hs := slices.Clone(headers)
	slices.SortFunc(hs, byChainID)
	return &LayerHeader{Height: height, ChainHeaders: hs}
}

func byChainID(a, b *ChainHeader) int {
	return cmp.Compare(a.ChainID, b.ChainID)
}

// Chain returns the header of the given chain, or nil.
func (l *LayerHeader) Chain(id uint32) *ChainHeader {
	for _, h := range l.ChainHeaders {
		if h.ChainID == id {
			return h
		}
	}
	return nil
}

// ChainIDs returns the chain ids of the layer in header order.
func (l *LayerHeader) ChainIDs() []uint32 {
	ids := make([]uint32, len(l.ChainHeaders))
	for i, h := range l.ChainHeaders {
		ids[i] = h.ChainID
	}
	return ids
}

// Version returns the chainweb version of the layer's first header.
func (l *LayerHeader) Version() uint32 {
	if len(l.ChainHeaders) == 0 {
		return 0
	}
	return l.ChainHeaders[0].Version
}

// HeaderRoot is the Merkle root over the block hashes in chain-id order.
func (l *LayerHeader) HeaderRoot() Hash {
	hs := slices.Clone(l.ChainHeaders)
	slices.SortFunc(hs, byChainID)
	leaves := make([][32]byte, len(hs))
	for i, h := range hs {
		leaves[i] = ChainwebLeaf(h.Hash)
	}
	return merkle.ComputeRoot(ChainwebHasher, leaves)
}

// Encode returns the layer payload: height followed by the concatenated
// chain headers.
func (l *LayerHeader) Encode() []byte {
	size := 8
	for _, h := range l.ChainHeaders {
		size += h.Len()
	}
	b := binary.LittleEndian.AppendUint64(make([]byte, 0, size), l.Height)
	for _, h := range l.ChainHeaders {
		b = append(b, h.Encode()...)
	}
	return b
}

// DecodeLayerHeader decodes a layer payload.
func DecodeLayerHeader(buf []byte) (*LayerHeader, error) {
	if len(buf) < 8 {
		return nil, fmt.Errorf("%w: %d bytes", ErrEmptyLayer, len(buf))
	}
	l := &LayerHeader{Height: binary.LittleEndian.Uint64(buf)}
	buf = buf[8:]
	for len(buf) > 0 {
		h, n, err := DecodeChainHeader(buf)
		if err != nil {
			return nil, fmt.Errorf("layer %d header %d: %w", l.Height, len(l.ChainHeaders), err)
		}
		if h.Height != l.Height {
			return nil, fmt.Errorf("%w: chain %d at %d in layer %d", ErrLayerHeight, h.ChainID, h.Height, l.Height)
		}
		l.ChainHeaders = append(l.ChainHeaders, h)
		buf = buf[n:]
	}
	if len(l.ChainHeaders) == 0 {
		return nil, fmt.Errorf("%w: height %d", ErrEmptyLayer, l.Height)
	}
	return l, nil
}

// EncodeLayerHeaders frames each layer as [u64 length][u32 version][payload],
// where length covers the tag and the payload.
func EncodeLayerHeaders(layers []*LayerHeader) []byte {
	var b []byte
	for _, l := range layers {
		payload := l.Encode()
		b = binary.LittleEndian.AppendUint64(b, uint64(itemTagLen+len(payload)))
		b = binary.LittleEndian.AppendUint32(b, l.Version())
		b = append(b, payload...)
	}
	return b
}

// DecodeLayerHeaders reverses EncodeLayerHeaders. An empty buffer decodes to
// an empty list.
func DecodeLayerHeaders(buf []byte) ([]*LayerHeader, error) {
	layers := []*LayerHeader{}
	for pos := 0; pos < len(buf); {
		if len(buf)-pos < itemLengthLen {
			return nil, fmt.Errorf("%w: item %d: %d bytes left for length prefix", ErrItemLength, len(layers), len(buf)-pos)
		}
		size := binary.LittleEndian.Uint64(buf[pos:])
		pos += itemLengthLen
		if size < itemTagLen || size > uint64(len(buf)-pos) {
			return nil, fmt.Errorf("%w: item %d: length %d, %d bytes left", ErrItemLength, len(layers), size, len(buf)-pos)
		}
		item := buf[pos : pos+int(size)]
		pos += int(size)

		tag := binary.LittleEndian.Uint32(item)
		l, err := DecodeLayerHeader(item[itemTagLen:])
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", len(layers), err)
		}
		for _, h := range l.ChainHeaders {
			if h.Version != tag {
				return nil, fmt.Errorf("%w: item %d: tag %d, chain %d has version %d", ErrTagMismatch, len(layers), tag, h.ChainID, h.Version)
			}
		}
		layers = append(layers, l)
	}
	return layers, nil
}
