package aptos

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/larskuhtz/zk-light-clients/merkle"
)

// Proof errors.
var (
	ErrMalformedProof  = errors.New("aptos: malformed proof encoding")
	ErrTooManySiblings = errors.New("aptos: too many siblings")
	ErrLeafMismatch    = errors.New("aptos: proof leaf does not match element")
	ErrNotInclusion    = errors.New("aptos: expected inclusion proof, found non-inclusion proof")
)

// LeafNode is a sparse Merkle tree leaf.
type LeafNode struct {
	Key       [HashLen]byte
	ValueHash [HashLen]byte
}

// Hash returns the node hash.
func (l *LeafNode) Hash() [HashLen]byte { return HashLeaf(l.Key, l.ValueHash) }

// SparseMerkleProof proves inclusion or exclusion of a key. Siblings are
// ordered from the leaf level up to the root.
type SparseMerkleProof struct {
	Leaf     *LeafNode
	Siblings [][HashLen]byte
}

func appendHashValue(b []byte, h [HashLen]byte) []byte {
	b = append(b, HashLen)
	return append(b, h[:]...)
}

// MarshalBCS encodes the proof in BCS: an option tag, the optional leaf,
// and the sibling vector. Hash values are length-prefixed byte strings.
func (p *SparseMerkleProof) MarshalBCS() ([]byte, error) {
	if len(p.Siblings) > merkle.MaxSiblings {
		return nil, fmt.Errorf("%w: %d", ErrTooManySiblings, len(p.Siblings))
	}
	var out []byte
	if p.Leaf == nil {
		out = append(out, 0)
	} else {
		out = append(out, 1)
		out = appendHashValue(out, p.Leaf.Key)
		out = appendHashValue(out, p.Leaf.ValueHash)
	}
	out = binary.AppendUvarint(out, uint64(len(p.Siblings)))
	for _, s := range p.Siblings {
		out = appendHashValue(out, s)
	}
	return out, nil
}

type bcsReader struct {
	r *bytes.Reader
}

func (b bcsReader) hashValue(field string) ([HashLen]byte, error) {
	var h [HashLen]byte
	n, err := binary.ReadUvarint(b.r)
	if err != nil {
		return h, fmt.Errorf("%w: %s length: %v", ErrMalformedProof, field, err)
	}
	if n != HashLen {
		return h, fmt.Errorf("%w: %s has length %d", ErrMalformedProof, field, n)
	}
	if _, err := io.ReadFull(b.r, h[:]); err != nil {
		return h, fmt.Errorf("%w: %s truncated", ErrMalformedProof, field)
	}
	return h, nil
}

// UnmarshalBCS decodes a proof produced by MarshalBCS. Trailing bytes are
// rejected.
func (p *SparseMerkleProof) UnmarshalBCS(buf []byte) error {
	r := bcsReader{bytes.NewReader(buf)}
	tag, err := r.r.ReadByte()
	if err != nil {
		return fmt.Errorf("%w: missing leaf tag", ErrMalformedProof)
	}
	switch tag {
	case 0:
		p.Leaf = nil
	case 1:
		leaf := new(LeafNode)
		if leaf.Key, err = r.hashValue("leaf key"); err != nil {
			return err
		}
		if leaf.ValueHash, err = r.hashValue("leaf value hash"); err != nil {
			return err
		}
		p.Leaf = leaf
	default:
		return fmt.Errorf("%w: invalid option tag %d", ErrMalformedProof, tag)
	}
	n, err := binary.ReadUvarint(r.r)
	if err != nil {
		return fmt.Errorf("%w: sibling count: %v", ErrMalformedProof, err)
	}
	if n > merkle.MaxSiblings {
		return fmt.Errorf("%w: %d", ErrTooManySiblings, n)
	}
	p.Siblings = make([][HashLen]byte, n)
	for i := range p.Siblings {
		if p.Siblings[i], err = r.hashValue(fmt.Sprintf("sibling %d", i)); err != nil {
			return err
		}
	}
	if r.r.Len() != 0 {
		return fmt.Errorf("%w: %d trailing bytes", ErrMalformedProof, r.r.Len())
	}
	return nil
}

func commonPrefixBits(a, b [HashLen]byte) int {
	for i := 0; i < HashLen*8; i++ {
		if (a[i/8]^b[i/8])&(0x80>>(uint(i)%8)) != 0 {
			return i
		}
	}
	return HashLen * 8
}

// Verify checks the proof against root. A non-nil valueHash asks for
// inclusion of (key, *valueHash); a nil valueHash asks for exclusion of key.
func (p *SparseMerkleProof) Verify(root, key [HashLen]byte, valueHash *[HashLen]byte) error {
	if len(p.Siblings) > merkle.MaxSiblings {
		return fmt.Errorf("%w: %d", ErrTooManySiblings, len(p.Siblings))
	}
	switch {
	case valueHash != nil && p.Leaf != nil:
		if p.Leaf.Key != key {
			return fmt.Errorf("%w: key %x, leaf key %x", ErrLeafMismatch, key, p.Leaf.Key)
		}
		if p.Leaf.ValueHash != *valueHash {
			return fmt.Errorf("%w: value hash %x, leaf value hash %x", ErrLeafMismatch, *valueHash, p.Leaf.ValueHash)
		}
	case valueHash != nil:
		return ErrNotInclusion
	case p.Leaf != nil:
		if p.Leaf.Key == key {
			return fmt.Errorf("%w: key %x is present", ErrLeafMismatch, key)
		}
		if commonPrefixBits(key, p.Leaf.Key) < len(p.Siblings) {
			return fmt.Errorf("%w: leaf outside the proven subtree", ErrLeafMismatch)
		}
	}

	leaf := PlaceholderHash
	if p.Leaf != nil {
		leaf = p.Leaf.Hash()
	}
	if !merkle.Verify(HashInternal, leaf, p.Siblings, merkle.KeyPath(key), root) {
		return merkle.ErrRootMismatch
	}
	return nil
}
