package ssz

import "errors"

// Bitvector errors.
var (
	ErrBitvectorZeroLength     = errors.New("bitfield: bitvector length must be positive")
	ErrBitvectorLengthMismatch = errors.New("bitfield: bitvector length mismatch")
)

// Bitvector is a fixed-length bit array, least significant bit first within
// each byte. Sync committee participation is carried as a Bitvector.
type Bitvector struct {
	data   []byte
	length int
}

// NewBitvector creates a Bitvector of the given length with all bits unset.
func NewBitvector(length int) (Bitvector, error) {
	if length <= 0 {
		return Bitvector{}, ErrBitvectorZeroLength
	}
	return Bitvector{data: make([]byte, (length+7)/8), length: length}, nil
}

// BitvectorFromBytes creates a Bitvector from exactly (length+7)/8 bytes.
func BitvectorFromBytes(data []byte, length int) (Bitvector, error) {
	if length <= 0 {
		return Bitvector{}, ErrBitvectorZeroLength
	}
	if len(data) != (length+7)/8 {
		return Bitvector{}, ErrBitvectorLengthMismatch
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	return Bitvector{data: cp, length: length}, nil
}

// Set sets the bit at index. Out of range indices are ignored.
func (bv Bitvector) Set(index int) {
	if index < 0 || index >= bv.length {
		return
	}
	bv.data[index/8] |= 1 << (uint(index) % 8)
}

// Get reports whether the bit at index is set.
func (bv Bitvector) Get(index int) bool {
	if index < 0 || index >= bv.length {
		return false
	}
	return bv.data[index/8]&(1<<(uint(index)%8)) != 0
}

// Len returns the bit length.
func (bv Bitvector) Len() int { return bv.length }

// Count returns the number of set bits.
func (bv Bitvector) Count() int {
	n := 0
	for i := 0; i < bv.length; i++ {
		if bv.Get(i) {
			n++
		}
	}
	return n
}

// Bytes returns a copy of the packed bits.
func (bv Bitvector) Bytes() []byte {
	cp := make([]byte, len(bv.data))
	copy(cp, bv.data)
	return cp
}

// HashTreeRoot computes the SSZ hash tree root of the bitvector.
func (bv Bitvector) HashTreeRoot() [32]byte {
	return Merkleize(Pack(bv.data), (bv.length+255)/256)
}
