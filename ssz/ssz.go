// Package ssz implements the subset of Simple Serialize (SSZ) used by the
// Ethereum light client: little-endian fixed fields, 4-byte offsets for
// variable fields, and Merkleization for hash tree roots.
//
// Decoding is strict. Every offset is checked against the cursor position
// and inputs must be consumed exactly.
//
// Spec: https://github.com/ethereum/consensus-specs/blob/dev/ssz/simple-serialize.md
package ssz

import (
	"errors"
	"fmt"
)

// Common errors. A *DecodeError wraps one of these as its Kind.
var (
	ErrSize           = errors.New("ssz: invalid size")
	ErrOffset         = errors.New("ssz: invalid offset")
	ErrUnderLength    = errors.New("ssz: input shorter than minimum length")
	ErrTrailingBytes  = errors.New("ssz: unconsumed trailing bytes")
	ErrBufferTooSmall = errors.New("ssz: buffer too small")
)

// BytesPerLengthOffset is the number of bytes used for each offset in
// variable-length SSZ containers (4 bytes, little-endian uint32).
const BytesPerLengthOffset = 4

// DecodeError reports a decoding failure tagged with the structure and
// field being read.
type DecodeError struct {
	Structure string
	Field     string
	Kind      error
	Expected  int
	Actual    int
}

func (e *DecodeError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%v: %s: expected %d, got %d", e.Kind, e.Structure, e.Expected, e.Actual)
	}
	return fmt.Sprintf("%v: %s.%s: expected %d, got %d", e.Kind, e.Structure, e.Field, e.Expected, e.Actual)
}

func (e *DecodeError) Unwrap() error { return e.Kind }

// Marshaler is implemented by types that can serialize themselves to SSZ.
type Marshaler interface {
	MarshalSSZ() ([]byte, error)
	SizeSSZ() int
}

// Unmarshaler is implemented by types that can deserialize themselves from SSZ.
type Unmarshaler interface {
	UnmarshalSSZ([]byte) error
}
