package ssz

import "encoding/binary"

// Decoder reads an SSZ container front to back. Every failure is returned
// as a *DecodeError carrying the structure and field name.
type Decoder struct {
	structure string
	buf       []byte
	pos       int
}

// NewDecoder returns a decoder over buf for the named structure.
func NewDecoder(structure string, buf []byte) *Decoder {
	return &Decoder{structure: structure, buf: buf}
}

func (d *Decoder) fail(field string, kind error, expected, actual int) error {
	return &DecodeError{
		Structure: d.structure,
		Field:     field,
		Kind:      kind,
		Expected:  expected,
		Actual:    actual,
	}
}

// Require fails with ErrUnderLength when the whole input is shorter than min.
func (d *Decoder) Require(min int) error {
	if len(d.buf) < min {
		return d.fail("", ErrUnderLength, min, len(d.buf))
	}
	return nil
}

// Pos returns the cursor position.
func (d *Decoder) Pos() int { return d.pos }

// Remaining returns the number of unread bytes.
func (d *Decoder) Remaining() int { return len(d.buf) - d.pos }

// Read fills dst from the input.
func (d *Decoder) Read(field string, dst []byte) error {
	if d.Remaining() < len(dst) {
		return d.fail(field, ErrUnderLength, len(dst), d.Remaining())
	}
	copy(dst, d.buf[d.pos:])
	d.pos += len(dst)
	return nil
}

// Bytes returns a copy of the next n bytes.
func (d *Decoder) Bytes(field string, n int) ([]byte, error) {
	out := make([]byte, n)
	if err := d.Read(field, out); err != nil {
		return nil, err
	}
	return out, nil
}

// Uint32 reads a little-endian uint32.
func (d *Decoder) Uint32(field string) (uint32, error) {
	var b [4]byte
	if err := d.Read(field, b[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b[:]), nil
}

// Uint64 reads a little-endian uint64.
func (d *Decoder) Uint64(field string) (uint64, error) {
	var b [8]byte
	if err := d.Read(field, b[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b[:]), nil
}

// Offset reads the 4-byte offset of a variable field.
func (d *Decoder) Offset(field string) (uint32, error) {
	return d.Uint32(field)
}

// Variable reads a variable field spanning [offset, end). The cursor must
// sit exactly at offset, so fields can neither overlap nor leave gaps.
func (d *Decoder) Variable(field string, offset uint32, end int) ([]byte, error) {
	if int(offset) != d.pos {
		return nil, d.fail(field, ErrOffset, d.pos, int(offset))
	}
	if end < d.pos || end > len(d.buf) {
		return nil, d.fail(field, ErrOffset, len(d.buf), end)
	}
	return d.Bytes(field, end-d.pos)
}

// Tail reads a variable field that runs from offset to the end of the input.
func (d *Decoder) Tail(field string, offset uint32) ([]byte, error) {
	return d.Variable(field, offset, len(d.buf))
}

// Finish fails with ErrTrailingBytes when input remains unread.
func (d *Decoder) Finish() error {
	if d.pos != len(d.buf) {
		return d.fail("", ErrTrailingBytes, d.pos, len(d.buf))
	}
	return nil
}
