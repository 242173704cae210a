package ssz

import "encoding/binary"

// Encoder builds a container whose fixed part has a known size. Variable
// fields are written as offsets into the fixed part and their bodies are
// appended after it, in call order.
type Encoder struct {
	fixedSize int
	fixed     []byte
	variable  []byte
}

// NewEncoder returns an encoder for a container with the given fixed part size.
func NewEncoder(fixedSize int) *Encoder {
	return &Encoder{
		fixedSize: fixedSize,
		fixed:     make([]byte, 0, fixedSize),
	}
}

// Uint32 appends a little-endian uint32.
func (e *Encoder) Uint32(v uint32) {
	e.fixed = binary.LittleEndian.AppendUint32(e.fixed, v)
}

// Uint64 appends a little-endian uint64.
func (e *Encoder) Uint64(v uint64) {
	e.fixed = binary.LittleEndian.AppendUint64(e.fixed, v)
}

// Write appends a fixed-size byte field.
func (e *Encoder) Write(b []byte) {
	e.fixed = append(e.fixed, b...)
}

// Variable appends the offset of body to the fixed part and queues body.
func (e *Encoder) Variable(body []byte) {
	e.Uint32(uint32(e.fixedSize + len(e.variable)))
	e.variable = append(e.variable, body...)
}

// Bytes returns the encoded container. It fails with ErrSize when the fixed
// fields written do not add up to the declared fixed size.
func (e *Encoder) Bytes() ([]byte, error) {
	if len(e.fixed) != e.fixedSize {
		return nil, ErrSize
	}
	out := make([]byte, 0, len(e.fixed)+len(e.variable))
	out = append(out, e.fixed...)
	return append(out, e.variable...), nil
}
