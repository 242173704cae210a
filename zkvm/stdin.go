package zkvm

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/larskuhtz/zk-light-clients/crypto"
)

// Frame errors.
var (
	ErrFrameLength  = errors.New("zkvm: invalid frame length")
	ErrStreamEnd    = errors.New("zkvm: read past last frame")
	ErrTrailingData = errors.New("zkvm: unread frames left")
)

const frameLengthLen = 4

// frames is an ordered list of byte frames read back with a cursor. The
// wire form is [u32 LE length][bytes] per frame.
type frames struct {
	items [][]byte
	pos   int
}

func (f *frames) write(b []byte) {
	f.items = append(f.items, append([]byte(nil), b...))
}

func (f *frames) read() ([]byte, error) {
	if f.pos >= len(f.items) {
		return nil, fmt.Errorf("%w: frame %d of %d", ErrStreamEnd, f.pos, len(f.items))
	}
	b := f.items[f.pos]
	f.pos++
	return b, nil
}

func (f *frames) finish() error {
	if f.pos != len(f.items) {
		return fmt.Errorf("%w: read %d of %d", ErrTrailingData, f.pos, len(f.items))
	}
	return nil
}

func (f *frames) bytes() []byte {
	size := 0
	for _, it := range f.items {
		size += frameLengthLen + len(it)
	}
	out := make([]byte, 0, size)
	for _, it := range f.items {
		out = binary.LittleEndian.AppendUint32(out, uint32(len(it)))
		out = append(out, it...)
	}
	return out
}

func parseFrames(buf []byte) (frames, error) {
	var f frames
	for len(buf) > 0 {
		if len(buf) < frameLengthLen {
			return frames{}, fmt.Errorf("%w: %d bytes left for frame %d", ErrFrameLength, len(buf), len(f.items))
		}
		n := binary.LittleEndian.Uint32(buf)
		buf = buf[frameLengthLen:]
		if uint64(n) > uint64(len(buf)) {
			return frames{}, fmt.Errorf("%w: frame %d declares %d bytes, %d left", ErrFrameLength, len(f.items), n, len(buf))
		}
		f.items = append(f.items, append([]byte(nil), buf[:n]...))
		buf = buf[n:]
	}
	return f, nil
}

// Stdin is the input stream handed to a program. Writers append frames in
// the program's fixed order; the program reads them back in that order.
type Stdin struct {
	frames
}

// NewStdin returns an empty input stream.
func NewStdin() *Stdin { return &Stdin{} }

// ParseStdin decodes the wire form produced by Bytes.
func ParseStdin(buf []byte) (*Stdin, error) {
	f, err := parseFrames(buf)
	if err != nil {
		return nil, err
	}
	return &Stdin{frames: f}, nil
}

// Write appends a copy of b as the next frame.
func (s *Stdin) Write(b []byte) { s.write(b) }

// Read returns the next frame.
func (s *Stdin) Read() ([]byte, error) { return s.read() }

// Len returns the number of frames written.
func (s *Stdin) Len() int { return len(s.items) }

// Rewind moves the read cursor back to the first frame.
func (s *Stdin) Rewind() { s.pos = 0 }

// Finish reports an error if input frames remain unread.
func (s *Stdin) Finish() error { return s.finish() }

// Bytes returns the wire form.
func (s *Stdin) Bytes() []byte { return s.bytes() }

// PublicValues is the output stream a program commits to. Readers decode it
// in commit order.
type PublicValues struct {
	frames
}

// NewPublicValues returns an empty output stream.
func NewPublicValues() *PublicValues { return &PublicValues{} }

// ParsePublicValues decodes the wire form produced by Bytes.
func ParsePublicValues(buf []byte) (*PublicValues, error) {
	f, err := parseFrames(buf)
	if err != nil {
		return nil, err
	}
	return &PublicValues{frames: f}, nil
}

// Commit appends a copy of b as the next public value.
func (p *PublicValues) Commit(b []byte) { p.write(b) }

// Read returns the next committed value.
func (p *PublicValues) Read() ([]byte, error) { return p.read() }

// Len returns the number of committed values.
func (p *PublicValues) Len() int { return len(p.items) }

// Finish reports an error if committed values remain unread.
func (p *PublicValues) Finish() error { return p.finish() }

// Bytes returns the wire form.
func (p *PublicValues) Bytes() []byte { return p.bytes() }

// Digest is the SHA-256 of the wire form. Proofs bind to it.
func (p *PublicValues) Digest() [32]byte { return crypto.SHA256(p.bytes()) }
