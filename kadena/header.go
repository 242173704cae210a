// Package kadena implements the Chainweb light client: binary chain
// headers, layer headers grouping one height across all chains, and the
// proof-of-work accumulator that validates a window of layers.
package kadena

import (
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/holiman/uint256"

	"github.com/larskuhtz/zk-light-clients/crypto"
)

// HashLen is the length of block, payload and PoW hashes.
const HashLen = 32

// HeaderLen returns the encoded size of a header with n adjacent parents.
func HeaderLen(n int) int {
	return 8 + 8 + HashLen + 2 + n*(4+HashLen) + HashLen + HashLen + 4 + HashLen + 8 + 4 + 8 + 8 + HashLen
}

// Header errors.
var (
	ErrHeaderLength    = errors.New("kadena: invalid header length")
	ErrInvalidHash     = errors.New("kadena: header hash mismatch")
	ErrInsufficientPoW = errors.New("kadena: proof of work above target")
	ErrZeroTarget      = errors.New("kadena: zero target")
	ErrBase64          = errors.New("kadena: invalid base64url header")
)

// Hash is a 32-byte Chainweb hash.
type Hash [HashLen]byte

// String returns the unpadded base64url form used by Chainweb APIs.
func (h Hash) String() string {
	return base64.RawURLEncoding.EncodeToString(h[:])
}

// Adjacent is the hash of the parent on an adjacent chain.
type Adjacent struct {
	ChainID uint32
	Hash    Hash
}

// ChainHeader is a Chainweb block header.
type ChainHeader struct {
	Flags       uint64
	Time        uint64
	Parent      Hash
	Adjacents   []Adjacent
	Target      Hash
	PayloadHash Hash
	ChainID     uint32
	Weight      Hash
	Height      uint64
	Version     uint32
	EpochStart  uint64
	Nonce       uint64
	Hash        Hash
}

func (h *ChainHeader) appendWithoutHash(b []byte) []byte {
	b = binary.LittleEndian.AppendUint64(b, h.Flags)
	b = binary.LittleEndian.AppendUint64(b, h.Time)
	b = append(b, h.Parent[:]...)
	b = binary.LittleEndian.AppendUint16(b, uint16(len(h.Adjacents)))
	for _, a := range h.Adjacents {
		b = binary.LittleEndian.AppendUint32(b, a.ChainID)
		b = append(b, a.Hash[:]...)
	}
	b = append(b, h.Target[:]...)
	b = append(b, h.PayloadHash[:]...)
	b = binary.LittleEndian.AppendUint32(b, h.ChainID)
	b = append(b, h.Weight[:]...)
	b = binary.LittleEndian.AppendUint64(b, h.Height)
	b = binary.LittleEndian.AppendUint32(b, h.Version)
	b = binary.LittleEndian.AppendUint64(b, h.EpochStart)
	return binary.LittleEndian.AppendUint64(b, h.Nonce)
}

// Encode returns the binary header encoding.
func (h *ChainHeader) Encode() []byte {
	b := h.appendWithoutHash(make([]byte, 0, HeaderLen(len(h.Adjacents))))
	return append(b, h.Hash[:]...)
}

// Len returns the encoded size.
func (h *ChainHeader) Len() int { return HeaderLen(len(h.Adjacents)) }

// DecodeChainHeader decodes one header from the front of buf and returns
// the number of bytes consumed.
func DecodeChainHeader(buf []byte) (*ChainHeader, int, error) {
	if len(buf) < HeaderLen(0) {
		return nil, 0, fmt.Errorf("%w: %d bytes, need at least %d", ErrHeaderLength, len(buf), HeaderLen(0))
	}
	n := int(binary.LittleEndian.Uint16(buf[48:50]))
	size := HeaderLen(n)
	if len(buf) < size {
		return nil, 0, fmt.Errorf("%w: %d bytes, need %d for %d adjacents", ErrHeaderLength, len(buf), size, n)
	}
	h := &ChainHeader{
		Flags:     binary.LittleEndian.Uint64(buf[0:8]),
		Time:      binary.LittleEndian.Uint64(buf[8:16]),
		Adjacents: make([]Adjacent, n),
	}
	copy(h.Parent[:], buf[16:48])
	pos := 50
	for i := range h.Adjacents {
		h.Adjacents[i].ChainID = binary.LittleEndian.Uint32(buf[pos:])
		copy(h.Adjacents[i].Hash[:], buf[pos+4:])
		pos += 4 + HashLen
	}
	pos += copy(h.Target[:], buf[pos:])
	pos += copy(h.PayloadHash[:], buf[pos:])
	h.ChainID = binary.LittleEndian.Uint32(buf[pos:])
	pos += 4
	pos += copy(h.Weight[:], buf[pos:])
	h.Height = binary.LittleEndian.Uint64(buf[pos:])
	h.Version = binary.LittleEndian.Uint32(buf[pos+8:])
	h.EpochStart = binary.LittleEndian.Uint64(buf[pos+12:])
	h.Nonce = binary.LittleEndian.Uint64(buf[pos+20:])
	pos += 28
	pos += copy(h.Hash[:], buf[pos:])
	return h, pos, nil
}

// DecodeHeader decodes exactly one header.
func DecodeHeader(buf []byte) (*ChainHeader, error) {
	h, n, err := DecodeChainHeader(buf)
	if err != nil {
		return nil, err
	}
	if n != len(buf) {
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrHeaderLength, len(buf)-n)
	}
	return h, nil
}

// DecodeRawHeader decodes the unpadded base64url encoding served by the
// Chainweb header endpoints.
func DecodeRawHeader(s string) (*ChainHeader, error) {
	buf, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBase64, err)
	}
	return DecodeHeader(buf)
}

// EncodeRaw returns the unpadded base64url encoding of the header.
func (h *ChainHeader) EncodeRaw() string {
	return base64.RawURLEncoding.EncodeToString(h.Encode())
}

// PowHash returns the Blake2s-256 proof-of-work hash.
func (h *ChainHeader) PowHash() Hash {
	return crypto.Blake2s256(h.appendWithoutHash(nil))
}

func leToUint256(b Hash) *uint256.Int {
	for i, j := 0, HashLen-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}
	return new(uint256.Int).SetBytes32(b[:])
}

func uint256ToLE(v *uint256.Int) Hash {
	be := v.Bytes32()
	var out Hash
	for i := range be {
		out[i] = be[HashLen-1-i]
	}
	return out
}

// TargetInt returns the target as an integer.
func (h *ChainHeader) TargetInt() *uint256.Int { return leToUint256(h.Target) }

// Verify checks the declared hash and the proof of work.
func (h *ChainHeader) Verify() error {
	if got := h.ComputeHash(); got != h.Hash {
		return fmt.Errorf("%w: chain %d height %d: computed %s, declared %s", ErrInvalidHash, h.ChainID, h.Height, got, h.Hash)
	}
	return h.VerifyPoW()
}

// VerifyPoW checks that the PoW hash, read as a little-endian integer, does
// not exceed the target.
func (h *ChainHeader) VerifyPoW() error {
	if leToUint256(h.PowHash()).Gt(h.TargetInt()) {
		return fmt.Errorf("%w: chain %d height %d", ErrInsufficientPoW, h.ChainID, h.Height)
	}
	return nil
}

// Work returns the work contributed by the header: (2^256-1) / target.
func (h *ChainHeader) Work() (*uint256.Int, error) {
	target := h.TargetInt()
	if target.IsZero() {
		return nil, fmt.Errorf("%w: chain %d height %d", ErrZeroTarget, h.ChainID, h.Height)
	}
	w := new(uint256.Int).SetAllOne()
	return w.Div(w, target), nil
}
