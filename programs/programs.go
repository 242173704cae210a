// Package programs holds the guest programs proven by the light clients.
// Each program reads its inputs from the stdin frames in a fixed order,
// verifies them, and commits its public outputs in a fixed order. The
// Decode functions read those outputs back in the same order.
package programs

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/larskuhtz/zk-light-clients/zkvm"
)

// Program names.
const (
	CommitteeChangeName  = "committee-change"
	StorageInclusionName = "storage-inclusion"
	AccountInclusionName = "account-inclusion"
	LongestChainName     = "longest-chain"
)

// ErrMalformedOutput is returned when public values do not match a
// program's output layout.
var ErrMalformedOutput = errors.New("programs: malformed public values")

var all = []*zkvm.Program{CommitteeChange, StorageInclusion, AccountInclusion, LongestChain}

// All returns every program.
func All() []*zkvm.Program {
	return append([]*zkvm.Program(nil), all...)
}

// ByName looks a program up by name.
func ByName(name string) (*zkvm.Program, bool) {
	for _, p := range all {
		if p.Name() == name {
			return p, true
		}
	}
	return nil, false
}

// input reads named stdin frames, keeping the first error.
type input struct {
	in  *zkvm.Stdin
	err error
}

func (r *input) frame(field string) []byte {
	if r.err != nil {
		return nil
	}
	b, err := r.in.Read()
	if err != nil {
		r.err = fmt.Errorf("%s: %w", field, err)
	}
	return b
}

func (r *input) hash(field string) (h [32]byte) {
	b := r.frame(field)
	if r.err == nil && len(b) != len(h) {
		r.err = fmt.Errorf("%s: %d bytes, want %d", field, len(b), len(h))
	}
	copy(h[:], b)
	return h
}

// finish returns the first read error, or ErrTrailingData when frames
// remain unread.
func (r *input) finish() error {
	if r.err != nil {
		return r.err
	}
	return r.in.Finish()
}

func commitUint64(out *zkvm.PublicValues, v uint64) {
	out.Commit(binary.LittleEndian.AppendUint64(nil, v))
}

// output reads committed values, keeping the first error.
type output struct {
	pv  *zkvm.PublicValues
	err error
}

func newOutput(pv *zkvm.PublicValues) *output { return &output{pv: pv} }

func (r *output) fixed(field string, n int) []byte {
	if r.err != nil {
		return nil
	}
	b, err := r.pv.Read()
	switch {
	case err != nil:
		r.err = fmt.Errorf("%w: %s: %v", ErrMalformedOutput, field, err)
	case n >= 0 && len(b) != n:
		r.err = fmt.Errorf("%w: %s: %d bytes, want %d", ErrMalformedOutput, field, len(b), n)
	}
	return b
}

func (r *output) hash(field string) (h [32]byte) {
	copy(h[:], r.fixed(field, len(h)))
	return h
}

func (r *output) uint64(field string) uint64 {
	b := r.fixed(field, 8)
	if r.err != nil {
		return 0
	}
	return binary.LittleEndian.Uint64(b)
}

func (r *output) finish() error {
	if r.err != nil {
		return r.err
	}
	if err := r.pv.Finish(); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedOutput, err)
	}
	return nil
}
