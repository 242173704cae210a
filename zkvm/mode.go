package zkvm

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownMode is returned for a mode outside STARK and SNARK.
var ErrUnknownMode = errors.New("zkvm: unknown proving mode")

// ProvingMode selects the proof system.
type ProvingMode uint8

const (
	// STARK produces a fast, large proof.
	STARK ProvingMode = iota + 1
	// SNARK wraps the STARK result in a succinct Groth16 proof over BN254.
	SNARK
)

func (m ProvingMode) String() string {
	switch m {
	case STARK:
		return "stark"
	case SNARK:
		return "snark"
	default:
		return fmt.Sprintf("mode(%d)", uint8(m))
	}
}

// Valid reports whether m is STARK or SNARK.
func (m ProvingMode) Valid() bool { return m == STARK || m == SNARK }

// ParseProvingMode parses "stark" or "snark", case-insensitively.
func ParseProvingMode(s string) (ProvingMode, error) {
	switch strings.ToLower(s) {
	case "stark":
		return STARK, nil
	case "snark":
		return SNARK, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownMode, s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (m ProvingMode) MarshalText() ([]byte, error) {
	if !m.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownMode, uint8(m))
	}
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *ProvingMode) UnmarshalText(b []byte) error {
	v, err := ParseProvingMode(string(b))
	if err != nil {
		return err
	}
	*m = v
	return nil
}
