package zkvm

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/larskuhtz/zk-light-clients/crypto"
)

// ErrGuestPanicked is returned when a program panics on its input.
var ErrGuestPanicked = errors.New("zkvm: guest execution panicked")

// Program is a guest program: a named, deterministic function from an
// input stream to committed public values.
type Program struct {
	name string
	run  func(in *Stdin, out *PublicValues) error
}

// NewProgram returns a program. The name determines its identifier, so it
// must be unique among the programs a backend serves.
func NewProgram(name string, run func(in *Stdin, out *PublicValues) error) *Program {
	return &Program{name: name, run: run}
}

// Name returns the program name.
func (p *Program) Name() string { return p.name }

// ID returns the program identifier proofs and keys are bound to.
func (p *Program) ID() common.Hash {
	return crypto.SHA256([]byte("zkvm/program/"), []byte(p.name))
}

// ExecutionError wraps a program failure.
type ExecutionError struct {
	Program string
	Err     error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("zkvm: program %s: %v", e.Program, e.Err)
}

func (e *ExecutionError) Unwrap() error { return e.Err }

// Run executes the program from the first input frame.
func (p *Program) Run(in *Stdin) (out *PublicValues, err error) {
	in.Rewind()
	out = NewPublicValues()
	defer func() {
		if r := recover(); r != nil {
			out, err = nil, &ExecutionError{Program: p.name, Err: fmt.Errorf("%w: %v", ErrGuestPanicked, r)}
		}
	}()
	if err := p.run(in, out); err != nil {
		return nil, &ExecutionError{Program: p.name, Err: err}
	}
	return out, nil
}
