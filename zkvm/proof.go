package zkvm

import (
	"errors"

	"github.com/consensys/gnark/backend/groth16"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// Verification errors.
var (
	ErrInvalidProof    = errors.New("zkvm: invalid proof")
	ErrModeMismatch    = errors.New("zkvm: proving mode mismatch")
	ErrProgramMismatch = errors.New("zkvm: program mismatch")
)

// Proof is a proof artifact. Mode tags which proof system produced Data;
// PublicValues carries the committed outputs the proof attests to.
type Proof struct {
	Mode         ProvingMode   `json:"mode"`
	Program      common.Hash   `json:"program"`
	Data         hexutil.Bytes `json:"data"`
	PublicValues hexutil.Bytes `json:"publicValues"`
}

// Values decodes the committed public values.
func (p *Proof) Values() (*PublicValues, error) {
	return ParsePublicValues(p.PublicValues)
}

// ProvingKey holds everything needed to prove one program in one mode.
type ProvingKey struct {
	Mode    ProvingMode
	Program common.Hash

	// attestation key signing the executed program's public values
	secret []byte
	// nil in STARK mode
	snark groth16.ProvingKey
}

// VerifyingKey checks proofs of one program in one mode.
type VerifyingKey struct {
	Mode    ProvingMode
	Program common.Hash

	public []byte
	snark  groth16.VerifyingKey
}
