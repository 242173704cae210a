package zkvm

import "context"

// Backend executes and proves programs. Implementations must be safe for
// concurrent use; keys are read-only after Setup.
type Backend interface {
	// Execute runs the program without proving.
	Execute(ctx context.Context, program *Program, in *Stdin) (*PublicValues, error)

	// Setup generates a key pair for the program in the given mode.
	Setup(ctx context.Context, program *Program, mode ProvingMode) (*ProvingKey, *VerifyingKey, error)

	// Prove executes the program and proves the result in the key's mode.
	Prove(ctx context.Context, pk *ProvingKey, program *Program, in *Stdin) (*Proof, error)

	// Verify checks a proof. A key for one mode rejects proofs of the
	// other with ErrModeMismatch.
	Verify(ctx context.Context, vk *VerifyingKey, proof *Proof) error
}
