package zkvm

import (
	"bytes"
	"context"
	"crypto/rand"
	"fmt"
	"sync"
	"time"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/constraint"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/frontend/cs/r1cs"
	gnarklogger "github.com/consensys/gnark/logger"
	"github.com/rs/zerolog"

	"github.com/larskuhtz/zk-light-clients/crypto"
	"github.com/larskuhtz/zk-light-clients/log"
)

// attestationDST separates STARK attestation signatures from any other BLS
// signatures made with the same curve.
var attestationDST = []byte("ZKLC_ATTESTATION_BLS12381G2_XMD:SHA-256_SSWU_RO_")

const (
	attestationLen = 96
	commitmentLen  = 32
)

var quietGnark sync.Once

// LocalBackend runs programs in process. STARK proofs are BLS attestations
// over the program identifier and public values digest; SNARK proofs wrap
// that attestation in a Groth16 proof over BN254.
type LocalBackend struct {
	log *log.Logger

	compileOnce sync.Once
	wrapCS      constraint.ConstraintSystem
	compileErr  error
}

// NewLocalBackend returns a backend logging to logger, or to the default
// logger when nil.
func NewLocalBackend(logger *log.Logger) *LocalBackend {
	if logger == nil {
		logger = log.Default()
	}
	quietGnark.Do(func() { gnarklogger.Set(zerolog.Nop()) })
	return &LocalBackend{log: logger.Module("zkvm")}
}

var _ Backend = (*LocalBackend)(nil)

func (b *LocalBackend) wrapper() (constraint.ConstraintSystem, error) {
	b.compileOnce.Do(func() {
		start := time.Now()
		b.wrapCS, b.compileErr = frontend.Compile(ecc.BN254.ScalarField(), r1cs.NewBuilder, &wrapCircuit{})
		if b.compileErr == nil {
			b.log.Debug("compiled wrapper circuit", "constraints", b.wrapCS.GetNbConstraints(), "elapsed", time.Since(start))
		}
	})
	return b.wrapCS, b.compileErr
}

// Execute runs the program.
func (b *LocalBackend) Execute(ctx context.Context, program *Program, in *Stdin) (*PublicValues, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return program.Run(in)
}

// Setup generates a fresh attestation key and, in SNARK mode, Groth16 keys
// for the wrapper circuit.
func (b *LocalBackend) Setup(ctx context.Context, program *Program, mode ProvingMode) (*ProvingKey, *VerifyingKey, error) {
	if !mode.Valid() {
		return nil, nil, fmt.Errorf("%w: %d", ErrUnknownMode, uint8(mode))
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	ikm := make([]byte, 32)
	if _, err := rand.Read(ikm); err != nil {
		return nil, nil, fmt.Errorf("zkvm: key material: %w", err)
	}
	public, secret, err := crypto.BlstKeyGen(ikm)
	if err != nil {
		return nil, nil, fmt.Errorf("zkvm: attestation key: %w", err)
	}
	pk := &ProvingKey{Mode: mode, Program: program.ID(), secret: secret}
	vk := &VerifyingKey{Mode: mode, Program: program.ID(), public: public}
	if mode == SNARK {
		cs, err := b.wrapper()
		if err != nil {
			return nil, nil, fmt.Errorf("zkvm: compile wrapper: %w", err)
		}
		pk.snark, vk.snark, err = groth16.Setup(cs)
		if err != nil {
			return nil, nil, fmt.Errorf("zkvm: groth16 setup: %w", err)
		}
	}
	b.log.Debug("keys ready", "program", program.Name(), "mode", mode)
	return pk, vk, nil
}

func attestationMessage(program [32]byte, digest [32]byte) []byte {
	h := crypto.SHA256([]byte("zkvm/attestation/"), program[:], digest[:])
	return h[:]
}

// Prove executes the program and proves its public values.
func (b *LocalBackend) Prove(ctx context.Context, pk *ProvingKey, program *Program, in *Stdin) (*Proof, error) {
	if pk.Program != program.ID() {
		return nil, fmt.Errorf("%w: key for %x, program %s", ErrProgramMismatch, pk.Program, program.Name())
	}
	out, err := b.Execute(ctx, program, in)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()
	digest := out.Digest()
	sig, err := crypto.BlstSign(pk.secret, attestationMessage(pk.Program, digest), attestationDST)
	if err != nil {
		return nil, fmt.Errorf("zkvm: attest: %w", err)
	}
	proof := &Proof{Mode: pk.Mode, Program: pk.Program, Data: sig, PublicValues: out.Bytes()}
	if pk.Mode == SNARK {
		if proof.Data, err = b.wrap(pk, digest, sig); err != nil {
			return nil, err
		}
	}
	b.log.Debug("proved", "program", program.Name(), "mode", pk.Mode, "size", len(proof.Data), "elapsed", time.Since(start))
	return proof, nil
}

func (b *LocalBackend) wrap(pk *ProvingKey, digest [32]byte, sig []byte) ([]byte, error) {
	cs, err := b.wrapper()
	if err != nil {
		return nil, fmt.Errorf("zkvm: compile wrapper: %w", err)
	}
	prog, vals, att := toField(pk.Program), toField(digest), toField(crypto.SHA256(sig))
	c, err := commitment(prog, vals, att)
	if err != nil {
		return nil, fmt.Errorf("zkvm: commitment: %w", err)
	}
	w, err := frontend.NewWitness(&wrapCircuit{
		Program:     fieldBig(prog),
		Values:      fieldBig(vals),
		Commitment:  fieldBig(c),
		Attestation: fieldBig(att),
	}, ecc.BN254.ScalarField())
	if err != nil {
		return nil, fmt.Errorf("zkvm: witness: %w", err)
	}
	proof, err := groth16.Prove(cs, pk.snark, w)
	if err != nil {
		return nil, fmt.Errorf("zkvm: groth16 prove: %w", err)
	}
	cb := c.Bytes()
	var buf bytes.Buffer
	buf.Write(cb[:])
	if _, err := proof.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("zkvm: serialize proof: %w", err)
	}
	return buf.Bytes(), nil
}

// Verify checks the proof against vk.
func (b *LocalBackend) Verify(ctx context.Context, vk *VerifyingKey, proof *Proof) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if vk.Mode != proof.Mode {
		return fmt.Errorf("%w: %s key, %s proof", ErrModeMismatch, vk.Mode, proof.Mode)
	}
	if vk.Program != proof.Program {
		return fmt.Errorf("%w: key for %x, proof for %x", ErrProgramMismatch, vk.Program, proof.Program)
	}
	values, err := proof.Values()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidProof, err)
	}
	digest := values.Digest()
	switch proof.Mode {
	case STARK:
		if len(proof.Data) != attestationLen || !crypto.Verify(vk.public, attestationMessage(vk.Program, digest), proof.Data, attestationDST) {
			return fmt.Errorf("%w: attestation", ErrInvalidProof)
		}
		return nil
	case SNARK:
		return verifyWrapped(vk, digest, proof.Data)
	default:
		return fmt.Errorf("%w: %d", ErrUnknownMode, uint8(proof.Mode))
	}
}

func verifyWrapped(vk *VerifyingKey, digest [32]byte, data []byte) error {
	if len(data) <= commitmentLen {
		return fmt.Errorf("%w: %d bytes", ErrInvalidProof, len(data))
	}
	var c fr.Element
	if err := c.SetBytesCanonical(data[:commitmentLen]); err != nil {
		return fmt.Errorf("%w: commitment: %v", ErrInvalidProof, err)
	}
	proof := groth16.NewProof(ecc.BN254)
	if _, err := proof.ReadFrom(bytes.NewReader(data[commitmentLen:])); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidProof, err)
	}
	public, err := frontend.NewWitness(&wrapCircuit{
		Program:    fieldBig(toField(vk.Program)),
		Values:     fieldBig(toField(digest)),
		Commitment: fieldBig(c),
	}, ecc.BN254.ScalarField(), frontend.PublicOnly())
	if err != nil {
		return fmt.Errorf("zkvm: public witness: %w", err)
	}
	if err := groth16.Verify(proof, vk.snark, public); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidProof, err)
	}
	return nil
}
