// Package proofs drives guest programs through a proving backend. Each
// prover binds one program to typed inputs and outputs: it serializes the
// input into stdin frames, executes or proves the program, verifies proofs
// with its own verifying keys, and decodes the committed public values.
package proofs

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/larskuhtz/zk-light-clients/log"
	"github.com/larskuhtz/zk-light-clients/metrics"
	"github.com/larskuhtz/zk-light-clients/zkvm"
)

// ErrKeysNotReady is returned by Prove and Verify before Setup succeeded.
var ErrKeysNotReady = errors.New("proofs: keys not ready")

// Prover is the proof pipeline for one program.
type Prover[In, Out any] interface {
	// Setup generates the STARK and SNARK key pairs once.
	Setup(ctx context.Context) error
	// Stdin serializes in, in the order the program reads it.
	Stdin(in In) (*zkvm.Stdin, error)
	// Execute runs the program without proving and decodes its output.
	Execute(ctx context.Context, in In) (Out, error)
	// Prove proves the program on in with the given mode.
	Prove(ctx context.Context, in In, mode zkvm.ProvingMode) (*zkvm.Proof, error)
	// Verify checks a proof with the verifying key of its mode.
	Verify(ctx context.Context, proof *zkvm.Proof) error
	// Output decodes the public values carried by a proof.
	Output(proof *zkvm.Proof) (Out, error)
}

// State is the key state of a pipeline.
type State uint8

const (
	// Uninitialized pipelines can execute but not prove or verify.
	Uninitialized State = iota
	// KeysReady pipelines hold keys for both modes.
	KeysReady
)

func (s State) String() string {
	if s == KeysReady {
		return "keys-ready"
	}
	return "uninitialized"
}

// ProverError wraps a failure of a pipeline operation.
type ProverError struct {
	Op      string
	Program string
	Mode    zkvm.ProvingMode // zero for mode-less operations
	Err     error
}

func (e *ProverError) Error() string {
	if e.Mode == 0 {
		return fmt.Sprintf("proofs: %s %s: %v", e.Op, e.Program, e.Err)
	}
	return fmt.Sprintf("proofs: %s %s (%s): %v", e.Op, e.Program, e.Mode, e.Err)
}

func (e *ProverError) Unwrap() error { return e.Err }

type keyPair struct {
	pk *zkvm.ProvingKey
	vk *zkvm.VerifyingKey
}

// Option configures a pipeline.
type Option func(*options)

type options struct {
	log     *log.Logger
	metrics *metrics.ProverMetrics
}

// WithLogger sets the pipeline logger.
func WithLogger(l *log.Logger) Option { return func(o *options) { o.log = l } }

// WithMetrics records pipeline operations in m.
func WithMetrics(m *metrics.ProverMetrics) Option { return func(o *options) { o.metrics = m } }

// Pipeline implements Prover for a program given input and output codecs.
type Pipeline[In, Out any] struct {
	backend zkvm.Backend
	program *zkvm.Program
	encode  func(In) (*zkvm.Stdin, error)
	decode  func(*zkvm.PublicValues) (Out, error)
	log     *log.Logger
	metrics *metrics.ProverMetrics

	mu   sync.RWMutex
	keys map[zkvm.ProvingMode]keyPair
}

func newPipeline[In, Out any](backend zkvm.Backend, program *zkvm.Program,
	encode func(In) (*zkvm.Stdin, error), decode func(*zkvm.PublicValues) (Out, error), opts []Option,
) *Pipeline[In, Out] {
	o := options{log: log.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	return &Pipeline[In, Out]{
		backend: backend,
		program: program,
		encode:  encode,
		decode:  decode,
		log:     o.log.Module("proofs").With("program", program.Name()),
		metrics: o.metrics,
	}
}

func (p *Pipeline[In, Out]) fail(op string, mode zkvm.ProvingMode, err error) error {
	return &ProverError{Op: op, Program: p.program.Name(), Mode: mode, Err: err}
}

// Program returns the bound program.
func (p *Pipeline[In, Out]) Program() *zkvm.Program { return p.program }

// State reports whether Setup has completed.
func (p *Pipeline[In, Out]) State() State {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.keys == nil {
		return Uninitialized
	}
	return KeysReady
}

// Setup generates key pairs for both modes. Keys are installed only when
// both succeed; later calls are no-ops.
func (p *Pipeline[In, Out]) Setup(ctx context.Context) (err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.keys != nil {
		return nil
	}
	start := time.Now()
	defer func() { p.metrics.Observe(p.program.Name(), metrics.OpSetup, "", start, err) }()

	keys := make(map[zkvm.ProvingMode]keyPair, 2)
	for _, mode := range []zkvm.ProvingMode{zkvm.STARK, zkvm.SNARK} {
		pk, vk, err := p.backend.Setup(ctx, p.program, mode)
		if err != nil {
			return p.fail("setup", mode, err)
		}
		keys[mode] = keyPair{pk, vk}
	}
	p.keys = keys
	p.log.Info("keys ready", "elapsed", time.Since(start))
	return nil
}

func (p *Pipeline[In, Out]) key(mode zkvm.ProvingMode) (keyPair, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.keys == nil {
		return keyPair{}, ErrKeysNotReady
	}
	kp, ok := p.keys[mode]
	if !ok {
		return keyPair{}, fmt.Errorf("%w: %d", zkvm.ErrUnknownMode, uint8(mode))
	}
	return kp, nil
}

// Stdin serializes in.
func (p *Pipeline[In, Out]) Stdin(in In) (*zkvm.Stdin, error) {
	s, err := p.encode(in)
	if err != nil {
		return nil, p.fail("stdin", 0, err)
	}
	return s, nil
}

// Execute runs the program on in and decodes its public values.
func (p *Pipeline[In, Out]) Execute(ctx context.Context, in In) (out Out, err error) {
	start := time.Now()
	defer func() { p.metrics.Observe(p.program.Name(), metrics.OpExecute, "", start, err) }()

	stdin, err := p.Stdin(in)
	if err != nil {
		return out, err
	}
	values, err := p.backend.Execute(ctx, p.program, stdin)
	if err != nil {
		return out, p.fail("execute", 0, err)
	}
	if out, err = p.decode(values); err != nil {
		return out, p.fail("execute", 0, err)
	}
	p.log.Debug("executed", "elapsed", time.Since(start))
	return out, nil
}

// Prove proves the program on in. Both modes use the same stdin.
func (p *Pipeline[In, Out]) Prove(ctx context.Context, in In, mode zkvm.ProvingMode) (proof *zkvm.Proof, err error) {
	start := time.Now()
	defer func() { p.metrics.Observe(p.program.Name(), metrics.OpProve, mode.String(), start, err) }()

	kp, err := p.key(mode)
	if err != nil {
		return nil, p.fail("prove", mode, err)
	}
	stdin, err := p.Stdin(in)
	if err != nil {
		return nil, err
	}
	if proof, err = p.backend.Prove(ctx, kp.pk, p.program, stdin); err != nil {
		return nil, p.fail("prove", mode, err)
	}
	p.log.Info("proved", "mode", mode, "elapsed", time.Since(start))
	return proof, nil
}

// Verify checks proof against the verifying key of its mode.
func (p *Pipeline[In, Out]) Verify(ctx context.Context, proof *zkvm.Proof) (err error) {
	start := time.Now()
	defer func() { p.metrics.Observe(p.program.Name(), metrics.OpVerify, proof.Mode.String(), start, err) }()

	kp, err := p.key(proof.Mode)
	if err != nil {
		return p.fail("verify", proof.Mode, err)
	}
	if err := p.backend.Verify(ctx, kp.vk, proof); err != nil {
		return p.fail("verify", proof.Mode, err)
	}
	return nil
}

// Output decodes the public values of proof.
func (p *Pipeline[In, Out]) Output(proof *zkvm.Proof) (out Out, err error) {
	values, err := proof.Values()
	if err != nil {
		return out, p.fail("output", proof.Mode, err)
	}
	if out, err = p.decode(values); err != nil {
		return out, p.fail("output", proof.Mode, err)
	}
	return out, nil
}
