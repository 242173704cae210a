package node

import (
	"context"
	"errors"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/larskuhtz/zk-light-clients/aptos"
	"github.com/larskuhtz/zk-light-clients/ethereum"
	"github.com/larskuhtz/zk-light-clients/kadena"
	"github.com/larskuhtz/zk-light-clients/log"
	"github.com/larskuhtz/zk-light-clients/metrics"
	"github.com/larskuhtz/zk-light-clients/proofs"
	"github.com/larskuhtz/zk-light-clients/zkvm"
)

var errNilProof = errors.New("node: missing proof")

// Provers is the set of pipelines served by the proof server.
type Provers struct {
	CommitteeChange  *proofs.CommitteeChangeProver
	StorageInclusion *proofs.StorageInclusionProver
	AccountInclusion *proofs.AccountInclusionProver
	LongestChain     *proofs.LongestChainProver
}

// NewProvers binds every program to backend.
func NewProvers(backend zkvm.Backend, opts ...proofs.Option) *Provers {
	return &Provers{
		CommitteeChange:  proofs.NewCommitteeChangeProver(backend, opts...),
		StorageInclusion: proofs.NewStorageInclusionProver(backend, opts...),
		AccountInclusion: proofs.NewAccountInclusionProver(backend, opts...),
		LongestChain:     proofs.NewLongestChainProver(backend, opts...),
	}
}

// Setup generates keys for every pipeline.
func (p *Provers) Setup(ctx context.Context) error {
	for _, setup := range []func(context.Context) error{
		p.CommitteeChange.Setup,
		p.StorageInclusion.Setup,
		p.AccountInclusion.Setup,
		p.LongestChain.Setup,
	} {
		if err := setup(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Ready reports whether every pipeline holds keys.
func (p *Provers) Ready() bool {
	return p.CommitteeChange.State() == proofs.KeysReady &&
		p.StorageInclusion.State() == proofs.KeysReady &&
		p.AccountInclusion.State() == proofs.KeysReady &&
		p.LongestChain.State() == proofs.KeysReady
}

// ProverAPI is the "prover" JSON-RPC namespace. Inputs travel in their wire
// encodings: SSZ for beacon types, RLP for storage proofs, BCS for Aptos
// proofs and the layer list framing for Chainweb headers.
type ProverAPI struct {
	provers *Provers
	metrics *metrics.ProverMetrics
	log     *log.Logger
}

// NewProverAPI serves provers.
func NewProverAPI(provers *Provers, m *metrics.ProverMetrics, logger *log.Logger) *ProverAPI {
	if logger == nil {
		logger = log.Default()
	}
	return &ProverAPI{provers: provers, metrics: m, log: logger.Module("api")}
}

// verified maps proof rejections to false. Other failures, such as missing
// keys, stay errors.
func verified(err error) (bool, error) {
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, zkvm.ErrInvalidProof),
		errors.Is(err, zkvm.ErrModeMismatch),
		errors.Is(err, zkvm.ErrProgramMismatch),
		errors.Is(err, zkvm.ErrUnknownMode):
		return false, nil
	default:
		return false, err
	}
}

func (api *ProverAPI) request(method string) {
	api.metrics.Request(method)
	api.log.Debug("request", "method", method)
}

// Health reports whether the server can prove.
func (api *ProverAPI) Health() bool {
	api.request("health")
	return api.provers.Ready()
}

func decodeStoreUpdate(store, update hexutil.Bytes) (*ethereum.Store, *ethereum.Update, error) {
	s := new(ethereum.Store)
	if err := s.UnmarshalSSZ(store); err != nil {
		return nil, nil, err
	}
	u := new(ethereum.Update)
	if err := u.UnmarshalSSZ(update); err != nil {
		return nil, nil, err
	}
	return s, u, nil
}

// ProveCommitteeChange proves a sync committee change.
func (api *ProverAPI) ProveCommitteeChange(ctx context.Context, mode zkvm.ProvingMode, store, update hexutil.Bytes) (*zkvm.Proof, error) {
	api.request("proveCommitteeChange")
	s, u, err := decodeStoreUpdate(store, update)
	if err != nil {
		return nil, err
	}
	return api.provers.CommitteeChange.Prove(ctx, proofs.CommitteeChangeIn{Store: s, Update: u}, mode)
}

// VerifyCommitteeChange verifies a committee change proof.
func (api *ProverAPI) VerifyCommitteeChange(ctx context.Context, proof *zkvm.Proof) (bool, error) {
	api.request("verifyCommitteeChange")
	if proof == nil {
		return false, errNilProof
	}
	return verified(api.provers.CommitteeChange.Verify(ctx, proof))
}

// ProveStorageInclusion proves storage slots under a new finalized header.
func (api *ProverAPI) ProveStorageInclusion(ctx context.Context, mode zkvm.ProvingMode, store, update, storage hexutil.Bytes) (*zkvm.Proof, error) {
	api.request("proveStorageInclusion")
	s, u, err := decodeStoreUpdate(store, update)
	if err != nil {
		return nil, err
	}
	p := new(ethereum.StorageProof)
	if err := p.UnmarshalRLP(storage); err != nil {
		return nil, err
	}
	return api.provers.StorageInclusion.Prove(ctx, proofs.StorageInclusionIn{Store: s, Update: u, Storage: p}, mode)
}

// VerifyStorageInclusion verifies a storage inclusion proof.
func (api *ProverAPI) VerifyStorageInclusion(ctx context.Context, proof *zkvm.Proof) (bool, error) {
	api.request("verifyStorageInclusion")
	if proof == nil {
		return false, errNilProof
	}
	return verified(api.provers.StorageInclusion.Verify(ctx, proof))
}

// ProveAccountInclusion proves an Aptos account leaf under root.
func (api *ProverAPI) ProveAccountInclusion(ctx context.Context, mode zkvm.ProvingMode, proof hexutil.Bytes, key, valueHash, root common.Hash) (*zkvm.Proof, error) {
	api.request("proveAccountInclusion")
	p := new(aptos.SparseMerkleProof)
	if err := p.UnmarshalBCS(proof); err != nil {
		return nil, err
	}
	return api.provers.AccountInclusion.Prove(ctx, proofs.AccountInclusionIn{
		Proof:     p,
		Key:       key,
		ValueHash: valueHash,
		Root:      root,
	}, mode)
}

// VerifyAccountInclusion verifies an account inclusion proof.
func (api *ProverAPI) VerifyAccountInclusion(ctx context.Context, proof *zkvm.Proof) (bool, error) {
	api.request("verifyAccountInclusion")
	if proof == nil {
		return false, errNilProof
	}
	return verified(api.provers.AccountInclusion.Verify(ctx, proof))
}

// ProveLongestChain proves the work and roots of a layer window.
func (api *ProverAPI) ProveLongestChain(ctx context.Context, mode zkvm.ProvingMode, layers hexutil.Bytes) (*zkvm.Proof, error) {
	api.request("proveLongestChain")
	l, err := kadena.DecodeLayerHeaders(layers)
	if err != nil {
		return nil, err
	}
	return api.provers.LongestChain.Prove(ctx, l, mode)
}

// VerifyLongestChain verifies a longest chain proof.
func (api *ProverAPI) VerifyLongestChain(ctx context.Context, proof *zkvm.Proof) (bool, error) {
	api.request("verifyLongestChain")
	if proof == nil {
		return false, errNilProof
	}
	return verified(api.provers.LongestChain.Verify(ctx, proof))
}
