package proofs

import (
	"errors"

	"github.com/larskuhtz/zk-light-clients/aptos"
	"github.com/larskuhtz/zk-light-clients/ethereum"
	"github.com/larskuhtz/zk-light-clients/kadena"
	"github.com/larskuhtz/zk-light-clients/programs"
	"github.com/larskuhtz/zk-light-clients/zkvm"
)

var errMissingInput = errors.New("proofs: missing input")

// CommitteeChangeIn is the input of the committee change program.
type CommitteeChangeIn struct {
	Store  *ethereum.Store
	Update *ethereum.Update
}

// StorageInclusionIn is the input of the storage inclusion program.
type StorageInclusionIn struct {
	Store   *ethereum.Store
	Update  *ethereum.Update
	Storage *ethereum.StorageProof
}

// AccountInclusionIn is the input of the Aptos account inclusion program.
type AccountInclusionIn struct {
	Proof     *aptos.SparseMerkleProof
	Key       [aptos.HashLen]byte
	ValueHash [aptos.HashLen]byte
	Root      [aptos.HashLen]byte
}

type (
	// CommitteeChangeProver proves sync committee updates.
	CommitteeChangeProver = Pipeline[CommitteeChangeIn, *programs.CommitteeChangeOutput]
	// StorageInclusionProver proves storage slots under a new finalized header.
	StorageInclusionProver = Pipeline[StorageInclusionIn, *programs.StorageInclusionOutput]
	// AccountInclusionProver proves Aptos account inclusion.
	AccountInclusionProver = Pipeline[AccountInclusionIn, *programs.AccountInclusionOutput]
	// LongestChainProver proves a Chainweb longest-chain window.
	LongestChainProver = Pipeline[[]*kadena.LayerHeader, *kadena.Window]
)

var (
	_ Prover[CommitteeChangeIn, *programs.CommitteeChangeOutput]   = (*CommitteeChangeProver)(nil)
	_ Prover[StorageInclusionIn, *programs.StorageInclusionOutput] = (*StorageInclusionProver)(nil)
	_ Prover[AccountInclusionIn, *programs.AccountInclusionOutput] = (*AccountInclusionProver)(nil)
	_ Prover[[]*kadena.LayerHeader, *kadena.Window]                = (*LongestChainProver)(nil)
)

// NewCommitteeChangeProver returns an uninitialized committee change prover.
func NewCommitteeChangeProver(backend zkvm.Backend, opts ...Option) *CommitteeChangeProver {
	return newPipeline(backend, programs.CommitteeChange, encodeCommitteeChange, programs.DecodeCommitteeChangeOutput, opts)
}

// NewStorageInclusionProver returns an uninitialized storage inclusion prover.
func NewStorageInclusionProver(backend zkvm.Backend, opts ...Option) *StorageInclusionProver {
	return newPipeline(backend, programs.StorageInclusion, encodeStorageInclusion, programs.DecodeStorageInclusionOutput, opts)
}

// NewAccountInclusionProver returns an uninitialized account inclusion prover.
func NewAccountInclusionProver(backend zkvm.Backend, opts ...Option) *AccountInclusionProver {
	return newPipeline(backend, programs.AccountInclusion, encodeAccountInclusion, programs.DecodeAccountInclusionOutput, opts)
}

// NewLongestChainProver returns an uninitialized longest chain prover.
func NewLongestChainProver(backend zkvm.Backend, opts ...Option) *LongestChainProver {
	return newPipeline(backend, programs.LongestChain, encodeLongestChain, programs.DecodeLongestChainOutput, opts)
}

func writeSSZ(s *zkvm.Stdin, values ...interface{ MarshalSSZ() ([]byte, error) }) error {
	for _, v := range values {
		b, err := v.MarshalSSZ()
		if err != nil {
			return err
		}
		s.Write(b)
	}
	return nil
}

func encodeCommitteeChange(in CommitteeChangeIn) (*zkvm.Stdin, error) {
	if in.Store == nil || in.Update == nil {
		return nil, errMissingInput
	}
	s := zkvm.NewStdin()
	if err := writeSSZ(s, in.Store, in.Update); err != nil {
		return nil, err
	}
	return s, nil
}

func encodeStorageInclusion(in StorageInclusionIn) (*zkvm.Stdin, error) {
	if in.Store == nil || in.Update == nil || in.Storage == nil {
		return nil, errMissingInput
	}
	s := zkvm.NewStdin()
	if err := writeSSZ(s, in.Store, in.Update); err != nil {
		return nil, err
	}
	b, err := in.Storage.MarshalRLP()
	if err != nil {
		return nil, err
	}
	s.Write(b)
	return s, nil
}

func encodeAccountInclusion(in AccountInclusionIn) (*zkvm.Stdin, error) {
	if in.Proof == nil {
		return nil, errMissingInput
	}
	b, err := in.Proof.MarshalBCS()
	if err != nil {
		return nil, err
	}
	s := zkvm.NewStdin()
	s.Write(b)
	s.Write(in.Key[:])
	s.Write(in.ValueHash[:])
	s.Write(in.Root[:])
	return s, nil
}

func encodeLongestChain(layers []*kadena.LayerHeader) (*zkvm.Stdin, error) {
	if len(layers) == 0 {
		return nil, kadena.ErrEmptyHeaders
	}
	s := zkvm.NewStdin()
	s.Write(kadena.EncodeLayerHeaders(layers))
	return s, nil
}
