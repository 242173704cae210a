package ethereum

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/larskuhtz/zk-light-clients/crypto"
	"github.com/larskuhtz/zk-light-clients/merkle"
)

// Validation errors.
var (
	ErrInsufficientParticipation = errors.New("ethereum: sync committee participation below 2/3")
	ErrInvalidSlotOrder          = errors.New("ethereum: invalid slot ordering")
	ErrInvalidFinalityBranch     = errors.New("ethereum: invalid finality branch")
	ErrInvalidCommitteeBranch    = errors.New("ethereum: invalid sync committee branch")
	ErrInvalidExecutionBranch    = errors.New("ethereum: invalid execution payload branch")
	ErrInvalidSignature          = errors.New("ethereum: invalid sync committee signature")
	ErrUnknownCommittee          = errors.New("ethereum: no sync committee for signature period")
	ErrIrrelevantUpdate          = errors.New("ethereum: update does not advance the store")
	ErrBootstrapRoot             = errors.New("ethereum: bootstrap header does not match trusted root")
)

// Well-known fork parameters.
var (
	DomainSyncCommittee = [4]byte{0x07, 0x00, 0x00, 0x00}

	MainnetDenebForkVersion      = [4]byte{0x04, 0x00, 0x00, 0x00}
	MainnetGenesisValidatorsRoot = common.HexToHash("0x4b363db94e286120d76eb905340fdd4e54bfe9f06bf33ff6cf5ad27f511bfe95")
)

// ComputeDomain returns the sync committee signature domain for a fork.
func ComputeDomain(forkVersion [4]byte, genesisValidatorsRoot common.Hash) [32]byte {
	var version [32]byte
	copy(version[:], forkVersion[:])
	forkDataRoot := merkle.SHA256(version, genesisValidatorsRoot)

	var domain [32]byte
	copy(domain[:4], DomainSyncCommittee[:])
	copy(domain[4:], forkDataRoot[:28])
	return domain
}

// SigningRoot returns the message signed by the sync committee for header.
func SigningRoot(header *BeaconBlockHeader, domain [32]byte) [32]byte {
	return merkle.SHA256(header.HashTreeRoot(), domain)
}

func meetsQuorum(participants, total int) bool {
	return participants*3 >= total*2
}

// VerifyExecution checks the execution payload header against the beacon
// block body root.
func (h *LightClientHeader) VerifyExecution() error {
	err := merkle.VerifyBranch(merkle.SHA256, h.Execution.HashTreeRoot(), hashes(h.ExecutionBranch[:]),
		ExecutionBranchDepth, merkle.IndexPath(ExecutionBranchIndex), h.Beacon.BodyRoot)
	if err != nil {
		return fmt.Errorf("%w: slot %d: %v", ErrInvalidExecutionBranch, h.Beacon.Slot, err)
	}
	return nil
}

func hashes(branch []common.Hash) [][32]byte {
	out := make([][32]byte, len(branch))
	for i := range branch {
		out[i] = branch[i]
	}
	return out
}

// SignerCommittee returns the committee expected to sign an update with the
// given signature slot.
func (s *Store) SignerCommittee(signatureSlot uint64) (*SyncCommittee, error) {
	switch SyncPeriod(signatureSlot) {
	case s.Period():
		return &s.CurrentSyncCommittee, nil
	case s.Period() + 1:
		if s.NextSyncCommittee != nil {
			return s.NextSyncCommittee, nil
		}
	}
	return nil, fmt.Errorf("%w: signature slot %d, store period %d", ErrUnknownCommittee, signatureSlot, s.Period())
}

// ValidateUpdate checks an update against the store without modifying it.
func (s *Store) ValidateUpdate(u *Update) error {
	participants := u.SyncAggregate.Participants()
	if !meetsQuorum(participants, SyncCommitteeSize) {
		return fmt.Errorf("%w: %d of %d", ErrInsufficientParticipation, participants, SyncCommitteeSize)
	}

	attested, finalized := &u.AttestedHeader.Beacon, &u.FinalizedHeader.Beacon
	if !(u.SignatureSlot > attested.Slot && attested.Slot >= finalized.Slot) {
		return fmt.Errorf("%w: signature %d, attested %d, finalized %d",
			ErrInvalidSlotOrder, u.SignatureSlot, attested.Slot, finalized.Slot)
	}
	if finalized.Slot < s.FinalizedHeader.Beacon.Slot {
		return fmt.Errorf("%w: finalized slot %d behind store slot %d",
			ErrIrrelevantUpdate, finalized.Slot, s.FinalizedHeader.Beacon.Slot)
	}
	signer, err := s.SignerCommittee(u.SignatureSlot)
	if err != nil {
		return err
	}

	if err := u.AttestedHeader.VerifyExecution(); err != nil {
		return err
	}
	if err := u.FinalizedHeader.VerifyExecution(); err != nil {
		return err
	}
	err = merkle.VerifyBranch(merkle.SHA256, finalized.HashTreeRoot(), hashes(u.FinalityBranch[:]),
		FinalityBranchDepth, merkle.IndexPath(FinalityBranchIndex), attested.StateRoot)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidFinalityBranch, err)
	}
	err = merkle.VerifyBranch(merkle.SHA256, u.NextSyncCommittee.HashTreeRoot(), hashes(u.NextSyncCommitteeBranch[:]),
		NextSyncCommitteeDepth, merkle.IndexPath(NextSyncCommitteeIndex), attested.StateRoot)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidCommitteeBranch, err)
	}

	pubkeys := make([][]byte, 0, participants)
	for i := range signer.Pubkeys {
		if u.SyncAggregate.Signed(i) {
			pubkeys = append(pubkeys, signer.Pubkeys[i][:])
		}
	}
	root := SigningRoot(attested, ComputeDomain(s.ForkVersion, s.GenesisValidatorsRoot))
	if !crypto.FastAggregateVerify(pubkeys, root[:], u.SyncAggregate.Signature[:]) {
		return ErrInvalidSignature
	}
	return nil
}

// ProcessUpdate validates an update and applies it. An update finalizing a
// header in the next period rotates the committees.
func (s *Store) ProcessUpdate(u *Update) error {
	if err := s.ValidateUpdate(u); err != nil {
		return err
	}
	storePeriod := s.Period()
	updatePeriod := SyncPeriod(u.FinalizedHeader.Beacon.Slot)
	next := u.NextSyncCommittee

	switch {
	case s.NextSyncCommittee == nil:
		if updatePeriod != storePeriod {
			return fmt.Errorf("%w: next committee unknown, update period %d", ErrIrrelevantUpdate, updatePeriod)
		}
		s.NextSyncCommittee = &next
	case updatePeriod == storePeriod+1:
		s.CurrentSyncCommittee = *s.NextSyncCommittee
		s.NextSyncCommittee = &next
	}
	if u.FinalizedHeader.Beacon.Slot > s.FinalizedHeader.Beacon.Slot {
		s.FinalizedHeader = u.FinalizedHeader
	}
	return nil
}

// Verify checks the bootstrap against a trusted block root and returns the
// initial store.
func (b *Bootstrap) Verify(trustedRoot common.Hash, forkVersion [4]byte, genesisValidatorsRoot common.Hash) (*Store, error) {
	if root := b.Header.Beacon.HashTreeRoot(); root != trustedRoot {
		return nil, fmt.Errorf("%w: have %s, want %s", ErrBootstrapRoot, root, trustedRoot)
	}
	if err := b.Header.VerifyExecution(); err != nil {
		return nil, err
	}
	err := merkle.VerifyBranch(merkle.SHA256, b.CurrentSyncCommittee.HashTreeRoot(), hashes(b.CurrentSyncCommitteeBranch[:]),
		CurrentSyncCommitteeDepth, merkle.IndexPath(CurrentSyncCommitteeIndex), b.Header.Beacon.StateRoot)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCommitteeBranch, err)
	}
	return &Store{
		FinalizedHeader:       b.Header,
		CurrentSyncCommittee:  b.CurrentSyncCommittee,
		ForkVersion:           forkVersion,
		GenesisValidatorsRoot: genesisValidatorsRoot,
	}, nil
}
