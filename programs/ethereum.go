package programs

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/larskuhtz/zk-light-clients/ethereum"
	"github.com/larskuhtz/zk-light-clients/zkvm"
)

// CommitteeChange applies a sync committee update to a store.
//
// Stdin: store (SSZ), update (SSZ).
// Public values: finalized slot, signer committee root, current committee
// root and next committee root after the update.
var CommitteeChange = zkvm.NewProgram(CommitteeChangeName, runCommitteeChange)

// StorageInclusion applies an update and proves storage slots of an account
// against the newly finalized execution state root.
//
// Stdin: store (SSZ), update (SSZ), storage proof (RLP).
// Public values: finalized slot, signer committee root, state root,
// address, then one key/value pair per slot.
var StorageInclusion = zkvm.NewProgram(StorageInclusionName, runStorageInclusion)

// applyUpdate decodes a store and an update, applies the update and returns
// the resulting store along with the committee that signed it.
func applyUpdate(r *input) (*ethereum.Store, *ethereum.SyncCommittee, error) {
	storeBytes, updateBytes := r.frame("store"), r.frame("update")
	if r.err != nil {
		return nil, nil, r.err
	}
	store := new(ethereum.Store)
	if err := store.UnmarshalSSZ(storeBytes); err != nil {
		return nil, nil, err
	}
	update := new(ethereum.Update)
	if err := update.UnmarshalSSZ(updateBytes); err != nil {
		return nil, nil, err
	}
	signer, err := store.SignerCommittee(update.SignatureSlot)
	if err != nil {
		return nil, nil, err
	}
	// Rotation replaces the store's committees in place.
	signerCopy := *signer
	if err := store.ProcessUpdate(update); err != nil {
		return nil, nil, err
	}
	return store, &signerCopy, nil
}

func runCommitteeChange(in *zkvm.Stdin, out *zkvm.PublicValues) error {
	r := &input{in: in}
	store, signer, err := applyUpdate(r)
	if err != nil {
		return err
	}
	if err := r.finish(); err != nil {
		return err
	}
	var next common.Hash
	if store.NextSyncCommittee != nil {
		next = store.NextSyncCommittee.HashTreeRoot()
	}
	commitUint64(out, store.FinalizedHeader.Beacon.Slot)
	out.Commit(signer.HashTreeRoot().Bytes())
	out.Commit(store.CurrentSyncCommittee.HashTreeRoot().Bytes())
	out.Commit(next.Bytes())
	return nil
}

func runStorageInclusion(in *zkvm.Stdin, out *zkvm.PublicValues) error {
	r := &input{in: in}
	store, signer, err := applyUpdate(r)
	if err != nil {
		return err
	}
	proofBytes := r.frame("storage proof")
	if err := r.finish(); err != nil {
		return err
	}
	proof := new(ethereum.StorageProof)
	if err := proof.UnmarshalRLP(proofBytes); err != nil {
		return fmt.Errorf("storage proof: %w", err)
	}
	stateRoot := store.FinalizedHeader.Execution.StateRoot
	if _, err := proof.Verify(stateRoot); err != nil {
		return err
	}
	commitUint64(out, store.FinalizedHeader.Beacon.Slot)
	out.Commit(signer.HashTreeRoot().Bytes())
	out.Commit(stateRoot.Bytes())
	out.Commit(proof.Address.Bytes())
	commitUint64(out, uint64(len(proof.StorageSlots)))
	for _, s := range proof.StorageSlots {
		out.Commit(append(s.Key.Bytes(), s.Value.Bytes()...))
	}
	return nil
}

// CommitteeChangeOutput is the public output of CommitteeChange.
type CommitteeChangeOutput struct {
	FinalizedSlot        uint64
	SignerCommitteeRoot  common.Hash
	CurrentCommitteeRoot common.Hash
	NextCommitteeRoot    common.Hash
}

// DecodeCommitteeChangeOutput reads CommitteeChange public values.
func DecodeCommitteeChangeOutput(pv *zkvm.PublicValues) (*CommitteeChangeOutput, error) {
	r := newOutput(pv)
	o := &CommitteeChangeOutput{
		FinalizedSlot:        r.uint64("finalized slot"),
		SignerCommitteeRoot:  r.hash("signer committee root"),
		CurrentCommitteeRoot: r.hash("current committee root"),
		NextCommitteeRoot:    r.hash("next committee root"),
	}
	if err := r.finish(); err != nil {
		return nil, err
	}
	return o, nil
}

// StorageValue is a proven storage slot.
type StorageValue struct {
	Key   common.Hash
	Value common.Hash
}

// StorageInclusionOutput is the public output of StorageInclusion.
type StorageInclusionOutput struct {
	FinalizedSlot       uint64
	SignerCommitteeRoot common.Hash
	StateRoot           common.Hash
	Address             common.Address
	Slots               []StorageValue
}

// DecodeStorageInclusionOutput reads StorageInclusion public values.
func DecodeStorageInclusionOutput(pv *zkvm.PublicValues) (*StorageInclusionOutput, error) {
	r := newOutput(pv)
	o := &StorageInclusionOutput{
		FinalizedSlot:       r.uint64("finalized slot"),
		SignerCommitteeRoot: r.hash("signer committee root"),
		StateRoot:           r.hash("state root"),
		Address:             common.BytesToAddress(r.fixed("address", common.AddressLength)),
	}
	n := r.uint64("slot count")
	if r.err == nil && n > uint64(pv.Len()) {
		return nil, fmt.Errorf("%w: %d slots in %d values", ErrMalformedOutput, n, pv.Len())
	}
	for i := uint64(0); i < n && r.err == nil; i++ {
		b := r.fixed("slot", 2*common.HashLength)
		if r.err == nil {
			o.Slots = append(o.Slots, StorageValue{
				Key:   common.BytesToHash(b[:common.HashLength]),
				Value: common.BytesToHash(b[common.HashLength:]),
			})
		}
	}
	if err := r.finish(); err != nil {
		return nil, err
	}
	return o, nil
}
