// Package ethtest builds self-consistent Ethereum light client fixtures:
// sync committees with real BLS keys, headers whose execution payloads and
// state commitments verify, and EIP-1186 storage proofs.
package ethtest

import (
	"encoding/binary"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/larskuhtz/zk-light-clients/crypto"
	"github.com/larskuhtz/zk-light-clients/ethereum"
	"github.com/larskuhtz/zk-light-clients/merkle"
)

// DistinctKeys is the number of distinct BLS keys in a test committee.
// Members repeat the keys round-robin, which keeps signing cheap.
const DistinctKeys = 8

// ForkVersion and GenesisValidatorsRoot are the fork parameters of fixtures.
var (
	ForkVersion           = ethereum.MainnetDenebForkVersion
	GenesisValidatorsRoot = ethereum.MainnetGenesisValidatorsRoot
)

// Committee is a sync committee together with its secret keys.
type Committee struct {
	ethereum.SyncCommittee
	secrets [DistinctKeys][]byte
}

// NewCommittee derives a committee deterministically from seed.
func NewCommittee(seed byte) (*Committee, error) {
	c := new(Committee)
	var pubkeys [DistinctKeys][]byte
	for i := range pubkeys {
		ikm := crypto.SHA256([]byte("ethtest committee"), []byte{seed, byte(i)})
		pk, sk, err := crypto.BlstKeyGen(ikm[:])
		if err != nil {
			return nil, err
		}
		pubkeys[i], c.secrets[i] = pk, sk
	}
	all := make([][]byte, ethereum.SyncCommitteeSize)
	for i := range c.Pubkeys {
		copy(c.Pubkeys[i][:], pubkeys[i%DistinctKeys])
		all[i] = pubkeys[i%DistinctKeys]
	}
	agg, err := crypto.BlstAggregatePubkeys(all)
	if err != nil {
		return nil, err
	}
	copy(c.AggregatePubkey[:], agg)
	return c, nil
}

// Sign returns a sync aggregate in which the first participants members
// signed msg.
func (c *Committee) Sign(msg []byte, participants int) (ethereum.SyncAggregate, error) {
	var agg ethereum.SyncAggregate
	if participants <= 0 || participants > ethereum.SyncCommitteeSize {
		return agg, fmt.Errorf("ethtest: invalid participant count %d", participants)
	}
	var sigs [DistinctKeys][]byte
	for i := range sigs {
		sig, err := crypto.BlstSign(c.secrets[i], msg, crypto.EthereumDST)
		if err != nil {
			return agg, err
		}
		sigs[i] = sig
	}
	list := make([][]byte, participants)
	for i := range list {
		list[i] = sigs[i%DistinctKeys]
		agg.Bits[i/8] |= 1 << (uint(i) % 8)
	}
	sig, err := crypto.BlstAggregateSigs(list)
	if err != nil {
		return agg, err
	}
	copy(agg.Signature[:], sig)
	return agg, nil
}

// gindexTree is a full binary tree of the given depth in which some
// generalized indices are pinned to fixed node values. Unpinned leaves are
// filled with deterministic noise.
type gindexTree struct {
	nodes [][32]byte
}

func newGindexTree(depth int, pinned map[uint64][32]byte) *gindexTree {
	n := uint64(1) << uint(depth)
	t := &gindexTree{nodes: make([][32]byte, 2*n)}
	for g := n; g < 2*n; g++ {
		var buf [8]byte
		binary.LittleEndian.PutUint64(buf[:], g)
		t.nodes[g] = crypto.SHA256([]byte("ethtest leaf"), buf[:])
	}
	for g := 2*n - 1; g >= 1; g-- {
		if v, ok := pinned[g]; ok {
			t.nodes[g] = v
		} else if g < n {
			t.nodes[g] = merkle.SHA256(t.nodes[2*g], t.nodes[2*g+1])
		}
	}
	return t
}

func (t *gindexTree) root() common.Hash { return t.nodes[1] }

func (t *gindexTree) branch(g uint64) []common.Hash {
	var out []common.Hash
	for ; g > 1; g >>= 1 {
		out = append(out, t.nodes[g^1])
	}
	return out
}

func gindex(depth int, index uint64) uint64 {
	return 1<<uint(depth) | index
}

// NewExecution returns an execution payload header for a block number with
// the given state root.
func NewExecution(number uint64, stateRoot common.Hash) ethereum.ExecutionPayloadHeader {
	h := ethereum.ExecutionPayloadHeader{
		StateRoot:   stateRoot,
		BlockNumber: number,
		GasLimit:    30_000_000,
		GasUsed:     number % 30_000_000,
		Timestamp:   1_700_000_000 + 12*number,
		ExtraData:   []byte("ethtest"),
	}
	h.BaseFeePerGas.SetUint64(7 + number)
	h.BlockHash = crypto.SHA256([]byte("ethtest block"), h.StateRoot[:], binary.LittleEndian.AppendUint64(nil, number))
	h.FeeRecipient = common.BytesToAddress(h.BlockHash[:20])
	return h
}

// NewHeader builds a light client header at slot whose execution branch
// verifies against the beacon body root. stateRoot is the beacon state root.
func NewHeader(slot uint64, stateRoot common.Hash, execution ethereum.ExecutionPayloadHeader) ethereum.LightClientHeader {
	g := gindex(ethereum.ExecutionBranchDepth, ethereum.ExecutionBranchIndex)
	body := newGindexTree(ethereum.ExecutionBranchDepth, map[uint64][32]byte{g: execution.HashTreeRoot()})
	h := ethereum.LightClientHeader{
		Beacon: ethereum.BeaconBlockHeader{
			Slot:          slot,
			ProposerIndex: slot % 1000,
			ParentRoot:    crypto.SHA256([]byte("ethtest parent"), binary.LittleEndian.AppendUint64(nil, slot)),
			StateRoot:     stateRoot,
			BodyRoot:      body.root(),
		},
		Execution: execution,
	}
	copy(h.ExecutionBranch[:], body.branch(g))
	return h
}

// UpdateParams describes the update built by NewUpdate.
type UpdateParams struct {
	FinalizedSlot uint64
	AttestedSlot  uint64
	SignatureSlot uint64
	Participants  int
	// Execution is the payload of the finalized header.
	Execution ethereum.ExecutionPayloadHeader
}

// NewUpdate builds an update signed by signer that finalizes a header at
// p.FinalizedSlot and carries next as the next sync committee.
func NewUpdate(signer, next *Committee, p UpdateParams) (*ethereum.Update, error) {
	finalized := NewHeader(p.FinalizedSlot, crypto.SHA256([]byte("ethtest finalized state"), binary.LittleEndian.AppendUint64(nil, p.FinalizedSlot)), p.Execution)

	finalizedG := gindex(ethereum.FinalityBranchDepth, ethereum.FinalityBranchIndex)
	committeeG := gindex(ethereum.NextSyncCommitteeDepth, ethereum.NextSyncCommitteeIndex)
	state := newGindexTree(ethereum.FinalityBranchDepth, map[uint64][32]byte{
		finalizedG: finalized.Beacon.HashTreeRoot(),
		committeeG: next.SyncCommittee.HashTreeRoot(),
	})
	attested := NewHeader(p.AttestedSlot, state.root(), NewExecution(p.Execution.BlockNumber+1, p.Execution.StateRoot))

	u := &ethereum.Update{
		AttestedHeader:    attested,
		NextSyncCommittee: next.SyncCommittee,
		FinalizedHeader:   finalized,
		SignatureSlot:     p.SignatureSlot,
	}
	copy(u.NextSyncCommitteeBranch[:], state.branch(committeeG))
	copy(u.FinalityBranch[:], state.branch(finalizedG))

	root := ethereum.SigningRoot(&attested.Beacon, ethereum.ComputeDomain(ForkVersion, GenesisValidatorsRoot))
	agg, err := signer.Sign(root[:], p.Participants)
	if err != nil {
		return nil, err
	}
	u.SyncAggregate = agg
	return u, nil
}

// NewBootstrap builds a bootstrap at slot for committee and returns it
// with the trusted block root it verifies against.
func NewBootstrap(committee *Committee, slot uint64) (*ethereum.Bootstrap, common.Hash) {
	committeeG := gindex(ethereum.CurrentSyncCommitteeDepth, ethereum.CurrentSyncCommitteeIndex)
	state := newGindexTree(ethereum.CurrentSyncCommitteeDepth, map[uint64][32]byte{
		committeeG: committee.SyncCommittee.HashTreeRoot(),
	})
	b := &ethereum.Bootstrap{
		Header:               NewHeader(slot, state.root(), NewExecution(slot, common.Hash{0x01})),
		CurrentSyncCommittee: committee.SyncCommittee,
	}
	copy(b.CurrentSyncCommitteeBranch[:], state.branch(committeeG))
	return b, b.Header.Beacon.HashTreeRoot()
}

// NewStore returns a store finalized at slot with current as its committee
// and next, if non-nil, as the next committee.
func NewStore(current, next *Committee, slot uint64) *ethereum.Store {
	s := &ethereum.Store{
		FinalizedHeader:       NewHeader(slot, common.Hash{0x02}, NewExecution(slot, common.Hash{0x03})),
		CurrentSyncCommittee:  current.SyncCommittee,
		ForkVersion:           ForkVersion,
		GenesisValidatorsRoot: GenesisValidatorsRoot,
	}
	if next != nil {
		committee := next.SyncCommittee
		s.NextSyncCommittee = &committee
	}
	return s
}
