// Package ethereum implements the Ethereum sync-committee light client:
// the Deneb light client containers, their SSZ codecs and hash tree roots,
// and the update validation rules that move a trusted Store forward.
package ethereum

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/larskuhtz/zk-light-clients/ssz"
)

// Consensus constants (mainnet preset).
const (
	SlotsPerEpoch                = 32
	EpochsPerSyncCommitteePeriod = 256
	SyncCommitteeSize            = 512

	// Merkle depths and subtree indices of the generalized indices used by
	// light client proofs.
	NextSyncCommitteeDepth    = 5
	NextSyncCommitteeIndex    = 23 // gindex 55
	CurrentSyncCommitteeDepth = 5
	CurrentSyncCommitteeIndex = 22 // gindex 54
	FinalityBranchDepth       = 6
	FinalityBranchIndex       = 41 // gindex 105
	ExecutionBranchDepth      = 4
	ExecutionBranchIndex      = 9 // gindex 25

	MaxExtraDataBytes = 32
)

// Encoded sizes.
const (
	BLSPubkeyLen    = 48
	BLSSignatureLen = 96

	BeaconBlockHeaderLen       = 8 + 8 + 32 + 32 + 32
	ExecutionPayloadHeaderBase = 584
	LightClientHeaderFixedLen  = BeaconBlockHeaderLen + ssz.BytesPerLengthOffset + ExecutionBranchDepth*32
	LightClientHeaderBaseLen   = LightClientHeaderFixedLen + ExecutionPayloadHeaderBase
	SyncCommitteeLen           = SyncCommitteeSize*BLSPubkeyLen + BLSPubkeyLen
	SyncAggregateLen           = SyncCommitteeSize/8 + BLSSignatureLen
	UpdateFixedLen             = 2*ssz.BytesPerLengthOffset + SyncCommitteeLen + NextSyncCommitteeDepth*32 + FinalityBranchDepth*32 + SyncAggregateLen + 8
	UpdateBaseLen              = 2*LightClientHeaderBaseLen + SyncCommitteeLen + NextSyncCommitteeDepth*32 + FinalityBranchDepth*32 + SyncAggregateLen + 8
	BootstrapFixedLen          = ssz.BytesPerLengthOffset + SyncCommitteeLen + CurrentSyncCommitteeDepth*32
	BootstrapBaseLen           = LightClientHeaderBaseLen + SyncCommitteeLen + CurrentSyncCommitteeDepth*32
)

// BLSPubkey is a compressed BLS12-381 public key.
type BLSPubkey [BLSPubkeyLen]byte

// BLSSignature is a compressed BLS12-381 signature.
type BLSSignature [BLSSignatureLen]byte

// SyncCommitteeBranch proves a sync committee against a beacon state root.
type SyncCommitteeBranch [NextSyncCommitteeDepth]common.Hash

// FinalityBranch proves the finalized block root against a beacon state root.
type FinalityBranch [FinalityBranchDepth]common.Hash

// ExecutionBranch proves the execution payload header against a block body root.
type ExecutionBranch [ExecutionBranchDepth]common.Hash

// BeaconBlockHeader is the consensus layer block header.
type BeaconBlockHeader struct {
	Slot          uint64
	ProposerIndex uint64
	ParentRoot    common.Hash
	StateRoot     common.Hash
	BodyRoot      common.Hash
}

// ExecutionPayloadHeader is the Deneb execution payload header.
type ExecutionPayloadHeader struct {
	ParentHash       common.Hash
	FeeRecipient     common.Address
	StateRoot        common.Hash
	ReceiptsRoot     common.Hash
	LogsBloom        [256]byte
	PrevRandao       common.Hash
	BlockNumber      uint64
	GasLimit         uint64
	GasUsed          uint64
	Timestamp        uint64
	ExtraData        []byte
	BaseFeePerGas    uint256.Int
	BlockHash        common.Hash
	TransactionsRoot common.Hash
	WithdrawalsRoot  common.Hash
	BlobGasUsed      uint64
	ExcessBlobGas    uint64
}

// LightClientHeader pairs a beacon header with the execution payload header
// it commits to.
type LightClientHeader struct {
	Beacon          BeaconBlockHeader
	Execution       ExecutionPayloadHeader
	ExecutionBranch ExecutionBranch
}

// SyncCommittee is the set of validators signing for one period.
type SyncCommittee struct {
	Pubkeys         [SyncCommitteeSize]BLSPubkey
	AggregatePubkey BLSPubkey
}

// SyncAggregate carries the participation bits and the aggregate signature.
type SyncAggregate struct {
	Bits      [SyncCommitteeSize / 8]byte
	Signature BLSSignature
}

// Participants returns the number of committee members that signed.
func (a *SyncAggregate) Participants() int {
	bv, _ := ssz.BitvectorFromBytes(a.Bits[:], SyncCommitteeSize)
	return bv.Count()
}

// Signed reports whether committee member i participated.
func (a *SyncAggregate) Signed(i int) bool {
	return i >= 0 && i < SyncCommitteeSize && a.Bits[i/8]&(1<<(uint(i)%8)) != 0
}

// SyncPeriod returns the sync committee period containing slot.
func SyncPeriod(slot uint64) uint64 {
	return slot / (SlotsPerEpoch * EpochsPerSyncCommitteePeriod)
}
