package ethereum

import (
	"github.com/ethereum/go-ethereum/common"

	"github.com/larskuhtz/zk-light-clients/ssz"
)

var (
	_ ssz.Marshaler   = (*Update)(nil)
	_ ssz.Unmarshaler = (*Update)(nil)
	_ ssz.Marshaler   = (*Bootstrap)(nil)
	_ ssz.Unmarshaler = (*Bootstrap)(nil)
)

func branchRoot(branch []common.Hash) [32]byte {
	roots := make([][32]byte, len(branch))
	for i := range branch {
		roots[i] = branch[i]
	}
	return ssz.HashTreeRootVector(roots)
}

// HashTreeRoot returns the SSZ root of the header, which is the block root.
func (h *BeaconBlockHeader) HashTreeRoot() common.Hash {
	return ssz.HashTreeRootContainer([][32]byte{
		ssz.HashTreeRootUint64(h.Slot),
		ssz.HashTreeRootUint64(h.ProposerIndex),
		h.ParentRoot,
		h.StateRoot,
		h.BodyRoot,
	})
}

// HashTreeRoot returns the SSZ root of the execution payload header.
func (h *ExecutionPayloadHeader) HashTreeRoot() common.Hash {
	baseFee := reverse32(h.BaseFeePerGas.Bytes32())
	return ssz.HashTreeRootContainer([][32]byte{
		h.ParentHash,
		ssz.HashTreeRootByteVector(h.FeeRecipient[:]),
		h.StateRoot,
		h.ReceiptsRoot,
		ssz.HashTreeRootByteVector(h.LogsBloom[:]),
		h.PrevRandao,
		ssz.HashTreeRootUint64(h.BlockNumber),
		ssz.HashTreeRootUint64(h.GasLimit),
		ssz.HashTreeRootUint64(h.GasUsed),
		ssz.HashTreeRootUint64(h.Timestamp),
		ssz.HashTreeRootByteList(h.ExtraData, MaxExtraDataBytes),
		baseFee,
		h.BlockHash,
		h.TransactionsRoot,
		h.WithdrawalsRoot,
		ssz.HashTreeRootUint64(h.BlobGasUsed),
		ssz.HashTreeRootUint64(h.ExcessBlobGas),
	})
}

// HashTreeRoot returns the SSZ root of the light client header.
func (h *LightClientHeader) HashTreeRoot() common.Hash {
	return ssz.HashTreeRootContainer([][32]byte{
		h.Beacon.HashTreeRoot(),
		h.Execution.HashTreeRoot(),
		branchRoot(h.ExecutionBranch[:]),
	})
}

// HashTreeRoot returns the SSZ root of the sync committee.
func (c *SyncCommittee) HashTreeRoot() common.Hash {
	roots := make([][32]byte, len(c.Pubkeys))
	for i := range c.Pubkeys {
		roots[i] = ssz.HashTreeRootByteVector(c.Pubkeys[i][:])
	}
	return ssz.HashTreeRootContainer([][32]byte{
		ssz.Merkleize(roots, SyncCommitteeSize),
		ssz.HashTreeRootByteVector(c.AggregatePubkey[:]),
	})
}

// HashTreeRoot returns the SSZ root of the sync aggregate.
func (a *SyncAggregate) HashTreeRoot() common.Hash {
	bits, _ := ssz.BitvectorFromBytes(a.Bits[:], SyncCommitteeSize)
	return ssz.HashTreeRootContainer([][32]byte{
		bits.HashTreeRoot(),
		ssz.HashTreeRootByteVector(a.Signature[:]),
	})
}
