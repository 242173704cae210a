package ethereum

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/larskuhtz/zk-light-clients/ssz"
)

func readHash(d *ssz.Decoder, field string, h *common.Hash) error {
	return d.Read(field, h[:])
}

func readBranch(d *ssz.Decoder, field string, branch []common.Hash) error {
	for i := range branch {
		if err := d.Read(fmt.Sprintf("%s[%d]", field, i), branch[i][:]); err != nil {
			return err
		}
	}
	return nil
}

func writeBranch(e *ssz.Encoder, branch []common.Hash) {
	for _, h := range branch {
		e.Write(h[:])
	}
}

// uint256 values travel little-endian on the wire.
func reverse32(b [32]byte) [32]byte {
	for i, j := 0, 31; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}
	return b
}

// MarshalSSZ encodes the header as its 112-byte fixed container.
func (h *BeaconBlockHeader) MarshalSSZ() ([]byte, error) {
	e := ssz.NewEncoder(BeaconBlockHeaderLen)
	h.encodeTo(e)
	return e.Bytes()
}

func (h *BeaconBlockHeader) encodeTo(e *ssz.Encoder) {
	e.Uint64(h.Slot)
	e.Uint64(h.ProposerIndex)
	e.Write(h.ParentRoot[:])
	e.Write(h.StateRoot[:])
	e.Write(h.BodyRoot[:])
}

// SizeSSZ returns the encoded size.
func (h *BeaconBlockHeader) SizeSSZ() int { return BeaconBlockHeaderLen }

// UnmarshalSSZ decodes a 112-byte beacon block header.
func (h *BeaconBlockHeader) UnmarshalSSZ(buf []byte) error {
	d := ssz.NewDecoder("BeaconBlockHeader", buf)
	if err := h.decodeFrom(d); err != nil {
		return err
	}
	return d.Finish()
}

func (h *BeaconBlockHeader) decodeFrom(d *ssz.Decoder) (err error) {
	if h.Slot, err = d.Uint64("slot"); err != nil {
		return err
	}
	if h.ProposerIndex, err = d.Uint64("proposer_index"); err != nil {
		return err
	}
	if err = readHash(d, "parent_root", &h.ParentRoot); err != nil {
		return err
	}
	if err = readHash(d, "state_root", &h.StateRoot); err != nil {
		return err
	}
	return readHash(d, "body_root", &h.BodyRoot)
}

// MarshalSSZ encodes the execution payload header. ExtraData is the only
// variable field.
func (h *ExecutionPayloadHeader) MarshalSSZ() ([]byte, error) {
	if len(h.ExtraData) > MaxExtraDataBytes {
		return nil, fmt.Errorf("%w: extra data of %d bytes", ssz.ErrSize, len(h.ExtraData))
	}
	baseFee := reverse32(h.BaseFeePerGas.Bytes32())
	e := ssz.NewEncoder(ExecutionPayloadHeaderBase)
	e.Write(h.ParentHash[:])
	e.Write(h.FeeRecipient[:])
	e.Write(h.StateRoot[:])
	e.Write(h.ReceiptsRoot[:])
	e.Write(h.LogsBloom[:])
	e.Write(h.PrevRandao[:])
	e.Uint64(h.BlockNumber)
	e.Uint64(h.GasLimit)
	e.Uint64(h.GasUsed)
	e.Uint64(h.Timestamp)
	e.Variable(h.ExtraData)
	e.Write(baseFee[:])
	e.Write(h.BlockHash[:])
	e.Write(h.TransactionsRoot[:])
	e.Write(h.WithdrawalsRoot[:])
	e.Uint64(h.BlobGasUsed)
	e.Uint64(h.ExcessBlobGas)
	return e.Bytes()
}

// SizeSSZ returns the encoded size.
func (h *ExecutionPayloadHeader) SizeSSZ() int {
	return ExecutionPayloadHeaderBase + len(h.ExtraData)
}

// UnmarshalSSZ decodes an execution payload header.
func (h *ExecutionPayloadHeader) UnmarshalSSZ(buf []byte) (err error) {
	d := ssz.NewDecoder("ExecutionPayloadHeader", buf)
	if err = d.Require(ExecutionPayloadHeaderBase); err != nil {
		return err
	}
	if err = readHash(d, "parent_hash", &h.ParentHash); err != nil {
		return err
	}
	if err = d.Read("fee_recipient", h.FeeRecipient[:]); err != nil {
		return err
	}
	if err = readHash(d, "state_root", &h.StateRoot); err != nil {
		return err
	}
	if err = readHash(d, "receipts_root", &h.ReceiptsRoot); err != nil {
		return err
	}
	if err = d.Read("logs_bloom", h.LogsBloom[:]); err != nil {
		return err
	}
	if err = readHash(d, "prev_randao", &h.PrevRandao); err != nil {
		return err
	}
	if h.BlockNumber, err = d.Uint64("block_number"); err != nil {
		return err
	}
	if h.GasLimit, err = d.Uint64("gas_limit"); err != nil {
		return err
	}
	if h.GasUsed, err = d.Uint64("gas_used"); err != nil {
		return err
	}
	if h.Timestamp, err = d.Uint64("timestamp"); err != nil {
		return err
	}
	extraOffset, err := d.Offset("extra_data")
	if err != nil {
		return err
	}
	var baseFee [32]byte
	if err = d.Read("base_fee_per_gas", baseFee[:]); err != nil {
		return err
	}
	baseFee = reverse32(baseFee)
	h.BaseFeePerGas.SetBytes32(baseFee[:])
	if err = readHash(d, "block_hash", &h.BlockHash); err != nil {
		return err
	}
	if err = readHash(d, "transactions_root", &h.TransactionsRoot); err != nil {
		return err
	}
	if err = readHash(d, "withdrawals_root", &h.WithdrawalsRoot); err != nil {
		return err
	}
	if h.BlobGasUsed, err = d.Uint64("blob_gas_used"); err != nil {
		return err
	}
	if h.ExcessBlobGas, err = d.Uint64("excess_blob_gas"); err != nil {
		return err
	}
	if h.ExtraData, err = d.Tail("extra_data", extraOffset); err != nil {
		return err
	}
	if len(h.ExtraData) > MaxExtraDataBytes {
		return &ssz.DecodeError{
			Structure: "ExecutionPayloadHeader",
			Field:     "extra_data",
			Kind:      ssz.ErrSize,
			Expected:  MaxExtraDataBytes,
			Actual:    len(h.ExtraData),
		}
	}
	return nil
}

// MarshalSSZ encodes the light client header.
func (h *LightClientHeader) MarshalSSZ() ([]byte, error) {
	execution, err := h.Execution.MarshalSSZ()
	if err != nil {
		return nil, err
	}
	e := ssz.NewEncoder(LightClientHeaderFixedLen)
	h.Beacon.encodeTo(e)
	e.Variable(execution)
	writeBranch(e, h.ExecutionBranch[:])
	return e.Bytes()
}

// SizeSSZ returns the encoded size.
func (h *LightClientHeader) SizeSSZ() int {
	return LightClientHeaderFixedLen + h.Execution.SizeSSZ()
}

// UnmarshalSSZ decodes a light client header.
func (h *LightClientHeader) UnmarshalSSZ(buf []byte) error {
	d := ssz.NewDecoder("LightClientHeader", buf)
	if err := d.Require(LightClientHeaderBaseLen); err != nil {
		return err
	}
	if err := h.Beacon.decodeFrom(d); err != nil {
		return err
	}
	offset, err := d.Offset("execution")
	if err != nil {
		return err
	}
	if err := readBranch(d, "execution_branch", h.ExecutionBranch[:]); err != nil {
		return err
	}
	execution, err := d.Tail("execution", offset)
	if err != nil {
		return err
	}
	return h.Execution.UnmarshalSSZ(execution)
}

// MarshalSSZ encodes the committee as 512 public keys followed by the
// aggregate key.
func (c *SyncCommittee) MarshalSSZ() ([]byte, error) {
	e := ssz.NewEncoder(SyncCommitteeLen)
	c.encodeTo(e)
	return e.Bytes()
}

func (c *SyncCommittee) encodeTo(e *ssz.Encoder) {
	for i := range c.Pubkeys {
		e.Write(c.Pubkeys[i][:])
	}
	e.Write(c.AggregatePubkey[:])
}

// SizeSSZ returns the encoded size.
func (c *SyncCommittee) SizeSSZ() int { return SyncCommitteeLen }

// UnmarshalSSZ decodes a sync committee.
func (c *SyncCommittee) UnmarshalSSZ(buf []byte) error {
	d := ssz.NewDecoder("SyncCommittee", buf)
	if err := d.Require(SyncCommitteeLen); err != nil {
		return err
	}
	if err := c.decodeFrom(d); err != nil {
		return err
	}
	return d.Finish()
}

func (c *SyncCommittee) decodeFrom(d *ssz.Decoder) error {
	for i := range c.Pubkeys {
		if err := d.Read("pubkeys", c.Pubkeys[i][:]); err != nil {
			return err
		}
	}
	return d.Read("aggregate_pubkey", c.AggregatePubkey[:])
}

// MarshalSSZ encodes the sync aggregate.
func (a *SyncAggregate) MarshalSSZ() ([]byte, error) {
	e := ssz.NewEncoder(SyncAggregateLen)
	a.encodeTo(e)
	return e.Bytes()
}

func (a *SyncAggregate) encodeTo(e *ssz.Encoder) {
	e.Write(a.Bits[:])
	e.Write(a.Signature[:])
}

// SizeSSZ returns the encoded size.
func (a *SyncAggregate) SizeSSZ() int { return SyncAggregateLen }

// UnmarshalSSZ decodes a sync aggregate.
func (a *SyncAggregate) UnmarshalSSZ(buf []byte) error {
	d := ssz.NewDecoder("SyncAggregate", buf)
	if err := a.decodeFrom(d); err != nil {
		return err
	}
	return d.Finish()
}

func (a *SyncAggregate) decodeFrom(d *ssz.Decoder) error {
	if err := d.Read("sync_committee_bits", a.Bits[:]); err != nil {
		return err
	}
	return d.Read("sync_committee_signature", a.Signature[:])
}
