package ethereum

import (
	"encoding/binary"

	"github.com/larskuhtz/zk-light-clients/ssz"
)

// ForkDigest tags each item of an update batch.
type ForkDigest [4]byte

// Update is a LightClientUpdate: it carries the next sync committee and a
// finalized header, both proven against the attested header's state, and
// the sync committee signature over the attested header.
type Update struct {
	AttestedHeader          LightClientHeader
	NextSyncCommittee       SyncCommittee
	NextSyncCommitteeBranch SyncCommitteeBranch
	FinalizedHeader         LightClientHeader
	FinalityBranch          FinalityBranch
	SyncAggregate           SyncAggregate
	SignatureSlot           uint64
}

// MarshalSSZ encodes the update. The attested and finalized headers are
// variable fields addressed by offsets in the fixed part.
func (u *Update) MarshalSSZ() ([]byte, error) {
	attested, err := u.AttestedHeader.MarshalSSZ()
	if err != nil {
		return nil, err
	}
	finalized, err := u.FinalizedHeader.MarshalSSZ()
	if err != nil {
		return nil, err
	}
	e := ssz.NewEncoder(UpdateFixedLen)
	e.Variable(attested)
	u.NextSyncCommittee.encodeTo(e)
	writeBranch(e, u.NextSyncCommitteeBranch[:])
	e.Variable(finalized)
	writeBranch(e, u.FinalityBranch[:])
	u.SyncAggregate.encodeTo(e)
	e.Uint64(u.SignatureSlot)
	return e.Bytes()
}

// SizeSSZ returns the encoded size.
func (u *Update) SizeSSZ() int {
	return UpdateFixedLen + u.AttestedHeader.SizeSSZ() + u.FinalizedHeader.SizeSSZ()
}

// UnmarshalSSZ decodes an update, rejecting any offset that does not
// match the boundary computed from the fixed part.
func (u *Update) UnmarshalSSZ(buf []byte) error {
	d := ssz.NewDecoder("Update", buf)
	if err := d.Require(UpdateBaseLen); err != nil {
		return err
	}
	attestedOffset, err := d.Offset("attested_header")
	if err != nil {
		return err
	}
	if err := u.NextSyncCommittee.decodeFrom(d); err != nil {
		return err
	}
	if err := readBranch(d, "next_sync_committee_branch", u.NextSyncCommitteeBranch[:]); err != nil {
		return err
	}
	finalizedOffset, err := d.Offset("finalized_header")
	if err != nil {
		return err
	}
	if err := readBranch(d, "finality_branch", u.FinalityBranch[:]); err != nil {
		return err
	}
	if err := u.SyncAggregate.decodeFrom(d); err != nil {
		return err
	}
	if u.SignatureSlot, err = d.Uint64("signature_slot"); err != nil {
		return err
	}
	attested, err := d.Variable("attested_header", attestedOffset, int(finalizedOffset))
	if err != nil {
		return err
	}
	finalized, err := d.Tail("finalized_header", finalizedOffset)
	if err != nil {
		return err
	}
	if err := u.AttestedHeader.UnmarshalSSZ(attested); err != nil {
		return err
	}
	return u.FinalizedHeader.UnmarshalSSZ(finalized)
}

// UpdateItem is one entry of an update batch.
type UpdateItem struct {
	Size       uint64
	ForkDigest ForkDigest
	Update     Update
}

// UpdateResponse is the body of the beacon API light client updates
// endpoint in SSZ form: a sequence of [u64 size][fork digest][update].
type UpdateResponse struct {
	Updates []UpdateItem
}

// MarshalSSZ encodes the batch. Item sizes are recomputed from the updates.
func (r *UpdateResponse) MarshalSSZ() ([]byte, error) {
	var out []byte
	for i := range r.Updates {
		body, err := r.Updates[i].Update.MarshalSSZ()
		if err != nil {
			return nil, err
		}
		out = binary.LittleEndian.AppendUint64(out, uint64(len(body)+4))
		out = append(out, r.Updates[i].ForkDigest[:]...)
		out = append(out, body...)
	}
	return out, nil
}

// UnmarshalSSZ decodes a batch. An empty input yields no updates.
func (r *UpdateResponse) UnmarshalSSZ(buf []byte) error {
	r.Updates = r.Updates[:0]
	d := ssz.NewDecoder("UpdateResponse", buf)
	for d.Remaining() > 0 {
		if d.Remaining() < 8+4+UpdateBaseLen {
			return &ssz.DecodeError{
				Structure: "UpdateResponse",
				Field:     "size",
				Kind:      ssz.ErrUnderLength,
				Expected:  d.Pos() + 8 + 4 + UpdateBaseLen,
				Actual:    len(buf),
			}
		}
		size, err := d.Uint64("size")
		if err != nil {
			return err
		}
		if size < 4 || size > uint64(d.Remaining()) {
			return &ssz.DecodeError{
				Structure: "UpdateResponse",
				Field:     "update",
				Kind:      ssz.ErrUnderLength,
				Expected:  d.Pos() + int(min(size, uint64(len(buf)))),
				Actual:    len(buf),
			}
		}
		var item UpdateItem
		item.Size = size
		if err := d.Read("fork_digest", item.ForkDigest[:]); err != nil {
			return err
		}
		body, err := d.Bytes("update", int(size)-4)
		if err != nil {
			return err
		}
		if err := item.Update.UnmarshalSSZ(body); err != nil {
			return err
		}
		r.Updates = append(r.Updates, item)
	}
	return nil
}

// Bootstrap is a LightClientBootstrap: a trusted header together with the
// current sync committee proven against its state root.
type Bootstrap struct {
	Header                     LightClientHeader
	CurrentSyncCommittee       SyncCommittee
	CurrentSyncCommitteeBranch SyncCommitteeBranch
}

// MarshalSSZ encodes the bootstrap.
func (b *Bootstrap) MarshalSSZ() ([]byte, error) {
	header, err := b.Header.MarshalSSZ()
	if err != nil {
		return nil, err
	}
	e := ssz.NewEncoder(BootstrapFixedLen)
	e.Variable(header)
	b.CurrentSyncCommittee.encodeTo(e)
	writeBranch(e, b.CurrentSyncCommitteeBranch[:])
	return e.Bytes()
}

// SizeSSZ returns the encoded size.
func (b *Bootstrap) SizeSSZ() int { return BootstrapFixedLen + b.Header.SizeSSZ() }

// UnmarshalSSZ decodes a bootstrap.
func (b *Bootstrap) UnmarshalSSZ(buf []byte) error {
	d := ssz.NewDecoder("LightClientBootstrap", buf)
	if err := d.Require(BootstrapBaseLen); err != nil {
		return err
	}
	offset, err := d.Offset("header")
	if err != nil {
		return err
	}
	if err := b.CurrentSyncCommittee.decodeFrom(d); err != nil {
		return err
	}
	if err := readBranch(d, "current_sync_committee_branch", b.CurrentSyncCommitteeBranch[:]); err != nil {
		return err
	}
	header, err := d.Tail("header", offset)
	if err != nil {
		return err
	}
	return b.Header.UnmarshalSSZ(header)
}
