package ethereum

import (
	"errors"

	"github.com/ethereum/go-ethereum/common"

	"github.com/larskuhtz/zk-light-clients/ssz"
)

// StoreFixedLen is the size of the fixed part of an encoded Store.
const StoreFixedLen = ssz.BytesPerLengthOffset + SyncCommitteeLen + 1 + SyncCommitteeLen + 4 + 32

var errInvalidFlag = errors.New("ethereum: invalid option flag")

// Store is the trusted light client state: the latest finalized header and
// the committees able to sign for its period and the next one.
type Store struct {
	FinalizedHeader       LightClientHeader
	CurrentSyncCommittee  SyncCommittee
	NextSyncCommittee     *SyncCommittee
	ForkVersion           [4]byte
	GenesisValidatorsRoot common.Hash
}

// Period returns the sync committee period of the finalized header.
func (s *Store) Period() uint64 {
	return SyncPeriod(s.FinalizedHeader.Beacon.Slot)
}

// Clone returns a deep copy of the store.
func (s *Store) Clone() *Store {
	cp := *s
	cp.FinalizedHeader.Execution.ExtraData = append([]byte(nil), s.FinalizedHeader.Execution.ExtraData...)
	if s.NextSyncCommittee != nil {
		next := *s.NextSyncCommittee
		cp.NextSyncCommittee = &next
	}
	return &cp
}

// MarshalSSZ encodes the store for transport into a guest program. The
// optional next committee is a one-byte flag followed by a committee,
// zero-filled when absent.
func (s *Store) MarshalSSZ() ([]byte, error) {
	header, err := s.FinalizedHeader.MarshalSSZ()
	if err != nil {
		return nil, err
	}
	e := ssz.NewEncoder(StoreFixedLen)
	e.Variable(header)
	s.CurrentSyncCommittee.encodeTo(e)
	next := s.NextSyncCommittee
	if next == nil {
		e.Write([]byte{0})
		next = new(SyncCommittee)
	} else {
		e.Write([]byte{1})
	}
	next.encodeTo(e)
	e.Write(s.ForkVersion[:])
	e.Write(s.GenesisValidatorsRoot[:])
	return e.Bytes()
}

// SizeSSZ returns the encoded size.
func (s *Store) SizeSSZ() int { return StoreFixedLen + s.FinalizedHeader.SizeSSZ() }

// UnmarshalSSZ decodes a store.
func (s *Store) UnmarshalSSZ(buf []byte) error {
	d := ssz.NewDecoder("Store", buf)
	if err := d.Require(StoreFixedLen + LightClientHeaderBaseLen); err != nil {
		return err
	}
	offset, err := d.Offset("finalized_header")
	if err != nil {
		return err
	}
	if err := s.CurrentSyncCommittee.decodeFrom(d); err != nil {
		return err
	}
	var flag [1]byte
	if err := d.Read("next_sync_committee", flag[:]); err != nil {
		return err
	}
	next := new(SyncCommittee)
	if err := next.decodeFrom(d); err != nil {
		return err
	}
	switch flag[0] {
	case 0:
		s.NextSyncCommittee = nil
	case 1:
		s.NextSyncCommittee = next
	default:
		return &ssz.DecodeError{Structure: "Store", Field: "next_sync_committee", Kind: errInvalidFlag, Expected: 1, Actual: int(flag[0])}
	}
	if err := d.Read("fork_version", s.ForkVersion[:]); err != nil {
		return err
	}
	if err := readHash(d, "genesis_validators_root", &s.GenesisValidatorsRoot); err != nil {
		return err
	}
	header, err := d.Tail("finalized_header", offset)
	if err != nil {
		return err
	}
	return s.FinalizedHeader.UnmarshalSSZ(header)
}
