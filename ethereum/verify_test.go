package ethereum_test

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/larskuhtz/zk-light-clients/ethereum"
	"github.com/larskuhtz/zk-light-clients/ethereum/ethtest"
	"github.com/larskuhtz/zk-light-clients/ssz"
)

func TestComputeDomain(t *testing.T) {
	d := ethereum.ComputeDomain(ethereum.MainnetDenebForkVersion, ethereum.MainnetGenesisValidatorsRoot)
	require.Equal(t, []byte{0x07, 0, 0, 0}, d[:4])
	other := ethereum.ComputeDomain([4]byte{0x03, 0, 0, 0}, ethereum.MainnetGenesisValidatorsRoot)
	require.NotEqual(t, d, other)
}

func TestValidateUpdate(t *testing.T) {
	f := loadFixture(t)
	store := ethtest.NewStore(f.a, f.b, 10*period+100)
	require.NoError(t, store.ValidateUpdate(f.update))

	t.Run("participation", func(t *testing.T) {
		for _, tc := range []struct {
			participants int
			err          error
		}{
			{341, ethereum.ErrInsufficientParticipation},
			{342, nil},
		} {
			u, err := ethtest.NewUpdate(f.a, f.b, ethtest.UpdateParams{
				FinalizedSlot: 10*period + 200,
				AttestedSlot:  10*period + 232,
				SignatureSlot: 10*period + 233,
				Participants:  tc.participants,
				Execution:     ethtest.NewExecution(1000, common.Hash{0xaa}),
			})
			require.NoError(t, err)
			if tc.err == nil {
				require.NoError(t, store.ValidateUpdate(u))
			} else {
				require.ErrorIs(t, store.ValidateUpdate(u), tc.err)
			}
		}
	})

	t.Run("wrong signer", func(t *testing.T) {
		u, err := ethtest.NewUpdate(f.c, f.b, ethtest.UpdateParams{
			FinalizedSlot: 10*period + 200,
			AttestedSlot:  10*period + 232,
			SignatureSlot: 10*period + 233,
			Participants:  512,
			Execution:     ethtest.NewExecution(1000, common.Hash{0xaa}),
		})
		require.NoError(t, err)
		require.ErrorIs(t, store.ValidateUpdate(u), ethereum.ErrInvalidSignature)
	})

	t.Run("slot order", func(t *testing.T) {
		u := *f.update
		u.SignatureSlot = u.AttestedHeader.Beacon.Slot
		require.ErrorIs(t, store.ValidateUpdate(&u), ethereum.ErrInvalidSlotOrder)
	})

	t.Run("finality branch", func(t *testing.T) {
		u := *f.update
		u.FinalityBranch[3][0] ^= 1
		require.ErrorIs(t, store.ValidateUpdate(&u), ethereum.ErrInvalidFinalityBranch)
	})

	t.Run("committee branch", func(t *testing.T) {
		u := *f.update
		u.NextSyncCommitteeBranch[0][31] ^= 0x80
		require.ErrorIs(t, store.ValidateUpdate(&u), ethereum.ErrInvalidCommitteeBranch)
	})

	t.Run("execution branch", func(t *testing.T) {
		u := *f.update
		u.FinalizedHeader.Execution.GasUsed++
		require.ErrorIs(t, store.ValidateUpdate(&u), ethereum.ErrInvalidExecutionBranch)
	})

	t.Run("unknown committee", func(t *testing.T) {
		u := *f.update
		u.SignatureSlot += 2 * period
		require.ErrorIs(t, store.ValidateUpdate(&u), ethereum.ErrUnknownCommittee)
	})
}

func TestProcessUpdateRotation(t *testing.T) {
	f := loadFixture(t)
	store := ethtest.NewStore(f.a, nil, 10*period+100)

	// Same-period update learns the next committee.
	require.NoError(t, store.ProcessUpdate(f.update))
	require.NotNil(t, store.NextSyncCommittee)
	require.Equal(t, f.b.SyncCommittee.HashTreeRoot(), store.NextSyncCommittee.HashTreeRoot())
	require.Equal(t, f.update.FinalizedHeader.Beacon.Slot, store.FinalizedHeader.Beacon.Slot)

	// An update finalized in the next period, signed by the next committee,
	// rotates.
	u, err := ethtest.NewUpdate(f.b, f.c, ethtest.UpdateParams{
		FinalizedSlot: 11*period + 50,
		AttestedSlot:  11*period + 60,
		SignatureSlot: 11*period + 61,
		Participants:  512,
		Execution:     ethtest.NewExecution(9000, common.Hash{0xbb}),
	})
	require.NoError(t, err)
	require.NoError(t, store.ProcessUpdate(u))
	require.Equal(t, uint64(11), store.Period())
	require.Equal(t, f.b.SyncCommittee.HashTreeRoot(), store.CurrentSyncCommittee.HashTreeRoot())
	require.Equal(t, f.c.SyncCommittee.HashTreeRoot(), store.NextSyncCommittee.HashTreeRoot())

	// Replaying the old update no longer applies.
	require.ErrorIs(t, store.ProcessUpdate(f.update), ethereum.ErrIrrelevantUpdate)
}

func TestStoreRoundTrip(t *testing.T) {
	f := loadFixture(t)
	for _, next := range []*ethtest.Committee{nil, f.b} {
		store := ethtest.NewStore(f.a, next, 10*period+100)
		buf, err := store.MarshalSSZ()
		require.NoError(t, err)
		require.Len(t, buf, store.SizeSSZ())

		var decoded ethereum.Store
		require.NoError(t, decoded.UnmarshalSSZ(buf))
		require.Equal(t, *store, decoded)
	}

	store := ethtest.NewStore(f.a, nil, 1)
	buf, err := store.MarshalSSZ()
	require.NoError(t, err)
	buf[4+ethereum.SyncCommitteeLen] = 2
	var decoded ethereum.Store
	var de *ssz.DecodeError
	require.ErrorAs(t, decoded.UnmarshalSSZ(buf), &de)
	require.Equal(t, "next_sync_committee", de.Field)
}

func TestStoreClone(t *testing.T) {
	f := loadFixture(t)
	store := ethtest.NewStore(f.a, f.b, 1)
	cp := store.Clone()
	cp.NextSyncCommittee.Pubkeys[0][0] ^= 1
	cp.FinalizedHeader.Execution.ExtraData[0] ^= 1
	require.NotEqual(t, store.NextSyncCommittee.Pubkeys[0], cp.NextSyncCommittee.Pubkeys[0])
	require.NotEqual(t, store.FinalizedHeader.Execution.ExtraData, cp.FinalizedHeader.Execution.ExtraData)
}

func TestBootstrap(t *testing.T) {
	f := loadFixture(t)
	b, root := ethtest.NewBootstrap(f.a, 10*period+5)

	buf, err := b.MarshalSSZ()
	require.NoError(t, err)
	require.Len(t, buf, b.SizeSSZ())
	var decoded ethereum.Bootstrap
	require.NoError(t, decoded.UnmarshalSSZ(buf))
	require.Equal(t, *b, decoded)

	store, err := decoded.Verify(root, ethtest.ForkVersion, ethtest.GenesisValidatorsRoot)
	require.NoError(t, err)
	require.Nil(t, store.NextSyncCommittee)
	require.Equal(t, uint64(10), store.Period())

	_, err = decoded.Verify(common.Hash{0x01}, ethtest.ForkVersion, ethtest.GenesisValidatorsRoot)
	require.ErrorIs(t, err, ethereum.ErrBootstrapRoot)

	decoded.CurrentSyncCommittee.Pubkeys[7][3] ^= 1
	_, err = decoded.Verify(root, ethtest.ForkVersion, ethtest.GenesisValidatorsRoot)
	require.ErrorIs(t, err, ethereum.ErrInvalidCommitteeBranch)
}
