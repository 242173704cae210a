package ethtest

import (
	"github.com/ethereum/go-ethereum/common"

	"github.com/larskuhtz/zk-light-clients/ethereum"
)

// Period is the number of slots in a sync committee period.
const Period = ethereum.SlotsPerEpoch * ethereum.EpochsPerSyncCommitteePeriod

// Scenario is a store in period 10 and a valid update for it whose
// finalized execution state root commits to Storage.
type Scenario struct {
	Signer, Next *Committee
	Store        *ethereum.Store
	Update       *ethereum.Update
	Storage      *ethereum.StorageProof
}

// ScenarioAddress is the account proven by Scenario.Storage.
var ScenarioAddress = common.HexToAddress("0xdac17f958d2ee523a2206206994597c13d831ec7")

// NewScenario builds a Scenario. Every call returns fresh values.
func NewScenario() (*Scenario, error) {
	signer, err := NewCommittee(1)
	if err != nil {
		return nil, err
	}
	next, err := NewCommittee(2)
	if err != nil {
		return nil, err
	}
	storage, stateRoot, err := NewStorageProof(ScenarioAddress, []ethereum.StorageSlot{
		{Key: common.Hash{0x01}, Value: common.BigToHash(common.Big3)},
		{Key: common.Hash{0x02}, Value: common.HexToHash("0xdeadbeef")},
	})
	if err != nil {
		return nil, err
	}
	update, err := NewUpdate(signer, next, UpdateParams{
		FinalizedSlot: 10*Period + 200,
		AttestedSlot:  10*Period + 232,
		SignatureSlot: 10*Period + 233,
		Participants:  400,
		Execution:     NewExecution(1000, stateRoot),
	})
	if err != nil {
		return nil, err
	}
	return &Scenario{
		Signer:  signer,
		Next:    next,
		Store:   NewStore(signer, next, 10*Period+100),
		Update:  update,
		Storage: storage,
	}, nil
}
