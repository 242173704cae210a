package ethtest

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/rawdb"
	"github.com/ethereum/go-ethereum/core/types"
	gethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethdb/memorydb"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/ethereum/go-ethereum/trie"
	"github.com/ethereum/go-ethereum/triedb"
	"github.com/holiman/uint256"

	"github.com/larskuhtz/zk-light-clients/ethereum"
)

func newTrie() *trie.Trie {
	return trie.NewEmpty(triedb.NewDatabase(rawdb.NewMemoryDatabase(), nil))
}

func prove(tr *trie.Trie, key []byte) ([][]byte, error) {
	db := memorydb.New()
	if err := tr.Prove(key, db); err != nil {
		return nil, err
	}
	var nodes [][]byte
	it := db.NewIterator(nil, nil)
	defer it.Release()
	for it.Next() {
		nodes = append(nodes, common.CopyBytes(it.Value()))
	}
	return nodes, it.Error()
}

// NewStorageProof builds a state containing addr with the given storage
// slots, plus a few unrelated accounts, and returns an EIP-1186 proof for
// the slots together with the state root.
func NewStorageProof(addr common.Address, slots []ethereum.StorageSlot) (*ethereum.StorageProof, common.Hash, error) {
	storage := newTrie()
	for _, slot := range slots {
		if slot.Value == (common.Hash{}) {
			continue
		}
		enc, err := rlp.EncodeToBytes(common.TrimLeftZeroes(slot.Value[:]))
		if err != nil {
			return nil, common.Hash{}, err
		}
		if err := storage.Update(gethcrypto.Keccak256(slot.Key[:]), enc); err != nil {
			return nil, common.Hash{}, err
		}
	}

	state := newTrie()
	account := types.StateAccount{
		Nonce:    1,
		Balance:  uint256.NewInt(1_000_000_000_000_000_000),
		Root:     storage.Hash(),
		CodeHash: types.EmptyCodeHash[:],
	}
	enc, err := rlp.EncodeToBytes(&account)
	if err != nil {
		return nil, common.Hash{}, err
	}
	if err := state.Update(gethcrypto.Keccak256(addr[:]), enc); err != nil {
		return nil, common.Hash{}, err
	}
	for i := byte(1); i <= 16; i++ {
		other := types.StateAccount{Nonce: uint64(i), Balance: uint256.NewInt(uint64(i)), Root: types.EmptyRootHash, CodeHash: types.EmptyCodeHash[:]}
		enc, err := rlp.EncodeToBytes(&other)
		if err != nil {
			return nil, common.Hash{}, err
		}
		key := gethcrypto.Keccak256([]byte{0xee, i})
		if err := state.Update(key, enc); err != nil {
			return nil, common.Hash{}, err
		}
	}

	proof := &ethereum.StorageProof{Address: addr}
	if proof.AccountProof, err = prove(state, gethcrypto.Keccak256(addr[:])); err != nil {
		return nil, common.Hash{}, err
	}
	for _, slot := range slots {
		nodes, err := prove(storage, gethcrypto.Keccak256(slot.Key[:]))
		if err != nil {
			return nil, common.Hash{}, err
		}
		proof.StorageSlots = append(proof.StorageSlots, ethereum.StorageSlot{Key: slot.Key, Value: slot.Value, Proof: nodes})
	}
	return proof, state.Hash(), nil
}
