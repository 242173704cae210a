package ethereum

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	gethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethdb/memorydb"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/ethereum/go-ethereum/trie"
)

// Storage proof errors.
var (
	ErrAccountProof = errors.New("ethereum: invalid account proof")
	ErrStorageProof = errors.New("ethereum: invalid storage proof")
	ErrNoAccount    = errors.New("ethereum: account absent from state")
)

// StorageSlot is one proven storage entry. Value is the big-endian slot
// value; the zero value proves absence.
type StorageSlot struct {
	Key   common.Hash
	Value common.Hash
	Proof [][]byte
}

// StorageProof is an EIP-1186 proof of an account and a set of its storage
// slots against an execution state root.
type StorageProof struct {
	Address      common.Address
	AccountProof [][]byte
	StorageSlots []StorageSlot
}

func proofDB(nodes [][]byte) *memorydb.Database {
	db := memorydb.New()
	for _, node := range nodes {
		db.Put(gethcrypto.Keccak256(node), node)
	}
	return db
}

// Verify checks the account proof against stateRoot and every storage slot
// against the account's storage root. It returns the proven account.
func (p *StorageProof) Verify(stateRoot common.Hash) (*types.StateAccount, error) {
	enc, err := trie.VerifyProof(stateRoot, gethcrypto.Keccak256(p.Address[:]), proofDB(p.AccountProof))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAccountProof, err)
	}
	if enc == nil {
		return nil, fmt.Errorf("%w: %s", ErrNoAccount, p.Address)
	}
	account := new(types.StateAccount)
	if err := rlp.DecodeBytes(enc, account); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAccountProof, err)
	}
	for _, slot := range p.StorageSlots {
		enc, err := trie.VerifyProof(account.Root, gethcrypto.Keccak256(slot.Key[:]), proofDB(slot.Proof))
		if err != nil {
			return nil, fmt.Errorf("%w: slot %s: %v", ErrStorageProof, slot.Key, err)
		}
		var value []byte
		if enc != nil {
			if _, value, _, err = rlp.Split(enc); err != nil {
				return nil, fmt.Errorf("%w: slot %s: %v", ErrStorageProof, slot.Key, err)
			}
		}
		if !bytes.Equal(common.TrimLeftZeroes(slot.Value[:]), value) {
			return nil, fmt.Errorf("%w: slot %s: value mismatch", ErrStorageProof, slot.Key)
		}
	}
	return account, nil
}

// MarshalRLP encodes the proof for transport into a guest program.
func (p *StorageProof) MarshalRLP() ([]byte, error) {
	return rlp.EncodeToBytes(p)
}

// UnmarshalRLP decodes a proof produced by MarshalRLP.
func (p *StorageProof) UnmarshalRLP(b []byte) error {
	return rlp.DecodeBytes(b, p)
}
