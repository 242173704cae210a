package rpc

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	gethrpc "github.com/ethereum/go-ethereum/rpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/larskuhtz/zk-light-clients/ethereum"
	"github.com/larskuhtz/zk-light-clients/ethereum/ethtest"
	"github.com/larskuhtz/zk-light-clients/log"
)

type storageResult struct {
	Key   string       `json:"key"`
	Value *hexutil.Big `json:"value"`
	Proof []string     `json:"proof"`
}

type accountResult struct {
	Address      common.Address  `json:"address"`
	AccountProof []string        `json:"accountProof"`
	Balance      *hexutil.Big    `json:"balance"`
	CodeHash     common.Hash     `json:"codeHash"`
	Nonce        hexutil.Uint64  `json:"nonce"`
	StorageHash  common.Hash     `json:"storageHash"`
	StorageProof []storageResult `json:"storageProof"`
}

// fakeEth serves eth_getProof from a fixed storage proof.
type fakeEth struct {
	proof  *ethereum.StorageProof
	blocks []string
}

func (f *fakeEth) ChainId() *hexutil.Big { return (*hexutil.Big)(big.NewInt(1)) }

func encodeNodes(nodes [][]byte) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = hexutil.Encode(n)
	}
	return out
}

func (f *fakeEth) GetProof(address common.Address, keys []string, block string) (*accountResult, error) {
	f.blocks = append(f.blocks, block)
	res := &accountResult{
		Address:      address,
		AccountProof: encodeNodes(f.proof.AccountProof),
		Balance:      new(hexutil.Big),
	}
	for _, k := range keys {
		for _, s := range f.proof.StorageSlots {
			if common.HexToHash(k) == s.Key {
				res.StorageProof = append(res.StorageProof, storageResult{
					Key:   k,
					Value: (*hexutil.Big)(s.Value.Big()),
					Proof: encodeNodes(s.Proof),
				})
			}
		}
	}
	return res, nil
}

func newFakeExecution(t *testing.T) (*fakeEth, common.Hash, *ExecutionClient) {
	t.Helper()
	proof, stateRoot, err := ethtest.NewStorageProof(ethtest.ScenarioAddress, []ethereum.StorageSlot{
		{Key: common.Hash{0x01}, Value: common.BigToHash(big.NewInt(7))},
		{Key: common.Hash{0x02}, Value: common.HexToHash("0xdeadbeef")},
	})
	require.NoError(t, err)

	f := &fakeEth{proof: proof}
	srv := gethrpc.NewServer()
	require.NoError(t, srv.RegisterName("eth", f))
	t.Cleanup(srv.Stop)
	c := NewExecutionClient(gethrpc.DialInProc(srv), log.Discard())
	t.Cleanup(c.Close)
	return f, stateRoot, c
}

func TestExecutionGetStorageProof(t *testing.T) {
	f, stateRoot, c := newFakeExecution(t)
	keys := []common.Hash{{0x01}, {0x02}}

	proof, err := c.GetStorageProof(context.Background(), ethtest.ScenarioAddress, keys, big.NewInt(1000))
	require.NoError(t, err)
	assert.Equal(t, []string{"0x3e8"}, f.blocks)
	require.Len(t, proof.StorageSlots, 2)
	assert.Equal(t, common.BigToHash(big.NewInt(7)), proof.StorageSlots[0].Value)

	_, err = proof.Verify(stateRoot)
	require.NoError(t, err)

	proof.StorageSlots[1].Value = common.Hash{}
	_, err = proof.Verify(stateRoot)
	assert.ErrorIs(t, err, ethereum.ErrStorageProof)
}

func TestExecutionTestEndpoint(t *testing.T) {
	_, _, c := newFakeExecution(t)
	assert.NoError(t, c.TestEndpoint(context.Background()))
}
