package rpc

import (
	"context"
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	gethrpc "github.com/ethereum/go-ethereum/rpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/larskuhtz/zk-light-clients/aptos/aptostest"
	"github.com/larskuhtz/zk-light-clients/ethereum/ethtest"
	"github.com/larskuhtz/zk-light-clients/kadena"
	"github.com/larskuhtz/zk-light-clients/kadena/kadenatest"
	"github.com/larskuhtz/zk-light-clients/log"
	"github.com/larskuhtz/zk-light-clients/proofs"
	"github.com/larskuhtz/zk-light-clients/zkvm"
)

// fakeProver records the arguments it receives and answers with canned
// proofs. A proof verifies when its data is 0x01.
type fakeProver struct {
	healthy bool
	calls   []string
	args    [][]byte
}

func (f *fakeProver) Health() bool { return f.healthy }

func (f *fakeProver) record(name string, mode zkvm.ProvingMode, args ...[]byte) (*zkvm.Proof, error) {
	if !mode.Valid() {
		return nil, zkvm.ErrUnknownMode
	}
	f.calls = append(f.calls, name)
	f.args = append(f.args, args...)
	return &zkvm.Proof{Mode: mode, Data: hexutil.Bytes{0x01}}, nil
}

func (f *fakeProver) verify(p *zkvm.Proof) (bool, error) {
	if p == nil {
		return false, errors.New("missing proof")
	}
	return len(p.Data) == 1 && p.Data[0] == 0x01, nil
}

func (f *fakeProver) ProveCommitteeChange(mode zkvm.ProvingMode, store, update hexutil.Bytes) (*zkvm.Proof, error) {
	return f.record("committee", mode, store, update)
}

func (f *fakeProver) VerifyCommitteeChange(p *zkvm.Proof) (bool, error) { return f.verify(p) }

func (f *fakeProver) ProveStorageInclusion(mode zkvm.ProvingMode, store, update, storage hexutil.Bytes) (*zkvm.Proof, error) {
	return f.record("storage", mode, store, update, storage)
}

func (f *fakeProver) VerifyStorageInclusion(p *zkvm.Proof) (bool, error) { return f.verify(p) }

func (f *fakeProver) ProveAccountInclusion(mode zkvm.ProvingMode, proof hexutil.Bytes, key, valueHash, root common.Hash) (*zkvm.Proof, error) {
	return f.record("account", mode, proof, key[:], valueHash[:], root[:])
}

func (f *fakeProver) VerifyAccountInclusion(p *zkvm.Proof) (bool, error) { return f.verify(p) }

func (f *fakeProver) ProveLongestChain(mode zkvm.ProvingMode, layers hexutil.Bytes) (*zkvm.Proof, error) {
	return f.record("longest", mode, layers)
}

func (f *fakeProver) VerifyLongestChain(p *zkvm.Proof) (bool, error) { return f.verify(p) }

func newFakeProofServer(t *testing.T, healthy bool) (*fakeProver, *ProofServerClient) {
	t.Helper()
	f := &fakeProver{healthy: healthy}
	srv := gethrpc.NewServer()
	require.NoError(t, srv.RegisterName(ProverNamespace, f))
	t.Cleanup(srv.Stop)
	c := NewProofServerClient(gethrpc.DialInProc(srv), log.Discard())
	t.Cleanup(c.Close)
	return f, c
}

func TestProofServerLongestChain(t *testing.T) {
	f, c := newFakeProofServer(t, true)
	ctx := context.Background()
	layers := kadenatest.NewWindow(3, 10)

	proof, err := c.ProveLongestChain(ctx, zkvm.SNARK, layers)
	require.NoError(t, err)
	assert.Equal(t, zkvm.SNARK, proof.Mode)
	assert.Equal(t, []string{"longest"}, f.calls)
	decoded, err := kadena.DecodeLayerHeaders(f.args[0])
	require.NoError(t, err)
	assert.Equal(t, kadena.EncodeLayerHeaders(layers), kadena.EncodeLayerHeaders(decoded))

	ok, err := c.VerifyLongestChain(ctx, proof)
	require.NoError(t, err)
	assert.True(t, ok)

	proof.Data = hexutil.Bytes{0x02}
	ok, err = c.VerifyLongestChain(ctx, proof)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestProofServerEthereum(t *testing.T) {
	f, c := newFakeProofServer(t, true)
	ctx := context.Background()
	sc, err := ethtest.NewScenario()
	require.NoError(t, err)

	proof, err := c.ProveCommitteeChange(ctx, zkvm.STARK, sc.Store, sc.Update)
	require.NoError(t, err)
	ok, err := c.VerifyCommitteeChange(ctx, proof)
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = c.ProveStorageInclusion(ctx, zkvm.STARK, proofs.StorageInclusionIn{Store: sc.Store, Update: sc.Update, Storage: sc.Storage})
	require.NoError(t, err)
	assert.Equal(t, []string{"committee", "storage"}, f.calls)
	require.Len(t, f.args, 5)
	store, err := sc.Store.MarshalSSZ()
	require.NoError(t, err)
	assert.Equal(t, store, f.args[0])
	assert.Equal(t, store, f.args[2])

	_, err = c.ProveCommitteeChange(ctx, zkvm.STARK, nil, sc.Update)
	assert.ErrorIs(t, err, errMissingInput)
	_, err = c.ProveStorageInclusion(ctx, zkvm.STARK, proofs.StorageInclusionIn{Store: sc.Store})
	assert.ErrorIs(t, err, errMissingInput)
}

func TestProofServerAccountInclusion(t *testing.T) {
	f, c := newFakeProofServer(t, true)
	leaves := aptostest.Leaves(8, 1)
	tree := aptostest.NewTree(leaves)
	in := proofs.AccountInclusionIn{
		Proof:     tree.Prove(leaves[3].Key),
		Key:       leaves[3].Key,
		ValueHash: leaves[3].ValueHash,
		Root:      tree.Root(),
	}
	_, err := c.ProveAccountInclusion(context.Background(), zkvm.STARK, in)
	require.NoError(t, err)
	require.Len(t, f.args, 4)
	assert.Equal(t, in.Key[:], f.args[1])
	assert.Equal(t, in.Root[:], f.args[3])
}

func TestProofServerErrors(t *testing.T) {
	_, c := newFakeProofServer(t, false)
	ctx := context.Background()
	assert.Error(t, c.TestEndpoint(ctx))

	_, err := c.ProveLongestChain(ctx, zkvm.ProvingMode(9), kadenatest.NewWindow(3, 0))
	assert.ErrorIs(t, err, zkvm.ErrUnknownMode)
}
