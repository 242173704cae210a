package node_test

import (
	"context"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/common/hexutil"
	gethrpc "github.com/ethereum/go-ethereum/rpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/larskuhtz/zk-light-clients/aptos/aptostest"
	"github.com/larskuhtz/zk-light-clients/ethereum/ethtest"
	"github.com/larskuhtz/zk-light-clients/kadena"
	"github.com/larskuhtz/zk-light-clients/kadena/kadenatest"
	"github.com/larskuhtz/zk-light-clients/log"
	"github.com/larskuhtz/zk-light-clients/node"
	"github.com/larskuhtz/zk-light-clients/programs"
	"github.com/larskuhtz/zk-light-clients/proofs"
	"github.com/larskuhtz/zk-light-clients/rpc"
	"github.com/larskuhtz/zk-light-clients/zkvm"
)

var (
	serverOnce sync.Once
	server     *node.Server
	serverErr  error
)

// readyServer returns a shared server with keys for every pipeline.
func readyServer(t *testing.T) *node.Server {
	t.Helper()
	serverOnce.Do(func() {
		cfg := node.DefaultConfig()
		cfg.Server.SetupOnStart = false
		server, serverErr = node.New(cfg, zkvm.NewLocalBackend(log.Discard()), log.Discard())
		if serverErr == nil {
			serverErr = server.Provers().Setup(context.Background())
		}
	})
	require.NoError(t, serverErr)
	return server
}

func dial(t *testing.T, s *node.Server) *rpc.ProofServerClient {
	t.Helper()
	c := rpc.NewProofServerClient(gethrpc.DialInProc(s.RPC()), log.Discard())
	t.Cleanup(c.Close)
	return c
}

func TestProverAPIHealth(t *testing.T) {
	cfg := node.DefaultConfig()
	s, err := node.New(cfg, zkvm.NewLocalBackend(log.Discard()), log.Discard())
	require.NoError(t, err)
	assert.Error(t, dial(t, s).TestEndpoint(context.Background()), "keys not generated")

	assert.NoError(t, dial(t, readyServer(t)).TestEndpoint(context.Background()))
}

func TestProverAPILongestChain(t *testing.T) {
	c := dial(t, readyServer(t))
	ctx := context.Background()
	layers := kadenatest.NewWindow(5, 300)
	want, err := kadena.VerifyWindow(layers)
	require.NoError(t, err)

	for _, mode := range []zkvm.ProvingMode{zkvm.STARK, zkvm.SNARK} {
		t.Run(mode.String(), func(t *testing.T) {
			proof, err := c.ProveLongestChain(ctx, mode, layers)
			require.NoError(t, err)
			assert.Equal(t, mode, proof.Mode)

			ok, err := c.VerifyLongestChain(ctx, proof)
			require.NoError(t, err)
			assert.True(t, ok)

			got, err := readyServer(t).Provers().LongestChain.Output(proof)
			require.NoError(t, err)
			assert.Equal(t, want, got)

			proof.PublicValues[len(proof.PublicValues)-1] ^= 1
			ok, err = c.VerifyLongestChain(ctx, proof)
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}
}

func TestProverAPIRejectsBrokenWindow(t *testing.T) {
	c := dial(t, readyServer(t))
	layers := kadenatest.NewWindow(4, 10)
	layers[2] = kadenatest.NewLayer(nil, 12, kadenatest.DefaultTarget)

	_, err := c.ProveLongestChain(context.Background(), zkvm.STARK, layers)
	assert.Error(t, err)
}

func TestProverAPIEthereum(t *testing.T) {
	c := dial(t, readyServer(t))
	ctx := context.Background()
	sc, err := ethtest.NewScenario()
	require.NoError(t, err)

	proof, err := c.ProveCommitteeChange(ctx, zkvm.STARK, sc.Store, sc.Update)
	require.NoError(t, err)
	ok, err := c.VerifyCommitteeChange(ctx, proof)
	require.NoError(t, err)
	assert.True(t, ok)

	// A committee change proof is bound to its program.
	ok, err = c.VerifyStorageInclusion(ctx, proof)
	require.NoError(t, err)
	assert.False(t, ok)

	proof, err = c.ProveStorageInclusion(ctx, zkvm.STARK, proofs.StorageInclusionIn{Store: sc.Store, Update: sc.Update, Storage: sc.Storage})
	require.NoError(t, err)
	ok, err = c.VerifyStorageInclusion(ctx, proof)
	require.NoError(t, err)
	assert.True(t, ok)

	out, err := programs.DecodeStorageInclusionOutput(mustValues(t, proof))
	require.NoError(t, err)
	assert.Equal(t, ethtest.ScenarioAddress, out.Address)
	assert.Len(t, out.Slots, 2)
}

func TestProverAPIAccountInclusion(t *testing.T) {
	c := dial(t, readyServer(t))
	ctx := context.Background()
	leaves := aptostest.Leaves(16, 9)
	tree := aptostest.NewTree(leaves)
	in := proofs.AccountInclusionIn{
		Proof:     tree.Prove(leaves[5].Key),
		Key:       leaves[5].Key,
		ValueHash: leaves[5].ValueHash,
		Root:      tree.Root(),
	}
	proof, err := c.ProveAccountInclusion(ctx, zkvm.SNARK, in)
	require.NoError(t, err)
	ok, err := c.VerifyAccountInclusion(ctx, proof)
	require.NoError(t, err)
	assert.True(t, ok)

	in.ValueHash[0] ^= 1
	_, err = c.ProveAccountInclusion(ctx, zkvm.STARK, in)
	assert.Error(t, err)
}

func TestProverAPIMalformedInput(t *testing.T) {
	raw := gethrpc.DialInProc(readyServer(t).RPC())
	t.Cleanup(raw.Close)
	var proof zkvm.Proof
	err := raw.Call(&proof, "prover_proveLongestChain", zkvm.STARK, hexutil.Bytes{1, 2, 3})
	assert.Error(t, err)

	var ok bool
	err = raw.Call(&ok, "prover_verifyLongestChain", nil)
	assert.Error(t, err)
}

func mustValues(t *testing.T, p *zkvm.Proof) *zkvm.PublicValues {
	t.Helper()
	v, err := p.Values()
	require.NoError(t, err)
	return v
}
