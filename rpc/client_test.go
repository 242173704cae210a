package rpc

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/larskuhtz/zk-light-clients/kadena/kadenatest"
	"github.com/larskuhtz/zk-light-clients/log"
	"github.com/larskuhtz/zk-light-clients/zkvm"
)

func TestClientTestEndpoints(t *testing.T) {
	_, beacon := newFakeBeacon(t)
	_, _, execution := newFakeExecution(t)
	_, healthy := newFakeProofServer(t, true)
	_, unhealthy := newFakeProofServer(t, false)

	c := &Client{Beacon: beacon, Execution: execution, ProofServer: healthy}
	assert.NoError(t, c.TestEndpoints(context.Background()))

	c.ProofServer = unhealthy
	assert.Error(t, c.TestEndpoints(context.Background()))

	assert.NoError(t, (&Client{}).TestEndpoints(context.Background()))
}

func TestClientLongestChain(t *testing.T) {
	layers := kadenatest.NewWindow(5, 20)
	srv := httptest.NewServer(&fakeChainweb{layers: layers})
	t.Cleanup(srv.Close)
	_, prover := newFakeProofServer(t, true)
	c := &Client{
		Chainweb:    NewChainwebClient(srv.URL, DefaultNetwork, 0, log.Discard()),
		ProofServer: prover,
	}
	ctx := context.Background()
	require.NoError(t, c.TestEndpoints(ctx))

	window, err := c.GetLayerHeaders(ctx, 22, 1)
	require.NoError(t, err)
	require.Len(t, window, 3)

	proof, err := c.ProveLongestChain(ctx, zkvm.STARK, window)
	require.NoError(t, err)
	ok, err := c.VerifyLongestChain(ctx, proof)
	require.NoError(t, err)
	assert.True(t, ok)
}
