package rpc

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/sync/errgroup"

	"github.com/larskuhtz/zk-light-clients/ethereum"
	"github.com/larskuhtz/zk-light-clients/kadena"
	"github.com/larskuhtz/zk-light-clients/zkvm"
)

// Endpoint is a remote service that can report its reachability.
type Endpoint interface {
	TestEndpoint(ctx context.Context) error
}

// Client is the entry point for remote calls. Sources left nil are not
// configured and their methods must not be called.
type Client struct {
	Beacon      *BeaconClient
	Chainweb    *ChainwebClient
	Execution   *ExecutionClient
	ProofServer *ProofServerClient
}

func (c *Client) endpoints() []Endpoint {
	var eps []Endpoint
	if c.Beacon != nil {
		eps = append(eps, c.Beacon)
	}
	if c.Chainweb != nil {
		eps = append(eps, c.Chainweb)
	}
	if c.Execution != nil {
		eps = append(eps, c.Execution)
	}
	if c.ProofServer != nil {
		eps = append(eps, c.ProofServer)
	}
	return eps
}

// TestEndpoints checks every configured source concurrently and returns the
// first failure.
func (c *Client) TestEndpoints(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, ep := range c.endpoints() {
		ep := ep
		g.Go(func() error { return ep.TestEndpoint(gctx) })
	}
	return g.Wait()
}

// GetUpdates fetches light client updates from the beacon node.
func (c *Client) GetUpdates(ctx context.Context, startPeriod, count uint64) (*ethereum.UpdateResponse, error) {
	return c.Beacon.GetUpdates(ctx, startPeriod, count)
}

// GetBootstrap fetches a bootstrap from the beacon node.
func (c *Client) GetBootstrap(ctx context.Context, blockRoot common.Hash) (*ethereum.Bootstrap, error) {
	return c.Beacon.GetBootstrap(ctx, blockRoot)
}

// GetLayerHeaders fetches the layer window around target from the Chainweb
// node.
func (c *Client) GetLayerHeaders(ctx context.Context, target, window uint64) ([]*kadena.LayerHeader, error) {
	return c.Chainweb.GetLayerHeaders(ctx, target, window)
}

// ProveLongestChain forwards layers to the proof server.
func (c *Client) ProveLongestChain(ctx context.Context, mode zkvm.ProvingMode, layers []*kadena.LayerHeader) (*zkvm.Proof, error) {
	return c.ProofServer.ProveLongestChain(ctx, mode, layers)
}

// VerifyLongestChain asks the proof server to verify proof.
func (c *Client) VerifyLongestChain(ctx context.Context, proof *zkvm.Proof) (bool, error) {
	return c.ProofServer.VerifyLongestChain(ctx, proof)
}
