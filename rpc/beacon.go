package rpc

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/larskuhtz/zk-light-clients/ethereum"
	"github.com/larskuhtz/zk-light-clients/log"
)

// MaxUpdatesPerRequest is the beacon API limit on light client updates per
// request.
const MaxUpdatesPerRequest = 128

// BeaconClient fetches light client data from a beacon node.
type BeaconClient struct {
	rest restClient
}

// NewBeaconClient returns a client for the beacon node at baseURL.
func NewBeaconClient(baseURL string, timeout time.Duration, logger *log.Logger) *BeaconClient {
	if logger == nil {
		logger = log.Default()
	}
	return &BeaconClient{rest: newRESTClient(baseURL, timeout, logger.Module("beacon"))}
}

// TestEndpoint checks that the node answers its health endpoint.
func (c *BeaconClient) TestEndpoint(ctx context.Context) error {
	_, err := c.rest.get(ctx, "/eth/v1/node/health", nil, mimeJSON)
	return err
}

// GetBootstrap fetches the bootstrap for a trusted block root.
func (c *BeaconClient) GetBootstrap(ctx context.Context, blockRoot common.Hash) (*ethereum.Bootstrap, error) {
	body, err := c.rest.get(ctx, "/eth/v1/beacon/light_client/bootstrap/"+blockRoot.Hex(), nil, mimeSSZ)
	if err != nil {
		return nil, err
	}
	b := new(ethereum.Bootstrap)
	if err := b.UnmarshalSSZ(body); err != nil {
		return nil, fmt.Errorf("rpc: bootstrap: %w", err)
	}
	return b, nil
}

// GetUpdates fetches count updates starting at the given sync committee
// period.
func (c *BeaconClient) GetUpdates(ctx context.Context, startPeriod, count uint64) (*ethereum.UpdateResponse, error) {
	if count == 0 || count > MaxUpdatesPerRequest {
		return nil, fmt.Errorf("rpc: update count %d out of range [1, %d]", count, MaxUpdatesPerRequest)
	}
	params := url.Values{
		"start_period": {strconv.FormatUint(startPeriod, 10)},
		"count":        {strconv.FormatUint(count, 10)},
	}
	body, err := c.rest.get(ctx, "/eth/v1/beacon/light_client/updates", params, mimeSSZ)
	if err != nil {
		return nil, err
	}
	r := new(ethereum.UpdateResponse)
	if err := r.UnmarshalSSZ(body); err != nil {
		return nil, fmt.Errorf("rpc: updates: %w", err)
	}
	return r, nil
}
