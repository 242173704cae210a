package rpc

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"slices"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/larskuhtz/zk-light-clients/kadena"
	"github.com/larskuhtz/zk-light-clients/log"
)

// DefaultNetwork is the Chainweb version served by mainnet nodes.
const DefaultNetwork = "mainnet01"

// Chainweb client errors.
var (
	ErrEmptyCut       = errors.New("rpc: cut lists no chains")
	ErrWindowUnderrun = errors.New("rpc: window starts below genesis")
	ErrMissingHeader  = errors.New("rpc: node did not return every header in range")
)

// CutHash is the head of one chain in a cut.
type CutHash struct {
	Height uint64 `json:"height"`
	Hash   string `json:"hash"`
}

// Cut is the node's current view of the chain heads.
type Cut struct {
	Hashes   map[string]CutHash `json:"hashes"`
	Height   uint64             `json:"height"`
	Weight   string             `json:"weight"`
	Instance string             `json:"instance"`
	ID       string             `json:"id"`
}

// ChainIDs returns the chains of the cut in ascending order.
func (c *Cut) ChainIDs() ([]uint32, error) {
	ids := make([]uint32, 0, len(c.Hashes))
	for k := range c.Hashes {
		id, err := strconv.ParseUint(k, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("rpc: cut chain id %q: %w", k, err)
		}
		ids = append(ids, uint32(id))
	}
	slices.Sort(ids)
	return ids, nil
}

// MinHeight returns the lowest chain head height of the cut.
func (c *Cut) MinHeight() uint64 {
	first := true
	var h uint64
	for _, v := range c.Hashes {
		if first || v.Height < h {
			h, first = v.Height, false
		}
	}
	return h
}

type headerPage struct {
	Items []string `json:"items"`
	Limit int      `json:"limit"`
	Next  *string  `json:"next"`
}

// ChainwebClient fetches block headers from a Chainweb node.
type ChainwebClient struct {
	rest    restClient
	network string
}

// NewChainwebClient returns a client for the node at baseURL serving network.
func NewChainwebClient(baseURL, network string, timeout time.Duration, logger *log.Logger) *ChainwebClient {
	if network == "" {
		network = DefaultNetwork
	}
	if logger == nil {
		logger = log.Default()
	}
	return &ChainwebClient{
		rest:    newRESTClient(baseURL, timeout, logger.Module("chainweb").With("network", network)),
		network: network,
	}
}

func (c *ChainwebClient) path(suffix string) string {
	return "/chainweb/0.0/" + c.network + suffix
}

// TestEndpoint checks that the node answers its info endpoint.
func (c *ChainwebClient) TestEndpoint(ctx context.Context) error {
	_, err := c.rest.get(ctx, "/info", nil, mimeJSON)
	return err
}

// GetCut fetches the current cut.
func (c *ChainwebClient) GetCut(ctx context.Context) (*Cut, error) {
	cut := new(Cut)
	if err := c.rest.getJSON(ctx, c.path("/cut"), nil, cut); err != nil {
		return nil, err
	}
	if len(cut.Hashes) == 0 {
		return nil, ErrEmptyCut
	}
	return cut, nil
}

// GetChainHeaders fetches the headers of one chain with heights in
// [minHeight, maxHeight], following pagination until the node reports no
// further page.
func (c *ChainwebClient) GetChainHeaders(ctx context.Context, chain uint32, minHeight, maxHeight uint64) ([]*kadena.ChainHeader, error) {
	path := c.path("/chain/" + strconv.FormatUint(uint64(chain), 10) + "/header")
	params := url.Values{
		"minheight": {strconv.FormatUint(minHeight, 10)},
		"maxheight": {strconv.FormatUint(maxHeight, 10)},
	}
	var headers []*kadena.ChainHeader
	for {
		var page headerPage
		if err := c.rest.getJSON(ctx, path, params, &page); err != nil {
			return nil, err
		}
		for _, item := range page.Items {
			h, err := kadena.DecodeRawHeader(item)
			if err != nil {
				return nil, fmt.Errorf("rpc: chain %d: %w", chain, err)
			}
			headers = append(headers, h)
		}
		if page.Next == nil || *page.Next == "" || len(page.Items) == 0 {
			return headers, nil
		}
		params.Set("next", *page.Next)
	}
}

// GetLayerHeaders fetches the layers with heights in
// [target-window, target+window] across every chain of the current cut.
// Chains are fetched concurrently.
func (c *ChainwebClient) GetLayerHeaders(ctx context.Context, target, window uint64) ([]*kadena.LayerHeader, error) {
	if window > target {
		return nil, fmt.Errorf("%w: target %d window %d", ErrWindowUnderrun, target, window)
	}
	cut, err := c.GetCut(ctx)
	if err != nil {
		return nil, err
	}
	chains, err := cut.ChainIDs()
	if err != nil {
		return nil, err
	}
	lo, hi := target-window, target+window
	if head := cut.MinHeight(); hi > head {
		return nil, fmt.Errorf("rpc: window end %d above cut height %d", hi, head)
	}

	var (
		mu      sync.Mutex
		byChain = make(map[uint32][]*kadena.ChainHeader, len(chains))
	)
	g, gctx := errgroup.WithContext(ctx)
	for _, chain := range chains {
		chain := chain
		g.Go(func() error {
			headers, err := c.GetChainHeaders(gctx, chain, lo, hi)
			if err != nil {
				return err
			}
			mu.Lock()
			byChain[chain] = headers
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return assembleLayers(chains, byChain, lo, hi)
}

// assembleLayers groups per-chain headers by height.
func assembleLayers(chains []uint32, byChain map[uint32][]*kadena.ChainHeader, lo, hi uint64) ([]*kadena.LayerHeader, error) {
	n := int(hi - lo + 1)
	grid := make([][]*kadena.ChainHeader, n)
	for _, chain := range chains {
		for _, h := range byChain[chain] {
			if h.Height < lo || h.Height > hi || h.ChainID != chain {
				continue
			}
			grid[h.Height-lo] = append(grid[h.Height-lo], h)
		}
	}
	layers := make([]*kadena.LayerHeader, n)
	for i, headers := range grid {
		if len(headers) != len(chains) {
			return nil, fmt.Errorf("%w: height %d has %d of %d chains", ErrMissingHeader, lo+uint64(i), len(headers), len(chains))
		}
		layers[i] = kadena.NewLayerHeader(lo+uint64(i), headers)
	}
	return layers, nil
}
