package rpc

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/ethclient/gethclient"
	gethrpc "github.com/ethereum/go-ethereum/rpc"

	"github.com/larskuhtz/zk-light-clients/ethereum"
	"github.com/larskuhtz/zk-light-clients/log"
)

// ExecutionClient fetches EIP-1186 proofs from an execution node.
type ExecutionClient struct {
	rpc  *gethrpc.Client
	eth  *ethclient.Client
	geth *gethclient.Client
	log  *log.Logger
}

// DialExecution connects to the execution node at rawurl.
func DialExecution(ctx context.Context, rawurl string, logger *log.Logger) (*ExecutionClient, error) {
	c, err := gethrpc.DialContext(ctx, rawurl)
	if err != nil {
		return nil, fmt.Errorf("rpc: dial execution node: %w", err)
	}
	return NewExecutionClient(c, logger), nil
}

// NewExecutionClient wraps an established JSON-RPC connection.
func NewExecutionClient(c *gethrpc.Client, logger *log.Logger) *ExecutionClient {
	if logger == nil {
		logger = log.Default()
	}
	return &ExecutionClient{
		rpc:  c,
		eth:  ethclient.NewClient(c),
		geth: gethclient.New(c),
		log:  logger.Module("execution"),
	}
}

// Close releases the connection.
func (c *ExecutionClient) Close() { c.rpc.Close() }

// TestEndpoint checks that the node answers eth_chainId.
func (c *ExecutionClient) TestEndpoint(ctx context.Context) error {
	_, err := c.eth.ChainID(ctx)
	return err
}

// GetStorageProof fetches the proof of address and the given storage keys at
// block number. A nil number requests the latest block.
func (c *ExecutionClient) GetStorageProof(ctx context.Context, address common.Address, keys []common.Hash, number *big.Int) (*ethereum.StorageProof, error) {
	hexKeys := make([]string, len(keys))
	for i, k := range keys {
		hexKeys[i] = k.Hex()
	}
	res, err := c.geth.GetProof(ctx, address, hexKeys, number)
	if err != nil {
		return nil, fmt.Errorf("rpc: eth_getProof: %w", err)
	}
	c.log.Debug("eth_getProof", "address", address, "keys", len(keys), "nodes", len(res.AccountProof))

	proof := &ethereum.StorageProof{Address: address}
	if proof.AccountProof, err = decodeNodes(res.AccountProof); err != nil {
		return nil, err
	}
	for _, s := range res.StorageProof {
		nodes, err := decodeNodes(s.Proof)
		if err != nil {
			return nil, err
		}
		var value common.Hash
		if s.Value != nil {
			value = common.BigToHash(s.Value)
		}
		proof.StorageSlots = append(proof.StorageSlots, ethereum.StorageSlot{
			Key:   common.HexToHash(s.Key),
			Value: value,
			Proof: nodes,
		})
	}
	return proof, nil
}

func decodeNodes(nodes []string) ([][]byte, error) {
	out := make([][]byte, len(nodes))
	for i, n := range nodes {
		b, err := hexutil.Decode(n)
		if err != nil {
			return nil, fmt.Errorf("rpc: proof node %d: %w", i, err)
		}
		out[i] = b
	}
	return out, nil
}
