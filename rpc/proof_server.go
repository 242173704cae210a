package rpc

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	gethrpc "github.com/ethereum/go-ethereum/rpc"

	"github.com/larskuhtz/zk-light-clients/ethereum"
	"github.com/larskuhtz/zk-light-clients/kadena"
	"github.com/larskuhtz/zk-light-clients/log"
	"github.com/larskuhtz/zk-light-clients/proofs"
	"github.com/larskuhtz/zk-light-clients/zkvm"
)

// ProverNamespace is the JSON-RPC namespace of the proof server.
const ProverNamespace = "prover"

// ProofServerClient calls a remote proof server over JSON-RPC.
type ProofServerClient struct {
	rpc *gethrpc.Client
	log *log.Logger
}

// DialProofServer connects to the proof server at rawurl.
func DialProofServer(ctx context.Context, rawurl string, logger *log.Logger) (*ProofServerClient, error) {
	c, err := gethrpc.DialContext(ctx, rawurl)
	if err != nil {
		return nil, fmt.Errorf("rpc: dial proof server: %w", err)
	}
	return NewProofServerClient(c, logger), nil
}

// NewProofServerClient wraps an established JSON-RPC connection.
func NewProofServerClient(c *gethrpc.Client, logger *log.Logger) *ProofServerClient {
	if logger == nil {
		logger = log.Default()
	}
	return &ProofServerClient{rpc: c, log: logger.Module("proof_server")}
}

// Close releases the connection.
func (c *ProofServerClient) Close() { c.rpc.Close() }

func (c *ProofServerClient) call(ctx context.Context, result any, method string, args ...any) error {
	if err := c.rpc.CallContext(ctx, result, ProverNamespace+"_"+method, args...); err != nil {
		return fmt.Errorf("rpc: %s_%s: %w", ProverNamespace, method, err)
	}
	return nil
}

func (c *ProofServerClient) prove(ctx context.Context, method string, args ...any) (*zkvm.Proof, error) {
	proof := new(zkvm.Proof)
	if err := c.call(ctx, proof, method, args...); err != nil {
		return nil, err
	}
	c.log.Debug("proof received", "method", method, "mode", proof.Mode, "bytes", len(proof.Data))
	return proof, nil
}

func (c *ProofServerClient) verify(ctx context.Context, method string, proof *zkvm.Proof) (bool, error) {
	var ok bool
	err := c.call(ctx, &ok, method, proof)
	return ok, err
}

// TestEndpoint checks that the server reports itself healthy.
func (c *ProofServerClient) TestEndpoint(ctx context.Context) error {
	var ok bool
	if err := c.call(ctx, &ok, "health"); err != nil {
		return err
	}
	if !ok {
		return errors.New("rpc: proof server unhealthy")
	}
	return nil
}

var errMissingInput = errors.New("rpc: missing prover input")

func marshalSSZ(v interface{ MarshalSSZ() ([]byte, error) }) (hexutil.Bytes, error) {
	return v.MarshalSSZ()
}

// ProveCommitteeChange proves that update rotates store's sync committee.
func (c *ProofServerClient) ProveCommitteeChange(ctx context.Context, mode zkvm.ProvingMode, store *ethereum.Store, update *ethereum.Update) (*zkvm.Proof, error) {
	if store == nil || update == nil {
		return nil, errMissingInput
	}
	s, err := marshalSSZ(store)
	if err != nil {
		return nil, err
	}
	u, err := marshalSSZ(update)
	if err != nil {
		return nil, err
	}
	return c.prove(ctx, "proveCommitteeChange", mode, s, u)
}

// VerifyCommitteeChange checks a committee change proof.
func (c *ProofServerClient) VerifyCommitteeChange(ctx context.Context, proof *zkvm.Proof) (bool, error) {
	return c.verify(ctx, "verifyCommitteeChange", proof)
}

// ProveStorageInclusion proves storage slots under update's finalized
// execution state root.
func (c *ProofServerClient) ProveStorageInclusion(ctx context.Context, mode zkvm.ProvingMode, in proofs.StorageInclusionIn) (*zkvm.Proof, error) {
	if in.Store == nil || in.Update == nil || in.Storage == nil {
		return nil, errMissingInput
	}
	s, err := marshalSSZ(in.Store)
	if err != nil {
		return nil, err
	}
	u, err := marshalSSZ(in.Update)
	if err != nil {
		return nil, err
	}
	p, err := in.Storage.MarshalRLP()
	if err != nil {
		return nil, err
	}
	return c.prove(ctx, "proveStorageInclusion", mode, s, u, hexutil.Bytes(p))
}

// VerifyStorageInclusion checks a storage inclusion proof.
func (c *ProofServerClient) VerifyStorageInclusion(ctx context.Context, proof *zkvm.Proof) (bool, error) {
	return c.verify(ctx, "verifyStorageInclusion", proof)
}

// ProveAccountInclusion proves an Aptos account leaf under a state root.
func (c *ProofServerClient) ProveAccountInclusion(ctx context.Context, mode zkvm.ProvingMode, in proofs.AccountInclusionIn) (*zkvm.Proof, error) {
	if in.Proof == nil {
		return nil, errMissingInput
	}
	p, err := in.Proof.MarshalBCS()
	if err != nil {
		return nil, err
	}
	return c.prove(ctx, "proveAccountInclusion", mode, hexutil.Bytes(p),
		common.Hash(in.Key), common.Hash(in.ValueHash), common.Hash(in.Root))
}

// VerifyAccountInclusion checks an account inclusion proof.
func (c *ProofServerClient) VerifyAccountInclusion(ctx context.Context, proof *zkvm.Proof) (bool, error) {
	return c.verify(ctx, "verifyAccountInclusion", proof)
}

// ProveLongestChain proves the work and roots of a layer window.
func (c *ProofServerClient) ProveLongestChain(ctx context.Context, mode zkvm.ProvingMode, layers []*kadena.LayerHeader) (*zkvm.Proof, error) {
	return c.prove(ctx, "proveLongestChain", mode, hexutil.Bytes(kadena.EncodeLayerHeaders(layers)))
}

// VerifyLongestChain checks a longest chain proof.
func (c *ProofServerClient) VerifyLongestChain(ctx context.Context, proof *zkvm.Proof) (bool, error) {
	return c.verify(ctx, "verifyLongestChain", proof)
}
