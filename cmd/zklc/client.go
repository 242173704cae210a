package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/larskuhtz/zk-light-clients/node"
	"github.com/larskuhtz/zk-light-clients/rpc"
	"github.com/larskuhtz/zk-light-clients/zkvm"
)

// endpoints are the remote services a client command talks to. Flags
// override values read from --config.
type endpoints struct {
	configPath  string
	proofServer string
	beacon      string
	chainweb    string
	network     string
	execution   string
	timeout     time.Duration
}

func (e *endpoints) register(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&e.configPath, "config", "", "read endpoints from a TOML config file")
	f.StringVar(&e.proofServer, "proof-server", "", "proof server URL")
	f.StringVar(&e.beacon, "beacon", "", "beacon node URL")
	f.StringVar(&e.chainweb, "chainweb", "", "Chainweb node URL")
	f.StringVar(&e.network, "network", "", "Chainweb network (default mainnet01)")
	f.StringVar(&e.execution, "execution", "", "execution node URL")
	f.DurationVar(&e.timeout, "timeout", rpc.DefaultTimeout, "HTTP request timeout")
}

func (e *endpoints) client(ctx context.Context, g *globals) (*rpc.Client, error) {
	logger := g.logger()
	if e.configPath != "" {
		cfg, err := node.LoadConfig(e.configPath)
		if err != nil {
			return nil, err
		}
		if e.proofServer == "" {
			e.proofServer = "http://" + cfg.Addr()
		}
		e.beacon = firstNonEmpty(e.beacon, cfg.Beacon.URL)
		e.chainweb = firstNonEmpty(e.chainweb, cfg.Chainweb.URL)
		e.network = firstNonEmpty(e.network, cfg.Chainweb.Network)
		e.execution = firstNonEmpty(e.execution, cfg.Execution.URL)
	}

	c := new(rpc.Client)
	if e.beacon != "" {
		c.Beacon = rpc.NewBeaconClient(e.beacon, e.timeout, logger)
	}
	if e.chainweb != "" {
		c.Chainweb = rpc.NewChainwebClient(e.chainweb, e.network, e.timeout, logger)
	}
	if e.execution != "" {
		ec, err := rpc.DialExecution(ctx, e.execution, logger)
		if err != nil {
			return nil, err
		}
		c.Execution = ec
	}
	if e.proofServer != "" {
		pc, err := rpc.DialProofServer(ctx, e.proofServer, logger)
		if err != nil {
			return nil, err
		}
		c.ProofServer = pc
	}
	return c, nil
}

// firstNonEmpty returns the first non-empty string.
func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}

func closeClient(c *rpc.Client) {
	if c.Execution != nil {
		c.Execution.Close()
	}
	if c.ProofServer != nil {
		c.ProofServer.Close()
	}
}

func newHealthCmd(g *globals) *cobra.Command {
	var e endpoints
	cmd := &cobra.Command{
		Use:   "health",
		Short: "Check that every configured endpoint is reachable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := e.client(cmd.Context(), g)
			if err != nil {
				return err
			}
			defer closeClient(c)
			if err := c.TestEndpoints(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "ok")
			return nil
		},
	}
	e.register(cmd)
	return cmd
}

func newProveCmd(g *globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prove",
		Short: "Request proofs from the proof server",
	}
	var (
		e      endpoints
		target uint64
		window uint64
		mode   string
		out    string
	)
	longest := &cobra.Command{
		Use:   "longest-chain",
		Short: "Prove the Chainweb layer window around a target height",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			m, err := zkvm.ParseProvingMode(mode)
			if err != nil {
				return err
			}
			c, err := e.client(cmd.Context(), g)
			if err != nil {
				return err
			}
			defer closeClient(c)
			if c.Chainweb == nil || c.ProofServer == nil {
				return errors.New("prove longest-chain needs --chainweb and --proof-server")
			}
			ctx := cmd.Context()
			layers, err := c.GetLayerHeaders(ctx, target, window)
			if err != nil {
				return err
			}
			proof, err := c.ProveLongestChain(ctx, m, layers)
			if err != nil {
				return err
			}
			return writeProof(cmd, out, proof)
		},
	}
	e.register(longest)
	longest.Flags().Uint64Var(&target, "target", 0, "target block height")
	longest.Flags().Uint64Var(&window, "window", 3, "layers on each side of the target")
	longest.Flags().StringVar(&mode, "mode", "stark", "proving mode: stark, snark")
	longest.Flags().StringVar(&out, "out", "", "write the proof to a file instead of stdout")
	longest.MarkFlagRequired("target")
	cmd.AddCommand(longest)
	return cmd
}

func newVerifyCmd(g *globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Verify proofs with the proof server",
	}
	var (
		e    endpoints
		path string
	)
	longest := &cobra.Command{
		Use:   "longest-chain",
		Short: "Verify a longest chain proof",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			proof, err := readProof(path)
			if err != nil {
				return err
			}
			c, err := e.client(cmd.Context(), g)
			if err != nil {
				return err
			}
			defer closeClient(c)
			if c.ProofServer == nil {
				return errors.New("verify longest-chain needs --proof-server")
			}
			ok, err := c.VerifyLongestChain(cmd.Context(), proof)
			if err != nil {
				return err
			}
			if !ok {
				return zkvm.ErrInvalidProof
			}
			fmt.Fprintln(cmd.OutOrStdout(), "valid")
			return nil
		},
	}
	e.register(longest)
	longest.Flags().StringVar(&path, "proof", "", "proof file")
	longest.MarkFlagRequired("proof")
	cmd.AddCommand(longest)
	return cmd
}

func writeProof(cmd *cobra.Command, path string, proof *zkvm.Proof) error {
	b, err := json.MarshalIndent(proof, "", "  ")
	if err != nil {
		return err
	}
	b = append(b, '\n')
	if path == "" {
		_, err = cmd.OutOrStdout().Write(b)
		return err
	}
	return os.WriteFile(path, b, 0o644)
}

func readProof(path string) (*zkvm.Proof, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	proof := new(zkvm.Proof)
	if err := json.Unmarshal(b, proof); err != nil {
		return nil, fmt.Errorf("proof %s: %w", path, err)
	}
	return proof, nil
}
