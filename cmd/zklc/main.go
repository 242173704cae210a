// Command zklc runs the light client proof server and drives proofs against
// remote chain nodes.
//
// Usage:
//
//	zklc server --config server.toml
//	zklc config init --out server.toml
//	zklc health --proof-server http://127.0.0.1:3000 --chainweb https://api.chainweb.com
//	zklc prove longest-chain --target 5099342 --window 3 --mode snark --out proof.json
//	zklc verify longest-chain --proof proof.json
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/larskuhtz/zk-light-clients/log"
)

// Build-time version info, overridable with ldflags:
//
//	go build -ldflags "-X main.version=v0.2.0 -X main.commit=abc1234"
var (
	version = "v0.1.0-dev"
	commit  = "unknown"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// globals are the flags shared by every command.
type globals struct {
	logLevel  string
	logFormat string
	stderr    io.Writer
}

func (g *globals) logger() *log.Logger {
	l := log.NewWithWriter(g.stderr, g.logFormat, log.LevelFromString(g.logLevel))
	log.SetDefault(l)
	return l
}

// run executes the command line and returns the exit code.
func run(args []string, stdout, stderr io.Writer) int {
	root := newRootCmd(stderr)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return 1
	}
	return 0
}

func newRootCmd(stderr io.Writer) *cobra.Command {
	g := &globals{stderr: stderr}
	root := &cobra.Command{
		Use:           "zklc",
		Short:         "Zero-knowledge light client proof server and tools",
		Version:       version + " (" + commit + ")",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&g.logLevel, "log-level", "info", "log level: debug, info, warn, error")
	root.PersistentFlags().StringVar(&g.logFormat, "log-format", "text", "log format: text, json")

	root.AddCommand(
		newServerCmd(g),
		newConfigCmd(),
		newHealthCmd(g),
		newProveCmd(g),
		newVerifyCmd(g),
	)
	return root
}
