package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/larskuhtz/zk-light-clients/node"
	"github.com/larskuhtz/zk-light-clients/zkvm"
)

func newServerCmd(g *globals) *cobra.Command {
	var (
		configPath string
		port       int
	)
	cmd := &cobra.Command{
		Use:   "server",
		Short: "Run the proof server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := node.DefaultConfig()
			if configPath != "" {
				var err error
				if cfg, err = node.LoadConfig(configPath); err != nil {
					return err
				}
			}
			if cmd.Flags().Changed("port") {
				cfg.Server.Port = port
			}
			if !cmd.Flags().Changed("log-level") {
				g.logLevel = cfg.Log.Level
			}
			if !cmd.Flags().Changed("log-format") {
				g.logFormat = cfg.Log.Format
			}
			logger := g.logger()
			logger.Info("zklc starting", "version", version, "commit", commit, "addr", cfg.Addr())

			srv, err := node.New(cfg, zkvm.NewLocalBackend(logger), logger)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			if err := srv.Run(ctx); err != nil {
				return fmt.Errorf("server: %w", err)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "", "path to a TOML config file")
	cmd.Flags().IntVar(&port, "port", 0, "override the configured listen port")
	return cmd
}

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage proof server configuration",
	}
	var out string
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write the default configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := node.DefaultConfig().WriteConfig(out); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "wrote", out)
			return nil
		},
	}
	initCmd.Flags().StringVar(&out, "out", "zklc.toml", "output path")
	cmd.AddCommand(initCmd)
	return cmd
}
