// File: cmd/pageserver/main.go
// Package main
// Page server: streams the pattern page to every connected client over
// Parallel concurrent writers until the client goes away.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/momentics/hioload-pagebench/control"
	"github.com/momentics/hioload-pagebench/internal/transport"
	"github.com/momentics/hioload-pagebench/server"
)

// RootCmd starts the server.
var RootCmd = &cobra.Command{
	Use:           "pageserver [ip:port]",
	Short:         "stream fixed-size pages to throughput clients",
	Args:          cobra.MaximumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          run,
}

func init() {
	control.BindFlags(RootCmd.Flags())
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := control.Load(viper.New(), cmd.Flags(), args)
	if err != nil {
		return err
	}
	logger := control.NewLogger(os.Stdout, cfg.LogLevel)
	opts, err := transport.FromConfig(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metrics := control.NewMetrics("server")
	if err := metrics.Serve(ctx, cfg.MetricsAddr, logger); err != nil {
		return err
	}

	scfg := server.DefaultConfig()
	scfg.ListenAddr = cfg.Address.String()
	scfg.Transport = opts
	srv, err := server.NewServer(scfg, server.WithLogger(logger), server.WithMetrics(metrics))
	if err != nil {
		return err
	}
	return srv.Serve(ctx)
}

func main() {
	if err := RootCmd.Execute(); err != nil {
		control.NewLogger(os.Stderr, "error").Errorln("pageserver:", err)
		os.Exit(1)
	}
}
