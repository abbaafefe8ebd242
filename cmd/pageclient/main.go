// File: cmd/pageclient/main.go
// Package main
// Page client: reads from a page server over Parallel concurrent readers for
// a fixed window and prints the throughput.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/momentics/hioload-pagebench/client"
	"github.com/momentics/hioload-pagebench/control"
	"github.com/momentics/hioload-pagebench/internal/transport"
)

// RootCmd runs one measurement.
var RootCmd = &cobra.Command{
	Use:           "pageclient [ip:port]",
	Short:         "measure page throughput from a page server",
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

	ctx := context.Background()
	metrics := control.NewMetrics("client")
	mctx, cancel := context.WithCancel(ctx)
	defer cancel()
	if err := metrics.Serve(mctx, cfg.MetricsAddr, logger); err != nil {
		return err
	}

	ccfg := client.DefaultConfig()
	ccfg.Addr = cfg.Address.String()
	ccfg.Transport = opts
	ccfg.Metrics = metrics
	ccfg.Logger = logger

	report, err := client.Run(ctx, ccfg)
	if err != nil {
		return err
	}
	if report.FailedReaders > 0 {
		logger.Warnf("%d of %d readers stopped on errors", report.FailedReaders, ccfg.Parallel)
	}
	return report.Print(cmd.OutOrStdout())
}

func main() {
	if err := RootCmd.Execute(); err != nil {
		control.NewLogger(os.Stderr, "error").Errorln("pageclient:", err)
		os.Exit(1)
	}
}
