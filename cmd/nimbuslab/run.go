package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/nimbuslab/routing-lab/internal/config"
	"github.com/nimbuslab/routing-lab/internal/harness"
	"github.com/nimbuslab/routing-lab/internal/metrics"
	"github.com/nimbuslab/routing-lab/internal/routingcfg"
)

var (
	iterations  int
	recordsOut  string
	printReport bool
)

var runCmd = &cobra.Command{
	Use:   "run [policy]",
	Short: "Run N simulation iterations against a chosen routing policy",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runRun,
}

func init() {
	runCmd.Flags().IntVar(&iterations, "iterations", 1000, "number of simulation iterations")
	runCmd.Flags().StringVar(&recordsOut, "records", "", "CSV event log path (default ./records.csv)")
	runCmd.Flags().BoolVar(&printReport, "report", true, "print the aggregate report at run end")
}

func runRun(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	// A positional policy name takes precedence over the --policy flag.
	if len(args) == 1 {
		policyName = args[0]
	}

	path := configPath
	if path == "" {
		path = config.DefaultConfigPath
	}
	cfg, err := routingcfg.LoadConfig(path)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	rng := newRNG()
	policy, conn, err := buildPolicy(ctx, policyName, rng)
	if err != nil {
		return err
	}
	defer conn.Close()

	recPath := recordsOut
	if recPath == "" {
		recPath = config.DefaultRecordsPath
	}
	recorder, err := metrics.NewRecorder(recPath)
	if err != nil {
		return fmt.Errorf("opening event log: %w", err)
	}
	defer recorder.Close()

	loop := harness.New(cfg, policy, rng, recorder, slog.Default())
	defer func() {
		if err := loop.Close(ctx); err != nil {
			slog.Warn("invalidate_windows_failed", "error", err)
		}
	}()

	if _, err := loop.Run(ctx, iterations); err != nil {
		return fmt.Errorf("run: %w", err)
	}

	if printReport {
		fmt.Print(loop.Report().String())
	}
	return nil
}
