// Command nimbuslab runs the payment-routing simulation harness: it loads
// a JSON simulation config, drives N sample -> filter -> select -> evaluate
// -> update -> record iterations against a chosen routing policy, and
// reports the resulting per-connector success rates. It can also serve the
// loop over HTTP for ad-hoc exploration (see serve.go).
package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var (
	configPath string
	policyName string
	seed       int64
	tenantID   string
	requestID  string
	srHost     string
	srPort     string
)

var rootCmd = &cobra.Command{
	Use:     "nimbuslab",
	Short:   "Payment-routing simulation and evaluation harness",
	Version: "0.1.0",
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to the simulation config JSON (default ./input.json)")
	rootCmd.PersistentFlags().StringVar(&policyName, "policy", "straight", "routing policy: thompson, ucb, straight, remote-sr")
	rootCmd.PersistentFlags().Int64Var(&seed, "seed", 0, "random seed (0 selects a time-based seed)")
	rootCmd.PersistentFlags().StringVar(&tenantID, "tenant-id", "nimbuslab-demo", "x-tenant-id header attached to remote SR calls")
	rootCmd.PersistentFlags().StringVar(&requestID, "request-id", "", "x-request-id header attached to remote SR calls")
	rootCmd.PersistentFlags().StringVar(&srHost, "sr-host", "", "remote success-rate service host (default 127.0.0.1 or $SR_HOST)")
	rootCmd.PersistentFlags().StringVar(&srPort, "sr-port", "", "remote success-rate service port (default 8000 or $SR_PORT)")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(serveCmd)
}

func rootLogger() *slog.Logger {
	return slog.Default()
}

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	if err := rootCmd.Execute(); err != nil {
		slog.Error("nimbuslab_failed", "error", err)
		os.Exit(1)
	}
}
