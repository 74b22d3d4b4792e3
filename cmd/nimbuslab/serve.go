package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nimbuslab/routing-lab/internal/config"
	"github.com/nimbuslab/routing-lab/internal/handler"
	"github.com/nimbuslab/routing-lab/internal/harness"
	"github.com/nimbuslab/routing-lab/internal/metrics"
	"github.com/nimbuslab/routing-lab/internal/routingcfg"
)

var serverAddr string

var serveCmd = &cobra.Command{
	Use:   "serve [policy]",
	Short: "Expose the simulation loop over HTTP for ad-hoc exploration",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serverAddr, "addr", "", "HTTP listen address (default :8080)")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

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
		if err := loop.Close(context.Background()); err != nil {
			slog.Warn("invalidate_windows_failed", "error", err)
		}
	}()

	addr := serverAddr
	if addr == "" {
		addr = config.DefaultServerPort
	}

	mux := http.NewServeMux()
	handler.New(loop, slog.Default()).RegisterRoutes(mux)

	srv := &http.Server{Addr: addr, Handler: mux}
	errCh := make(chan error, 1)
	go func() {
		slog.Info("server_starting", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		slog.Info("server_stopping")
		return srv.Shutdown(context.Background())
	case err := <-errCh:
		return fmt.Errorf("serve: %w", err)
	}
}
