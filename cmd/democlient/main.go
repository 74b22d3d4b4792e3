// Command democlient is a one-shot demo client: it reads the simulation
// config document and POSTs it verbatim to a running `nimbuslab serve`
// instance, located via SERVER_URL.
package main

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"

	"github.com/nimbuslab/routing-lab/internal/config"
)

func serverURL() string {
	if url := os.Getenv("SERVER_URL"); url != "" {
		return url
	}
	return "http://127.0.0.1:8080/run"
}

func configPath() string {
	if path := os.Getenv("CONFIG_PATH"); path != "" {
		return path
	}
	return config.DefaultConfigPath
}

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := run(); err != nil {
		slog.Error("democlient_failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	path := configPath()
	body, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file %q: %w", path, err)
	}

	url := serverURL()
	resp, err := http.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("posting config to %s: %w", url, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response from %s: %w", url, err)
	}

	slog.Info("demo_run_posted", "url", url, "status", resp.StatusCode)
	fmt.Println(string(respBody))
	return nil
}
