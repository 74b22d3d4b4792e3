// Package config holds the typed tunables for the routing lab: default
// policy parameters, network defaults for the remote success-rate service,
// and the well-known file paths the harness reads and writes.
package config

import "time"

const (
	// DefaultConfigPath is where the harness looks for the simulation
	// config document absent an override.
	DefaultConfigPath = "./input.json"

	// DefaultRecordsPath is the append-only CSV event log the recorder
	// writes one row to per transaction.
	DefaultRecordsPath = "./records.csv"

	// DefaultServerPort is the HTTP port cmd/nimbuslab serve binds by
	// default.
	DefaultServerPort = ":8080"

	// DefaultSRHost/DefaultSRPort locate the remote success-rate service
	// absent SR_HOST/SR_PORT overrides.
	DefaultSRHost = "127.0.0.1"
	DefaultSRPort = "8000"

	// DefaultHealthCheckTimeout bounds how long the startup health probe
	// waits for a SERVING response before aborting the run.
	DefaultHealthCheckTimeout = 5 * time.Second
)

// UCBDefaults are the Sliding-Window UCB parameters the `ucb` CLI policy
// selects.
type UCBDefaults struct {
	WindowSize  int
	Exploration float64
}

// DefaultUCB returns the stock UCB parameter set: W=5, c=2.0.
func DefaultUCB() UCBDefaults {
	return UCBDefaults{WindowSize: 5, Exploration: 2.0}
}

// ThompsonDefaults are the Discounted Thompson Sampling parameters the
// `thompson` CLI policy selects.
type ThompsonDefaults struct {
	Gamma float64
}

// DefaultThompson returns the stock Thompson parameter set: gamma=0.5.
func DefaultThompson() ThompsonDefaults {
	return ThompsonDefaults{Gamma: 0.5}
}

// RemoteSRDefaults are the SuccessBasedRoutingConfig values the `remote-sr`
// CLI policy supplies; no CLI flag overrides them.
type RemoteSRDefaults struct {
	MinAggregatesSize  uint32
	MaxAggregatesSize  uint32
	DefaultSuccessRate float64
}

// DefaultRemoteSR returns conservative defaults for the remote success-rate
// policy's window sizing.
func DefaultRemoteSR() RemoteSRDefaults {
	return RemoteSRDefaults{
		MinAggregatesSize:  5,
		MaxAggregatesSize:  50,
		DefaultSuccessRate: 0.5,
	}
}
