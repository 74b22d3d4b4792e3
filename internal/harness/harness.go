// Package harness wires the closed simulation loop together: sample a
// user, filter to merchant-eligible connectors, select one via a routing
// policy, evaluate the outcome against the PSP rule set, feed the outcome
// back into the policy, and record it.
package harness

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"

	"github.com/google/uuid"

	"github.com/nimbuslab/routing-lab/internal/eligibility"
	"github.com/nimbuslab/routing-lab/internal/evaluator"
	"github.com/nimbuslab/routing-lab/internal/metrics"
	"github.com/nimbuslab/routing-lab/internal/model"
	"github.com/nimbuslab/routing-lab/internal/routing"
	"github.com/nimbuslab/routing-lab/internal/routingcfg"
	"github.com/nimbuslab/routing-lab/internal/sampler"
	"github.com/nimbuslab/routing-lab/internal/srclient"
)

// refresher is implemented by routing.RemoteSR; other policies don't need
// a pre-Select network round trip.
type refresher interface {
	Refresh(ctx context.Context, id string, ctxVals model.Context, connectors []*routing.Connector, eligible []int) error
}

// invalidator is implemented by routing.RemoteSR to release server-side
// aggregator state when the run ends.
type invalidator interface {
	InvalidateRun(ctx context.Context) error
}

// Loop runs the sample -> filter -> select -> evaluate -> update -> record
// cycle repeatedly against one loaded configuration.
type Loop struct {
	cfg    *routingcfg.Config
	policy routing.Policy
	rng    *rand.Rand

	connectors []*routing.Connector
	index      map[model.Key]int

	recorder *metrics.Recorder
	logger   *slog.Logger
}

// New builds a Loop. cfg must already be validated (routingcfg.LoadConfig
// does this on load; a ConfigInvalid error there is fatal before a Loop is
// ever constructed).
func New(cfg *routingcfg.Config, policy routing.Policy, rng *rand.Rand, recorder *metrics.Recorder, logger *slog.Logger) *Loop {
	return &Loop{
		cfg:      cfg,
		policy:   policy,
		rng:      rng,
		index:    make(map[model.Key]int),
		recorder: recorder,
		logger:   logger,
	}
}

func (l *Loop) connectorIndex(name model.Key) int {
	if idx, ok := l.index[name]; ok {
		return idx
	}
	idx := len(l.connectors)
	l.connectors = append(l.connectors, routing.NewConnector(name))
	l.index[name] = idx
	return idx
}

// IterationResult summarizes one loop iteration for callers that want a
// per-iteration view (e.g. the demo HTTP endpoints), beyond what ends up in
// the aggregate Report.
type IterationResult struct {
	RequestID string
	Context   model.Context
	Connector model.Key
	Outcome   model.Outcome
	Skipped   bool
	Reason    string
}

// Run executes n iterations of the simulation loop. A SamplerExhausted
// error from the sampler (impossible when percentage invariants hold, but
// checked) is logged and the iteration is skipped, not treated as fatal. An
// empty eligible set is not an error: it is logged and the iteration is
// skipped. A MissingField error from a remote-SR policy's Refresh call is
// fatal to that iteration only: it is logged and the iteration is skipped.
// Any other Refresh transport error degrades that iteration to fallback
// selection and continues. All iterations of one Run call share a single
// aggregator id, so a remote-SR policy's windows accumulate across them.
func (l *Loop) Run(ctx context.Context, n int) ([]IterationResult, error) {
	results := make([]IterationResult, 0, n)
	runID := uuid.NewString()

	for i := 0; i < n; i++ {
		reqID := uuid.NewString()

		sampled, err := sampler.Sample(l.cfg.User, l.rng)
		if err != nil {
			l.logger.Warn("sampler_exhausted", "request_id", reqID, "error", err)
			results = append(results, IterationResult{RequestID: reqID, Skipped: true, Reason: "sampler_exhausted"})
			continue
		}

		pretty, _ := json.MarshalIndent(sampled, "", "  ")
		l.logger.Info("user_sample", "request_id", reqID, "sample", string(pretty))

		eligibleKeys := eligibility.Eligible(sampled, l.cfg.Merchant)
		if len(eligibleKeys) == 0 {
			l.logger.Info("no_eligible_connectors", "request_id", reqID)
			results = append(results, IterationResult{RequestID: reqID, Context: sampled, Skipped: true, Reason: "no_eligible_connectors"})
			continue
		}

		eligibleIdx := make([]int, len(eligibleKeys))
		for j, k := range eligibleKeys {
			eligibleIdx[j] = l.connectorIndex(k)
		}

		if rf, ok := l.policy.(refresher); ok {
			if err := rf.Refresh(ctx, runID, sampled, l.connectors, eligibleIdx); err != nil {
				if isMissingField(err) {
					l.logger.Warn("remote_sr_config_invalid", "request_id", reqID, "error", err)
					results = append(results, IterationResult{RequestID: reqID, Context: sampled, Skipped: true, Reason: "remote_sr_config_invalid"})
					continue
				}
				l.logger.Warn("remote_sr_refresh_failed", "request_id", reqID, "error", err)
			}
		}

		selected := l.policy.Select(l.connectors, eligibleIdx)
		connector := l.connectors[selected].Name

		outcome := evaluator.Evaluate(connector, sampled, l.cfg.Psp, l.rng)
		l.policy.Update(l.connectors, selected, outcome)

		l.logger.Info("routed",
			"request_id", reqID,
			"connector", connector,
			"outcome", outcome.String(),
		)

		if err := l.recorder.Record(metrics.Event{
			Connector:         connector,
			PaymentMethod:     sampled["payment_methods"],
			PaymentMethodType: sampled["payment_method_type"],
			Outcome:           outcome,
		}); err != nil {
			return results, fmt.Errorf("harness: record event: %w", err)
		}

		results = append(results, IterationResult{
			RequestID: reqID,
			Context:   sampled,
			Connector: connector,
			Outcome:   outcome,
		})
	}

	return results, nil
}

// Close invalidates the server-side aggregator state keyed by the most
// recent Run call's id; ids of earlier Run calls on the same Loop are not
// invalidated. It is a no-op for policies that don't hold remote state.
func (l *Loop) Close(ctx context.Context) error {
	if inv, ok := l.policy.(invalidator); ok {
		return inv.InvalidateRun(ctx)
	}
	return nil
}

// Report returns the accumulated metrics report for the run so far.
func (l *Loop) Report() metrics.Report {
	return l.recorder.Report()
}

func isMissingField(err error) bool {
	var mf *srclient.MissingField
	return errors.As(err, &mf)
}
