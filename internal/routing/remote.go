package routing

import (
	"context"
	"log/slog"
	"math"

	"github.com/nimbuslab/routing-lab/internal/model"
	"github.com/nimbuslab/routing-lab/internal/srclient"
	"github.com/nimbuslab/routing-lab/internal/srpc"
)

// scorer is the subset of *srclient.Client that RemoteSR depends on; it
// exists so tests can substitute a fake without an actual gRPC connection.
type scorer interface {
	Calculate(ctx context.Context, id string, cfg srclient.SuccessBasedRoutingConfig, params string, connectors []model.Key, headers srclient.Headers) (*srpc.CalSuccessRateResponse, error)
	Update(ctx context.Context, id string, cfg srclient.SuccessBasedRoutingConfig, params string, connector model.Key, outcome model.Outcome, headers srclient.Headers) (*srpc.UpdateSuccessRateWindowResponse, error)
	Invalidate(ctx context.Context, id string, headers srclient.Headers) error
}

// RemoteSR delegates scoring to an external success-rate aggregator over
// gRPC. Refresh must be called once per iteration before Select so the
// policy has a current score per eligible connector; Select itself never
// touches the network. Update pushes the observed outcome with a blocking
// call but logs and ignores transport failures rather than failing the
// iteration, since a single dropped update does not invalidate the run.
type RemoteSR struct {
	client   scorer
	cfg      srclient.SuccessBasedRoutingConfig
	headers  srclient.Headers
	fallback *StraightThrough
	logger   *slog.Logger

	id     string
	params string
	scores map[model.Key]float64
}

// NewRemoteSR wires a routing policy to a remote success-rate service.
// fallback is used whenever Refresh has not yet populated scores for the
// current iteration, e.g. on a cold start or after a transport error.
func NewRemoteSR(client *srclient.Client, cfg srclient.SuccessBasedRoutingConfig, headers srclient.Headers, fallback *StraightThrough, logger *slog.Logger) *RemoteSR {
	return &RemoteSR{client: client, cfg: cfg, headers: headers, fallback: fallback, logger: logger}
}

// Refresh fetches a fresh score per eligible connector for this iteration
// and returns the raw error, if any, so the caller can tell a
// misconfiguration (srclient.MissingField, which skips the iteration) apart
// from a transient transport failure (degrade this iteration to fallback
// selection and continue). Either way scores is cleared on error so Select
// falls back to uniform-random selection.
func (r *RemoteSR) Refresh(ctx context.Context, id string, ctxVals model.Context, connectors []*Connector, eligible []int) error {
	r.id = id
	r.params = srclient.BuildParams(ctxVals)

	labels := make([]model.Key, len(eligible))
	for i, idx := range eligible {
		labels[i] = connectors[idx].Name
	}

	resp, err := r.client.Calculate(ctx, id, r.cfg, r.params, labels, r.headers)
	if err != nil {
		r.scores = nil
		return err
	}

	scores := make(map[model.Key]float64, len(resp.LabelsWithScore))
	for _, s := range resp.LabelsWithScore {
		scores[model.Key(s.Label)] = s.Score
	}
	r.scores = scores
	return nil
}

// Select picks the eligible connector with the highest cached score,
// falling back to StraightThrough when no score is cached (cold start or
// after a failed Refresh).
func (r *RemoteSR) Select(connectors []*Connector, eligible []int) int {
	if r.scores == nil {
		return r.fallback.Select(connectors, eligible)
	}

	best := eligible[0]
	bestScore := math.Inf(-1)
	found := false
	for _, idx := range eligible {
		score, ok := r.scores[connectors[idx].Name]
		if !ok {
			continue
		}
		found = true
		if score > bestScore {
			bestScore = score
			best = idx
		}
	}
	if !found {
		return r.fallback.Select(connectors, eligible)
	}
	return best
}

// Update records the outcome locally (so reports stay accurate regardless
// of remote availability) and pushes it to the aggregator's window.
func (r *RemoteSR) Update(connectors []*Connector, index int, outcome model.Outcome) {
	c := connectors[index]
	c.Attempts++
	if outcome.IsSuccess() {
		c.Successes++
	}

	_, err := r.client.Update(context.Background(), r.id, r.cfg, r.params, c.Name, outcome, r.headers)
	if err != nil {
		r.logger.Warn("remote success-rate window update failed", "error", err, "connector", c.Name)
	}
}

// InvalidateRun clears the aggregator's server-side state for the most
// recent run id. The aggregator's keyspace is shared across runs, so a run
// that skips this leaks its window into the next run's scores.
func (r *RemoteSR) InvalidateRun(ctx context.Context) error {
	if r.id == "" {
		return nil
	}
	return r.client.Invalidate(ctx, r.id, r.headers)
}
