package routing

import (
	"context"
	"errors"
	"log/slog"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nimbuslab/routing-lab/internal/model"
	"github.com/nimbuslab/routing-lab/internal/srclient"
	"github.com/nimbuslab/routing-lab/internal/srpc"
)

type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(discardWriter{}, nil))
}

type fakeScorer struct {
	calcResp      *srpc.CalSuccessRateResponse
	calcErr       error
	updateErr     error
	updateCall    *srpc.LabelWithStatus
	invalidateErr error
	invalidated   bool
}

func (f *fakeScorer) Calculate(_ context.Context, _ string, _ srclient.SuccessBasedRoutingConfig, _ string, _ []model.Key, _ srclient.Headers) (*srpc.CalSuccessRateResponse, error) {
	return f.calcResp, f.calcErr
}

func (f *fakeScorer) Update(_ context.Context, _ string, _ srclient.SuccessBasedRoutingConfig, _ string, connector model.Key, outcome model.Outcome, _ srclient.Headers) (*srpc.UpdateSuccessRateWindowResponse, error) {
	f.updateCall = &srpc.LabelWithStatus{Label: string(connector), Status: outcome.IsSuccess()}
	return &srpc.UpdateSuccessRateWindowResponse{}, f.updateErr
}

func (f *fakeScorer) Invalidate(_ context.Context, _ string, _ srclient.Headers) error {
	f.invalidated = true
	return f.invalidateErr
}

func newTestRemoteSR(client scorer) *RemoteSR {
	fallback := NewStraightThrough(rand.New(rand.NewSource(1)))
	return &RemoteSR{client: client, fallback: fallback, logger: discardLogger()}
}

func TestRemoteSR_Select_FallsBackWithNoScores(t *testing.T) {
	r := newTestRemoteSR(&fakeScorer{})
	connectors := []*Connector{NewConnector("A"), NewConnector("B")}

	idx := r.Select(connectors, []int{0, 1})
	assert.Contains(t, []int{0, 1}, idx)
}

func TestRemoteSR_Select_PicksHighestCachedScore(t *testing.T) {
	r := newTestRemoteSR(&fakeScorer{})
	connectors := []*Connector{NewConnector("A"), NewConnector("B"), NewConnector("C")}
	r.scores = map[model.Key]float64{"A": 0.1, "B": 0.9, "C": 0.5}

	idx := r.Select(connectors, []int{0, 1, 2})
	assert.Equal(t, 1, idx)
}

func TestRemoteSR_Select_IgnoresIneligibleScores(t *testing.T) {
	r := newTestRemoteSR(&fakeScorer{})
	connectors := []*Connector{NewConnector("A"), NewConnector("B")}
	r.scores = map[model.Key]float64{"A": 0.1, "B": 0.9}

	idx := r.Select(connectors, []int{0})
	assert.Equal(t, 0, idx)
}

func TestRemoteSR_Refresh_PopulatesScores(t *testing.T) {
	fake := &fakeScorer{calcResp: &srpc.CalSuccessRateResponse{
		LabelsWithScore: []srpc.LabelWithScore{{Label: "A", Score: 0.4}, {Label: "B", Score: 0.8}},
	}}
	r := newTestRemoteSR(fake)
	connectors := []*Connector{NewConnector("A"), NewConnector("B")}

	err := r.Refresh(context.Background(), "req-1", model.Context{"payment_methods": "card"}, connectors, []int{0, 1})
	require.NoError(t, err)

	require.NotNil(t, r.scores)
	assert.Equal(t, 0.8, r.scores["B"])
	idx := r.Select(connectors, []int{0, 1})
	assert.Equal(t, 1, idx)
}

func TestRemoteSR_Refresh_TransportErrorClearsScores(t *testing.T) {
	fake := &fakeScorer{calcErr: errors.New("unavailable")}
	r := newTestRemoteSR(fake)
	r.scores = map[model.Key]float64{"A": 1.0}
	connectors := []*Connector{NewConnector("A")}

	err := r.Refresh(context.Background(), "req-1", model.Context{"payment_methods": "card"}, connectors, []int{0})

	require.Error(t, err)
	assert.Nil(t, r.scores)
}

func TestRemoteSR_Update_TracksLocalStateAndPushesRemote(t *testing.T) {
	fake := &fakeScorer{}
	r := newTestRemoteSR(fake)
	connectors := []*Connector{NewConnector("A")}

	r.Update(connectors, 0, model.Success)

	assert.Equal(t, 1, connectors[0].Attempts)
	assert.Equal(t, 1, connectors[0].Successes)
	require.NotNil(t, fake.updateCall)
	assert.Equal(t, "A", fake.updateCall.Label)
	assert.True(t, fake.updateCall.Status)
}

func TestRemoteSR_Update_SwallowsTransportError(t *testing.T) {
	fake := &fakeScorer{updateErr: errors.New("unavailable")}
	r := newTestRemoteSR(fake)
	connectors := []*Connector{NewConnector("A")}

	assert.NotPanics(t, func() {
		r.Update(connectors, 0, model.Failure)
	})
	assert.Equal(t, 1, connectors[0].Attempts)
	assert.Equal(t, 0, connectors[0].Successes)
}
