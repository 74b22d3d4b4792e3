// Package routing implements the routing policy set: a Sliding-Window UCB
// bandit, a Discounted Thompson-Sampling bandit, a Straight-Through
// uniform-random policy, and a remote success-rate-service-backed policy.
// All four share the Policy contract below and never see or touch
// connectors outside the eligible subset handed to them by the harness.
package routing

import (
	"github.com/nimbuslab/routing-lab/internal/model"
)

// Connector is the bandit-state record for one PSP connector. Each policy
// reads and writes only the fields it needs; the record holds all of them
// so the harness can switch policies at runtime without losing history.
type Connector struct {
	Name      model.Key
	Attempts  int
	Successes int
	Window    []bool
	Alpha     float64
	Beta      float64
}

// NewConnector returns a freshly-appended bandit-state record with the
// uninformative Beta(1,1) prior.
func NewConnector(name model.Key) *Connector {
	return &Connector{Name: name, Alpha: 1.0, Beta: 1.0}
}

// SuccessRate returns successes/attempts, or 0 when untried.
func (c *Connector) SuccessRate() float64 {
	if c.Attempts == 0 {
		return 0
	}
	return float64(c.Successes) / float64(c.Attempts)
}

// Policy is the shared contract every routing algorithm implements.
// eligible is a slice of indices into connectors, the only indices the
// policy is permitted to read or write. Select must return one of them;
// Update must be called with the index Select returned.
type Policy interface {
	// Select picks one connector among the eligible indices and returns its
	// index into connectors.
	Select(connectors []*Connector, eligible []int) int
	// Update records the outcome of the attempt at connectors[index].
	Update(connectors []*Connector, index int, outcome model.Outcome)
}
