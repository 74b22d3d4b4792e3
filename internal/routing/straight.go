package routing

import (
	"math/rand"

	"github.com/nimbuslab/routing-lab/internal/model"
)

// StraightThrough picks uniformly at random among the eligible connectors
// and never learns from outcomes. Used as the harness's baseline policy.
type StraightThrough struct {
	rng *rand.Rand
}

// NewStraightThrough builds a straight-through policy backed by rng.
func NewStraightThrough(rng *rand.Rand) *StraightThrough {
	return &StraightThrough{rng: rng}
}

func (s *StraightThrough) Select(_ []*Connector, eligible []int) int {
	return eligible[s.rng.Intn(len(eligible))]
}

func (s *StraightThrough) Update(_ []*Connector, _ int, _ model.Outcome) {
	// No-op: straight-through routing does not learn.
}
