package routing

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nimbuslab/routing-lab/internal/model"
)

func TestStraightThrough_SelectsAmongEligible(t *testing.T) {
	policy := NewStraightThrough(rand.New(rand.NewSource(1)))
	connectors := []*Connector{NewConnector("A"), NewConnector("B"), NewConnector("C")}
	eligible := []int{0, 2}

	for i := 0; i < 50; i++ {
		idx := policy.Select(connectors, eligible)
		assert.Contains(t, eligible, idx)
	}
}

func TestStraightThrough_UpdateIsNoOp(t *testing.T) {
	policy := NewStraightThrough(rand.New(rand.NewSource(1)))
	connectors := []*Connector{NewConnector("A")}

	policy.Update(connectors, 0, model.Success)
	assert.Equal(t, 0, connectors[0].Attempts)
	assert.Equal(t, 0, connectors[0].Successes)
}
