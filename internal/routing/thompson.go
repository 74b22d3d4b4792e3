package routing

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/nimbuslab/routing-lab/internal/model"
)

// ThompsonSampling draws theta ~ Beta(alpha, beta) per eligible connector
// and picks the maximum draw, ties going to the lowest index. On update both
// alpha and beta decay by gamma, and only the one matching the outcome is
// incremented: alpha on success, beta on failure. See DESIGN.md Open
// Question 1.
type ThompsonSampling struct {
	gamma float64
	rng   *rand.Rand
}

// NewThompsonSampling builds a Thompson-sampling policy with discount
// factor gamma, backed by rng.
func NewThompsonSampling(gamma float64, rng *rand.Rand) *ThompsonSampling {
	return &ThompsonSampling{gamma: gamma, rng: rng}
}

// rngSource adapts a *rand.Rand to the golang.org/x/exp/rand.Source
// interface required by gonum's distuv package.
type rngSource struct {
	rng *rand.Rand
}

func (s rngSource) Uint64() uint64 {
	return uint64(s.rng.Int63())<<1 | uint64(s.rng.Int63()&1)
}

func (s rngSource) Seed(seed uint64) {
	s.rng.Seed(int64(seed))
}

func (t *ThompsonSampling) Select(connectors []*Connector, eligible []int) int {
	best := eligible[0]
	bestDraw := math.Inf(-1)
	for _, idx := range eligible {
		c := connectors[idx]
		dist := distuv.Beta{Alpha: c.Alpha, Beta: c.Beta, Src: rngSource{t.rng}}
		draw := dist.Rand()
		if draw > bestDraw || (draw == bestDraw && idx < best) {
			bestDraw = draw
			best = idx
		}
	}
	return best
}

func (t *ThompsonSampling) Update(connectors []*Connector, index int, outcome model.Outcome) {
	c := connectors[index]
	success := outcome.IsSuccess()

	if success {
		c.Alpha = t.gamma*c.Alpha + 1.0
	} else {
		c.Alpha = t.gamma * c.Alpha
	}
	if !success {
		c.Beta = t.gamma*c.Beta + 1.0
	} else {
		c.Beta = t.gamma * c.Beta
	}

	c.Attempts++
	if success {
		c.Successes++
	}
}
