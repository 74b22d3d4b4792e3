package routing

import (
	"math"

	"github.com/nimbuslab/routing-lab/internal/model"
)

// SlidingWindowUCB selects the eligible connector maximizing
// successes/attempts + c*sqrt(ln(total)/attempts), restricted to a bounded
// FIFO window of recent outcomes per connector.
type SlidingWindowUCB struct {
	windowSize  int
	exploration float64
}

// NewSlidingWindowUCB builds a UCB policy with the given window size W and
// exploration constant c. A window size below 1 is clamped to 1; the window
// must hold at least the outcome being pushed or eviction would underflow.
func NewSlidingWindowUCB(windowSize int, exploration float64) *SlidingWindowUCB {
	if windowSize < 1 {
		windowSize = 1
	}
	return &SlidingWindowUCB{windowSize: windowSize, exploration: exploration}
}

func (u *SlidingWindowUCB) Select(connectors []*Connector, eligible []int) int {
	for _, idx := range eligible {
		if connectors[idx].Attempts == 0 {
			return idx
		}
	}

	total := 0
	for _, idx := range eligible {
		total += connectors[idx].Attempts
	}

	best := eligible[0]
	bestScore := math.Inf(-1)
	for _, idx := range eligible {
		c := connectors[idx]
		score := c.SuccessRate() + u.exploration*math.Sqrt(math.Log(float64(total))/float64(c.Attempts))
		if score > bestScore || (score == bestScore && idx < best) {
			bestScore = score
			best = idx
		}
	}
	return best
}

func (u *SlidingWindowUCB) Update(connectors []*Connector, index int, outcome model.Outcome) {
	c := connectors[index]

	if len(c.Window) == u.windowSize {
		oldest := c.Window[0]
		c.Window = c.Window[1:]
		if oldest {
			c.Successes--
		}
		c.Attempts--
	}

	success := outcome.IsSuccess()
	c.Window = append(c.Window, success)
	c.Attempts++
	if success {
		c.Successes++
	}
}
