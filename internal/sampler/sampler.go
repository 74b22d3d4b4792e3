// Package sampler descends the user config tree, drawing one branch per
// level weighted by percentage, and accumulates a flat Context. The walk is
// pure given an injected random source.
package sampler

import (
	"errors"
	"math/rand"
	"sort"
	"strconv"

	"github.com/nimbuslab/routing-lab/internal/model"
	"github.com/nimbuslab/routing-lab/internal/routingcfg"
)

// ErrSamplerExhausted is returned when no child wins at a node. This cannot
// happen when the config's percentage invariants hold.
var ErrSamplerExhausted = errors.New("sampler exhausted: no child matched the drawn threshold")

// levelFieldNames is the literal context key each tree depth populates.
// Depth 0 is "payment_methods", depth 1 is "payment_method_type"; deeper
// nesting (not exercised by the shipped configs) reuses the last name.
var levelFieldNames = []model.Key{"payment_methods", "payment_method_type"}

func fieldNameForDepth(depth int) model.Key {
	if depth < len(levelFieldNames) {
		return levelFieldNames[depth]
	}
	return levelFieldNames[len(levelFieldNames)-1]
}

// Sample draws one full context from the user config using rng as the
// source of randomness.
func Sample(cfg routingcfg.UserConfig, rng *rand.Rand) (model.Context, error) {
	ctx := model.Context{
		"amount":   strconv.FormatUint(uint64(drawAmount(cfg.Amount, rng)), 10),
		"currency": currencyOrDefault(cfg.Currency),
	}

	drawn, err := sampleLevel(cfg.PaymentMethods, 0, rng)
	if err != nil {
		return nil, err
	}
	for k, v := range drawn {
		ctx[k] = v
	}
	return ctx, nil
}

func currencyOrDefault(c string) string {
	if c == "" {
		return "USD"
	}
	return c
}

func drawAmount(r routingcfg.AmountRange, rng *rand.Rand) uint32 {
	if r.Max <= r.Min {
		return r.Min
	}
	return r.Min + uint32(rng.Int63n(int64(r.Max-r.Min+1)))
}

// sampleLevel draws one child at this tree level in deterministic key
// order, then recurses into the winner's subtree if it is composite. The
// winner's own key is recorded under this level's field name first, then
// any deeper levels are merged on top, so a child key shadows its parent's
// key on collision.
func sampleLevel(level routingcfg.SimulationConfig, depth int, rng *rand.Rand) (model.Context, error) {
	keys := make([]model.Key, 0, len(level))
	for k := range level {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	r := rng.Intn(100)
	threshold := 0
	for _, k := range keys {
		node := level[k]
		threshold += node.Percentage
		if r >= threshold {
			continue
		}

		acc := model.Context{string(fieldNameForDepth(depth)): string(k)}
		if node.Next != nil {
			sub, err := sampleLevel(*node.Next, depth+1, rng)
			if err != nil {
				return nil, err
			}
			for k, v := range sub {
				acc[k] = v
			}
		}
		return acc, nil
	}
	return nil, ErrSamplerExhausted
}
