// Package evaluator implements the PSP evaluation engine: given a connector
// and a sampled context, it finds the matching rule (string-containment,
// with "*" wildcard support) and draws a Bernoulli outcome on the matched
// rule's success rate, falling back to the PSP config's default outcome.
package evaluator

import (
	"math/rand"
	"sort"
	"strings"

	"github.com/nimbuslab/routing-lab/internal/model"
	"github.com/nimbuslab/routing-lab/internal/routingcfg"
)

// Evaluate returns Success or Failure for one (connector, context) pair.
// Matching is string-containment against a flattened rendering of the
// context, kept for compatibility with rule sets authored against
// flattened-JSON contexts: a rule matches when the context string contains
// the rule's payment method key and, for per-type rules, the payment
// method type (or the rule's type is "*").
func Evaluate(connector model.Key, ctx model.Context, psp routingcfg.PspConfig, rng *rand.Rand) model.Outcome {
	details, ok := psp.PspVariants[connector]
	if !ok {
		return psp.DefaultOutcome()
	}

	sample := flatten(ctx)
	for _, pm := range sortedMethods(details.PaymentMethods) {
		rule := details.PaymentMethods[pm]
		if !strings.Contains(sample, string(pm)) {
			continue
		}
		if len(rule.Types) > 0 {
			for _, t := range rule.Types {
				if t.PaymentMethodType == "*" || strings.Contains(sample, string(t.PaymentMethodType)) {
					return model.FromBool(rng.Float64() < float64(t.SR)/100.0)
				}
			}
			continue
		}
		return model.FromBool(rng.Float64() < float64(rule.SR)/100.0)
	}
	return psp.DefaultOutcome()
}

// sortedMethods fixes the rule iteration order so a fixed seed replays the
// same outcomes even when two rules could both match.
func sortedMethods(rules map[model.Key]routingcfg.PaymentMethodRule) []model.Key {
	keys := make([]model.Key, 0, len(rules))
	for k := range rules {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// flatten renders the context as a single "key:value " string for
// containment checks.
func flatten(ctx model.Context) string {
	var b strings.Builder
	for k, v := range ctx {
		b.WriteString(k)
		b.WriteByte(':')
		b.WriteString(v)
		b.WriteByte(' ')
	}
	return b.String()
}
