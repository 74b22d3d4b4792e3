package evaluator

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nimbuslab/routing-lab/internal/model"
	"github.com/nimbuslab/routing-lab/internal/routingcfg"
)

func pspWith(connector model.Key, sr uint32, otherwise string) routingcfg.PspConfig {
	return routingcfg.PspConfig{
		PspVariants: map[model.Key]routingcfg.PspDetails{
			connector: {
				PaymentMethods: map[model.Key]routingcfg.PaymentMethodRule{
					"card": {SR: sr},
				},
			},
		},
		Otherwise: otherwise,
	}
}

func TestEvaluate_AlwaysSuccess(t *testing.T) {
	psp := pspWith("A", 100, "failure")
	ctx := model.Context{"payment_methods": "card"}
	rng := rand.New(rand.NewSource(1))

	for i := 0; i < 100; i++ {
		assert.Equal(t, model.Success, Evaluate("A", ctx, psp, rng))
	}
}

func TestEvaluate_AlwaysFailure(t *testing.T) {
	psp := pspWith("A", 0, "success")
	ctx := model.Context{"payment_methods": "card"}
	rng := rand.New(rand.NewSource(1))

	for i := 0; i < 100; i++ {
		assert.Equal(t, model.Failure, Evaluate("A", ctx, psp, rng))
	}
}

func TestEvaluate_FiftyPercentWithinTolerance(t *testing.T) {
	psp := pspWith("A", 50, "failure")
	ctx := model.Context{"payment_methods": "card"}
	rng := rand.New(rand.NewSource(99))

	const n = 100000
	successes := 0
	for i := 0; i < n; i++ {
		if Evaluate("A", ctx, psp, rng) == model.Success {
			successes++
		}
	}
	assert.InDelta(t, 0.5, float64(successes)/float64(n), 0.02)
}

func TestEvaluate_UnknownConnectorUsesDefault(t *testing.T) {
	psp := pspWith("A", 100, "success")
	ctx := model.Context{"payment_methods": "card"}
	rng := rand.New(rand.NewSource(1))

	assert.Equal(t, model.Success, Evaluate("B", ctx, psp, rng))
}

func TestEvaluate_NoMatchingRuleUsesDefault(t *testing.T) {
	psp := pspWith("A", 100, "failure")
	ctx := model.Context{"payment_methods": "pix"}
	rng := rand.New(rand.NewSource(1))

	assert.Equal(t, model.Failure, Evaluate("A", ctx, psp, rng))
}

func TestEvaluate_PerTypeWildcard(t *testing.T) {
	psp := routingcfg.PspConfig{
		PspVariants: map[model.Key]routingcfg.PspDetails{
			"A": {
				PaymentMethods: map[model.Key]routingcfg.PaymentMethodRule{
					"card": {Types: []routingcfg.PaymentTypeRule{
						{PaymentMethodType: "*", SR: 100},
					}},
				},
			},
		},
		Otherwise: "failure",
	}
	ctx := model.Context{"payment_methods": "card", "payment_method_type": "zip_pay"}
	rng := rand.New(rand.NewSource(1))

	assert.Equal(t, model.Success, Evaluate("A", ctx, psp, rng))
}
