package sampler

import (
	"math/rand"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nimbuslab/routing-lab/internal/routingcfg"
)

func deterministicUserConfig() routingcfg.UserConfig {
	return routingcfg.UserConfig{
		Amount:   routingcfg.AmountRange{Min: 10, Max: 10},
		Currency: "USD",
		PaymentMethods: routingcfg.SimulationConfig{
			"card": routingcfg.PaymentMethodNode{
				Percentage: 100,
				Next: &routingcfg.SimulationConfig{
					"credit": routingcfg.PaymentMethodNode{Percentage: 100},
				},
			},
		},
	}
}

func TestSample_DeterministicPath(t *testing.T) {
	cfg := deterministicUserConfig()
	rng := rand.New(rand.NewSource(42))

	for i := 0; i < 20; i++ {
		ctx, err := Sample(cfg, rng)
		require.NoError(t, err)
		assert.Equal(t, "card", ctx["payment_methods"])
		assert.Equal(t, "credit", ctx["payment_method_type"])
		assert.Equal(t, "10", ctx["amount"])
		assert.Equal(t, "USD", ctx["currency"])
	}
}

func TestSample_AmountWithinRange(t *testing.T) {
	cfg := deterministicUserConfig()
	cfg.Amount = routingcfg.AmountRange{Min: 5, Max: 25}
	rng := rand.New(rand.NewSource(1))

	for i := 0; i < 500; i++ {
		ctx, err := Sample(cfg, rng)
		require.NoError(t, err)
		amt, err := strconv.Atoi(ctx["amount"])
		require.NoError(t, err)
		assert.GreaterOrEqual(t, amt, 5)
		assert.LessOrEqual(t, amt, 25)
	}
}

func TestSample_DefaultsCurrency(t *testing.T) {
	cfg := deterministicUserConfig()
	cfg.Currency = ""
	rng := rand.New(rand.NewSource(2))

	ctx, err := Sample(cfg, rng)
	require.NoError(t, err)
	assert.Equal(t, "USD", ctx["currency"])
}

func TestSample_ExhaustedOnUnderweightedTree(t *testing.T) {
	// Percentages summing below 100 leave a dead zone the drawn threshold
	// can land in; Validate would reject this tree, Sample reports it.
	cfg := routingcfg.UserConfig{
		PaymentMethods: routingcfg.SimulationConfig{
			"card": routingcfg.PaymentMethodNode{Percentage: 0},
		},
	}
	rng := rand.New(rand.NewSource(3))

	_, err := Sample(cfg, rng)
	require.ErrorIs(t, err, ErrSamplerExhausted)
}

func TestSample_WeightedDistribution(t *testing.T) {
	cfg := routingcfg.UserConfig{
		Amount: routingcfg.AmountRange{Min: 0, Max: 0},
		PaymentMethods: routingcfg.SimulationConfig{
			"card": routingcfg.PaymentMethodNode{Percentage: 90},
			"pix":  routingcfg.PaymentMethodNode{Percentage: 10},
		},
	}
	rng := rand.New(rand.NewSource(7))

	cardCount := 0
	const n = 20000
	for i := 0; i < n; i++ {
		ctx, err := Sample(cfg, rng)
		require.NoError(t, err)
		if ctx["payment_methods"] == "card" {
			cardCount++
		}
	}
	frac := float64(cardCount) / float64(n)
	assert.InDelta(t, 0.9, frac, 0.02)
}
