package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultUCB(t *testing.T) {
	d := DefaultUCB()
	assert.Equal(t, 5, d.WindowSize)
	assert.Equal(t, 2.0, d.Exploration)
}

func TestDefaultThompson(t *testing.T) {
	d := DefaultThompson()
	assert.Equal(t, 0.5, d.Gamma)
}

func TestDefaultRemoteSR(t *testing.T) {
	d := DefaultRemoteSR()
	assert.Equal(t, uint32(5), d.MinAggregatesSize)
	assert.Equal(t, uint32(50), d.MaxAggregatesSize)
	assert.Equal(t, 0.5, d.DefaultSuccessRate)
}
