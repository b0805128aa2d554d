package chemistry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pwrsim/config"
	"pwrsim/fault"
)

func TestAdvance_CleanWaterStaysAtMakeup(t *testing.T) {
	cfg := config.Default().WaterChemistry
	c := New(&cfg)
	for i := 0; i < 100; i++ {
		require.Empty(t, c.Advance(0, 60))
	}
	s := c.State()
	assert.InDelta(t, cfg.ChloridePPB, s.ChloridePPB, 1e-9)
	assert.InDelta(t, cfg.PH, s.PH, 1e-9)
	assert.InDelta(t, 0, s.Aggressiveness, 1e-9)
}

func TestAdvance_LeakRaisesChlorideAndAggressiveness(t *testing.T) {
	cfg := config.Default().WaterChemistry
	c := New(&cfg)
	c.Advance(0.01, 60)
	s := c.State()
	ingress := cfg.LeakChloridePPBPerKg * 0.01 * 60
	assert.InDelta(t, cfg.ChloridePPB+ingress, s.ChloridePPB, 1e-9)
	assert.InDelta(t, cfg.SodiumPPB+ingress*sodiumPerChloride, s.SodiumPPB, 1e-9)
	assert.Less(t, s.PH, cfg.PH)
	assert.Positive(t, s.Aggressiveness)
}

func TestAdvance_BlowdownRemovesExcess(t *testing.T) {
	cfg := config.Default().WaterChemistry
	cfg.BlowdownFractionPerHour = 0.5
	c := New(&cfg)
	c.Advance(1, 1)
	high := c.State().ChloridePPB
	for i := 0; i < 24; i++ {
		c.Advance(0, 3600)
	}
	low := c.State().ChloridePPB
	assert.Less(t, low, high)
	assert.Greater(t, low, cfg.ChloridePPB)
}

func TestAdvance_ChlorideLimitWarns(t *testing.T) {
	cfg := config.Default().WaterChemistry
	c := New(&cfg)
	faults := c.Advance(cfg.ChlorideLimitPPB/cfg.LeakChloridePPBPerKg, 1)
	require.Len(t, faults, 1)
	assert.Equal(t, fault.Warning, faults[0].Kind)
	assert.False(t, faults[0].Degrading())
}
