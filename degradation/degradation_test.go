package degradation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pwrsim/config"
)

func TestModifiersFollowOperatingHours(t *testing.T) {
	cfg := config.DegradationConfig{SGFoulingRatePerKhr: 0.002, TurbineDeratePerKhr: 0.001}
	tr := New(cfg, nil)
	m := tr.Modifiers()
	assert.Equal(t, 1.0, m.SGFouling)
	assert.Equal(t, 1.0, m.TurbineDerate)

	tr.Advance(10000)
	m = tr.Modifiers()
	assert.InDelta(t, 0.98, m.SGFouling, 1e-12)
	assert.InDelta(t, 0.99, m.TurbineDerate, 1e-12)
	assert.Equal(t, 10000.0, m.OperatingHours)

	tr.Maintained(SteamGenerator)
	assert.Equal(t, 1.0, tr.Modifiers().SGFouling)
	assert.InDelta(t, 0.99, tr.Modifiers().TurbineDerate, 1e-12)
}

func TestModifiersAreBounded(t *testing.T) {
	tr := New(config.DegradationConfig{SGFoulingRatePerKhr: 1, TurbineDeratePerKhr: 1}, nil)
	tr.Advance(1e6)
	assert.Equal(t, 0.1, tr.Modifiers().SGFouling)
	assert.Equal(t, 0.5, tr.Modifiers().TurbineDerate)
}

func TestScheduledEventsReleasedInOrder(t *testing.T) {
	schedule := []config.MaintenanceEvent{
		{AtHours: 200, Component: Turbine, Action: "overhaul"},
		{AtHours: 50, Component: Condenser, Action: "chemical"},
		{AtHours: 5, Component: Feedwater, Action: "overhaul"},
	}
	tr := New(config.DegradationConfig{InitialOperatingHours: 10}, schedule)
	assert.Equal(t, 2, tr.Pending())

	assert.Empty(t, tr.Advance(30))
	due := tr.Advance(20)
	require.Len(t, due, 1)
	assert.Equal(t, Condenser, due[0].Component)

	due = tr.Advance(1000)
	require.Len(t, due, 1)
	assert.Equal(t, "overhaul", due[0].Action)
	assert.Equal(t, 0, tr.Pending())
	assert.Equal(t, 1060.0, tr.Hours())
}
