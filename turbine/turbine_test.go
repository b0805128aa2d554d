package turbine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pwrsim/config"
	"pwrsim/fault"
	"pwrsim/steam_table"
)

func designTurbine() (*Turbine, *config.TurbineConfig) {
	cfg := config.Default().Secondary.Turbine
	return New(&cfg), &cfg
}

func designInput(flow float64) Input {
	return Input{
		SteamFlow:     flow,
		InletPressure: 7.0,
		InletEnthalpy: steam_table.VaporEnthalpy(7.0),
		BackPressure:  0.007,
		LoadDemand:    1,
	}
}

func TestAdvance_DesignPointGivesRatedPower(t *testing.T) {
	tb, cfg := designTurbine()
	res := tb.Advance(designInput(cfg.DesignSteamFlow), 1)
	require.Empty(t, res.Faults)
	s := res.State
	assert.InDelta(t, cfg.RatedPowerMWe, s.ElectricalPower, 1e-6)
	assert.InDelta(t, 0.9, s.ValvePosition, 1e-9)
	assert.InDelta(t, 1.0, s.SteamDemand, 1e-9)
	assert.InDelta(t, 1050, s.ExhaustFlow, 1e-9)
	assert.InDelta(t, 450, s.ExtractionFlow, 1e-9)
	assert.Less(t, s.ExhaustEnthalpy, steam_table.VaporEnthalpy(0.007))
	assert.Greater(t, s.ExhaustEnthalpy, steam_table.LiquidEnthalpy(0.007))
	assert.Greater(t, tb.InternalEfficiency(), 0.5)
	assert.Less(t, tb.InternalEfficiency(), 0.8)
}

func TestAdvance_OutputClampedAtMaximumLoad(t *testing.T) {
	tb, cfg := designTurbine()
	// steam at maximum_power_fraction of design
	in := designInput(1.1 * cfg.DesignSteamFlow)
	in.LoadDemand = 1.1
	res := tb.Advance(in, 1)
	assert.InDelta(t, cfg.MaximumLoad*cfg.RatedPowerMWe, res.State.ElectricalPower, 1e-9)
	require.Len(t, res.Faults, 1)
	assert.Equal(t, fault.PhysicalLimitViolation, res.Faults[0].Kind)
	assert.Greater(t, res.Faults[0].Value, res.Faults[0].Limit)
}

func TestAdvance_GovernorRampsAtValveRate(t *testing.T) {
	tb, cfg := designTurbine()
	in := designInput(cfg.DesignSteamFlow)
	in.LoadDemand = 0.5

	res := tb.Advance(in, 1)
	assert.InDelta(t, 0.9-cfg.ValveRatePerSecond, res.State.ValvePosition, 1e-9)
	for i := 0; i < 9; i++ {
		res = tb.Advance(in, 1)
	}
	assert.InDelta(t, 0.9-10*cfg.ValveRatePerSecond, res.State.ValvePosition, 1e-9)
	assert.InDelta(t, res.State.ValvePosition/cfg.DesignValvePosition, tb.SteamDemand(), 1e-12)
}

func TestTripAndReset(t *testing.T) {
	tb, cfg := designTurbine()
	tb.Trip("condenser back pressure")
	tb.Trip("second cause is ignored")
	assert.True(t, tb.Tripped())
	assert.Equal(t, 0.0, tb.SteamDemand())

	res := tb.Advance(designInput(300), 1)
	assert.Equal(t, 0.0, res.State.ElectricalPower)
	assert.Equal(t, 300.0, res.State.ExhaustFlow)
	assert.Equal(t, "condenser back pressure", res.State.TripCause)
	assert.Empty(t, res.Faults)

	tb.Reset()
	assert.False(t, tb.Tripped())
	res = tb.Advance(designInput(0), 1)
	assert.InDelta(t, cfg.ValveRatePerSecond, res.State.ValvePosition, 1e-9)
}

func TestDerateReducesOutput(t *testing.T) {
	tb, cfg := designTurbine()
	tb.SetDerate(0.9)
	res := tb.Advance(designInput(cfg.DesignSteamFlow), 1)
	assert.InDelta(t, 0.9*cfg.RatedPowerMWe, res.State.ElectricalPower, 1e-6)

	tb.Overhaul()
	res = tb.Advance(designInput(cfg.DesignSteamFlow), 1)
	assert.InDelta(t, cfg.RatedPowerMWe, res.State.ElectricalPower, 1e-6)
}

func TestBackPressureReducesOutput(t *testing.T) {
	ref, cfg := designTurbine()
	design := ref.Advance(designInput(cfg.DesignSteamFlow), 1).State

	tb, _ := designTurbine()
	in := designInput(cfg.DesignSteamFlow)
	in.BackPressure = 0.015
	s := tb.Advance(in, 1).State
	assert.Less(t, s.ElectricalPower, design.ElectricalPower)
	assert.Greater(t, s.ExhaustEnthalpy, design.ExhaustEnthalpy)
}
