package condenser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pwrsim/config"
	"pwrsim/fault"
	"pwrsim/steam_table"
)

// turbine exhaust at the design point
const (
	designExhaustFlow     = 1050.0
	designExhaustEnthalpy = 2060.0
)

func designCondenser() (*Condenser, *config.CondenserConfig) {
	cfg := config.Default().Secondary.Condenser
	return New(&cfg, 25), &cfg
}

func designInput() Input {
	return Input{
		ExhaustFlow:             designExhaustFlow,
		ExhaustEnthalpy:         designExhaustEnthalpy,
		CoolingWaterTemperature: 25,
	}
}

func TestAdvance_DesignPoint(t *testing.T) {
	c, cfg := designCondenser()
	var res Result
	for i := 0; i < 60; i++ {
		res = c.Advance(designInput(), 1)
		require.Empty(t, res.Faults)
	}
	s := res.State
	assert.InDelta(t, cfg.DesignCondenserPressure, s.Pressure, 2e-4)
	assert.InDelta(t, 37.5, s.HotwellTemperature, 0.5)
	assert.InDelta(t, cfg.DesignHeatDuty, s.HeatDuty, 0.01*cfg.DesignHeatDuty)
	assert.InDelta(t, 25+s.HeatDuty*1000/(cfg.DesignCoolingWaterFlow*steam_table.WaterCp), s.CoolingWaterOutlet, 1e-9)
	assert.Greater(t, s.Effectiveness, 0.5)
	assert.Less(t, s.Effectiveness, 0.8)
	assert.Equal(t, cfg.InitialTubeCount, s.ActiveTubes)
}

func TestAdvance_OverloadIsFlaggedNotHidden(t *testing.T) {
	c, cfg := designCondenser()
	in := designInput()
	in.DumpFlow = 600
	in.DumpEnthalpy = steam_table.VaporEnthalpy(7.0)
	res := c.Advance(in, 1)
	require.NotEmpty(t, res.Faults)
	assert.Equal(t, fault.PhysicalLimitViolation, res.Faults[0].Kind)
	assert.Greater(t, res.State.LoadFraction, cfg.MaximumLoadFraction)
	assert.Greater(t, res.State.Pressure, cfg.DesignCondenserPressure)
}

func TestAdvance_WarmCoolingWaterRaisesPressure(t *testing.T) {
	c, _ := designCondenser()
	cool := c.Advance(designInput(), 1).State

	warm, _ := designCondenser()
	in := designInput()
	in.CoolingWaterTemperature = 32
	hot := warm.Advance(in, 1).State
	assert.Greater(t, hot.Pressure, cool.Pressure)
	assert.Greater(t, hot.HotwellTemperature, cool.HotwellTemperature)
}

func TestAdvance_AirAccumulationLosesVacuum(t *testing.T) {
	cfg := config.Default().Secondary.Condenser
	cfg.AirRemovalCapacity = 0
	cfg.AirInleakage = 1
	c := New(&cfg, 25)
	var s State
	for i := 0; i < 200; i++ {
		s = c.Advance(designInput(), 1).State
	}
	assert.Greater(t, s.Pressure, cfg.DumpBlockPressure)
	assert.InDelta(t, cfg.InitialConditions.AirMass+200, s.AirMass, 1e-9)
}

func TestVacuumLoopHoldsSetpoint(t *testing.T) {
	c, cfg := designCondenser()
	var s State
	for i := 0; i < 600; i++ {
		s = c.Advance(designInput(), 1).State
	}
	assert.InDelta(t, cfg.VacuumControl.Setpoint, s.Pressure, 5e-5)
	assert.InDelta(t, cfg.AirInleakage/cfg.AirRemovalCapacity, s.AirRemoval, 0.05)
}

func TestAgeAndClean(t *testing.T) {
	c, cfg := designCondenser()
	clean := c.Advance(designInput(), 1).State

	c.Age(8760, 0)
	d := c.State().Fouling
	assert.InDelta(t, cfg.Fouling.BiofoulingRate*8.76, d.Biofouling, 1e-9)
	assert.InDelta(t, cfg.Fouling.ScaleRate*8.76, d.Scale, 1e-9)
	assert.InDelta(t, cfg.Fouling.CorrosionRate*8.76, d.Corrosion, 1e-9)
	assert.Equal(t, 1.5, c.State().DistributionFactor)

	fouled := c.Advance(designInput(), 1).State
	assert.Less(t, fouled.HeatTransferCoefficient, clean.HeatTransferCoefficient)
	assert.Greater(t, fouled.HotwellTemperature, clean.HotwellTemperature)

	removed, err := c.Clean("hydroblast")
	require.NoError(t, err)
	assert.InDelta(t, 0.9*d.Biofouling+0.4*d.Scale+0.9*d.Corrosion, removed, 1e-9)
	assert.Equal(t, 0.0, c.State().HoursSinceCleaning)

	_, err = c.Clean("sandblast")
	assert.ErrorIs(t, err, ErrUnknownCleaning)
}

func TestTubeFailureAndPlugging(t *testing.T) {
	c, cfg := designCondenser()
	faults := c.Age(50000, 0)
	s := c.State()
	assert.InDelta(t, cfg.InitialTubeCount-300, s.ActiveTubes, 1e-6)
	assert.InDelta(t, 30, s.LeakingTubes, 1e-6)
	assert.InDelta(t, 0.03, s.TubeLeakRate, 1e-9)
	require.Len(t, faults, 1)
	assert.Equal(t, fault.Warning, faults[0].Kind)

	assert.InDelta(t, 30, c.PlugTubes(), 1e-6)
	assert.Equal(t, 0.0, c.State().TubeLeakRate)
}

func TestTubeFailureKeepsMinimumTubes(t *testing.T) {
	cfg := config.Default().Secondary.Condenser
	cfg.InitialTubeCount = 1005
	cfg.TubeFailureRate = 1
	c := New(&cfg, 25)
	for i := 0; i < 10; i++ {
		c.Age(1, 0)
	}
	assert.Equal(t, float64(minimumTubes), c.State().ActiveTubes)
}
