package steam_generator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pwrsim/config"
	"pwrsim/fault"
)

func designConfig() config.SteamGeneratorConfig {
	return config.Default().Secondary.SteamGenerator
}

func designInput(cfg *config.SteamGeneratorConfig) Input {
	return Input{
		PrimaryInletTemperature: cfg.DesignPrimaryInletTemperature,
		PrimaryFlow:             cfg.DesignPrimaryFlowPerSG,
		PrimaryPower:            cfg.DesignTotalThermalPower / float64(cfg.NumSteamGenerators),
		FeedwaterFlow:           cfg.DesignSteamFlowPerSG,
		FeedwaterTemperature:    cfg.DesignFeedwaterTemperature,
		SteamDemand:             1,
	}
}

func TestAdvance_DesignPointIsSteady(t *testing.T) {
	cfg := designConfig()
	sg := New(0, &cfg)
	in := designInput(&cfg)

	var res Result
	for i := 0; i < 60; i++ {
		res = sg.Advance(in, 1)
		require.Empty(t, res.Faults, "step %d", i)
	}
	s := res.State
	assert.InDelta(t, 7.0, s.Pressure, 0.01)
	assert.InDelta(t, 12.0, s.Level, 0.01)
	assert.InDelta(t, 500, s.SteamFlow, 1)
	assert.Equal(t, 0.0, s.DumpFlow)
	assert.InDelta(t, 1000, s.ThermalPower, 1e-9)
	assert.Equal(t, 1.0, s.Quality)
	assert.Less(t, s.TubeWallTemperature, cfg.MaximumTubeWallTemperature)
	assert.Less(t, s.PrimaryOutletTemperature, in.PrimaryInletTemperature)
}

func TestAdvance_ThermalPowerClamped(t *testing.T) {
	cfg := designConfig()
	sg := New(0, &cfg)
	in := designInput(&cfg)
	in.PrimaryInletTemperature = 360
	in.PrimaryPower = 5000

	res := sg.Advance(in, 1)
	assert.InDelta(t, 1100, res.State.ThermalPower, 1e-9)
	require.NotEmpty(t, res.Faults)
	assert.Equal(t, fault.PhysicalLimitViolation, res.Faults[0].Kind)
}

func TestAdvance_NoPrimaryHeatIsNotInvented(t *testing.T) {
	cfg := designConfig()
	sg := New(0, &cfg)
	in := designInput(&cfg)
	in.PrimaryFlow = 0
	in.PrimaryPower = 0
	in.FeedwaterFlow = 0
	in.SteamDemand = 0

	for i := 0; i < 10; i++ {
		res := sg.Advance(in, 1)
		assert.Equal(t, 0.0, res.State.ThermalPower)
		require.NotEmpty(t, res.Faults)
		assert.Equal(t, fault.PhysicalLimitViolation, res.Faults[0].Kind)
		assert.Equal(t, "thermal power below minimum", res.Faults[0].Message)
		assert.Equal(t, cfg.MinimumPowerFraction*sg.DesignPower(), res.Faults[0].Limit)
	}
	// nothing flows in or out, so the pressure holds
	assert.InDelta(t, 7.0, sg.State().Pressure, 1e-12)
}

func TestAdvance_TubeWallOvertemperatureDerates(t *testing.T) {
	cfg := designConfig()
	cfg.MaximumTubeWallTemperature = 290
	sg := New(0, &cfg)
	in := designInput(&cfg)

	res := sg.Advance(in, 1)
	require.NotEmpty(t, res.Faults)
	assert.Equal(t, fault.Derate, res.Faults[0].Kind)
	assert.True(t, res.State.Derated)

	// the derated conductance can no longer carry the full share
	res = sg.Advance(in, 1)
	assert.Less(t, res.State.ThermalPower, 1000.0)
}

func TestAdvance_SteamDumpOpensAboveSetpoint(t *testing.T) {
	cfg := designConfig()
	cfg.InitialConditions.Pressures = []float64{7.6, 7.6, 7.6}
	sg := New(1, &cfg)
	res := sg.Advance(designInput(&cfg), 1)
	assert.InDelta(t, 0.42*cfg.SteamDumpCapacityPerSG, res.State.DumpFlow, 1e-6)

	blocked := New(1, &cfg)
	in := designInput(&cfg)
	in.DumpBlocked = true
	res = blocked.Advance(in, 1)
	assert.Equal(t, 0.0, res.State.DumpFlow)
	require.Len(t, res.Faults, 1)
	assert.Equal(t, fault.Warning, res.Faults[0].Kind)
}

func TestAdvance_LowLevelRaisesCorrection(t *testing.T) {
	cfg := designConfig()
	cfg.InitialConditions.Levels = []float64{11, 11, 11}
	sg := New(2, &cfg)
	res := sg.Advance(designInput(&cfg), 1)
	assert.Greater(t, res.State.LevelCorrection, 100.0)
	assert.Equal(t, 2, res.State.ID)
	assert.Equal(t, "sg-3", sg.Name())
}

func TestAdvance_HighLevelCarryover(t *testing.T) {
	cfg := designConfig()
	cfg.InitialConditions.Levels = []float64{14, 14, 14}
	sg := New(0, &cfg)
	res := sg.Advance(designInput(&cfg), 1)
	assert.InDelta(t, 0.96, res.State.Quality, 1e-12)
	assert.Less(t, res.State.SteamEnthalpy, 2772.6)
}

func TestAdvance_FeedwaterDeficitDrainsLevel(t *testing.T) {
	cfg := designConfig()
	sg := New(0, &cfg)
	in := designInput(&cfg)
	in.FeedwaterFlow = 400
	res := sg.Advance(in, 1)
	assert.Less(t, res.State.Level, 12.0)
}

func TestSetFoulingFactor(t *testing.T) {
	cfg := designConfig()
	sg := New(0, &cfg)
	sg.SetFoulingFactor(2)
	assert.Equal(t, 1.0, sg.State().FoulingFactor)
	sg.SetFoulingFactor(0.5)
	in := designInput(&cfg)
	res := sg.Advance(in, 1)
	assert.Less(t, res.State.ThermalPower, 1000.0)
}
