package config

import (
	"math"

	"pwrsim/steam_table"
)

const flowTolerance = 1e-6

var maintenanceActions = map[string][]string{
	"steam_generator": {"clean"},
	"turbine":         {"overhaul"},
	"feedwater":       {"overhaul"},
	"condenser":       {"chemical", "mechanical", "hydroblast", "plug_tubes"},
}

func sameFlow(a, b float64) bool {
	return math.Abs(a-b) <= flowTolerance*math.Max(1, math.Max(math.Abs(a), math.Abs(b)))
}

// Validate checks cross-section consistency and setpoint ranges.
func Validate(cfg *PlantConfiguration) error {
	e := &ConfigurationError{}
	sim := cfg.Simulation
	sec := cfg.Secondary
	sg := sec.SteamGenerator
	tb := sec.Turbine
	fw := sec.Feedwater
	cd := sec.Condenser

	if sim.TimeStep <= 0 {
		e.add("simulation_config.time_step_s must be positive, got %v", sim.TimeStep)
	}
	if sim.Duration < 0 {
		e.add("simulation_config.duration_s must not be negative")
	}
	if sim.LoadFollowing.RampRatePercentPerMinute <= 0 {
		e.add("simulation_config.load_following.ramp_rate_percent_per_minute must be positive")
	}

	// loop topology
	if sec.LoopCount < 1 || sec.SteamGeneratorsPerLoop < 1 {
		e.add("secondary_system.loop_count and steam_generators_per_loop must be at least 1")
	}
	if sec.NumLoops != sec.SteamGeneratorsPerLoop*sec.LoopCount {
		e.add("secondary_system.num_loops=%d != steam_generators_per_loop(%d) x loop_count(%d)",
			sec.NumLoops, sec.SteamGeneratorsPerLoop, sec.LoopCount)
	}
	n := sg.NumSteamGenerators
	if n != sec.NumLoops {
		e.add("steam_generator.num_steam_generators=%d != num_loops=%d", n, sec.NumLoops)
	}

	// design flow reconciliation
	total := sg.DesignSteamFlowPerSG * float64(n)
	if !sameFlow(total, fw.DesignTotalFlow) {
		e.add("sum of per-SG design steam flow %.3f != feedwater.design_total_flow %.3f", total, fw.DesignTotalFlow)
	}
	if !sameFlow(total, tb.DesignSteamFlow) {
		e.add("sum of per-SG design steam flow %.3f != turbine.design_steam_flow %.3f", total, tb.DesignSteamFlow)
	}
	if !sameFlow(sg.DesignPressure, tb.DesignInletPressure) {
		e.add("steam_generator.design_pressure %.3f != turbine.design_inlet_pressure %.3f", sg.DesignPressure, tb.DesignInletPressure)
	}
	if !sameFlow(cd.DesignCondenserPressure, tb.DesignBackPressure) {
		e.add("condenser.design_condenser_pressure %.4f != turbine.design_back_pressure %.4f", cd.DesignCondenserPressure, tb.DesignBackPressure)
	}

	validateSteamGenerator(e, &sg)
	validateTurbine(e, &tb)
	ValidateFeedwater(e, &fw)
	validateCondenser(e, &cd)

	ic := sg.InitialConditions
	for _, v := range []struct {
		name   string
		values []float64
	}{
		{"levels", ic.Levels},
		{"pressures", ic.Pressures},
		{"steam_flows", ic.SteamFlows},
		{"feedwater_flows", ic.FeedwaterFlows},
	} {
		if len(v.values) != n {
			e.add("steam_generator.initial_conditions.%s has %d entries, want %d", v.name, len(v.values), n)
		}
	}
	for _, l := range ic.Levels {
		if l <= sg.LowLevelTrip || l >= sg.HighLevelTrip {
			e.add("steam_generator initial level %.2f outside trip band", l)
		}
	}

	for i, m := range cfg.Maintenance {
		if _, ok := maintenanceActions[m.Component]; !ok {
			e.add("maintenance[%d]: unknown component %q", i, m.Component)
			continue
		}
		if !ValidMaintenance(m.Component, m.Action) {
			e.add("maintenance[%d]: %s does not support action %q", i, m.Component, m.Action)
		}
		if m.AtHours < 0 {
			e.add("maintenance[%d]: at_hours must not be negative", i)
		}
	}
	return e.orNil()
}

func validateSteamGenerator(e *ConfigurationError, sg *SteamGeneratorConfig) {
	if sg.DesignTotalThermalPower <= 0 || sg.DesignSteamFlowPerSG <= 0 {
		e.add("steam_generator design power and flow must be positive")
	}
	if sg.DesignPressure <= steam_table.MinPressure || sg.DesignPressure >= steam_table.MaxPressure {
		e.add("steam_generator.design_pressure %.3f outside property range", sg.DesignPressure)
	}
	if sg.TSPFoulingDegradation < 0 || sg.TSPFoulingDegradation >= 1 {
		e.add("steam_generator.tsp_fouling_degradation must be in [0, 1)")
	}
	if sg.MinimumPowerFraction < 0 || sg.MinimumPowerFraction >= sg.MaximumPowerFraction {
		e.add("steam_generator power fractions must satisfy 0 <= minimum < maximum")
	}
	if sg.HeatTransferCoefficient <= 0 || sg.HeatTransferArea <= 0 || sg.PrimarySpecificHeat <= 0 ||
		sg.BoilingHTC <= 0 || sg.EnergyCapacitance <= 0 || sg.LevelArea <= 0 || sg.LiquidDensity <= 0 {
		e.add("steam_generator heat transfer and inventory parameters must be positive")
	}
	if !(sg.LowLevelTrip < sg.LevelSetpoint && sg.LevelSetpoint < sg.HighLevelTrip) {
		e.add("steam_generator.level_setpoint %.2f must lie between the low (%.2f) and high (%.2f) trips",
			sg.LevelSetpoint, sg.LowLevelTrip, sg.HighLevelTrip)
	}
	if sg.PressureControl.Setpoint <= sg.DesignPressure {
		e.add("steam_generator.pressure_control.setpoint %.3f must be above design_pressure", sg.PressureControl.Setpoint)
	}
	if sg.OvertemperatureDerate < 0 || sg.OvertemperatureDerate >= 1 {
		e.add("steam_generator.overtemperature_derate must be in [0, 1)")
	}
}

func validateTurbine(e *ConfigurationError, tb *TurbineConfig) {
	if tb.RatedPowerMWe <= 0 {
		e.add("turbine.rated_power_mwe must be positive")
	}
	for _, v := range []struct {
		name  string
		value float64
	}{
		{"mechanical_efficiency", tb.MechanicalEfficiency},
		{"generator_efficiency", tb.GeneratorEfficiency},
		{"design_valve_position", tb.DesignValvePosition},
	} {
		if v.value <= 0 || v.value > 1 {
			e.add("turbine.%s must be in (0, 1], got %v", v.name, v.value)
		}
	}
	if tb.AuxiliaryPowerFraction < 0 || tb.AuxiliaryPowerFraction >= 1 {
		e.add("turbine.auxiliary_power_fraction must be in [0, 1)")
	}
	if tb.MinimumLoad < 0 || tb.MinimumLoad >= tb.MaximumLoad {
		e.add("turbine load limits must satisfy 0 <= minimum_load < maximum_load")
	}
	if tb.ExtractionFraction < 0 || tb.ExtractionFraction >= 1 {
		e.add("turbine.extraction_fraction must be in [0, 1)")
	}
	if tb.TripBackPressure <= tb.DesignBackPressure {
		e.add("turbine.trip_back_pressure must exceed design_back_pressure")
	}
	if tb.ValveRatePerSecond <= 0 {
		e.add("turbine.valve_rate_per_s must be positive")
	}
}

// ValidateFeedwater checks one feedwater section; it is exported so a train
// can be built and checked on its own.
func ValidateFeedwater(e *ConfigurationError, fw *FeedwaterConfig) {
	if fw.NumPumps < 1 || fw.PumpsNormallyRunning < 1 || fw.PumpsNormallyRunning > fw.NumPumps {
		e.add("feedwater needs 1 <= pumps_normally_running (%d) <= num_pumps (%d)", fw.PumpsNormallyRunning, fw.NumPumps)
	}
	if fw.DesignFlowPerPump <= 0 {
		e.add("feedwater.design_flow_per_pump must be positive")
	}
	if fw.MinimumFlowFraction <= 0 || fw.MinimumFlowFraction >= fw.MaximumFlowFraction {
		e.add("feedwater flow fractions must satisfy 0 < minimum < maximum")
	}
	if len(fw.FlowCoefficients) == 0 || len(fw.EfficiencyCoefficients) == 0 {
		e.add("feedwater pump curves need flow_coefficients and efficiency_coefficients")
	}
	if _, _, err := fw.Weights().Normalize(); err != nil {
		e.add("feedwater: %v", err)
	}
	if fw.StartDelay < 0 || fw.StartTime < 0 || fw.StopDelay < 0 || fw.MinimumRuntime < 0 {
		e.add("feedwater hysteresis timings must not be negative")
	}
	if fw.SettlingTime > 0 && fw.StartDelay+fw.StartTime > fw.SettlingTime {
		e.add("feedwater start_delay_s + start_time_s (%v) exceeds settling_time_s (%v)", fw.StartDelay+fw.StartTime, fw.SettlingTime)
	}
	if fw.StopFraction <= 0 || fw.StopFraction >= 1 {
		e.add("feedwater.stop_fraction must be in (0, 1)")
	}
	ic := fw.InitialConditions
	if ic.RunningPumps < 1 || ic.RunningPumps > fw.NumPumps {
		e.add("feedwater.initial_conditions.running_pumps %d out of range", ic.RunningPumps)
	}
	if len(ic.Flows) != 0 && len(ic.Flows) != fw.NumPumps {
		e.add("feedwater.initial_conditions.flows has %d entries, want %d", len(ic.Flows), fw.NumPumps)
	}
}

func validateCondenser(e *ConfigurationError, cd *CondenserConfig) {
	if cd.DesignHeatDuty <= 0 || cd.HeatTransferCoefficient <= 0 || cd.HeatTransferArea <= 0 || cd.DesignCoolingWaterFlow <= 0 {
		e.add("condenser duty, heat transfer and cooling water flow must be positive")
	}
	if cd.DesignCondenserPressure < steam_table.MinPressure || cd.DesignCondenserPressure > 0.1 {
		e.add("condenser.design_condenser_pressure %.4f outside vacuum range", cd.DesignCondenserPressure)
	}
	if cd.MinimumLoadFraction < 0 || cd.MinimumLoadFraction >= cd.MaximumLoadFraction {
		e.add("condenser load fractions must satisfy 0 <= minimum < maximum")
	}
	if cd.AirRemovalCapacity <= 0 || cd.AirPressurePerKg <= 0 {
		e.add("condenser air removal parameters must be positive")
	}
	if cd.InitialTubeCount < 1 {
		e.add("condenser.initial_tube_count must be positive")
	}
}

// ValidMaintenance reports whether component supports action.
func ValidMaintenance(component, action string) bool {
	return contains(maintenanceActions[component], action)
}

func contains(s []string, v string) bool {
	for _, x := range s {
		if x == v {
			return true
		}
	}
	return false
}
