// Package config binds the plant mapping (conf/plant.yaml) into one
// canonical, validated PlantConfiguration and loads engine settings from
// conf/config.ini.
package config

import "pwrsim/control"

// PlantConfiguration is read once at start-up and never mutated afterwards.
type PlantConfiguration struct {
	PlantName      string               `yaml:"plant_name"`
	PlantID        string               `yaml:"plant_id"`
	Simulation     SimulationConfig     `yaml:"simulation_config"`
	Secondary      SecondarySystem      `yaml:"secondary_system"`
	WaterChemistry WaterChemistryConfig `yaml:"water_chemistry"`
	Environmental  EnvironmentalConfig  `yaml:"environmental"`
	Maintenance    []MaintenanceEvent   `yaml:"maintenance"`
	Degradation    DegradationConfig    `yaml:"degradation"`
}

type SimulationConfig struct {
	TimeStep           float64             `yaml:"time_step_s"`
	Duration           float64             `yaml:"duration_s"`
	Noise              NoiseConfig         `yaml:"noise"`
	LoadFollowing      LoadFollowingConfig `yaml:"load_following"`
	SystemCoordination bool                `yaml:"system_coordination"`
	AutoLoadBalancing  bool                `yaml:"auto_load_balancing"`
}

type NoiseConfig struct {
	Enabled          bool    `yaml:"enabled"`
	Seed             uint64  `yaml:"seed"`
	DemandStdPercent float64 `yaml:"demand_std_percent"`
	CoolingWaterStd  float64 `yaml:"cooling_water_std_c"`
}

type LoadFollowingConfig struct {
	RampRatePercentPerMinute float64 `yaml:"ramp_rate_percent_per_minute"`
	SteadyBandPercent        float64 `yaml:"steady_band_percent"`
	SteadyHold               float64 `yaml:"steady_hold_s"`
}

type SecondarySystem struct {
	NumLoops               int                  `yaml:"num_loops"`
	LoopCount              int                  `yaml:"loop_count"`
	SteamGeneratorsPerLoop int                  `yaml:"steam_generators_per_loop"`
	SteamGenerator         SteamGeneratorConfig `yaml:"steam_generator"`
	Turbine                TurbineConfig        `yaml:"turbine"`
	Feedwater              FeedwaterConfig      `yaml:"feedwater"`
	Condenser              CondenserConfig      `yaml:"condenser"`
}

type SteamGeneratorConfig struct {
	NumSteamGenerators            int                 `yaml:"num_steam_generators"`
	DesignTotalThermalPower       float64             `yaml:"design_total_thermal_power"` // MW
	DesignSteamFlowPerSG          float64             `yaml:"design_steam_flow_per_sg"`   // kg/s
	DesignPressure                float64             `yaml:"design_pressure"`            // MPa
	DesignFeedwaterTemperature    float64             `yaml:"design_feedwater_temperature"`
	DesignPrimaryInletTemperature float64             `yaml:"design_primary_inlet_temperature"`
	DesignPrimaryFlowPerSG        float64             `yaml:"design_primary_flow_per_sg"` // kg/s
	HeatTransferCoefficient       float64             `yaml:"heat_transfer_coefficient"`  // W/m2K
	HeatTransferArea              float64             `yaml:"heat_transfer_area"`         // m2
	TSPFoulingDegradation         float64             `yaml:"tsp_fouling_degradation"`
	PrimarySpecificHeat           float64             `yaml:"primary_specific_heat"` // kJ/kgK
	MinimumPowerFraction          float64             `yaml:"minimum_power_fraction"`
	MaximumPowerFraction          float64             `yaml:"maximum_power_fraction"`
	MaximumTubeWallTemperature    float64             `yaml:"maximum_tube_wall_temperature"`
	BoilingHTC                    float64             `yaml:"boiling_htc"` // W/m2K
	OvertemperatureDerate         float64             `yaml:"overtemperature_derate"`
	EnergyCapacitance             float64             `yaml:"energy_capacitance"` // MJ/MPa
	LevelArea                     float64             `yaml:"level_area"`         // m2
	LiquidDensity                 float64             `yaml:"liquid_density"`     // kg/m3
	LevelSetpoint                 float64             `yaml:"level_setpoint"`     // m
	LowLevelTrip                  float64             `yaml:"low_level_trip"`
	HighLevelTrip                 float64             `yaml:"high_level_trip"`
	CarryoverCoefficient          float64             `yaml:"carryover_coefficient"` // quality loss per m above setpoint
	LevelControl                  control.Params      `yaml:"level_control"`
	PressureControl               control.Params      `yaml:"pressure_control"`
	SteamDumpCapacityPerSG        float64             `yaml:"steam_dump_capacity_per_sg"` // kg/s
	InitialConditions             SGInitialConditions `yaml:"initial_conditions"`
}

type SGInitialConditions struct {
	Levels         []float64 `yaml:"levels"`
	Pressures      []float64 `yaml:"pressures"`
	SteamFlows     []float64 `yaml:"steam_flows"`
	FeedwaterFlows []float64 `yaml:"feedwater_flows"`
}

type TurbineConfig struct {
	RatedPowerMWe          float64                  `yaml:"rated_power_mwe"`
	DesignSteamFlow        float64                  `yaml:"design_steam_flow"`
	DesignInletPressure    float64                  `yaml:"design_inlet_pressure"`
	DesignBackPressure     float64                  `yaml:"design_back_pressure"`
	DesignValvePosition    float64                  `yaml:"design_valve_position"`
	MechanicalEfficiency   float64                  `yaml:"mechanical_efficiency"`
	GeneratorEfficiency    float64                  `yaml:"generator_efficiency"`
	AuxiliaryPowerFraction float64                  `yaml:"auxiliary_power_fraction"`
	MinimumLoad            float64                  `yaml:"minimum_load"`
	MaximumLoad            float64                  `yaml:"maximum_load"`
	ExtractionFraction     float64                  `yaml:"extraction_fraction"`
	ValveRatePerSecond     float64                  `yaml:"valve_rate_per_s"`
	TripBackPressure       float64                  `yaml:"trip_back_pressure"`
	LoadControl            control.Params           `yaml:"load_control"`
	InitialConditions      TurbineInitialConditions `yaml:"initial_conditions"`
}

type TurbineInitialConditions struct {
	ValvePosition float64 `yaml:"valve_position"`
	LoadSetpoint  float64 `yaml:"load_setpoint"`
}

type FeedwaterConfig struct {
	NumPumps                      int                        `yaml:"num_pumps"`
	PumpsNormallyRunning          int                        `yaml:"pumps_normally_running"`
	DesignFlowPerPump             float64                    `yaml:"design_flow_per_pump"` // kg/s
	DesignTotalFlow               float64                    `yaml:"design_total_flow"`
	DesignHead                    float64                    `yaml:"design_head"` // m
	MaximumFlowFraction           float64                    `yaml:"maximum_flow_fraction"`
	MinimumFlowFraction           float64                    `yaml:"minimum_flow_fraction"`
	NPSHRequired                  float64                    `yaml:"npsh_required"` // m
	SuctionHead                   float64                    `yaml:"suction_head"`
	SuctionLossCoefficient        float64                    `yaml:"suction_loss_coefficient"`        // m per flow fraction squared
	SuctionTemperatureCoefficient float64                    `yaml:"suction_temperature_coefficient"` // m per C
	DesignSuctionTemperature      float64                    `yaml:"design_suction_temperature"`
	FlowCoefficients              []float64                  `yaml:"flow_coefficients"`
	EfficiencyCoefficients        []float64                  `yaml:"efficiency_coefficients"`
	SteamFlowWeight               float64                    `yaml:"steam_flow_weight"`
	LevelControlWeight            float64                    `yaml:"level_control_weight"`
	FeedwaterFlowWeight           float64                    `yaml:"feedwater_flow_weight"`
	FlowControl                   control.Params             `yaml:"flow_control"`
	StartDelay                    float64                    `yaml:"start_delay_s"`
	StartTime                     float64                    `yaml:"start_time_s"`
	StopDelay                     float64                    `yaml:"stop_delay_s"`
	MinimumRuntime                float64                    `yaml:"minimum_runtime_s"`
	StopFraction                  float64                    `yaml:"stop_fraction"`
	SettlingTime                  float64                    `yaml:"settling_time_s"`
	EmergencyFlowPerSG            float64                    `yaml:"emergency_flow_per_sg"`
	ProtectionHold                float64                    `yaml:"protection_hold_s"`
	InitialConditions             FeedwaterInitialConditions `yaml:"initial_conditions"`
}

type FeedwaterInitialConditions struct {
	RunningPumps int       `yaml:"running_pumps"`
	Flows        []float64 `yaml:"flows"`
}

type CondenserConfig struct {
	DesignHeatDuty          float64                    `yaml:"design_heat_duty"`          // MW
	DesignCondenserPressure float64                    `yaml:"design_condenser_pressure"` // MPa
	HeatTransferCoefficient float64                    `yaml:"heat_transfer_coefficient"` // W/m2K, clean
	HeatTransferArea        float64                    `yaml:"heat_transfer_area"`
	FoulingFactor           float64                    `yaml:"fouling_factor"` // m2K/W
	DesignCoolingWaterFlow  float64                    `yaml:"design_cooling_water_flow"`
	MinimumLoadFraction     float64                    `yaml:"minimum_load_fraction"`
	MaximumLoadFraction     float64                    `yaml:"maximum_load_fraction"`
	AirInleakage            float64                    `yaml:"air_inleakage"`        // kg/s
	AirRemovalCapacity      float64                    `yaml:"air_removal_capacity"` // kg/s
	AirPressurePerKg        float64                    `yaml:"air_pressure_per_kg"`  // MPa/kg
	DumpBlockPressure       float64                    `yaml:"dump_block_pressure"`
	InitialTubeCount        float64                    `yaml:"initial_tube_count"`
	TubeFailureRate         float64                    `yaml:"tube_failure_rate_per_hour"`
	Fouling                 FoulingConfig              `yaml:"fouling"`
	VacuumControl           control.Params             `yaml:"vacuum_control"`
	InitialConditions       CondenserInitialConditions `yaml:"initial_conditions"`
}

// FoulingConfig holds base deposit growth rates in mm per 1000 operating hours.
type FoulingConfig struct {
	BiofoulingRate     float64 `yaml:"biofouling_rate"`
	ScaleRate          float64 `yaml:"scale_rate"`
	CorrosionRate      float64 `yaml:"corrosion_rate"`
	BiofoulingTempCoef float64 `yaml:"biofouling_temp_coefficient"` // per C above 25 C
}

type CondenserInitialConditions struct {
	AirMass            float64 `yaml:"air_mass"`
	HotwellTemperature float64 `yaml:"hotwell_temperature"`
}

type WaterChemistryConfig struct {
	ChloridePPB             float64 `yaml:"chloride_ppb"`
	SodiumPPB               float64 `yaml:"sodium_ppb"`
	DissolvedOxygenPPB      float64 `yaml:"dissolved_oxygen_ppb"`
	PH                      float64 `yaml:"ph"`
	BlowdownFractionPerHour float64 `yaml:"blowdown_fraction_per_hour"`
	LeakChloridePPBPerKg    float64 `yaml:"leak_chloride_ppb_per_kg"`
	ChlorideLimitPPB        float64 `yaml:"chloride_limit_ppb"`
}

type EnvironmentalConfig struct {
	CoolingWaterTemperature float64 `yaml:"cooling_water_temperature"`
	AmbientTemperature      float64 `yaml:"ambient_temperature"`
}

// MaintenanceEvent is applied once plant operating hours reach AtHours.
type MaintenanceEvent struct {
	AtHours   float64 `yaml:"at_hours"`
	Component string  `yaml:"component"`
	Action    string  `yaml:"action"`
}

type DegradationConfig struct {
	InitialOperatingHours float64 `yaml:"initial_operating_hours"`
	SGFoulingRatePerKhr   float64 `yaml:"sg_fouling_rate_per_khr"`
	TurbineDeratePerKhr   float64 `yaml:"turbine_derate_per_khr"`
	PumpWearPerKhr        float64 `yaml:"pump_wear_per_khr"` // percent
}

// NumSteamGenerators is the number of SG instances the plant builds.
func (c *PlantConfiguration) NumSteamGenerators() int {
	return c.Secondary.SteamGenerator.NumSteamGenerators
}
