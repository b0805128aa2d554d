package config

import "pwrsim/control"

// Default returns the clean three-loop design point: 3 x 1000 MWt steam
// generators at 7.0 MPa and 500 kg/s, three of four feedwater pumps running
// and a 1000 MWe turbine exhausting to a 0.007 MPa condenser.
func Default() *PlantConfiguration {
	cfg := &PlantConfiguration{
		PlantName: "pwr-secondary",
		PlantID:   "unit-1",
		Simulation: SimulationConfig{
			TimeStep: 1,
			Duration: 3600,
			Noise: NoiseConfig{
				Enabled:          false,
				Seed:             42,
				DemandStdPercent: 0.5,
				CoolingWaterStd:  0.2,
			},
			LoadFollowing: LoadFollowingConfig{
				RampRatePercentPerMinute: 5,
				SteadyBandPercent:        0.5,
				SteadyHold:               60,
			},
			SystemCoordination: true,
			AutoLoadBalancing:  true,
		},
		Secondary: SecondarySystem{
			NumLoops:               3,
			LoopCount:              3,
			SteamGeneratorsPerLoop: 1,
			SteamGenerator: SteamGeneratorConfig{
				NumSteamGenerators:            3,
				DesignTotalThermalPower:       3000,
				DesignSteamFlowPerSG:          500,
				DesignPressure:                7.0,
				DesignFeedwaterTemperature:    182.13,
				DesignPrimaryInletTemperature: 327,
				DesignPrimaryFlowPerSG:        5800,
				HeatTransferCoefficient:       10000,
				HeatTransferArea:              5100,
				TSPFoulingDegradation:         0.05,
				PrimarySpecificHeat:           5.5,
				MinimumPowerFraction:          0.05,
				MaximumPowerFraction:          1.1,
				MaximumTubeWallTemperature:    330,
				BoilingHTC:                    30000,
				OvertemperatureDerate:         0.1,
				EnergyCapacitance:             800,
				LevelArea:                     12,
				LiquidDensity:                 740,
				LevelSetpoint:                 12,
				LowLevelTrip:                  9,
				HighLevelTrip:                 15,
				CarryoverCoefficient:          0.02,
				LevelControl:                  control.Params{Kp: 150, Ki: 1.5, OutputMin: -300, OutputMax: 300},
				PressureControl:               control.Params{Kp: 2, Ki: 0.1, Setpoint: 7.4, OutputMin: 0, OutputMax: 1},
				SteamDumpCapacityPerSG:        200,
				InitialConditions: SGInitialConditions{
					Levels:         []float64{12, 12, 12},
					Pressures:      []float64{7, 7, 7},
					SteamFlows:     []float64{500, 500, 500},
					FeedwaterFlows: []float64{500, 500, 500},
				},
			},
			Turbine: TurbineConfig{
				RatedPowerMWe:          1000,
				DesignSteamFlow:        1500,
				DesignInletPressure:    7.0,
				DesignBackPressure:     0.007,
				DesignValvePosition:    0.9,
				MechanicalEfficiency:   0.99,
				GeneratorEfficiency:    0.985,
				AuxiliaryPowerFraction: 0.04,
				MinimumLoad:            0.2,
				MaximumLoad:            1.05,
				ExtractionFraction:     0.3,
				ValveRatePerSecond:     0.01,
				TripBackPressure:       0.025,
				LoadControl:            control.Params{Kp: 0.2, Ki: 0.02, OutputMin: -0.1, OutputMax: 0.1},
				InitialConditions:      TurbineInitialConditions{ValvePosition: 0.9, LoadSetpoint: 1.0},
			},
			Feedwater: FeedwaterConfig{
				NumPumps:                      4,
				PumpsNormallyRunning:          3,
				DesignFlowPerPump:             500,
				DesignTotalFlow:               1500,
				DesignHead:                    700,
				MaximumFlowFraction:           1.1,
				MinimumFlowFraction:           0.2,
				NPSHRequired:                  12,
				SuctionHead:                   30,
				SuctionLossCoefficient:        5,
				SuctionTemperatureCoefficient: 0.5,
				DesignSuctionTemperature:      40,
				FlowCoefficients:              []float64{1.15, 0, -0.15},
				EfficiencyCoefficients:        []float64{0, 1.7, -0.85},
				SteamFlowWeight:               0.5,
				LevelControlWeight:            0.3,
				FeedwaterFlowWeight:           0.2,
				FlowControl:                   control.Params{Kp: 0.5, Ki: 0.05, OutputMin: -200, OutputMax: 200},
				StartDelay:                    15,
				StartTime:                     10,
				StopDelay:                     60,
				MinimumRuntime:                300,
				StopFraction:                  0.85,
				SettlingTime:                  60,
				EmergencyFlowPerSG:            300,
				ProtectionHold:                30,
				InitialConditions: FeedwaterInitialConditions{
					RunningPumps: 3,
					Flows:        []float64{500, 500, 500, 0},
				},
			},
			Condenser: CondenserConfig{
				DesignHeatDuty:          2000,
				DesignCondenserPressure: 0.007,
				HeatTransferCoefficient: 3400,
				HeatTransferArea:        80000,
				FoulingFactor:           0.000022,
				DesignCoolingWaterFlow:  60000,
				MinimumLoadFraction:     0.1,
				MaximumLoadFraction:     1.2,
				AirInleakage:            0.01,
				AirRemovalCapacity:      0.05,
				AirPressurePerKg:        0.0001,
				DumpBlockPressure:       0.02,
				InitialTubeCount:        60000,
				TubeFailureRate:         1e-7,
				Fouling: FoulingConfig{
					BiofoulingRate:     0.005,
					ScaleRate:          0.003,
					CorrosionRate:      0.002,
					BiofoulingTempCoef: 0.05,
				},
				VacuumControl: control.Params{Kp: 1000, Ki: 10, Setpoint: 0.007, OutputMin: 0, OutputMax: 1, Bias: 0.2},
				InitialConditions: CondenserInitialConditions{
					AirMass:            5.5,
					HotwellTemperature: 37.5,
				},
			},
		},
		WaterChemistry: WaterChemistryConfig{
			ChloridePPB:             5,
			SodiumPPB:               3,
			DissolvedOxygenPPB:      5,
			PH:                      9.6,
			BlowdownFractionPerHour: 0.01,
			LeakChloridePPBPerKg:    50,
			ChlorideLimitPPB:        50,
		},
		Environmental: EnvironmentalConfig{
			CoolingWaterTemperature: 25,
			AmbientTemperature:      20,
		},
		Degradation: DegradationConfig{
			InitialOperatingHours: 0,
			SGFoulingRatePerKhr:   0.002,
			TurbineDeratePerKhr:   0.001,
			PumpWearPerKhr:        0.5,
		},
	}
	canonicalize(cfg)
	return cfg
}
