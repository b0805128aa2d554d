package steam_generator

import (
	"fmt"
	"math"

	log "github.com/sirupsen/logrus"

	"pwrsim/config"
	"pwrsim/control"
	"pwrsim/fault"
	"pwrsim/steam_table"
)

// Input holds the boundary conditions for one steam generator step.
type Input struct {
	PrimaryInletTemperature float64 // C
	PrimaryFlow             float64 // kg/s through this generator
	PrimaryPower            float64 // MW available to this generator
	FeedwaterFlow           float64 // kg/s delivered during the previous step
	FeedwaterTemperature    float64 // C
	// turbine steam demand as a fraction of design flow at design pressure
	SteamDemand float64
	DumpBlocked bool
}

// State is the secondary-side state of one generator after a step.
type State struct {
	ID                       int     `json:"id"`
	Pressure                 float64 `json:"pressure"`          // MPa
	SteamTemperature         float64 `json:"steam_temperature"` // C
	Quality                  float64 `json:"quality"`
	Level                    float64 `json:"level"`      // m
	SteamFlow                float64 `json:"steam_flow"` // kg/s to turbine
	DumpFlow                 float64 `json:"dump_flow"`  // kg/s to condenser
	FeedwaterFlow            float64 `json:"feedwater_flow"`
	SteamEnthalpy            float64 `json:"steam_enthalpy"` // kJ/kg
	ThermalPower             float64 `json:"thermal_power"`  // MW
	TubeWallTemperature      float64 `json:"tube_wall_temperature"`
	PrimaryOutletTemperature float64 `json:"primary_outlet_temperature"`
	// level loop output, kg/s added to the feedwater demand
	LevelCorrection float64 `json:"level_correction"`
	FoulingFactor   float64 `json:"fouling_factor"`
	Derated         bool    `json:"derated"`
}

// OutletFlow is all steam leaving the generator.
func (s State) OutletFlow() float64 {
	return s.SteamFlow + s.DumpFlow
}

type Result struct {
	State  State
	Faults []fault.Fault
}

// SteamGenerator is a lumped-parameter U-tube generator: a single
// saturated inventory whose pressure follows the energy balance and whose
// level follows the mass balance.
type SteamGenerator struct {
	id   int
	name string
	cfg  *config.SteamGeneratorConfig

	state State

	level    *control.PID
	pressure *control.PID

	// UA multiplier applied while the tube wall is over temperature
	derate float64
}

func New(id int, cfg *config.SteamGeneratorConfig) *SteamGenerator {
	ic := cfg.InitialConditions
	p := ic.Pressures[id]
	s := &SteamGenerator{
		id:       id,
		name:     fmt.Sprintf("sg-%d", id+1),
		cfg:      cfg,
		level:    control.NewPID(cfg.LevelControl),
		pressure: control.NewPID(cfg.PressureControl),
		derate:   1,
	}
	s.state = State{
		ID:               id,
		Pressure:         p,
		SteamTemperature: steam_table.SaturationTemperature(p),
		Quality:          1,
		Level:            ic.Levels[id],
		SteamFlow:        ic.SteamFlows[id],
		FeedwaterFlow:    ic.FeedwaterFlows[id],
		SteamEnthalpy:    steam_table.VaporEnthalpy(p),
		FoulingFactor:    1,
	}
	return s
}

func (s *SteamGenerator) Name() string {
	return s.name
}

func (s *SteamGenerator) State() State {
	return s.state
}

// DesignPower is this generator's share of the design thermal power, MW.
func (s *SteamGenerator) DesignPower() float64 {
	return s.cfg.DesignTotalThermalPower / float64(s.cfg.NumSteamGenerators)
}

// effective tube area after support plate fouling, m2
func (s *SteamGenerator) effectiveArea() float64 {
	return s.cfg.HeatTransferArea * (1 - s.cfg.TSPFoulingDegradation)
}

// UA in kW/K
func (s *SteamGenerator) conductance() float64 {
	return s.cfg.HeatTransferCoefficient * s.effectiveArea() * s.state.FoulingFactor * s.derate / 1000
}

// Advance moves the generator forward by dt seconds.
func (s *SteamGenerator) Advance(in Input, dt float64) Result {
	var faults []fault.Fault
	cfg := s.cfg
	st := s.state
	p := st.Pressure
	tsat := steam_table.SaturationTemperature(p)

	// primary to secondary heat transfer, effectiveness against a boiling sink
	cp := in.PrimaryFlow * cfg.PrimarySpecificHeat
	var q float64
	if cp > 0 && in.PrimaryInletTemperature > tsat {
		eps := 1 - math.Exp(-s.conductance()/cp)
		q = eps * cp * (in.PrimaryInletTemperature - tsat) / 1000
	}
	q = math.Min(q, math.Max(0, in.PrimaryPower))
	design := s.DesignPower()
	// reported but never raised: the primary cannot supply the difference
	if lo := cfg.MinimumPowerFraction * design; q < lo {
		faults = append(faults, fault.Limit(s.name, "thermal power below minimum", q, lo))
	}
	q, faults = fault.Clamp(faults, s.name, "thermal power", q, 0, cfg.MaximumPowerFraction*design)

	outlet := in.PrimaryInletTemperature
	if cp > 0 {
		outlet -= q * 1000 / cp
	}

	wall := tsat + q*1e6/s.effectiveArea()/cfg.BoilingHTC
	if wall > cfg.MaximumTubeWallTemperature {
		if s.derate == 1 {
			log.WithFields(log.Fields{
				"sg":    s.name,
				"wall":  wall,
				"limit": cfg.MaximumTubeWallTemperature,
			}).Warn("tube wall over temperature, derating")
		}
		s.derate = 1 - cfg.OvertemperatureDerate
		faults = append(faults, fault.Fault{
			Kind:      fault.Derate,
			Component: s.name,
			Message:   "tube wall temperature above limit",
			Value:     wall,
			Limit:     cfg.MaximumTubeWallTemperature,
		})
	} else {
		s.derate = 1
	}

	// outflows use the pressure at the start of the step
	steam := math.Max(0, in.SteamDemand) * cfg.DesignSteamFlowPerSG * p / cfg.DesignPressure
	// reverse acting: opens as pressure rises above the dump setpoint
	dump := s.pressure.Update(p, cfg.PressureControl.Setpoint, dt) * cfg.SteamDumpCapacityPerSG
	if in.DumpBlocked && dump > 0 {
		faults = append(faults, fault.Warn(s.name, "steam dump demanded while blocked", dump, 0))
		dump = 0
	}
	out := steam + dump

	quality := math.Max(0, math.Min(1, 1-cfg.CarryoverCoefficient*math.Max(0, st.Level-cfg.LevelSetpoint)))
	hOut := steam_table.WetSteamEnthalpy(p, quality)
	hFw := steam_table.SubcooledEnthalpy(in.FeedwaterTemperature)
	hf := steam_table.LiquidEnthalpy(p)

	fw := math.Max(0, in.FeedwaterFlow)
	// MW balance; net inventory change is carried at saturated liquid enthalpy
	net := q + (fw*hFw-out*hOut-(fw-out)*hf)/1000
	p += net / cfg.EnergyCapacitance * dt
	p, faults = fault.Clamp(faults, s.name, "pressure", p, steam_table.MinPressure*10, steam_table.MaxPressure)

	level := st.Level + (fw-out)/(cfg.LiquidDensity*cfg.LevelArea)*dt
	level, faults = fault.Clamp(faults, s.name, "level", level, 0, 2*cfg.HighLevelTrip)

	s.state = State{
		ID:                       s.id,
		Pressure:                 p,
		SteamTemperature:         steam_table.SaturationTemperature(p),
		Quality:                  quality,
		Level:                    level,
		SteamFlow:                steam,
		DumpFlow:                 dump,
		FeedwaterFlow:            fw,
		SteamEnthalpy:            hOut,
		ThermalPower:             q,
		TubeWallTemperature:      wall,
		PrimaryOutletTemperature: outlet,
		LevelCorrection:          s.level.Update(cfg.LevelSetpoint, level, dt),
		FoulingFactor:            st.FoulingFactor,
		Derated:                  s.derate < 1,
	}
	return Result{State: s.state, Faults: faults}
}

// SetFoulingFactor applies a time-indexed UA multiplier in (0, 1].
func (s *SteamGenerator) SetFoulingFactor(f float64) {
	s.state.FoulingFactor = math.Max(0.1, math.Min(1, f))
}

// LevelLoop exposes the level controller state.
func (s *SteamGenerator) LevelLoop() control.LoopState {
	return s.level.State()
}

func (s *SteamGenerator) PressureLoop() control.LoopState {
	return s.pressure.State()
}

// ResetControllers re-initializes the level and steam dump loops.
func (s *SteamGenerator) ResetControllers() {
	s.level.Reset()
	s.pressure.Reset()
}
