package turbine

import (
	"math"

	log "github.com/sirupsen/logrus"

	"pwrsim/config"
	"pwrsim/control"
	"pwrsim/fault"
	"pwrsim/steam_table"
)

const component = "turbine"

// Input is the aggregated steam supply and the condenser back pressure
// from the previous step.
type Input struct {
	SteamFlow     float64 // kg/s admitted
	InletPressure float64 // MPa
	InletEnthalpy float64 // kJ/kg
	BackPressure  float64 // MPa
	// load-following demand as a fraction of rated power, already ramped
	LoadDemand float64
}

type State struct {
	Tripped       bool    `json:"tripped"`
	TripCause     string  `json:"trip_cause,omitempty"`
	ValvePosition float64 `json:"valve_position"`
	LoadSetpoint  float64 `json:"load_setpoint"`
	// steam the turbine will draw next step, fraction of design flow at design pressure
	SteamDemand     float64 `json:"steam_demand"`
	SteamFlow       float64 `json:"steam_flow"`
	InletPressure   float64 `json:"inlet_pressure"`
	BackPressure    float64 `json:"back_pressure"`
	IsentropicDrop  float64 `json:"isentropic_drop"`  // kJ/kg
	Efficiency      float64 `json:"efficiency"`       // internal, after derate
	GrossPower      float64 `json:"gross_power"`      // MWe at the generator terminals
	ElectricalPower float64 `json:"electrical_power"` // MWe net of auxiliaries
	ExhaustFlow     float64 `json:"exhaust_flow"`
	ExhaustEnthalpy float64 `json:"exhaust_enthalpy"`
	ExtractionFlow  float64 `json:"extraction_flow"`
	Derate          float64 `json:"derate"`
}

type Result struct {
	State  State
	Faults []fault.Fault
}

// Turbine is a single lumped expansion from inlet to condenser pressure
// with a governor valve under load-following control.
type Turbine struct {
	cfg  *config.TurbineConfig
	load *control.PID

	// internal efficiency that reproduces rated output at the design point
	internal float64
	derate   float64
	state    State
}

func New(cfg *config.TurbineConfig) *Turbine {
	t := &Turbine{
		cfg:    cfg,
		load:   control.NewPID(cfg.LoadControl),
		derate: 1,
	}
	hIn := steam_table.VaporEnthalpy(cfg.DesignInletPressure)
	design := cfg.DesignSteamFlow * workingFraction(cfg) * isentropicDrop(cfg.DesignInletPressure, hIn, cfg.DesignBackPressure) / 1000 *
		cfg.MechanicalEfficiency * cfg.GeneratorEfficiency * (1 - cfg.AuxiliaryPowerFraction)
	t.internal = 1
	if design > 0 {
		t.internal = math.Min(1, cfg.RatedPowerMWe/design)
	}

	ic := cfg.InitialConditions
	t.state = State{
		ValvePosition:   ic.ValvePosition,
		LoadSetpoint:    ic.LoadSetpoint,
		SteamDemand:     t.steamDemand(ic.ValvePosition),
		InletPressure:   cfg.DesignInletPressure,
		BackPressure:    cfg.DesignBackPressure,
		Efficiency:      t.internal,
		ElectricalPower: ic.LoadSetpoint * cfg.RatedPowerMWe,
		Derate:          1,
	}
	return t
}

// extraction leaves halfway down the expansion
func workingFraction(cfg *config.TurbineConfig) float64 {
	return 1 - cfg.ExtractionFraction/2
}

// isentropicDrop approximates the available enthalpy drop with a Carnot
// factor between the inlet and exhaust saturation temperatures.
func isentropicDrop(inletPressure, inletEnthalpy, backPressure float64) float64 {
	tin := steam_table.Kelvin(steam_table.SaturationTemperature(inletPressure))
	tb := steam_table.Kelvin(steam_table.SaturationTemperature(backPressure))
	if tin <= tb {
		return 0
	}
	return math.Max(0, (inletEnthalpy-steam_table.LiquidEnthalpy(backPressure))*(1-tb/tin))
}

func (t *Turbine) steamDemand(valve float64) float64 {
	if t.cfg.DesignValvePosition <= 0 {
		return valve
	}
	return valve / t.cfg.DesignValvePosition
}

func (t *Turbine) State() State {
	return t.state
}

// InternalEfficiency is the calibrated expansion efficiency before derating.
func (t *Turbine) InternalEfficiency() float64 {
	return t.internal
}

// SteamDemand is the flow fraction the governor valve will admit next step.
func (t *Turbine) SteamDemand() float64 {
	if t.state.Tripped {
		return 0
	}
	return t.state.SteamDemand
}

// Advance moves the governor and computes output for this step's steam.
func (t *Turbine) Advance(in Input, dt float64) Result {
	var faults []fault.Fault
	cfg := t.cfg
	prev := t.state
	rated := cfg.RatedPowerMWe

	s := State{
		Tripped:       prev.Tripped,
		TripCause:     prev.TripCause,
		LoadSetpoint:  in.LoadDemand,
		SteamFlow:     math.Max(0, in.SteamFlow),
		InletPressure: in.InletPressure,
		BackPressure:  in.BackPressure,
		Derate:        t.derate,
	}

	if s.Tripped {
		// stop valves shut, whatever is still arriving bypasses to the condenser
		s.ExhaustFlow = s.SteamFlow
		s.ExhaustEnthalpy = in.InletEnthalpy
		t.state = s
		return Result{State: s, Faults: faults}
	}

	trim := t.load.Update(in.LoadDemand, prev.ElectricalPower/rated, dt)
	target := math.Max(0, math.Min(1, in.LoadDemand*cfg.DesignValvePosition+trim))
	s.ValvePosition = control.RateLimit(prev.ValvePosition, target, cfg.ValveRatePerSecond*dt)
	s.SteamDemand = t.steamDemand(s.ValvePosition)

	s.IsentropicDrop = isentropicDrop(in.InletPressure, in.InletEnthalpy, in.BackPressure)
	s.Efficiency = t.internal * t.derate
	s.GrossPower = s.SteamFlow * workingFraction(cfg) * s.IsentropicDrop * s.Efficiency / 1000 *
		cfg.MechanicalEfficiency * cfg.GeneratorEfficiency
	net := s.GrossPower * (1 - cfg.AuxiliaryPowerFraction)
	if s.SteamFlow > 0 {
		net, faults = fault.Clamp(faults, component, "electrical output", net, cfg.MinimumLoad*rated, cfg.MaximumLoad*rated)
	}
	s.ElectricalPower = net

	s.ExtractionFlow = s.SteamFlow * cfg.ExtractionFraction
	s.ExhaustFlow = s.SteamFlow - s.ExtractionFlow
	s.ExhaustEnthalpy = in.InletEnthalpy - s.IsentropicDrop*s.Efficiency

	t.state = s
	return Result{State: s, Faults: faults}
}

// Trip closes the stop valves. It stays tripped until Reset.
func (t *Turbine) Trip(cause string) {
	if t.state.Tripped {
		return
	}
	log.WithFields(log.Fields{
		"cause": cause,
		"power": t.state.ElectricalPower,
	}).Warn("turbine trip")
	t.state.Tripped = true
	t.state.TripCause = cause
	t.state.ValvePosition = 0
	t.state.SteamDemand = 0
	t.state.ElectricalPower = 0
}

// Reset clears a trip. The valve reopens from closed at the governor rate.
func (t *Turbine) Reset() {
	if !t.state.Tripped {
		return
	}
	log.WithFields(log.Fields{
		"cause": t.state.TripCause,
	}).Info("turbine trip reset")
	t.state.Tripped = false
	t.state.TripCause = ""
	t.load.Reset()
}

func (t *Turbine) Tripped() bool {
	return t.state.Tripped
}

// SetDerate applies an efficiency multiplier from degradation.
func (t *Turbine) SetDerate(f float64) {
	t.derate = math.Max(0.5, math.Min(1, f))
}

// Overhaul restores design efficiency.
func (t *Turbine) Overhaul() {
	t.derate = 1
}

func (t *Turbine) LoadLoop() control.LoopState {
	return t.load.State()
}

// ResetControllers re-initializes the load loop. The valve keeps its position.
func (t *Turbine) ResetControllers() {
	t.load.Reset()
}
