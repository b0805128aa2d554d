package condenser

import (
	"math"

	log "github.com/sirupsen/logrus"

	"pwrsim/config"
	"pwrsim/control"
	"pwrsim/fault"
	"pwrsim/steam_table"
)

const component = "condenser"

// Input is the steam arriving from the turbine and the dumps, plus the
// cooling water boundary.
type Input struct {
	ExhaustFlow     float64 // kg/s
	ExhaustEnthalpy float64 // kJ/kg
	DumpFlow        float64 // kg/s bypassed straight from the generators
	DumpEnthalpy    float64
	// cooling water inlet, C
	CoolingWaterTemperature float64
	// kg/s, zero means design flow
	CoolingWaterFlow float64
}

type State struct {
	HeatDuty                float64  `json:"heat_duty"` // MW rejected
	LoadFraction            float64  `json:"load_fraction"`
	Pressure                float64  `json:"pressure"` // MPa
	SaturationTemperature   float64  `json:"saturation_temperature"`
	HotwellTemperature      float64  `json:"hotwell_temperature"`
	CoolingWaterInlet       float64  `json:"cooling_water_inlet"`
	CoolingWaterOutlet      float64  `json:"cooling_water_outlet"`
	CoolingWaterFlow        float64  `json:"cooling_water_flow"`
	Effectiveness           float64  `json:"effectiveness"`
	HeatTransferCoefficient float64  `json:"heat_transfer_coefficient"` // W/m2K, fouled
	FoulingResistance       float64  `json:"fouling_resistance"`        // m2K/W
	AirMass                 float64  `json:"air_mass"`                  // kg
	AirRemoval              float64  `json:"air_removal"`               // vacuum loop output, fraction of capacity
	ActiveTubes             float64  `json:"active_tubes"`
	LeakingTubes            float64  `json:"leaking_tubes"`
	TubeLeakRate            float64  `json:"tube_leak_rate"` // kg/s cooling water into the hotwell
	Fouling                 Deposits `json:"fouling"`
	HoursSinceCleaning      float64  `json:"hours_since_cleaning"`
	DistributionFactor      float64  `json:"distribution_factor"`
}

type Result struct {
	State  State
	Faults []fault.Fault
}

// Condenser is a shell-and-tube surface condenser with a saturated steam
// side, an effectiveness relation on the cooling water side and a lumped
// non-condensable inventory managed by the vacuum loop.
type Condenser struct {
	cfg    *config.CondenserConfig
	vacuum *control.PID

	deposits Deposits
	tubes    tubes
	air      float64

	hoursSinceCleaning float64
	state              State
}

func New(cfg *config.CondenserConfig, coolingWaterTemperature float64) *Condenser {
	c := &Condenser{
		cfg:    cfg,
		vacuum: control.NewPID(cfg.VacuumControl),
		air:    cfg.InitialConditions.AirMass,
		tubes:  tubes{active: cfg.InitialTubeCount},
	}
	p := cfg.DesignCondenserPressure
	c.state = State{
		HeatDuty:                cfg.DesignHeatDuty,
		LoadFraction:            1,
		Pressure:                p,
		SaturationTemperature:   steam_table.SaturationTemperature(p),
		HotwellTemperature:      cfg.InitialConditions.HotwellTemperature,
		CoolingWaterInlet:       coolingWaterTemperature,
		CoolingWaterFlow:        cfg.DesignCoolingWaterFlow,
		AirMass:                 c.air,
		AirRemoval:              c.vacuum.Output(),
		ActiveTubes:             c.tubes.active,
		HeatTransferCoefficient: c.overallCoefficient(),
		FoulingResistance:       c.foulingResistance(),
		DistributionFactor:      1,
	}
	return c
}

func (c *Condenser) State() State {
	return c.state
}

// Pressure is the condenser pressure after the last step.
func (c *Condenser) Pressure() float64 {
	return c.state.Pressure
}

func (c *Condenser) distributionFactor() float64 {
	return math.Min(1.5, 1+c.hoursSinceCleaning/8760)
}

// total fouling resistance on the water side, m2K/W
func (c *Condenser) foulingResistance() float64 {
	return c.cfg.FoulingFactor + c.deposits.resistance()*c.distributionFactor()
}

// overall heat transfer coefficient, W/m2K
func (c *Condenser) overallCoefficient() float64 {
	if c.cfg.HeatTransferCoefficient <= 0 {
		return 0
	}
	return 1 / (1/c.cfg.HeatTransferCoefficient + c.foulingResistance())
}

// Advance condenses this step's steam and moves the air inventory.
func (c *Condenser) Advance(in Input, dt float64) Result {
	var faults []fault.Fault
	cfg := c.cfg
	prev := c.state

	hf := steam_table.LiquidEnthalpy(prev.Pressure)
	duty := (math.Max(0, in.ExhaustFlow)*math.Max(0, in.ExhaustEnthalpy-hf) +
		math.Max(0, in.DumpFlow)*math.Max(0, in.DumpEnthalpy-hf)) / 1000

	load := 0.0
	if cfg.DesignHeatDuty > 0 {
		load = duty / cfg.DesignHeatDuty
	}
	switch {
	case load > cfg.MaximumLoadFraction:
		faults = append(faults, fault.Limit(component, "heat load above maximum", load, cfg.MaximumLoadFraction))
	case duty > 0 && load < cfg.MinimumLoadFraction:
		faults = append(faults, fault.Warn(component, "heat load below minimum", load, cfg.MinimumLoadFraction))
	}

	cw := in.CoolingWaterFlow
	if cw <= 0 {
		cw = cfg.DesignCoolingWaterFlow
	}
	ccw := cw * steam_table.WaterCp // kW/K
	u := c.overallCoefficient()
	ua := u * cfg.HeatTransferArea * c.tubes.areaFactor(cfg.InitialTubeCount) / 1000
	eps := 0.0
	if ccw > 0 {
		eps = 1 - math.Exp(-ua/ccw)
	}

	// condensing temperature that lets the tubes reject the duty
	tc := in.CoolingWaterTemperature
	outlet := in.CoolingWaterTemperature
	if eps > 0 {
		tc += duty * 1000 / (eps * ccw)
		outlet += duty * 1000 / ccw
	}

	// non-condensables
	removal := c.vacuum.Update(prev.Pressure, cfg.VacuumControl.Setpoint, dt)
	c.air = math.Max(0, c.air+(cfg.AirInleakage-removal*cfg.AirRemovalCapacity)*dt)

	p := steam_table.SaturationPressure(tc) + c.air*cfg.AirPressurePerKg
	p, faults = fault.Clamp(faults, component, "pressure", p, steam_table.MinPressure, 0.1)
	if p > cfg.DumpBlockPressure && prev.Pressure <= cfg.DumpBlockPressure {
		log.WithFields(log.Fields{
			"pressure": p,
			"limit":    cfg.DumpBlockPressure,
		}).Warn("condenser vacuum lost")
	}

	c.state = State{
		HeatDuty:                duty,
		LoadFraction:            load,
		Pressure:                p,
		SaturationTemperature:   steam_table.SaturationTemperature(p),
		HotwellTemperature:      tc,
		CoolingWaterInlet:       in.CoolingWaterTemperature,
		CoolingWaterOutlet:      outlet,
		CoolingWaterFlow:        cw,
		Effectiveness:           eps,
		HeatTransferCoefficient: u,
		FoulingResistance:       c.foulingResistance(),
		AirMass:                 c.air,
		AirRemoval:              removal,
		ActiveTubes:             c.tubes.active,
		LeakingTubes:            c.tubes.leaking,
		TubeLeakRate:            c.tubes.leakRate(),
		Fouling:                 c.deposits,
		HoursSinceCleaning:      c.hoursSinceCleaning,
		DistributionFactor:      c.distributionFactor(),
	}
	return Result{State: c.state, Faults: faults}
}

// VacuumLoop exposes the air removal controller state.
func (c *Condenser) VacuumLoop() control.LoopState {
	return c.vacuum.State()
}

func (c *Condenser) ResetControllers() {
	c.vacuum.Reset()
}
