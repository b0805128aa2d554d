// Package scenario produces the boundary sample for every plant step.
package scenario

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"sort"

	"pwrsim/config"
)

// CommandKind names an operator command carried with a sample.
type CommandKind string

const (
	// Shutdown ramps demand to zero and stops the plant.
	Shutdown CommandKind = "shutdown"
	// ResetInterlocks clears latched trips.
	ResetInterlocks CommandKind = "reset_interlocks"
	// ResetControllers re-initializes every control loop in the plant.
	ResetControllers CommandKind = "reset_controllers"
	// Maintain applies a maintenance action to one component.
	Maintain CommandKind = "maintain"
)

type Command struct {
	Kind      CommandKind `json:"kind"`
	Component string      `json:"component,omitempty"`
	Action    string      `json:"action,omitempty"`
}

// Sample is one step of boundary conditions. Primary quantities are plant
// totals; the coordinator splits them across steam generators.
type Sample struct {
	PrimaryInletTemperature float64   `json:"primary_inlet_temperature"` // C
	PrimaryFlow             float64   `json:"primary_flow"`              // kg/s
	PrimaryPower            float64   `json:"primary_power"`             // MW thermal
	CoolingWaterTemperature float64   `json:"cooling_water_temperature"` // C
	DemandFraction          float64   `json:"demand_fraction"`
	Commands                []Command `json:"commands,omitempty"`
}

// Valid reports whether every field is finite and physically usable.
func (s Sample) Valid() bool {
	for _, v := range []float64{s.PrimaryInletTemperature, s.PrimaryFlow, s.PrimaryPower, s.CoolingWaterTemperature, s.DemandFraction} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return s.PrimaryFlow >= 0 && s.PrimaryPower >= 0 && s.DemandFraction >= 0 &&
		s.CoolingWaterTemperature > 0 && s.CoolingWaterTemperature < 100
}

// Design is the full-power boundary for a configuration.
func Design(cfg *config.PlantConfiguration) Sample {
	sg := cfg.Secondary.SteamGenerator
	return Sample{
		PrimaryInletTemperature: sg.DesignPrimaryInletTemperature,
		PrimaryFlow:             sg.DesignPrimaryFlowPerSG * float64(sg.NumSteamGenerators),
		PrimaryPower:            sg.DesignTotalThermalPower,
		CoolingWaterTemperature: cfg.Environmental.CoolingWaterTemperature,
		DemandFraction:          1,
	}
}

// Source yields samples in step order. Next returns io.EOF once exhausted.
type Source interface {
	Next(ctx context.Context) (Sample, error)
}

// profile sources replay base with the demand and primary power scaled by a
// function of simulated time
type profile struct {
	base  Sample
	dt    float64
	steps int // 0 is unbounded
	step  int
	demand func(t float64) float64
}

func newProfile(base Sample, dt, duration float64, demand func(float64) float64) *profile {
	p := &profile{base: base, dt: dt, demand: demand}
	if duration > 0 && dt > 0 {
		p.steps = int(math.Ceil(duration/dt - 1e-9))
	}
	return p
}

func (p *profile) Next(ctx context.Context) (Sample, error) {
	if err := ctx.Err(); err != nil {
		return Sample{}, err
	}
	if p.steps > 0 && p.step >= p.steps {
		return Sample{}, io.EOF
	}
	p.step++
	d := math.Max(0, p.demand(float64(p.step)*p.dt))
	s := p.base
	s.DemandFraction = d
	s.PrimaryPower = p.base.PrimaryPower * d
	s.Commands = nil
	return s, nil
}

// NewSteady holds base for duration seconds.
func NewSteady(base Sample, dt, duration float64) Source {
	d := base.DemandFraction
	return newProfile(base, dt, duration, func(float64) float64 { return d })
}

// NewRamp moves demand linearly from `from` to `to` over length seconds
// starting at start.
func NewRamp(base Sample, dt, duration, from, to, start, length float64) Source {
	return NewSchedule(base, dt, duration, []Point{{At: start, Demand: from}, {At: start + length, Demand: to}})
}

// NewStep changes demand from before to after at time at.
func NewStep(base Sample, dt, duration, before, after, at float64) Source {
	return newProfile(base, dt, duration, func(t float64) float64 {
		if t < at {
			return before
		}
		return after
	})
}

// Point is one knot of a piecewise-linear demand schedule.
type Point struct {
	At     float64 `json:"at" yaml:"at"`
	Demand float64 `json:"demand" yaml:"demand"`
}

// NewSchedule interpolates demand between points, holding the end values
// outside them.
func NewSchedule(base Sample, dt, duration float64, points []Point) Source {
	pts := append([]Point(nil), points...)
	sort.SliceStable(pts, func(i, j int) bool { return pts[i].At < pts[j].At })
	return newProfile(base, dt, duration, func(t float64) float64 {
		return interpolate(pts, t, base.DemandFraction)
	})
}

func interpolate(pts []Point, t, fallback float64) float64 {
	if len(pts) == 0 {
		return fallback
	}
	if t <= pts[0].At {
		return pts[0].Demand
	}
	i := sort.Search(len(pts), func(i int) bool { return pts[i].At >= t })
	if i == len(pts) {
		return pts[len(pts)-1].Demand
	}
	lo, hi := pts[i-1], pts[i]
	return lo.Demand + (hi.Demand-lo.Demand)*(t-lo.At)/(hi.At-lo.At)
}

type channel struct {
	ch <-chan Sample
}

// NewChannel reads samples pushed by another goroutine until ch is closed.
func NewChannel(ch <-chan Sample) Source {
	return &channel{ch: ch}
}

func (c *channel) Next(ctx context.Context) (Sample, error) {
	select {
	case <-ctx.Done():
		return Sample{}, ctx.Err()
	case s, ok := <-c.ch:
		if !ok {
			return Sample{}, io.EOF
		}
		return s, nil
	}
}

var ErrUnknownScenario = errors.New("unknown scenario")

// Names lists the scenarios Named accepts.
var Names = []string{"steady", "steady_with_noise", "step", "ramp_down", "load_follow"}

// Named builds one of the stock scenarios at the configured time step and
// duration. Noise is applied when enabled in the configuration and always
// for steady_with_noise.
func Named(name string, cfg *config.PlantConfiguration) (Source, error) {
	base := Design(cfg)
	dt, duration := cfg.Simulation.TimeStep, cfg.Simulation.Duration
	noise := cfg.Simulation.Noise

	var src Source
	switch name {
	case "steady":
		src = NewSteady(base, dt, duration)
	case "steady_with_noise":
		src = NewSteady(base, dt, duration)
		noise.Enabled = true
	case "step":
		src = NewStep(base, dt, duration, 1, 0.9, 60)
	case "ramp_down":
		src = NewRamp(base, dt, duration, 1, 0.5, 60, 600)
	case "load_follow":
		src = NewSchedule(base, dt, duration, []Point{
			{At: 0, Demand: 1},
			{At: 300, Demand: 1},
			{At: 900, Demand: 0.5},
			{At: 1800, Demand: 0.5},
			{At: 2400, Demand: 1},
		})
	default:
		return nil, fmt.Errorf("%w %q, expected one of %v", ErrUnknownScenario, name, Names)
	}
	if noise.Enabled {
		src = WithNoise(src, noise)
	}
	return src, nil
}
