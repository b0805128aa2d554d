// Package plant couples the component models into one time-stepped
// secondary system: fixed step order, interlocks, degradation, and the
// trajectory of snapshots.
package plant

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"sync"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/floats"

	"pwrsim/chemistry"
	"pwrsim/condenser"
	"pwrsim/config"
	"pwrsim/control"
	"pwrsim/degradation"
	"pwrsim/fault"
	"pwrsim/feedwater"
	"pwrsim/scenario"
	"pwrsim/steam_generator"
	"pwrsim/turbine"
)

var ErrUnknownCommand = errors.New("unknown command")

type Option func(*Plant)

// WithRunID fixes the trajectory identifier instead of generating one.
func WithRunID(id uuid.UUID) Option {
	return func(p *Plant) { p.traj = NewTrajectory(id) }
}

func WithCoordination(c Coordination) Option {
	return func(p *Plant) { p.coordination = c }
}

func WithBalancer(b feedwater.Balancer) Option {
	return func(p *Plant) { p.fw.SetBalancer(b) }
}

func WithWorkers(n int) Option {
	return func(p *Plant) { p.exec = newExecutor(n) }
}

// Plant owns every component and advances them one step at a time. Step
// and Run must be called from a single goroutine; Command and Subscribe may
// be called from any.
type Plant struct {
	cfg *config.PlantConfiguration
	dt  float64

	sgs  []*steam_generator.SteamGenerator
	fw   *feedwater.Train
	tb   *turbine.Turbine
	cd   *condenser.Condenser
	chem *chemistry.Chemistry
	deg  *degradation.Tracker

	exec         *executor
	hub          *Hub
	coordination Coordination
	interlocks   *interlocks
	traj         *Trajectory

	mode      Mode
	step      int
	time      float64
	boundary  scenario.Sample
	target    float64
	demand    float64
	runback   float64
	steadyFor float64
	stopping  bool
	// set once a step diverged; the plant refuses further steps
	err error

	mu      sync.Mutex
	pending []scenario.Command
}

// New validates cfg and builds every component from its initial conditions.
func New(cfg *config.PlantConfiguration, settings config.Settings, opts ...Option) (*Plant, error) {
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	sec := &cfg.Secondary
	n := cfg.NumSteamGenerators()

	p := &Plant{
		cfg:          cfg,
		dt:           cfg.Simulation.TimeStep,
		fw:           feedwater.New(&sec.Feedwater, sec.SteamGenerator.InitialConditions.FeedwaterFlows, cfg.Simulation.TimeStep, balancerFor(cfg)),
		tb:           turbine.New(&sec.Turbine),
		cd:           condenser.New(&sec.Condenser, cfg.Environmental.CoolingWaterTemperature),
		chem:         chemistry.New(&cfg.WaterChemistry),
		deg:          degradation.New(cfg.Degradation, cfg.Maintenance),
		exec:         newExecutor(settings.Workers),
		hub:          NewHub(settings.SnapshotBuffer),
		coordination: coordinationFor(cfg),
		interlocks:   newInterlocks(),
		traj:         NewTrajectory(uuid.New()),
		mode:         Initializing,
		boundary:     scenario.Design(cfg),
	}
	for i := 0; i < n; i++ {
		p.sgs = append(p.sgs, steam_generator.New(i, &sec.SteamGenerator))
	}
	p.demand = sec.Turbine.InitialConditions.LoadSetpoint
	p.target = p.demand

	for _, opt := range opts {
		opt(p)
	}

	if h := cfg.Degradation.InitialOperatingHours; h > 0 {
		p.fw.Age(h, cfg.Degradation.PumpWearPerKhr)
		p.cd.Age(h, 0)
		p.applyModifiers()
	}

	log.WithFields(log.Fields{
		"plant":        cfg.PlantName,
		"run_id":       p.traj.RunID,
		"sgs":          n,
		"workers":      p.exec.workers,
		"coordination": p.coordination.Name(),
		"balancer":     p.fw.Balancer().Name(),
	}).Info("plant initialized")
	return p, nil
}

func (p *Plant) Mode() Mode {
	return p.mode
}

func (p *Plant) Trajectory() *Trajectory {
	return p.traj
}

func (p *Plant) RunID() uuid.UUID {
	return p.traj.RunID
}

func (p *Plant) Config() *config.PlantConfiguration {
	return p.cfg
}

// Subscribe streams every snapshot appended from now on, preceded by the
// hub backlog.
func (p *Plant) Subscribe(buffer int) (<-chan Snapshot, func()) {
	return p.hub.Subscribe(buffer)
}

// Close ends all subscriptions.
func (p *Plant) Close() {
	p.hub.Close()
}

// Command queues an operator command for the next step boundary.
func (p *Plant) Command(cmd scenario.Command) error {
	if err := checkCommand(cmd); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pending = append(p.pending, cmd)
	return nil
}

func checkCommand(cmd scenario.Command) error {
	switch cmd.Kind {
	case scenario.Shutdown, scenario.ResetInterlocks, scenario.ResetControllers:
		return nil
	case scenario.Maintain:
		if config.ValidMaintenance(cmd.Component, cmd.Action) {
			return nil
		}
	}
	return fmt.Errorf("%w: %s %s %s", ErrUnknownCommand, cmd.Kind, cmd.Component, cmd.Action)
}

func (p *Plant) takePending() []scenario.Command {
	p.mu.Lock()
	defer p.mu.Unlock()
	cmds := p.pending
	p.pending = nil
	return cmds
}

func (p *Plant) apply(cmd scenario.Command) error {
	if err := checkCommand(cmd); err != nil {
		return err
	}
	switch cmd.Kind {
	case scenario.Shutdown:
		if !p.stopping {
			log.WithFields(log.Fields{"step": p.step}).Info("shutdown requested")
		}
		p.stopping = true
	case scenario.ResetInterlocks:
		p.interlocks.reset()
		p.runback = 0
		p.tb.Reset()
	case scenario.ResetControllers:
		p.resetControllers()
	case scenario.Maintain:
		return p.maintain(cmd.Component, cmd.Action)
	}
	return nil
}

func (p *Plant) resetControllers() {
	for _, sg := range p.sgs {
		sg.ResetControllers()
	}
	p.fw.ResetControllers()
	p.tb.ResetControllers()
	p.cd.ResetControllers()
	log.WithFields(log.Fields{"step": p.step}).Info("controllers reset")
}

func (p *Plant) controllers() Controllers {
	c := Controllers{
		Level:    make([]control.LoopState, len(p.sgs)),
		Pressure: make([]control.LoopState, len(p.sgs)),
		Flow:     p.fw.FlowLoops(),
		Load:     p.tb.LoadLoop(),
		Vacuum:   p.cd.VacuumLoop(),
	}
	for i, sg := range p.sgs {
		c.Level[i] = sg.LevelLoop()
		c.Pressure[i] = sg.PressureLoop()
	}
	return c
}

func (p *Plant) maintain(component, action string) error {
	switch component {
	case degradation.SteamGenerator:
		p.deg.Maintained(component)
	case degradation.Turbine:
		p.tb.Overhaul()
		p.deg.Maintained(component)
	case degradation.Feedwater:
		p.fw.Overhaul()
		p.deg.Maintained(component)
	case degradation.Condenser:
		if action == "plug_tubes" {
			p.cd.PlugTubes()
			break
		}
		if _, err := p.cd.Clean(action); err != nil {
			return err
		}
		p.deg.Maintained(component)
	default:
		return fmt.Errorf("%w: maintain %s", ErrUnknownCommand, component)
	}
	log.WithFields(log.Fields{
		"component": component,
		"action":    action,
		"hours":     p.deg.Hours(),
	}).Info("maintenance applied")
	return nil
}

func (p *Plant) applyModifiers() degradation.Modifiers {
	m := p.deg.Modifiers()
	for _, sg := range p.sgs {
		sg.SetFoulingFactor(m.SGFouling)
	}
	p.tb.SetDerate(m.TurbineDerate)
	return m
}

// Step advances the plant by one time step with the given boundary sample.
func (p *Plant) Step(sample scenario.Sample) (Snapshot, error) {
	if p.err != nil {
		return Snapshot{}, p.err
	}
	if p.mode == Stopped {
		return Snapshot{}, fault.ErrStopped
	}
	cfg := p.cfg
	sec := &cfg.Secondary
	dt := p.dt
	n := len(p.sgs)
	step := p.step + 1
	var faults []fault.Fault
	degraded := false

	// 1. boundary and commands
	for _, cmd := range append(p.takePending(), sample.Commands...) {
		if err := p.apply(cmd); err != nil {
			log.WithFields(log.Fields{
				"step":    step,
				"command": cmd.Kind,
			}).Warn(err)
		}
	}
	if sample.Valid() {
		p.boundary = sample
	} else {
		degraded = true
		faults = append(faults, fault.Limit("boundary", fmt.Sprintf("%v, holding last valid sample", fault.ErrInvalidBoundary), 0, 0))
		log.WithFields(log.Fields{"step": step}).Warn("invalid boundary sample, holding last valid values")
	}
	b := p.boundary

	// 2. load-following demand
	target := math.Max(0, math.Min(b.DemandFraction, sec.Turbine.MaximumLoad))
	if p.interlocks.has(FeedwaterRunback) {
		target = math.Min(target, p.runback)
	}
	if p.stopping {
		target = 0
	}
	p.target = target
	ramp := cfg.Simulation.LoadFollowing.RampRatePercentPerMinute / 100 / 60
	p.demand = control.RateLimit(p.demand, target, ramp*dt)

	// 3. steam generators, in parallel, on last step's feedwater and valve
	results := make([]steam_generator.Result, n)
	fwFlows := p.fw.State().SGFlows
	steamDemand := p.tb.SteamDemand()
	dumpBlocked := p.interlocks.has(SteamDumpBlock)
	elapsed, err := p.exec.dispatch(n, func(i int) error {
		sg := p.sgs[i]
		res := sg.Advance(steam_generator.Input{
			PrimaryInletTemperature: b.PrimaryInletTemperature,
			PrimaryFlow:             b.PrimaryFlow / float64(n),
			PrimaryPower:            b.PrimaryPower / float64(n),
			FeedwaterFlow:           fwFlows[i],
			FeedwaterTemperature:    sec.SteamGenerator.DesignFeedwaterTemperature,
			SteamDemand:             steamDemand,
			DumpBlocked:             dumpBlocked,
		}, dt)
		results[i] = res
		return fault.CheckFinite(step, sg.Name(),
			fault.Reading{Name: "pressure", Value: res.State.Pressure},
			fault.Reading{Name: "level", Value: res.State.Level},
			fault.Reading{Name: "steam_flow", Value: res.State.SteamFlow},
			fault.Reading{Name: "thermal_power", Value: res.State.ThermalPower},
		)
	})
	if err != nil {
		return Snapshot{}, p.diverged(err)
	}
	log.WithFields(log.Fields{
		"step":    step,
		"elapsed": elapsed,
	}).Debug("steam generators advanced")

	loops := make([]Loop, n)
	steamFlows := make([]float64, n)
	outletFlows := make([]float64, n)
	dumpFlows := make([]float64, n)
	corrections := make([]float64, n)
	powers := make([]float64, n)
	var steamEnergy, dumpEnergy, pressureFlow float64
	for i, r := range results {
		s := r.State
		faults = append(faults, r.Faults...)
		loops[i] = Loop{
			ID:                       s.ID,
			Pressure:                 s.Pressure,
			Level:                    s.Level,
			SteamTemperature:         s.SteamTemperature,
			Quality:                  s.Quality,
			SteamFlow:                s.SteamFlow,
			DumpFlow:                 s.DumpFlow,
			FeedwaterFlow:            s.FeedwaterFlow,
			ThermalPower:             s.ThermalPower,
			TubeWallTemperature:      s.TubeWallTemperature,
			PrimaryOutletTemperature: s.PrimaryOutletTemperature,
			FoulingFactor:            s.FoulingFactor,
		}
		steamFlows[i] = s.SteamFlow
		outletFlows[i] = s.OutletFlow()
		dumpFlows[i] = s.DumpFlow
		corrections[i] = s.LevelCorrection
		powers[i] = s.ThermalPower
		steamEnergy += s.SteamFlow * s.SteamEnthalpy
		dumpEnergy += s.DumpFlow * s.SteamEnthalpy
		pressureFlow += s.SteamFlow * s.Pressure
	}
	steam := floats.Sum(steamFlows)
	dump := floats.Sum(dumpFlows)

	// 4. feedwater on this step's generator demand
	fwRes := p.fw.Advance(feedwater.Input{
		SteamFlows:         outletFlows,
		LevelCorrections:   corrections,
		Emergency:          p.tb.Tripped(),
		SuctionTemperature: p.cd.State().HotwellTemperature,
	}, dt)
	faults = append(faults, fwRes.Faults...)

	// 5. turbine on the aggregated steam
	inlet := turbine.Input{
		SteamFlow:     steam,
		InletPressure: meanOr(pressureFlow, steam, loops[0].Pressure),
		InletEnthalpy: meanOr(steamEnergy, steam, results[0].State.SteamEnthalpy),
		BackPressure:  p.cd.Pressure(),
		LoadDemand:    p.demand,
	}
	tbRes := p.tb.Advance(inlet, dt)
	faults = append(faults, tbRes.Faults...)

	// 6. condenser on the exhaust and dumps
	cdRes := p.cd.Advance(condenser.Input{
		ExhaustFlow:             tbRes.State.ExhaustFlow,
		ExhaustEnthalpy:         tbRes.State.ExhaustEnthalpy,
		DumpFlow:                dump,
		DumpEnthalpy:            meanOr(dumpEnergy, dump, 0),
		CoolingWaterTemperature: b.CoolingWaterTemperature,
	}, dt)
	faults = append(faults, cdRes.Faults...)

	// 7. interlocks
	faults = append(faults, p.checkInterlocks(loops, fwRes.State, cdRes.State)...)

	// 8. degradation
	hours := dt / 3600
	for _, ev := range p.deg.Advance(hours) {
		if err := p.maintain(ev.Component, ev.Action); err != nil {
			log.WithFields(log.Fields{
				"component": ev.Component,
				"action":    ev.Action,
			}).Warn(err)
		}
	}
	mods := p.applyModifiers()
	faults = append(faults, p.fw.Age(hours, cfg.Degradation.PumpWearPerKhr)...)
	faults = append(faults, p.cd.Age(hours, p.chem.State().Aggressiveness)...)
	faults = append(faults, p.chem.Advance(p.cd.State().TubeLeakRate, dt)...)

	// 9. snapshot
	electrical := p.tb.State().ElectricalPower
	if err := fault.CheckFinite(step, "plant",
		fault.Reading{Name: "demand", Value: p.demand},
		fault.Reading{Name: "electrical_power", Value: electrical},
		fault.Reading{Name: "feedwater_flow", Value: fwRes.State.TotalFlow},
		fault.Reading{Name: "condenser_pressure", Value: cdRes.State.Pressure},
		fault.Reading{Name: "turbine_valve", Value: tbRes.State.ValvePosition},
	); err != nil {
		return Snapshot{}, p.diverged(err)
	}

	for _, f := range faults {
		if f.Degrading() {
			degraded = true
			break
		}
	}
	p.step = step
	p.time = float64(step) * dt
	p.transition(p.nextMode(degraded))

	snap := Snapshot{
		Step:              step,
		Time:              p.time,
		Mode:              p.mode,
		Status:            StatusOK,
		DemandTarget:      p.target,
		Demand:            p.demand,
		ThermalPower:      floats.Sum(powers),
		ElectricalPower:   electrical,
		SteamFlow:         steam,
		DumpFlow:          dump,
		FeedwaterFlow:     fwRes.State.TotalFlow,
		CondenserPressure: cdRes.State.Pressure,
		Loops:             loops,
		Turbine:           p.tb.State(),
		Feedwater:         fwRes.State,
		Condenser:         p.cd.State(),
		Chemistry:         p.chem.State(),
		Degradation:       mods,
		Controllers:       p.controllers(),
		Interlocks:        p.interlocks.names(),
		Faults:            faults,
	}
	if degraded {
		snap.Status = StatusDegraded
	}
	if err := p.traj.Append(snap); err != nil {
		return Snapshot{}, err
	}
	p.hub.Publish(snap)

	log.WithFields(log.Fields{
		"step":       step,
		"mode":       p.mode,
		"electrical": electrical,
		"feedwater":  fwRes.State.TotalFlow,
	}).Debug("step complete")
	return snap, nil
}

func meanOr(weighted, total, fallback float64) float64 {
	if total <= 0 {
		return fallback
	}
	return weighted / total
}

func (p *Plant) diverged(err error) error {
	log.WithFields(log.Fields{
		"step":       p.step + 1,
		"last_valid": p.step,
	}).Error(err)
	p.err = err
	return err
}

// checkInterlocks latches cross-component trips from this step's states.
func (p *Plant) checkInterlocks(loops []Loop, fw feedwater.State, cd condenser.State) []fault.Fault {
	var faults []fault.Fault
	sec := &p.cfg.Secondary
	latch := func(name, cause, action string, value, limit float64) {
		if p.interlocks.latch(&fault.InterlockTrip{Name: name, Cause: cause, Action: action}) {
			faults = append(faults, fault.Fault{
				Kind:      fault.Interlock,
				Component: name,
				Message:   cause + ": " + action,
				Value:     value,
				Limit:     limit,
			})
		}
	}

	// condenser <-> turbine
	if cd.Pressure > sec.Turbine.TripBackPressure {
		latch(TurbineTrip, "condenser back pressure high", "trip turbine, feedwater to emergency control", cd.Pressure, sec.Turbine.TripBackPressure)
	}
	if cd.Pressure > sec.Condenser.DumpBlockPressure {
		latch(SteamDumpBlock, "condenser vacuum low", "block steam dumps", cd.Pressure, sec.Condenser.DumpBlockPressure)
	}
	// turbine <-> steam generator
	sg := &sec.SteamGenerator
	for _, l := range loops {
		if l.Level <= sg.LowLevelTrip {
			latch(TurbineTrip, fmt.Sprintf("sg-%d level low", l.ID+1), "trip turbine, feedwater to emergency control", l.Level, sg.LowLevelTrip)
		}
		if l.Level >= sg.HighLevelTrip {
			latch(TurbineTrip, fmt.Sprintf("sg-%d level high", l.ID+1), "trip turbine, feedwater to emergency control", l.Level, sg.HighLevelTrip)
		}
	}
	if p.interlocks.has(TurbineTrip) && !p.tb.Tripped() {
		p.tb.Trip(p.interlocks.active[TurbineTrip].Cause)
	}
	// feedwater <-> steam generator
	if ceiling, ok := p.coordination.Runback(fw, sec.Feedwater.DesignTotalFlow); ok {
		held := p.interlocks.has(FeedwaterRunback)
		latch(FeedwaterRunback, "feedwater shortfall", "run back turbine load", fw.Shortfall, 0)
		if !held || ceiling < p.runback {
			p.runback = ceiling
		}
	}
	return faults
}

func (p *Plant) nextMode(degraded bool) Mode {
	band := p.cfg.Simulation.LoadFollowing.SteadyBandPercent / 100
	switch {
	case p.stopping && p.demand <= 0:
		return Stopped
	case p.stopping:
		return ShuttingDown
	case p.tb.Tripped():
		p.steadyFor = 0
		return Emergency
	case degraded || p.interlocks.any():
		p.steadyFor = 0
		return Transient
	case math.Abs(p.target-p.demand) > band:
		p.steadyFor = 0
		return LoadFollowing
	}
	p.steadyFor += p.dt
	switch {
	case p.mode == Initializing || p.mode == SteadyState:
		return SteadyState
	case p.steadyFor >= p.cfg.Simulation.LoadFollowing.SteadyHold:
		return SteadyState
	case p.mode == LoadFollowing:
		return LoadFollowing
	}
	return Transient
}

func (p *Plant) transition(next Mode) {
	if next == p.mode {
		return
	}
	log.WithFields(log.Fields{
		"step": p.step,
		"from": p.mode,
		"to":   next,
	}).Info("plant mode changed")
	p.mode = next
}

// Run steps the plant with samples from src until the source is exhausted,
// the plant stops, a step diverges or ctx is cancelled. Cancellation is only
// observed between steps. The trajectory so far is always returned.
func (p *Plant) Run(ctx context.Context, src scenario.Source) (*Trajectory, error) {
	log.WithFields(log.Fields{
		"run_id": p.traj.RunID,
		"dt":     p.dt,
	}).Info("run started")
	for {
		if err := ctx.Err(); err != nil {
			return p.traj, err
		}
		sample, err := src.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return p.traj, err
		}
		if _, err := p.Step(sample); err != nil {
			if errors.Is(err, fault.ErrStopped) {
				break
			}
			return p.traj, err
		}
		if p.mode == Stopped {
			break
		}
	}
	log.WithFields(log.Fields{
		"run_id": p.traj.RunID,
		"steps":  p.traj.Len(),
		"mode":   p.mode,
	}).Info("run finished")
	return p.traj, nil
}
