package feedwater

import (
	"math"

	log "github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/floats"

	"pwrsim/config"
	"pwrsim/control"
	"pwrsim/deque"
	"pwrsim/fault"
	"pwrsim/steam_table"
)

const component = "feedwater"

// Input is what the train sees from the steam generators this step.
type Input struct {
	// outlet steam flow per generator, kg/s
	SteamFlows []float64
	// level loop output per generator, kg/s
	LevelCorrections []float64
	// turbine tripped: single-element control capped at the emergency flow
	Emergency          bool
	SuctionTemperature float64
}

type State struct {
	Demand       float64   `json:"demand"`     // kg/s requested by three-element control
	TotalFlow    float64   `json:"total_flow"` // kg/s delivered
	SGFlows      []float64 `json:"sg_flows"`
	Shortfall    float64   `json:"shortfall"`
	Head         float64   `json:"head"`
	RunningPumps int       `json:"running_pumps"`
	Emergency    bool      `json:"emergency"`
	Pumps        []Pump    `json:"pumps"`
}

type Result struct {
	State  State
	Faults []fault.Fault
}

// Train is the feedwater pump network with one three-element controller
// per steam generator.
type Train struct {
	cfg      *config.FeedwaterConfig
	balancer Balancer

	pumps      []*Pump
	head       steam_table.Polynomial
	efficiency steam_table.Polynomial

	controllers []*control.ThreeElement
	// per generator, delivered during the previous step
	sgFlows []float64

	// recent overload / underload samples for start and stop hysteresis
	startWindow *deque.ArrDeque[bool]
	stopWindow  *deque.ArrDeque[bool]

	dt        float64
	emergency bool
	state     State
}

// New builds the train from its section. initialSGFlows holds one entry per
// steam generator.
func New(cfg *config.FeedwaterConfig, initialSGFlows []float64, dt float64, balancer Balancer) *Train {
	weights, _, err := cfg.Weights().Normalize()
	if err != nil {
		weights = control.Weights{SteamFlow: 1}
	}
	if balancer == nil {
		balancer = EqualBalancer{}
	}
	t := &Train{
		cfg:         cfg,
		balancer:    balancer,
		head:        steam_table.Polynomial(cfg.FlowCoefficients),
		efficiency:  steam_table.Polynomial(cfg.EfficiencyCoefficients),
		sgFlows:     append([]float64(nil), initialSGFlows...),
		startWindow: deque.NewArrDeque[bool](windowSize(cfg.StartDelay, dt)),
		stopWindow:  deque.NewArrDeque[bool](windowSize(cfg.StopDelay, dt)),
		dt:          dt,
	}
	for range initialSGFlows {
		t.controllers = append(t.controllers, control.NewThreeElement(weights, cfg.FlowControl))
	}

	running := cfg.InitialConditions.RunningPumps
	if running == 0 {
		running = cfg.PumpsNormallyRunning
	}
	for i := 0; i < cfg.NumPumps; i++ {
		p := &Pump{ID: i}
		if i < running {
			p.Status = Running
			p.StartProgress = 1
			// treated as long running so the first stop is not held back
			p.Runtime = cfg.MinimumRuntime
			if i < len(cfg.InitialConditions.Flows) {
				p.Flow = cfg.InitialConditions.Flows[i]
			}
		}
		t.pumps = append(t.pumps, p)
	}
	for _, p := range t.pumps {
		share := p.Flow
		p.operate(cfg, t.head, t.efficiency, share)
	}
	t.state = t.snapshot(floats.Sum(t.sgFlows), floats.Sum(t.sgFlows))
	return t
}

func windowSize(delay, dt float64) int {
	if dt <= 0 {
		return 1
	}
	return int(math.Max(1, math.Round(delay/dt)))
}

func (t *Train) State() State {
	return t.state
}

func (t *Train) Balancer() Balancer {
	return t.balancer
}

// SetBalancer swaps the load sharing strategy.
func (t *Train) SetBalancer(b Balancer) {
	t.balancer = b
}

// Pumps returns copies of the pump states.
func (t *Train) Pumps() []Pump {
	out := make([]Pump, len(t.pumps))
	for i, p := range t.pumps {
		out[i] = *p
	}
	return out
}

// Advance computes the three-element demand per generator and dispatches it.
func (t *Train) Advance(in Input, dt float64) Result {
	var faults []fault.Fault
	n := len(t.controllers)
	demands := make([]float64, n)

	if in.Emergency != t.emergency {
		log.WithFields(log.Fields{
			"emergency": in.Emergency,
		}).Info("feedwater control mode changed")
		t.emergency = in.Emergency
	}
	for i := 0; i < n; i++ {
		steam, corr := at(in.SteamFlows, i), at(in.LevelCorrections, i)
		if t.emergency {
			demands[i] = math.Min(control.SingleElement(steam, corr), t.cfg.EmergencyFlowPerSG)
		} else {
			demands[i] = t.controllers[i].Demand(steam, t.sgFlows[i], corr, dt)
		}
	}
	demand := floats.Sum(demands)

	delivered, dispatchFaults := t.dispatch(demand, in.SuctionTemperature, dt)
	faults = append(faults, dispatchFaults...)

	// share the header flow between generators by their own demand
	for i := range t.sgFlows {
		if demand > 0 {
			t.sgFlows[i] = delivered * demands[i] / demand
		} else {
			t.sgFlows[i] = delivered / float64(n)
		}
	}
	t.state = t.snapshot(demand, delivered)
	return Result{State: t.state, Faults: faults}
}

// Dispatch runs the pump layer alone for a header demand in kg/s.
func (t *Train) Dispatch(demand, suctionTemperature, dt float64) Result {
	delivered, faults := t.dispatch(demand, suctionTemperature, dt)
	t.state = t.snapshot(demand, delivered)
	return Result{State: t.state, Faults: faults}
}

func (t *Train) dispatch(demand, suctionTemperature, dt float64) (float64, []fault.Fault) {
	var faults []fault.Fault
	cfg := t.cfg

	request := demand
	if floor := cfg.MinimumFlowFraction * cfg.DesignTotalFlow; request < floor {
		faults = append(faults, fault.Limit(component, "demand below minimum header flow", request, floor))
		request = floor
	}

	t.progressStarts(dt)
	t.hysteresis(request)

	// cavitation protection
	for _, p := range t.pumps {
		if p.Status != Running {
			continue
		}
		if p.Protection > 0 {
			p.Protection = math.Max(0, p.Protection-dt)
			continue
		}
		p.NPSHAvailable = p.npsh(cfg, suctionTemperature)
		if p.NPSHAvailable < cfg.NPSHRequired {
			p.Protection = cfg.ProtectionHold
			if p.Protection <= 0 {
				p.Protection = dt
			}
			log.WithFields(log.Fields{
				"pump":     p.Name(),
				"npsh":     p.NPSHAvailable,
				"required": cfg.NPSHRequired,
			}).Warn("npsh below required, pump forced to minimum flow")
			faults = append(faults, fault.Warn(p.Name(), "npsh below required, minimum-flow protection", p.NPSHAvailable, cfg.NPSHRequired))
		}
	}

	// protected pumps are pinned at minimum flow, the rest share what remains
	caps := make([]float64, len(t.pumps))
	var fixed float64
	for i, p := range t.pumps {
		if p.Protection > 0 && p.Status == Running {
			fixed += p.minimumFlow(cfg)
			continue
		}
		caps[i] = p.capacity(cfg)
	}
	remaining := math.Max(0, request-fixed)
	shares := waterFill(remaining, t.balancer.Weights(caps), caps)
	if available := floats.Sum(caps); remaining > available+1e-9 {
		faults = append(faults, fault.Limit(component, "demand exceeds available pump capacity", request, available+fixed))
	}

	var delivered float64
	for i, p := range t.pumps {
		p.operate(cfg, t.head, t.efficiency, shares[i])
		if p.Status == Running {
			p.Runtime += dt
		}
		delivered += p.Delivered
	}
	return delivered, faults
}

func (t *Train) progressStarts(dt float64) {
	for _, p := range t.pumps {
		if p.Status != Starting {
			continue
		}
		if t.cfg.StartTime <= 0 {
			p.StartProgress = 1
		} else {
			p.StartProgress = math.Min(1, p.StartProgress+dt/t.cfg.StartTime)
		}
		if p.StartProgress >= 1 {
			p.Status = Running
			p.Runtime = 0
			log.WithFields(log.Fields{
				"pump": p.Name(),
			}).Info("feedwater pump running")
		}
	}
}

// hysteresis starts a spare only after the header has been over running
// capacity for the whole start window, and stops a pump only after a full
// window of low demand and its minimum runtime.
func (t *Train) hysteresis(request float64) {
	cfg := t.cfg
	var running []*Pump
	var runningCap, starting float64
	for _, p := range t.pumps {
		switch p.Status {
		case Running:
			running = append(running, p)
			runningCap += p.capacity(cfg)
		case Starting:
			starting++
		}
	}

	deque.PushWindow[bool](t.startWindow, request > runningCap+1e-9)
	var reduced float64
	if len(running) > 1 {
		reduced = runningCap - running[len(running)-1].capacity(cfg)
	}
	deque.PushWindow[bool](t.stopWindow, len(running) > 1 && starting == 0 && request < cfg.StopFraction*reduced)

	isSet := func(v bool) bool { return v }
	switch {
	case starting == 0 && deque.All[bool](t.startWindow, isSet):
		for _, p := range t.pumps {
			if p.Status == Stopped {
				p.Status = Starting
				p.StartProgress = 0
				p.Runtime = 0
				log.WithFields(log.Fields{
					"pump":     p.Name(),
					"demand":   request,
					"capacity": runningCap,
				}).Info("starting spare feedwater pump")
				break
			}
		}
		t.startWindow.Clear()
		t.stopWindow.Clear()
	case deque.All[bool](t.stopWindow, isSet):
		// stop the most recently started pump that has served its minimum runtime
		var victim *Pump
		for _, p := range running {
			if p.Runtime >= cfg.MinimumRuntime && (victim == nil || p.Runtime <= victim.Runtime) {
				victim = p
			}
		}
		if victim != nil {
			victim.Status = Stopped
			victim.StartProgress = 0
			log.WithFields(log.Fields{
				"pump":   victim.Name(),
				"demand": request,
			}).Info("stopping feedwater pump on low demand")
			t.startWindow.Clear()
			t.stopWindow.Clear()
		}
	}
}

func (t *Train) snapshot(demand, delivered float64) State {
	s := State{
		Demand:    demand,
		TotalFlow: delivered,
		SGFlows:   append([]float64(nil), t.sgFlows...),
		Shortfall: math.Max(0, demand-delivered),
		Emergency: t.emergency,
		Pumps:     t.Pumps(),
	}
	var heads []float64
	for _, p := range t.pumps {
		if p.Status == Running {
			s.RunningPumps++
			heads = append(heads, p.Head)
		}
	}
	if len(heads) > 0 {
		s.Head = floats.Sum(heads) / float64(len(heads))
	}
	return s
}

// Age accumulates wear on online pumps over hours of operation.
// wearPerKhr is percent per 1000 h at design load and speed.
func (t *Train) Age(hours, wearPerKhr float64) []fault.Fault {
	var faults []fault.Fault
	for _, p := range t.pumps {
		if !p.Online() {
			continue
		}
		load := p.Flow / t.cfg.DesignFlowPerPump
		before := p.Wear
		p.Wear += wearPerKhr * hours / 1000 * math.Pow(load, 1.5) * math.Pow(p.SpeedFraction, 1.2)
		if before < wearAlarm && p.Wear >= wearAlarm {
			faults = append(faults, fault.Warn(p.Name(), "pump wear above alarm", p.Wear, wearAlarm))
		}
	}
	return faults
}

// percent wear at which a pump raises a health alarm
const wearAlarm = 10.0

// Overhaul restores all pumps to near new condition.
func (t *Train) Overhaul() {
	for _, p := range t.pumps {
		p.Wear *= 0.1
	}
}

// FlowLoops returns the flow loop state of every three-element controller.
func (t *Train) FlowLoops() []control.LoopState {
	states := make([]control.LoopState, len(t.controllers))
	for i, c := range t.controllers {
		states[i] = c.FlowState()
	}
	return states
}

// ResetControllers re-initializes every three-element flow loop.
func (t *Train) ResetControllers() {
	for _, c := range t.controllers {
		c.Reset()
	}
}

func at(v []float64, i int) float64 {
	if i < len(v) {
		return v[i]
	}
	return 0
}
