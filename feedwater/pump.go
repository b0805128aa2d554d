package feedwater

import (
	"fmt"
	"math"

	"pwrsim/config"
	"pwrsim/steam_table"
)

type PumpStatus int

const (
	Stopped PumpStatus = iota
	Starting
	Running
)

func (s PumpStatus) String() string {
	switch s {
	case Stopped:
		return "stopped"
	case Starting:
		return "starting"
	case Running:
		return "running"
	}
	return "unknown"
}

func (s PumpStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *PumpStatus) UnmarshalText(b []byte) error {
	for _, c := range []PumpStatus{Stopped, Starting, Running} {
		if c.String() == string(b) {
			*s = c
			return nil
		}
	}
	return fmt.Errorf("unknown pump status %q", b)
}

// Pump is one feedwater pump and its health proxies.
type Pump struct {
	ID     int        `json:"id"`
	Status PumpStatus `json:"status"`

	Flow          float64 `json:"flow"`          // kg/s through the pump
	Delivered     float64 `json:"delivered"`     // kg/s forwarded to the generators
	Recirculation float64 `json:"recirculation"` // kg/s returned on minimum-flow protection

	SpeedFraction      float64 `json:"speed_fraction"`
	Head               float64 `json:"head"` // m
	Efficiency         float64 `json:"efficiency"`
	NPSHAvailable      float64 `json:"npsh_available"` // m
	Vibration          float64 `json:"vibration"`      // mm/s
	BearingTemperature float64 `json:"bearing_temperature"`

	Runtime       float64 `json:"runtime"` // s since last start
	StartProgress float64 `json:"start_progress"`
	Wear          float64 `json:"wear"` // percent
	// seconds left in minimum-flow protection
	Protection float64 `json:"protection"`
}

func (p *Pump) Name() string {
	return fmt.Sprintf("fwp-%d", p.ID+1)
}

func (p *Pump) Online() bool {
	return p.Status != Stopped
}

// performance multiplier from wear, 1% loss per % wear
func (p *Pump) performance() float64 {
	return math.Max(0.5, 1-0.01*p.Wear)
}

// capacity is the maximum deliverable flow, kg/s.
func (p *Pump) capacity(cfg *config.FeedwaterConfig) float64 {
	c := cfg.MaximumFlowFraction * cfg.DesignFlowPerPump * p.performance()
	if p.Status == Starting {
		c *= p.StartProgress
	}
	if p.Status == Stopped {
		return 0
	}
	return c
}

func (p *Pump) minimumFlow(cfg *config.FeedwaterConfig) float64 {
	m := cfg.MinimumFlowFraction * cfg.DesignFlowPerPump
	if p.Status == Starting {
		m *= p.StartProgress
	}
	return m
}

func (p *Pump) npsh(cfg *config.FeedwaterConfig, suctionTemperature float64) float64 {
	ff := p.Flow / cfg.DesignFlowPerPump
	return cfg.SuctionHead - cfg.SuctionLossCoefficient*ff*ff -
		cfg.SuctionTemperatureCoefficient*math.Max(0, suctionTemperature-cfg.DesignSuctionTemperature)
}

// operate sets flows and recomputes the curve point and health proxies.
func (p *Pump) operate(cfg *config.FeedwaterConfig, head, efficiency steam_table.Polynomial, share float64) {
	if p.Status == Stopped {
		*p = Pump{ID: p.ID, Status: Stopped, Wear: p.Wear}
		return
	}
	flow := share
	if p.Protection > 0 {
		flow = p.minimumFlow(cfg)
		share = flow
	}
	flow = math.Max(flow, p.minimumFlow(cfg))
	p.Flow = flow
	p.Delivered = share
	p.Recirculation = flow - share

	ff := flow / cfg.DesignFlowPerPump
	perf := p.performance()
	p.SpeedFraction = ff
	if p.Status == Starting {
		p.SpeedFraction = p.StartProgress
	}
	p.Head = cfg.DesignHead * head.Eval(ff) * perf
	p.Efficiency = math.Max(0, efficiency.Eval(ff)*perf)

	p.Vibration = 1.5 + 4*(ff-1)*(ff-1) + 0.2*p.Wear
	if p.Protection > 0 {
		p.Vibration += 3
	}
	p.BearingTemperature = 35 + 30*p.SpeedFraction*p.SpeedFraction*(1+p.Wear/50)
}
