// Package chemistry tracks secondary water impurity concentrations. It is a
// data feed: no speciation, only ingress from condenser leaks and removal by
// steam generator blowdown.
package chemistry

import (
	"math"

	log "github.com/sirupsen/logrus"

	"pwrsim/config"
	"pwrsim/fault"
)

const component = "chemistry"

// sodium carried in with each ppb of leaked chloride (sea salt ratio)
const sodiumPerChloride = 0.55

type State struct {
	ChloridePPB        float64 `json:"chloride_ppb"`
	SodiumPPB          float64 `json:"sodium_ppb"`
	DissolvedOxygenPPB float64 `json:"dissolved_oxygen_ppb"`
	PH                 float64 `json:"ph"`
	// 0 at makeup quality, grows with chloride excursion and pH depression
	Aggressiveness float64 `json:"aggressiveness"`
}

type Chemistry struct {
	cfg   *config.WaterChemistryConfig
	state State
	alarm bool
}

func New(cfg *config.WaterChemistryConfig) *Chemistry {
	return &Chemistry{
		cfg: cfg,
		state: State{
			ChloridePPB:        cfg.ChloridePPB,
			SodiumPPB:          cfg.SodiumPPB,
			DissolvedOxygenPPB: cfg.DissolvedOxygenPPB,
			PH:                 cfg.PH,
		},
	}
}

func (c *Chemistry) State() State {
	return c.state
}

// Advance applies leak ingress (kg/s of cooling water) and blowdown over dt
// seconds. Blowdown relaxes each concentration toward makeup quality.
func (c *Chemistry) Advance(leakRate, dt float64) []fault.Fault {
	var faults []fault.Fault
	cfg := c.cfg
	s := c.state
	hours := dt / 3600
	keep := math.Exp(-cfg.BlowdownFractionPerHour * hours)

	ingress := cfg.LeakChloridePPBPerKg * math.Max(0, leakRate) * dt
	s.ChloridePPB = cfg.ChloridePPB + (s.ChloridePPB-cfg.ChloridePPB)*keep + ingress
	s.SodiumPPB = cfg.SodiumPPB + (s.SodiumPPB-cfg.SodiumPPB)*keep + ingress*sodiumPerChloride
	s.DissolvedOxygenPPB = cfg.DissolvedOxygenPPB + (s.DissolvedOxygenPPB-cfg.DissolvedOxygenPPB)*keep

	excess := math.Max(0, s.ChloridePPB-cfg.ChloridePPB)
	s.PH = cfg.PH - 0.5*math.Log10(1+excess/math.Max(cfg.ChloridePPB, 1))
	s.Aggressiveness = 0
	if cfg.ChlorideLimitPPB > 0 {
		s.Aggressiveness = excess / cfg.ChlorideLimitPPB
	}
	s.Aggressiveness += math.Max(0, cfg.PH-s.PH)

	over := cfg.ChlorideLimitPPB > 0 && s.ChloridePPB > cfg.ChlorideLimitPPB
	if over {
		faults = append(faults, fault.Warn(component, "chloride above limit", s.ChloridePPB, cfg.ChlorideLimitPPB))
		if !c.alarm {
			log.WithFields(log.Fields{
				"chloride": s.ChloridePPB,
				"limit":    cfg.ChlorideLimitPPB,
			}).Warn("secondary chloride above limit")
		}
	}
	c.alarm = over
	c.state = s
	return faults
}
