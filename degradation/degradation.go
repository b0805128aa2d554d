// Package degradation turns operating hours into model modifiers and
// releases scheduled maintenance events when they fall due.
package degradation

import (
	"math"
	"sort"

	log "github.com/sirupsen/logrus"

	"pwrsim/config"
)

// Component names used by maintenance events.
const (
	SteamGenerator = "steam_generator"
	Turbine        = "turbine"
	Feedwater      = "feedwater"
	Condenser      = "condenser"
)

// Modifiers are the time-indexed multipliers applied to the models.
type Modifiers struct {
	OperatingHours float64 `json:"operating_hours"`
	// UA multiplier on every steam generator
	SGFouling float64 `json:"sg_fouling"`
	// internal efficiency multiplier on the turbine
	TurbineDerate float64 `json:"turbine_derate"`
}

type Tracker struct {
	cfg      config.DegradationConfig
	schedule []config.MaintenanceEvent
	next     int

	hours float64
	// operating hours since the component was last maintained
	since map[string]float64
}

// New starts the clock at the configured initial operating hours. Scheduled
// events earlier than that are treated as already done.
func New(cfg config.DegradationConfig, schedule []config.MaintenanceEvent) *Tracker {
	s := append([]config.MaintenanceEvent(nil), schedule...)
	sort.SliceStable(s, func(i, j int) bool { return s[i].AtHours < s[j].AtHours })
	t := &Tracker{
		cfg:      cfg,
		schedule: s,
		hours:    cfg.InitialOperatingHours,
		since: map[string]float64{
			SteamGenerator: cfg.InitialOperatingHours,
			Turbine:        cfg.InitialOperatingHours,
			Feedwater:      cfg.InitialOperatingHours,
			Condenser:      cfg.InitialOperatingHours,
		},
	}
	for t.next < len(s) && s[t.next].AtHours < t.hours {
		log.WithFields(log.Fields{
			"component": s[t.next].Component,
			"action":    s[t.next].Action,
			"at_hours":  s[t.next].AtHours,
		}).Debug("maintenance event before start, skipped")
		t.next++
	}
	return t
}

func (t *Tracker) Hours() float64 {
	return t.hours
}

// Since returns operating hours since the component was last maintained.
func (t *Tracker) Since(component string) float64 {
	return t.since[component]
}

// Advance adds operating hours and returns the events that fell due.
func (t *Tracker) Advance(hours float64) []config.MaintenanceEvent {
	if hours > 0 {
		t.hours += hours
		for k := range t.since {
			t.since[k] += hours
		}
	}
	var due []config.MaintenanceEvent
	for t.next < len(t.schedule) && t.schedule[t.next].AtHours <= t.hours {
		due = append(due, t.schedule[t.next])
		t.next++
	}
	return due
}

// Maintained restarts the component's degradation clock.
func (t *Tracker) Maintained(component string) {
	if _, ok := t.since[component]; ok {
		t.since[component] = 0
	}
}

func (t *Tracker) Modifiers() Modifiers {
	return Modifiers{
		OperatingHours: t.hours,
		SGFouling:      math.Max(0.1, 1-t.cfg.SGFoulingRatePerKhr*t.since[SteamGenerator]/1000),
		TurbineDerate:  math.Max(0.5, 1-t.cfg.TurbineDeratePerKhr*t.since[Turbine]/1000),
	}
}

// Pending is the number of scheduled events not yet released.
func (t *Tracker) Pending() int {
	return len(t.schedule) - t.next
}
