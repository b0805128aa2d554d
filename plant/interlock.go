package plant

import (
	log "github.com/sirupsen/logrus"

	"pwrsim/fault"
)

// Interlock names.
const (
	TurbineTrip      = "turbine_trip"
	SteamDumpBlock   = "steam_dump_block"
	FeedwaterRunback = "feedwater_runback"
)

// interlocks are latched until an explicit reset.
type interlocks struct {
	active map[string]*fault.InterlockTrip
	order  []string
}

func newInterlocks() *interlocks {
	return &interlocks{active: make(map[string]*fault.InterlockTrip)}
}

// latch records the trip and reports whether it was newly latched.
func (l *interlocks) latch(t *fault.InterlockTrip) bool {
	if _, ok := l.active[t.Name]; ok {
		return false
	}
	l.active[t.Name] = t
	l.order = append(l.order, t.Name)
	log.WithFields(log.Fields{
		"interlock": t.Name,
		"cause":     t.Cause,
		"action":    t.Action,
	}).Warn("interlock tripped")
	return true
}

func (l *interlocks) has(name string) bool {
	_, ok := l.active[name]
	return ok
}

func (l *interlocks) any() bool {
	return len(l.order) > 0
}

func (l *interlocks) names() []string {
	return append([]string(nil), l.order...)
}

func (l *interlocks) reset() {
	if len(l.order) > 0 {
		log.WithFields(log.Fields{
			"cleared": l.order,
		}).Info("interlocks reset")
	}
	l.active = make(map[string]*fault.InterlockTrip)
	l.order = nil
}
