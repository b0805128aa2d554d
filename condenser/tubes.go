package condenser

import "math"

const (
	// never fewer active tubes than this
	minimumTubes = 1000
	// a step fails at most this fraction of the active tubes
	maxFailureFraction = 0.01
	// share of failed tubes that leak until plugged
	leakingShare = 0.1
	// kg/s of cooling water per leaking tube
	leakPerTube = 0.001
)

type tubes struct {
	active  float64
	failed  float64
	leaking float64
}

// age fails tubes at rate per tube-hour and returns the number failed.
// Failed tubes leave service; a share of them keep leaking until plugged.
func (t *tubes) age(rate, hours float64) float64 {
	failed := math.Min(rate*t.active*hours, t.active*maxFailureFraction)
	failed = math.Min(failed, math.Max(0, t.active-minimumTubes))
	t.active -= failed
	t.failed += failed
	t.leaking += failed * leakingShare
	return failed
}

func (t *tubes) plug() float64 {
	n := t.leaking
	t.leaking = 0
	return n
}

func (t *tubes) leakRate() float64 {
	return math.Min(t.leaking, t.active*0.001) * leakPerTube
}

func (t *tubes) areaFactor(initial float64) float64 {
	if initial <= 0 {
		return 1
	}
	return t.active / initial
}
