package control

import (
	"fmt"
	"math"
)

// Weights of the three feedwater control elements.
type Weights struct {
	SteamFlow float64
	Level     float64
	Feedwater float64
}

func (w Weights) Sum() float64 {
	return w.SteamFlow + w.Level + w.Feedwater
}

// Normalize scales the weights to sum to one. The bool reports whether they
// were off by more than 1e-6; the caller turns that into a warning.
func (w Weights) Normalize() (Weights, bool, error) {
	if w.SteamFlow < 0 || w.Level < 0 || w.Feedwater < 0 {
		return w, false, fmt.Errorf("negative three-element weight %+v", w)
	}
	s := w.Sum()
	if s <= 0 {
		return w, false, fmt.Errorf("three-element weights sum to %v", s)
	}
	skew := math.Abs(s-1) > 1e-6
	return Weights{w.SteamFlow / s, w.Level / s, w.Feedwater / s}, skew, nil
}

// ThreeElement computes one steam generator's feedwater demand from steam
// flow feed-forward, the generator's level correction and a feed/steam
// mismatch feedback loop.
type ThreeElement struct {
	weights Weights
	flow    *PID
}

// NewThreeElement expects normalized weights.
func NewThreeElement(w Weights, flow Params) *ThreeElement {
	return &ThreeElement{weights: w, flow: NewPID(flow)}
}

// Demand returns the requested feedwater flow in kg/s. levelCorr is the
// output of the steam generator's level loop in kg/s.
func (t *ThreeElement) Demand(steamFlow, feedFlow, levelCorr, dt float64) float64 {
	flowCorr := t.flow.Update(steamFlow, feedFlow, dt)

	d := t.weights.SteamFlow*steamFlow +
		t.weights.Level*(steamFlow+levelCorr) +
		t.weights.Feedwater*(steamFlow+flowCorr)
	return math.Max(0, d)
}

// SingleElement is the emergency law: level correction around the measured
// steam outflow, no flow feedback.
func SingleElement(steamFlow, levelCorr float64) float64 {
	return math.Max(0, steamFlow+levelCorr)
}

func (t *ThreeElement) Weights() Weights {
	return t.weights
}

func (t *ThreeElement) FlowState() LoopState {
	return t.flow.State()
}

func (t *ThreeElement) Reset() {
	t.flow.Reset()
}
