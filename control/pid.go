package control

import "math"

// Params configures one PID loop. Output is clamped to [OutputMin, OutputMax].
type Params struct {
	Kp        float64 `yaml:"kp"`
	Ki        float64 `yaml:"ki"`
	Kd        float64 `yaml:"kd"`
	Setpoint  float64 `yaml:"setpoint"`
	OutputMin float64 `yaml:"output_min"`
	OutputMax float64 `yaml:"output_max"`
	// output at zero error
	Bias float64 `yaml:"bias"`
}

// LoopState is the mutable part of a controller. It is only cleared by Reset.
type LoopState struct {
	Integral  float64 `json:"integral"`
	PrevError float64 `json:"prev_error"`
	Primed    bool    `json:"primed"`
	Output    float64 `json:"output"`
	Saturated bool    `json:"saturated"`
}

type PID struct {
	Params
	state LoopState
}

func NewPID(p Params) *PID {
	if p.OutputMax < p.OutputMin {
		p.OutputMin, p.OutputMax = p.OutputMax, p.OutputMin
	}
	return &PID{Params: p, state: LoopState{Output: clamp(p.Bias, p.OutputMin, p.OutputMax)}}
}

// Update advances the loop by dt seconds and returns the clamped output.
// The integral is frozen while the output is saturated in the direction of the error.
func (c *PID) Update(setpoint, measured, dt float64) float64 {
	e := setpoint - measured
	var d float64
	if c.state.Primed && dt > 0 {
		d = (e - c.state.PrevError) / dt
	}

	integral := c.state.Integral + e*dt
	raw := c.Bias + c.Kp*e + c.Ki*integral + c.Kd*d
	out := clamp(raw, c.OutputMin, c.OutputMax)
	saturated := out != raw
	if !saturated || (raw > c.OutputMax && e < 0) || (raw < c.OutputMin && e > 0) {
		c.state.Integral = integral
	}

	c.state.PrevError = e
	c.state.Primed = true
	c.state.Output = out
	c.state.Saturated = saturated
	return out
}

// Track runs the loop against its configured setpoint.
func (c *PID) Track(measured, dt float64) float64 {
	return c.Update(c.Setpoint, measured, dt)
}

func (c *PID) State() LoopState {
	return c.state
}

func (c *PID) Output() float64 {
	return c.state.Output
}

// Reset re-initialises the loop. This is the only way the integral is cleared.
func (c *PID) Reset() {
	c.state = LoopState{Output: clamp(c.Bias, c.OutputMin, c.OutputMax)}
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// RateLimit moves current toward target by at most maxDelta.
func RateLimit(current, target, maxDelta float64) float64 {
	if maxDelta < 0 {
		maxDelta = -maxDelta
	}
	switch {
	case target > current+maxDelta:
		return current + maxDelta
	case target < current-maxDelta:
		return current - maxDelta
	}
	return target
}
