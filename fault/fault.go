package fault

import (
	"errors"
	"fmt"
	"math"
)

// Kind classifies a component fault.
type Kind int

const (
	// PhysicalLimitViolation is absorbed by clamping; the step is flagged degraded.
	PhysicalLimitViolation Kind = iota
	// Warning is informational (cavitation margin, unnormalized weights ...).
	Warning
	// Derate means the component reduced its own capability.
	Derate
	// Interlock is a plant-level trip forcing a safe sub-state.
	Interlock
)

func (k Kind) String() string {
	switch k {
	case PhysicalLimitViolation:
		return "physical_limit"
	case Warning:
		return "warning"
	case Derate:
		return "derate"
	case Interlock:
		return "interlock"
	default:
		return "unknown"
	}
}

// Fault is a structured, non-fatal result surfaced by a component advance.
type Fault struct {
	Kind      Kind    `json:"kind"`
	Component string  `json:"component"`
	Message   string  `json:"message"`
	Value     float64 `json:"value"`
	Limit     float64 `json:"limit"`
}

func (f Fault) String() string {
	return fmt.Sprintf("%s[%s]: %s (value=%.4g limit=%.4g)", f.Kind, f.Component, f.Message, f.Value, f.Limit)
}

// Degrading reports whether the fault marks the step as degraded.
func (f Fault) Degrading() bool {
	return f.Kind != Warning
}

// Limit builds a PhysicalLimitViolation fault.
func Limit(component, msg string, value, limit float64) Fault {
	return Fault{Kind: PhysicalLimitViolation, Component: component, Message: msg, Value: value, Limit: limit}
}

// Warn builds a Warning fault.
func Warn(component, msg string, value, limit float64) Fault {
	return Fault{Kind: Warning, Component: component, Message: msg, Value: value, Limit: limit}
}

// Clamp bounds v to [lo, hi] and appends a limit fault when it had to.
func Clamp(faults []Fault, component, what string, v, lo, hi float64) (float64, []Fault) {
	switch {
	case v < lo:
		return lo, append(faults, Limit(component, what+" below minimum", v, lo))
	case v > hi:
		return hi, append(faults, Limit(component, what+" above maximum", v, hi))
	}
	return v, faults
}

var (
	// ErrInvalidBoundary marks a recoverable bad boundary input for one step.
	ErrInvalidBoundary = errors.New("invalid boundary condition")
	// ErrStopped is returned when stepping a stopped plant.
	ErrStopped = errors.New("plant is stopped")
)

// InterlockTrip records a cross-component protective action.
type InterlockTrip struct {
	Name   string
	Cause  string
	Action string
}

func (e *InterlockTrip) Error() string {
	return fmt.Sprintf("interlock %s tripped: %s -> %s", e.Name, e.Cause, e.Action)
}

// NumericDivergence is fatal: a quantity became NaN or unbounded.
type NumericDivergence struct {
	Step      int
	Component string
	Quantity  string
	Value     float64
}

func (e *NumericDivergence) Error() string {
	return fmt.Sprintf("numeric divergence at step %d: %s.%s = %v", e.Step, e.Component, e.Quantity, e.Value)
}

// Unbounded is the magnitude past which a finite value is treated as diverged.
const Unbounded = 1e12

// Finite reports whether v is usable.
func Finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && math.Abs(v) < Unbounded
}

// Reading is a named quantity checked by CheckFinite.
type Reading struct {
	Name  string
	Value float64
}

// CheckFinite returns a NumericDivergence for the first non-finite reading
// in argument order.
func CheckFinite(step int, component string, readings ...Reading) error {
	for _, r := range readings {
		if !Finite(r.Value) {
			return &NumericDivergence{Step: step, Component: component, Quantity: r.Name, Value: r.Value}
		}
	}
	return nil
}
