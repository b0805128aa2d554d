package plant

import (
	"errors"
	"sync"

	"github.com/google/uuid"

	"pwrsim/chemistry"
	"pwrsim/condenser"
	"pwrsim/control"
	"pwrsim/degradation"
	"pwrsim/fault"
	"pwrsim/feedwater"
	"pwrsim/turbine"
)

type Status string

const (
	StatusOK       Status = "ok"
	StatusDegraded Status = "degraded"
)

// Loop is one steam generator's share of a snapshot.
type Loop struct {
	ID                       int     `json:"id"`
	Pressure                 float64 `json:"pressure"`
	Level                    float64 `json:"level"`
	SteamTemperature         float64 `json:"steam_temperature"`
	Quality                  float64 `json:"quality"`
	SteamFlow                float64 `json:"steam_flow"`
	DumpFlow                 float64 `json:"dump_flow"`
	FeedwaterFlow            float64 `json:"feedwater_flow"`
	ThermalPower             float64 `json:"thermal_power"`
	TubeWallTemperature      float64 `json:"tube_wall_temperature"`
	PrimaryOutletTemperature float64 `json:"primary_outlet_temperature"`
	FoulingFactor            float64 `json:"fouling_factor"`
}

// Controllers is the state of every control loop after a step. Slices are
// indexed by steam generator.
type Controllers struct {
	Level    []control.LoopState `json:"level"`
	Pressure []control.LoopState `json:"pressure"`
	Flow     []control.LoopState `json:"flow"`
	Load     control.LoopState   `json:"load"`
	Vacuum   control.LoopState   `json:"vacuum"`
}

// Snapshot is the plant state after one completed step.
type Snapshot struct {
	Step   int     `json:"step"`
	Time   float64 `json:"time"` // s
	Mode   Mode    `json:"mode"`
	Status Status  `json:"status"`

	DemandTarget      float64 `json:"demand_target"`
	Demand            float64 `json:"demand"`        // ramped, fraction of rated
	ThermalPower      float64 `json:"thermal_power"` // MW from all generators
	ElectricalPower   float64 `json:"electrical_power"`
	SteamFlow         float64 `json:"steam_flow"` // kg/s to the turbine
	DumpFlow          float64 `json:"dump_flow"`
	FeedwaterFlow     float64 `json:"feedwater_flow"`
	CondenserPressure float64 `json:"condenser_pressure"`

	Loops       []Loop                `json:"loops"`
	Turbine     turbine.State         `json:"turbine"`
	Feedwater   feedwater.State       `json:"feedwater"`
	Condenser   condenser.State       `json:"condenser"`
	Chemistry   chemistry.State       `json:"chemistry"`
	Degradation degradation.Modifiers `json:"degradation"`
	Controllers Controllers           `json:"controllers"`

	Interlocks []string      `json:"interlocks,omitempty"`
	Faults     []fault.Fault `json:"faults,omitempty"`
}

func (s Snapshot) Degraded() bool {
	return s.Status == StatusDegraded
}

var ErrNonMonotonic = errors.New("trajectory time must strictly increase")

// Trajectory is the append-only record of one run. It is safe to read while
// the run is appending.
type Trajectory struct {
	RunID uuid.UUID

	mu        sync.RWMutex
	snapshots []Snapshot
}

func NewTrajectory(id uuid.UUID) *Trajectory {
	return &Trajectory{RunID: id}
}

func (t *Trajectory) Append(s Snapshot) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if n := len(t.snapshots); n > 0 && s.Time <= t.snapshots[n-1].Time {
		return ErrNonMonotonic
	}
	t.snapshots = append(t.snapshots, s)
	return nil
}

func (t *Trajectory) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.snapshots)
}

func (t *Trajectory) Last() (Snapshot, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if len(t.snapshots) == 0 {
		return Snapshot{}, false
	}
	return t.snapshots[len(t.snapshots)-1], true
}

// Snapshots returns a copy of the entries recorded so far.
func (t *Trajectory) Snapshots() []Snapshot {
	return t.Since(0)
}

// Since returns the entries with Step greater than step.
func (t *Trajectory) Since(step int) []Snapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()
	// steps start at 1 and are never skipped
	if step < 0 {
		step = 0
	}
	if step >= len(t.snapshots) {
		return nil
	}
	return append([]Snapshot(nil), t.snapshots[step:]...)
}
