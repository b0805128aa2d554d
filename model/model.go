// Package model holds the JSON messages exchanged with front ends.
package model

import "pwrsim/plant"

// Msg is the websocket envelope. Content carries a JSON document whose
// shape depends on Type.
type Msg struct {
	Type    string `json:"type"`
	Content string `json:"content"`
}

// Request types sent by the client.
const (
	TypeEnv     = "env"
	TypeStart   = "start"
	TypeStop    = "stop"
	TypeCommand = "command"
)

// Reply types sent by the server.
const (
	TypeEnvSet   = "envSet"
	TypeStarted  = "started"
	TypeSnapshot = "snapshot"
	TypeStopped  = "stopped"
	TypeError    = "error"
)

// Env selects what the next start runs. Zero values keep the configured
// defaults.
type Env struct {
	Scenario string  `json:"scenario"`
	Duration float64 `json:"duration"` // s
	Noise    *bool   `json:"noise,omitempty"`
	Seed     uint64  `json:"seed,omitempty"`
}

// RunInfo describes a started run.
type RunInfo struct {
	RunID    string  `json:"run_id"`
	Plant    string  `json:"plant"`
	Scenario string  `json:"scenario"`
	SGs      int     `json:"sgs"`
	TimeStep float64 `json:"time_step"`
}

// RunSummary is sent when a run ends and printed by the CLI.
type RunSummary struct {
	RunID           string   `json:"run_id"`
	Steps           int      `json:"steps"`
	Mode            string   `json:"mode"`
	ElectricalPower float64  `json:"electrical_power"`
	DegradedSteps   int      `json:"degraded_steps"`
	Interlocks      []string `json:"interlocks,omitempty"`
	Error           string   `json:"error,omitempty"`
}

// Summarize reduces a trajectory to its summary. err is the run error, if any.
func Summarize(t *plant.Trajectory, err error) RunSummary {
	s := RunSummary{RunID: t.RunID.String(), Steps: t.Len()}
	for _, snap := range t.Snapshots() {
		if snap.Degraded() {
			s.DegradedSteps++
		}
	}
	if last, ok := t.Last(); ok {
		s.Mode = last.Mode.String()
		s.ElectricalPower = last.ElectricalPower
		s.Interlocks = last.Interlocks
	}
	if err != nil {
		s.Error = err.Error()
	}
	return s
}

// TrajectoryPage is the /trajectory response.
type TrajectoryPage struct {
	RunID     string           `json:"run_id"`
	Since     int              `json:"since"`
	Snapshots []plant.Snapshot `json:"snapshots"`
}

// Health is the /healthz response.
type Health struct {
	Status string `json:"status"`
	RunID  string `json:"run_id,omitempty"`
	Mode   string `json:"mode,omitempty"`
	Step   int    `json:"step"`
}
