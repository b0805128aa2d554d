package plant

import "fmt"

// Mode is the coordinator state.
type Mode int

const (
	Initializing Mode = iota
	SteadyState
	LoadFollowing
	Transient
	Emergency
	ShuttingDown
	Stopped
)

func (m Mode) String() string {
	switch m {
	case Initializing:
		return "initializing"
	case SteadyState:
		return "steady_state"
	case LoadFollowing:
		return "load_following"
	case Transient:
		return "transient"
	case Emergency:
		return "emergency"
	case ShuttingDown:
		return "shutting_down"
	case Stopped:
		return "stopped"
	}
	return "unknown"
}

func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *Mode) UnmarshalText(b []byte) error {
	for c := Initializing; c <= Stopped; c++ {
		if c.String() == string(b) {
			*m = c
			return nil
		}
	}
	return fmt.Errorf("unknown mode %q", b)
}
