package acquire

import "fmt"

// State is the lifecycle state of a Controller.
type State int

const (
	StateStopped State = iota
	StateRunning
	StatePaused
	StateError
)

// String returns the lowercase state name.
func (s State) String() string {
	switch s {
	case StateStopped:
		return "stopped"
	case StateRunning:
		return "running"
	case StatePaused:
		return "paused"
	case StateError:
		return "error"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}
