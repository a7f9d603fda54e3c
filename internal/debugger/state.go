package debugger

import "fmt"

// State is the lifecycle state of the program under the debugger.
type State int

const (
	// StateNotLoaded means no session exists.
	StateNotLoaded State = iota
	// StateLoaded means the target was created but the program has not been launched.
	StateLoaded
	// StateRunning means the program is executing.
	StateRunning
	// StateStopped means the program is suspended, typically at a breakpoint or after a step.
	StateStopped
	// StateCrashed means the program died on a fatal signal.
	StateCrashed
	// StateCompleted means the program exited.
	StateCompleted
)

// String returns the wire name of the state.
func (s State) String() string {
	switch s {
	case StateNotLoaded:
		return "not_loaded"
	case StateLoaded:
		return "loaded"
	case StateRunning:
		return "running"
	case StateStopped:
		return "stopped"
	case StateCrashed:
		return "crashed"
	case StateCompleted:
		return "completed"
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}

// Terminal reports whether the program can no longer be resumed without a new load.
func (s State) Terminal() bool {
	return s == StateCrashed || s == StateCompleted
}

// ParseState converts a wire name back into a State.
func ParseState(name string) (State, error) {
	for s := StateNotLoaded; s <= StateCompleted; s++ {
		if s.String() == name {
			return s, nil
		}
	}
	return StateNotLoaded, fmt.Errorf("unknown state %q", name)
}
