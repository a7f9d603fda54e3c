package debugger

import "strings"

// Observation is what a single debugger reply says about the program.
type Observation struct {
	// State is the inferred new state. Only meaningful when Changed is true.
	State   State
	Changed bool

	// Location is the "file:line"-like token of the stop point, if the reply reported one.
	Location    string
	HasLocation bool
}

// transition is one row of the state inference table. A row matches when the reply contains
// every string in all and, if any is non-empty, at least one string in any.
type transition struct {
	all   []string
	any   []string
	state State
}

// transitions is checked top to bottom; the first matching row wins.
var transitions = []transition{
	{all: []string{"Process", "launched"}, state: StateRunning},
	{all: []string{"Process", "stopped"}, state: StateStopped},
	{all: []string{"Process", "exited"}, state: StateCompleted},
	{any: []string{"crashed", "SIGSEGV", "SIGABRT", "SIGBUS", "SIGILL", "SIGFPE"}, state: StateCrashed},
}

const (
	stopReasonMarker = "stop reason"
	locationMarker   = " at "
)

func (t transition) matches(text string) bool {
	for _, s := range t.all {
		if !strings.Contains(text, s) {
			return false
		}
	}
	if len(t.any) == 0 {
		return true
	}
	for _, s := range t.any {
		if strings.Contains(text, s) {
			return true
		}
	}
	return false
}

// Observe infers the program state and stop location from one framed reply.
// It depends on nothing but the text, so identical replies always yield identical observations.
func Observe(text string) Observation {
	var obs Observation
	for _, t := range transitions {
		if t.matches(text) {
			obs.State = t.state
			obs.Changed = true
			break
		}
	}

	if strings.Contains(text, stopReasonMarker) {
		obs.Location, obs.HasLocation = extractLocation(text)
	}
	return obs
}

// extractLocation returns the first token following " at " on the first line that has one.
func extractLocation(text string) (string, bool) {
	for _, line := range strings.Split(text, "\n") {
		parts := strings.Split(line, locationMarker)
		if len(parts) < 2 {
			continue
		}
		if fields := strings.Fields(parts[1]); len(fields) > 0 {
			return fields[0], true
		}
	}
	return "", false
}
