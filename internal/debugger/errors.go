package debugger

import (
	"errors"
	"fmt"
)

var (
	// ErrSpawn is returned when the debugger executable cannot be started.
	ErrSpawn = errors.New("failed to start debugger")

	// ErrIO is returned when writing to the debugger fails, usually because it exited.
	ErrIO = errors.New("debugger pipe closed")

	// ErrEOF is returned when the debugger output stream ends.
	ErrEOF = errors.New("debugger output closed")

	// ErrReadTimeout is returned by ReadLine when no line arrived in time.
	ErrReadTimeout = errors.New("no debugger output before timeout")

	// ErrNoSession is returned when an operation needs a debugger session and none exists.
	ErrNoSession = errors.New("no active debugger session")

	// ErrBuild is returned when a source tree could not be turned into a binary.
	ErrBuild = errors.New("build failed")
)

// PreconditionError reports an operation that is not valid in the current state.
// No command is sent to the debugger when it is returned.
type PreconditionError struct {
	Op     string
	State  State
	Reason string
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("%s: %s (state: %s)", e.Op, e.Reason, e.State)
}
