package debugger

import (
	"fmt"
	"strings"
)

// Raw LLDB commands issued by the Dispatcher.
const (
	cmdProcessLaunch   = "process launch"
	cmdProcessContinue = "process continue"
	cmdStepOver        = "thread step-over"
	cmdStepIn          = "thread step-in"
	cmdStepOut         = "thread step-out"
	cmdBacktrace       = "thread backtrace"
	cmdBreakpointList  = "breakpoint list"
)

// Category groups raw commands that share a completion rule.
type Category int

const (
	// CategoryGeneric commands only complete on the prompt marker.
	CategoryGeneric Category = iota
	// CategoryLaunch is "process launch".
	CategoryLaunch
	// CategoryContinue is "process continue".
	CategoryContinue
	// CategoryBreakpointSet is "breakpoint set".
	CategoryBreakpointSet
	// CategoryEvaluate is "expression" and "frame variable".
	CategoryEvaluate
)

func (c Category) String() string {
	switch c {
	case CategoryLaunch:
		return "launch"
	case CategoryContinue:
		return "continue"
	case CategoryBreakpointSet:
		return "breakpoint_set"
	case CategoryEvaluate:
		return "evaluate"
	default:
		return "generic"
	}
}

// CategoryOf classifies a raw command by its prefix.
func CategoryOf(command string) Category {
	switch {
	case strings.HasPrefix(command, cmdProcessLaunch):
		return CategoryLaunch
	case strings.HasPrefix(command, cmdProcessContinue):
		return CategoryContinue
	case strings.HasPrefix(command, "breakpoint set"):
		return CategoryBreakpointSet
	case strings.HasPrefix(command, "expression"), strings.HasPrefix(command, "frame variable"):
		return CategoryEvaluate
	default:
		return CategoryGeneric
	}
}

func targetCreateCommand(path string) string {
	return fmt.Sprintf("target create \"%s\"", path)
}

func breakpointSetCommand(location string) string {
	return "breakpoint set --name " + location
}

func expressionCommand(expr string) string {
	return "expression " + expr
}

func frameVariableCommand(expr string) string {
	return "frame variable " + expr
}
