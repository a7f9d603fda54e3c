package config

import (
	"fmt"
	"slices"
	"strings"

	"github.com/coral-mesh/ferroscope/internal/constants"
	"github.com/coral-mesh/ferroscope/internal/logging"
)

// ValidationError represents a single validation error.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// MultiValidationError represents multiple validation errors.
type MultiValidationError struct {
	Errors []ValidationError
}

// Error implements the error interface.
func (e *MultiValidationError) Error() string {
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}

	var builder strings.Builder
	fmt.Fprintf(&builder, "validation failed with %d errors:\n", len(e.Errors))
	for i, err := range e.Errors {
		fmt.Fprintf(&builder, "  %d. %s\n", i+1, err.Error())
	}
	return builder.String()
}

// Validate checks the config for values the server cannot run with.
func (c *Config) Validate() error {
	var errs []ValidationError
	add := func(field, msg string) {
		errs = append(errs, ValidationError{Field: field, Message: msg})
	}

	d := c.Debugger
	if strings.TrimSpace(d.Path) == "" {
		add("debugger.path", "debugger executable is required")
	}
	if strings.TrimSpace(d.Prompt) == "" {
		add("debugger.prompt", "prompt marker is required")
	}
	if d.StartupDelay < 0 {
		add("debugger.startup_delay", "startup delay must not be negative")
	}
	if d.ResponseTimeout <= 0 {
		add("debugger.response_timeout", "response timeout must be positive")
	}
	if d.PollInterval <= 0 {
		add("debugger.poll_interval", "poll interval must be positive")
	} else if d.ResponseTimeout > 0 && d.PollInterval > d.ResponseTimeout {
		add("debugger.poll_interval", "poll interval must not exceed the response timeout")
	}
	if d.TerminateTimeout <= 0 {
		add("debugger.terminate_timeout", "terminate timeout must be positive")
	}

	if strings.TrimSpace(c.Build.Command) == "" {
		add("build.command", "build command is required")
	}

	for _, tool := range c.MCP.EnabledTools {
		if !slices.Contains(constants.ToolNames, tool) {
			add("mcp.enabled_tools", fmt.Sprintf("unknown tool %q", tool))
		}
	}

	if c.Logging.Level != "" && !logging.ValidLevel(c.Logging.Level) {
		add("logging.level", "level must be one of trace, debug, info, warn, error")
	}

	if len(errs) > 0 {
		return &MultiValidationError{Errors: errs}
	}
	return nil
}
