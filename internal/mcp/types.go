package mcp

// Input types for MCP tools.

// RunInput is the input for debug_run.
type RunInput struct {
	BinaryPath string `json:"binary_path" jsonschema:"description=Path to the Rust binary or source directory to debug"`
}

// BreakInput is the input for debug_break.
type BreakInput struct {
	Location string `json:"location" jsonschema:"description=Function name or file:line to break at"`
}

// EvalInput is the input for debug_eval.
type EvalInput struct {
	Expression string `json:"expression" jsonschema:"description=Expression or variable name to evaluate"`
}

// NoInput is the input of tools that take no arguments.
type NoInput struct{}
