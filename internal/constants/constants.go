// Package constants defines shared configuration constants.
package constants

var (
	// AppName is the server identity reported to MCP clients.
	AppName = "ferroscope"

	ConfigFile = "config.yaml"

	DefaultDir = ".ferroscope"

	// ConfigDirEnv overrides the directory holding ConfigFile.
	ConfigDirEnv = "FERROSCOPE_CONFIG"

	DefaultDebugger = "lldb"

	// DefaultPrompt is the LLDB prompt that ends a reply.
	DefaultPrompt = "(lldb)"

	DefaultBuildCommand = "cargo"
)

// DefaultBuildArgs returns the arguments passed to DefaultBuildCommand.
func DefaultBuildArgs() []string {
	return []string{"build"}
}

// ToolNames lists every MCP tool the server can register, in registration order.
var ToolNames = []string{
	"debug_run",
	"debug_break",
	"debug_continue",
	"debug_step",
	"debug_step_into",
	"debug_step_out",
	"debug_eval",
	"debug_backtrace",
	"debug_list_breakpoints",
	"debug_state",
	"debug_kill",
}
