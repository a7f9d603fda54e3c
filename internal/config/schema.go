package config

import "time"

// SchemaVersion is the configuration schema version.
const SchemaVersion = "1"

// Config represents ~/.ferroscope/config.yaml.
type Config struct {
	Version  string         `yaml:"version"`
	Debugger DebuggerConfig `yaml:"debugger"`
	Build    BuildConfig    `yaml:"build"`
	MCP      MCPConfig      `yaml:"mcp"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// DebuggerConfig describes the debugger subprocess and how its replies are framed.
type DebuggerConfig struct {
	// Path is the debugger executable, looked up in PATH when relative.
	Path string   `yaml:"path" env:"FERROSCOPE_DEBUGGER"`
	Args []string `yaml:"args,omitempty" env:"FERROSCOPE_DEBUGGER_ARGS"`

	// UsePTY runs the debugger on a pseudo-terminal instead of pipes.
	UsePTY      bool `yaml:"use_pty" env:"FERROSCOPE_USE_PTY"`
	MergeStderr bool `yaml:"merge_stderr" env:"FERROSCOPE_MERGE_STDERR"`

	// Prompt is the marker that ends every reply.
	Prompt string `yaml:"prompt" env:"FERROSCOPE_PROMPT"`

	StartupDelay     time.Duration `yaml:"startup_delay" env:"FERROSCOPE_STARTUP_DELAY"`
	ResponseTimeout  time.Duration `yaml:"response_timeout" env:"FERROSCOPE_RESPONSE_TIMEOUT"`
	PollInterval     time.Duration `yaml:"poll_interval" env:"FERROSCOPE_POLL_INTERVAL"`
	TerminateTimeout time.Duration `yaml:"terminate_timeout" env:"FERROSCOPE_TERMINATE_TIMEOUT"`
}

// BuildConfig is the command run when a directory is loaded.
type BuildConfig struct {
	Command string   `yaml:"command" env:"FERROSCOPE_BUILD_COMMAND"`
	Args    []string `yaml:"args,omitempty" env:"FERROSCOPE_BUILD_ARGS"`
}

// MCPConfig contains MCP server settings.
type MCPConfig struct {
	// Name is reported to clients during initialize.
	Name string `yaml:"name" env:"FERROSCOPE_MCP_NAME"`

	// EnabledTools optionally restricts which tools are available.
	// If empty, all tools are enabled.
	EnabledTools []string `yaml:"enabled_tools,omitempty" env:"FERROSCOPE_ENABLED_TOOLS"`

	// AuditEnabled logs every tool call with its arguments.
	AuditEnabled bool `yaml:"audit_enabled,omitempty" env:"FERROSCOPE_MCP_AUDIT"`
}

// LoggingConfig contains logger settings.
type LoggingConfig struct {
	Level  string `yaml:"level" env:"FERROSCOPE_LOG_LEVEL"`
	Pretty bool   `yaml:"pretty" env:"FERROSCOPE_LOG_PRETTY"`
}
