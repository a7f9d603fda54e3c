package config

import (
	"github.com/coral-mesh/ferroscope/internal/constants"
)

// Default returns a config with sensible defaults.
func Default() *Config {
	return &Config{
		Version: SchemaVersion,
		Debugger: DebuggerConfig{
			Path:             constants.DefaultDebugger,
			Prompt:           constants.DefaultPrompt,
			StartupDelay:     constants.DefaultStartupDelay,
			ResponseTimeout:  constants.DefaultResponseTimeout,
			PollInterval:     constants.DefaultPollInterval,
			TerminateTimeout: constants.DefaultTerminateTimeout,
		},
		Build: BuildConfig{
			Command: constants.DefaultBuildCommand,
			Args:    constants.DefaultBuildArgs(),
		},
		MCP: MCPConfig{
			Name: constants.AppName,
		},
		Logging: LoggingConfig{
			Level: constants.DefaultLogLevel,
		},
	}
}
