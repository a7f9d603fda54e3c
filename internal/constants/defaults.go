package constants

import "time"

// Timeouts - Debugger timing defaults.
const (
	// DefaultResponseTimeout bounds how long one debugger reply is awaited.
	DefaultResponseTimeout = 10 * time.Second

	// DefaultPollInterval is the framer's wait per read attempt.
	DefaultPollInterval = 100 * time.Millisecond

	// DefaultStartupDelay is the pause between spawning the debugger and the first command.
	DefaultStartupDelay = 500 * time.Millisecond

	// DefaultTerminateTimeout bounds how long teardown waits for the debugger to exit.
	DefaultTerminateTimeout = 2 * time.Second
)

// Buffers.
const (
	// DefaultLineBuffer is the number of debugger output lines buffered ahead of the reader.
	DefaultLineBuffer = 1024
)

// Logging.
const (
	DefaultLogLevel = "info"
)
