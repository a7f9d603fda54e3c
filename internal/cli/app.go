package cli

import (
	"io"

	"github.com/rs/zerolog"

	"github.com/coral-mesh/ferroscope/internal/config"
	"github.com/coral-mesh/ferroscope/internal/constants"
	"github.com/coral-mesh/ferroscope/internal/debugger"
	"github.com/coral-mesh/ferroscope/internal/logging"
)

// loadConfig reads the config file, applies flag overrides and validates the result.
func loadConfig(opts *options) (*config.Config, string, error) {
	loader := config.NewLoader()
	explicit := opts.configPath != ""
	if explicit {
		loader = config.NewFileLoader(opts.configPath)
	}

	cfg, err := loader.Load(explicit)
	if err != nil {
		return nil, "", err
	}

	if opts.changed("log-level") {
		cfg.Logging.Level = opts.logLevel
	}
	if opts.changed("debugger") {
		cfg.Debugger.Path = opts.debugger
	}
	if opts.changed("timeout") {
		cfg.Debugger.ResponseTimeout = opts.timeout
	}
	if opts.changed("pty") {
		cfg.Debugger.UsePTY = opts.pty
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", err
	}
	return cfg, loader.Path(), nil
}

// app is the debugger stack shared by serve and shell.
type app struct {
	cfg        *config.Config
	logger     zerolog.Logger
	registry   *debugger.Registry
	dispatcher *debugger.Dispatcher
}

func newApp(cfg *config.Config, logOutput io.Writer) *app {
	logCfg := logging.Config{
		Level:  cfg.Logging.Level,
		Pretty: cfg.Logging.Pretty,
		Output: logOutput,
	}
	logger := logging.New(logCfg)

	spawner := debugger.NewExecSpawner(debugger.ExecConfig{
		Path:             cfg.Debugger.Path,
		Args:             cfg.Debugger.Args,
		UsePTY:           cfg.Debugger.UsePTY,
		MergeStderr:      cfg.Debugger.MergeStderr,
		TerminateTimeout: cfg.Debugger.TerminateTimeout,
		LineBuffer:       constants.DefaultLineBuffer,
	}, logging.NewWithComponent(logCfg, "process"))

	framer := debugger.NewFramer(
		cfg.Debugger.ResponseTimeout,
		cfg.Debugger.PollInterval,
		logging.NewWithComponent(logCfg, "framer"),
	)
	framer.Prompt = cfg.Debugger.Prompt

	registry := debugger.NewRegistry(spawner, logging.NewWithComponent(logCfg, "session"))
	dispatcher := debugger.NewDispatcher(registry, debugger.DispatcherConfig{
		Framer: framer,
		Builder: &debugger.CargoBuilder{
			Command: cfg.Build.Command,
			Args:    cfg.Build.Args,
			Logger:  logging.NewWithComponent(logCfg, "build"),
		},
		StartupDelay: cfg.Debugger.StartupDelay,
	}, logging.NewWithComponent(logCfg, "dispatcher"))

	return &app{
		cfg:        cfg,
		logger:     logger,
		registry:   registry,
		dispatcher: dispatcher,
	}
}
