// Package cli implements the ferroscope command line.
package cli

import (
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// options are the persistent flags shared by every command.
type options struct {
	configPath string
	logLevel   string
	debugger   string
	timeout    time.Duration
	pty        bool

	// flags is set once parsed so overrides apply only to flags the user passed.
	flags *pflag.FlagSet
}

func (o *options) bind(fs *pflag.FlagSet) {
	fs.StringVar(&o.configPath, "config", "", "Config file (default $FERROSCOPE_CONFIG/config.yaml or ~/.ferroscope/config.yaml)")
	fs.StringVar(&o.logLevel, "log-level", "", "Log level (trace, debug, info, warn, error)")
	fs.StringVar(&o.debugger, "debugger", "", "Debugger executable (default lldb)")
	fs.DurationVar(&o.timeout, "timeout", 0, "Maximum wait for one debugger reply (default 10s)")
	fs.BoolVar(&o.pty, "pty", false, "Run the debugger on a pseudo-terminal")
	o.flags = fs
}

func (o *options) changed(name string) bool {
	return o.flags != nil && o.flags.Changed(name)
}

// NewRootCmd creates the ferroscope command tree.
func NewRootCmd() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:   "ferroscope",
		Short: "Ferroscope - an MCP debugging server for Rust programs",
		Long: `Ferroscope lets AI assistants debug Rust programs through LLDB.

It speaks the Model Context Protocol over stdio and exposes tools to load a
program, set breakpoints, control execution, evaluate expressions and inspect
the call stack. Running ferroscope without a subcommand starts the MCP server.

An interactive shell driving the same operations is available for manual use:

  ferroscope shell`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, opts)
		},
	}

	opts.bind(rootCmd.PersistentFlags())

	rootCmd.AddCommand(newServeCmd(opts))
	rootCmd.AddCommand(newShellCmd(opts))
	rootCmd.AddCommand(newConfigCmd(opts))
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

// Execute runs the root command
func Execute() error {
	return NewRootCmd().Execute()
}
