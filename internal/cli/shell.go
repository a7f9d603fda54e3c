package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/chzyer/readline"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/coral-mesh/ferroscope/internal/constants"
	"github.com/coral-mesh/ferroscope/internal/debugger"
	ferrors "github.com/coral-mesh/ferroscope/internal/errors"
	"github.com/coral-mesh/ferroscope/internal/mcp"
)

const shellPrompt = "ferroscope> "

var (
	okStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("10")).
		Bold(true)
	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9")).
			Bold(true)
	stateStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205"))
	hintStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))
)

const shellHelp = `Commands:
  load <path>        Load a binary or build and load a cargo project
  break <location>   Set a breakpoint on a function or file:line
  continue, c        Launch the program or continue to the next breakpoint
  step, n            Step over the current line
  step-into, s       Step into the call on the current line
  step-out, finish   Run until the current function returns
  eval <expr>, p     Evaluate an expression or print a variable
  bt                 Show the call stack
  breakpoints        List breakpoints
  state              Show the session state
  kill               Terminate the debugger
  help               Show this help
  exit, quit         Leave the shell (or Ctrl+D)`

func newShellCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Drive the debugger interactively",
		Long: `Opens an interactive shell running the same operations the MCP tools expose.
Useful for checking a debugger setup without an MCP client.

` + shellHelp,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig(opts)
			if err != nil {
				return err
			}

			a := newApp(cfg, cmd.ErrOrStderr())
			defer ferrors.DeferClose(a.logger, a.registry, "failed to terminate debugger")

			src, err := newLineSource(cmd.InOrStdin(), cmd.OutOrStdout())
			if err != nil {
				return err
			}
			defer ferrors.DeferClose(a.logger, src, "failed to close shell input")

			return runShell(cmdContext(cmd), a.dispatcher, src, cmd.OutOrStdout())
		},
	}
}

// lineSource yields input lines; *readline.Instance is one.
type lineSource interface {
	Readline() (string, error)
	Close() error
}

// newLineSource uses readline with history on a terminal and plain line reads otherwise, so
// scripts can be piped into the shell.
func newLineSource(in io.Reader, out io.Writer) (lineSource, error) {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		home, _ := os.UserHomeDir()
		rl, err := readline.NewEx(&readline.Config{
			Prompt:          shellPrompt,
			HistoryFile:     filepath.Join(home, constants.DefaultDir, "shell_history"),
			InterruptPrompt: "^C",
			EOFPrompt:       "exit",
			Stdin:           f,
			Stdout:          out,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize readline: %w", err)
		}
		return rl, nil
	}
	return &scanSource{scanner: bufio.NewScanner(in)}, nil
}

type scanSource struct {
	scanner *bufio.Scanner
}

func (s *scanSource) Readline() (string, error) {
	if s.scanner.Scan() {
		return s.scanner.Text(), nil
	}
	if err := s.scanner.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}

func (s *scanSource) Close() error { return nil }

var errExit = errors.New("exit")

// runShell reads commands from src until exit or end of input.
func runShell(ctx context.Context, d mcp.Debugger, src lineSource, out io.Writer) error {
	_, _ = fmt.Fprintln(out, hintStyle.Render("Ferroscope shell. Type 'help' for commands, 'exit' to quit."))

	for {
		line, err := src.Readline()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) {
				continue
			}
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("readline error: %w", err)
		}

		text, err := execLine(ctx, d, line)
		if errors.Is(err, errExit) {
			return nil
		}
		if err != nil {
			_, _ = fmt.Fprintln(out, errorStyle.Render("Error: ")+err.Error())
			continue
		}
		if text != "" {
			_, _ = fmt.Fprintln(out, text)
		}
	}
}

// execLine runs one shell command and returns the rendered output.
func execLine(ctx context.Context, d mcp.Debugger, line string) (string, error) {
	name, arg, _ := strings.Cut(strings.TrimSpace(line), " ")
	arg = strings.TrimSpace(arg)

	var (
		res *debugger.Result
		err error
	)
	switch name {
	case "":
		return "", nil
	case "help", "?":
		return shellHelp, nil
	case "exit", "quit":
		return "", errExit
	case "load", "run":
		if arg == "" {
			return "", fmt.Errorf("usage: load <path>")
		}
		res, err = d.Load(ctx, arg)
	case "break", "b":
		if arg == "" {
			return "", fmt.Errorf("usage: break <location>")
		}
		res, err = d.Break(ctx, arg)
	case "continue", "c":
		res, err = d.Continue(ctx)
	case "step", "next", "n":
		res, err = d.Step(ctx)
	case "step-into", "s":
		res, err = d.StepInto(ctx)
	case "step-out", "finish":
		res, err = d.StepOut(ctx)
	case "eval", "print", "p":
		if arg == "" {
			return "", fmt.Errorf("usage: eval <expression>")
		}
		res, err = d.Eval(ctx, arg)
	case "bt", "backtrace":
		res, err = d.Backtrace(ctx)
	case "breakpoints":
		res, err = d.ListBreakpoints(ctx)
	case "state":
		res, err = d.State(ctx)
	case "kill":
		res, err = d.Kill(ctx)
	default:
		return "", fmt.Errorf("unknown command %q (type 'help')", name)
	}
	if err != nil {
		return "", err
	}
	return renderResult(res), nil
}

// renderResult formats a result as a status line followed by the debugger output.
func renderResult(res *debugger.Result) string {
	var b strings.Builder

	if res.Success {
		b.WriteString(okStyle.Render("ok"))
	} else {
		b.WriteString(errorStyle.Render("failed"))
	}
	if res.State != "" {
		b.WriteString(" " + stateStyle.Render("["+res.State+"]"))
	}
	if res.Location != "" {
		b.WriteString(" at " + res.Location)
	}
	if res.Method != "" {
		b.WriteString(" " + hintStyle.Render("via "+res.Method))
	}
	if res.TimedOut {
		b.WriteString(" " + hintStyle.Render("(timed out)"))
	}

	if res.Error != "" {
		b.WriteString("\n" + errorStyle.Render(res.Error))
	}
	if res.Output != "" {
		b.WriteString("\n" + res.Output)
	}
	return b.String()
}
