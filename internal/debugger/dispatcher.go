package debugger

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// DispatcherConfig configures a Dispatcher.
type DispatcherConfig struct {
	// Framer frames every debugger reply. Required.
	Framer *Framer
	// Builder handles loads of directories. If nil, directory loads fail.
	Builder Builder
	// StartupDelay is how long load waits after spawning before sending the first command.
	StartupDelay time.Duration
}

// Dispatcher maps high-level debugging operations onto raw debugger commands.
type Dispatcher struct {
	registry     *Registry
	framer       *Framer
	builder      Builder
	startupDelay time.Duration
	logger       zerolog.Logger
}

// NewDispatcher creates a Dispatcher that runs every operation through registry.
func NewDispatcher(registry *Registry, cfg DispatcherConfig, logger zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		registry:     registry,
		framer:       cfg.Framer,
		builder:      cfg.Builder,
		startupDelay: cfg.StartupDelay,
		logger:       logger,
	}
}

// operation is one Dispatcher call on an existing session.
type operation struct {
	name    string
	command string
	// allowed lists the states the operation accepts. Empty means any state, a session is
	// still required to have something to send the command to.
	allowed []State
	reason  string
}

func (op operation) permits(state State) bool {
	if len(op.allowed) == 0 {
		return state != StateNotLoaded
	}
	for _, s := range op.allowed {
		if s == state {
			return true
		}
	}
	return false
}

var (
	stopped = []State{StateStopped}

	opStepOver = operation{
		name: "step", command: cmdStepOver, allowed: stopped,
		reason: "program must be stopped at a breakpoint to step",
	}
	opStepIn = operation{
		name: "step_into", command: cmdStepIn, allowed: stopped,
		reason: "program must be stopped at a breakpoint to step",
	}
	opStepOut = operation{
		name: "step_out", command: cmdStepOut, allowed: stopped,
		reason: "program must be stopped at a breakpoint to step",
	}
	opBacktrace = operation{
		name: "backtrace", command: cmdBacktrace, allowed: stopped,
		reason: "program must be stopped to show backtrace",
	}
	opListBreakpoints = operation{
		name: "list_breakpoints", command: cmdBreakpointList,
		reason: ErrNoSession.Error(),
	}
)

// withLease runs fn under the registry lease and returns its result.
func (d *Dispatcher) withLease(ctx context.Context, fn func(l *Lease) *Result) (*Result, error) {
	var res *Result
	err := d.registry.Do(ctx, func(l *Lease) error {
		res = fn(l)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// check returns the session if op may run, or a rejection result. Rejections never touch
// the debugger.
func (d *Dispatcher) check(l *Lease, op operation) (*Session, *Result) {
	state := l.State()
	if !op.permits(state) {
		err := &PreconditionError{Op: op.name, State: state, Reason: op.reason}
		d.logger.Debug().Err(err).Msg("Operation rejected")
		return nil, &Result{Success: false, State: state.String(), Error: op.reason}
	}
	return l.Session(), nil
}

// exec sends command and converts an I/O failure into a result.
func (d *Dispatcher) exec(s *Session, command string) (Response, *Result) {
	resp, err := s.Exec(command, d.framer)
	if err != nil {
		res := failure(s.State(), fmt.Errorf("%s: %w", command, err))
		res.Output = strings.TrimSpace(resp.Text)
		return resp, res
	}
	return resp, nil
}

// Load replaces the current session with a new debugger holding the binary at path.
// A directory is built first. Any previous session is terminated even if the load fails.
func (d *Dispatcher) Load(ctx context.Context, path string) (*Result, error) {
	return d.withLease(ctx, func(l *Lease) *Result {
		l.Clear()

		binary, err := d.resolveBinary(ctx, path)
		if err != nil {
			d.logger.Warn().Err(err).Str("path", path).Msg("Failed to resolve program")
			return failure(StateNotLoaded, err)
		}

		s, err := l.Replace(ctx, binary)
		if err != nil {
			d.logger.Error().Err(err).Str("binary", binary).Msg("Failed to start debugger")
			return failure(StateNotLoaded, err)
		}

		if d.startupDelay > 0 {
			time.Sleep(d.startupDelay)
		}

		resp, failed := d.exec(s, targetCreateCommand(binary))
		if failed != nil {
			l.Clear()
			failed.State = StateNotLoaded.String()
			return failed
		}
		s.setState(StateLoaded)

		s.logger.Info().Msg("Program loaded")
		return &Result{
			Success:    true,
			State:      s.State().String(),
			Output:     strings.TrimSpace(resp.Text),
			BinaryPath: binary,
			TimedOut:   resp.TimedOut,
			SessionID:  s.ID(),
		}
	})
}

func (d *Dispatcher) resolveBinary(ctx context.Context, path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("path does not exist: %s", path)
	}
	if !info.IsDir() {
		return path, nil
	}
	if d.builder == nil {
		return "", fmt.Errorf("%w: %s is a directory and no builder is configured", ErrBuild, path)
	}
	return d.builder.Build(ctx, path)
}

// Break sets a breakpoint on a function name or file:line.
func (d *Dispatcher) Break(ctx context.Context, location string) (*Result, error) {
	op := operation{name: "break", command: breakpointSetCommand(location), reason: ErrNoSession.Error()}
	return d.withLease(ctx, func(l *Lease) *Result {
		s, rejected := d.check(l, op)
		if rejected != nil {
			rejected.Location = location
			return rejected
		}

		resp, failed := d.exec(s, op.command)
		if failed != nil {
			return failed
		}

		return &Result{
			Success:  !strings.Contains(resp.Text, "no locations") && !strings.Contains(resp.Text, "error:"),
			State:    s.State().String(),
			Output:   strings.TrimSpace(resp.Text),
			Location: location,
			TimedOut: resp.TimedOut,
		}
	})
}

// Continue launches a loaded program or resumes a stopped one.
func (d *Dispatcher) Continue(ctx context.Context) (*Result, error) {
	return d.withLease(ctx, func(l *Lease) *Result {
		state := l.State()
		var command string
		switch state {
		case StateLoaded:
			command = cmdProcessLaunch
		case StateStopped:
			command = cmdProcessContinue
		case StateRunning:
			return &Result{Success: false, State: state.String(), Error: "program is already running"}
		case StateCompleted, StateCrashed:
			return &Result{Success: false, State: state.String(), Error: "program has finished execution"}
		default:
			return &Result{Success: false, State: state.String(), Error: "no program loaded; use debug_run first"}
		}

		return d.resume(l.Session(), command)
	})
}

// Step steps over the current line.
func (d *Dispatcher) Step(ctx context.Context) (*Result, error) {
	return d.step(ctx, opStepOver)
}

// StepInto steps into the call on the current line.
func (d *Dispatcher) StepInto(ctx context.Context) (*Result, error) {
	return d.step(ctx, opStepIn)
}

// StepOut runs until the current function returns.
func (d *Dispatcher) StepOut(ctx context.Context) (*Result, error) {
	return d.step(ctx, opStepOut)
}

func (d *Dispatcher) step(ctx context.Context, op operation) (*Result, error) {
	return d.withLease(ctx, func(l *Lease) *Result {
		s, rejected := d.check(l, op)
		if rejected != nil {
			return rejected
		}
		return d.resume(s, op.command)
	})
}

// resume runs an execution-control command and reports where the program ended up.
func (d *Dispatcher) resume(s *Session, command string) *Result {
	resp, failed := d.exec(s, command)
	if failed != nil {
		return failed
	}
	loc, _ := s.Location()
	return &Result{
		Success:  true,
		State:    s.State().String(),
		Output:   strings.TrimSpace(resp.Text),
		Location: loc,
		TimedOut: resp.TimedOut,
	}
}

// Eval evaluates expr in the current frame. If the expression evaluator rejects it, the
// frame variable inspector is tried instead.
func (d *Dispatcher) Eval(ctx context.Context, expr string) (*Result, error) {
	op := operation{
		name: "eval", command: expressionCommand(expr), allowed: stopped,
		reason: "program must be stopped (at breakpoint) to evaluate expressions",
	}
	return d.withLease(ctx, func(l *Lease) *Result {
		s, rejected := d.check(l, op)
		if rejected != nil {
			rejected.Expression = expr
			return rejected
		}

		method := MethodExpression
		resp, failed := d.exec(s, op.command)
		if failed == nil && needsFrameVariable(resp.Text) {
			method = MethodFrameVariable
			resp, failed = d.exec(s, frameVariableCommand(expr))
		}
		if failed != nil {
			failed.Expression = expr
			failed.Method = method
			return failed
		}

		return &Result{
			Success:    !strings.Contains(resp.Text, "error:"),
			State:      s.State().String(),
			Expression: expr,
			Output:     strings.TrimSpace(resp.Text),
			Method:     method,
			TimedOut:   resp.TimedOut,
		}
	})
}

func needsFrameVariable(text string) bool {
	return strings.Contains(text, "error:") || strings.Contains(text, "undeclared identifier")
}

// Backtrace returns the current thread's call stack as printed by the debugger.
func (d *Dispatcher) Backtrace(ctx context.Context) (*Result, error) {
	return d.passthrough(ctx, opBacktrace)
}

// ListBreakpoints returns the debugger's breakpoint listing.
func (d *Dispatcher) ListBreakpoints(ctx context.Context) (*Result, error) {
	return d.passthrough(ctx, opListBreakpoints)
}

func (d *Dispatcher) passthrough(ctx context.Context, op operation) (*Result, error) {
	return d.withLease(ctx, func(l *Lease) *Result {
		s, rejected := d.check(l, op)
		if rejected != nil {
			return rejected
		}
		resp, failed := d.exec(s, op.command)
		if failed != nil {
			return failed
		}
		return &Result{
			Success:  true,
			State:    s.State().String(),
			Output:   strings.TrimSpace(resp.Text),
			TimedOut: resp.TimedOut,
		}
	})
}

// State reports the session state without talking to the debugger.
func (d *Dispatcher) State(ctx context.Context) (*Result, error) {
	return d.withLease(ctx, func(l *Lease) *Result {
		s := l.Session()
		if s == nil {
			return &Result{Success: true, State: StateNotLoaded.String()}
		}
		snap := s.snapshot()
		return &Result{
			Success:    true,
			State:      snap.State.String(),
			Location:   snap.Location,
			BinaryPath: snap.BinaryPath,
			SessionID:  snap.SessionID,
		}
	})
}

// Kill terminates the debugger and drops the session.
func (d *Dispatcher) Kill(ctx context.Context) (*Result, error) {
	return d.withLease(ctx, func(l *Lease) *Result {
		if l.Session() == nil {
			return &Result{Success: true, State: StateNotLoaded.String(), Output: "no active session"}
		}
		l.Clear()
		return &Result{Success: true, State: StateNotLoaded.String(), Output: "debugger session terminated"}
	})
}
