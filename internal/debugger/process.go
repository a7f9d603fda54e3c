package debugger

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	psprocess "github.com/shirou/gopsutil/v4/process"
)

// Process is one running debugger.
type Process interface {
	LineReader

	// Write sends one line of input, appending the terminator.
	Write(text string) error

	// Terminate stops the debugger and everything it launched. It is idempotent.
	Terminate() error

	// PID returns the operating system process id, or 0 if unknown.
	PID() int
}

// Spawner starts debugger processes.
type Spawner interface {
	Spawn(ctx context.Context) (Process, error)
}

// ExecConfig describes how to start the debugger executable.
type ExecConfig struct {
	// Path is the debugger executable, resolved through PATH when not absolute.
	Path string
	// Args are passed to the debugger; LLDB runs interactively with none.
	Args []string
	// UsePTY runs the debugger on a pseudo-terminal instead of pipes.
	UsePTY bool
	// MergeStderr folds stderr into the output line stream in pipe mode.
	MergeStderr bool
	// TerminateTimeout bounds how long Terminate waits for the process to exit.
	TerminateTimeout time.Duration
	// LineBuffer is the number of output lines buffered ahead of the reader.
	LineBuffer int
}

// ExecSpawner starts the debugger with os/exec.
type ExecSpawner struct {
	cfg    ExecConfig
	logger zerolog.Logger
}

// NewExecSpawner creates an ExecSpawner.
func NewExecSpawner(cfg ExecConfig, logger zerolog.Logger) *ExecSpawner {
	if cfg.TerminateTimeout <= 0 {
		cfg.TerminateTimeout = 2 * time.Second
	}
	if cfg.LineBuffer <= 0 {
		cfg.LineBuffer = 1024
	}
	return &ExecSpawner{cfg: cfg, logger: logger}
}

// Spawn starts a new debugger process.
func (s *ExecSpawner) Spawn(ctx context.Context) (Process, error) {
	if s.cfg.Path == "" {
		return nil, fmt.Errorf("%w: no debugger executable configured", ErrSpawn)
	}
	path, err := exec.LookPath(s.cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSpawn, err)
	}

	// The debugger outlives the request that spawned it, so ctx only guards the start.
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	//nolint:gosec // G204: debugger path comes from trusted configuration.
	cmd := exec.Command(path, s.cfg.Args...)
	setProcessGroup(cmd)

	h := &Handle{
		cmd:              cmd,
		lines:            make(chan string, s.cfg.LineBuffer),
		stop:             make(chan struct{}),
		exited:           make(chan struct{}),
		terminateTimeout: s.cfg.TerminateTimeout,
		logger:           s.logger,
	}

	var out io.ReadCloser
	if s.cfg.UsePTY {
		out, err = h.startPTY()
	} else {
		out, err = h.startPipes(s.cfg.MergeStderr)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSpawn, err)
	}

	h.logger = s.logger.With().Int("pid", h.PID()).Logger()
	h.logger.Info().
		Str("debugger", path).
		Bool("pty", s.cfg.UsePTY).
		Msg("Debugger started")

	go h.readLines(out)
	go h.wait()

	return h, nil
}

// Handle is a debugger process started by ExecSpawner.
type Handle struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	writer *bufio.Writer

	lines   chan string
	readErr error // set before lines is closed
	stop    chan struct{}

	exited chan struct{}

	terminateTimeout time.Duration
	terminateOnce    sync.Once
	terminateErr     error

	mu     sync.Mutex // guards writes and closed
	closed bool

	logger zerolog.Logger

	// closers are released once the process has exited.
	closers []io.Closer
}

func (h *Handle) startPipes(mergeStderr bool) (io.ReadCloser, error) {
	stdin, err := h.cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("stdin pipe: %w", err)
	}

	// An *os.File as Stdout keeps exec from closing the read side on Wait, so lines that
	// were written just before exit still reach the reader.
	pr, pw, err := os.Pipe()
	if err != nil {
		_ = stdin.Close()
		return nil, fmt.Errorf("stdout pipe: %w", err)
	}
	h.cmd.Stdout = pw
	if mergeStderr {
		h.cmd.Stderr = pw
	} else {
		h.cmd.Stderr = stderrLogger{logger: h.logger}
	}

	if err := h.cmd.Start(); err != nil {
		_ = stdin.Close()
		_ = pr.Close()
		_ = pw.Close()
		return nil, err
	}
	// The child holds its own copy of the write end.
	_ = pw.Close()

	h.stdin = stdin
	h.writer = bufio.NewWriter(stdin)
	return pr, nil
}

// PID returns the debugger process id.
func (h *Handle) PID() int {
	if h.cmd == nil || h.cmd.Process == nil {
		return 0
	}
	return h.cmd.Process.Pid
}

// Write sends text followed by a newline and flushes it to the debugger.
func (h *Handle) Write(text string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return fmt.Errorf("%w: debugger terminated", ErrIO)
	}
	select {
	case <-h.exited:
		return fmt.Errorf("%w: debugger exited", ErrIO)
	default:
	}

	if _, err := h.writer.WriteString(text + "\n"); err != nil {
		return fmt.Errorf("%w: %v", ErrIO, err)
	}
	if err := h.writer.Flush(); err != nil {
		return fmt.Errorf("%w: %v", ErrIO, err)
	}

	h.logger.Debug().Str("command", text).Msg("Sent debugger command")
	return nil
}

// ReadLine waits up to timeout for the next output line. Lines stay queued when the timer
// wins, so a timeout never loses output.
func (h *Handle) ReadLine(timeout time.Duration) (string, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case line, ok := <-h.lines:
		if !ok {
			if h.readErr != nil {
				return "", fmt.Errorf("%w: %v", ErrEOF, h.readErr)
			}
			return "", ErrEOF
		}
		return line, nil
	case <-timer.C:
		return "", ErrReadTimeout
	}
}

// Terminate closes stdin, kills the debugger along with the programs it launched and waits
// for it to exit. Calling it again returns the first result.
func (h *Handle) Terminate() error {
	h.terminateOnce.Do(func() {
		h.mu.Lock()
		h.closed = true
		close(h.stop)
		if h.stdin != nil {
			_ = h.stdin.Close()
		}
		h.mu.Unlock()

		select {
		case <-h.exited:
			h.logger.Debug().Msg("Debugger already exited")
			return
		default:
		}

		// Children first: once the debugger is gone its inferior would be re-parented.
		h.killDescendants()
		killProcessGroup(h.cmd)
		if err := h.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
			h.terminateErr = fmt.Errorf("failed to kill debugger: %w", err)
		}

		select {
		case <-h.exited:
			h.logger.Info().Msg("Debugger terminated")
		case <-time.After(h.terminateTimeout):
			h.terminateErr = fmt.Errorf("debugger did not exit within %s", h.terminateTimeout)
			h.logger.Warn().Dur("timeout", h.terminateTimeout).Msg("Debugger did not exit")
		}
	})
	return h.terminateErr
}

// Exited returns a channel that is closed once the debugger process has exited.
func (h *Handle) Exited() <-chan struct{} {
	return h.exited
}

func (h *Handle) killDescendants() {
	pid := h.PID()
	if pid <= 0 {
		return
	}
	proc, err := psprocess.NewProcess(int32(pid))
	if err != nil {
		return
	}
	killTree(proc, h.logger)
}

func killTree(proc *psprocess.Process, logger zerolog.Logger) {
	children, err := proc.Children()
	if err != nil {
		return
	}
	for _, child := range children {
		killTree(child, logger)
		if err := child.Kill(); err != nil {
			logger.Debug().Err(err).Int32("child_pid", child.Pid).Msg("Failed to kill debugger child")
			continue
		}
		logger.Debug().Int32("child_pid", child.Pid).Msg("Killed debugger child")
	}
}

func (h *Handle) readLines(out io.ReadCloser) {
	defer close(h.lines)
	defer func() { _ = out.Close() }()

	reader := bufio.NewReader(out)
	for {
		line, err := reader.ReadString('\n')
		if len(line) > 0 {
			select {
			case h.lines <- strings.TrimRight(line, "\r\n"):
			case <-h.stop:
				return
			}
		}
		if err != nil {
			if !errors.Is(err, io.EOF) && !isClosedPTY(err) {
				h.readErr = err
			}
			return
		}
	}
}

func (h *Handle) wait() {
	err := h.cmd.Wait()
	for _, c := range h.closers {
		_ = c.Close()
	}

	event := h.logger.Info()
	if err != nil {
		event = h.logger.Warn().Err(err)
	}
	event.Msg("Debugger exited")

	close(h.exited)
}

// stderrLogger forwards unmerged debugger stderr to the log.
type stderrLogger struct {
	logger zerolog.Logger
}

func (w stderrLogger) Write(p []byte) (int, error) {
	for _, line := range strings.Split(strings.TrimRight(string(p), "\n"), "\n") {
		if line != "" {
			w.logger.Debug().Str("stderr", line).Msg("Debugger stderr")
		}
	}
	return len(p), nil
}
