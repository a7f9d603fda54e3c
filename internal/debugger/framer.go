package debugger

import (
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// TimeoutMarker is appended to a reply that was cut off by the response deadline.
const TimeoutMarker = "[TIMEOUT - Command may still be processing]"

// DefaultPrompt is the LLDB idle prompt.
const DefaultPrompt = "(lldb)"

// LineReader is the read side of a debugger process.
type LineReader interface {
	// ReadLine returns the next output line without its terminator. It returns ErrReadTimeout
	// if nothing arrived within timeout and ErrEOF once the stream has ended. A timeout must
	// not consume a line.
	ReadLine(timeout time.Duration) (string, error)
}

// Response is one framed debugger reply.
type Response struct {
	Text     string
	Lines    int
	TimedOut bool
	EOF      bool
}

// Framer accumulates debugger output until a reply looks complete.
type Framer struct {
	// Prompt is the idle prompt line that always ends a reply.
	Prompt string
	// Timeout bounds how long a single reply may take.
	Timeout time.Duration
	// Tick is how long each wait for a line lasts before the deadline is re-checked.
	Tick time.Duration

	Logger zerolog.Logger

	now func() time.Time
}

// NewFramer returns a Framer with the given deadline and poll tick.
func NewFramer(timeout, tick time.Duration, logger zerolog.Logger) *Framer {
	return &Framer{
		Prompt:  DefaultPrompt,
		Timeout: timeout,
		Tick:    tick,
		Logger:  logger,
	}
}

// Frame reads the reply to command from r.
//
// It returns when a completion rule matches, when the deadline passes (TimedOut, nil error),
// or when the stream ends (EOF, ErrEOF). Partial output is returned in every case.
func (f *Framer) Frame(command string, r LineReader) (Response, error) {
	now := f.now
	if now == nil {
		now = time.Now
	}

	category := CategoryOf(command)
	deadline := now().Add(f.Timeout)

	var (
		resp Response
		buf  strings.Builder
	)
	for {
		remaining := deadline.Sub(now())
		if remaining <= 0 {
			buf.WriteString(TimeoutMarker)
			resp.TimedOut = true
			f.Logger.Warn().
				Str("command", command).
				Dur("timeout", f.Timeout).
				Int("lines", resp.Lines).
				Msg("Debugger reply timed out")
			break
		}

		wait := f.Tick
		if wait <= 0 || wait > remaining {
			wait = remaining
		}

		line, err := r.ReadLine(wait)
		if errors.Is(err, ErrReadTimeout) {
			continue
		}
		if err != nil {
			resp.EOF = errors.Is(err, ErrEOF)
			resp.Text = buf.String()
			return resp, err
		}

		buf.WriteString(line)
		buf.WriteByte('\n')
		resp.Lines++

		if f.complete(category, line) {
			break
		}
	}

	resp.Text = buf.String()
	return resp, nil
}

func (f *Framer) complete(category Category, line string) bool {
	prompt := f.Prompt
	if prompt == "" {
		prompt = DefaultPrompt
	}
	if strings.TrimSpace(line) == prompt {
		return true
	}

	switch category {
	case CategoryLaunch:
		return strings.Contains(line, "Process") &&
			(strings.Contains(line, "launched") || strings.Contains(line, "stopped"))
	case CategoryContinue:
		return strings.Contains(line, "Process") &&
			(strings.Contains(line, "stopped") || strings.Contains(line, "exited"))
	case CategoryBreakpointSet:
		return strings.Contains(line, "Breakpoint") && strings.Contains(line, ":")
	case CategoryEvaluate:
		return strings.Contains(line, "=") || strings.Contains(line, "error:")
	default:
		return false
	}
}
