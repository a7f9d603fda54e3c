package debugger

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"
)

// eofLine in a scripted reply closes the fake output stream.
const eofLine = "<EOF>"

// fakeProcess is a scripted debugger. Each write is answered with the lines returned by
// script, delivered through the same queue ReadLine drains.
type fakeProcess struct {
	mu         sync.Mutex
	script     func(command string) []string
	lines      chan string
	eof        bool
	writes     []string
	writeErr   error
	terminated int
	onKill     func()
	pid        int
}

func newFakeProcess(script func(command string) []string) *fakeProcess {
	return &fakeProcess{
		script: script,
		lines:  make(chan string, 256),
		pid:    4242,
	}
}

func (p *fakeProcess) Write(text string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.terminated > 0 {
		return ErrIO
	}
	if p.writeErr != nil {
		return p.writeErr
	}
	p.writes = append(p.writes, text)

	if p.script == nil {
		return nil
	}
	for _, line := range p.script(text) {
		if line == eofLine {
			if !p.eof {
				p.eof = true
				close(p.lines)
			}
			return nil
		}
		p.lines <- line
	}
	return nil
}

func (p *fakeProcess) ReadLine(timeout time.Duration) (string, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case line, ok := <-p.lines:
		if !ok {
			return "", ErrEOF
		}
		return line, nil
	case <-timer.C:
		return "", ErrReadTimeout
	}
}

func (p *fakeProcess) Terminate() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.terminated == 0 && p.onKill != nil {
		p.onKill()
	}
	p.terminated++
	return nil
}

func (p *fakeProcess) PID() int { return p.pid }

func (p *fakeProcess) Writes() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.writes...)
}

// fakeSpawner hands out fakeProcesses and tracks how many are alive at once.
type fakeSpawner struct {
	mu       sync.Mutex
	script   func(command string) []string
	err      error
	spawned  []*fakeProcess
	live     int
	maxLive  int
	overlaps int
}

func (s *fakeSpawner) Spawn(ctx context.Context) (Process, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.err != nil {
		return nil, s.err
	}
	if s.live > 0 {
		s.overlaps++
	}

	p := newFakeProcess(s.script)
	p.onKill = func() {
		s.mu.Lock()
		s.live--
		s.mu.Unlock()
	}
	s.live++
	if s.live > s.maxLive {
		s.maxLive = s.live
	}
	s.spawned = append(s.spawned, p)
	return p, nil
}

func (s *fakeSpawner) last() *fakeProcess {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.spawned) == 0 {
		return nil
	}
	return s.spawned[len(s.spawned)-1]
}

// lldbScript answers the command vocabulary the way LLDB does for a small Rust program.
func lldbScript(command string) []string {
	switch {
	case strings.HasPrefix(command, "target create"):
		return []string{"Current executable set to '/tmp/counter' (x86_64).", "(lldb)"}
	case strings.HasPrefix(command, "breakpoint set --name "):
		name := strings.TrimPrefix(command, "breakpoint set --name ")
		if name == "missing" {
			return []string{"Breakpoint 2: no locations (pending).", "WARNING:  Unable to resolve breakpoint to any actual locations."}
		}
		return []string{"Breakpoint 1: where = counter`" + name + " + 12 at main.rs:3:5, address = 0x0000000100003f6c"}
	case command == "process launch":
		return []string{"Process 123 launched: '/tmp/counter' (x86_64)"}
	case command == "process continue":
		return []string{
			"Process 123 resuming",
			"* thread #1, name = 'counter', stop reason = breakpoint 1.1",
			"    frame #0: 0x0000000100003f6c counter`main at main.rs:7:9",
			"Process 123 stopped",
		}
	case strings.HasPrefix(command, "thread step"):
		return []string{
			"Process 123 stopped",
			"* thread #1, name = 'counter', stop reason = step over",
			"    frame #0: 0x0000000100003f80 counter`main at main.rs:8:5",
			"(lldb)",
		}
	case command == "expression count":
		return []string{"(i32) $0 = 3"}
	case strings.HasPrefix(command, "expression "):
		return []string{"error: <user expression 0>:1:1: use of undeclared identifier 'self'"}
	case command == "frame variable self":
		return []string{"(counter::Counter) self = (value = 3)"}
	case strings.HasPrefix(command, "frame variable "):
		return []string{"error: no variable named 'nope' found in this frame"}
	case command == "thread backtrace":
		return []string{
			"* thread #1, name = 'counter', stop reason = breakpoint 1.1",
			"  * frame #0: 0x0000000100003f6c counter`main at main.rs:7:9",
			"(lldb)",
		}
	case command == "breakpoint list":
		return []string{"Current breakpoints:", "1: name = 'main', locations = 1", "(lldb)"}
	default:
		return []string{"(lldb)"}
	}
}

// stopOnLaunch makes "process launch" hit a breakpoint in main.
func stopOnLaunch(command string) []string {
	if command == "process launch" {
		return []string{
			"* thread #1, name = 'counter', stop reason = breakpoint 1.1",
			"    frame #0: 0x0000000100003f6c counter`main at main.rs:3:5",
			"Process 123 stopped",
		}
	}
	return lldbScript(command)
}

var errBoom = errors.New("boom")
