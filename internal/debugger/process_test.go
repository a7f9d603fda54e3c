//go:build !windows

package debugger

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coral-mesh/ferroscope/internal/testutil"
)

func requireExecutable(t *testing.T, name string) {
	t.Helper()
	if _, err := exec.LookPath(name); err != nil {
		t.Skipf("%s not available: %v", name, err)
	}
}

func spawn(t *testing.T, cfg ExecConfig) *Handle {
	t.Helper()
	requireExecutable(t, cfg.Path)

	proc, err := NewExecSpawner(cfg, zerolog.Nop()).Spawn(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { _ = proc.Terminate() })

	h, ok := proc.(*Handle)
	require.True(t, ok)
	return h
}

// readUntil skips read timeouts until a line or a hard error arrives.
func readUntil(t *testing.T, h *Handle, limit time.Duration) (string, error) {
	t.Helper()
	deadline := time.Now().Add(limit)
	for time.Now().Before(deadline) {
		line, err := h.ReadLine(50 * time.Millisecond)
		if errors.Is(err, ErrReadTimeout) {
			continue
		}
		return line, err
	}
	return "", ErrReadTimeout
}

func TestHandle_WriteAndReadLine(t *testing.T) {
	h := spawn(t, ExecConfig{Path: "cat"})
	assert.Positive(t, h.PID())

	require.NoError(t, h.Write("target create \"./counter\""))
	line, err := readUntil(t, h, 2*time.Second)
	require.NoError(t, err)
	assert.Equal(t, "target create \"./counter\"", line)
}

func TestHandle_ReadLineTimeout(t *testing.T) {
	h := spawn(t, ExecConfig{Path: "cat"})

	start := time.Now()
	_, err := h.ReadLine(20 * time.Millisecond)
	require.ErrorIs(t, err, ErrReadTimeout)
	assert.Less(t, time.Since(start), time.Second)
}

func TestHandle_EOFAfterExit(t *testing.T) {
	h := spawn(t, ExecConfig{Path: "sh", Args: []string{"-c", "echo done"}})

	line, err := readUntil(t, h, 2*time.Second)
	require.NoError(t, err)
	assert.Equal(t, "done", line)

	_, err = readUntil(t, h, 2*time.Second)
	require.ErrorIs(t, err, ErrEOF)

	select {
	case <-h.Exited():
	case <-time.After(2 * time.Second):
		t.Fatal("process did not exit")
	}
	require.ErrorIs(t, h.Write("process continue"), ErrIO)
}

func TestHandle_Stderr(t *testing.T) {
	t.Run("merged", func(t *testing.T) {
		h := spawn(t, ExecConfig{Path: "sh", Args: []string{"-c", "echo oops >&2"}, MergeStderr: true})

		line, err := readUntil(t, h, 2*time.Second)
		require.NoError(t, err)
		assert.Equal(t, "oops", line)
	})

	t.Run("logged", func(t *testing.T) {
		h := spawn(t, ExecConfig{Path: "sh", Args: []string{"-c", "echo oops >&2"}})

		_, err := readUntil(t, h, 2*time.Second)
		require.ErrorIs(t, err, ErrEOF)
	})
}

func TestHandle_TerminateIsIdempotent(t *testing.T) {
	h := spawn(t, ExecConfig{Path: "cat"})

	require.NoError(t, h.Terminate())
	require.NoError(t, h.Terminate())

	select {
	case <-h.Exited():
	default:
		t.Fatal("process still running after Terminate")
	}
	require.ErrorIs(t, h.Write("process launch"), ErrIO)
}

func TestHandle_PTY(t *testing.T) {
	requireExecutable(t, "sh")
	cfg := ExecConfig{Path: "sh", Args: []string{"-c", "read line; echo \"got $line\""}, UsePTY: true}
	proc, err := NewExecSpawner(cfg, zerolog.Nop()).Spawn(context.Background())
	if err != nil {
		t.Skipf("pseudo-terminals unavailable: %v", err)
	}
	t.Cleanup(func() { _ = proc.Terminate() })
	h := proc.(*Handle)

	require.NoError(t, h.Write("breakpoint list"))
	line, err := readUntil(t, h, 2*time.Second)
	require.NoError(t, err)
	assert.Equal(t, "got breakpoint list", line)
}

func TestExecSpawner_MissingExecutable(t *testing.T) {
	spawner := NewExecSpawner(ExecConfig{Path: "ferroscope-no-such-debugger"}, zerolog.Nop())

	_, err := spawner.Spawn(context.Background())
	require.ErrorIs(t, err, ErrSpawn)

	_, err = NewExecSpawner(ExecConfig{}, zerolog.Nop()).Spawn(context.Background())
	require.ErrorIs(t, err, ErrSpawn)
}

func TestExecSpawner_CancelledContext(t *testing.T) {
	requireExecutable(t, "cat")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewExecSpawner(ExecConfig{Path: "cat"}, zerolog.Nop()).Spawn(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

// fakeLLDB answers a handful of commands the way LLDB prints them.
const fakeLLDB = `
while IFS= read -r line; do
  case "$line" in
    "target create"*) echo "Current executable set to 'counter' (x86_64)."; echo "(lldb)" ;;
    "breakpoint set"*) echo "Breakpoint 1: where = counter main + 12 at main.rs:3:5, address = 0x1" ;;
    "process launch")
      echo "* thread #1, name = 'counter', stop reason = breakpoint 1.1"
      echo "    frame #0: 0x1 counter main at main.rs:3:5"
      echo "Process 77 stopped" ;;
    "expression count") echo "(i32) \$0 = 3" ;;
    "thread step-over")
      echo "Process 77 stopped"
      echo "* thread #1, name = 'counter', stop reason = step over"
      echo "    frame #0: 0x2 counter main at main.rs:4:5"
      echo "(lldb)" ;;
    *) echo "(lldb)" ;;
  esac
done
`

func TestDispatcher_AgainstScriptedDebugger(t *testing.T) {
	requireExecutable(t, "sh")

	binary := filepath.Join(t.TempDir(), "counter")
	require.NoError(t, os.WriteFile(binary, []byte("\x7fELF"), 0o755))

	logger := testutil.Logger(t)
	spawner := NewExecSpawner(ExecConfig{Path: "sh", Args: []string{"-c", fakeLLDB}}, logger)
	registry := NewRegistry(spawner, logger)
	defer func() { _ = registry.Close() }()
	d := NewDispatcher(registry, DispatcherConfig{
		Framer: NewFramer(2*time.Second, 20*time.Millisecond, logger),
	}, logger)
	ctx := testutil.Context(t, 30*time.Second)

	res, err := d.Load(ctx, binary)
	require.NoError(t, err)
	require.True(t, res.Success, res.Error)
	assert.Equal(t, "loaded", res.State)

	res, err = d.Break(ctx, "main")
	require.NoError(t, err)
	assert.True(t, res.Success)

	res, err = d.Continue(ctx)
	require.NoError(t, err)
	assert.Equal(t, "stopped", res.State)
	assert.Equal(t, "main.rs:3:5", res.Location)

	res, err = d.Eval(ctx, "count")
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, "(i32) $0 = 3", res.Output)
	assert.Equal(t, MethodExpression, res.Method)

	res, err = d.Step(ctx)
	require.NoError(t, err)
	assert.Equal(t, "stopped", res.State)
	assert.Equal(t, "main.rs:4:5", res.Location)

	res, err = d.Kill(ctx)
	require.NoError(t, err)
	assert.Equal(t, "not_loaded", res.State)
}
