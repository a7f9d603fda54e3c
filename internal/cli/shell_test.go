package cli

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coral-mesh/ferroscope/internal/debugger"
)

// recorder answers every operation with a fixed result and records what was called.
type recorder struct {
	calls []string
	res   *debugger.Result
	err   error
}

func (r *recorder) do(call string) (*debugger.Result, error) {
	r.calls = append(r.calls, call)
	if r.err != nil {
		return nil, r.err
	}
	if r.res != nil {
		return r.res, nil
	}
	return &debugger.Result{Success: true, State: "stopped", Location: "main.rs:7:9"}, nil
}

func (r *recorder) Load(_ context.Context, path string) (*debugger.Result, error) {
	return r.do("load " + path)
}
func (r *recorder) Break(_ context.Context, loc string) (*debugger.Result, error) {
	return r.do("break " + loc)
}
func (r *recorder) Continue(context.Context) (*debugger.Result, error)  { return r.do("continue") }
func (r *recorder) Step(context.Context) (*debugger.Result, error)      { return r.do("step") }
func (r *recorder) StepInto(context.Context) (*debugger.Result, error)  { return r.do("step_into") }
func (r *recorder) StepOut(context.Context) (*debugger.Result, error)   { return r.do("step_out") }
func (r *recorder) Backtrace(context.Context) (*debugger.Result, error) { return r.do("backtrace") }
func (r *recorder) ListBreakpoints(context.Context) (*debugger.Result, error) {
	return r.do("list_breakpoints")
}
func (r *recorder) State(context.Context) (*debugger.Result, error) { return r.do("state") }
func (r *recorder) Kill(context.Context) (*debugger.Result, error)  { return r.do("kill") }
func (r *recorder) Eval(_ context.Context, expr string) (*debugger.Result, error) {
	return r.do("eval " + expr)
}

func TestExecLine_Commands(t *testing.T) {
	tests := []struct {
		line string
		call string
	}{
		{"load ./target/debug/counter", "load ./target/debug/counter"},
		{"run  ./counter ", "load ./counter"},
		{"break main.rs:12", "break main.rs:12"},
		{"b main", "break main"},
		{"continue", "continue"},
		{"c", "continue"},
		{"step", "step"},
		{"n", "step"},
		{"step-into", "step_into"},
		{"s", "step_into"},
		{"step-out", "step_out"},
		{"finish", "step_out"},
		{"eval self.count + 1", "eval self.count + 1"},
		{"p value", "eval value"},
		{"bt", "backtrace"},
		{"breakpoints", "list_breakpoints"},
		{"state", "state"},
		{"kill", "kill"},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			r := &recorder{}
			text, err := execLine(context.Background(), r, tt.line)
			require.NoError(t, err)
			assert.Equal(t, []string{tt.call}, r.calls)
			assert.Contains(t, text, "stopped")
			assert.Contains(t, text, "main.rs:7:9")
		})
	}
}

func TestExecLine_Errors(t *testing.T) {
	tests := []struct {
		line string
		want string
	}{
		{"load", "usage: load <path>"},
		{"break ", "usage: break <location>"},
		{"eval", "usage: eval <expression>"},
		{"frobnicate", `unknown command "frobnicate"`},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			r := &recorder{}
			_, err := execLine(context.Background(), r, tt.line)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
			assert.Empty(t, r.calls)
		})
	}
}

func TestExecLine_Meta(t *testing.T) {
	r := &recorder{}

	text, err := execLine(context.Background(), r, "help")
	require.NoError(t, err)
	assert.Contains(t, text, "step-into")

	text, err = execLine(context.Background(), r, "   ")
	require.NoError(t, err)
	assert.Empty(t, text)

	_, err = execLine(context.Background(), r, "exit")
	assert.ErrorIs(t, err, errExit)
	assert.Empty(t, r.calls)
}

func TestRenderResult(t *testing.T) {
	text := renderResult(&debugger.Result{
		Success:  false,
		State:    "running",
		Error:    "program is already running",
		TimedOut: true,
	})
	assert.Contains(t, text, "failed")
	assert.Contains(t, text, "[running]")
	assert.Contains(t, text, "program is already running")
	assert.Contains(t, text, "timed out")

	text = renderResult(&debugger.Result{
		Success: true,
		State:   "stopped",
		Output:  "(i32) $0 = 3",
		Method:  debugger.MethodExpression,
	})
	assert.Contains(t, text, "ok")
	assert.Contains(t, text, "via expression")
	assert.True(t, strings.HasSuffix(text, "\n(i32) $0 = 3"))
}

func TestRunShell(t *testing.T) {
	r := &recorder{}
	var out bytes.Buffer
	in := strings.NewReader("load ./counter\nbogus\n\nstate\nexit\nkill\n")
	src, err := newLineSource(in, &out)
	require.NoError(t, err)
	require.IsType(t, &scanSource{}, src)

	require.NoError(t, runShell(context.Background(), r, src, &out))

	assert.Equal(t, []string{"load ./counter", "state"}, r.calls, "commands after exit are not run")
	assert.Contains(t, out.String(), `unknown command "bogus"`)
}

func TestRunShell_EOFEnds(t *testing.T) {
	r := &recorder{err: errors.New("waiting for debugger session: context canceled")}
	var out bytes.Buffer
	src, err := newLineSource(strings.NewReader("state"), &out)
	require.NoError(t, err)

	require.NoError(t, runShell(context.Background(), r, src, &out))
	assert.Contains(t, out.String(), "context canceled")
}
