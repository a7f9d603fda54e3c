package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetIn(bytes.NewReader(nil))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestVersionCmd(t *testing.T) {
	stdout, _, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Ferroscope version")
	assert.Contains(t, stdout, "Go version")
}

func TestConfigShow_Defaults(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("FERROSCOPE_CONFIG", dir)

	stdout, _, err := execute(t, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, stdout, "# Config file: "+filepath.Join(dir, "config.yaml"))
	assert.Contains(t, stdout, "path: lldb")
	assert.Contains(t, stdout, "response_timeout: 10s")
	assert.Contains(t, stdout, "name: ferroscope")
}

func TestConfigShow_Layering(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ferroscope.yaml")
	require.NoError(t, os.WriteFile(path, []byte("debugger:\n  path: lldb-17\n  response_timeout: 20s\nlogging:\n  level: warn\n"), 0o600))
	t.Setenv("FERROSCOPE_LOG_LEVEL", "debug")

	stdout, _, err := execute(t, "--config", path, "--debugger", "/usr/bin/lldb-18", "--timeout", "3s", "--pty", "config", "show")
	require.NoError(t, err)

	assert.Contains(t, stdout, "path: /usr/bin/lldb-18")
	assert.Contains(t, stdout, "response_timeout: 3s")
	assert.Contains(t, stdout, "use_pty: true")
	assert.Contains(t, stdout, "level: debug", "environment overrides the file")
}

func TestConfig_InvalidFlagValue(t *testing.T) {
	t.Setenv("FERROSCOPE_CONFIG", t.TempDir())

	_, _, err := execute(t, "--timeout", "0s", "config", "validate")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "debugger.response_timeout")
}

func TestConfig_MissingExplicitFile(t *testing.T) {
	_, _, err := execute(t, "--config", filepath.Join(t.TempDir(), "nope.yaml"), "config", "show")
	require.Error(t, err)
}

func TestConfigValidate(t *testing.T) {
	t.Setenv("FERROSCOPE_CONFIG", t.TempDir())

	stdout, _, err := execute(t, "config", "validate")
	require.NoError(t, err)
	assert.Contains(t, stdout, "is valid")
}

func TestServe_EndsOnClosedInput(t *testing.T) {
	t.Setenv("FERROSCOPE_CONFIG", t.TempDir())

	_, stderr, err := execute(t, "serve", "--log-level", "info")
	require.NoError(t, err)
	assert.Contains(t, stderr, "Ferroscope starting")
}

func TestShell_ScriptedInput(t *testing.T) {
	t.Setenv("FERROSCOPE_CONFIG", t.TempDir())

	cmd := NewRootCmd()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetIn(bytes.NewBufferString("state\nload ./does-not-exist\nexit\n"))
	cmd.SetArgs([]string{"shell"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, stdout.String(), "[not_loaded]")
	assert.Contains(t, stdout.String(), "path does not exist: ./does-not-exist")
}
