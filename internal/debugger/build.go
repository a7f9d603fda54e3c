package debugger

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/rs/zerolog"
)

// Builder turns a source tree into a debuggable binary.
type Builder interface {
	Build(ctx context.Context, dir string) (string, error)
}

// CargoBuilder builds Rust projects with cargo and returns the debug binary.
type CargoBuilder struct {
	// Command is the cargo executable.
	Command string
	// Args are the build arguments; defaults to ["build"].
	Args []string

	Logger zerolog.Logger
}

type cargoManifest struct {
	Package struct {
		Name string `toml:"name"`
	} `toml:"package"`
	Bin []struct {
		Name string `toml:"name"`
	} `toml:"bin"`
}

// Build runs cargo in dir and returns target/debug/<name>.
func (b *CargoBuilder) Build(ctx context.Context, dir string) (string, error) {
	name, err := binaryName(filepath.Join(dir, "Cargo.toml"))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrBuild, err)
	}

	command := b.Command
	if command == "" {
		command = "cargo"
	}
	args := b.Args
	if len(args) == 0 {
		args = []string{"build"}
	}

	b.Logger.Info().
		Str("dir", dir).
		Str("command", command).
		Strs("args", args).
		Msg("Building project")

	//nolint:gosec // G204: build command comes from trusted configuration.
	cmd := exec.CommandContext(ctx, command, args...)
	cmd.Dir = dir
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return "", fmt.Errorf("%w: %s", ErrBuild, msg)
	}

	binary := filepath.Join(dir, "target", "debug", name)
	if _, err := os.Stat(binary); err != nil {
		return "", fmt.Errorf("%w: built binary not found at %s", ErrBuild, binary)
	}
	return binary, nil
}

// binaryName reads the binary name from a Cargo manifest, preferring the first [[bin]]
// target over the package name.
func binaryName(manifestPath string) (string, error) {
	//nolint:gosec // G304: manifest path is derived from the directory being debugged.
	data, err := os.ReadFile(manifestPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("no Cargo.toml found in %s", filepath.Dir(manifestPath))
		}
		return "", err
	}

	var manifest cargoManifest
	if err := toml.Unmarshal(data, &manifest); err != nil {
		return "", fmt.Errorf("failed to parse %s: %w", manifestPath, err)
	}

	for _, bin := range manifest.Bin {
		if bin.Name != "" {
			return bin.Name, nil
		}
	}
	if manifest.Package.Name == "" {
		return "", fmt.Errorf("could not determine project name from %s", manifestPath)
	}
	return manifest.Package.Name, nil
}
