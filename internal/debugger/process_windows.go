//go:build windows

package debugger

import (
	"errors"
	"io"
	"os/exec"
)

func setProcessGroup(*exec.Cmd) {}

func killProcessGroup(*exec.Cmd) {}

func (h *Handle) startPTY() (io.ReadCloser, error) {
	return nil, errors.New("PTY mode is not supported on windows")
}

func isClosedPTY(error) bool { return false }
