//go:build !windows

package debugger

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"syscall"

	"github.com/kr/pty"
	"golang.org/x/sys/unix"
	"golang.org/x/term"
)

// setProcessGroup puts the debugger in its own process group so that Terminate can signal it
// together with the program it launched.
func setProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

func killProcessGroup(cmd *exec.Cmd) {
	if cmd.Process == nil || cmd.Process.Pid <= 0 {
		return
	}
	_ = unix.Kill(-cmd.Process.Pid, unix.SIGKILL)
}

// startPTY runs the debugger on a raw pseudo-terminal. Raw mode turns off echo, so commands
// written to the terminal do not come back as output lines.
func (h *Handle) startPTY() (io.ReadCloser, error) {
	ptmx, tty, err := pty.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open PTY: %w", err)
	}

	if _, err := term.MakeRaw(int(tty.Fd())); err != nil {
		_ = tty.Close()
		_ = ptmx.Close()
		return nil, fmt.Errorf("failed to set PTY raw mode: %w", err)
	}

	h.cmd.Stdin = tty
	h.cmd.Stdout = tty
	h.cmd.Stderr = tty
	// A session leader is also its process group leader, so killProcessGroup still applies.
	h.cmd.SysProcAttr = &syscall.SysProcAttr{
		Setsid:  true,
		Setctty: true,
		Ctty:    0,
	}

	if err := h.cmd.Start(); err != nil {
		_ = tty.Close()
		_ = ptmx.Close()
		return nil, fmt.Errorf("failed to start debugger with PTY: %w", err)
	}
	_ = tty.Close()

	h.stdin = ptmx
	h.writer = bufio.NewWriter(ptmx)
	return ptmx, nil
}

// isClosedPTY reports the error Linux returns from the PTY master once the slave side is gone.
func isClosedPTY(err error) bool {
	return errors.Is(err, syscall.EIO)
}
