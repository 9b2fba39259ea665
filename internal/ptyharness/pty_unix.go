//go:build !windows

package ptyharness

import (
	"errors"
	"os"
	"os/exec"

	"github.com/creack/pty"
)

type unixConsole struct {
	*os.File
	cmd *exec.Cmd
}

func startConsole(cmd *exec.Cmd, size Size) (console, error) {
	master, err := pty.StartWithSize(cmd, &pty.Winsize{Rows: size.Rows, Cols: size.Cols})
	if err != nil {
		return nil, err
	}
	return &unixConsole{File: master, cmd: cmd}, nil
}

func (c *unixConsole) Wait() (int, error) {
	err := c.cmd.Wait()
	var exitErr *exec.ExitError
	switch {
	case err == nil:
		return 0, nil
	case errors.As(err, &exitErr):
		return exitErr.ExitCode(), nil
	default:
		return -1, err
	}
}

// Pair opens a PTY with no command attached. Bytes written to master are
// read as keyboard input from tty.
func Pair() (master, tty *os.File, err error) {
	return pty.Open()
}
