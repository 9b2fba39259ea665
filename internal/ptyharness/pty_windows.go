//go:build windows

package ptyharness

import (
	"context"
	"os/exec"
	"strings"

	"github.com/UserExistsError/conpty"
)

type conptyConsole struct {
	*conpty.ConPty
}

func startConsole(cmd *exec.Cmd, size Size) (console, error) {
	line := make([]string, 0, len(cmd.Args))
	line = append(line, quoteArg(cmd.Path))
	for _, arg := range cmd.Args[1:] {
		line = append(line, quoteArg(arg))
	}
	cpty, err := conpty.Start(strings.Join(line, " "), conpty.ConPtyDimensions(int(size.Cols), int(size.Rows)))
	if err != nil {
		return nil, err
	}
	return &conptyConsole{ConPty: cpty}, nil
}

// quoteArg quotes one argument for a CreateProcess command line.
func quoteArg(arg string) string {
	if arg == "" || strings.ContainsAny(arg, " \t\"") {
		return `"` + strings.ReplaceAll(arg, `"`, `\"`) + `"`
	}
	return arg
}

func (c *conptyConsole) Wait() (int, error) {
	code, err := c.ConPty.Wait(context.Background())
	return int(code), err
}
