// Package ptyharness runs commands on a pseudo-terminal so tests can type
// at them and read back what they drew.
package ptyharness

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// Size is a terminal window size in character cells.
type Size struct {
	Rows, Cols uint16
}

// DefaultSize is the window a Session gets from Start.
var DefaultSize = Size{Rows: 24, Cols: 80}

// console is the master side of a pseudo-terminal with its child attached.
type console interface {
	io.ReadWriteCloser
	// Wait reports the child's exit code once it has finished.
	Wait() (int, error)
}

// Session is a command running on a PTY with its output captured.
type Session struct {
	pty  console
	g    *errgroup.Group
	mu   sync.Mutex
	out  bytes.Buffer
	done chan struct{}
}

// Start runs cmd on a new PTY of DefaultSize and begins capturing its output.
func Start(cmd *exec.Cmd) (*Session, error) {
	return StartSize(cmd, DefaultSize)
}

// StartSize is Start with an explicit window size.
func StartSize(cmd *exec.Cmd, size Size) (*Session, error) {
	if size.Rows == 0 || size.Cols == 0 {
		size = DefaultSize
	}
	p, err := startConsole(cmd, size)
	if err != nil {
		return nil, fmt.Errorf("start %s on pty: %w", cmd.Path, err)
	}
	s := &Session{pty: p, g: &errgroup.Group{}, done: make(chan struct{})}
	s.g.Go(func() error {
		defer close(s.done)
		buf := make([]byte, 4096)
		for {
			n, err := p.Read(buf)
			if n > 0 {
				s.mu.Lock()
				s.out.Write(buf[:n])
				s.mu.Unlock()
			}
			if err != nil {
				// The master side reports EIO once the child has gone.
				return nil
			}
		}
	})
	return s, nil
}

// Type sends keystrokes to the command.
func (s *Session) Type(keys string) error {
	_, err := io.WriteString(s.pty, keys)
	return err
}

// Output returns everything the command has written so far.
func (s *Session) Output() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return bytes.Clone(s.out.Bytes())
}

// WaitFor blocks until the plain-text output contains want.
func (s *Session) WaitFor(ctx context.Context, want string) error {
	tick := time.NewTicker(5 * time.Millisecond)
	defer tick.Stop()
	for {
		if strings.Contains(PlainText(s.Output()), want) {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("waiting for %q, have %q: %w", want, PlainText(s.Output()), ctx.Err())
		case <-s.done:
			if strings.Contains(PlainText(s.Output()), want) {
				return nil
			}
			return fmt.Errorf("output closed before %q, have %q", want, PlainText(s.Output()))
		case <-tick.C:
		}
	}
}

// Wait waits for the command to exit, then for the output to drain.
func (s *Session) Wait(ctx context.Context) (int, error) {
	type result struct {
		code int
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		code, err := s.pty.Wait()
		ch <- result{code, err}
	}()
	select {
	case res := <-ch:
		// Some platforms keep the master readable after exit; bound the drain.
		select {
		case <-s.done:
		case <-time.After(time.Second):
		}
		return res.code, res.err
	case <-ctx.Done():
		return -1, ctx.Err()
	}
}

// Close releases the PTY and stops the output capture.
func (s *Session) Close() error {
	err := s.pty.Close()
	if gerr := s.g.Wait(); gerr != nil && err == nil {
		err = gerr
	}
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}
