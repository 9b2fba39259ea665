package timedinput

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrNotTerminal is returned when the input stream is not an interactive terminal.
var ErrNotTerminal = errors.New("timedinput: input is not a terminal")

// ErrIncompleteUnit is returned by Terminal.ReadUnit when it consumed input
// that does not form a character yet, such as the first bytes of a UTF-8
// sequence. The consumed input is kept and completed by later reads.
var ErrIncompleteUnit = errors.New("timedinput: incomplete input unit")

// Mode is an opaque snapshot of terminal settings taken by Terminal.Capture.
type Mode any

// Terminal is the platform side of a timed read: mode control plus a
// non-blocking source of input units.
type Terminal interface {
	// IsTerminal reports whether the input is an interactive terminal.
	IsTerminal() bool

	// Capture snapshots the current terminal settings.
	Capture() (Mode, error)

	// EnableRaw switches to unbuffered, unechoed input.
	EnableRaw() error

	// Restore puts back settings returned by Capture.
	Restore(Mode) error

	// Poll reports whether input is ready, waiting at most wait.
	// A zero wait only checks.
	Poll(wait time.Duration) (bool, error)

	// ReadUnit reads one character. Only call it after Poll returned true.
	// It returns ErrIncompleteUnit while a character is still partial.
	ReadUnit() (rune, error)
}

// rawGuard holds the terminal in raw mode until Release.
type rawGuard struct {
	term Terminal
	mode Mode
	once sync.Once
	err  error
}

func acquireRaw(t Terminal) (*rawGuard, error) {
	if !t.IsTerminal() {
		return nil, ErrNotTerminal
	}
	mode, err := t.Capture()
	if err != nil {
		return nil, fmt.Errorf("capture terminal mode: %w", err)
	}
	g := &rawGuard{term: t, mode: mode}
	if err := t.EnableRaw(); err != nil {
		// EnableRaw may have changed part of the mode before failing.
		_ = g.Release()
		return nil, fmt.Errorf("enable raw mode: %w", err)
	}
	return g, nil
}

// Release restores the captured mode. Only the first call touches the terminal.
func (g *rawGuard) Release() error {
	g.once.Do(func() {
		g.err = g.term.Restore(g.mode)
	})
	return g.err
}
