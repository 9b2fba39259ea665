//go:build windows

package timedinput

import (
	"errors"
	"os"
	"time"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	kernel32                          = windows.NewLazySystemDLL("kernel32.dll")
	procGetNumberOfConsoleInputEvents = kernel32.NewProc("GetNumberOfConsoleInputEvents")
	procReadConsoleInputW             = kernel32.NewProc("ReadConsoleInputW")
)

// consoleMode holds the console modes for Windows
type consoleMode struct {
	inMode  uint32
	outMode uint32
	hasOut  bool
}

// windowsTerminal reads key events from the console input buffer.
type windowsTerminal struct {
	inHandle  windows.Handle
	outHandle windows.Handle
	pending   []uint16
}

func newTerminal(in, out *os.File) Terminal {
	return &windowsTerminal{
		inHandle:  windows.Handle(in.Fd()),
		outHandle: windows.Handle(out.Fd()),
	}
}

// IsTerminal returns true if the input handle is a console
func (t *windowsTerminal) IsTerminal() bool {
	var mode uint32
	err := windows.GetConsoleMode(t.inHandle, &mode)
	return err == nil
}

func (t *windowsTerminal) Capture() (Mode, error) {
	var m consoleMode
	if err := windows.GetConsoleMode(t.inHandle, &m.inMode); err != nil {
		return nil, err
	}
	// Output may be redirected; only a console output has a mode to save.
	if err := windows.GetConsoleMode(t.outHandle, &m.outMode); err == nil {
		m.hasOut = true
	}
	return m, nil
}

// EnableRaw disables line input and echo, and turns on escape sequence
// processing for the output so the erase sequence renders. Processed input
// stays on so Ctrl-C still reaches the process as an interrupt.
func (t *windowsTerminal) EnableRaw() error {
	var inMode uint32
	if err := windows.GetConsoleMode(t.inHandle, &inMode); err != nil {
		return err
	}
	rawInMode := inMode
	rawInMode &^= windows.ENABLE_ECHO_INPUT
	rawInMode &^= windows.ENABLE_LINE_INPUT
	if err := windows.SetConsoleMode(t.inHandle, rawInMode); err != nil {
		return err
	}

	var outMode uint32
	if err := windows.GetConsoleMode(t.outHandle, &outMode); err != nil {
		return nil
	}
	rawOutMode := outMode
	rawOutMode |= windows.ENABLE_PROCESSED_OUTPUT
	rawOutMode |= windows.ENABLE_VIRTUAL_TERMINAL_PROCESSING
	return windows.SetConsoleMode(t.outHandle, rawOutMode)
}

// Restore restores the console to its previous modes
func (t *windowsTerminal) Restore(m Mode) error {
	mode, ok := m.(consoleMode)
	if !ok {
		return errors.New("timedinput: foreign terminal mode")
	}
	var err error
	if e := windows.SetConsoleMode(t.inHandle, mode.inMode); e != nil {
		err = e
	}
	if mode.hasOut {
		if e := windows.SetConsoleMode(t.outHandle, mode.outMode); e != nil && err == nil {
			err = e
		}
	}
	return err
}

func (t *windowsTerminal) Poll(wait time.Duration) (bool, error) {
	deadline := time.Now().Add(wait)
	for {
		if err := t.drain(); err != nil {
			return false, err
		}
		if _, _, ok := nextUnit(t.pending); ok {
			return true, nil
		}
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return false, nil
		}
		ms := uint32(remaining / time.Millisecond)
		if ms == 0 {
			ms = 1
		}
		ev, err := windows.WaitForSingleObject(t.inHandle, ms)
		if err != nil {
			return false, err
		}
		if ev != windows.WAIT_OBJECT_0 {
			return false, nil
		}
	}
}

// ReadUnit returns the next queued character. A high surrogate waits for
// its low half.
func (t *windowsTerminal) ReadUnit() (rune, error) {
	if err := t.drain(); err != nil {
		return 0, err
	}
	r, rest, ok := nextUnit(t.pending)
	if !ok {
		return 0, ErrIncompleteUnit
	}
	t.pending = rest
	return r, nil
}

// drain moves every queued console event into pending.
func (t *windowsTerminal) drain() error {
	for {
		var count uint32
		r1, _, err := procGetNumberOfConsoleInputEvents.Call(uintptr(t.inHandle), uintptr(unsafe.Pointer(&count)))
		if r1 == 0 {
			return err
		}
		if count == 0 {
			return nil
		}
		var rec inputRecord
		var read uint32
		r1, _, err = procReadConsoleInputW.Call(uintptr(t.inHandle), uintptr(unsafe.Pointer(&rec)), 1, uintptr(unsafe.Pointer(&read)))
		if r1 == 0 {
			return err
		}
		if read > 0 {
			t.pending = appendKeyUnits(t.pending, rec)
		}
	}
}
