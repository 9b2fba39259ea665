//go:build unix

package timedinput

import (
	"errors"
	"io"
	"os"
	"time"
	"unicode/utf8"

	"golang.org/x/sys/unix"
	"golang.org/x/term"
)

// unixTerminal drives a termios terminal through its file descriptor.
type unixTerminal struct {
	in *os.File
	fd int

	// carry holds bytes read but not yet returned as a character.
	carry []byte
}

func newTerminal(in, _ *os.File) Terminal {
	return &unixTerminal{in: in, fd: int(in.Fd())}
}

// IsTerminal returns true if the file descriptor is a terminal
func (t *unixTerminal) IsTerminal() bool {
	return term.IsTerminal(t.fd)
}

func (t *unixTerminal) Capture() (Mode, error) {
	return term.GetState(t.fd)
}

// EnableRaw puts the terminal into cbreak mode: no line buffering, no echo.
// Signal keys and output processing keep working, so "\n" still moves to a
// new line and Ctrl-C still raises SIGINT.
func (t *unixTerminal) EnableRaw() error {
	tio, err := unix.IoctlGetTermios(t.fd, ioctlReadTermios)
	if err != nil {
		return err
	}
	tio.Lflag &^= unix.ICANON | unix.ECHO
	tio.Cc[unix.VMIN] = 1
	tio.Cc[unix.VTIME] = 0
	return unix.IoctlSetTermios(t.fd, ioctlWriteTermios, tio)
}

// Restore restores the terminal to its previous state
func (t *unixTerminal) Restore(m Mode) error {
	state, ok := m.(*term.State)
	if !ok {
		return errors.New("timedinput: foreign terminal mode")
	}
	return term.Restore(t.fd, state)
}

func (t *unixTerminal) Poll(wait time.Duration) (bool, error) {
	if utf8.FullRune(t.carry) {
		return true, nil
	}
	return t.pollFd(wait)
}

func (t *unixTerminal) pollFd(wait time.Duration) (bool, error) {
	fds := []unix.PollFd{{Fd: int32(t.fd), Events: unix.POLLIN}}
	ms := int(wait / time.Millisecond)
	if wait > 0 && ms == 0 {
		ms = 1
	}
	n, err := unix.Poll(fds, ms)
	if err != nil {
		if err == unix.EINTR {
			return false, nil
		}
		return false, err
	}
	// POLLHUP counts as ready so the following read can report EOF.
	return n > 0 && fds[0].Revents&(unix.POLLIN|unix.POLLHUP|unix.POLLERR) != 0, nil
}

// ReadUnit decodes one UTF-8 character. Bytes of a sequence that has not
// fully arrived stay in carry and ErrIncompleteUnit is returned, so a
// character split across reads still comes out whole. Invalid bytes decode
// to U+FFFD one at a time.
func (t *unixTerminal) ReadUnit() (rune, error) {
	if !utf8.FullRune(t.carry) {
		b, err := t.readByte()
		if err != nil {
			return 0, err
		}
		t.carry = append(t.carry, b)
		for !utf8.FullRune(t.carry) {
			if ready, err := t.pollFd(0); err != nil || !ready {
				break
			}
			b, err := t.readByte()
			if err != nil {
				break
			}
			t.carry = append(t.carry, b)
		}
		if !utf8.FullRune(t.carry) {
			return 0, ErrIncompleteUnit
		}
	}
	r, size := utf8.DecodeRune(t.carry)
	t.carry = t.carry[size:]
	return r, nil
}

func (t *unixTerminal) readByte() (byte, error) {
	var buf [1]byte
	for {
		n, err := unix.Read(t.fd, buf[:])
		if err != nil {
			if err == unix.EINTR || err == unix.EAGAIN {
				continue
			}
			return 0, err
		}
		if n == 0 {
			return 0, io.EOF
		}
		return buf[0], nil
	}
}
