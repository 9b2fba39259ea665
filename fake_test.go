package timedinput

import (
	"bytes"
	"errors"
	"log/slog"
	"time"
)

// partialKey stands for input that does not form a character yet.
const partialKey rune = -1

// keyAt is a keystroke that becomes readable at an offset from read start.
type keyAt struct {
	at time.Duration
	r  rune
}

// fakeClock only moves when fakeTerminal.Poll waits.
type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

// fakeTerminal replays scripted keystrokes on a fake clock and counts mode
// changes.
type fakeTerminal struct {
	clock *fakeClock
	start time.Time
	keys  []keyAt

	notTerminal bool
	enableErr   error
	onPoll      func()
	onRead      func(rune)

	mode     int
	captures int
	enables  int
	restores int
	polls    int
}

func newFakeTerminal(keys ...keyAt) *fakeTerminal {
	clock := &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	return &fakeTerminal{clock: clock, start: clock.now, keys: keys}
}

// typed schedules s as keystrokes that are all pending at read start.
func typed(s string) []keyAt {
	keys := make([]keyAt, 0, len(s))
	for _, r := range s {
		keys = append(keys, keyAt{r: r})
	}
	return keys
}

func (t *fakeTerminal) IsTerminal() bool { return !t.notTerminal }

func (t *fakeTerminal) Capture() (Mode, error) {
	t.captures++
	return t.mode, nil
}

func (t *fakeTerminal) EnableRaw() error {
	t.enables++
	t.mode = 1
	return t.enableErr
}

func (t *fakeTerminal) Restore(m Mode) error {
	t.restores++
	mode, ok := m.(int)
	if !ok {
		return errors.New("bad mode")
	}
	t.mode = mode
	return nil
}

func (t *fakeTerminal) elapsed() time.Duration {
	return t.clock.now.Sub(t.start)
}

func (t *fakeTerminal) Poll(wait time.Duration) (bool, error) {
	t.polls++
	if t.onPoll != nil {
		t.onPoll()
	}
	if len(t.keys) > 0 {
		if gap := t.keys[0].at - t.elapsed(); gap > 0 {
			t.clock.now = t.clock.now.Add(min(gap, wait))
		}
		return t.keys[0].at <= t.elapsed(), nil
	}
	t.clock.now = t.clock.now.Add(wait)
	return false, nil
}

func (t *fakeTerminal) ReadUnit() (rune, error) {
	if len(t.keys) == 0 || t.keys[0].at > t.elapsed() {
		return 0, errors.New("read without pending input")
	}
	r := t.keys[0].r
	t.keys = t.keys[1:]
	if r == partialKey {
		return 0, ErrIncompleteUnit
	}
	if t.onRead != nil {
		t.onRead(r)
	}
	return r, nil
}

func newTestReader(term *fakeTerminal) (*Reader, *bytes.Buffer) {
	out := &bytes.Buffer{}
	return &Reader{
		Terminal:     term,
		Out:          out,
		Clock:        term.clock,
		Logger:       slog.New(slog.DiscardHandler),
		PollInterval: 10 * time.Millisecond,
	}, out
}
