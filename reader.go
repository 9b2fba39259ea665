package timedinput

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"
)

// ErrInterrupted matches, through errors.Is, the *InterruptError returned
// when SIGINT or SIGTERM arrives during a read.
var ErrInterrupted = errors.New("timedinput: interrupted")

// InterruptError carries the signal that ended a read. The terminal mode is
// restored before it is returned.
type InterruptError struct {
	Signal os.Signal
}

func (e *InterruptError) Error() string {
	return fmt.Sprintf("timedinput: interrupted by %v", e.Signal)
}

func (e *InterruptError) Unwrap() error { return ErrInterrupted }

const (
	defaultPollInterval = 10 * time.Millisecond

	eraseLeft = "\x1b[1D\x1b[0K"
)

// Clock supplies the current time for deadline tracking.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// Reader runs timed reads against a terminal. The zero value is not usable;
// build one with NewReader or fill every field.
//
// A Reader must not be used for overlapping reads.
type Reader struct {
	Terminal Terminal
	Out      io.Writer
	Clock    Clock
	Logger   *slog.Logger

	// PollInterval bounds how long one loop iteration waits for input.
	PollInterval time.Duration
}

// NewReader returns a Reader on the process's standard input and output.
func NewReader() *Reader {
	return NewTerminalReader(os.Stdin, os.Stdout)
}

// NewTerminalReader returns a Reader taking keys from in and drawing the
// prompt and echo on out.
func NewTerminalReader(in, out *os.File) *Reader {
	return &Reader{
		Terminal:     newTerminal(in, out),
		Out:          out,
		Clock:        systemClock{},
		Logger:       slog.New(slog.DiscardHandler),
		PollInterval: defaultPollInterval,
	}
}

func (r *Reader) logger() *slog.Logger {
	if r.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return r.Logger
}

// read runs one timed read. opts must already be validated.
func (r *Reader) read(opts Options, policy keyPolicy) (res Result, err error) {
	log := r.logger()

	guard, err := acquireRaw(r.Terminal)
	if err != nil {
		return Result{}, err
	}
	defer func() {
		if _, werr := io.WriteString(r.Out, "\n"); werr != nil && err == nil {
			err = fmt.Errorf("write line break: %w", werr)
		}
		if rerr := guard.Release(); rerr != nil {
			log.Warn("restore terminal mode failed", "error", rerr)
			if err == nil {
				err = fmt.Errorf("restore terminal mode: %w", rerr)
			}
		}
	}()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigs)

	if opts.Prompt != "" {
		if _, err := io.WriteString(r.Out, opts.Prompt); err != nil {
			return Result{}, fmt.Errorf("write prompt: %w", err)
		}
	}

	interval := r.PollInterval
	if interval <= 0 {
		interval = defaultPollInterval
	}
	forever := opts.Timeout < 0
	deadline := r.Clock.Now().Add(opts.Timeout)
	log.Debug("read started", "type", policy.typ, "timeout", opts.Timeout, "reset", opts.ResetOnInput)

	var buf []rune
	for {
		select {
		case sig := <-sigs:
			log.Debug("read interrupted", "signal", sig)
			return Result{Text: string(buf)}, &InterruptError{Signal: sig}
		default:
		}

		wait := interval
		if !forever {
			remaining := deadline.Sub(r.Clock.Now())
			if remaining < 0 {
				remaining = 0
			}
			wait = min(wait, remaining)
		}
		ready, err := r.Terminal.Poll(wait)
		if err != nil {
			return Result{Text: string(buf)}, fmt.Errorf("poll input: %w", err)
		}
		if !ready {
			if !forever && !r.Clock.Now().Before(deadline) {
				log.Debug("read timed out", "length", len(buf))
				return Result{Text: string(buf), TimedOut: true}, nil
			}
			continue
		}

		c, err := r.Terminal.ReadUnit()
		if errors.Is(err, ErrIncompleteUnit) {
			continue
		}
		if err != nil {
			return Result{Text: string(buf)}, fmt.Errorf("read input: %w", err)
		}

		action, next := policy.apply(buf, c)
		switch action {
		case actTerminate:
			log.Debug("read completed", "length", len(buf))
			return Result{Text: string(buf)}, nil
		case actDelete:
			if len(next) < len(buf) {
				if _, err := io.WriteString(r.Out, eraseLeft); err != nil {
					return Result{Text: string(next)}, fmt.Errorf("write erase: %w", err)
				}
			}
		case actAppend:
			if _, err := io.WriteString(r.Out, string(next[len(next)-1])); err != nil {
				return Result{Text: string(next)}, fmt.Errorf("write echo: %w", err)
			}
		}
		buf = next

		if policy.complete(buf) {
			log.Debug("key read", "key", string(buf))
			return Result{Text: string(buf)}, nil
		}
		if opts.ResetOnInput && !forever {
			deadline = r.Clock.Now().Add(opts.Timeout)
		}
	}
}
