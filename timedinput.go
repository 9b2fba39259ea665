// Package timedinput reads keyboard input from a terminal within a time
// limit.
//
// Each read puts the terminal into unbuffered, unechoed mode, echoes the
// characters it accepts, and restores the terminal before returning, also
// on timeout, interrupt or panic. The result carries whatever was typed
// and whether the deadline passed first.
//
//	res, err := timedinput.Input(timedinput.DefaultOptions())
//	if err != nil {
//		return err
//	}
//	if res.TimedOut {
//		fmt.Println("too slow, got", res.Text)
//	}
package timedinput

import (
	"errors"
	"fmt"
	"strconv"
	"time"
)

// Forever as a timeout makes a read wait until an end character arrives.
const Forever time.Duration = -1

// DefaultEndCharacters ends a text read on Escape or Enter.
const DefaultEndCharacters = "\x1b\n\r"

// ErrInvalidOptions is returned for options a read cannot run with. No
// terminal state is touched.
var ErrInvalidOptions = errors.New("timedinput: invalid options")

// Options configure a single read.
type Options struct {
	// Prompt is written once before reading starts.
	Prompt string

	// Timeout is how long to wait for input. Any negative value, such as
	// Forever, waits indefinitely.
	Timeout time.Duration

	// ResetOnInput restarts the timeout on every keystroke, including
	// rejected ones and deletions.
	ResetOnInput bool

	// MaxLength caps the number of accepted characters; 0 means no limit.
	MaxLength int

	// AllowCharacters lists the accepted characters; empty accepts all.
	AllowCharacters string

	// EndCharacters finish the read without being stored.
	EndCharacters string
}

// DefaultOptions returns a 5 second timeout that restarts on each key and
// ends on Escape or Enter.
func DefaultOptions() Options {
	return Options{
		Timeout:       5 * time.Second,
		ResetOnInput:  true,
		EndCharacters: DefaultEndCharacters,
	}
}

// Result is the text read and whether the deadline passed before an end
// character. Text holds the partial input on timeout.
type Result struct {
	Text     string
	TimedOut bool
}

// IntegerResult is the outcome of an integer read. Valid is false when the
// typed text does not parse as a Go int, independent of TimedOut. That
// includes digits that overflow int (about 19 digits on 64-bit), which
// come back as Value 0 with Valid false rather than a clamped value.
type IntegerResult struct {
	Value    int
	Valid    bool
	TimedOut bool
}

// FloatResult is the outcome of a floating-point read. Input that
// overflows float64 is not clamped to ±Inf; it is reported with Valid false.
type FloatResult struct {
	Value    float64
	Valid    bool
	TimedOut bool
}

// Input reads free text from standard input.
func Input(opts Options) (Result, error) {
	return NewReader().Input(opts)
}

// Key waits for a single key out of opts.AllowCharacters (any key when empty).
func Key(opts Options) (Result, error) {
	return NewReader().Key(opts)
}

// Integer reads an integer, optionally with a leading minus sign.
func Integer(opts Options, allowNegative bool) (IntegerResult, error) {
	return NewReader().Integer(opts, allowNegative)
}

// Float reads a floating-point number. Both "." and "," act as the decimal
// separator.
func Float(opts Options, allowNegative bool) (FloatResult, error) {
	return NewReader().Float(opts, allowNegative)
}

func (r *Reader) Input(opts Options) (Result, error) {
	if opts.MaxLength < 0 {
		return Result{}, fmt.Errorf("%w: negative max length %d", ErrInvalidOptions, opts.MaxLength)
	}
	if opts.EndCharacters == "" {
		return Result{}, fmt.Errorf("%w: no end characters", ErrInvalidOptions)
	}
	return r.read(opts, newPolicy(TypeText, opts.MaxLength, opts.AllowCharacters, opts.EndCharacters))
}

func (r *Reader) Key(opts Options) (Result, error) {
	opts.MaxLength = 1
	opts.EndCharacters = ""
	return r.read(opts, newPolicy(TypeSingle, 1, opts.AllowCharacters, ""))
}

func (r *Reader) Integer(opts Options, allowNegative bool) (IntegerResult, error) {
	res, err := r.readNumber(opts, TypeInteger, allowNegative)
	out := IntegerResult{TimedOut: res.TimedOut}
	if v, perr := strconv.Atoi(res.Text); perr == nil {
		out.Value, out.Valid = v, true
	}
	return out, err
}

func (r *Reader) Float(opts Options, allowNegative bool) (FloatResult, error) {
	res, err := r.readNumber(opts, TypeFloat, allowNegative)
	out := FloatResult{TimedOut: res.TimedOut}
	if v, perr := strconv.ParseFloat(res.Text, 64); perr == nil {
		out.Value, out.Valid = v, true
	}
	return out, err
}

func (r *Reader) readNumber(opts Options, typ InputType, allowNegative bool) (Result, error) {
	if opts.MaxLength < 0 {
		return Result{}, fmt.Errorf("%w: negative max length %d", ErrInvalidOptions, opts.MaxLength)
	}
	if opts.EndCharacters == "" {
		opts.EndCharacters = DefaultEndCharacters
	}
	allow := ""
	if allowNegative {
		allow = "-"
	}
	return r.read(opts, newPolicy(typ, opts.MaxLength, allow, opts.EndCharacters))
}
