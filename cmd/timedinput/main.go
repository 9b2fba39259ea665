package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"syscall"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"timedinput"
)

const (
	exitOK          = 0
	exitError       = 1
	exitUsage       = 2
	exitInvalid     = 3
	exitTimeout     = 124
	exitInterrupted = 130
)

func main() {
	os.Exit(run(os.Args[1:]))
}

type app struct {
	opts     timedinput.Options
	poll     time.Duration
	logger   *slog.Logger
	stdout   io.Writer
	ui       *os.File
	exitCode int

	timeout string
	noReset bool
}

func run(args []string) int {
	level := slog.LevelWarn
	if envFlagEnabled(envDebug) {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	cfg, path := loadConfig(logger)
	opts, poll := baseOptions(cfg)
	logger.Debug("options loaded", "config", path, "timeout", opts.Timeout, "reset", opts.ResetOnInput)

	// Keep stdout clean for the answer when it is captured, e.g. x=$(timedinput text).
	ui := os.Stdout
	if !isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		ui = os.Stderr
	}

	a := &app{opts: opts, poll: poll, logger: logger, stdout: os.Stdout, ui: ui}
	root := a.rootCommand()
	root.SetArgs(args)
	if err := root.Execute(); err != nil {
		if a.exitCode == exitOK {
			a.exitCode = exitUsage
		}
	}
	return a.exitCode
}

func (a *app) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          "timedinput",
		Short:        "Ask for terminal input with a time limit",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&a.opts.Prompt, "prompt", "p", a.opts.Prompt, "Prompt shown before reading")
	root.PersistentFlags().StringVarP(&a.timeout, "timeout", "t", "", "Time to wait (e.g. 5s, 2m, 0.5, forever)")
	root.PersistentFlags().BoolVar(&a.noReset, "no-reset", false, "Do not restart the timeout on each key")

	textCmd := &cobra.Command{
		Use:   "text",
		Short: "Read a line of text",
		Args:  cobra.NoArgs,
		RunE:  a.textHandler,
	}
	textCmd.Flags().IntP("max-length", "m", 0, "Maximum number of characters (0 for no limit)")
	textCmd.Flags().StringP("allow", "a", "", "Accepted characters (empty accepts all)")
	textCmd.Flags().StringP("end", "e", "", `Characters that finish input (default ESC and Enter, escapes like \n allowed)`)

	keyCmd := &cobra.Command{
		Use:   "key",
		Short: "Wait for a single key",
		Args:  cobra.NoArgs,
		RunE:  a.keyHandler,
	}
	keyCmd.Flags().StringP("allow", "a", "", "Accepted keys (empty accepts any key)")

	intCmd := &cobra.Command{
		Use:   "int",
		Short: "Read an integer",
		Args:  cobra.NoArgs,
		RunE:  a.numberHandler(timedinput.TypeInteger),
	}
	floatCmd := &cobra.Command{
		Use:   "float",
		Short: "Read a floating-point number",
		Args:  cobra.NoArgs,
		RunE:  a.numberHandler(timedinput.TypeFloat),
	}
	for _, c := range []*cobra.Command{intCmd, floatCmd} {
		c.Flags().IntP("max-length", "m", 0, "Maximum number of characters (0 for no limit)")
		c.Flags().StringP("end", "e", "", "Characters that finish input")
		c.Flags().Bool("no-negative", false, "Reject a leading minus sign")
	}

	root.AddCommand(textCmd, keyCmd, intCmd, floatCmd)
	return root
}

// options applies the persistent flags on top of the configured defaults.
func (a *app) options() (timedinput.Options, error) {
	opts := a.opts
	if a.timeout != "" {
		d, ok := parseTimeout(a.timeout)
		if !ok {
			return opts, fmt.Errorf("invalid timeout %q", a.timeout)
		}
		opts.Timeout = d
	}
	if a.noReset {
		opts.ResetOnInput = false
	}
	return opts, nil
}

func (a *app) reader() *timedinput.Reader {
	r := timedinput.NewTerminalReader(os.Stdin, a.ui)
	r.Logger = a.logger
	if a.poll > 0 {
		r.PollInterval = a.poll
	}
	return r
}

func (a *app) textHandler(cmd *cobra.Command, _ []string) error {
	opts, err := a.options()
	if err != nil {
		return err
	}
	opts.MaxLength, _ = cmd.Flags().GetInt("max-length")
	allow, _ := cmd.Flags().GetString("allow")
	opts.AllowCharacters = decodeCharacters(allow)
	if end, _ := cmd.Flags().GetString("end"); end != "" {
		opts.EndCharacters = decodeCharacters(end)
	}

	res, err := a.reader().Input(opts)
	return a.finish(res.Text, res.TimedOut, true, err)
}

func (a *app) keyHandler(cmd *cobra.Command, _ []string) error {
	opts, err := a.options()
	if err != nil {
		return err
	}
	allow, _ := cmd.Flags().GetString("allow")
	opts.AllowCharacters = decodeCharacters(allow)

	res, err := a.reader().Key(opts)
	return a.finish(res.Text, res.TimedOut, true, err)
}

func (a *app) numberHandler(typ timedinput.InputType) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		opts, err := a.options()
		if err != nil {
			return err
		}
		opts.MaxLength, _ = cmd.Flags().GetInt("max-length")
		if end, _ := cmd.Flags().GetString("end"); end != "" {
			opts.EndCharacters = decodeCharacters(end)
		}
		noNegative, _ := cmd.Flags().GetBool("no-negative")

		if typ == timedinput.TypeFloat {
			res, err := a.reader().Float(opts, !noNegative)
			text := ""
			if res.Valid {
				text = strconv.FormatFloat(res.Value, 'f', -1, 64)
			}
			return a.finish(text, res.TimedOut, res.Valid, err)
		}
		res, err := a.reader().Integer(opts, !noNegative)
		text := ""
		if res.Valid {
			text = strconv.Itoa(res.Value)
		}
		return a.finish(text, res.TimedOut, res.Valid, err)
	}
}

// interruptExitCode is 128 plus the signal number, as shells report it.
func interruptExitCode(err error) int {
	var ie *timedinput.InterruptError
	if errors.As(err, &ie) {
		if sig, ok := ie.Signal.(syscall.Signal); ok {
			return 128 + int(sig)
		}
	}
	return exitInterrupted
}

// finish prints the answer and picks the exit code.
func (a *app) finish(text string, timedOut, valid bool, err error) error {
	switch {
	case errors.Is(err, timedinput.ErrNotTerminal):
		a.exitCode = exitError
		return errors.New("stdin must be an interactive terminal")
	case errors.Is(err, timedinput.ErrInvalidOptions):
		a.exitCode = exitUsage
		return err
	case errors.Is(err, timedinput.ErrInterrupted):
		a.exitCode = interruptExitCode(err)
		return nil
	case err != nil:
		a.exitCode = exitError
		return err
	}
	if valid {
		fmt.Fprintln(a.stdout, text)
	}
	switch {
	case timedOut:
		a.exitCode = exitTimeout
	case !valid:
		a.exitCode = exitInvalid
	default:
		a.exitCode = exitOK
	}
	a.logger.Debug("read finished", "timed_out", timedOut, "valid", valid, "exit", a.exitCode)
	return nil
}
