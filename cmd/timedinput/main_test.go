package main

import (
	"bytes"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"syscall"
	"testing"
	"time"

	"timedinput"
)

func TestParseDuration(t *testing.T) {
	cases := []struct {
		in   string
		want time.Duration
		ok   bool
	}{
		{"5s", 5 * time.Second, true},
		{"10", 10 * time.Second, true},
		{"0.25", 250 * time.Millisecond, true},
		{"2m", 2 * time.Minute, true},
		{"1h", time.Hour, true},
		{"5min", 5 * time.Minute, true},
		{"5min10s", 5*time.Minute + 10*time.Second, true},
		{"2minutes", 2 * time.Minute, true},
		{"30secs", 30 * time.Second, true},
		{"200ms", 200 * time.Millisecond, true},
		{" 3S ", 3 * time.Second, true},
		{"", 0, false},
		{"abc", 0, false},
		{"-2s", 0, false},
		{"inf", 0, false},
		{"1e300", 0, false},
	}
	for _, c := range cases {
		got, ok := parseDuration(c.in)
		if ok != c.ok {
			t.Fatalf("parseDuration(%q) ok=%v want=%v", c.in, ok, c.ok)
		}
		if ok && got != c.want {
			t.Fatalf("parseDuration(%q)=%v want=%v", c.in, got, c.want)
		}
	}
}

func TestParseTimeout(t *testing.T) {
	cases := []struct {
		in   string
		want time.Duration
		ok   bool
	}{
		{"0.2", 200 * time.Millisecond, true},
		{"1.5", 1500 * time.Millisecond, true},
		{"3", 3 * time.Second, true},
		{"-1", timedinput.Forever, true},
		{"Forever", timedinput.Forever, true},
		{"never", timedinput.Forever, true},
		{"-5s", 0, false},
		{"-0.5", 0, false},
		{"", 0, false},
	}
	for _, c := range cases {
		got, ok := parseTimeout(c.in)
		if ok != c.ok {
			t.Fatalf("parseTimeout(%q) ok=%v want=%v", c.in, ok, c.ok)
		}
		if ok && got != c.want {
			t.Fatalf("parseTimeout(%q)=%v want=%v", c.in, got, c.want)
		}
	}
}

func TestDecodeCharacters(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"yn", "yn"},
		{`\n`, "\n"},
		{`\x1b\r\n`, "\x1b\r\n"},
		{`q"\t`, "q\"\t"},
		{`\q`, `\q`},
	}
	for _, c := range cases {
		if got := decodeCharacters(c.in); got != c.want {
			t.Fatalf("decodeCharacters(%q)=%q want=%q", c.in, got, c.want)
		}
	}
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "timedinput.yaml")
	data := "prompt: \"name? \"\ntimeout: 5min 10s\nreset_on_input: false\nend_characters: '\\n'\npoll_interval: 20ms\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("TIMEDINPUT_CONFIG", path)
	t.Setenv("TIMEDINPUT_TIMEOUT", "")

	cfg, used := loadConfig(slog.New(slog.DiscardHandler))
	if used != path {
		t.Fatalf("config path=%q want %q", used, path)
	}
	if cfg.Prompt != "name? " || cfg.ResetOnInput != "false" || cfg.PollInterval != "20ms" {
		t.Fatalf("unexpected config: %+v", cfg)
	}

	opts, poll := baseOptions(cfg)
	if opts.Prompt != "name? " {
		t.Fatalf("prompt=%q", opts.Prompt)
	}
	if opts.ResetOnInput {
		t.Fatalf("reset_on_input should be off")
	}
	if opts.EndCharacters != "\n" {
		t.Fatalf("end characters=%q", opts.EndCharacters)
	}
	if poll != 20*time.Millisecond {
		t.Fatalf("poll=%v", poll)
	}
	// "5min 10s" is not one duration; the default stays.
	if opts.Timeout != 5*time.Second {
		t.Fatalf("timeout=%v", opts.Timeout)
	}
}

func TestLoadConfigRejectsBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "timedinput.yaml")
	if err := os.WriteFile(path, []byte("prompt: [a, b]\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("TIMEDINPUT_CONFIG", path)

	cfg, used := loadConfig(slog.New(slog.DiscardHandler))
	if used != "" || cfg != (appConfig{}) {
		t.Fatalf("bad config should be ignored, got %+v from %q", cfg, used)
	}
}

func TestBaseOptionsResetWords(t *testing.T) {
	t.Setenv("TIMEDINPUT_TIMEOUT", "")
	cases := []struct {
		cfg  appConfig
		want bool
	}{
		{appConfig{ResetOnInput: "no"}, false},
		{appConfig{ResetOnInput: "off"}, false},
		{appConfig{Reset: "false"}, false},
		{appConfig{ResetOnInput: "yes", Reset: "false"}, true},
		{appConfig{ResetOnInput: "maybe"}, true},
	}
	for _, c := range cases {
		opts, _ := baseOptions(c.cfg)
		if opts.ResetOnInput != c.want {
			t.Fatalf("baseOptions(%+v).ResetOnInput=%v want=%v", c.cfg, opts.ResetOnInput, c.want)
		}
	}
}

func TestBaseOptionsEnvTimeout(t *testing.T) {
	t.Setenv("TIMEDINPUT_TIMEOUT", "forever")
	opts, _ := baseOptions(appConfig{Timeout: "3s"})
	if opts.Timeout != timedinput.Forever {
		t.Fatalf("env should override config, got %v", opts.Timeout)
	}
	t.Setenv("TIMEDINPUT_TIMEOUT", "")
	opts, _ = baseOptions(appConfig{Timeout: "3s"})
	if opts.Timeout != 3*time.Second {
		t.Fatalf("timeout=%v", opts.Timeout)
	}
}

func TestFinishExitCodes(t *testing.T) {
	cases := []struct {
		name     string
		timedOut bool
		valid    bool
		err      error
		want     int
		printed  bool
	}{
		{"answer", false, true, nil, exitOK, true},
		{"timeout", true, true, nil, exitTimeout, true},
		{"unparsable", false, false, nil, exitInvalid, false},
		{"not a terminal", false, true, timedinput.ErrNotTerminal, exitError, false},
		{"bad options", false, true, timedinput.ErrInvalidOptions, exitUsage, false},
		{"interrupted", false, true, timedinput.ErrInterrupted, exitInterrupted, false},
		{"sigint", false, true, &timedinput.InterruptError{Signal: syscall.SIGINT}, 130, false},
		{"sigterm", false, true, &timedinput.InterruptError{Signal: syscall.SIGTERM}, 143, false},
		{"io", false, true, errors.New("read input: EIO"), exitError, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			var out bytes.Buffer
			a := &app{stdout: &out, logger: slog.New(slog.DiscardHandler)}
			_ = a.finish("42", c.timedOut, c.valid, c.err)
			if a.exitCode != c.want {
				t.Fatalf("exit=%d want=%d", a.exitCode, c.want)
			}
			if printed := out.String() == "42\n"; printed != c.printed {
				t.Fatalf("printed=%v output=%q", printed, out.String())
			}
		})
	}
}

func TestRunRejectsBadTimeout(t *testing.T) {
	t.Setenv("TIMEDINPUT_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))
	if code := run([]string{"text", "--timeout", "soon"}); code != exitUsage {
		t.Fatalf("exit=%d want=%d", code, exitUsage)
	}
	if code := run([]string{"key", "--bogus"}); code != exitUsage {
		t.Fatalf("exit=%d want=%d", code, exitUsage)
	}
}
