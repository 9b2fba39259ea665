package main

import (
	"errors"
	"io/fs"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"timedinput"
)

const (
	envConfig  = "TIMEDINPUT_CONFIG"
	envTimeout = "TIMEDINPUT_TIMEOUT"
	envDebug   = "TIMEDINPUT_DEBUG"
)

// scalar takes any YAML scalar as its literal text, so `reset_on_input: no`,
// `timeout: 5` and `prompt: "name? "` all land as written.
type scalar string

func (s *scalar) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind != yaml.ScalarNode {
		return errors.New("expected a single value")
	}
	*s = scalar(n.Value)
	return nil
}

type appConfig struct {
	Prompt        scalar `yaml:"prompt"`
	Timeout       scalar `yaml:"timeout"`
	ResetOnInput  scalar `yaml:"reset_on_input"`
	Reset         scalar `yaml:"reset"`
	EndCharacters scalar `yaml:"end_characters"`
	PollInterval  scalar `yaml:"poll_interval"`
}

// configCandidates lists config files in lookup order. Relative names are
// resolved against the working directory.
func configCandidates() []string {
	var paths []string
	if p := strings.TrimSpace(os.Getenv(envConfig)); p != "" {
		paths = append(paths, p)
	}
	paths = append(paths, "timedinput.yaml", "timedinput.yml")
	if home, err := os.UserHomeDir(); err == nil {
		dir := filepath.Join(home, ".config", "timedinput")
		paths = append(paths,
			filepath.Join(dir, "config.yaml"),
			filepath.Join(dir, "config.yml"),
			filepath.Join(home, ".timedinput.yaml"),
			filepath.Join(home, ".timedinput.yml"),
		)
	}
	return paths
}

// loadConfig reads the first config file that exists. It returns the path
// it used, or "" when no file was found or the file could not be parsed.
func loadConfig(logger *slog.Logger) (appConfig, string) {
	for _, path := range configCandidates() {
		data, err := os.ReadFile(path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			logger.Debug("config unreadable", "path", path, "error", err)
			continue
		}
		var cfg appConfig
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			logger.Warn("config ignored", "path", path, "error", err)
			return appConfig{}, ""
		}
		return cfg, path
	}
	return appConfig{}, ""
}

func envFlagEnabled(key string) bool {
	switch strings.TrimSpace(strings.ToLower(os.Getenv(key))) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}

// baseOptions merges built-in defaults, the config file and the environment.
func baseOptions(cfg appConfig) (timedinput.Options, time.Duration) {
	opts := timedinput.DefaultOptions()
	opts.Prompt = string(cfg.Prompt)
	for _, raw := range []scalar{cfg.Timeout, scalar(os.Getenv(envTimeout))} {
		if d, ok := parseTimeout(string(raw)); ok {
			opts.Timeout = d
		}
	}
	reset := cfg.ResetOnInput
	if reset == "" {
		reset = cfg.Reset
	}
	if b, ok := parseBool(string(reset)); ok {
		opts.ResetOnInput = b
	}
	if cfg.EndCharacters != "" {
		opts.EndCharacters = decodeCharacters(string(cfg.EndCharacters))
	}
	var poll time.Duration
	if d, ok := parseDuration(string(cfg.PollInterval)); ok && d > 0 {
		poll = d
	}
	return opts, poll
}

// parseBool adds the YAML 1.1 words yes/no/on/off to strconv.ParseBool.
func parseBool(raw string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "yes", "y", "on":
		return true, true
	case "no", "n", "off":
		return false, true
	}
	b, err := strconv.ParseBool(strings.TrimSpace(raw))
	return b, err == nil
}

// parseTimeout is parseDuration plus "-1", "forever", "never" and "none"
// for no timeout.
func parseTimeout(raw string) (time.Duration, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "-1", "forever", "never", "none":
		return timedinput.Forever, true
	}
	return parseDuration(raw)
}

var longUnits = strings.NewReplacer(
	"minutes", "m", "minute", "m", "mins", "m", "min", "m",
	"seconds", "s", "second", "s", "secs", "s", "sec", "s",
)

// parseDuration reads a non-negative duration: plain or fractional seconds
// ("120", "0.5"), or Go duration syntax where minutes and seconds may also
// be spelled out ("5min10s", "2minutes").
func parseDuration(raw string) (time.Duration, bool) {
	text := strings.ToLower(strings.TrimSpace(raw))
	if text == "" {
		return 0, false
	}
	if secs, err := strconv.ParseFloat(text, 64); err == nil {
		if secs < 0 || math.IsInf(secs, 0) || math.IsNaN(secs) || secs > math.MaxInt64/float64(time.Second) {
			return 0, false
		}
		return time.Duration(secs * float64(time.Second)), true
	}
	d, err := time.ParseDuration(longUnits.Replace(text))
	if err != nil || d < 0 {
		return 0, false
	}
	return d, true
}

// decodeCharacters expands Go escapes such as \n, \r, \x1b and \t so
// control characters can be given on the command line and in YAML.
func decodeCharacters(raw string) string {
	if !strings.Contains(raw, `\`) {
		return raw
	}
	if s, err := strconv.Unquote(`"` + strings.ReplaceAll(raw, `"`, `\"`) + `"`); err == nil {
		return s
	}
	return raw
}
