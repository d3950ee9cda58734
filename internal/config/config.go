// Package config loads layerprof settings.
//
// Settings come from a YAML file, located by explicit path or the
// LAYERPROF_CONFIG environment variable. An absent file yields defaults;
// loading never fails hard except on a file that exists but cannot be parsed.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/layerprof/layerprof/internal/retry"
)

// EnvConfigPath is the environment variable naming the settings file.
const EnvConfigPath = "LAYERPROF_CONFIG"

// Settings is the full configuration surface of the profiler.
type Settings struct {
	// ContentRoot is the host's content directory holding plugins/, mu-plugins/
	// and themes/.
	ContentRoot string `yaml:"content_root"`

	// ProfilesDir is where per-session profile files are appended.
	ProfilesDir string `yaml:"profiles_dir"`

	// FlagPath is the enablement flag file location.
	FlagPath string `yaml:"flag_path"`

	Lock LockSettings `yaml:"lock"`
	Log  LogSettings  `yaml:"log"`
}

// Duration is a time.Duration that unmarshals from YAML strings like "50ms".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var raw string
	if err := node.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// LockSettings bounds the advisory-lock acquisition on the shared profile file.
type LockSettings struct {
	Attempts int      `yaml:"attempts"`
	Interval Duration `yaml:"interval"`
}

// LogSettings configures the profiler's logger.
type LogSettings struct {
	Level  string `yaml:"level"`
	Pretty bool   `yaml:"pretty"`
}

// Default returns the settings used when no file is present.
func Default() Settings {
	return Settings{
		ContentRoot: "/var/www/wp-content",
		ProfilesDir: "/var/www/wp-content/profiles",
		FlagPath:    "/var/www/wp-content/profiler-flag.json",
		Lock: LockSettings{
			Attempts: 40,
			Interval: Duration(50 * time.Millisecond),
		},
		Log: LogSettings{
			Level: "warn",
		},
	}
}

// Load reads settings from path. An empty path falls back to
// LAYERPROF_CONFIG; if that is also empty or the file does not exist,
// defaults are returned. Fields missing from the file keep their defaults.
func Load(path string) (Settings, error) {
	if path == "" {
		path = os.Getenv(EnvConfigPath)
	}

	settings := Default()
	if path == "" {
		return settings, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return settings, nil
		}
		return settings, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &settings); err != nil {
		return Default(), fmt.Errorf("parse config %s: %w", path, err)
	}
	return settings, nil
}

// LockRetry converts the lock settings to a retry budget.
func (s Settings) LockRetry() retry.Config {
	return retry.Config{
		MaxAttempts: s.Lock.Attempts,
		Interval:    time.Duration(s.Lock.Interval),
	}
}
