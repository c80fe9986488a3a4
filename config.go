package arbor

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Duration is a time.Duration that decodes from Go duration strings ("500ms")
// in TOML and YAML config files.
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return fmt.Errorf("%w: duration %q: %v", ErrInvalidConfig, b, err)
	}
	*d = Duration(v)
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(n *yaml.Node) error {
	return d.UnmarshalText([]byte(n.Value))
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// MultiClickConfig controls how consecutive presses are counted as one
// multi-click.
type MultiClickConfig struct {
	// Time is the maximum interval between presses.
	Time Duration `toml:"time" yaml:"time"`
	// Area is the maximum distance the cursor can travel between presses.
	Area Size `toml:"area" yaml:"area"`
}

// KeyRepeatConfig controls keyboard repeat counting.
type KeyRepeatConfig struct {
	StartDelay Duration `toml:"start_delay" yaml:"start_delay"`
	Interval   Duration `toml:"interval" yaml:"interval"`
}

// TouchConfig controls tap recognition.
type TouchConfig struct {
	// TapArea is the maximum distance a contact can move and still tap.
	TapArea Size `toml:"tap_area" yaml:"tap_area"`
	// MaxTapTime is the maximum press duration for a tap.
	MaxTapTime Duration `toml:"max_tap_time" yaml:"max_tap_time"`
	// DoubleTapTime is the maximum interval between taps counted together.
	DoubleTapTime Duration `toml:"double_tap_time" yaml:"double_tap_time"`
}

// AnimationsConfig controls animation playback.
type AnimationsConfig struct {
	Enabled            bool     `toml:"enabled" yaml:"enabled"`
	CaretBlinkInterval Duration `toml:"caret_blink_interval" yaml:"caret_blink_interval"`
	CaretBlinkTimeout  Duration `toml:"caret_blink_timeout" yaml:"caret_blink_timeout"`
}

// Config holds the runtime settings of an App.
type Config struct {
	// FrameDuration is the minimum interval between animation frames.
	FrameDuration Duration `toml:"frame_duration" yaml:"frame_duration"`
	// MaxUpdateLoops caps the inner update loops of one cycle.
	MaxUpdateLoops int    `toml:"max_update_loops" yaml:"max_update_loops"`
	Debug          bool   `toml:"debug" yaml:"debug"`
	LogLevel       string `toml:"log_level" yaml:"log_level"`

	MultiClick MultiClickConfig `toml:"multi_click" yaml:"multi_click"`
	KeyRepeat  KeyRepeatConfig  `toml:"key_repeat" yaml:"key_repeat"`
	Touch      TouchConfig      `toml:"touch" yaml:"touch"`
	Animations AnimationsConfig `toml:"animations" yaml:"animations"`
}

// DefaultConfig returns the settings used when no config file is loaded.
func DefaultConfig() Config {
	return Config{
		FrameDuration:  Duration(time.Second / 60),
		MaxUpdateLoops: 100,
		LogLevel:       "info",
		MultiClick: MultiClickConfig{
			Time: Duration(500 * time.Millisecond),
			Area: Size{4, 4},
		},
		KeyRepeat: KeyRepeatConfig{
			StartDelay: Duration(600 * time.Millisecond),
			Interval:   Duration(100 * time.Millisecond),
		},
		Touch: TouchConfig{
			TapArea:       Size{8, 8},
			MaxTapTime:    Duration(500 * time.Millisecond),
			DoubleTapTime: Duration(500 * time.Millisecond),
		},
		Animations: AnimationsConfig{
			Enabled:            true,
			CaretBlinkInterval: Duration(530 * time.Millisecond),
			CaretBlinkTimeout:  Duration(5 * time.Second),
		},
	}
}

// LoadConfig reads a config file, starting from DefaultConfig. The format is
// picked by extension: ".toml", ".yaml" or ".yml".
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return cfg, fmt.Errorf("load config %s: %w", path, err)
		}
	case ".yaml", ".yml":
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("load config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("load config %s: %w", path, err)
		}
	default:
		return cfg, fmt.Errorf("load config %s: %w: unknown format", path, ErrInvalidConfig)
	}
	return cfg, cfg.Validate()
}

// WriteConfig writes cfg as TOML.
func WriteConfig(path string, cfg Config) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("write config %s: %w", path, err)
	}
	defer f.Close()
	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		return fmt.Errorf("write config %s: %w", path, err)
	}
	return nil
}

// Validate checks value ranges.
func (c Config) Validate() error {
	if c.FrameDuration <= 0 {
		return fmt.Errorf("%w: frame_duration must be positive", ErrInvalidConfig)
	}
	if c.MaxUpdateLoops <= 0 {
		return fmt.Errorf("%w: max_update_loops must be positive", ErrInvalidConfig)
	}
	if c.MultiClick.Time < 0 || c.KeyRepeat.StartDelay < 0 || c.Touch.MaxTapTime < 0 {
		return fmt.Errorf("%w: negative duration", ErrInvalidConfig)
	}
	if _, err := c.slogLevel(); err != nil {
		return err
	}
	return nil
}

func (c Config) slogLevel() (slog.Level, error) {
	var lvl slog.Level
	if c.LogLevel == "" {
		return slog.LevelInfo, nil
	}
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return lvl, fmt.Errorf("%w: log_level %q", ErrInvalidConfig, c.LogLevel)
	}
	return lvl, nil
}
