package arbor

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestDefaultConfigIsValid(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatal(err)
	}
}

func TestConfigTOMLRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "arbor.toml")
	cfg := DefaultConfig()
	cfg.MultiClick.Time = Duration(300 * time.Millisecond)
	cfg.Touch.TapArea = Size{Width: 4, Height: 4}
	cfg.LogLevel = "debug"

	if err := WriteConfig(path, cfg); err != nil {
		t.Fatal(err)
	}
	got, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(cfg, got); diff != "" {
		t.Errorf("config (-want +got):\n%s", diff)
	}
}

func TestLoadConfigYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "arbor.yaml")
	data := `
max_update_loops: 10
multi_click:
  time: 250ms
key_repeat:
  start_delay: 1s
touch:
  tap_area: {width: 2, height: 3}
animations:
  enabled: false
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	got, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}

	want := DefaultConfig()
	want.MaxUpdateLoops = 10
	want.MultiClick.Time = Duration(250 * time.Millisecond)
	want.KeyRepeat.StartDelay = Duration(time.Second)
	want.Touch.TapArea = Size{Width: 2, Height: 3}
	want.Animations.Enabled = false
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("config (-want +got):\n%s", diff)
	}
}

func TestLoadConfigErrors(t *testing.T) {
	dir := t.TempDir()
	write := func(name, data string) string {
		t.Helper()
		p := filepath.Join(dir, name)
		if err := os.WriteFile(p, []byte(data), 0o644); err != nil {
			t.Fatal(err)
		}
		return p
	}

	tests := []struct {
		name    string
		path    string
		invalid bool
	}{
		{"bad log level", write("level.toml", `log_level = "loud"`), true},
		{"zero loops", write("loops.yml", "max_update_loops: 0\n"), true},
		{"unknown extension", write("arbor.ini", ""), true},
		{"missing file", filepath.Join(dir, "missing.toml"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(tt.path)
			if err == nil {
				t.Fatal("LoadConfig succeeded")
			}
			if got := errors.Is(err, ErrInvalidConfig); got != tt.invalid {
				t.Errorf("errors.Is(err, ErrInvalidConfig) = %v, want %v (err: %v)", got, tt.invalid, err)
			}
		})
	}
}
