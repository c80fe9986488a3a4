package arbor

import (
	"errors"
	"strings"
	"testing"
)

func TestLoadTestScript(t *testing.T) {
	tests := []struct {
		name    string
		script  string
		wantErr string
	}{
		{"valid", `{"steps":[{"action":"key","key":"Shift+Tab"},{"action":"snapshot","label":"a"}]}`, ""},
		{"invalid json", `not json`, "parse test script"},
		{"no steps", `{"steps":[]}`, "no steps"},
		{"unknown action", `{"steps":[{"action":"explode"}]}`, `unknown action "explode"`},
		{"unknown key", `{"steps":[{"action":"key","key":"Hyper+Q"}]}`, "unknown key"},
		{"unlabeled snapshot", `{"steps":[{"action":"snapshot"}]}`, "without label"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := LoadTestScript([]byte(tt.script))
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if r.Done() {
					t.Error("fresh runner reports Done")
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("err = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestTestRunnerRecordsFocusAndTree(t *testing.T) {
	app, _ := newTestApp(t)
	a, b := NewWidgetID(), NewWidgetID()
	win := openWindow(t, app, Stack(0, focusBox(a, 100, 20), focusBox(b, 100, 20)))

	r, err := LoadTestScript([]byte(`{"steps":[
		{"action":"snapshot","label":"start"},
		{"action":"key","key":"Tab"},
		{"action":"wait","frames":3},
		{"action":"snapshot","label":"first"},
		{"action":"click","x":10,"y":30},
		{"action":"wait","ms":100,"frames":2},
		{"action":"snapshot","label":"clicked"}
	]}`))
	if err != nil {
		t.Fatal(err)
	}
	if err := r.Run(app, win.ID()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !r.Done() {
		t.Fatal("runner not done after Run")
	}

	checks := []struct {
		label string
		want  WidgetID
	}{
		{"start", 0},
		{"first", a},
		{"clicked", b},
	}
	for _, c := range checks {
		if got := r.FocusedAt(c.label); got != c.want {
			t.Errorf("focused at %q = %v, want %v", c.label, got, c.want)
		}
	}

	snap, ok := r.Snapshot("first")
	if !ok {
		t.Fatal("no snapshot labeled first")
	}
	if snap.Window != win.ID() {
		t.Errorf("snapshot window = %v, want %v", snap.Window, win.ID())
	}
	var found bool
	for _, w := range snap.Widgets {
		if w.ID == b {
			found = true
			if w.Outer.Y != 20 {
				t.Errorf("second box at y=%v, want 20", w.Outer.Y)
			}
		}
	}
	if !found {
		t.Error("snapshot misses the second box")
	}
	if _, ok := r.Snapshot("missing"); ok {
		t.Error("unknown label reported as recorded")
	}
}

func TestTestRunnerWaitNeedsManualClock(t *testing.T) {
	app := NewApp()
	t.Cleanup(app.Shutdown)
	win := openWindow(t, app, box(0, 10, 10))

	r, err := LoadTestScript([]byte(`{"steps":[{"action":"wait","ms":10}]}`))
	if err != nil {
		t.Fatal(err)
	}
	if err := r.Run(app, win.ID()); !errors.Is(err, ErrScriptNeedsManualClock) {
		t.Errorf("err = %v, want ErrScriptNeedsManualClock", err)
	}
}
