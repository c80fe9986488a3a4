package arbor

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// testStep is a single action in a test script.
type testStep struct {
	Action string  `json:"action"`
	Label  string  `json:"label,omitempty"`
	Key    string  `json:"key,omitempty"`
	Text   string  `json:"text,omitempty"`
	X      float64 `json:"x,omitempty"`
	Y      float64 `json:"y,omitempty"`
	FromX  float64 `json:"fromX,omitempty"`
	FromY  float64 `json:"fromY,omitempty"`
	ToX    float64 `json:"toX,omitempty"`
	ToY    float64 `json:"toY,omitempty"`
	Touch  uint64  `json:"touch,omitempty"`
	Steps  int     `json:"steps,omitempty"`
	Millis int     `json:"ms,omitempty"`
	Frames int     `json:"frames,omitempty"`
}

// testScript is the top-level JSON structure of a test script.
type testScript struct {
	Steps []testStep `json:"steps"`
}

// ErrScriptNeedsManualClock is returned when a script waits in milliseconds
// on an app that does not use a ManualClock.
var ErrScriptNeedsManualClock = errors.New("arbor: script wait needs a ManualClock")

// TestRunner plays a scripted input sequence against one window, running an
// update cycle after each step. Snapshots of the info tree and the focused
// widget are recorded by label.
//
// Actions: key (key, e.g. "Shift+Tab"), type (text), click (x, y), move
// (x, y), drag (fromX, fromY, toX, toY, steps), tap (x, y, touch), wait (ms
// on the ManualClock, or frames update cycles), snapshot (label).
type TestRunner struct {
	steps  []testStep
	cursor int

	snapshots map[string]InfoSnapshot
	focused   map[string]WidgetID
}

// LoadTestScript parses a JSON test script.
func LoadTestScript(jsonData []byte) (*TestRunner, error) {
	var script testScript
	if err := json.Unmarshal(jsonData, &script); err != nil {
		return nil, fmt.Errorf("parse test script: %w", err)
	}
	if len(script.Steps) == 0 {
		return nil, fmt.Errorf("parse test script: no steps")
	}
	for i, st := range script.Steps {
		if err := st.validate(); err != nil {
			return nil, fmt.Errorf("parse test script: step %d: %w", i, err)
		}
	}
	return &TestRunner{
		steps:     script.Steps,
		snapshots: make(map[string]InfoSnapshot),
		focused:   make(map[string]WidgetID),
	}, nil
}

func (st testStep) validate() error {
	switch st.Action {
	case "key":
		if _, _, ok := ParseShortcut(st.Key); !ok {
			return fmt.Errorf("unknown key %q", st.Key)
		}
	case "type", "click", "move", "drag", "tap", "wait":
	case "snapshot":
		if st.Label == "" {
			return errors.New("snapshot without label")
		}
	default:
		return fmt.Errorf("unknown action %q", st.Action)
	}
	return nil
}

// Done reports whether every step ran.
func (r *TestRunner) Done() bool { return r.cursor >= len(r.steps) }

// Snapshot returns the info tree recorded under label.
func (r *TestRunner) Snapshot(label string) (InfoSnapshot, bool) {
	s, ok := r.snapshots[label]
	return s, ok
}

// FocusedAt returns the widget focused when label was recorded.
func (r *TestRunner) FocusedAt(label string) WidgetID { return r.focused[label] }

// Step runs the next step in win followed by an update cycle.
func (r *TestRunner) Step(a *App, win WindowID) error {
	if r.Done() {
		return nil
	}
	st := r.steps[r.cursor]
	r.cursor++

	switch st.Action {
	case "key":
		key, mods, _ := ParseShortcut(st.Key)
		a.InjectShortcut(win, key, mods...)
	case "type":
		for _, c := range st.Text {
			a.InjectKey(win, KeyChar(string(c)))
		}
	case "click":
		a.InjectClick(win, Point{st.X, st.Y})
	case "move":
		a.InjectMouseMove(win, Point{st.X, st.Y})
	case "drag":
		a.InjectDrag(win, Point{st.FromX, st.FromY}, Point{st.ToX, st.ToY}, st.Steps)
	case "tap":
		a.InjectTap(win, TouchID(st.Touch), Point{st.X, st.Y})
	case "wait":
		if st.Millis > 0 {
			c, ok := a.clock.(*ManualClock)
			if !ok {
				return ErrScriptNeedsManualClock
			}
			c.Advance(time.Duration(st.Millis) * time.Millisecond)
		}
		for i := 1; i < st.Frames; i++ {
			a.Update()
		}
	case "snapshot":
		w, err := a.Window(win)
		if err != nil {
			return err
		}
		r.snapshots[st.Label] = w.Tree().Snapshot()
		r.focused[st.Label] = a.focus.Focused().Get().WidgetID()
		return nil
	}
	a.Update()
	return nil
}

// Run runs every remaining step.
func (r *TestRunner) Run(a *App, win WindowID) error {
	for !r.Done() {
		if err := r.Step(a, win); err != nil {
			return err
		}
	}
	return nil
}
