package arbor

import (
	"bytes"
	"fmt"
	"log/slog"
	"strings"
	"testing"
)

func newDebugApp(t *testing.T) (*App, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	app, _ := newTestApp(t, WithLogger(log))
	app.SetDebugMode(true)
	return app, &buf
}

func TestDebugMode_DoubleInitPanics(t *testing.T) {
	app, _ := newDebugApp(t)
	shared := box(0, 10, 10)
	app.OpenWindow(WindowConfig{Size: Size{100, 100}, Root: Stack(0, shared, shared)})

	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("expected panic on second Init, got none")
		}
		if msg := fmt.Sprint(r); !strings.Contains(msg, "already inited") {
			t.Errorf("panic message should mention 'already inited', got: %s", msg)
		}
	}()
	app.Update()
}

func TestDebugMode_DeepTreeWarnsOncePerRebuild(t *testing.T) {
	app, buf := newDebugApp(t)
	var node UiNode = NodeBase{}
	for i := 0; i < debugMaxTreeDepth+5; i++ {
		node = NewWidget(0, node)
	}
	rebuilds := record(app, WidgetInfoChangedEvent)
	openWindow(t, app, node)

	out := buf.String()
	if n := strings.Count(out, "widget tree too deep"); n == 0 || n != len(*rebuilds) {
		t.Errorf("depth warning logged %d times over %d rebuilds, want one per rebuild\n%s", n, len(*rebuilds), out)
	}
	if !strings.Contains(out, "update cycle") {
		t.Error("debug mode did not log cycle stats")
	}
}

func TestDebugMode_ShallowTreeIsQuiet(t *testing.T) {
	app, buf := newDebugApp(t)
	openWindow(t, app, Stack(0, box(0, 10, 10), box(0, 10, 10)))
	if strings.Contains(buf.String(), "level=WARN") {
		t.Errorf("unexpected warnings:\n%s", buf.String())
	}
}
