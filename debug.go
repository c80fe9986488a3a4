package arbor

import (
	"fmt"
	"log/slog"
	"time"
)

// debugStats holds per-cycle timing and work counts.
// Only logged when debug mode is on.
type debugStats struct {
	events    int
	modifiers int
	loops     int
	info      time.Duration
	layout    time.Duration
	render    time.Duration
	total     time.Duration
}

func (s *debugStats) reset() { *s = debugStats{} }

// debugLog logs the stats of the last cycle at Debug level.
func (a *App) debugLog() {
	if !a.debug {
		return
	}
	s := a.stats
	a.log.LogAttrs(a.ctx, slog.LevelDebug, "update cycle",
		slog.Uint64("update", uint64(a.updateID)),
		slog.Int("loops", s.loops),
		slog.Int("events", s.events),
		slog.Int("modifiers", s.modifiers),
		slog.Duration("info", s.info),
		slog.Duration("layout", s.layout),
		slog.Duration("render", s.render),
		slog.Duration("total", s.total),
	)
}

// debugCheckLifecycle panics with a descriptive message when a widget is
// initialized twice. Outside debug mode the second Init is ignored.
func debugCheckLifecycle(w *Widget, op string) {
	if w.inited {
		panic(fmt.Sprintf("arbor debug: %s on widget %s that is already inited", op, w.ctx.id))
	}
}

// debugMaxTreeDepth is the depth past which debugCheckTree warns.
const debugMaxTreeDepth = 32

// debugMaxChildCount is the child count past which debugCheckTree warns.
const debugMaxChildCount = 1000

// debugCheckTree warns about widgets nested deeper than debugMaxTreeDepth or
// with more than debugMaxChildCount children. Each widget is reported once
// per tree.
func (a *App) debugCheckTree(t *WidgetInfoTree) {
	deep := 0
	for i := range t.nodes {
		n := &t.nodes[i]
		if n.depth > debugMaxTreeDepth {
			deep++
			if deep == 1 {
				a.log.Warn("widget tree too deep", "window", t.window, "widget", n.id,
					"depth", n.depth, "threshold", debugMaxTreeDepth)
			}
		}
		children := 0
		for c := i + 1; c < n.end; c = t.nodes[c].end {
			children++
		}
		if children > debugMaxChildCount {
			a.log.Warn("widget has too many children", "window", t.window, "widget", n.id,
				"children", children, "threshold", debugMaxChildCount)
		}
	}
}
