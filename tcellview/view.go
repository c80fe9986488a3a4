// Package tcellview runs arbor apps in a terminal with tcell.
//
// The terminal is one window: the last window opened is shown and receives
// input. Arbor coordinates are pixels; every terminal cell is Cell pixels, so
// layouts written for a graphical view keep working at a coarse grain.
// Terminals report no key releases, so every key press is followed by a
// release at once.
package tcellview

import (
	"context"
	"errors"
	"slices"
	"sync"

	"github.com/gdamore/tcell/v2"
	"github.com/mattn/go-runewidth"
	"golang.org/x/sync/errgroup"

	"github.com/phanxgames/arbor"
)

// DefaultCell is the pixel size of a terminal cell.
var DefaultCell = arbor.Size{Width: 8, Height: 16}

// Device is the device ID of terminal input.
const Device arbor.DeviceID = 1

// View is an arbor.ViewProcess that draws to a tcell.Screen.
type View struct {
	screen tcell.Screen
	cell   arbor.Size

	mu      sync.Mutex
	app     *arbor.App
	windows []arbor.WindowID
	frames  map[arbor.WindowID]*arbor.Frame
	values  map[arbor.WindowID]*arbor.FrameValues
	buttons tcell.ButtonMask
	cursor  arbor.Point
	focused bool

	// grid is the last drawn content, cols*rows cells.
	grid       []cell
	cols, rows int
}

type cell struct {
	r  rune
	fg arbor.Color
	bg arbor.Color
}

// New returns a view drawing to screen, which must be initialized. A zero
// cell size uses DefaultCell.
func New(screen tcell.Screen, cellSize arbor.Size) *View {
	if cellSize.Width <= 0 || cellSize.Height <= 0 {
		cellSize = DefaultCell
	}
	return &View{
		screen:  screen,
		cell:    cellSize,
		frames:  make(map[arbor.WindowID]*arbor.Frame),
		values:  make(map[arbor.WindowID]*arbor.FrameValues),
		focused: true,
	}
}

// Attach sets the app that receives input. Create the app with
// arbor.WithView(v) and attach it before Run.
func (v *View) Attach(app *arbor.App) {
	v.mu.Lock()
	v.app = app
	v.mu.Unlock()
	app.NotifyRaw(&arbor.ViewProcessInitedArgs{ArgsBase: arbor.NewArgsBase(app.Clock().Now())})
}

// Run polls terminal input until ctx is done, then finalizes the screen. The
// app loop runs separately with App.Run.
func (v *View) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		for {
			ev := v.screen.PollEvent()
			if ev == nil {
				return nil
			}
			v.handle(ev)
		}
	})
	g.Go(func() error {
		<-ctx.Done()
		v.screen.Fini()
		return nil
	})
	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// active returns the window shown, zero if none. Call with mu held.
func (v *View) active() arbor.WindowID {
	if len(v.windows) == 0 {
		return 0
	}
	return v.windows[len(v.windows)-1]
}

// screenSize returns the terminal size in pixels.
func (v *View) screenSize() arbor.Size {
	w, h := v.screen.Size()
	return arbor.Size{Width: float64(w) * v.cell.Width, Height: float64(h) * v.cell.Height}
}

// --- ViewProcess ---

func (v *View) OpenWindow(id arbor.WindowID, cfg arbor.WindowConfig) error {
	v.mu.Lock()
	prev := v.active()
	v.windows = append(v.windows, id)
	app := v.app
	v.mu.Unlock()

	if app != nil {
		now := app.Clock().Now()
		app.NotifyRaw(&arbor.RawWindowChangedArgs{ArgsBase: arbor.NewArgsBase(now), Window: id, Size: v.screenSize()})
		app.NotifyRaw(&arbor.RawWindowFocusArgs{ArgsBase: arbor.NewArgsBase(now), Prev: prev, New: id})
	}
	return nil
}

func (v *View) CloseWindow(id arbor.WindowID) error {
	v.mu.Lock()
	i := slices.Index(v.windows, id)
	if i < 0 {
		v.mu.Unlock()
		return arbor.ErrWindowNotFound
	}
	wasActive := id == v.active()
	v.windows = slices.Delete(v.windows, i, i+1)
	delete(v.frames, id)
	delete(v.values, id)
	next := v.active()
	app := v.app
	frame, vals := v.frames[next], v.values[next]
	v.mu.Unlock()

	if wasActive && app != nil {
		app.NotifyRaw(&arbor.RawWindowFocusArgs{ArgsBase: arbor.NewArgsBase(app.Clock().Now()), Prev: id, New: next})
	}
	if frame != nil {
		v.draw(frame, vals)
	} else if next == 0 {
		v.screen.Clear()
		v.screen.Show()
	}
	return nil
}

func (v *View) FocusWindow(id arbor.WindowID) error {
	v.mu.Lock()
	i := slices.Index(v.windows, id)
	if i < 0 {
		v.mu.Unlock()
		return arbor.ErrWindowNotFound
	}
	prev := v.active()
	v.windows = append(slices.Delete(v.windows, i, i+1), id)
	frame, vals := v.frames[id], v.values[id]
	app := v.app
	v.mu.Unlock()

	if prev != id && app != nil {
		app.NotifyRaw(&arbor.RawWindowFocusArgs{ArgsBase: arbor.NewArgsBase(app.Clock().Now()), Prev: prev, New: id})
	}
	if frame != nil {
		v.draw(frame, vals)
	}
	return nil
}

func (v *View) RequestAttention(id arbor.WindowID, level arbor.AttentionLevel) error {
	if level == arbor.AttentionCritical {
		return v.screen.Beep()
	}
	return nil
}

// AddResource accepts every resource; terminals draw no images or fonts.
func (v *View) AddResource(r arbor.Resource) error { return nil }

func (v *View) DeleteResource(k arbor.ResourceKey) error { return nil }

func (v *View) Render(f *arbor.Frame) error {
	v.mu.Lock()
	v.frames[f.Window] = f
	vals := &arbor.FrameValues{}
	v.values[f.Window] = vals
	show := f.Window == v.active()
	v.mu.Unlock()
	if show {
		v.draw(f, vals)
	}
	return nil
}

func (v *View) RenderUpdate(u *arbor.FrameUpdate) error {
	v.mu.Lock()
	f, vals := v.frames[u.Window], v.values[u.Window]
	if f == nil {
		v.mu.Unlock()
		return nil
	}
	vals.Apply(u)
	if u.Clear != nil {
		f.Clear = *u.Clear
	}
	show := u.Window == v.active()
	v.mu.Unlock()
	if show {
		v.draw(f, vals)
	}
	return nil
}

// --- Drawing ---

func (v *View) draw(f *arbor.Frame, vals *arbor.FrameValues) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.cols, v.rows = v.screen.Size()
	v.grid = make([]cell, v.cols*v.rows)
	for i := range v.grid {
		v.grid[i] = cell{r: ' ', fg: arbor.ColorWhite, bg: f.Clear}
	}

	f.Display.Walk(vals, func(it arbor.DrawItem) {
		switch it.Kind {
		case arbor.ItemRect:
			v.fill(it.Bounds(), it.Color)
		case arbor.ItemGradient:
			v.fill(it.Bounds(), it.Color.Lerp(it.EndColor, 0.5))
		case arbor.ItemImage:
			v.fillRune(it.Bounds(), '▒')
		case arbor.ItemBorder:
			v.border(it)
		case arbor.ItemText:
			v.text(it)
		}
	})

	for y := 0; y < v.rows; y++ {
		for x := 0; x < v.cols; x++ {
			c := v.grid[y*v.cols+x]
			if c.r == 0 {
				continue
			}
			st := tcell.StyleDefault.Foreground(tcellColor(c.fg)).Background(tcellColor(c.bg))
			v.screen.SetContent(x, y, c.r, nil, st)
		}
	}
	v.screen.Show()
}

// cells returns the cell range whose centers are inside r.
func (v *View) cells(r arbor.Rect) (x0, y0, x1, y1 int) {
	x0 = max(int(r.X/v.cell.Width+0.5), 0)
	y0 = max(int(r.Y/v.cell.Height+0.5), 0)
	x1 = min(int(r.MaxX()/v.cell.Width+0.5), v.cols)
	y1 = min(int(r.MaxY()/v.cell.Height+0.5), v.rows)
	return
}

func (v *View) at(x, y int) *cell {
	if x < 0 || y < 0 || x >= v.cols || y >= v.rows {
		return nil
	}
	return &v.grid[y*v.cols+x]
}

func (v *View) fill(r arbor.Rect, c arbor.Color) {
	x0, y0, x1, y1 := v.cells(r)
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			g := v.at(x, y)
			g.bg = blend(g.bg, c)
			g.r = ' '
		}
	}
}

func (v *View) fillRune(r arbor.Rect, ch rune) {
	x0, y0, x1, y1 := v.cells(r)
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			v.at(x, y).r = ch
		}
	}
}

func (v *View) border(it arbor.DrawItem) {
	x0, y0, x1, y1 := v.cells(it.Transform.TransformRect(it.Rect))
	if x1-x0 < 1 || y1-y0 < 1 {
		return
	}
	cx0, cy0, cx1, cy1 := 0, 0, v.cols, v.rows
	if it.HasClip {
		cx0, cy0, cx1, cy1 = v.cells(it.Clip)
	}
	set := func(x, y int, ch rune) {
		if x < cx0 || y < cy0 || x >= cx1 || y >= cy1 {
			return
		}
		if g := v.at(x, y); g != nil {
			g.r, g.fg = ch, it.Color
		}
	}
	round := it.Radius != arbor.CornerRadius{}
	tl, tr, bl, br := '┌', '┐', '└', '┘'
	if round {
		tl, tr, bl, br = '╭', '╮', '╰', '╯'
	}
	for x := x0 + 1; x < x1-1; x++ {
		set(x, y0, '─')
		set(x, y1-1, '─')
	}
	for y := y0 + 1; y < y1-1; y++ {
		set(x0, y, '│')
		set(x1-1, y, '│')
	}
	set(x0, y0, tl)
	set(x1-1, y0, tr)
	set(x0, y1-1, bl)
	set(x1-1, y1-1, br)
}

func (v *View) text(it arbor.DrawItem) {
	r := it.Transform.TransformRect(it.Rect)
	x := int(r.X/v.cell.Width + 0.5)
	y := int(r.Y/v.cell.Height + 0.5)
	cx0, cx1 := 0, v.cols
	if it.HasClip {
		var cy0, cy1 int
		cx0, cy0, cx1, cy1 = v.cells(it.Clip)
		if y < cy0 || y >= cy1 {
			return
		}
	}
	for _, ch := range it.Text {
		w := runewidth.RuneWidth(ch)
		if w == 0 {
			continue
		}
		if x >= cx0 && x+w <= cx1 {
			if g := v.at(x, y); g != nil {
				g.r, g.fg = ch, it.Color
				for i := 1; i < w; i++ {
					if g2 := v.at(x+i, y); g2 != nil {
						g2.r = 0
					}
				}
			}
		}
		x += w
	}
}

// blend draws c over under.
func blend(under, c arbor.Color) arbor.Color {
	if c.A >= 1 {
		return c
	}
	return under.Lerp(arbor.Color{R: c.R, G: c.G, B: c.B, A: 1}, c.A)
}

func tcellColor(c arbor.Color) tcell.Color {
	r, g, b, _ := c.RGBA8()
	return tcell.NewRGBColor(int32(r), int32(g), int32(b))
}

// Line returns the text of terminal row y as last drawn, trailing spaces
// removed.
func (v *View) Line(y int) string {
	v.mu.Lock()
	defer v.mu.Unlock()
	if y < 0 || y >= v.rows {
		return ""
	}
	var out []rune
	end := 0
	for x := 0; x < v.cols; x++ {
		ch := v.grid[y*v.cols+x].r
		if ch == 0 {
			continue
		}
		out = append(out, ch)
		if ch != ' ' {
			end = len(out)
		}
	}
	return string(out[:end])
}
