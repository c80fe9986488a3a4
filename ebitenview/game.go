// Package ebitenview runs arbor apps on [Ebitengine].
//
// [Game] is both an [ebiten.Game] and an [arbor.ViewProcess]. Ebitengine owns
// the main loop: every tick polls input, reports it to the app and runs one
// app update, so the app is driven from the ebiten goroutine and App.Run is
// not used.
//
//	g := ebitenview.New(ebitenview.Options{})
//	app := arbor.NewApp(arbor.WithView(g))
//	g.Attach(app)
//	app.OpenWindow(arbor.WindowConfig{Title: "demo", Size: arbor.Size{Width: 640, Height: 480}, Root: root})
//	if err := ebitenview.Run(g); err != nil {
//		log.Fatal(err)
//	}
//
// Ebitengine has a single window. The last window opened is shown and
// receives input; closing it shows the previous one.
//
// [Ebitengine]: https://ebitengine.org
package ebitenview

import (
	"fmt"
	"image"
	"log/slog"
	"slices"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text/v2"

	"github.com/phanxgames/arbor"
)

// Options configures a Game.
type Options struct {
	// ShowFPS draws the FPS and TPS in the top left corner.
	ShowFPS bool
	// ScreenshotDir is where Screenshot writes PNG files. Default "screenshots".
	ScreenshotDir string
	// Logger defaults to the app logger.
	Logger *slog.Logger
}

// Game drives an arbor app from the ebiten loop and draws its frames.
type Game struct {
	opts Options
	app  *arbor.App
	log  *slog.Logger

	windows []arbor.WindowID
	opened  bool
	frames  map[arbor.WindowID]*arbor.Frame
	values  map[arbor.WindowID]*arbor.FrameValues

	images map[arbor.ResourceKey]*ebiten.Image
	faces  map[arbor.ResourceKey]text.Face

	input    inputState
	touchBuf []ebiten.TouchID
	size     image.Point

	screenshotQueue []string
	fps             *fpsOverlay
}

// New returns a game. Attach the app before running it.
func New(opts Options) *Game {
	if opts.ScreenshotDir == "" {
		opts.ScreenshotDir = "screenshots"
	}
	g := &Game{
		opts:   opts,
		log:    opts.Logger,
		frames: make(map[arbor.WindowID]*arbor.Frame),
		values: make(map[arbor.WindowID]*arbor.FrameValues),
		images: make(map[arbor.ResourceKey]*ebiten.Image),
		faces:  make(map[arbor.ResourceKey]text.Face),
		input:  inputState{focused: true},
	}
	if opts.ShowFPS {
		g.fps = &fpsOverlay{}
	}
	return g
}

// Attach sets the app the game drives.
func (g *Game) Attach(app *arbor.App) {
	g.app = app
	if g.log == nil {
		g.log = app.Logger()
	}
	app.NotifyRaw(&arbor.ViewProcessInitedArgs{ArgsBase: arbor.NewArgsBase(app.Clock().Now())})
}

// Run opens the ebiten window and runs the game until the app shuts down or
// its last window closes.
func Run(g *Game) error {
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	return ebiten.RunGame(g)
}

func (g *Game) active() arbor.WindowID {
	if len(g.windows) == 0 {
		return 0
	}
	return g.windows[len(g.windows)-1]
}

// --- ebiten.Game ---

// Update polls input and runs one app update cycle.
func (g *Game) Update() error {
	if g.app == nil {
		return fmt.Errorf("ebitenview: no app attached")
	}
	if g.app.Context().Err() != nil || (g.opened && len(g.windows) == 0) {
		return ebiten.Termination
	}
	if g.fps != nil {
		g.fps.tick()
	}
	if win := g.active(); win != 0 {
		cur := pollInput(g.touchBuf)
		for _, ev := range diffInput(&g.input, &cur, win, g.app.Clock().Now()) {
			g.app.NotifyRaw(ev)
		}
		g.input = cur
	}
	g.app.Update()
	return nil
}

// Draw draws the last frame of the shown window.
func (g *Game) Draw(screen *ebiten.Image) {
	win := g.active()
	if f := g.frames[win]; f != nil {
		g.drawFrame(screen, f, g.values[win])
	}
	if g.fps != nil {
		g.fps.draw(screen)
	}
	g.flushScreenshots(screen)
}

// Layout reports size changes of the ebiten window to the app.
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	size := image.Pt(outsideWidth, outsideHeight)
	if size != g.size && g.app != nil {
		g.size = size
		if win := g.active(); win != 0 {
			g.app.NotifyRaw(&arbor.RawWindowChangedArgs{
				ArgsBase: arbor.NewArgsBase(g.app.Clock().Now()),
				Window:   win,
				Size:     arbor.Size{Width: float64(outsideWidth), Height: float64(outsideHeight)},
			})
		}
	}
	return outsideWidth, outsideHeight
}

// --- ViewProcess ---

func (g *Game) OpenWindow(id arbor.WindowID, cfg arbor.WindowConfig) error {
	prev := g.active()
	g.windows = append(g.windows, id)
	g.opened = true
	g.applyWindowConfig(cfg)
	if g.app != nil {
		g.app.NotifyRaw(&arbor.RawWindowFocusArgs{ArgsBase: arbor.NewArgsBase(g.app.Clock().Now()), Prev: prev, New: id})
	}
	return nil
}

func (g *Game) applyWindowConfig(cfg arbor.WindowConfig) {
	if cfg.Title != "" {
		ebiten.SetWindowTitle(cfg.Title)
	}
	if cfg.Size.Width > 0 && cfg.Size.Height > 0 {
		ebiten.SetWindowSize(int(cfg.Size.Width), int(cfg.Size.Height))
	}
}

func (g *Game) CloseWindow(id arbor.WindowID) error {
	i := slices.Index(g.windows, id)
	if i < 0 {
		return arbor.ErrWindowNotFound
	}
	wasActive := id == g.active()
	g.windows = slices.Delete(g.windows, i, i+1)
	delete(g.frames, id)
	delete(g.values, id)
	if wasActive && g.app != nil {
		g.app.NotifyRaw(&arbor.RawWindowFocusArgs{ArgsBase: arbor.NewArgsBase(g.app.Clock().Now()), Prev: id, New: g.active()})
	}
	return nil
}

func (g *Game) FocusWindow(id arbor.WindowID) error {
	i := slices.Index(g.windows, id)
	if i < 0 {
		return arbor.ErrWindowNotFound
	}
	prev := g.active()
	g.windows = append(slices.Delete(g.windows, i, i+1), id)
	if prev != id && g.app != nil {
		g.app.NotifyRaw(&arbor.RawWindowFocusArgs{ArgsBase: arbor.NewArgsBase(g.app.Clock().Now()), Prev: prev, New: id})
	}
	return nil
}

// RequestAttention logs the request; ebiten cannot flash its window.
func (g *Game) RequestAttention(id arbor.WindowID, level arbor.AttentionLevel) error {
	if g.log != nil {
		g.log.Info("window requests attention", "window", id, "level", level)
	}
	return nil
}

// AddResource accepts images as *ebiten.Image or image.Image and fonts as
// text.Face.
func (g *Game) AddResource(r arbor.Resource) error {
	switch r.Key.Kind {
	case arbor.ResourceImage:
		switch img := r.Data.(type) {
		case *ebiten.Image:
			g.images[r.Key] = img
		case image.Image:
			g.images[r.Key] = ebiten.NewImageFromImage(img)
		default:
			return fmt.Errorf("ebitenview: resource %s: unsupported image data %T", r.Key, r.Data)
		}
	case arbor.ResourceFont, arbor.ResourceFontInstance:
		face, ok := r.Data.(text.Face)
		if !ok {
			return fmt.Errorf("ebitenview: resource %s: unsupported font data %T", r.Key, r.Data)
		}
		g.faces[r.Key] = face
	default:
		return fmt.Errorf("ebitenview: resource %s: unsupported kind", r.Key)
	}
	return nil
}

func (g *Game) DeleteResource(k arbor.ResourceKey) error {
	if img, ok := g.images[k]; ok {
		img.Deallocate()
		delete(g.images, k)
	}
	delete(g.faces, k)
	return nil
}

// Render keeps f to draw in the next Draw.
func (g *Game) Render(f *arbor.Frame) error {
	g.frames[f.Window] = f
	g.values[f.Window] = &arbor.FrameValues{}
	return nil
}

func (g *Game) RenderUpdate(u *arbor.FrameUpdate) error {
	f := g.frames[u.Window]
	if f == nil {
		return nil
	}
	g.values[u.Window].Apply(u)
	if u.Clear != nil {
		f.Clear = *u.Clear
	}
	return nil
}
