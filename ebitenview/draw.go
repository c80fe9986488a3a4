package ebitenview

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/text/v2"

	"github.com/phanxgames/arbor"
)

var whitePixelImage *ebiten.Image

// ensureWhitePixel returns a lazily-initialized 1x1 white pixel image.
func ensureWhitePixel() *ebiten.Image {
	if whitePixelImage == nil {
		whitePixelImage = ebiten.NewImage(1, 1)
		whitePixelImage.Fill(color.White)
	}
	return whitePixelImage
}

// nrgba converts an arbor color for ebiten.
func nrgba(c arbor.Color) color.NRGBA {
	r, g, b, a := c.RGBA8()
	return color.NRGBA{R: r, G: g, B: b, A: a}
}

// geoM converts an affine transform.
func geoM(m arbor.Affine) ebiten.GeoM {
	var g ebiten.GeoM
	g.SetElement(0, 0, m[0])
	g.SetElement(1, 0, m[1])
	g.SetElement(0, 1, m[2])
	g.SetElement(1, 1, m[3])
	g.SetElement(0, 2, m[4])
	g.SetElement(1, 2, m[5])
	return g
}

// target returns the part of screen an item may draw to.
func target(screen *ebiten.Image, it arbor.DrawItem) *ebiten.Image {
	if !it.HasClip {
		return screen
	}
	c := it.Clip
	r := image.Rect(
		int(math.Floor(c.X)), int(math.Floor(c.Y)),
		int(math.Ceil(c.MaxX())), int(math.Ceil(c.MaxY())),
	)
	return screen.SubImage(r).(*ebiten.Image)
}

func (g *Game) drawFrame(screen *ebiten.Image, f *arbor.Frame, vals *arbor.FrameValues) {
	screen.Fill(nrgba(f.Clear))
	f.Display.Walk(vals, func(it arbor.DrawItem) {
		dst := target(screen, it)
		switch it.Kind {
		case arbor.ItemRect:
			fillRect(dst, it.Transform, it.Rect, it.Color)
		case arbor.ItemGradient:
			fillGradient(dst, it.Transform, it.Rect, it.Color, it.EndColor)
		case arbor.ItemBorder:
			drawBorder(dst, it)
		case arbor.ItemImage:
			g.drawImage(dst, it)
		case arbor.ItemText:
			g.drawText(dst, it)
		}
	})
}

func fillRect(dst *ebiten.Image, m arbor.Affine, r arbor.Rect, c arbor.Color) {
	if r.Width <= 0 || r.Height <= 0 || c.A <= 0 {
		return
	}
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(r.Width, r.Height)
	op.GeoM.Translate(r.X, r.Y)
	op.GeoM.Concat(geoM(m))
	op.ColorScale.ScaleWithColor(nrgba(c))
	dst.DrawImage(ensureWhitePixel(), op)
}

// fillGradient fills r with a horizontal gradient from start to end.
func fillGradient(dst *ebiten.Image, m arbor.Affine, r arbor.Rect, start, end arbor.Color) {
	corners := [4]arbor.Point{
		{X: r.X, Y: r.Y}, {X: r.MaxX(), Y: r.Y},
		{X: r.X, Y: r.MaxY()}, {X: r.MaxX(), Y: r.MaxY()},
	}
	colors := [4]arbor.Color{start, end, start, end}
	var vs [4]ebiten.Vertex
	for i, p := range corners {
		p = m.TransformPoint(p)
		c := colors[i]
		vs[i] = ebiten.Vertex{
			DstX: float32(p.X), DstY: float32(p.Y),
			SrcX: 0.5, SrcY: 0.5,
			ColorR: float32(c.R), ColorG: float32(c.G), ColorB: float32(c.B), ColorA: float32(c.A),
		}
	}
	dst.DrawTriangles(vs[:], []uint16{0, 1, 2, 1, 3, 2}, ensureWhitePixel(), &ebiten.DrawTrianglesOptions{})
}

func drawBorder(dst *ebiten.Image, it arbor.DrawItem) {
	r, w := it.Rect, it.Widths
	fillRect(dst, it.Transform, arbor.Rect{X: r.X, Y: r.Y, Width: r.Width, Height: w.Top}, it.Color)
	fillRect(dst, it.Transform, arbor.Rect{X: r.X, Y: r.MaxY() - w.Bottom, Width: r.Width, Height: w.Bottom}, it.Color)
	inner := r.Height - w.Top - w.Bottom
	fillRect(dst, it.Transform, arbor.Rect{X: r.X, Y: r.Y + w.Top, Width: w.Left, Height: inner}, it.Color)
	fillRect(dst, it.Transform, arbor.Rect{X: r.MaxX() - w.Right, Y: r.Y + w.Top, Width: w.Right, Height: inner}, it.Color)
}

func (g *Game) drawImage(dst *ebiten.Image, it arbor.DrawItem) {
	img := g.images[it.Image]
	if img == nil {
		return
	}
	b := img.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return
	}
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(it.Rect.Width/float64(b.Dx()), it.Rect.Height/float64(b.Dy()))
	op.GeoM.Translate(it.Rect.X, it.Rect.Y)
	op.GeoM.Concat(geoM(it.Transform))
	if it.Rendering == arbor.RenderingPixelated {
		op.Filter = ebiten.FilterNearest
	} else {
		op.Filter = ebiten.FilterLinear
	}
	dst.DrawImage(img, op)
}

// drawText draws with the font resource of the item, or the debug font when
// the item names none.
func (g *Game) drawText(dst *ebiten.Image, it arbor.DrawItem) {
	face := g.faces[it.Font]
	if face == nil {
		p := it.Transform.TransformPoint(arbor.Point{X: it.Rect.X, Y: it.Rect.Y})
		ebitenutil.DebugPrintAt(dst, it.Text, int(p.X), int(p.Y))
		return
	}
	op := &text.DrawOptions{}
	op.GeoM.Translate(it.Rect.X, it.Rect.Y)
	op.GeoM.Concat(geoM(it.Transform))
	op.ColorScale.ScaleWithColor(nrgba(it.Color))
	text.Draw(dst, it.Text, face, op)
}

// --- FPS ---

// fpsOverlay shows the FPS and TPS, refreshed every half second.
type fpsOverlay struct {
	img   *ebiten.Image
	last  time.Time
	label string
}

func (o *fpsOverlay) tick() {
	now := time.Now()
	if now.Sub(o.last) < 500*time.Millisecond {
		return
	}
	o.last = now
	o.label = fmt.Sprintf("FPS: %.1f\nTPS: %.1f", ebiten.ActualFPS(), ebiten.ActualTPS())
}

func (o *fpsOverlay) draw(screen *ebiten.Image) {
	if o.img == nil {
		// 100x32 is enough for "FPS: 60.0\nTPS: 60.0"
		o.img = ebiten.NewImage(100, 32)
	}
	o.img.Fill(color.RGBA{0, 0, 0, 128})
	ebitenutil.DebugPrint(o.img, o.label)
	screen.DrawImage(o.img, nil)
}
