package arbor

import (
	"math"
	"strings"

	"github.com/mattn/go-runewidth"
)

// TextAlign selects the horizontal alignment of text lines.
type TextAlign uint8

const (
	TextAlignLeft   TextAlign = iota // lines start at the left edge
	TextAlignCenter                  // lines are centered
	TextAlignRight                   // lines end at the right edge
)

// TextStyle is the look of a TextNode. Text is measured in cells: every
// column of a rune as reported by go-runewidth is CellWidth wide.
type TextStyle struct {
	Font       ResourceKey
	Color      Color
	CellWidth  float64
	LineHeight float64
	Align      TextAlign
}

// DefaultTextStyle is the style used outside any TextStyleVar binding.
func DefaultTextStyle() TextStyle {
	return TextStyle{
		Color:      ColorWhite,
		CellWidth:  8,
		LineHeight: 16,
	}
}

// TextStyleVar is the text style of a subtree. Bind it with WithContextVar.
var TextStyleVar = NewContextVar("text-style", DefaultTextStyle())

// textLine is one laid out line, relative to the node origin.
type textLine struct {
	text  string
	x     float64
	width float64
}

// TextWidth returns the width of s in cells of cellWidth.
func TextWidth(s string, cellWidth float64) float64 {
	return float64(runewidth.StringWidth(s)) * cellWidth
}

// layoutText breaks content into lines no wider than maxWidth. Lines break at
// newlines and spaces; a word wider than maxWidth gets a line of its own. The
// first line starts at first, for text continuing an inline row. When the
// first word does not fit after first, the first line is left empty.
func layoutText(content string, st TextStyle, maxWidth, first float64) []textLine {
	var lines []textLine
	for i, para := range strings.Split(content, "\n") {
		start := 0.0
		if i == 0 {
			start = first
		}
		lines = wrapParagraph(lines, para, st.CellWidth, maxWidth, start)
	}
	return lines
}

func wrapParagraph(lines []textLine, para string, cw, maxWidth, start float64) []textLine {
	cur := textLine{x: start}
	var b strings.Builder

	flush := func() {
		cur.text = b.String()
		lines = append(lines, cur)
		cur = textLine{}
		b.Reset()
	}

	for _, word := range strings.Split(para, " ") {
		ww := TextWidth(word, cw)
		sep := 0.0
		if b.Len() > 0 {
			sep = cw
		}
		if cur.x+cur.width+sep+ww > maxWidth && (b.Len() > 0 || cur.x > 0) {
			flush()
			sep = 0
		}
		if sep > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(word)
		cur.width += sep + ww
	}
	flush()
	return lines
}

// alignLines moves lines inside width. Only lines that start at zero are
// moved, so an inline first row keeps its offset.
func alignLines(lines []textLine, align TextAlign, width float64) {
	if align == TextAlignLeft {
		return
	}
	for i := range lines {
		l := &lines[i]
		if l.x != 0 {
			continue
		}
		switch align {
		case TextAlignCenter:
			l.x = (width - l.width) / 2
		case TextAlignRight:
			l.x = width - l.width
		}
	}
}

func textSize(lines []textLine, lh float64) Size {
	var w float64
	for _, l := range lines {
		w = math.Max(w, l.x+l.width)
	}
	return Size{w, float64(len(lines)) * lh}
}

// TextNode is a leaf that shows text in the style of TextStyleVar. Inside a
// Wrap it continues the row of the previous child.
type TextNode struct {
	NodeBase
	text  Var[string]
	lines []textLine
	style TextStyle
}

// Text returns a TextNode showing text.
func Text(text Var[string]) *TextNode { return &TextNode{text: text} }

// Lines returns the laid out lines.
func (n *TextNode) Lines() []string {
	out := make([]string, len(n.lines))
	for i, l := range n.lines {
		out[i] = l.text
	}
	return out
}

func (n *TextNode) Init(ctx *Context) {
	ctx.SubVarLayout(n.text)
	ctx.SubVarLayout(TextStyleVar)
}

func (n *TextNode) Measure(ctx *Context, wm *WidgetMeasure) Size {
	st := TextStyleVar.Get()
	first := 0.0
	if in := wm.Inline(); in != nil {
		first = in.FirstOffset
	}
	c := wm.Constraints()
	lines := layoutText(n.text.Get(), st, c.Max.Width, first)
	return c.Clamp(textSize(lines, st.LineHeight))
}

func (n *TextNode) Layout(ctx *Context, wl *WidgetLayout) Size {
	st := TextStyleVar.Get()
	c := wl.Constraints()
	in := wl.Inline()
	first := 0.0
	if in != nil {
		first = in.FirstOffset
	}
	lines := layoutText(n.text.Get(), st, c.Max.Width, first)
	size := textSize(lines, st.LineHeight)
	if c.IsBoundedWidth() && in == nil {
		alignLines(lines, st.Align, c.Max.Width)
	} else {
		alignLines(lines, st.Align, size.Width)
	}
	n.lines, n.style = lines, st

	if in != nil {
		lh := st.LineHeight
		f, l := lines[0], lines[len(lines)-1]
		wl.SetInline(InlineLayout{
			FirstRow: Rect{X: f.x, Width: f.width, Height: lh},
			LastRow:  Rect{X: l.x, Y: float64(len(lines)-1) * lh, Width: l.width, Height: lh},
		})
	}
	return c.Clamp(size)
}

func (n *TextNode) Render(ctx *Context, f *FrameBuilder) {
	lh := n.style.LineHeight
	for i, l := range n.lines {
		if l.text == "" {
			continue
		}
		f.PushText(Rect{X: l.x, Y: float64(i) * lh, Width: l.width, Height: lh}, l.text, n.style.Font, n.style.Color)
	}
}
