package arbor

import (
	"slices"
	"strings"
)

// Interactivity is how a widget reacts to pointer and keyboard input.
// Values are ordered: an ancestor's value caps its descendants.
type Interactivity uint8

const (
	// Enabled widgets receive and react to input.
	Enabled Interactivity = iota
	// Disabled widgets receive input but should not act on it; they are
	// rendered as disabled.
	Disabled
	// Blocked widgets do not receive input at all.
	Blocked
)

func (i Interactivity) String() string {
	switch i {
	case Enabled:
		return "Enabled"
	case Disabled:
		return "Disabled"
	case Blocked:
		return "Blocked"
	}
	return "Interactivity(?)"
}

// IsEnabled reports i == Enabled.
func (i Interactivity) IsEnabled() bool { return i == Enabled }

// IsBlocked reports i == Blocked.
func (i Interactivity) IsBlocked() bool { return i == Blocked }

// maxInteractivity returns the more restrictive of a and b.
func maxInteractivity(a, b Interactivity) Interactivity {
	if a > b {
		return a
	}
	return b
}

// WidgetPath is the ordered list of widget IDs from a window root to a widget.
// Two paths are equal when the window and the ID sequence are equal.
type WidgetPath struct {
	window WindowID
	ids    []WidgetID
}

// NewWidgetPath returns a path in window win. ids runs root first.
func NewWidgetPath(win WindowID, ids ...WidgetID) WidgetPath {
	return WidgetPath{window: win, ids: slices.Clone(ids)}
}

// IsZero reports whether the path is empty.
func (p WidgetPath) IsZero() bool { return len(p.ids) == 0 }

// Window returns the window of the path.
func (p WidgetPath) Window() WindowID { return p.window }

// WidgetID returns the last ID, the widget the path leads to.
func (p WidgetPath) WidgetID() WidgetID {
	if len(p.ids) == 0 {
		return 0
	}
	return p.ids[len(p.ids)-1]
}

// IDs returns a copy of the ID sequence, root first.
func (p WidgetPath) IDs() []WidgetID { return slices.Clone(p.ids) }

// Len returns the number of widgets in the path.
func (p WidgetPath) Len() int { return len(p.ids) }

// Contains reports whether id is in the path.
func (p WidgetPath) Contains(id WidgetID) bool { return slices.Contains(p.ids, id) }

// Parent returns the path of the parent widget, or a zero path at the root.
func (p WidgetPath) Parent() WidgetPath {
	if len(p.ids) <= 1 {
		return WidgetPath{}
	}
	return WidgetPath{window: p.window, ids: p.ids[:len(p.ids)-1]}
}

// Equal reports whether p and o lead to the same widget through the same
// ancestors.
func (p WidgetPath) Equal(o WidgetPath) bool {
	return p.window == o.window && slices.Equal(p.ids, o.ids)
}

// SharedAncestor returns the longest common prefix of p and o.
func (p WidgetPath) SharedAncestor(o WidgetPath) (WidgetPath, bool) {
	if p.window != o.window {
		return WidgetPath{}, false
	}
	n := 0
	for n < len(p.ids) && n < len(o.ids) && p.ids[n] == o.ids[n] {
		n++
	}
	if n == 0 {
		return WidgetPath{}, false
	}
	return WidgetPath{window: p.window, ids: p.ids[:n]}, true
}

func (p WidgetPath) String() string {
	var b strings.Builder
	b.WriteString(p.window.String())
	for _, id := range p.ids {
		b.WriteString("/")
		b.WriteString(id.String())
	}
	return b.String()
}

// InteractionPath is a WidgetPath with the effective interactivity of each
// level.
type InteractionPath struct {
	WidgetPath
	interactivity []Interactivity
}

// NewInteractionPath pairs path with per-level interactivity. Levels are
// normalized so every level is at least as restrictive as its ancestors.
func NewInteractionPath(path WidgetPath, levels []Interactivity) InteractionPath {
	if len(levels) != len(path.ids) {
		panic("arbor: interaction levels do not match path length")
	}
	eff := make([]Interactivity, len(levels))
	cur := Enabled
	for i, l := range levels {
		cur = maxInteractivity(cur, l)
		eff[i] = cur
	}
	return InteractionPath{WidgetPath: path, interactivity: eff}
}

// Interactivity returns the effective interactivity of the target.
func (p InteractionPath) Interactivity() Interactivity {
	if len(p.interactivity) == 0 {
		return Blocked
	}
	return p.interactivity[len(p.interactivity)-1]
}

// InteractivityOf returns the effective interactivity of id, if in the path.
func (p InteractionPath) InteractivityOf(id WidgetID) (Interactivity, bool) {
	i := slices.Index(p.ids, id)
	if i < 0 {
		return Blocked, false
	}
	return p.interactivity[i], true
}

// Levels returns a copy of the per-level effective interactivity.
func (p InteractionPath) Levels() []Interactivity { return slices.Clone(p.interactivity) }

// EnabledPrefix returns the longest prefix whose levels are all Enabled.
func (p InteractionPath) EnabledPrefix() (InteractionPath, bool) {
	return p.prefix(func(i Interactivity) bool { return i == Enabled })
}

// UnblockedPrefix returns the longest prefix whose levels are not Blocked.
func (p InteractionPath) UnblockedPrefix() (InteractionPath, bool) {
	return p.prefix(func(i Interactivity) bool { return i != Blocked })
}

func (p InteractionPath) prefix(keep func(Interactivity) bool) (InteractionPath, bool) {
	n := 0
	for n < len(p.interactivity) && keep(p.interactivity[n]) {
		n++
	}
	if n == 0 {
		return InteractionPath{}, false
	}
	if n == len(p.ids) {
		return p, true
	}
	return InteractionPath{
		WidgetPath:    WidgetPath{window: p.window, ids: p.ids[:n]},
		interactivity: p.interactivity[:n],
	}, true
}

// SharedAncestor returns the common prefix of p and o, keeping p's levels.
func (p InteractionPath) SharedAncestor(o InteractionPath) (InteractionPath, bool) {
	wp, ok := p.WidgetPath.SharedAncestor(o.WidgetPath)
	if !ok {
		return InteractionPath{}, false
	}
	return InteractionPath{WidgetPath: wp, interactivity: p.interactivity[:len(wp.ids)]}, true
}

// Equal compares the paths and the interactivity levels.
func (p InteractionPath) Equal(o InteractionPath) bool {
	return p.WidgetPath.Equal(o.WidgetPath) && slices.Equal(p.interactivity, o.interactivity)
}
