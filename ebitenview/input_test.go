package ebitenview

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/hajimehoshi/ebiten/v2"

	"github.com/phanxgames/arbor"
)

func describe(evs []arbor.RawEvent) []string {
	var out []string
	for _, e := range evs {
		switch e := e.(type) {
		case *arbor.RawKeyInputArgs:
			s := e.State.String() + " " + e.Key.String()
			if e.Text != "" {
				s += " " + e.Text
			}
			out = append(out, s)
		case *arbor.RawCursorMovedArgs:
			out = append(out, "move")
		case *arbor.RawMouseInputArgs:
			out = append(out, "button "+e.State.String())
		case *arbor.RawMouseWheelArgs:
			out = append(out, "wheel")
		case *arbor.RawTouchArgs:
			for _, u := range e.Touches {
				out = append(out, "touch "+u.Phase.String())
			}
		case *arbor.RawWindowFocusArgs:
			out = append(out, "focus")
		default:
			out = append(out, "?")
		}
	}
	return out
}

func TestDiffInput(t *testing.T) {
	now := time.Unix(0, 0)
	tests := []struct {
		name      string
		prev, cur inputState
		want      []string
	}{
		{
			name: "nothing",
			prev: inputState{focused: true},
			cur:  inputState{focused: true},
		},
		{
			name: "key with text",
			prev: inputState{focused: true},
			cur:  inputState{focused: true, keys: []ebiten.Key{ebiten.KeyA}, chars: []rune{'A'}},
			want: []string{"pressed a A"},
		},
		{
			name: "release before press",
			prev: inputState{focused: true, keys: []ebiten.Key{ebiten.KeyA}},
			cur:  inputState{focused: true, keys: []ebiten.Key{ebiten.KeyB}},
			want: []string{"released a", "pressed b"},
		},
		{
			name: "held key is not repeated",
			prev: inputState{focused: true, keys: []ebiten.Key{ebiten.KeyShiftLeft}},
			cur:  inputState{focused: true, keys: []ebiten.Key{ebiten.KeyShiftLeft}},
		},
		{
			name: "chars without key",
			prev: inputState{focused: true},
			cur:  inputState{focused: true, chars: []rune{'é'}},
			want: []string{"pressed é é", "released é"},
		},
		{
			name: "click",
			prev: inputState{focused: true},
			cur:  inputState{focused: true, cursor: arbor.Point{X: 5, Y: 5}, buttons: [3]bool{true}},
			want: []string{"move", "button pressed"},
		},
		{
			name: "wheel",
			prev: inputState{focused: true},
			cur:  inputState{focused: true, wheel: arbor.Point{Y: -20}},
			want: []string{"wheel"},
		},
		{
			name: "touch lifecycle",
			prev: inputState{focused: true, touches: map[ebiten.TouchID]arbor.Point{1: {X: 1}, 2: {X: 2}}},
			cur:  inputState{focused: true, touches: map[ebiten.TouchID]arbor.Point{2: {X: 3}, 3: {X: 4}}},
			want: []string{"touch start", "touch move", "touch end"},
		},
		{
			name: "focus lost",
			prev: inputState{focused: true},
			cur:  inputState{focused: false},
			want: []string{"focus"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := describe(diffInput(&tt.prev, &tt.cur, 1, now))
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("events (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDiffInputFocusLostClearsWindow(t *testing.T) {
	evs := diffInput(&inputState{focused: true}, &inputState{}, 7, time.Unix(0, 0))
	f, ok := evs[0].(*arbor.RawWindowFocusArgs)
	if !ok {
		t.Fatalf("event is %T, want focus", evs[0])
	}
	if f.Prev != 7 || f.New != 0 {
		t.Errorf("focus = %d -> %d, want 7 -> 0", f.Prev, f.New)
	}
}

func TestMapKey(t *testing.T) {
	tests := []struct {
		in   ebiten.Key
		key  arbor.Key
		code arbor.KeyCode
		loc  arbor.KeyLocation
	}{
		{ebiten.KeyA, arbor.KeyChar("a"), arbor.CodeA, arbor.LocationStandard},
		{ebiten.KeyZ, arbor.KeyChar("z"), arbor.CodeZ, arbor.LocationStandard},
		{ebiten.KeyDigit7, arbor.KeyChar("7"), arbor.CodeDigit7, arbor.LocationStandard},
		{ebiten.KeyF10, arbor.KeyNamed(arbor.NamedF10), arbor.CodeF10, arbor.LocationStandard},
		{ebiten.KeyTab, arbor.KeyNamed(arbor.NamedTab), arbor.CodeTab, arbor.LocationStandard},
		{ebiten.KeyShiftRight, arbor.KeyNamed(arbor.NamedShift), arbor.CodeShiftRight, arbor.LocationRight},
		{ebiten.KeyControlLeft, arbor.KeyNamed(arbor.NamedControl), arbor.CodeControlLeft, arbor.LocationLeft},
	}
	for _, tt := range tests {
		key, code, loc, ok := mapKey(tt.in)
		if !ok {
			t.Errorf("mapKey(%v) not mapped", tt.in)
			continue
		}
		if key != tt.key || code != tt.code || loc != tt.loc {
			t.Errorf("mapKey(%v) = %v, %v, %v; want %v, %v, %v", tt.in, key, code, loc, tt.key, tt.code, tt.loc)
		}
	}
	if _, _, _, ok := mapKey(ebiten.KeyShift); ok {
		t.Error("virtual Shift should not be mapped")
	}
}
