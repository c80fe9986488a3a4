package arbor

import (
	"runtime"
	"time"

	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

type animationState struct {
	importance Importance
	start      time.Time
	restarts   int
	stopped    bool
	perm       bool
	sleepUntil time.Time
	fn         func(*Animation)
}

// Animation is passed to an animation closure on every frame. Variable writes
// made by the closure carry the animation's importance.
type Animation struct {
	app *App
	s   *animationState
	now time.Time
}

// Now returns the frame time.
func (a *Animation) Now() time.Time { return a.now }

// Importance returns the importance the animation writes with.
func (a *Animation) Importance() Importance { return a.s.importance }

// Restarts returns how many times the animation was restarted.
func (a *Animation) Restarts() int { return a.s.restarts }

// ElapsedDuration returns the time since the animation started or last
// restarted.
func (a *Animation) ElapsedDuration() time.Duration { return a.now.Sub(a.s.start) }

// Elapsed returns the elapsed fraction of d, clamped to [0, 1]. When
// animations are disabled it always returns 1.
func (a *Animation) Elapsed(d time.Duration) float64 {
	if !a.app.animationsEnabled() || d <= 0 {
		return 1
	}
	f := float64(a.ElapsedDuration()) / float64(d)
	if f > 1 {
		f = 1
	}
	if f < 0 {
		f = 0
	}
	return f
}

// ElapsedStop is Elapsed that also stops the animation once it reaches 1.
func (a *Animation) ElapsedStop(d time.Duration) float64 {
	f := a.Elapsed(d)
	if f >= 1 {
		a.Stop()
	}
	return f
}

// Sleep skips frames until d has passed.
func (a *Animation) Sleep(d time.Duration) { a.s.sleepUntil = a.now.Add(d) }

// Stop ends the animation after the current frame.
func (a *Animation) Stop() { a.s.stopped = true }

// Restart resets the start time. The animation takes a new importance, so it
// regains control of variables written since it started.
func (a *Animation) Restart() {
	a.s.start = a.now
	a.s.restarts++
	a.s.sleepUntil = time.Time{}
	a.s.importance = a.app.nextImportance()
}

// AnimationHandle controls a running animation. An animation is stopped when
// its handle is garbage collected unless Perm was called.
type AnimationHandle struct {
	s *animationState
}

// Stop ends the animation.
func (h *AnimationHandle) Stop() { h.s.stopped = true }

// IsStopped reports whether the animation ended.
func (h *AnimationHandle) IsStopped() bool { return h.s.stopped }

// Perm detaches the animation from the handle; it runs until it stops itself.
func (h *AnimationHandle) Perm() { h.s.perm = true }

type animations struct {
	running   []*animationState
	nextFrame time.Time
}

// Animate registers fn to run once per frame, starting with the next TICK
// phase, until it stops.
func (a *App) Animate(fn func(*Animation)) *AnimationHandle {
	s := &animationState{
		importance: a.nextImportance(),
		start:      a.clock.Now(),
		fn:         fn,
	}
	a.anims.running = append(a.anims.running, s)
	h := &AnimationHandle{s: s}
	runtime.AddCleanup(h, func(s *animationState) {
		a.Post(func() {
			if !s.perm {
				s.stopped = true
			}
		})
	}, s)
	return h
}

func (a *App) animationsEnabled() bool {
	return a.animConfig.Get().Enabled
}

// tickAnimations runs every due animation closure. Returns true if any ran.
func (a *App) tickAnimations(now time.Time) bool {
	if len(a.anims.running) == 0 || now.Before(a.anims.nextFrame) {
		return false
	}
	a.anims.nextFrame = now.Add(a.frameDuration.Get())
	ran := false
	for _, s := range a.anims.running {
		if s.stopped || now.Before(s.sleepUntil) {
			continue
		}
		a.vars.anim = s
		s.fn(&Animation{app: a, s: s, now: now})
		a.vars.anim = nil
		ran = true
	}
	live := a.anims.running[:0]
	for _, s := range a.anims.running {
		if !s.stopped {
			live = append(live, s)
		}
	}
	for i := len(live); i < len(a.anims.running); i++ {
		a.anims.running[i] = nil
	}
	a.anims.running = live
	return ran
}

// animationDeadline returns when the next animation frame is due.
func (a *App) animationDeadline() (time.Time, bool) {
	var (
		next time.Time
		ok   bool
	)
	for _, s := range a.anims.running {
		if s.stopped {
			continue
		}
		t := a.anims.nextFrame
		if s.sleepUntil.After(t) {
			t = s.sleepUntil
		}
		if !ok || t.Before(next) {
			next, ok = t, true
		}
	}
	return next, ok
}

// --- Easing helpers ---

// Ease animates v from its current value to `to` over d. The easing curve is
// sampled from a gween tween; lerp blends two values by a factor in [0, 1].
func Ease[T any](app *App, v Var[T], to T, d time.Duration, fn ease.TweenFunc, lerp func(from, to T, f float64) T) *AnimationHandle {
	from := v.Get()
	if d <= 0 {
		return app.Animate(func(a *Animation) {
			_ = v.Set(to)
			a.Stop()
		})
	}
	tw := gween.New(0, 1, float32(d.Seconds()), fn)
	return app.Animate(func(a *Animation) {
		f := a.ElapsedStop(d)
		if f >= 1 {
			_ = v.Set(to)
			return
		}
		eased, _ := tw.Set(float32(a.ElapsedDuration().Seconds()))
		_ = v.Set(lerp(from, to, float64(eased)))
	})
}

// EaseFloat animates a float64 variable.
func EaseFloat(app *App, v Var[float64], to float64, d time.Duration, fn ease.TweenFunc) *AnimationHandle {
	return Ease(app, v, to, d, fn, func(a, b, f float64) float64 { return a + (b-a)*f })
}

// EaseColor animates a Color variable.
func EaseColor(app *App, v Var[Color], to Color, d time.Duration, fn ease.TweenFunc) *AnimationHandle {
	return Ease(app, v, to, d, fn, Color.Lerp)
}

// Steps sets v to each value of steps in turn, holding each for interval.
// With repeat the sequence loops until stopped.
func Steps[T any](app *App, v Var[T], steps []T, interval time.Duration, repeat bool) *AnimationHandle {
	i := 0
	return app.Animate(func(a *Animation) {
		if i >= len(steps) {
			if !repeat || len(steps) == 0 {
				a.Stop()
				return
			}
			i = 0
		}
		_ = v.Set(steps[i])
		i++
		a.Sleep(interval)
	})
}
