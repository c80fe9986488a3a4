package arbor

import (
	"runtime"
	"time"
)

type timer struct {
	deadline time.Time
	interval time.Duration
	count    int
	stopped  bool
	perm     bool
	fn       func(count int)
}

// TimerHandle controls a timer. A timer stops when its handle is garbage
// collected unless Perm was called.
type TimerHandle struct {
	t *timer
}

// Stop cancels the timer.
func (h *TimerHandle) Stop() { h.t.stopped = true }

// IsStopped reports whether the timer was canceled or a timeout already fired.
func (h *TimerHandle) IsStopped() bool { return h.t.stopped }

// Count returns how many times the timer fired.
func (h *TimerHandle) Count() int { return h.t.count }

// Perm detaches the timer from the handle.
func (h *TimerHandle) Perm() { h.t.perm = true }

type timers struct {
	list []*timer
}

// OnTimeout calls fn once, in the TICK phase of the first cycle after d.
func (a *App) OnTimeout(d time.Duration, fn func()) *TimerHandle {
	return a.addTimer(d, 0, func(int) { fn() })
}

// OnInterval calls fn every interval d with the number of times it fired,
// starting at 1.
func (a *App) OnInterval(d time.Duration, fn func(count int)) *TimerHandle {
	if d <= 0 {
		d = a.frameDuration.Get()
	}
	return a.addTimer(d, d, fn)
}

func (a *App) addTimer(d, interval time.Duration, fn func(int)) *TimerHandle {
	t := &timer{deadline: a.clock.Now().Add(d), interval: interval, fn: fn}
	a.timers.list = append(a.timers.list, t)
	h := &TimerHandle{t: t}
	runtime.AddCleanup(h, func(t *timer) {
		a.Post(func() {
			if !t.perm {
				t.stopped = true
			}
		})
	}, t)
	a.wakeUp()
	return h
}

// tick fires every due timer. Timers added by callbacks wait for the next
// tick.
func (ts *timers) tick(now time.Time) {
	n := len(ts.list)
	for i := 0; i < n; i++ {
		t := ts.list[i]
		if t.stopped || now.Before(t.deadline) {
			continue
		}
		t.count++
		if t.interval > 0 {
			for !t.deadline.After(now) {
				t.deadline = t.deadline.Add(t.interval)
			}
		} else {
			t.stopped = true
		}
		t.fn(t.count)
	}
	live := ts.list[:0]
	for _, t := range ts.list {
		if !t.stopped {
			live = append(live, t)
		}
	}
	for i := len(live); i < len(ts.list); i++ {
		ts.list[i] = nil
	}
	ts.list = live
}

func (ts *timers) deadline() (time.Time, bool) {
	var (
		next time.Time
		ok   bool
	)
	for _, t := range ts.list {
		if t.stopped {
			continue
		}
		if !ok || t.deadline.Before(next) {
			next, ok = t.deadline, true
		}
	}
	return next, ok
}
