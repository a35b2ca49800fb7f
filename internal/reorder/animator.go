package reorder

import (
	"context"
	"math"
	"time"
)

// DefaultDuration is how long a row takes to reach a new slot.
const DefaultDuration = time.Second

// SettleThreshold is the distance in pixels under which a row counts as settled.
const SettleThreshold = 0.5

type tween struct {
	from, to, current float64
	start             time.Time
}

// Animator eases rows from their displayed position to their logical slot
// by linear interpolation over a fixed duration.
//
// Thread-safety: NOT safe for concurrent use.
type Animator struct {
	layout   Layout
	duration time.Duration
	tweens   map[string]*tween
	detached map[string]bool
}

// AnimatorOption configures an Animator.
type AnimatorOption func(*Animator)

// WithDuration sets the easing duration.
func WithDuration(d time.Duration) AnimatorOption {
	return func(a *Animator) {
		if d > 0 {
			a.duration = d
		}
	}
}

// NewAnimator creates an Animator with no rows.
func NewAnimator(layout Layout, opts ...AnimatorOption) *Animator {
	a := &Animator{
		layout:   layout,
		duration: DefaultDuration,
		tweens:   make(map[string]*tween),
		detached: make(map[string]bool),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// SetOrder retargets rows to the slots of ids, in order. Rows seen for the
// first time appear settled at their slot; rows no longer listed are dropped.
func (a *Animator) SetOrder(ids []string, now time.Time) {
	seen := make(map[string]bool, len(ids))
	for i, id := range ids {
		seen[id] = true
		target := a.layout.SlotTop(i)
		t, ok := a.tweens[id]
		if !ok {
			a.tweens[id] = &tween{from: target, to: target, current: target, start: now}
			continue
		}
		if t.to != target {
			t.from, t.to, t.start = t.current, target, now
		}
	}
	for id := range a.tweens {
		if !seen[id] {
			delete(a.tweens, id)
			delete(a.detached, id)
		}
	}
}

// Position returns the displayed top of a row.
func (a *Animator) Position(id string) (float64, bool) {
	t, ok := a.tweens[id]
	if !ok {
		return 0, false
	}
	return t.current, true
}

// Target returns the logical slot top a row is easing toward.
func (a *Animator) Target(id string) (float64, bool) {
	t, ok := a.tweens[id]
	if !ok {
		return 0, false
	}
	return t.to, true
}

// Detach removes a row from the animated pool while it is being dragged.
func (a *Animator) Detach(id string) {
	if _, ok := a.tweens[id]; ok {
		a.detached[id] = true
	}
}

// Attach returns a dragged row to the pool, easing from y to its slot.
func (a *Animator) Attach(id string, y float64, now time.Time) {
	t, ok := a.tweens[id]
	if !ok {
		return
	}
	delete(a.detached, id)
	t.from, t.current, t.start = y, y, now
}

// Tick advances every attached row to its position at now and reports
// whether any row is still moving.
func (a *Animator) Tick(now time.Time) bool {
	moving := false
	for id, t := range a.tweens {
		if a.detached[id] {
			continue
		}
		progress := 1.0
		if a.duration > 0 {
			progress = clampf(float64(now.Sub(t.start))/float64(a.duration), 0, 1)
		}
		t.current = t.from + (t.to-t.from)*progress
		if math.Abs(t.current-t.to) > SettleThreshold {
			moving = true
		}
	}
	return moving
}

// Settled reports whether every attached row is within SettleThreshold of its slot.
func (a *Animator) Settled() bool {
	for id, t := range a.tweens {
		if a.detached[id] {
			continue
		}
		if math.Abs(t.current-t.to) > SettleThreshold {
			return false
		}
	}
	return true
}

// Run ticks on every frame until all rows settle or ctx is done.
// It returns ctx.Err() when cancelled and nil once settled or when frames closes.
func (a *Animator) Run(ctx context.Context, frames <-chan time.Time) error {
	if a.Settled() {
		return nil
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now, ok := <-frames:
			if !ok {
				return nil
			}
			if !a.Tick(now) {
				return nil
			}
		}
	}
}

// RunEvery drives Run from a ticker firing every interval and tears the
// ticker down on return.
func (a *Animator) RunEvery(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	return a.Run(ctx, ticker.C)
}
