package reorder

// Layout maps execution order to vertical slot positions.
type Layout struct {
	SlotHeight float64
	BaseOffset float64
}

// DefaultLayout matches the ruleflow diagram's package rows.
func DefaultLayout() Layout {
	return Layout{SlotHeight: 120, BaseOffset: 40}
}

// SlotTop returns the logical top of the slot at order.
func (l Layout) SlotTop(order int) float64 {
	return float64(order)*l.SlotHeight + l.BaseOffset
}

// Center returns the center of a row whose top is at top.
func (l Layout) Center(top float64) float64 {
	return top + l.SlotHeight/2
}

// Band returns the range a dragged row's top may occupy in a list of n rows:
// from one slot above the first slot to the top of the last slot.
func (l Layout) Band(n int) (lo, hi float64) {
	if n <= 0 {
		return l.BaseOffset - l.SlotHeight, l.BaseOffset
	}
	lastBottom := l.SlotTop(n-1) + l.SlotHeight
	return l.SlotTop(0) - l.SlotHeight, lastBottom - l.SlotHeight
}

func clampf(v, lo, hi float64) float64 {
	return max(lo, min(v, hi))
}
