package reorder

import (
	"math"

	"github.com/roach88/ruleflow/internal/ruleflow"
)

// DefaultClickThreshold is the pointer travel in pixels under which a
// gesture counts as a click rather than a drag.
const DefaultClickThreshold = 4.0

// Row is one package row in display order.
type Row struct {
	ID     string
	Locked bool
}

// RowsOf lists the rows of a configuration in execution order.
func RowsOf(c *ruleflow.Configuration) []Row {
	rows := make([]Row, len(c.Packages))
	for i, p := range c.Packages {
		rows[i] = Row{ID: p.ID, Locked: p.Locked()}
	}
	return rows
}

// Positions reports the displayed top of a row. *Animator implements it.
type Positions interface {
	Position(id string) (float64, bool)
}

// Candidate is a non-dragged row considered during index resolution.
type Candidate struct {
	Center float64
	Locked bool
}

// ResolveIndex returns the insertion index for a dragged row whose center
// is at draggedCenter: the index of the first candidate whose center lies
// below it, or len(others) if none does. While a locked row is among the
// candidates the result is at least 1.
func ResolveIndex(others []Candidate, draggedCenter float64) int {
	idx := len(others)
	for i, o := range others {
		if o.Center > draggedCenter {
			idx = i
			break
		}
	}
	for _, o := range others {
		if o.Locked {
			return max(idx, 1)
		}
	}
	return idx
}

// DropKind classifies the outcome of a gesture.
type DropKind int

const (
	// DropNone: the row was dragged but lands where it started.
	DropNone DropKind = iota
	// DropClick: the pointer barely moved; select the package.
	DropClick
	// DropReorder: emit the carried REORDER_PACKAGE action.
	DropReorder
)

func (k DropKind) String() string {
	switch k {
	case DropClick:
		return "click"
	case DropReorder:
		return "reorder"
	}
	return "none"
}

// DropResult is what a finished gesture produces. Action is set only for
// DropReorder.
type DropResult struct {
	Kind      DropKind
	PackageID string
	Index     int
	Action    *ruleflow.ReorderPackage
}

// Drag tracks one pointer gesture on a package row.
type Drag struct {
	layout    Layout
	rows      []Row
	positions Positions
	threshold float64

	id          string
	originIndex int
	locked      bool

	startPointer float64
	offset       float64 // pointer offset within the row
	currentY     float64 // row top
	travel       float64 // furthest pointer distance from start
	lo, hi       float64
}

// DragOption configures a Drag.
type DragOption func(*Drag)

// WithClickThreshold sets the pointer travel that separates click from drag.
func WithClickThreshold(px float64) DragOption {
	return func(d *Drag) {
		d.threshold = px
	}
}

// WithPositions makes the drag read displayed row tops from p instead of
// logical slots.
func WithPositions(p Positions) DragOption {
	return func(d *Drag) {
		d.positions = p
	}
}

// StartDrag begins a gesture on row id with the pointer at pointerY.
// It returns false if id is not among rows.
func StartDrag(layout Layout, rows []Row, id string, pointerY float64, opts ...DragOption) (*Drag, bool) {
	origin := -1
	for i, r := range rows {
		if r.ID == id {
			origin = i
			break
		}
	}
	if origin < 0 {
		return nil, false
	}

	d := &Drag{
		layout:       layout,
		rows:         append([]Row(nil), rows...),
		threshold:    DefaultClickThreshold,
		id:           id,
		originIndex:  origin,
		locked:       rows[origin].Locked,
		startPointer: pointerY,
	}
	for _, opt := range opts {
		opt(d)
	}

	top := d.top(origin)
	d.offset = pointerY - top
	d.currentY = top
	d.lo, d.hi = layout.Band(len(rows))
	return d, true
}

// PackageID returns the dragged package id.
func (d *Drag) PackageID() string { return d.id }

// OriginIndex returns the dragged row's index when the gesture started.
func (d *Drag) OriginIndex() int { return d.originIndex }

// Y returns the dragged row's current top.
func (d *Drag) Y() float64 { return d.currentY }

// Move follows the pointer, keeping the row inside the valid band.
// The locked row never moves.
func (d *Drag) Move(pointerY float64) {
	d.travel = max(d.travel, math.Abs(pointerY-d.startPointer))
	if d.locked {
		return
	}
	d.currentY = clampf(pointerY-d.offset, d.lo, d.hi)
}

// Index resolves the insertion index for the row's current position.
func (d *Drag) Index() int {
	others := make([]Candidate, 0, len(d.rows)-1)
	for i, r := range d.rows {
		if i == d.originIndex {
			continue
		}
		others = append(others, Candidate{
			Center: d.layout.Center(d.top(i)),
			Locked: r.Locked,
		})
	}
	return ResolveIndex(others, d.layout.Center(d.currentY))
}

// Drop ends the gesture with the pointer at pointerY.
func (d *Drag) Drop(pointerY float64) DropResult {
	d.Move(pointerY)
	res := DropResult{Kind: DropNone, PackageID: d.id, Index: d.originIndex}
	if d.travel <= d.threshold {
		res.Kind = DropClick
		return res
	}
	if d.locked {
		return res
	}
	idx := d.Index()
	if idx == d.originIndex {
		return res
	}
	res.Kind = DropReorder
	res.Index = idx
	res.Action = &ruleflow.ReorderPackage{ID: d.id, NewIndex: idx}
	return res
}

// top returns the displayed top of the row at index i.
func (d *Drag) top(i int) float64 {
	if d.positions != nil {
		if y, ok := d.positions.Position(d.rows[i].ID); ok {
			return y
		}
	}
	return d.layout.SlotTop(i)
}
