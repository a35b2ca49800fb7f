package reducer

import (
	"io"
	"log/slog"
	"slices"

	"github.com/roach88/ruleflow/internal/ruleflow"
)

// Reducer maps (snapshot, action) to a new snapshot.
//
// The only state a Reducer holds is its id generator, which is consulted
// when an ADD action arrives without a usable pre-assigned id.
type Reducer struct {
	ids    ruleflow.IDGenerator
	logger *slog.Logger
}

// Option configures a Reducer.
type Option func(*Reducer)

// WithLogger sets the logger used for diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(r *Reducer) {
		r.logger = l
	}
}

// New creates a Reducer drawing fresh ids from ids.
// A nil generator defaults to UUIDv7Generator.
func New(ids ruleflow.IDGenerator, opts ...Option) *Reducer {
	if ids == nil {
		ids = UUIDv7Generator{}
	}
	r := &Reducer{
		ids:    ids,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Prepare stamps fresh ids onto ADD actions so that the action recorded in
// an action log replays to the same document. Prepare replaces any ids the
// caller supplied; Apply then keeps a stamped id as long as it is unused in
// the document it lands in. Other actions are returned unchanged.
func (r *Reducer) Prepare(cfg *ruleflow.Configuration, a ruleflow.Action) ruleflow.Action {
	if cfg == nil {
		cfg = &ruleflow.Configuration{}
	}
	taken := make(map[string]bool)
	switch act := a.(type) {
	case ruleflow.AddPackage:
		act.Package = act.Package.Clone()
		act.Package.ID = r.freshID(cfg, taken)
		for i := range act.Package.Rules {
			act.Package.Rules[i].ID = r.freshID(cfg, taken)
		}
		return act
	case ruleflow.AddRule:
		act.Rule = act.Rule.Clone()
		act.Rule.ID = r.freshID(cfg, taken)
		return act
	}
	return a
}

// Apply returns the snapshot that results from applying a to cfg.
// cfg is never mutated. A nil cfg is treated as an empty document.
func (r *Reducer) Apply(cfg *ruleflow.Configuration, a ruleflow.Action) (*ruleflow.Configuration, error) {
	var next *ruleflow.Configuration
	if cfg == nil {
		next = &ruleflow.Configuration{Version: ruleflow.FormatVersion}
	} else {
		next = cfg.Clone()
	}

	switch act := a.(type) {
	case ruleflow.AddPackage:
		r.addPackage(next, act)
	case ruleflow.UpdatePackage:
		updatePackage(next, act)
	case ruleflow.DeletePackage:
		deletePackage(next, act)
	case ruleflow.MovePackage:
		movePackage(next, act)
	case ruleflow.ReorderPackage:
		reorderPackage(next, act)
	case ruleflow.AddRule:
		r.addRule(next, act)
	case ruleflow.UpdateRule:
		updateRule(next, act)
	case ruleflow.DeleteRule:
		deleteRule(next, act)
	case ruleflow.MoveRule:
		moveRule(next, act)
	case ruleflow.UpdateRuleFreeCode:
		updateRuleFreeCode(next, act)
	case ruleflow.AddOutputAssignment:
		addOutputAssignment(next, act)
	case ruleflow.UpdateOutputAssignment:
		updateOutputAssignment(next, act)
	case ruleflow.DeleteOutputAssignment:
		deleteOutputAssignment(next, act)
	default:
		t := ruleflow.ActionType("<nil>")
		if a != nil {
			t = a.Type()
		}
		r.logger.Error("unknown action", "type", t)
		return nil, NewUnknownActionError(t)
	}

	normalize(next)
	return next, nil
}

// ApplyAll folds actions over cfg, stopping at the first error.
func (r *Reducer) ApplyAll(cfg *ruleflow.Configuration, actions ...ruleflow.Action) (*ruleflow.Configuration, error) {
	cur := cfg
	for _, a := range actions {
		next, err := r.Apply(cur, a)
		if err != nil {
			return nil, err
		}
		cur = next
	}
	if cur == cfg {
		return cfg.Clone(), nil
	}
	return cur, nil
}

// normalize pins the locked package at index 0 and rewrites every
// ExecutionOrder from list position.
func normalize(c *ruleflow.Configuration) {
	if li := c.LockedIndex(); li > 0 {
		locked := c.Packages[li]
		c.Packages = slices.Delete(c.Packages, li, li+1)
		c.Packages = slices.Insert(c.Packages, 0, locked)
	}
	for i := range c.Packages {
		c.Packages[i].ExecutionOrder = i
	}
}

// freshID draws ids until one is unused in c and not in taken.
func (r *Reducer) freshID(c *ruleflow.Configuration, taken map[string]bool) string {
	for {
		id := r.ids.Generate()
		if id != "" && !taken[id] && !c.HasID(id) {
			taken[id] = true
			return id
		}
	}
}

// usableID keeps a stamped id if it is non-empty and unused, otherwise
// draws a fresh one.
func (r *Reducer) usableID(c *ruleflow.Configuration, id string, taken map[string]bool) string {
	if id != "" && !taken[id] && !c.HasID(id) {
		taken[id] = true
		return id
	}
	return r.freshID(c, taken)
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}
