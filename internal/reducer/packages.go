package reducer

import (
	"slices"

	"github.com/roach88/ruleflow/internal/ruleflow"
)

func (r *Reducer) addPackage(c *ruleflow.Configuration, a ruleflow.AddPackage) {
	p := a.Package.Clone()
	hasLocked := c.LockedIndex() >= 0
	if p.Locked() && hasLocked {
		return
	}

	taken := make(map[string]bool)
	p.ID = r.usableID(c, p.ID, taken)
	for i := range p.Rules {
		p.Rules[i].ID = r.usableID(c, p.Rules[i].ID, taken)
		p.Rules[i].Code = ruleflow.RegenerateCode(p.Rules[i])
	}

	idx := len(c.Packages)
	if a.InsertIndex != nil {
		idx = clamp(*a.InsertIndex, 0, len(c.Packages))
	}
	if hasLocked && idx < 1 {
		idx = 1
	}
	c.Packages = slices.Insert(c.Packages, idx, p)
}

func updatePackage(c *ruleflow.Configuration, a ruleflow.UpdatePackage) {
	idx := c.PackageIndex(a.ID)
	if idx < 0 {
		return
	}
	p := &c.Packages[idx]
	// Renames may not create or remove the locked package.
	if a.Fields.Name != nil && (*a.Fields.Name == ruleflow.LockedPackageName) == p.Locked() {
		p.Name = *a.Fields.Name
	}
	if a.Fields.Condition.Set {
		p.Condition = copyString(a.Fields.Condition.Value)
	}
}

func deletePackage(c *ruleflow.Configuration, a ruleflow.DeletePackage) {
	idx := c.PackageIndex(a.ID)
	if idx < 0 || c.Packages[idx].Locked() {
		return
	}
	c.Packages = slices.Delete(c.Packages, idx, idx+1)
}

func movePackage(c *ruleflow.Configuration, a ruleflow.MovePackage) {
	idx := c.PackageIndex(a.ID)
	if idx < 0 || c.Packages[idx].Locked() {
		return
	}
	target, ok := neighbour(idx, len(c.Packages), a.Direction)
	if !ok || c.Packages[target].Locked() {
		return
	}
	c.Packages[idx], c.Packages[target] = c.Packages[target], c.Packages[idx]
}

func reorderPackage(c *ruleflow.Configuration, a ruleflow.ReorderPackage) {
	idx := c.PackageIndex(a.ID)
	if idx < 0 || c.Packages[idx].Locked() {
		return
	}
	// Index 0 is reserved while a locked package exists.
	lo := 0
	if c.LockedIndex() >= 0 {
		lo = 1
	}
	p := c.Packages[idx]
	rest := slices.Delete(c.Packages, idx, idx+1)
	c.Packages = slices.Insert(rest, clamp(a.NewIndex, lo, len(rest)), p)
}

// neighbour returns the index adjacent to idx in direction d, if any.
func neighbour(idx, n int, d ruleflow.Direction) (int, bool) {
	var target int
	switch d {
	case ruleflow.Up:
		target = idx - 1
	case ruleflow.Down:
		target = idx + 1
	default:
		return 0, false
	}
	if target < 0 || target >= n {
		return 0, false
	}
	return target, true
}

func copyString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
