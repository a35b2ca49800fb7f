package reducer

import (
	"slices"

	"github.com/roach88/ruleflow/internal/ruleflow"
)

// findRule returns the package and rule addressed by an action, or nils.
func findRule(c *ruleflow.Configuration, packageID, ruleID string) (*ruleflow.Package, int) {
	pidx := c.PackageIndex(packageID)
	if pidx < 0 {
		return nil, -1
	}
	p := &c.Packages[pidx]
	ridx := p.RuleIndex(ruleID)
	if ridx < 0 {
		return nil, -1
	}
	return p, ridx
}

func (r *Reducer) addRule(c *ruleflow.Configuration, a ruleflow.AddRule) {
	pidx := c.PackageIndex(a.PackageID)
	if pidx < 0 {
		return
	}
	rule := a.Rule.Clone()
	rule.ID = r.usableID(c, rule.ID, make(map[string]bool))
	rule.Code = ruleflow.RegenerateCode(rule)
	c.Packages[pidx].Rules = append(c.Packages[pidx].Rules, rule)
}

func updateRule(c *ruleflow.Configuration, a ruleflow.UpdateRule) {
	p, idx := findRule(c, a.PackageID, a.RuleID)
	if p == nil {
		return
	}
	rule := &p.Rules[idx]
	if a.Fields.Name != nil {
		rule.Name = *a.Fields.Name
	}
	if a.Fields.Code != nil {
		// Raw code edits replace the structured decomposition.
		rule.Code = *a.Fields.Code
		rule.FreeCode = nil
		rule.OutputAssignments = nil
	}
	if a.Fields.Condition.Set {
		rule.Condition = copyString(a.Fields.Condition.Value)
	}
}

func deleteRule(c *ruleflow.Configuration, a ruleflow.DeleteRule) {
	p, idx := findRule(c, a.PackageID, a.RuleID)
	if p == nil {
		return
	}
	p.Rules = slices.Delete(p.Rules, idx, idx+1)
}

func moveRule(c *ruleflow.Configuration, a ruleflow.MoveRule) {
	p, idx := findRule(c, a.PackageID, a.RuleID)
	if p == nil {
		return
	}
	target, ok := neighbour(idx, len(p.Rules), a.Direction)
	if !ok {
		return
	}
	p.Rules[idx], p.Rules[target] = p.Rules[target], p.Rules[idx]
}

func updateRuleFreeCode(c *ruleflow.Configuration, a ruleflow.UpdateRuleFreeCode) {
	p, idx := findRule(c, a.PackageID, a.RuleID)
	if p == nil {
		return
	}
	rule := &p.Rules[idx]
	rule.FreeCode = ruleflow.Ptr(a.FreeCode)
	recompose(rule)
}

func addOutputAssignment(c *ruleflow.Configuration, a ruleflow.AddOutputAssignment) {
	p, idx := findRule(c, a.PackageID, a.RuleID)
	if p == nil {
		return
	}
	rule := &p.Rules[idx]
	rule.OutputAssignments = append(rule.OutputAssignments, a.Assignment.Clone())
	recompose(rule)
}

func updateOutputAssignment(c *ruleflow.Configuration, a ruleflow.UpdateOutputAssignment) {
	p, idx := findRule(c, a.PackageID, a.RuleID)
	if p == nil {
		return
	}
	rule := &p.Rules[idx]
	if a.Index < 0 || a.Index >= len(rule.OutputAssignments) {
		return
	}
	out := &rule.OutputAssignments[a.Index]
	if a.Fields.Attribute != nil {
		out.Attribute = *a.Fields.Attribute
	}
	if a.Fields.Value != nil {
		out.Value = *a.Fields.Value
	}
	if a.Fields.SourceLine != nil {
		line := *a.Fields.SourceLine
		out.SourceLine = &line
	}
	recompose(rule)
}

func deleteOutputAssignment(c *ruleflow.Configuration, a ruleflow.DeleteOutputAssignment) {
	p, idx := findRule(c, a.PackageID, a.RuleID)
	if p == nil {
		return
	}
	rule := &p.Rules[idx]
	if a.Index < 0 || a.Index >= len(rule.OutputAssignments) {
		return
	}
	rule.OutputAssignments = slices.Delete(rule.OutputAssignments, a.Index, a.Index+1)
	recompose(rule)
}

// recompose rewrites Code from the structured parts, even when the last
// assignment was just removed.
func recompose(rule *ruleflow.Rule) {
	rule.Code = ruleflow.ComposeCode(rule.FreeCode, rule.OutputAssignments)
}
