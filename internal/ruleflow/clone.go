package ruleflow

import "slices"

// Clone returns a deep copy of c sharing no memory with it.
// Nil slices stay nil so that a clone hashes identically to its source.
func (c *Configuration) Clone() *Configuration {
	if c == nil {
		return nil
	}
	out := &Configuration{
		Version:         c.Version,
		Metadata:        c.Metadata,
		Imports:         slices.Clone(c.Imports),
		Constants:       slices.Clone(c.Constants),
		HelperFunctions: slices.Clone(c.HelperFunctions),
	}
	if c.Packages != nil {
		out.Packages = make([]Package, len(c.Packages))
		for i, p := range c.Packages {
			out.Packages[i] = p.Clone()
		}
	}
	return out
}

// Clone returns a deep copy of p.
func (p Package) Clone() Package {
	out := p
	out.Condition = clonePtr(p.Condition)
	if p.Rules != nil {
		out.Rules = make([]Rule, len(p.Rules))
		for i, r := range p.Rules {
			out.Rules[i] = r.Clone()
		}
	}
	return out
}

// Clone returns a deep copy of r.
func (r Rule) Clone() Rule {
	out := r
	out.Condition = clonePtr(r.Condition)
	out.FreeCode = clonePtr(r.FreeCode)
	if r.OutputAssignments != nil {
		out.OutputAssignments = make([]OutputAssignment, len(r.OutputAssignments))
		for i, a := range r.OutputAssignments {
			out.OutputAssignments[i] = a.Clone()
		}
	}
	return out
}

// Clone returns a deep copy of a.
func (a OutputAssignment) Clone() OutputAssignment {
	out := a
	out.SourceLine = clonePtr(a.SourceLine)
	return out
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
