package harness

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/roach88/ruleflow/internal/ruleflow"
	"github.com/roach88/ruleflow/internal/session"
)

// AssertionError is returned when an expectation fails.
type AssertionError struct {
	Step     int // -1 for the final expectation
	Field    string
	Expected string
	Actual   string
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	where := "final"
	if e.Step >= 0 {
		where = fmt.Sprintf("steps[%d]", e.Step)
	}
	return fmt.Sprintf("%s: %s: expected %s, got %s", where, e.Field, e.Expected, e.Actual)
}

// checkExpectation compares the editor's state against exp. changed is
// whether the step being checked altered the document.
func checkExpectation(ctx context.Context, ed *session.Editor, step int, exp *Expectation, changed bool) []error {
	if exp == nil {
		return nil
	}
	var errs []error
	fail := func(field string, expected, actual any) {
		errs = append(errs, &AssertionError{
			Step:     step,
			Field:    field,
			Expected: fmt.Sprint(expected),
			Actual:   fmt.Sprint(actual),
		})
	}

	cfg := ed.Snapshot()

	if exp.Packages != nil {
		if got := packageNames(cfg); !slices.Equal(got, exp.Packages) {
			fail("packages", exp.Packages, got)
		}
	}

	for _, pkg := range slices.Sorted(maps.Keys(exp.Rules)) {
		want := exp.Rules[pkg]
		idx := packageByName(cfg, pkg)
		if idx < 0 {
			fail("rules["+pkg+"]", want, "no such package")
			continue
		}
		if got := ruleNames(cfg.Packages[idx]); !slices.Equal(got, want) {
			fail("rules["+pkg+"]", want, got)
		}
	}

	for _, ref := range slices.Sorted(maps.Keys(exp.Code)) {
		want := exp.Code[ref]
		r, ok := ruleByPath(cfg, ref)
		if !ok {
			fail("code["+ref+"]", fmt.Sprintf("%q", want), "no such rule")
			continue
		}
		if r.Code != want {
			fail("code["+ref+"]", fmt.Sprintf("%q", want), fmt.Sprintf("%q", r.Code))
		}
	}

	if exp.Changed != nil && *exp.Changed != changed {
		fail("changed", *exp.Changed, changed)
	}
	if exp.Modified != nil && *exp.Modified != ed.IsModified() {
		fail("modified", *exp.Modified, ed.IsModified())
	}
	if exp.CanUndo != nil && *exp.CanUndo != ed.CanUndo() {
		fail("can_undo", *exp.CanUndo, ed.CanUndo())
	}
	if exp.CanRedo != nil && *exp.CanRedo != ed.CanRedo() {
		fail("can_redo", *exp.CanRedo, ed.CanRedo())
	}
	if exp.Versions != nil {
		versions, _ := ed.Versions()
		if len(versions) != *exp.Versions {
			fail("versions", *exp.Versions, len(versions))
		}
	}

	if len(exp.Generated) > 0 {
		art, err := ed.Generate(ctx)
		if err != nil {
			fail("generated", "generation to succeed", err)
		} else {
			for _, want := range exp.Generated {
				if !strings.Contains(art.Source, want) {
					fail("generated", fmt.Sprintf("source containing %q", want), "no match")
				}
			}
		}
	}

	return errs
}

func packageNames(cfg *ruleflow.Configuration) []string {
	if cfg == nil {
		return []string{}
	}
	names := make([]string, len(cfg.Packages))
	for i, p := range cfg.Packages {
		names[i] = p.Name
	}
	return names
}

func ruleNames(p ruleflow.Package) []string {
	names := make([]string, len(p.Rules))
	for i, r := range p.Rules {
		names[i] = r.Name
	}
	return names
}

// packageByName returns the index of the first package called name, or -1.
func packageByName(cfg *ruleflow.Configuration, name string) int {
	if cfg == nil {
		return -1
	}
	return slices.IndexFunc(cfg.Packages, func(p ruleflow.Package) bool {
		return p.Name == name
	})
}

// ruleByPath finds a rule addressed as "<package name>/<rule name>".
func ruleByPath(cfg *ruleflow.Configuration, path string) (ruleflow.Rule, bool) {
	pkg, rule, ok := strings.Cut(path, "/")
	if !ok {
		return ruleflow.Rule{}, false
	}
	idx := packageByName(cfg, pkg)
	if idx < 0 {
		return ruleflow.Rule{}, false
	}
	for _, r := range cfg.Packages[idx].Rules {
		if r.Name == rule {
			return r, true
		}
	}
	return ruleflow.Rule{}, false
}
