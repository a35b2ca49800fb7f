package ruleflow

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned by gateways when no document exists for a key.
var ErrNotFound = errors.New("configuration not found")

// InvariantCode identifies which document invariant was broken.
type InvariantCode string

const (
	// InvOrderMismatch: a package's execution_order differs from its index.
	InvOrderMismatch InvariantCode = "ORDER_MISMATCH"

	// InvLockedDisplaced: the locked package is not at index 0.
	InvLockedDisplaced InvariantCode = "LOCKED_DISPLACED"

	// InvDuplicateLocked: more than one package carries the locked name.
	InvDuplicateLocked InvariantCode = "DUPLICATE_LOCKED"

	// InvDuplicateID: an id is reused within its scope.
	InvDuplicateID InvariantCode = "DUPLICATE_ID"

	// InvEmptyID: a package or rule has no id.
	InvEmptyID InvariantCode = "EMPTY_ID"
)

// InvariantError describes one broken document invariant.
type InvariantError struct {
	Code    InvariantCode
	Path    string // e.g. "packages[2].rules[0]"
	Message string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("%s: %s: %s", e.Code, e.Path, e.Message)
}

// IsInvariantError reports whether err wraps an InvariantError with the given code.
func IsInvariantError(err error, code InvariantCode) bool {
	var ie *InvariantError
	if errors.As(err, &ie) {
		return ie.Code == code
	}
	return false
}

// Validate checks the structural invariants of c and returns every violation
// joined into a single error, or nil.
func Validate(c *Configuration) error {
	var errs []error
	add := func(code InvariantCode, path, format string, args ...any) {
		errs = append(errs, &InvariantError{Code: code, Path: path, Message: fmt.Sprintf(format, args...)})
	}

	packageIDs := make(map[string]int, len(c.Packages))
	locked := 0
	for i, p := range c.Packages {
		path := fmt.Sprintf("packages[%d]", i)
		if p.ExecutionOrder != i {
			add(InvOrderMismatch, path, "execution_order is %d", p.ExecutionOrder)
		}
		if p.Locked() {
			locked++
			if i != 0 {
				add(InvLockedDisplaced, path, "locked package must be at index 0")
			}
			if locked > 1 {
				add(InvDuplicateLocked, path, "only one %q package is allowed", LockedPackageName)
			}
		}
		if p.ID == "" {
			add(InvEmptyID, path, "package id is empty")
		} else if prev, ok := packageIDs[p.ID]; ok {
			add(InvDuplicateID, path, "package id %q already used by packages[%d]", p.ID, prev)
		} else {
			packageIDs[p.ID] = i
		}

		ruleIDs := make(map[string]int, len(p.Rules))
		for j, r := range p.Rules {
			rpath := fmt.Sprintf("%s.rules[%d]", path, j)
			if r.ID == "" {
				add(InvEmptyID, rpath, "rule id is empty")
				continue
			}
			if prev, ok := ruleIDs[r.ID]; ok {
				add(InvDuplicateID, rpath, "rule id %q already used by rules[%d]", r.ID, prev)
				continue
			}
			ruleIDs[r.ID] = j
		}
	}
	return errors.Join(errs...)
}

// LockedIndex returns the index of the locked package, or -1.
func (c *Configuration) LockedIndex() int {
	for i, p := range c.Packages {
		if p.Locked() {
			return i
		}
	}
	return -1
}

// PackageIndex returns the index of the package with the given id, or -1.
func (c *Configuration) PackageIndex(id string) int {
	for i, p := range c.Packages {
		if p.ID == id {
			return i
		}
	}
	return -1
}

// RuleIndex returns the index of the rule with ruleID inside p, or -1.
func (p Package) RuleIndex(ruleID string) int {
	for i, r := range p.Rules {
		if r.ID == ruleID {
			return i
		}
	}
	return -1
}

// HasID reports whether id is used by any package or rule in c.
func (c *Configuration) HasID(id string) bool {
	for _, p := range c.Packages {
		if p.ID == id {
			return true
		}
		for _, r := range p.Rules {
			if r.ID == id {
				return true
			}
		}
	}
	return false
}
