package ruleflow

import "time"

// FormatVersion is the only document format marker currently understood.
const FormatVersion = "1.0"

// LockedPackageName is the reserved name of the package that always runs first.
const LockedPackageName = "package_initialisations"

// TimestampLayout is the layout of Metadata timestamps.
const TimestampLayout = time.RFC3339

// Configuration is the root ruleflow document.
type Configuration struct {
	Version         string    `json:"version"`
	Metadata        Metadata  `json:"metadata"`
	Imports         []string  `json:"imports"`
	Constants       []string  `json:"constants"`
	HelperFunctions []string  `json:"helper_functions"`
	Packages        []Package `json:"packages"`
}

// Metadata identifies the application and runtime a document belongs to.
type Metadata struct {
	AppID      string `json:"app_id"`
	ClassName  string `json:"class_name"`
	CreatedAt  string `json:"created_at"`
	ModifiedAt string `json:"modified_at"`
	RuntimeID  string `json:"runtime_id"`
}

// Package is an ordered, optionally conditioned group of rules.
type Package struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	Condition      *string `json:"condition"`       // nil means unconditional
	ExecutionOrder int     `json:"execution_order"` // always equal to slice index
	Rules          []Rule  `json:"rules"`
}

// Locked reports whether p is the pinned first package.
func (p Package) Locked() bool {
	return p.Name == LockedPackageName
}

// Rule is a single named logic fragment inside a package.
type Rule struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Code      string  `json:"code"`
	Condition *string `json:"condition"` // nil means always runs with its package

	// FreeCode and OutputAssignments decompose Code for the structured
	// editing view. When either is present Code is regenerated from them.
	FreeCode          *string            `json:"freeCode,omitempty"`
	OutputAssignments []OutputAssignment `json:"outputAssignments,omitempty"`
}

// Structured reports whether the rule carries a structured decomposition.
func (r Rule) Structured() bool {
	return r.FreeCode != nil || len(r.OutputAssignments) > 0
}

// OutputAssignment sets one output attribute of the rule engine.
type OutputAssignment struct {
	Attribute  string `json:"attribute"`
	Value      string `json:"value"`
	SourceLine *int   `json:"sourceLine,omitempty"`
}

// Ptr returns a pointer to v. Handy for optional document fields.
func Ptr[T any](v T) *T {
	return &v
}
