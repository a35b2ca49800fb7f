package ruleflow

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ActionType is the wire tag of an action.
type ActionType string

// The closed action vocabulary. These strings are a stable wire contract.
const (
	ActionAddPackage             ActionType = "ADD_PACKAGE"
	ActionUpdatePackage          ActionType = "UPDATE_PACKAGE"
	ActionDeletePackage          ActionType = "DELETE_PACKAGE"
	ActionMovePackage            ActionType = "MOVE_PACKAGE"
	ActionReorderPackage         ActionType = "REORDER_PACKAGE"
	ActionAddRule                ActionType = "ADD_RULE"
	ActionUpdateRule             ActionType = "UPDATE_RULE"
	ActionDeleteRule             ActionType = "DELETE_RULE"
	ActionMoveRule               ActionType = "MOVE_RULE"
	ActionUpdateRuleFreeCode     ActionType = "UPDATE_RULE_FREE_CODE"
	ActionAddOutputAssignment    ActionType = "ADD_OUTPUT_ASSIGNMENT"
	ActionUpdateOutputAssignment ActionType = "UPDATE_OUTPUT_ASSIGNMENT"
	ActionDeleteOutputAssignment ActionType = "DELETE_OUTPUT_ASSIGNMENT"
)

// ActionTypes lists every known action tag in declaration order.
var ActionTypes = []ActionType{
	ActionAddPackage,
	ActionUpdatePackage,
	ActionDeletePackage,
	ActionMovePackage,
	ActionReorderPackage,
	ActionAddRule,
	ActionUpdateRule,
	ActionDeleteRule,
	ActionMoveRule,
	ActionUpdateRuleFreeCode,
	ActionAddOutputAssignment,
	ActionUpdateOutputAssignment,
	ActionDeleteOutputAssignment,
}

// ErrUnknownAction is wrapped by every error caused by an unrecognized action tag.
var ErrUnknownAction = errors.New("unknown action type")

// Action is one discrete edit. The set of implementations is closed:
// only types in this package satisfy it.
type Action interface {
	Type() ActionType
	// Describe returns a short human description used for history entries.
	Describe() string
	action()
}

// Direction is the direction of a single-step move.
type Direction string

const (
	Up   Direction = "up"
	Down Direction = "down"
)

// NullableString is a partial-update field that distinguishes "not set"
// from "set to null".
type NullableString struct {
	Set   bool
	Value *string
}

// SetTo returns a NullableString that sets the field to s.
func SetTo(s string) NullableString {
	return NullableString{Set: true, Value: &s}
}

// SetNull returns a NullableString that clears the field.
func SetNull() NullableString {
	return NullableString{Set: true}
}

// IsZero lets `omitzero` drop unset fields.
func (n NullableString) IsZero() bool { return !n.Set }

func (n NullableString) MarshalJSON() ([]byte, error) {
	return json.Marshal(n.Value)
}

func (n *NullableString) UnmarshalJSON(data []byte) error {
	n.Set = true
	if string(data) == "null" {
		n.Value = nil
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	n.Value = &s
	return nil
}

// AddPackage inserts a package. Ids already used in the document are
// replaced by fresh ones.
type AddPackage struct {
	Package     Package `json:"package"`
	InsertIndex *int    `json:"insert_index,omitempty"` // nil appends
}

// PackageFields are the mutable fields of a package.
type PackageFields struct {
	Name      *string        `json:"name,omitempty"`
	Condition NullableString `json:"condition,omitzero"`
}

// UpdatePackage shallow-merges Fields into the package with the given id.
type UpdatePackage struct {
	ID     string        `json:"id"`
	Fields PackageFields `json:"fields"`
}

// DeletePackage removes a package.
type DeletePackage struct {
	ID string `json:"id"`
}

// MovePackage swaps a package with its neighbour.
type MovePackage struct {
	ID        string    `json:"id"`
	Direction Direction `json:"direction"`
}

// ReorderPackage moves a package to an arbitrary index.
type ReorderPackage struct {
	ID       string `json:"id"`
	NewIndex int    `json:"new_index"`
}

// AddRule appends a rule to a package. An id already used in the document
// is replaced by a fresh one.
type AddRule struct {
	PackageID string `json:"package_id"`
	Rule      Rule   `json:"rule"`
}

// RuleFields are the mutable scalar fields of a rule.
type RuleFields struct {
	Name      *string        `json:"name,omitempty"`
	Code      *string        `json:"code,omitempty"`
	Condition NullableString `json:"condition,omitzero"`
}

// UpdateRule merges Fields into a rule.
type UpdateRule struct {
	PackageID string     `json:"package_id"`
	RuleID    string     `json:"rule_id"`
	Fields    RuleFields `json:"fields"`
}

// DeleteRule removes a rule.
type DeleteRule struct {
	PackageID string `json:"package_id"`
	RuleID    string `json:"rule_id"`
}

// MoveRule swaps a rule with its neighbour inside its package.
type MoveRule struct {
	PackageID string    `json:"package_id"`
	RuleID    string    `json:"rule_id"`
	Direction Direction `json:"direction"`
}

// UpdateRuleFreeCode replaces the initialization part of a structured rule.
type UpdateRuleFreeCode struct {
	PackageID string `json:"package_id"`
	RuleID    string `json:"rule_id"`
	FreeCode  string `json:"free_code"`
}

// AddOutputAssignment appends an output assignment to a rule.
type AddOutputAssignment struct {
	PackageID  string           `json:"package_id"`
	RuleID     string           `json:"rule_id"`
	Assignment OutputAssignment `json:"assignment"`
}

// AssignmentFields are the mutable fields of an output assignment.
type AssignmentFields struct {
	Attribute  *string `json:"attribute,omitempty"`
	Value      *string `json:"value,omitempty"`
	SourceLine *int    `json:"sourceLine,omitempty"`
}

// UpdateOutputAssignment merges Fields into the assignment at Index.
type UpdateOutputAssignment struct {
	PackageID string           `json:"package_id"`
	RuleID    string           `json:"rule_id"`
	Index     int              `json:"index"`
	Fields    AssignmentFields `json:"fields"`
}

// DeleteOutputAssignment removes the assignment at Index.
type DeleteOutputAssignment struct {
	PackageID string `json:"package_id"`
	RuleID    string `json:"rule_id"`
	Index     int    `json:"index"`
}

func (AddPackage) Type() ActionType             { return ActionAddPackage }
func (UpdatePackage) Type() ActionType          { return ActionUpdatePackage }
func (DeletePackage) Type() ActionType          { return ActionDeletePackage }
func (MovePackage) Type() ActionType            { return ActionMovePackage }
func (ReorderPackage) Type() ActionType         { return ActionReorderPackage }
func (AddRule) Type() ActionType                { return ActionAddRule }
func (UpdateRule) Type() ActionType             { return ActionUpdateRule }
func (DeleteRule) Type() ActionType             { return ActionDeleteRule }
func (MoveRule) Type() ActionType               { return ActionMoveRule }
func (UpdateRuleFreeCode) Type() ActionType     { return ActionUpdateRuleFreeCode }
func (AddOutputAssignment) Type() ActionType    { return ActionAddOutputAssignment }
func (UpdateOutputAssignment) Type() ActionType { return ActionUpdateOutputAssignment }
func (DeleteOutputAssignment) Type() ActionType { return ActionDeleteOutputAssignment }

func (AddPackage) action()             {}
func (UpdatePackage) action()          {}
func (DeletePackage) action()          {}
func (MovePackage) action()            {}
func (ReorderPackage) action()         {}
func (AddRule) action()                {}
func (UpdateRule) action()             {}
func (DeleteRule) action()             {}
func (MoveRule) action()               {}
func (UpdateRuleFreeCode) action()     {}
func (AddOutputAssignment) action()    {}
func (UpdateOutputAssignment) action() {}
func (DeleteOutputAssignment) action() {}

func (a AddPackage) Describe() string { return fmt.Sprintf("Add package %q", a.Package.Name) }
func (a UpdatePackage) Describe() string { return fmt.Sprintf("Update package %s", a.ID) }
func (a DeletePackage) Describe() string { return fmt.Sprintf("Delete package %s", a.ID) }
func (a MovePackage) Describe() string {
	return fmt.Sprintf("Move package %s %s", a.ID, a.Direction)
}
func (a ReorderPackage) Describe() string {
	return fmt.Sprintf("Reorder package %s to position %d", a.ID, a.NewIndex)
}
func (a AddRule) Describe() string { return fmt.Sprintf("Add rule %q", a.Rule.Name) }
func (a UpdateRule) Describe() string { return fmt.Sprintf("Update rule %s", a.RuleID) }
func (a DeleteRule) Describe() string { return fmt.Sprintf("Delete rule %s", a.RuleID) }
func (a MoveRule) Describe() string {
	return fmt.Sprintf("Move rule %s %s", a.RuleID, a.Direction)
}
func (a UpdateRuleFreeCode) Describe() string {
	return fmt.Sprintf("Update free code of rule %s", a.RuleID)
}
func (a AddOutputAssignment) Describe() string {
	return fmt.Sprintf("Add output %s to rule %s", a.Assignment.Attribute, a.RuleID)
}
func (a UpdateOutputAssignment) Describe() string {
	return fmt.Sprintf("Update output #%d of rule %s", a.Index, a.RuleID)
}
func (a DeleteOutputAssignment) Describe() string {
	return fmt.Sprintf("Delete output #%d of rule %s", a.Index, a.RuleID)
}
