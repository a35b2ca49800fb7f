package schema

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ruleflow/internal/ruleflow"
	"github.com/roach88/ruleflow/internal/testutil"
)

func newValidator(t *testing.T) *Validator {
	t.Helper()
	v, err := New()
	require.NoError(t, err)
	return v
}

func TestValidateDocument_GeneratedDocumentsPass(t *testing.T) {
	v := newValidator(t)
	cfg := ruleflow.NewDefault("app", "rt", "", time.Unix(0, 0), testutil.NewSequenceIDs("id"))
	cfg.Packages = append(cfg.Packages, ruleflow.Package{
		ID: "p1", Name: "Scoring", ExecutionOrder: 1, Condition: ruleflow.Ptr("x > 1"),
		Rules: []ruleflow.Rule{{
			ID: "r1", Name: "rule_score", Code: "score = 1",
			FreeCode:          ruleflow.Ptr(""),
			OutputAssignments: []ruleflow.OutputAssignment{{Attribute: "score", Value: "1", SourceLine: ruleflow.Ptr(2)}},
		}},
	})

	data, err := ruleflow.MarshalConfiguration(cfg)
	require.NoError(t, err)
	assert.NoError(t, v.ValidateDocument(data))
}

func TestValidateDocument_Violations(t *testing.T) {
	v := newValidator(t)
	meta := `"metadata":{"app_id":"a","class_name":"C","created_at":"","modified_at":"","runtime_id":"r"}`

	tests := []struct {
		name string
		doc  string
	}{
		{"wrong version", `{"version":"2.0",` + meta + `,"packages":[]}`},
		{"unknown top-level field", `{"version":"1.0",` + meta + `,"packages":[],"extra":1}`},
		{"missing packages", `{"version":"1.0",` + meta + `}`},
		{"empty package id", `{"version":"1.0",` + meta + `,"packages":[{"id":"","name":"A","execution_order":0}]}`},
		{"negative order", `{"version":"1.0",` + meta + `,"packages":[{"id":"p","name":"A","execution_order":-1}]}`},
		{"rule code not string", `{"version":"1.0",` + meta + `,"packages":[{"id":"p","name":"A","execution_order":0,"rules":[{"id":"r","name":"n","code":5}]}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidateDocument([]byte(tt.doc))
			require.Error(t, err)
			assert.True(t, IsValidationError(err, ErrCodeViolation), "got %v", err)
		})
	}
}

func TestValidateDocument_Syntax(t *testing.T) {
	err := newValidator(t).ValidateDocument([]byte(`{"version":`))
	assert.True(t, IsValidationError(err, ErrCodeSyntax))
}

func TestValidateAction(t *testing.T) {
	v := newValidator(t)

	valid := []ruleflow.Action{
		ruleflow.AddPackage{Package: ruleflow.Package{Name: "C"}, InsertIndex: ruleflow.Ptr(1)},
		ruleflow.UpdatePackage{ID: "p", Fields: ruleflow.PackageFields{Condition: ruleflow.SetNull()}},
		ruleflow.DeletePackage{ID: "p"},
		ruleflow.MovePackage{ID: "p", Direction: ruleflow.Up},
		ruleflow.ReorderPackage{ID: "p", NewIndex: 2},
		ruleflow.AddRule{PackageID: "p", Rule: ruleflow.Rule{Name: "r", Code: "pass"}},
		ruleflow.UpdateRule{PackageID: "p", RuleID: "r", Fields: ruleflow.RuleFields{Code: ruleflow.Ptr("x = 1")}},
		ruleflow.DeleteRule{PackageID: "p", RuleID: "r"},
		ruleflow.MoveRule{PackageID: "p", RuleID: "r", Direction: ruleflow.Down},
		ruleflow.UpdateRuleFreeCode{PackageID: "p", RuleID: "r", FreeCode: "t = 1"},
		ruleflow.AddOutputAssignment{PackageID: "p", RuleID: "r", Assignment: ruleflow.OutputAssignment{Attribute: "a", Value: "1"}},
		ruleflow.UpdateOutputAssignment{PackageID: "p", RuleID: "r", Index: 0, Fields: ruleflow.AssignmentFields{Value: ruleflow.Ptr("2")}},
		ruleflow.DeleteOutputAssignment{PackageID: "p", RuleID: "r", Index: 0},
	}
	require.Len(t, valid, len(ruleflow.ActionTypes), "every action type is covered")
	for _, a := range valid {
		data, err := ruleflow.MarshalAction(a)
		require.NoError(t, err)
		assert.NoError(t, v.ValidateAction(data), "%s", data)
	}
}

func TestValidateAction_Violations(t *testing.T) {
	v := newValidator(t)

	tests := []struct {
		name   string
		action string
		code   ErrorCode
	}{
		{"unknown type", `{"type":"EXPLODE"}`, ErrCodeUnknownAction},
		{"missing type", `{"id":"p"}`, ErrCodeUnknownAction},
		{"bad direction", `{"type":"MOVE_PACKAGE","id":"p","direction":"left"}`, ErrCodeViolation},
		{"missing id", `{"type":"DELETE_PACKAGE"}`, ErrCodeViolation},
		{"extra field", `{"type":"DELETE_PACKAGE","id":"p","force":true}`, ErrCodeViolation},
		{"negative index", `{"type":"DELETE_OUTPUT_ASSIGNMENT","package_id":"p","rule_id":"r","index":-1}`, ErrCodeViolation},
		{"float index", `{"type":"REORDER_PACKAGE","id":"p","new_index":1.5}`, ErrCodeViolation},
		{"not json", `nope`, ErrCodeSyntax},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidateAction([]byte(tt.action))
			require.Error(t, err)
			assert.True(t, IsValidationError(err, tt.code), "got %v", err)
		})
	}
}

func TestValidateActions_ReportsEveryFailure(t *testing.T) {
	v := newValidator(t)
	err := v.ValidateActions([]byte(`[
		{"type":"DELETE_PACKAGE","id":"a"},
		{"type":"NOPE"},
		{"type":"MOVE_PACKAGE","id":"p","direction":"left"}
	]`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "actions[1]")
	assert.Contains(t, err.Error(), "actions[2]")
	assert.NotContains(t, err.Error(), "actions[0]")

	assert.NoError(t, v.ValidateActions([]byte(`[]`)))
}

func TestValidationError_Format(t *testing.T) {
	err := &ValidationError{Code: ErrCodeViolation, Path: "packages.0.id", Message: "invalid value"}
	assert.Equal(t, "SCHEMA_VIOLATION: packages.0.id: invalid value", err.Error())

	err = &ValidationError{Code: ErrCodeSyntax, Message: "bad"}
	assert.Equal(t, "SYNTAX: bad", err.Error())
}
