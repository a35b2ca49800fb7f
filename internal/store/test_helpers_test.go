package store

import (
	"path/filepath"
	"testing"

	"github.com/roach88/ruleflow/internal/ruleflow"
)

// createTestStore creates a new store in a temp dir for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestDocument creates a valid document with a locked package and one
// other package.
func createTestDocument(appID, runtimeID string) *ruleflow.Configuration {
	return &ruleflow.Configuration{
		Version: ruleflow.FormatVersion,
		Metadata: ruleflow.Metadata{
			AppID:      appID,
			RuntimeID:  runtimeID,
			ClassName:  "Engine",
			CreatedAt:  "2024-01-01T00:00:00Z",
			ModifiedAt: "2024-01-02T00:00:00Z",
		},
		Imports:         []string{"import math"},
		Constants:       []string{},
		HelperFunctions: []string{},
		Packages: []ruleflow.Package{
			{ID: "lock", Name: ruleflow.LockedPackageName, ExecutionOrder: 0, Rules: []ruleflow.Rule{
				{ID: "init", Name: "rule_init", Code: "pass"},
			}},
			{ID: "p1", Name: "scoring", ExecutionOrder: 1, Condition: ruleflow.Ptr("age > 18"), Rules: []ruleflow.Rule{
				{ID: "r1", Name: "rule_score", Code: "score = 1", FreeCode: ruleflow.Ptr(""), OutputAssignments: []ruleflow.OutputAssignment{
					{Attribute: "score", Value: "1"},
				}},
			}},
		},
	}
}
