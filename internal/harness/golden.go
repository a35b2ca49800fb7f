package harness

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/ruleflow/internal/ruleflow"
)

// Snapshot renders a document as canonical JSON indented for review, with
// a trailing newline. It is the content of golden files.
func Snapshot(cfg *ruleflow.Configuration) ([]byte, error) {
	canonical, err := ruleflow.MarshalCanonical(cfg)
	if err != nil {
		return nil, fmt.Errorf("snapshot: %w", err)
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, canonical, "", "  "); err != nil {
		return nil, fmt.Errorf("snapshot: %w", err)
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

// RunWithGolden executes a scenario, fails the test on any expectation
// failure and compares the final document against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, sc *Scenario) *Result {
	t.Helper()

	result, err := Run(context.Background(), sc)
	if err != nil {
		t.Fatalf("scenario %s: %v", sc.Name, err)
	}
	for _, e := range result.Errors {
		t.Errorf("scenario %s: %s", sc.Name, e)
	}
	AssertGolden(t, sc.Name, result)
	return result
}

// AssertGolden compares a result's final document against a golden file
// without re-running the scenario.
func AssertGolden(t *testing.T, name string, result *Result) {
	t.Helper()

	data, err := Snapshot(result.Final)
	if err != nil {
		t.Fatalf("scenario %s: %v", name, err)
	}
	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, data)
}
