package harness

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ruleflow/internal/ruleflow"
	"github.com/roach88/ruleflow/internal/schema"
)

func mustParse(t *testing.T, src string) *Scenario {
	t.Helper()
	sc, err := ParseScenario([]byte(src))
	require.NoError(t, err)
	return sc
}

func TestLoadScenario(t *testing.T) {
	sc, err := LoadScenario("testdata/scenarios/drag_reorder.yaml")
	require.NoError(t, err)

	assert.Equal(t, "drag_reorder", sc.Name)
	assert.Equal(t, "scoring", sc.AppID)
	assert.Equal(t, "prod", sc.RuntimeID)
	require.Len(t, sc.Steps, 9)

	kinds := make([]string, len(sc.Steps))
	for i, st := range sc.Steps {
		kinds[i] = st.Kind()
	}
	assert.Equal(t, []string{
		StepAction, StepAction, StepDrag, StepUndo, StepRedo,
		StepAction, StepDrag, StepDrag, StepDrag,
	}, kinds)

	require.NotNil(t, sc.Steps[2].Drag)
	assert.Equal(t, []float64{300, 250}, sc.Steps[2].Drag.Via)
	assert.Equal(t, 200.0, sc.Steps[2].Drag.To)
}

func TestParseScenario_Defaults(t *testing.T) {
	sc := mustParse(t, "name: defaults\nsteps:\n  - undo: true\n")
	assert.Equal(t, DefaultAppID, sc.AppID)
	assert.Equal(t, DefaultRuntimeID, sc.RuntimeID)
	assert.Empty(t, sc.Initial)
}

func TestLoadScenario_Invalid(t *testing.T) {
	tests := []struct {
		name string
		path string
		want string
	}{
		{"unknown field", "testdata/invalid/unknown_field.yaml", "expectations"},
		{"two operations", "testdata/invalid/two_operations.yaml", "one operation"},
		{"missing file", "testdata/invalid/nope.yaml", "failed to read"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadScenario(tt.path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestParseScenario_Validation(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"no name", "steps:\n  - undo: true\n", "name is required"},
		{"nothing to do", "name: x\n", "at least one step"},
		{"empty step", "name: x\nsteps:\n  - {}\n", "empty step"},
		{"untyped action", "name: x\nsteps:\n  - action: {id: p}\n", "string type"},
		{"drag without package", "name: x\nsteps:\n  - drag: {to: 10}\n", "needs a package"},
		{"bad drag result", "name: x\nsteps:\n  - drag: {package: a, to: 10, result: fling}\n", "unknown drag result"},
		{"changed without operation", "name: x\nsteps:\n  - expect: {changed: true}\n", "changed needs an operation"},
		{"negative max versions", "name: x\nmax_versions: -1\nsteps:\n  - undo: true\n", "max_versions"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.src))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestRun_GoldenScenarios(t *testing.T) {
	for _, name := range []string{"drag_reorder"} {
		t.Run(name, func(t *testing.T) {
			sc, err := LoadScenario(filepath.Join("testdata", "scenarios", name+".yaml"))
			require.NoError(t, err)
			result := RunWithGolden(t, sc)
			assert.True(t, result.Pass)
		})
	}
}

func TestRun_Scenarios(t *testing.T) {
	files, err := filepath.Glob("testdata/scenarios/*.yaml")
	require.NoError(t, err)
	require.NotEmpty(t, files)

	for _, f := range files {
		t.Run(filepath.Base(f), func(t *testing.T) {
			sc, err := LoadScenario(f)
			require.NoError(t, err)
			result, err := Run(context.Background(), sc)
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
			assert.Len(t, result.Steps, len(sc.Steps))
			assert.Equal(t, ruleflow.MustHash(result.Final), result.Hash)
		})
	}
}

func TestRun_Deterministic(t *testing.T) {
	sc, err := LoadScenario("testdata/scenarios/drag_reorder.yaml")
	require.NoError(t, err)

	first, err := Run(context.Background(), sc)
	require.NoError(t, err)
	second, err := Run(context.Background(), sc)
	require.NoError(t, err)

	assert.Equal(t, first.Hash, second.Hash)
	assert.Equal(t, first.Steps, second.Steps)
}

func TestRun_StepOutcomes(t *testing.T) {
	sc, err := LoadScenario("testdata/scenarios/drag_reorder.yaml")
	require.NoError(t, err)
	result, err := Run(context.Background(), sc)
	require.NoError(t, err)

	drag := result.Steps[2]
	assert.Equal(t, StepDrag, drag.Kind)
	assert.Equal(t, "reorder to 1", drag.Detail)
	assert.True(t, drag.Changed)

	click := result.Steps[7]
	assert.Equal(t, "click", click.Detail)
	assert.False(t, click.Changed)

	locked := result.Steps[8]
	assert.Equal(t, "none", locked.Detail)
	assert.False(t, locked.Changed)
}

func TestRun_ExpectationFailures(t *testing.T) {
	sc := mustParse(t, `
name: wrong
steps:
  - action:
      type: ADD_PACKAGE
      package: { name: a }
    expect:
      packages: [package_initialisations]
      can_redo: true
  - undo: true
  - undo: true
    expect:
      changed: true
expect:
  versions: 5
  rules:
    missing: [r]
  code:
    a/nothing: "x"
`)
	result, err := Run(context.Background(), sc)
	require.NoError(t, err)
	assert.False(t, result.Pass)

	joined := strings.Join(result.Errors, "\n")
	assert.Contains(t, joined, "steps[0]: packages")
	assert.Contains(t, joined, "steps[0]: can_redo")
	assert.Contains(t, joined, "steps[2]: changed")
	assert.Contains(t, joined, "final: versions: expected 5, got 2")
	assert.Contains(t, joined, "rules[missing]")
	assert.Contains(t, joined, "code[a/nothing]")
	assert.Len(t, result.Errors, 6)
}

func TestRun_ExecutionErrors(t *testing.T) {
	tests := []struct {
		name  string
		src   string
		want  string
		check func(t *testing.T, err error)
	}{
		{
			name: "unresolved reference",
			src:  "name: x\nsteps:\n  - action: {type: DELETE_PACKAGE, id: \"@pkg:ghost\"}\n",
			want: "unresolved reference @pkg:ghost",
		},
		{
			name: "schema violation",
			src:  "name: x\nsteps:\n  - action: {type: MOVE_PACKAGE, id: p, direction: sideways}\n",
			want: "steps[0] (action)",
			check: func(t *testing.T, err error) {
				assert.True(t, schema.IsValidationError(err, schema.ErrCodeViolation))
			},
		},
		{
			name: "unknown action",
			src:  "name: x\nsteps:\n  - action: {type: EXPLODE}\n",
			want: "steps[0]",
			check: func(t *testing.T, err error) {
				assert.True(t, schema.IsValidationError(err, schema.ErrCodeUnknownAction))
			},
		},
		{
			name: "drag of unknown package",
			src:  "name: x\nsteps:\n  - drag: {package: ghost, to: 10}\n",
			want: "no package named",
		},
		{
			name: "unexpected drop",
			src:  "name: x\nsteps:\n  - drag: {package: package_initialisations, to: 400, result: reorder}\n",
			want: "expected reorder drop, got none",
		},
		{
			name: "missing initial document",
			src:  "name: x\ninitial: /nonexistent/doc.json\nsteps:\n  - undo: true\n",
			want: "failed to read initial document",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sc := mustParse(t, tt.src)
			_, err := Run(context.Background(), sc)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
			if tt.check != nil {
				tt.check(t, err)
			}
		})
	}
}

func TestRun_InitialDocumentRejectedBySchema(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.json"), []byte(`{"version":"2.0"}`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "s.yaml"), []byte("name: x\ninitial: bad.json\nsteps:\n  - undo: true\n"), 0o644))

	sc, err := LoadScenario(filepath.Join(dir, "s.yaml"))
	require.NoError(t, err)
	_, err = Run(context.Background(), sc)
	require.Error(t, err)
	assert.True(t, schema.IsValidationError(err, schema.ErrCodeViolation))
}

func TestRun_MaxVersions(t *testing.T) {
	sc := mustParse(t, `
name: bounded
max_versions: 2
steps:
  - action: {type: ADD_PACKAGE, package: {name: a}}
  - action: {type: ADD_PACKAGE, package: {name: b}}
  - action: {type: ADD_PACKAGE, package: {name: c}}
expect:
  versions: 2
  packages: [package_initialisations, a, b, c]
`)
	result, err := Run(context.Background(), sc)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestSnapshot(t *testing.T) {
	cfg := &ruleflow.Configuration{
		Version:  ruleflow.FormatVersion,
		Metadata: ruleflow.Metadata{AppID: "a", RuntimeID: "r"},
		Imports:  []string{},
	}
	data, err := Snapshot(cfg)
	require.NoError(t, err)

	s := string(data)
	assert.True(t, strings.HasPrefix(s, "{\n  \"constants\": null,\n"))
	assert.True(t, strings.HasSuffix(s, "}\n"))
	assert.Contains(t, s, "\"imports\": [],")
	assert.Contains(t, s, "\"app_id\": \"a\",")
}

func TestAssertionError(t *testing.T) {
	step := &AssertionError{Step: 3, Field: "modified", Expected: "true", Actual: "false"}
	assert.Equal(t, "steps[3]: modified: expected true, got false", step.Error())

	final := &AssertionError{Step: -1, Field: "versions", Expected: "2", Actual: "1"}
	assert.Equal(t, "final: versions: expected 2, got 1", final.Error())
}
