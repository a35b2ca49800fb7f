package cli

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/ruleflow/internal/harness"
)

// TestOptions holds flags for the test command.
type TestOptions struct {
	*RootOptions
	Update bool
	Filter string
}

// ScenarioResult is the outcome of one scenario.
type ScenarioResult struct {
	Name   string   `json:"name"`
	File   string   `json:"file"`
	Pass   bool     `json:"pass"`
	Hash   string   `json:"hash,omitempty"`
	Golden string   `json:"golden"` // match | mismatch | missing | updated
	Errors []string `json:"errors"`
}

// TestResult summarises a scenario run.
type TestResult struct {
	Passed    int              `json:"passed"`
	Failed    int              `json:"failed"`
	Scenarios []ScenarioResult `json:"scenarios"`
}

// Golden states.
const (
	goldenMatch    = "match"
	goldenMismatch = "mismatch"
	goldenMissing  = "missing"
	goldenUpdated  = "updated"
)

// NewTestCommand creates the test command.
func NewTestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "test <scenarios-dir>",
		Short: "Run YAML editing scenarios",
		Long: `Run every *.yaml scenario in a directory against an in-memory store.

Each scenario's final document is compared with <dir>/golden/<name>.golden;
--update rewrites the golden files instead. A missing golden file fails the
scenario unless --update is set.

Exit codes:
  0 - All scenarios passed
  1 - At least one scenario failed
  2 - Command error (unreadable directory, invalid scenario file)

Examples:
  ruleflow test scenarios/
  ruleflow test scenarios/ --filter drag
  ruleflow test scenarios/ --update`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTest(cmd.Context(), opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Update, "update", false, "rewrite golden files")
	cmd.Flags().StringVar(&opts.Filter, "filter", "", "only run scenarios whose name contains this text")

	return cmd
}

func runTest(ctx context.Context, opts *TestOptions, dir string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	files, err := scenarioFiles(dir)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeInvalidInput, "failed to read scenarios", err)
	}

	result := TestResult{Scenarios: []ScenarioResult{}}
	for _, file := range files {
		sc, err := harness.LoadScenario(file)
		if err != nil {
			return f.Fail(ExitCommandError, ErrCodeInvalidInput, "invalid scenario", err)
		}
		if opts.Filter != "" && !strings.Contains(sc.Name, opts.Filter) {
			continue
		}

		sr, err := runScenario(ctx, opts, dir, file, sc)
		if err != nil {
			return f.Fail(ExitCommandError, ErrCodeGeneric, "scenario "+sc.Name, err)
		}
		if sr.Pass {
			result.Passed++
		} else {
			result.Failed++
		}
		f.VerboseLog("%s: pass=%t golden=%s", sr.Name, sr.Pass, sr.Golden)
		result.Scenarios = append(result.Scenarios, sr)
	}

	if err := f.Render(result, func(w io.Writer) {
		for _, sr := range result.Scenarios {
			if sr.Pass {
				fmt.Fprintf(w, "✓ %s\n", sr.Name)
				continue
			}
			fmt.Fprintf(w, "✗ %s\n", sr.Name)
			for _, e := range sr.Errors {
				fmt.Fprintf(w, "    %s\n", e)
			}
		}
		fmt.Fprintf(w, "%d passed, %d failed\n", result.Passed, result.Failed)
	}); err != nil {
		return err
	}

	if result.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d scenario(s) failed", result.Failed))
	}
	return nil
}

// runScenario executes one scenario. Execution errors are reported as a
// failed scenario; only golden file I/O errors are returned.
func runScenario(ctx context.Context, opts *TestOptions, dir, file string, sc *harness.Scenario) (ScenarioResult, error) {
	sr := ScenarioResult{Name: sc.Name, File: file, Errors: []string{}}

	res, err := harness.Run(ctx, sc, harness.WithLogger(opts.Logger))
	if err != nil {
		sr.Errors = append(sr.Errors, err.Error())
		return sr, nil
	}
	sr.Hash = res.Hash
	sr.Errors = append(sr.Errors, res.Errors...)

	snapshot, err := harness.Snapshot(res.Final)
	if err != nil {
		return sr, err
	}
	goldenPath := filepath.Join(dir, "golden", sc.Name+".golden")

	switch want, err := os.ReadFile(goldenPath); {
	case opts.Update:
		if err := os.MkdirAll(filepath.Dir(goldenPath), 0o755); err != nil {
			return sr, err
		}
		if err := os.WriteFile(goldenPath, snapshot, 0o644); err != nil {
			return sr, err
		}
		sr.Golden = goldenUpdated
	case os.IsNotExist(err):
		sr.Golden = goldenMissing
		sr.Errors = append(sr.Errors, "golden file missing: "+goldenPath+" (run with --update)")
	case err != nil:
		return sr, err
	case bytes.Equal(want, snapshot):
		sr.Golden = goldenMatch
	default:
		sr.Golden = goldenMismatch
		sr.Errors = append(sr.Errors, "final document differs from "+goldenPath)
	}

	sr.Pass = res.Pass && len(sr.Errors) == 0
	return sr, nil
}

// scenarioFiles lists the YAML files directly inside dir, sorted.
func scenarioFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch filepath.Ext(e.Name()) {
		case ".yaml", ".yml":
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}
