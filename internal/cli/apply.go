package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/ruleflow/internal/ruleflow"
	"github.com/roach88/ruleflow/internal/schema"
)

// ApplyOptions holds flags for the apply command.
type ApplyOptions struct {
	*RootOptions
	DryRun bool
}

// AppliedAction reports one dispatched action.
type AppliedAction struct {
	Type        string `json:"type"`
	Description string `json:"description"`
	Changed     bool   `json:"changed"`
}

// ApplyResult holds the outcome of an apply.
type ApplyResult struct {
	Actions   []AppliedAction `json:"actions"`
	Changed   int             `json:"changed"`
	Discarded int64           `json:"discarded"` // undone actions dropped from the log
	Head      int64           `json:"head"`
	Hash      string          `json:"hash"`
	DryRun    bool            `json:"dry_run"`
}

// NewApplyCommand creates the apply command.
func NewApplyCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ApplyOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "apply <app-id> <runtime-id> <actions-file>",
		Short: "Apply an action file to a stored document",
		Long: `Apply actions to a stored document through an editing session and save it.

The actions file is JSON or YAML: a single action object or a list of them,
in the wire form {"type": "MOVE_PACKAGE", "id": "...", "direction": "up"}.
The file is checked against the action schema before anything runs.

Actions with no effect are skipped. Applying new actions after an undo
discards the undone actions, as editing after undo does in the editor.

Exit codes:
  0 - Actions applied
  1 - Action file is invalid
  2 - Command error (document not initialised, unreadable file, etc.)

Examples:
  ruleflow apply scoring prod actions.yaml
  ruleflow apply scoring prod actions.json --dry-run --format json`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runApply(cmd.Context(), opts, args[0], args[1], args[2], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "apply in memory and report without saving")

	return cmd
}

func runApply(ctx context.Context, opts *ApplyOptions, appID, runtimeID, path string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	data, err := readInput(path)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeInvalidInput, "failed to read actions", err)
	}
	v, err := schema.New()
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeGeneric, "failed to load schema", err)
	}
	actions, err := parseActions(v, data)
	if err != nil {
		return failFor(f, "invalid actions", err)
	}

	ws, err := openWorkspace(opts.RootOptions)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeStore, "failed to open database", err)
	}
	defer ws.Close()

	_, head, err := ws.baseline(ctx, appID, runtimeID)
	if err != nil {
		return failFor(f, "cannot apply", err)
	}

	log := &pendingLog{head: head}
	ed := ws.editor(log)
	if err := ed.Load(ctx, appID, runtimeID); err != nil {
		return failFor(f, "failed to load document", err)
	}

	result := ApplyResult{Actions: make([]AppliedAction, 0, len(actions)), DryRun: opts.DryRun}
	for _, a := range actions {
		changed, err := ed.Dispatch(ctx, a)
		if err != nil {
			return f.Fail(ExitFailure, ErrCodeInvalidInput, "action rejected", err)
		}
		if changed {
			result.Changed++
		}
		result.Actions = append(result.Actions, AppliedAction{
			Type:        string(a.Type()),
			Description: a.Describe(),
			Changed:     changed,
		})
		f.VerboseLog("%s: changed=%t", a.Describe(), changed)
	}

	result.Head = head
	doc := ed.Snapshot()
	if !opts.DryRun && len(log.records) > 0 {
		persisted := doc.Clone()
		persisted.Metadata.ModifiedAt = time.Now().UTC().Format(ruleflow.TimestampLayout)
		result.Discarded, err = ws.store.CommitActions(ctx, persisted, log.head, log.records, log.last())
		if err != nil {
			return failSave(f, err)
		}
		result.Head = log.last()
		versions, current := ed.Versions()
		if err := ws.store.SaveHistory(ctx, appID, runtimeID, versions, current); err != nil {
			ws.logger.Warn("history metadata save failed", "error", err)
		}
		ws.logger.Info("actions applied", "app_id", appID, "runtime_id", runtimeID, "appended", len(log.records), "head", result.Head)
	}
	result.Hash = ruleflow.MustHash(doc)

	return f.Render(result, func(w io.Writer) {
		for _, a := range result.Actions {
			mark := "✓"
			if !a.Changed {
				mark = "-"
			}
			fmt.Fprintf(w, "%s %s\n", mark, a.Description)
		}
		verb := "Applied"
		if result.DryRun {
			verb = "Would apply"
		}
		fmt.Fprintf(w, "%s %d action(s), %d changed the document (hash %s)\n", verb, len(result.Actions), result.Changed, shortHash(result.Hash))
		if result.Discarded > 0 {
			fmt.Fprintf(w, "Discarded %d undone action(s)\n", result.Discarded)
		}
	})
}
