package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/ruleflow/internal/ruleflow"
	"github.com/roach88/ruleflow/internal/session"
)

// StepOptions holds flags for the undo and redo commands.
type StepOptions struct {
	*RootOptions
	Steps int
}

// StepResult reports where an undo or redo left the document.
type StepResult struct {
	Moved    int      `json:"moved"`
	Head     int64    `json:"head"`
	Position int      `json:"position"`
	Total    int      `json:"total"`
	Hash     string   `json:"hash"`
	Actions  []string `json:"actions"` // descriptions of the undone or redone actions
}

// NewUndoCommand creates the undo command.
func NewUndoCommand(rootOpts *RootOptions) *cobra.Command {
	return newStepCommand(rootOpts, "undo", -1, `Undo the most recent applied actions of a stored document.

The document is rebuilt by replaying its baseline through the remaining
actions. Undone actions stay in the log and can be redone until new
actions are applied.

Examples:
  ruleflow undo scoring prod
  ruleflow undo scoring prod -n 3`)
}

// NewRedoCommand creates the redo command.
func NewRedoCommand(rootOpts *RootOptions) *cobra.Command {
	return newStepCommand(rootOpts, "redo", 1, `Redo actions previously undone on a stored document.

Examples:
  ruleflow redo scoring prod
  ruleflow redo scoring prod -n 2`)
}

func newStepCommand(rootOpts *RootOptions, name string, direction int, long string) *cobra.Command {
	opts := &StepOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   name + " <app-id> <runtime-id>",
		Short: fmt.Sprintf("%s applied actions", map[int]string{-1: "Undo", 1: "Redo"}[direction]),
		Long:  long,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.Steps < 1 {
				return NewExitError(ExitCommandError, fmt.Sprintf("-n must be at least 1, got %d", opts.Steps))
			}
			return runStep(cmd.Context(), opts, name, direction*opts.Steps, args[0], args[1], cmd)
		},
	}

	cmd.Flags().IntVarP(&opts.Steps, "steps", "n", 1, "number of actions")

	return cmd
}

func runStep(ctx context.Context, opts *StepOptions, name string, delta int, appID, runtimeID string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	ws, err := openWorkspace(opts.RootOptions)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeStore, "failed to open database", err)
	}
	defer ws.Close()

	tl, err := ws.timeline(ctx, appID, runtimeID)
	if err != nil {
		return failFor(f, "cannot "+name, err)
	}

	target := max(0, min(tl.position+delta, len(tl.records)))
	result := StepResult{
		Moved:    abs(target - tl.position),
		Position: target,
		Total:    len(tl.records),
		Head:     tl.seqAt(target),
		Actions:  []string{},
	}
	lo, hi := min(target, tl.position), max(target, tl.position)
	for _, rec := range tl.records[lo:hi] {
		result.Actions = append(result.Actions, rec.Description)
	}

	if result.Moved == 0 {
		doc, err := ws.store.Load(ctx, appID, runtimeID)
		if err != nil {
			return failFor(f, "failed to load document", err)
		}
		result.Hash = ruleflow.MustHash(doc)
		return f.Render(result, func(w io.Writer) {
			fmt.Fprintf(w, "Nothing to %s.\n", name)
		})
	}

	replayed, err := session.Replay(tl.base, tl.records[:target])
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeReplay, "failed to rebuild document", err)
	}
	if len(replayed.Diverged) > 0 {
		return f.Fail(ExitFailure, ErrCodeReplay, fmt.Sprintf("action log diverges at seq %v", replayed.Diverged), nil)
	}

	doc := replayed.Final
	doc.Metadata.ModifiedAt = time.Now().UTC().Format(ruleflow.TimestampLayout)
	if err := ws.store.MoveHead(ctx, doc, result.Head); err != nil {
		return failSave(f, err)
	}
	ws.logger.Info(name+" applied", "app_id", appID, "runtime_id", runtimeID, "moved", result.Moved, "head", result.Head)
	result.Hash = ruleflow.MustHash(doc)

	return f.Render(result, func(w io.Writer) {
		verb := map[string]string{"undo": "Undid", "redo": "Redid"}[name]
		for _, d := range result.Actions {
			fmt.Fprintf(w, "  %s\n", d)
		}
		fmt.Fprintf(w, "%s %d action(s); at %d of %d (hash %s)\n", verb, result.Moved, result.Position, result.Total, shortHash(result.Hash))
	})
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
