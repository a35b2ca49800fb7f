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

// HistoryEntry is one action-log record as shown by history.
type HistoryEntry struct {
	Seq         int64     `json:"seq"`
	Type        string    `json:"type"`
	Description string    `json:"description"`
	ResultHash  string    `json:"result_hash"`
	RecordedAt  time.Time `json:"recorded_at"`
	Undone      bool      `json:"undone"`
}

// HistoryResult holds the edit history of a document.
type HistoryResult struct {
	Head    int64           `json:"head"`
	Entries []HistoryEntry  `json:"entries"`
	Session versionsSummary `json:"session"` // version metadata of the last saved session
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "history <app-id> <runtime-id>",
		Short: "Show the action log of a document",
		Long: `Show the logged actions of a document, oldest first. The head marks the
last action reflected in the stored document; later actions were undone and
can be redone.

With --format json the response also carries the version metadata of the
last saved editing session.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(cmd.Context(), rootOpts, args[0], args[1], cmd)
		},
	}
}

func runHistory(ctx context.Context, opts *RootOptions, appID, runtimeID string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	ws, err := openWorkspace(opts)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeStore, "failed to open database", err)
	}
	defer ws.Close()

	tl, err := ws.timeline(ctx, appID, runtimeID)
	if err != nil {
		return failFor(f, "cannot read history", err)
	}
	versions, current, err := ws.store.LoadHistory(ctx, appID, runtimeID)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeStore, "failed to read session history", err)
	}

	result := HistoryResult{
		Head:    tl.head,
		Entries: make([]HistoryEntry, len(tl.records)),
		Session: versionsSummary{Current: current, Versions: versions},
	}
	for i, rec := range tl.records {
		result.Entries[i] = HistoryEntry{
			Seq:         rec.Seq,
			Type:        string(rec.Action.Type()),
			Description: rec.Description,
			ResultHash:  rec.ResultHash,
			RecordedAt:  rec.RecordedAt,
			Undone:      i >= tl.position,
		}
	}

	return f.Render(result, func(w io.Writer) {
		if len(result.Entries) == 0 {
			fmt.Fprintln(w, "No actions recorded.")
			return
		}
		for _, e := range result.Entries {
			mark := " "
			if e.Seq == result.Head {
				mark = "*"
			}
			state := ""
			if e.Undone {
				state = "  (undone)"
			}
			fmt.Fprintf(w, "%s %4d  %-26s %s%s\n", mark, e.Seq, e.Type, e.Description, state)
		}
	})
}

// ReplayCheck holds the outcome of the replay command.
type ReplayCheck struct {
	Applied    int     `json:"applied"`
	Diverged   []int64 `json:"diverged"`
	Hash       string  `json:"hash"`
	StoredHash string  `json:"stored_hash"`
	Match      bool    `json:"match"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "replay <app-id> <runtime-id>",
		Short: "Rebuild a document from its action log and verify it",
		Long: `Replay the baseline of a document through its logged actions up to the
head and compare the result with the stored document. Every intermediate
content hash is checked against the hash recorded with the action.

Exit codes:
  0 - Replay reproduces the stored document
  1 - Replay diverged or the result differs from the stored document
  2 - Command error (document not initialised, etc.)`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(cmd.Context(), rootOpts, args[0], args[1], cmd)
		},
	}
}

func runReplay(ctx context.Context, opts *RootOptions, appID, runtimeID string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	ws, err := openWorkspace(opts)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeStore, "failed to open database", err)
	}
	defer ws.Close()

	tl, err := ws.timeline(ctx, appID, runtimeID)
	if err != nil {
		return failFor(f, "cannot replay", err)
	}
	stored, err := ws.store.Load(ctx, appID, runtimeID)
	if err != nil {
		return failFor(f, "failed to load document", err)
	}

	replayed, err := session.Replay(tl.base, tl.records[:tl.position])
	if err != nil {
		return f.Fail(ExitFailure, ErrCodeReplay, "replay failed", err)
	}

	check := ReplayCheck{
		Applied:    replayed.Applied,
		Diverged:   replayed.Diverged,
		Hash:       ruleflow.MustHash(replayed.Final),
		StoredHash: ruleflow.MustHash(stored),
	}
	if check.Diverged == nil {
		check.Diverged = []int64{}
	}
	check.Match = check.Hash == check.StoredHash && len(check.Diverged) == 0

	if !check.Match {
		if err := f.Render(check, func(w io.Writer) {
			fmt.Fprintf(w, "✗ replay of %d action(s) does not reproduce %s/%s\n", check.Applied, appID, runtimeID)
			if len(check.Diverged) > 0 {
				fmt.Fprintf(w, "  diverged at seq %v\n", check.Diverged)
			}
			fmt.Fprintf(w, "  replayed %s, stored %s\n", shortHash(check.Hash), shortHash(check.StoredHash))
		}); err != nil {
			return err
		}
		return NewExitError(ExitFailure, "replay does not reproduce the stored document")
	}

	return f.Render(check, func(w io.Writer) {
		fmt.Fprintf(w, "✓ replay of %d action(s) reproduces %s/%s (hash %s)\n", check.Applied, appID, runtimeID, shortHash(check.Hash))
	})
}
