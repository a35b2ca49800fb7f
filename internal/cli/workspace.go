package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/roach88/ruleflow/internal/codegen"
	"github.com/roach88/ruleflow/internal/history"
	"github.com/roach88/ruleflow/internal/ruleflow"
	"github.com/roach88/ruleflow/internal/schema"
	"github.com/roach88/ruleflow/internal/session"
	"github.com/roach88/ruleflow/internal/store"
)

var errNotInitialised = errors.New("not initialised (run ruleflow init)")

// workspace is an open database plus the settings commands share.
type workspace struct {
	store  *store.Store
	opts   *RootOptions
	logger *slog.Logger
}

func openWorkspace(opts *RootOptions) (*workspace, error) {
	st, err := store.Open(opts.Config.DB, store.WithLogger(opts.Logger))
	if err != nil {
		return nil, err
	}
	return &workspace{store: st, opts: opts, logger: opts.Logger}, nil
}

func (w *workspace) Close() error {
	return w.store.Close()
}

// editor builds a session over the workspace store. log receives applied
// actions; pass nil to keep the session off the action log.
func (w *workspace) editor(log session.ActionLog, extra ...session.Option) *session.Editor {
	opts := []session.Option{
		session.WithStore(w.store),
		session.WithHistoryStore(w.store),
		session.WithGenerator(codegen.NewPythonGenerator(codegen.WithLogger(w.logger))),
		session.WithClassName(w.opts.Config.ClassName),
		session.WithMaxVersions(w.opts.Config.MaxVersions),
		session.WithStrict(w.opts.Config.Strict),
		session.WithLogger(w.logger),
	}
	if log != nil {
		opts = append(opts, session.WithActionLog(log))
	}
	return session.New(append(opts, extra...)...)
}

// baseline loads the document the action log starts from, translating a
// missing baseline into a hint to run init.
func (w *workspace) baseline(ctx context.Context, appID, runtimeID string) (*ruleflow.Configuration, int64, error) {
	base, head, err := w.store.LoadBaseline(ctx, appID, runtimeID)
	if errors.Is(err, ruleflow.ErrNotFound) {
		return nil, 0, fmt.Errorf("%s/%s: %w", appID, runtimeID, errNotInitialised)
	}
	return base, head, err
}

// timeline returns the baseline, the logged actions up to head, and the
// undone actions after it.
func (w *workspace) timeline(ctx context.Context, appID, runtimeID string) (*timeline, error) {
	base, head, err := w.baseline(ctx, appID, runtimeID)
	if err != nil {
		return nil, err
	}
	records, err := w.store.ReadActions(ctx, appID, runtimeID, 0)
	if err != nil {
		return nil, err
	}
	pos := 0
	for pos < len(records) && records[pos].Seq <= head {
		pos++
	}
	return &timeline{base: base, head: head, records: records, position: pos}, nil
}

// timeline is the persisted linear edit history of one document.
type timeline struct {
	base     *ruleflow.Configuration
	head     int64
	records  []ruleflow.ActionRecord
	position int // number of records applied to the saved document
}

// seqAt returns the head seq after applying the first n records.
func (t *timeline) seqAt(n int) int64 {
	if n == 0 {
		return 0
	}
	return t.records[n-1].Seq
}

// pendingLog buffers the records of a session so they can be written to
// the store only once the edit is committed. LastSeq reports the head the
// session starts from.
type pendingLog struct {
	head    int64
	records []ruleflow.ActionRecord
}

func (l *pendingLog) AppendAction(_ context.Context, _, _ string, rec ruleflow.ActionRecord) error {
	l.records = append(l.records, rec)
	return nil
}

func (l *pendingLog) LastSeq(context.Context, string, string) (int64, error) {
	return l.head, nil
}

// TruncateActions drops buffered records past after. The store log is
// truncated past head when the session is committed.
func (l *pendingLog) TruncateActions(_ context.Context, _, _ string, after int64) (int64, error) {
	kept := l.records[:0]
	for _, rec := range l.records {
		if rec.Seq <= after {
			kept = append(kept, rec)
		}
	}
	n := int64(len(l.records) - len(kept))
	l.records = kept
	return n, nil
}

// last returns the seq of the newest buffered record, or head.
func (l *pendingLog) last() int64 {
	if len(l.records) == 0 {
		return l.head
	}
	return l.records[len(l.records)-1].Seq
}

// failFor maps a domain error to the CLI exit code and error code.
func failFor(f *OutputFormatter, message string, err error) error {
	var (
		ve *schema.ValidationError
		ie *ruleflow.InvariantError
	)
	switch {
	case errors.Is(err, errNotInitialised):
		return f.Fail(ExitCommandError, ErrCodeNotInitialised, message, err)
	case errors.Is(err, ruleflow.ErrNotFound):
		return f.Fail(ExitCommandError, ErrCodeNotFound, message, err)
	case errors.As(err, &ve):
		return f.Fail(ExitFailure, ErrCodeSchema, message, err)
	case errors.As(err, &ie):
		return f.Fail(ExitFailure, ErrCodeInvariant, message, err)
	}
	return f.Fail(ExitCommandError, ErrCodeGeneric, message, err)
}

// versionsSummary is the JSON form of session history metadata.
type versionsSummary struct {
	Current  int                   `json:"current"`
	Versions []history.VersionInfo `json:"versions"`
}

// failSave reports a failed store write. Domain errors keep their codes.
func failSave(f *OutputFormatter, err error) error {
	var ie *ruleflow.InvariantError
	if errors.Is(err, ruleflow.ErrNotFound) || errors.As(err, &ie) {
		return failFor(f, "failed to save", err)
	}
	return f.Fail(ExitCommandError, ErrCodeStore, "failed to save", err)
}
