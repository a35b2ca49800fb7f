package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/roach88/ruleflow/internal/history"
	"github.com/roach88/ruleflow/internal/reducer"
	"github.com/roach88/ruleflow/internal/ruleflow"
)

var (
	// ErrNoDocument is returned when an operation needs a loaded document.
	ErrNoDocument = errors.New("no configuration loaded")

	// ErrNoStore is returned by Save when the editor has no Store.
	ErrNoStore = errors.New("no store configured")

	// ErrNoGenerator is returned by Generate when the editor has no Generator.
	ErrNoGenerator = errors.New("no generator configured")
)

// Clock supplies wall-clock time for metadata and version timestamps.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

// Editor is a single-writer editing session over one configuration.
//
// Thread-safety: all methods are safe for concurrent use; mutations are
// serialized by an internal mutex. Gateway calls run outside the mutex.
type Editor struct {
	mu sync.Mutex

	reducer      *reducer.Reducer
	history      *history.Manager
	store        Store
	generator    Generator
	actionLog    ActionLog
	historyStore HistoryStore
	clock        Clock
	ids          ruleflow.IDGenerator
	seq          *SeqClock
	strict       bool
	className    string
	maxVersions  int
	logger       *slog.Logger

	appID     string
	runtimeID string
	current   *ruleflow.Configuration
	savedHash string

	// versionSeq maps history version ids to the log seq they reach.
	versionSeq map[string]int64
}

// Option configures an Editor.
type Option func(*Editor)

// WithStore sets the persistence gateway.
func WithStore(s Store) Option {
	return func(e *Editor) { e.store = s }
}

// WithGenerator sets the code generation gateway.
func WithGenerator(g Generator) Option {
	return func(e *Editor) { e.generator = g }
}

// WithActionLog records every applied action.
func WithActionLog(l ActionLog) Option {
	return func(e *Editor) { e.actionLog = l }
}

// WithHistoryStore persists history metadata on every successful Save.
func WithHistoryStore(h HistoryStore) Option {
	return func(e *Editor) { e.historyStore = h }
}

// WithClock sets the wall clock.
func WithClock(c Clock) Option {
	return func(e *Editor) { e.clock = c }
}

// WithIDGenerator sets the generator for package, rule and version ids.
func WithIDGenerator(g ruleflow.IDGenerator) Option {
	return func(e *Editor) { e.ids = g }
}

// WithStrict makes programmer errors (unknown action tags) panic.
// Use in development builds and tests.
func WithStrict(strict bool) Option {
	return func(e *Editor) { e.strict = strict }
}

// WithClassName sets the engine class name of default documents.
func WithClassName(name string) Option {
	return func(e *Editor) { e.className = name }
}

// WithMaxVersions sets the history cap.
func WithMaxVersions(n int) Option {
	return func(e *Editor) { e.maxVersions = n }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Editor) { e.logger = l }
}

// New creates an Editor with no document loaded.
func New(opts ...Option) *Editor {
	e := &Editor{
		clock:       systemClock{},
		ids:         reducer.UUIDv7Generator{},
		seq:         NewSeqClockAt(0),
		maxVersions: history.DefaultMaxVersions,
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.reducer = reducer.New(e.ids, reducer.WithLogger(e.logger))
	e.history = history.New(
		history.WithMaxVersions(e.maxVersions),
		history.WithClock(e.clock),
		history.WithIDGenerator(e.ids),
		history.WithLogger(e.logger),
	)
	return e
}

// Start begins a session over an in-memory document. The document becomes
// the first history version and counts as unmodified.
func (e *Editor) Start(appID, runtimeID string, cfg *ruleflow.Configuration) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.begin(appID, runtimeID, cfg.Clone(), "Initial load", 0)
}

// Load fetches the document for (appID, runtimeID) from the store. When
// nothing is stored, or the store fails, the session starts on the default
// document instead; a store failure other than ErrNotFound is still returned
// so the caller can report it.
func (e *Editor) Load(ctx context.Context, appID, runtimeID string) error {
	var (
		cfg     *ruleflow.Configuration
		loadErr error
	)
	if e.store == nil {
		loadErr = ErrNoStore
	} else {
		cfg, loadErr = e.store.Load(ctx, appID, runtimeID)
	}

	var lastSeq int64
	if e.actionLog != nil {
		seq, err := e.actionLog.LastSeq(ctx, appID, runtimeID)
		if err != nil {
			e.logger.Warn("reading action log position failed", "app_id", appID, "runtime_id", runtimeID, "error", err)
		}
		lastSeq = seq
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if loadErr == nil && cfg != nil {
		e.begin(appID, runtimeID, cfg, "Initial load", lastSeq)
		e.logger.Info("configuration loaded", "app_id", appID, "runtime_id", runtimeID, "packages", len(cfg.Packages))
		return nil
	}

	def := ruleflow.NewDefault(appID, runtimeID, e.className, e.clock.Now(), e.ids)
	e.begin(appID, runtimeID, def, "New configuration", lastSeq)

	if loadErr == nil || errors.Is(loadErr, ruleflow.ErrNotFound) || errors.Is(loadErr, ErrNoStore) {
		e.logger.Info("no stored configuration, using default", "app_id", appID, "runtime_id", runtimeID)
		return nil
	}
	e.logger.Warn("load failed, using default configuration", "app_id", appID, "runtime_id", runtimeID, "error", loadErr)
	return fmt.Errorf("load %s/%s: %w", appID, runtimeID, loadErr)
}

// begin must be called with e.mu held.
func (e *Editor) begin(appID, runtimeID string, cfg *ruleflow.Configuration, description string, lastSeq int64) {
	e.appID, e.runtimeID = appID, runtimeID
	e.current = cfg
	e.history.Reset()
	info := e.history.Record(cfg, description)
	e.savedHash = ruleflow.MustHash(cfg)
	e.seq = NewSeqClockAt(lastSeq)
	e.versionSeq = map[string]int64{info.ID: lastSeq}
}

// headSeq returns the log seq reached by the current history version.
// e.mu must be held.
func (e *Editor) headSeq() int64 {
	versions := e.history.Versions()
	idx := e.history.CurrentIndex()
	if idx < 0 || idx >= len(versions) {
		return e.seq.Current()
	}
	if seq, ok := e.versionSeq[versions[idx].ID]; ok {
		return seq
	}
	return e.seq.Current()
}

// pruneVersionSeq forgets versions the history no longer holds.
// e.mu must be held.
func (e *Editor) pruneVersionSeq() {
	versions := e.history.Versions()
	if len(e.versionSeq) <= len(versions) {
		return
	}
	kept := make(map[string]int64, len(versions))
	for _, v := range versions {
		if seq, ok := e.versionSeq[v.ID]; ok {
			kept[v.ID] = seq
		}
	}
	e.versionSeq = kept
}

// Dispatch applies an action. It reports whether the document changed;
// actions with no effect are not recorded. After an undo, the logged
// actions past the current version are dropped from the action log before
// the new one is appended, so the log always replays to Snapshot.
//
// The only error is an unknown action tag, which panics in strict mode.
func (e *Editor) Dispatch(ctx context.Context, a ruleflow.Action) (bool, error) {
	e.mu.Lock()
	if e.current == nil {
		e.mu.Unlock()
		return false, ErrNoDocument
	}

	prepared := e.reducer.Prepare(e.current, a)
	next, err := e.reducer.Apply(e.current, prepared)
	if err != nil {
		e.mu.Unlock()
		if e.strict {
			panic(err)
		}
		return false, err
	}

	nextHash := ruleflow.MustHash(next)
	if nextHash == ruleflow.MustHash(e.current) {
		e.mu.Unlock()
		e.logger.Debug("action had no effect", "type", a.Type())
		return false, nil
	}

	head := e.headSeq()
	abandoned := e.seq.Current() > head
	if abandoned {
		e.seq = NewSeqClockAt(head)
	}

	e.current = next
	info := e.history.Record(next, prepared.Describe())
	rec := ruleflow.ActionRecord{
		Seq:         e.seq.Next(),
		Action:      prepared,
		Description: info.Description,
		ResultHash:  nextHash,
		RecordedAt:  info.Timestamp,
	}
	e.versionSeq[info.ID] = rec.Seq
	e.pruneVersionSeq()
	appID, runtimeID := e.appID, e.runtimeID
	e.mu.Unlock()

	e.logger.Debug("action applied", "type", a.Type(), "version", info.ID, "seq", rec.Seq)
	if e.actionLog != nil {
		if abandoned {
			n, err := e.actionLog.TruncateActions(ctx, appID, runtimeID, head)
			if err != nil {
				e.logger.Warn("action log truncate failed", "after", head, "error", err)
			} else {
				e.logger.Debug("undone actions dropped from log", "after", head, "removed", n)
			}
		}
		if err := e.actionLog.AppendAction(ctx, appID, runtimeID, rec); err != nil {
			e.logger.Warn("action log append failed", "seq", rec.Seq, "error", err)
		}
	}
	return true, nil
}

// Snapshot returns a copy of the current document, or nil before Load/Start.
func (e *Editor) Snapshot() *ruleflow.Configuration {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.current.Clone()
}

// Undo steps back one version. It returns false at the oldest version.
func (e *Editor) Undo() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	cfg, ok := e.history.Undo()
	if ok {
		e.current = cfg
	}
	return ok
}

// Redo steps forward one version. It returns false at the newest version.
func (e *Editor) Redo() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	cfg, ok := e.history.Redo()
	if ok {
		e.current = cfg
	}
	return ok
}

// CanUndo reports whether Undo would succeed.
func (e *Editor) CanUndo() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.history.CanUndo()
}

// CanRedo reports whether Redo would succeed.
func (e *Editor) CanRedo() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.history.CanRedo()
}

// IsModified reports whether the current document differs from the last
// loaded or successfully saved one.
func (e *Editor) IsModified() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.current == nil {
		return false
	}
	return ruleflow.MustHash(e.current) != e.savedHash
}

// Versions returns the history metadata, oldest first, and the current index.
func (e *Editor) Versions() ([]history.VersionInfo, int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.history.Versions(), e.history.CurrentIndex()
}

// SetMaxVersions changes the history cap, trimming immediately.
func (e *Editor) SetMaxVersions(n int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.maxVersions = n
	e.history.SetMaxVersions(n)
}

// AppID returns the application of the loaded document.
func (e *Editor) AppID() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.appID
}

// RuntimeID returns the runtime of the loaded document.
func (e *Editor) RuntimeID() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.runtimeID
}

// Save persists the current document. On success the saved content becomes
// the new unmodified baseline; on failure IsModified is left untouched.
func (e *Editor) Save(ctx context.Context) error {
	if e.store == nil {
		return ErrNoStore
	}

	e.mu.Lock()
	if e.current == nil {
		e.mu.Unlock()
		return ErrNoDocument
	}
	snapshot := e.current.Clone()
	versions, currentIdx := e.history.Versions(), e.history.CurrentIndex()
	appID, runtimeID := e.appID, e.runtimeID
	e.mu.Unlock()

	hash := ruleflow.MustHash(snapshot)
	persisted := snapshot.Clone()
	persisted.Metadata.ModifiedAt = e.clock.Now().UTC().Format(ruleflow.TimestampLayout)

	if err := e.store.Save(ctx, persisted); err != nil {
		e.logger.Warn("save failed", "app_id", appID, "runtime_id", runtimeID, "error", err)
		return fmt.Errorf("save %s/%s: %w", appID, runtimeID, err)
	}

	e.mu.Lock()
	e.savedHash = hash
	e.mu.Unlock()
	e.logger.Info("configuration saved", "app_id", appID, "runtime_id", runtimeID, "hash", hash)

	if e.historyStore != nil {
		if err := e.historyStore.SaveHistory(ctx, appID, runtimeID, versions, currentIdx); err != nil {
			e.logger.Warn("history metadata save failed", "error", err)
		}
	}
	return nil
}

// Generate compiles the current document through the generator.
func (e *Editor) Generate(ctx context.Context) (*ruleflow.Artifact, error) {
	if e.generator == nil {
		return nil, ErrNoGenerator
	}
	snapshot := e.Snapshot()
	if snapshot == nil {
		return nil, ErrNoDocument
	}
	art, err := e.generator.Generate(ctx, snapshot)
	if err != nil {
		return nil, fmt.Errorf("generate: %w", err)
	}
	return art, nil
}

// SwitchContext saves pending edits, then resets and loads another
// (appID, runtimeID). If the save fails the switch is abandoned and the
// current session is left as it was.
func (e *Editor) SwitchContext(ctx context.Context, appID, runtimeID string) error {
	if e.IsModified() && e.store != nil {
		if err := e.Save(ctx); err != nil {
			return fmt.Errorf("save before switching context: %w", err)
		}
	}
	e.Reset()
	return e.Load(ctx, appID, runtimeID)
}

// Reset returns the editor to its uninitialized state.
func (e *Editor) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.appID, e.runtimeID = "", ""
	e.current = nil
	e.savedHash = ""
	e.history.Reset()
	e.seq = NewSeqClockAt(0)
	e.versionSeq = nil
}
