package history

import (
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/roach88/ruleflow/internal/ruleflow"
)

// DefaultMaxVersions is the default history cap.
const DefaultMaxVersions = 100

// Clock supplies version timestamps.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

type uuidGenerator struct{}

func (uuidGenerator) Generate() string { return uuid.Must(uuid.NewV7()).String() }

// Version is one history entry.
type Version struct {
	ID          string
	Timestamp   time.Time
	Description string
	Hash        string
	Snapshot    *ruleflow.Configuration
}

// Info returns the metadata of v without its snapshot.
func (v Version) Info() VersionInfo {
	return VersionInfo{
		ID:          v.ID,
		Timestamp:   v.Timestamp,
		Description: v.Description,
		Hash:        v.Hash,
	}
}

// VersionInfo is the persistable metadata of a version.
type VersionInfo struct {
	ID          string    `json:"id"`
	Timestamp   time.Time `json:"timestamp"`
	Description string    `json:"description"`
	Hash        string    `json:"hash"`
}

// Manager is the undo/redo history of one editing session.
type Manager struct {
	versions []Version
	current  int // -1 while empty
	max      int
	clock    Clock
	ids      ruleflow.IDGenerator
	logger   *slog.Logger
}

// Option configures a Manager.
type Option func(*Manager)

// WithMaxVersions sets the history cap. Values below 1 are raised to 1.
func WithMaxVersions(n int) Option {
	return func(m *Manager) {
		m.max = max(n, 1)
	}
}

// WithClock sets the clock used to timestamp versions.
func WithClock(c Clock) Option {
	return func(m *Manager) {
		m.clock = c
	}
}

// WithIDGenerator sets the generator used for version ids.
func WithIDGenerator(g ruleflow.IDGenerator) Option {
	return func(m *Manager) {
		m.ids = g
	}
}

// WithLogger sets the logger used for diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = l
	}
}

// New creates an empty history.
func New(opts ...Option) *Manager {
	m := &Manager{
		current: -1,
		max:     DefaultMaxVersions,
		clock:   systemClock{},
		ids:     uuidGenerator{},
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Record appends snapshot as the newest version and makes it current.
// Any versions after the current one are discarded first.
func (m *Manager) Record(snapshot *ruleflow.Configuration, description string) VersionInfo {
	if m.current < len(m.versions)-1 {
		m.logger.Debug("truncating redo branch", "dropped", len(m.versions)-1-m.current)
		clear(m.versions[m.current+1:])
		m.versions = m.versions[:m.current+1]
	}

	v := Version{
		ID:          m.ids.Generate(),
		Timestamp:   m.clock.Now(),
		Description: description,
		Hash:        ruleflow.MustHash(snapshot),
		Snapshot:    snapshot.Clone(),
	}
	m.versions = append(m.versions, v)
	m.current = len(m.versions) - 1
	m.trim()

	m.logger.Debug("version recorded", "id", v.ID, "description", description, "index", m.current)
	return v.Info()
}

// Undo moves to the previous version and returns a copy of it.
// It returns false when already at the oldest version.
func (m *Manager) Undo() (*ruleflow.Configuration, bool) {
	if !m.CanUndo() {
		return nil, false
	}
	m.current--
	return m.versions[m.current].Snapshot.Clone(), true
}

// Redo moves to the next version and returns a copy of it.
// It returns false when already at the newest version.
func (m *Manager) Redo() (*ruleflow.Configuration, bool) {
	if !m.CanRedo() {
		return nil, false
	}
	m.current++
	return m.versions[m.current].Snapshot.Clone(), true
}

// CanUndo reports whether Undo would succeed.
func (m *Manager) CanUndo() bool {
	return m.current > 0
}

// CanRedo reports whether Redo would succeed.
func (m *Manager) CanRedo() bool {
	return m.current >= 0 && m.current < len(m.versions)-1
}

// Current returns a copy of the current snapshot, or false if empty.
func (m *Manager) Current() (*ruleflow.Configuration, bool) {
	if m.current < 0 {
		return nil, false
	}
	return m.versions[m.current].Snapshot.Clone(), true
}

// CurrentIndex returns the index of the current version, or -1 if empty.
func (m *Manager) CurrentIndex() int {
	return m.current
}

// Len returns the number of retained versions.
func (m *Manager) Len() int {
	return len(m.versions)
}

// MaxVersions returns the history cap.
func (m *Manager) MaxVersions() int {
	return m.max
}

// SetMaxVersions changes the cap and trims immediately if needed.
func (m *Manager) SetMaxVersions(n int) {
	m.max = max(n, 1)
	m.trim()
}

// Versions returns the metadata of every retained version, oldest first.
func (m *Manager) Versions() []VersionInfo {
	out := make([]VersionInfo, len(m.versions))
	for i, v := range m.versions {
		out[i] = v.Info()
	}
	return out
}

// Reset drops every version.
func (m *Manager) Reset() {
	clear(m.versions)
	m.versions = nil
	m.current = -1
}

// trim keeps the most recent max versions, shifting current with them.
func (m *Manager) trim() {
	drop := len(m.versions) - m.max
	if drop <= 0 {
		return
	}
	kept := make([]Version, m.max)
	copy(kept, m.versions[drop:])
	m.versions = kept
	m.current = max(m.current-drop, 0)
	m.logger.Debug("history trimmed", "dropped", drop, "max", m.max)
}
