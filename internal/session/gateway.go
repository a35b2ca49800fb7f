package session

import (
	"context"

	"github.com/roach88/ruleflow/internal/history"
	"github.com/roach88/ruleflow/internal/ruleflow"
)

// Store loads and persists configuration documents.
// Load returns an error wrapping ruleflow.ErrNotFound when no document exists.
type Store interface {
	Load(ctx context.Context, appID, runtimeID string) (*ruleflow.Configuration, error)
	Save(ctx context.Context, cfg *ruleflow.Configuration) error
}

// Generator compiles a configuration to source code.
type Generator interface {
	Generate(ctx context.Context, cfg *ruleflow.Configuration) (*ruleflow.Artifact, error)
}

// ActionLog records every applied action for replay and auditing.
// TruncateActions drops records with seq > after and reports how many
// were removed; the editor calls it when an edit abandons undone actions.
type ActionLog interface {
	AppendAction(ctx context.Context, appID, runtimeID string, rec ruleflow.ActionRecord) error
	LastSeq(ctx context.Context, appID, runtimeID string) (int64, error)
	TruncateActions(ctx context.Context, appID, runtimeID string, after int64) (int64, error)
}

// HistoryStore persists history metadata for session resumption.
// Snapshots are not persisted.
type HistoryStore interface {
	SaveHistory(ctx context.Context, appID, runtimeID string, versions []history.VersionInfo, current int) error
}
