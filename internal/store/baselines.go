package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/ruleflow/internal/ruleflow"
)

// SaveBaseline makes cfg the starting point of its document's action log.
// The existing log is discarded and the head is reset to 0, in a single
// transaction. The current document itself is not touched; call Save too.
func (s *Store) SaveBaseline(ctx context.Context, cfg *ruleflow.Configuration) (err error) {
	if err := ruleflow.Validate(cfg); err != nil {
		return fmt.Errorf("save baseline: %w", err)
	}
	doc, err := marshalDocument(cfg)
	if err != nil {
		return fmt.Errorf("save baseline: %w", err)
	}
	appID, runtimeID := cfg.Metadata.AppID, cfg.Metadata.RuntimeID

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("save baseline: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `
		DELETE FROM action_log WHERE app_id = ? AND runtime_id = ?
	`, appID, runtimeID); err != nil {
		return fmt.Errorf("save baseline: %w", err)
	}
	if _, err = tx.ExecContext(ctx, `
		INSERT INTO baselines (app_id, runtime_id, document, hash, head_seq, created_at)
		VALUES (?, ?, ?, ?, 0, ?)
		ON CONFLICT(app_id, runtime_id) DO UPDATE SET
			document = excluded.document,
			hash = excluded.hash,
			head_seq = 0,
			created_at = excluded.created_at
	`, appID, runtimeID, doc, ruleflow.MustHash(cfg), cfg.Metadata.CreatedAt); err != nil {
		return fmt.Errorf("save baseline %s/%s: %w", appID, runtimeID, err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("save baseline: %w", err)
	}
	s.logger.Debug("baseline saved", "app_id", appID, "runtime_id", runtimeID)
	return nil
}

// LoadBaseline returns the baseline document and the current head seq.
// Returns an error wrapping ruleflow.ErrNotFound if none exists.
func (s *Store) LoadBaseline(ctx context.Context, appID, runtimeID string) (*ruleflow.Configuration, int64, error) {
	var (
		doc  string
		head int64
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT document, head_seq
		FROM baselines
		WHERE app_id = ? AND runtime_id = ?
	`, appID, runtimeID).Scan(&doc, &head)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, 0, fmt.Errorf("baseline %s/%s: %w", appID, runtimeID, ruleflow.ErrNotFound)
	}
	if err != nil {
		return nil, 0, fmt.Errorf("baseline %s/%s: %w", appID, runtimeID, err)
	}
	cfg, err := unmarshalDocument(doc)
	if err != nil {
		return nil, 0, fmt.Errorf("baseline %s/%s: %w", appID, runtimeID, err)
	}
	return cfg, head, nil
}

// SetHead records how far into the action log the saved document reaches.
func (s *Store) SetHead(ctx context.Context, appID, runtimeID string, seq int64) error {
	return setHead(ctx, s.db, appID, runtimeID, seq)
}

func setHead(ctx context.Context, ex execer, appID, runtimeID string, seq int64) error {
	res, err := ex.ExecContext(ctx, `
		UPDATE baselines SET head_seq = ? WHERE app_id = ? AND runtime_id = ?
	`, seq, appID, runtimeID)
	if err != nil {
		return fmt.Errorf("set head %s/%s: %w", appID, runtimeID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("set head %s/%s: %w", appID, runtimeID, ruleflow.ErrNotFound)
	}
	return nil
}

// TruncateActions deletes logged actions with seq > after and reports how
// many were removed. Used when new edits abandon undone actions.
func (s *Store) TruncateActions(ctx context.Context, appID, runtimeID string, after int64) (int64, error) {
	n, err := truncateActions(ctx, s.db, appID, runtimeID, after)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.logger.Debug("actions truncated", "app_id", appID, "runtime_id", runtimeID, "after", after, "removed", n)
	}
	return n, nil
}

func truncateActions(ctx context.Context, ex execer, appID, runtimeID string, after int64) (int64, error) {
	res, err := ex.ExecContext(ctx, `
		DELETE FROM action_log WHERE app_id = ? AND runtime_id = ? AND seq > ?
	`, appID, runtimeID, after)
	if err != nil {
		return 0, fmt.Errorf("truncate actions: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("truncate actions: %w", err)
	}
	return n, nil
}
