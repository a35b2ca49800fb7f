package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/ruleflow/internal/ruleflow"
)

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// CommitActions records an edit session in one transaction: logged actions
// with seq > after are dropped, recs are appended, cfg becomes the current
// document and the head moves to head. On any failure nothing is written.
// Returns how many logged actions were dropped.
func (s *Store) CommitActions(ctx context.Context, cfg *ruleflow.Configuration, after int64, recs []ruleflow.ActionRecord, head int64) (discarded int64, err error) {
	appID, runtimeID := cfg.Metadata.AppID, cfg.Metadata.RuntimeID

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("commit actions: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if discarded, err = truncateActions(ctx, tx, appID, runtimeID, after); err != nil {
		return 0, err
	}
	for _, rec := range recs {
		if err = appendAction(ctx, tx, appID, runtimeID, rec); err != nil {
			return 0, err
		}
	}
	if err = saveDocument(ctx, tx, cfg); err != nil {
		return 0, err
	}
	if err = setHead(ctx, tx, appID, runtimeID, head); err != nil {
		return 0, err
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit actions: %w", err)
	}
	s.logger.Debug("actions committed",
		"app_id", appID,
		"runtime_id", runtimeID,
		"appended", len(recs),
		"discarded", discarded,
		"head", head,
	)
	return discarded, nil
}

// MoveHead saves cfg as the current document and moves the head to seq in
// one transaction. The action log is left as is.
func (s *Store) MoveHead(ctx context.Context, cfg *ruleflow.Configuration, seq int64) (err error) {
	appID, runtimeID := cfg.Metadata.AppID, cfg.Metadata.RuntimeID

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("move head: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = saveDocument(ctx, tx, cfg); err != nil {
		return err
	}
	if err = setHead(ctx, tx, appID, runtimeID, seq); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("move head: %w", err)
	}
	s.logger.Debug("head moved", "app_id", appID, "runtime_id", runtimeID, "head", seq)
	return nil
}
