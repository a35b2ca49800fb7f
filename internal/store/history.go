package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/ruleflow/internal/history"
)

// SaveHistory replaces the stored history metadata of a document in a
// single transaction.
func (s *Store) SaveHistory(ctx context.Context, appID, runtimeID string, versions []history.VersionInfo, current int) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("save history: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `
		DELETE FROM history_state WHERE app_id = ? AND runtime_id = ?
	`, appID, runtimeID); err != nil {
		return fmt.Errorf("save history: %w", err)
	}
	if _, err = tx.ExecContext(ctx, `
		INSERT INTO history_state (app_id, runtime_id, current_index) VALUES (?, ?, ?)
	`, appID, runtimeID, current); err != nil {
		return fmt.Errorf("save history: %w", err)
	}
	for i, v := range versions {
		if _, err = tx.ExecContext(ctx, `
			INSERT INTO history_versions (app_id, runtime_id, position, id, timestamp, description, hash)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, appID, runtimeID, i, v.ID, formatTime(v.Timestamp), v.Description, v.Hash); err != nil {
			return fmt.Errorf("save history version %d: %w", i, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("save history: %w", err)
	}
	return nil
}

// LoadHistory returns the stored history metadata of a document, oldest
// first, and the current index. A document without stored history yields
// an empty slice and -1.
func (s *Store) LoadHistory(ctx context.Context, appID, runtimeID string) ([]history.VersionInfo, int, error) {
	current := -1
	err := s.db.QueryRowContext(ctx, `
		SELECT current_index FROM history_state WHERE app_id = ? AND runtime_id = ?
	`, appID, runtimeID).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return []history.VersionInfo{}, -1, nil
	}
	if err != nil {
		return nil, -1, fmt.Errorf("load history: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, timestamp, description, hash
		FROM history_versions
		WHERE app_id = ? AND runtime_id = ?
		ORDER BY position ASC
	`, appID, runtimeID)
	if err != nil {
		return nil, -1, fmt.Errorf("load history: %w", err)
	}
	defer rows.Close()

	versions := []history.VersionInfo{}
	for rows.Next() {
		var (
			v  history.VersionInfo
			ts string
		)
		if err := rows.Scan(&v.ID, &ts, &v.Description, &v.Hash); err != nil {
			return nil, -1, fmt.Errorf("scan history version: %w", err)
		}
		if v.Timestamp, err = parseTime(ts); err != nil {
			return nil, -1, err
		}
		versions = append(versions, v)
	}
	if err := rows.Err(); err != nil {
		return nil, -1, fmt.Errorf("iterate history: %w", err)
	}
	return versions, current, nil
}
