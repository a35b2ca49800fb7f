package store

import (
	"context"
	"fmt"

	"github.com/roach88/ruleflow/internal/ruleflow"
)

// AppendAction writes one action-log record.
// Uses ON CONFLICT DO NOTHING for idempotency - a record with an existing
// seq is silently ignored.
func (s *Store) AppendAction(ctx context.Context, appID, runtimeID string, rec ruleflow.ActionRecord) error {
	return appendAction(ctx, s.db, appID, runtimeID, rec)
}

func appendAction(ctx context.Context, ex execer, appID, runtimeID string, rec ruleflow.ActionRecord) error {
	action, err := marshalAction(rec.Action)
	if err != nil {
		return fmt.Errorf("append action: %w", err)
	}
	actionHash, err := ruleflow.ActionHash(rec.Action)
	if err != nil {
		return fmt.Errorf("append action: %w", err)
	}

	_, err = ex.ExecContext(ctx, `
		INSERT INTO action_log
		(app_id, runtime_id, seq, type, action, action_hash, description, result_hash, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT DO NOTHING
	`,
		appID,
		runtimeID,
		rec.Seq,
		string(rec.Action.Type()),
		action,
		actionHash,
		rec.Description,
		rec.ResultHash,
		formatTime(rec.RecordedAt),
	)
	if err != nil {
		return fmt.Errorf("append action seq %d: %w", rec.Seq, err)
	}
	return nil
}

// LastSeq returns the highest seq logged for a document, or 0.
func (s *Store) LastSeq(ctx context.Context, appID, runtimeID string) (int64, error) {
	var seq int64
	err := s.db.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(seq), 0)
		FROM action_log
		WHERE app_id = ? AND runtime_id = ?
	`, appID, runtimeID).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("last seq: %w", err)
	}
	return seq, nil
}

// ReadActions returns the action log of a document ordered by seq.
// Records with seq <= after are skipped. Returns an empty slice (not nil)
// if there are none.
func (s *Store) ReadActions(ctx context.Context, appID, runtimeID string, after int64) ([]ruleflow.ActionRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, action, description, result_hash, recorded_at
		FROM action_log
		WHERE app_id = ? AND runtime_id = ? AND seq > ?
		ORDER BY seq ASC
	`, appID, runtimeID, after)
	if err != nil {
		return nil, fmt.Errorf("query actions: %w", err)
	}
	defer rows.Close()

	records := []ruleflow.ActionRecord{}
	for rows.Next() {
		var (
			rec                ruleflow.ActionRecord
			action, recordedAt string
		)
		if err := rows.Scan(&rec.Seq, &action, &rec.Description, &rec.ResultHash, &recordedAt); err != nil {
			return nil, fmt.Errorf("scan action: %w", err)
		}
		if rec.Action, err = unmarshalAction(action); err != nil {
			return nil, fmt.Errorf("seq %d: %w", rec.Seq, err)
		}
		if rec.RecordedAt, err = parseTime(recordedAt); err != nil {
			return nil, fmt.Errorf("seq %d: %w", rec.Seq, err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate actions: %w", err)
	}
	return records, nil
}

// CountActionHash returns how many logged actions of a document share hash.
func (s *Store) CountActionHash(ctx context.Context, appID, runtimeID, hash string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM action_log
		WHERE app_id = ? AND runtime_id = ? AND action_hash = ?
	`, appID, runtimeID, hash).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count action hash: %w", err)
	}
	return n, nil
}
