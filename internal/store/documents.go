package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/ruleflow/internal/ruleflow"
)

// DocumentRef identifies a stored document without loading it.
type DocumentRef struct {
	AppID     string `json:"app_id"`
	RuntimeID string `json:"runtime_id"`
	ClassName string `json:"class_name"`
	Hash      string `json:"hash"`
	UpdatedAt string `json:"updated_at"`
}

// Load returns the stored document for (appID, runtimeID).
// Returns an error wrapping ruleflow.ErrNotFound if none exists.
func (s *Store) Load(ctx context.Context, appID, runtimeID string) (*ruleflow.Configuration, error) {
	var doc, hash string
	err := s.db.QueryRowContext(ctx, `
		SELECT document, hash
		FROM configurations
		WHERE app_id = ? AND runtime_id = ?
	`, appID, runtimeID).Scan(&doc, &hash)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("load %s/%s: %w", appID, runtimeID, ruleflow.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load %s/%s: %w", appID, runtimeID, err)
	}

	cfg, err := unmarshalDocument(doc)
	if err != nil {
		return nil, fmt.Errorf("load %s/%s: %w", appID, runtimeID, err)
	}
	if got := ruleflow.MustHash(cfg); got != hash {
		s.logger.Warn("stored document hash mismatch", "app_id", appID, "runtime_id", runtimeID, "stored", hash, "computed", got)
	}
	return cfg, nil
}

// Save upserts cfg under its metadata's (app_id, runtime_id).
// Documents that break structural invariants are rejected.
func (s *Store) Save(ctx context.Context, cfg *ruleflow.Configuration) error {
	if err := saveDocument(ctx, s.db, cfg); err != nil {
		return err
	}
	s.logger.Debug("document saved", "app_id", cfg.Metadata.AppID, "runtime_id", cfg.Metadata.RuntimeID)
	return nil
}

func saveDocument(ctx context.Context, ex execer, cfg *ruleflow.Configuration) error {
	if err := ruleflow.Validate(cfg); err != nil {
		return fmt.Errorf("save: %w", err)
	}
	doc, err := marshalDocument(cfg)
	if err != nil {
		return fmt.Errorf("save: %w", err)
	}
	hash := ruleflow.MustHash(cfg)

	_, err = ex.ExecContext(ctx, `
		INSERT INTO configurations (app_id, runtime_id, document, hash, class_name, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(app_id, runtime_id) DO UPDATE SET
			document = excluded.document,
			hash = excluded.hash,
			class_name = excluded.class_name,
			updated_at = excluded.updated_at
	`,
		cfg.Metadata.AppID,
		cfg.Metadata.RuntimeID,
		doc,
		hash,
		cfg.Metadata.ClassName,
		cfg.Metadata.ModifiedAt,
	)
	if err != nil {
		return fmt.Errorf("save %s/%s: %w", cfg.Metadata.AppID, cfg.Metadata.RuntimeID, err)
	}
	return nil
}

// List returns every stored document reference ordered by app then runtime.
// Returns an empty slice (not nil) if the store is empty.
func (s *Store) List(ctx context.Context) ([]DocumentRef, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT app_id, runtime_id, class_name, hash, updated_at
		FROM configurations
		ORDER BY app_id COLLATE BINARY ASC, runtime_id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	refs := []DocumentRef{}
	for rows.Next() {
		var r DocumentRef
		if err := rows.Scan(&r.AppID, &r.RuntimeID, &r.ClassName, &r.Hash, &r.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan document ref: %w", err)
		}
		refs = append(refs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}
	return refs, nil
}
