package sessionstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	_ "github.com/jackc/pgx/v5/stdlib"

	"storyboarder/internal/workflow"
)

// PostgresStore keeps one JSONB snapshot row per session.
type PostgresStore struct {
	db *sql.DB

	schemaOnce sync.Once
	schemaErr  error
}

// NewPostgres opens dsn with the pgx driver and checks the connection.
func NewPostgres(ctx context.Context, dsn string) (*PostgresStore, error) {
	db, err := sql.Open("pgx", strings.TrimSpace(dsn))
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *PostgresStore) ensureSchema(ctx context.Context) error {
	s.schemaOnce.Do(func() {
		_, s.schemaErr = s.db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS session_snapshots (
  session_id TEXT PRIMARY KEY,
  stage INTEGER NOT NULL,
  version BIGINT NOT NULL,
  snapshot JSONB NOT NULL,
  updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
);
`)
	})
	return s.schemaErr
}

func (s *PostgresStore) Save(ctx context.Context, snap workflow.Snapshot) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("store is nil")
	}
	id := normalizeID(snap.ID)
	if id == "" {
		return fmt.Errorf("session_id is required")
	}
	if err := s.ensureSchema(ctx); err != nil {
		return err
	}
	body, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	// Older versions never overwrite newer ones.
	_, err = s.db.ExecContext(ctx, `
INSERT INTO session_snapshots (session_id, stage, version, snapshot, updated_at)
VALUES ($1,$2,$3,$4,NOW())
ON CONFLICT (session_id)
DO UPDATE SET stage=EXCLUDED.stage,
  version=EXCLUDED.version,
  snapshot=EXCLUDED.snapshot,
  updated_at=EXCLUDED.updated_at
WHERE session_snapshots.version <= EXCLUDED.version`,
		id, int(snap.Stage), int64(snap.Version), body)
	return err
}

func (s *PostgresStore) Load(ctx context.Context, sessionID string) (workflow.Snapshot, error) {
	if s == nil || s.db == nil {
		return workflow.Snapshot{}, fmt.Errorf("store is nil")
	}
	id := normalizeID(sessionID)
	if id == "" {
		return workflow.Snapshot{}, fmt.Errorf("session_id is required")
	}
	if err := s.ensureSchema(ctx); err != nil {
		return workflow.Snapshot{}, err
	}
	var body []byte
	err := s.db.QueryRowContext(ctx, `SELECT snapshot FROM session_snapshots WHERE session_id = $1`, id).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return workflow.Snapshot{}, ErrNotFound
	}
	if err != nil {
		return workflow.Snapshot{}, err
	}
	var snap workflow.Snapshot
	if err := json.Unmarshal(body, &snap); err != nil {
		return workflow.Snapshot{}, fmt.Errorf("decode snapshot: %w", err)
	}
	return snap, nil
}

func (s *PostgresStore) Delete(ctx context.Context, sessionID string) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("store is nil")
	}
	if err := s.ensureSchema(ctx); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `DELETE FROM session_snapshots WHERE session_id = $1`, normalizeID(sessionID))
	return err
}
