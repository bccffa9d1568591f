package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// dbtx is satisfied by *pgxpool.Pool, *pgx.Conn and pgx.Tx
type dbtx interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Repository handles audit data persistence
// ⭐ SSOT: Audit 데이터 저장/조회는 여기서만
type Repository struct {
	db dbtx
}

// NewRepository creates a new audit repository
func NewRepository(db dbtx) *Repository {
	return &Repository{db: db}
}

const schemaDDL = `
	CREATE SCHEMA IF NOT EXISTS audit;

	CREATE TABLE IF NOT EXISTS audit.launches (
		id           BIGSERIAL PRIMARY KEY,
		session_id   TEXT        NOT NULL,
		file_name    TEXT        NOT NULL,
		rows         INTEGER     NOT NULL,
		columns      JSONB       NOT NULL,
		output_path  TEXT        NOT NULL,
		catalog_hash TEXT        NOT NULL,
		launched_at  TIMESTAMPTZ NOT NULL
	);

	CREATE TABLE IF NOT EXISTS audit.publishes (
		id           BIGSERIAL PRIMARY KEY,
		session_id   TEXT        NOT NULL,
		target       TEXT        NOT NULL,
		mode         TEXT        NOT NULL,
		ref          TEXT        NOT NULL,
		status       TEXT        NOT NULL,
		published_at TIMESTAMPTZ NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_launches_session ON audit.launches (session_id);
`

// EnsureSchema creates the audit tables if they do not exist
func (r *Repository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, schemaDDL); err != nil {
		return fmt.Errorf("failed to ensure audit schema: %w", err)
	}
	return nil
}

// RecordLaunch saves one launch export
func (r *Repository) RecordLaunch(ctx context.Context, rec LaunchRecord) error {
	columnsJSON, err := json.Marshal(rec.Columns)
	if err != nil {
		return fmt.Errorf("failed to marshal columns: %w", err)
	}

	query := `
		INSERT INTO audit.launches (
			session_id, file_name, rows, columns, output_path, catalog_hash, launched_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err = r.db.Exec(ctx, query,
		rec.SessionID, rec.FileName, rec.Rows, columnsJSON,
		rec.OutputPath, rec.CatalogHash, rec.LaunchedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to record launch: %w", err)
	}

	return nil
}

// RecordPublish saves one publish request
func (r *Repository) RecordPublish(ctx context.Context, rec PublishRecord) error {
	query := `
		INSERT INTO audit.publishes (
			session_id, target, mode, ref, status, published_at
		) VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.db.Exec(ctx, query,
		rec.SessionID, rec.Target, rec.Mode, rec.Ref, rec.Status, rec.PublishedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to record publish: %w", err)
	}

	return nil
}

// ListLaunches returns the launches of a session, newest first
func (r *Repository) ListLaunches(ctx context.Context, sessionID string, limit int) ([]LaunchRecord, error) {
	query := `
		SELECT session_id, file_name, rows, columns, output_path, catalog_hash, launched_at
		FROM audit.launches
		WHERE session_id = $1
		ORDER BY launched_at DESC
		LIMIT $2
	`

	rows, err := r.db.Query(ctx, query, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query launches: %w", err)
	}
	defer rows.Close()

	records := make([]LaunchRecord, 0)
	for rows.Next() {
		var rec LaunchRecord
		var columnsJSON []byte
		if err := rows.Scan(
			&rec.SessionID, &rec.FileName, &rec.Rows, &columnsJSON,
			&rec.OutputPath, &rec.CatalogHash, &rec.LaunchedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan launch: %w", err)
		}
		if err := json.Unmarshal(columnsJSON, &rec.Columns); err != nil {
			return nil, fmt.Errorf("failed to unmarshal columns: %w", err)
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate launches: %w", err)
	}

	return records, nil
}

// LaunchRecord is one exported campaign file
type LaunchRecord struct {
	SessionID   string    `json:"session_id"`
	FileName    string    `json:"file_name"`
	Rows        int       `json:"rows"`
	Columns     []string  `json:"columns"`
	OutputPath  string    `json:"output_path"`
	CatalogHash string    `json:"catalog_hash"`
	LaunchedAt  time.Time `json:"launched_at"`
}

// PublishRecord is one acknowledged publish request
type PublishRecord struct {
	SessionID   string    `json:"session_id"`
	Target      string    `json:"target"`
	Mode        string    `json:"mode"`
	Ref         string    `json:"ref"`
	Status      string    `json:"status"`
	PublishedAt time.Time `json:"published_at"`
}
