package tokenstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS credentials (
  id            INTEGER PRIMARY KEY CHECK (id = 1),
  access_token  TEXT    NOT NULL DEFAULT '',
  refresh_token TEXT    NOT NULL DEFAULT '',
  updated_at    INTEGER NOT NULL
)`

// SQLitePersister keeps the credential pair in a single-row SQLite table.
type SQLitePersister struct {
	sqlDB *sql.DB
}

// OpenSQLite opens (or creates) the database at path and ensures the schema.
func OpenSQLite(path string) (*SQLitePersister, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlDB.Exec(sqliteSchema); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("create credentials table: %w", err)
	}
	return &SQLitePersister{sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle.
func (p *SQLitePersister) Close() error {
	if p == nil || p.sqlDB == nil {
		return nil
	}
	return p.sqlDB.Close()
}

func (p *SQLitePersister) Load(ctx context.Context) (Credentials, error) {
	var creds Credentials
	err := p.sqlDB.QueryRowContext(ctx,
		`SELECT access_token, refresh_token FROM credentials WHERE id = 1`,
	).Scan(&creds.AccessToken, &creds.RefreshToken)
	if errors.Is(err, sql.ErrNoRows) {
		return Credentials{}, nil
	}
	if err != nil {
		return Credentials{}, fmt.Errorf("load credentials: %w", err)
	}
	return creds, nil
}

func (p *SQLitePersister) Save(ctx context.Context, creds Credentials) error {
	_, err := p.sqlDB.ExecContext(ctx,
		`INSERT INTO credentials (id, access_token, refresh_token, updated_at)
		 VALUES (1, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   access_token = excluded.access_token,
		   refresh_token = excluded.refresh_token,
		   updated_at = excluded.updated_at`,
		creds.AccessToken,
		creds.RefreshToken,
		time.Now().UTC().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("save credentials: %w", err)
	}
	return nil
}

func (p *SQLitePersister) Clear(ctx context.Context) error {
	if _, err := p.sqlDB.ExecContext(ctx, `DELETE FROM credentials WHERE id = 1`); err != nil {
		return fmt.Errorf("clear credentials: %w", err)
	}
	return nil
}
