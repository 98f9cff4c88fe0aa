// Package sqlite stores capture records in a local SQLite file.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"pageshot/internal/observability"
	"pageshot/internal/storage"
)

const schema = `
CREATE TABLE IF NOT EXISTS captures (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id      TEXT    NOT NULL,
	location    TEXT    NOT NULL,
	file_name   TEXT    NOT NULL,
	title       TEXT    NOT NULL DEFAULT '',
	width       INTEGER NOT NULL,
	height      INTEGER NOT NULL,
	segments    INTEGER NOT NULL,
	checksum    TEXT    NOT NULL,
	captured_at TEXT    NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_captures_run ON captures(run_id);
CREATE INDEX IF NOT EXISTS idx_captures_location ON captures(location, captured_at);
`

var _ storage.Repository = (*Repository)(nil)

type Repository struct {
	db             *sql.DB
	commandTimeout time.Duration
	logger         *observability.Logger
}

func NewRepository(path string, commandTimeout time.Duration, logger *observability.Logger) (*Repository, error) {
	if dir := filepath.Dir(path); dir != "." && !strings.HasPrefix(path, "file:") {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	for _, pragma := range []string{"PRAGMA journal_mode = WAL", "PRAGMA busy_timeout = 10000"} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply %q: %w", pragma, err)
		}
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &Repository{db: db, commandTimeout: commandTimeout, logger: logger}, nil
}

func (r *Repository) SaveCapture(ctx context.Context, rec *storage.CaptureRecord) error {
	ctx, cancel := context.WithTimeout(ctx, r.commandTimeout)
	defer cancel()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO captures (run_id, location, file_name, title, width, height, segments, checksum, captured_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.RunID, rec.Location, rec.FileName, rec.Title,
		rec.Width, rec.Height, rec.Segments, rec.CheckSum,
		rec.CapturedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("failed to insert capture: %w", err)
	}
	return nil
}

func (r *Repository) ListByRun(ctx context.Context, runID string) ([]*storage.CaptureRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, r.commandTimeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, selectColumns+` WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query database: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			r.logger.Error("Failed to close rows", "error", err.Error())
		}
	}()

	var out []*storage.CaptureRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *Repository) LatestByLocation(ctx context.Context, location string) (*storage.CaptureRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, r.commandTimeout)
	defer cancel()

	row := r.db.QueryRowContext(ctx, selectColumns+` WHERE location = ? ORDER BY captured_at DESC, id DESC LIMIT 1`, location)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	return rec, err
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Fixed width so captured_at sorts lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

const selectColumns = `SELECT run_id, location, file_name, title, width, height, segments, checksum, captured_at FROM captures`

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(s scanner) (*storage.CaptureRecord, error) {
	var rec storage.CaptureRecord
	var capturedAt string
	err := s.Scan(&rec.RunID, &rec.Location, &rec.FileName, &rec.Title,
		&rec.Width, &rec.Height, &rec.Segments, &rec.CheckSum, &capturedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan capture: %w", err)
	}
	rec.CapturedAt, err = time.Parse(timeLayout, capturedAt)
	if err != nil {
		return nil, fmt.Errorf("invalid captured_at %q: %w", capturedAt, err)
	}
	return &rec, nil
}
