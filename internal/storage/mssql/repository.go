package mssql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/microsoft/go-mssqldb"

	"pageshot/internal/observability"
	"pageshot/internal/storage"
)

var _ storage.Repository = (*Repository)(nil)

type Repository struct {
	db             *sql.DB
	commandTimeout time.Duration
	logger         *observability.Logger
}

func NewRepository(dsn string, commandTimeout time.Duration, logger *observability.Logger) (*Repository, error) {
	db, err := sql.Open("sqlserver", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Тестируем соединение
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Repository{
		db:             db,
		commandTimeout: commandTimeout,
		logger:         logger,
	}, nil
}

// SaveCapture сохраняет запись о скриншоте в TblCaptures
func (r *Repository) SaveCapture(ctx context.Context, rec *storage.CaptureRecord) error {
	ctx, cancel := context.WithTimeout(ctx, r.commandTimeout)
	defer cancel()

	query := `
		INSERT INTO TblCaptures ([RunID], [URL], [FileName], [Title], [Width], [Height], [Segments], [CheckSum], [DT])
		VALUES (@RunID, @URL, @FileName, @Title, @Width, @Height, @Segments, @CheckSum, @DT);
	`

	stmt, err := r.db.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer func() {
		if err := stmt.Close(); err != nil {
			r.logger.Error("Failed to close statement", "error", err.Error())
		}
	}()

	_, err = stmt.ExecContext(ctx,
		sql.Named("RunID", rec.RunID),
		sql.Named("URL", rec.Location),
		sql.Named("FileName", rec.FileName),
		sql.Named("Title", rec.Title),
		sql.Named("Width", rec.Width),
		sql.Named("Height", rec.Height),
		sql.Named("Segments", rec.Segments),
		sql.Named("CheckSum", rec.CheckSum),
		sql.Named("DT", rec.CapturedAt.UTC()),
	)
	if err != nil {
		return fmt.Errorf("failed to execute insert: %w", err)
	}

	return nil
}

// ListByRun возвращает записи прогона
func (r *Repository) ListByRun(ctx context.Context, runID string) ([]*storage.CaptureRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, r.commandTimeout)
	defer cancel()

	query := selectColumns + ` WHERE [RunID] = @RunID ORDER BY [UID]`

	rows, err := r.db.QueryContext(ctx, query, sql.Named("RunID", runID))
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
		var rec storage.CaptureRecord
		if err := rows.Scan(&rec.RunID, &rec.Location, &rec.FileName, &rec.Title,
			&rec.Width, &rec.Height, &rec.Segments, &rec.CheckSum, &rec.CapturedAt); err != nil {
			return nil, fmt.Errorf("failed to scan capture: %w", err)
		}
		out = append(out, &rec)
	}

	return out, rows.Err()
}

// LatestByLocation возвращает последнюю запись для URL
func (r *Repository) LatestByLocation(ctx context.Context, location string) (*storage.CaptureRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, r.commandTimeout)
	defer cancel()

	query := `SELECT TOP 1 [RunID], [URL], [FileName], [Title], [Width], [Height], [Segments], [CheckSum], [DT]
		FROM TblCaptures WHERE [URL] = @URL ORDER BY [DT] DESC, [UID] DESC`

	var rec storage.CaptureRecord
	err := r.db.QueryRowContext(ctx, query, sql.Named("URL", location)).Scan(
		&rec.RunID, &rec.Location, &rec.FileName, &rec.Title,
		&rec.Width, &rec.Height, &rec.Segments, &rec.CheckSum, &rec.CapturedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("failed to query database: %w", err)
	}

	return &rec, nil
}

// Close закрывает соединение с БД
func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

const selectColumns = `SELECT [RunID], [URL], [FileName], [Title], [Width], [Height], [Segments], [CheckSum], [DT] FROM TblCaptures`
