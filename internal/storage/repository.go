package storage

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when no capture matches the query.
var ErrNotFound = errors.New("storage: capture not found")

// CaptureRecord описывает один сохранённый скриншот
type CaptureRecord struct {
	RunID      string
	Location   string
	FileName   string
	Title      string
	Width      int
	Height     int
	Segments   int
	CheckSum   string // SHA256 (см. checksum.GenerateArtifactHash)
	CapturedAt time.Time
}

// Repository интерфейс для работы с хранилищем скриншотов
type Repository interface {
	// SaveCapture сохраняет запись о скриншоте
	SaveCapture(ctx context.Context, rec *CaptureRecord) error

	// ListByRun возвращает записи прогона в порядке сохранения
	ListByRun(ctx context.Context, runID string) ([]*CaptureRecord, error)

	// LatestByLocation возвращает последнюю запись для URL или ErrNotFound
	LatestByLocation(ctx context.Context, location string) (*CaptureRecord, error)

	Close() error
}
