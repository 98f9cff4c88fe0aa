package storage

import (
	"context"
	"fmt"

	"pageshot/internal/checksum"
	"pageshot/internal/download"
)

// RecordingSink stores a CaptureRecord for every artifact of one run.
type RecordingSink struct {
	repo  Repository
	runID string
	gen   *checksum.Generator
}

func NewRecordingSink(repo Repository, runID string) *RecordingSink {
	return &RecordingSink{repo: repo, runID: runID, gen: checksum.NewGenerator()}
}

func (s *RecordingSink) Save(ctx context.Context, a *download.Artifact) error {
	rec := &CaptureRecord{
		RunID:      s.runID,
		Location:   a.Location,
		FileName:   a.FileName,
		Title:      a.Title,
		Width:      a.Width,
		Height:     a.Height,
		Segments:   a.Segments,
		CheckSum:   s.gen.GenerateArtifactHash(a.Location, a.Data),
		CapturedAt: a.CapturedAt.UTC(),
	}
	if err := s.repo.SaveCapture(ctx, rec); err != nil {
		return fmt.Errorf("storage: save capture: %w", err)
	}
	return nil
}

// Close does not close the repository; its owner does.
func (s *RecordingSink) Close() error { return nil }
