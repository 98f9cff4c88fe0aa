package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"pageshot/internal/download"
	"pageshot/internal/observability"
	"pageshot/internal/storage"
)

func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	repo, err := NewRepository(filepath.Join(t.TempDir(), "db", "captures.db"), 5*time.Second, observability.Discard())
	if err != nil {
		t.Fatalf("NewRepository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestSaveAndListByRun(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	at := time.Date(2025, 10, 18, 9, 30, 0, 0, time.UTC)

	for i, loc := range []string{"https://x.test/", "https://y.test/"} {
		rec := &storage.CaptureRecord{
			RunID:      "run-1",
			Location:   loc,
			FileName:   download.FileName(loc),
			Width:      100,
			Height:     400,
			Segments:   2,
			CheckSum:   "abc",
			CapturedAt: at.Add(time.Duration(i) * time.Second),
		}
		if err := repo.SaveCapture(ctx, rec); err != nil {
			t.Fatalf("SaveCapture: %v", err)
		}
	}
	if err := repo.SaveCapture(ctx, &storage.CaptureRecord{RunID: "run-2", Location: "https://z.test/", CapturedAt: at}); err != nil {
		t.Fatalf("SaveCapture: %v", err)
	}

	got, err := repo.ListByRun(ctx, "run-1")
	if err != nil {
		t.Fatalf("ListByRun: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d records, want 2", len(got))
	}
	if got[0].Location != "https://x.test/" || got[1].FileName != "screenshot_https___y_test_.png" {
		t.Errorf("unexpected order or content: %+v, %+v", got[0], got[1])
	}
	if !got[1].CapturedAt.Equal(at.Add(time.Second)) {
		t.Errorf("CapturedAt = %v", got[1].CapturedAt)
	}
}

func TestLatestByLocation(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	base := time.Date(2025, 10, 18, 9, 30, 0, 0, time.UTC)

	if _, err := repo.LatestByLocation(ctx, "https://x.test/"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("LatestByLocation on empty db = %v, want ErrNotFound", err)
	}

	for _, rec := range []*storage.CaptureRecord{
		{RunID: "old", Location: "https://x.test/", CapturedAt: base.Add(500 * time.Millisecond)},
		{RunID: "new", Location: "https://x.test/", CapturedAt: base.Add(2 * time.Second)},
		{RunID: "older", Location: "https://x.test/", CapturedAt: base},
	} {
		if err := repo.SaveCapture(ctx, rec); err != nil {
			t.Fatalf("SaveCapture: %v", err)
		}
	}

	got, err := repo.LatestByLocation(ctx, "https://x.test/")
	if err != nil {
		t.Fatalf("LatestByLocation: %v", err)
	}
	if got.RunID != "new" {
		t.Errorf("RunID = %q, want new", got.RunID)
	}
}

func TestRecordingSink(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	sink := storage.NewRecordingSink(repo, "run-9")
	a := &download.Artifact{
		Location:   "https://x.test/",
		FileName:   download.FileName("https://x.test/"),
		Data:       []byte("png"),
		Width:      100,
		Height:     400,
		Segments:   2,
		Title:      "X",
		CapturedAt: time.Now(),
	}
	if err := sink.Save(ctx, a); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := repo.ListByRun(ctx, "run-9")
	if err != nil || len(got) != 1 {
		t.Fatalf("ListByRun = %v, %v", got, err)
	}
	if got[0].Title != "X" || len(got[0].CheckSum) != 64 {
		t.Errorf("unexpected record: %+v", got[0])
	}
}
