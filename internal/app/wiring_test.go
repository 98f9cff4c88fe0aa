package app

import (
	"bufio"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"pageshot/internal/config"
	"pageshot/internal/download"
	"pageshot/internal/observability"
)

func TestOpenRepositoryNone(t *testing.T) {
	cfg := config.Default()
	repo, err := OpenRepository(cfg, observability.Discard())
	if err != nil {
		t.Fatalf("OpenRepository() error = %v", err)
	}
	if repo != nil {
		t.Errorf("OpenRepository() = %v, want nil for driver none", repo)
	}
}

func TestOpenRepositoryUnknownDriver(t *testing.T) {
	cfg := config.Default()
	cfg.Storage.Driver = "postgres"
	if _, err := OpenRepository(cfg, observability.Discard()); err == nil {
		t.Error("OpenRepository() error = nil, want error")
	}
}

func TestBuildSinkWritesAllTargets(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Output.Dir = filepath.Join(dir, "out")
	cfg.Output.Manifest = filepath.Join(dir, "out", "manifest.jsonl")
	cfg.Storage.Driver = "sqlite"
	cfg.Storage.DSN = filepath.Join(dir, "captures.db")

	logger := observability.Discard()
	repo, err := OpenRepository(cfg, logger)
	if err != nil {
		t.Fatalf("OpenRepository() error = %v", err)
	}
	defer repo.Close()

	sink, err := BuildSink(cfg, repo, "run-1", logger)
	if err != nil {
		t.Fatalf("BuildSink() error = %v", err)
	}

	a := &download.Artifact{
		Location:   "https://x.test/",
		FileName:   download.FileName("https://x.test/"),
		Data:       []byte("png"),
		Width:      1,
		Height:     2,
		Segments:   2,
		CapturedAt: time.Now(),
	}
	if err := sink.Save(context.Background(), a); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if err := sink.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	if _, err := os.Stat(filepath.Join(cfg.Output.Dir, a.FileName)); err != nil {
		t.Errorf("screenshot not written: %v", err)
	}

	f, err := os.Open(cfg.Output.Manifest)
	if err != nil {
		t.Fatalf("open manifest: %v", err)
	}
	defer f.Close()
	lines := 0
	for sc := bufio.NewScanner(f); sc.Scan(); {
		lines++
	}
	if lines != 1 {
		t.Errorf("manifest lines = %d, want 1", lines)
	}

	recs, err := repo.ListByRun(context.Background(), "run-1")
	if err != nil {
		t.Fatalf("ListByRun() error = %v", err)
	}
	if len(recs) != 1 || recs[0].FileName != a.FileName {
		t.Errorf("records = %+v", recs)
	}
}
