package download

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// Dir writes each artifact as <dir>/<FileName>. An existing file with the
// same name is overwritten.
type Dir struct {
	path string
}

func NewDir(path string) *Dir {
	return &Dir{path: path}
}

func (d *Dir) Path() string { return d.path }

func (d *Dir) Save(_ context.Context, a *Artifact) error {
	if err := os.MkdirAll(d.path, 0o755); err != nil {
		return fmt.Errorf("download: create dir: %w", err)
	}
	target := filepath.Join(d.path, a.FileName)
	if err := os.WriteFile(target, a.Data, 0o644); err != nil {
		return fmt.Errorf("download: write %s: %w", a.FileName, err)
	}
	return nil
}

func (d *Dir) Close() error { return nil }
