package download

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Manifest appends one JSON line per artifact to a file.
type Manifest struct {
	mu   sync.Mutex
	f    *os.File
	enc  *json.Encoder
	path string
}

type manifestEntry struct {
	Location   string    `json:"location"`
	File       string    `json:"file"`
	Title      string    `json:"title,omitempty"`
	Width      int       `json:"width"`
	Height     int       `json:"height"`
	Segments   int       `json:"segments"`
	Bytes      int       `json:"bytes"`
	CapturedAt time.Time `json:"captured_at"`
}

func OpenManifest(path string) (*Manifest, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("download: manifest dir: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("download: open manifest: %w", err)
	}
	return &Manifest{f: f, enc: json.NewEncoder(f), path: path}, nil
}

func (m *Manifest) Save(_ context.Context, a *Artifact) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.enc.Encode(manifestEntry{
		Location:   a.Location,
		File:       a.FileName,
		Title:      a.Title,
		Width:      a.Width,
		Height:     a.Height,
		Segments:   a.Segments,
		Bytes:      len(a.Data),
		CapturedAt: a.CapturedAt,
	})
}

func (m *Manifest) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.f.Close()
}
