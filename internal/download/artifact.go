// Package download turns stitched composites into files on disk and fans
// them out to the configured sinks.
package download

import (
	"strings"
	"time"
)

const (
	FilePrefix    = "screenshot_"
	FileExtension = ".png"
)

// Artifact is one exported composite, ready to be saved.
type Artifact struct {
	Location   string
	FileName   string
	Data       []byte
	Width      int
	Height     int
	Segments   int
	Title      string
	CapturedAt time.Time
}

// Sanitize replaces every character outside [A-Za-z0-9] with '_'. A
// multi-byte rune becomes a single '_'.
func Sanitize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if ('a' <= r && r <= 'z') || ('A' <= r && r <= 'Z') || ('0' <= r && r <= '9') {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	return b.String()
}

// FileName returns screenshot_<sanitized-location>.png.
func FileName(location string) string {
	return FilePrefix + Sanitize(location) + FileExtension
}
