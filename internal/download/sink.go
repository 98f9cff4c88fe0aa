package download

import (
	"context"
	"log/slog"
)

// Sink receives every artifact the pipeline produces.
type Sink interface {
	Save(ctx context.Context, a *Artifact) error
	Close() error
}

// SaveFunc is called for each artifact (in-process, no serialisation).
type SaveFunc func(ctx context.Context, a *Artifact) error

// Callback delivers artifacts via a Go function call.
type Callback struct {
	onSave SaveFunc
}

func NewCallback(onSave SaveFunc) *Callback {
	return &Callback{onSave: onSave}
}

func (c *Callback) Save(ctx context.Context, a *Artifact) error {
	if c.onSave != nil {
		return c.onSave(ctx, a)
	}
	return nil
}

func (c *Callback) Close() error { return nil }

// Router fans out artifacts to all sinks. One sink error does not block
// the others; errors are logged and the first encountered is returned.
type Router struct {
	sinks  []Sink
	logger *slog.Logger
}

func NewRouter(logger *slog.Logger, sinks ...Sink) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{sinks: sinks, logger: logger}
}

func (r *Router) Save(ctx context.Context, a *Artifact) error {
	var firstErr error
	for _, s := range r.sinks {
		if err := s.Save(ctx, a); err != nil {
			r.logger.Warn("download: sink save failed", "file", a.FileName, "error", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

func (r *Router) Close() error {
	var firstErr error
	for _, s := range r.sinks {
		if err := s.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
