package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"pageshot/internal/download"
	"pageshot/internal/observability"
	"pageshot/internal/pageinfo"
	"pageshot/internal/stitch"
	"pageshot/internal/throttle"
)

// Host is the browser tab the orchestrator drives.
type Host interface {
	// Navigate starts loading location and returns an ID that correlates
	// the navigation with its load-complete signal.
	Navigate(ctx context.Context, location string) (navID string, err error)
	// WaitLoad blocks until the navigation's load-complete signal arrives.
	WaitLoad(ctx context.Context, navID string) error
	// Capture returns the ordered viewport segments of the current page.
	Capture(ctx context.Context) ([][]byte, error)
	// Document returns the current page HTML.
	Document(ctx context.Context) (string, error)
}

type Stitcher interface {
	Stitch(ctx context.Context, payloads [][]byte, label string) (*download.Artifact, error)
}

type Options struct {
	// SettleDelay is waited after load-complete before capturing.
	SettleDelay time.Duration
	// LoadTimeout bounds WaitLoad. Zero waits forever.
	LoadTimeout time.Duration
	// RunID labels the run; empty generates a UUID.
	RunID string
}

type Orchestrator struct {
	opts     Options
	logger   *observability.Logger
	host     Host
	stitcher Stitcher
	sink     download.Sink
	limiter  *throttle.RateLimiter
}

func NewOrchestrator(
	opts Options,
	logger *observability.Logger,
	host Host,
	st Stitcher,
	sink download.Sink,
	limiter *throttle.RateLimiter,
) *Orchestrator {
	if opts.RunID == "" {
		opts.RunID = NewRunID()
	}
	if limiter == nil {
		limiter = throttle.NewRateLimiter(1, 0)
	}
	return &Orchestrator{
		opts:     opts,
		logger:   logger,
		host:     host,
		stitcher: st,
		sink:     sink,
		limiter:  limiter,
	}
}

// NewRunID returns a fresh identifier for a run.
func NewRunID() string { return uuid.NewString() }

func (o *Orchestrator) RunID() string { return o.opts.RunID }

type RunStats struct {
	RunID         string
	Total         int
	Captured      int
	Empty         int
	Failed        int
	Files         []string
	StoppedReason string
}

type outcome int

const (
	outcomeCaptured outcome = iota
	outcomeEmpty
	outcomeFailed
)

// Run обходит локации строго по порядку, по одной за раз
func (o *Orchestrator) Run(ctx context.Context, locations []string) (*RunStats, error) {
	stats := &RunStats{RunID: o.opts.RunID, Total: len(locations)}

	o.logger.Info("Starting run",
		"run_id", o.opts.RunID,
		"locations", len(locations),
		"settle_delay", o.opts.SettleDelay,
	)

	for cursor := 0; cursor < len(locations); cursor++ {
		location := locations[cursor]

		o.logger.Info("Processing location",
			"index", cursor,
			"url", location,
		)

		res, artifact, err := o.processLocation(ctx, location)

		// Прогон прерывает только отмена контекста
		if res == outcomeFailed && ctx.Err() != nil {
			return stats, o.cancelled(stats, cursor, location, ctx.Err())
		}

		switch res {
		case outcomeCaptured:
			stats.Captured++
			stats.Files = append(stats.Files, artifact.FileName)
			o.logger.Info("Screenshot saved",
				"index", cursor,
				"url", location,
				"file", artifact.FileName,
				"width", artifact.Width,
				"height", artifact.Height,
				"segments", artifact.Segments,
			)
		case outcomeEmpty:
			stats.Empty++
			o.logger.Error("No images captured",
				"index", cursor,
				"url", location,
			)
		case outcomeFailed:
			stats.Failed++
			o.logger.Error("Location failed",
				"index", cursor,
				"url", location,
				"error", err.Error(),
			)
		}

		if ctx.Err() != nil && cursor+1 < len(locations) {
			return stats, o.cancelled(stats, cursor+1, locations[cursor+1], ctx.Err())
		}
	}

	stats.StoppedReason = "all locations processed"
	o.logger.Info("Run completed",
		"run_id", o.opts.RunID,
		"total", stats.Total,
		"captured", stats.Captured,
		"empty", stats.Empty,
		"failed", stats.Failed,
	)

	return stats, nil
}

func (o *Orchestrator) cancelled(stats *RunStats, cursor int, location string, err error) error {
	stats.StoppedReason = fmt.Sprintf("cancelled at location %d: %v", cursor, err)
	o.logger.Warn("Run cancelled",
		"index", cursor,
		"url", location,
		"error", err.Error(),
	)
	return err
}

func (o *Orchestrator) processLocation(ctx context.Context, location string) (outcome, *download.Artifact, error) {
	release, err := o.limiter.Acquire(ctx, throttle.Host(location))
	if err != nil {
		return outcomeFailed, nil, fmt.Errorf("throttle: %w", err)
	}
	defer release()

	navID, err := o.host.Navigate(ctx, location)
	if err != nil {
		return outcomeFailed, nil, err
	}

	if err := o.waitLoad(ctx, navID); err != nil {
		return outcomeFailed, nil, fmt.Errorf("wait load: %w", err)
	}

	o.logger.Debug("Page loaded, settling",
		"url", location,
		"nav_id", navID,
		"settle_delay", o.opts.SettleDelay,
	)
	if err := settle(ctx, o.opts.SettleDelay); err != nil {
		return outcomeFailed, nil, err
	}

	payloads, err := o.host.Capture(ctx)
	if err != nil {
		return outcomeFailed, nil, fmt.Errorf("capture: %w", err)
	}
	if len(payloads) == 0 {
		return outcomeEmpty, nil, nil
	}

	artifact, err := o.stitcher.Stitch(ctx, payloads, location)
	if errors.Is(err, stitch.ErrNoSegments) {
		return outcomeEmpty, nil, nil
	}
	if err != nil {
		return outcomeFailed, nil, err
	}
	artifact.Title = o.pageTitle(ctx, location)

	if err := o.sink.Save(ctx, artifact); err != nil {
		return outcomeFailed, nil, fmt.Errorf("save: %w", err)
	}

	return outcomeCaptured, artifact, nil
}

func (o *Orchestrator) waitLoad(ctx context.Context, navID string) error {
	if o.opts.LoadTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.opts.LoadTimeout)
		defer cancel()
	}
	return o.host.WaitLoad(ctx, navID)
}

// pageTitle is best effort: a page without a readable title still gets saved.
func (o *Orchestrator) pageTitle(ctx context.Context, location string) string {
	html, err := o.host.Document(ctx)
	if err != nil {
		o.logger.Warn("Failed to read document", "url", location, "error", err.Error())
		return ""
	}
	info, err := pageinfo.Parse(html)
	if err != nil {
		o.logger.Warn("Failed to parse document", "url", location, "error", err.Error())
		return ""
	}
	return info.Title
}

func settle(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
