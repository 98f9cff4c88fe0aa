package browser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/ysmood/gson"
)

// ErrUnknownNavigation is returned by WaitLoad for an ID that Navigate did
// not hand out, or that was already waited on.
var ErrUnknownNavigation = errors.New("browser: unknown navigation")

const lifecycleLoad = "load"

// Host is one tab. Navigations are correlated with their load event by
// CDP loader ID, so a late "load" from an earlier document never resolves
// a newer navigation.
type Host struct {
	page   *rod.Page
	cfg    Config
	logger *slog.Logger

	mu      sync.Mutex
	pending map[proto.NetworkLoaderID]chan struct{}
	// loads seen before Navigate registered the loader ID
	early map[proto.NetworkLoaderID]bool
	seq   int
}

// NewHost opens a tab and starts listening for its lifecycle events until
// ctx is done or Close is called.
func NewHost(ctx context.Context, mgr *Manager) (*Host, error) {
	page, err := mgr.OpenPage()
	if err != nil {
		return nil, err
	}

	h := &Host{
		page:    page,
		cfg:     mgr.cfg,
		logger:  mgr.cfg.Logger,
		pending: make(map[proto.NetworkLoaderID]chan struct{}),
		early:   make(map[proto.NetworkLoaderID]bool),
	}

	if err := (proto.PageEnable{}).Call(page); err != nil {
		_ = page.Close()
		return nil, fmt.Errorf("browser: enable page domain: %w", err)
	}
	if err := (proto.PageSetLifecycleEventsEnabled{Enabled: true}).Call(page); err != nil {
		_ = page.Close()
		return nil, fmt.Errorf("browser: enable lifecycle events: %w", err)
	}

	wait := page.Context(ctx).EachEvent(func(e *proto.PageLifecycleEvent) {
		if e.Name != lifecycleLoad || e.FrameID != page.FrameID {
			return
		}
		h.markLoaded(e.LoaderID)
	})
	go wait()

	return h, nil
}

// Page exposes the underlying tab, e.g. for network taps.
func (h *Host) Page() *rod.Page { return h.page }

// Navigate starts a navigation and returns its correlation ID. It does not
// wait for the page to load.
func (h *Host) Navigate(ctx context.Context, location string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, h.cfg.PageTimeout)
	defer cancel()

	res, err := proto.PageNavigate{URL: location}.Call(h.page.Context(ctx))
	if err != nil {
		return "", fmt.Errorf("browser: navigate %s: %w", location, err)
	}
	if res.ErrorText != "" {
		return "", fmt.Errorf("browser: navigate %s: %s", location, res.ErrorText)
	}

	id := h.track(res.LoaderID)
	h.logger.Debug("browser: navigation started", "url", location, "loader_id", id)
	return string(id), nil
}

// WaitLoad blocks until the load event of navigation id arrives or ctx is
// done. Each ID can be waited on once.
func (h *Host) WaitLoad(ctx context.Context, id string) error {
	h.mu.Lock()
	ch, ok := h.pending[proto.NetworkLoaderID(id)]
	h.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownNavigation, id)
	}

	defer func() {
		h.mu.Lock()
		delete(h.pending, proto.NetworkLoaderID(id))
		h.mu.Unlock()
	}()

	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// track registers a navigation before its load can be waited on.
func (h *Host) track(id proto.NetworkLoaderID) proto.NetworkLoaderID {
	h.mu.Lock()
	defer h.mu.Unlock()

	ch := make(chan struct{})
	switch {
	case id == "":
		// Same-document navigation: no new document, nothing to wait for.
		h.seq++
		id = proto.NetworkLoaderID(fmt.Sprintf("same-document-%d", h.seq))
		close(ch)
	case h.early[id]:
		close(ch)
	}
	// Loads of documents nobody navigated to are dropped here.
	clear(h.early)
	h.pending[id] = ch
	return id
}

func (h *Host) markLoaded(id proto.NetworkLoaderID) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if ch, ok := h.pending[id]; ok {
		select {
		case <-ch:
		default:
			close(ch)
		}
		return
	}
	h.early[id] = true
}

// Capture scrolls through the page one viewport at a time and returns one
// screenshot per viewport, top to bottom.
func (h *Host) Capture(ctx context.Context) ([][]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, h.cfg.PageTimeout)
	defer cancel()
	page := h.page.Context(ctx)

	res, err := page.Eval(`() => ({
		scrollHeight: Math.max(
			document.documentElement ? document.documentElement.scrollHeight : 0,
			document.body ? document.body.scrollHeight : 0),
		viewport: window.innerHeight
	})`)
	if err != nil {
		return nil, fmt.Errorf("browser: measure page: %w", err)
	}

	count := SegmentCount(res.Value.Get("scrollHeight").Int(), res.Value.Get("viewport").Int(), h.cfg.MaxSegments)
	viewport := res.Value.Get("viewport").Int()

	req := &proto.PageCaptureScreenshot{Format: proto.PageCaptureScreenshotFormatPng}
	if h.cfg.SegmentFormat == "jpeg" {
		req = &proto.PageCaptureScreenshot{
			Format:  proto.PageCaptureScreenshotFormatJpeg,
			Quality: gson.Int(h.cfg.JPEGQuality),
		}
	}

	segments := make([][]byte, 0, count)
	for i := 0; i < count; i++ {
		if _, err := page.Eval(`(y) => window.scrollTo(0, y)`, i*viewport); err != nil {
			return nil, fmt.Errorf("browser: scroll to segment %d: %w", i, err)
		}
		if err := sleep(ctx, h.cfg.ScrollPause); err != nil {
			return nil, err
		}

		buf, err := page.Screenshot(false, req)
		if err != nil {
			return nil, fmt.Errorf("browser: screenshot segment %d: %w", i, err)
		}
		segments = append(segments, buf)
	}

	if _, err := page.Eval(`() => window.scrollTo(0, 0)`); err != nil {
		h.logger.Warn("browser: scroll reset failed", "error", err)
	}

	return segments, nil
}

// Document returns the current outer HTML of the tab.
func (h *Host) Document(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, h.cfg.PageTimeout)
	defer cancel()

	html, err := h.page.Context(ctx).HTML()
	if err != nil {
		return "", fmt.Errorf("browser: get document: %w", err)
	}
	return html, nil
}

// Close closes the tab.
func (h *Host) Close() error {
	if h.page != nil {
		return h.page.Close()
	}
	return nil
}

// SegmentCount returns how many viewport captures cover scrollHeight,
// at least one and at most limit.
func SegmentCount(scrollHeight, viewport, limit int) int {
	if viewport <= 0 || scrollHeight <= 0 {
		return 1
	}
	n := (scrollHeight + viewport - 1) / viewport
	if n < 1 {
		n = 1
	}
	if limit > 0 && n > limit {
		n = limit
	}
	return n
}

func sleep(ctx context.Context, d time.Duration) error {
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
