package mockcapture

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
)

// Tap feeds the responses of a rod page into a Recorder.
//
// Bodies are fetched with Network.getResponseBody once Network.loadingFinished
// arrives for a response whose URL has an endpoint key.
type Tap struct {
	page   *rod.Page
	rec    *Recorder
	logger *slog.Logger

	mu       sync.Mutex
	pending  map[proto.NetworkRequestID]*proto.NetworkResponse
	inflight int // body fetches not yet recorded
	lastSeen time.Time
	now      func() time.Time
}

// Attach enables the Network domain on page and starts recording until ctx
// is done.
func Attach(ctx context.Context, page *rod.Page, rec *Recorder, logger *slog.Logger) (*Tap, error) {
	if logger == nil {
		logger = slog.Default()
	}
	t := &Tap{
		page:    page,
		rec:     rec,
		logger:  logger,
		pending: make(map[proto.NetworkRequestID]*proto.NetworkResponse),
		now:     time.Now,
	}
	t.lastSeen = t.now()

	if err := (proto.NetworkEnable{}).Call(page); err != nil {
		return nil, fmt.Errorf("mockcapture: enable network: %w", err)
	}

	wait := page.Context(ctx).EachEvent(
		func(e *proto.NetworkResponseReceived) {
			t.responseReceived(e.RequestID, e.Response)
		},
		func(e *proto.NetworkLoadingFinished) {
			resp := t.take(e.RequestID)
			if resp == nil {
				return
			}
			go func() {
				defer t.fetchDone()
				t.fetch(e.RequestID, resp)
			}()
		},
		func(e *proto.NetworkLoadingFailed) {
			if t.take(e.RequestID) != nil {
				t.fetchDone()
			}
		},
	)
	go wait()

	return t, nil
}

func (t *Tap) responseReceived(id proto.NetworkRequestID, resp *proto.NetworkResponse) {
	if resp == nil {
		return
	}
	if _, ok := EndpointKey(resp.URL, t.rec.prefix); !ok {
		return
	}
	t.mu.Lock()
	t.pending[id] = resp
	t.lastSeen = t.now()
	t.mu.Unlock()
}

// take stops tracking id. A tracked response moves to the in-flight
// count until fetchDone.
func (t *Tap) take(id proto.NetworkRequestID) *proto.NetworkResponse {
	t.mu.Lock()
	defer t.mu.Unlock()
	resp, ok := t.pending[id]
	if !ok {
		return nil
	}
	delete(t.pending, id)
	t.inflight++
	t.lastSeen = t.now()
	return resp
}

func (t *Tap) fetchDone() {
	t.mu.Lock()
	t.inflight--
	t.lastSeen = t.now()
	t.mu.Unlock()
}

func (t *Tap) fetch(id proto.NetworkRequestID, resp *proto.NetworkResponse) {
	body, err := proto.NetworkGetResponseBody{RequestID: id}.Call(t.page)
	if err != nil {
		t.logger.Warn("mockcapture: get response body", "url", resp.URL, "error", err)
		return
	}

	data := []byte(body.Body)
	if body.Base64Encoded {
		data, err = base64.StdEncoding.DecodeString(body.Body)
		if err != nil {
			t.logger.Warn("mockcapture: decode response body", "url", resp.URL, "error", err)
			return
		}
	}

	t.rec.Observe(Response{
		URL:     resp.URL,
		Status:  resp.Status,
		Headers: flattenHeaders(resp.Headers),
		Body:    data,
	})
}

func flattenHeaders(h proto.NetworkHeaders) map[string]string {
	out := make(map[string]string, len(h))
	for k, v := range h {
		out[k] = v.String()
	}
	return out
}

// WaitIdle returns once no matching response has been seen for idle and
// every body fetch has finished.
func (t *Tap) WaitIdle(ctx context.Context, idle time.Duration) error {
	tick := idle / 4
	if tick <= 0 {
		tick = 10 * time.Millisecond
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		if t.quiet(idle) {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (t *Tap) quiet(idle time.Duration) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.pending) == 0 && t.inflight == 0 && t.now().Sub(t.lastSeen) >= idle
}
