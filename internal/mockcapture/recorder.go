// Package mockcapture records JSON API responses seen by a browser tab and
// writes them out as fixture files, one per endpoint.
package mockcapture

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// DefaultPrefix is the path prefix of the endpoints worth recording.
const DefaultPrefix = "/api/"

// Response is one HTTP response observed by the browser.
type Response struct {
	URL     string
	Status  int
	Headers map[string]string
	Body    []byte
}

// Mock is the on-disk fixture format.
type Mock struct {
	Status  int               `json:"status"`
	Data    json.RawMessage   `json:"data"`
	Headers map[string]string `json:"headers"`
}

// EndpointKey derives the fixture name of rawURL: the URL path with the
// leading prefix removed and every "/" turned into "-". ok is false for
// URLs whose path does not contain prefix or leaves nothing to name.
func EndpointKey(rawURL, prefix string) (key string, ok bool) {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", false
	}
	if !strings.Contains(u.Path, prefix) {
		return "", false
	}
	key = strings.ReplaceAll(strings.TrimPrefix(u.Path, prefix), "/", "-")
	if key == "" {
		return "", false
	}
	return key, true
}

// Recorder keeps the last JSON response per endpoint key.
type Recorder struct {
	prefix string
	logger *slog.Logger

	mu    sync.Mutex
	mocks map[string]Mock
}

func NewRecorder(prefix string, logger *slog.Logger) *Recorder {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{
		prefix: prefix,
		logger: logger,
		mocks:  make(map[string]Mock),
	}
}

// Observe records resp if it belongs to an endpoint under the prefix and
// its body is JSON. A later response for the same key replaces the earlier
// one.
func (r *Recorder) Observe(resp Response) (key string, ok bool) {
	key, ok = EndpointKey(resp.URL, r.prefix)
	if !ok {
		return "", false
	}
	body := bytes.TrimSpace(resp.Body)
	if !json.Valid(body) {
		r.logger.Debug("mockcapture: skipping non-JSON response", "url", resp.URL, "status", resp.Status)
		return "", false
	}

	headers := make(map[string]string, len(resp.Headers))
	for k, v := range resp.Headers {
		headers[k] = v
	}

	r.mu.Lock()
	r.mocks[key] = Mock{
		Status:  resp.Status,
		Data:    json.RawMessage(body),
		Headers: headers,
	}
	r.mu.Unlock()

	r.logger.Debug("mockcapture: recorded", "key", key, "status", resp.Status)
	return key, true
}

// Keys returns the recorded endpoint keys in sorted order.
func (r *Recorder) Keys() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	keys := make([]string, 0, len(r.mocks))
	for k := range r.mocks {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Get returns the mock recorded for key.
func (r *Recorder) Get(key string) (Mock, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.mocks[key]
	return m, ok
}

// Flush writes every recorded mock to dir/<key>.json and returns the paths
// written, in key order.
func (r *Recorder) Flush(dir string) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("mockcapture: create dir: %w", err)
	}

	var written []string
	for _, key := range r.Keys() {
		m, _ := r.Get(key)
		data, err := encodeMock(m)
		if err != nil {
			return written, fmt.Errorf("mockcapture: encode %s: %w", key, err)
		}
		path := filepath.Join(dir, key+".json")
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return written, fmt.Errorf("mockcapture: write %s: %w", key, err)
		}
		written = append(written, path)
	}
	return written, nil
}

// encodeMock pretty-prints with a 2-space indent and leaves HTML characters
// in the payload unescaped.
func encodeMock(m Mock) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(m); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
