// Package probe implements wordlist-driven existence checks: endpoint
// guessing and hidden-file scanning. Probes are idempotent read-only
// requests fanned out under a bounded semaphore; redirects are not
// followed so a 301/302 itself counts as found.
package probe

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/semaphore"

	"github.com/dp2pwn/reconspider/internal/fetch"
)

const (
	defaultConcurrency = 50
	previewLimit       = 500
)

var probeMethods = []string{http.MethodGet, http.MethodHead}

// foundStatusCodes are the responses that count as an existing
// resource. Auth walls and server errors reveal presence too.
var foundStatusCodes = map[int]struct{}{
	200: {}, 201: {}, 301: {}, 302: {}, 401: {}, 403: {}, 405: {}, 500: {},
}

// Result is one positive probe.
type Result struct {
	Path           string    `json:"path"`
	URL            string    `json:"url"`
	Method         string    `json:"method"`
	StatusCode     int       `json:"status_code"`
	StatusText     string    `json:"status_text"`
	ContentType    string    `json:"content_type"`
	ContentLength  int64     `json:"content_length"`
	Server         string    `json:"server"`
	Found          bool      `json:"found"`
	Timestamp      time.Time `json:"timestamp"`
	ContentPreview string    `json:"content_preview,omitempty"`
}

// Prober issues the individual existence checks shared by the endpoint
// guesser and the hidden-file scanner.
type Prober struct {
	client      *http.Client
	userAgent   string
	concurrency int64
	logger      *logrus.Logger
}

// NewProber builds a prober with the given fan-out bound. A
// non-positive concurrency falls back to the default.
func NewProber(timeout time.Duration, userAgent string, concurrency int, logger *logrus.Logger) *Prober {
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	return &Prober{
		client:      fetch.NewProbeClient(timeout),
		userAgent:   userAgent,
		concurrency: int64(concurrency),
		logger:      logger,
	}
}

// run probes every word against baseURL with bounded fan-out and
// returns the positive results. Per-probe failures are dropped; order
// of completion is irrelevant because callers sort afterwards.
func (p *Prober) run(ctx context.Context, baseURL string, words []string, withPreview bool) []Result {
	sem := semaphore.NewWeighted(p.concurrency)
	var wg sync.WaitGroup
	var mu sync.Mutex
	var results []Result

	for _, word := range words {
		if ctx.Err() != nil {
			break
		}
		if err := sem.Acquire(ctx, 1); err != nil {
			break
		}
		wg.Add(1)
		go func(word string) {
			defer wg.Done()
			defer sem.Release(1)

			result, found := p.probePath(ctx, baseURL, word, withPreview)
			if !found {
				return
			}
			mu.Lock()
			results = append(results, result)
			mu.Unlock()
		}(word)
	}

	wg.Wait()
	return results
}

// probePath tries GET then HEAD for one candidate path. The first
// response with a qualifying status wins.
func (p *Prober) probePath(ctx context.Context, baseURL, word string, withPreview bool) (Result, bool) {
	target, err := joinPath(baseURL, word)
	if err != nil {
		return Result{}, false
	}

	for _, method := range probeMethods {
		req, err := http.NewRequestWithContext(ctx, method, target, nil)
		if err != nil {
			continue
		}
		req.Header.Set("User-Agent", p.userAgent)
		req.Header.Set("Accept", "text/html,application/xhtml+xml,application/json,*/*")

		resp, err := p.client.Do(req)
		if err != nil {
			continue
		}

		if _, ok := foundStatusCodes[resp.StatusCode]; !ok {
			_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
			resp.Body.Close()
			continue
		}

		result := Result{
			Path:          word,
			URL:           target,
			Method:        method,
			StatusCode:    resp.StatusCode,
			StatusText:    http.StatusText(resp.StatusCode),
			ContentType:   resp.Header.Get("Content-Type"),
			ContentLength: resp.ContentLength,
			Server:        resp.Header.Get("Server"),
			Found:         true,
			Timestamp:     time.Now(),
		}
		if withPreview && method == http.MethodGet && resp.StatusCode == http.StatusOK {
			result.ContentPreview = readPreview(resp.Body)
		}
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		return result, true
	}

	return Result{}, false
}

func readPreview(body io.Reader) string {
	buf, err := io.ReadAll(io.LimitReader(body, previewLimit+1))
	if err != nil && len(buf) == 0 {
		return ""
	}
	if len(buf) > previewLimit {
		return string(buf[:previewLimit]) + "..."
	}
	return string(buf)
}

func joinPath(baseURL, word string) (string, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return "", err
	}
	ref, err := url.Parse(strings.TrimPrefix(word, "/"))
	if err != nil {
		return "", err
	}
	if !strings.HasSuffix(base.Path, "/") {
		base.Path += "/"
	}
	return base.ResolveReference(ref).String(), nil
}
