package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/dp2pwn/reconspider/internal/config"
)

const maxBodyBytes = 10 << 20

// HTTPFetcher is the lightweight strategy: a single GET with no script
// execution. The cookie jar is pre-seeded with the configured
// authentication cookies before the first request.
type HTTPFetcher struct {
	client    *http.Client
	userAgent string
	headers   map[string]string
}

func NewHTTPFetcher(cfg *config.CrawlConfig) (*HTTPFetcher, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}

	if len(cfg.AuthCookies) > 0 {
		base, err := url.Parse(cfg.BaseURL)
		if err != nil {
			return nil, fmt.Errorf("parse base url for cookie seeding: %w", err)
		}
		cookies := make([]*http.Cookie, 0, len(cfg.AuthCookies))
		for name, value := range cfg.AuthCookies {
			cookies = append(cookies, &http.Cookie{Name: name, Value: value, Path: "/"})
		}
		jar.SetCookies(base, cookies)
	}

	headers := make(map[string]string, len(cfg.CustomHeaders)+len(cfg.AuthHeaders))
	for k, v := range cfg.CustomHeaders {
		headers[k] = v
	}
	for k, v := range cfg.AuthHeaders {
		headers[k] = v
	}

	return &HTTPFetcher{
		client: &http.Client{
			Jar:     jar,
			Timeout: cfg.Timeout,
		},
		userAgent: cfg.UserAgent,
		headers:   headers,
	}, nil
}

func (f *HTTPFetcher) Fetch(ctx context.Context, rawURL string) (*Outcome, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	for k, v := range f.headers {
		req.Header.Set(k, v)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	contentType := resp.Header.Get("Content-Type")
	if !isHTMLContentType(contentType) {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return nil, fmt.Errorf("fetch %s: non-HTML content type %q", rawURL, contentType)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read body of %s: %w", rawURL, err)
	}

	return &Outcome{
		Status:      resp.StatusCode,
		ContentType: contentType,
		HTML:        string(body),
		Cookies:     f.jarCookies(resp.Request.URL),
		Headers:     flattenHeaders(resp.Header),
	}, nil
}

// FetchBody retrieves a resource of any content type, capped at the
// same body limit. Used for script downloads, where the HTML-only
// filter of Fetch must not apply.
func (f *HTTPFetcher) FetchBody(ctx context.Context, rawURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	for k, v := range f.headers {
		req.Header.Set(k, v)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return "", fmt.Errorf("fetch %s: status %d", rawURL, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", fmt.Errorf("read body of %s: %w", rawURL, err)
	}
	return string(body), nil
}

func (f *HTTPFetcher) Close() {
	f.client.CloseIdleConnections()
}

// Client exposes the underlying client so run-scoped single fetches
// (robots.txt) share the jar and timeout.
func (f *HTTPFetcher) Client() *http.Client {
	return f.client
}

func (f *HTTPFetcher) jarCookies(u *url.URL) map[string]string {
	out := make(map[string]string)
	if f.client.Jar == nil || u == nil {
		return out
	}
	for _, c := range f.client.Jar.Cookies(u) {
		out[c.Name] = c.Value
	}
	return out
}

func isHTMLContentType(contentType string) bool {
	if contentType == "" {
		// Servers that omit the header still mostly serve HTML; the
		// extractor copes with anything that parses.
		return true
	}
	lowered := strings.ToLower(contentType)
	return strings.Contains(lowered, "text/html") || strings.Contains(lowered, "application/xhtml")
}

func flattenHeaders(header http.Header) map[string]string {
	out := make(map[string]string, len(header))
	for k, values := range header {
		if len(values) > 0 {
			out[k] = values[0]
		}
	}
	return out
}

// NewProbeClient returns a client that never follows redirects, so a
// 301/302 on an existence check counts as found rather than being
// chased to its target.
func NewProbeClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}
