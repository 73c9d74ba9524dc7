package report

import (
	"time"

	"github.com/dp2pwn/reconspider/internal/extract"
)

// PageResult is everything recorded about one crawled page. A page that
// failed to fetch still produces a PageResult with Error set, so the
// report shows the attempt.
type PageResult struct {
	URL          string                `json:"url"`
	StatusCode   int                   `json:"status_code"`
	ContentType  string                `json:"content_type"`
	Title        string                `json:"title"`
	Forms        []extract.Form        `json:"forms"`
	Links        []string              `json:"links"`
	APIEndpoints []string              `json:"api_endpoints"`
	JSFiles      []string              `json:"js_files"`
	Cookies      map[string]string     `json:"cookies"`
	Headers      map[string]string     `json:"headers"`
	HiddenFields []extract.HiddenField `json:"hidden_fields"`
	CSRFTokens   []string              `json:"csrf_tokens"`
	Depth        int                   `json:"depth"`
	FetchedAt    time.Time             `json:"fetched_at"`
	Error        string                `json:"error,omitempty"`
}

// Failed reports whether the page could not be fetched at all.
func (r *PageResult) Failed() bool {
	return r.Error != ""
}
