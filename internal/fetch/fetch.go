// Package fetch retrieves page content for single URLs. Two strategies
// implement the same contract: a lightweight HTTP client and a rendered
// browser. The scheduler depends only on the Fetcher interface and the
// extractor only on the Outcome shape, so the strategies are
// interchangeable at configuration time.
package fetch

import "context"

// Outcome is the strategy-agnostic result of fetching one URL.
type Outcome struct {
	Status      int
	ContentType string
	HTML        string
	Cookies     map[string]string
	Headers     map[string]string

	// APICalls holds XHR/Fetch request URLs observed while rendering.
	// Only the browser strategy populates it.
	APICalls []string
}

// Fetcher retrieves one page. Failures are returned as errors and
// converted by the scheduler into error-tagged page results; they are
// never fatal to the run.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (*Outcome, error)
	Close()
}
