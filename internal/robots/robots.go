// Package robots implements the run-scoped robots.txt compliance gate.
// The file is fetched exactly once per run; parse or fetch failures
// leave the gate with no restrictions recorded (fail-open), and the
// failure is annotated on the Info so the report can surface it.
package robots

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// Info is the parsed robots.txt state for one run.
type Info struct {
	RobotsURL       string   `json:"robots_url"`
	Fetched         bool     `json:"fetched"`
	FetchError      string   `json:"fetch_error,omitempty"`
	DisallowedPaths []string `json:"disallowed_paths"`
	AllowedPaths    []string `json:"allowed_paths"`
	CrawlDelay      float64  `json:"crawl_delay"`
	UserAgents      []string `json:"user_agents"`
}

// Fetch issues the single GET of {base}/robots.txt for the run. Any
// failure, including a non-200 status, yields an Info with the error
// recorded and no restrictions. Fetch never returns an error.
func Fetch(ctx context.Context, client *http.Client, baseURL, userAgent string) *Info {
	info := &Info{}

	base, err := url.Parse(baseURL)
	if err != nil {
		info.FetchError = fmt.Sprintf("parse base url: %v", err)
		return info
	}
	robotsURL := base.Scheme + "://" + base.Host + "/robots.txt"
	info.RobotsURL = robotsURL

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		info.FetchError = fmt.Sprintf("build robots request: %v", err)
		return info
	}
	if userAgent != "" {
		req.Header.Set("User-Agent", userAgent)
	}

	resp, err := client.Do(req)
	if err != nil {
		info.FetchError = fmt.Sprintf("fetch robots.txt: %v", err)
		return info
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		info.FetchError = fmt.Sprintf("robots.txt returned status %d", resp.StatusCode)
		return info
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		info.FetchError = fmt.Sprintf("read robots.txt: %v", err)
		return info
	}

	parsed := Parse(string(body))
	parsed.RobotsURL = robotsURL
	parsed.Fetched = true
	return parsed
}

// Parse reads line-oriented robots.txt directives. Disallow, Allow and
// Crawl-delay lines are scoped to the most recent User-agent line and
// recorded only when that agent is `*` or no agent has been seen yet.
// Malformed crawl-delay values and unknown directives are ignored.
func Parse(content string) *Info {
	info := &Info{}

	currentAgent := ""
	sawAgent := false

	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		idx := strings.Index(line, ":")
		if idx < 0 {
			continue
		}
		directive := strings.ToLower(strings.TrimSpace(line[:idx]))
		value := strings.TrimSpace(line[idx+1:])

		switch directive {
		case "user-agent":
			currentAgent = value
			sawAgent = true
			if !containsString(info.UserAgents, value) {
				info.UserAgents = append(info.UserAgents, value)
			}
		case "disallow":
			if wildcardScope(currentAgent, sawAgent) && value != "" {
				info.DisallowedPaths = append(info.DisallowedPaths, value)
			}
		case "allow":
			if wildcardScope(currentAgent, sawAgent) && value != "" {
				info.AllowedPaths = append(info.AllowedPaths, value)
			}
		case "crawl-delay":
			if delay, err := strconv.ParseFloat(value, 64); err == nil {
				info.CrawlDelay = delay
			}
		}
	}

	return info
}

// CanFetch answers a fetch-permission query for one URL. The path must
// not prefix-match any Disallow entry, and when Allow entries exist it
// must prefix-match at least one of them (the allow-list is exclusive).
// A nil Info permits everything.
func (i *Info) CanFetch(rawURL string) bool {
	if i == nil {
		return true
	}
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return true
	}
	path := parsed.Path

	for _, disallowed := range i.DisallowedPaths {
		if strings.HasPrefix(path, disallowed) {
			return false
		}
	}

	if len(i.AllowedPaths) > 0 {
		for _, allowed := range i.AllowedPaths {
			if strings.HasPrefix(path, allowed) {
				return true
			}
		}
		return false
	}

	return true
}

// wildcardScope reports whether directives under the current agent line
// apply to this crawler: only the wildcard agent or directives seen
// before any User-agent line count.
func wildcardScope(agent string, sawAgent bool) bool {
	return !sawAgent || agent == "*"
}

func containsString(list []string, value string) bool {
	for _, item := range list {
		if item == value {
			return true
		}
	}
	return false
}
