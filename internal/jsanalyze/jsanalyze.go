// Package jsanalyze extracts URLs and API endpoints from JavaScript
// source. It recognizes fetch, XMLHttpRequest, jQuery and axios call
// sites plus WebSocket constructors and dynamically assembled URLs,
// using a call scanner rather than brittle whole-call regexes.
package jsanalyze

import (
	"net/url"
	"regexp"
	"sort"
	"strings"
)

// Call is one discovered request site.
type Call struct {
	URL    string `json:"url"`
	Method string `json:"method"`
}

// Analysis is the combined result of analyzing one script.
type Analysis struct {
	URLs          []string `json:"urls"`
	APIEndpoints  []string `json:"api_endpoints"`
	AjaxCalls     []Call   `json:"ajax_calls"`
	FetchCalls    []Call   `json:"fetch_calls"`
	WebSocketURLs []string `json:"websocket_urls"`
	DynamicURLs   []string `json:"dynamic_urls"`
}

// Empty reports whether the analysis found nothing at all.
func (a *Analysis) Empty() bool {
	return len(a.URLs) == 0 && len(a.AjaxCalls) == 0 && len(a.FetchCalls) == 0 &&
		len(a.WebSocketURLs) == 0 && len(a.DynamicURLs) == 0
}

var axiosVerbs = []string{"get", "post", "put", "delete", "patch"}

var dynamicURLPatterns = []*regexp.Regexp{
	regexp.MustCompile("`([^`]*https?://[^`]*)`"),
	regexp.MustCompile("`([^`]*/api/[^`]*)`"),
	regexp.MustCompile("`([^`]*/rest/[^`]*)`"),
	regexp.MustCompile(`(?i)baseURL\s*\+\s*['"]([^'"]+)['"]`),
	regexp.MustCompile(`(?i)apiUrl\s*\+\s*['"]([^'"]+)['"]`),
}

var xhrOpenPattern = regexp.MustCompile(`(?is)\.open\s*\(\s*['"` + "`" + `]([A-Za-z]+)['"` + "`" + `]\s*,\s*['"` + "`" + `]([^'"` + "`" + `]+)['"` + "`" + `]`)

// Analyze inspects one script body. sourceURL is where the script was
// fetched from and anchors relative URLs; it may be empty.
func Analyze(jsText, sourceURL string) *Analysis {
	fetchCalls := extractFetchCalls(jsText)
	fetchCalls = append(fetchCalls, extractAxiosCalls(jsText)...)

	ajaxCalls := extractJQueryCalls(jsText)
	ajaxCalls = append(ajaxCalls, extractXHRCalls(jsText)...)

	analysis := &Analysis{
		FetchCalls:    finalizeCalls(fetchCalls, sourceURL),
		AjaxCalls:     finalizeCalls(ajaxCalls, sourceURL),
		WebSocketURLs: finalizeURLs(extractWebSocketURLs(jsText), sourceURL),
		DynamicURLs:   finalizeURLs(extractDynamicURLs(jsText), sourceURL),
	}

	endpoints := make([]string, 0, len(analysis.FetchCalls)+len(analysis.AjaxCalls))
	for _, c := range analysis.FetchCalls {
		endpoints = append(endpoints, c.URL)
	}
	for _, c := range analysis.AjaxCalls {
		endpoints = append(endpoints, c.URL)
	}
	analysis.APIEndpoints = dedupeSorted(endpoints)

	urls := append([]string{}, analysis.APIEndpoints...)
	urls = append(urls, analysis.WebSocketURLs...)
	urls = append(urls, analysis.DynamicURLs...)
	analysis.URLs = dedupeSorted(urls)

	return analysis
}

func extractFetchCalls(jsText string) []Call {
	var calls []Call
	for _, c := range scanCalls(jsText, "fetch") {
		args := splitArgs(c.args)
		if len(args) == 0 {
			continue
		}
		rawURL := stringArgument(args[0])
		if !keepURL(rawURL) {
			continue
		}
		method := "GET"
		if len(args) > 1 && strings.HasPrefix(strings.TrimSpace(args[1]), "{") {
			if m := objectField(args[1], "method"); m != "" {
				method = strings.ToUpper(m)
			}
		}
		calls = append(calls, Call{URL: rawURL, Method: method})
	}
	return calls
}

func extractAxiosCalls(jsText string) []Call {
	var calls []Call
	for _, verb := range axiosVerbs {
		for _, c := range scanCalls(jsText, "axios."+verb) {
			args := splitArgs(c.args)
			if len(args) == 0 {
				continue
			}
			rawURL := stringArgument(args[0])
			if !keepURL(rawURL) {
				continue
			}
			calls = append(calls, Call{URL: rawURL, Method: strings.ToUpper(verb)})
		}
	}

	// axios({url: ..., method: ...}) config form; the verb forms above
	// never reach here because "axios" is not followed by "(" in them.
	for _, c := range scanCalls(jsText, "axios") {
		args := splitArgs(c.args)
		if len(args) == 0 || !strings.HasPrefix(strings.TrimSpace(args[0]), "{") {
			continue
		}
		rawURL := objectField(args[0], "url")
		if !keepURL(rawURL) {
			continue
		}
		method := "GET"
		if m := objectField(args[0], "method"); m != "" {
			method = strings.ToUpper(m)
		}
		calls = append(calls, Call{URL: rawURL, Method: method})
	}
	return calls
}

func extractJQueryCalls(jsText string) []Call {
	var calls []Call

	for _, name := range []string{"$.ajax", "jQuery.ajax"} {
		for _, c := range scanCalls(jsText, name) {
			args := splitArgs(c.args)
			if len(args) == 0 || !strings.HasPrefix(strings.TrimSpace(args[0]), "{") {
				continue
			}
			rawURL := objectField(args[0], "url")
			if !keepURL(rawURL) {
				continue
			}
			method := objectField(args[0], "method")
			if method == "" {
				method = objectField(args[0], "type")
			}
			if method == "" {
				method = "GET"
			}
			calls = append(calls, Call{URL: rawURL, Method: strings.ToUpper(method)})
		}
	}

	shorthand := []struct {
		name   string
		method string
	}{
		{"$.get", "GET"},
		{"$.post", "POST"},
		{"$.getJSON", "GET"},
	}
	for _, s := range shorthand {
		for _, c := range scanCalls(jsText, s.name) {
			args := splitArgs(c.args)
			if len(args) == 0 {
				continue
			}
			rawURL := stringArgument(args[0])
			if !keepURL(rawURL) {
				continue
			}
			calls = append(calls, Call{URL: rawURL, Method: s.method})
		}
	}
	return calls
}

func extractXHRCalls(jsText string) []Call {
	var calls []Call
	for _, match := range xhrOpenPattern.FindAllStringSubmatch(jsText, -1) {
		rawURL := strings.TrimSpace(match[2])
		if !keepURL(rawURL) {
			continue
		}
		calls = append(calls, Call{URL: rawURL, Method: strings.ToUpper(match[1])})
	}
	return calls
}

func extractWebSocketURLs(jsText string) []string {
	var urls []string
	for _, c := range scanCalls(jsText, "WebSocket") {
		args := splitArgs(c.args)
		if len(args) == 0 {
			continue
		}
		if rawURL := stringArgument(args[0]); keepURL(rawURL) {
			urls = append(urls, rawURL)
		}
	}
	return urls
}

func extractDynamicURLs(jsText string) []string {
	var urls []string
	for _, pattern := range dynamicURLPatterns {
		for _, match := range pattern.FindAllStringSubmatch(jsText, -1) {
			if rawURL := strings.TrimSpace(match[1]); keepURL(rawURL) {
				urls = append(urls, rawURL)
			}
		}
	}
	return urls
}

var apiPathMarkers = []string{"/api/", "/rest/", "/v1/", "/v2/"}

// keepURL filters out schemes and fragments that can never be probed,
// and root-relative paths that carry no API marker.
func keepURL(rawURL string) bool {
	if rawURL == "" || strings.HasPrefix(rawURL, "#") {
		return false
	}
	for _, scheme := range []string{"data:", "mailto:", "tel:", "javascript:"} {
		if strings.HasPrefix(rawURL, scheme) {
			return false
		}
	}
	if strings.HasPrefix(rawURL, "/") || strings.HasPrefix(rawURL, "./") || strings.HasPrefix(rawURL, "../") {
		for _, marker := range apiPathMarkers {
			if strings.Contains(rawURL, marker) {
				return true
			}
		}
		return false
	}
	return true
}

// absolutize anchors a relative URL against the script's own URL.
// Already-absolute http(s) and ws(s) URLs pass through.
func absolutize(rawURL, sourceURL string) string {
	for _, scheme := range []string{"http://", "https://", "ws://", "wss://"} {
		if strings.HasPrefix(rawURL, scheme) {
			return rawURL
		}
	}
	if sourceURL == "" {
		return rawURL
	}
	base, err := url.Parse(sourceURL)
	if err != nil {
		return rawURL
	}
	ref, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return base.ResolveReference(ref).String()
}

func finalizeCalls(calls []Call, sourceURL string) []Call {
	seen := make(map[Call]struct{}, len(calls))
	out := make([]Call, 0, len(calls))
	for _, c := range calls {
		c.URL = absolutize(c.URL, sourceURL)
		if c.URL == "" {
			continue
		}
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].URL != out[j].URL {
			return out[i].URL < out[j].URL
		}
		return out[i].Method < out[j].Method
	})
	return out
}

func finalizeURLs(urls []string, sourceURL string) []string {
	resolved := make([]string, 0, len(urls))
	for _, rawURL := range urls {
		if abs := absolutize(rawURL, sourceURL); abs != "" {
			resolved = append(resolved, abs)
		}
	}
	return dedupeSorted(resolved)
}

func dedupeSorted(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
