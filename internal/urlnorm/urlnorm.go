// Package urlnorm holds the pure URL canonicalization and admission
// decisions used by the crawl scheduler: canonical form, scope checks
// and extension filtering. Nothing here performs I/O.
package urlnorm

import (
	"net/url"
	"sort"
	"strings"
)

var rejectedSchemes = []string{"javascript:", "mailto:", "tel:", "data:", "about:"}

// Normalize returns the canonical form of raw: the fragment is stripped
// and, when a query string is present, its parameters are re-encoded
// sorted by key (values sorted within a key) so two URLs differing only
// in parameter order compare equal. Input that does not parse is
// returned unchanged; that is the fail-open policy, callers log it.
// Normalize is idempotent.
func Normalize(raw string) string {
	parsed, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	parsed.Fragment = ""
	parsed.RawFragment = ""
	if parsed.RawQuery != "" {
		parsed.RawQuery = NormalizeQuery(parsed.RawQuery)
	}
	return parsed.String()
}

// NormalizeQuery rebuilds a query string with sorted keys and sorted,
// deduplicated values per key. Unparseable input is returned unchanged.
func NormalizeQuery(raw string) string {
	values, err := url.ParseQuery(raw)
	if err != nil {
		return raw
	}
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var builder strings.Builder
	for _, k := range keys {
		vals := values[k]
		sort.Strings(vals)
		vals = dedupeSortedStrings(vals)
		escapedKey := url.QueryEscape(k)
		if len(vals) == 0 {
			appendQueryComponent(&builder, escapedKey, "")
			continue
		}
		for _, v := range vals {
			appendQueryComponent(&builder, escapedKey, url.QueryEscape(v))
		}
	}

	return builder.String()
}

// InScope reports whether raw is eligible for crawling relative to base.
// Only http and https schemes qualify. Without includeSubdomains the
// candidate host must equal the base host. With it, the candidate must
// end with the base host minus its first label. That suffix check is
// deliberately not public-suffix-list aware and can over-match on
// multi-part TLDs; it is a documented limitation of the scope contract.
func InScope(raw, base string, includeSubdomains bool) bool {
	parsed, err := url.Parse(raw)
	if err != nil {
		return false
	}
	scheme := strings.ToLower(parsed.Scheme)
	if scheme != "http" && scheme != "https" {
		return false
	}

	baseParsed, err := url.Parse(base)
	if err != nil {
		return false
	}

	host := strings.ToLower(parsed.Hostname())
	baseHost := strings.ToLower(baseParsed.Hostname())
	if host == "" || baseHost == "" {
		return false
	}
	if host == baseHost {
		return true
	}
	if !includeSubdomains {
		return false
	}

	idx := strings.Index(baseHost, ".")
	if idx < 0 || idx+1 >= len(baseHost) {
		return false
	}
	return strings.HasSuffix(host, baseHost[idx+1:])
}

// PassesExtensionFilter rejects URLs whose path ends with an ignored
// extension. When a non-empty focused set is given, the path must end
// with one of the focused extensions to pass.
func PassesExtensionFilter(raw string, ignored, focused map[string]struct{}) bool {
	parsed, err := url.Parse(raw)
	if err != nil {
		return false
	}
	path := strings.ToLower(parsed.Path)

	for ext := range ignored {
		if strings.HasSuffix(path, ext) {
			return false
		}
	}

	if len(focused) == 0 {
		return true
	}
	for ext := range focused {
		if strings.HasSuffix(path, ext) {
			return true
		}
	}
	return false
}

// Resolve turns href into an absolute URL relative to base. Pseudo
// schemes used for client-side handlers are rejected, as are empty and
// fragment-only targets.
func Resolve(base *url.URL, href string) (string, bool) {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") {
		return "", false
	}
	lowered := strings.ToLower(href)
	for _, scheme := range rejectedSchemes {
		if strings.HasPrefix(lowered, scheme) {
			return "", false
		}
	}

	ref, err := url.Parse(href)
	if err != nil {
		return "", false
	}
	if base != nil {
		ref = base.ResolveReference(ref)
	}
	if ref.Hostname() == "" {
		return "", false
	}
	return ref.String(), true
}

func appendQueryComponent(builder *strings.Builder, key, value string) {
	if builder.Len() > 0 {
		builder.WriteByte('&')
	}
	builder.WriteString(key)
	if value != "" {
		builder.WriteByte('=')
		builder.WriteString(value)
	}
}

func dedupeSortedStrings(values []string) []string {
	if len(values) < 2 {
		return values
	}
	deduped := make([]string, 0, len(values))
	var last string
	for i, v := range values {
		if i > 0 && v == last {
			continue
		}
		deduped = append(deduped, v)
		last = v
	}
	return deduped
}
