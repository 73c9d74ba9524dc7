// Package extract turns fetched page content into structured
// reconnaissance artifacts. Extraction is a pure transformation of the
// HTML text; a malformed sub-element never aborts the rest of the page.
package extract

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/dp2pwn/reconspider/internal/urlnorm"
)

// Field is one typed input of a form.
type Field struct {
	Type  string `json:"type"`
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Form is one HTML form. Action is kept as authored (possibly empty,
// meaning same-page); Method is upper-cased with GET as the default.
// Action+Method is the aggregator's deduplication key.
type Form struct {
	Action string  `json:"action"`
	Method string  `json:"method"`
	Fields []Field `json:"fields"`
}

// HiddenField is one <input type=hidden> element.
type HiddenField struct {
	Name  string `json:"name"`
	Value string `json:"value"`
	ID    string `json:"id"`
}

// PageArtifacts is everything extracted from one page.
type PageArtifacts struct {
	Title        string
	Links        []string
	Forms        []Form
	APIEndpoints []string
	JSFiles      []string
	HiddenFields []HiddenField
	CSRFTokens   []string
}

// Options scope the link admission applied during extraction: only
// links that are in scope for the crawl are reported.
type Options struct {
	BaseURL           string
	IncludeSubdomains bool
	IgnoredExtensions map[string]struct{}
	FocusedExtensions map[string]struct{}
}

var apiEndpointPatterns = []*regexp.Regexp{
	regexp.MustCompile(`["'](/api/[^"']+)["']`),
	regexp.MustCompile(`["'](/rest/[^"']+)["']`),
	regexp.MustCompile(`["'](/v\d+/[^"']+)["']`),
	regexp.MustCompile(`(?i)fetch\(["']([^"']+)["']`),
	regexp.MustCompile(`(?i)axios\.(?:get|post|put|delete|patch)\(["']([^"']+)["']`),
}

var csrfNameMarkers = []string{"csrf", "token"}

// Extract parses html fetched from pageURL and collects its artifacts.
// Unparseable HTML yields empty artifacts, never an error.
func Extract(html, pageURL string, opts Options) *PageArtifacts {
	artifacts := &PageArtifacts{}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return artifacts
	}

	base, err := url.Parse(pageURL)
	if err != nil {
		base = nil
	}

	artifacts.Title = strings.TrimSpace(doc.Find("title").First().Text())
	artifacts.Links = extractLinks(doc, base, opts)
	artifacts.Forms = extractForms(doc)
	artifacts.JSFiles = extractScriptSources(doc, base)
	artifacts.APIEndpoints = extractInlineEndpoints(doc)
	artifacts.HiddenFields = extractHiddenFields(doc)
	artifacts.CSRFTokens = extractCSRFTokens(doc)

	return artifacts
}

func extractLinks(doc *goquery.Document, base *url.URL, opts Options) []string {
	seen := make(map[string]struct{})
	var links []string

	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		resolved, ok := urlnorm.Resolve(base, href)
		if !ok {
			return
		}
		normalized := urlnorm.Normalize(resolved)
		if !urlnorm.InScope(normalized, opts.BaseURL, opts.IncludeSubdomains) {
			return
		}
		if !urlnorm.PassesExtensionFilter(normalized, opts.IgnoredExtensions, opts.FocusedExtensions) {
			return
		}
		if _, dup := seen[normalized]; dup {
			return
		}
		seen[normalized] = struct{}{}
		links = append(links, normalized)
	})

	return links
}

func extractScriptSources(doc *goquery.Document, base *url.URL) []string {
	seen := make(map[string]struct{})
	var files []string

	doc.Find("script[src]").Each(func(_ int, s *goquery.Selection) {
		src, _ := s.Attr("src")
		resolved, ok := urlnorm.Resolve(base, src)
		if !ok {
			return
		}
		if parsed, err := url.Parse(resolved); err != nil || !strings.HasSuffix(strings.ToLower(parsed.Path), ".js") {
			return
		}
		if _, dup := seen[resolved]; dup {
			return
		}
		seen[resolved] = struct{}{}
		files = append(files, resolved)
	})

	return files
}

func extractInlineEndpoints(doc *goquery.Document) []string {
	seen := make(map[string]struct{})
	var endpoints []string

	doc.Find("script").Each(func(_ int, s *goquery.Selection) {
		if _, external := s.Attr("src"); external {
			return
		}
		body := s.Text()
		if strings.TrimSpace(body) == "" {
			return
		}
		for _, pattern := range apiEndpointPatterns {
			for _, match := range pattern.FindAllStringSubmatch(body, -1) {
				endpoint := strings.TrimSpace(match[1])
				if endpoint == "" {
					continue
				}
				if _, dup := seen[endpoint]; dup {
					continue
				}
				seen[endpoint] = struct{}{}
				endpoints = append(endpoints, endpoint)
			}
		}
	})

	return endpoints
}

func extractHiddenFields(doc *goquery.Document) []HiddenField {
	var fields []HiddenField
	doc.Find(`input[type="hidden"]`).Each(func(_ int, s *goquery.Selection) {
		fields = append(fields, HiddenField{
			Name:  s.AttrOr("name", ""),
			Value: s.AttrOr("value", ""),
			ID:    s.AttrOr("id", ""),
		})
	})
	return fields
}

func extractCSRFTokens(doc *goquery.Document) []string {
	seen := make(map[string]struct{})
	var tokens []string

	record := func(value string) {
		if value == "" {
			return
		}
		if _, dup := seen[value]; dup {
			return
		}
		seen[value] = struct{}{}
		tokens = append(tokens, value)
	}

	doc.Find("input[name], meta[name]").Each(func(_ int, s *goquery.Selection) {
		name := strings.ToLower(s.AttrOr("name", ""))
		if !containsAnyMarker(name, csrfNameMarkers) {
			return
		}
		if goquery.NodeName(s) == "meta" {
			record(s.AttrOr("content", ""))
			return
		}
		record(s.AttrOr("value", ""))
	})

	return tokens
}

func containsAnyMarker(name string, markers []string) bool {
	for _, marker := range markers {
		if strings.Contains(name, marker) {
			return true
		}
	}
	return false
}
