// Package report accumulates crawl findings and renders them as a
// structured report, either JSON or a SQLite database.
package report

import (
	"regexp"
	"strings"

	"github.com/dp2pwn/reconspider/internal/extract"
	"github.com/dp2pwn/reconspider/internal/jsanalyze"
	"github.com/dp2pwn/reconspider/internal/probe"
	"github.com/dp2pwn/reconspider/internal/robots"
	"github.com/dp2pwn/reconspider/internal/subenum"
)

// Summary is the headline section of a report.
type Summary struct {
	BaseURL                     string       `json:"base_url"`
	TotalPagesCrawled           int          `json:"total_pages_crawled"`
	TotalFormsFound             int          `json:"total_forms_found"`
	TotalAPIEndpoints           int          `json:"total_api_endpoints"`
	TotalJSFiles                int          `json:"total_js_files"`
	CrawlDepthReached           int          `json:"crawl_depth_reached"`
	RobotsTxtData               *robots.Info `json:"robots_txt_data"`
	SubdomainEnumerationEnabled bool         `json:"subdomain_enumeration_enabled"`
	EndpointGuessingEnabled     bool         `json:"endpoint_guessing_enabled"`
	HiddenFileScanningEnabled   bool         `json:"hidden_file_scanning_enabled"`
	JSAnalysisEnabled           bool         `json:"js_analysis_enabled"`
}

// FormCollection carries the deduplicated forms plus a by-method view.
type FormCollection struct {
	AllForms []extract.Form            `json:"all_forms"`
	ByMethod map[string][]extract.Form `json:"by_method"`
}

// EndpointCollection carries discovered API endpoints plus a by-type view.
type EndpointCollection struct {
	AllEndpoints []string            `json:"all_endpoints"`
	ByType       map[string][]string `json:"by_type"`
}

type SubdomainSection struct {
	Enabled         bool            `json:"enabled"`
	SubdomainsFound *subenum.Result `json:"subdomains_found,omitempty"`
	TotalSubdomains int             `json:"total_subdomains"`
}

type EndpointGuessSection struct {
	Enabled        bool           `json:"enabled"`
	EndpointsFound []probe.Result `json:"endpoints_found"`
	TotalEndpoints int            `json:"total_endpoints"`
}

type HiddenFileSection struct {
	Enabled          bool               `json:"enabled"`
	HiddenFilesFound []probe.HiddenFile `json:"hidden_files_found"`
	TotalHiddenFiles int                `json:"total_hidden_files"`
}

type JSAnalysisSection struct {
	Enabled            bool                          `json:"enabled"`
	AnalysisResults    map[string]*jsanalyze.Analysis `json:"analysis_results"`
	TotalAnalyzedPages int                           `json:"total_analyzed_pages"`
}

// Report is the complete output of one crawl run.
type Report struct {
	CrawlSummary         Summary              `json:"crawl_summary"`
	Forms                FormCollection       `json:"forms"`
	APIEndpoints         EndpointCollection   `json:"api_endpoints"`
	JavaScriptFiles      []string             `json:"javascript_files"`
	Cookies              map[string]string    `json:"cookies"`
	Headers              map[string]string    `json:"headers"`
	DetailedResults      []PageResult         `json:"detailed_results"`
	SubdomainEnumeration SubdomainSection     `json:"subdomain_enumeration"`
	EndpointGuessing     EndpointGuessSection `json:"endpoint_guessing"`
	HiddenFileScanning   HiddenFileSection    `json:"hidden_file_scanning"`
	JavaScriptAnalysis   JSAnalysisSection    `json:"javascript_analysis"`
}

// Features records which collaborators ran during the crawl.
type Features struct {
	SubdomainEnumeration bool
	EndpointGuessing     bool
	HiddenFileScanning   bool
	JSAnalysis           bool
}

// Aggregator merges per-page findings into run-wide collections. It is
// owned by the crawl loop and is not safe for concurrent use.
type Aggregator struct {
	baseURL string

	results  []PageResult
	forms    []extract.Form
	formKeys map[string]struct{}

	endpoints    []string
	endpointSeen map[string]struct{}
	jsFiles      []string
	jsFileSeen   map[string]struct{}

	cookies map[string]string
	headers map[string]string

	robotsInfo       *robots.Info
	subdomains       *subenum.Result
	guessedEndpoints []probe.Result
	hiddenFiles      []probe.HiddenFile
	jsAnalyses       map[string]*jsanalyze.Analysis
}

func NewAggregator(baseURL string) *Aggregator {
	return &Aggregator{
		baseURL:      baseURL,
		formKeys:     make(map[string]struct{}),
		endpointSeen: make(map[string]struct{}),
		jsFileSeen:   make(map[string]struct{}),
		cookies:      make(map[string]string),
		headers:      make(map[string]string),
		jsAnalyses:   make(map[string]*jsanalyze.Analysis),
	}
}

// AddPage folds one page into the run-wide collections. Forms are
// deduplicated by action and method with the first occurrence winning;
// cookies and headers merge last-writer-wins.
func (a *Aggregator) AddPage(result PageResult) {
	a.results = append(a.results, result)
	if result.Failed() {
		return
	}

	for _, form := range result.Forms {
		key := form.Action + ":" + form.Method
		if _, ok := a.formKeys[key]; ok {
			continue
		}
		a.formKeys[key] = struct{}{}
		a.forms = append(a.forms, form)
	}

	a.AddEndpoints(result.APIEndpoints...)

	for _, jsFile := range result.JSFiles {
		if _, ok := a.jsFileSeen[jsFile]; ok {
			continue
		}
		a.jsFileSeen[jsFile] = struct{}{}
		a.jsFiles = append(a.jsFiles, jsFile)
	}

	for name, value := range result.Cookies {
		a.cookies[name] = value
	}
	for name, value := range result.Headers {
		a.headers[name] = value
	}
}

// AddEndpoints records API endpoints from any source, preserving first
// insertion order.
func (a *Aggregator) AddEndpoints(endpoints ...string) {
	for _, endpoint := range endpoints {
		if endpoint == "" {
			continue
		}
		if _, ok := a.endpointSeen[endpoint]; ok {
			continue
		}
		a.endpointSeen[endpoint] = struct{}{}
		a.endpoints = append(a.endpoints, endpoint)
	}
}

func (a *Aggregator) SetRobots(info *robots.Info)            { a.robotsInfo = info }
func (a *Aggregator) SetSubdomains(result *subenum.Result)   { a.subdomains = result }
func (a *Aggregator) SetGuessedEndpoints(res []probe.Result) { a.guessedEndpoints = res }
func (a *Aggregator) SetHiddenFiles(hf []probe.HiddenFile)   { a.hiddenFiles = hf }

// AddJSAnalysis stores the analysis of one script, keyed by script URL.
func (a *Aggregator) AddJSAnalysis(scriptURL string, analysis *jsanalyze.Analysis) {
	if analysis == nil {
		return
	}
	a.jsAnalyses[scriptURL] = analysis
	a.AddEndpoints(analysis.APIEndpoints...)
}

// PagesCrawled reports how many pages have been recorded so far,
// including failed attempts.
func (a *Aggregator) PagesCrawled() int { return len(a.results) }

// Build assembles the final report.
func (a *Aggregator) Build(features Features) *Report {
	depthReached := 0
	for _, result := range a.results {
		if result.Depth > depthReached {
			depthReached = result.Depth
		}
	}

	byMethod := make(map[string][]extract.Form)
	for _, form := range a.forms {
		byMethod[form.Method] = append(byMethod[form.Method], form)
	}

	byType := make(map[string][]string)
	for _, endpoint := range a.endpoints {
		kind := EndpointType(endpoint)
		byType[kind] = append(byType[kind], endpoint)
	}

	totalSubdomains := 0
	if a.subdomains != nil {
		totalSubdomains = a.subdomains.TotalSubdomains
	}

	return &Report{
		CrawlSummary: Summary{
			BaseURL:                     a.baseURL,
			TotalPagesCrawled:           len(a.results),
			TotalFormsFound:             len(a.forms),
			TotalAPIEndpoints:           len(a.endpoints),
			TotalJSFiles:                len(a.jsFiles),
			CrawlDepthReached:           depthReached,
			RobotsTxtData:               a.robotsInfo,
			SubdomainEnumerationEnabled: features.SubdomainEnumeration,
			EndpointGuessingEnabled:     features.EndpointGuessing,
			HiddenFileScanningEnabled:   features.HiddenFileScanning,
			JSAnalysisEnabled:           features.JSAnalysis,
		},
		Forms:           FormCollection{AllForms: a.forms, ByMethod: byMethod},
		APIEndpoints:    EndpointCollection{AllEndpoints: a.endpoints, ByType: byType},
		JavaScriptFiles: a.jsFiles,
		Cookies:         a.cookies,
		Headers:         a.headers,
		DetailedResults: a.results,
		SubdomainEnumeration: SubdomainSection{
			Enabled:         features.SubdomainEnumeration,
			SubdomainsFound: a.subdomains,
			TotalSubdomains: totalSubdomains,
		},
		EndpointGuessing: EndpointGuessSection{
			Enabled:        features.EndpointGuessing,
			EndpointsFound: a.guessedEndpoints,
			TotalEndpoints: len(a.guessedEndpoints),
		},
		HiddenFileScanning: HiddenFileSection{
			Enabled:          features.HiddenFileScanning,
			HiddenFilesFound: a.hiddenFiles,
			TotalHiddenFiles: len(a.hiddenFiles),
		},
		JavaScriptAnalysis: JSAnalysisSection{
			Enabled:            features.JSAnalysis,
			AnalysisResults:    a.jsAnalyses,
			TotalAnalyzedPages: len(a.jsAnalyses),
		},
	}
}

var versionedPathPattern = regexp.MustCompile(`/v\d`)

// EndpointType classifies an endpoint URL. Buckets are checked in
// precedence order: api, rest, versioned, other.
func EndpointType(endpoint string) string {
	switch {
	case strings.Contains(endpoint, "/api/"):
		return "api"
	case strings.Contains(endpoint, "/rest/"):
		return "rest"
	case versionedPathPattern.MatchString(endpoint):
		return "versioned"
	default:
		return "other"
	}
}
