// Package config defines the immutable run parameters for a crawl and
// the optional JSON configuration file that seeds them.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"
)

type OutputFormat string

const (
	OutputJSON OutputFormat = "json"
	OutputDB   OutputFormat = "db"
	OutputBoth OutputFormat = "both"
)

const (
	DefaultMaxDepth   = 5
	DefaultMaxPages   = 1000
	DefaultDelay      = time.Second
	DefaultConcurrent = 5
	DefaultTimeout    = 30 * time.Second
	DefaultUserAgent  = "reconspider/1.0 (authorized security assessment)"
)

// CrawlConfig holds every parameter of one run. It is constructed once
// before the run starts and never mutated afterwards.
type CrawlConfig struct {
	BaseURL string

	MaxDepth   int
	MaxPages   int
	Delay      time.Duration
	Concurrent int
	Timeout    time.Duration

	IncludeSubdomains bool
	RespectRobots     bool
	OverrideRobots    bool

	UseBrowser     bool
	RequireBrowser bool
	Headless       bool
	UserAgent      string

	IgnoredExtensions map[string]struct{}
	FocusedExtensions map[string]struct{}

	AuthCookies   map[string]string
	AuthHeaders   map[string]string
	CustomHeaders map[string]string

	OutputFormat OutputFormat
	OutputFile   string

	EnableSubdomainEnum    bool
	EnableEndpointGuessing bool
	EnableHiddenFileScan   bool
	EnableJSAnalysis       bool

	SubdomainMethods   []string
	SubdomainWordlist  string
	EndpointWordlist   string
	HiddenFileWordlist string
}

// Default returns a config populated with the standard run parameters.
func Default() *CrawlConfig {
	return &CrawlConfig{
		MaxDepth:          DefaultMaxDepth,
		MaxPages:          DefaultMaxPages,
		Delay:             DefaultDelay,
		Concurrent:        DefaultConcurrent,
		Timeout:           DefaultTimeout,
		RespectRobots:     true,
		UseBrowser:        true,
		Headless:          true,
		UserAgent:         DefaultUserAgent,
		IgnoredExtensions: DefaultIgnoredExtensions(),
		FocusedExtensions: nil,
		AuthCookies:       map[string]string{},
		AuthHeaders:       map[string]string{},
		CustomHeaders:     map[string]string{},
		OutputFormat:      OutputBoth,
		SubdomainMethods:  []string{"dns", "wordlist", "crtsh"},
	}
}

// DefaultIgnoredExtensions lists binary and media suffixes that are
// never worth fetching during reconnaissance.
func DefaultIgnoredExtensions() map[string]struct{} {
	return extensionSet(
		".pdf", ".zip", ".exe", ".dmg", ".mp4", ".mp3", ".avi",
		".jpg", ".jpeg", ".png", ".gif", ".ico", ".svg",
	)
}

// DefaultFocusedExtensions lists the dynamic-content suffixes used when
// a run explicitly narrows its crawl to server-side pages.
func DefaultFocusedExtensions() map[string]struct{} {
	return extensionSet(
		".html", ".htm", ".php", ".asp", ".aspx", ".jsp",
		".js", ".css", ".xml", ".json",
	)
}

// fileConfig mirrors the JSON configuration file. Pointer fields
// distinguish "absent" from zero values so the file only overrides what
// it names.
type fileConfig struct {
	MaxDepth           *int     `json:"max_depth"`
	MaxPages           *int     `json:"max_pages"`
	Delay              *float64 `json:"delay"`
	ConcurrentRequests *int     `json:"concurrent_requests"`
	Timeout            *float64 `json:"timeout"`

	IncludeSubdomains *bool `json:"include_subdomains"`
	RespectRobots     *bool `json:"respect_robots"`
	OverrideRobots    *bool `json:"override_robots"`

	UseBrowser *bool   `json:"use_browser"`
	Headless   *bool   `json:"headless"`
	UserAgent  *string `json:"user_agent"`

	IgnoredExtensions []string `json:"ignored_extensions"`
	FocusedExtensions []string `json:"focused_extensions"`

	AuthCookies   map[string]string `json:"auth_cookies"`
	AuthHeaders   map[string]string `json:"auth_headers"`
	CustomHeaders map[string]string `json:"custom_headers"`

	OutputFormat *string `json:"output_format"`
	OutputFile   *string `json:"output_file"`
}

// FromFile loads a JSON configuration file on top of the defaults.
func FromFile(path string) (*CrawlConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var fc fileConfig
	if err := json.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("parse config file %s: %w", path, err)
	}

	cfg := Default()
	if fc.MaxDepth != nil {
		cfg.MaxDepth = *fc.MaxDepth
	}
	if fc.MaxPages != nil {
		cfg.MaxPages = *fc.MaxPages
	}
	if fc.Delay != nil {
		cfg.Delay = time.Duration(*fc.Delay * float64(time.Second))
	}
	if fc.ConcurrentRequests != nil {
		cfg.Concurrent = *fc.ConcurrentRequests
	}
	if fc.Timeout != nil {
		cfg.Timeout = time.Duration(*fc.Timeout * float64(time.Second))
	}
	if fc.IncludeSubdomains != nil {
		cfg.IncludeSubdomains = *fc.IncludeSubdomains
	}
	if fc.RespectRobots != nil {
		cfg.RespectRobots = *fc.RespectRobots
	}
	if fc.OverrideRobots != nil {
		cfg.OverrideRobots = *fc.OverrideRobots
	}
	if fc.UseBrowser != nil {
		cfg.UseBrowser = *fc.UseBrowser
	}
	if fc.Headless != nil {
		cfg.Headless = *fc.Headless
	}
	if fc.UserAgent != nil && strings.TrimSpace(*fc.UserAgent) != "" {
		cfg.UserAgent = strings.TrimSpace(*fc.UserAgent)
	}
	if fc.IgnoredExtensions != nil {
		cfg.IgnoredExtensions = extensionSet(fc.IgnoredExtensions...)
	}
	if fc.FocusedExtensions != nil {
		cfg.FocusedExtensions = extensionSet(fc.FocusedExtensions...)
	}
	if fc.AuthCookies != nil {
		cfg.AuthCookies = fc.AuthCookies
	}
	if fc.AuthHeaders != nil {
		cfg.AuthHeaders = fc.AuthHeaders
	}
	if fc.CustomHeaders != nil {
		cfg.CustomHeaders = fc.CustomHeaders
	}
	if fc.OutputFormat != nil {
		cfg.OutputFormat = OutputFormat(strings.ToLower(strings.TrimSpace(*fc.OutputFormat)))
	}
	if fc.OutputFile != nil {
		cfg.OutputFile = *fc.OutputFile
	}

	return cfg, nil
}

// Clamp forces out-of-range values back to their defaults and validates
// the output format. Called once after flags and file are merged.
func (c *CrawlConfig) Clamp() error {
	if c.MaxDepth <= 0 {
		c.MaxDepth = DefaultMaxDepth
	}
	if c.MaxPages <= 0 {
		c.MaxPages = DefaultMaxPages
	}
	if c.Delay < 0 {
		c.Delay = DefaultDelay
	}
	if c.Concurrent <= 0 {
		c.Concurrent = DefaultConcurrent
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if strings.TrimSpace(c.UserAgent) == "" {
		c.UserAgent = DefaultUserAgent
	}

	switch c.OutputFormat {
	case OutputJSON, OutputDB, OutputBoth:
	case "":
		c.OutputFormat = OutputBoth
	default:
		return fmt.Errorf("unknown output format %q (expected json, db or both)", c.OutputFormat)
	}
	return nil
}

func extensionSet(exts ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(exts))
	for _, ext := range exts {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		set[ext] = struct{}{}
	}
	return set
}
