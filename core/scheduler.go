// Package core drives the crawl: a breadth-first frontier, the robots
// gate, the fetch strategies and the collaborators, all feeding one
// report aggregator.
package core

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/dp2pwn/reconspider/internal/config"
	"github.com/dp2pwn/reconspider/internal/extract"
	"github.com/dp2pwn/reconspider/internal/fetch"
	"github.com/dp2pwn/reconspider/internal/frontier"
	"github.com/dp2pwn/reconspider/internal/jsanalyze"
	"github.com/dp2pwn/reconspider/internal/probe"
	"github.com/dp2pwn/reconspider/internal/report"
	"github.com/dp2pwn/reconspider/internal/robots"
	"github.com/dp2pwn/reconspider/internal/subenum"
	"github.com/dp2pwn/reconspider/internal/urlnorm"
)

// Crawler owns one reconnaissance run against a single base URL.
type Crawler struct {
	cfg    *config.CrawlConfig
	logger *logrus.Logger
	base   *url.URL

	frontier *frontier.Frontier
	agg      *report.Aggregator
	stats    *CrawlStats
	limiter  *rate.Limiter

	httpFetcher *fetch.HTTPFetcher
	fetcher     fetch.Fetcher

	robotsInfo *robots.Info
	gateRobots bool

	analyzedScripts map[string]struct{}
}

func NewCrawler(cfg *config.CrawlConfig, logger *logrus.Logger) (*Crawler, error) {
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("base url %q must be http or https", cfg.BaseURL)
	}
	if base.Hostname() == "" {
		return nil, fmt.Errorf("base url %q has no host", cfg.BaseURL)
	}

	httpFetcher, err := fetch.NewHTTPFetcher(cfg)
	if err != nil {
		return nil, err
	}

	limit := rate.Inf
	if cfg.Delay > 0 {
		limit = rate.Every(cfg.Delay)
	}

	return &Crawler{
		cfg:             cfg,
		logger:          logger,
		base:            base,
		frontier:        frontier.New(),
		agg:             report.NewAggregator(cfg.BaseURL),
		stats:           NewCrawlStats(),
		limiter:         rate.NewLimiter(limit, 1),
		httpFetcher:     httpFetcher,
		fetcher:         httpFetcher,
		gateRobots:      cfg.RespectRobots && !cfg.OverrideRobots,
		analyzedScripts: make(map[string]struct{}),
	}, nil
}

// Stats exposes the run counters.
func (c *Crawler) Stats() *CrawlStats { return c.stats }

// Run executes the crawl until the frontier drains, the page budget is
// spent or ctx is cancelled. Once the crawl has started, a partial
// report is returned even on interruption; the only error case is a
// required browser that cannot start.
func (c *Crawler) Run(ctx context.Context) (*report.Report, error) {
	started := time.Now()
	defer c.closeFetchers()

	if err := c.setupFetcher(ctx); err != nil {
		return nil, err
	}

	if !c.cfg.OverrideRobots {
		c.robotsInfo = robots.Fetch(ctx, c.httpFetcher.Client(), c.cfg.BaseURL, c.cfg.UserAgent)
		c.agg.SetRobots(c.robotsInfo)
		if delay := time.Duration(c.robotsInfo.CrawlDelay * float64(time.Second)); delay > c.cfg.Delay {
			c.logger.Infof("Honoring robots.txt crawl-delay of %s", delay)
			c.limiter.SetLimit(rate.Every(delay))
		}
	} else {
		c.logger.Warn("Robots.txt handling overridden; crawling without its restrictions")
	}

	// The base URL takes the first frontier slot; collaborator seeds
	// queue behind it so a tight page budget still reaches the start
	// page.
	c.frontier.Push(urlnorm.Normalize(c.cfg.BaseURL), 0)
	c.runCollaborators(ctx)

	c.crawlLoop(ctx)

	rep := c.agg.Build(report.Features{
		SubdomainEnumeration: c.cfg.EnableSubdomainEnum,
		EndpointGuessing:     c.cfg.EnableEndpointGuessing,
		HiddenFileScanning:   c.cfg.EnableHiddenFileScan,
		JSAnalysis:           c.cfg.EnableJSAnalysis,
	})

	c.logger.Infof("Crawl finished: %d pages, %d forms, %d endpoints, %d errors in %s (%.1f req/s)",
		rep.CrawlSummary.TotalPagesCrawled, rep.CrawlSummary.TotalFormsFound,
		rep.CrawlSummary.TotalAPIEndpoints, c.stats.GetErrors(),
		time.Since(started).Round(time.Millisecond), c.stats.GetRPS(time.Since(started)))

	return rep, nil
}

// setupFetcher selects the rendered-browser strategy when configured,
// falling back to plain HTTP if the browser cannot start.
func (c *Crawler) setupFetcher(ctx context.Context) error {
	if !c.cfg.UseBrowser {
		c.logger.Debug("Browser strategy disabled; using HTTP fetcher")
		return nil
	}

	browser, err := fetch.NewBrowserFetcher(ctx, c.cfg, c.logger)
	if err != nil {
		if c.cfg.RequireBrowser {
			return fmt.Errorf("browser required but unavailable: %w", err)
		}
		c.logger.Warnf("Browser startup failed, falling back to HTTP fetcher: %v", err)
		return nil
	}
	c.fetcher = browser
	return nil
}

func (c *Crawler) closeFetchers() {
	if c.fetcher != nil && c.fetcher != fetch.Fetcher(c.httpFetcher) {
		c.fetcher.Close()
	}
	c.httpFetcher.Close()
}

// runCollaborators executes the enabled pre-crawl stages. Their
// findings seed the frontier at depth zero so the crawler visits them
// regardless of where the BFS currently stands.
func (c *Crawler) runCollaborators(ctx context.Context) {
	if c.cfg.EnableSubdomainEnum {
		c.runSubdomainEnumeration(ctx)
	}
	if c.cfg.EnableEndpointGuessing {
		c.runEndpointGuessing(ctx)
	}
	if c.cfg.EnableHiddenFileScan {
		c.runHiddenFileScan(ctx)
	}
}

func (c *Crawler) runSubdomainEnumeration(ctx context.Context) {
	domain := c.base.Hostname()
	c.logger.Infof("Enumerating subdomains of %s", domain)

	result := subenum.New(domain, c.logger).Enumerate(ctx, c.cfg.SubdomainMethods, c.cfg.SubdomainWordlist)
	c.agg.SetSubdomains(result)
	c.logger.Infof("Found %d subdomains", result.TotalSubdomains)

	for _, sub := range result.Subdomains {
		seed := c.base.Scheme + "://" + sub + "/"
		if !urlnorm.InScope(seed, c.cfg.BaseURL, c.cfg.IncludeSubdomains) {
			continue
		}
		c.frontier.Push(urlnorm.Normalize(seed), 0)
	}
}

func (c *Crawler) runEndpointGuessing(ctx context.Context) {
	prober := probe.NewProber(c.cfg.Timeout, c.cfg.UserAgent, c.cfg.Concurrent, c.logger)
	results, err := prober.GuessEndpoints(ctx, c.cfg.BaseURL, c.cfg.EndpointWordlist)
	if err != nil {
		c.logger.Errorf("Endpoint guessing failed: %v", err)
		return
	}
	c.agg.SetGuessedEndpoints(results)
	c.logger.Infof("Endpoint guessing found %d endpoints", len(results))

	for _, result := range results {
		if result.Found {
			c.frontier.Push(urlnorm.Normalize(result.URL), 0)
		}
	}
}

func (c *Crawler) runHiddenFileScan(ctx context.Context) {
	prober := probe.NewProber(c.cfg.Timeout, c.cfg.UserAgent, c.cfg.Concurrent, c.logger)
	files, err := prober.ScanHiddenFiles(ctx, c.cfg.BaseURL, c.cfg.HiddenFileWordlist)
	if err != nil {
		c.logger.Errorf("Hidden file scanning failed: %v", err)
		return
	}
	c.agg.SetHiddenFiles(files)
	c.logger.Infof("Hidden file scan found %d files", len(files))

	for _, file := range files {
		if file.Found {
			c.frontier.Push(urlnorm.Normalize(file.URL), 0)
		}
	}
}

func (c *Crawler) crawlLoop(ctx context.Context) {
	for c.agg.PagesCrawled() < c.cfg.MaxPages {
		if ctx.Err() != nil {
			c.logger.Warn("Crawl interrupted; writing partial results")
			return
		}

		task, ok := c.frontier.Pop()
		if !ok {
			return
		}
		if task.Depth > c.cfg.MaxDepth {
			continue
		}
		if !c.frontier.MarkVisited(task.URL) {
			continue
		}
		if c.gateRobots && !c.robotsInfo.CanFetch(task.URL) {
			c.logger.Debugf("Blocked by robots.txt: %s", task.URL)
			continue
		}

		if err := c.limiter.Wait(ctx); err != nil {
			return
		}

		c.logger.Infof("Crawling [depth %d]: %s", task.Depth, task.URL)
		result := c.crawlPage(ctx, task.URL, task.Depth)
		c.agg.AddPage(result)

		if result.Failed() {
			continue
		}

		for _, link := range result.Links {
			if !c.frontier.Visited(link) {
				c.frontier.Push(link, task.Depth+1)
			}
		}
		c.stats.AddURLsFound(len(result.Links))

		if c.cfg.EnableJSAnalysis {
			c.analyzeScripts(ctx, result.JSFiles)
		}
	}
}

func (c *Crawler) crawlPage(ctx context.Context, pageURL string, depth int) report.PageResult {
	c.stats.IncrementRequestsMade()

	outcome, err := c.fetcher.Fetch(ctx, pageURL)
	if err != nil {
		c.stats.IncrementErrors()
		c.logger.Debugf("Fetch failed for %s: %v", pageURL, err)
		return report.PageResult{
			URL:       pageURL,
			Depth:     depth,
			FetchedAt: time.Now().UTC(),
			Error:     err.Error(),
		}
	}
	c.stats.IncrementPagesCrawled()

	artifacts := extract.Extract(outcome.HTML, pageURL, extract.Options{
		BaseURL:           c.cfg.BaseURL,
		IncludeSubdomains: c.cfg.IncludeSubdomains,
		IgnoredExtensions: c.cfg.IgnoredExtensions,
		FocusedExtensions: c.cfg.FocusedExtensions,
	})

	endpoints := artifacts.APIEndpoints
	for _, apiCall := range outcome.APICalls {
		if !containsString(endpoints, apiCall) {
			endpoints = append(endpoints, apiCall)
		}
	}

	return report.PageResult{
		URL:          pageURL,
		StatusCode:   outcome.Status,
		ContentType:  outcome.ContentType,
		Title:        artifacts.Title,
		Forms:        artifacts.Forms,
		Links:        artifacts.Links,
		APIEndpoints: endpoints,
		JSFiles:      artifacts.JSFiles,
		Cookies:      outcome.Cookies,
		Headers:      outcome.Headers,
		HiddenFields: artifacts.HiddenFields,
		CSRFTokens:   artifacts.CSRFTokens,
		Depth:        depth,
		FetchedAt:    time.Now().UTC(),
	}
}

// analyzeScripts downloads each not-yet-seen script and mines it for
// further URLs. Discovered in-scope URLs re-enter the frontier at depth
// zero, matching how collaborator findings are treated.
func (c *Crawler) analyzeScripts(ctx context.Context, scriptURLs []string) {
	for _, scriptURL := range scriptURLs {
		if _, seen := c.analyzedScripts[scriptURL]; seen {
			continue
		}
		c.analyzedScripts[scriptURL] = struct{}{}

		body, err := c.httpFetcher.FetchBody(ctx, scriptURL)
		if err != nil {
			c.logger.Debugf("Script download failed for %s: %v", scriptURL, err)
			continue
		}

		analysis := jsanalyze.Analyze(body, scriptURL)
		if analysis.Empty() {
			continue
		}
		c.agg.AddJSAnalysis(scriptURL, analysis)
		c.stats.IncrementScriptsAnalyzed()

		for _, discovered := range analysis.URLs {
			if !urlnorm.InScope(discovered, c.cfg.BaseURL, c.cfg.IncludeSubdomains) {
				continue
			}
			normalized := urlnorm.Normalize(discovered)
			if !c.frontier.Visited(normalized) {
				c.frontier.Push(normalized, 0)
			}
		}
	}
}

func containsString(list []string, value string) bool {
	for _, item := range list {
		if item == value {
			return true
		}
	}
	return false
}
