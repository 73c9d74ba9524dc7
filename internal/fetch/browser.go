package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/sirupsen/logrus"

	"github.com/dp2pwn/reconspider/internal/config"
)

// BrowserFetcher is the rendered strategy: it drives a pool of headless
// browser pages, waits for the page to settle after load, and reads the
// fully rendered DOM. Cookies come from the browser's jar, which is
// seeded with the configured authentication cookies before the first
// navigation.
type BrowserFetcher struct {
	navTimeout time.Duration
	quiescence time.Duration
	userAgent  string

	launcher *launcher.Launcher
	browser  *rod.Browser
	session  *rod.Browser
	pagePool chan *rod.Page

	shutdownMu sync.Mutex
	closed     bool

	logger *logrus.Logger
}

// resolveBrowserBinary finds a usable Chromium: ROD_BROWSER first, then
// the system path, then rod's managed download.
func resolveBrowserBinary(ctx context.Context, logger *logrus.Logger) (string, error) {
	if candidate := strings.TrimSpace(os.Getenv("ROD_BROWSER")); candidate != "" {
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		} else if logger != nil {
			logger.Warnf("ROD_BROWSER points to %s but cannot be used: %v", candidate, err)
		}
	}

	if bin, has := launcher.LookPath(); has {
		if _, err := os.Stat(bin); err == nil {
			return bin, nil
		}
	}

	browser := launcher.NewBrowser()
	if ctx != nil {
		browser.Context = ctx
	}
	browser.Logger = log.New(io.Discard, "", 0)

	path, err := browser.Get()
	if err != nil {
		return "", err
	}
	if logger != nil {
		logger.Infof("Downloaded Chromium to %s", path)
	}
	return path, nil
}

// NewBrowserFetcher launches the browser and prepares the page pool.
// The error is surfaced to the caller, which decides between aborting
// the run and degrading to the HTTP strategy.
func NewBrowserFetcher(ctx context.Context, cfg *config.CrawlConfig, logger *logrus.Logger) (*BrowserFetcher, error) {
	bf := &BrowserFetcher{
		navTimeout: cfg.Timeout,
		quiescence: 600 * time.Millisecond,
		userAgent:  cfg.UserAgent,
		logger:     logger,
	}
	if bf.navTimeout <= 0 {
		bf.navTimeout = 12 * time.Second
	}

	launch := launcher.New().Leakless(false).NoSandbox(true).Headless(cfg.Headless)
	launch = launch.Set("disable-gpu", "1")

	binaryPath, err := resolveBrowserBinary(ctx, logger)
	if err != nil {
		return nil, fmt.Errorf("resolve browser binary: %w", err)
	}
	if binaryPath != "" {
		launch = launch.Bin(binaryPath)
	}

	controlURL, err := launch.Launch()
	if err != nil {
		return nil, fmt.Errorf("launch browser: %w", err)
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		launch.Kill()
		return nil, fmt.Errorf("connect browser: %w", err)
	}

	session, err := browser.Incognito()
	if err != nil {
		_ = browser.Close()
		launch.Kill()
		return nil, fmt.Errorf("create incognito session: %w", err)
	}

	authCookies := cookieParams(cfg)

	poolSize := 2
	pages := make([]*rod.Page, 0, poolSize)
	cleanup := func() {
		for _, page := range pages {
			_ = page.Close()
		}
		_ = session.Close()
		_ = browser.Close()
		launch.Kill()
	}

	for i := 0; i < poolSize; i++ {
		page, err := session.Page(proto.TargetCreateTarget{URL: "about:blank"})
		if err != nil {
			cleanup()
			return nil, fmt.Errorf("create page: %w", err)
		}
		if bf.userAgent != "" {
			if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: bf.userAgent}); err != nil {
				cleanup()
				return nil, fmt.Errorf("set user agent: %w", err)
			}
		}
		if len(authCookies) > 0 {
			if err := page.SetCookies(authCookies); err != nil {
				cleanup()
				return nil, fmt.Errorf("seed auth cookies: %w", err)
			}
		}
		pages = append(pages, page)
	}

	bf.launcher = launch
	bf.browser = browser
	bf.session = session
	bf.pagePool = make(chan *rod.Page, len(pages))
	for _, page := range pages {
		bf.pagePool <- page
	}
	return bf, nil
}

func cookieParams(cfg *config.CrawlConfig) []*proto.NetworkCookieParam {
	if len(cfg.AuthCookies) == 0 {
		return nil
	}
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil
	}
	params := make([]*proto.NetworkCookieParam, 0, len(cfg.AuthCookies))
	for name, value := range cfg.AuthCookies {
		params = append(params, &proto.NetworkCookieParam{
			Name:   name,
			Value:  value,
			Domain: base.Hostname(),
			Path:   "/",
		})
	}
	return params
}

func (b *BrowserFetcher) Fetch(ctx context.Context, rawURL string) (*Outcome, error) {
	page, err := b.acquirePage(ctx)
	if err != nil {
		return nil, err
	}
	defer b.releasePage(page)

	var mu sync.Mutex
	status := 0
	contentType := ""
	headers := make(map[string]string)
	apiSeen := make(map[string]struct{})
	var apiCalls []string

	stopEvents := page.EachEvent(
		func(e *proto.NetworkResponseReceived) {
			if e.Type != proto.NetworkResourceTypeDocument {
				return
			}
			mu.Lock()
			status = e.Response.Status
			contentType = e.Response.MIMEType
			for k, v := range e.Response.Headers {
				headers[k] = v.Str()
			}
			mu.Unlock()
		},
		func(e *proto.NetworkRequestWillBeSent) {
			if e.Type != proto.NetworkResourceTypeXHR && e.Type != proto.NetworkResourceTypeFetch {
				return
			}
			mu.Lock()
			if _, exists := apiSeen[e.Request.URL]; !exists {
				apiSeen[e.Request.URL] = struct{}{}
				apiCalls = append(apiCalls, e.Request.URL)
			}
			mu.Unlock()
		},
	)
	defer stopEvents()

	navCtx := page.Context(ctx)
	if b.navTimeout > 0 {
		navCtx = navCtx.Timeout(b.navTimeout)
	}
	if err := navCtx.Navigate(rawURL); err != nil {
		return nil, fmt.Errorf("navigate %s: %w", rawURL, err)
	}
	if err := navCtx.WaitLoad(); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return nil, fmt.Errorf("wait load %s: %w", rawURL, err)
	}

	// Quiescence window: give late XHR/Fetch traffic a chance to land
	// before the DOM is read.
	if b.quiescence > 0 {
		select {
		case <-time.After(b.quiescence):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	html, err := page.HTML()
	if err != nil {
		return nil, fmt.Errorf("get html %s: %w", rawURL, err)
	}

	mu.Lock()
	if status == 0 {
		status = 200
	}
	if contentType == "" {
		contentType = "text/html"
	}
	outcome := &Outcome{
		Status:      status,
		ContentType: contentType,
		HTML:        html,
		Headers:     headers,
		APICalls:    apiCalls,
	}
	mu.Unlock()

	outcome.Cookies = b.pageCookies(page, rawURL)
	return outcome, nil
}

func (b *BrowserFetcher) pageCookies(page *rod.Page, rawURL string) map[string]string {
	out := make(map[string]string)
	cookies, err := page.Cookies([]string{rawURL})
	if err != nil {
		if b.logger != nil {
			b.logger.Debugf("read browser cookies for %s: %v", rawURL, err)
		}
		return out
	}
	for _, c := range cookies {
		out[c.Name] = c.Value
	}
	return out
}

func (b *BrowserFetcher) acquirePage(ctx context.Context) (*rod.Page, error) {
	b.shutdownMu.Lock()
	closed := b.closed
	b.shutdownMu.Unlock()
	if closed {
		return nil, errors.New("browser fetcher is closed")
	}
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case page := <-b.pagePool:
		return page, nil
	}
}

func (b *BrowserFetcher) releasePage(page *rod.Page) {
	if page == nil {
		return
	}
	_ = page.Navigate("about:blank")
	select {
	case b.pagePool <- page:
	default:
		_ = page.Close()
	}
}

// Close releases the page pool, the incognito session, the browser and
// the launcher. Safe to call more than once.
func (b *BrowserFetcher) Close() {
	b.shutdownMu.Lock()
	defer b.shutdownMu.Unlock()
	if b.closed {
		return
	}
	b.closed = true

	if b.pagePool != nil {
		close(b.pagePool)
		for page := range b.pagePool {
			if page != nil {
				_ = page.Close()
			}
		}
		b.pagePool = nil
	}
	if b.session != nil {
		_ = b.session.Close()
		b.session = nil
	}
	if b.browser != nil {
		_ = b.browser.Close()
		b.browser = nil
	}
	if b.launcher != nil {
		b.launcher.Kill()
		b.launcher = nil
	}
}
