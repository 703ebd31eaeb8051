package fetcher

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"

	"github.com/IshaanNene/NewsPulse/internal/config"
	"github.com/IshaanNene/NewsPulse/internal/types"
)

// BrowserFetcher implements ActionFetcher using a headless browser via Rod.
// At most maxPages pages are open at once; idle pages are pooled.
type BrowserFetcher struct {
	browser        *rod.Browser
	router         *rod.HijackRouter
	cfg            *config.Config
	stealthCfg     *StealthConfig
	logger         *slog.Logger
	proxyMgr       *ProxyManager
	pagePool       chan *rod.Page
	slots          chan struct{}
	maxPages       int
	blockResources map[proto.NetworkResourceType]bool

	mu     sync.Mutex
	closed bool
}

// BrowserOption configures the BrowserFetcher.
type BrowserOption func(*BrowserFetcher)

// WithStealth enables stealth mode with the given configuration.
func WithStealth(cfg *StealthConfig) BrowserOption {
	return func(bf *BrowserFetcher) { bf.stealthCfg = cfg }
}

// WithBrowserProxy sets the proxy manager for browser requests.
func WithBrowserProxy(pm *ProxyManager) BrowserOption {
	return func(bf *BrowserFetcher) { bf.proxyMgr = pm }
}

// WithMaxPages sets the maximum number of concurrent browser pages.
func WithMaxPages(n int) BrowserOption {
	return func(bf *BrowserFetcher) {
		if n > 0 {
			bf.maxPages = n
		}
	}
}

// NewBrowserFetcher launches Chromium and connects to it.
func NewBrowserFetcher(cfg *config.Config, logger *slog.Logger, opts ...BrowserOption) (*BrowserFetcher, error) {
	bf := &BrowserFetcher{
		cfg:            cfg,
		logger:         logger.With("component", "browser_fetcher"),
		maxPages:       cfg.Browser.MaxPages,
		blockResources: make(map[proto.NetworkResourceType]bool),
	}
	if cfg.Browser.Stealth {
		bf.stealthCfg = NewStealthConfig(cfg.Browser)
	}
	if cfg.Proxy.Enabled && len(cfg.Proxy.URLs) > 0 {
		bf.proxyMgr = NewProxyManager(&cfg.Proxy, logger)
	}
	for _, opt := range opts {
		opt(bf)
	}
	if bf.maxPages < 1 {
		bf.maxPages = 1
	}
	for _, kind := range cfg.Browser.BlockResources {
		bf.blockResources[resourceType(kind)] = true
	}

	launchURL, err := bf.launchBrowser()
	if err != nil {
		return nil, fmt.Errorf("launch browser: %w", err)
	}

	browser := rod.New().ControlURL(launchURL)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("connect browser: %w", err)
	}
	bf.browser = browser
	bf.pagePool = make(chan *rod.Page, bf.maxPages)
	bf.slots = make(chan struct{}, bf.maxPages)

	if len(bf.blockResources) > 0 {
		bf.router = browser.HijackRequests()
		bf.router.MustAdd("*", bf.hijack)
		go bf.router.Run()
	}

	bf.logger.Info("browser fetcher ready",
		"max_pages", bf.maxPages,
		"stealth", bf.stealthCfg != nil,
		"blocked_resources", cfg.Browser.BlockResources,
	)

	return bf, nil
}

// launchBrowser starts a Chromium instance with appropriate flags.
func (bf *BrowserFetcher) launchBrowser() (string, error) {
	l := launcher.New().
		Headless(bf.cfg.Browser.Headless).
		Set("disable-gpu").
		Set("disable-dev-shm-usage").
		Set("no-sandbox").
		Set("disable-setuid-sandbox").
		Set("disable-blink-features", "AutomationControlled")

	if bf.cfg.Browser.BinPath != "" {
		l = l.Bin(bf.cfg.Browser.BinPath)
	}
	if bf.cfg.Browser.Locale != "" {
		l = l.Set("lang", bf.cfg.Browser.Locale)
	}
	if bf.cfg.Browser.WindowWidth > 0 && bf.cfg.Browser.WindowHeight > 0 {
		l = l.Set("window-size", fmt.Sprintf("%d,%d", bf.cfg.Browser.WindowWidth, bf.cfg.Browser.WindowHeight))
	}
	if bf.proxyMgr != nil {
		if proxyURL := bf.proxyMgr.Next(); proxyURL != nil {
			l = l.Proxy(proxyURL.String())
		}
	}

	return l.Launch()
}

// hijack drops requests for blocked resource types and lets the rest through.
func (bf *BrowserFetcher) hijack(h *rod.Hijack) {
	if bf.blockResources[h.Request.Type()] {
		h.Response.Fail(proto.NetworkErrorReasonBlockedByClient)
		return
	}
	h.ContinueRequest(&proto.FetchContinueRequest{})
}

// Fetch navigates to a URL and returns the rendered page content.
func (bf *BrowserFetcher) Fetch(ctx context.Context, req *types.Request) (*types.Response, error) {
	return bf.FetchWithActions(ctx, req)
}

// FetchWithActions navigates to a URL, runs the actions in order and returns
// the rendered DOM. A failing action is logged and does not fail the fetch.
func (bf *BrowserFetcher) FetchWithActions(ctx context.Context, req *types.Request, actions ...PageAction) (*types.Response, error) {
	start := time.Now()

	timeout := bf.cfg.Crawl.RequestTimeout
	if req.Timeout > 0 {
		timeout = req.Timeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	page, err := bf.getPage(ctx)
	if err != nil {
		return nil, &types.FetchError{URL: req.URLString(), Err: err, Retryable: true}
	}
	defer bf.putPage(page)

	p := page.Context(ctx)

	headers := make([]string, 0, len(req.Headers)*2+2)
	if bf.cfg.Crawl.AcceptLanguage != "" {
		headers = append(headers, "Accept-Language", bf.cfg.Crawl.AcceptLanguage)
	}
	for k, vals := range req.Headers {
		for _, v := range vals {
			headers = append(headers, k, v)
		}
	}
	if len(headers) > 0 {
		if _, err := p.SetExtraHeaders(headers); err != nil {
			bf.logger.Warn("failed to set headers", "error", err)
		}
	}

	if err := p.Navigate(req.URLString()); err != nil {
		return nil, &types.FetchError{URL: req.URLString(), Err: err, Retryable: true}
	}
	if err := p.WaitStable(300 * time.Millisecond); err != nil {
		bf.logger.Warn("page stability timeout, continuing", "url", req.URLString(), "error", err)
	}

	if req.WaitSelector != "" {
		if _, err := p.Timeout(10 * time.Second).Element(req.WaitSelector); err != nil {
			bf.logger.Warn("wait selector timeout", "selector", req.WaitSelector, "error", err)
		}
	}

	for i, action := range actions {
		if err := action(p); err != nil {
			bf.logger.Debug("page action failed", "url", req.URLString(), "action", i, "error", err)
		}
	}

	html, err := p.HTML()
	if err != nil {
		return nil, &types.FetchError{URL: req.URLString(), Err: err, Retryable: true}
	}

	finalURL := req.URLString()
	if info, err := p.Info(); err == nil && info != nil {
		finalURL = info.URL
	}

	duration := time.Since(start)
	resp := types.NewBrowserResponse(req, html, finalURL, duration)

	bf.logger.Debug("browser fetch complete",
		"url", req.URLString(),
		"final_url", finalURL,
		"size", len(html),
		"duration", duration,
	)

	return resp, nil
}

// Close closes every pooled page and shuts down the browser. Pages still in
// use are closed by the browser shutdown.
func (bf *BrowserFetcher) Close() error {
	bf.mu.Lock()
	if bf.closed {
		bf.mu.Unlock()
		return nil
	}
	bf.closed = true
	close(bf.pagePool)
	bf.mu.Unlock()

	for page := range bf.pagePool {
		_ = page.Close()
	}
	if bf.router != nil {
		_ = bf.router.Stop()
	}
	bf.logger.Debug("browser fetcher closed")
	if bf.browser != nil {
		return bf.browser.Close()
	}
	return nil
}

// Type returns the fetcher type identifier.
func (bf *BrowserFetcher) Type() string {
	return string(config.EngineBrowser)
}

// getPage waits for a free slot and then reuses a pooled page or opens one.
func (bf *BrowserFetcher) getPage(ctx context.Context) (*rod.Page, error) {
	select {
	case bf.slots <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	bf.mu.Lock()
	closed := bf.closed
	bf.mu.Unlock()
	if closed {
		<-bf.slots
		return nil, fmt.Errorf("browser fetcher closed")
	}

	select {
	case page, ok := <-bf.pagePool:
		if ok {
			return page, nil
		}
	default:
	}

	page, err := bf.newPage()
	if err != nil {
		<-bf.slots
		return nil, err
	}
	return page, nil
}

func (bf *BrowserFetcher) newPage() (*rod.Page, error) {
	var (
		page *rod.Page
		err  error
	)
	if bf.stealthCfg != nil {
		page, err = stealth.Page(bf.browser)
	} else {
		page, err = bf.browser.Page(proto.TargetCreateTarget{URL: "about:blank"})
	}
	if err != nil {
		return nil, fmt.Errorf("open page: %w", err)
	}

	if bf.stealthCfg != nil {
		if _, err := page.EvalOnNewDocument(bf.stealthCfg.StealthJS()); err != nil {
			bf.logger.Warn("stealth script injection failed", "error", err)
		}
		err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
			Width:             bf.stealthCfg.ViewportWidth,
			Height:            bf.stealthCfg.ViewportHeight,
			DeviceScaleFactor: 1,
		})
		if err != nil {
			bf.logger.Warn("set viewport failed", "error", err)
		}
	}
	if len(bf.cfg.Crawl.UserAgents) > 0 {
		err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{
			UserAgent:      bf.cfg.Crawl.UserAgents[0],
			AcceptLanguage: bf.cfg.Crawl.AcceptLanguage,
		})
		if err != nil {
			bf.logger.Warn("failed to set user agent", "error", err)
		}
	}
	return page, nil
}

// putPage returns a page to the pool and frees its slot.
func (bf *BrowserFetcher) putPage(page *rod.Page) {
	defer func() { <-bf.slots }()

	// Navigate to blank to free memory from the last page
	_ = page.Navigate("about:blank")

	bf.mu.Lock()
	defer bf.mu.Unlock()
	if bf.closed {
		_ = page.Close()
		return
	}
	select {
	case bf.pagePool <- page:
	default:
		_ = page.Close()
	}
}

// resourceType maps a config name such as "image" to the CDP resource type.
func resourceType(kind string) proto.NetworkResourceType {
	switch strings.ToLower(kind) {
	case "image":
		return proto.NetworkResourceTypeImage
	case "font":
		return proto.NetworkResourceTypeFont
	case "media":
		return proto.NetworkResourceTypeMedia
	case "stylesheet", "css":
		return proto.NetworkResourceTypeStylesheet
	default:
		return proto.NetworkResourceType(kind)
	}
}
