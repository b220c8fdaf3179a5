// Package browse is the live-page layer: it drives Chrome via Rod,
// installs the interception that records shadow roots and element
// internals before any page script runs, captures shadow-piercing DOM
// snapshots, and exposes role/name queries over them through the Locator
// type.
//
// The split from the computation packages is deliberate: aria, shadowdom
// and query work on any parsed tree; browse is only concerned with
// getting a faithful tree (and registry) out of a live page.
package browse

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
)

// Config configures the browser.
type Config struct {
	// RemoteURL is the WebSocket URL of an external Chrome instance.
	// Empty = launch a local Chrome via launcher.
	RemoteURL string

	// Headless controls the local launcher. Default: true.
	Headful bool

	// ResourceBlocking lists resource types to block while navigating:
	// "images", "fonts", "media", "stylesheets". Queries read markup,
	// so blocking heavy resources is usually safe and much faster.
	ResourceBlocking []string

	// NavigateTimeout bounds Navigate plus the load wait. Default: 30s.
	NavigateTimeout time.Duration

	Logger *slog.Logger
}

func (c *Config) defaults() {
	if c.NavigateTimeout <= 0 {
		c.NavigateTimeout = 30 * time.Second
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Browser owns one Chrome connection.
type Browser struct {
	cfg     Config
	browser *rod.Browser
	lnch    *launcher.Launcher
}

// Launch starts (or connects to) Chrome.
func Launch(cfg Config) (*Browser, error) {
	cfg.defaults()

	var wsURL string
	var lnch *launcher.Launcher
	if cfg.RemoteURL != "" {
		wsURL = cfg.RemoteURL
		cfg.Logger.Info("browse: connecting to remote chrome", "url", wsURL)
	} else {
		l := launcher.New().
			Headless(!cfg.Headful).
			Set("disable-blink-features", "AutomationControlled")
		u, err := l.Launch()
		if err != nil {
			return nil, fmt.Errorf("browse: launch: %w", err)
		}
		wsURL = u
		lnch = l
	}

	b := rod.New().ControlURL(wsURL)
	if err := b.Connect(); err != nil {
		return nil, fmt.Errorf("browse: connect: %w", err)
	}
	return &Browser{cfg: cfg, browser: b, lnch: lnch}, nil
}

// Close shuts down the connection and any locally launched Chrome.
func (b *Browser) Close() error {
	var err error
	if b.browser != nil {
		err = b.browser.Close()
		b.browser = nil
	}
	if b.lnch != nil {
		b.lnch.Cleanup()
		b.lnch = nil
	}
	return err
}

// Page wraps one tab with the axdom interception installed.
type Page struct {
	Page   *rod.Page
	URL    string
	logger *slog.Logger
}

// OpenPage creates a stealth tab, installs the interception hook, then
// navigates. The hook must be in place before any page script can call
// attachShadow or attachInternals; a hook installation failure is fatal,
// because a missed interception silently produces wrong query results
// later.
func (b *Browser) OpenPage(ctx context.Context, pageURL string) (*Page, error) {
	page, err := stealth.Page(b.browser)
	if err != nil {
		return nil, fmt.Errorf("browse: create tab: %w", err)
	}

	if _, err := page.EvalOnNewDocument(initScript); err != nil {
		page.Close()
		return nil, fmt.Errorf("browse: install interception hook: %w", err)
	}

	if len(b.cfg.ResourceBlocking) > 0 {
		if err := applyResourceBlocking(page, b.cfg.ResourceBlocking); err != nil {
			b.cfg.Logger.Warn("browse: resource blocking failed", "error", err)
		}
	}

	navCtx, cancel := context.WithTimeout(ctx, b.cfg.NavigateTimeout)
	defer cancel()

	if err := page.Context(navCtx).Navigate(pageURL); err != nil {
		page.Close()
		return nil, fmt.Errorf("browse: navigate %s: %w", pageURL, err)
	}
	if err := page.Context(navCtx).WaitLoad(); err != nil {
		b.cfg.Logger.Warn("browse: wait load timeout", "url", pageURL, "error", err)
	}

	return &Page{Page: page, URL: pageURL, logger: b.cfg.Logger}, nil
}

// Close closes the tab.
func (p *Page) Close() error {
	if p.Page != nil {
		return p.Page.Close()
	}
	return nil
}

// applyResourceBlocking intercepts requests and fails the blocked types.
func applyResourceBlocking(page *rod.Page, types []string) error {
	blocked := make(map[string]bool, len(types))
	for _, t := range types {
		blocked[t] = true
	}

	router := page.HijackRequests()
	router.MustAdd("*", func(ctx *rod.Hijack) {
		var key string
		switch ctx.Request.Type() {
		case proto.NetworkResourceTypeImage:
			key = "images"
		case proto.NetworkResourceTypeFont:
			key = "fonts"
		case proto.NetworkResourceTypeMedia:
			key = "media"
		case proto.NetworkResourceTypeStylesheet:
			key = "stylesheets"
		}
		if key != "" && blocked[key] {
			ctx.Response.Fail(proto.NetworkErrorReasonBlockedByClient)
			return
		}
		ctx.ContinueRequest(&proto.FetchContinueRequest{})
	})
	go router.Run()
	return nil
}
