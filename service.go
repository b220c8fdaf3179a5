// Package axdom resolves role and accessible-name queries against web
// pages the way assistive technology sees them: shadow content included,
// hidden content excluded, names computed from labels, not markup
// position. Queries run against parsed snapshots, either supplied as
// HTML, captured live from Chrome, or replayed from the archive.
package axdom

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"golang.org/x/net/html"

	"github.com/hazyhaar/axdom/browse"
	"github.com/hazyhaar/axdom/internal/store"
)

// Service is the query facade shared by the MCP, connectivity and HTTP
// surfaces.
type Service struct {
	cfg    Config
	store  *store.Store
	logger *slog.Logger

	mu      sync.Mutex
	browser *browse.Browser // lazy, first live capture starts Chrome
}

// New builds a Service. The browser is not launched until a live
// capture needs it.
func New(cfg Config) (*Service, error) {
	cfg.applyDefaults()

	s := &Service{cfg: cfg, logger: cfg.Logger}
	if cfg.DBPath != "" {
		st, err := store.Open(cfg.DBPath)
		if err != nil {
			return nil, fmt.Errorf("axdom: open archive: %w", err)
		}
		s.store = st
	}
	return s, nil
}

// Close shuts down the browser and archive.
func (s *Service) Close() error {
	s.mu.Lock()
	b := s.browser
	s.browser = nil
	s.mu.Unlock()

	var err error
	if b != nil {
		err = b.Close()
	}
	if s.store != nil {
		if cerr := s.store.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

// QueryHTML parses src as a plain document and resolves selector
// against it. all=false stops at the first match.
func (s *Service) QueryHTML(ctx context.Context, src, selector string, all bool) (*QueryResult, error) {
	snap, err := browse.ParseSnapshot(src, nil)
	if err != nil {
		return nil, err
	}
	return s.querySnapshot(ctx, snap, "", selector, all)
}

// QueryURL captures the page at pageURL live, archives the snapshot
// when persistence is on, and resolves selector against it.
func (s *Service) QueryURL(ctx context.Context, pageURL, selector string, all bool) (*QueryResult, error) {
	b, err := s.ensureBrowser()
	if err != nil {
		return nil, err
	}

	page, err := b.OpenPage(ctx, pageURL)
	if err != nil {
		return nil, err
	}
	defer page.Close()

	snap, err := page.Capture(ctx)
	if err != nil {
		return nil, err
	}

	var snapshotID string
	if s.store != nil {
		rec, err := s.store.SaveSnapshot(ctx, pageURL, snap.RawHTML)
		if err != nil {
			s.logger.Warn("axdom: archive snapshot failed", "url", pageURL, "error", err)
		} else {
			snapshotID = rec.ID
		}
	}

	return s.querySnapshot(ctx, snap, snapshotID, selector, all)
}

// Archive stores src in the snapshot archive without a live capture and
// returns the snapshot ID.
func (s *Service) Archive(ctx context.Context, pageURL, src string) (string, error) {
	if s.store == nil {
		return "", fmt.Errorf("axdom: no archive configured")
	}
	rec, err := s.store.SaveSnapshot(ctx, pageURL, src)
	if err != nil {
		return "", err
	}
	return rec.ID, nil
}

// QueryStored replays a query against an archived snapshot.
func (s *Service) QueryStored(ctx context.Context, snapshotID, selector string, all bool) (*QueryResult, error) {
	if s.store == nil {
		return nil, fmt.Errorf("axdom: no archive configured")
	}
	rec, err := s.store.GetSnapshot(ctx, snapshotID)
	if err != nil {
		return nil, err
	}
	snap, err := browse.ParseSnapshot(rec.HTML, nil)
	if err != nil {
		return nil, err
	}
	res, err := s.querySnapshot(ctx, snap, snapshotID, selector, all)
	if err != nil {
		return nil, err
	}
	res.URL = rec.URL
	return res, nil
}

// Snapshots lists archived snapshots, newest first.
func (s *Service) Snapshots(ctx context.Context, limit int) ([]store.Snapshot, error) {
	if s.store == nil {
		return nil, fmt.Errorf("axdom: no archive configured")
	}
	return s.store.ListSnapshots(ctx, limit)
}

// SnapshotByID returns one archived snapshot with its HTML and
// markdown renditions.
func (s *Service) SnapshotByID(ctx context.Context, id string) (store.Snapshot, error) {
	if s.store == nil {
		return store.Snapshot{}, fmt.Errorf("axdom: no archive configured")
	}
	return s.store.GetSnapshot(ctx, id)
}

func (s *Service) ensureBrowser() (*browse.Browser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.browser != nil {
		return s.browser, nil
	}
	b, err := browse.Launch(browse.Config{
		RemoteURL:        s.cfg.Browser.Remote,
		Headful:          s.cfg.Browser.Headful,
		ResourceBlocking: s.cfg.Browser.ResourceBlocking,
		NavigateTimeout:  s.cfg.Browser.NavigateTimeout,
		Logger:           s.logger,
	})
	if err != nil {
		return nil, err
	}
	s.browser = b
	return b, nil
}

func (s *Service) querySnapshot(ctx context.Context, snap *browse.Snapshot, snapshotID, selector string, all bool) (*QueryResult, error) {
	start := time.Now()

	var locators []*browse.Locator
	if all {
		ls, err := snap.Root().All(selector)
		if err != nil {
			return nil, err
		}
		locators = ls
	} else {
		l, err := snap.Root().Locator(selector)
		if err != nil {
			var noMatch *browse.ErrNoMatch
			if !errors.As(err, &noMatch) {
				return nil, err
			}
		} else {
			locators = []*browse.Locator{l}
		}
	}

	if len(locators) > s.cfg.MaxMatches {
		locators = locators[:s.cfg.MaxMatches]
	}

	res := &QueryResult{
		SnapshotID: snapshotID,
		URL:        snap.URL,
		Selector:   selector,
		Matches:    make([]Match, 0, len(locators)),
	}
	for _, l := range locators {
		res.Matches = append(res.Matches, s.describe(snap, l))
	}

	took := time.Since(start)
	s.logger.Debug("axdom: query",
		"selector", selector,
		"matches", len(res.Matches),
		"took", took)
	if s.store != nil {
		if err := s.store.LogQuery(ctx, snapshotID, selector, len(res.Matches), took); err != nil {
			s.logger.Warn("axdom: query log failed", "error", err)
		}
	}
	return res, nil
}

func (s *Service) describe(snap *browse.Snapshot, l *browse.Locator) Match {
	text := truncate(l.Text(), 200)
	return Match{
		Role:        l.Role(),
		Name:        l.Name(),
		Description: l.Description(),
		Tag:         l.Tag(),
		Text:        text,
		Path:        elementPath(snap, l.Node()),
		Index:       snap.NodeIndex(l.Node()),
	}
}

// elementPath renders a readable root-to-element path. Shadow boundary
// crossings show up as "::shadow" between the host and its root content.
func elementPath(snap *browse.Snapshot, n *html.Node) string {
	var parts []string
	for cur := n; cur != nil; {
		if cur.Type == html.ElementNode {
			step := cur.Data
			if id := attrOf(cur, "id"); id != "" {
				step += "#" + id
			}
			parts = append(parts, step)
		}
		if cur.Parent != nil {
			cur = cur.Parent
			continue
		}
		if host, ok := snap.Registry.Host(cur); ok {
			parts = append(parts, "::shadow")
			cur = host
			continue
		}
		break
	}
	// reverse into document order
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return strings.Join(parts, " > ")
}

// truncate cuts s to at most max bytes without splitting a rune.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

func attrOf(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}
