package browse

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/hazyhaar/axdom/aria"
	"github.com/hazyhaar/axdom/shadowdom"
)

// OverrideRecord is one ElementInternals default captured from a live
// page, keyed by the element's data-axdom-i preorder index.
type OverrideRecord struct {
	Index     int    `json:"index"`
	Role      string `json:"role"`
	Label     string `json:"label"`
	LabelRefs []int  `json:"labelRefs"`
}

// captureResult is the raw payload produced by captureScript.
type captureResult struct {
	HTML      string           `json:"html"`
	Overrides []OverrideRecord `json:"overrides"`
	URL       string           `json:"url"`
}

// Snapshot is a parsed page: the light tree plus the registry holding
// shadow-root associations and internals overrides. It is immutable
// once built and safe for concurrent queries.
type Snapshot struct {
	Doc      *html.Node
	Registry *shadowdom.Registry
	URL      string
	RawHTML  string

	byIndex map[int]*html.Node
}

// Capture serializes the current DOM, shadow trees included, and parses
// it into a queryable Snapshot.
func (p *Page) Capture(ctx context.Context) (*Snapshot, error) {
	res, err := p.Page.Context(ctx).Eval(captureScript)
	if err != nil {
		return nil, fmt.Errorf("browse: capture eval: %w", err)
	}

	var cr captureResult
	if err := json.Unmarshal([]byte(res.Value.Str()), &cr); err != nil {
		return nil, fmt.Errorf("browse: decode capture: %w", err)
	}

	snap, err := ParseSnapshot(cr.HTML, cr.Overrides)
	if err != nil {
		return nil, err
	}
	snap.URL = cr.URL
	return snap, nil
}

// ParseSnapshot builds a Snapshot from serialized HTML. Declarative
// shadow templates (<template shadowrootmode=...>) are detached from
// their hosts and registered as shadow roots, so the host's remaining
// children become its light children for slot assignment. overrides may
// be nil for plain documents.
func ParseSnapshot(src string, overrides []OverrideRecord) (*Snapshot, error) {
	doc, err := html.Parse(strings.NewReader(src))
	if err != nil {
		return nil, fmt.Errorf("browse: parse snapshot: %w", err)
	}

	snap := &Snapshot{
		Doc:      doc,
		Registry: shadowdom.NewRegistry(),
		RawHTML:  src,
		byIndex:  make(map[int]*html.Node),
	}
	snap.hoistShadowRoots(doc)
	snap.applyOverrides(overrides)
	return snap, nil
}

// hoistShadowRoots walks the tree, indexes elements, and converts every
// declarative shadow template into a registry association. The template
// node itself is discarded: its children move into a fresh detached
// container so role and text computation treat them as ordinary content.
func (s *Snapshot) hoistShadowRoots(n *html.Node) {
	if n.Type == html.ElementNode {
		if v := nodeAttr(n, "data-axdom-i"); v != "" {
			if i, err := strconv.Atoi(v); err == nil {
				s.byIndex[i] = n
			}
		}
		if n.DataAtom == atom.Template && nodeAttr(n, "shadowrootmode") != "" {
			host := n.Parent
			if host != nil && host.Type == html.ElementNode {
				host.RemoveChild(n)
				root := &html.Node{Type: html.DocumentNode}
				for c := n.FirstChild; c != nil; {
					next := c.NextSibling
					n.RemoveChild(c)
					root.AppendChild(c)
					c = next
				}
				s.Registry.SetRoot(host, root)
				s.hoistShadowRoots(root)
				return
			}
		}
	}
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling // current child may detach itself
		s.hoistShadowRoots(c)
		c = next
	}
}

func (s *Snapshot) applyOverrides(records []OverrideRecord) {
	for _, rec := range records {
		n, ok := s.byIndex[rec.Index]
		if !ok {
			continue
		}
		ov := aria.Override{Role: rec.Role, Label: rec.Label}
		for _, ri := range rec.LabelRefs {
			if ref, ok := s.byIndex[ri]; ok {
				ov.LabelRefs = append(ov.LabelRefs, ref)
			}
		}
		s.Registry.SetOverride(n, ov)
	}
}

// NodeIndex returns the live-page preorder index of n, or -1 for nodes
// parsed from plain HTML without capture indexes.
func (s *Snapshot) NodeIndex(n *html.Node) int {
	v := nodeAttr(n, "data-axdom-i")
	if v == "" {
		return -1
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return -1
	}
	return i
}

func nodeAttr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}
