package browse

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/go-rod/rod"
	"golang.org/x/net/html"

	"github.com/hazyhaar/axdom/aria"
	"github.com/hazyhaar/axdom/query"
)

// Engine resolves a selector payload to matching elements under scope.
// tree carries shadow-root and override associations; engines that only
// read markup may ignore it.
type Engine func(scope *html.Node, payload string, tree aria.Tree) ([]*html.Node, error)

var (
	enginesMu sync.RWMutex
	engines   = map[string]Engine{}
)

// RegisterEngine adds a named selector engine. Registering a name twice
// is a programming error and panics at setup time rather than letting
// one engine silently shadow the other.
func RegisterEngine(name string, e Engine) {
	enginesMu.Lock()
	defer enginesMu.Unlock()
	if _, dup := engines[name]; dup {
		panic("browse: selector engine already registered: " + name)
	}
	engines[name] = e
}

func init() {
	RegisterEngine(query.EngineName, roleEngine)
	RegisterEngine("css", cssEngine)
}

func roleEngine(scope *html.Node, payload string, tree aria.Tree) ([]*html.Node, error) {
	f, err := query.ParseSelector(query.EngineName + "=" + payload)
	if err != nil {
		return nil, err
	}
	return query.QueryAll(scope, f, tree), nil
}

// resolve splits "engine=payload" and runs the engine. A selector with
// no registered engine prefix is treated as a bare CSS selector.
func resolve(scope *html.Node, selector string, tree aria.Tree) ([]*html.Node, error) {
	name, payload := "css", selector
	if prefix, rest, ok := strings.Cut(selector, "="); ok {
		enginesMu.RLock()
		_, known := engines[prefix]
		enginesMu.RUnlock()
		if known {
			name, payload = prefix, rest
		}
	}
	enginesMu.RLock()
	e := engines[name]
	enginesMu.RUnlock()
	return e(scope, payload, tree)
}

// Locator points at one element of a Snapshot. Every locator-producing
// method returns another *Locator, so shadow-aware resolution carries
// through chained lookups by construction.
type Locator struct {
	snap *Snapshot
	node *html.Node
}

// ErrNoMatch is returned when a selector resolves to nothing.
type ErrNoMatch struct{ Selector string }

func (e *ErrNoMatch) Error() string {
	return fmt.Sprintf("browse: no element matches %q", e.Selector)
}

// Root returns a locator for the document.
func (s *Snapshot) Root() *Locator {
	return &Locator{snap: s, node: s.Doc}
}

// Locator resolves selector under this locator and returns the first
// match in pre-order document order.
func (l *Locator) Locator(selector string) (*Locator, error) {
	nodes, err := resolve(l.node, selector, l.snap.Registry)
	if err != nil {
		return nil, err
	}
	if len(nodes) == 0 {
		return nil, &ErrNoMatch{Selector: selector}
	}
	return &Locator{snap: l.snap, node: nodes[0]}, nil
}

// All resolves selector under this locator and returns every match.
func (l *Locator) All(selector string) ([]*Locator, error) {
	nodes, err := resolve(l.node, selector, l.snap.Registry)
	if err != nil {
		return nil, err
	}
	out := make([]*Locator, len(nodes))
	for i, n := range nodes {
		out[i] = &Locator{snap: l.snap, node: n}
	}
	return out, nil
}

// ByRole queries by role and accessible name without going through the
// selector string syntax.
func (l *Locator) ByRole(f query.Filter) (*Locator, error) {
	n, ok := query.Query(l.node, f, l.snap.Registry)
	if !ok {
		return nil, &ErrNoMatch{Selector: query.EngineName + " filter"}
	}
	return &Locator{snap: l.snap, node: n}, nil
}

// AllByRole returns every element matching the filter.
func (l *Locator) AllByRole(f query.Filter) []*Locator {
	nodes := query.QueryAll(l.node, f, l.snap.Registry)
	out := make([]*Locator, len(nodes))
	for i, n := range nodes {
		out[i] = &Locator{snap: l.snap, node: n}
	}
	return out
}

// Node exposes the underlying parse node.
func (l *Locator) Node() *html.Node { return l.node }

// Tag returns the element's tag name, empty for non-elements.
func (l *Locator) Tag() string {
	if l.node.Type != html.ElementNode {
		return ""
	}
	return l.node.Data
}

// Attr returns the value of the named attribute.
func (l *Locator) Attr(key string) string { return nodeAttr(l.node, key) }

func (l *Locator) Role() string {
	return aria.NewComputation(l.snap.Registry).Role(l.node)
}

func (l *Locator) Name() string {
	return aria.NewComputation(l.snap.Registry).Name(l.node)
}

func (l *Locator) Description() string {
	return aria.NewComputation(l.snap.Registry).Description(l.node)
}

func (l *Locator) Text() string {
	return aria.NewComputation(l.snap.Registry).Text(l.node)
}

func (l *Locator) Hidden() bool {
	return aria.NewComputation(l.snap.Registry).Hidden(l.node)
}

// LiveElement maps a snapshot match back to its live element on page,
// using the preorder index stamped at capture time. Only works for
// snapshots produced by Capture, not for plain parsed HTML.
func (l *Locator) LiveElement(ctx context.Context, p *Page) (*rod.Element, error) {
	i := l.snap.NodeIndex(l.node)
	if i < 0 {
		return nil, fmt.Errorf("browse: node has no live index")
	}
	el, err := p.Page.Context(ctx).ElementByJS(rod.Eval(`i => window.__axdom.byIndex[i]`, i))
	if err != nil {
		return nil, fmt.Errorf("browse: live element %d: %w", i, err)
	}
	return el, nil
}
