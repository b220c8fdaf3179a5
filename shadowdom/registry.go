// Package shadowdom tracks the encapsulation relationships a parsed HTML
// tree cannot express on its own: programmatic role/label overrides
// (element internals) and detached shadow content roots.
//
// The registry is bookkeeping only. It is populated while a snapshot is
// being reconstructed (or directly by tests) and consulted read-only by
// the aria computation and the query engine. Entries are removed
// explicitly via Forget or Reset; a registry holds its nodes alive, so it
// must live no longer than the parsed tree it annotates.
package shadowdom

import (
	"sync"

	"golang.org/x/net/html"

	"github.com/hazyhaar/axdom/aria"
)

// Registry associates elements with overrides and shadow roots.
// Registration and lookup are safe for concurrent use; a single query
// runs synchronously and sees a stable registry throughout.
type Registry struct {
	mu        sync.RWMutex
	overrides map[*html.Node]aria.Override
	roots     map[*html.Node]*html.Node // host -> root
	hosts     map[*html.Node]*html.Node // root -> host
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		overrides: make(map[*html.Node]aria.Override),
		roots:     make(map[*html.Node]*html.Node),
		hosts:     make(map[*html.Node]*html.Node),
	}
}

// SetOverride records a programmatic role/label declaration for el.
// Last write wins; an element normally declares its semantics once.
func (r *Registry) SetOverride(el *html.Node, ov aria.Override) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.overrides[el] = ov
}

// SetRoot records root as the detached content root owned by host. From
// then on the root's content replaces the host's ordinary children for
// traversal, text and name computation. Must be recorded before a query
// reaches host; otherwise the host's native children are traversed
// (graceful degradation, not an error).
func (r *Registry) SetRoot(host, root *html.Node) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if old, ok := r.roots[host]; ok {
		delete(r.hosts, old)
	}
	r.roots[host] = root
	r.hosts[root] = host
}

// Forget drops all associations for el, as an override holder, a host,
// or a detached root.
func (r *Registry) Forget(el *html.Node) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.overrides, el)
	if root, ok := r.roots[el]; ok {
		delete(r.hosts, root)
		delete(r.roots, el)
	}
	if host, ok := r.hosts[el]; ok {
		delete(r.roots, host)
		delete(r.hosts, el)
	}
}

// Reset drops every association.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	clear(r.overrides)
	clear(r.roots)
	clear(r.hosts)
}

// Override implements aria.Tree.
func (r *Registry) Override(n *html.Node) (aria.Override, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ov, ok := r.overrides[n]
	return ov, ok
}

// ShadowRoot implements aria.Tree.
func (r *Registry) ShadowRoot(host *html.Node) (*html.Node, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	root, ok := r.roots[host]
	return root, ok
}

// Host implements aria.Tree.
func (r *Registry) Host(root *html.Node) (*html.Node, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	host, ok := r.hosts[root]
	return host, ok
}
