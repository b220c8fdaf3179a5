package query

import (
	"golang.org/x/net/html"

	"github.com/hazyhaar/axdom/aria"
)

// Query returns the first element under root matching the filter, in
// document order. The traversal stops as soon as a match is found.
func Query(root *html.Node, f Filter, tree aria.Tree) (*html.Node, bool) {
	it := newIterator(root, tree)
	if f.Role == "" {
		return nil, false
	}
	for n := it.next(); n != nil; n = it.next() {
		if matches(it.comp, n, f) {
			return n, true
		}
	}
	return nil, false
}

// QueryAll returns every element under root matching the filter, in
// document order.
func QueryAll(root *html.Node, f Filter, tree aria.Tree) []*html.Node {
	if f.Role == "" {
		return nil
	}
	var out []*html.Node
	it := newIterator(root, tree)
	for n := it.next(); n != nil; n = it.next() {
		if matches(it.comp, n, f) {
			out = append(out, n)
		}
	}
	return out
}

// matches applies the filter to one visited element. The role must match
// exactly. A name filter only gets a chance against a non-empty computed
// name: an element without an accessible name never satisfies one, even
// for an empty-string request. The description filter behaves the same
// way against the computed description.
func matches(comp *aria.Computation, n *html.Node, f Filter) bool {
	if comp.Role(n) != f.Role {
		return false
	}
	if f.Name != nil {
		name := comp.Name(n)
		if name == "" || !matchText(name, *f.Name, f.Exact) {
			return false
		}
	}
	if f.Description != nil {
		desc := comp.Description(n)
		if desc == "" || !matchText(desc, *f.Description, f.Exact) {
			return false
		}
	}
	return true
}
