// Package aria computes effective ARIA semantics — role, accessible name,
// accessible description, and accessibility-tree visibility — for nodes of a
// golang.org/x/net/html document tree.
//
// The computation mirrors what an assistive technology resolves from markup,
// with two extensions that plain markup cannot express: programmatic role
// overrides and detached (shadow) content roots. Both are supplied through
// the Tree interface, normally backed by a shadowdom.Registry.
//
// All mutable state lives in a Computation created per top-level call, so
// results never leak between unrelated queries against a mutating tree.
package aria

import (
	"strings"

	"golang.org/x/net/html"
)

// Override is a programmatic semantics declaration for one element,
// typically recorded when a custom element attaches element internals
// instead of writing role/label attributes into its markup.
type Override struct {
	Role      string
	Label     string
	LabelRefs []*html.Node // elements whose names label this one
}

// Tree supplies the encapsulation state that cannot be read from markup.
// Lookups are read-only and an absent entry is the normal case.
type Tree interface {
	// Override returns the programmatic role/label declaration for n, if any.
	Override(n *html.Node) (Override, bool)
	// ShadowRoot returns the detached content root owned by host, if any.
	// When present it replaces the host's ordinary children for traversal,
	// text and name purposes.
	ShadowRoot(host *html.Node) (*html.Node, bool)
	// Host returns the element owning root, for walking ancestor chains
	// back out of a detached subtree.
	Host(root *html.Node) (*html.Node, bool)
	// AssignedNodes returns the content currently redistributed into a
	// slot element, or nil when nothing is assigned.
	AssignedNodes(slot *html.Node) []*html.Node
}

// emptyTree is used when the caller has no encapsulation state.
type emptyTree struct{}

func (emptyTree) Override(*html.Node) (Override, bool)     { return Override{}, false }
func (emptyTree) ShadowRoot(*html.Node) (*html.Node, bool) { return nil, false }
func (emptyTree) Host(*html.Node) (*html.Node, bool)       { return nil, false }
func (emptyTree) AssignedNodes(*html.Node) []*html.Node    { return nil }

// Empty is the Tree with no overrides and no detached roots. Callers
// that hold a possibly-nil Tree and invoke it directly should normalize
// with it first.
var Empty Tree = emptyTree{}

// Computation carries the per-call caches: memoized names, the cycle guard,
// and resolved visibility. One Computation serves exactly one top-level
// query or computation; it must not be reused after the tree mutates.
type Computation struct {
	tree     Tree
	names    map[nameKey]string
	visiting map[*html.Node]bool
	hidden   map[*html.Node]int8 // 0 unknown, 1 hidden, 2 visible
}

type nameKey struct {
	n            *html.Node
	allowContent bool
}

// NewComputation creates a fresh computation over tree. A nil tree means
// no overrides and no detached roots.
func NewComputation(tree Tree) *Computation {
	if tree == nil {
		tree = Empty
	}
	return &Computation{
		tree:     tree,
		names:    make(map[nameKey]string),
		visiting: make(map[*html.Node]bool),
		hidden:   make(map[*html.Node]int8),
	}
}

// ComputeRole resolves the effective role of n in a one-shot computation.
func ComputeRole(n *html.Node, tree Tree) string {
	return NewComputation(tree).Role(n)
}

// ComputeName resolves the accessible name of n in a one-shot computation.
func ComputeName(n *html.Node, tree Tree) string {
	return NewComputation(tree).Name(n)
}

// ComputeDescription resolves the accessible description of n in a
// one-shot computation.
func ComputeDescription(n *html.Node, tree Tree) string {
	return NewComputation(tree).Description(n)
}

// IsHidden reports whether n is excluded from the accessibility tree,
// in a one-shot computation.
func IsHidden(n *html.Node, tree Tree) bool {
	return NewComputation(tree).Hidden(n)
}

// attr returns the value of the named attribute and whether it is present.
func attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// attrVal returns the named attribute's value, or "" when absent.
func attrVal(n *html.Node, key string) string {
	v, _ := attr(n, key)
	return v
}

// normalize collapses whitespace runs to single spaces and trims the ends.
func normalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// parentOf returns the accessibility-relevant parent of n: the ordinary
// parent, or the host element when n is the root of a detached subtree.
func (c *Computation) parentOf(n *html.Node) *html.Node {
	if n.Parent != nil {
		return n.Parent
	}
	if host, ok := c.tree.Host(n); ok {
		return host
	}
	return nil
}

// treeRoot returns the topmost node of the tree scope containing n,
// without crossing a shadow boundary. ID references resolve within
// one tree scope only.
func treeRoot(n *html.Node) *html.Node {
	for n.Parent != nil {
		n = n.Parent
	}
	return n
}

// byID finds the element with the given id inside the tree scope of from.
func byID(from *html.Node, id string) *html.Node {
	if id == "" {
		return nil
	}
	var find func(*html.Node) *html.Node
	find = func(n *html.Node) *html.Node {
		if n.Type == html.ElementNode && attrVal(n, "id") == id {
			return n
		}
		for ch := n.FirstChild; ch != nil; ch = ch.NextSibling {
			if hit := find(ch); hit != nil {
				return hit
			}
		}
		return nil
	}
	return find(treeRoot(from))
}
