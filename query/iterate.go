package query

import (
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/hazyhaar/axdom/aria"
)

// iterator walks a tree in document order with an explicit worklist, so a
// first-match query stops without paying for the full traversal. One
// iterator owns one aria.Computation: caches are shared inside this
// traversal and discarded with it.
type iterator struct {
	stack []*html.Node
	seen  map[*html.Node]bool
	comp  *aria.Computation
	tree  aria.Tree
}

func newIterator(root *html.Node, tree aria.Tree) *iterator {
	if tree == nil {
		tree = aria.Empty
	}
	it := &iterator{
		seen: make(map[*html.Node]bool),
		comp: aria.NewComputation(tree),
		tree: tree,
	}
	if root != nil {
		it.stack = []*html.Node{root}
	}
	return it
}

// next produces the next visitable element in pre-order document order,
// or nil at the end. Hidden elements are pruned with their whole subtree.
// The seen set guards against structural cycles.
func (it *iterator) next() *html.Node {
	for len(it.stack) > 0 {
		n := it.stack[len(it.stack)-1]
		it.stack = it.stack[:len(it.stack)-1]

		if it.seen[n] {
			continue
		}
		it.seen[n] = true

		if n.Type == html.ElementNode && it.comp.Hidden(n) {
			continue
		}

		it.push(it.contentOf(n))

		if n.Type == html.ElementNode {
			return n
		}
	}
	return nil
}

// contentOf selects the traversable content of n: redistributed slot
// content first, then a registered detached root, then ordinary children.
func (it *iterator) contentOf(n *html.Node) []*html.Node {
	if n.Type == html.ElementNode {
		if n.DataAtom == atom.Slot {
			if assigned := it.tree.AssignedNodes(n); len(assigned) > 0 {
				return assigned
			}
		}
		if root, ok := it.tree.ShadowRoot(n); ok {
			return []*html.Node{root}
		}
	}
	var kids []*html.Node
	for ch := n.FirstChild; ch != nil; ch = ch.NextSibling {
		kids = append(kids, ch)
	}
	return kids
}

// push schedules nodes so they pop in document order.
func (it *iterator) push(nodes []*html.Node) {
	for i := len(nodes) - 1; i >= 0; i-- {
		it.stack = append(it.stack, nodes[i])
	}
}
