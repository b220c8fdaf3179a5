package aria

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Text extracts the rendered text of n the way an accessibility tree
// flattens it: hidden subtrees contribute nothing, redistributed content
// replaces a slot's default children, a detached root replaces its host's
// children, and attribute-named elements (images, button inputs)
// contribute their attribute text instead of recursing.
func (c *Computation) Text(n *html.Node) string {
	if n == nil {
		return ""
	}

	switch n.Type {
	case html.TextNode:
		return n.Data
	case html.ElementNode, html.DocumentNode:
	default:
		return ""
	}

	if n.Type == html.ElementNode {
		if c.Hidden(n) {
			return ""
		}
		switch n.DataAtom {
		case atom.Script, atom.Style, atom.Template, atom.Noscript:
			return ""
		}
		if alt := typeSpecificName(n); alt != "" {
			return alt
		}
		if n.DataAtom == atom.Img || n.DataAtom == atom.Area {
			return ""
		}
		if n.DataAtom == atom.Slot {
			if assigned := c.tree.AssignedNodes(n); len(assigned) > 0 {
				return c.joinText(assigned)
			}
		}
		if root, ok := c.tree.ShadowRoot(n); ok {
			return c.Text(root)
		}
	}

	var kids []*html.Node
	for ch := n.FirstChild; ch != nil; ch = ch.NextSibling {
		kids = append(kids, ch)
	}
	return c.joinText(kids)
}

// joinText extracts each node's text, normalizes each piece and joins the
// non-empty pieces with single spaces.
func (c *Computation) joinText(nodes []*html.Node) string {
	var parts []string
	for _, node := range nodes {
		if piece := normalize(c.Text(node)); piece != "" {
			parts = append(parts, piece)
		}
	}
	return strings.Join(parts, " ")
}
