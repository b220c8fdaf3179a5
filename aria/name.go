package aria

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Name resolves the accessible name of n. The result is whitespace
// normalized; "" means the element has no accessible name.
func (c *Computation) Name(n *html.Node) string {
	return c.name(n, true)
}

// name runs the fallback chain. allowContent gates the name-from-content
// and visible-text fallback steps; it is forced on for elements referenced
// from a labelling cross-reference list.
//
// Memoized per (node, allowContent). The visiting set breaks reference
// cycles: a cyclic participant resolves to "" rather than recursing.
func (c *Computation) name(n *html.Node, allowContent bool) string {
	if n == nil || n.Type != html.ElementNode {
		return ""
	}
	key := nameKey{n: n, allowContent: allowContent}
	if cached, ok := c.names[key]; ok {
		return cached
	}
	if c.visiting[n] {
		return ""
	}
	c.visiting[n] = true
	got := c.nameUncached(n, allowContent)
	delete(c.visiting, n)
	c.names[key] = got
	return got
}

func (c *Computation) nameUncached(n *html.Node, allowContent bool) string {
	ov, hasOv := c.tree.Override(n)

	// 1. Cross-reference list: override label refs, else aria-labelledby.
	var refs []*html.Node
	if hasOv && len(ov.LabelRefs) > 0 {
		refs = ov.LabelRefs
	} else if ids, ok := attr(n, "aria-labelledby"); ok {
		for _, id := range strings.Fields(ids) {
			if ref := byID(n, id); ref != nil {
				refs = append(refs, ref)
			}
			// Unresolvable references are skipped, never fatal.
		}
	}
	if len(refs) > 0 {
		var parts []string
		for _, ref := range refs {
			if part := c.name(ref, true); part != "" {
				parts = append(parts, part)
			}
		}
		if joined := normalize(strings.Join(parts, " ")); joined != "" {
			return joined
		}
	}

	// 2. Explicit label string.
	if hasOv && ov.Label != "" {
		if label := normalize(ov.Label); label != "" {
			return label
		}
	}
	if label, ok := attr(n, "aria-label"); ok {
		if label = normalize(label); label != "" {
			return label
		}
	}

	// 3. Native label association.
	if label := c.nativeLabel(n); label != "" {
		return label
	}

	// 4. Type-specific attribute fallback.
	if alt := typeSpecificName(n); alt != "" {
		return alt
	}

	// 5. title attribute.
	if title := normalize(attrVal(n, "title")); title != "" {
		return title
	}

	if !allowContent {
		return ""
	}

	// 6. Name from content, for roles where descendant text labels the
	// element.
	if rolesNamedFromContent[c.Role(n)] {
		if text := normalize(c.Text(n)); text != "" {
			return text
		}
	}

	// 7. Visible-text fallback.
	return normalize(c.Text(n))
}

// labelable reports whether a <label> can be associated with n.
func labelable(n *html.Node) bool {
	switch n.DataAtom {
	case atom.Input, atom.Select, atom.Textarea, atom.Button,
		atom.Meter, atom.Output, atom.Progress:
		return true
	}
	return false
}

// nativeLabel resolves <label for=id> associations and wrapping <label>
// elements for form controls. All matching labels contribute, joined and
// normalized.
func (c *Computation) nativeLabel(n *html.Node) string {
	if !labelable(n) {
		return ""
	}

	var parts []string

	if id := attrVal(n, "id"); id != "" {
		var find func(*html.Node)
		find = func(node *html.Node) {
			if node.Type == html.ElementNode && node.DataAtom == atom.Label &&
				attrVal(node, "for") == id {
				if text := normalize(c.Text(node)); text != "" {
					parts = append(parts, text)
				}
			}
			for ch := node.FirstChild; ch != nil; ch = ch.NextSibling {
				find(ch)
			}
		}
		find(treeRoot(n))
	}

	// A label that structurally wraps the control also labels it, unless
	// it already matched through its for attribute.
	id := attrVal(n, "id")
	for p := n.Parent; p != nil; p = p.Parent {
		if p.Type == html.ElementNode && p.DataAtom == atom.Label {
			if id != "" && attrVal(p, "for") == id {
				continue
			}
			if text := normalize(c.Text(p)); text != "" {
				parts = append(parts, text)
			}
		}
	}

	return normalize(strings.Join(parts, " "))
}

// typeSpecificName handles elements whose name lives in an attribute
// rather than their content: image alt text and button-like input values.
func typeSpecificName(n *html.Node) string {
	switch n.DataAtom {
	case atom.Img, atom.Area:
		return normalize(attrVal(n, "alt"))
	case atom.Input:
		switch attrVal(n, "type") {
		case "button", "submit", "reset":
			return normalize(attrVal(n, "value"))
		case "image":
			return normalize(attrVal(n, "alt"))
		}
	}
	return ""
}

// Description resolves the accessible description of n: aria-describedby
// references first, then the title attribute when it did not already
// supply the name.
func (c *Computation) Description(n *html.Node) string {
	if n == nil || n.Type != html.ElementNode {
		return ""
	}
	if ids, ok := attr(n, "aria-describedby"); ok {
		var parts []string
		for _, id := range strings.Fields(ids) {
			if ref := byID(n, id); ref != nil {
				if part := c.name(ref, true); part != "" {
					parts = append(parts, part)
				}
			}
		}
		if joined := normalize(strings.Join(parts, " ")); joined != "" {
			return joined
		}
	}
	if title := normalize(attrVal(n, "title")); title != "" && title != c.Name(n) {
		return title
	}
	return ""
}
