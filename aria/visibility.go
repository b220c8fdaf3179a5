package aria

import (
	"regexp"

	"golang.org/x/net/html"
)

var hiddenStylePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)display\s*:\s*none`),
	regexp.MustCompile(`(?i)visibility\s*:\s*hidden`),
}

// Hidden reports whether n is excluded from the accessibility tree.
// Hiding is monotone down the ancestor chain: any hidden ancestor hides
// the whole subtree, whatever the element's own styling says. The walk
// crosses shadow boundaries through the host element.
func (c *Computation) Hidden(n *html.Node) bool {
	for cur := n; cur != nil; cur = c.parentOf(cur) {
		if cur.Type != html.ElementNode {
			continue
		}
		switch c.hidden[cur] {
		case 1:
			return true
		case 2:
			continue
		}
		if selfHidden(cur) {
			c.hidden[cur] = 1
			return true
		}
		c.hidden[cur] = 2
	}
	return false
}

// HiddenAttr marks an element whose computed style resolved to
// display:none or visibility:hidden when the document was captured from
// a live page. Stylesheet rules are not resolvable from markup alone, so
// the capture records their outcome as an attribute.
const HiddenAttr = "data-axdom-hidden"

// selfHidden checks the element's own flags, resolved inline style, and
// the capture-time computed-style mark, ignoring ancestors.
func selfHidden(n *html.Node) bool {
	if _, ok := attr(n, "hidden"); ok {
		return true
	}
	if _, ok := attr(n, HiddenAttr); ok {
		return true
	}
	if v, ok := attr(n, "aria-hidden"); ok && v == "true" {
		return true
	}
	if _, ok := attr(n, "inert"); ok {
		return true
	}
	if style, ok := attr(n, "style"); ok {
		for _, pat := range hiddenStylePatterns {
			if pat.MatchString(style) {
				return true
			}
		}
	}
	return false
}
