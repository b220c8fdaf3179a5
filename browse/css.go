package browse

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"

	"github.com/hazyhaar/axdom/aria"
)

// cssEngine matches a small CSS subset: compound simple selectors
// (tag, #id, .class, [attr], [attr=val]), the descendant combinator,
// and comma-separated selector lists. Traversal follows the same
// composed-content rules as role queries, so shadow content is
// reachable; matching itself only reads markup.
func cssEngine(scope *html.Node, payload string, tree aria.Tree) ([]*html.Node, error) {
	groups, err := parseSelectorList(payload)
	if err != nil {
		return nil, err
	}

	var out []*html.Node
	seen := make(map[*html.Node]bool)
	walkComposed(scope, tree, nil, func(n *html.Node, ancestors []*html.Node) {
		for _, chain := range groups {
			if matchesChain(n, ancestors, chain) {
				if !seen[n] {
					seen[n] = true
					out = append(out, n)
				}
				break
			}
		}
	})
	return out, nil
}

// simpleSelector is one compound step of a descendant chain.
type simpleSelector struct {
	tag     string
	id      string
	classes []string
	attrKey string
	attrVal string
	hasAttr bool
}

func parseSelectorList(src string) ([][]simpleSelector, error) {
	var groups [][]simpleSelector
	for _, part := range strings.Split(src, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			return nil, fmt.Errorf("browse: empty selector in %q", src)
		}
		var chain []simpleSelector
		for _, step := range strings.Fields(part) {
			sel, err := parseSimple(step)
			if err != nil {
				return nil, err
			}
			chain = append(chain, sel)
		}
		groups = append(groups, chain)
	}
	return groups, nil
}

func parseSimple(src string) (simpleSelector, error) {
	var sel simpleSelector
	rest := src
	for rest != "" {
		switch rest[0] {
		case '#':
			rest = rest[1:]
			end := tokenEnd(rest)
			if end == 0 {
				return sel, fmt.Errorf("browse: bad selector %q", src)
			}
			sel.id = rest[:end]
			rest = rest[end:]
		case '.':
			rest = rest[1:]
			end := tokenEnd(rest)
			if end == 0 {
				return sel, fmt.Errorf("browse: bad selector %q", src)
			}
			sel.classes = append(sel.classes, rest[:end])
			rest = rest[end:]
		case '[':
			end := strings.IndexByte(rest, ']')
			if end < 0 {
				return sel, fmt.Errorf("browse: unclosed attribute in %q", src)
			}
			body := rest[1:end]
			rest = rest[end+1:]
			if key, val, ok := strings.Cut(body, "="); ok {
				sel.attrKey = key
				sel.attrVal = strings.Trim(val, `"'`)
			} else {
				sel.attrKey = body
			}
			sel.hasAttr = true
			if sel.attrKey == "" {
				return sel, fmt.Errorf("browse: empty attribute name in %q", src)
			}
		default:
			end := tokenEnd(rest)
			if end == 0 {
				return sel, fmt.Errorf("browse: bad selector %q", src)
			}
			sel.tag = strings.ToLower(rest[:end])
			rest = rest[end:]
		}
	}
	return sel, nil
}

// tokenEnd finds the end of an identifier token.
func tokenEnd(s string) int {
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '#', '.', '[':
			return i
		}
	}
	return len(s)
}

func matchesSimple(n *html.Node, sel simpleSelector) bool {
	if n.Type != html.ElementNode {
		return false
	}
	if sel.tag != "" && sel.tag != "*" && n.Data != sel.tag {
		return false
	}
	if sel.id != "" && nodeAttr(n, "id") != sel.id {
		return false
	}
	for _, class := range sel.classes {
		if !hasClass(n, class) {
			return false
		}
	}
	if sel.hasAttr {
		found := false
		for _, a := range n.Attr {
			if a.Key == sel.attrKey {
				found = true
				if sel.attrVal != "" && a.Val != sel.attrVal {
					return false
				}
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func hasClass(n *html.Node, class string) bool {
	for _, c := range strings.Fields(nodeAttr(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}

// matchesChain requires n to match the last step and each earlier step
// to match some strictly closer-to-root ancestor, in order.
func matchesChain(n *html.Node, ancestors []*html.Node, chain []simpleSelector) bool {
	if len(chain) == 0 {
		return false
	}
	if !matchesSimple(n, chain[len(chain)-1]) {
		return false
	}
	need := chain[:len(chain)-1]
	ai := 0
	for _, sel := range need {
		matched := false
		for ; ai < len(ancestors); ai++ {
			if matchesSimple(ancestors[ai], sel) {
				ai++
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	return true
}

// walkComposed visits elements in pre-order following composed content:
// a host's shadow root replaces its children and slots yield their
// assigned nodes, mirroring role-query traversal.
func walkComposed(n *html.Node, tree aria.Tree, ancestors []*html.Node, visit func(*html.Node, []*html.Node)) {
	if n.Type == html.ElementNode {
		visit(n, ancestors)
		ancestors = append(ancestors, n)
	}
	if n.Type == html.ElementNode {
		if assigned := tree.AssignedNodes(n); len(assigned) > 0 {
			for _, a := range assigned {
				walkComposed(a, tree, ancestors, visit)
			}
			return
		}
		if root, ok := tree.ShadowRoot(n); ok {
			walkComposed(root, tree, ancestors, visit)
			return
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walkComposed(c, tree, ancestors, visit)
	}
}
