package aria

import (
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// implicitRoles maps tags whose role needs no further inspection.
// Tags with conditional roles (a, input, select, section) are dispatched
// in Role below.
var implicitRoles = map[atom.Atom]string{
	atom.Article:  "article",
	atom.Aside:    "complementary",
	atom.Button:   "button",
	atom.Dd:       "definition",
	atom.Dialog:   "dialog",
	atom.Dt:       "term",
	atom.Fieldset: "group",
	atom.Footer:   "contentinfo",
	atom.Form:     "form",
	atom.H1:       "heading",
	atom.H2:       "heading",
	atom.H3:       "heading",
	atom.H4:       "heading",
	atom.H5:       "heading",
	atom.H6:       "heading",
	atom.Header:   "banner",
	atom.Hr:       "separator",
	atom.Img:      "img",
	atom.Li:       "listitem",
	atom.Main:     "main",
	atom.Menu:     "list",
	atom.Nav:      "navigation",
	atom.Ol:       "list",
	atom.Option:   "option",
	atom.Output:   "status",
	atom.Progress: "progressbar",
	atom.Summary:  "button",
	atom.Table:    "table",
	atom.Td:       "cell",
	atom.Textarea: "textbox",
	atom.Th:       "columnheader",
	atom.Tr:       "row",
	atom.Ul:       "list",
}

// inputRoles dispatches <input> by its type attribute.
var inputRoles = map[string]string{
	"button":   "button",
	"checkbox": "checkbox",
	"email":    "textbox",
	"image":    "button",
	"number":   "spinbutton",
	"radio":    "radio",
	"range":    "slider",
	"reset":    "button",
	"search":   "searchbox",
	"submit":   "button",
	"tel":      "textbox",
	"text":     "textbox",
	"url":      "textbox",
}

// Role resolves the effective role of n: explicit role attribute first,
// then the implicit tag mapping, then a programmatic override, else "".
// An explicit attribute wins verbatim — no vocabulary validation.
func (c *Computation) Role(n *html.Node) string {
	if n == nil || n.Type != html.ElementNode {
		return ""
	}
	if r, ok := attr(n, "role"); ok && r != "" {
		return r
	}
	if r := c.implicitRole(n); r != "" {
		return r
	}
	if ov, ok := c.tree.Override(n); ok && ov.Role != "" {
		return ov.Role
	}
	return ""
}

func (c *Computation) implicitRole(n *html.Node) string {
	switch n.DataAtom {
	case atom.A:
		if _, ok := attr(n, "href"); ok {
			return "link"
		}
		return ""
	case atom.Input:
		typ := attrVal(n, "type")
		if typ == "" {
			return "textbox"
		}
		return inputRoles[typ] // "" for hidden and unknown types
	case atom.Select:
		if _, multiple := attr(n, "multiple"); multiple {
			return "listbox"
		}
		return "combobox"
	case atom.Section:
		// A section is a region only when it resolves a non-empty name
		// with name-from-content disabled; otherwise it is generic.
		if c.name(n, false) != "" {
			return "region"
		}
		return "generic"
	}
	return implicitRoles[n.DataAtom]
}

// rolesNamedFromContent are the roles whose accessible name may be taken
// from descendant text when no explicit labelling applies.
var rolesNamedFromContent = map[string]bool{
	"button":           true,
	"cell":             true,
	"checkbox":         true,
	"columnheader":     true,
	"definition":       true,
	"group":            true,
	"heading":          true,
	"link":             true,
	"listitem":         true,
	"menuitem":         true,
	"menuitemcheckbox": true,
	"menuitemradio":    true,
	"option":           true,
	"radio":            true,
	"region":           true,
	"row":              true,
	"rowheader":        true,
	"switch":           true,
	"tab":              true,
	"term":             true,
	"toolbar":          true,
	"tooltip":          true,
	"treeitem":         true,
}
