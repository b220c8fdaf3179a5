package aria

import (
	"strings"
	"testing"

	"golang.org/x/net/html"
)

// fakeTree is a minimal Tree for tests that need overrides or shadow
// roots without pulling in the registry package.
type fakeTree struct {
	overrides map[*html.Node]Override
	roots     map[*html.Node]*html.Node
	hosts     map[*html.Node]*html.Node
	assigned  map[*html.Node][]*html.Node
}

func newFakeTree() *fakeTree {
	return &fakeTree{
		overrides: make(map[*html.Node]Override),
		roots:     make(map[*html.Node]*html.Node),
		hosts:     make(map[*html.Node]*html.Node),
		assigned:  make(map[*html.Node][]*html.Node),
	}
}

func (f *fakeTree) Override(n *html.Node) (Override, bool) {
	ov, ok := f.overrides[n]
	return ov, ok
}

func (f *fakeTree) ShadowRoot(host *html.Node) (*html.Node, bool) {
	root, ok := f.roots[host]
	return root, ok
}

func (f *fakeTree) Host(root *html.Node) (*html.Node, bool) {
	host, ok := f.hosts[root]
	return host, ok
}

func (f *fakeTree) AssignedNodes(slot *html.Node) []*html.Node {
	return f.assigned[slot]
}

func (f *fakeTree) attachRoot(host, root *html.Node) {
	f.roots[host] = root
	f.hosts[root] = host
}

func parse(t *testing.T, src string) *html.Node {
	t.Helper()
	doc, err := html.Parse(strings.NewReader(src))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return doc
}

// findTag returns the first element with the given tag name.
func findTag(t *testing.T, root *html.Node, tag string) *html.Node {
	t.Helper()
	n := findTagOrNil(root, tag)
	if n == nil {
		t.Fatalf("no <%s> in fixture", tag)
	}
	return n
}

func findTagOrNil(root *html.Node, tag string) *html.Node {
	if root.Type == html.ElementNode && root.Data == tag {
		return root
	}
	for ch := root.FirstChild; ch != nil; ch = ch.NextSibling {
		if hit := findTagOrNil(ch, tag); hit != nil {
			return hit
		}
	}
	return nil
}

func findID(t *testing.T, root *html.Node, id string) *html.Node {
	t.Helper()
	n := byID(root, id)
	if n == nil {
		t.Fatalf("no element with id %q in fixture", id)
	}
	return n
}

func TestRole_ExplicitAttributeWins(t *testing.T) {
	doc := parse(t, `<div id="d" role="button">go</div><h2 role="banana">x</h2>`)

	if got := ComputeRole(findID(t, doc, "d"), nil); got != "button" {
		t.Errorf("div[role=button]: got %q", got)
	}
	// No vocabulary validation: any non-empty string wins over the tag.
	if got := ComputeRole(findTag(t, doc, "h2"), nil); got != "banana" {
		t.Errorf("h2[role=banana]: got %q", got)
	}
}

func TestRole_ImplicitTagTable(t *testing.T) {
	doc := parse(t, `<body>
		<h2>h</h2>
		<ul><li>i</li></ul>
		<a id="with" href="/x">l</a>
		<a id="without">n</a>
		<button>b</button>
		<input id="cb" type="checkbox">
		<input id="txt" type="text">
		<input id="bare">
		<input id="hid" type="hidden">
		<input id="num" type="number">
		<input id="rng" type="range">
		<select id="single"><option>o</option></select>
		<select id="multi" multiple></select>
		<textarea></textarea>
		<nav>n</nav><main>m</main><hr><img alt="pic">
		<table><tr><th>h</th><td>c</td></tr></table>
	</body>`)

	cases := []struct {
		node *html.Node
		want string
	}{
		{findTag(t, doc, "h2"), "heading"},
		{findTag(t, doc, "ul"), "list"},
		{findTag(t, doc, "li"), "listitem"},
		{findID(t, doc, "with"), "link"},
		{findID(t, doc, "without"), ""},
		{findTag(t, doc, "button"), "button"},
		{findID(t, doc, "cb"), "checkbox"},
		{findID(t, doc, "txt"), "textbox"},
		{findID(t, doc, "bare"), "textbox"},
		{findID(t, doc, "hid"), ""},
		{findID(t, doc, "num"), "spinbutton"},
		{findID(t, doc, "rng"), "slider"},
		{findID(t, doc, "single"), "combobox"},
		{findID(t, doc, "multi"), "listbox"},
		{findTag(t, doc, "textarea"), "textbox"},
		{findTag(t, doc, "nav"), "navigation"},
		{findTag(t, doc, "main"), "main"},
		{findTag(t, doc, "hr"), "separator"},
		{findTag(t, doc, "img"), "img"},
		{findTag(t, doc, "table"), "table"},
		{findTag(t, doc, "tr"), "row"},
		{findTag(t, doc, "th"), "columnheader"},
		{findTag(t, doc, "td"), "cell"},
	}
	for _, tc := range cases {
		if got := ComputeRole(tc.node, nil); got != tc.want {
			t.Errorf("%s: got %q, want %q", tc.node.Data, got, tc.want)
		}
	}
}

func TestRole_SectionRegionOnlyWhenNamed(t *testing.T) {
	doc := parse(t, `<body>
		<section id="named" aria-label="Billing">text</section>
		<section id="anon">just text, no label</section>
	</body>`)

	if got := ComputeRole(findID(t, doc, "named"), nil); got != "region" {
		t.Errorf("named section: got %q, want region", got)
	}
	// Content alone never promotes a section: name-from-content is
	// disabled for the region check.
	if got := ComputeRole(findID(t, doc, "anon"), nil); got != "generic" {
		t.Errorf("anonymous section: got %q, want generic", got)
	}
}

func TestRole_OverrideUsedWhenMarkupSilent(t *testing.T) {
	doc := parse(t, `<body><x-toggle id="t">on</x-toggle><x-toggle id="u" role="checkbox"></x-toggle></body>`)
	tree := newFakeTree()
	tree.overrides[findID(t, doc, "t")] = Override{Role: "switch"}
	tree.overrides[findID(t, doc, "u")] = Override{Role: "switch"}

	if got := ComputeRole(findID(t, doc, "t"), tree); got != "switch" {
		t.Errorf("override role: got %q, want switch", got)
	}
	// Explicit attribute still beats the override.
	if got := ComputeRole(findID(t, doc, "u"), tree); got != "checkbox" {
		t.Errorf("attribute vs override: got %q, want checkbox", got)
	}
}

func TestHidden_AllFlags(t *testing.T) {
	doc := parse(t, `<body>
		<div id="h1x" hidden>a</div>
		<div id="h2x" aria-hidden="true">b</div>
		<div id="h3x" style="display:none">c</div>
		<div id="h4x" style="visibility: hidden">d</div>
		<div id="h5x" inert>e</div>
		<div id="h6x" data-axdom-hidden="">g</div>
		<div id="vis" aria-hidden="false" style="display:block">f</div>
	</body>`)

	for _, id := range []string{"h1x", "h2x", "h3x", "h4x", "h5x", "h6x"} {
		if !IsHidden(findID(t, doc, id), nil) {
			t.Errorf("%s should be hidden", id)
		}
	}
	if IsHidden(findID(t, doc, "vis"), nil) {
		t.Error("vis should not be hidden")
	}
}

func TestHidden_AncestorPropagates(t *testing.T) {
	doc := parse(t, `<div hidden><p><span id="deep" style="display:block">x</span></p></div>`)
	if !IsHidden(findID(t, doc, "deep"), nil) {
		t.Error("descendant of hidden ancestor should be hidden")
	}
}

func TestHidden_CrossesShadowBoundary(t *testing.T) {
	doc := parse(t, `<body><div id="host" hidden></div></body>`)
	shadow := parse(t, `<body><button id="inner">Hi</button></body>`)
	root := findTag(t, shadow, "body")
	root.Parent.RemoveChild(root)

	tree := newFakeTree()
	tree.attachRoot(findID(t, doc, "host"), root)

	if !IsHidden(byID(root, "inner"), tree) {
		t.Error("shadow content under hidden host should be hidden")
	}
}

func TestText_ShadowRootReplacesChildren(t *testing.T) {
	doc := parse(t, `<body><div id="host">light fallback</div></body>`)
	shadow := parse(t, `<body><p>shadow content</p></body>`)
	root := findTag(t, shadow, "body")
	root.Parent.RemoveChild(root)

	tree := newFakeTree()
	tree.attachRoot(findID(t, doc, "host"), root)

	comp := NewComputation(tree)
	if got := comp.Text(findID(t, doc, "host")); got != "shadow content" {
		t.Errorf("host text: got %q, want %q", got, "shadow content")
	}
}

func TestText_AssignedSlotContentWins(t *testing.T) {
	doc := parse(t, `<body><slot id="s">default text</slot><span id="a">assigned</span></body>`)
	slot := findID(t, doc, "s")

	tree := newFakeTree()
	tree.assigned[slot] = []*html.Node{findID(t, doc, "a")}

	comp := NewComputation(tree)
	if got := comp.Text(slot); got != "assigned" {
		t.Errorf("slot text: got %q, want %q", got, "assigned")
	}
}

func TestText_NormalizesAndSkipsHidden(t *testing.T) {
	doc := parse(t, `<div id="d">  one
		two  <span style="display:none">never</span> <b>three</b></div>`)
	comp := NewComputation(nil)
	if got := comp.Text(findID(t, doc, "d")); got != "one two three" {
		t.Errorf("text: got %q, want %q", got, "one two three")
	}
}
