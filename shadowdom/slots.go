package shadowdom

import (
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// AssignedNodes implements aria.Tree. For a slot inside a registered
// shadow root it computes the host's light children redistributed into
// that slot: children whose slot attribute matches the slot's name, or
// for the unnamed slot, the children claiming no named slot. Nil means
// nothing is assigned and the slot renders its own default children.
func (r *Registry) AssignedNodes(slot *html.Node) []*html.Node {
	if slot == nil || slot.DataAtom != atom.Slot {
		return nil
	}

	host := r.hostOfShadowNode(slot)
	if host == nil {
		return nil
	}

	slotName := attrValue(slot, "name")
	var assigned []*html.Node
	for ch := host.FirstChild; ch != nil; ch = ch.NextSibling {
		switch ch.Type {
		case html.ElementNode:
			if attrValue(ch, "slot") == slotName {
				assigned = append(assigned, ch)
			}
		case html.TextNode:
			// Text children only ever land in the unnamed slot.
			if slotName == "" {
				assigned = append(assigned, ch)
			}
		}
	}
	return assigned
}

// hostOfShadowNode walks up from n to the root of its tree scope and
// returns the owning host if that root is a registered shadow root.
func (r *Registry) hostOfShadowNode(n *html.Node) *html.Node {
	for n.Parent != nil {
		n = n.Parent
	}
	host, ok := r.Host(n)
	if !ok {
		return nil
	}
	return host
}

func attrValue(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}
