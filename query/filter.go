// Package query finds elements in an HTML tree by their computed ARIA
// role and accessible name, the way an assistive-technology user would
// perceive them. Traversal respects encapsulation: registered shadow
// roots replace a host's children, redistributed slot content replaces a
// slot's default children, and hidden subtrees are pruned outright.
package query

import (
	"encoding/json"
	"fmt"
	"strings"
)

// EngineName is the selector-engine prefix understood by ParseSelector.
const EngineName = "role"

// Filter is the query payload. Role is mandatory: a filter without a role
// matches nothing (not an error). Name and Description are optional;
// their pointers distinguish "no filter" from "filter on empty string".
type Filter struct {
	Role        string  `json:"role"`
	Name        *string `json:"name,omitempty"`
	Exact       bool    `json:"exact,omitempty"`
	Description *string `json:"description,omitempty"`
}

// ParseSelector parses a selector of the form "role=<json>" or a bare
// JSON filter object. Malformed JSON is a fatal parse failure for the
// caller; there is no local recovery.
func ParseSelector(selector string) (Filter, error) {
	payload := selector
	if rest, ok := strings.CutPrefix(selector, EngineName+"="); ok {
		payload = rest
	}
	var f Filter
	if err := json.Unmarshal([]byte(payload), &f); err != nil {
		return Filter{}, fmt.Errorf("query: parse selector %q: %w", selector, err)
	}
	return f, nil
}

// matchText applies the exact flag: case-sensitive whole-string equality,
// or case-insensitive substring containment.
func matchText(computed, want string, exact bool) bool {
	if exact {
		return computed == want
	}
	return strings.Contains(strings.ToLower(computed), strings.ToLower(want))
}
