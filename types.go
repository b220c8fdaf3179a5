package axdom

// Match is one element matched by a query, described the way assistive
// technology would: computed role and accessible name, plus enough
// markup context to find the element again.
type Match struct {
	Role        string `json:"role"`
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
	Tag         string `json:"tag"`
	Text        string `json:"text,omitempty"`

	// Path is a readable element path from the document root, crossing
	// shadow boundaries with "::shadow".
	Path string `json:"path"`

	// Index is the live-page preorder index when the snapshot came from
	// a browser capture, -1 for plain HTML.
	Index int `json:"index"`
}

// QueryResult is the outcome of one query, including where it ran.
type QueryResult struct {
	SnapshotID string  `json:"snapshot_id,omitempty"`
	URL        string  `json:"url,omitempty"`
	Selector   string  `json:"selector"`
	Matches    []Match `json:"matches"`
}
