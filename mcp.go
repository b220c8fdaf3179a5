package axdom

import (
	"context"
	"encoding/json"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hazyhaar/axdom/kit"
)

// RegisterMCP registers the axdom tools on an MCP server.
func (s *Service) RegisterMCP(srv *mcp.Server) {
	s.registerQueryTool(srv)
	s.registerQueryURLTool(srv)
	s.registerSnapshotsTool(srv)
}

func inputSchema(properties map[string]any, required []string) map[string]any {
	schema := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

// --- query ---

type queryReq struct {
	HTML       string `json:"html,omitempty"`
	SnapshotID string `json:"snapshot_id,omitempty"`
	Selector   string `json:"selector"`
	All        bool   `json:"all,omitempty"`
}

func (s *Service) registerQueryTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name: "axdom_query",
		Description: "Query HTML (inline or an archived snapshot) by accessible role and name. " +
			`Selector syntax: role={"role":"button","name":"Submit"} or css=nav a.`,
		InputSchema: inputSchema(map[string]any{
			"html":        map[string]any{"type": "string", "description": "Inline HTML to query"},
			"snapshot_id": map[string]any{"type": "string", "description": "Archived snapshot to query instead of inline HTML"},
			"selector":    map[string]any{"type": "string", "description": "role= or css= selector"},
			"all":         map[string]any{"type": "boolean", "description": "Return every match instead of the first"},
		}, []string{"selector"}),
	}

	endpoint := func(ctx context.Context, req any) (any, error) {
		r := req.(*queryReq)
		ctx = kit.WithTransport(ctx, "mcp")
		if r.SnapshotID != "" {
			return s.QueryStored(ctx, r.SnapshotID, r.Selector, r.All)
		}
		return s.QueryHTML(ctx, r.HTML, r.Selector, r.All)
	}

	decode := func(req *mcp.CallToolRequest) (any, error) {
		var r queryReq
		if err := json.Unmarshal(req.Params.Arguments, &r); err != nil {
			return nil, err
		}
		return &r, nil
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decode)
}

// --- query_url ---

type queryURLReq struct {
	URL      string `json:"url"`
	Selector string `json:"selector"`
	All      bool   `json:"all,omitempty"`
}

func (s *Service) registerQueryURLTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "axdom_query_url",
		Description: "Capture a live page (shadow DOM included), archive the snapshot, and query it by role and accessible name.",
		InputSchema: inputSchema(map[string]any{
			"url":      map[string]any{"type": "string", "description": "Page URL to capture"},
			"selector": map[string]any{"type": "string", "description": "role= or css= selector"},
			"all":      map[string]any{"type": "boolean", "description": "Return every match instead of the first"},
		}, []string{"url", "selector"}),
	}

	endpoint := func(ctx context.Context, req any) (any, error) {
		r := req.(*queryURLReq)
		return s.QueryURL(kit.WithTransport(ctx, "mcp"), r.URL, r.Selector, r.All)
	}

	decode := func(req *mcp.CallToolRequest) (any, error) {
		var r queryURLReq
		if err := json.Unmarshal(req.Params.Arguments, &r); err != nil {
			return nil, err
		}
		return &r, nil
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decode)
}

// --- snapshots ---

type snapshotsReq struct {
	Limit int `json:"limit,omitempty"`
}

func (s *Service) registerSnapshotsTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "axdom_snapshots",
		Description: "List archived page snapshots, newest first.",
		InputSchema: inputSchema(map[string]any{
			"limit": map[string]any{"type": "integer", "description": "Maximum entries to return (default 20)"},
		}, nil),
	}

	endpoint := func(ctx context.Context, req any) (any, error) {
		r := req.(*snapshotsReq)
		limit := r.Limit
		if limit <= 0 {
			limit = 20
		}
		snaps, err := s.Snapshots(kit.WithTransport(ctx, "mcp"), limit)
		if err != nil {
			return nil, err
		}
		return map[string]any{"snapshots": snaps}, nil
	}

	decode := func(req *mcp.CallToolRequest) (any, error) {
		var r snapshotsReq
		if len(req.Params.Arguments) > 0 {
			if err := json.Unmarshal(req.Params.Arguments, &r); err != nil {
				return nil, err
			}
		}
		return &r, nil
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decode)
}
