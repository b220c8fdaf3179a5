// Package kit carries the small cross-cutting helpers the axdom service
// surfaces share: MCP tool registration and request-scoped context keys.
package kit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Endpoint is a transport-agnostic operation: typed request in, typed
// response out. The same endpoint backs MCP tools, connectivity handlers
// and HTTP handlers.
type Endpoint func(ctx context.Context, req any) (any, error)

// RegisterMCPTool registers an Endpoint as an MCP tool on srv. The decode
// function extracts the typed request from the raw tool arguments; decode
// failures surface as tool errors, not transport errors.
func RegisterMCPTool(srv *mcp.Server, tool *mcp.Tool, endpoint Endpoint, decode func(*mcp.CallToolRequest) (any, error)) {
	srv.AddTool(tool, func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		decoded, err := decode(req)
		if err != nil {
			var res mcp.CallToolResult
			res.SetError(fmt.Errorf("invalid arguments: %w", err))
			return &res, nil
		}

		resp, err := endpoint(ctx, decoded)
		if err != nil {
			var res mcp.CallToolResult
			res.SetError(errors.New(err.Error()))
			return &res, nil
		}

		data, err := json.Marshal(resp)
		if err != nil {
			var res mcp.CallToolResult
			res.SetError(fmt.Errorf("marshal: %w", err))
			return &res, nil
		}
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: string(data)}},
		}, nil
	})
}

type contextKey string

const (
	// RequestIDKey carries the per-call request ID across transports.
	RequestIDKey contextKey = "axdom_request_id"
	// TransportKey records which surface the call arrived on: "http",
	// "mcp", or "local".
	TransportKey contextKey = "axdom_transport"
)

// WithRequestID attaches a request ID to ctx.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, RequestIDKey, id)
}

// RequestID returns the request ID attached to ctx, or "".
func RequestID(ctx context.Context) string {
	v, _ := ctx.Value(RequestIDKey).(string)
	return v
}

// WithTransport marks which surface the call arrived on.
func WithTransport(ctx context.Context, t string) context.Context {
	return context.WithValue(ctx, TransportKey, t)
}

// Transport returns the transport recorded in ctx, defaulting to "local".
func Transport(ctx context.Context) string {
	if v, ok := ctx.Value(TransportKey).(string); ok {
		return v
	}
	return "local"
}
