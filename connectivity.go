package axdom

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hazyhaar/axdom/connectivity"
)

// RegisterConnectivity registers the axdom handlers on a connectivity
// Router for inter-service calls.
//
// Registered services:
//
//	axdom_query     — query inline HTML or an archived snapshot
//	axdom_query_url — capture a live page and query it
//	axdom_snapshots — list archived snapshots
func (s *Service) RegisterConnectivity(router *connectivity.Router) {
	router.RegisterLocal("axdom_query", s.handleQuery)
	router.RegisterLocal("axdom_query_url", s.handleQueryURL)
	router.RegisterLocal("axdom_snapshots", s.handleSnapshots)
}

func (s *Service) handleQuery(ctx context.Context, payload []byte) ([]byte, error) {
	var req queryReq
	if err := json.Unmarshal(payload, &req); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	var res *QueryResult
	var err error
	if req.SnapshotID != "" {
		res, err = s.QueryStored(ctx, req.SnapshotID, req.Selector, req.All)
	} else {
		res, err = s.QueryHTML(ctx, req.HTML, req.Selector, req.All)
	}
	if err != nil {
		return nil, err
	}
	return json.Marshal(res)
}

func (s *Service) handleQueryURL(ctx context.Context, payload []byte) ([]byte, error) {
	var req queryURLReq
	if err := json.Unmarshal(payload, &req); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	res, err := s.QueryURL(ctx, req.URL, req.Selector, req.All)
	if err != nil {
		return nil, err
	}
	return json.Marshal(res)
}

func (s *Service) handleSnapshots(ctx context.Context, payload []byte) ([]byte, error) {
	var req snapshotsReq
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &req); err != nil {
			return nil, fmt.Errorf("decode: %w", err)
		}
	}
	limit := req.Limit
	if limit <= 0 {
		limit = 20
	}
	snaps, err := s.Snapshots(ctx, limit)
	if err != nil {
		return nil, err
	}
	return json.Marshal(map[string]any{"snapshots": snaps})
}
