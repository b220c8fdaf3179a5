// Package connectivity provides a service router that dispatches axdom
// calls either locally (in-memory function call) or remotely (HTTP),
// based on a SQLite routes table reloaded at runtime.
//
// You code as a monolith and split services out later by updating one SQL
// row; callers never know which side of the split they hit.
//
//	router := connectivity.New()
//	router.RegisterTransport("http", connectivity.HTTPFactory())
//	router.RegisterLocal("axdom_query", svc.HandleQuery)
//	go router.Watch(ctx, db, 200*time.Millisecond)
//
//	resp, err := router.Call(ctx, "axdom_query", payload)
package connectivity

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Handler is a transport-agnostic service function: bytes in, bytes out.
type Handler func(ctx context.Context, payload []byte) ([]byte, error)

// TransportFactory builds a Handler for a remote endpoint from the
// route's endpoint URL and per-route config JSON. The returned close
// function (may be nil) runs when the route is removed or replaced.
type TransportFactory func(endpoint string, config json.RawMessage) (handler Handler, close func(), err error)

type route struct {
	Service  string
	Strategy string
	Endpoint string
	Config   json.RawMessage
}

func (rt route) fingerprint() string {
	return rt.Strategy + "|" + rt.Endpoint + "|" + string(rt.Config)
}

type remoteEntry struct {
	handler Handler
	close   func()
}

// Router dispatches service calls. Reads take an RLock; reloads take the
// full lock.
type Router struct {
	mu      sync.RWMutex
	local   map[string]Handler
	remote  map[string]remoteEntry
	routes  map[string]route
	factory map[string]TransportFactory
	logger  *slog.Logger
}

// Option configures a Router.
type Option func(*Router)

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Router) { r.logger = l }
}

// New creates a Router with no routes.
func New(opts ...Option) *Router {
	r := &Router{
		local:   make(map[string]Handler),
		remote:  make(map[string]remoteEntry),
		routes:  make(map[string]route),
		factory: make(map[string]TransportFactory),
		logger:  slog.Default(),
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// RegisterLocal registers an in-memory handler for a service.
func (r *Router) RegisterLocal(service string, h Handler) {
	r.mu.Lock()
	r.local[service] = h
	r.mu.Unlock()
}

// RegisterTransport registers a factory for a transport strategy,
// consulted during Reload for routes using that strategy.
func (r *Router) RegisterTransport(strategy string, f TransportFactory) {
	r.mu.Lock()
	r.factory[strategy] = f
	r.mu.Unlock()
}

// Call dispatches a service call: noop route → silent success, remote
// route → its handler, else local handler, else ErrServiceNotFound.
func (r *Router) Call(ctx context.Context, service string, payload []byte) ([]byte, error) {
	r.mu.RLock()
	entry, hasRemote := r.remote[service]
	localH := r.local[service]
	rt, hasRoute := r.routes[service]
	r.mu.RUnlock()

	if hasRoute && rt.Strategy == "noop" {
		return nil, nil
	}
	if hasRemote {
		r.logger.DebugContext(ctx, "routing remote",
			"service", service, "strategy", rt.Strategy, "endpoint", rt.Endpoint)
		return entry.handler(ctx, payload)
	}
	if localH != nil {
		return localH(ctx, payload)
	}
	return nil, &ErrServiceNotFound{Service: service}
}

// Reload reads the routes table and rebuilds the remote handler map.
// Unchanged routes keep their existing handlers and connections.
func (r *Router) Reload(ctx context.Context, db *sql.DB) error {
	rows, err := db.QueryContext(ctx,
		`SELECT service_name, strategy, COALESCE(endpoint, ''), COALESCE(config, '{}') FROM routes`)
	if err != nil {
		return fmt.Errorf("connectivity: query routes: %w", err)
	}
	defer rows.Close()

	loaded := make(map[string]route)
	for rows.Next() {
		var rt route
		var cfg string
		if err := rows.Scan(&rt.Service, &rt.Strategy, &rt.Endpoint, &cfg); err != nil {
			return fmt.Errorf("connectivity: scan route: %w", err)
		}
		rt.Config = json.RawMessage(cfg)
		loaded[rt.Service] = rt
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("connectivity: rows: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	rebuilt := make(map[string]remoteEntry, len(loaded))
	for name, rt := range loaded {
		if rt.Strategy == "local" || rt.Strategy == "noop" {
			continue
		}
		if old, ok := r.routes[name]; ok && old.fingerprint() == rt.fingerprint() {
			if existing, exists := r.remote[name]; exists {
				rebuilt[name] = existing
				continue
			}
		}
		factory, ok := r.factory[rt.Strategy]
		if !ok {
			r.logger.Warn("connectivity: no transport factory",
				"service", name, "strategy", rt.Strategy)
			continue
		}
		h, closeFn, err := factory(rt.Endpoint, rt.Config)
		if err != nil {
			r.logger.Error("connectivity: factory failed",
				"service", name, "strategy", rt.Strategy,
				"endpoint", rt.Endpoint, "error", err)
			continue
		}
		rebuilt[name] = remoteEntry{handler: h, close: closeFn}
		r.logger.Info("connectivity: route built",
			"service", name, "strategy", rt.Strategy, "endpoint", rt.Endpoint)
	}

	// Close entries that were removed or replaced.
	for name, old := range r.remote {
		if old.close == nil {
			continue
		}
		if _, still := rebuilt[name]; !still {
			old.close()
			continue
		}
		if r.routes[name].fingerprint() != loaded[name].fingerprint() {
			old.close()
		}
	}

	r.remote = rebuilt
	r.routes = loaded
	r.logger.Info("connectivity: routes reloaded",
		"total", len(loaded), "remote", len(rebuilt))
	return nil
}

// Watch polls PRAGMA data_version at the given interval and reloads when
// any write happened. Blocks until ctx is cancelled; run in a goroutine.
func (r *Router) Watch(ctx context.Context, db *sql.DB, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	if err := r.Reload(ctx, db); err != nil {
		r.logger.Error("connectivity: initial reload failed", "error", err)
	}
	var last int64
	db.QueryRow("PRAGMA data_version").Scan(&last)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			var ver int64
			if err := db.QueryRow("PRAGMA data_version").Scan(&ver); err != nil {
				r.logger.Warn("connectivity: data_version poll failed", "error", err)
				continue
			}
			if ver != last {
				if err := r.Reload(ctx, db); err != nil {
					r.logger.Error("connectivity: reload failed", "error", err)
				}
				last = ver
			}
		}
	}
}

// Close shuts down all remote handlers.
func (r *Router) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, entry := range r.remote {
		if entry.close != nil {
			entry.close()
		}
	}
	r.remote = make(map[string]remoteEntry)
	r.routes = make(map[string]route)
	return nil
}
