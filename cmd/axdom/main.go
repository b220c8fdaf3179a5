// Command axdom resolves role and accessible-name queries against web
// pages, shadow DOM included.
//
// Usage:
//
//	axdom -html page.html -selector 'role={"role":"button","name":"Save"}'
//	axdom -url https://example.com -selector 'role={"role":"link"}' -all
//	axdom -serve -config axdom.yaml     # HTTP API + connectivity router
//	axdom -mcp                          # MCP over stdio
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	_ "modernc.org/sqlite"

	"github.com/hazyhaar/axdom"
	"github.com/hazyhaar/axdom/connectivity"
	"github.com/hazyhaar/axdom/dbopen"
	"github.com/hazyhaar/axdom/webapi"
)

func main() {
	configPath := flag.String("config", "", "path to axdom.yaml config file")
	htmlPath := flag.String("html", "", "query a local HTML file ('-' for stdin)")
	pageURL := flag.String("url", "", "capture and query a live page")
	selector := flag.String("selector", "", `role= or css= selector`)
	all := flag.Bool("all", false, "print every match instead of the first")
	serve := flag.Bool("serve", false, "run the HTTP API and connectivity router")
	mcpStdio := flag.Bool("mcp", false, "serve MCP over stdio")
	dbPath := flag.String("db", "", "SQLite snapshot archive (overrides config)")
	addr := flag.String("addr", "", "HTTP listen address (overrides config)")
	logLevel := flag.String("log-level", "info", "log level: debug, info, warn, error")
	flag.Parse()

	var level slog.Level
	switch *logLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := axdom.Config{Logger: logger}
	if *configPath != "" {
		loaded, err := axdom.LoadConfig(*configPath)
		if err != nil {
			logger.Error("axdom: config", "error", err)
			os.Exit(1)
		}
		cfg = *loaded
		cfg.Logger = logger
	}
	if *dbPath != "" {
		cfg.DBPath = *dbPath
	}
	if *addr != "" {
		cfg.HTTPAddr = *addr
	}

	if err := run(ctx, logger, cfg, *htmlPath, *pageURL, *selector, *all, *serve, *mcpStdio); err != nil {
		logger.Error("axdom: fatal", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *slog.Logger, cfg axdom.Config, htmlPath, pageURL, selector string, all, serve, mcpStdio bool) error {
	svc, err := axdom.New(cfg)
	if err != nil {
		return err
	}
	defer svc.Close()

	switch {
	case serve:
		return runServe(ctx, logger, cfg, svc)
	case mcpStdio:
		return runMCP(ctx, svc)
	case pageURL != "":
		if selector == "" {
			return fmt.Errorf("-selector is required with -url")
		}
		res, err := svc.QueryURL(ctx, pageURL, selector, all)
		if err != nil {
			return err
		}
		return printResult(res)
	case htmlPath != "":
		if selector == "" {
			return fmt.Errorf("-selector is required with -html")
		}
		src, err := readSource(htmlPath)
		if err != nil {
			return err
		}
		res, err := svc.QueryHTML(ctx, src, selector, all)
		if err != nil {
			return err
		}
		return printResult(res)
	default:
		flag.Usage()
		return fmt.Errorf("nothing to do: pass -html, -url, -serve or -mcp")
	}
}

func runServe(ctx context.Context, logger *slog.Logger, cfg axdom.Config, svc *axdom.Service) error {
	if cfg.HTTPAddr == "" {
		cfg.HTTPAddr = ":8470"
	}

	// Connectivity router for inter-service calls. Routes hot-reload
	// from the archive DB when one is configured.
	router := connectivity.New(connectivity.WithLogger(logger))
	defer router.Close()
	svc.RegisterConnectivity(router)
	if cfg.DBPath != "" {
		routesDB, err := dbopen.Open(cfg.DBPath,
			dbopen.WithMkdirAll(),
			dbopen.WithSchema(connectivity.Schema))
		if err != nil {
			return fmt.Errorf("routes db: %w", err)
		}
		defer routesDB.Close()
		go router.Watch(ctx, routesDB, 5*time.Second)
	}

	api := webapi.New(svc, logger)
	server := &http.Server{Addr: cfg.HTTPAddr, Handler: api.Router()}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("axdom: http listening", "addr", cfg.HTTPAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		logger.Info("axdom: shutting down")
		return server.Shutdown(context.Background())
	}
}

func runMCP(ctx context.Context, svc *axdom.Service) error {
	srv := mcp.NewServer(&mcp.Implementation{Name: "axdom", Version: "0.1.0"}, nil)
	svc.RegisterMCP(srv)
	return srv.Run(ctx, &mcp.StdioTransport{})
}

func readSource(path string) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func printResult(res *axdom.QueryResult) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}
