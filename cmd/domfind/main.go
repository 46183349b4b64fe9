// CLAUDE:SUMMARY CLI entry point for domfind: one-shot element lookup, MCP stdio server and HTTP server modes.
// Command domfind locates elements in web pages.
//
// Usage:
//
//	domfind -url https://example.com -text "Sign in"       # one-shot lookup, JSON on stdout
//	domfind -url https://example.com -css "form button"
//	domfind -url https://example.com -xpath "//h1"
//	domfind -mcp                                            # MCP server on stdio
//	domfind -http :8080                                     # POST /locate
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hazyhaar/domfind/locate"
)

var version = "dev"

func main() {
	configPath := flag.String("config", "", "path to domfind.yaml config file")
	pageURL := flag.String("url", "", "page to search")
	text := flag.String("text", "", "find elements by visible text")
	css := flag.String("css", "", "find elements by CSS selector")
	xpath := flag.String("xpath", "", "find elements by XPath")
	exact := flag.Bool("exact", false, "text: exact matches only")
	tag := flag.String("tag", "", "text: restrict to this tag name")
	hidden := flag.Bool("hidden", false, "include elements that are not visible")
	require := flag.Bool("require", false, "exit non-zero when nothing matches")
	backend := flag.String("backend", "", "auto, http, rod or cdp (default from config)")
	timeout := flag.Duration("timeout", 0, "retry timeout (default from config)")
	interval := flag.Duration("interval", 0, "retry interval (default from config)")
	mcpMode := flag.Bool("mcp", false, "serve the domfind_locate tool over MCP stdio")
	httpAddr := flag.String("http", "", "serve POST /locate on this address")
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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := locate.DefaultConfig()
	if *configPath != "" {
		var err error
		if cfg, err = locate.LoadConfigFile(*configPath); err != nil {
			logger.Error("domfind: load config", "error", err)
			os.Exit(1)
		}
	}

	svc, err := locate.NewService(cfg, logger)
	if err != nil {
		logger.Error("domfind: fatal", "error", err)
		os.Exit(1)
	}
	defer svc.Close()

	switch {
	case *mcpMode:
		err = runMCP(ctx, svc)
	case *httpAddr != "":
		err = runHTTP(ctx, logger, svc, *httpAddr)
	case *pageURL != "":
		req := locate.Request{
			URL:           *pageURL,
			Exact:         *exact,
			Tag:           *tag,
			IncludeHidden: *hidden,
			Require:       *require,
			Backend:       *backend,
			Interval:      locate.Duration(*interval),
			Timeout:       locate.Duration(*timeout),
		}
		switch {
		case *css != "":
			req.Mode, req.Query = locate.ModeCSS, *css
		case *xpath != "":
			req.Mode, req.Query = locate.ModeXPath, *xpath
		default:
			req.Mode, req.Query = locate.ModeText, *text
		}
		err = runOnce(ctx, svc, req)
	default:
		fmt.Fprintln(os.Stderr, "usage: domfind -url <url> (-text|-css|-xpath) <query> | -mcp | -http <addr>")
		os.Exit(2)
	}

	if err != nil {
		var nf *locate.ElementNotFoundError
		if errors.As(err, &nf) {
			fmt.Fprintln(os.Stderr, err)
			svc.Close()
			os.Exit(3)
		}
		logger.Error("domfind: fatal", "error", err)
		svc.Close()
		os.Exit(1)
	}
}

func runOnce(ctx context.Context, svc *locate.Service, req locate.Request) error {
	resp, err := svc.Locate(ctx, req)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(resp)
}

func runMCP(ctx context.Context, svc *locate.Service) error {
	srv := mcp.NewServer(&mcp.Implementation{Name: "domfind", Version: version}, nil)
	svc.RegisterMCP(srv)
	return srv.Run(ctx, &mcp.StdioTransport{})
}

func runHTTP(ctx context.Context, logger *slog.Logger, svc *locate.Service, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           svc.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      5 * time.Minute,
		IdleTimeout:       60 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logger.Info("domfind: http listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	logger.Info("domfind: shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
