// Command timewatch renders relative timestamps into HTML pages.
//
// Usage:
//
//	timewatch -file page.html                 # render a local file to stdout
//	timewatch -url https://example.com        # fetch and render once
//	timewatch -url https://example.com -live  # keep a browser tab rendered
//	timewatch -config timewatch.yaml          # observe every configured page
//	timewatch -serve :8086                    # HTTP API
//	timewatch -mcp                            # MCP tools over stdio
package main

import (
	"context"
	"errors"
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

	"github.com/hazyhaar/timewatch/dbopen"
	"github.com/hazyhaar/timewatch/domwatch"
	"github.com/hazyhaar/timewatch/idgen"
)

const version = "0.3.0"

type options struct {
	file     string
	url      string
	live     bool
	config   string
	db       string
	serve    string
	mcp      bool
	format   string
	locale   string
	tz       string
	selector string
}

func main() {
	var o options
	flag.StringVar(&o.file, "file", "", "render a local HTML file and print it")
	flag.StringVar(&o.url, "url", "", "fetch and render a URL")
	flag.BoolVar(&o.live, "live", false, "with -url, observe the page in a browser tab until interrupted")
	flag.StringVar(&o.config, "config", "", "path to timewatch.yaml")
	flag.StringVar(&o.db, "db", "", "SQLite database holding a watch_pages table")
	flag.StringVar(&o.serve, "serve", "", "serve the HTTP API on this address, e.g. :8086")
	flag.BoolVar(&o.mcp, "mcp", false, "serve MCP tools over stdio")
	flag.StringVar(&o.format, "format", "html", "output of -file and -url: html or markdown")
	flag.StringVar(&o.locale, "locale", "", "BCP 47 locale, overrides the configuration")
	flag.StringVar(&o.tz, "tz", "", "IANA time zone, overrides the configuration")
	flag.StringVar(&o.selector, "selector", "", "CSS selector of timestamp elements, overrides the configuration")
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

	if err := run(ctx, logger, o, os.Stdout); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprintln(os.Stderr, "usage: timewatch -file <path> | -url <url> [-live] | -config <file> | -db <path> | -serve <addr> | -mcp")
			os.Exit(2)
		}
		logger.Error("timewatch: fatal", "error", err)
		os.Exit(1)
	}
}

var errUsage = errors.New("nothing to do")

func run(ctx context.Context, logger *slog.Logger, o options, stdout io.Writer) error {
	cfg, err := loadConfig(ctx, o)
	if err != nil {
		return err
	}

	// One-shot renders print the document; sinks only receive batches when
	// configured.
	if o.file != "" || (o.url != "" && !o.live) {
		return renderOnce(ctx, logger, cfg, o, stdout)
	}

	daemon := o.url != "" || len(cfg.Pages) > 0
	if !daemon && o.serve == "" && !o.mcp {
		return errUsage
	}

	sinks, err := domwatch.SinksFromConfig(cfg.Sinks, logger)
	if err != nil {
		return err
	}
	if daemon && len(sinks) == 0 {
		sinks = append(sinks, domwatch.NewStdoutSink(stdout))
	}
	w, err := domwatch.New(cfg, logger, domwatch.WithSinks(sinks...))
	if err != nil {
		return err
	}
	defer w.Stop()

	if o.url != "" {
		pc := domwatch.PageConfig{ID: idgen.New(), URL: o.url, Mode: domwatch.ModeLive}
		if err := w.ObservePage(ctx, pc); err != nil {
			return fmt.Errorf("observe %s: %w", o.url, err)
		}
	}
	if err := w.Start(ctx); err != nil {
		return fmt.Errorf("start: %w", err)
	}

	errc := make(chan error, 2)
	if o.serve != "" {
		go func() { errc <- serveHTTP(ctx, logger, w, o.serve) }()
	}
	if o.mcp {
		go func() { errc <- serveMCP(ctx, w) }()
	}

	select {
	case <-ctx.Done():
		return nil
	case err := <-errc:
		return err
	}
}

func loadConfig(ctx context.Context, o options) (*domwatch.Config, error) {
	cfg := domwatch.DefaultConfig()
	if o.config != "" {
		var err error
		if cfg, err = domwatch.LoadConfigFile(o.config); err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
	}
	if o.db != "" {
		db, err := dbopen.Open(o.db, dbopen.WithReadOnly())
		if err != nil {
			return nil, fmt.Errorf("open pages db: %w", err)
		}
		pages, err := domwatch.LoadPages(ctx, db)
		db.Close()
		if err != nil {
			return nil, fmt.Errorf("load pages: %w", err)
		}
		cfg.Pages = append(cfg.Pages, pages...)
	}
	if o.locale != "" {
		cfg.Renderer.Locale = o.locale
	}
	if o.tz != "" {
		cfg.Renderer.Timezone = o.tz
	}
	if o.selector != "" {
		cfg.Renderer.Selector = o.selector
	}
	return cfg, nil
}

func renderOnce(ctx context.Context, logger *slog.Logger, cfg *domwatch.Config, o options, stdout io.Writer) error {
	sinks, err := domwatch.SinksFromConfig(cfg.Sinks, logger)
	if err != nil {
		return err
	}
	w, err := domwatch.New(cfg, logger, domwatch.WithSinks(sinks...))
	if err != nil {
		return err
	}
	defer w.Stop()

	// Batches are only emitted under a page ID, so sinks stay silent unless
	// the configuration declares some.
	var pageID string
	if len(sinks) > 0 {
		pageID = idgen.New()
	}

	var out *domwatch.RenderResult
	source := o.file
	if o.file != "" {
		data, err := os.ReadFile(o.file)
		if err != nil {
			return err
		}
		out, err = w.RenderHTML("", pageID, data)
		if err != nil {
			return err
		}
	} else {
		source = o.url
		if out, err = w.RenderURL(ctx, o.url, pageID); err != nil {
			return err
		}
	}
	logger.Info("timewatch: rendered", "source", source,
		"rendered", len(out.Report.Rendered), "malformed", out.Report.Malformed, "failed", out.Report.Failed)

	switch o.format {
	case "", "html":
		_, err = stdout.Write(out.HTML)
	case "markdown", "md":
		var md string
		if md, err = domwatch.ToMarkdown(out.HTML, o.url); err == nil {
			_, err = fmt.Fprintln(stdout, md)
		}
	default:
		err = fmt.Errorf("unknown format %q", o.format)
	}
	return err
}

func serveHTTP(ctx context.Context, logger *slog.Logger, w *domwatch.Watcher, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           newRouter(w, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("timewatch: shutdown", "error", err)
		}
	}()

	logger.Info("timewatch: http listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http: %w", err)
	}
	return nil
}

func serveMCP(ctx context.Context, w *domwatch.Watcher) error {
	srv := mcp.NewServer(&mcp.Implementation{Name: "timewatch", Version: version}, nil)
	w.RegisterMCP(srv)
	if err := srv.Run(ctx, &mcp.StdioTransport{}); err != nil && ctx.Err() == nil {
		return fmt.Errorf("mcp: %w", err)
	}
	return nil
}
