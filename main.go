package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"ytcomments/internal/browser"
	"ytcomments/internal/config"
	"ytcomments/internal/htmldriver"
	"ytcomments/internal/scraper"
	"ytcomments/internal/sink"
	"ytcomments/internal/sites/youtube"

	"github.com/spf13/cobra"
)

var version = "dev"

var (
	inputFile       string
	maxComments     int
	useProxy        bool
	outputFile      string
	outputFormat    string
	redisURL        string
	redisKey        string
	databaseURL     string
	site            string
	fromHTML        string
	scrollDelay     time.Duration
	navTimeout      time.Duration
	commentsTimeout time.Duration
	showUI          bool
	noSandbox       bool
	stealthMode     bool
	blockResources  []string
	canonicalURLs   bool
	logLevel        string
	logFormat       string
	browserBin      string
)

func main() {
	if err := config.LoadDotEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to load .env: %v\n", err)
	}
	cfg := config.Load()

	if err := newRootCmd(cfg).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(cfg *config.Config) *cobra.Command {
	var rootCmd = &cobra.Command{
		Use:     "ytcomments [VIDEO_URL...]",
		Short:   "Scrape video comments with a headless browser",
		Version: version,
		Long: `ytcomments opens each video page in a headless Chromium, scrolls the
comment section until no more comments load, and writes one record per
comment (videoUrl, username, timestamp, comment) to the chosen outputs.`,
		Example: `  # Scrape two videos, at most 100 comments each, to stdout as JSON lines
  ytcomments -n 100 "https://www.youtube.com/watch?v=abc" "https://www.youtube.com/watch?v=def"

  # Read an actor-style input file and write CSV
  ytcomments -i INPUT.json -o comments.csv

  # Also push every record to Redis and Postgres
  ytcomments -i input.yaml --redis-url redis://localhost:6379/0 --database-url postgres://localhost/comments

  # Check selectors against a page saved from the browser
  ytcomments --from-html saved.html "https://www.youtube.com/watch?v=abc"`,
		RunE:         run,
		SilenceUsage: true,
	}

	f := rootCmd.Flags()
	f.StringVarP(&inputFile, "input", "i", "", "Input file (YAML or JSON with videoUrls, maxComments, useProxy)")
	f.IntVarP(&maxComments, "max-comments", "n", 0, "Max comments per video (0 for no limit)")
	f.BoolVar(&useProxy, "use-proxy", true, "Use the proxy from YTC_PROXY_URL or APIFY_PROXY_URL")
	f.StringVarP(&outputFile, "output", "o", cfg.Output.Path, "Output file, appended to (default stdout)")
	f.StringVarP(&outputFormat, "format", "f", cfg.Output.Format, "Output format (jsonl, csv, markdown); inferred from --output if empty")
	f.StringVar(&redisURL, "redis-url", cfg.Output.RedisURL, "Also push records to this Redis list")
	f.StringVar(&redisKey, "redis-key", cfg.Output.RedisKey, "Redis list key")
	f.StringVar(&databaseURL, "database-url", cfg.Output.DatabaseURL, "Also insert records into this Postgres database")
	f.StringVar(&site, "site", cfg.Scraper.Site, "Selector profile ("+strings.Join(scraper.Names(), ", ")+")")
	f.StringVar(&fromHTML, "from-html", "", "Replay a saved HTML page instead of launching a browser")
	f.DurationVar(&scrollDelay, "scroll-delay", cfg.Scraper.ScrollDelay, "Pause after each scroll for comments to load")
	f.DurationVar(&navTimeout, "nav-timeout", cfg.Scraper.NavTimeout, "Page load timeout")
	f.DurationVar(&commentsTimeout, "comments-timeout", cfg.Scraper.CommentsTimeout, "Timeout waiting for the comments section")
	f.BoolVar(&showUI, "showui", !cfg.Browser.Headless, "Show browser UI (disable headless mode)")
	f.BoolVar(&noSandbox, "no-sandbox", cfg.Browser.NoSandbox, "Disable the Chromium sandbox (containers)")
	f.BoolVar(&stealthMode, "stealth", cfg.Browser.Stealth, "Inject stealth evasions before navigation")
	f.StringSliceVar(&blockResources, "block-resources", cfg.Browser.BlockedResources, "Resource types to block (Image, Stylesheet, Font, Media)")
	f.BoolVar(&canonicalURLs, "canonical-urls", false, "Rewrite youtu.be, shorts and embed links to watch pages")
	f.StringVar(&logLevel, "log-level", cfg.Log.Level, "Log level (debug, info, warn, error)")
	f.StringVar(&logFormat, "log-format", cfg.Log.Format, "Log format (text, json)")
	f.StringVar(&browserBin, "browser-bin", cfg.Browser.Bin, "Chromium binary (downloaded automatically if empty)")

	return rootCmd
}

func run(cmd *cobra.Command, args []string) error {
	initLogger(config.LogConfig{Level: logLevel, Format: logFormat})

	req, err := buildRequest(cmd, args)
	if err != nil {
		return err
	}

	sinks, err := sink.Open(sink.Config{
		Output:      outputFile,
		Format:      outputFormat,
		RedisURL:    redisURL,
		RedisKey:    redisKey,
		DatabaseURL: databaseURL,
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := sinks.Close(); err != nil {
			slog.Warn("failed to close outputs", "error", err)
		}
	}()

	var launch scraper.Launcher
	if fromHTML != "" {
		launch = htmldriver.File(fromHTML).Launcher()
	} else {
		launch = browser.Launcher(browser.Config{
			Headless:         !showUI,
			NoSandbox:        noSandbox,
			Bin:              browserBin,
			Stealth:          stealthMode,
			BlockedResources: blockResources,
		})
	}

	cs, err := scraper.NewCommentScraper(scraper.Options{
		Site:            site,
		NavTimeout:      navTimeout,
		CommentsTimeout: commentsTimeout,
		ScrollDelay:     scrollDelay,
	}, launch, sinks, slog.Default())
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	summary, err := cs.Run(ctx, req)
	if err != nil {
		return fmt.Errorf("scrape aborted: %w", err)
	}
	for _, f := range summary.Failures {
		slog.Warn("video skipped", "url", f.URL, "kind", f.Kind)
	}
	return nil
}

// buildRequest merges the input file, positional URLs and explicitly set
// flags, in increasing precedence.
func buildRequest(cmd *cobra.Command, args []string) (scraper.Request, error) {
	in, err := config.LoadInput(inputFile)
	if err != nil {
		return scraper.Request{}, err
	}
	in.VideoURLs = append(in.VideoURLs, args...)
	if cmd.Flags().Changed("max-comments") {
		n := maxComments
		in.MaxComments = &n
	}
	if cmd.Flags().Changed("use-proxy") {
		v := useProxy
		in.UseProxy = &v
	}

	req, err := in.Request()
	if err != nil {
		return scraper.Request{}, err
	}
	if canonicalURLs {
		for i, u := range req.VideoURLs {
			req.VideoURLs[i] = youtube.WatchURL(u)
		}
	}
	return req, nil
}

// initLogger configures slog based on the LogConfig. Logs go to stderr so
// stdout carries only records.
func initLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}

	slog.SetDefault(slog.New(handler))
}
