package sink

import (
	"fmt"
	"io"
	"os"
)

// Config selects the sinks opened for a run.
type Config struct {
	Output      string // file path; "" or "-" means Stdout
	Format      string // "" infers from Output, then falls back to jsonl
	RedisURL    string
	RedisKey    string
	DatabaseURL string

	Stdout io.Writer
}

// Open opens every configured sink. The file or stdout writer is always
// present; Redis and Postgres are added when their URLs are set.
func Open(cfg Config) (Multi, error) {
	format := cfg.Format
	if format == "" {
		format = InferFormat(cfg.Output)
	}
	if format == "" {
		format = FormatJSONL
	}

	var out io.Writer
	resumed := false
	if cfg.Output == "" || cfg.Output == "-" {
		stdout := cfg.Stdout
		if stdout == nil {
			stdout = os.Stdout
		}
		// Hide Close so stdout survives the run.
		out = struct{ io.Writer }{stdout}
	} else {
		f, err := os.OpenFile(cfg.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("failed to open output file: %w", err)
		}
		info, err := f.Stat()
		if err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("failed to stat output file: %w", err)
		}
		// A non-empty file already has its CSV header from an earlier run.
		resumed = info.Size() > 0
		out = f
	}

	w, err := NewWriter(out, format)
	if err != nil {
		if c, ok := out.(io.Closer); ok {
			_ = c.Close()
		}
		return nil, err
	}
	w.wroteHead = resumed
	sinks := Multi{w}

	if cfg.RedisURL != "" {
		r, err := NewRedis(cfg.RedisURL, cfg.RedisKey)
		if err != nil {
			_ = sinks.Close()
			return nil, err
		}
		sinks = append(sinks, r)
	}
	if cfg.DatabaseURL != "" {
		p, err := NewPostgres(cfg.DatabaseURL)
		if err != nil {
			_ = sinks.Close()
			return nil, err
		}
		sinks = append(sinks, p)
	}
	return sinks, nil
}
