package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the process configuration read from the environment.
type Config struct {
	Browser BrowserConfig
	Scraper ScraperConfig
	Output  OutputConfig
	Log     LogConfig
}

// BrowserConfig controls the launched Chromium.
type BrowserConfig struct {
	Headless  bool // default: true
	NoSandbox bool // default: false
	Bin       string
	Stealth   bool // default: false

	// BlockedResources lists resource types to refuse, e.g. "Image,Font".
	BlockedResources []string
}

// ScraperConfig controls paging and waits.
type ScraperConfig struct {
	Site            string        // default: "youtube"
	NavTimeout      time.Duration // default: 60s
	CommentsTimeout time.Duration // default: 15s
	ScrollDelay     time.Duration // default: 2s
}

// OutputConfig selects where records go.
type OutputConfig struct {
	Path        string // default: stdout
	Format      string // default: inferred from Path, else jsonl
	RedisURL    string
	RedisKey    string // default: "ytcomments:comments"
	DatabaseURL string
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string // default: "info"
	Format string // "json" or "text"; default: "text"
}

// Load reads configuration from environment variables with defaults.
func Load() *Config {
	return &Config{
		Browser: BrowserConfig{
			Headless:         envBoolOr("YTC_HEADLESS", true),
			NoSandbox:        envBoolOr("YTC_NO_SANDBOX", false),
			Bin:              os.Getenv("YTC_BROWSER_BIN"),
			Stealth:          envBoolOr("YTC_STEALTH", false),
			BlockedResources: envSliceOr("YTC_BLOCKED_RESOURCES", nil),
		},
		Scraper: ScraperConfig{
			Site:            envOr("YTC_SITE", "youtube"),
			NavTimeout:      envDurationOr("YTC_NAV_TIMEOUT", 60*time.Second),
			CommentsTimeout: envDurationOr("YTC_COMMENTS_TIMEOUT", 15*time.Second),
			ScrollDelay:     envDurationOr("YTC_SCROLL_DELAY", 2*time.Second),
		},
		Output: OutputConfig{
			Path:        os.Getenv("YTC_OUTPUT"),
			Format:      os.Getenv("YTC_FORMAT"),
			RedisURL:    os.Getenv("YTC_REDIS_URL"),
			RedisKey:    envOr("YTC_REDIS_KEY", "ytcomments:comments"),
			DatabaseURL: os.Getenv("DATABASE_URL"),
		},
		Log: LogConfig{
			Level:  envOr("YTC_LOG_LEVEL", "info"),
			Format: envOr("YTC_LOG_FORMAT", "text"),
		},
	}
}

// LoadDotEnv loads variables from the given .env files (".env" when none
// are given) without overriding the real environment. Missing files are
// ignored.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}
	return nil
}

// --- helper functions ---

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envBoolOr(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envSliceOr(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		return result
	}
	return fallback
}
