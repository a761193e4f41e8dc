package scraper

import (
	"context"
	"time"

	"github.com/ysmood/gson"
)

// Request is the input of a single run.
type Request struct {
	VideoURLs   []string
	MaxComments *int // nil means no cap
	UseProxy    bool
}

// Comment is one emitted record.
type Comment struct {
	VideoURL  string `json:"videoUrl"`
	Username  string `json:"username"`
	Timestamp string `json:"timestamp"`
	Comment   string `json:"comment"`
}

// PageDriver is the browser page the scraper drives.
type PageDriver interface {
	// Navigate loads url and returns once the DOM content is loaded.
	Navigate(ctx context.Context, url string, timeout time.Duration) error
	WaitForSelector(ctx context.Context, selector string, timeout time.Duration) error
	Evaluate(ctx context.Context, js string) (gson.JSON, error)
	QueryAll(ctx context.Context, selector string) ([]Element, error)
	Close() error
}

// Element is a node handle returned by PageDriver.QueryAll.
type Element interface {
	// Attribute returns the attribute value and whether it was present.
	Attribute(ctx context.Context, name string) (string, bool, error)
	// QueryOne returns the first descendant matching selector, or nil
	// without waiting if there is none.
	QueryOne(ctx context.Context, selector string) (Element, error)
	// Text returns the rendered text of the node.
	Text(ctx context.Context) (string, error)
}

// Sink receives records one at a time, in extraction order.
type Sink interface {
	Append(ctx context.Context, c Comment) error
}

// LaunchOptions configure the browser session opened for a run.
type LaunchOptions struct {
	ProxyURL string
}

// Launcher opens the page session used for a whole run.
type Launcher func(ctx context.Context, opts LaunchOptions) (PageDriver, error)

// Options tune the scraper. Zero values fall back to the defaults below.
type Options struct {
	Site            string
	NavTimeout      time.Duration
	CommentsTimeout time.Duration
	ScrollDelay     time.Duration
	ProxyEnv        []string // environment keys consulted for the proxy, in order
}

const (
	DefaultSite            = "youtube"
	DefaultNavTimeout      = 60 * time.Second
	DefaultCommentsTimeout = 15 * time.Second
	DefaultScrollDelay     = 2 * time.Second
)

// DefaultProxyEnv lists the proxy variables checked when UseProxy is set.
var DefaultProxyEnv = []string{"YTC_PROXY_URL", "APIFY_PROXY_URL"}

func (o Options) withDefaults() Options {
	if o.Site == "" {
		o.Site = DefaultSite
	}
	if o.NavTimeout <= 0 {
		o.NavTimeout = DefaultNavTimeout
	}
	if o.CommentsTimeout <= 0 {
		o.CommentsTimeout = DefaultCommentsTimeout
	}
	if o.ScrollDelay <= 0 {
		o.ScrollDelay = DefaultScrollDelay
	}
	if len(o.ProxyEnv) == 0 {
		o.ProxyEnv = DefaultProxyEnv
	}
	return o
}
