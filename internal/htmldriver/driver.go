// Package htmldriver replays saved HTML snapshots through the
// scraper.PageDriver interface. Nothing is executed: scrolling is a no-op
// and the DOM never changes after Navigate.
package htmldriver

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"github.com/ysmood/gson"

	"ytcomments/internal/scraper"
)

// Loader returns the snapshot served for url.
type Loader func(url string) (io.ReadCloser, error)

// Driver serves one document at a time.
type Driver struct {
	load Loader
	doc  *goquery.Document

	mu        sync.Mutex
	compiled  map[string]cascadia.Selector
	navigated []string
	closed    bool
}

func New(load Loader) *Driver {
	return &Driver{load: load, compiled: make(map[string]cascadia.Selector)}
}

// Pages serves fixed markup per URL; unknown URLs fail to navigate.
func Pages(pages map[string]string) *Driver {
	return New(func(url string) (io.ReadCloser, error) {
		body, ok := pages[url]
		if !ok {
			return nil, fmt.Errorf("no snapshot for %s", url)
		}
		return io.NopCloser(strings.NewReader(body)), nil
	})
}

// File serves the same saved page for every URL.
func File(path string) *Driver {
	return New(func(string) (io.ReadCloser, error) {
		return os.Open(path)
	})
}

// Launcher adapts d to scraper.Launcher. The proxy is irrelevant offline.
func (d *Driver) Launcher() scraper.Launcher {
	return func(ctx context.Context, _ scraper.LaunchOptions) (scraper.PageDriver, error) {
		return d, nil
	}
}

func (d *Driver) Navigate(ctx context.Context, url string, _ time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	rc, err := d.load(url)
	if err != nil {
		return fmt.Errorf("failed to navigate: %w", err)
	}
	defer rc.Close()

	doc, err := goquery.NewDocumentFromReader(rc)
	if err != nil {
		return fmt.Errorf("failed to parse snapshot: %w", err)
	}
	d.mu.Lock()
	d.doc = doc
	d.navigated = append(d.navigated, url)
	d.mu.Unlock()
	return nil
}

// WaitForSelector succeeds only if the selector already matches; a static
// page never grows the element later.
func (d *Driver) WaitForSelector(ctx context.Context, selector string, _ time.Duration) error {
	sel, err := d.selection(selector)
	if err != nil {
		return err
	}
	if sel.Length() == 0 {
		return fmt.Errorf("failed to wait for element '%s': %w", selector, context.DeadlineExceeded)
	}
	return nil
}

func (d *Driver) Evaluate(ctx context.Context, js string) (gson.JSON, error) {
	return gson.New(nil), ctx.Err()
}

func (d *Driver) QueryAll(ctx context.Context, selector string) ([]scraper.Element, error) {
	sel, err := d.selection(selector)
	if err != nil {
		return nil, err
	}
	out := make([]scraper.Element, 0, sel.Length())
	sel.Each(func(_ int, s *goquery.Selection) {
		out = append(out, &element{d: d, sel: s})
	})
	return out, nil
}

func (d *Driver) Close() error {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()
	return nil
}

// Navigated lists the URLs loaded so far.
func (d *Driver) Navigated() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.navigated...)
}

// Closed reports whether Close was called.
func (d *Driver) Closed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closed
}

func (d *Driver) selection(selector string) (*goquery.Selection, error) {
	m, err := d.compile(selector)
	if err != nil {
		return nil, err
	}
	d.mu.Lock()
	doc := d.doc
	d.mu.Unlock()
	if doc == nil {
		return nil, fmt.Errorf("no page loaded")
	}
	return doc.FindMatcher(m), nil
}

func (d *Driver) compile(selector string) (cascadia.Selector, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if m, ok := d.compiled[selector]; ok {
		return m, nil
	}
	m, err := cascadia.Compile(selector)
	if err != nil {
		return nil, fmt.Errorf("invalid selector %q: %w", selector, err)
	}
	d.compiled[selector] = m
	return m, nil
}

type element struct {
	d   *Driver
	sel *goquery.Selection
}

func (e *element) Attribute(_ context.Context, name string) (string, bool, error) {
	v, ok := e.sel.Attr(name)
	return v, ok, nil
}

func (e *element) QueryOne(_ context.Context, selector string) (scraper.Element, error) {
	m, err := e.d.compile(selector)
	if err != nil {
		return nil, err
	}
	found := e.sel.FindMatcher(m).First()
	if found.Length() == 0 {
		return nil, nil
	}
	return &element{d: e.d, sel: found}, nil
}

func (e *element) Text(_ context.Context) (string, error) {
	return e.sel.Text(), nil
}
