package browser

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/ysmood/gson"

	"ytcomments/internal/scraper"
)

// resourceTypes maps config names to protocol resource types.
var resourceTypes = map[string]proto.NetworkResourceType{
	"Image":      proto.NetworkResourceTypeImage,
	"Stylesheet": proto.NetworkResourceTypeStylesheet,
	"Font":       proto.NetworkResourceTypeFont,
	"Media":      proto.NetworkResourceTypeMedia,
}

// Driver is a scraper.PageDriver backed by one rod page. Closing it closes
// the whole browser.
type Driver struct {
	browser *Browser
	page    *rod.Page
	router  *rod.HijackRouter
}

// Launcher returns a scraper.Launcher that starts a browser from base,
// with the proxy chosen by the scraper for the run.
func Launcher(base Config) scraper.Launcher {
	return func(ctx context.Context, opts scraper.LaunchOptions) (scraper.PageDriver, error) {
		cfg := base
		cfg.ProxyURL = opts.ProxyURL
		return NewDriver(cfg)
	}
}

// NewDriver launches a browser and opens the page all navigation runs on.
func NewDriver(cfg Config) (*Driver, error) {
	b, err := New(cfg)
	if err != nil {
		return nil, err
	}
	page, err := b.NewPage()
	if err != nil {
		_ = b.Close()
		return nil, fmt.Errorf("failed to create page: %w", err)
	}

	d := &Driver{browser: b, page: page}

	// Both must be installed before the first navigation.
	if cfg.Stealth {
		if _, err := page.EvalOnNewDocument(stealth.JS); err != nil {
			slog.Warn("stealth injection failed, proceeding without stealth", "error", err)
		}
	}
	d.router = blockResources(page, cfg.BlockedResources)

	return d, nil
}

// blockResources fails requests of the listed types. It returns nil when
// nothing is blocked.
func blockResources(page *rod.Page, names []string) *rod.HijackRouter {
	blocked := make(map[proto.NetworkResourceType]struct{}, len(names))
	for _, name := range names {
		if rt, ok := resourceTypes[name]; ok {
			blocked[rt] = struct{}{}
		} else {
			slog.Warn("ignoring unknown resource type", "type", name)
		}
	}
	if len(blocked) == 0 {
		return nil
	}

	router := page.HijackRequests()
	_ = router.Add("*", "", func(h *rod.Hijack) {
		if _, ok := blocked[h.Request.Type()]; ok {
			h.Response.Fail(proto.NetworkErrorReasonBlockedByClient)
			return
		}
		h.ContinueRequest(&proto.FetchContinueRequest{})
	})
	go router.Run()
	return router
}

func (d *Driver) Navigate(ctx context.Context, url string, timeout time.Duration) error {
	p := d.page.Context(ctx).Timeout(timeout)
	defer p.CancelTimeout()

	// The waiter has to be registered before Navigate or the event is missed.
	wait := p.WaitNavigation(proto.PageLifecycleEventNameDOMContentLoaded)
	if err := p.Navigate(url); err != nil {
		return fmt.Errorf("failed to navigate: %w", err)
	}
	wait()
	if err := p.GetContext().Err(); err != nil {
		return fmt.Errorf("failed to wait for DOM content: %w", err)
	}
	return nil
}

func (d *Driver) WaitForSelector(ctx context.Context, selector string, timeout time.Duration) error {
	p := d.page.Context(ctx).Timeout(timeout)
	defer p.CancelTimeout()

	if _, err := p.Element(selector); err != nil {
		return fmt.Errorf("failed to wait for element '%s': %w", selector, err)
	}
	return nil
}

func (d *Driver) Evaluate(ctx context.Context, js string) (gson.JSON, error) {
	res, err := d.page.Context(ctx).Eval(js)
	if err != nil {
		return gson.New(nil), err
	}
	return res.Value, nil
}

func (d *Driver) QueryAll(ctx context.Context, selector string) ([]scraper.Element, error) {
	els, err := d.page.Context(ctx).Elements(selector)
	if err != nil {
		return nil, err
	}
	out := make([]scraper.Element, len(els))
	for i, el := range els {
		out[i] = &element{el: el}
	}
	return out, nil
}

// Close stops request blocking and shuts the browser down.
func (d *Driver) Close() error {
	if d.router != nil {
		_ = d.router.Stop()
	}
	return d.browser.Close()
}

type element struct {
	el *rod.Element
}

func (e *element) Attribute(ctx context.Context, name string) (string, bool, error) {
	v, err := e.el.Context(ctx).Attribute(name)
	if err != nil {
		return "", false, err
	}
	if v == nil {
		return "", false, nil
	}
	return *v, true, nil
}

// QueryOne uses Has rather than Element, which would retry until a missing
// node appears.
func (e *element) QueryOne(ctx context.Context, selector string) (scraper.Element, error) {
	found, child, err := e.el.Context(ctx).Has(selector)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return &element{el: child}, nil
}

func (e *element) Text(ctx context.Context) (string, error) {
	return e.el.Context(ctx).Text()
}
