package browser

import (
	"fmt"
	"log/slog"
	"net/url"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
)

// Config controls the launched Chromium instance.
type Config struct {
	ProxyURL  string // may carry user:pass credentials
	Headless  bool
	NoSandbox bool   // needed in most containers
	Bin       string // overrides the Chromium binary
	Stealth   bool

	// BlockedResources lists resource types (Image, Stylesheet, Font, Media)
	// that pages opened by this browser refuse to load.
	BlockedResources []string
}

// Browser wraps a launched rod.Browser.
type Browser struct {
	browser  *rod.Browser
	launcher *launcher.Launcher
	cfg      Config
}

// New launches Chromium and connects to it.
func New(cfg Config) (*Browser, error) {
	l := launcher.New().
		Headless(cfg.Headless).
		NoSandbox(cfg.NoSandbox)

	if cfg.Bin != "" {
		l = l.Bin(cfg.Bin)
	}

	server, user, pass, err := splitProxy(cfg.ProxyURL)
	if err != nil {
		return nil, err
	}
	if server != "" {
		l = l.Proxy(server)
	}
	if cfg.Stealth {
		l.Set(flags.Flag("disable-blink-features"), "AutomationControlled")
		l.Delete(flags.Flag("enable-automation"))
	}

	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}
	slog.Debug("browser launched", "controlURL", controlURL, "proxy", server != "")

	b := rod.New().ControlURL(controlURL)
	if err := b.Connect(); err != nil {
		l.Kill()
		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}

	// Chromium ignores credentials in --proxy-server; answer the auth
	// challenge instead. HandleAuth blocks until the first challenge.
	if user != "" {
		wait := b.HandleAuth(user, pass)
		go func() {
			if err := wait(); err != nil {
				slog.Debug("proxy auth handler stopped", "error", err)
			}
		}()
	}

	return &Browser{browser: b, launcher: l, cfg: cfg}, nil
}

// splitProxy separates credentials from a proxy URL.
func splitProxy(raw string) (server, user, pass string, err error) {
	if raw == "" {
		return "", "", "", nil
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "", "", "", fmt.Errorf("invalid proxy URL %q", redact(raw))
	}
	if u.User != nil {
		user = u.User.Username()
		pass, _ = u.User.Password()
	}
	return u.Scheme + "://" + u.Host, user, pass, nil
}

// redact drops the password from a proxy URL for messages.
func redact(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "<unparseable>"
	}
	return u.Redacted()
}

// NewPage opens an about:blank tab for the driver.
func (b *Browser) NewPage() (*rod.Page, error) {
	return b.browser.Page(proto.TargetCreateTarget{URL: "about:blank"})
}

// Close disconnects from Chromium and always kills the launched process,
// even when the disconnect fails.
func (b *Browser) Close() error {
	var err error
	if b.browser != nil {
		if cerr := b.browser.Close(); cerr != nil {
			err = fmt.Errorf("failed to close browser: %w", cerr)
		}
	}
	if b.launcher != nil {
		b.launcher.Kill()
	}
	return err
}
