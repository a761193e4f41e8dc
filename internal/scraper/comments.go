package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"
)

// CommentScraper walks a list of video pages and emits their comments.
type CommentScraper struct {
	site   Site
	opts   Options
	launch Launcher
	sink   Sink
	logger *slog.Logger

	// getenv is swapped in tests.
	getenv func(string) string
}

// Summary reports what a run did.
type Summary struct {
	Emitted  map[string]int
	Failures []*PageError
	Skipped  int // blank URLs
}

// Total returns the number of records emitted across all URLs.
func (s *Summary) Total() int {
	n := 0
	for _, c := range s.Emitted {
		n += c
	}
	return n
}

// NewCommentScraper resolves the site profile and returns a ready scraper.
func NewCommentScraper(opts Options, launch Launcher, sink Sink, logger *slog.Logger) (*CommentScraper, error) {
	opts = opts.withDefaults()
	site, ok := Get(opts.Site)
	if !ok {
		return nil, fmt.Errorf("unknown site: %s (known: %s)", opts.Site, strings.Join(Names(), ", "))
	}
	if launch == nil {
		return nil, fmt.Errorf("launcher is required")
	}
	if sink == nil {
		return nil, fmt.Errorf("sink is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CommentScraper{
		site:   site,
		opts:   opts,
		launch: launch,
		sink:   sink,
		logger: logger,
		getenv: os.Getenv,
	}, nil
}

// Run scrapes every URL in req sequentially on one page session. Per-URL
// and per-comment failures are logged and reported in the Summary; the
// returned error is reserved for launch failure and cancellation.
func (s *CommentScraper) Run(ctx context.Context, req Request) (*Summary, error) {
	summary := &Summary{Emitted: make(map[string]int)}
	s.logger.Info("starting comment scraper", "site", s.site.Name, "videos", len(req.VideoURLs))

	urls := make([]string, 0, len(req.VideoURLs))
	for _, u := range req.VideoURLs {
		if strings.TrimSpace(u) == "" {
			summary.Skipped++
			continue
		}
		urls = append(urls, u)
	}
	if len(urls) == 0 {
		s.logger.Warn("no video URLs provided, exiting", "skipped", summary.Skipped)
		return summary, nil
	}

	driver, err := s.launch(ctx, LaunchOptions{ProxyURL: s.proxyURL(req.UseProxy)})
	if err != nil {
		return summary, fmt.Errorf("failed to open browser session: %w", err)
	}
	defer func() {
		if err := driver.Close(); err != nil {
			s.logger.Warn("failed to close browser session", "error", err)
		}
	}()

	for _, u := range urls {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		n, perr := s.scrapeVideo(ctx, driver, u, req.MaxComments)
		if perr != nil {
			s.logger.Error("could not load page or find comments section", "url", u, "kind", perr.Kind, "error", perr.Err)
			summary.Failures = append(summary.Failures, perr)
			continue
		}
		summary.Emitted[u] += n
	}

	s.logger.Info("scraping finished for all videos", "emitted", summary.Total(), "failed", len(summary.Failures))
	return summary, ctx.Err()
}

func (s *CommentScraper) proxyURL(useProxy bool) string {
	if !useProxy {
		return ""
	}
	for _, key := range s.opts.ProxyEnv {
		if v := strings.TrimSpace(s.getenv(key)); v != "" {
			s.logger.Info("using proxy", "env", key)
			return v
		}
	}
	s.logger.Warn("proxy requested but no proxy endpoint set, running without proxy", "env", s.opts.ProxyEnv)
	return ""
}

func (s *CommentScraper) scrapeVideo(ctx context.Context, d PageDriver, url string, maxComments *int) (int, *PageError) {
	log := s.logger.With("url", url)
	log.Info("scraping comments for video")

	if err := d.Navigate(ctx, url, s.opts.NavTimeout); err != nil {
		return 0, classify(url, KindNavigation, err)
	}
	if err := d.WaitForSelector(ctx, s.site.Container, s.opts.CommentsTimeout); err != nil {
		return 0, &PageError{Kind: KindCommentsMissing, URL: url, Err: err}
	}

	log.Info("scrolling to load all comments")
	s.scrollToStable(ctx, d, log, maxComments)

	log.Info("finished scrolling, extracting comment data")
	n := s.extract(ctx, d, log, url, maxComments)
	log.Info("scraped comments", "count", n)
	return n, nil
}

// scrollState tracks the comment ids seen on one page.
type scrollState struct {
	seen map[string]struct{}
}

// merge adds ids and reports how many were new.
func (st *scrollState) merge(ids []string) int {
	added := 0
	for _, id := range ids {
		if _, ok := st.seen[id]; !ok {
			st.seen[id] = struct{}{}
			added++
		}
	}
	return added
}

// scrollToStable scrolls until a scroll step yields no new comment ids or
// the cap is reached. Errors stop scrolling; extraction still runs on what
// has rendered so far.
func (s *CommentScraper) scrollToStable(ctx context.Context, d PageDriver, log *slog.Logger, maxComments *int) {
	st := &scrollState{seen: make(map[string]struct{})}
	for step := 1; ; step++ {
		if maxComments != nil && len(st.seen) >= *maxComments {
			log.Info("reached max comment limit", "max", *maxComments)
			return
		}

		if _, err := d.Evaluate(ctx, scrollToBottomJS); err != nil {
			log.Warn("scroll failed, extracting what is loaded", "error", err)
			return
		}
		if err := sleep(ctx, s.opts.ScrollDelay); err != nil {
			return
		}

		ids, err := s.commentIDs(ctx, d)
		if err != nil {
			log.Warn("failed to list comments after scroll", "error", err)
			return
		}
		if st.merge(ids) == 0 {
			log.Info("no new comments loaded, assuming end of comments section", "seen", len(st.seen))
			return
		}
		log.Debug("scroll step loaded comments", "step", step, "seen", len(st.seen))
	}
}

const scrollToBottomJS = `() => window.scrollTo(0, document.documentElement.scrollHeight)`

// commentIDs returns one key per rendered scroll item. Items without an id,
// or sharing one with another item in the same snapshot, are keyed by
// position since two nodes of one snapshot are never the same comment.
// An id that becomes duplicated between snapshots changes key and reads as
// growth, which costs one extra scroll.
func (s *CommentScraper) commentIDs(ctx context.Context, d PageDriver) ([]string, error) {
	items, err := d.QueryAll(ctx, s.site.ScrollItem)
	if err != nil {
		return nil, err
	}
	raw := make([]string, len(items))
	counts := make(map[string]int, len(items))
	for i, el := range items {
		id, _, err := el.Attribute(ctx, s.site.IDAttribute)
		if err != nil {
			return nil, err
		}
		raw[i] = id
		counts[id]++
	}
	ids := make([]string, len(items))
	for i, id := range raw {
		if id == "" || counts[id] > 1 {
			ids[i] = fmt.Sprintf("%s#%d", id, i)
			continue
		}
		ids[i] = id
	}
	return ids, nil
}

func (s *CommentScraper) extract(ctx context.Context, d PageDriver, log *slog.Logger, url string, maxComments *int) int {
	threads, err := d.QueryAll(ctx, s.site.Thread)
	if err != nil {
		log.Warn("failed to list comment threads", "error", err)
		return 0
	}

	count := 0
	for i, th := range threads {
		if maxComments != nil && count >= *maxComments {
			break
		}
		if ctx.Err() != nil {
			break
		}
		c, ok, err := s.readThread(ctx, th, url)
		if err != nil {
			log.Warn("could not extract a comment's data, skipping", "index", i, "error", err)
			continue
		}
		if !ok {
			log.Debug("comment thread is missing a field, skipping", "index", i)
			continue
		}
		if err := s.sink.Append(ctx, c); err != nil {
			log.Warn("failed to emit comment, skipping", "index", i, "error", err)
			continue
		}
		count++
	}
	return count
}

// readThread returns ok=false when any of the three field nodes is absent.
func (s *CommentScraper) readThread(ctx context.Context, th Element, url string) (Comment, bool, error) {
	user, err := firstMatch(ctx, th, s.site.Username)
	if err != nil || user == nil {
		return Comment{}, false, err
	}
	ts, err := firstMatch(ctx, th, s.site.Timestamp)
	if err != nil || ts == nil {
		return Comment{}, false, err
	}
	body, err := firstMatch(ctx, th, s.site.Text)
	if err != nil || body == nil {
		return Comment{}, false, err
	}

	c := Comment{VideoURL: url}
	if c.Username, err = trimmedText(ctx, user); err != nil {
		return Comment{}, false, fmt.Errorf("username: %w", err)
	}
	if c.Timestamp, err = trimmedText(ctx, ts); err != nil {
		return Comment{}, false, fmt.Errorf("timestamp: %w", err)
	}
	if c.Comment, err = trimmedText(ctx, body); err != nil {
		return Comment{}, false, fmt.Errorf("comment: %w", err)
	}
	return c, true, nil
}

func firstMatch(ctx context.Context, el Element, selectors []string) (Element, error) {
	for _, sel := range selectors {
		found, err := el.QueryOne(ctx, sel)
		if err != nil {
			return nil, fmt.Errorf("query %q: %w", sel, err)
		}
		if found != nil {
			return found, nil
		}
	}
	return nil, nil
}

func trimmedText(ctx context.Context, el Element) (string, error) {
	t, err := el.Text(ctx)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(t), nil
}

// sleep pauses for d unless ctx ends first.
func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
