package scraper

import (
	"context"
	"errors"
	"fmt"
)

// Kinds of per-URL failure.
const (
	KindNavigation      = "navigation"
	KindTimeout         = "timeout"
	KindCommentsMissing = "comments_missing"
)

// PageError is a per-URL failure. It never aborts a run.
type PageError struct {
	Kind string
	URL  string
	Err  error
}

func (e *PageError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.URL, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.URL)
}

func (e *PageError) Unwrap() error {
	return e.Err
}

// classify maps a navigation or wait error to a PageError. fallback is the
// kind used when the error is not a deadline.
func classify(url, fallback string, err error) *PageError {
	kind := fallback
	if errors.Is(err, context.DeadlineExceeded) {
		kind = KindTimeout
	}
	return &PageError{Kind: kind, URL: url, Err: err}
}
