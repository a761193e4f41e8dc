package sink

import (
	"context"
	"errors"
	"io"

	"ytcomments/internal/scraper"
)

// Sink is a scraper.Sink that owns resources.
type Sink interface {
	scraper.Sink
	io.Closer
}

// Multi delivers every record to all of its sinks.
type Multi []Sink

// Append tries every sink even when an earlier one fails.
func (m Multi) Append(ctx context.Context, c scraper.Comment) error {
	var errs []error
	for _, s := range m {
		if err := s.Append(ctx, c); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m Multi) Close() error {
	var errs []error
	for _, s := range m {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
