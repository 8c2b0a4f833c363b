// Package slog provides log/slog decorators for mcscrape services.
package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/mcscrape"
)

// Ensure LoggingFetcher implements mcscrape.Fetcher.
var _ mcscrape.Fetcher = (*LoggingFetcher)(nil)

// LoggingFetcher wraps a Fetcher with debug logging.
type LoggingFetcher struct {
	next   mcscrape.Fetcher
	logger *slog.Logger
}

// NewLoggingFetcher creates a new LoggingFetcher.
func NewLoggingFetcher(next mcscrape.Fetcher, logger *slog.Logger) *LoggingFetcher {
	return &LoggingFetcher{next: next, logger: logger}
}

// Fetch logs the URL being fetched and delegates to the wrapped fetcher.
func (f *LoggingFetcher) Fetch(ctx context.Context, url string) (snap *mcscrape.PageSnapshot, err error) {
	defer func(begin time.Time) {
		var size, status int
		if snap != nil {
			size = len(snap.RawHTML)
			status = snap.StatusCode
		}
		f.logger.Info("fetch",
			"url", url,
			"status", status,
			"bytes", size,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return f.next.Fetch(ctx, url)
}

// Close delegates to the wrapped fetcher.
func (f *LoggingFetcher) Close() error {
	return f.next.Close()
}
