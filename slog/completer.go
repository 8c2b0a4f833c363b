package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/mcscrape"
)

// Ensure LoggingCompleter implements mcscrape.Completer.
var _ mcscrape.Completer = (*LoggingCompleter)(nil)

// LoggingCompleter wraps a Completer with debug logging.
type LoggingCompleter struct {
	next   mcscrape.Completer
	logger *slog.Logger
}

// NewLoggingCompleter creates a new LoggingCompleter.
func NewLoggingCompleter(next mcscrape.Completer, logger *slog.Logger) *LoggingCompleter {
	return &LoggingCompleter{next: next, logger: logger}
}

// Complete logs prompt and response sizes and delegates to the wrapped completer.
func (c *LoggingCompleter) Complete(ctx context.Context, prompt mcscrape.Prompt, cfg mcscrape.ModelConfig) (out string, err error) {
	defer func(begin time.Time) {
		c.logger.Info("complete",
			"model", cfg.Model,
			"prompt_bytes", len(prompt.System)+len(prompt.User),
			"bytes", len(out),
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return c.next.Complete(ctx, prompt, cfg)
}
