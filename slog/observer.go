package slog

import (
	"log/slog"
	"time"

	"github.com/fwojciec/mcscrape"
)

// Ensure LoggingObserver implements mcscrape.Observer.
var _ mcscrape.Observer = (*LoggingObserver)(nil)

// LoggingObserver logs pipeline progress.
type LoggingObserver struct {
	logger *slog.Logger
}

// NewLoggingObserver creates a new LoggingObserver.
func NewLoggingObserver(logger *slog.Logger) *LoggingObserver {
	return &LoggingObserver{logger: logger}
}

// StageChanged logs stage transitions at debug level.
func (o *LoggingObserver) StageChanged(url string, from, to mcscrape.Stage) {
	o.logger.Debug("stage",
		"url", url,
		"from", from,
		"to", to,
	)
}

// ResultReady logs the outcome of a URL.
func (o *LoggingObserver) ResultReady(result *mcscrape.ScrapeResult, elapsed time.Duration) {
	if result.Error != nil {
		o.logger.Warn("scrape failed",
			"url", result.URL,
			"kind", result.Error.Kind,
			"stage", result.Error.Stage,
			"err", result.Error.Message,
			"duration", elapsed,
		)
		return
	}
	o.logger.Info("scrape",
		"url", result.URL,
		"bytes", len(result.MainContentMarkdown),
		"links", len(result.Links),
		"duration", elapsed,
	)
}
