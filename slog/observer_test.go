package slog_test

import (
	"bytes"
	"log/slog"
	"testing"
	"time"

	"github.com/fwojciec/mcscrape"
	mcslog "github.com/fwojciec/mcscrape/slog"
	"github.com/stretchr/testify/assert"
)

func TestLoggingObserver(t *testing.T) {
	t.Parallel()

	t.Run("logs stage changes at debug level", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

		mcslog.NewLoggingObserver(logger).StageChanged("https://example.com", mcscrape.StagePending, mcscrape.StageFetching)

		output := buf.String()
		assert.Contains(t, output, "level=DEBUG")
		assert.Contains(t, output, "from=pending")
		assert.Contains(t, output, "to=fetching")
	})

	t.Run("hides stage changes at info level", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, nil))

		mcslog.NewLoggingObserver(logger).StageChanged("https://example.com", mcscrape.StagePending, mcscrape.StageFetching)

		assert.Empty(t, buf.String())
	})

	t.Run("logs successful results", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, nil))

		mcslog.NewLoggingObserver(logger).ResultReady(&mcscrape.ScrapeResult{
			URL:                 "https://example.com",
			MainContentMarkdown: "# Hi",
			Links:               []mcscrape.ExtractedLink{{Href: "https://example.com/a"}},
		}, time.Second)

		output := buf.String()
		assert.Contains(t, output, "msg=scrape")
		assert.Contains(t, output, "bytes=4")
		assert.Contains(t, output, "links=1")
	})

	t.Run("logs failures as warnings", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, nil))

		mcslog.NewLoggingObserver(logger).ResultReady(&mcscrape.ScrapeResult{
			URL:   "https://example.com",
			Error: &mcscrape.ErrorInfo{Kind: mcscrape.ETIMEOUT, Stage: mcscrape.StageFetching, Message: "deadline exceeded"},
		}, time.Second)

		output := buf.String()
		assert.Contains(t, output, "level=WARN")
		assert.Contains(t, output, "kind="+mcscrape.ETIMEOUT)
		assert.Contains(t, output, "stage=fetching")
	})
}
