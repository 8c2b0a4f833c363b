package mock

import (
	"context"
	"time"

	"github.com/fwojciec/mcscrape"
)

var _ mcscrape.ResultWriter = (*ResultWriter)(nil)

// ResultWriter is a mock implementation of mcscrape.ResultWriter.
type ResultWriter struct {
	WriteResultFn func(ctx context.Context, result *mcscrape.ScrapeResult) error
}

func (w *ResultWriter) WriteResult(ctx context.Context, result *mcscrape.ScrapeResult) error {
	return w.WriteResultFn(ctx, result)
}

var _ mcscrape.Observer = (*Observer)(nil)

// Observer is a mock implementation of mcscrape.Observer.
// Nil function fields are ignored.
type Observer struct {
	StageChangedFn func(url string, from, to mcscrape.Stage)
	ResultReadyFn  func(result *mcscrape.ScrapeResult, elapsed time.Duration)
}

func (o *Observer) StageChanged(url string, from, to mcscrape.Stage) {
	if o.StageChangedFn != nil {
		o.StageChangedFn(url, from, to)
	}
}

func (o *Observer) ResultReady(result *mcscrape.ScrapeResult, elapsed time.Duration) {
	if o.ResultReadyFn != nil {
		o.ResultReadyFn(result, elapsed)
	}
}
