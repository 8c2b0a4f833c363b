package main

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/fwojciec/mcscrape"
)

// multiObserver forwards events to every observer in order.
type multiObserver []mcscrape.Observer

func (o multiObserver) StageChanged(url string, from, to mcscrape.Stage) {
	for _, obs := range o {
		obs.StageChanged(url, from, to)
	}
}

func (o multiObserver) ResultReady(result *mcscrape.ScrapeResult, elapsed time.Duration) {
	for _, obs := range o {
		obs.ResultReady(result, elapsed)
	}
}

// multiWriter writes each result to every sink.
type multiWriter []mcscrape.ResultWriter

func (w multiWriter) WriteResult(ctx context.Context, result *mcscrape.ScrapeResult) error {
	var errs []error
	for _, rw := range w {
		if err := rw.WriteResult(ctx, result); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// WriteAll writes results in URL order. A failing write does not stop the
// remaining ones; all errors are returned joined.
func (w multiWriter) WriteAll(ctx context.Context, results map[string]*mcscrape.ScrapeResult) error {
	urls := make([]string, 0, len(results))
	for u := range results {
		urls = append(urls, u)
	}
	sort.Strings(urls)

	var errs []error
	for _, u := range urls {
		if err := w.WriteResult(ctx, results[u]); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
