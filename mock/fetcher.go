package mock

import (
	"context"

	"github.com/fwojciec/mcscrape"
)

var _ mcscrape.Fetcher = (*Fetcher)(nil)

// Fetcher is a mock implementation of mcscrape.Fetcher.
type Fetcher struct {
	FetchFn func(ctx context.Context, url string) (*mcscrape.PageSnapshot, error)
	CloseFn func() error
}

func (f *Fetcher) Fetch(ctx context.Context, url string) (*mcscrape.PageSnapshot, error) {
	return f.FetchFn(ctx, url)
}

func (f *Fetcher) Close() error {
	return f.CloseFn()
}

var _ mcscrape.DomainLimiter = (*DomainLimiter)(nil)

// DomainLimiter is a mock implementation of mcscrape.DomainLimiter.
type DomainLimiter struct {
	WaitFn func(ctx context.Context, domain string) error
}

func (l *DomainLimiter) Wait(ctx context.Context, domain string) error {
	return l.WaitFn(ctx, domain)
}
