// Package scrape runs the per-URL main-content pipeline over a batch of URLs.
package scrape

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/fwojciec/mcscrape"
	"golang.org/x/sync/errgroup"
)

// Scraper orchestrates fetching, normalization, segmentation,
// classification and rendering of independent pages.
type Scraper struct {
	Fetcher     mcscrape.Fetcher
	Normalizer  mcscrape.Normalizer
	Segmenter   mcscrape.Segmenter
	Classifier  mcscrape.Classifier
	Metadata    mcscrape.MetadataExtractor
	Renderer    mcscrape.Renderer
	RateLimiter mcscrape.DomainLimiter // optional
	Observer    mcscrape.Observer      // optional

	// PageTimeout bounds each URL's whole pipeline. Zero means
	// mcscrape.DefaultPageTimeout.
	PageTimeout time.Duration

	// RetryDelays are the waits between attempts of a retryable fetch or
	// classification. Nil means DefaultRetryDelays.
	RetryDelays []time.Duration

	// OnRetry, if set, is called before each retry.
	OnRetry func(url string, stage mcscrape.Stage, attempt int, err error)
}

// Run processes every distinct URL with at most concurrency pipelines in
// flight and returns one result per distinct URL. A failing URL never
// affects the others: its error is recorded in its result.
func (s *Scraper) Run(ctx context.Context, urls []string, concurrency int) map[string]*mcscrape.ScrapeResult {
	if concurrency <= 0 {
		concurrency = mcscrape.DefaultConcurrency
	}

	results := make(map[string]*mcscrape.ScrapeResult, len(urls))
	var mu sync.Mutex

	var g errgroup.Group
	g.SetLimit(concurrency)

	seen := make(map[string]bool, len(urls))
	for _, u := range urls {
		if seen[u] {
			continue
		}
		seen[u] = true

		g.Go(func() error {
			begin := time.Now()
			result := s.scrapeOne(ctx, u)
			if s.Observer != nil {
				s.Observer.ResultReady(result, time.Since(begin))
			}

			mu.Lock()
			results[u] = result
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// pipeline tracks the stage of one URL and reports transitions.
type pipeline struct {
	url      string
	stage    mcscrape.Stage
	observer mcscrape.Observer
}

func (p *pipeline) advance(to mcscrape.Stage) {
	if !p.stage.CanTransition(to) {
		panic(fmt.Sprintf("invalid stage transition %s -> %s", p.stage, to))
	}
	from := p.stage
	p.stage = to
	if p.observer != nil {
		p.observer.StageChanged(p.url, from, to)
	}
}

// scrapeOne runs the pipeline for a single URL and never panics.
func (s *Scraper) scrapeOne(ctx context.Context, rawURL string) (result *mcscrape.ScrapeResult) {
	p := &pipeline{url: rawURL, stage: mcscrape.StagePending, observer: s.Observer}
	result = &mcscrape.ScrapeResult{URL: rawURL, Stage: mcscrape.StagePending}

	timeout := s.PageTimeout
	if timeout <= 0 {
		timeout = mcscrape.DefaultPageTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			s.fail(p, result, mcscrape.Errorf(mcscrape.EINTERNAL, "panic: %v", r))
		}
	}()

	if err := s.process(ctx, p, result); err != nil {
		if ctx.Err() != nil && mcscrape.ErrorCode(err) != mcscrape.ETIMEOUT {
			err = mcscrape.WrapError(mcscrape.ETIMEOUT, ctx.Err(), "%s: %v", p.stage, ctx.Err())
		}
		s.fail(p, result, err)
	}
	return result
}

// fail records err against the running stage and clears content fields.
func (s *Scraper) fail(p *pipeline, result *mcscrape.ScrapeResult, err error) {
	stage := p.stage
	if stage.IsTerminal() {
		stage = mcscrape.StageRendering
	}
	failed := &mcscrape.ScrapeResult{
		URL:        result.URL,
		FinalURL:   result.FinalURL,
		StatusCode: result.StatusCode,
		FetchedAt:  result.FetchedAt,
		Error:      mcscrape.NewErrorInfo(stage, err),
	}
	if !p.stage.IsTerminal() {
		p.advance(mcscrape.StageFailed)
	}
	failed.Stage = mcscrape.StageFailed
	*result = *failed
}

// process runs the stages in order. Content is assigned to result only once
// every stage has succeeded.
func (s *Scraper) process(ctx context.Context, p *pipeline, result *mcscrape.ScrapeResult) error {
	p.advance(mcscrape.StageFetching)
	u, err := mcscrape.ValidatePageURL(p.url)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return mcscrape.WrapError(mcscrape.ETIMEOUT, err, "not started: %v", err)
	}
	snap, err := s.fetch(ctx, p, u)
	if err != nil {
		return err
	}
	result.FinalURL = snap.FinalURL
	result.StatusCode = snap.StatusCode
	result.FetchedAt = snap.FetchedAt

	p.advance(mcscrape.StageNormalizing)
	baseURL := snap.FinalURL
	if baseURL == "" {
		baseURL = snap.URL
	}
	cleaned, err := s.Normalizer.Normalize(snap.RawHTML, baseURL)
	if err != nil {
		return err
	}
	meta, err := s.Metadata.ExtractMetadata(cleaned)
	if err != nil {
		return err
	}

	p.advance(mcscrape.StageSegmenting)
	tree, err := s.Segmenter.Segment(cleaned)
	if err != nil {
		return err
	}

	p.advance(mcscrape.StageClassifying)
	classification, err := withRetry(ctx, s.retryDelays(), RetryableClassify, s.retryHook(p), func(ctx context.Context) (*mcscrape.Classification, error) {
		return s.Classifier.Classify(ctx, tree)
	})
	if err != nil {
		return err
	}

	p.advance(mcscrape.StageRendering)
	contentHTML, markdown, err := s.Renderer.Render(tree)
	if err != nil {
		return err
	}

	result.Metadata = meta
	result.MainContentHTML = contentHTML
	result.MainContentMarkdown = markdown
	result.NodeTree = tree
	result.Links = mcscrape.ExtractLinks(tree, baseURL)
	result.Outline = mcscrape.Outline(tree)
	result.ContentHash = computeHash(markdown)
	result.Classification = classification

	p.advance(mcscrape.StageDone)
	result.Stage = mcscrape.StageDone
	return nil
}

func (s *Scraper) fetch(ctx context.Context, p *pipeline, u *url.URL) (*mcscrape.PageSnapshot, error) {
	return withRetry(ctx, s.retryDelays(), RetryableFetch, s.retryHook(p), func(ctx context.Context) (*mcscrape.PageSnapshot, error) {
		if s.RateLimiter != nil {
			if err := s.RateLimiter.Wait(ctx, u.Host); err != nil {
				return nil, err
			}
		}
		return s.Fetcher.Fetch(ctx, p.url)
	})
}

func (s *Scraper) retryDelays() []time.Duration {
	if s.RetryDelays == nil {
		return DefaultRetryDelays()
	}
	return s.RetryDelays
}

func (s *Scraper) retryHook(p *pipeline) RetryFunc {
	if s.OnRetry == nil {
		return nil
	}
	stage := p.stage
	return func(attempt int, err error) {
		s.OnRetry(p.url, stage, attempt, err)
	}
}

// computeHash computes a hash of the content using xxhash.
func computeHash(content string) string {
	return fmt.Sprintf("%x", xxhash.Sum64String(content))
}

// ComputeHash computes a hash of the content using xxhash.
func ComputeHash(content string) string {
	return computeHash(content)
}
