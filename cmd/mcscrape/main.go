package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/alecthomas/kong"
	"github.com/fwojciec/mcscrape"
	"github.com/fwojciec/mcscrape/classify"
	"github.com/fwojciec/mcscrape/etree"
	"github.com/fwojciec/mcscrape/fs"
	"github.com/fwojciec/mcscrape/gemini"
	"github.com/fwojciec/mcscrape/goquery"
	"github.com/fwojciec/mcscrape/htmltomarkdown"
	mchttp "github.com/fwojciec/mcscrape/http"
	"github.com/fwojciec/mcscrape/openai"
	"github.com/fwojciec/mcscrape/prometheus"
	"github.com/fwojciec/mcscrape/readability"
	"github.com/fwojciec/mcscrape/rod"
	mcs3 "github.com/fwojciec/mcscrape/s3"
	"github.com/fwojciec/mcscrape/scrape"
	mcslog "github.com/fwojciec/mcscrape/slog"
	"github.com/fwojciec/mcscrape/sqlite"
	"github.com/fwojciec/mcscrape/trafilatura"
	oai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"google.golang.org/genai"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	m := NewMain()

	if err := m.Run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

const (
	providerGemini = "gemini"
	providerOpenAI = "openai"

	fallbackLargestBlock = "largest-block"
	fallbackReadability  = "readability"
	fallbackTrafilatura  = "trafilatura"
)

// Main represents the program.
type Main struct {
	// Getenv looks up API keys. Defaults to os.Getenv.
	Getenv func(string) string

	// Overrides for end-to-end testing. When nil they are built from flags.
	Fetcher   mcscrape.Fetcher
	Completer mcscrape.Completer
}

// NewMain returns a new instance of Main with defaults.
func NewMain() *Main {
	return &Main{Getenv: os.Getenv}
}

// Run executes the CLI with the given arguments.
func (m *Main) Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	cli := &CLI{}
	parser, err := kong.New(cli,
		kong.Name("mcscrape"),
		kong.Description("Extract the main content of web pages as HTML and Markdown"),
		kong.Writers(stdout, stderr),
		kong.Exit(func(int) {}),
	)
	if err != nil {
		return fmt.Errorf("failed to create parser: %w", err)
	}

	if len(args) == 0 {
		_, _ = parser.Parse([]string{"--help"})
		return fmt.Errorf("no URLs given. Run 'mcscrape --help' for usage")
	}
	if len(args) == 1 && (args[0] == "--help" || args[0] == "-h" || args[0] == "help") {
		_, _ = parser.Parse([]string{"--help"})
		return nil
	}

	if _, err := parser.Parse(args); err != nil {
		return err
	}

	if cli.Config != "" {
		fc, err := LoadFileConfig(cli.Config)
		if err != nil {
			return err
		}
		cli.merge(fc)
	}

	urls, err := cli.urls()
	if err != nil {
		return err
	}
	cfg, err := cli.config()
	if err != nil {
		return err
	}

	level := slog.LevelInfo
	if cli.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	completer, err := m.completer(ctx, cli.Provider, stderr)
	if err != nil {
		return err
	}
	if cli.Verbose {
		completer = mcslog.NewLoggingCompleter(completer, logger)
	}

	classifierOpts, err := classifierOptions(cli, logger)
	if err != nil {
		return err
	}

	normalizer, err := goquery.NewNormalizer(cfg.ExcludeSelectors...)
	if err != nil {
		return err
	}

	fetcher, err := m.fetcher(cli, cfg, stderr)
	if err != nil {
		return err
	}
	defer fetcher.Close()
	if cli.Verbose {
		fetcher = mcslog.NewLoggingFetcher(fetcher, logger)
	}

	var observers multiObserver
	var metrics *prometheus.Metrics
	if cli.MetricsFile != "" {
		metrics = prometheus.NewMetrics()
		observers = append(observers, metrics)
	}
	if cli.Verbose {
		observers = append(observers, mcslog.NewLoggingObserver(logger))
	}

	writers, closeWriters, err := m.writers(ctx, cli)
	if err != nil {
		return err
	}
	defer closeWriters()

	scraper := &scrape.Scraper{
		Fetcher:     fetcher,
		Normalizer:  normalizer,
		Segmenter:   goquery.NewSegmenter(),
		Classifier:  classify.NewClassifier(completer, cfg.Model, classifierOpts...),
		Metadata:    goquery.NewMetadataExtractor(),
		Renderer:    htmltomarkdown.NewRenderer(),
		PageTimeout: cfg.PageTimeout,
		OnRetry: func(url string, stage mcscrape.Stage, attempt int, err error) {
			logger.Warn("retry", "url", url, "stage", stage, "attempt", attempt, "err", err)
		},
	}
	if len(observers) > 0 {
		scraper.Observer = observers
	}
	if cli.RPS > 0 {
		scraper.RateLimiter = scrape.NewDomainLimiter(cli.RPS)
	}

	results := scraper.Run(ctx, urls, cfg.Concurrency)

	writeErr := writers.WriteAll(context.WithoutCancel(ctx), results)

	if metrics != nil {
		if err := metrics.WriteFile(cli.MetricsFile); err != nil {
			return err
		}
	}

	failed := 0
	for _, r := range results {
		if r.Failed() {
			failed++
		}
	}
	fmt.Fprintln(stdout, mcscrape.FormatSummary(results))
	fmt.Fprintf(stdout, "Scraped %d of %d URLs\n", len(results)-failed, len(results))

	if writeErr != nil {
		return fmt.Errorf("writing results: %w", writeErr)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d URLs failed", failed, len(results))
	}
	return nil
}

func defaultModel(provider string) (string, error) {
	switch provider {
	case providerGemini:
		return gemini.DefaultModel, nil
	case providerOpenAI:
		return openai.DefaultModel, nil
	default:
		return "", mcscrape.Errorf(mcscrape.EINVALID, "unknown provider %q (want gemini or openai)", provider)
	}
}

func (m *Main) completer(ctx context.Context, provider string, stderr io.Writer) (mcscrape.Completer, error) {
	if m.Completer != nil {
		return m.Completer, nil
	}

	switch provider {
	case providerOpenAI:
		apiKey := m.Getenv("OPENAI_API_KEY")
		if apiKey == "" {
			return nil, mcscrape.Errorf(mcscrape.EINVALID, "OPENAI_API_KEY not set")
		}
		return openai.NewCompleter(oai.NewClient(option.WithAPIKey(apiKey))), nil
	default:
		apiKey := m.Getenv("GEMINI_API_KEY")
		if apiKey == "" {
			return nil, mcscrape.Errorf(mcscrape.EINVALID, "GEMINI_API_KEY not set. Get a key at https://aistudio.google.com/apikey")
		}
		client, err := genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  apiKey,
			Backend: genai.BackendGeminiAPI,
		})
		if err != nil {
			fmt.Fprintln(stderr, "Hint: Check your GEMINI_API_KEY is valid")
			return nil, fmt.Errorf("failed to connect to Gemini API: %w", err)
		}
		return gemini.NewCompleter(client), nil
	}
}

func classifierOptions(cli *CLI, logger *slog.Logger) ([]classify.Option, error) {
	var opts []classify.Option

	switch cli.Fallback {
	case "", fallbackLargestBlock:
	case fallbackReadability:
		opts = append(opts, classify.WithFallback(&classify.ExtractorFallback{Extractor: readability.NewExtractor()}))
	case fallbackTrafilatura:
		opts = append(opts, classify.WithFallback(&classify.ExtractorFallback{Extractor: trafilatura.NewExtractor()}))
	default:
		return nil, mcscrape.Errorf(mcscrape.EINVALID, "unknown fallback %q", cli.Fallback)
	}

	if cli.MaxTokens > 0 {
		opts = append(opts, classify.WithMaxTokens(cli.MaxTokens))
	}

	if cli.Provider == providerGemini {
		counter, err := gemini.NewTokenCounter(cli.Model)
		if err != nil {
			logger.Warn("no tokenizer for model, estimating tokens", "model", cli.Model, "err", err)
		} else {
			opts = append(opts, classify.WithTokenCounter(counter))
		}
	}
	return opts, nil
}

func (m *Main) fetcher(cli *CLI, cfg mcscrape.Config, stderr io.Writer) (mcscrape.Fetcher, error) {
	if m.Fetcher != nil {
		return m.Fetcher, nil
	}

	if cli.NoJS {
		return mchttp.NewFetcher(
			mchttp.WithTimeout(cfg.PageTimeout),
			mchttp.WithProxy(cfg.Proxy),
		), nil
	}

	f, err := rod.NewFetcher(
		rod.WithProxy(cfg.Proxy),
		rod.WithQuiescence(cfg.Quiescence),
		rod.WithConcurrency(cfg.Concurrency),
	)
	if err != nil {
		fmt.Fprintln(stderr, "Hint: Chrome or Chromium must be installed, or use --no-js")
		return nil, fmt.Errorf("failed to start browser: %w", err)
	}
	return f, nil
}

// writers opens every configured output sink.
func (m *Main) writers(ctx context.Context, cli *CLI) (multiWriter, func(), error) {
	var writers multiWriter
	var closers []func() error
	closeAll := func() {
		for _, c := range closers {
			_ = c()
		}
	}

	encoder := etree.NewEncoder()

	if cli.Out != "" {
		writers = append(writers, fs.NewWriter(cli.Out, fs.WithTreeEncoder(encoder)))
	}

	if cli.DB != "" {
		db := sqlite.NewDB(cli.DB)
		if err := db.Open(); err != nil {
			return nil, nil, err
		}
		closers = append(closers, db.Close)
		store, err := sqlite.NewResultStore(ctx, db)
		if err != nil {
			closeAll()
			return nil, nil, err
		}
		writers = append(writers, store)
	}

	if cli.S3Bucket != "" {
		client, err := mcs3.NewClient(ctx, mcs3.Config{
			Bucket:   cli.S3Bucket,
			Region:   cli.S3Region,
			Endpoint: cli.S3Endpoint,
		})
		if err != nil {
			closeAll()
			return nil, nil, err
		}
		writers = append(writers, mcs3.NewWriter(client, cli.S3Bucket, cli.S3Prefix, mcs3.WithTreeEncoder(encoder)))
	}

	return writers, closeAll, nil
}
