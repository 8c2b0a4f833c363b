package main_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/fwojciec/mcscrape"
	main "github.com/fwojciec/mcscrape/cmd/mcscrape"
	"github.com/fwojciec/mcscrape/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const articleHTML = `<html lang="en"><head><title>Release notes</title></head><body>
<nav><a href="/">Home</a> <a href="/about">About</a></nav>
<article><h1>Release notes</h1>
<p>This release adds streaming support, a new configuration loader and many smaller fixes that were requested by users over the last months.</p>
<p>Upgrading is straightforward: replace the binary and restart the service. Existing configuration files keep working without changes.</p>
</article>
<footer>Copyright</footer>
</body></html>`

// newTestMain returns a Main whose fetcher serves pages from the map and
// whose model always returns unusable output, so classification falls back
// to the heuristic.
func newTestMain(pages map[string]string) (*main.Main, *[]string) {
	var mu sync.Mutex
	var fetched []string

	m := main.NewMain()
	m.Getenv = func(string) string { return "" }
	m.Fetcher = &mock.Fetcher{
		FetchFn: func(ctx context.Context, url string) (*mcscrape.PageSnapshot, error) {
			mu.Lock()
			fetched = append(fetched, url)
			mu.Unlock()
			html, ok := pages[url]
			if !ok {
				return nil, mcscrape.WrapError(mcscrape.ENETWORK, &mcscrape.HTTPStatusError{StatusCode: 404}, "HTTP 404 for %s", url)
			}
			return &mcscrape.PageSnapshot{
				URL:        url,
				FinalURL:   url,
				StatusCode: 200,
				RawHTML:    html,
				FetchedAt:  time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
			}, nil
		},
		CloseFn: func() error { return nil },
	}
	m.Completer = &mock.Completer{
		CompleteFn: func(ctx context.Context, prompt mcscrape.Prompt, cfg mcscrape.ModelConfig) (string, error) {
			return "I am not sure.", nil
		},
	}
	return m, &fetched
}

func TestMain_Run_Help(t *testing.T) {
	t.Parallel()

	m := main.NewMain()
	var stdout, stderr bytes.Buffer

	err := m.Run(context.Background(), []string{"--help"}, &stdout, &stderr)

	require.NoError(t, err)
	help := stdout.String()
	assert.Contains(t, help, "Usage:")
	for _, flag := range []string{"--concurrency", "--provider", "--fallback", "--no-js", "--out", "--db", "--s3-bucket", "--metrics-file"} {
		assert.Contains(t, help, flag)
	}
}

func TestMain_Run_NoArgs(t *testing.T) {
	t.Parallel()

	m := main.NewMain()
	var stdout, stderr bytes.Buffer

	err := m.Run(context.Background(), []string{}, &stdout, &stderr)

	assert.Error(t, err)
}

func TestMain_Run_Scrape(t *testing.T) {
	t.Parallel()

	t.Run("writes every configured sink", func(t *testing.T) {
		t.Parallel()

		m, _ := newTestMain(map[string]string{"https://example.com/notes": articleHTML})
		dir := t.TempDir()
		out := filepath.Join(dir, "out")
		metricsFile := filepath.Join(dir, "metrics.prom")
		var stdout, stderr bytes.Buffer

		err := m.Run(context.Background(), []string{
			"--provider", "openai",
			"--out", out,
			"--db", filepath.Join(dir, "results.db"),
			"--metrics-file", metricsFile,
			"https://example.com/notes",
		}, &stdout, &stderr)

		require.NoError(t, err, stderr.String())
		assert.Contains(t, stdout.String(), "OK   https://example.com/notes (Release notes")
		assert.Contains(t, stdout.String(), "Scraped 1 of 1 URLs")

		md, err := os.ReadFile(filepath.Join(out, "https___example.com_notes.md"))
		require.NoError(t, err)
		assert.Contains(t, string(md), "source: https://example.com/notes")
		assert.Contains(t, string(md), "streaming support")
		assert.NotContains(t, string(md), "Copyright")

		for _, suffix := range []string{"_links.json", "_tree.json", "_tree.xml", "_metadata.json"} {
			assert.FileExists(t, filepath.Join(out, "https___example.com_notes"+suffix))
		}
		assert.FileExists(t, filepath.Join(dir, "results.db"))

		metrics, err := os.ReadFile(metricsFile)
		require.NoError(t, err)
		assert.Contains(t, string(metrics), "mcscrape_results_total")
	})

	t.Run("reports failed URLs and returns an error", func(t *testing.T) {
		t.Parallel()

		m, _ := newTestMain(map[string]string{"https://example.com/notes": articleHTML})
		out := t.TempDir()
		var stdout, stderr bytes.Buffer

		err := m.Run(context.Background(), []string{
			"--provider", "openai",
			"--out", out,
			"https://example.com/notes",
			"https://example.com/missing",
		}, &stdout, &stderr)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "1 of 2 URLs failed")
		assert.Contains(t, stdout.String(), "FAIL https://example.com/missing")
		assert.Contains(t, stdout.String(), "Scraped 1 of 2 URLs")
		assert.FileExists(t, filepath.Join(out, "https___example.com_missing_error.json"))
		assert.FileExists(t, filepath.Join(out, "https___example.com_notes.md"))
	})

	t.Run("writes results after interruption", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		m, _ := newTestMain(nil)
		m.Fetcher = &mock.Fetcher{
			FetchFn: func(ctx context.Context, url string) (*mcscrape.PageSnapshot, error) {
				cancel()
				return nil, mcscrape.WrapError(mcscrape.ETIMEOUT, context.Canceled, "fetching %s", url)
			},
			CloseFn: func() error { return nil },
		}
		out := t.TempDir()
		var stdout, stderr bytes.Buffer

		err := m.Run(ctx, []string{"--provider", "openai", "--out", out, "https://example.com/notes"}, &stdout, &stderr)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "1 of 1 URLs failed")
		assert.FileExists(t, filepath.Join(out, "https___example.com_notes_error.json"))
	})

	t.Run("reads URLs from a file", func(t *testing.T) {
		t.Parallel()

		m, fetched := newTestMain(map[string]string{
			"https://example.com/a": articleHTML,
			"https://example.com/b": articleHTML,
		})
		urlsFile := filepath.Join(t.TempDir(), "urls.txt")
		require.NoError(t, os.WriteFile(urlsFile, []byte("# docs\nhttps://example.com/a\n\n  https://example.com/b  \n"), 0644))
		var stdout, stderr bytes.Buffer

		err := m.Run(context.Background(), []string{"--provider", "openai", "--urls-file", urlsFile}, &stdout, &stderr)

		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"https://example.com/a", "https://example.com/b"}, *fetched)
	})

	t.Run("verbose logs to stderr", func(t *testing.T) {
		t.Parallel()

		m, _ := newTestMain(map[string]string{"https://example.com/notes": articleHTML})
		var stdout, stderr bytes.Buffer

		err := m.Run(context.Background(), []string{"--provider", "openai", "-v", "https://example.com/notes"}, &stdout, &stderr)

		require.NoError(t, err)
		assert.Contains(t, stderr.String(), "msg=fetch")
		assert.Contains(t, stderr.String(), "msg=complete")
		assert.Contains(t, stderr.String(), "msg=stage")
	})
}

func TestMain_Run_ConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("supplies URLs and outputs", func(t *testing.T) {
		t.Parallel()

		m, _ := newTestMain(map[string]string{"https://example.com/notes": articleHTML})
		dir := t.TempDir()
		out := filepath.Join(dir, "from-config")
		config := filepath.Join(dir, "mcscrape.yaml")
		require.NoError(t, os.WriteFile(config, []byte(strings.Join([]string{
			"urls:",
			"  - https://example.com/notes",
			"provider: openai",
			"concurrency: 2",
			"timeout: 30s",
			"temperature: 0.2",
			"out: " + out,
		}, "\n")), 0644))
		var stdout, stderr bytes.Buffer

		err := m.Run(context.Background(), []string{"--config", config}, &stdout, &stderr)

		require.NoError(t, err)
		assert.FileExists(t, filepath.Join(out, "https___example.com_notes.md"))
	})

	t.Run("flags take precedence", func(t *testing.T) {
		t.Parallel()

		m, _ := newTestMain(map[string]string{"https://example.com/notes": articleHTML})
		dir := t.TempDir()
		fromConfig := filepath.Join(dir, "from-config")
		fromFlag := filepath.Join(dir, "from-flag")
		config := filepath.Join(dir, "mcscrape.yaml")
		require.NoError(t, os.WriteFile(config, []byte("provider: openai\nout: "+fromConfig+"\n"), 0644))
		var stdout, stderr bytes.Buffer

		err := m.Run(context.Background(), []string{"--config", config, "--out", fromFlag, "https://example.com/notes"}, &stdout, &stderr)

		require.NoError(t, err)
		assert.FileExists(t, filepath.Join(fromFlag, "https___example.com_notes.md"))
		assert.NoDirExists(t, fromConfig)
	})

	t.Run("rejects malformed YAML", func(t *testing.T) {
		t.Parallel()

		m, _ := newTestMain(nil)
		config := filepath.Join(t.TempDir(), "bad.yaml")
		require.NoError(t, os.WriteFile(config, []byte("urls: [unterminated"), 0644))
		var stdout, stderr bytes.Buffer

		err := m.Run(context.Background(), []string{"--config", config}, &stdout, &stderr)

		assert.Equal(t, mcscrape.EINVALID, mcscrape.ErrorCode(err))
	})
}

func TestMain_Run_InvalidConfiguration(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		args []string
	}{
		{"unknown provider", []string{"--provider", "acme", "https://example.com/"}},
		{"unknown fallback", []string{"--provider", "openai", "--fallback", "magic", "https://example.com/"}},
		{"temperature out of range", []string{"--provider", "openai", "--temperature", "1.5", "https://example.com/"}},
		{"idle window above max wait", []string{"--provider", "openai", "--idle-window", "5s", "--max-wait", "1s", "https://example.com/"}},
		{"proxy credentials without host", []string{"--provider", "openai", "--proxy-user", "u", "--proxy-pass", "p", "https://example.com/"}},
		{"missing URL file", []string{"--provider", "openai", "--urls-file", "/nonexistent/urls.txt"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			m, fetched := newTestMain(nil)
			var stdout, stderr bytes.Buffer

			err := m.Run(context.Background(), tt.args, &stdout, &stderr)

			assert.Equal(t, mcscrape.EINVALID, mcscrape.ErrorCode(err))
			assert.Empty(t, *fetched)
		})
	}
}

func TestMain_Run_MissingAPIKey(t *testing.T) {
	t.Parallel()

	for _, tc := range []struct {
		provider string
		envVar   string
	}{
		{"gemini", "GEMINI_API_KEY"},
		{"openai", "OPENAI_API_KEY"},
	} {
		t.Run(tc.provider, func(t *testing.T) {
			t.Parallel()

			m, _ := newTestMain(nil)
			m.Completer = nil
			var stdout, stderr bytes.Buffer

			err := m.Run(context.Background(), []string{"--provider", tc.provider, "https://example.com/"}, &stdout, &stderr)

			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.envVar)
		})
	}
}
