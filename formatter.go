package mcscrape

import (
	"fmt"
	"sort"
	"strings"
)

// FormatSummary formats one line per result for display, sorted by URL.
// Successful results show the title (or final URL) and the Markdown size;
// failed results show the error kind, stage and message.
func FormatSummary(results map[string]*ScrapeResult) string {
	if len(results) == 0 {
		return ""
	}

	urls := make([]string, 0, len(results))
	for u := range results {
		urls = append(urls, u)
	}
	sort.Strings(urls)

	lines := make([]string, 0, len(urls))
	for _, u := range urls {
		r := results[u]
		if r.Error != nil {
			lines = append(lines, fmt.Sprintf("FAIL %s [%s at %s] %s", u, r.Error.Kind, r.Error.Stage, r.Error.Message))
			continue
		}
		header := r.FinalURL
		if r.Metadata != nil && r.Metadata.Title != nil && *r.Metadata.Title != "" {
			header = *r.Metadata.Title
		}
		lines = append(lines, fmt.Sprintf("OK   %s (%s, %d bytes, %d links)", u, header, len(r.MainContentMarkdown), len(r.Links)))
	}

	return strings.Join(lines, "\n")
}
