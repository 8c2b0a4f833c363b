package readability

import (
	"strings"

	"github.com/fwojciec/mcscrape"
	"github.com/go-shiori/go-readability"
)

// Ensure Extractor implements mcscrape.Extractor at compile time.
var _ mcscrape.Extractor = (*Extractor)(nil)

// Extractor wraps go-readability to extract main content from HTML.
type Extractor struct{}

// NewExtractor creates a new Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract processes HTML and returns the main content.
func (e *Extractor) Extract(rawHTML string) (*mcscrape.ExtractResult, error) {
	if strings.TrimSpace(rawHTML) == "" {
		return nil, mcscrape.Errorf(mcscrape.EINVALID, "empty HTML input")
	}

	article, err := readability.FromReader(strings.NewReader(rawHTML), nil)
	if err != nil {
		return nil, mcscrape.WrapError(mcscrape.EINTERNAL, err, "readability failed: %v", err)
	}

	return &mcscrape.ExtractResult{
		Title:       article.Title,
		ContentHTML: article.Content,
		TextContent: strings.TrimSpace(article.TextContent),
	}, nil
}
