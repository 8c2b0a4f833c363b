package trafilatura

import (
	"bytes"
	"strings"

	"github.com/fwojciec/mcscrape"
	"github.com/markusmobius/go-trafilatura"
	"golang.org/x/net/html"
)

// Ensure Extractor implements mcscrape.Extractor at compile time.
var _ mcscrape.Extractor = (*Extractor)(nil)

// Extractor wraps go-trafilatura to extract main content from HTML.
type Extractor struct {
	opts trafilatura.Options
}

// NewExtractor creates a new Extractor with the readability and
// dom-distiller fallbacks enabled.
func NewExtractor() *Extractor {
	return &Extractor{opts: trafilatura.Options{
		EnableFallback: true,
	}}
}

// Extract processes HTML and returns the main content.
func (e *Extractor) Extract(rawHTML string) (*mcscrape.ExtractResult, error) {
	if strings.TrimSpace(rawHTML) == "" {
		return nil, mcscrape.Errorf(mcscrape.EINVALID, "empty HTML input")
	}

	result, err := trafilatura.Extract(strings.NewReader(rawHTML), e.opts)
	if err != nil {
		return nil, mcscrape.WrapError(mcscrape.EINTERNAL, err, "trafilatura failed: %v", err)
	}

	var contentHTML string
	if result.ContentNode != nil {
		contentHTML, err = renderNode(result.ContentNode)
		if err != nil {
			return nil, err
		}
	}

	return &mcscrape.ExtractResult{
		Title:       result.Metadata.Title,
		ContentHTML: contentHTML,
		TextContent: strings.TrimSpace(result.ContentText),
	}, nil
}

// renderNode converts an html.Node to a string.
func renderNode(n *html.Node) (string, error) {
	var buf bytes.Buffer
	if err := html.Render(&buf, n); err != nil {
		return "", mcscrape.WrapError(mcscrape.EINTERNAL, err, "failed to render content: %v", err)
	}
	return buf.String(), nil
}
