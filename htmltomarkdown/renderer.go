package htmltomarkdown

import (
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"github.com/fwojciec/mcscrape"
	"github.com/fwojciec/mcscrape/html"
)

// Ensure Renderer implements mcscrape.Renderer at compile time.
var _ mcscrape.Renderer = (*Renderer)(nil)

// Renderer serializes main content as HTML and converts it to Markdown
// with html-to-markdown.
type Renderer struct {
	conv *converter.Converter
}

// NewRenderer creates a new Renderer.
func NewRenderer() *Renderer {
	conv := converter.NewConverter(
		converter.WithPlugins(
			base.NewBasePlugin(),
			commonmark.NewCommonmarkPlugin(),
			table.NewTablePlugin(),
		),
	)
	return &Renderer{conv: conv}
}

// Render implements mcscrape.Renderer.
func (r *Renderer) Render(tree *mcscrape.Tree) (string, string, error) {
	out, err := html.Render(tree, true)
	if err != nil {
		return "", "", err
	}
	if strings.TrimSpace(out) == "" {
		return "", "", nil
	}

	md, err := r.conv.ConvertString(out)
	if err != nil {
		return "", "", mcscrape.WrapError(mcscrape.ERENDER, err, "markdown conversion failed: %v", err)
	}

	return out, strings.TrimSpace(md), nil
}
