package classify_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/fwojciec/mcscrape"
	"github.com/fwojciec/mcscrape/classify"
	"github.com/fwojciec/mcscrape/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLargestBlock_Select(t *testing.T) {
	t.Parallel()

	t.Run("picks element with most paragraph text", func(t *testing.T) {
		t.Parallel()

		tree := pageTree()

		assert.Equal(t, []mcscrape.NodeID{4}, classify.LargestBlock{}.Select(tree))
	})

	t.Run("ignores link text", func(t *testing.T) {
		t.Parallel()

		tree := mcscrape.NewTree("body", nil)
		nav := tree.AddElement(0, "nav", nil)
		p := tree.AddElement(nav, "p", nil)
		a := tree.AddElement(p, "a", nil)
		tree.AddText(a, strings.Repeat("navigation ", 20))
		article := tree.AddElement(0, "article", nil)
		ap := tree.AddElement(article, "p", nil)
		tree.AddText(ap, "Short real text.")

		assert.Equal(t, []mcscrape.NodeID{article}, classify.LargestBlock{}.Select(tree))
	})

	t.Run("breaks ties by lowest id", func(t *testing.T) {
		t.Parallel()

		tree := mcscrape.NewTree("body", nil)
		first := tree.AddElement(0, "section", nil)
		p1 := tree.AddElement(first, "p", nil)
		tree.AddText(p1, "same")
		second := tree.AddElement(0, "section", nil)
		p2 := tree.AddElement(second, "p", nil)
		tree.AddText(p2, "same")

		assert.Equal(t, []mcscrape.NodeID{first}, classify.LargestBlock{}.Select(tree))
	})

	t.Run("returns nothing for a tree without text", func(t *testing.T) {
		t.Parallel()

		tree := mcscrape.NewTree("body", nil)
		tree.AddElement(0, "img", nil)

		assert.Empty(t, classify.LargestBlock{}.Select(tree))
	})
}

func TestExtractorFallback_Select(t *testing.T) {
	t.Parallel()

	t.Run("selects parents of extracted text", func(t *testing.T) {
		t.Parallel()

		var gotHTML string
		ext := &mock.Extractor{ExtractFn: func(html string) (*mcscrape.ExtractResult, error) {
			gotHTML = html
			return &mcscrape.ExtractResult{TextContent: "Title\n\nA long paragraph of   article text."}, nil
		}}

		ids := (&classify.ExtractorFallback{Extractor: ext}).Select(pageTree())

		assert.Equal(t, []mcscrape.NodeID{5, 7}, ids)
		assert.Contains(t, gotHTML, "<nav>")
		assert.Contains(t, gotHTML, "<body>")
	})

	t.Run("returns nothing when extractor fails", func(t *testing.T) {
		t.Parallel()

		ext := &mock.Extractor{ExtractFn: func(string) (*mcscrape.ExtractResult, error) {
			return nil, errors.New("boom")
		}}

		assert.Empty(t, (&classify.ExtractorFallback{Extractor: ext}).Select(pageTree()))
	})

	t.Run("root level text selects itself", func(t *testing.T) {
		t.Parallel()

		tree := mcscrape.NewTree("body", nil)
		tree.AddText(0, "Loose text")
		nav := tree.AddElement(0, "nav", nil)
		tree.AddText(nav, "Menu")
		ext := &mock.Extractor{ExtractFn: func(string) (*mcscrape.ExtractResult, error) {
			return &mcscrape.ExtractResult{TextContent: "Loose text"}, nil
		}}

		ids := (&classify.ExtractorFallback{Extractor: ext}).Select(tree)

		require.Equal(t, []mcscrape.NodeID{1}, ids)
	})

	t.Run("ignores short labels that recur in the article", func(t *testing.T) {
		t.Parallel()

		tree := mcscrape.NewTree("body", nil)
		nav := tree.AddElement(0, "nav", nil)
		ul := tree.AddElement(nav, "ul", nil)
		for _, label := range []string{"Home", "Blog", "Tips"} {
			li := tree.AddElement(ul, "li", nil)
			a := tree.AddElement(li, "a", map[string]string{"href": "https://example.com/" + strings.ToLower(label)})
			tree.AddText(a, label)
		}
		article := tree.AddElement(0, "article", nil)
		p := tree.AddElement(article, "p", nil)
		tree.AddText(p, "Back Home we keep a Blog full of Tips for readers.")
		ext := &mock.Extractor{ExtractFn: func(string) (*mcscrape.ExtractResult, error) {
			return &mcscrape.ExtractResult{
				ContentHTML: "<div><p>Back Home we keep a Blog full of Tips for readers.</p></div>",
				TextContent: "Back Home we keep a Blog full of Tips for readers.",
			}, nil
		}}

		ids := (&classify.ExtractorFallback{Extractor: ext}).Select(tree)

		require.Equal(t, []mcscrape.NodeID{article}, ids)
		for _, id := range ids {
			tree.MarkSubtree(id)
			tree.MarkAncestors(id)
		}
		tree.Walk(func(n *mcscrape.ContentNode, _ int) bool {
			if n.Kind == mcscrape.KindLink {
				assert.False(t, n.IsMainContent(), "nav link %d marked as main content", n.ID)
			}
			return true
		})
	})

	t.Run("matches blocks from extracted html", func(t *testing.T) {
		t.Parallel()

		ext := &mock.Extractor{ExtractFn: func(string) (*mcscrape.ExtractResult, error) {
			return &mcscrape.ExtractResult{
				ContentHTML: "<article><h1>Title</h1><p>A long paragraph of article text.<a href=\"https://example.com/x\">link</a></p></article>",
				TextContent: "Title A long paragraph of article text.link",
			}, nil
		}}

		ids := (&classify.ExtractorFallback{Extractor: ext}).Select(pageTree())

		assert.Equal(t, []mcscrape.NodeID{4}, ids)
	})
}
