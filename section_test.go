package mcscrape_test

import (
	"testing"

	"github.com/fwojciec/mcscrape"
	"github.com/stretchr/testify/assert"
)

// headingTree builds a body with one main element holding the given headings
// and a nav heading outside main content.
func headingTree(headings ...[2]string) *mcscrape.Tree {
	tree := mcscrape.NewTree("body", nil)
	nav := tree.AddElement(0, "nav", nil)
	navHeading := tree.AddElement(nav, "h2", nil)
	tree.AddText(navHeading, "Menu")
	main := tree.AddElement(0, "main", nil)
	for _, h := range headings {
		id := tree.AddElement(main, h[0], nil)
		tree.AddText(id, h[1])
	}
	tree.MarkSubtree(main)
	tree.MarkAncestors(main)
	return tree
}

func TestOutline(t *testing.T) {
	t.Parallel()

	t.Run("extracts main content headings only", func(t *testing.T) {
		t.Parallel()

		tree := headingTree([2]string{"h1", "Introduction"})

		sections := mcscrape.Outline(tree)

		assert.Len(t, sections, 1)
		assert.Equal(t, 1, sections[0].Level)
		assert.Equal(t, "Introduction", sections[0].Title)
		assert.Equal(t, "introduction", sections[0].Anchor)
	})

	t.Run("extracts H1 through H6 levels", func(t *testing.T) {
		t.Parallel()

		tree := headingTree(
			[2]string{"h1", "H1 Title"},
			[2]string{"h2", "H2 Title"},
			[2]string{"h3", "H3 Title"},
			[2]string{"h4", "H4 Title"},
			[2]string{"h5", "H5 Title"},
			[2]string{"h6", "H6 Title"},
		)

		sections := mcscrape.Outline(tree)

		assert.Len(t, sections, 6)
		for i, s := range sections {
			assert.Equal(t, i+1, s.Level)
		}
	})

	t.Run("generates URL-safe anchors", func(t *testing.T) {
		t.Parallel()

		tree := headingTree([2]string{"h1", "Getting Started With Go"})

		sections := mcscrape.Outline(tree)

		assert.Equal(t, "getting-started-with-go", sections[0].Anchor)
	})

	t.Run("handles duplicate headings with numeric suffixes", func(t *testing.T) {
		t.Parallel()

		tree := headingTree(
			[2]string{"h1", "Example"},
			[2]string{"h2", "Example"},
			[2]string{"h3", "Example"},
		)

		sections := mcscrape.Outline(tree)

		assert.Len(t, sections, 3)
		assert.Equal(t, "example", sections[0].Anchor)
		assert.Equal(t, "example-1", sections[1].Anchor)
		assert.Equal(t, "example-2", sections[2].Anchor)
	})

	t.Run("strips special characters from anchors", func(t *testing.T) {
		t.Parallel()

		tree := headingTree([2]string{"h2", "API Reference (v2.0)"})

		sections := mcscrape.Outline(tree)

		assert.Equal(t, "api-reference-v20", sections[0].Anchor)
	})

	t.Run("returns empty for unclassified tree", func(t *testing.T) {
		t.Parallel()

		tree := mcscrape.NewTree("body", nil)
		h := tree.AddElement(0, "h1", nil)
		tree.AddText(h, "Title")

		assert.Empty(t, mcscrape.Outline(tree))
	})
}
