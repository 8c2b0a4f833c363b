package mcscrape_test

import (
	"encoding/json"
	"testing"

	"github.com/fwojciec/mcscrape"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildArticleTree returns:
//
//	0 body
//	  1 nav
//	    2 a -> 3 "Home"
//	  4 main
//	    5 h1 -> 6 "Title"
//	    7 p  -> 8 "Hello world"
func buildArticleTree() *mcscrape.Tree {
	tree := mcscrape.NewTree("body", nil)
	nav := tree.AddElement(0, "nav", nil)
	a := tree.AddElement(nav, "a", map[string]string{"href": "https://example.com/"})
	tree.AddText(a, "Home")
	main := tree.AddElement(0, "main", nil)
	h1 := tree.AddElement(main, "h1", nil)
	tree.AddText(h1, "Title")
	p := tree.AddElement(main, "p", nil)
	tree.AddText(p, "Hello world")
	return tree
}

func TestTree_Construction(t *testing.T) {
	t.Parallel()

	tree := buildArticleTree()

	require.Equal(t, 9, tree.Len())
	for i, n := range tree.Nodes {
		assert.Equal(t, mcscrape.NodeID(i), n.ID)
	}
	assert.Equal(t, mcscrape.NoParent, tree.Root().Parent)
	assert.Equal(t, []mcscrape.NodeID{1, 4}, tree.Root().Children)
	assert.Equal(t, mcscrape.KindHeading, tree.Node(5).Kind)
	assert.Equal(t, mcscrape.KindText, tree.Node(6).Kind)
	assert.Nil(t, tree.Node(99))
	require.NoError(t, tree.Validate())
}

func TestTree_MarkMainContent(t *testing.T) {
	t.Parallel()

	t.Run("starts unmarked", func(t *testing.T) {
		t.Parallel()

		tree := buildArticleTree()

		assert.False(t, tree.HasMainContent())
		assert.Empty(t, tree.MainContentIDs())
	})

	t.Run("marks subtree and ancestors", func(t *testing.T) {
		t.Parallel()

		tree := buildArticleTree()
		tree.MarkSubtree(7)
		tree.MarkAncestors(7)

		assert.Equal(t, []mcscrape.NodeID{0, 4, 7, 8}, tree.MainContentIDs())
		assert.False(t, tree.Node(1).IsMainContent())
	})

	t.Run("ignores out of range ids", func(t *testing.T) {
		t.Parallel()

		tree := buildArticleTree()
		tree.MarkMainContent(42)
		tree.MarkSubtree(-3)

		assert.False(t, tree.HasMainContent())
	})
}

func TestTree_Text(t *testing.T) {
	t.Parallel()

	tree := buildArticleTree()

	assert.Equal(t, "Title Hello world", tree.TextContent(4))
	assert.Equal(t, "Hello world", tree.OwnText(7))
	assert.Equal(t, "", tree.OwnText(4))
	assert.Equal(t, "body>main>p", tree.Path(7))
	assert.Equal(t, "body>main>p>#text", tree.Path(8))
}

func TestTree_Walk(t *testing.T) {
	t.Parallel()

	tree := buildArticleTree()

	var visited []mcscrape.NodeID
	tree.Walk(func(n *mcscrape.ContentNode, _ int) bool {
		visited = append(visited, n.ID)
		return n.Tag != "nav"
	})

	assert.Equal(t, []mcscrape.NodeID{0, 1, 4, 5, 6, 7, 8}, visited)
}

func TestTree_Validate(t *testing.T) {
	t.Parallel()

	t.Run("dangling child", func(t *testing.T) {
		t.Parallel()

		tree := buildArticleTree()
		tree.Nodes[4].Children = append(tree.Nodes[4].Children, 50)

		assert.Equal(t, mcscrape.EINVALID, mcscrape.ErrorCode(tree.Validate()))
	})

	t.Run("cycle", func(t *testing.T) {
		t.Parallel()

		tree := buildArticleTree()
		tree.Nodes[7].Children = append(tree.Nodes[7].Children, 4)

		assert.Equal(t, mcscrape.EINVALID, mcscrape.ErrorCode(tree.Validate()))
	})

	t.Run("misnumbered node", func(t *testing.T) {
		t.Parallel()

		tree := buildArticleTree()
		tree.Nodes[3].ID = 30

		assert.Equal(t, mcscrape.EINVALID, mcscrape.ErrorCode(tree.Validate()))
	})
}

func TestTree_MarshalJSON(t *testing.T) {
	t.Parallel()

	tree := buildArticleTree()
	tree.MarkSubtree(4)
	tree.MarkAncestors(4)

	data, err := json.Marshal(tree)
	require.NoError(t, err)

	var root struct {
		ID            int    `json:"id"`
		Tag           string `json:"tag"`
		IsMainContent bool   `json:"is_main_content"`
		Children      []struct {
			Tag           string `json:"tag"`
			IsMainContent bool   `json:"is_main_content"`
			Children      []json.RawMessage
		} `json:"children"`
	}
	require.NoError(t, json.Unmarshal(data, &root))

	assert.Equal(t, "body", root.Tag)
	assert.True(t, root.IsMainContent)
	require.Len(t, root.Children, 2)
	assert.Equal(t, "nav", root.Children[0].Tag)
	assert.False(t, root.Children[0].IsMainContent)
	assert.True(t, root.Children[1].IsMainContent)
	assert.Len(t, root.Children[1].Children, 2)
}

func TestKindForTag(t *testing.T) {
	t.Parallel()

	assert.Equal(t, mcscrape.KindText, mcscrape.KindForTag(""))
	assert.Equal(t, mcscrape.KindTableCell, mcscrape.KindForTag("th"))
	assert.Equal(t, mcscrape.KindOther, mcscrape.KindForTag("my-widget"))
	assert.True(t, mcscrape.KindLink.IsInline())
	assert.False(t, mcscrape.KindParagraph.IsInline())
}
