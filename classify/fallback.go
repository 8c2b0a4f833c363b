package classify

import (
	"strings"
	"unicode/utf8"

	"github.com/fwojciec/mcscrape"
	"github.com/fwojciec/mcscrape/html"
	nethtml "golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Ensure fallbacks implement mcscrape.Fallback.
var (
	_ mcscrape.Fallback = LargestBlock{}
	_ mcscrape.Fallback = (*ExtractorFallback)(nil)
)

// LargestBlock selects the element whose direct paragraph-like children
// carry the most non-link text. Ties go to the lowest node ID.
type LargestBlock struct{}

// Select implements mcscrape.Fallback.
func (LargestBlock) Select(tree *mcscrape.Tree) []mcscrape.NodeID {
	best := mcscrape.NodeID(-1)
	bestScore := 0
	tree.Walk(func(n *mcscrape.ContentNode, _ int) bool {
		if n.IsText() || n.Kind == mcscrape.KindLink {
			return true
		}
		score := 0
		for _, c := range n.Children {
			child := tree.Node(c)
			if isParagraphLike(child.Kind) {
				score += nonLinkTextLength(tree, child)
			}
		}
		if score > bestScore {
			best, bestScore = n.ID, score
		}
		return true
	})
	if best < 0 {
		return nil
	}
	return []mcscrape.NodeID{best}
}

func isParagraphLike(k mcscrape.NodeKind) bool {
	switch k {
	case mcscrape.KindParagraph, mcscrape.KindText, mcscrape.KindQuote,
		mcscrape.KindCode, mcscrape.KindList:
		return true
	}
	return false
}

// nonLinkTextLength counts the runes of text below n outside of links.
func nonLinkTextLength(tree *mcscrape.Tree, n *mcscrape.ContentNode) int {
	if n.Kind == mcscrape.KindLink {
		return 0
	}
	if n.IsText() {
		return utf8.RuneCountInString(strings.TrimSpace(n.Text))
	}
	total := 0
	for _, c := range n.Children {
		if child := tree.Node(c); child != nil {
			total += nonLinkTextLength(tree, child)
		}
	}
	return total
}

// ExtractorFallback runs a boilerplate-removal extractor over the whole page
// and selects the elements whose text the extractor kept. Matching is done
// per block: an element counts when its whole text equals a block of the
// extractor output, so short labels that merely recur inside the article
// are not selected.
type ExtractorFallback struct {
	Extractor mcscrape.Extractor
}

// minContainedRunes is the shortest text node accepted on containment alone,
// for extractors that merge or split blocks.
const minContainedRunes = 40

// Select implements mcscrape.Fallback.
func (f *ExtractorFallback) Select(tree *mcscrape.Tree) []mcscrape.NodeID {
	doc, err := html.RenderDocument(tree, false)
	if err != nil {
		return nil
	}
	result, err := f.Extractor.Extract(doc)
	if err != nil || result == nil {
		return nil
	}
	kept := normalizeSpace(result.TextContent)
	blocks := extractedBlocks(result)
	if kept == "" && len(blocks) == 0 {
		return nil
	}

	var ids []mcscrape.NodeID
	seen := make(map[mcscrape.NodeID]bool)
	add := func(id mcscrape.NodeID) {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	tree.Walk(func(n *mcscrape.ContentNode, _ int) bool {
		if !n.IsText() {
			if n.ID == 0 {
				return true
			}
			if text := normalizeSpace(tree.TextContent(n.ID)); text != "" && blocks[text] {
				add(n.ID)
				return false
			}
			return true
		}
		text := normalizeSpace(n.Text)
		if text == "" {
			return true
		}
		if !blocks[text] && (utf8.RuneCountInString(text) < minContainedRunes || !strings.Contains(kept, text)) {
			return true
		}
		// Text directly under the root selects itself rather than the page.
		target := n.Parent
		if target == 0 {
			target = n.ID
		}
		add(target)
		return true
	})
	return ids
}

// extractedBlocks returns the normalized text of every element and text
// node in the extractor's HTML, plus each non-empty line of its plain text.
func extractedBlocks(result *mcscrape.ExtractResult) map[string]bool {
	blocks := make(map[string]bool)
	for _, line := range strings.Split(result.TextContent, "\n") {
		if text := normalizeSpace(line); text != "" {
			blocks[text] = true
		}
	}
	if result.ContentHTML == "" {
		return blocks
	}
	nodes, err := nethtml.ParseFragment(strings.NewReader(result.ContentHTML), &nethtml.Node{
		Type:     nethtml.ElementNode,
		Data:     "body",
		DataAtom: atom.Body,
	})
	if err != nil {
		return blocks
	}
	var visit func(n *nethtml.Node) string
	visit = func(n *nethtml.Node) string {
		if n.Type == nethtml.TextNode {
			if text := normalizeSpace(n.Data); text != "" {
				blocks[text] = true
			}
			return n.Data
		}
		var sb strings.Builder
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			sb.WriteString(visit(c))
		}
		if n.Type == nethtml.ElementNode {
			if text := normalizeSpace(sb.String()); text != "" {
				blocks[text] = true
			}
		}
		return sb.String()
	}
	for _, n := range nodes {
		visit(n)
	}
	return blocks
}

func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
