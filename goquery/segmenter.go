package goquery

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/fwojciec/mcscrape"
	"golang.org/x/net/html"
)

// Ensure Segmenter implements mcscrape.Segmenter.
var _ mcscrape.Segmenter = (*Segmenter)(nil)

// keptAttributes is the attribute whitelist copied onto content nodes.
var keptAttributes = map[string]bool{
	"href":       true,
	"src":        true,
	"alt":        true,
	"title":      true,
	"id":         true,
	"class":      true,
	"role":       true,
	"aria-label": true,
	"lang":       true,
}

// skippedTags never become content nodes.
var skippedTags = map[string]bool{
	"script": true, "style": true, "noscript": true, "template": true,
	"iframe": true, "object": true, "embed": true, "svg": true, "canvas": true,
	"input": true, "select": true, "textarea": true, "button": true,
	"option": true, "head": true, "link": true, "meta": true,
}

// collapsibleTags are wrappers replaced by their only child element.
var collapsibleTags = map[string]bool{
	"div": true, "span": true, "font": true, "center": true,
}

// Segmenter builds content node trees from cleaned HTML.
type Segmenter struct{}

// NewSegmenter creates a new Segmenter.
func NewSegmenter() *Segmenter {
	return &Segmenter{}
}

// Segment implements mcscrape.Segmenter.
func (s *Segmenter) Segment(cleanedHTML string) (*mcscrape.Tree, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(cleanedHTML))
	if err != nil {
		return nil, mcscrape.Errorf(mcscrape.EINVALID, "failed to parse HTML: %v", err)
	}

	body := doc.Find("body").First()
	if body.Length() == 0 {
		return nil, mcscrape.Errorf(mcscrape.EINVALID, "document has no body")
	}

	bodyNode := body.Nodes[0]
	tree := mcscrape.NewTree("body", filterAttributes(bodyNode))
	appendChildren(tree, 0, bodyNode, false)
	return tree, nil
}

// appendChildren adds the children of n under parent in document order.
func appendChildren(tree *mcscrape.Tree, parent mcscrape.NodeID, n *html.Node, preformatted bool) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		switch c.Type {
		case html.TextNode:
			appendText(tree, parent, c, preformatted)
		case html.ElementNode:
			appendElement(tree, parent, c, preformatted)
		}
	}
}

func appendElement(tree *mcscrape.Tree, parent mcscrape.NodeID, n *html.Node, preformatted bool) {
	n = collapseWrappers(n)
	tag := strings.ToLower(n.Data)
	if skippedTags[tag] {
		return
	}
	id := tree.AddElement(parent, tag, filterAttributes(n))
	appendChildren(tree, id, n, preformatted || tag == "pre")
}

func appendText(tree *mcscrape.Tree, parent mcscrape.NodeID, n *html.Node, preformatted bool) {
	if preformatted {
		if n.Data != "" {
			tree.AddText(parent, n.Data)
		}
		return
	}

	text := collapseWhitespace(n.Data)
	if strings.TrimSpace(text) == "" {
		if separatesInline(n) {
			tree.AddText(parent, " ")
		}
		return
	}
	tree.AddText(parent, text)
}

// collapseWrappers follows single-child wrapper elements down to the
// element they wrap.
func collapseWrappers(n *html.Node) *html.Node {
	for collapsibleTags[strings.ToLower(n.Data)] {
		only := onlyChildElement(n)
		if only == nil {
			return n
		}
		n = only
	}
	return n
}

// onlyChildElement returns the single child element of n, or nil if n has
// any other element or non-whitespace text.
func onlyChildElement(n *html.Node) *html.Node {
	var only *html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		switch c.Type {
		case html.ElementNode:
			if only != nil {
				return nil
			}
			only = c
		case html.TextNode:
			if strings.TrimSpace(c.Data) != "" {
				return nil
			}
		}
	}
	return only
}

// separatesInline reports whether a whitespace-only text node sits between
// two inline siblings, where dropping it would glue words together.
func separatesInline(n *html.Node) bool {
	return isInlineSibling(n.PrevSibling) && isInlineSibling(n.NextSibling)
}

func isInlineSibling(n *html.Node) bool {
	if n == nil {
		return false
	}
	switch n.Type {
	case html.TextNode:
		return strings.TrimSpace(n.Data) != ""
	case html.ElementNode:
		tag := strings.ToLower(n.Data)
		return !skippedTags[tag] && mcscrape.KindForTag(tag).IsInline()
	}
	return false
}

func collapseWhitespace(s string) string {
	var sb strings.Builder
	space := false
	for _, r := range s {
		if r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == '\f' {
			if !space {
				sb.WriteByte(' ')
				space = true
			}
			continue
		}
		sb.WriteRune(r)
		space = false
	}
	return sb.String()
}

func filterAttributes(n *html.Node) map[string]string {
	var attrs map[string]string
	for _, a := range n.Attr {
		key := strings.ToLower(a.Key)
		if a.Namespace != "" || !keptAttributes[key] {
			continue
		}
		if attrs == nil {
			attrs = make(map[string]string)
		}
		attrs[key] = a.Val
	}
	return attrs
}
