// Package html converts content node trees back into golang.org/x/net/html
// documents.
package html

import (
	"bytes"
	"sort"

	"github.com/fwojciec/mcscrape"
	nethtml "golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// allowedTags are emitted as-is. Any other tag degrades to a span so that
// custom elements and unsafe markup keep their text but lose their meaning.
var allowedTags = map[string]bool{
	"body": true, "div": true, "section": true, "article": true, "main": true,
	"header": true, "footer": true, "nav": true, "aside": true, "address": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"p": true, "blockquote": true, "pre": true, "code": true, "samp": true, "kbd": true,
	"ul": true, "ol": true, "li": true, "dl": true, "dt": true, "dd": true,
	"a": true, "span": true, "em": true, "strong": true, "b": true, "i": true, "u": true,
	"s": true, "del": true, "ins": true, "mark": true, "small": true, "sub": true, "sup": true,
	"abbr": true, "cite": true, "q": true, "time": true,
	"img": true, "picture": true, "figure": true, "figcaption": true,
	"br": true, "hr": true,
	"table": true, "caption": true, "thead": true, "tbody": true, "tfoot": true,
	"tr": true, "th": true, "td": true,
	"details": true, "summary": true,
}

// voidTags never have children.
var voidTags = map[string]bool{"img": true, "br": true, "hr": true}

// Build converts tree into an HTML node rooted at a <body> element.
// When mainOnly is set, nodes not marked as main content are skipped along
// with their descendants. Trees with structural defects return ERENDER.
func Build(tree *mcscrape.Tree, mainOnly bool) (*nethtml.Node, error) {
	if err := tree.Validate(); err != nil {
		return nil, mcscrape.WrapError(mcscrape.ERENDER, err, "malformed node tree: %s", mcscrape.ErrorMessage(err))
	}

	body := newElement("body", nil)
	root := tree.Root()
	if root == nil || (mainOnly && !root.IsMainContent()) {
		return body, nil
	}
	appendChildren(tree, body, root, mainOnly)
	return body, nil
}

func appendChildren(tree *mcscrape.Tree, parent *nethtml.Node, n *mcscrape.ContentNode, mainOnly bool) {
	for _, id := range n.Children {
		child := tree.Node(id)
		if mainOnly && !child.IsMainContent() {
			continue
		}
		if child.IsText() {
			parent.AppendChild(&nethtml.Node{Type: nethtml.TextNode, Data: child.Text})
			continue
		}

		tag := child.Tag
		attrs := child.Attributes
		if !allowedTags[tag] {
			tag = "span"
			attrs = nil
		}
		if tag == "caption" && n.Tag == "table" {
			continue
		}
		if tag == "table" {
			appendCaptions(tree, parent, child, mainOnly)
		}
		el := newElement(tag, attrs)
		parent.AppendChild(el)
		if !voidTags[tag] {
			appendChildren(tree, el, child, mainOnly)
		}
	}
}

// appendCaptions emits the captions of table as paragraphs preceding it, so
// the caption text keeps its reading position in Markdown output.
func appendCaptions(tree *mcscrape.Tree, parent *nethtml.Node, table *mcscrape.ContentNode, mainOnly bool) {
	for _, id := range table.Children {
		child := tree.Node(id)
		if child.IsText() || child.Tag != "caption" || (mainOnly && !child.IsMainContent()) {
			continue
		}
		p := newElement("p", nil)
		parent.AppendChild(p)
		appendChildren(tree, p, child, mainOnly)
	}
}

func newElement(tag string, attrs map[string]string) *nethtml.Node {
	el := &nethtml.Node{
		Type:     nethtml.ElementNode,
		Data:     tag,
		DataAtom: atom.Lookup([]byte(tag)),
	}
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		el.Attr = append(el.Attr, nethtml.Attribute{Key: k, Val: attrs[k]})
	}
	return el
}

// Render returns the inner HTML of the body built from tree.
func Render(tree *mcscrape.Tree, mainOnly bool) (string, error) {
	body, err := Build(tree, mainOnly)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	for c := body.FirstChild; c != nil; c = c.NextSibling {
		if err := nethtml.Render(&buf, c); err != nil {
			return "", mcscrape.WrapError(mcscrape.ERENDER, err, "failed to render HTML: %v", err)
		}
	}
	return buf.String(), nil
}

// RenderDocument returns a complete HTML document for tree.
func RenderDocument(tree *mcscrape.Tree, mainOnly bool) (string, error) {
	inner, err := Render(tree, mainOnly)
	if err != nil {
		return "", err
	}
	return "<!DOCTYPE html><html><head></head><body>" + inner + "</body></html>", nil
}
