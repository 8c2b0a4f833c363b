package goquery

import (
	"bytes"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"github.com/fwojciec/mcscrape"
	"golang.org/x/net/html"
	"golang.org/x/text/unicode/norm"
)

// Ensure Normalizer implements mcscrape.Normalizer.
var _ mcscrape.Normalizer = (*Normalizer)(nil)

// nonContentSelector matches elements that never carry readable content.
const nonContentSelector = `script, style, noscript, template, iframe, object, embed, svg, canvas, ` +
	`[hidden], [aria-hidden="true"], input[type="hidden"]`

// Normalizer strips non-content markup from raw HTML and rewrites
// relative references to absolute form.
type Normalizer struct {
	exclude []cascadia.Selector
}

// NewNormalizer creates a Normalizer. Elements matching any of the
// excludeSelectors are removed in addition to the built-in non-content set.
func NewNormalizer(excludeSelectors ...string) (*Normalizer, error) {
	n := &Normalizer{}
	for _, s := range excludeSelectors {
		sel, err := cascadia.Compile(s)
		if err != nil {
			return nil, mcscrape.Errorf(mcscrape.EINVALID, "invalid exclude selector %q: %v", s, err)
		}
		n.exclude = append(n.exclude, sel)
	}
	return n, nil
}

// Normalize implements mcscrape.Normalizer.
func (n *Normalizer) Normalize(rawHTML, baseURL string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return "", mcscrape.Errorf(mcscrape.EINVALID, "failed to parse HTML: %v", err)
	}

	base, err := documentBase(doc, baseURL)
	if err != nil {
		return "", err
	}

	doc.Find(nonContentSelector).Remove()
	for _, sel := range n.exclude {
		doc.FindMatcher(sel).Remove()
	}
	doc.Find("[style]").FilterFunction(func(_ int, s *goquery.Selection) bool {
		style, _ := s.Attr("style")
		return isHiddenStyle(style)
	}).Remove()

	doc.Find("[href]").Each(func(_ int, s *goquery.Selection) {
		rewriteURLAttr(s, "href", base)
	})
	doc.Find("[src]").Each(func(_ int, s *goquery.Selection) {
		rewriteURLAttr(s, "src", base)
	})
	doc.Find("[srcset]").RemoveAttr("srcset")

	for _, root := range doc.Nodes {
		cleanNodes(root)
	}

	var buf bytes.Buffer
	for _, root := range doc.Nodes {
		if err := html.Render(&buf, root); err != nil {
			return "", mcscrape.Errorf(mcscrape.EINTERNAL, "failed to render HTML: %v", err)
		}
	}
	return buf.String(), nil
}

// documentBase resolves the URL that relative references are resolved
// against. A <base href> wins over baseURL and is removed once consumed.
func documentBase(doc *goquery.Document, baseURL string) (*url.URL, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, mcscrape.Errorf(mcscrape.EINVALID, "invalid base URL: %v", err)
	}

	baseEl := doc.Find("base[href]").First()
	if href, ok := baseEl.Attr("href"); ok {
		if ref, err := url.Parse(strings.TrimSpace(href)); err == nil {
			base = base.ResolveReference(ref)
		}
	}
	doc.Find("base").Remove()
	return base, nil
}

// isHiddenStyle reports whether an inline style hides the element.
func isHiddenStyle(style string) bool {
	compact := strings.Join(strings.Fields(strings.ToLower(style)), "")
	return strings.Contains(compact, "display:none") || strings.Contains(compact, "visibility:hidden")
}

// rewriteURLAttr makes attr absolute, or drops it when the value is
// malformed or a script URL.
func rewriteURLAttr(s *goquery.Selection, attr string, base *url.URL) {
	raw, _ := s.Attr(attr)
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(strings.ToLower(raw), "javascript:") {
		s.RemoveAttr(attr)
		return
	}
	ref, err := url.Parse(raw)
	if err != nil {
		s.RemoveAttr(attr)
		return
	}
	s.SetAttr(attr, base.ResolveReference(ref).String())
}

// cleanNodes removes comments and NFC-normalizes text below n.
func cleanNodes(n *html.Node) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		switch c.Type {
		case html.CommentNode:
			n.RemoveChild(c)
		case html.TextNode:
			c.Data = norm.NFC.String(c.Data)
		default:
			cleanNodes(c)
		}
		c = next
	}
}
