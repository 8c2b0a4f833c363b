package mcscrape

import (
	"net/url"
	"strings"
)

// ExtractedLink is a hyperlink found inside main content.
type ExtractedLink struct {
	Href       string `json:"href"`
	AnchorText string `json:"anchorText"`
	IsExternal bool   `json:"isExternal"`
}

// ExtractLinks returns the links inside main-content nodes in document order.
// Only http, https and mailto links are kept. Duplicate hrefs keep the anchor
// text of their first occurrence. A link is external when its host differs
// from the page host; mailto links are always external.
func ExtractLinks(tree *Tree, pageURL string) []ExtractedLink {
	base, _ := url.Parse(pageURL)
	pageHost := ""
	if base != nil {
		pageHost = strings.ToLower(base.Hostname())
	}

	links := []ExtractedLink{}
	seen := make(map[string]bool)
	tree.Walk(func(n *ContentNode, _ int) bool {
		if !n.IsMainContent() || n.Tag != "a" {
			return true
		}
		href, ok := resolveLink(base, n.Attributes["href"])
		if !ok || seen[href.String()] {
			return true
		}
		seen[href.String()] = true
		links = append(links, ExtractedLink{
			Href:       href.String(),
			AnchorText: tree.TextContent(n.ID),
			IsExternal: href.Scheme == "mailto" || strings.ToLower(href.Hostname()) != pageHost,
		})
		return true
	})
	return links
}

func resolveLink(base *url.URL, raw string) (*url.URL, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, false
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, false
	}
	if base != nil {
		u = base.ResolveReference(u)
	}
	switch u.Scheme {
	case "http", "https":
		if u.Host == "" {
			return nil, false
		}
		return u, true
	case "mailto":
		return u, true
	}
	return nil, false
}
