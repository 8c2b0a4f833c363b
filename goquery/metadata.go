package goquery

import (
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/fwojciec/mcscrape"
)

// Ensure MetadataExtractor implements mcscrape.MetadataExtractor.
var _ mcscrape.MetadataExtractor = (*MetadataExtractor)(nil)

// MetadataExtractor reads SEO metadata from the document head.
type MetadataExtractor struct{}

// NewMetadataExtractor creates a new MetadataExtractor.
func NewMetadataExtractor() *MetadataExtractor {
	return &MetadataExtractor{}
}

// ExtractMetadata implements mcscrape.MetadataExtractor.
// Open Graph and Twitter card keys are stored without their prefix,
// e.g. "og:title" becomes OpenGraph["title"]. The first occurrence wins.
func (e *MetadataExtractor) ExtractMetadata(cleanedHTML string) (*mcscrape.Metadata, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(cleanedHTML))
	if err != nil {
		return nil, mcscrape.Errorf(mcscrape.EINVALID, "failed to parse HTML: %v", err)
	}

	head := doc.Find("head")
	md := &mcscrape.Metadata{
		OpenGraph:   map[string]string{},
		TwitterCard: map[string]string{},
	}

	md.Title = nonEmpty(head.Find("title").First().Text())

	if lang, ok := doc.Find("html").First().Attr("lang"); ok {
		md.Language = nonEmpty(lang)
	}

	head.Find("link[rel][href]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		rel, _ := s.Attr("rel")
		for _, token := range strings.Fields(strings.ToLower(rel)) {
			if token == "canonical" {
				href, _ := s.Attr("href")
				md.CanonicalURL = nonEmpty(href)
				return false
			}
		}
		return true
	})

	var keywords []string
	head.Find("meta").Each(func(_ int, s *goquery.Selection) {
		content, ok := s.Attr("content")
		if !ok {
			return
		}
		name := strings.ToLower(strings.TrimSpace(s.AttrOr("name", "")))
		property := strings.ToLower(strings.TrimSpace(s.AttrOr("property", "")))

		switch {
		case name == "description":
			if md.Description == nil {
				md.Description = nonEmpty(content)
			}
		case name == "keywords":
			keywords = append(keywords, strings.Split(content, ",")...)
		case strings.HasPrefix(property, "og:"):
			setOnce(md.OpenGraph, strings.TrimPrefix(property, "og:"), content)
		case strings.HasPrefix(name, "twitter:"):
			setOnce(md.TwitterCard, strings.TrimPrefix(name, "twitter:"), content)
		case strings.HasPrefix(property, "twitter:"):
			setOnce(md.TwitterCard, strings.TrimPrefix(property, "twitter:"), content)
		}
	})
	md.Keywords = keywordSet(keywords)

	return md, nil
}

func nonEmpty(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func setOnce(m map[string]string, key, value string) {
	if key == "" {
		return
	}
	if _, ok := m[key]; !ok {
		m[key] = strings.TrimSpace(value)
	}
}

// keywordSet trims, deduplicates and sorts keywords.
func keywordSet(raw []string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, k := range raw {
		k = strings.TrimSpace(k)
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
