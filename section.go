package mcscrape

import (
	"strconv"
	"strings"
	"unicode"
)

// Section represents a heading in the main content.
type Section struct {
	Level  int    `json:"level"`
	Title  string `json:"title"`
	Anchor string `json:"anchor"`
}

// Outline returns the main-content headings (H1-H6) in document order.
// It generates URL-safe anchors and handles duplicates with numeric suffixes.
func Outline(tree *Tree) []Section {
	var sections []Section
	anchorCounts := make(map[string]int)

	tree.Walk(func(n *ContentNode, _ int) bool {
		if !n.IsMainContent() || n.Kind != KindHeading {
			return true
		}
		title := tree.TextContent(n.ID)
		if title == "" {
			return false
		}
		level, _ := strconv.Atoi(strings.TrimPrefix(n.Tag, "h"))
		baseAnchor := generateAnchor(title)

		// Handle duplicates
		anchor := baseAnchor
		if count, exists := anchorCounts[baseAnchor]; exists {
			anchor = baseAnchor + "-" + strconv.Itoa(count)
			anchorCounts[baseAnchor]++
		} else {
			anchorCounts[baseAnchor] = 1
		}

		sections = append(sections, Section{
			Level:  level,
			Title:  title,
			Anchor: anchor,
		})
		return false
	})

	return sections
}

// generateAnchor creates a URL-safe anchor from a title.
// Converts to lowercase, replaces spaces with hyphens, removes special chars.
func generateAnchor(title string) string {
	var sb strings.Builder
	prevHyphen := false

	for _, r := range strings.ToLower(title) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			sb.WriteRune(r)
			prevHyphen = false
		} else if unicode.IsSpace(r) || r == '-' {
			if !prevHyphen && sb.Len() > 0 {
				sb.WriteRune('-')
				prevHyphen = true
			}
		}
	}

	return strings.TrimSuffix(sb.String(), "-")
}
