// Package mcscrape extracts the main content and SEO metadata from web pages,
// including pages that need JavaScript to render. Each page is rendered in a
// headless browser, cleaned, segmented into a node tree, classified into main
// content and boilerplate by a language model, and rendered as HTML, Markdown
// and a structured node tree.
//
// This package contains domain types and interfaces following Ben Johnson's
// Standard Package Layout. Implementations live in subdirectories named
// after their primary dependency (e.g., rod/, goquery/, gemini/).
package mcscrape
