package mcscrape

// ExtractResult holds the output of a readability-style content extractor.
type ExtractResult struct {
	// Title is the page title extracted from metadata.
	Title string

	// ContentHTML is the main content as clean HTML.
	ContentHTML string

	// TextContent is the plain text of ContentHTML.
	TextContent string
}

// Extractor extracts main content from HTML pages, removing boilerplate.
// Extractors back the fallback classifier when the model judgment is unusable.
type Extractor interface {
	// Extract processes HTML and returns the main content.
	// The content HTML has boilerplate removed but preserves structure.
	Extract(html string) (*ExtractResult, error)
}
