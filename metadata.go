package mcscrape

// Metadata holds page-level SEO metadata read from the document head.
// Absent values are nil or empty; nothing is synthesized.
type Metadata struct {
	Title        *string           `json:"title"`
	Description  *string           `json:"description"`
	Keywords     []string          `json:"keywords"`
	CanonicalURL *string           `json:"canonicalUrl"`
	Language     *string           `json:"language"`
	OpenGraph    map[string]string `json:"openGraph"`
	TwitterCard  map[string]string `json:"twitterCard"`
}

// MetadataExtractor reads metadata from cleaned HTML.
// It never depends on the main-content classification.
type MetadataExtractor interface {
	ExtractMetadata(cleanedHTML string) (*Metadata, error)
}
