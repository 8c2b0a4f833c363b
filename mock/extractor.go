package mock

import "github.com/fwojciec/mcscrape"

var _ mcscrape.Extractor = (*Extractor)(nil)

// Extractor is a mock implementation of mcscrape.Extractor.
type Extractor struct {
	ExtractFn func(html string) (*mcscrape.ExtractResult, error)
}

func (e *Extractor) Extract(html string) (*mcscrape.ExtractResult, error) {
	return e.ExtractFn(html)
}

var _ mcscrape.MetadataExtractor = (*MetadataExtractor)(nil)

// MetadataExtractor is a mock implementation of mcscrape.MetadataExtractor.
type MetadataExtractor struct {
	ExtractMetadataFn func(cleanedHTML string) (*mcscrape.Metadata, error)
}

func (e *MetadataExtractor) ExtractMetadata(cleanedHTML string) (*mcscrape.Metadata, error) {
	return e.ExtractMetadataFn(cleanedHTML)
}
