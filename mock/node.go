package mock

import "github.com/fwojciec/mcscrape"

var _ mcscrape.Normalizer = (*Normalizer)(nil)

// Normalizer is a mock implementation of mcscrape.Normalizer.
type Normalizer struct {
	NormalizeFn func(rawHTML, baseURL string) (string, error)
}

func (n *Normalizer) Normalize(rawHTML, baseURL string) (string, error) {
	return n.NormalizeFn(rawHTML, baseURL)
}

var _ mcscrape.Segmenter = (*Segmenter)(nil)

// Segmenter is a mock implementation of mcscrape.Segmenter.
type Segmenter struct {
	SegmentFn func(cleanedHTML string) (*mcscrape.Tree, error)
}

func (s *Segmenter) Segment(cleanedHTML string) (*mcscrape.Tree, error) {
	return s.SegmentFn(cleanedHTML)
}
