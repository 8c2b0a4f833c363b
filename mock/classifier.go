package mock

import (
	"context"

	"github.com/fwojciec/mcscrape"
)

var _ mcscrape.Classifier = (*Classifier)(nil)

// Classifier is a mock implementation of mcscrape.Classifier.
type Classifier struct {
	ClassifyFn func(ctx context.Context, tree *mcscrape.Tree) (*mcscrape.Classification, error)
}

func (c *Classifier) Classify(ctx context.Context, tree *mcscrape.Tree) (*mcscrape.Classification, error) {
	return c.ClassifyFn(ctx, tree)
}

var _ mcscrape.Completer = (*Completer)(nil)

// Completer is a mock implementation of mcscrape.Completer.
type Completer struct {
	CompleteFn func(ctx context.Context, prompt mcscrape.Prompt, cfg mcscrape.ModelConfig) (string, error)
}

func (c *Completer) Complete(ctx context.Context, prompt mcscrape.Prompt, cfg mcscrape.ModelConfig) (string, error) {
	return c.CompleteFn(ctx, prompt, cfg)
}

var _ mcscrape.Fallback = (*Fallback)(nil)

// Fallback is a mock implementation of mcscrape.Fallback.
type Fallback struct {
	SelectFn func(tree *mcscrape.Tree) []mcscrape.NodeID
}

func (f *Fallback) Select(tree *mcscrape.Tree) []mcscrape.NodeID {
	return f.SelectFn(tree)
}
