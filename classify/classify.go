// Package classify selects the main content of a segmented page with a
// language model, falling back to deterministic heuristics when the model
// output cannot be used.
package classify

import (
	"context"
	"errors"

	"github.com/fwojciec/mcscrape"
)

// DefaultMaxTokens bounds the size of a single classification prompt.
const DefaultMaxTokens = 60000

// Ensure Classifier implements mcscrape.Classifier.
var _ mcscrape.Classifier = (*Classifier)(nil)

// Classifier implements mcscrape.Classifier on top of a mcscrape.Completer.
type Classifier struct {
	completer mcscrape.Completer
	model     mcscrape.ModelConfig
	counter   mcscrape.TokenCounter
	maxTokens int
	fallback  mcscrape.Fallback
}

// Option configures a Classifier.
type Option func(*Classifier)

// WithTokenCounter sets the counter used to size prompt windows.
func WithTokenCounter(tc mcscrape.TokenCounter) Option {
	return func(c *Classifier) {
		c.counter = tc
	}
}

// WithMaxTokens sets the per-window prompt token budget.
func WithMaxTokens(n int) Option {
	return func(c *Classifier) {
		if n > 0 {
			c.maxTokens = n
		}
	}
}

// WithFallback sets the heuristic used when the model output is invalid.
func WithFallback(f mcscrape.Fallback) Option {
	return func(c *Classifier) {
		c.fallback = f
	}
}

// NewClassifier creates a Classifier. By default it counts tokens with
// ApproxCounter, allows DefaultMaxTokens per window and falls back to
// LargestBlock.
func NewClassifier(completer mcscrape.Completer, model mcscrape.ModelConfig, opts ...Option) *Classifier {
	c := &Classifier{
		completer: completer,
		model:     model,
		counter:   ApproxCounter{},
		maxTokens: DefaultMaxTokens,
		fallback:  LargestBlock{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Classify implements mcscrape.Classifier.
func (c *Classifier) Classify(ctx context.Context, tree *mcscrape.Tree) (*mcscrape.Classification, error) {
	if tree.Len() == 0 {
		return &mcscrape.Classification{Method: mcscrape.MethodModel}, nil
	}

	windows, err := c.windows(ctx, tree)
	if err != nil {
		return nil, err
	}

	var selected []mcscrape.NodeID
	for _, w := range windows {
		ids, err := c.judge(ctx, tree, w)
		if mcscrape.ErrorCode(err) == mcscrape.EINVALIDRESPONSE {
			return c.applyFallback(tree, len(windows), err)
		}
		if err != nil {
			return nil, err
		}
		selected = append(selected, ids...)
	}

	apply(tree, selected)
	return &mcscrape.Classification{
		Method:   mcscrape.MethodModel,
		Windows:  len(windows),
		Selected: dedupe(selected),
	}, nil
}

// judge runs one window through the model and returns the kept node IDs
// that exist in the tree.
func (c *Classifier) judge(ctx context.Context, tree *mcscrape.Tree, w window) ([]mcscrape.NodeID, error) {
	out, err := c.completer.Complete(ctx, mcscrape.Prompt{
		System: SystemPrompt,
		User:   w.prompt(),
	}, c.model)
	if err != nil {
		return nil, classifyContextError(ctx, err)
	}

	ids, err := ParseResponse(out)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}

	known := ids[:0]
	for _, id := range ids {
		if tree.Node(id) != nil {
			known = append(known, id)
		}
	}
	if len(known) == 0 {
		return nil, mcscrape.Errorf(mcscrape.EINVALIDRESPONSE, "response references only unknown node ids %v", ids)
	}
	return known, nil
}

func (c *Classifier) applyFallback(tree *mcscrape.Tree, windows int, cause error) (*mcscrape.Classification, error) {
	if c.fallback == nil {
		return nil, cause
	}
	selected := c.fallback.Select(tree)
	if len(selected) == 0 {
		return nil, mcscrape.WrapError(mcscrape.EINVALIDRESPONSE, cause,
			"model response unusable and fallback found no content: %s", mcscrape.ErrorMessage(cause))
	}
	apply(tree, selected)
	return &mcscrape.Classification{
		Method:         mcscrape.MethodFallback,
		Windows:        windows,
		Selected:       dedupe(selected),
		FallbackReason: mcscrape.ErrorMessage(cause),
	}, nil
}

// apply marks each selected node's subtree and its ancestors.
func apply(tree *mcscrape.Tree, ids []mcscrape.NodeID) {
	for _, id := range ids {
		tree.MarkSubtree(id)
		tree.MarkAncestors(id)
	}
}

func dedupe(ids []mcscrape.NodeID) []mcscrape.NodeID {
	seen := make(map[mcscrape.NodeID]bool, len(ids))
	out := make([]mcscrape.NodeID, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

// classifyContextError maps context expiry to ETIMEOUT when the completer
// returned a bare error.
func classifyContextError(ctx context.Context, err error) error {
	if mcscrape.ErrorCode(err) != mcscrape.EINTERNAL {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) || ctx.Err() != nil {
		return mcscrape.WrapError(mcscrape.ETIMEOUT, err, "model call interrupted: %v", err)
	}
	return mcscrape.WrapError(mcscrape.EMODELUNAVAILABLE, err, "model call failed: %v", err)
}
