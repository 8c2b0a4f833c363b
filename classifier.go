package mcscrape

import "context"

// Classification method values.
const (
	MethodModel    = "model"
	MethodFallback = "fallback"
)

// Classification summarizes how main content was selected for a page.
type Classification struct {
	// Method is MethodModel when the language model judgment was applied
	// and MethodFallback when the heuristic was used instead.
	Method string `json:"method"`

	// Windows is the number of model calls made for the page.
	Windows int `json:"windows"`

	// Selected holds the node IDs the judgment or fallback kept,
	// before subtree and ancestor propagation.
	Selected []NodeID `json:"selected"`

	// FallbackReason is the message of the error that triggered the fallback.
	FallbackReason string `json:"fallbackReason,omitempty"`
}

// Classifier marks main-content nodes in a segmented tree.
type Classifier interface {
	// Classify sets the main-content flag on the tree's nodes in place.
	//
	// A valid but empty judgment leaves the tree unmarked and returns no error.
	// Errors carry one of EMODELUNAVAILABLE, ERATELIMITED, ETIMEOUT or
	// EINVALIDRESPONSE.
	Classify(ctx context.Context, tree *Tree) (*Classification, error)
}

// Prompt is a single model request.
type Prompt struct {
	System string
	User   string
}

// Completer sends a prompt to a language model and returns its text reply.
type Completer interface {
	// Complete returns the raw model output.
	// Errors carry one of EMODELUNAVAILABLE, ERATELIMITED or ETIMEOUT.
	Complete(ctx context.Context, prompt Prompt, cfg ModelConfig) (string, error)
}

// Fallback selects main content deterministically when the model judgment
// cannot be used.
type Fallback interface {
	// Select returns the IDs of the nodes whose subtrees are main content.
	// An empty result means the heuristic found nothing.
	Select(tree *Tree) []NodeID
}
