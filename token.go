package mcscrape

import "context"

// TokenCounter counts tokens in text for a specific model.
// The classifier uses it to keep each prompt window under the model limit.
type TokenCounter interface {
	CountTokens(ctx context.Context, text string) (int, error)
}
