package gemini

import (
	"context"

	"github.com/fwojciec/mcscrape"
	"google.golang.org/genai"
	"google.golang.org/genai/tokenizer"
)

// Ensure TokenCounter implements mcscrape.TokenCounter at compile time.
var _ mcscrape.TokenCounter = (*TokenCounter)(nil)

// TokenCounter sizes classification prompts with the local Gemini tokenizer,
// so window splitting needs no API round trips.
type TokenCounter struct {
	tok *tokenizer.LocalTokenizer
}

// NewTokenCounter creates a TokenCounter for the given model.
// Models without a published local vocabulary return EINVALID.
func NewTokenCounter(model string) (*TokenCounter, error) {
	if model == "" {
		model = DefaultModel
	}
	tok, err := tokenizer.NewLocalTokenizer(model)
	if err != nil {
		return nil, mcscrape.WrapError(mcscrape.EINVALID, err, "no local tokenizer for model %q: %v", model, err)
	}
	return &TokenCounter{tok: tok}, nil
}

// CountTokens counts the tokens of text sent as a single user turn.
func (tc *TokenCounter) CountTokens(_ context.Context, text string) (int, error) {
	if text == "" {
		return 0, nil
	}

	result, err := tc.tok.CountTokens([]*genai.Content{genai.NewContentFromText(text, genai.RoleUser)}, nil)
	if err != nil {
		return 0, mcscrape.WrapError(mcscrape.EINTERNAL, err, "token count failed: %v", err)
	}

	return int(result.TotalTokens), nil
}
