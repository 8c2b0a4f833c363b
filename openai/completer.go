// Package openai implements mcscrape.Completer with the OpenAI chat
// completions API.
package openai

import (
	"context"
	"errors"
	"net/http"

	"github.com/fwojciec/mcscrape"
	"github.com/openai/openai-go"
)

// DefaultModel is used when the model config leaves the model empty.
const DefaultModel = openai.ChatModelGPT4o

// Ensure Completer implements mcscrape.Completer at compile time.
var _ mcscrape.Completer = (*Completer)(nil)

// Completer implements mcscrape.Completer using OpenAI chat completions.
type Completer struct {
	client *openai.Client
}

// NewCompleter creates a new Completer.
func NewCompleter(client *openai.Client) *Completer {
	return &Completer{client: client}
}

// Complete sends the prompt as a system and user message pair and returns
// the content of the first choice.
func (c *Completer) Complete(ctx context.Context, prompt mcscrape.Prompt, cfg mcscrape.ModelConfig) (string, error) {
	if prompt.User == "" {
		return "", mcscrape.Errorf(mcscrape.EINVALID, "prompt required")
	}

	model := openai.ChatModel(cfg.Model)
	if model == "" {
		model = DefaultModel
	}

	var messages []openai.ChatCompletionMessageParamUnion
	if prompt.System != "" {
		messages = append(messages, openai.SystemMessage(prompt.System))
	}
	messages = append(messages, openai.UserMessage(prompt.User))

	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages:    openai.F(messages),
		Model:       openai.F(model),
		Temperature: openai.F(cfg.Temperature),
	})
	if err != nil {
		return "", translateError(ctx, err)
	}
	if resp == nil || len(resp.Choices) == 0 {
		return "", mcscrape.Errorf(mcscrape.EMODELUNAVAILABLE, "openai returned no choices")
	}

	return resp.Choices[0].Message.Content, nil
}

// translateError maps OpenAI API failures onto mcscrape error codes.
func translateError(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) || ctx.Err() != nil {
		return mcscrape.WrapError(mcscrape.ETIMEOUT, err, "openai call interrupted: %v", err)
	}

	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		switch apiErr.StatusCode {
		case http.StatusTooManyRequests:
			return mcscrape.WrapError(mcscrape.ERATELIMITED, err, "openai rate limit: %v", err)
		case http.StatusRequestTimeout, http.StatusGatewayTimeout:
			return mcscrape.WrapError(mcscrape.ETIMEOUT, err, "openai timed out: %v", err)
		}
	}
	return mcscrape.WrapError(mcscrape.EMODELUNAVAILABLE, err, "openai unavailable: %v", err)
}
