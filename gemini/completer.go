package gemini

import (
	"context"
	"errors"
	"net/http"

	"github.com/fwojciec/mcscrape"
	"google.golang.org/genai"
)

// DefaultModel is used when the model config leaves the model empty.
const DefaultModel = "gemini-2.5-flash"

// Ensure Completer implements mcscrape.Completer at compile time.
var _ mcscrape.Completer = (*Completer)(nil)

// ContentGenerator is the subset of *genai.Models used by Completer.
type ContentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Completer implements mcscrape.Completer using Google Gemini.
type Completer struct {
	models ContentGenerator
}

// NewCompleter creates a Completer backed by the client's Models service.
func NewCompleter(client *genai.Client) *Completer {
	return &Completer{models: client.Models}
}

// NewCompleterWithGenerator creates a Completer over any ContentGenerator.
func NewCompleterWithGenerator(models ContentGenerator) *Completer {
	return &Completer{models: models}
}

// Complete sends the prompt to Gemini and returns the text of the reply.
func (c *Completer) Complete(ctx context.Context, prompt mcscrape.Prompt, cfg mcscrape.ModelConfig) (string, error) {
	if prompt.User == "" {
		return "", mcscrape.Errorf(mcscrape.EINVALID, "prompt required")
	}

	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}

	result, err := c.models.GenerateContent(ctx, model,
		[]*genai.Content{{
			Role:  genai.RoleUser,
			Parts: []*genai.Part{{Text: prompt.User}},
		}},
		BuildConfig(prompt.System, cfg),
	)
	if err != nil {
		return "", translateError(ctx, err)
	}
	if result == nil {
		return "", mcscrape.Errorf(mcscrape.EMODELUNAVAILABLE, "gemini returned nil result")
	}

	return result.Text(), nil
}

// BuildConfig returns the GenerateContentConfig for a classification call.
// Replies are requested as JSON.
func BuildConfig(system string, cfg mcscrape.ModelConfig) *genai.GenerateContentConfig {
	temp := float32(cfg.Temperature)
	config := &genai.GenerateContentConfig{
		Temperature:      &temp,
		ResponseMIMEType: "application/json",
	}
	if system != "" {
		config.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: system}},
		}
	}
	return config
}

// translateError maps Gemini API failures onto mcscrape error codes.
func translateError(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) || ctx.Err() != nil {
		return mcscrape.WrapError(mcscrape.ETIMEOUT, err, "gemini call interrupted: %v", err)
	}

	code := 0
	var apiErr genai.APIError
	var apiErrPtr *genai.APIError
	switch {
	case errors.As(err, &apiErr):
		code = apiErr.Code
	case errors.As(err, &apiErrPtr):
		code = apiErrPtr.Code
	}

	switch {
	case code == http.StatusTooManyRequests:
		return mcscrape.WrapError(mcscrape.ERATELIMITED, err, "gemini rate limit: %v", err)
	case code == http.StatusRequestTimeout || code == http.StatusGatewayTimeout:
		return mcscrape.WrapError(mcscrape.ETIMEOUT, err, "gemini timed out: %v", err)
	default:
		return mcscrape.WrapError(mcscrape.EMODELUNAVAILABLE, err, "gemini unavailable: %v", err)
	}
}
