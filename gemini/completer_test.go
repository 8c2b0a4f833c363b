package gemini_test

import (
	"context"
	"errors"
	"testing"

	"github.com/fwojciec/mcscrape"
	"github.com/fwojciec/mcscrape/gemini"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

type generatorFunc func(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)

func (f generatorFunc) GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	return f(ctx, model, contents, config)
}

func textResponse(text string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []*genai.Part{{Text: text}}},
		}},
	}
}

func TestCompleter_Complete(t *testing.T) {
	t.Parallel()

	t.Run("sends prompt and returns reply text", func(t *testing.T) {
		t.Parallel()

		var gotModel string
		var gotContents []*genai.Content
		var gotConfig *genai.GenerateContentConfig
		gen := generatorFunc(func(_ context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
			gotModel, gotContents, gotConfig = model, contents, config
			return textResponse(`{"main_content_ids":[1]}`), nil
		})

		out, err := gemini.NewCompleterWithGenerator(gen).Complete(context.Background(),
			mcscrape.Prompt{System: "sys", User: "nodes"},
			mcscrape.ModelConfig{Model: "gemini-2.0-flash"},
		)

		require.NoError(t, err)
		assert.JSONEq(t, `{"main_content_ids":[1]}`, out)
		assert.Equal(t, "gemini-2.0-flash", gotModel)
		require.Len(t, gotContents, 1)
		assert.Equal(t, "nodes", gotContents[0].Parts[0].Text)
		require.NotNil(t, gotConfig.SystemInstruction)
		assert.Equal(t, "sys", gotConfig.SystemInstruction.Parts[0].Text)
	})

	t.Run("uses default model", func(t *testing.T) {
		t.Parallel()

		var gotModel string
		gen := generatorFunc(func(_ context.Context, model string, _ []*genai.Content, _ *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
			gotModel = model
			return textResponse("[]"), nil
		})

		_, err := gemini.NewCompleterWithGenerator(gen).Complete(context.Background(), mcscrape.Prompt{User: "x"}, mcscrape.ModelConfig{})

		require.NoError(t, err)
		assert.Equal(t, gemini.DefaultModel, gotModel)
	})

	t.Run("requires user prompt", func(t *testing.T) {
		t.Parallel()

		_, err := gemini.NewCompleterWithGenerator(nil).Complete(context.Background(), mcscrape.Prompt{}, mcscrape.ModelConfig{})

		assert.Equal(t, mcscrape.EINVALID, mcscrape.ErrorCode(err))
	})

	t.Run("maps API errors", func(t *testing.T) {
		t.Parallel()

		cases := []struct {
			err  error
			want string
		}{
			{genai.APIError{Code: 429, Status: "RESOURCE_EXHAUSTED"}, mcscrape.ERATELIMITED},
			{&genai.APIError{Code: 429}, mcscrape.ERATELIMITED},
			{genai.APIError{Code: 503, Status: "UNAVAILABLE"}, mcscrape.EMODELUNAVAILABLE},
			{genai.APIError{Code: 504}, mcscrape.ETIMEOUT},
			{errors.New("dial tcp: connection refused"), mcscrape.EMODELUNAVAILABLE},
			{context.DeadlineExceeded, mcscrape.ETIMEOUT},
		}
		for _, tc := range cases {
			gen := generatorFunc(func(context.Context, string, []*genai.Content, *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
				return nil, tc.err
			})

			_, err := gemini.NewCompleterWithGenerator(gen).Complete(context.Background(), mcscrape.Prompt{User: "x"}, mcscrape.ModelConfig{})

			assert.Equal(t, tc.want, mcscrape.ErrorCode(err), tc.err.Error())
		}
	})
}

func TestBuildConfig(t *testing.T) {
	t.Parallel()

	t.Run("sets temperature and JSON output", func(t *testing.T) {
		t.Parallel()

		config := gemini.BuildConfig("sys", mcscrape.ModelConfig{Temperature: 0.2})

		require.NotNil(t, config.Temperature)
		assert.InDelta(t, 0.2, *config.Temperature, 0.001)
		assert.Equal(t, "application/json", config.ResponseMIMEType)
	})

	t.Run("omits empty system instruction", func(t *testing.T) {
		t.Parallel()

		config := gemini.BuildConfig("", mcscrape.ModelConfig{})

		assert.Nil(t, config.SystemInstruction)
		require.NotNil(t, config.Temperature)
		assert.Zero(t, *config.Temperature)
	})
}
