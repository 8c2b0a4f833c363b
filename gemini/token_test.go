//go:build integration

package gemini_test

import (
	"context"
	"testing"

	"github.com/fwojciec/mcscrape"
	"github.com/fwojciec/mcscrape/gemini"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenCounter_CountTokens(t *testing.T) {
	t.Parallel()

	// The local tokenizer downloads its vocabulary on first use.
	tc, err := gemini.NewTokenCounter("gemini-2.0-flash")
	require.NoError(t, err)

	var _ mcscrape.TokenCounter = tc

	t.Run("counts tokens in text", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		count, err := tc.CountTokens(ctx, "Hello, world!")

		require.NoError(t, err)
		assert.Positive(t, count)
	})

	t.Run("empty string returns zero", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		count, err := tc.CountTokens(ctx, "")

		require.NoError(t, err)
		assert.Equal(t, 0, count)
	})

	t.Run("serialized node lines cost more than their text", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		textCount, err := tc.CountTokens(ctx, "Getting started")
		require.NoError(t, err)

		lineCount, err := tc.CountTokens(ctx, `{"id":12,"tag":"h1","path":"body>main>h1","text":"Getting started"}`)
		require.NoError(t, err)

		assert.Greater(t, lineCount, textCount)
	})
}
