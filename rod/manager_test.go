//go:build integration

package rod_test

import (
	"context"
	"testing"
	"time"

	"github.com/fwojciec/mcscrape"
	"github.com/fwojciec/mcscrape/rod"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBrowserManager_RecyclesBrowserAfterMaxPages(t *testing.T) {
	t.Parallel()

	manager, err := rod.NewBrowserManager(rod.WithMaxPages(3))
	require.NoError(t, err)
	defer manager.Close()

	var first interface{}
	for i := 0; i < 3; i++ {
		browser, release, err := manager.Acquire(context.Background())
		require.NoError(t, err)
		if i == 0 {
			first = browser
		}
		release()
	}

	recycled, release, err := manager.Acquire(context.Background())
	require.NoError(t, err)
	defer release()

	assert.NotSame(t, first, recycled)
}

func TestBrowserManager_DoesNotRecycleBeforeMaxPages(t *testing.T) {
	t.Parallel()

	manager, err := rod.NewBrowserManager(rod.WithMaxPages(5))
	require.NoError(t, err)
	defer manager.Close()

	first, release, err := manager.Acquire(context.Background())
	require.NoError(t, err)
	release()

	same, release, err := manager.Acquire(context.Background())
	require.NoError(t, err)
	defer release()

	assert.Same(t, first, same)
}

func TestBrowserManager_AcquireBlocksWhenSlotsExhausted(t *testing.T) {
	t.Parallel()

	manager, err := rod.NewBrowserManager(rod.WithSlots(1))
	require.NoError(t, err)
	defer manager.Close()

	_, release, err := manager.Acquire(context.Background())
	require.NoError(t, err)
	defer release()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, _, err = manager.Acquire(ctx)

	assert.Equal(t, mcscrape.ETIMEOUT, mcscrape.ErrorCode(err))
}
