package mcscrape_test

import (
	"context"
	"errors"
	"testing"

	"github.com/fwojciec/mcscrape"
	"github.com/stretchr/testify/assert"
)

func TestErrorf(t *testing.T) {
	t.Parallel()

	err := mcscrape.Errorf(mcscrape.EINVALIDURL, "url %q has no host", "http://")

	assert.Equal(t, mcscrape.EINVALIDURL, mcscrape.ErrorCode(err))
	assert.Equal(t, "url \"http://\" has no host", mcscrape.ErrorMessage(err))
}

func TestErrorCode_NilError(t *testing.T) {
	t.Parallel()

	assert.Empty(t, mcscrape.ErrorCode(nil))
}

func TestErrorMessage_NilError(t *testing.T) {
	t.Parallel()

	assert.Empty(t, mcscrape.ErrorMessage(nil))
}

func TestErrorCode_ForeignErrorIsInternal(t *testing.T) {
	t.Parallel()

	err := errors.New("boom")

	assert.Equal(t, mcscrape.EINTERNAL, mcscrape.ErrorCode(err))
	assert.Equal(t, "boom", mcscrape.ErrorMessage(err))
}

func TestWrapError_KeepsCause(t *testing.T) {
	t.Parallel()

	err := mcscrape.WrapError(mcscrape.ETIMEOUT, context.DeadlineExceeded, "page load timed out")

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, mcscrape.ETIMEOUT, mcscrape.ErrorCode(err))
}

func TestErrorClass(t *testing.T) {
	t.Parallel()

	assert.Equal(t, mcscrape.ClassFetch, mcscrape.ErrorClass(mcscrape.EBLOCKED))
	assert.Equal(t, mcscrape.ClassClassification, mcscrape.ErrorClass(mcscrape.ERATELIMITED))
	assert.Equal(t, mcscrape.ClassRender, mcscrape.ErrorClass(mcscrape.ERENDER))
	assert.Equal(t, mcscrape.ClassInternal, mcscrape.ErrorClass(mcscrape.EINVALID))
}

func TestHTTPStatusError_Temporary(t *testing.T) {
	t.Parallel()

	assert.True(t, (&mcscrape.HTTPStatusError{StatusCode: 502}).Temporary())
	assert.False(t, (&mcscrape.HTTPStatusError{StatusCode: 404}).Temporary())
}
