package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilderProducesClassifiedError(t *testing.T) {
	cause := stderrors.New("connection refused")
	err := NetworkError("failed to reach remote").
		WithCause(cause).
		WithContext("url", "https://example.org/repo.git").
		Build()

	assert.Equal(t, CategoryNetwork, err.Category())
	assert.Equal(t, SeverityError, err.Severity())
	assert.Equal(t, RetryBackoff, err.RetryStrategy())
	assert.Equal(t, "https://example.org/repo.git", err.Context()["url"])
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestCategoryOfUnwrapsChain(t *testing.T) {
	inner := ConfigError("missing key").Build()
	wrapped := fmt.Errorf("loading playbook: %w", inner)

	assert.Equal(t, CategoryConfig, CategoryOf(wrapped))
	assert.Equal(t, CategoryInternal, CategoryOf(stderrors.New("plain")))

	ce, ok := AsClassified(wrapped)
	require.True(t, ok)
	assert.True(t, ce.IsCategory(CategoryConfig))
}

func TestSeverityHelpers(t *testing.T) {
	assert.True(t, IsFatal(ConfigError("bad").Build()))
	assert.False(t, IsFatal(ContentError("duplicate").Build()))
	assert.False(t, IsFatal(stderrors.New("plain")))
}

func TestExitCodeMapping(t *testing.T) {
	cases := []struct {
		err  error
		code int
	}{
		{nil, ExitOK},
		{ConfigError("x").Build(), ExitConfig},
		{ValidationError("x").Build(), ExitConfig},
		{AuthError("x").Build(), ExitAuth},
		{NetworkError("x").Build(), ExitNetwork},
		{GitError("x").Build(), ExitNetwork},
		{ContentError("x").Build(), ExitContent},
		{ResourceError("x").Build(), ExitResource},
		{stderrors.New("plain"), ExitGeneric},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.code, ExitCode(tc.err))
	}
}

func TestWithContextReturnsCopy(t *testing.T) {
	base := GitError("fetch failed").Build()
	derived := base.WithContext("refname", "main")

	assert.NotContains(t, base.Context(), "refname")
	assert.Equal(t, "main", derived.Context()["refname"])
}
