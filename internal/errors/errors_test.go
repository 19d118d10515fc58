package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPredicatesSeeThroughWrapping(t *testing.T) {
	base := NewNoDataError("no readings in the last 24h")
	wrapped := fmt.Errorf("generate: %w", base)

	assert.True(t, IsNoData(wrapped))
	assert.False(t, IsAnalysisFailed(wrapped))
	assert.Equal(t, ErrorTypeNoData, TypeOf(wrapped))

	apiErr, ok := As(wrapped)
	require.True(t, ok)
	assert.Equal(t, http.StatusInternalServerError, apiErr.Code)
}

func TestUnwrapKeepsCause(t *testing.T) {
	cause := stderrors.New("connection refused")
	err := NewStoreError("failed to insert reading", cause)

	assert.True(t, stderrors.Is(err, cause))
	assert.True(t, IsStoreUnavailable(err))
	assert.Contains(t, err.Error(), "connection refused")
}

func TestTypeOfPlainError(t *testing.T) {
	assert.Equal(t, ErrorType(""), TypeOf(stderrors.New("boom")))
	assert.False(t, IsNotFound(nil))
}

func TestWithRequestID(t *testing.T) {
	err := NewAnalysisError("unparsable response", nil).WithRequestID("req_abc")
	assert.Equal(t, "req_abc", err.RequestID)
	assert.Equal(t, "analysis_failed: unparsable response", err.Error())
}
