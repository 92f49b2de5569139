// Package testutil provides assertions and in-memory fakes shared by
// the security core's tests.
package testutil

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scriptgate-dev/scriptgate/domain/entities"
)

// AssertJSONEqual compares two JSON documents ignoring formatting.
func AssertJSONEqual(t *testing.T, expected, actual string, msgAndArgs ...any) {
	t.Helper()

	var expectedJSON, actualJSON any
	require.NoError(t, json.Unmarshal([]byte(expected), &expectedJSON), "expected JSON is invalid")
	require.NoError(t, json.Unmarshal([]byte(actual), &actualJSON), "actual JSON is invalid")

	assert.Equal(t, expectedJSON, actualJSON, msgAndArgs...)
}

// RequireSuccess fails the test unless the result succeeded.
func RequireSuccess(t *testing.T, result entities.OpResult) {
	t.Helper()
	require.True(t, result.Success, "expected success, got %s: %s", result.Error, result.Message)
}

// RequireFailure fails the test unless the result failed with the
// given kind.
func RequireFailure(t *testing.T, result entities.OpResult, kind entities.ErrorKind) {
	t.Helper()
	require.False(t, result.Success, "expected failure of kind %s, got success", kind)
	require.Equal(t, kind, result.Error)
}
