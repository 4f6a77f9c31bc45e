//go:build unit || e2e

package httptest

import (
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
)

func AssertSuccessResponse(t *testing.T, w *httptest.ResponseRecorder, expectedStatus int, targetStruct any) {
	t.Helper()

	if !assert.Equal(t, expectedStatus, w.Code,
		fmt.Sprintf("Expected status %d, got %d. Response: %s", expectedStatus, w.Code, w.Body.String())) {
		return
	}

	if expectedStatus >= 200 && expectedStatus < 300 && targetStruct != nil {
		err := json.Unmarshal(w.Body.Bytes(), targetStruct)
		assert.NoError(t, err, fmt.Sprintf("Failed to decode response JSON: %s", w.Body.String()))
	}
}

func AssertErrorResponse(t *testing.T, w *httptest.ResponseRecorder, expectedStatus int, expectedErrorMsg string) {
	t.Helper()

	assert.Equal(t, expectedStatus, w.Code,
		fmt.Sprintf("Expected status %d, got %d", expectedStatus, w.Code))

	var errorResponse struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	err := json.Unmarshal(w.Body.Bytes(), &errorResponse)
	assert.NoError(t, err, fmt.Sprintf("Failed to decode error response JSON: %s", w.Body.String()))

	if expectedErrorMsg != "" {
		assert.Contains(t, errorResponse.Error.Message, expectedErrorMsg,
			"Response error message doesn't contain expected text")
	}
}

// AssertRetryAfter checks the Retry-After header and the retryAfterMs detail agree.
// A zero minSeconds only requires the header to be present.
func AssertRetryAfter(t *testing.T, w *httptest.ResponseRecorder, minSeconds int) {
	t.Helper()

	header := w.Header().Get("Retry-After")
	if !assert.NotEmpty(t, header, "Retry-After header missing") {
		return
	}
	secs, err := strconv.Atoi(header)
	if !assert.NoError(t, err, "Retry-After must be whole seconds: %q", header) {
		return
	}
	assert.GreaterOrEqual(t, secs, max(minSeconds, 1))

	var body struct {
		Detail struct {
			RetryAfterMs int64 `json:"retryAfterMs"`
		} `json:"detail"`
	}
	if assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &body)) {
		assert.Positive(t, body.Detail.RetryAfterMs, "retryAfterMs detail missing")
		assert.LessOrEqual(t, body.Detail.RetryAfterMs, int64(secs)*1000)
	}
}

func AssertHeaders(t *testing.T, w *httptest.ResponseRecorder, expected map[string]string) {
	t.Helper()
	for k, v := range expected {
		assert.Equal(t, v, w.Header().Get(k), "header %s mismatch", k)
	}
}
