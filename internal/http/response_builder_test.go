package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"glreport/internal/middleware/trace"
)

func TestJSONResponseBuilder(t *testing.T) {
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	NewJSONResponse().
		Status(http.StatusCreated).
		Header("Location", "/x").
		Body(map[string]int{"n": 1}).
		Write(rr, req)

	assert.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, "/x", rr.Header().Get("Location"))
	assert.Equal(t, "application/json; charset=utf-8", rr.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"n":1}`, rr.Body.String())
}

func TestJSONResponseBuilder_NoBody(t *testing.T) {
	rr := httptest.NewRecorder()
	NewJSONResponse().Status(http.StatusNoContent).Write(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Empty(t, rr.Body.String())
}

func TestErrorResponses(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(context.WithValue(req.Context(), trace.RequestIDKey, "req_abc"))

	cases := []struct {
		result *ErrorResult
		status int
	}{
		{BadRequestError("bad"), http.StatusBadRequest},
		{InternalServerError("boom"), http.StatusInternalServerError},
		{ServiceUnavailableError("later"), http.StatusServiceUnavailable},
		{TooManyRequestsError(), http.StatusTooManyRequests},
	}
	for _, tc := range cases {
		rr := httptest.NewRecorder()
		tc.result.Write(rr, req)
		assert.Equal(t, tc.status, rr.Code)

		var body ErrorBody
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
		assert.NotEmpty(t, body.Error)
		assert.Equal(t, "req_abc", body.RequestID)
	}
}
