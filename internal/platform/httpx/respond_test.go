package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRespondErrorMapsSentinels(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{err: fmt.Errorf("country 9: %w", ErrNotFound), status: http.StatusNotFound},
		{err: fmt.Errorf("year: %w", ErrValidation), status: http.StatusBadRequest},
		{err: fmt.Errorf("year 1999: %w", ErrUnprocessable), status: http.StatusUnprocessableEntity},
		{err: fmt.Errorf("dashboard: %w", ErrTimeout), status: http.StatusGatewayTimeout},
		{err: fmt.Errorf("dashboard: %w", ErrUpstream), status: http.StatusBadGateway},
		{err: errors.New("boom"), status: http.StatusInternalServerError},
	}
	for _, tc := range cases {
		rr := httptest.NewRecorder()
		RespondError(rr, tc.err)

		assert.Equal(t, tc.status, rr.Code, tc.err.Error())
		assert.Equal(t, problemContentType, rr.Header().Get("Content-Type"))

		var problem ProblemDetail
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &problem))
		assert.Equal(t, tc.status, problem.Status)
	}
}

func TestInternalErrorHidesDetail(t *testing.T) {
	rr := httptest.NewRecorder()
	RespondError(rr, errors.New("dial tcp 10.0.0.3:5432: connection refused"))

	assert.NotContains(t, rr.Body.String(), "10.0.0.3")
}

func TestDecodeJSONRejectsUnknownFields(t *testing.T) {
	var target struct {
		Year int `json:"year"`
	}
	req := httptest.NewRequest(http.MethodPut, "/", strings.NewReader(`{"year":2023,"extra":true}`))
	assert.Error(t, DecodeJSON(req, &target))

	req = httptest.NewRequest(http.MethodPut, "/", strings.NewReader(`{"year":2023}`))
	require.NoError(t, DecodeJSON(req, &target))
	assert.Equal(t, 2023, target.Year)

	req = httptest.NewRequest(http.MethodPut, "/", strings.NewReader(`{"year":2023}{"year":2024}`))
	assert.ErrorIs(t, DecodeJSON(req, &target), ErrValidation)
}
