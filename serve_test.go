package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func doRequest(t *testing.T, method, path, contentType, body string) *httptest.ResponseRecorder {
	t.Helper()
	e := newServer(zap.NewNop())
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if contentType != "" {
		req.Header.Set(echo.HeaderContentType, contentType)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decodeAPIError(t *testing.T, rec *httptest.ResponseRecorder) APIError {
	t.Helper()
	var apiErr APIError
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &apiErr))
	return apiErr
}

func TestHandleHealth(t *testing.T) {
	rec := doRequest(t, http.MethodGet, "/api/health", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
	assert.NotEmpty(t, rec.Header().Get(echo.HeaderXRequestID))
}

func TestHandleRenderSVG(t *testing.T) {
	body := `{"fields": [{"name": "EN", "bits": 1, "type": 2}, {"bits": 7}], "config": {"lanes": 1, "beautify": true}}`
	rec := doRequest(t, http.MethodPost, "/api/render", echo.MIMEApplicationJSON, body)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "image/svg+xml", rec.Header().Get(echo.HeaderContentType))
	assert.Equal(t, 1, strings.Count(rec.Body.String(), "<svg"))
	assert.Contains(t, rec.Body.String(), "rgb(255, 204, 204)")
	assert.Contains(t, rec.Body.String(), "\n  <g class=\"lane\"")
}

func TestHandleRenderValidation(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		message string
	}{
		{"no fields", `{"fields": []}`, "fields"},
		{"zero width", `{"fields": [{"bits": 0}]}`, "fields"},
		{"bad config", `{"fields": [{"bits": 8}], "config": {"row_height": 10}}`, "config.row_height"},
		{"config type", `{"fields": [{"bits": 8}], "config": {"lanes": "two"}}`, "config"},
		{"format", `{"fields": [{"bits": 8}], "format": "gif"}`, "format"},
		{"bits override too large", `{"fields": [{"bits": 8}], "config": {"bits": 200000000}}`, "config.bits"},
		{"field too wide", `{"fields": [{"bits": 8}, {"bits": 200000000}]}`, "fields"},
		{"too many lanes", `{"fields": [{"bits": 8}], "config": {"lanes": 100000}}`, "config.lanes"},
		{"canvas too wide", `{"fields": [{"bits": 8}], "config": {"canvas_width": 1e9}}`, "config.canvas_width"},
		{"canvas too tall", `{"fields": [{"bits": 8}], "config": {"lanes": 500, "row_height": 1000}}`, "config.row_height"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(t, http.MethodPost, "/api/render", echo.MIMEApplicationJSON, tt.body)
			require.Equal(t, http.StatusBadRequest, rec.Code)
			apiErr := decodeAPIError(t, rec)
			assert.Equal(t, "VALIDATION_ERROR", apiErr.Code)
			assert.Equal(t, "validation failed for field: "+tt.message, apiErr.Message)
		})
	}
}

func TestHandleRenderAtLimits(t *testing.T) {
	body := `{"fields": [{"bits": 8192}, {"bits": 8192}], "config": {"lanes": 8}}`
	rec := doRequest(t, http.MethodPost, "/api/render", echo.MIMEApplicationJSON, body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	body = `{"fields": [{"bits": 8192}, {"bits": 8193}]}`
	rec = doRequest(t, http.MethodPost, "/api/render", echo.MIMEApplicationJSON, body)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALIDATION_ERROR", decodeAPIError(t, rec).Code)
}

func TestHandleRenderMalformedBody(t *testing.T) {
	rec := doRequest(t, http.MethodPost, "/api/render", echo.MIMEApplicationJSON, `{"fields": [`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "BAD_REQUEST", decodeAPIError(t, rec).Code)
}

func TestHandleBeautify(t *testing.T) {
	rec := doRequest(t, http.MethodPost, "/api/beautify", "image/svg+xml", "<svg>\n<g>\n<rect/>\n</g>\n</svg>\n")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "<svg>\n  <g>\n    <rect/>\n  </g>\n</svg>\n", rec.Body.String())

	rec = doRequest(t, http.MethodPost, "/api/beautify", "image/svg+xml", "  \n")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUnknownRoute(t *testing.T) {
	rec := doRequest(t, http.MethodGet, "/api/nope", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "HTTP_ERROR", decodeAPIError(t, rec).Code)
}
