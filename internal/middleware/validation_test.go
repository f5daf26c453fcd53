package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	apierrors "lobstats/internal/errors"
	"lobstats/internal/shared/testutil"
)

func TestValidationMiddleware_ValidateRequest(t *testing.T) {
	tests := []struct {
		name       string
		method     string
		body       string
		wantStatus int
		wantCode   string
		wantBody   string
	}{
		{
			name:       "valid json passes through unchanged",
			method:     http.MethodPost,
			body:       `{"country":"ae","lob":["transport"]}`,
			wantStatus: http.StatusOK,
			wantBody:   `{"country":"ae","lob":["transport"]}`,
		},
		{
			name:       "malformed json",
			method:     http.MethodPost,
			body:       `{"country":`,
			wantStatus: http.StatusBadRequest,
			wantCode:   apierrors.CodeInvalidRequest,
		},
		{
			name:       "oversized body",
			method:     http.MethodPost,
			body:       `{"country":"` + strings.Repeat("a", 64) + `"}`,
			wantStatus: http.StatusRequestEntityTooLarge,
			wantCode:   apierrors.CodePayloadTooLarge,
		},
		{
			name:       "get requests are not inspected",
			method:     http.MethodGet,
			wantStatus: http.StatusOK,
		},
		{
			name:       "empty body is left to the handler",
			method:     http.MethodPost,
			wantStatus: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, _ := testutil.NewTestLogger(t)
			m := NewValidationMiddleware(logger, apierrors.NewErrorHandler(logger, false), 48)

			var got string
			h := m.ValidateRequest(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				data, _ := io.ReadAll(r.Body)
				got = string(data)
			}))

			var body io.Reader
			if tt.body != "" {
				body = strings.NewReader(tt.body)
			}
			w := httptest.NewRecorder()
			h.ServeHTTP(w, httptest.NewRequest(tt.method, "/", body))

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantCode != "" {
				assert.Equal(t, tt.wantCode, decodeBody(t, w)["error_code"])
			}
			assert.Equal(t, tt.wantBody, got)
		})
	}
}

func TestValidationMiddleware_StreamedBodyOverLimit(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	m := NewValidationMiddleware(logger, apierrors.NewErrorHandler(logger, false), 8)

	called := false
	h := m.ValidateRequest(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`["aaaaaaaaaaaa"]`))
	r.ContentLength = -1
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)

	assert.False(t, called)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestNewValidationMiddleware_DefaultLimit(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	m := NewValidationMiddleware(logger, apierrors.NewErrorHandler(logger, false), 0)
	assert.Equal(t, DefaultMaxBodySize, m.maxBodySize)
}

func TestContentTypeValidator(t *testing.T) {
	tests := []struct {
		name        string
		method      string
		contentType string
		wantStatus  int
	}{
		{"json", http.MethodPost, "application/json", http.StatusOK},
		{"json with charset", http.MethodPost, "application/json; charset=utf-8", http.StatusOK},
		{"upper case", http.MethodPost, "Application/JSON", http.StatusOK},
		{"missing", http.MethodPost, "", http.StatusUnsupportedMediaType},
		{"form", http.MethodPost, "application/x-www-form-urlencoded", http.StatusUnsupportedMediaType},
		{"get skipped", http.MethodGet, "", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, _ := testutil.NewTestLogger(t)
			h := ContentTypeValidator(apierrors.NewErrorHandler(logger, false), "application/json")(
				http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

			r := httptest.NewRequest(tt.method, "/", strings.NewReader(`{}`))
			if tt.contentType != "" {
				r.Header.Set("Content-Type", tt.contentType)
			}
			w := httptest.NewRecorder()
			h.ServeHTTP(w, r)

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantStatus != http.StatusOK {
				assert.Equal(t, apierrors.CodeUnsupportedMediaType, decodeBody(t, w)["error_code"])
			}
		})
	}
}
