package middleware

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	apierrors "coffeedash/internal/errors"
)

func TestMaxBodySize(t *testing.T) {
	var readErr error
	h := MaxBodySize(8)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, readErr = io.ReadAll(r.Body)
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/dashboard", strings.NewReader("12345678")))
	assert.NoError(t, readErr)

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/dashboard", strings.NewReader("123456789")))
	var maxErr *http.MaxBytesError
	assert.True(t, errors.As(readErr, &maxErr))
}

func TestContentTypeValidator(t *testing.T) {
	h := ContentTypeValidator(apierrors.NewErrorHandler(nil, false), "multipart/form-data")(okHandler)

	tests := []struct {
		name        string
		method      string
		contentType string
		wantStatus  int
	}{
		{name: "multipart with boundary", method: http.MethodPost, contentType: "multipart/form-data; boundary=xyz", wantStatus: http.StatusOK},
		{name: "case insensitive", method: http.MethodPost, contentType: "Multipart/Form-Data; boundary=xyz", wantStatus: http.StatusOK},
		{name: "json body", method: http.MethodPost, contentType: "application/json", wantStatus: http.StatusUnsupportedMediaType},
		{name: "missing", method: http.MethodPost, wantStatus: http.StatusBadRequest},
		{name: "malformed", method: http.MethodPost, contentType: "multipart/", wantStatus: http.StatusBadRequest},
		{name: "get skips check", method: http.MethodGet, wantStatus: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(tt.method, "/api/v1/dashboard", nil)
			if tt.contentType != "" {
				r.Header.Set("Content-Type", tt.contentType)
			}
			w := httptest.NewRecorder()

			h.ServeHTTP(w, r)

			assert.Equal(t, tt.wantStatus, w.Code, w.Body.String())
			if tt.wantStatus == http.StatusUnsupportedMediaType {
				assert.Contains(t, w.Body.String(), `"content_type":"application/json"`)
			}
		})
	}
}
