package errors

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coffeedash/internal/infrastructure"
	"coffeedash/internal/shared/testutil"
)

func decodeProblem(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var problem map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &problem), w.Body.String())
	return problem
}

func TestNewErrorHandler(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)

	handler := NewErrorHandler(logger, true)
	assert.True(t, handler.includeStack)
	assert.NotNil(t, handler.logger)

	assert.NotNil(t, NewErrorHandler(nil, false).logger)
}

func TestErrorHandler_HandleError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantType   string
		wantTitle  string
		wantExt    map[string]interface{}
	}{
		{
			name:       "deadline exceeded",
			err:        context.DeadlineExceeded,
			wantStatus: http.StatusGatewayTimeout,
			wantType:   TypeTimeout,
			wantTitle:  "Request Timeout",
		},
		{
			name:       "canceled",
			err:        fmt.Errorf("load: %w", context.Canceled),
			wantStatus: http.StatusGatewayTimeout,
			wantType:   TypeTimeout,
			wantTitle:  "Request Timeout",
		},
		{
			name:       "body too large",
			err:        fmt.Errorf("parse: %w", &http.MaxBytesError{Limit: 1024}),
			wantStatus: http.StatusRequestEntityTooLarge,
			wantType:   TypePayloadTooLarge,
			wantTitle:  "Payload Too Large",
		},
		{
			name:       "missing file",
			err:        ErrMissingFile,
			wantStatus: http.StatusBadRequest,
			wantType:   TypeValidation,
			wantTitle:  "Bad Request",
			wantExt:    map[string]interface{}{"error_code": "MISSING_FILE"},
		},
		{
			name:       "unsupported file type",
			err:        New(http.StatusUnsupportedMediaType, "UNSUPPORTED_FILE_TYPE", "Only .csv and .xlsx files are accepted"),
			wantStatus: http.StatusUnsupportedMediaType,
			wantType:   TypeUnsupportedType,
			wantTitle:  "Unsupported Media Type",
		},
		{
			name:       "payload too large api error",
			err:        New(http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", "too big"),
			wantStatus: http.StatusRequestEntityTooLarge,
			wantType:   TypePayloadTooLarge,
		},
		{
			name:       "not found api error",
			err:        NotFoundError("metrics endpoint"),
			wantStatus: http.StatusNotFound,
			wantType:   TypeNotFound,
			wantExt:    map[string]interface{}{"details": "metrics endpoint"},
		},
		{
			name:       "load error",
			err:        NewLoadError("failed to read workbook", errors.New("zip: not a valid zip file")),
			wantStatus: http.StatusUnprocessableEntity,
			wantType:   TypeUploadLoadFailed,
			wantTitle:  "Upload Could Not Be Read",
			wantExt:    map[string]interface{}{"cause": "zip: not a valid zip file"},
		},
		{
			name:       "schema error",
			err:        fmt.Errorf("sales.csv: %w", NewSchemaError([]string{"money"})),
			wantStatus: http.StatusUnprocessableEntity,
			wantType:   TypeUploadSchemaInvalid,
			wantTitle:  "Required Columns Missing",
			wantExt:    map[string]interface{}{"missing_columns": []interface{}{"money"}},
		},
		{
			name:       "unknown app error kind",
			err:        NewAppError(ErrorType("OTHER"), "odd", nil),
			wantStatus: http.StatusInternalServerError,
			wantType:   TypeInternal,
			wantTitle:  "Internal Server Error",
		},
		{
			name:       "plain error",
			err:        errors.New("boom"),
			wantStatus: http.StatusInternalServerError,
			wantType:   TypeInternal,
			wantTitle:  "Internal Server Error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, _ := testutil.NewTestLogger(t)
			handler := NewErrorHandler(logger, false)

			r := httptest.NewRequest(http.MethodPost, "/api/v1/dashboard", nil)
			r = r.WithContext(infrastructure.WithTraceID(r.Context(), "trace-1"))
			w := httptest.NewRecorder()

			handler.HandleError(w, r, tt.err)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Contains(t, w.Header().Get("Content-Type"), "application/json")

			problem := decodeProblem(t, w)
			assert.Equal(t, tt.wantType, problem["type"])
			assert.Equal(t, float64(tt.wantStatus), problem["status"])
			assert.Equal(t, "/api/v1/dashboard", problem["instance"])
			assert.Equal(t, "trace-1", problem["trace_id"])
			if tt.wantTitle != "" {
				assert.Equal(t, tt.wantTitle, problem["title"])
			}
			for k, v := range tt.wantExt {
				assert.Equal(t, v, problem[k], k)
			}
			assert.NotContains(t, problem, "stack")
		})
	}
}

func TestErrorHandler_HandleError_Nil(t *testing.T) {
	handler := NewErrorHandler(nil, false)
	w := httptest.NewRecorder()

	handler.HandleError(w, httptest.NewRequest(http.MethodGet, "/", nil), nil)

	assert.Equal(t, 0, w.Body.Len())
}

func TestErrorHandler_HandleError_Logging(t *testing.T) {
	logger, logs := testutil.NewTestLogger(t)
	handler := NewErrorHandler(logger, false)

	handler.HandleError(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/dashboard", nil), ErrMissingFile)
	handler.HandleError(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/dashboard", nil), errors.New("boom"))

	testutil.AssertLogContains(t, logs, slog.LevelWarn, "request failed")
	testutil.AssertLogContains(t, logs, slog.LevelError, "request failed")
	assert.True(t, logs.ContainsAttr("status", int64(http.StatusInternalServerError)))
}

func TestErrorHandler_InternalCause(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/api/v1/dashboard", nil)

	prod := NewErrorHandler(nil, false).ErrorToProblem(errors.New("boom"), r)
	assert.Equal(t, "boom", prod.Extensions["cause"])
	assert.NotContains(t, prod.Detail, "boom")

	w := httptest.NewRecorder()
	NewErrorHandler(nil, false).HandleError(w, r, errors.New("boom"))
	assert.NotContains(t, decodeProblem(t, w), "stack")

	w = httptest.NewRecorder()
	NewErrorHandler(nil, true).HandleError(w, r, errors.New("boom"))
	assert.Contains(t, decodeProblem(t, w), "stack")
}

func TestErrorHandler_HandlePanic(t *testing.T) {
	tests := []struct {
		name         string
		includeStack bool
	}{
		{name: "production", includeStack: false},
		{name: "development", includeStack: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, logs := testutil.NewTestLogger(t)
			handler := NewErrorHandler(logger, tt.includeStack)
			w := httptest.NewRecorder()

			handler.HandlePanic(w, httptest.NewRequest(http.MethodPost, "/dashboard", nil), "index out of range")

			assert.Equal(t, http.StatusInternalServerError, w.Code)
			problem := decodeProblem(t, w)
			assert.Equal(t, TypeInternal, problem["type"])
			if tt.includeStack {
				assert.Equal(t, "index out of range", problem["panic"])
			} else {
				assert.NotContains(t, problem, "panic")
			}
			testutil.AssertLogContains(t, logs, slog.LevelError, "panic recovered")
		})
	}
}

func TestErrorHandler_NotFoundAndMethodNotAllowed(t *testing.T) {
	handler := NewErrorHandler(nil, false)

	w := httptest.NewRecorder()
	handler.NotFound(w, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, TypeNotFound, decodeProblem(t, w)["type"])

	w = httptest.NewRecorder()
	handler.MethodNotAllowed(w, httptest.NewRequest(http.MethodDelete, "/dashboard", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	assert.Equal(t, "Method DELETE is not allowed for this endpoint", decodeProblem(t, w)["detail"])
}

func TestProblemDetails_MarshalJSON(t *testing.T) {
	pd := NewProblemDetails(http.StatusUnprocessableEntity, TypeUploadSchemaInvalid, "Required Columns Missing", "", "").
		WithExtension("missing_columns", []string{"Date"})

	data, err := json.Marshal(pd)
	require.NoError(t, err)

	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, TypeUploadSchemaInvalid, got["type"])
	assert.Equal(t, []interface{}{"Date"}, got["missing_columns"])
	assert.NotContains(t, got, "detail")
	assert.NotContains(t, got, "instance")

	var bare ProblemDetails
	bare.WithExtension("k", 1)
	assert.Equal(t, 1, bare.Extensions["k"])
}
