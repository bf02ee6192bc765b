package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"coffeedash/internal/config"
	apierrors "coffeedash/internal/errors"
	"coffeedash/internal/infrastructure"
	"coffeedash/internal/presentation"
	"coffeedash/internal/services"
	"coffeedash/internal/shared/testutil"
	"coffeedash/internal/validation"
	"coffeedash/pkg/contracts/domain"
)

// MockDashboardService is a mock implementation of DashboardServiceInterface
type MockDashboardService struct {
	mock.Mock
}

func (m *MockDashboardService) Process(ctx context.Context, r io.Reader, filename string, size int64) (*domain.Dashboard, error) {
	args := m.Called(ctx, r, filename, size)
	d, _ := args.Get(0).(*domain.Dashboard)
	return d, args.Error(1)
}

type handlerHarness struct {
	router *chi.Mux
	reader *sdkmetric.ManualReader
	logs   *testutil.BufferedSlogHandler
}

func newHandlerHarness(t *testing.T, service DashboardServiceInterface, maxBytes int64) *handlerHarness {
	t.Helper()

	logger, logs := testutil.NewTestLogger(t)

	reader := sdkmetric.NewManualReader()
	metrics, err := infrastructure.CreateBusinessMetrics(
		sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)).Meter("test"))
	require.NoError(t, err)

	if service == nil {
		service = services.NewDashboardService(logger, services.WithMetrics(metrics))
	}

	pages, err := NewPages()
	require.NoError(t, err)

	h := NewDashboardHandler(
		service,
		validation.NewUploadValidator(logger),
		pages,
		apierrors.NewErrorHandler(logger, false),
		DashboardHandlerConfig{
			MaxUploadBytes: maxBytes,
			Presentation:   presentation.Options{CurrencySymbol: "Rp"},
			Metrics:        metrics,
		},
		logger,
	)

	r := chi.NewRouter()
	r.Mount("/", h.Routes())
	r.Mount(config.APIBasePath, h.APIRoutes())

	return &handlerHarness{router: r, reader: reader, logs: logs}
}

func (h *handlerHarness) post(t *testing.T, path, filename string, content []byte) *httptest.ResponseRecorder {
	t.Helper()

	body, contentType := multipartUpload(t, filename, content)
	req := httptest.NewRequest(http.MethodPost, path, body)
	req.Header.Set("Content-Type", contentType)

	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)
	return w
}

func (h *handlerHarness) uploads(t *testing.T, outcome string) int64 {
	t.Helper()

	var rm metricdata.ResourceMetrics
	require.NoError(t, h.reader.Collect(context.Background(), &rm))

	var total int64
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != "uploads_total" {
				continue
			}
			for _, dp := range m.Data.(metricdata.Sum[int64]).DataPoints {
				if v, ok := dp.Attributes.Value(attribute.Key("outcome")); ok && v.AsString() == outcome {
					total += dp.Value
				}
			}
		}
	}
	return total
}

// multipartUpload builds a form with the file under the upload field. An
// empty filename sends a form without any file part.
func multipartUpload(t *testing.T, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if filename != "" {
		part, err := mw.CreateFormFile(config.UploadFormField, filename)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	} else {
		require.NoError(t, mw.WriteField("note", "no file"))
	}
	require.NoError(t, mw.Close())

	return &body, mw.FormDataContentType()
}

func TestDashboardHandler_UploadPage(t *testing.T) {
	h := newHandlerHarness(t, nil, 0)

	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/html; charset=utf-8", w.Header().Get("Content-Type"))

	body := w.Body.String()
	assert.Contains(t, body, `name="file"`)
	assert.Contains(t, body, `accept=".csv,.xlsx"`)
	assert.Contains(t, body, `action="/dashboard"`)
	assert.Contains(t, body, "32 MB")
	assert.NotContains(t, body, `class="notice error"`)
}

func TestDashboardHandler_RedirectsGetDashboard(t *testing.T) {
	h := newHandlerHarness(t, nil, 0)

	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/dashboard", nil))

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))
}

func TestDashboardHandler_RenderDashboard(t *testing.T) {
	h := newHandlerHarness(t, nil, 0)

	w := h.post(t, "/dashboard", "sales.csv", []byte(testutil.EndToEndCSV))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	body := w.Body.String()
	for _, want := range []string{
		"Rp 8.00",
		"Transactions",
		"Latte",
		"Daily Sales Trend",
		"Top 10 Products by Sales",
		"Time &amp; Payment",
		"Raw Data",
		"<svg",
		"2024-02-01",
		"The hour_of_day column was not found.",
	} {
		assert.Contains(t, body, want)
	}
	assert.Equal(t, int64(1), h.uploads(t, infrastructure.OutcomeSuccess))
}

func TestDashboardHandler_RenderDashboard_Spreadsheet(t *testing.T) {
	h := newHandlerHarness(t, nil, 0)

	wb := testutil.NewSalesWorkbook(t, "Sales").
		Header("coffee_name", "money", "Date").
		Row("Latte", 3.5, "01/02/2024").
		Row("Mocha", 4, "02/02/2024")

	w := h.post(t, "/dashboard", "sales.xlsx", wb.Bytes())
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), "Rp 7.50")
	assert.Contains(t, w.Body.String(), "Mocha")
}

func TestDashboardHandler_RenderDashboard_EscapesCells(t *testing.T) {
	h := newHandlerHarness(t, nil, 0)

	csv := testutil.NewSalesCSV("coffee_name", "money").Row("<script>alert(1)</script>", "5").Bytes()
	w := h.post(t, "/dashboard", "sales.csv", csv)

	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "<script>alert(1)</script>")
	assert.Contains(t, w.Body.String(), "&lt;script&gt;alert(1)&lt;/script&gt;")
}

func TestDashboardHandler_RenderDashboard_Errors(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		content  string
		maxBytes int64
		status   int
		message  string
		outcome  string
	}{
		{
			name:     "missing required column",
			filename: "sales.csv",
			content:  "coffee_name;Date\nLatte;01/02/2024\n",
			status:   http.StatusUnprocessableEntity,
			message:  "uploaded file must contain the column(s): money",
			outcome:  infrastructure.OutcomeSchemaError,
		},
		{
			name:     "unsupported extension",
			filename: "sales.txt",
			content:  testutil.EndToEndCSV,
			status:   http.StatusUnsupportedMediaType,
			message:  "Only .csv and .xlsx files are accepted",
			outcome:  infrastructure.OutcomeInvalid,
		},
		{
			name:     "no file part",
			status:   http.StatusBadRequest,
			message:  "No file was uploaded",
			outcome:  infrastructure.OutcomeInvalid,
		},
		{
			name:     "file over the size limit",
			filename: "sales.csv",
			content:  testutil.EndToEndCSV,
			maxBytes: 16,
			status:   http.StatusRequestEntityTooLarge,
			message:  "Uploaded file exceeds the 16 byte limit",
			outcome:  infrastructure.OutcomeInvalid,
		},
		{
			name:     "corrupt spreadsheet",
			filename: "sales.xlsx",
			content:  "not a zip archive",
			status:   http.StatusUnprocessableEntity,
			message:  "Upload Could Not Be Read",
			outcome:  infrastructure.OutcomeLoadError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHandlerHarness(t, nil, tt.maxBytes)

			w := h.post(t, "/dashboard", tt.filename, []byte(tt.content))

			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, "text/html; charset=utf-8", w.Header().Get("Content-Type"))
			body := w.Body.String()
			assert.Contains(t, body, `class="notice error"`)
			assert.Contains(t, body, tt.message)
			assert.Contains(t, body, `name="file"`, "the upload form is shown again")
			assert.Equal(t, int64(1), h.uploads(t, tt.outcome))
			assert.True(t, h.logs.ContainsMessage("dashboard request failed"))
		})
	}
}

func TestDashboardHandler_RenderDashboard_NotMultipart(t *testing.T) {
	h := newHandlerHarness(t, nil, 0)

	req := httptest.NewRequest(http.MethodPost, "/dashboard", strings.NewReader("file=sales.csv"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "multipart/form-data")
}

func TestDashboardHandler_RenderDashboard_InternalError(t *testing.T) {
	service := new(MockDashboardService)
	service.On("Process", mock.Anything, mock.Anything, "sales.csv", mock.Anything).
		Return(nil, fmt.Errorf("%w: sales.csv: boom", services.ErrProcessingFailed))

	h := newHandlerHarness(t, service, 0)
	w := h.post(t, "/dashboard", "sales.csv", []byte(testutil.EndToEndCSV))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "Internal Server Error")
	assert.Contains(t, w.Body.String(), "dashboard processing failed: sales.csv: boom")
	assert.Contains(t, w.Body.String(), `action="/dashboard"`)
	service.AssertExpectations(t)
}

func TestDashboardHandler_ComputeDashboard(t *testing.T) {
	h := newHandlerHarness(t, nil, 0)

	w := h.post(t, "/api/v1/dashboard", "sales.csv", []byte(testutil.EndToEndCSV))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Header().Get("Content-Type"), "application/json")

	var got domain.Dashboard
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))

	assert.Equal(t, "sales.csv", got.FileName)
	assert.Equal(t, domain.SourceCSV, got.Source)
	assert.Equal(t, domain.CleanReport{TotalRows: 3, Retained: 3}, got.Report)
	require.NotNil(t, got.Summary)
	assert.InDelta(t, 8.0, got.Summary.TotalSales, 1e-9)
	assert.Equal(t, 3, got.Summary.TransactionCount)
	assert.Equal(t, "Latte", got.Summary.TopProduct)
	require.Len(t, got.Summary.DailySales.Points, 2)
	assert.InDelta(t, 6.0, got.Summary.DailySales.Points[0].Total, 1e-9)
	require.Len(t, got.Summary.SalesByProduct, 2)
	assert.InDelta(t, 75.0, got.Summary.SalesByProduct[0].Percentage, 1e-9)
	assert.False(t, got.Summary.SalesByHour.Available)
	assert.Nil(t, got.Table, "the cleaned table is not part of the JSON response")
}

func TestDashboardHandler_ComputeDashboard_Problems(t *testing.T) {
	tests := []struct {
		name        string
		filename    string
		content     string
		maxBytes    int64
		status      int
		problemType string
		check       func(t *testing.T, problem map[string]interface{})
	}{
		{
			name:        "missing required columns",
			filename:    "sales.csv",
			content:     "Date\n01/02/2024\n",
			status:      http.StatusUnprocessableEntity,
			problemType: apierrors.TypeUploadSchemaInvalid,
			check: func(t *testing.T, problem map[string]interface{}) {
				assert.Equal(t, []interface{}{"money", "coffee_name"}, problem["missing_columns"])
				assert.Equal(t, "/api/v1/dashboard", problem["instance"])
			},
		},
		{
			name:        "empty file",
			filename:    "sales.csv",
			content:     "",
			status:      http.StatusUnprocessableEntity,
			problemType: apierrors.TypeUploadLoadFailed,
		},
		{
			name:        "unsupported extension",
			filename:    "sales.json",
			content:     "{}",
			status:      http.StatusUnsupportedMediaType,
			problemType: apierrors.TypeUnsupportedType,
			check: func(t *testing.T, problem map[string]interface{}) {
				assert.Equal(t, "UNSUPPORTED_FILE_TYPE", problem["error_code"])
			},
		},
		{
			name:        "too large",
			filename:    "sales.csv",
			content:     testutil.EndToEndCSV,
			maxBytes:    16,
			status:      http.StatusRequestEntityTooLarge,
			problemType: apierrors.TypePayloadTooLarge,
		},
		{
			name:        "lock file",
			filename:    "~$sales.xlsx",
			content:     "x",
			status:      http.StatusBadRequest,
			problemType: apierrors.TypeValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHandlerHarness(t, nil, tt.maxBytes)

			w := h.post(t, "/api/v1/dashboard", tt.filename, []byte(tt.content))
			require.Equal(t, tt.status, w.Code, w.Body.String())

			var problem map[string]interface{}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &problem))
			assert.Equal(t, tt.problemType, problem["type"])
			assert.Equal(t, float64(tt.status), problem["status"])
			assert.Contains(t, problem, "trace_id")
			if tt.check != nil {
				tt.check(t, problem)
			}
		})
	}
}

func TestDashboardHandler_ComputeDashboard_RequiresMultipart(t *testing.T) {
	h := newHandlerHarness(t, nil, 0)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/dashboard", strings.NewReader(`{"file":"sales.csv"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnsupportedMediaType, w.Code)
	assert.Contains(t, w.Body.String(), "UNSUPPORTED_FILE_TYPE")
}

func TestDashboardHandler_ComputeDashboard_InternalError(t *testing.T) {
	service := new(MockDashboardService)
	service.On("Process", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil, services.ErrProcessingFailed)

	h := newHandlerHarness(t, service, 0)
	w := h.post(t, "/api/v1/dashboard", "sales.csv", []byte(testutil.EndToEndCSV))

	assert.Equal(t, http.StatusInternalServerError, w.Code)

	var problem map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &problem))
	assert.Equal(t, apierrors.TypeInternal, problem["type"])
}

func TestFormatBytes(t *testing.T) {
	assert.Equal(t, "32 MB", formatBytes(32<<20))
	assert.Equal(t, "1.5 KB", formatBytes(1536))
	assert.Equal(t, "16 bytes", formatBytes(16))
}
