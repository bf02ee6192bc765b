package http

import (
	"errors"
	"fmt"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"coffeedash/internal/config"
	"coffeedash/internal/dataprocessing"
	apierrors "coffeedash/internal/errors"
	"coffeedash/internal/infrastructure"
	"coffeedash/internal/middleware"
	"coffeedash/internal/presentation"
	"coffeedash/internal/validation"
	"coffeedash/pkg/contracts/domain"
)

// multipartOverhead is the body allowance on top of the file size limit for
// boundaries and part headers
const multipartOverhead int64 = 64 << 10

// DashboardHandler serves the upload page and turns uploads into dashboards,
// either as HTML or as JSON.
type DashboardHandler struct {
	service      DashboardServiceInterface
	validator    *validation.UploadValidator
	pages        *Pages
	errorHandler *apierrors.ErrorHandler
	metrics      *infrastructure.BusinessMetrics
	options      presentation.Options
	maxBytes     int64
	logger       *slog.Logger
}

// DashboardHandlerConfig carries the settings a DashboardHandler needs
type DashboardHandlerConfig struct {
	MaxUploadBytes int64
	Presentation   presentation.Options
	// Metrics is optional; uploads rejected before processing are counted on it
	Metrics *infrastructure.BusinessMetrics
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(
	service DashboardServiceInterface,
	validator *validation.UploadValidator,
	pages *Pages,
	errorHandler *apierrors.ErrorHandler,
	cfg DashboardHandlerConfig,
	logger *slog.Logger,
) *DashboardHandler {
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = config.DefaultMaxUploadBytes
	}
	return &DashboardHandler{
		service:      service,
		validator:    validator,
		pages:        pages,
		errorHandler: errorHandler,
		metrics:      cfg.Metrics,
		options:      cfg.Presentation,
		maxBytes:     cfg.MaxUploadBytes,
		logger:       logger.With(slog.String("component", "dashboard_handler")),
	}
}

// Routes returns the browser-facing routes
func (h *DashboardHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.UploadPage)
	r.Get(config.DashboardEndpoint, h.RedirectToUpload)
	r.With(middleware.MaxBodySize(h.maxBytes+multipartOverhead)).
		Post(config.DashboardEndpoint, h.RenderDashboard)

	return r
}

// APIRoutes returns the JSON routes, mounted under the API base path
func (h *DashboardHandler) APIRoutes() chi.Router {
	r := chi.NewRouter()

	r.Use(render.SetContentType(render.ContentTypeJSON))
	r.With(
		middleware.ContentTypeValidator(h.errorHandler, "multipart/form-data"),
		middleware.MaxBodySize(h.maxBytes+multipartOverhead),
	).Post(config.DashboardEndpoint, h.ComputeDashboard)

	return r
}

// uploadForm is the data for the upload form partial
type uploadForm struct {
	Action  string
	Field   string
	Accept  string
	MaxSize string
}

type uploadPageData struct {
	Title      string
	Form       uploadForm
	ErrorTitle string
	Error      string
}

type dashboardPageData struct {
	Title string
	Form  uploadForm
	View  *presentation.DashboardView
}

// UploadPage handles GET /
func (h *DashboardHandler) UploadPage(w http.ResponseWriter, r *http.Request) {
	h.renderUploadPage(w, r, http.StatusOK, "", "")
}

// RedirectToUpload sends a GET of the dashboard URL back to the upload page
func (h *DashboardHandler) RedirectToUpload(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// RenderDashboard handles POST /dashboard. Failures re-render the upload
// page with the reason so the user can pick another file.
func (h *DashboardHandler) RenderDashboard(w http.ResponseWriter, r *http.Request) {
	dashboard, err := h.process(r)
	if err != nil {
		problem := h.errorHandler.ErrorToProblem(err, r)
		h.logFailure(r, err, problem.Status)
		message := problem.Detail
		if cause, ok := problem.Extensions["cause"].(string); ok && problem.Status >= http.StatusInternalServerError {
			message = fmt.Sprintf("%s (%s). Please try another upload.", message, cause)
		}
		h.renderUploadPage(w, r, problem.Status, problem.Title, message)
		return
	}

	data := dashboardPageData{
		Title: config.AppName,
		Form:  h.form(),
		View:  presentation.BuildDashboard(dashboard, h.options),
	}
	if err := h.pages.Render(w, http.StatusOK, dashboardPage, data); err != nil {
		h.logger.ErrorContext(r.Context(), "dashboard template execution failed",
			slog.String("error", err.Error()))
		http.Error(w, "Error rendering page", http.StatusInternalServerError)
	}
}

// ComputeDashboard handles POST /api/v1/dashboard with RFC 7807 errors
func (h *DashboardHandler) ComputeDashboard(w http.ResponseWriter, r *http.Request) {
	dashboard, err := h.process(r)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, dashboard)
}

// process reads the multipart upload, validates it and runs the pipeline
func (h *DashboardHandler) process(r *http.Request) (*domain.Dashboard, error) {
	ctx := r.Context()

	file, upload, err := h.openUpload(r)
	if err != nil {
		return nil, err
	}
	if file != nil {
		defer file.Close()
	}

	if err := h.validator.Validate(upload); err != nil {
		format, _ := dataprocessing.DetectFormat(upload.FileName)
		h.metrics.RecordUpload(ctx, infrastructure.UploadObservation{
			Format:  string(format),
			Outcome: infrastructure.OutcomeInvalid,
			Bytes:   upload.Size,
		})
		return nil, err
	}

	h.logger.InfoContext(ctx, "upload received",
		slog.String("file", upload.FileName),
		slog.Int64("size", upload.Size))

	return h.service.Process(ctx, file, upload.FileName, upload.Size)
}

// openUpload returns the uploaded file and its metadata. A request without a
// file part yields a nil file and an empty name, which validation rejects.
func (h *DashboardHandler) openUpload(r *http.Request) (multipart.File, validation.Upload, error) {
	upload := validation.Upload{MaxBytes: h.maxBytes}

	if err := r.ParseMultipartForm(config.MultipartMemoryBytes); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			return nil, upload, err
		case errors.Is(err, http.ErrNotMultipart):
			return nil, upload, apierrors.ErrMultipartRequired
		default:
			return nil, upload, apierrors.InvalidRequestWithError(err)
		}
	}

	file, header, err := r.FormFile(config.UploadFormField)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, upload, nil
	}
	if err != nil {
		return nil, upload, apierrors.InvalidRequestWithError(err)
	}

	upload.FileName = header.Filename
	upload.Size = header.Size
	return file, upload, nil
}

func (h *DashboardHandler) renderUploadPage(w http.ResponseWriter, r *http.Request, status int, title, message string) {
	data := uploadPageData{
		Title:      config.AppName,
		Form:       h.form(),
		ErrorTitle: title,
		Error:      message,
	}
	if err := h.pages.Render(w, status, uploadPage, data); err != nil {
		h.logger.ErrorContext(r.Context(), "upload template execution failed",
			slog.String("error", err.Error()))
		http.Error(w, "Error rendering page", http.StatusInternalServerError)
	}
}

func (h *DashboardHandler) form() uploadForm {
	return uploadForm{
		Action:  config.DashboardEndpoint,
		Field:   config.UploadFormField,
		Accept:  strings.Join(h.validator.Extensions(), ","),
		MaxSize: formatBytes(h.maxBytes),
	}
}

func (h *DashboardHandler) logFailure(r *http.Request, err error, status int) {
	level := slog.LevelWarn
	if status >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	h.logger.Log(r.Context(), level, "dashboard request failed",
		slog.String("error", err.Error()),
		slog.Int("status", status),
		slog.String("request_id", infrastructure.GetTraceID(r.Context())))
}

func formatBytes(n int64) string {
	switch {
	case n >= 1<<20 && n%(1<<20) == 0:
		return fmt.Sprintf("%d MB", n>>20)
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d bytes", n)
	}
}
