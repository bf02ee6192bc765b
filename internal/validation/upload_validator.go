package validation

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"

	"coffeedash/internal/config"
	apierrors "coffeedash/internal/errors"
)

// Upload describes an uploaded file before any of its bytes are parsed
type Upload struct {
	FileName string `validate:"required,max=255,uploadname,uploadext"`
	Size     int64  `validate:"gte=0,ltefield=MaxBytes"`
	MaxBytes int64  `validate:"gt=0"`
}

// UploadValidator rejects uploads the loader cannot or should not handle
type UploadValidator struct {
	validate   *validator.Validate
	extensions []string
	logger     *slog.Logger
}

// NewUploadValidator creates a validator accepting the given extensions
// (with leading dot, compared case-insensitively).
func NewUploadValidator(logger *slog.Logger, extensions ...string) *UploadValidator {
	if logger == nil {
		logger = slog.Default()
	}
	if len(extensions) == 0 {
		extensions = config.AcceptedExtensions
	}

	v := &UploadValidator{
		validate:   validator.New(validator.WithRequiredStructEnabled()),
		extensions: extensions,
		logger:     logger,
	}

	// Registration only fails for empty tags or nil funcs.
	_ = v.validate.RegisterValidation("uploadext", v.hasAcceptedExtension)
	_ = v.validate.RegisterValidation("uploadname", isPlainFileName)

	return v
}

// Validate checks the upload metadata and returns an *apierrors.APIError
// carrying the HTTP status the rejection maps to.
func (v *UploadValidator) Validate(upload Upload) error {
	err := v.validate.Struct(upload)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return apierrors.InvalidRequestWithError(err)
	}

	fe := verrs[0]
	v.logger.Warn("upload rejected",
		slog.String("file", upload.FileName),
		slog.Int64("size", upload.Size),
		slog.String("field", fe.Field()),
		slog.String("rule", fe.Tag()))

	switch {
	case fe.Field() == "FileName" && fe.Tag() == "required":
		return apierrors.ErrMissingFile
	case fe.Field() == "FileName" && fe.Tag() == "uploadext":
		return apierrors.NewWithDetails(
			http.StatusUnsupportedMediaType,
			"UNSUPPORTED_FILE_TYPE",
			fmt.Sprintf("Only %s files are accepted", strings.Join(v.extensions, " and ")),
			map[string]interface{}{
				"file_name": upload.FileName,
				"allowed":   v.extensions,
			},
		)
	case fe.Field() == "Size" && fe.Tag() == "ltefield":
		return apierrors.NewWithDetails(
			http.StatusRequestEntityTooLarge,
			"PAYLOAD_TOO_LARGE",
			fmt.Sprintf("Uploaded file exceeds the %d byte limit", upload.MaxBytes),
			map[string]interface{}{
				"size":      upload.Size,
				"max_bytes": upload.MaxBytes,
			},
		)
	}

	return apierrors.ErrValidation(fe.Field(), formatFieldError(fe))
}

// Extensions returns the accepted extensions
func (v *UploadValidator) Extensions() []string {
	return slices.Clone(v.extensions)
}

func (v *UploadValidator) hasAcceptedExtension(fl validator.FieldLevel) bool {
	ext := strings.ToLower(filepath.Ext(fl.Field().String()))
	return slices.Contains(v.extensions, ext)
}

// isPlainFileName rejects spreadsheet lock files such as "~$sales.xlsx"
func isPlainFileName(fl validator.FieldLevel) bool {
	base := filepath.Base(fl.Field().String())
	return !strings.HasPrefix(base, "~$")
}

func formatFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "uploadname":
		return "temporary spreadsheet lock files cannot be uploaded"
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}
