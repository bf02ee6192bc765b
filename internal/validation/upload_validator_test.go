package validation

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apierrors "coffeedash/internal/errors"
	"coffeedash/internal/shared/testutil"
)

func TestUploadValidator_Validate(t *testing.T) {
	tests := []struct {
		name       string
		upload     Upload
		wantStatus int
		wantCode   string
	}{
		{
			name:   "csv accepted",
			upload: Upload{FileName: "coffee.csv", Size: 120, MaxBytes: 1024},
		},
		{
			name:   "xlsx accepted with upper case extension",
			upload: Upload{FileName: "Coffee Sales.XLSX", Size: 1024, MaxBytes: 1024},
		},
		{
			name:   "empty file passes to the loader",
			upload: Upload{FileName: "empty.csv", Size: 0, MaxBytes: 1024},
		},
		{
			name:       "missing file name",
			upload:     Upload{FileName: "", Size: 10, MaxBytes: 1024},
			wantStatus: http.StatusBadRequest,
			wantCode:   "MISSING_FILE",
		},
		{
			name:       "unsupported extension",
			upload:     Upload{FileName: "sales.xls", Size: 10, MaxBytes: 1024},
			wantStatus: http.StatusUnsupportedMediaType,
			wantCode:   "UNSUPPORTED_FILE_TYPE",
		},
		{
			name:       "no extension",
			upload:     Upload{FileName: "sales", Size: 10, MaxBytes: 1024},
			wantStatus: http.StatusUnsupportedMediaType,
			wantCode:   "UNSUPPORTED_FILE_TYPE",
		},
		{
			name:       "too large",
			upload:     Upload{FileName: "sales.csv", Size: 2048, MaxBytes: 1024},
			wantStatus: http.StatusRequestEntityTooLarge,
			wantCode:   "PAYLOAD_TOO_LARGE",
		},
		{
			name:       "lock file",
			upload:     Upload{FileName: "~$sales.xlsx", Size: 10, MaxBytes: 1024},
			wantStatus: http.StatusBadRequest,
			wantCode:   "VALIDATION_FAILED",
		},
		{
			name:       "overlong name",
			upload:     Upload{FileName: strings.Repeat("a", 300) + ".csv", Size: 10, MaxBytes: 1024},
			wantStatus: http.StatusBadRequest,
			wantCode:   "VALIDATION_FAILED",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, _ := testutil.NewTestLogger(t)
			v := NewUploadValidator(logger)

			err := v.Validate(tt.upload)
			if tt.wantStatus == 0 {
				assert.NoError(t, err)
				return
			}

			require.Error(t, err)
			var apiErr *apierrors.APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tt.wantStatus, apiErr.StatusCode)
			assert.Equal(t, tt.wantCode, apiErr.ErrorCode)
		})
	}
}

func TestUploadValidator_LogsRejections(t *testing.T) {
	logger, handler := testutil.NewTestLogger(t)
	v := NewUploadValidator(logger)

	require.Error(t, v.Validate(Upload{FileName: "notes.txt", Size: 1, MaxBytes: 10}))
	assert.True(t, handler.ContainsMessage("upload rejected"))
	assert.True(t, handler.ContainsAttr("rule", "uploadext"))
}

func TestUploadValidator_CustomExtensions(t *testing.T) {
	v := NewUploadValidator(nil, ".csv")

	assert.NoError(t, v.Validate(Upload{FileName: "a.csv", MaxBytes: 1}))
	assert.Error(t, v.Validate(Upload{FileName: "a.xlsx", MaxBytes: 1}))
	assert.Equal(t, []string{".csv"}, v.Extensions())
}
