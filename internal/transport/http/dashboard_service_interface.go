package http

import (
	"context"
	"io"

	"coffeedash/pkg/contracts/domain"
)

// DashboardServiceInterface defines the upload processing the handlers need
type DashboardServiceInterface interface {
	Process(ctx context.Context, r io.Reader, filename string, size int64) (*domain.Dashboard, error)
}
