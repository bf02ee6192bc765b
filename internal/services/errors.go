package services

import "errors"

// Dashboard service errors
var (
	// ErrProcessingFailed wraps an unexpected failure inside the pipeline
	ErrProcessingFailed = errors.New("dashboard processing failed")

	// ErrNotReady is returned by readiness probes that fail
	ErrNotReady = errors.New("service not ready")
)
