package services

import (
	"context"
	"log/slog"
	"runtime"
	"time"

	"coffeedash/pkg/contracts"
)

// ReadinessProbe is a dependency that can report whether it is able to serve
type ReadinessProbe interface {
	SelfCheck(ctx context.Context) error
}

// HealthService provides health check functionality
type HealthService struct {
	version   string
	buildTime string
	gitCommit string
	probes    map[string]ReadinessProbe
	startTime time.Time
	logger    *slog.Logger
}

// Health status values
const (
	StatusOK       = "ok"
	StatusReady    = "ready"
	StatusNotReady = "not_ready"
	StatusAlive    = "alive"
)

// HealthStatus represents the health status response
type HealthStatus struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Version   string                 `json:"version"`
	Runtime   map[string]interface{} `json:"runtime,omitempty"`
	Services  map[string]interface{} `json:"services,omitempty"`
}

// ServiceHealth represents individual service health
type ServiceHealth struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Uptime  string `json:"uptime,omitempty"`
}

// NewHealthService creates a health service. probes are checked by
// ReadinessCheck under their map keys.
func NewHealthService(version string, probes map[string]ReadinessProbe, logger *slog.Logger) *HealthService {
	if logger == nil {
		logger = slog.Default()
	}

	logger.Info("HealthService initialized",
		slog.String("version", version),
		slog.Int("probes", len(probes)))

	return &HealthService{
		version:   version,
		buildTime: contracts.BuildTime,
		gitCommit: contracts.GitCommit,
		probes:    probes,
		startTime: time.Now(),
		logger:    logger,
	}
}

// HealthCheck returns overall health status
func (hs *HealthService) HealthCheck(ctx context.Context) HealthStatus {
	hs.logger.DebugContext(ctx, "HealthCheck: performing health check",
		slog.String("uptime", time.Since(hs.startTime).String()))

	return HealthStatus{
		Status:    StatusOK,
		Timestamp: time.Now(),
		Version:   hs.version,
	}
}

// ReadinessCheck runs every probe and reports not_ready if any fails
func (hs *HealthService) ReadinessCheck(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:    StatusReady,
		Timestamp: time.Now(),
		Version:   hs.version,
		Services:  make(map[string]interface{}, len(hs.probes)),
	}

	for name, probe := range hs.probes {
		sh := hs.checkProbe(ctx, name, probe)
		if sh.Status != StatusReady {
			status.Status = StatusNotReady
		}
		status.Services[name] = sh
	}

	return status
}

// LivenessCheck returns liveness status
func (hs *HealthService) LivenessCheck(ctx context.Context) HealthStatus {
	return HealthStatus{
		Status:    StatusAlive,
		Timestamp: time.Now(),
		Version:   hs.version,
		Runtime: map[string]interface{}{
			"uptime":     time.Since(hs.startTime).Seconds(),
			"go_version": runtime.Version(),
			"goroutines": runtime.NumGoroutine(),
		},
	}
}

// Version returns version information
func (hs *HealthService) Version() map[string]interface{} {
	result := map[string]interface{}{
		"version":      hs.version,
		"api_version":  contracts.APIVersion,
		"go_version":   runtime.Version(),
		"os":           runtime.GOOS,
		"arch":         runtime.GOARCH,
		"uptime":       time.Since(hs.startTime).Seconds(),
		"start_time":   hs.startTime.Format(time.RFC3339),
		"current_time": time.Now().Format(time.RFC3339),
	}

	if hs.buildTime != "" && hs.buildTime != "unknown" {
		result["build_time"] = hs.buildTime
	}
	if hs.gitCommit != "" && hs.gitCommit != "unknown" {
		result["git_commit"] = hs.gitCommit
	}

	return result
}

func (hs *HealthService) checkProbe(ctx context.Context, name string, probe ReadinessProbe) ServiceHealth {
	if probe == nil {
		return ServiceHealth{Status: StatusNotReady, Message: name + " not initialized"}
	}
	if err := probe.SelfCheck(ctx); err != nil {
		hs.logger.WarnContext(ctx, "readiness probe failed",
			slog.String("probe", name),
			slog.String("error", err.Error()))
		return ServiceHealth{Status: StatusNotReady, Message: err.Error()}
	}
	return ServiceHealth{
		Status:  StatusReady,
		Message: name + " is healthy",
		Uptime:  time.Since(hs.startTime).String(),
	}
}
