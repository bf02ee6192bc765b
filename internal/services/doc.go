// Package services implements the business layer between the HTTP handlers
// and the data processing pipeline.
//
// DashboardService owns one Loader, Cleaner and Aggregator and runs each
// upload through them inside its own trace span, recording the outcome on
// the upload metrics. It keeps no state between uploads.
//
// HealthService answers the health, liveness, readiness and version probes.
// Readiness runs each registered ReadinessProbe; DashboardService is one,
// pushing a canned upload through the pipeline.
//
//	svc := services.NewDashboardService(logger,
//	    services.WithTracer(providers.Tracer),
//	    services.WithMetrics(metrics))
//	dashboard, err := svc.Process(ctx, file, header.Filename, header.Size)
package services
