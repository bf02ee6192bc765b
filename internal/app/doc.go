// Package app wires the coffee sales dashboard together and owns its
// lifecycle.
//
// # Initialization Flow
//
// NewApplication takes a loaded configuration and a logger, then:
//
//	1. Initializes OpenTelemetry (tracer, meter, Prometheus exporter)
//	2. Registers the business metrics
//	3. Creates the dashboard and health services
//	4. Builds the chi router with middleware and handlers
//	5. Configures the HTTP server
//
// # Middleware
//
// Every request gets a request id and its real client IP first. The
// /metrics scrape endpoint is mounted next so scrapes stay out of the
// request logs and traces. Everything else runs behind tracing, structured
// logging, panic recovery, security headers, optional CORS, rate limiting,
// a per-request timeout and gzip compression.
//
// # Usage
//
//	cfg, err := config.Load()
//	...
//	application, err := app.NewApplication(cfg, logger)
//	if err != nil {
//	    return err
//	}
//	return application.Run()
//
// # Graceful Shutdown
//
// Run blocks until SIGINT, SIGTERM or a listener failure, then drains
// in-flight requests within the configured shutdown timeout and flushes the
// telemetry providers. The package never calls os.Exit.
package app
