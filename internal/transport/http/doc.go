// Package http implements the HTTP handlers of the coffee sales dashboard.
// Handlers stay thin: they read the upload, hand it to the dashboard service
// and shape the result for the browser or for API clients.
//
// # Routes
//
//	GET  /                   upload page
//	POST /dashboard          multipart upload, rendered dashboard HTML
//	POST /api/v1/dashboard   multipart upload, JSON summary and clean report
//	GET  /api/health         liveness summary
//	GET  /api/health/ready   readiness, 503 when a probe fails
//	GET  /api/health/live    runtime details
//	GET  /api/version        build information
//	GET  /metrics            Prometheus scrape endpoint
//
// # Error Handling
//
// JSON endpoints answer with RFC 7807 problem details produced by
// errors.ErrorHandler:
//
//	{
//	    "type": "/errors/upload/schema-invalid",
//	    "title": "Required Columns Missing",
//	    "status": 422,
//	    "detail": "uploaded file must contain the column(s): money",
//	    "instance": "/api/v1/dashboard",
//	    "missing_columns": ["money"]
//	}
//
// The HTML flow maps the same error to a status and message and re-renders
// the upload page, so a rejected file never leaves the user on a blank page.
//
// # Templates
//
// Pages are html/template files embedded with go:embed and parsed once at
// startup. Charts are inline SVG laid out by the presentation package; the
// templates only place the precomputed shapes.
package http
