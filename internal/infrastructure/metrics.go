package infrastructure

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Upload outcomes recorded on uploads_total
const (
	OutcomeSuccess      = "success"
	OutcomeLoadError    = "load_error"
	OutcomeSchemaError  = "schema_error"
	OutcomeInvalid      = "invalid"
	OutcomeInternal     = "internal_error"
	OutcomeCanceled     = "canceled"
	DropReasonMoney     = "money"
	DropReasonDate      = "date"
	unknownSourceFormat = "unknown"
)

// BusinessMetrics holds the HTTP and upload pipeline instruments
type BusinessMetrics struct {
	// HTTP metrics
	HTTPRequestsTotal   metric.Int64Counter
	HTTPRequestDuration metric.Float64Histogram
	HTTPActiveRequests  metric.Int64UpDownCounter

	// Upload pipeline metrics
	UploadsTotal             metric.Int64Counter
	UploadRowsLoaded         metric.Int64Counter
	UploadRowsDropped        metric.Int64Counter
	UploadProcessingDuration metric.Float64Histogram
	UploadBytes              metric.Int64Histogram
}

// CreateBusinessMetrics creates application-specific metrics
func CreateBusinessMetrics(meter metric.Meter) (*BusinessMetrics, error) {
	m := &BusinessMetrics{}
	var err error

	if m.HTTPRequestsTotal, err = meter.Int64Counter(
		"http_requests_total",
		metric.WithDescription("Total number of HTTP requests"),
	); err != nil {
		return nil, err
	}

	if m.HTTPRequestDuration, err = meter.Float64Histogram(
		"http_request_duration_seconds",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}

	if m.HTTPActiveRequests, err = meter.Int64UpDownCounter(
		"http_active_requests",
		metric.WithDescription("Number of active HTTP requests"),
	); err != nil {
		return nil, err
	}

	if m.UploadsTotal, err = meter.Int64Counter(
		"uploads_total",
		metric.WithDescription("Total number of processed uploads by outcome and format"),
	); err != nil {
		return nil, err
	}

	if m.UploadRowsLoaded, err = meter.Int64Counter(
		"upload_rows_loaded_total",
		metric.WithDescription("Data rows read from uploaded files"),
	); err != nil {
		return nil, err
	}

	if m.UploadRowsDropped, err = meter.Int64Counter(
		"upload_rows_dropped_total",
		metric.WithDescription("Rows removed by the cleaner, by reason"),
	); err != nil {
		return nil, err
	}

	if m.UploadProcessingDuration, err = meter.Float64Histogram(
		"upload_processing_duration_seconds",
		metric.WithDescription("Time from upload receipt to computed summary"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}

	if m.UploadBytes, err = meter.Int64Histogram(
		"upload_size_bytes",
		metric.WithDescription("Size of accepted uploads"),
		metric.WithUnit("By"),
	); err != nil {
		return nil, err
	}

	return m, nil
}

// UploadObservation summarizes one pass through the pipeline
type UploadObservation struct {
	Format       string
	Outcome      string
	Bytes        int64
	RowsLoaded   int
	DroppedMoney int
	DroppedDate  int
	Duration     time.Duration
}

// RecordUpload records the metrics for one processed upload. A nil
// receiver is a no-op so callers need not guard optional metrics.
func (m *BusinessMetrics) RecordUpload(ctx context.Context, obs UploadObservation) {
	if m == nil {
		return
	}

	format := obs.Format
	if format == "" {
		format = unknownSourceFormat
	}
	formatAttr := attribute.String("format", format)

	m.UploadsTotal.Add(ctx, 1, metric.WithAttributes(formatAttr, attribute.String("outcome", obs.Outcome)))
	m.UploadProcessingDuration.Record(ctx, obs.Duration.Seconds(),
		metric.WithAttributes(formatAttr, attribute.String("outcome", obs.Outcome)))

	if obs.Bytes > 0 {
		m.UploadBytes.Record(ctx, obs.Bytes, metric.WithAttributes(formatAttr))
	}
	if obs.RowsLoaded > 0 {
		m.UploadRowsLoaded.Add(ctx, int64(obs.RowsLoaded), metric.WithAttributes(formatAttr))
	}
	if obs.DroppedMoney > 0 {
		m.UploadRowsDropped.Add(ctx, int64(obs.DroppedMoney),
			metric.WithAttributes(formatAttr, attribute.String("reason", DropReasonMoney)))
	}
	if obs.DroppedDate > 0 {
		m.UploadRowsDropped.Add(ctx, int64(obs.DroppedDate),
			metric.WithAttributes(formatAttr, attribute.String("reason", DropReasonDate)))
	}
}
