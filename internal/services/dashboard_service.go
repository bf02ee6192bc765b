package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"coffeedash/internal/dataprocessing"
	apierrors "coffeedash/internal/errors"
	"coffeedash/internal/infrastructure"
	"coffeedash/pkg/contracts/domain"
)

// TracerName names the spans emitted by the dashboard pipeline
const TracerName = "coffeedash.dashboard"

// probeCSV is a minimal upload used by SelfCheck
const probeCSV = "coffee_name;money;Date\nprobe;1,0;01/01/2024\n"

// DashboardService runs one upload through load, clean and aggregate.
// It holds no per-upload state, so a single instance serves all requests.
type DashboardService struct {
	loader     *dataprocessing.Loader
	cleaner    *dataprocessing.Cleaner
	aggregator *dataprocessing.Aggregator
	tracer     trace.Tracer
	metrics    *infrastructure.BusinessMetrics
	logger     *slog.Logger
}

// DashboardOption configures a DashboardService
type DashboardOption func(*DashboardService)

// WithTracer sets the tracer used for pipeline spans
func WithTracer(tracer trace.Tracer) DashboardOption {
	return func(s *DashboardService) {
		if tracer != nil {
			s.tracer = tracer
		}
	}
}

// WithMetrics sets the instruments that record upload outcomes
func WithMetrics(metrics *infrastructure.BusinessMetrics) DashboardOption {
	return func(s *DashboardService) {
		s.metrics = metrics
	}
}

// NewDashboardService creates a new dashboard service
func NewDashboardService(logger *slog.Logger, opts ...DashboardOption) *DashboardService {
	if logger == nil {
		logger = slog.Default()
	}

	s := &DashboardService{
		loader:     dataprocessing.NewLoader(logger),
		cleaner:    dataprocessing.NewCleaner(logger),
		aggregator: dataprocessing.NewAggregator(logger),
		tracer:     otel.Tracer(TracerName),
		logger:     infrastructure.WithComponent(logger, "dashboard_service"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Process loads, cleans and aggregates one upload. LOAD and SCHEMA
// AppErrors are returned unchanged; a panic inside the pipeline is
// converted to an error wrapping ErrProcessingFailed.
func (s *DashboardService) Process(ctx context.Context, r io.Reader, filename string, size int64) (dashboard *domain.Dashboard, err error) {
	start := time.Now()
	format, _ := dataprocessing.DetectFormat(filename)

	ctx, span := s.tracer.Start(ctx, "dashboard.process",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("upload.file_name", filename),
			attribute.String("upload.format", string(format)),
			attribute.Int64("upload.size_bytes", size),
		),
	)
	defer span.End()

	obs := infrastructure.UploadObservation{Format: string(format), Bytes: size}

	defer func() {
		if rec := recover(); rec != nil {
			dashboard = nil
			err = fmt.Errorf("%w: %s: %v", ErrProcessingFailed, filename, rec)
			s.logger.ErrorContext(ctx, "panic while processing upload",
				slog.String("file", filename),
				slog.Any("panic", rec))
		}

		obs.Duration = time.Since(start)
		obs.Outcome = outcomeOf(err)
		s.metrics.RecordUpload(ctx, obs)

		if err != nil {
			infrastructure.RecordError(ctx, err)
		}
	}()

	raw, err := s.load(ctx, r, filename)
	if err != nil {
		return nil, err
	}
	obs.RowsLoaded = len(raw.Rows)

	table, report, err := s.clean(ctx, raw)
	if err != nil {
		return nil, err
	}
	obs.DroppedMoney = report.DroppedMoney
	obs.DroppedDate = report.DroppedDate

	summary, err := s.aggregate(ctx, table)
	if err != nil {
		return nil, err
	}

	span.SetAttributes(
		attribute.Int("upload.rows_total", report.TotalRows),
		attribute.Int("upload.rows_retained", report.Retained),
		attribute.Int("upload.rows_dropped", report.Dropped()),
	)

	s.logger.InfoContext(ctx, "dashboard computed",
		slog.String("file", filename),
		slog.String("format", string(raw.Source)),
		slog.Int("transactions", summary.TransactionCount),
		slog.Int("dropped", report.Dropped()),
		slog.Duration("duration", time.Since(start)))

	return &domain.Dashboard{
		FileName: filename,
		Source:   raw.Source,
		Report:   report,
		Summary:  summary,
		Table:    table,
	}, nil
}

func (s *DashboardService) load(ctx context.Context, r io.Reader, filename string) (*domain.RawTable, error) {
	ctx, span := s.tracer.Start(ctx, "dashboard.load")
	defer span.End()

	raw, err := s.loader.Load(ctx, r, filename)
	if err != nil {
		infrastructure.RecordError(ctx, err)
		return nil, err
	}
	span.SetAttributes(
		attribute.Int("table.columns", len(raw.Columns)),
		attribute.Int("table.rows", len(raw.Rows)),
	)
	return raw, nil
}

func (s *DashboardService) clean(ctx context.Context, raw *domain.RawTable) (*domain.Table, domain.CleanReport, error) {
	ctx, span := s.tracer.Start(ctx, "dashboard.clean")
	defer span.End()

	table, report, err := s.cleaner.Clean(ctx, raw)
	if err != nil {
		if missing := apierrors.MissingColumns(err); len(missing) > 0 {
			infrastructure.AddSpanEvent(ctx, "schema.invalid",
				attribute.String("missing_columns", strings.Join(missing, ",")))
		}
		infrastructure.RecordError(ctx, err)
		return nil, report, err
	}
	span.SetAttributes(
		attribute.Int("clean.dropped_money", report.DroppedMoney),
		attribute.Int("clean.dropped_date", report.DroppedDate),
	)
	return table, report, nil
}

func (s *DashboardService) aggregate(ctx context.Context, table *domain.Table) (*domain.Summary, error) {
	ctx, span := s.tracer.Start(ctx, "dashboard.aggregate")
	defer span.End()

	summary, err := s.aggregator.Aggregate(ctx, table)
	if err != nil {
		infrastructure.RecordError(ctx, err)
		return nil, fmt.Errorf("aggregate: %w", err)
	}
	return summary, nil
}

// SelfCheck runs a canned upload through the pipeline without recording
// metrics. Readiness probes use it.
func (s *DashboardService) SelfCheck(ctx context.Context) error {
	raw, err := s.loader.Load(ctx, strings.NewReader(probeCSV), "probe.csv")
	if err != nil {
		return fmt.Errorf("load probe: %w", err)
	}
	table, _, err := s.cleaner.Clean(ctx, raw)
	if err != nil {
		return fmt.Errorf("clean probe: %w", err)
	}
	summary, err := s.aggregator.Aggregate(ctx, table)
	if err != nil {
		return fmt.Errorf("aggregate probe: %w", err)
	}
	if summary.TransactionCount != 1 {
		return fmt.Errorf("%w: probe produced %d transactions", ErrNotReady, summary.TransactionCount)
	}
	return nil
}

// outcomeOf maps a pipeline error to the uploads_total outcome label
func outcomeOf(err error) string {
	switch {
	case err == nil:
		return infrastructure.OutcomeSuccess
	case apierrors.IsLoadError(err):
		return infrastructure.OutcomeLoadError
	case apierrors.IsSchemaError(err):
		return infrastructure.OutcomeSchemaError
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return infrastructure.OutcomeCanceled
	default:
		return infrastructure.OutcomeInternal
	}
}
