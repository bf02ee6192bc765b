package dataprocessing

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	apierrors "coffeedash/internal/errors"
	"coffeedash/pkg/contracts/domain"
)

// CSVSeparator is the field separator of delimited uploads. Semicolons keep
// decimal-comma money values such as "3,5" intact.
const CSVSeparator = ';'

// cancellation is checked once per this many rows
const ctxCheckInterval = 1024

// Loader decodes an uploaded byte stream into a RawTable
type Loader struct {
	logger *slog.Logger
}

// NewLoader creates a new loader
func NewLoader(logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{logger: logger.With(slog.String("component", "loader"))}
}

// DetectFormat maps a filename to the decoder that handles it
func DetectFormat(filename string) (domain.SourceFormat, bool) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		return domain.SourceCSV, true
	case ".xlsx":
		return domain.SourceSpreadsheet, true
	}
	return "", false
}

// Load reads r according to the extension of filename. Every failure to
// decode the stream is returned as a LOAD AppError wrapping the cause.
func (l *Loader) Load(ctx context.Context, r io.Reader, filename string) (*domain.RawTable, error) {
	format, ok := DetectFormat(filename)
	if !ok {
		return nil, apierrors.NewLoadError(
			fmt.Sprintf("unsupported file type %q: expected .csv or .xlsx", filepath.Ext(filename)), nil,
		).WithContext(apierrors.ContextFileName, filename)
	}

	var (
		header []string
		rows   [][]string
		err    error
	)
	switch format {
	case domain.SourceCSV:
		header, rows, err = readCSV(ctx, r)
	case domain.SourceSpreadsheet:
		header, rows, err = readSpreadsheet(ctx, r)
	}
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("load %s: %w", filename, ctxErr)
		}
		var appErr *apierrors.AppError
		if errors.As(err, &appErr) {
			return nil, appErr.WithContext(apierrors.ContextFileName, filename)
		}
		return nil, apierrors.NewLoadError(
			fmt.Sprintf("could not read %s file", format), err,
		).WithContext(apierrors.ContextFileName, filename)
	}

	table := &domain.RawTable{
		Source:   format,
		FileName: filename,
		Columns:  normalizeHeader(header),
		Rows:     make([][]string, 0, len(rows)),
	}
	for _, row := range rows {
		if isBlankRow(row) {
			continue
		}
		table.Rows = append(table.Rows, fitRow(row, len(table.Columns)))
	}

	l.logger.DebugContext(ctx, "upload loaded",
		slog.String("file", filename),
		slog.String("format", string(format)),
		slog.Int("columns", len(table.Columns)),
		slog.Int("rows", len(table.Rows)))

	return table, nil
}

// readCSV decodes a semicolon separated stream. A UTF-8 or UTF-16 byte
// order mark selects the encoding and is stripped; otherwise UTF-8 is assumed.
// Short rows are allowed, but a row carrying values past the header is a
// malformed stream.
func readCSV(ctx context.Context, r io.Reader) ([]string, [][]string, error) {
	decoded := transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))

	reader := csv.NewReader(decoded)
	reader.Comma = CSVSeparator
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil, apierrors.NewLoadError("file is empty: a header row is required", nil)
	}
	if err != nil {
		return nil, nil, err
	}

	var rows [][]string
	for {
		if len(rows)%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, nil, err
			}
		}
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, err
		}
		if len(record) > len(header) && !isBlankRow(record[len(header):]) {
			line, _ := reader.FieldPos(0)
			return nil, nil, apierrors.NewLoadError(
				fmt.Sprintf("line %d: expected %d fields, saw %d", line, len(header), len(record)), nil)
		}
		rows = append(rows, record)
	}

	return header, rows, nil
}

// readSpreadsheet returns the first worksheet. Cells are read raw so numbers
// keep full precision and dates arrive as serial values.
func readSpreadsheet(ctx context.Context, r io.Reader) ([]string, [][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil, apierrors.NewLoadError("workbook contains no worksheets", nil)
	}

	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	if len(rows) == 0 || isBlankRow(rows[0]) {
		return nil, nil, apierrors.NewLoadError(
			fmt.Sprintf("worksheet %q has no header row", sheets[0]), nil)
	}

	return rows[0], rows[1:], nil
}

// normalizeHeader trims header cells and names blank ones by position
func normalizeHeader(header []string) []string {
	columns := make([]string, len(header))
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if h == "" {
			h = fmt.Sprintf("column_%d", i+1)
		}
		columns[i] = h
	}
	return columns
}

// fitRow pads a row to the header width, dropping blank trailing cells
func fitRow(row []string, width int) []string {
	if len(row) == width {
		return row
	}
	fitted := make([]string, width)
	copy(fitted, row)
	return fitted
}

func isBlankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
