package dataprocessing

import (
	"context"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	apierrors "coffeedash/internal/errors"
	"coffeedash/pkg/contracts/domain"
)

// Day-first layouts tried in order. Go's single-digit verbs also accept two
// digits, so "2/1/2006" matches both 3/4/2024 and 03/04/2024. Two-digit years
// follow time.Parse: 69-99 are 19xx, 00-68 are 20xx.
var dateLayouts = []string{
	"2/1/2006",
	"2/1/2006 15:04",
	"2/1/2006 15:04:05",
	"2/1/2006 3:04 PM",
	"2/1/2006 3:04:05 PM",
	"2-1-2006",
	"2-1-2006 15:04",
	"2-1-2006 15:04:05",
	"2-1-2006 3:04 PM",
	"2.1.2006",
	"2.1.2006 15:04",
	"2.1.2006 15:04:05",
	"2/1/06",
	"2/1/06 15:04",
	"2/1/06 15:04:05",
	"2/1/06 3:04 PM",
	"2-1-06",
	"2-1-06 15:04",
	"2-1-06 15:04:05",
	"2.1.06",
	"2.1.06 15:04",
	"2.1.06 15:04:05",
	"2 Jan 2006",
	"2 Jan 2006 15:04",
	"2-Jan-2006",
	"2-Jan-2006 15:04",
	"2-Jan-06",
	"2 January 2006",
	"2006-1-2",
	"2006-1-2 15:04",
	"2006-1-2 15:04:05",
	"2006-1-2T15:04:05",
	"2006/1/2",
	"2006/1/2 15:04",
	"2006/1/2 15:04:05",
	time.RFC3339,
	time.RFC3339Nano,
}

// Excel serial dates accepted from spreadsheets: 1900-01-01 to 9999-12-31
const (
	minExcelSerial = 1
	maxExcelSerial = 2958465
)

// Cleaner validates the schema of a RawTable and coerces its cells
type Cleaner struct {
	logger *slog.Logger
}

// NewCleaner creates a new cleaner
func NewCleaner(logger *slog.Logger) *Cleaner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cleaner{logger: logger.With(slog.String("component", "cleaner"))}
}

// columnIndexes caches the position of each known column (-1 when absent)
type columnIndexes struct {
	coffee, money, date, hour, month, cash, timeOfDay int
}

// Clean checks that the required columns exist, then keeps only rows whose
// money (and Date, when that column exists) parse. Rows that fail are
// counted in the report, never escalated.
func (c *Cleaner) Clean(ctx context.Context, raw *domain.RawTable) (*domain.Table, domain.CleanReport, error) {
	var report domain.CleanReport
	if raw == nil {
		return nil, report, apierrors.NewSchemaError(domain.RequiredColumns)
	}

	var missing []string
	for _, col := range domain.RequiredColumns {
		if raw.ColumnIndex(col) < 0 {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		c.logger.WarnContext(ctx, "required columns missing",
			slog.String("file", raw.FileName),
			slog.Any("missing", missing),
			slog.Any("columns", raw.Columns))
		return nil, report, apierrors.NewSchemaError(missing).WithContext(apierrors.ContextFileName, raw.FileName)
	}

	idx := columnIndexes{
		coffee:    raw.ColumnIndex(domain.ColumnCoffeeName),
		money:     raw.ColumnIndex(domain.ColumnMoney),
		date:      raw.ColumnIndex(domain.ColumnDate),
		hour:      raw.ColumnIndex(domain.ColumnHourOfDay),
		month:     raw.ColumnIndex(domain.ColumnMonthName),
		cash:      raw.ColumnIndex(domain.ColumnCashType),
		timeOfDay: raw.ColumnIndex(domain.ColumnTimeOfDay),
	}

	table := &domain.Table{
		Source:  raw.Source,
		Columns: append([]string(nil), raw.Columns...),
		Records: make([]domain.Record, 0, len(raw.Rows)),
	}
	report.TotalRows = len(raw.Rows)

	for i, row := range raw.Rows {
		if i%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, domain.CleanReport{}, err
			}
		}

		money, ok := NormalizeMoney(cell(row, idx.money))
		if !ok {
			report.DroppedMoney++
			continue
		}

		cells := append([]string(nil), row...)
		cells[idx.money] = strconv.FormatFloat(money, 'f', -1, 64)

		rec := domain.Record{
			CoffeeName: strings.TrimSpace(cell(row, idx.coffee)),
			Money:      money,
			MonthName:  strings.TrimSpace(cell(row, idx.month)),
			CashType:   strings.TrimSpace(cell(row, idx.cash)),
			TimeOfDay:  strings.TrimSpace(cell(row, idx.timeOfDay)),
		}

		if idx.date >= 0 {
			date, ok := ParseDate(cell(row, idx.date), raw.Source)
			if !ok {
				report.DroppedDate++
				continue
			}
			rec.Date = &date
			cells[idx.date] = formatDate(date)
		}

		if hour, ok := ParseHour(cell(row, idx.hour)); ok {
			rec.HourOfDay = &hour
		}

		rec.Cells = cells
		table.Records = append(table.Records, rec)
	}

	report.Retained = len(table.Records)

	c.logger.InfoContext(ctx, "upload cleaned",
		slog.String("file", raw.FileName),
		slog.Int("total_rows", report.TotalRows),
		slog.Int("retained", report.Retained),
		slog.Int("dropped_money", report.DroppedMoney),
		slog.Int("dropped_date", report.DroppedDate))

	return table, report, nil
}

// NormalizeMoney turns decimal-comma text into a number by replacing every
// comma with a period and parsing the result. Blank, non-numeric, NaN and
// infinite values report false.
func NormalizeMoney(s string) (float64, bool) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", "."))
	if s == "" || strings.ContainsAny(s, "xX_") {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// ParseDate parses a day-first calendar date. Spreadsheet cells may also
// hold an Excel serial date number.
func ParseDate(s string, source domain.SourceFormat) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}

	upper := strings.ToUpper(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, upper); err == nil {
			return t, true
		}
	}

	if source == domain.SourceSpreadsheet {
		serial, err := strconv.ParseFloat(s, 64)
		if err == nil && serial >= minExcelSerial && serial <= maxExcelSerial {
			if t, err := excelize.ExcelDateToTime(serial, false); err == nil {
				return t.UTC(), true
			}
		}
	}

	return time.Time{}, false
}

// ParseHour accepts whole hours 0-23 written as "10" or "10.0"
func ParseHour(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	if h, err := strconv.Atoi(s); err == nil {
		return h, h >= 0 && h <= 23
	}
	f, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64)
	if err != nil || f != math.Trunc(f) || f < 0 || f > 23 {
		return 0, false
	}
	return int(f), true
}

// formatDate renders a normalized date, keeping the time only when present
func formatDate(t time.Time) string {
	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
		return t.Format(time.DateOnly)
	}
	return t.Format(time.DateTime)
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}
