package presentation

import (
	"fmt"
	"strconv"
	"time"

	"coffeedash/pkg/contracts/domain"
)

// NotAvailable is shown for a metric that has no value
const NotAvailable = "N/A"

// Notice levels
const (
	NoticeInfo    = "info"
	NoticeWarning = "warning"
)

// Defaults applied when Options leaves a count unset
const (
	DefaultTopProducts = 10
	DefaultPieSlices   = 5
)

// Options controls how much of the data is drawn
type Options struct {
	CurrencySymbol string
	TopProducts    int
	PieSlices      int
	// TableRowLimit caps the rendered rows; 0 renders all
	TableRowLimit int
}

// Metric is a headline number
type Metric struct {
	Label string
	Value string
}

// Notice is a message shown above the dashboard tabs
type Notice struct {
	Level   string
	Message string
}

// Panel holds at most one chart. Empty carries the message shown instead
// when there is nothing to draw.
type Panel struct {
	Title string
	Line  *LineChart
	Bar   *BarChart
	Pie   *PieChart
	Empty string
}

// HasChart reports whether the panel draws anything
func (p Panel) HasChart() bool {
	return p.Line != nil || p.Bar != nil || p.Pie != nil
}

// TableView is the cleaned data as display rows
type TableView struct {
	Columns   []string
	Rows      [][]string
	Total     int
	Truncated bool
}

// DashboardView is everything the dashboard page renders
type DashboardView struct {
	FileName string
	Metrics  []Metric
	Notices  []Notice

	Trend      Panel
	ProductBar Panel
	ProductPie Panel
	Hourly     Panel
	Payment    Panel
	Monthly    Panel
	Table      TableView
}

// BuildDashboard turns a processed upload into display values. It only
// formats and lays out what the Summary already holds.
func BuildDashboard(d *domain.Dashboard, opts Options) *DashboardView {
	if opts.TopProducts <= 0 {
		opts.TopProducts = DefaultTopProducts
	}
	if opts.PieSlices <= 0 {
		opts.PieSlices = DefaultPieSlices
	}

	f := NewFormatter(opts.CurrencySymbol)
	s := d.Summary
	if s == nil {
		s = &domain.Summary{}
	}

	top := NotAvailable
	if s.HasTopProduct {
		top = s.TopProduct
	}

	return &DashboardView{
		FileName: d.FileName,
		Metrics: []Metric{
			{Label: "Total Sales", Value: f.Currency(s.TotalSales)},
			{Label: "Transactions", Value: f.Count(s.TransactionCount)},
			{Label: "Top Product", Value: top},
		},
		Notices:    notices(d.Report, f),
		Trend:      trendPanel(s, f),
		ProductBar: productBarPanel(s.SalesByProduct, opts.TopProducts, f),
		ProductPie: productPiePanel(s.SalesByProduct, opts.PieSlices, f),
		Hourly:     hourlyPanel(s.SalesByHour, f),
		Payment:    categoryBarPanel("Sales by Payment Type", domain.ColumnCashType, s.SalesByPayment, f, true),
		Monthly:    categoryBarPanel("Sales by Month", domain.ColumnMonthName, s.SalesByMonth, f, false),
		Table:      tableView(d.Table, opts.TableRowLimit),
	}
}

func notices(r domain.CleanReport, f *Formatter) []Notice {
	switch {
	case r.TotalRows == 0:
		return []Notice{{Level: NoticeInfo, Message: "The file has a header row but no data rows."}}
	case r.AllRejected():
		return []Notice{{Level: NoticeWarning, Message: fmt.Sprintf(
			"All %s rows were rejected: %s", f.Count(r.TotalRows), dropDetail(r, f))}}
	case r.Dropped() > 0:
		return []Notice{{Level: NoticeInfo, Message: fmt.Sprintf(
			"%s of %s rows were skipped: %s", f.Count(r.Dropped()), f.Count(r.TotalRows), dropDetail(r, f))}}
	}
	return nil
}

func dropDetail(r domain.CleanReport, f *Formatter) string {
	switch {
	case r.DroppedMoney > 0 && r.DroppedDate > 0:
		return fmt.Sprintf("%s with an unreadable money value and %s with an unreadable Date.",
			f.Count(r.DroppedMoney), f.Count(r.DroppedDate))
	case r.DroppedDate > 0:
		return fmt.Sprintf("%s with an unreadable Date.", f.Count(r.DroppedDate))
	default:
		return fmt.Sprintf("%s with an unreadable money value.", f.Count(r.DroppedMoney))
	}
}

// trendPanel charts daily sales, falling back to a Time_of_Day pie when the
// upload has no Date column
func trendPanel(s *domain.Summary, f *Formatter) Panel {
	if !s.DailySales.Available {
		if !s.SalesByTimeOfDay.Empty() {
			return Panel{
				Title: "Sales by Time of Day",
				Pie:   NewPieChart(categoryData(s.SalesByTimeOfDay.Points), f),
				Empty: "No positive sales to chart by time of day.",
			}
		}
		return Panel{
			Title: "Daily Sales Trend",
			Empty: "The Date column was not found, so the daily sales trend is not available.",
		}
	}

	data := make([]Datum, len(s.DailySales.Points))
	for i, p := range s.DailySales.Points {
		data[i] = Datum{Label: p.Date.Format(time.DateOnly), Value: p.Total}
	}
	return withLine(Panel{Title: "Daily Sales Trend", Empty: "No dated sales to chart."},
		NewLineChart(data, f, ColorTrend, false))
}

func productBarPanel(products []domain.ProductSale, n int, f *Formatter) Panel {
	p := Panel{Title: fmt.Sprintf("Top %d Products by Sales", n), Empty: "Not enough data for product analysis."}
	if c := NewHorizontalBarChart(productData(products, n), f); c != nil {
		p.Bar = c
	}
	return p
}

func productPiePanel(products []domain.ProductSale, n int, f *Formatter) Panel {
	p := Panel{Title: fmt.Sprintf("Share of Top %d Products", n), Empty: "Not enough data for product analysis."}
	if c := NewPieChart(productData(products, n), f); c != nil {
		p.Pie = c
	}
	return p
}

func hourlyPanel(view domain.SeriesView[domain.HourlySale], f *Formatter) Panel {
	p := Panel{Title: "Sales by Hour of Day"}
	if !view.Available {
		p.Empty = "The hour_of_day column was not found."
		return p
	}
	p.Empty = "No sales with a valid hour to chart."

	data := make([]Datum, len(view.Points))
	for i, h := range view.Points {
		data[i] = Datum{Label: strconv.Itoa(h.Hour), Value: h.Total}
	}
	return withLine(p, NewLineChart(data, f, ColorHour, true))
}

func categoryBarPanel(title, column string, view domain.SeriesView[domain.CategorySale], f *Formatter, colorful bool) Panel {
	p := Panel{Title: title}
	if !view.Available {
		p.Empty = fmt.Sprintf("The %s column was not found.", column)
		return p
	}
	p.Empty = "Not enough data to chart."
	if c := NewVerticalBarChart(categoryData(view.Points), f, colorful); c != nil {
		p.Bar = c
	}
	return p
}

func withLine(p Panel, c *LineChart) Panel {
	if c != nil {
		p.Line = c
	}
	return p
}

func productData(products []domain.ProductSale, n int) []Datum {
	if n > 0 && len(products) > n {
		products = products[:n]
	}
	data := make([]Datum, len(products))
	for i, p := range products {
		data[i] = Datum{Label: p.CoffeeName, Value: p.Total}
	}
	return data
}

func categoryData(points []domain.CategorySale) []Datum {
	data := make([]Datum, len(points))
	for i, p := range points {
		data[i] = Datum{Label: p.Label, Value: p.Total}
	}
	return data
}

func tableView(t *domain.Table, limit int) TableView {
	if t == nil {
		return TableView{}
	}

	v := TableView{Columns: t.Columns, Total: t.Len()}
	records := t.Records
	if limit > 0 && len(records) > limit {
		records = records[:limit]
		v.Truncated = true
	}
	v.Rows = make([][]string, len(records))
	for i, r := range records {
		v.Rows[i] = r.Cells
	}
	return v
}
