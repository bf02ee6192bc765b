package dataprocessing

import (
	"context"
	"log/slog"
	"math"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	apierrors "coffeedash/internal/errors"
	"coffeedash/pkg/contracts/domain"
)

// Aggregator computes the dashboard views from a cleaned Table
type Aggregator struct {
	logger *slog.Logger
}

// NewAggregator creates a new aggregator
func NewAggregator(logger *slog.Logger) *Aggregator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Aggregator{logger: logger.With(slog.String("component", "aggregator"))}
}

// Aggregate computes every view of t concurrently. The table is only read,
// and each goroutine owns one field of the summary.
func (a *Aggregator) Aggregate(ctx context.Context, t *domain.Table) (*domain.Summary, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s := &domain.Summary{}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.TotalSales = TotalSales(t)
		s.TransactionCount = TransactionCount(t)
		s.TopProduct, s.HasTopProduct = TopProduct(t)
		return gctx.Err()
	})
	g.Go(func() error {
		s.DailySales = DailySales(t)
		return gctx.Err()
	})
	g.Go(func() error {
		s.SalesByProduct = SalesByProduct(t)
		return gctx.Err()
	})
	g.Go(func() error {
		s.SalesByHour = SalesByHour(t)
		return gctx.Err()
	})
	g.Go(func() error {
		s.SalesByPayment = SalesByPayment(t)
		return gctx.Err()
	})
	g.Go(func() error {
		s.SalesByMonth = SalesByMonth(t)
		return gctx.Err()
	})
	g.Go(func() error {
		s.SalesByTimeOfDay = SalesByTimeOfDay(t)
		return gctx.Err()
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := checkFinite(s); err != nil {
		return nil, err
	}

	a.logger.DebugContext(ctx, "summary computed",
		slog.Int("transactions", s.TransactionCount),
		slog.Float64("total_sales", s.TotalSales),
		slog.Int("products", len(s.SalesByProduct)))

	return s, nil
}

// TotalSales is the sum of money over all records
func TotalSales(t *domain.Table) float64 {
	var total float64
	for _, r := range records(t) {
		total += r.Money
	}
	return total
}

// TransactionCount is the number of retained records
func TransactionCount(t *domain.Table) int {
	return t.Len()
}

// TopProduct returns the most frequent coffee_name. Ties go to the name that
// appears first. Blank names never win.
func TopProduct(t *domain.Table) (string, bool) {
	counts := make(map[string]int)
	var (
		order []string
		best  string
		max   int
	)
	for _, r := range records(t) {
		if r.CoffeeName == "" {
			continue
		}
		if _, seen := counts[r.CoffeeName]; !seen {
			order = append(order, r.CoffeeName)
		}
		counts[r.CoffeeName]++
	}
	for _, name := range order {
		if counts[name] > max {
			best, max = name, counts[name]
		}
	}
	return best, max > 0
}

// DailySales sums money per calendar date in ascending order
func DailySales(t *domain.Table) domain.SeriesView[domain.DailySale] {
	if !t.HasColumn(domain.ColumnDate) {
		return domain.SeriesView[domain.DailySale]{}
	}

	sums := make(map[time.Time]float64)
	for _, r := range records(t) {
		if r.Date == nil {
			continue
		}
		y, m, d := r.Date.Date()
		sums[time.Date(y, m, d, 0, 0, 0, 0, time.UTC)] += r.Money
	}

	points := make([]domain.DailySale, 0, len(sums))
	for day, total := range sums {
		points = append(points, domain.DailySale{Date: day, Total: total})
	}
	sort.Slice(points, func(i, j int) bool {
		return points[i].Date.Before(points[j].Date)
	})

	return domain.SeriesView[domain.DailySale]{Available: true, Points: points}
}

// SalesByProduct sums money per product, largest first, with each product's
// share of the overall total
func SalesByProduct(t *domain.Table) []domain.ProductSale {
	groups := groupByLabel(t, func(r domain.Record) string { return r.CoffeeName })
	if len(groups) == 0 {
		return nil
	}

	total := TotalSales(t)
	products := make([]domain.ProductSale, 0, len(groups))
	for _, g := range groups {
		p := domain.ProductSale{CoffeeName: g.Label, Total: g.Total}
		if total != 0 {
			p.Percentage = 100 * g.Total / total
		}
		products = append(products, p)
	}
	sort.Slice(products, func(i, j int) bool {
		if products[i].Total != products[j].Total {
			return products[i].Total > products[j].Total
		}
		return products[i].CoffeeName < products[j].CoffeeName
	})
	return products
}

// SalesByHour sums money per hour of day in ascending hour order
func SalesByHour(t *domain.Table) domain.SeriesView[domain.HourlySale] {
	if !t.HasColumn(domain.ColumnHourOfDay) {
		return domain.SeriesView[domain.HourlySale]{}
	}

	sums := make(map[int]float64)
	for _, r := range records(t) {
		if r.HourOfDay == nil {
			continue
		}
		sums[*r.HourOfDay] += r.Money
	}

	points := make([]domain.HourlySale, 0, len(sums))
	for hour, total := range sums {
		points = append(points, domain.HourlySale{Hour: hour, Total: total})
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Hour < points[j].Hour })

	return domain.SeriesView[domain.HourlySale]{Available: true, Points: points}
}

// SalesByPayment sums money per cash_type label in label order
func SalesByPayment(t *domain.Table) domain.SeriesView[domain.CategorySale] {
	if !t.HasColumn(domain.ColumnCashType) {
		return domain.SeriesView[domain.CategorySale]{}
	}

	points := groupByLabel(t, func(r domain.Record) string { return r.CashType })
	sort.Slice(points, func(i, j int) bool { return points[i].Label < points[j].Label })

	return domain.SeriesView[domain.CategorySale]{Available: true, Points: points}
}

// SalesByMonth sums money per month in calendar order. Months with no sales
// are omitted and labels that are not a known abbreviation are ignored.
func SalesByMonth(t *domain.Table) domain.SeriesView[domain.CategorySale] {
	if !t.HasColumn(domain.ColumnMonthName) {
		return domain.SeriesView[domain.CategorySale]{}
	}

	var (
		sums [12]float64
		seen [12]bool
	)
	for _, r := range records(t) {
		i := domain.MonthIndex(r.MonthName)
		if i < 0 {
			continue
		}
		sums[i] += r.Money
		seen[i] = true
	}

	points := make([]domain.CategorySale, 0, len(domain.MonthOrder))
	for i, month := range domain.MonthOrder {
		if seen[i] {
			points = append(points, domain.CategorySale{Label: month, Total: sums[i]})
		}
	}

	return domain.SeriesView[domain.CategorySale]{Available: true, Points: points}
}

// SalesByTimeOfDay sums money per Time_of_Day label, largest first
func SalesByTimeOfDay(t *domain.Table) domain.SeriesView[domain.CategorySale] {
	if !t.HasColumn(domain.ColumnTimeOfDay) {
		return domain.SeriesView[domain.CategorySale]{}
	}

	points := groupByLabel(t, func(r domain.Record) string { return r.TimeOfDay })
	sort.Slice(points, func(i, j int) bool {
		if points[i].Total != points[j].Total {
			return points[i].Total > points[j].Total
		}
		return points[i].Label < points[j].Label
	})

	return domain.SeriesView[domain.CategorySale]{Available: true, Points: points}
}

// groupByLabel sums money per label, collecting blank labels under
// domain.BlankLabel. The result is in first-seen order.
func groupByLabel(t *domain.Table, label func(domain.Record) string) []domain.CategorySale {
	index := make(map[string]int)
	var groups []domain.CategorySale
	for _, r := range records(t) {
		key := label(r)
		if key == "" {
			key = domain.BlankLabel
		}
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, domain.CategorySale{Label: key})
		}
		groups[i].Total += r.Money
	}
	return groups
}

// checkFinite rejects a summary whose sums overflowed. Every money cell is
// finite, but enough large ones still add up to an infinity.
func checkFinite(s *domain.Summary) error {
	bad := func(v float64) bool { return math.IsInf(v, 0) || math.IsNaN(v) }

	overflow := bad(s.TotalSales)
	for _, p := range s.SalesByProduct {
		overflow = overflow || bad(p.Total) || bad(p.Percentage)
	}
	for _, p := range s.DailySales.Points {
		overflow = overflow || bad(p.Total)
	}
	for _, p := range s.SalesByHour.Points {
		overflow = overflow || bad(p.Total)
	}
	for _, view := range []domain.SeriesView[domain.CategorySale]{s.SalesByPayment, s.SalesByMonth, s.SalesByTimeOfDay} {
		for _, p := range view.Points {
			overflow = overflow || bad(p.Total)
		}
	}

	if overflow {
		return apierrors.NewLoadError("money values are too large to total", nil)
	}
	return nil
}

func records(t *domain.Table) []domain.Record {
	if t == nil {
		return nil
	}
	return t.Records
}
