package domain

import (
	"time"
)

// Summary holds every derived view computed from a cleaned Table.
// All views are read-only and independent of each other.
type Summary struct {
	TotalSales       float64 `json:"total_sales"`
	TransactionCount int     `json:"transaction_count"`
	TopProduct       string  `json:"top_product,omitempty"`
	HasTopProduct    bool    `json:"has_top_product"`

	DailySales       SeriesView[DailySale]       `json:"daily_sales"`
	SalesByProduct   []ProductSale               `json:"sales_by_product"`
	SalesByHour      SeriesView[HourlySale]      `json:"sales_by_hour"`
	SalesByPayment   SeriesView[CategorySale]    `json:"sales_by_payment"`
	SalesByMonth     SeriesView[CategorySale]    `json:"sales_by_month"`
	SalesByTimeOfDay SeriesView[CategorySale]    `json:"sales_by_time_of_day"`
}

// SeriesView wraps a grouped view whose source column may be absent.
// Available is false when the upload did not carry the column at all, which
// is distinct from an available but empty series.
type SeriesView[T any] struct {
	Available bool `json:"available"`
	Points    []T  `json:"points"`
}

// Empty reports whether there is nothing to chart
func (v SeriesView[T]) Empty() bool {
	return !v.Available || len(v.Points) == 0
}

// DailySale is the money total for one calendar date
type DailySale struct {
	Date  time.Time `json:"date"`
	Total float64   `json:"total"`
}

// ProductSale is the money total for one product with its share of all sales
type ProductSale struct {
	CoffeeName string  `json:"coffee_name"`
	Total      float64 `json:"total"`
	Percentage float64 `json:"percentage"`
}

// HourlySale is the money total for one hour of the day
type HourlySale struct {
	Hour  int     `json:"hour"`
	Total float64 `json:"total"`
}

// CategorySale is the money total for one categorical label
type CategorySale struct {
	Label string  `json:"label"`
	Total float64 `json:"total"`
}

// CleanReport counts what the cleaner kept and what it silently dropped
type CleanReport struct {
	TotalRows    int `json:"total_rows"`
	DroppedMoney int `json:"dropped_money"`
	DroppedDate  int `json:"dropped_date"`
	Retained     int `json:"retained"`
}

// Dropped returns the number of rows removed for any reason
func (r CleanReport) Dropped() int {
	return r.DroppedMoney + r.DroppedDate
}

// AllRejected reports whether rows were uploaded but none survived cleaning
func (r CleanReport) AllRejected() bool {
	return r.TotalRows > 0 && r.Retained == 0
}

// Dashboard is the complete result of processing one upload
type Dashboard struct {
	FileName string       `json:"file_name"`
	Source   SourceFormat `json:"source"`
	Report   CleanReport  `json:"report"`
	Summary  *Summary     `json:"summary"`
	Table    *Table       `json:"-"`
}
