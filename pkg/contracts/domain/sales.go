package domain

import (
	"strings"
	"time"
)

// Column names recognised in an uploaded sales file. Header matching is exact.
const (
	ColumnCoffeeName = "coffee_name"
	ColumnMoney      = "money"
	ColumnDate       = "Date"
	ColumnHourOfDay  = "hour_of_day"
	ColumnMonthName  = "Month_name"
	ColumnCashType   = "cash_type"
	ColumnTimeOfDay  = "Time_of_Day"
)

// BlankLabel groups rows whose categorical cell was empty
const BlankLabel = "(blank)"

// RequiredColumns must be present in every upload.
var RequiredColumns = []string{ColumnMoney, ColumnCoffeeName}

// SourceFormat identifies how an upload was decoded
type SourceFormat string

const (
	SourceCSV         SourceFormat = "csv"
	SourceSpreadsheet SourceFormat = "xlsx"
)

// RawTable is the loader output: a header plus text cells, nothing coerced yet.
type RawTable struct {
	Source   SourceFormat `json:"source"`
	FileName string       `json:"file_name"`
	Columns  []string     `json:"columns"`
	Rows     [][]string   `json:"rows"`
}

// ColumnIndex returns the position of a header or -1 when absent
func (t *RawTable) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Record is one cleaned row of sales data.
//
// Optional fields stay at their zero value (nil for pointers, "" for labels)
// when the column is missing from the upload or the cell was blank.
type Record struct {
	CoffeeName string     `json:"coffee_name"`
	Money      float64    `json:"money"`
	Date       *time.Time `json:"date,omitempty"`
	HourOfDay  *int       `json:"hour_of_day,omitempty"`
	MonthName  string     `json:"month_name,omitempty"`
	CashType   string     `json:"cash_type,omitempty"`
	TimeOfDay  string     `json:"time_of_day,omitempty"`

	// Cells holds every uploaded cell aligned with Table.Columns, with money
	// and Date rewritten to their normalized form.
	Cells []string `json:"cells"`
}

// Table is the cleaned, ordered set of records for one upload
type Table struct {
	Source  SourceFormat `json:"source"`
	Columns []string     `json:"columns"`
	Records []Record     `json:"records"`
}

// HasColumn reports whether the upload carried the named column
func (t *Table) HasColumn(name string) bool {
	if t == nil {
		return false
	}
	for _, c := range t.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// Len returns the number of retained records
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Records)
}

// MonthOrder is the calendar sequence used for month grouping.
var MonthOrder = []string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}

// MonthIndex returns the calendar position (0-11) of a three-letter month
// abbreviation, or -1 for anything else.
func MonthIndex(name string) int {
	name = strings.TrimSpace(name)
	for i, m := range MonthOrder {
		if m == name {
			return i
		}
	}
	return -1
}
