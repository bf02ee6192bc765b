package testutil

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
)

// utf8BOM is prepended by spreadsheet tools when exporting CSV
const utf8BOM = "\ufeff"

// EndToEndCSV is the three row upload used across packages: two Latte sales
// on 1 Feb 2024 and one Espresso sale on 2 Feb 2024, totalling 8.0.
const EndToEndCSV = "coffee_name;money;Date\n" +
	"Latte;3,5;01/02/2024\n" +
	"Latte;2,5;01/02/2024\n" +
	"Espresso;2,0;02/02/2024\n"

// FullColumnsCSV carries every recognised column
const FullColumnsCSV = "hour_of_day;cash_type;money;coffee_name;Time_of_Day;Weekday;Month_name;Date\n" +
	"10;card;38,7;Latte;Morning;Fri;Mar;01/03/2024\n" +
	"12;card;28,9;Americano;Afternoon;Fri;Mar;01/03/2024\n" +
	"19;cash;33,8;Latte;Night;Sat;Jan;13/01/2024\n" +
	"9;card;24;Espresso;Morning;Sat;Jan;13/01/2024\n"

// SalesCSV builds semicolon separated uploads row by row
type SalesCSV struct {
	header []string
	rows   [][]string
	bom    bool
}

// NewSalesCSV starts a CSV with the given header, defaulting to
// coffee_name;money;Date
func NewSalesCSV(columns ...string) *SalesCSV {
	if len(columns) == 0 {
		columns = []string{"coffee_name", "money", "Date"}
	}
	return &SalesCSV{header: columns}
}

// Row appends one data row
func (c *SalesCSV) Row(cells ...string) *SalesCSV {
	c.rows = append(c.rows, cells)
	return c
}

// WithBOM prefixes the output with a UTF-8 byte order mark
func (c *SalesCSV) WithBOM() *SalesCSV {
	c.bom = true
	return c
}

// Bytes renders the CSV
func (c *SalesCSV) Bytes() []byte {
	var b strings.Builder
	if c.bom {
		b.WriteString(utf8BOM)
	}
	b.WriteString(strings.Join(c.header, ";"))
	b.WriteByte('\n')
	for _, row := range c.rows {
		b.WriteString(strings.Join(row, ";"))
		b.WriteByte('\n')
	}
	return []byte(b.String())
}

// Reader renders the CSV as a reader
func (c *SalesCSV) Reader() io.Reader {
	return bytes.NewReader(c.Bytes())
}

// SalesWorkbook builds an in-memory .xlsx upload with excelize
type SalesWorkbook struct {
	t     *testing.T
	file  *excelize.File
	sheet string
	next  int
}

// NewSalesWorkbook creates a workbook whose first sheet is named sheet
func NewSalesWorkbook(t *testing.T, sheet string) *SalesWorkbook {
	t.Helper()

	f := excelize.NewFile()
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		t.Fatalf("rename sheet: %v", err)
	}
	t.Cleanup(func() { _ = f.Close() })

	return &SalesWorkbook{t: t, file: f, sheet: sheet, next: 1}
}

// Header writes the header row
func (w *SalesWorkbook) Header(columns ...string) *SalesWorkbook {
	values := make([]any, len(columns))
	for i, c := range columns {
		values[i] = c
	}
	return w.Row(values...)
}

// Row writes the next row. Numbers are stored as numeric cells.
func (w *SalesWorkbook) Row(values ...any) *SalesWorkbook {
	w.t.Helper()

	cell, err := excelize.CoordinatesToCellName(1, w.next)
	if err != nil {
		w.t.Fatalf("cell name: %v", err)
	}
	if err := w.file.SetSheetRow(w.sheet, cell, &values); err != nil {
		w.t.Fatalf("write row %d: %v", w.next, err)
	}
	w.next++
	return w
}

// SkipRow leaves the next row empty
func (w *SalesWorkbook) SkipRow() *SalesWorkbook {
	w.next++
	return w
}

// File exposes the underlying workbook for cell-level tweaks
func (w *SalesWorkbook) File() *excelize.File {
	return w.file
}

// Bytes serializes the workbook
func (w *SalesWorkbook) Bytes() []byte {
	w.t.Helper()

	buf, err := w.file.WriteToBuffer()
	if err != nil {
		w.t.Fatalf("write workbook: %v", err)
	}
	return buf.Bytes()
}

// ReadWorkbookRows returns the formatted rows of the first sheet in data
func ReadWorkbookRows(t *testing.T, data []byte) [][]string {
	t.Helper()

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(f.GetSheetList()[0])
	if err != nil {
		t.Fatalf("read rows: %v", err)
	}
	return rows
}
