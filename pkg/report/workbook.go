// Package report turns computed tables into workbooks and renders them as
// Markdown or sanitized HTML. It also reads numeric tables back from HTML.
package report

import (
	"errors"
	"fmt"
	"strconv"

	"project_finance/pkg/core/projection"
)

// ErrShape is returned when headers or rows do not match the data.
var ErrShape = errors.New("report: data shape mismatch")

// Sheet is one named numeric table. Cells are indexed [row][column].
type Sheet struct {
	Name          string
	RowHeaders    []string
	ColumnHeaders []string
	Cells         [][]float64
}

// Workbook is an ordered set of sheets.
type Workbook struct {
	Title  string
	RunID  string
	Sheets []Sheet
}

// Options carries optional labels. Empty fields fall back to defaults:
// sheet "Data" (or "Sheet k" for cubes), rows and columns numbered from 1.
type Options struct {
	Title         string
	RunID         string
	SheetNames    []string
	RowHeaders    []string
	ColumnHeaders []string
}

// FromVector builds a one-row workbook.
func FromVector(data []float64, opts Options) (*Workbook, error) {
	rows := opts.RowHeaders
	if len(rows) == 0 {
		rows = []string{"Data"}
	}
	o := opts
	o.RowHeaders = rows[:1]
	return FromMatrix([][]float64{data}, o)
}

// FromMatrix builds a single-sheet workbook.
func FromMatrix(data [][]float64, opts Options) (*Workbook, error) {
	name := "Data"
	if len(opts.SheetNames) > 0 {
		name = opts.SheetNames[0]
	}
	s, err := sheet(name, data, opts.RowHeaders, opts.ColumnHeaders)
	if err != nil {
		return nil, err
	}
	return &Workbook{Title: opts.Title, RunID: opts.RunID, Sheets: []Sheet{s}}, nil
}

// FromCube builds one sheet per outer slice, sharing row and column headers.
func FromCube(data [][][]float64, opts Options) (*Workbook, error) {
	if len(opts.SheetNames) > 0 && len(opts.SheetNames) != len(data) {
		return nil, fmt.Errorf("%w: %d sheet names for %d sheets", ErrShape, len(opts.SheetNames), len(data))
	}
	wb := &Workbook{Title: opts.Title, RunID: opts.RunID}
	for k, m := range data {
		name := "Sheet " + strconv.Itoa(k+1)
		if len(opts.SheetNames) > 0 {
			name = opts.SheetNames[k]
		}
		s, err := sheet(name, m, opts.RowHeaders, opts.ColumnHeaders)
		if err != nil {
			return nil, err
		}
		wb.Sheets = append(wb.Sheets, s)
	}
	return wb, nil
}

// FromStatements builds the six-sheet audit workbook of one projection run.
// Columns are timeline years; a trailing "Total" column holds each row's aggregate.
func FromStatements(st *projection.Statements, opts Options) (*Workbook, error) {
	if st == nil {
		return nil, fmt.Errorf("%w: nil statements", ErrShape)
	}
	wb := &Workbook{Title: opts.Title, RunID: opts.RunID}
	for _, t := range st.Tables() {
		s := Sheet{Name: t.Name}
		years := 0
		for _, r := range t.Rows {
			if len(r.Values) > years {
				years = len(r.Values)
			}
		}
		for y := 0; y < years; y++ {
			s.ColumnHeaders = append(s.ColumnHeaders, yearLabel(y, st.ConstructionYears))
		}
		s.ColumnHeaders = append(s.ColumnHeaders, "Total")

		for _, r := range t.Rows {
			row := make([]float64, years+1)
			copy(row, r.Values)
			row[years] = r.Total()
			s.RowHeaders = append(s.RowHeaders, r.Label)
			s.Cells = append(s.Cells, row)
		}
		wb.Sheets = append(wb.Sheets, s)
	}
	return wb, nil
}

func yearLabel(t, construction int) string {
	if t < construction {
		return "C" + strconv.Itoa(t+1)
	}
	return "Y" + strconv.Itoa(t-construction+1)
}

func sheet(name string, data [][]float64, rows, cols []string) (Sheet, error) {
	width := 0
	for _, r := range data {
		if len(r) > width {
			width = len(r)
		}
	}
	if len(rows) > 0 && len(rows) != len(data) {
		return Sheet{}, fmt.Errorf("%w: %d row headers for %d rows in %q", ErrShape, len(rows), len(data), name)
	}
	if len(cols) > 0 && len(cols) != width {
		return Sheet{}, fmt.Errorf("%w: %d column headers for %d columns in %q", ErrShape, len(cols), width, name)
	}

	s := Sheet{Name: name, RowHeaders: rows, ColumnHeaders: cols}
	if len(rows) == 0 {
		s.RowHeaders = numbered(len(data))
	}
	if len(cols) == 0 {
		s.ColumnHeaders = numbered(width)
	}
	s.Cells = make([][]float64, len(data))
	for i, r := range data {
		s.Cells[i] = make([]float64, len(r))
		copy(s.Cells[i], r)
	}
	return s, nil
}

func numbered(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = strconv.Itoa(i + 1)
	}
	return out
}
