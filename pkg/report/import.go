package report

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/shopspring/decimal"

	"project_finance/pkg/core/params"
)

// =============================================================================
// HTML TABLE IMPORT
// =============================================================================

// ParseHTMLTables reads every <table> in an HTML document as a Sheet.
// The first row supplies column headers (its first cell is the corner), every
// other row starts with its label. Empty cells and "n/a" read as NaN; thousands
// separators are ignored.
func ParseHTMLTables(r io.Reader) ([]Sheet, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("report: parse html: %w", err)
	}

	var sheets []Sheet
	var parseErr error
	doc.Find("table").EachWithBreak(func(i int, table *goquery.Selection) bool {
		s := Sheet{Name: tableName(table, i)}
		table.Find("tr").EachWithBreak(func(j int, tr *goquery.Selection) bool {
			cells := tr.Find("th, td")
			if cells.Length() == 0 {
				return true
			}
			if j == 0 {
				cells.Each(func(k int, c *goquery.Selection) {
					if k > 0 {
						s.ColumnHeaders = append(s.ColumnHeaders, strings.TrimSpace(c.Text()))
					}
				})
				return true
			}

			var row []float64
			cells.EachWithBreak(func(k int, c *goquery.Selection) bool {
				text := strings.TrimSpace(c.Text())
				if k == 0 {
					s.RowHeaders = append(s.RowHeaders, text)
					return true
				}
				v, err := parseCell(text)
				if err != nil {
					parseErr = fmt.Errorf("report: table %q row %d column %d: %w", s.Name, j, k, err)
					return false
				}
				row = append(row, v)
				return true
			})
			s.Cells = append(s.Cells, row)
			return parseErr == nil
		})
		sheets = append(sheets, s)
		return parseErr == nil
	})
	if parseErr != nil {
		return nil, parseErr
	}
	return sheets, nil
}

// tableName prefers a <caption>, then the nearest preceding heading.
func tableName(table *goquery.Selection, i int) string {
	if c := strings.TrimSpace(table.Find("caption").First().Text()); c != "" {
		return c
	}
	if h := strings.TrimSpace(table.PrevAllFiltered("h1, h2, h3, h4").First().Text()); h != "" {
		return h
	}
	return fmt.Sprintf("Table %d", i+1)
}

func parseCell(text string) (float64, error) {
	clean := strings.ReplaceAll(strings.ReplaceAll(text, ",", ""), " ", "")
	switch strings.ToLower(clean) {
	case "", "n/a", "nan", "-":
		return math.NaN(), nil
	case "+inf", "inf":
		return math.Inf(1), nil
	case "-inf":
		return math.Inf(-1), nil
	}
	d, err := decimal.NewFromString(clean)
	if err != nil {
		return 0, err
	}
	return d.InexactFloat64(), nil
}

// Adjustments extracts the cost, cash and equity adjustment series from rows
// labelled "cost", "cash" and "equity" (case-insensitive). Missing rows stay
// empty; a present row must cover all years and contain no NaN.
func Adjustments(sheets []Sheet, years int) (params.Adjustments, error) {
	var adj params.Adjustments
	targets := map[string]*[]float64{
		"cost":   &adj.Cost,
		"cash":   &adj.Cash,
		"equity": &adj.Equity,
	}
	for _, s := range sheets {
		for i, label := range s.RowHeaders {
			dst, ok := targets[strings.ToLower(label)]
			if !ok || *dst != nil {
				continue
			}
			row := s.Cells[i]
			if len(row) != years {
				return params.Adjustments{}, fmt.Errorf("%w: %s row has %d values, want %d", ErrShape, label, len(row), years)
			}
			for j, v := range row {
				if math.IsNaN(v) || math.IsInf(v, 0) {
					return params.Adjustments{}, fmt.Errorf("%w: %s year %d is not a number", ErrShape, label, j+1)
				}
			}
			*dst = append([]float64(nil), row...)
		}
	}
	return adj, nil
}
