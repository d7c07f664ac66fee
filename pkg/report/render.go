package report

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/shopspring/decimal"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// Format selects the output encoding.
type Format string

const (
	FormatMarkdown Format = "markdown"
	FormatHTML     Format = "html"
)

// ParseFormat accepts "markdown"/"md" and "html".
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "markdown", "md", "":
		return FormatMarkdown, nil
	case "html", "htm":
		return FormatHTML, nil
	}
	return "", fmt.Errorf("report: unknown format %q", s)
}

// Ext is the file extension for the format.
func (f Format) Ext() string {
	if f == FormatHTML {
		return ".html"
	}
	return ".md"
}

// Renderer writes workbooks. Monetary values are rounded half away from zero
// to Places decimals.
type Renderer struct {
	Places int32

	md     goldmark.Markdown
	policy *bluemonday.Policy
}

// NewRenderer creates a renderer with GFM tables and a UGC sanitizing policy.
func NewRenderer(places int32) *Renderer {
	policy := bluemonday.UGCPolicy()
	policy.AllowElements("table", "thead", "tbody", "tr", "th", "td")
	policy.AllowStyles("text-align").MatchingEnum("left", "right", "center").OnElements("th", "td")
	return &Renderer{
		Places: places,
		md:     goldmark.New(goldmark.WithExtensions(extension.Table)),
		policy: policy,
	}
}

// FormatValue renders one cell. NaN and infinities are spelled out.
func (r *Renderer) FormatValue(v float64) string {
	switch {
	case math.IsNaN(v):
		return "n/a"
	case math.IsInf(v, 1):
		return "+inf"
	case math.IsInf(v, -1):
		return "-inf"
	}
	return decimal.NewFromFloat(v).StringFixed(r.Places)
}

// Markdown writes the workbook as GitHub-flavoured Markdown tables.
func (r *Renderer) Markdown(w io.Writer, wb *Workbook) error {
	var b strings.Builder
	if wb.Title != "" {
		fmt.Fprintf(&b, "# %s\n\n", escapeCell(wb.Title))
	}
	if wb.RunID != "" {
		fmt.Fprintf(&b, "Run: `%s`\n\n", wb.RunID)
	}
	for _, s := range wb.Sheets {
		fmt.Fprintf(&b, "## %s\n\n", escapeCell(s.Name))

		b.WriteString("| |")
		for _, c := range s.ColumnHeaders {
			b.WriteString(" " + escapeCell(c) + " |")
		}
		b.WriteString("\n|---|")
		for range s.ColumnHeaders {
			b.WriteString("---:|")
		}
		b.WriteString("\n")

		for i, row := range s.Cells {
			label := ""
			if i < len(s.RowHeaders) {
				label = s.RowHeaders[i]
			}
			b.WriteString("| " + escapeCell(label) + " |")
			for j := range s.ColumnHeaders {
				cell := ""
				if j < len(row) {
					cell = r.FormatValue(row[j])
				}
				b.WriteString(" " + cell + " |")
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// HTML converts the Markdown rendering to HTML and sanitizes it.
func (r *Renderer) HTML(w io.Writer, wb *Workbook) error {
	var md bytes.Buffer
	if err := r.Markdown(&md, wb); err != nil {
		return err
	}
	var raw bytes.Buffer
	if err := r.md.Convert(md.Bytes(), &raw); err != nil {
		return fmt.Errorf("report: render html: %w", err)
	}
	_, err := w.Write(r.policy.SanitizeBytes(raw.Bytes()))
	return err
}

// Render dispatches on format.
func (r *Renderer) Render(w io.Writer, wb *Workbook, f Format) error {
	if f == FormatHTML {
		return r.HTML(w, wb)
	}
	return r.Markdown(w, wb)
}

// Save writes the workbook to dir/name with the format's extension and returns the path.
func (r *Renderer) Save(dir, name string, wb *Workbook, f Format) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, name+f.Ext())
	file, err := os.Create(path)
	if err != nil {
		return "", err
	}
	if err := r.Render(file, wb, f); err != nil {
		file.Close()
		return "", err
	}
	return path, file.Close()
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
