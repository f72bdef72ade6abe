package kpi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
)

// Output formats accepted by Render.
const (
	FormatTable    = "table"
	FormatJSON     = "json"
	FormatCSV      = "csv"
	FormatMarkdown = "md"
)

// ErrFormat is returned for an unknown output format.
var ErrFormat = errors.New("unknown output format")

// ValidFormat reports whether Render accepts format.
func ValidFormat(format string) bool {
	switch format {
	case FormatTable, FormatJSON, FormatCSV, FormatMarkdown, "markdown", "":
		return true
	}
	return false
}

// Render writes results to w in the given format.
func Render(w io.Writer, results []*Result, format string) error {
	switch format {
	case FormatJSON:
		return renderJSON(w, results)
	case FormatCSV:
		for i, r := range results {
			if i > 0 {
				_, _ = fmt.Fprintln(w)
			}
			_, _ = fmt.Fprintf(w, "# %s\n", r.ID)
			renderCSV(w, r)
		}
		return nil
	case FormatMarkdown, "markdown":
		for i, r := range results {
			_, _ = fmt.Fprintf(w, "### KPI %d: %s\n\n", i+1, r.Title)
			renderMarkdown(w, r)
			_, _ = fmt.Fprintln(w)
		}
		return nil
	case FormatTable, "":
		for i, r := range results {
			renderTable(w, i+1, r)
		}
		return nil
	default:
		return fmt.Errorf("%w: %q (want table, json, csv or md)", ErrFormat, format)
	}
}

func renderTable(w io.Writer, n int, r *Result) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.SetTitle(fmt.Sprintf("KPI %d: %s", n, r.Title))

	header := make(table.Row, len(r.Columns))
	for i, col := range r.Columns {
		header[i] = col
	}
	t.AppendHeader(header)
	for _, values := range r.Rows {
		row := make(table.Row, len(values))
		for i, v := range values {
			row[i] = formatValue(v)
		}
		t.AppendRow(row)
	}
	t.Render()
	_, _ = fmt.Fprintf(w, "(%d rows)\n\n", len(r.Rows))
}

type jsonResult struct {
	ID      string           `json:"id"`
	Title   string           `json:"title"`
	Columns []string         `json:"columns"`
	Rows    []map[string]any `json:"rows"`
}

func renderJSON(w io.Writer, results []*Result) error {
	out := make([]jsonResult, 0, len(results))
	for _, r := range results {
		jr := jsonResult{ID: r.ID, Title: r.Title, Columns: r.Columns, Rows: []map[string]any{}}
		for _, values := range r.Rows {
			row := make(map[string]any, len(values))
			for i, col := range r.Columns {
				row[col] = values[i]
			}
			jr.Rows = append(jr.Rows, row)
		}
		out = append(out, jr)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func renderCSV(w io.Writer, r *Result) {
	_, _ = fmt.Fprintln(w, strings.Join(r.Columns, ","))
	for _, values := range r.Rows {
		cells := make([]string, len(values))
		for i, v := range values {
			cells[i] = escapeCSV(formatValue(v))
		}
		_, _ = fmt.Fprintln(w, strings.Join(cells, ","))
	}
}

func renderMarkdown(w io.Writer, r *Result) {
	if len(r.Rows) == 0 {
		_, _ = fmt.Fprintln(w, "(0 rows)")
		return
	}
	_, _ = fmt.Fprintf(w, "| %s |\n", strings.Join(r.Columns, " | "))
	seps := make([]string, len(r.Columns))
	for i := range seps {
		seps[i] = "---"
	}
	_, _ = fmt.Fprintf(w, "| %s |\n", strings.Join(seps, " | "))
	for _, values := range r.Rows {
		cells := make([]string, len(values))
		for i, v := range values {
			cells[i] = formatValue(v)
		}
		_, _ = fmt.Fprintf(w, "| %s |\n", strings.Join(cells, " | "))
	}
}

func formatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return "NULL"
	case []byte:
		return string(x)
	default:
		return fmt.Sprintf("%v", x)
	}
}

func escapeCSV(s string) string {
	if strings.ContainsAny(s, ",\"\n") {
		return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
	}
	return s
}
