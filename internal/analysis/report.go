package analysis

import (
	"fmt"
	"strings"

	"github.com/malkhasyann/data-analysis-tool/internal/table"
)

// Report bundles everything the statistics view shows for one table.
type Report struct {
	Name      string     `json:"name"`
	Metrics   Metrics    `json:"metrics"`
	Summaries []Summary  `json:"summaries"`
	Samples   [][]string `json:"samples,omitempty"`
}

// Build computes the report of t with null metrics for column. sampleRows
// limits the head rows copied into the report; 0 disables them.
func Build(t *table.Table, column string, sampleRows int) (*Report, error) {
	m, err := ComputeMetrics(t, column)
	if err != nil {
		return nil, err
	}
	rep := &Report{Name: t.Name, Metrics: m, Summaries: DescribeTable(t)}
	for i := 0; i < t.NumRows() && i < sampleRows; i++ {
		row := t.Row(i)
		cells := make([]string, len(row))
		for j, v := range row {
			cells[j] = v.String()
		}
		rep.Samples = append(rep.Samples, cells)
	}
	return rep, nil
}

// Markdown renders a compact report suitable for terminals and docs.
func (r *Report) Markdown() string {
	var b strings.Builder
	b.WriteString("[DATASET SUMMARY]\n")
	if r.Name != "" {
		b.WriteString(fmt.Sprintf("File: %s\n", r.Name))
	}
	b.WriteString(fmt.Sprintf("Rows: %d (%+d in %s)\n", r.Metrics.Rows, r.Metrics.Delta, safeName(r.Metrics.Column)))
	b.WriteString(fmt.Sprintf("Columns: %d\n", r.Metrics.Columns))

	for _, s := range r.Summaries {
		b.WriteString(fmt.Sprintf("\n[%s] %s\n", safeName(s.Column), s.Kind))
		for _, kv := range s.Rows() {
			b.WriteString(fmt.Sprintf("- %s: %s\n", kv[0], safeVal(kv[1])))
		}
	}

	if len(r.Samples) > 0 {
		b.WriteString("\n[HEAD]\n| ")
		for i, s := range r.Summaries {
			if i > 0 {
				b.WriteString(" | ")
			}
			b.WriteString(safeName(s.Column))
		}
		b.WriteString(" |\n|")
		for range r.Summaries {
			b.WriteString(" --- |")
		}
		b.WriteString("\n")
		for _, row := range r.Samples {
			b.WriteString("| ")
			for i, val := range row {
				if i > 0 {
					b.WriteString(" | ")
				}
				b.WriteString(safeVal(truncate(val, 80)))
			}
			b.WriteString(" |\n")
		}
	}
	return b.String()
}

// truncate shortens s to at most n runes, marking the cut with "...".
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

func safeName(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "(unnamed)"
	}
	return s
}

func safeVal(s string) string { return strings.ReplaceAll(strings.ReplaceAll(s, "\n", " "), "|", "/") }
