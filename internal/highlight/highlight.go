// Package highlight annotates table cells for the statistics grid: missing
// values, and per-column minimum and maximum.
package highlight

import (
	"fmt"
	"strings"

	"github.com/malkhasyann/data-analysis-tool/internal/table"
)

// Flags are the highlight checkboxes.
type Flags struct {
	Missing bool `json:"missing" mapstructure:"missing"`
	Min     bool `json:"min" mapstructure:"min"`
	Max     bool `json:"max" mapstructure:"max"`
}

// Any reports whether at least one pass is enabled.
func (f Flags) Any() bool { return f.Missing || f.Min || f.Max }

// Mark is a bit set of the annotations on one cell.
type Mark uint8

const (
	MarkMissing Mark = 1 << iota
	MarkMin
	MarkMax
)

// Has reports whether every bit of o is set in m.
func (m Mark) Has(o Mark) bool { return o != 0 && m&o == o }

func (m Mark) String() string {
	var parts []string
	if m.Has(MarkMissing) {
		parts = append(parts, "missing")
	}
	if m.Has(MarkMin) {
		parts = append(parts, "min")
	}
	if m.Has(MarkMax) {
		parts = append(parts, "max")
	}
	return strings.Join(parts, "+")
}

// Cell addresses one cell of the table.
type Cell struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// View is a table paired with its cell annotations.
type View struct {
	Table *table.Table `json:"-"`
	Flags Flags        `json:"flags"`
	// Marks is indexed [column][row].
	Marks [][]Mark `json:"marks"`
	// Skipped lists the columns min/max was not applied to because their
	// values are not numeric.
	Skipped []string `json:"skipped,omitempty"`
}

// Render runs each enabled pass over every column of t. Passes are
// independent; a cell may carry several marks.
func Render(t *table.Table, flags Flags) *View {
	v := &View{Table: t, Flags: flags, Marks: make([][]Mark, t.NumCols())}
	for j, col := range t.Columns {
		marks := make([]Mark, len(col.Values))
		v.Marks[j] = marks
		if flags.Missing {
			for i, val := range col.Values {
				if val.IsNull() {
					marks[i] |= MarkMissing
				}
			}
		}
		if !flags.Min && !flags.Max {
			continue
		}
		if !col.IsNumeric() {
			v.Skipped = append(v.Skipped, col.Name)
			continue
		}
		lo, hi, ok := extremes(col)
		if !ok {
			continue
		}
		for i, val := range col.Values {
			if val.IsNull() {
				continue
			}
			if flags.Min && val.Num == lo {
				marks[i] |= MarkMin
			}
			if flags.Max && val.Num == hi {
				marks[i] |= MarkMax
			}
		}
	}
	return v
}

func extremes(col *table.Column) (lo, hi float64, ok bool) {
	for _, val := range col.Values {
		if val.IsNull() {
			continue
		}
		if !ok {
			lo, hi, ok = val.Num, val.Num, true
			continue
		}
		if val.Num < lo {
			lo = val.Num
		}
		if val.Num > hi {
			hi = val.Num
		}
	}
	return lo, hi, ok
}

// Mark returns the annotations of one cell.
func (v *View) Mark(row, col int) Mark {
	if col < 0 || col >= len(v.Marks) || row < 0 || row >= len(v.Marks[col]) {
		return 0
	}
	return v.Marks[col][row]
}

// Cells lists, row-major, the cells carrying every bit of m.
func (v *View) Cells(m Mark) []Cell {
	var out []Cell
	for i := 0; i < v.Table.NumRows(); i++ {
		for j := range v.Marks {
			if v.Marks[j][i].Has(m) {
				out = append(out, Cell{Row: i, Col: j})
			}
		}
	}
	return out
}

// Colors per pass.
const (
	ColorMissing = "#f8d7da"
	ColorMin     = "#cfe2ff"
	ColorMax     = "#e2d9f3"
)

// Style returns the inline CSS for a cell. Several marks split the
// background into equal bands so each stays visible.
func Style(m Mark) string {
	var colors []string
	if m.Has(MarkMissing) {
		colors = append(colors, ColorMissing)
	}
	if m.Has(MarkMin) {
		colors = append(colors, ColorMin)
	}
	if m.Has(MarkMax) {
		colors = append(colors, ColorMax)
	}
	switch len(colors) {
	case 0:
		return ""
	case 1:
		return "background-color: " + colors[0]
	}
	var b strings.Builder
	b.WriteString("background: linear-gradient(90deg")
	step := 100 / len(colors)
	for i, c := range colors {
		from, to := i*step, (i+1)*step
		if i == len(colors)-1 {
			to = 100
		}
		fmt.Fprintf(&b, ", %s %d%% %d%%", c, from, to)
	}
	b.WriteString(")")
	return b.String()
}
