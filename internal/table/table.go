package table

import (
	"math"
	"strconv"
	"strings"

	"github.com/go-faster/errors"
)

// Kind is the type of a single cell.
type Kind uint8

const (
	KindNull Kind = iota
	KindNumber
	KindString
	KindBool
)

// Value is one cell of a Table.
type Value struct {
	Kind Kind
	Num  float64
	Str  string
	Bool bool
}

func Null() Value            { return Value{Kind: KindNull} }
func Number(f float64) Value { return Value{Kind: KindNumber, Num: f} }
func String(s string) Value  { return Value{Kind: KindString, Str: s} }
func Boolean(b bool) Value   { return Value{Kind: KindBool, Bool: b} }

// IsNull reports whether the cell is missing. NaN counts as missing.
func (v Value) IsNull() bool {
	return v.Kind == KindNull || (v.Kind == KindNumber && math.IsNaN(v.Num))
}

// String renders the cell for display; nulls render as an empty string.
func (v Value) String() string {
	switch {
	case v.IsNull():
		return ""
	case v.Kind == KindNumber:
		return strconv.FormatFloat(v.Num, 'g', -1, 64)
	case v.Kind == KindBool:
		if v.Bool {
			return "True"
		}
		return "False"
	default:
		return v.Str
	}
}

// ColumnType is the inferred type of a whole column.
type ColumnType string

const (
	Numeric ColumnType = "numeric"
	Bool    ColumnType = "bool"
	Text    ColumnType = "text"
)

// Column is a named, homogeneous-ish vector of cells.
type Column struct {
	Name   string
	Type   ColumnType
	Values []Value
}

// NonNull counts the cells that are not missing.
func (c *Column) NonNull() int {
	n := 0
	for _, v := range c.Values {
		if !v.IsNull() {
			n++
		}
	}
	return n
}

// IsNumeric reports whether min/max and arithmetic are defined on the column.
func (c *Column) IsNumeric() bool { return c.Type == Numeric }

// Table is an immutable 2-D structure of named columns.
type Table struct {
	Name    string
	Columns []*Column
}

var (
	// ErrDuplicateColumn is returned when two columns share a name.
	ErrDuplicateColumn = errors.New("duplicate column name")
	// ErrRaggedColumns is returned when columns differ in length.
	ErrRaggedColumns = errors.New("columns have different lengths")
	// ErrUnknownColumn is returned when a name does not match any column.
	ErrUnknownColumn = errors.New("unknown column")
)

// New validates the column invariants and returns a Table.
func New(name string, cols []*Column) (*Table, error) {
	seen := make(map[string]struct{}, len(cols))
	for _, c := range cols {
		if _, ok := seen[c.Name]; ok {
			return nil, errors.Wrap(ErrDuplicateColumn, c.Name)
		}
		seen[c.Name] = struct{}{}
		if len(c.Values) != len(cols[0].Values) {
			return nil, errors.Wrapf(ErrRaggedColumns, "column %q has %d rows, want %d", c.Name, len(c.Values), len(cols[0].Values))
		}
	}
	return &Table{Name: name, Columns: cols}, nil
}

// NumRows returns the row count; 0 for a table without columns.
func (t *Table) NumRows() int {
	if t == nil || len(t.Columns) == 0 {
		return 0
	}
	return len(t.Columns[0].Values)
}

// NumCols returns the column count.
func (t *Table) NumCols() int {
	if t == nil {
		return 0
	}
	return len(t.Columns)
}

// Column looks a column up by name.
func (t *Table) Column(name string) (*Column, bool) {
	if t == nil {
		return nil, false
	}
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return nil, false
}

// MustColumn is Column with an ErrUnknownColumn error instead of a flag.
func (t *Table) MustColumn(name string) (*Column, error) {
	if c, ok := t.Column(name); ok {
		return c, nil
	}
	return nil, errors.Wrapf(ErrUnknownColumn, "%q", name)
}

// ColumnNames returns the column names in table order.
func (t *Table) ColumnNames() []string {
	if t == nil {
		return nil
	}
	out := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		out[i] = c.Name
	}
	return out
}

// Row returns the cells of row i in column order.
func (t *Table) Row(i int) []Value {
	out := make([]Value, len(t.Columns))
	for j, c := range t.Columns {
		out[j] = c.Values[i]
	}
	return out
}

// uniqueNames applies the dataframe naming rules: blank headers become
// "Unnamed: <i>" and repeated names get ".1", ".2" suffixes.
func uniqueNames(header []string) []string {
	out := make([]string, len(header))
	seen := make(map[string]int, len(header))
	taken := make(map[string]bool, len(header))
	for i, h := range header {
		name := strings.TrimSpace(h)
		if name == "" {
			name = "Unnamed: " + strconv.Itoa(i)
		}
		base := name
		for taken[name] {
			seen[base]++
			name = base + "." + strconv.Itoa(seen[base])
		}
		taken[name] = true
		out[i] = name
	}
	return out
}
