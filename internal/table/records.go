package table

import (
	"strconv"
	"strings"

	"github.com/go-faster/errors"
)

// naTokens are the cell spellings read as missing values.
var naTokens = map[string]struct{}{
	"": {}, "NA": {}, "N/A": {}, "n/a": {}, "NaN": {}, "nan": {}, "-nan": {},
	"NULL": {}, "null": {}, "None": {}, "#N/A": {}, "<NA>": {}, "-NaN": {},
}

// ErrTooManyFields is returned when a data row is wider than the header.
var ErrTooManyFields = errors.New("too many fields")

// FromRecords builds a Table from a header and string records, inferring a
// type per column. Short rows are padded with nulls.
func FromRecords(name string, header []string, rows [][]string) (*Table, error) {
	names := uniqueNames(header)
	for i, rec := range rows {
		if len(rec) > len(names) {
			// +2: header line plus 1-based numbering.
			return nil, errors.Wrapf(ErrTooManyFields, "line %d: expected %d fields, saw %d", i+2, len(names), len(rec))
		}
	}
	cols := make([]*Column, len(names))
	for j, n := range names {
		raw := make([]string, len(rows))
		missing := make([]bool, len(rows))
		for i, rec := range rows {
			if j >= len(rec) {
				missing[i] = true
				continue
			}
			v := strings.TrimSpace(rec[j])
			if _, na := naTokens[v]; na {
				missing[i] = true
				continue
			}
			raw[i] = rec[j]
		}
		cols[j] = inferStrings(n, raw, missing)
	}
	return New(name, cols)
}

func inferStrings(name string, raw []string, missing []bool) *Column {
	numeric, boolean := true, true
	for i, s := range raw {
		if missing[i] {
			continue
		}
		t := strings.TrimSpace(s)
		if _, err := strconv.ParseFloat(t, 64); err != nil {
			numeric = false
		}
		if _, ok := parseBool(t); !ok {
			boolean = false
		}
		if !numeric && !boolean {
			break
		}
	}
	col := &Column{Name: name, Values: make([]Value, len(raw))}
	switch {
	case numeric:
		// An all-missing column lands here, like an all-NaN float column.
		col.Type = Numeric
		for i, s := range raw {
			if missing[i] {
				col.Values[i] = Null()
				continue
			}
			f, _ := strconv.ParseFloat(strings.TrimSpace(s), 64)
			col.Values[i] = Number(f)
		}
	case boolean:
		col.Type = Bool
		for i, s := range raw {
			if missing[i] {
				col.Values[i] = Null()
				continue
			}
			b, _ := parseBool(strings.TrimSpace(s))
			col.Values[i] = Boolean(b)
		}
	default:
		col.Type = Text
		for i, s := range raw {
			if missing[i] {
				col.Values[i] = Null()
				continue
			}
			col.Values[i] = String(s)
		}
	}
	return col
}

func parseBool(s string) (bool, bool) {
	switch s {
	case "True", "TRUE", "true":
		return true, true
	case "False", "FALSE", "false":
		return false, true
	}
	return false, false
}

// FromCells builds a Table from already-typed cells, cells[j] holding the
// values of column j. A column mixing kinds is stored as text.
func FromCells(name string, header []string, cells [][]Value) (*Table, error) {
	names := uniqueNames(header)
	cols := make([]*Column, len(names))
	for j, n := range names {
		cols[j] = inferCells(n, cells[j])
	}
	return New(name, cols)
}

func inferCells(name string, vals []Value) *Column {
	var nums, bools, other int
	for _, v := range vals {
		switch {
		case v.IsNull():
		case v.Kind == KindNumber:
			nums++
		case v.Kind == KindBool:
			bools++
		default:
			other++
		}
	}
	col := &Column{Name: name, Values: make([]Value, len(vals))}
	switch {
	case bools == 0 && other == 0:
		col.Type = Numeric
	case nums == 0 && other == 0:
		col.Type = Bool
	default:
		col.Type = Text
	}
	for i, v := range vals {
		switch {
		case v.IsNull():
			col.Values[i] = Null()
		case col.Type == Text && v.Kind != KindString:
			col.Values[i] = String(v.String())
		default:
			col.Values[i] = v
		}
	}
	return col
}
