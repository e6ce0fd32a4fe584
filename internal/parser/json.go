package parser

import (
	"strconv"

	"github.com/go-faster/errors"
	"github.com/tidwall/gjson"

	"github.com/malkhasyann/data-analysis-tool/internal/table"
)

type jsonParser struct{}

func (jsonParser) CanParse(filename string) bool {
	return Ext(filename) == "json"
}

// ErrJSONLayout is returned for well-formed JSON that is not a table.
var ErrJSONLayout = errors.New("json is not a recognized table layout")

// Parse accepts the common dataframe JSON layouts:
//
//	records: [{"x":1,"y":2}, ...]
//	values:  [[1,2], ...]
//	columns: {"x":{"0":1,"1":2}, ...} or {"x":[1,2], ...}
//	split:   {"columns":["x","y"], "data":[[1,2], ...]}
func (jsonParser) Parse(name string, content []byte) (*table.Table, error) {
	if !gjson.ValidBytes(content) {
		return nil, errors.New("malformed json")
	}
	root := gjson.ParseBytes(content)
	var (
		header []string
		cells  [][]table.Value
		err    error
	)
	switch {
	case root.IsArray():
		header, cells, err = fromArray(root)
	case root.IsObject():
		if cols, data := root.Get("columns"), root.Get("data"); cols.IsArray() && data.IsArray() {
			header, cells, err = fromSplit(cols, data)
		} else {
			header, cells, err = fromColumns(root)
		}
	default:
		err = errors.Wrapf(ErrJSONLayout, "top-level %s", root.Type)
	}
	if err != nil {
		return nil, err
	}
	return table.FromCells(name, header, cells)
}

func fromArray(root gjson.Result) ([]string, [][]table.Value, error) {
	items := root.Array()
	if len(items) == 0 {
		return nil, nil, ErrEmpty
	}
	switch {
	case items[0].IsObject():
		return fromRecords(items)
	case items[0].IsArray():
		return fromRows(nil, items)
	default:
		col := make([]table.Value, len(items))
		for i, it := range items {
			col[i] = cell(it)
		}
		return []string{"0"}, [][]table.Value{col}, nil
	}
}

func fromRecords(items []gjson.Result) ([]string, [][]table.Value, error) {
	index := map[string]int{}
	var header []string
	for i, it := range items {
		if !it.IsObject() {
			return nil, nil, errors.Wrapf(ErrJSONLayout, "record %d is not an object", i)
		}
		it.ForEach(func(k, _ gjson.Result) bool {
			if _, ok := index[k.String()]; !ok {
				index[k.String()] = len(header)
				header = append(header, k.String())
			}
			return true
		})
	}
	cells := make([][]table.Value, len(header))
	for j := range cells {
		cells[j] = make([]table.Value, len(items))
	}
	for i, it := range items {
		it.ForEach(func(k, v gjson.Result) bool {
			cells[index[k.String()]][i] = cell(v)
			return true
		})
	}
	return header, cells, nil
}

// fromRows reads row arrays; a nil header names columns by position.
func fromRows(header []string, rows []gjson.Result) ([]string, [][]table.Value, error) {
	width := len(header)
	if header == nil {
		for _, r := range rows {
			if n := len(r.Array()); n > width {
				width = n
			}
		}
		header = make([]string, width)
		for j := range header {
			header[j] = strconv.Itoa(j)
		}
	}
	cells := make([][]table.Value, width)
	for j := range cells {
		cells[j] = make([]table.Value, len(rows))
	}
	for i, r := range rows {
		if !r.IsArray() {
			return nil, nil, errors.Wrapf(ErrJSONLayout, "row %d is not an array", i)
		}
		vals := r.Array()
		if len(vals) > width {
			return nil, nil, errors.Wrapf(ErrJSONLayout, "row %d: expected %d values, saw %d", i, width, len(vals))
		}
		for j, v := range vals {
			cells[j][i] = cell(v)
		}
	}
	return header, cells, nil
}

func fromSplit(cols, data gjson.Result) ([]string, [][]table.Value, error) {
	var header []string
	for _, c := range cols.Array() {
		header = append(header, c.String())
	}
	return fromRows(header, data.Array())
}

func fromColumns(root gjson.Result) ([]string, [][]table.Value, error) {
	var (
		header []string
		series []gjson.Result
	)
	rowIndex := map[string]int{}
	var nrows int
	root.ForEach(func(k, v gjson.Result) bool {
		header = append(header, k.String())
		series = append(series, v)
		switch {
		case v.IsObject():
			v.ForEach(func(idx, _ gjson.Result) bool {
				if _, ok := rowIndex[idx.String()]; !ok {
					rowIndex[idx.String()] = len(rowIndex)
				}
				return true
			})
		case v.IsArray():
			if n := len(v.Array()); n > nrows {
				nrows = n
			}
		}
		return true
	})
	if len(header) == 0 {
		return nil, nil, ErrEmpty
	}
	if len(rowIndex) > nrows {
		nrows = len(rowIndex)
	}
	cells := make([][]table.Value, len(header))
	for j, s := range series {
		cells[j] = make([]table.Value, nrows)
		switch {
		case s.IsObject():
			s.ForEach(func(idx, v gjson.Result) bool {
				cells[j][rowIndex[idx.String()]] = cell(v)
				return true
			})
		case s.IsArray():
			for i, v := range s.Array() {
				cells[j][i] = cell(v)
			}
		default:
			return nil, nil, errors.Wrapf(ErrJSONLayout, "column %q is a scalar", header[j])
		}
	}
	return header, cells, nil
}

func cell(v gjson.Result) table.Value {
	switch v.Type {
	case gjson.Null:
		return table.Null()
	case gjson.True:
		return table.Boolean(true)
	case gjson.False:
		return table.Boolean(false)
	case gjson.Number:
		return table.Number(v.Num)
	case gjson.String:
		return table.String(v.Str)
	default:
		return table.String(v.Raw)
	}
}
