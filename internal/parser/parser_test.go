package parser_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/malkhasyann/data-analysis-tool/internal/parser"
	"github.com/malkhasyann/data-analysis-tool/internal/table"
)

func TestParseWellFormedFilesMatchShape(t *testing.T) {
	cases := []struct {
		name    string
		content []byte
		rows    int
		cols    int
	}{
		{"a.csv", []byte("x,y\n1,2\n2,4\n"), 2, 2},
		{"header_only.csv", []byte("x,y,z\n"), 0, 3},
		{"records.json", []byte(`[{"x":1,"y":2},{"x":2,"y":4},{"x":3}]`), 3, 2},
		{"columns.json", []byte(`{"x":{"0":1,"1":2},"y":{"0":2,"1":4}}`), 2, 2},
		{"lists.json", []byte(`{"x":[1,2,3],"y":[2,4,6]}`), 3, 2},
		{"split.json", []byte(`{"columns":["x","y"],"index":[0,1],"data":[[1,2],[2,4]]}`), 2, 2},
		{"values.json", []byte(`[[1,2,3],[4,5,6]]`), 2, 3},
		{"book.xlsx", xlsxFixture(t, [][]any{{"x", "y"}, {1, 2}, {2, 4}, {3, 6}}), 3, 2},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			tbl, err := parser.Parse(c.name, c.content)
			require.NoError(t, err)
			assert.Equal(t, c.name, tbl.Name)
			assert.Equal(t, c.rows, tbl.NumRows())
			assert.Equal(t, c.cols, tbl.NumCols())
		})
	}
}

func TestParseJSONRecordsFillsMissingKeysWithNull(t *testing.T) {
	tbl, err := parser.Parse("r.json", []byte(`[{"x":1,"y":"a"},{"x":null,"z":true}]`))
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "y", "z"}, tbl.ColumnNames())

	x, _ := tbl.Column("x")
	assert.Equal(t, table.Numeric, x.Type)
	assert.True(t, x.Values[1].IsNull())

	y, _ := tbl.Column("y")
	assert.Equal(t, table.Text, y.Type)
	assert.True(t, y.Values[1].IsNull())

	z, _ := tbl.Column("z")
	assert.Equal(t, table.Bool, z.Type)
	assert.True(t, z.Values[0].IsNull())
}

func TestParseXLSXReadsFirstSheetOnly(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]any{"city", "pop"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]any{"Yerevan", 1090000}))
	_, err := f.NewSheet("Other")
	require.NoError(t, err)
	require.NoError(t, f.SetSheetRow("Other", "A1", &[]any{"a", "b", "c"}))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	tbl, err := parser.Parse("book.xlsx", buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, []string{"city", "pop"}, tbl.ColumnNames())
	pop, _ := tbl.Column("pop")
	assert.Equal(t, table.Numeric, pop.Type)
	assert.Equal(t, 1090000.0, pop.Values[0].Num)
}

func TestParseErrors(t *testing.T) {
	cases := []struct {
		name    string
		content string
		target  error
	}{
		{"notes.txt", "hello", parser.ErrUnsupported},
		{"empty.csv", "", parser.ErrEmpty},
		{"wide.csv", "x,y\n1,2,3\n", table.ErrTooManyFields},
		{"scalar.json", `42`, parser.ErrJSONLayout},
		{"empty.json", `[]`, parser.ErrEmpty},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := parser.Parse(c.name, []byte(c.content))
			require.ErrorIs(t, err, c.target)
		})
	}

	_, err := parser.Parse("broken.json", []byte(`{"x": [1, 2`))
	require.Error(t, err)
	_, err = parser.Parse("broken.xlsx", []byte("not a zip archive"))
	require.Error(t, err)
	_, err = parser.Parse("quotes.csv", []byte("x,y\n\"unterminated,2\n"))
	require.Error(t, err)
}

func TestSupported(t *testing.T) {
	for _, ext := range parser.Extensions() {
		assert.True(t, parser.Supported("file."+ext), ext)
	}
	assert.False(t, parser.Supported("file.xls"))
	assert.False(t, parser.Supported("file"))
}

func xlsxFixture(t *testing.T, rows [][]any) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		r := row
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &r))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}
