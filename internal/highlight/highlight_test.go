package highlight

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/malkhasyann/data-analysis-tool/internal/table"
)

func fixture(t *testing.T) *table.Table {
	t.Helper()
	tbl, err := table.FromRecords("f.csv", []string{"n", "s"}, [][]string{
		{"3", "a"},
		{"7", ""},
		{"7", "b"},
		{"", "c"},
	})
	require.NoError(t, err)
	return tbl
}

func TestMinMaxMarkTiesAndIgnoreNulls(t *testing.T) {
	v := Render(fixture(t), Flags{Min: true, Max: true})

	assert.Equal(t, []Cell{{Row: 0, Col: 0}}, v.Cells(MarkMin))
	assert.Equal(t, []Cell{{Row: 1, Col: 0}, {Row: 2, Col: 0}}, v.Cells(MarkMax))
	assert.Equal(t, Mark(0), v.Mark(3, 0))
	assert.Equal(t, []string{"s"}, v.Skipped)
}

func TestMissingMarksExactlyNullCells(t *testing.T) {
	tbl := fixture(t)
	v := Render(tbl, Flags{Missing: true})

	var nulls []Cell
	for i := 0; i < tbl.NumRows(); i++ {
		for j, c := range tbl.Columns {
			if c.Values[i].IsNull() {
				nulls = append(nulls, Cell{Row: i, Col: j})
			}
		}
	}
	assert.Equal(t, nulls, v.Cells(MarkMissing))
	assert.Empty(t, v.Skipped)
	assert.Empty(t, v.Cells(MarkMin))
}

func TestRenderIsIdempotent(t *testing.T) {
	tbl := fixture(t)
	flags := Flags{Missing: true, Min: true, Max: true}
	assert.Equal(t, Render(tbl, flags).Marks, Render(tbl, flags).Marks)
}

func TestNoFlagsNoMarks(t *testing.T) {
	v := Render(fixture(t), Flags{})
	for _, col := range v.Marks {
		for _, m := range col {
			assert.Zero(t, m)
		}
	}
}

func TestConstantColumnIsBothMinAndMax(t *testing.T) {
	tbl, err := table.FromRecords("c.csv", []string{"k"}, [][]string{{"5"}, {"5"}})
	require.NoError(t, err)
	v := Render(tbl, Flags{Min: true, Max: true})
	assert.True(t, v.Mark(0, 0).Has(MarkMin|MarkMax))
	assert.Equal(t, "min+max", v.Mark(1, 0).String())
}

func TestStyleDistinguishesPasses(t *testing.T) {
	assert.Empty(t, Style(0))
	assert.Equal(t, "background-color: "+ColorMissing, Style(MarkMissing))
	assert.NotEqual(t, Style(MarkMin), Style(MarkMax))
	assert.Equal(t,
		"background: linear-gradient(90deg, "+ColorMin+" 0% 50%, "+ColorMax+" 50% 100%)",
		Style(MarkMin|MarkMax))
}
