package analysis

import (
	"encoding/json"
	"math"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/malkhasyann/data-analysis-tool/internal/table"
)

func sample(t *testing.T) *table.Table {
	t.Helper()
	tbl, err := table.FromRecords("s.csv", []string{"a", "b"}, [][]string{
		{"3", "x"},
		{"7", "y"},
		{"7", "x"},
		{"", ""},
	})
	require.NoError(t, err)
	return tbl
}

func TestDescribeNumeric(t *testing.T) {
	tbl := sample(t)
	col, _ := tbl.Column("a")
	s := Describe(col)

	assert.Equal(t, KindNumeric, s.Kind)
	assert.Equal(t, 3, s.Count)
	assert.InDelta(t, 17.0/3.0, float64(s.Mean), 1e-9)
	assert.InDelta(t, math.Sqrt(16.0/3.0), float64(s.Std), 1e-9)
	assert.EqualValues(t, 3, s.Min)
	assert.EqualValues(t, 5, s.P25)
	assert.EqualValues(t, 7, s.P50)
	assert.EqualValues(t, 7, s.P75)
	assert.EqualValues(t, 7, s.Max)
}

func TestDescribeSingleValueHasNoStd(t *testing.T) {
	col := &table.Column{Name: "v", Type: table.Numeric, Values: []table.Value{table.Number(4)}}
	s := Describe(col)
	assert.Equal(t, 1, s.Count)
	assert.False(t, s.Std.Defined())
	assert.EqualValues(t, 4, s.P50)
}

func TestDescribeAllNull(t *testing.T) {
	col := &table.Column{Name: "v", Type: table.Numeric, Values: []table.Value{table.Null(), table.Null()}}
	s := Describe(col)
	assert.Equal(t, 0, s.Count)
	assert.False(t, s.Mean.Defined())
	assert.False(t, s.Max.Defined())
}

func TestDescribeCategorical(t *testing.T) {
	tbl := sample(t)
	col, _ := tbl.Column("b")
	s := Describe(col)

	assert.Equal(t, KindCategorical, s.Kind)
	assert.Equal(t, 3, s.Count)
	assert.Equal(t, 2, s.Unique)
	assert.Equal(t, "x", s.Top)
	assert.Equal(t, 2, s.Freq)
	assert.False(t, s.Mean.Defined())
}

func TestTopValuesTiesKeepFirstAppearance(t *testing.T) {
	col := &table.Column{Name: "c", Type: table.Text, Values: []table.Value{
		table.String("q"), table.String("p"), table.String("p"), table.String("q"), table.String("r"),
	}}
	tops := TopValues(col)
	require.Len(t, tops, 3)
	assert.Equal(t, "q", tops[0].Value)
	assert.Equal(t, "p", tops[1].Value)
	assert.Equal(t, "r", tops[2].Value)
}

func TestSummaryJSONEncodesUndefinedAsNull(t *testing.T) {
	col := &table.Column{Name: "c", Type: table.Text, Values: []table.Value{table.String("a")}}
	b, err := json.Marshal(Describe(col))
	require.NoError(t, err)
	assert.Contains(t, string(b), `"mean":null`)
	assert.Contains(t, string(b), `"top":"a"`)

	num := &table.Column{Name: "n", Type: table.Numeric, Values: []table.Value{table.Number(0), table.Number(0)}}
	b, err = json.Marshal(Describe(num))
	require.NoError(t, err)
	assert.Contains(t, string(b), `"min":0`)
	assert.Contains(t, string(b), `"std":0`)
}

func TestComputeMetrics(t *testing.T) {
	tbl := sample(t)
	m, err := ComputeMetrics(tbl, "a")
	require.NoError(t, err)
	assert.Equal(t, Metrics{Rows: 4, Columns: 2, Column: "a", Delta: -1}, m)

	_, err = ComputeMetrics(tbl, "zzz")
	require.ErrorIs(t, err, ErrUnknownColumn)
}

func TestMetricsDeltaNeverPositive(t *testing.T) {
	tbl, err := table.FromRecords("full.csv", []string{"a"}, [][]string{{"1"}, {"2"}})
	require.NoError(t, err)
	m, err := ComputeMetrics(tbl, "a")
	require.NoError(t, err)
	assert.Equal(t, 0, m.Delta)
}

func TestReportMarkdown(t *testing.T) {
	rep, err := Build(sample(t), "b", 2)
	require.NoError(t, err)
	md := rep.Markdown()

	assert.True(t, strings.HasPrefix(md, "[DATASET SUMMARY]\n"))
	assert.Contains(t, md, "Rows: 4 (-1 in b)")
	assert.Contains(t, md, "[a] numeric")
	assert.Contains(t, md, "- 25%: 5")
	assert.Contains(t, md, "[b] categorical")
	assert.Contains(t, md, "- top: x")
	assert.Contains(t, md, "| a | b |")
	assert.Len(t, rep.Samples, 2)
}

func TestMarkdownTruncatesByRune(t *testing.T) {
	long := strings.Repeat("ժ", 100)
	tbl, err := table.FromRecords("u.csv", []string{"name"}, [][]string{{long}, {"ok"}})
	require.NoError(t, err)
	rep, err := Build(tbl, "name", 2)
	require.NoError(t, err)
	md := rep.Markdown()

	assert.True(t, utf8.ValidString(md))
	_, head, ok := strings.Cut(md, "[HEAD]")
	require.True(t, ok)
	assert.Contains(t, head, "| "+strings.Repeat("ժ", 77)+"... |")
	assert.NotContains(t, head, strings.Repeat("ժ", 78))
	assert.Equal(t, "ok", truncate("ok", 80))
}
