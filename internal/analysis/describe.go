package analysis

import (
	"encoding/json"
	"math"
	"sort"
	"strconv"

	"github.com/malkhasyann/data-analysis-tool/internal/table"
)

// Stat is a summary statistic; NaN means "not defined" and encodes as null.
type Stat float64

func (s Stat) MarshalJSON() ([]byte, error) {
	f := float64(s)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return []byte("null"), nil
	}
	return json.Marshal(f)
}

// Defined reports whether the statistic has a value.
func (s Stat) Defined() bool { return !math.IsNaN(float64(s)) }

func (s Stat) String() string {
	if !s.Defined() {
		return "NaN"
	}
	return strconv.FormatFloat(float64(s), 'g', 6, 64)
}

// Summary is the describe() output for one column.
type Summary struct {
	Column string `json:"column"`
	Kind   string `json:"kind"` // numeric|categorical
	Count  int    `json:"count"`

	// Numeric stats; NaN (null) for categorical columns.
	Mean Stat `json:"mean"`
	Std  Stat `json:"std"`
	Min  Stat `json:"min"`
	P25  Stat `json:"p25"`
	P50  Stat `json:"p50"`
	P75  Stat `json:"p75"`
	Max  Stat `json:"max"`

	// Categorical stats
	Unique int    `json:"unique,omitempty"`
	Top    string `json:"top,omitempty"`
	Freq   int    `json:"freq,omitempty"`
}

const (
	KindNumeric     = "numeric"
	KindCategorical = "categorical"
)

// Rows lists the summary as label/value pairs in describe() order.
func (s Summary) Rows() [][2]string {
	if s.Kind == KindNumeric {
		return [][2]string{
			{"count", strconv.Itoa(s.Count)},
			{"mean", s.Mean.String()},
			{"std", s.Std.String()},
			{"min", s.Min.String()},
			{"25%", s.P25.String()},
			{"50%", s.P50.String()},
			{"75%", s.P75.String()},
			{"max", s.Max.String()},
		}
	}
	top, freq := s.Top, strconv.Itoa(s.Freq)
	if s.Count == 0 {
		top, freq = "NaN", "NaN"
	}
	return [][2]string{
		{"count", strconv.Itoa(s.Count)},
		{"unique", strconv.Itoa(s.Unique)},
		{"top", top},
		{"freq", freq},
	}
}

// Describe summarizes one column. Nulls are excluded from every statistic.
func Describe(col *table.Column) Summary {
	if col.IsNumeric() {
		return describeNumeric(col)
	}
	return describeCategorical(col)
}

// DescribeTable summarizes every column in table order.
func DescribeTable(t *table.Table) []Summary {
	out := make([]Summary, 0, t.NumCols())
	for _, c := range t.Columns {
		out = append(out, Describe(c))
	}
	return out
}

func undefined(column, kind string) Summary {
	nan := Stat(math.NaN())
	return Summary{Column: column, Kind: kind, Mean: nan, Std: nan, Min: nan, P25: nan, P50: nan, P75: nan, Max: nan}
}

func describeNumeric(col *table.Column) Summary {
	s := undefined(col.Name, KindNumeric)
	vals := make([]float64, 0, len(col.Values))
	// Welford update
	var n int
	var mean, m2 float64
	for _, v := range col.Values {
		if v.IsNull() {
			continue
		}
		x := v.Num
		vals = append(vals, x)
		n++
		delta := x - mean
		mean += delta / float64(n)
		m2 += delta * (x - mean)
	}
	s.Count = n
	if n == 0 {
		return s
	}
	s.Mean = Stat(mean)
	if n > 1 {
		s.Std = Stat(math.Sqrt(m2 / float64(n-1)))
	}
	sort.Float64s(vals)
	s.Min = Stat(vals[0])
	s.P25 = Stat(quantile(vals, 0.25))
	s.P50 = Stat(quantile(vals, 0.5))
	s.P75 = Stat(quantile(vals, 0.75))
	s.Max = Stat(vals[n-1])
	return s
}

type CategoryCount struct {
	Value string
	Count int
}

func describeCategorical(col *table.Column) Summary {
	s := undefined(col.Name, KindCategorical)
	tops := TopValues(col)
	for _, tc := range tops {
		s.Count += tc.Count
	}
	s.Unique = len(tops)
	if len(tops) > 0 {
		s.Top = tops[0].Value
		s.Freq = tops[0].Count
	}
	return s
}

// TopValues counts distinct non-null values, most frequent first. Equal counts
// keep first-appearance order.
func TopValues(col *table.Column) []CategoryCount {
	index := map[string]int{}
	var tops []CategoryCount
	for _, v := range col.Values {
		if v.IsNull() {
			continue
		}
		key := v.String()
		i, ok := index[key]
		if !ok {
			i = len(tops)
			index[key] = i
			tops = append(tops, CategoryCount{Value: key})
		}
		tops[i].Count++
	}
	sort.SliceStable(tops, func(i, j int) bool {
		return tops[i].Count > tops[j].Count
	})
	return tops
}

// quantile interpolates linearly between closest ranks of sorted values.
func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return math.NaN()
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	w := pos - float64(lo)
	return sorted[lo]*(1-w) + sorted[hi]*w
}
