package chart

import (
	"fmt"
	"math"

	"github.com/go-faster/errors"
	gochart "github.com/wcharczuk/go-chart/v2"

	"github.com/malkhasyann/data-analysis-tool/internal/table"
)

// points holds the rows of the used columns, nulls dropped.
type points struct {
	x, y, color []table.Value
}

func collect(t *table.Table, s Spec) (points, error) {
	xc, err := t.MustColumn(s.X)
	if err != nil {
		return points{}, err
	}
	yc, err := t.MustColumn(s.Y)
	if err != nil {
		return points{}, err
	}
	var cc *table.Column
	if s.Color != "" {
		if cc, err = t.MustColumn(s.Color); err != nil {
			return points{}, err
		}
	}
	var p points
	for i := 0; i < t.NumRows(); i++ {
		if xc.Values[i].IsNull() || yc.Values[i].IsNull() {
			continue
		}
		if cc != nil && cc.Values[i].IsNull() {
			continue
		}
		p.x = append(p.x, xc.Values[i])
		p.y = append(p.y, yc.Values[i])
		if cc != nil {
			p.color = append(p.color, cc.Values[i])
		}
	}
	if len(p.x) == 0 {
		return points{}, errors.Wrapf(ErrNoData, "%s/%s", s.X, s.Y)
	}
	return p, nil
}

// number reads a cell as a float; bools count as 0/1.
func number(v table.Value) (float64, bool) {
	switch v.Kind {
	case table.KindNumber:
		return v.Num, true
	case table.KindBool:
		if v.Bool {
			return 1, true
		}
		return 0, true
	default:
		return 0, false
	}
}

func numbers(column string, vals []table.Value) ([]float64, error) {
	out := make([]float64, len(vals))
	for i, v := range vals {
		f, ok := number(v)
		if !ok {
			return nil, errors.Wrapf(ErrIncompatibleColumn, "%q holds non-numeric value %q", column, v.String())
		}
		if math.IsInf(f, 0) {
			return nil, errors.Wrapf(ErrIncompatibleColumn, "%q holds non-finite value %q", column, v.String())
		}
		out[i] = f
	}
	return out, nil
}

// allNumbers reports whether every value reads as a number.
func allNumbers(vals []table.Value) bool {
	for _, v := range vals {
		if _, ok := number(v); !ok {
			return false
		}
	}
	return true
}

// coded places column values on a continuous axis. Non-numeric values become
// category positions 1..k in order of first appearance, with labelled ticks.
type coded struct {
	values      []float64
	categorical bool
	ticks       []gochart.Tick
	min, max    float64
}

func encode(column string, vals []table.Value) (coded, error) {
	if allNumbers(vals) {
		xs, err := numbers(column, vals)
		if err != nil {
			return coded{}, err
		}
		lo, hi := bounds(xs)
		lo, hi = padBounds(lo, hi)
		return coded{values: xs, min: lo, max: hi}, nil
	}
	pos := map[string]float64{}
	c := coded{values: make([]float64, len(vals)), categorical: true}
	for i, v := range vals {
		key := v.String()
		p, ok := pos[key]
		if !ok {
			p = float64(len(pos) + 1)
			pos[key] = p
			c.ticks = append(c.ticks, gochart.Tick{Value: p, Label: key})
		}
		c.values[i] = p
	}
	c.min, c.max = 0.5, float64(len(pos))+0.5
	return c, nil
}

func (c coded) labels(esc func(string) string) []gochart.Tick {
	if len(c.ticks) == 0 {
		return nil
	}
	out := make([]gochart.Tick, len(c.ticks))
	for i, t := range c.ticks {
		out[i] = gochart.Tick{Value: t.Value, Label: esc(t.Label)}
	}
	return out
}

func (c coded) xAxis(name string, esc func(string) string) gochart.XAxis {
	return gochart.XAxis{
		Name:  esc(name),
		Ticks: c.labels(esc),
		Range: &gochart.ContinuousRange{Min: c.min, Max: c.max},
	}
}

// yAxis mirrors xAxis; numeric values may be stretched to include zero.
func (c coded) yAxis(name string, fromZero bool, esc func(string) string) gochart.YAxis {
	if !c.categorical {
		return yAxis(esc(name), c.values, fromZero)
	}
	return gochart.YAxis{
		Name:  esc(name),
		Ticks: c.labels(esc),
		Range: &gochart.ContinuousRange{Min: c.min, Max: c.max},
	}
}

func bounds(vals []float64) (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, v := range vals {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	return lo, hi
}

// padBounds widens [lo, hi] by 5% on both sides; a zero-width range becomes
// one unit wide so the renderer always gets a usable axis.
func padBounds(lo, hi float64) (float64, float64) {
	if hi <= lo {
		return lo - 0.5, lo + 0.5
	}
	pad := (hi - lo) * 0.05
	return lo - pad, hi + pad
}

// bin is one bar of a histogram.
type bin struct {
	label string
	sum   float64
}

// sturges returns the default bin count for n values.
func sturges(n int) int {
	if n < 1 {
		return 1
	}
	return int(math.Ceil(math.Log2(float64(n)))) + 1
}

// histogram aggregates y per x bin with a sum. Numeric x is cut into equal
// width bins (bins <= 0 picks Sturges' rule); other x values are grouped by
// category in order of first appearance.
func histogram(column string, xs []table.Value, ys []float64, bins int) ([]bin, error) {
	if !allNumbers(xs) {
		index := map[string]int{}
		var out []bin
		for i, v := range xs {
			key := v.String()
			j, ok := index[key]
			if !ok {
				j = len(out)
				index[key] = j
				out = append(out, bin{label: key})
			}
			out[j].sum += ys[i]
		}
		return out, nil
	}
	nums, err := numbers(column, xs)
	if err != nil {
		return nil, err
	}

	if bins <= 0 {
		bins = sturges(len(nums))
	}
	lo, hi := bounds(nums)
	if hi == lo {
		sum := 0.0
		for _, y := range ys {
			sum += y
		}
		return []bin{{label: fmt.Sprintf("%g", lo), sum: sum}}, nil
	}
	width := (hi - lo) / float64(bins)
	out := make([]bin, bins)
	for i := range out {
		a := lo + float64(i)*width
		b := a + width
		if i == bins-1 {
			out[i].label = fmt.Sprintf("[%.4g, %.4g]", a, hi)
		} else {
			out[i].label = fmt.Sprintf("[%.4g, %.4g)", a, b)
		}
	}
	for i, x := range nums {
		j := int((x - lo) / width)
		j = max(0, min(j, bins-1))
		out[j].sum += ys[i]
	}
	return out, nil
}
