package chart

import (
	"html"
	"io"
	"math"
	"strings"

	"github.com/go-faster/errors"
	gochart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/malkhasyann/data-analysis-tool/internal/table"
)

// Format is the output image encoding.
type Format string

const (
	FormatPNG Format = "png"
	FormatSVG Format = "svg"
)

var ErrUnknownFormat = errors.New("unknown image format")

// ParseFormat accepts "png" or "svg", with or without a leading dot.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimPrefix(s, "."))) {
	case FormatPNG:
		return FormatPNG, nil
	case FormatSVG:
		return FormatSVG, nil
	}
	return "", errors.Wrapf(ErrUnknownFormat, "%q", s)
}

// ContentType is the MIME type of the encoding.
func (f Format) ContentType() string {
	if f == FormatSVG {
		return "image/svg+xml"
	}
	return "image/png"
}

// text escapes s for the SVG canvas, which writes labels verbatim into the
// document. Raster output takes text as is.
func (f Format) text(s string) string {
	if f == FormatSVG {
		return html.EscapeString(s)
	}
	return s
}

func (f Format) provider() gochart.RendererProvider {
	if f == FormatSVG {
		return gochart.SVG
	}
	return gochart.PNG
}

// palette follows the usual categorical colors of plotting libraries.
var palette = []drawing.Color{
	drawing.ColorFromHex("1f77b4"),
	drawing.ColorFromHex("ff7f0e"),
	drawing.ColorFromHex("2ca02c"),
	drawing.ColorFromHex("d62728"),
	drawing.ColorFromHex("9467bd"),
	drawing.ColorFromHex("8c564b"),
	drawing.ColorFromHex("e377c2"),
	drawing.ColorFromHex("7f7f7f"),
	drawing.ColorFromHex("bcbd22"),
	drawing.ColorFromHex("17becf"),
}

func color(i int) drawing.Color { return palette[i%len(palette)] }

// Renderer draws specs at a fixed size.
type Renderer struct {
	Width  int
	Height int
	// Bins is the histogram bin count for numeric x; 0 picks it from the
	// number of rows.
	Bins int
}

// DefaultRenderer matches the dashboard defaults.
func DefaultRenderer() Renderer { return Renderer{Width: 800, Height: 400} }

func (r Renderer) size() (int, int) {
	w, h := r.Width, r.Height
	if w <= 0 {
		w = 800
	}
	if h <= 0 {
		h = 400
	}
	return w, h
}

// Render draws spec over t into w. Rows with a null in any used column are
// left out. Unsuitable columns surface as ErrIncompatibleColumn, empty input
// as ErrNoData, and anything go-chart rejects is returned wrapped.
func (r Renderer) Render(w io.Writer, spec Spec, t *table.Table, f Format) error {
	p, err := collect(t, spec)
	if err != nil {
		return err
	}
	switch spec.Kind {
	case KindLine, KindArea:
		err = r.line(w, spec, p, f)
	case KindScatter:
		err = r.scatter(w, spec, p, f)
	case KindBar:
		err = r.bar(w, spec, p, f)
	case KindHistogram:
		err = r.histogram(w, spec, p, f)
	default:
		err = errors.Wrapf(ErrUnknownKind, "%q", spec.Kind)
	}
	return err
}

func background() gochart.Style {
	return gochart.Style{Padding: gochart.Box{Top: 24, Left: 16, Right: 16, Bottom: 16}}
}

func yAxis(name string, ys []float64, fromZero bool) gochart.YAxis {
	lo, hi := bounds(ys)
	if fromZero {
		lo = math.Min(lo, 0)
		hi = math.Max(hi, 0)
	}
	lo, hi = padBounds(lo, hi)
	return gochart.YAxis{Name: name, Range: &gochart.ContinuousRange{Min: lo, Max: hi}}
}

func (r Renderer) line(w io.Writer, spec Spec, p points, f Format) error {
	xc, err := encode(spec.X, p.x)
	if err != nil {
		return err
	}
	yc, err := encode(spec.Y, p.y)
	if err != nil {
		return err
	}
	style := gochart.Style{StrokeColor: color(0), StrokeWidth: 2}
	if spec.Kind == KindArea {
		style.FillColor = color(0).WithAlpha(96)
	}
	width, height := r.size()
	ch := gochart.Chart{
		Title:      f.text(spec.Title()),
		Width:      width,
		Height:     height,
		Background: background(),
		XAxis:      xc.xAxis(spec.X, f.text),
		YAxis:      yc.yAxis(spec.Y, spec.Kind == KindArea, f.text),
		Series: []gochart.Series{
			gochart.ContinuousSeries{Name: f.text(spec.Y), XValues: xc.values, YValues: yc.values, Style: style},
		},
	}
	if err := ch.Render(f.provider(), w); err != nil {
		return errors.Wrap(err, "render "+string(spec.Kind))
	}
	return nil
}

// pointStyle draws dots without connecting lines.
func pointStyle(c drawing.Color) gochart.Style {
	return gochart.Style{
		StrokeWidth: 0,
		StrokeColor: drawing.ColorTransparent,
		DotWidth:    4,
		DotColor:    c,
	}
}

func (r Renderer) scatter(w io.Writer, spec Spec, p points, f Format) error {
	xc, err := encode(spec.X, p.x)
	if err != nil {
		return err
	}
	yc, err := encode(spec.Y, p.y)
	if err != nil {
		return err
	}

	var series []gochart.Series
	if spec.Color == "" {
		series = append(series, gochart.ContinuousSeries{
			Name: f.text(spec.Y), XValues: xc.values, YValues: yc.values, Style: pointStyle(color(0)),
		})
	} else {
		index := map[string]int{}
		var groups []*gochart.ContinuousSeries
		for i, c := range p.color {
			key := c.String()
			g, ok := index[key]
			if !ok {
				g = len(groups)
				index[key] = g
				groups = append(groups, &gochart.ContinuousSeries{Name: f.text(key), Style: pointStyle(color(g))})
			}
			groups[g].XValues = append(groups[g].XValues, xc.values[i])
			groups[g].YValues = append(groups[g].YValues, yc.values[i])
		}
		for _, g := range groups {
			series = append(series, *g)
		}
	}

	width, height := r.size()
	ch := gochart.Chart{
		Title:      f.text(spec.Title()),
		Width:      width,
		Height:     height,
		Background: background(),
		XAxis:      xc.xAxis(spec.X, f.text),
		YAxis:      yc.yAxis(spec.Y, false, f.text),
		Series:     series,
	}
	if spec.Color != "" {
		ch.Elements = []gochart.Renderable{gochart.Legend(&ch)}
	}
	if err := ch.Render(f.provider(), w); err != nil {
		return errors.Wrap(err, "render scatter")
	}
	return nil
}

func (r Renderer) bars(w io.Writer, title, yName string, labels []string, ys []float64, f Format) error {
	width, height := r.size()
	bars := make([]gochart.Value, len(ys))
	for i, y := range ys {
		bars[i] = gochart.Value{
			Value: y,
			Label: f.text(labels[i]),
			Style: gochart.Style{FillColor: color(0), StrokeColor: color(0)},
		}
	}
	spacing := 4
	barWidth := (width-64)/len(bars) - spacing
	if barWidth < 1 {
		barWidth, spacing = 1, 0
	}
	bc := gochart.BarChart{
		Title:      f.text(title),
		Width:      width,
		Height:     height,
		Background: background(),
		BarWidth:   barWidth,
		BarSpacing: spacing,
		YAxis:      yAxis(f.text(yName), ys, true),
		Bars:       bars,
	}
	if err := bc.Render(f.provider(), w); err != nil {
		return errors.Wrap(err, "render bars")
	}
	return nil
}

// bar heights must be numbers; only x may be categorical.
func (r Renderer) bar(w io.Writer, spec Spec, p points, f Format) error {
	ys, err := numbers(spec.Y, p.y)
	if err != nil {
		return err
	}
	labels := make([]string, len(p.x))
	for i, v := range p.x {
		labels[i] = v.String()
	}
	return r.bars(w, spec.Title(), spec.Y, labels, ys, f)
}

func (r Renderer) histogram(w io.Writer, spec Spec, p points, f Format) error {
	ys, err := numbers(spec.Y, p.y)
	if err != nil {
		return err
	}
	bins, err := histogram(spec.X, p.x, ys, r.Bins)
	if err != nil {
		return err
	}
	labels := make([]string, len(bins))
	sums := make([]float64, len(bins))
	for i, b := range bins {
		labels[i], sums[i] = b.label, b.sum
	}
	return r.bars(w, spec.Title(), "sum of "+spec.Y, labels, sums, f)
}
