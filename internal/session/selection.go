package session

import (
	"slices"

	"github.com/malkhasyann/data-analysis-tool/internal/chart"
	"github.com/malkhasyann/data-analysis-tool/internal/highlight"
	"github.com/malkhasyann/data-analysis-tool/internal/table"
)

// Panel names one of the four chart panels of the dashboard.
type Panel string

const (
	PanelLine      Panel = "line"
	PanelBar       Panel = "bar"
	PanelHistogram Panel = "histogram"
	PanelScatter   Panel = "scatter"
)

// Panels lists the dashboard panels in display order.
func Panels() []Panel {
	return []Panel{PanelLine, PanelBar, PanelHistogram, PanelScatter}
}

// AxisPair is the x/y column choice of one panel.
type AxisPair struct {
	X string `json:"x"`
	Y string `json:"y"`
}

// Selection is what the user has picked in one session.
type Selection struct {
	ActiveFile   string          `json:"active_file,omitempty"`
	ActiveColumn string          `json:"active_column,omitempty"`
	Highlight    highlight.Flags `json:"highlight"`
	Line         AxisPair        `json:"line"`
	Area         bool            `json:"area"`
	Bar          AxisPair        `json:"bar"`
	Histogram    AxisPair        `json:"histogram"`
	Scatter      AxisPair        `json:"scatter"`
	ScatterColor string          `json:"scatter_color,omitempty"`
}

// Axes returns the pair of a panel.
func (s Selection) Axes(p Panel) (AxisPair, bool) {
	switch p {
	case PanelLine:
		return s.Line, true
	case PanelBar:
		return s.Bar, true
	case PanelHistogram:
		return s.Histogram, true
	case PanelScatter:
		return s.Scatter, true
	}
	return AxisPair{}, false
}

// Spec turns a panel's choices into a chart spec over t.
func (s Selection) Spec(p Panel, t *table.Table) (chart.Spec, error) {
	switch p {
	case PanelLine:
		ls := chart.LineSpec(s.Line.X, s.Line.Y, s.Area)
		return chart.Build(ls.Kind, t, ls.X, ls.Y, "")
	case PanelBar:
		return chart.Build(chart.KindBar, t, s.Bar.X, s.Bar.Y, "")
	case PanelHistogram:
		return chart.Build(chart.KindHistogram, t, s.Histogram.X, s.Histogram.Y, "")
	case PanelScatter:
		return chart.Build(chart.KindScatter, t, s.Scatter.X, s.Scatter.Y, s.ScatterColor)
	}
	return chart.Spec{}, ErrUnknownPanel
}

// normalize points every column choice at a column of t, falling back to the
// first column, and drops a scatter color that left the allowed set.
func (s *Selection) normalize(t *table.Table) {
	names := t.ColumnNames()
	fix := func(c *string) {
		if len(names) == 0 {
			*c = ""
			return
		}
		if !slices.Contains(names, *c) {
			*c = names[0]
		}
	}
	fix(&s.ActiveColumn)
	for _, p := range []*AxisPair{&s.Line, &s.Bar, &s.Histogram, &s.Scatter} {
		fix(&p.X)
		fix(&p.Y)
	}
	if !chart.ColorAllowed(s.ScatterColor, s.Scatter.X, s.Scatter.Y) {
		s.ScatterColor = ""
	}
}
