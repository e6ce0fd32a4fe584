package server

import (
	"bytes"
	"fmt"
	"html/template"
	"net/http"

	"github.com/malkhasyann/data-analysis-tool/internal/analysis"
	"github.com/malkhasyann/data-analysis-tool/internal/chart"
	"github.com/malkhasyann/data-analysis-tool/internal/highlight"
	"github.com/malkhasyann/data-analysis-tool/internal/parser"
	"github.com/malkhasyann/data-analysis-tool/internal/session"
)

// pageCSP allows the inline stylesheet and inline SVG charts but no script.
const pageCSP = "default-src 'none'; style-src 'unsafe-inline'; img-src 'self'; form-action 'self'; frame-ancestors 'none'"

type gridCell struct {
	Text string
	Mark highlight.Mark
}

type panelView struct {
	Panel        session.Panel
	Axes         session.AxisPair
	Area         bool
	Color        string
	ColorOptions []string
	Spec         chart.Spec
	SVG          template.HTML
	Error        string
}

type pageData struct {
	SID        string
	State      session.State
	Error      string
	Extensions []string

	Active     bool
	Metrics    analysis.Metrics
	Summaries  []analysis.Summary
	StatsError string

	Columns   []string
	Grid      [][]gridCell
	Truncated bool
	Skipped   []string

	Panels []panelView
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	data := pageData{
		SID:        sess.ID,
		State:      sess.Snapshot(),
		Error:      r.URL.Query().Get("error"),
		Extensions: parser.Extensions(),
	}

	// Each view fails on its own; the rest of the page still renders.
	t, sel, err := sess.Active()
	if err == nil {
		data.Active = true
		data.Columns = t.ColumnNames()
		if rep, err := analysis.Build(t, sel.ActiveColumn, 0); err != nil {
			data.StatsError = err.Error()
		} else {
			data.Metrics, data.Summaries = rep.Metrics, rep.Summaries
		}

		view := highlight.Render(t, sel.Highlight)
		data.Skipped = view.Skipped
		rows := min(t.NumRows(), s.opts.ViewRows)
		data.Truncated = rows < t.NumRows()
		for i := 0; i < rows; i++ {
			row := t.Row(i)
			cells := make([]gridCell, len(row))
			for j, v := range row {
				cells[j] = gridCell{Text: v.String(), Mark: view.Mark(i, j)}
			}
			data.Grid = append(data.Grid, cells)
		}

		for _, p := range session.Panels() {
			data.Panels = append(data.Panels, s.panel(sess, sel, p))
		}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Content-Security-Policy", pageCSP)
	if err := s.page.ExecuteTemplate(w, "dashboard.html", data); err != nil {
		s.log.Error().Err(err).Msg("render dashboard")
	}
}

// panel renders one chart panel. A panic while drawing is reported in the
// panel like any other render error.
func (s *Server) panel(sess *session.Session, sel session.Selection, p session.Panel) (pv panelView) {
	axes, _ := sel.Axes(p)
	pv = panelView{Panel: p, Axes: axes}
	defer func() {
		if r := recover(); r != nil {
			s.log.Error().Interface("panic", r).Str("panel", string(p)).Msg("chart render panicked")
			pv.SVG, pv.Error = "", fmt.Sprintf("render %s failed", p)
		}
	}()
	switch p {
	case session.PanelLine:
		pv.Area = sel.Area
	case session.PanelScatter:
		pv.Color = sel.ScatterColor
		pv.ColorOptions = chart.ColorOptions(axes.X, axes.Y)
	}
	spec, t, err := sess.ChartSpec(p)
	if err != nil {
		pv.Error = err.Error()
		return pv
	}
	pv.Spec = spec
	var buf bytes.Buffer
	if err := s.opts.Renderer.Render(&buf, spec, t, chart.FormatSVG); err != nil {
		pv.Error = err.Error()
		return pv
	}
	pv.SVG = template.HTML(buf.String())
	return pv
}
