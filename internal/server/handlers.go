package server

import (
	"bytes"
	"io"
	"net/http"
	"net/url"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"

	"github.com/malkhasyann/data-analysis-tool/internal/analysis"
	"github.com/malkhasyann/data-analysis-tool/internal/chart"
	"github.com/malkhasyann/data-analysis-tool/internal/highlight"
	"github.com/malkhasyann/data-analysis-tool/internal/loader"
	"github.com/malkhasyann/data-analysis-tool/internal/session"
)

func sidOf(r *http.Request) string { return chi.URLParam(r, "sid") }

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	sess := s.sessions.Create()
	http.Redirect(w, r, "/s/"+sess.ID+"/", http.StatusSeeOther)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "sessions": s.sessions.Len()})
}

func (s *Server) handleEnd(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.End(sidOf(r)); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, sessionFrom(r).Snapshot())
}

type rejected struct {
	Name  string `json:"name"`
	Error string `json:"error"`
}

type uploadResult struct {
	Accepted []string   `json:"accepted"`
	Rejected []rejected `json:"rejected"`
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxUploadBytes)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		s.fail(w, r, errors.Wrap(withBadRequest(err), "read upload"))
		return
	}
	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		s.fail(w, r, errors.Wrap(errBadRequest, "no files in field \"files\""))
		return
	}
	files := make([]*loader.File, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			s.fail(w, r, errors.Wrapf(err, "open %s", fh.Filename))
			return
		}
		content, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			s.fail(w, r, errors.Wrapf(err, "read %s", fh.Filename))
			return
		}
		files = append(files, loader.NewFile(filepath.Base(fh.Filename), content))
	}

	accepted, rejections := sessionFrom(r).Upload(files...)
	res := uploadResult{Accepted: accepted, Rejected: []rejected{}}
	for _, rj := range rejections {
		res.Rejected = append(res.Rejected, rejected{Name: rj.Name, Error: rj.Error()})
	}
	if !wantsJSON(r) && len(res.Rejected) > 0 {
		msgs := make([]string, len(res.Rejected))
		for i, rj := range res.Rejected {
			msgs[i] = rj.Error
		}
		s.failWith(w, r, http.StatusUnprocessableEntity, errors.New(strings.Join(msgs, "; ")))
		return
	}
	s.done(w, r, res)
}

// withBadRequest tags malformed request bodies; oversized ones keep their
// own status.
func withBadRequest(err error) error {
	var mbe *http.MaxBytesError
	if errors.As(err, &mbe) {
		return err
	}
	return errors.Wrap(errBadRequest, err.Error())
}

func (s *Server) handleRemove(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	name, err := url.PathUnescape(chi.URLParam(r, "name"))
	if err != nil {
		s.fail(w, r, errors.Wrap(errBadRequest, err.Error()))
		return
	}
	if err := sess.RemoveUpload(name); err != nil {
		s.fail(w, r, err)
		return
	}
	s.done(w, r, sess.Snapshot())
}

func (s *Server) handleActivate(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	name := r.FormValue("name")
	if name == "" {
		s.fail(w, r, errors.Wrap(errBadRequest, "missing name"))
		return
	}
	if err := sess.Activate(name); err != nil {
		s.fail(w, r, err)
		return
	}
	s.done(w, r, sess.Snapshot())
}

func (s *Server) handleColumn(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	if err := sess.SelectColumn(r.FormValue("column")); err != nil {
		s.fail(w, r, err)
		return
	}
	s.done(w, r, sess.Snapshot())
}

func checked(r *http.Request, key string) bool {
	switch strings.ToLower(r.FormValue(key)) {
	case "on", "true", "1", "yes":
		return true
	}
	return false
}

func (s *Server) handleHighlight(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	sess.SetHighlight(highlight.Flags{
		Missing: checked(r, "missing"),
		Min:     checked(r, "min"),
		Max:     checked(r, "max"),
	})
	s.done(w, r, sess.Snapshot())
}

func (s *Server) handleChartSelect(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	x, y := r.FormValue("x"), r.FormValue("y")
	var err error
	switch session.Panel(chi.URLParam(r, "panel")) {
	case session.PanelLine:
		err = sess.SetLine(x, y, checked(r, "area"))
	case session.PanelBar:
		err = sess.SetBar(x, y)
	case session.PanelHistogram:
		err = sess.SetHistogram(x, y)
	case session.PanelScatter:
		err = sess.SetScatter(x, y, r.FormValue("color"))
	default:
		err = errors.Wrapf(session.ErrUnknownPanel, "%q", chi.URLParam(r, "panel"))
	}
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.done(w, r, sess.Snapshot())
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	t, sel, err := sessionFrom(r).Active()
	if err != nil {
		s.fail(w, r, err)
		return
	}
	rep, err := analysis.Build(t, sel.ActiveColumn, 0)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

type viewBody struct {
	Columns []string        `json:"columns"`
	Rows    [][]string      `json:"rows"`
	Marks   [][]string      `json:"marks"`
	Total   int             `json:"total_rows"`
	Flags   highlight.Flags `json:"flags"`
	Skipped []string        `json:"skipped,omitempty"`
}

func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	t, sel, err := sessionFrom(r).Active()
	if err != nil {
		s.fail(w, r, err)
		return
	}
	limit := t.NumRows()
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			s.fail(w, r, errors.Wrapf(errBadRequest, "invalid limit %q", v))
			return
		}
		limit = min(n, limit)
	}
	view := highlight.Render(t, sel.Highlight)
	body := viewBody{
		Columns: t.ColumnNames(),
		Rows:    make([][]string, 0, limit),
		Marks:   make([][]string, 0, limit),
		Total:   t.NumRows(),
		Flags:   view.Flags,
		Skipped: view.Skipped,
	}
	for i := 0; i < limit; i++ {
		row := t.Row(i)
		cells := make([]string, len(row))
		marks := make([]string, len(row))
		for j, v := range row {
			cells[j] = v.String()
			marks[j] = view.Mark(i, j).String()
		}
		body.Rows = append(body.Rows, cells)
		body.Marks = append(body.Marks, marks)
	}
	writeJSON(w, http.StatusOK, body)
}

func (s *Server) handleChartImage(w http.ResponseWriter, r *http.Request) {
	file := chi.URLParam(r, "panel")
	ext := path.Ext(file)
	format, err := chart.ParseFormat(ext)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	spec, t, err := sessionFrom(r).ChartSpec(session.Panel(strings.TrimSuffix(file, ext)))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var buf bytes.Buffer
	if err := s.opts.Renderer.Render(&buf, spec, t, format); err != nil {
		status := statusOf(err)
		if status == http.StatusInternalServerError {
			status = http.StatusUnprocessableEntity
		}
		s.failWith(w, r, status, err)
		return
	}
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Security-Policy", "default-src 'none'; style-src 'unsafe-inline'")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(buf.Bytes())
}
