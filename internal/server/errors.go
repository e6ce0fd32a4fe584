package server

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-faster/errors"
	"github.com/rs/zerolog/hlog"

	"github.com/malkhasyann/data-analysis-tool/internal/chart"
	"github.com/malkhasyann/data-analysis-tool/internal/loader"
	"github.com/malkhasyann/data-analysis-tool/internal/parser"
	"github.com/malkhasyann/data-analysis-tool/internal/session"
	"github.com/malkhasyann/data-analysis-tool/internal/table"
)

var errBadRequest = errors.New("bad request")

// statusOf maps an error to its HTTP status.
func statusOf(err error) int {
	var perr *loader.ParseError
	switch {
	case errors.Is(err, session.ErrSessionNotFound),
		errors.Is(err, session.ErrFileNotFound):
		return http.StatusNotFound
	case errors.Is(err, session.ErrNoActiveDataset):
		return http.StatusConflict
	case errors.Is(err, parser.ErrUnsupported),
		errors.As(err, &perr),
		errors.Is(err, chart.ErrIncompatibleColumn),
		errors.Is(err, chart.ErrNoData):
		return http.StatusUnprocessableEntity
	case errors.Is(err, table.ErrUnknownColumn),
		errors.Is(err, chart.ErrColorNotAllowed),
		errors.Is(err, chart.ErrUnknownFormat),
		errors.Is(err, session.ErrUnknownPanel),
		errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	}
	var mbe *http.MaxBytesError
	if errors.As(err, &mbe) {
		return http.StatusRequestEntityTooLarge
	}
	return http.StatusInternalServerError
}

type errorBody struct {
	Error  string `json:"error"`
	Status int    `json:"status"`
}

func wantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// fail answers with the mapped status. Form posts from the dashboard are sent
// back to the page with the message instead.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	s.failWith(w, r, statusOf(err), err)
}

func (s *Server) failWith(w http.ResponseWriter, r *http.Request, status int, err error) {
	log := hlog.FromRequest(r)
	if status >= 500 {
		log.Error().Err(err).Msg("request failed")
	} else {
		log.Debug().Err(err).Int("status", status).Msg("request rejected")
	}
	if r.Method == http.MethodPost && !wantsJSON(r) && status != http.StatusNotFound {
		if sid := sidOf(r); sid != "" {
			http.Redirect(w, r, "/s/"+sid+"/?error="+url.QueryEscape(err.Error()), http.StatusSeeOther)
			return
		}
	}
	if wantsJSON(r) || r.Method != http.MethodGet {
		writeJSON(w, status, errorBody{Error: err.Error(), Status: status})
		return
	}
	http.Error(w, err.Error(), status)
}

// done acknowledges a successful event: JSON for API clients, a redirect to
// the dashboard for forms.
func (s *Server) done(w http.ResponseWriter, r *http.Request, v any) {
	if wantsJSON(r) {
		writeJSON(w, http.StatusOK, v)
		return
	}
	http.Redirect(w, r, "/s/"+sidOf(r)+"/", http.StatusSeeOther)
}
