// Package server is the HTTP dashboard: upload, statistics and chart views
// over per-browser sessions.
package server

import (
	"context"
	"embed"
	"html/template"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-faster/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"

	"github.com/malkhasyann/data-analysis-tool/internal/chart"
	"github.com/malkhasyann/data-analysis-tool/internal/highlight"
	"github.com/malkhasyann/data-analysis-tool/internal/session"
)

//go:embed templates/*.html
var templates embed.FS

// Options tune the server.
type Options struct {
	MaxUploadBytes int64
	AllowedOrigins []string
	Renderer       chart.Renderer
	// ViewRows caps the rows shown in the dashboard grid; the JSON view
	// takes ?limit instead.
	ViewRows int
}

// Server serves the dashboard.
type Server struct {
	sessions *session.Manager
	opts     Options
	log      zerolog.Logger
	page     *template.Template
}

// New parses the templates and returns a Server.
func New(m *session.Manager, opts Options, log zerolog.Logger) (*Server, error) {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 200 << 20
	}
	if opts.ViewRows <= 0 {
		opts.ViewRows = 200
	}
	if len(opts.AllowedOrigins) == 0 {
		opts.AllowedOrigins = []string{"*"}
	}
	page, err := template.New("dashboard.html").Funcs(template.FuncMap{
		"cellStyle": func(m highlight.Mark) template.CSS { return template.CSS(highlight.Style(m)) },
	}).ParseFS(templates, "templates/*.html")
	if err != nil {
		return nil, errors.Wrap(err, "parse templates")
	}
	return &Server{
		sessions: m,
		opts:     opts,
		log:      log.With().Str("component", "http").Logger(),
		page:     page,
	}, nil
}

// Routes builds the router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(hlog.NewHandler(s.log))
	r.Use(hlog.RequestIDHandler("req_id", "X-Request-Id"))
	r.Use(hlog.AccessHandler(func(r *http.Request, status, size int, d time.Duration) {
		hlog.FromRequest(r).Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", status).
			Int("size", size).
			Dur("took", d).
			Msg("request")
	}))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.opts.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"X-Request-Id"},
		MaxAge:         300,
	}))

	r.Get("/", s.handleIndex)
	r.Get("/healthz", s.handleHealth)

	r.Route("/s/{sid}", func(r chi.Router) {
		r.Use(s.withSession)
		r.Get("/", s.handleDashboard)
		r.Delete("/", s.handleEnd)
		r.Get("/state", s.handleState)
		r.Post("/files", s.handleUpload)
		r.Post("/files/{name}/delete", s.handleRemove)
		r.Post("/active", s.handleActivate)
		r.Post("/column", s.handleColumn)
		r.Post("/highlight", s.handleHighlight)
		r.Get("/stats", s.handleStats)
		r.Get("/view", s.handleView)
		r.Post("/charts/{panel}", s.handleChartSelect)
		r.Get("/charts/{panel}", s.handleChartImage)
	})
	return r
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", addr).Msg("listening")
		errc <- srv.ListenAndServe()
	}()
	select {
	case err := <-errc:
		return errors.Wrap(err, "listen")
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "shutdown")
	}
	s.log.Info().Msg("server stopped")
	return nil
}

type ctxKey struct{}

func (s *Server) withSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, err := s.sessions.Get(chi.URLParam(r, "sid"))
		if err != nil {
			s.fail(w, r, err)
			return
		}
		sess.Touch()
		ctx := context.WithValue(r.Context(), ctxKey{}, sess)
		hlog.FromRequest(r).UpdateContext(func(c zerolog.Context) zerolog.Context {
			return c.Str("session", sess.ID)
		})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func sessionFrom(r *http.Request) *session.Session {
	return r.Context().Value(ctxKey{}).(*session.Session)
}
