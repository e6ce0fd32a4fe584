// Package session holds the per-browser state of the dashboard: uploaded
// files, the registry of activated tables, and the user's selections. Every
// session is independent; nothing mutable is shared between them.
package session

import (
	"sync"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/malkhasyann/data-analysis-tool/internal/chart"
	"github.com/malkhasyann/data-analysis-tool/internal/highlight"
	"github.com/malkhasyann/data-analysis-tool/internal/loader"
	"github.com/malkhasyann/data-analysis-tool/internal/parser"
	"github.com/malkhasyann/data-analysis-tool/internal/table"
)

var (
	// ErrNoActiveDataset means dependent views have nothing to show yet.
	ErrNoActiveDataset = errors.New("no active dataset")
	ErrUnknownPanel    = errors.New("unknown chart panel")
)

// Upload describes one uploaded file.
type Upload struct {
	Name    string    `json:"name"`
	Format  string    `json:"format"`
	Size    int       `json:"size"`
	AddedAt time.Time `json:"added_at"`
}

// Rejection is an upload refused at intake.
type Rejection struct {
	Name string `json:"name"`
	Err  error  `json:"-"`
}

func (r Rejection) Error() string { return r.Err.Error() }

// Session is the explicit per-user context. Its methods are the event
// handlers of the dashboard controls; each one runs under the session lock.
type Session struct {
	ID        string
	CreatedAt time.Time

	mu       sync.Mutex
	loader   *loader.Loader
	log      zerolog.Logger
	files    []*loader.File
	added    map[string]time.Time
	registry *Registry
	sel      Selection
	seen     time.Time
}

// New starts an empty session: nothing uploaded, nothing selected, every
// highlight flag off.
func New(l *loader.Loader, log zerolog.Logger) *Session {
	id := uuid.NewString()
	now := time.Now()
	return &Session{
		ID:        id,
		CreatedAt: now,
		loader:    l,
		log:       log.With().Str("session", id).Logger(),
		added:     make(map[string]time.Time),
		registry:  NewRegistry(),
		seen:      now,
	}
}

func (s *Session) touch() { s.seen = time.Now() }

// Touch marks the session as in use without changing its state.
func (s *Session) Touch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
}

// LastSeen is the time of the last event.
func (s *Session) LastSeen() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seen
}

// Upload records files without parsing them. Files with an unsupported
// extension are rejected individually. A file named like an earlier upload
// replaces it; if that file was active it is activated again from the new
// content.
func (s *Session) Upload(files ...*loader.File) (accepted []string, rejected []Rejection) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	for _, f := range files {
		if !parser.Supported(f.Name) {
			rejected = append(rejected, Rejection{
				Name: f.Name,
				Err:  errors.Wrapf(parser.ErrUnsupported, "%q (accepted: %v)", f.Name, parser.Extensions()),
			})
			continue
		}
		replaced := false
		for i, old := range s.files {
			if old.Name == f.Name {
				s.files[i] = f
				replaced = true
				break
			}
		}
		if replaced {
			s.registry.Remove(f.Name)
		} else {
			s.files = append(s.files, f)
		}
		s.added[f.Name] = time.Now()
		accepted = append(accepted, f.Name)
		s.log.Info().Str("file", f.Name).Int("bytes", f.Size()).Bool("replaced", replaced).Msg("file uploaded")

		if replaced && s.sel.ActiveFile == f.Name {
			if err := s.activate(f.Name); err != nil {
				s.sel.ActiveFile = ""
				rejected = append(rejected, Rejection{Name: f.Name, Err: err})
			}
		}
	}
	return accepted, rejected
}

// RemoveUpload drops an upload and its registered table. Removing the active
// file leaves the session without an active dataset.
func (s *Session) RemoveUpload(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	f, err := Find(name, s.files)
	if err != nil {
		return err
	}
	for i, old := range s.files {
		if old == f {
			s.files = append(s.files[:i], s.files[i+1:]...)
			break
		}
	}
	delete(s.added, name)
	s.registry.Remove(name)
	if s.sel.ActiveFile == name {
		s.sel.ActiveFile = ""
	}
	return nil
}

// Activate makes name the active dataset: find among uploads, load (memoized),
// register. On failure the previous selection stays in place.
func (s *Session) Activate(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	return s.activate(name)
}

func (s *Session) activate(name string) error {
	f, err := Find(name, s.files)
	if err != nil {
		return err
	}
	t, err := s.loader.Load(f)
	if err != nil {
		return err
	}
	s.registry.Register(name, t)
	s.sel.ActiveFile = name
	s.sel.normalize(t)
	s.log.Debug().Str("file", name).Msg("dataset activated")
	return nil
}

// Active returns the active table and a copy of the selection.
func (s *Session) Active() (*table.Table, Selection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, err := s.active()
	return t, s.sel, err
}

func (s *Session) active() (*table.Table, error) {
	if s.sel.ActiveFile == "" {
		return nil, ErrNoActiveDataset
	}
	t, ok := s.registry.Lookup(s.sel.ActiveFile)
	if !ok {
		return nil, ErrNoActiveDataset
	}
	return t, nil
}

// SelectColumn picks the column of the null-count metric.
func (s *Session) SelectColumn(column string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	t, err := s.active()
	if err != nil {
		return err
	}
	if _, err := t.MustColumn(column); err != nil {
		return err
	}
	s.sel.ActiveColumn = column
	return nil
}

// SetHighlight replaces the highlight checkboxes.
func (s *Session) SetHighlight(f highlight.Flags) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	s.sel.Highlight = f
}

func (s *Session) setAxes(dst *AxisPair, x, y string) error {
	t, err := s.active()
	if err != nil {
		return err
	}
	for _, name := range []string{x, y} {
		if _, err := t.MustColumn(name); err != nil {
			return err
		}
	}
	dst.X, dst.Y = x, y
	return nil
}

// SetLine picks the line panel columns and the line/area toggle.
func (s *Session) SetLine(x, y string, area bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	if err := s.setAxes(&s.sel.Line, x, y); err != nil {
		return err
	}
	s.sel.Area = area
	return nil
}

// SetBar picks the bar panel columns.
func (s *Session) SetBar(x, y string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	return s.setAxes(&s.sel.Bar, x, y)
}

// SetHistogram picks the histogram panel columns.
func (s *Session) SetHistogram(x, y string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	return s.setAxes(&s.sel.Histogram, x, y)
}

// SetScatter picks the scatter columns and the color grouping, which must be
// none, x or y.
func (s *Session) SetScatter(x, y, color string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	if !chart.ColorAllowed(color, x, y) {
		return errors.Wrapf(chart.ErrColorNotAllowed, "%q", color)
	}
	if err := s.setAxes(&s.sel.Scatter, x, y); err != nil {
		return err
	}
	s.sel.ScatterColor = color
	return nil
}

// ChartSpec builds the spec of one panel from the current selection.
func (s *Session) ChartSpec(p Panel) (chart.Spec, *table.Table, error) {
	t, sel, err := s.Active()
	if err != nil {
		return chart.Spec{}, nil, err
	}
	spec, err := sel.Spec(p, t)
	return spec, t, err
}

// State is a point-in-time copy of the session for display.
type State struct {
	ID         string    `json:"id"`
	Uploads    []Upload  `json:"uploads"`
	Registered []string  `json:"registered"`
	Selection  Selection `json:"selection"`
	Columns    []string  `json:"columns"`
	// ColorOptions is the scatter color choice set for the current x/y.
	ColorOptions []string `json:"color_options"`
}

// Snapshot copies the session state.
func (s *Session) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := State{
		ID:         s.ID,
		Uploads:    make([]Upload, 0, len(s.files)),
		Registered: s.registry.Names(),
		Selection:  s.sel,
	}
	for _, f := range s.files {
		st.Uploads = append(st.Uploads, Upload{Name: f.Name, Format: f.Ext(), Size: f.Size(), AddedAt: s.added[f.Name]})
	}
	if t, err := s.active(); err == nil {
		st.Columns = t.ColumnNames()
		st.ColorOptions = chart.ColorOptions(s.sel.Scatter.X, s.sel.Scatter.Y)
	}
	return st
}

// Lookup returns a table registered in this session.
func (s *Session) Lookup(name string) (*table.Table, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.registry.Lookup(name)
}
