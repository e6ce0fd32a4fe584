package session

import (
	"github.com/go-faster/errors"

	"github.com/malkhasyann/data-analysis-tool/internal/loader"
	"github.com/malkhasyann/data-analysis-tool/internal/table"
)

// ErrFileNotFound is returned when a name matches none of the uploads.
var ErrFileNotFound = errors.New("file not found")

// Registry maps a display name to its parsed table. Tables are added only when
// their file becomes active.
type Registry struct {
	tables map[string]*table.Table
	order  []string
}

func NewRegistry() *Registry {
	return &Registry{tables: make(map[string]*table.Table)}
}

// Register inserts or overwrites the entry for name.
func (r *Registry) Register(name string, t *table.Table) {
	if _, ok := r.tables[name]; !ok {
		r.order = append(r.order, name)
	}
	r.tables[name] = t
}

// Lookup returns the table registered under name.
func (r *Registry) Lookup(name string) (*table.Table, bool) {
	t, ok := r.tables[name]
	return t, ok
}

// Remove drops name; removing an absent name is a no-op.
func (r *Registry) Remove(name string) {
	if _, ok := r.tables[name]; !ok {
		return
	}
	delete(r.tables, name)
	for i, n := range r.order {
		if n == name {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

// Names lists registered names in registration order.
func (r *Registry) Names() []string {
	return append([]string(nil), r.order...)
}

func (r *Registry) Len() int { return len(r.tables) }

// Find scans candidates for a file called name.
func Find(name string, candidates []*loader.File) (*loader.File, error) {
	for _, f := range candidates {
		if f.Name == name {
			return f, nil
		}
	}
	return nil, errors.Wrapf(ErrFileNotFound, "%q", name)
}
