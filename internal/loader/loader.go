// Package loader turns uploaded files into tables and memoizes the result by
// file identity, so activating the same upload again never re-parses it.
package loader

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync/atomic"

	"github.com/go-faster/errors"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog"

	"github.com/malkhasyann/data-analysis-tool/internal/parser"
	"github.com/malkhasyann/data-analysis-tool/internal/table"
)

// File is one uploaded file. It is never mutated after creation.
type File struct {
	Name    string
	Content []byte

	identity string
}

// NewFile copies content so later writes by the caller cannot leak in.
func NewFile(name string, content []byte) *File {
	b := make([]byte, len(content))
	copy(b, content)
	sum := sha256.New()
	sum.Write([]byte(name))
	sum.Write([]byte{0})
	sum.Write(b)
	return &File{Name: name, Content: b, identity: hex.EncodeToString(sum.Sum(nil))}
}

// Ext returns the lower-cased extension without the dot.
func (f *File) Ext() string { return parser.Ext(f.Name) }

// Identity is a digest of name and content.
func (f *File) Identity() string { return f.identity }

// Size is the content length in bytes.
func (f *File) Size() int { return len(f.Content) }

// ParseError reports malformed content for the format its extension claims.
type ParseError struct {
	File   string
	Format string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s as %s: %v", e.File, e.Format, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Loader parses files and keeps the most recently used tables.
type Loader struct {
	cache  *lru.Cache[string, *table.Table]
	log    zerolog.Logger
	parsed atomic.Int64
}

// New builds a Loader remembering up to entries tables.
func New(entries int, log zerolog.Logger) (*Loader, error) {
	if entries <= 0 {
		entries = 1
	}
	c, err := lru.New[string, *table.Table](entries)
	if err != nil {
		return nil, errors.Wrap(err, "create table cache")
	}
	return &Loader{cache: c, log: log.With().Str("component", "loader").Logger()}, nil
}

// Load returns the table for f. A nil file means nothing is selected yet and
// yields (nil, nil).
func (l *Loader) Load(f *File) (*table.Table, error) {
	if f == nil {
		return nil, nil
	}
	if t, ok := l.cache.Get(f.Identity()); ok {
		l.log.Debug().Str("file", f.Name).Msg("table cache hit")
		return t, nil
	}
	if !parser.Supported(f.Name) {
		return nil, errors.Wrapf(parser.ErrUnsupported, "%q", f.Name)
	}
	t, err := parser.Parse(f.Name, f.Content)
	if err != nil {
		l.log.Warn().Err(err).Str("file", f.Name).Msg("parse failed")
		return nil, &ParseError{File: f.Name, Format: f.Ext(), Err: err}
	}
	l.parsed.Add(1)
	l.cache.Add(f.Identity(), t)
	l.log.Info().Str("file", f.Name).Int("rows", t.NumRows()).Int("cols", t.NumCols()).Msg("table parsed")
	return t, nil
}

// Parsed counts the parses performed, cache hits excluded.
func (l *Loader) Parsed() int64 { return l.parsed.Load() }
