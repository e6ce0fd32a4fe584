package parser

import (
	"path/filepath"
	"strings"

	"github.com/go-faster/errors"

	"github.com/malkhasyann/data-analysis-tool/internal/table"
)

// Parser turns the raw bytes of one uploaded file into a Table.
type Parser interface {
	CanParse(filename string) bool
	Parse(name string, content []byte) (*table.Table, error)
}

var registry []Parser

// Register adds a parser implementation to the registry.
func Register(p Parser) {
	registry = append(registry, p)
}

// ErrUnsupported indicates a file extension no parser accepts.
var ErrUnsupported = errors.New("unsupported file format")

// ErrEmpty is returned for files without a header row.
var ErrEmpty = errors.New("no columns to parse from file")

// Ext returns the lower-cased extension without the dot ("csv", "xlsx", ...).
func Ext(filename string) string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
}

// For selects a parser based on filename.
func For(filename string) (Parser, error) {
	for _, p := range registry {
		if p.CanParse(filename) {
			return p, nil
		}
	}
	return nil, errors.Wrapf(ErrUnsupported, "%q", filename)
}

// Supported reports whether some registered parser accepts filename.
func Supported(filename string) bool {
	_, err := For(filename)
	return err == nil
}

// Extensions lists the accepted upload extensions.
func Extensions() []string {
	return []string{"csv", "xlsx", "json"}
}

// Parse dispatches on the extension of filename.
func Parse(filename string, content []byte) (*table.Table, error) {
	p, err := For(filename)
	if err != nil {
		return nil, err
	}
	return p.Parse(filename, content)
}

func init() {
	Register(csvParser{})
	Register(xlsxParser{})
	Register(jsonParser{})
}
