// Package chart builds chart specifications from column selections and
// renders them with go-chart.
package chart

import (
	"strings"

	"github.com/go-faster/errors"

	"github.com/malkhasyann/data-analysis-tool/internal/table"
)

// Kind is the chart form.
type Kind string

const (
	KindLine      Kind = "line"
	KindArea      Kind = "area"
	KindBar       Kind = "bar"
	KindHistogram Kind = "histogram"
	KindScatter   Kind = "scatter"
)

// Kinds lists every supported kind.
func Kinds() []Kind {
	return []Kind{KindLine, KindArea, KindBar, KindHistogram, KindScatter}
}

var (
	ErrUnknownKind        = errors.New("unknown chart kind")
	ErrUnknownColumn      = table.ErrUnknownColumn
	ErrColorNotAllowed    = errors.New("color column must be none, x or y")
	ErrIncompatibleColumn = errors.New("column type not usable for this chart")
	ErrNoData             = errors.New("no rows left to plot")
)

// ParseKind accepts a kind name in any case.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Kinds() {
		if k == known {
			return k, nil
		}
	}
	return "", errors.Wrapf(ErrUnknownKind, "%q", s)
}

// Spec is everything needed to draw one chart. It is built fresh on each
// render and never stored.
type Spec struct {
	Kind  Kind   `json:"kind"`
	X     string `json:"x"`
	Y     string `json:"y"`
	Color string `json:"color,omitempty"`
}

// Title is the default chart heading.
func (s Spec) Title() string {
	t := s.Y + " by " + s.X
	if s.Kind == KindHistogram {
		t = "sum of " + t
	}
	if s.Color != "" {
		t += " (color: " + s.Color + ")"
	}
	return t
}

// LineSpec picks the line or filled area form of the same x/y pair.
func LineSpec(x, y string, area bool) Spec {
	if area {
		return Spec{Kind: KindArea, X: x, Y: y}
	}
	return Spec{Kind: KindLine, X: x, Y: y}
}

// ColorOptions is the scatter color choice set: none ("") plus the current
// x and y selections.
func ColorOptions(x, y string) []string {
	opts := []string{"", x}
	if y != x {
		opts = append(opts, y)
	}
	return opts
}

// ColorAllowed reports whether color is one of ColorOptions(x, y).
func ColorAllowed(color, x, y string) bool {
	for _, o := range ColorOptions(x, y) {
		if o == color {
			return true
		}
	}
	return false
}

// Build checks that x, y (and color for scatter) name columns of t and
// returns the spec. Column types are not checked here; an unsuitable column
// fails at render time.
func Build(kind Kind, t *table.Table, x, y, color string) (Spec, error) {
	if _, err := ParseKind(string(kind)); err != nil {
		return Spec{}, err
	}
	for _, name := range []string{x, y} {
		if _, err := t.MustColumn(name); err != nil {
			return Spec{}, err
		}
	}
	if kind != KindScatter {
		color = ""
	}
	if !ColorAllowed(color, x, y) {
		return Spec{}, errors.Wrapf(ErrColorNotAllowed, "%q", color)
	}
	return Spec{Kind: kind, X: x, Y: y, Color: color}, nil
}
