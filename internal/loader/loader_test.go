package loader

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/malkhasyann/data-analysis-tool/internal/parser"
)

func newLoader(t *testing.T, entries int) *Loader {
	t.Helper()
	l, err := New(entries, zerolog.Nop())
	require.NoError(t, err)
	return l
}

func TestLoadNilFileIsAbsent(t *testing.T) {
	tbl, err := newLoader(t, 4).Load(nil)
	require.NoError(t, err)
	assert.Nil(t, tbl)
}

func TestLoadMemoizesByIdentity(t *testing.T) {
	l := newLoader(t, 4)
	a := NewFile("a.csv", []byte("x,y\n1,2\n2,4\n"))

	first, err := l.Load(a)
	require.NoError(t, err)
	again, err := l.Load(NewFile("a.csv", []byte("x,y\n1,2\n2,4\n")))
	require.NoError(t, err)

	assert.Same(t, first, again)
	assert.EqualValues(t, 1, l.Parsed())

	changed, err := l.Load(NewFile("a.csv", []byte("x,y\n1,2\n")))
	require.NoError(t, err)
	assert.NotSame(t, first, changed)
	assert.Equal(t, 1, changed.NumRows())
	assert.EqualValues(t, 2, l.Parsed())
}

func TestLoadEvictsLeastRecentlyUsed(t *testing.T) {
	l := newLoader(t, 1)
	a := NewFile("a.csv", []byte("x\n1\n"))
	b := NewFile("b.csv", []byte("x\n2\n"))

	_, err := l.Load(a)
	require.NoError(t, err)
	_, err = l.Load(b)
	require.NoError(t, err)
	_, err = l.Load(a)
	require.NoError(t, err)
	assert.EqualValues(t, 3, l.Parsed())
}

func TestLoadReportsParseErrors(t *testing.T) {
	l := newLoader(t, 4)

	_, err := l.Load(NewFile("broken.json", []byte("{")))
	var perr *ParseError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "broken.json", perr.File)
	assert.Equal(t, "json", perr.Format)

	_, err = l.Load(NewFile("notes.txt", []byte("hi")))
	require.ErrorIs(t, err, parser.ErrUnsupported)
	assert.EqualValues(t, 0, l.Parsed())
}

func TestNewFileCopiesContent(t *testing.T) {
	buf := []byte("x\n1\n")
	f := NewFile("a.csv", buf)
	id := f.Identity()
	buf[2] = '9'
	assert.Equal(t, "x\n1\n", string(f.Content))
	assert.Equal(t, id, NewFile("a.csv", []byte("x\n1\n")).Identity())
	assert.NotEqual(t, id, NewFile("b.csv", []byte("x\n1\n")).Identity())
	assert.Equal(t, "csv", f.Ext())
}
