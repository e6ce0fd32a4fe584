package session

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/malkhasyann/data-analysis-tool/internal/chart"
	"github.com/malkhasyann/data-analysis-tool/internal/highlight"
	"github.com/malkhasyann/data-analysis-tool/internal/loader"
	"github.com/malkhasyann/data-analysis-tool/internal/parser"
	"github.com/malkhasyann/data-analysis-tool/internal/table"
)

var (
	aCSV = []byte("x,y\n1,2\n2,4\n")
	bCSV = []byte("x,y\n10,20\n")
)

func newSession(t *testing.T) (*Session, *loader.Loader) {
	t.Helper()
	l, err := loader.New(8, zerolog.Nop())
	require.NoError(t, err)
	return New(l, zerolog.Nop()), l
}

func TestNewSessionStartsEmpty(t *testing.T) {
	s, _ := newSession(t)
	_, sel, err := s.Active()
	require.ErrorIs(t, err, ErrNoActiveDataset)
	assert.Equal(t, Selection{}, sel)
	assert.False(t, sel.Highlight.Any())
	assert.NotEmpty(t, s.ID)
}

func TestSwitchActiveDataset(t *testing.T) {
	s, _ := newSession(t)
	accepted, rejected := s.Upload(loader.NewFile("a.csv", aCSV), loader.NewFile("b.csv", bCSV))
	require.Empty(t, rejected)
	assert.Equal(t, []string{"a.csv", "b.csv"}, accepted)

	require.NoError(t, s.Activate("a.csv"))
	tbl, sel, err := s.Active()
	require.NoError(t, err)
	assert.Equal(t, 2, tbl.NumRows())
	assert.Equal(t, 2, tbl.NumCols())
	assert.Equal(t, "a.csv", sel.ActiveFile)

	require.NoError(t, s.Activate("b.csv"))
	tbl, _, err = s.Active()
	require.NoError(t, err)
	assert.Equal(t, 1, tbl.NumRows())
}

func TestUploadIsLazy(t *testing.T) {
	s, l := newSession(t)
	s.Upload(loader.NewFile("a.csv", aCSV), loader.NewFile("b.csv", bCSV))
	assert.EqualValues(t, 0, l.Parsed())
	assert.Empty(t, s.Snapshot().Registered)

	require.NoError(t, s.Activate("a.csv"))
	assert.EqualValues(t, 1, l.Parsed())
	assert.Equal(t, []string{"a.csv"}, s.Snapshot().Registered)

	require.NoError(t, s.Activate("a.csv"))
	assert.EqualValues(t, 1, l.Parsed())
}

func TestUploadRejectsUnsupportedExtension(t *testing.T) {
	s, _ := newSession(t)
	accepted, rejected := s.Upload(loader.NewFile("notes.txt", []byte("hi")), loader.NewFile("a.csv", aCSV))
	assert.Equal(t, []string{"a.csv"}, accepted)
	require.Len(t, rejected, 1)
	assert.Equal(t, "notes.txt", rejected[0].Name)
	assert.ErrorIs(t, rejected[0].Err, parser.ErrUnsupported)
	assert.Len(t, s.Snapshot().Uploads, 1)
}

func TestActivateUnknownKeepsSelection(t *testing.T) {
	s, _ := newSession(t)
	s.Upload(loader.NewFile("a.csv", aCSV))
	require.NoError(t, s.Activate("a.csv"))

	require.ErrorIs(t, s.Activate("missing.csv"), ErrFileNotFound)
	_, sel, err := s.Active()
	require.NoError(t, err)
	assert.Equal(t, "a.csv", sel.ActiveFile)
}

func TestActivateParseErrorKeepsSession(t *testing.T) {
	s, _ := newSession(t)
	s.Upload(loader.NewFile("a.csv", aCSV), loader.NewFile("bad.json", []byte("{nope")))
	require.NoError(t, s.Activate("a.csv"))

	var perr *loader.ParseError
	require.ErrorAs(t, s.Activate("bad.json"), &perr)
	_, sel, err := s.Active()
	require.NoError(t, err)
	assert.Equal(t, "a.csv", sel.ActiveFile)
	assert.Len(t, s.Snapshot().Uploads, 2)
}

func TestReuploadActiveFileReplacesTable(t *testing.T) {
	s, _ := newSession(t)
	s.Upload(loader.NewFile("a.csv", aCSV))
	require.NoError(t, s.Activate("a.csv"))

	_, rejected := s.Upload(loader.NewFile("a.csv", bCSV))
	require.Empty(t, rejected)
	tbl, ok := s.Lookup("a.csv")
	require.True(t, ok)
	assert.Equal(t, 1, tbl.NumRows())
}

func TestRemoveActiveUpload(t *testing.T) {
	s, _ := newSession(t)
	s.Upload(loader.NewFile("a.csv", aCSV))
	require.NoError(t, s.Activate("a.csv"))

	require.NoError(t, s.RemoveUpload("a.csv"))
	_, _, err := s.Active()
	require.ErrorIs(t, err, ErrNoActiveDataset)
	require.ErrorIs(t, s.RemoveUpload("a.csv"), ErrFileNotFound)
}

func TestSelectionsDefaultToFirstColumn(t *testing.T) {
	s, _ := newSession(t)
	s.Upload(loader.NewFile("a.csv", aCSV), loader.NewFile("c.csv", []byte("p,q\n1,2\n")))
	require.NoError(t, s.Activate("a.csv"))
	_, sel, _ := s.Active()
	assert.Equal(t, "x", sel.ActiveColumn)
	assert.Equal(t, AxisPair{X: "x", Y: "x"}, sel.Line)

	require.NoError(t, s.SetScatter("x", "y", "y"))
	require.NoError(t, s.SelectColumn("y"))

	require.NoError(t, s.Activate("c.csv"))
	_, sel, _ = s.Active()
	assert.Equal(t, "p", sel.ActiveColumn)
	assert.Equal(t, AxisPair{X: "p", Y: "p"}, sel.Scatter)
	assert.Empty(t, sel.ScatterColor)
}

func TestChartSelections(t *testing.T) {
	s, _ := newSession(t)
	require.ErrorIs(t, s.SetLine("x", "y", false), ErrNoActiveDataset)

	s.Upload(loader.NewFile("a.csv", aCSV))
	require.NoError(t, s.Activate("a.csv"))

	require.NoError(t, s.SetLine("x", "y", false))
	spec, _, err := s.ChartSpec(PanelLine)
	require.NoError(t, err)
	assert.Equal(t, chart.Spec{Kind: chart.KindLine, X: "x", Y: "y"}, spec)

	require.NoError(t, s.SetLine("x", "y", true))
	spec, _, err = s.ChartSpec(PanelLine)
	require.NoError(t, err)
	assert.Equal(t, chart.Spec{Kind: chart.KindArea, X: "x", Y: "y"}, spec)

	require.ErrorIs(t, s.SetBar("x", "nope"), table.ErrUnknownColumn)
	require.ErrorIs(t, s.SetScatter("x", "y", "z"), chart.ErrColorNotAllowed)
	_, sel, err := s.Active()
	require.NoError(t, err)
	assert.Equal(t, AxisPair{X: "x", Y: "x"}, sel.Scatter)

	require.NoError(t, s.SetScatter("x", "y", ""))
	assert.Equal(t, []string{"", "x", "y"}, s.Snapshot().ColorOptions)
	require.NoError(t, s.SetScatter("x", "y", "y"))
	spec, _, err = s.ChartSpec(PanelScatter)
	require.NoError(t, err)
	assert.Equal(t, chart.Spec{Kind: chart.KindScatter, X: "x", Y: "y", Color: "y"}, spec)

	_, _, err = s.ChartSpec(Panel("pie"))
	require.ErrorIs(t, err, ErrUnknownPanel)
}

func TestSetHighlight(t *testing.T) {
	s, _ := newSession(t)
	s.SetHighlight(highlight.Flags{Missing: true, Max: true})
	assert.Equal(t, highlight.Flags{Missing: true, Max: true}, s.Snapshot().Selection.Highlight)
}

func TestRegistryLastWriteWins(t *testing.T) {
	a, err := table.FromRecords("a.csv", []string{"x"}, [][]string{{"1"}, {"2"}})
	require.NoError(t, err)
	b, err := table.FromRecords("a.csv", []string{"x"}, [][]string{{"9"}})
	require.NoError(t, err)

	r := NewRegistry()
	r.Register("a.csv", a)
	r.Register("a.csv", b)
	got, ok := r.Lookup("a.csv")
	require.True(t, ok)
	assert.Same(t, b, got)
	assert.Equal(t, []string{"a.csv"}, r.Names())

	r.Remove("a.csv")
	assert.Zero(t, r.Len())
}

func TestFind(t *testing.T) {
	files := []*loader.File{loader.NewFile("a.csv", aCSV), loader.NewFile("b.csv", bCSV)}
	f, err := Find("b.csv", files)
	require.NoError(t, err)
	assert.Equal(t, "b.csv", f.Name)

	_, err = Find("c.csv", files)
	require.ErrorIs(t, err, ErrFileNotFound)
}

func TestSessionsAreIsolated(t *testing.T) {
	l, err := loader.New(8, zerolog.Nop())
	require.NoError(t, err)
	m := NewManager(l, time.Hour, zerolog.Nop())
	one, two := m.Create(), m.Create()

	one.Upload(loader.NewFile("a.csv", aCSV))
	require.NoError(t, one.Activate("a.csv"))

	_, _, err = two.Active()
	require.ErrorIs(t, err, ErrNoActiveDataset)
	assert.Empty(t, two.Snapshot().Uploads)
}

func TestManagerLifecycle(t *testing.T) {
	l, err := loader.New(8, zerolog.Nop())
	require.NoError(t, err)
	m := NewManager(l, time.Minute, zerolog.Nop())

	s := m.Create()
	got, err := m.Get(s.ID)
	require.NoError(t, err)
	assert.Same(t, s, got)

	require.NoError(t, m.End(s.ID))
	_, err = m.Get(s.ID)
	require.ErrorIs(t, err, ErrSessionNotFound)
	require.ErrorIs(t, m.End(s.ID), ErrSessionNotFound)
}

func TestManagerSweepsIdleSessions(t *testing.T) {
	l, err := loader.New(8, zerolog.Nop())
	require.NoError(t, err)
	m := NewManager(l, time.Minute, zerolog.Nop())
	m.Create()
	m.Create()

	assert.Zero(t, m.Sweep())
	m.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	assert.Equal(t, 2, m.Sweep())
	assert.Zero(t, m.Len())
}

func TestManagerRunStopsWithContext(t *testing.T) {
	l, err := loader.New(8, zerolog.Nop())
	require.NoError(t, err)
	m := NewManager(l, time.Minute, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Run(ctx) }()
	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestTouchRefreshesLastSeen(t *testing.T) {
	s, _ := newSession(t)
	before := s.LastSeen()
	time.Sleep(5 * time.Millisecond)
	s.Touch()
	assert.True(t, s.LastSeen().After(before))
	assert.Empty(t, s.Snapshot().Uploads)
}
