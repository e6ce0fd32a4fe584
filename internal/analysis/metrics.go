package analysis

import (
	"github.com/malkhasyann/data-analysis-tool/internal/table"
)

// ErrUnknownColumn is returned when a selection names a column the table lacks.
var ErrUnknownColumn = table.ErrUnknownColumn

// Metrics are the headline numbers shown above the per-column summaries.
type Metrics struct {
	Rows    int    `json:"rows"`
	Columns int    `json:"columns"`
	Column  string `json:"column"`
	// Delta is non-null(Column) - Rows: minus the number of rows missing a
	// value in Column. Never positive.
	Delta int `json:"delta"`
}

// ComputeMetrics derives the row/column counts and the null delta of column.
func ComputeMetrics(t *table.Table, column string) (Metrics, error) {
	col, err := t.MustColumn(column)
	if err != nil {
		return Metrics{}, err
	}
	return Metrics{
		Rows:    t.NumRows(),
		Columns: t.NumCols(),
		Column:  column,
		Delta:   col.NonNull() - t.NumRows(),
	}, nil
}
