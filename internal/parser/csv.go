package parser

import (
	"bytes"
	"encoding/csv"
	"io"

	"github.com/go-faster/errors"

	"github.com/malkhasyann/data-analysis-tool/internal/table"
)

type csvParser struct{}

func (csvParser) CanParse(filename string) bool {
	return Ext(filename) == "csv"
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

func (csvParser) Parse(name string, content []byte) (*table.Table, error) {
	r := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(content, utf8BOM)))
	// Width is validated against the header by table.FromRecords.
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrEmpty
		}
		return nil, errors.Wrap(err, "read header")
	}
	var rows [][]string
	for {
		rec, err := r.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, errors.Wrapf(err, "read row %d", len(rows)+1)
		}
		rows = append(rows, rec)
	}
	return table.FromRecords(name, header, rows)
}
