package parser

import (
	"bytes"

	"github.com/go-faster/errors"
	"github.com/xuri/excelize/v2"

	"github.com/malkhasyann/data-analysis-tool/internal/table"
)

type xlsxParser struct{}

func (xlsxParser) CanParse(filename string) bool {
	return Ext(filename) == "xlsx"
}

// Parse reads the first sheet of the workbook; its first row is the header.
func (xlsxParser) Parse(name string, content []byte) (*table.Table, error) {
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return nil, errors.Wrap(err, "open xlsx")
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrEmpty
	}
	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, errors.Wrapf(err, "read sheet %q", sheets[0])
	}
	// GetRows keeps blank rows inside the used range; drop the leading ones so
	// the first populated row is the header.
	for len(rows) > 0 && len(rows[0]) == 0 {
		rows = rows[1:]
	}
	if len(rows) == 0 {
		return nil, ErrEmpty
	}
	header, body := rows[0], rows[1:]
	// Trailing blank rows carry no data.
	for len(body) > 0 && len(body[len(body)-1]) == 0 {
		body = body[:len(body)-1]
	}
	return table.FromRecords(name, header, body)
}
