package parse

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

// XLSXReader streams the first worksheet of an XLSX workbook under the same
// header contract as CSVReader.
type XLSXReader struct {
	f       *excelize.File
	rows    *excelize.Rows
	headers []string
}

func NewXLSXReader(path string) (*XLSXReader, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open xlsx file: %w", err)
	}

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		_ = f.Close()
		return nil, fmt.Errorf("%w: workbook has no sheets", ErrUnsupportedFormat)
	}

	rows, err := f.Rows(sheets[0])
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("read sheet rows: %w", err)
	}

	r := &XLSXReader{f: f, rows: rows}
	if rows.Next() {
		cols, err := rows.Columns()
		if err != nil {
			_ = r.Close()
			return nil, err
		}
		r.headers = make([]string, len(cols))
		for i, h := range cols {
			r.headers[i] = strings.TrimSpace(h)
		}
	}
	return r, nil
}

func (x *XLSXReader) Next() (Row, error) {
	if x.headers == nil {
		return nil, io.EOF
	}
	for x.rows.Next() {
		cols, err := x.rows.Columns()
		if err != nil {
			return nil, err
		}
		if allEmpty(cols) {
			continue
		}
		if len(cols) > len(x.headers) {
			return nil, fmt.Errorf("%w: row has %d fields, header has %d", ErrFieldCount, len(cols), len(x.headers))
		}
		row := make(Row, len(x.headers))
		for i, h := range x.headers {
			// excelize drops trailing empty cells, so short rows are padded.
			if i < len(cols) {
				row[h] = strings.TrimSpace(cols[i])
			} else {
				row[h] = ""
			}
		}
		return row, nil
	}
	if err := x.rows.Error(); err != nil {
		return nil, err
	}
	return nil, io.EOF
}

func (x *XLSXReader) Close() error {
	_ = x.rows.Close()
	return x.f.Close()
}

func allEmpty(cols []string) bool {
	for _, c := range cols {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
