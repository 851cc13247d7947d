package parse

import (
	"encoding/csv"
	"io"
	"strings"
)

// Delimiter is the field separator for delimited text sources.
const Delimiter = ';'

// CSVReader streams semicolon-delimited text. The first line's fields,
// trimmed, become the keys for every subsequent row. Empty lines are never
// yielded as rows.
type CSVReader struct {
	src     io.ReadCloser
	r       *csv.Reader
	headers []string
}

// NewCSVReader reads the header line eagerly so the first Next call yields a
// data row. A source with no header at all yields io.EOF from Next.
func NewCSVReader(src io.ReadCloser) (*CSVReader, error) {
	cr := csv.NewReader(src)
	cr.Comma = Delimiter

	record, err := cr.Read()
	if err == io.EOF {
		return &CSVReader{src: src, r: cr}, nil
	}
	if err != nil {
		_ = src.Close()
		return nil, err
	}

	headers := make([]string, len(record))
	for i, h := range record {
		headers[i] = strings.TrimSpace(h)
	}
	return &CSVReader{src: src, r: cr, headers: headers}, nil
}

func (c *CSVReader) Next() (Row, error) {
	if c.headers == nil {
		return nil, io.EOF
	}
	// csv.Reader skips blank lines and enforces the header's field count,
	// surfacing mismatches as a parse error.
	record, err := c.r.Read()
	if err != nil {
		return nil, err
	}
	row := make(Row, len(c.headers))
	for i, h := range c.headers {
		row[h] = strings.TrimSpace(record[i])
	}
	return row, nil
}

func (c *CSVReader) Close() error {
	return c.src.Close()
}
