// Package parse turns tabular source files into a lazy, forward-only
// sequence of row mappings keyed by trimmed header names.
package parse

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hrdtools/employee-importer/constants"
)

// Row maps a trimmed header name to the cell value of one data row.
type Row map[string]string

var (
	// ErrFieldCount signals a data row whose field count does not match the
	// header. The stream is not usable past this point.
	ErrFieldCount = errors.New("row field count does not match header")

	// ErrUnsupportedFormat signals a file extension no source can read.
	ErrUnsupportedFormat = errors.New("unsupported file format")
)

// RowReader yields rows one at a time. Next returns io.EOF once the source
// is exhausted and any other error on a malformed row or read fault; the
// stream must not be read past the first error. Readers are not restartable:
// re-open the source to iterate again.
type RowReader interface {
	Next() (Row, error)
	Close() error
}

// Open picks a RowReader implementation by file extension.
func Open(path string) (RowReader, error) {
	switch constants.NormalizeExt(filepath.Ext(path)) {
	case "csv":
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		return NewCSVReader(f)
	case "xlsx":
		return NewXLSXReader(path)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
	}
}
