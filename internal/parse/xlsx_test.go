package parse

import (
	"io"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func writeWorkbook(t *testing.T, rows [][]any) string {
	t.Helper()
	f := excelize.NewFile()
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}
	path := filepath.Join(t.TempDir(), "employees.xlsx")
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())
	return path
}

func TestXLSXReader_HappyPath(t *testing.T) {
	t.Parallel()

	path := writeWorkbook(t, [][]any{
		{" nama ", "nik", "divisi"},
		{"Budi", "123", "Engineering"},
		{"Siti", "456", "Finance"},
	})

	r, err := NewXLSXReader(path)
	require.NoError(t, err)
	defer r.Close()

	row, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, "Budi", row["nama"])
	assert.Equal(t, "123", row["nik"])
	assert.Equal(t, "Engineering", row["divisi"])

	row, err = r.Next()
	require.NoError(t, err)
	assert.Equal(t, "Siti", row["nama"])

	_, err = r.Next()
	assert.ErrorIs(t, err, io.EOF)
}

func TestXLSXReader_PadsShortRows(t *testing.T) {
	t.Parallel()

	path := writeWorkbook(t, [][]any{
		{"nama", "nik", "divisi"},
		{"Budi", "123"},
	})

	r, err := NewXLSXReader(path)
	require.NoError(t, err)
	defer r.Close()

	row, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, "Budi", row["nama"])
	assert.Equal(t, "", row["divisi"])
}

func TestXLSXReader_RejectsOverlongRows(t *testing.T) {
	t.Parallel()

	path := writeWorkbook(t, [][]any{
		{"nama", "nik"},
		{"Budi", "123", "surprise"},
	})

	r, err := NewXLSXReader(path)
	require.NoError(t, err)
	defer r.Close()

	_, err = r.Next()
	assert.ErrorIs(t, err, ErrFieldCount)
}

func TestXLSXReader_SkipsBlankRows(t *testing.T) {
	t.Parallel()

	path := writeWorkbook(t, [][]any{
		{"nama", "nik"},
		{"", ""},
		{"Budi", "123"},
	})

	r, err := NewXLSXReader(path)
	require.NoError(t, err)
	defer r.Close()

	row, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, "Budi", row["nama"])

	_, err = r.Next()
	assert.ErrorIs(t, err, io.EOF)
}

func TestOpen_PicksXLSX(t *testing.T) {
	t.Parallel()

	path := writeWorkbook(t, [][]any{
		{"nama", "nik"},
		{"Budi", "123"},
	})

	r, err := Open(path)
	require.NoError(t, err)
	defer r.Close()

	_, ok := r.(*XLSXReader)
	assert.True(t, ok)
}
