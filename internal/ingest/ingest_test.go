package ingest

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func xlsxBytes(t *testing.T) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	require.NoError(t, f.SetCellValue("Sheet1", "A1", "学科"))
	require.NoError(t, f.SetCellValue("Sheet1", "A2", "数学"))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func TestLoadCSV(t *testing.T) {
	res, err := Load(strings.NewReader("学科,金额\n数学,100\n"), "revenue.csv", Options{})
	require.NoError(t, err)
	assert.Equal(t, FormatCSV, res.Format)
	assert.Equal(t, "utf-8", res.Encoding)
	require.Len(t, res.Rows, 1)
}

func TestLoadWorkbookDisguisedAsCSV(t *testing.T) {
	res, err := Load(bytes.NewReader(xlsxBytes(t)), "export.csv", Options{})
	require.NoError(t, err)
	assert.Equal(t, FormatXLSX, res.Format)
	assert.Equal(t, "数学", res.Rows[0].Values["学科"])
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(strings.NewReader("  \n"), "a.csv", Options{})
	assert.ErrorIs(t, err, ErrEmptyFile)

	_, err = Load(strings.NewReader("\xD0\xCF\x11\xE0\xA1\xB1\x1A\xE1rest"), "old.xls", Options{})
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = Load(strings.NewReader("not a zip"), "fake.xlsx", Options{})
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "refund.xlsx")
	require.NoError(t, os.WriteFile(path, xlsxBytes(t), 0o644))

	res, err := LoadFile(path, Options{RowCap: 10})
	require.NoError(t, err)
	assert.Equal(t, path, res.Source)

	_, err = LoadFile(filepath.Join(dir, "missing.csv"), Options{})
	assert.ErrorIs(t, err, os.ErrNotExist)
}
