// Package ingest turns an uploaded file into raw rows, choosing the CSV or
// workbook reader from the file's content and extension.
package ingest

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ginjaninja78/revenue-refund-analyzer/internal/csvparser"
	"github.com/ginjaninja78/revenue-refund-analyzer/internal/types"
	"github.com/ginjaninja78/revenue-refund-analyzer/internal/xlsxparser"
)

var (
	// ErrEmptyFile means the upload had no bytes or no header row.
	ErrEmptyFile = errors.New("file is empty")
	// ErrUnsupportedFormat covers legacy .xls and other binary formats.
	ErrUnsupportedFormat = errors.New("unsupported file format")
)

// Format is the detected upload format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// Options controls decoding.
type Options struct {
	RowCap     int
	Delimiters []rune
}

// Result is a decoded upload.
type Result struct {
	Source    string
	Format    Format
	Headers   []string
	Rows      []types.RawRow
	Encoding  string
	Truncated bool
}

// LoadFile reads the file at path.
func LoadFile(path string, opts Options) (*Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()
	return Load(f, path, opts)
}

// Load decodes an upload. name is only used for its extension.
//
// A ZIP signature always selects the workbook reader, so a workbook saved
// with a .csv extension still loads. Legacy .xls (OLE2) files are rejected.
func Load(r io.Reader, name string, opts Options) (*Result, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, fmt.Errorf("%s: %w", name, ErrEmptyFile)
	}

	ext := strings.ToLower(filepath.Ext(name))
	switch {
	case xlsxparser.LooksLikeWorkbook(data):
		return loadWorkbook(data, name, opts)
	case isOLE2(data) || ext == ".xls":
		return nil, fmt.Errorf("%s: legacy .xls workbooks must be re-saved as .xlsx or .csv: %w", name, ErrUnsupportedFormat)
	case ext == ".xlsx" || ext == ".xlsm":
		return nil, fmt.Errorf("%s: not a valid workbook: %w", name, ErrUnsupportedFormat)
	}
	return loadCSV(data, name, opts)
}

func loadWorkbook(data []byte, name string, opts Options) (*Result, error) {
	sheet, err := xlsxparser.Parse(data, xlsxparser.Settings{RowCap: opts.RowCap})
	if errors.Is(err, xlsxparser.ErrNoSheet) {
		return nil, fmt.Errorf("%s: %w", name, ErrEmptyFile)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return &Result{
		Source:    name,
		Format:    FormatXLSX,
		Headers:   sheet.Headers,
		Rows:      sheet.Rows,
		Truncated: sheet.Truncated,
	}, nil
}

func loadCSV(data []byte, name string, opts Options) (*Result, error) {
	parsed, err := csvparser.Parse(data, csvparser.Settings{RowCap: opts.RowCap, Delimiters: opts.Delimiters})
	if errors.Is(err, csvparser.ErrNoHeader) {
		return nil, fmt.Errorf("%s: %w", name, ErrEmptyFile)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return &Result{
		Source:    name,
		Format:    FormatCSV,
		Headers:   parsed.Headers,
		Rows:      parsed.Rows,
		Encoding:  parsed.Encoding,
		Truncated: parsed.Truncated,
	}, nil
}

func isOLE2(data []byte) bool {
	return len(data) >= 8 && string(data[:8]) == "\xD0\xCF\x11\xE0\xA1\xB1\x1A\xE1"
}
