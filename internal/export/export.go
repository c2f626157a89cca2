// =============================================================================
// Revenue/Refund Analyzer - Export Module
// =============================================================================
//
// Writes tables as an Excel workbook or as UTF-8 CSV with a byte-order mark
// (so Excel opens Chinese text correctly).
//
// WORKBOOK LAYOUT:
//   - one sheet, named after the table
//   - bold header on a light grey fill
//   - rows flagged in Table.Highlight on an orange fill
//   - column width = longest cell + 2, capped at 50 characters
//
// If writing the workbook fails, SaveWithFallback writes CSV instead.
//
// =============================================================================

package export

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
)

// Format is an output format.
type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatCSV  Format = "csv"
)

// ParseFormat accepts "xlsx" or "csv".
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case FormatXLSX, "excel", "":
		return FormatXLSX, nil
	case FormatCSV:
		return FormatCSV, nil
	}
	return "", fmt.Errorf("unknown export format %q (want xlsx or csv)", s)
}

// Colors used in the workbook.
const (
	headerFill    = "E5E7EB"
	highlightFill = "FED7AA"
	maxColWidth   = 50
)

// Table is a sheet's worth of data.
type Table struct {
	Sheet   string
	Headers []string
	Rows    [][]string
	// Highlight marks rows to shade; it may be shorter than Rows.
	Highlight []bool
}

func (t Table) highlighted(i int) bool {
	return i < len(t.Highlight) && t.Highlight[i]
}

// =============================================================================
// WRITERS
// =============================================================================

// Write encodes t in the given format.
func Write(w io.Writer, t Table, format Format) error {
	if format == FormatCSV {
		return WriteCSV(w, t)
	}
	return WriteXLSX(w, t)
}

// WriteCSV writes t as CSV prefixed with a UTF-8 BOM.
func WriteCSV(w io.Writer, t Table) error {
	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString("\uFEFF"); err != nil {
		return fmt.Errorf("failed to write CSV: %w", err)
	}
	cw := csv.NewWriter(bw)
	if err := cw.Write(t.Headers); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, r := range t.Rows {
		if err := cw.Write(padRow(r, len(t.Headers))); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to write CSV: %w", err)
	}
	return bw.Flush()
}

// WriteXLSX writes t as a styled single-sheet workbook.
func WriteXLSX(w io.Writer, t Table) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := sheetName(t.Sheet)
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{headerFill}},
		Border: []excelize.Border{
			{Type: "bottom", Color: "9CA3AF", Style: 1},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}
	highlightStyle, err := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{highlightFill}},
	})
	if err != nil {
		return fmt.Errorf("failed to create highlight style: %w", err)
	}

	widths := make([]int, len(t.Headers))
	measure := func(col int, s string) {
		if col < len(widths) {
			if n := utf8.RuneCountInString(s); n > widths[col] {
				widths[col] = n
			}
		}
	}

	if err := setRow(f, sheet, 1, t.Headers); err != nil {
		return err
	}
	for c, h := range t.Headers {
		measure(c, h)
	}
	for i, r := range t.Rows {
		row := padRow(r, len(t.Headers))
		if err := setRow(f, sheet, i+2, row); err != nil {
			return err
		}
		for c, v := range row {
			measure(c, v)
		}
		if t.highlighted(i) && len(t.Headers) > 0 {
			if err := styleRow(f, sheet, i+2, len(t.Headers), highlightStyle); err != nil {
				return err
			}
		}
	}
	if len(t.Headers) > 0 {
		if err := styleRow(f, sheet, 1, len(t.Headers), headerStyle); err != nil {
			return err
		}
	}

	for c, n := range widths {
		col, err := excelize.ColumnNumberToName(c + 1)
		if err != nil {
			return fmt.Errorf("failed to size columns: %w", err)
		}
		if err := f.SetColWidth(sheet, col, col, float64(min(n+2, maxColWidth))); err != nil {
			return fmt.Errorf("failed to size columns: %w", err)
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func setRow(f *excelize.File, sheet string, row int, values []string) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return fmt.Errorf("failed to write row %d: %w", row, err)
	}
	cells := make([]interface{}, len(values))
	for i, v := range values {
		cells[i] = v
	}
	if err := f.SetSheetRow(sheet, cell, &cells); err != nil {
		return fmt.Errorf("failed to write row %d: %w", row, err)
	}
	return nil
}

func styleRow(f *excelize.File, sheet string, row, cols, style int) error {
	from, _ := excelize.CoordinatesToCellName(1, row)
	to, _ := excelize.CoordinatesToCellName(cols, row)
	if err := f.SetCellStyle(sheet, from, to, style); err != nil {
		return fmt.Errorf("failed to style row %d: %w", row, err)
	}
	return nil
}

func padRow(r []string, n int) []string {
	if len(r) >= n {
		return r
	}
	out := make([]string, n)
	copy(out, r)
	return out
}

// sheetName makes s a legal worksheet name.
func sheetName(s string) string {
	s = strings.Map(func(r rune) rune {
		if strings.ContainsRune(`:\/?*[]`, r) {
			return '_'
		}
		return r
	}, strings.TrimSpace(s))
	if s == "" {
		s = "Sheet1"
	}
	if utf8.RuneCountInString(s) > 31 {
		s = string([]rune(s)[:31])
	}
	return s
}

// =============================================================================
// FILES
// =============================================================================

// Save writes t to path, replacing the extension to match format.
// It returns the path actually written.
func Save(path string, t Table, format Format) (string, error) {
	path = withExt(path, format)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	out, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := Write(out, t, format); err != nil {
		out.Close()
		os.Remove(path)
		return "", err
	}
	if err := out.Close(); err != nil {
		return "", fmt.Errorf("failed to close %s: %w", path, err)
	}
	return path, nil
}

// SaveWithFallback tries the workbook first and falls back to CSV. The
// returned format says which one was written.
func SaveWithFallback(path string, t Table, format Format) (string, Format, error) {
	written, err := Save(path, t, format)
	if err == nil || format == FormatCSV {
		return written, format, err
	}
	written, csvErr := Save(path, t, FormatCSV)
	if csvErr != nil {
		return "", "", fmt.Errorf("workbook export failed (%v); csv fallback failed: %w", err, csvErr)
	}
	return written, FormatCSV, nil
}

func withExt(path string, format Format) string {
	ext := filepath.Ext(path)
	want := "." + string(format)
	if strings.EqualFold(ext, want) {
		return path
	}
	switch strings.ToLower(ext) {
	case ".xlsx", ".csv":
		return strings.TrimSuffix(path, ext) + want
	}
	return path + want
}
