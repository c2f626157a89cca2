// =============================================================================
// Revenue/Refund Analyzer - XLSX Parser
// =============================================================================
//
// This module reads revenue and refund exports saved as Excel workbooks.
// Only the first worksheet is read; its first non-empty row is the header.
//
// CELL VALUES:
//   Cells are read raw (no number formatting) so that dates stored as serial
//   day numbers reach the normalizer as numbers:
//     number / date-formatted number -> float64
//     boolean                        -> bool
//     everything else                -> string
//
// Blank rows inside the sheet are kept so that row numbers in validation
// messages line up with the sheet; the validator drops them. At most
// Settings.RowCap data rows are read.
//
// =============================================================================

package xlsxparser

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/ginjaninja78/revenue-refund-analyzer/internal/types"
	"github.com/xuri/excelize/v2"
)

// DefaultRowCap is the number of data rows kept per upload.
const DefaultRowCap = 1000

// ErrNoSheet is returned for a workbook without worksheets or rows.
var ErrNoSheet = errors.New("workbook has no data")

// Settings controls parsing.
type Settings struct {
	// RowCap limits the number of data rows; <= 0 means DefaultRowCap.
	RowCap int
}

// SheetData is the parsed first worksheet.
type SheetData struct {
	// SheetName is the name of the worksheet that was read.
	SheetName string

	// Headers contains the cleaned header row.
	Headers []string

	// Rows holds one RawRow per data row.
	Rows []types.RawRow

	// SourceFile is the workbook path, when known.
	SourceFile string

	// Truncated is true when rows beyond RowCap were dropped.
	Truncated bool
}

// =============================================================================
// PARSER FUNCTIONS
// =============================================================================

// ParseFile opens and parses a workbook.
func ParseFile(path string, settings Settings) (*SheetData, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	sheet, err := Parse(data, settings)
	if err != nil {
		return nil, err
	}
	sheet.SourceFile = path
	return sheet, nil
}

// Parse reads the first worksheet of an in-memory workbook.
//
// PARAMETERS:
//   - data: the workbook bytes (a ZIP container).
//   - settings: row cap.
//
// RETURNS:
//   - The header row and the data rows as RawRows.
//   - An error if the workbook cannot be opened or has no rows.
func Parse(data []byte, settings Settings) (*SheetData, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrNoSheet
	}
	sheetName := sheets[0]

	rows, err := f.GetRows(sheetName, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheetName, err)
	}

	headerIndex := -1
	for i, row := range rows {
		if !isRowEmpty(row) {
			headerIndex = i
			break
		}
	}
	if headerIndex < 0 {
		return nil, ErrNoSheet
	}

	rowCap := settings.RowCap
	if rowCap <= 0 {
		rowCap = DefaultRowCap
	}

	result := &SheetData{
		SheetName: sheetName,
		Headers:   cleanHeaders(rows[headerIndex]),
	}

	for i := headerIndex + 1; i < len(rows); i++ {
		if len(result.Rows) >= rowCap {
			result.Truncated = true
			break
		}
		values := make(map[string]any, len(result.Headers))
		for col, header := range result.Headers {
			if col >= len(rows[i]) {
				values[header] = ""
				continue
			}
			values[header] = cellValue(f, sheetName, col, i, rows[i][col])
		}
		keys := make([]string, len(result.Headers))
		copy(keys, result.Headers)
		result.Rows = append(result.Rows, types.NewRawRow(keys, values))
	}

	return result, nil
}

// cellValue types a raw cell string using the cell's stored type.
func cellValue(f *excelize.File, sheet string, col, row int, raw string) any {
	if raw == "" {
		return ""
	}
	name, err := excelize.CoordinatesToCellName(col+1, row+1)
	if err != nil {
		return raw
	}
	cellType, err := f.GetCellType(sheet, name)
	if err != nil {
		return raw
	}

	switch cellType {
	case excelize.CellTypeSharedString, excelize.CellTypeInlineString, excelize.CellTypeFormula, excelize.CellTypeError:
		return raw
	case excelize.CellTypeBool:
		return raw == "1" || strings.EqualFold(raw, "true")
	}
	// Number, date or untyped: numeric when it parses.
	if v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64); err == nil {
		return v
	}
	return raw
}

// cleanHeaders trims header names and names empty or repeated columns
// Column_N.
func cleanHeaders(headers []string) []string {
	cleaned := make([]string, len(headers))
	seen := make(map[string]bool, len(headers))
	for i, h := range headers {
		h = strings.TrimSpace(h)
		if h == "" || seen[h] {
			h = fmt.Sprintf("Column_%d", i+1)
		}
		seen[h] = true
		cleaned[i] = h
	}
	return cleaned
}

// isRowEmpty checks if a row contains only empty values.
func isRowEmpty(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// LooksLikeWorkbook reports whether data starts with the ZIP magic that
// every .xlsx file carries.
func LooksLikeWorkbook(data []byte) bool {
	return bytes.HasPrefix(data, []byte("PK\x03\x04"))
}
