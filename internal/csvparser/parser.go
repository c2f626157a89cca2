// =============================================================================
// Revenue/Refund Analyzer - CSV Parser Module
// =============================================================================
//
// This module decodes CSV uploads exported from the sales and finance
// systems. Exports arrive in whatever form the exporting tool produced, so
// the parser has to work out the encoding and delimiter on its own:
//   - UTF-8, with or without a byte-order mark
//   - GBK (Excel on Chinese Windows), detected by the share of bytes that
//     are not valid UTF-8
//   - comma, semicolon or tab delimiters
//   - quoted fields with doubled-quote escaping
//
// The first non-blank line is the header row. Blank data rows are skipped
// and at most Settings.RowCap data rows are kept; the rest are dropped
// without error.
//
// =============================================================================

package csvparser

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/ginjaninja78/revenue-refund-analyzer/internal/types"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/transform"
)

// =============================================================================
// SETTINGS
// =============================================================================

// DefaultRowCap is the number of data rows kept per upload.
const DefaultRowCap = 1000

// DefaultDelimiters are the delimiter candidates, in tie-break order.
var DefaultDelimiters = []rune{',', ';', '\t'}

// gbkThreshold is the share of invalid UTF-8 sequences above which the
// input is re-decoded as GBK.
const gbkThreshold = 0.02

// Settings controls parsing.
type Settings struct {
	// RowCap limits the number of data rows; <= 0 means DefaultRowCap.
	RowCap int

	// Delimiters lists the candidates for auto-detection.
	Delimiters []rune
}

// =============================================================================
// CSV DATA STRUCTURE
// =============================================================================

// CSVData represents the parsed CSV file.
type CSVData struct {
	// Headers contains the cleaned column headers.
	Headers []string

	// Rows holds one RawRow per non-blank data line, each with a fresh ID.
	Rows []types.RawRow

	// SourceFile is the path to the source file, when known.
	SourceFile string

	// Encoding is "utf-8" or "gbk".
	Encoding string

	// Delimiter is the detected delimiter.
	Delimiter rune

	// Truncated is true when rows beyond RowCap were dropped.
	Truncated bool
}

// RowCount is the number of data rows kept.
func (d *CSVData) RowCount() int {
	return len(d.Rows)
}

// ErrNoHeader is returned when the input has no non-blank line.
var ErrNoHeader = errors.New("csv has no header row")

// =============================================================================
// PARSER FUNCTIONS
// =============================================================================

// ParseFile reads and parses a CSV file.
func ParseFile(filePath string, settings Settings) (*CSVData, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	parsed, err := Parse(data, settings)
	if err != nil {
		return nil, err
	}
	parsed.SourceFile = filePath
	return parsed, nil
}

// Parse decodes and parses CSV bytes.
//
// PARSING PROCESS:
//  1. Decode to UTF-8 (BOM stripped, GBK fallback)
//  2. Detect the delimiter from the first non-blank line
//  3. Read the header row and clean the header names
//  4. Read data rows up to the row cap, skipping blank ones
func Parse(data []byte, settings Settings) (*CSVData, error) {
	text, encoding := Decode(data)

	delims := settings.Delimiters
	if len(delims) == 0 {
		delims = DefaultDelimiters
	}
	rowCap := settings.RowCap
	if rowCap <= 0 {
		rowCap = DefaultRowCap
	}

	delim := DetectDelimiter(text, delims)
	reader := csv.NewReader(strings.NewReader(text))
	configureReader(reader, delim)

	result := &CSVData{Encoding: encoding, Delimiter: delim}

	// Header: first non-blank record.
	for {
		record, err := reader.Read()
		if err == io.EOF {
			return nil, ErrNoHeader
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV header: %w", err)
		}
		if !isRowEmpty(record) {
			result.Headers = cleanHeaders(record)
			break
		}
	}

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV: %w", err)
		}
		if isRowEmpty(record) {
			continue
		}
		if len(result.Rows) >= rowCap {
			result.Truncated = true
			break
		}
		result.Rows = append(result.Rows, toRow(result.Headers, record))
	}

	return result, nil
}

// configureReader sets up the reader for loosely formatted exports.
func configureReader(reader *csv.Reader, delim rune) {
	reader.Comma = delim
	// Rows may be shorter or longer than the header.
	reader.FieldsPerRecord = -1
	// Stray quotes inside unquoted fields are kept as text.
	reader.LazyQuotes = true
	reader.ReuseRecord = false
}

// DetectDelimiter counts each candidate in the first non-blank line and
// returns the most frequent. Ties go to the earlier candidate; with no
// occurrences at all the first candidate wins.
func DetectDelimiter(text string, candidates []rune) rune {
	if len(candidates) == 0 {
		candidates = DefaultDelimiters
	}
	line := ""
	for _, l := range strings.Split(text, "\n") {
		if strings.TrimSpace(l) != "" {
			line = l
			break
		}
	}
	best, bestCount := candidates[0], 0
	for _, c := range candidates {
		if n := strings.Count(line, string(c)); n > bestCount {
			best, bestCount = c, n
		}
	}
	return best
}

// Decode converts the upload to UTF-8 text. Input with a UTF-8 BOM, or in
// which fewer than 2% of the decoded runes are invalid, is treated as
// UTF-8; otherwise it is decoded as GBK.
func Decode(data []byte) (string, string) {
	if bytes.HasPrefix(data, []byte{0xEF, 0xBB, 0xBF}) {
		return string(data[3:]), "utf-8"
	}

	runes, invalid := 0, 0
	for i := 0; i < len(data); {
		r, size := utf8.DecodeRune(data[i:])
		if r == utf8.RuneError && size <= 1 {
			invalid++
		}
		runes++
		i += size
	}
	if runes == 0 || float64(invalid)/float64(runes) < gbkThreshold {
		return strings.ToValidUTF8(string(data), "\uFFFD"), "utf-8"
	}

	decoded, _, err := transform.Bytes(simplifiedchinese.GBK.NewDecoder(), data)
	if err != nil {
		return strings.ToValidUTF8(string(data), "\uFFFD"), "utf-8"
	}
	return string(decoded), "gbk"
}

// cleanHeaders trims header names and names empty or repeated columns
// Column_N so every cell keeps a distinct key.
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

// toRow converts a record into a RawRow. Values are trimmed; missing
// trailing cells become "" and cells beyond the header are dropped.
func toRow(headers []string, record []string) types.RawRow {
	values := make(map[string]any, len(headers))
	for i, h := range headers {
		if i < len(record) {
			values[h] = strings.TrimSpace(record[i])
		} else {
			values[h] = ""
		}
	}
	keys := make([]string, len(headers))
	copy(keys, headers)
	return types.NewRawRow(keys, values)
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

// =============================================================================
// UTILITY FUNCTIONS
// =============================================================================

// GetColumn returns all values for a column, in row order.
func GetColumn(data *CSVData, header string) []string {
	out := make([]string, 0, len(data.Rows))
	for _, r := range data.Rows {
		out = append(out, types.Stringify(r.Values[header]))
	}
	return out
}
