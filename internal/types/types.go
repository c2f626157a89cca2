// =============================================================================
// Revenue/Refund Analyzer - Shared Types
// =============================================================================
//
// This file holds the row and group types that flow between the ingest,
// validation, aggregation and reporting packages. Keeping them in one leaf
// package avoids import cycles between those packages.
//
// ROW LIFECYCLE:
//   RawRow        - one decoded record from an upload (string/number/date values)
//   NormalizedRow - every value rendered as a string, date fields as YYYY-MM-DD
//   CheckedRow    - a NormalizedRow plus its validation verdict
//   Issue         - a CheckedRow that failed at least one rule
//
// Every row carries an ID minted at ingestion. Edits, issues and highlights
// are keyed by that ID so they survive re-validation and re-filtering.
//
// =============================================================================

package types

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// =============================================================================
// DATASET KIND
// =============================================================================

// Kind identifies which of the two record shapes a dataset holds.
type Kind string

const (
	Revenue Kind = "revenue"
	Refund  Kind = "refund"
)

// Kinds returns both dataset kinds in display order.
func Kinds() []Kind {
	return []Kind{Revenue, Refund}
}

// ParseKind accepts the English name or the Chinese table name.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "revenue", "营收", "营收表":
		return Revenue, nil
	case "refund", "退费", "退费表":
		return Refund, nil
	}
	return "", fmt.Errorf("unknown dataset kind %q (want revenue or refund)", s)
}

// =============================================================================
// RAW ROWS
// =============================================================================

// RawRow is a single record as decoded from an upload.
//
// Keys preserves the source column order; Values may hold string, float64,
// int, bool, time.Time or nil.
type RawRow struct {
	ID     string
	Keys   []string
	Values map[string]any
}

// NewRawRow builds a row with a freshly minted ID.
func NewRawRow(keys []string, values map[string]any) RawRow {
	if values == nil {
		values = make(map[string]any, len(keys))
	}
	return RawRow{ID: NewRowID(), Keys: keys, Values: values}
}

// NewRowID mints a durable row identifier.
func NewRowID() string {
	return uuid.NewString()
}

// Get returns the value for field, or nil.
func (r RawRow) Get(field string) any {
	return r.Values[field]
}

// Set stores a value, appending the field to Keys when it is new.
func (r *RawRow) Set(field string, v any) {
	if r.Values == nil {
		r.Values = make(map[string]any)
	}
	if _, ok := r.Values[field]; !ok {
		r.Keys = append(r.Keys, field)
	}
	r.Values[field] = v
}

// IsBlank reports whether every value stringifies to whitespace.
func (r RawRow) IsBlank() bool {
	for _, v := range r.Values {
		if strings.TrimSpace(Stringify(v)) != "" {
			return false
		}
	}
	return true
}

// Clone returns a deep copy of the row's key list and value map.
func (r RawRow) Clone() RawRow {
	keys := make([]string, len(r.Keys))
	copy(keys, r.Keys)
	values := make(map[string]any, len(r.Values))
	for k, v := range r.Values {
		values[k] = v
	}
	return RawRow{ID: r.ID, Keys: keys, Values: values}
}

// Stringify renders a cell value the way it appears in reports.
// Numbers use the shortest round-trip form ("1000", "0.1"); nil is "".
func Stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case bool:
		if t {
			return "true"
		}
		return "false"
	case time.Time:
		return t.Format("2006-01-02 15:04:05")
	case decimal.Decimal:
		return t.String()
	case fmt.Stringer:
		return t.String()
	default:
		return fmt.Sprint(t)
	}
}

// =============================================================================
// NORMALIZED ROWS
// =============================================================================

// NormalizedRow is a RawRow with every value rendered as a string.
type NormalizedRow struct {
	ID     string
	Keys   []string
	Values map[string]string
}

// Get returns the value for field, or "".
func (r NormalizedRow) Get(field string) string {
	return r.Values[field]
}

// First returns the first non-blank trimmed value among fields.
func (r NormalizedRow) First(fields ...string) string {
	for _, f := range fields {
		if v := strings.TrimSpace(r.Values[f]); v != "" {
			return v
		}
	}
	return ""
}

// Set stores a value, appending the field to Keys when it is new.
func (r *NormalizedRow) Set(field, v string) {
	if r.Values == nil {
		r.Values = make(map[string]string)
	}
	if _, ok := r.Values[field]; !ok {
		r.Keys = append(r.Keys, field)
	}
	r.Values[field] = v
}

// Clone returns a deep copy.
func (r NormalizedRow) Clone() NormalizedRow {
	keys := make([]string, len(r.Keys))
	copy(keys, r.Keys)
	values := make(map[string]string, len(r.Values))
	for k, v := range r.Values {
		values[k] = v
	}
	return NormalizedRow{ID: r.ID, Keys: keys, Values: values}
}

// Raw converts the row back into a RawRow holding string values.
func (r NormalizedRow) Raw() RawRow {
	values := make(map[string]any, len(r.Values))
	for k, v := range r.Values {
		values[k] = v
	}
	keys := make([]string, len(r.Keys))
	copy(keys, r.Keys)
	return RawRow{ID: r.ID, Keys: keys, Values: values}
}

// =============================================================================
// VALIDATION OUTPUT
// =============================================================================

// CheckedRow is a normalized row with its validation verdict.
type CheckedRow struct {
	Row      NormalizedRow
	HasIssue bool
	Reasons  []string
	// Headers is the column order of the batch (the first raw row's keys).
	Headers []string
}

// Issue points at a failing row.
type Issue struct {
	// Index is the position in the checked list (blank rows removed).
	Index int
	// OriginalIndex is the position in the input before blank rows were removed.
	OriginalIndex int
	RowID         string
	Reasons       []string
	Row           NormalizedRow
}

// DisplayRow is the 1-based row number used in messages.
func (i Issue) DisplayRow() int {
	return i.OriginalIndex + 1
}

// =============================================================================
// AGGREGATION OUTPUT
// =============================================================================

// AggregatedGroup holds the sums for one dimension key.
// Amounts are rounded to two places on emission.
type AggregatedGroup struct {
	Key     string
	Revenue decimal.Decimal
	Refund  decimal.Decimal
	Net     decimal.Decimal
	// Count is the number of revenue rows (orders) in the group.
	Count int
	// RefundCount is the number of refund rows in the group.
	RefundCount int
}

var hundred = decimal.NewFromInt(100)

// AverageOrder is Revenue / Count, or zero for an empty group.
func (g AggregatedGroup) AverageOrder() decimal.Decimal {
	if g.Count == 0 {
		return decimal.Zero
	}
	return g.Revenue.Div(decimal.NewFromInt(int64(g.Count))).Round(2)
}

// RefundRate is Refund / Revenue as a percentage, zero when there is no revenue.
func (g AggregatedGroup) RefundRate() decimal.Decimal {
	if !g.Revenue.IsPositive() {
		return decimal.Zero
	}
	return g.Refund.Div(g.Revenue).Mul(hundred).Round(2)
}

// TrendPoint is one calendar day of the trend series.
type TrendPoint struct {
	DateKey string
	Revenue decimal.Decimal
	Refund  decimal.Decimal
	Net     decimal.Decimal
	Count   int
}
