// =============================================================================
// Revenue/Refund Analyzer - Row Normalizer
// =============================================================================
//
// Turns a RawRow into a NormalizedRow: every value becomes a string and any
// field whose name looks like a date is rewritten to YYYY-MM-DD.
//
// DATE FIELDS:
//   A field is a date field when its name contains one of the configured
//   keywords (case-insensitive). For those fields:
//     time.Time         -> YYYY-MM-DD
//     number >= 1000    -> spreadsheet serial day (1900 date system)
//     number <  1000    -> the number as written
//     string            -> parsed against the accepted layouts; kept only when
//                          the year is within 1900..2100, otherwise unchanged
//
// Normalization is pure and idempotent.
//
// =============================================================================

package normalize

import (
	"math"
	"strings"
	"time"

	"github.com/ginjaninja78/revenue-refund-analyzer/internal/types"
	"github.com/xuri/excelize/v2"
)

// DateLayout is the canonical output form for date fields.
const DateLayout = "2006-01-02"

const (
	minYear = 1900
	maxYear = 2100
	// serialThreshold separates small numbers from spreadsheet serial days.
	serialThreshold = 1000
	// maxSerial is 9999-12-31, the last day a workbook can hold.
	maxSerial = 2958465
)

// DefaultDateKeywords are the field-name fragments that mark a date field.
var DefaultDateKeywords = []string{
	"日期", "时间", "Date", "Time", "年月日", "创建时间", "收款日期", "订单创建", "时间戳",
}

// LabelRule maps any value containing one of Contains onto Label.
type LabelRule struct {
	Label    string   `yaml:"label"`
	Contains []string `yaml:"contains"`
}

// DefaultLabelRules is the built-in category table, checked in order.
var DefaultLabelRules = []LabelRule{
	{Label: "新生", Contains: []string{"新生"}},
	{Label: "老生", Contains: []string{"老生"}},
	{Label: "VIP", Contains: []string{"VIP"}},
	{Label: "短期班", Contains: []string{"短期班", "短期"}},
}

// Normalizer holds the date keyword list and category table.
type Normalizer struct {
	dateKeywords []string
	labels       []LabelRule
}

// New builds a Normalizer. Empty arguments fall back to the defaults.
func New(dateKeywords []string, labels []LabelRule) *Normalizer {
	if len(dateKeywords) == 0 {
		dateKeywords = DefaultDateKeywords
	}
	if len(labels) == 0 {
		labels = DefaultLabelRules
	}
	n := &Normalizer{}
	for _, k := range dateKeywords {
		if k = strings.TrimSpace(k); k != "" {
			n.dateKeywords = append(n.dateKeywords, strings.ToLower(k))
		}
	}
	for _, r := range labels {
		rule := LabelRule{Label: r.Label}
		for _, c := range r.Contains {
			if c = strings.TrimSpace(c); c != "" {
				rule.Contains = append(rule.Contains, strings.ToLower(c))
			}
		}
		n.labels = append(n.labels, rule)
	}
	return n
}

// Default returns a Normalizer with the built-in tables.
func Default() *Normalizer {
	return New(nil, nil)
}

// IsDateField reports whether the field name matches a date keyword.
func (n *Normalizer) IsDateField(field string) bool {
	lower := strings.ToLower(field)
	for _, k := range n.dateKeywords {
		if strings.Contains(lower, k) {
			return true
		}
	}
	return false
}

// Row normalizes every value of a raw row. The ID and key order carry over.
func (n *Normalizer) Row(row types.RawRow) types.NormalizedRow {
	keys := make([]string, len(row.Keys))
	copy(keys, row.Keys)
	out := types.NormalizedRow{
		ID:     row.ID,
		Keys:   keys,
		Values: make(map[string]string, len(row.Values)),
	}
	for k, v := range row.Values {
		out.Values[k] = n.Value(v, k)
	}
	// Values without a key entry still need a stable position.
	if len(out.Keys) < len(out.Values) {
		seen := make(map[string]bool, len(out.Keys))
		for _, k := range out.Keys {
			seen[k] = true
		}
		for k := range out.Values {
			if !seen[k] {
				out.Keys = append(out.Keys, k)
			}
		}
	}
	return out
}

// Value normalizes a single cell for the given field name.
func (n *Normalizer) Value(v any, field string) string {
	if v == nil {
		return ""
	}
	if !n.IsDateField(field) {
		return types.Stringify(v)
	}

	switch t := v.(type) {
	case time.Time:
		return t.Format(DateLayout)
	case float64:
		return serialDate(t)
	case float32:
		return serialDate(float64(t))
	case int:
		return serialDate(float64(t))
	case int64:
		return serialDate(float64(t))
	case string:
		if d, ok := ParseDate(t); ok {
			return d.Format(DateLayout)
		}
		return t
	}
	return types.Stringify(v)
}

func serialDate(f float64) string {
	if math.IsNaN(f) || f < serialThreshold || f > maxSerial {
		return types.Stringify(f)
	}
	t, err := excelize.ExcelDateToTime(f, false)
	if err != nil {
		return types.Stringify(f)
	}
	return t.Format(DateLayout)
}

// Category maps a free-text value onto a canonical label using the rule
// table. Values that match no rule come back trimmed but otherwise verbatim.
func (n *Normalizer) Category(v any) string {
	s := strings.TrimSpace(types.Stringify(v))
	if s == "" {
		return ""
	}
	lower := strings.ToLower(s)
	for _, r := range n.labels {
		for _, c := range r.Contains {
			if strings.Contains(lower, c) {
				return r.Label
			}
		}
	}
	return s
}

// NormalizeCategory applies the default label table.
func NormalizeCategory(v any) string {
	return defaultNormalizer.Category(v)
}

var defaultNormalizer = Default()
