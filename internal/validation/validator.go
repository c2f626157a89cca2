// =============================================================================
// Revenue/Refund Analyzer - Validation Engine
// =============================================================================
//
// This module checks normalized rows against the business rules of each
// dataset kind and reports every failing row with human-readable reasons.
//
// VALIDATION STRATEGY:
//   1. Blank rows (every value empty after trimming) are dropped; the
//      position of each surviving row in the input is remembered.
//   2. Each surviving row is normalized.
//   3. Required-field rule: every required field must be non-blank.
//   4. Conflict rule: a row whose student type is "老生" may not be booked
//      into a class type reserved for new students (新生, VIP, 短期班).
//
// ERROR HANDLING:
//   - Problems are collected as data, never returned as Go errors
//   - Each reason names the table, the 1-based source row and the field
//   - The same input always yields the same result
//
// CUSTOMIZATION:
//   - Profiles (table name, required fields, conflict fields) come from
//     the YAML config; see config.DatasetConfig
//
// =============================================================================

package validation

import (
	"fmt"
	"strings"

	"github.com/ginjaninja78/revenue-refund-analyzer/internal/normalize"
	"github.com/ginjaninja78/revenue-refund-analyzer/internal/types"
)

// =============================================================================
// PROFILES
// =============================================================================

// Profile describes the rules for one dataset kind.
type Profile struct {
	Kind types.Kind

	// DisplayName is the table name used in messages, e.g. "营收表".
	DisplayName string

	// Required lists fields that must be non-blank, in report order.
	Required []string

	// StudentTypeField and ClassTypeField feed the conflict rule.
	// Leaving either empty disables the rule.
	StudentTypeField string
	ClassTypeField   string

	// ReturningLabel is the student-type label that triggers the conflict
	// check; NewOnlyLabels are the class types it may not be paired with.
	ReturningLabel string
	NewOnlyLabels  []string
}

// RevenueProfile is the built-in profile for revenue records.
func RevenueProfile() Profile {
	return Profile{
		Kind:             types.Revenue,
		DisplayName:      "营收表",
		Required:         []string{"教师姓名", "创建人姓名", "学科", "学生类型"},
		StudentTypeField: "学生类型",
		ClassTypeField:   "班型",
		ReturningLabel:   "老生",
		NewOnlyLabels:    []string{"新生", "VIP", "短期班"},
	}
}

// RefundProfile is the built-in profile for refund records.
func RefundProfile() Profile {
	return Profile{
		Kind:             types.Refund,
		DisplayName:      "退费表",
		Required:         []string{"授课老师", "课程老师", "科目", "是否新生"},
		StudentTypeField: "是否新生",
		ClassTypeField:   "班级",
		ReturningLabel:   "老生",
		NewOnlyLabels:    []string{"新生", "VIP", "短期班"},
	}
}

// =============================================================================
// RESULT
// =============================================================================

// Result is the outcome of validating one dataset.
type Result struct {
	Kind    types.Kind
	Headers []string
	Checked []types.CheckedRow
	Issues  []types.Issue
}

// Rows returns every checked row's normalized data, in order.
func (r Result) Rows() []types.NormalizedRow {
	out := make([]types.NormalizedRow, 0, len(r.Checked))
	for _, c := range r.Checked {
		out = append(out, c.Row)
	}
	return out
}

// Clean returns the rows without issues.
func (r Result) Clean() []types.NormalizedRow {
	out := make([]types.NormalizedRow, 0, len(r.Checked))
	for _, c := range r.Checked {
		if !c.HasIssue {
			out = append(out, c.Row)
		}
	}
	return out
}

// Ready reports whether the dataset can feed a report: it has rows and
// none of them has an issue.
func (r Result) Ready() bool {
	return len(r.Checked) > 0 && len(r.Issues) == 0
}

// IssueFor finds the issue recorded for a row ID.
func (r Result) IssueFor(rowID string) (types.Issue, bool) {
	for _, is := range r.Issues {
		if is.RowID == rowID {
			return is, true
		}
	}
	return types.Issue{}, false
}

// =============================================================================
// VALIDATOR
// =============================================================================

// Validator applies per-kind profiles.
type Validator struct {
	normalizer *normalize.Normalizer
	profiles   map[types.Kind]Profile
}

// New builds a Validator. Kinds without a profile are validated with no rules.
func New(n *normalize.Normalizer, profiles ...Profile) *Validator {
	if n == nil {
		n = normalize.Default()
	}
	v := &Validator{normalizer: n, profiles: make(map[types.Kind]Profile)}
	for _, p := range profiles {
		v.profiles[p.Kind] = p
	}
	return v
}

// Default returns a Validator with the built-in profiles.
func Default() *Validator {
	return New(normalize.Default(), RevenueProfile(), RefundProfile())
}

// Profile returns the profile for kind. Unknown kinds get an empty profile
// named after the kind.
func (v *Validator) Profile(kind types.Kind) Profile {
	if p, ok := v.profiles[kind]; ok {
		return p
	}
	return Profile{Kind: kind, DisplayName: string(kind)}
}

// Normalizer exposes the normalizer the validator runs rows through.
func (v *Validator) Normalizer() *normalize.Normalizer {
	return v.normalizer
}

// Validate validates rows with the built-in profiles.
func Validate(rows []types.RawRow, kind types.Kind) Result {
	return Default().Validate(rows, kind)
}

// Validate checks every row of a dataset.
//
// PARAMETERS:
//   - rows: the raw rows in source order.
//   - kind: which profile to apply.
//
// RETURNS:
//   - A Result. Issues[i].Index points into Checked; Issues[i].Reasons is
//     the same slice as Checked[Issues[i].Index].Reasons.
func (v *Validator) Validate(rows []types.RawRow, kind types.Kind) Result {
	res := Result{Kind: kind}
	if len(rows) == 0 {
		return res
	}

	profile := v.Profile(kind)
	res.Headers = append([]string(nil), rows[0].Keys...)

	for originalIndex, raw := range rows {
		if raw.IsBlank() {
			continue
		}

		row := v.normalizer.Row(raw)
		reasons := v.checkRow(profile, row, originalIndex+1)

		checked := types.CheckedRow{
			Row:      row,
			HasIssue: len(reasons) > 0,
			Reasons:  reasons,
			Headers:  res.Headers,
		}
		res.Checked = append(res.Checked, checked)

		if checked.HasIssue {
			res.Issues = append(res.Issues, types.Issue{
				Index:         len(res.Checked) - 1,
				OriginalIndex: originalIndex,
				RowID:         row.ID,
				Reasons:       reasons,
				Row:           row,
			})
		}
	}
	return res
}

// checkRow returns the reasons a row fails, or nil.
func (v *Validator) checkRow(p Profile, row types.NormalizedRow, displayRow int) []string {
	var reasons []string

	// Required fields.
	for _, f := range p.Required {
		if strings.TrimSpace(row.Get(f)) == "" {
			reasons = append(reasons, fmt.Sprintf("%s第%d行【%s】为空", p.DisplayName, displayRow, f))
		}
	}

	// Student type vs class type.
	if p.StudentTypeField == "" || p.ClassTypeField == "" || p.ReturningLabel == "" {
		return reasons
	}
	student := v.normalizer.Category(row.Get(p.StudentTypeField))
	class := v.normalizer.Category(row.Get(p.ClassTypeField))
	if student == p.ReturningLabel && contains(p.NewOnlyLabels, class) {
		reasons = append(reasons, fmt.Sprintf("%s第%d行 %s=%s 与 %s=%s 存在冲突",
			p.DisplayName, displayRow, p.StudentTypeField, p.ReturningLabel, p.ClassTypeField, class))
	}
	return reasons
}

func contains(list []string, s string) bool {
	for _, x := range list {
		if x == s {
			return true
		}
	}
	return false
}

// =============================================================================
// FORMATTING
// =============================================================================

// FormatIssues renders issues one reason per line, for CLI output and logs.
func FormatIssues(issues []types.Issue) string {
	if len(issues) == 0 {
		return "No validation issues found."
	}

	var sb strings.Builder
	reasons := 0
	for _, is := range issues {
		reasons += len(is.Reasons)
	}
	sb.WriteString(fmt.Sprintf("Found %d issue(s) in %d row(s):\n", reasons, len(issues)))
	sb.WriteString(strings.Repeat("-", 60))
	sb.WriteString("\n")
	for _, is := range issues {
		for _, r := range is.Reasons {
			sb.WriteString(r)
			sb.WriteString("\n")
		}
	}
	return sb.String()
}
