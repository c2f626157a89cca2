package report

import (
	"sort"
	"strings"

	"github.com/ginjaninja78/revenue-refund-analyzer/internal/aggregate"
	"github.com/ginjaninja78/revenue-refund-analyzer/internal/normalize"
	"github.com/ginjaninja78/revenue-refund-analyzer/internal/types"
)

// Set is a string set. A nil or empty Set matches everything.
type Set map[string]struct{}

// NewSet builds a set from values, ignoring blanks.
func NewSet(values ...string) Set {
	s := make(Set, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			s[v] = struct{}{}
		}
	}
	return s
}

// Has reports membership.
func (s Set) Has(v string) bool {
	_, ok := s[v]
	return ok
}

// Values returns the members sorted.
func (s Set) Values() []string {
	out := make([]string, 0, len(s))
	for v := range s {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

func (s Set) allows(v string) bool {
	return len(s) == 0 || s.Has(v)
}

// Data is the pair of validated datasets a report is built from.
type Data struct {
	Revenue []types.NormalizedRow
	Refund  []types.NormalizedRow
}

// Filters holds every report filter.
type Filters struct {
	// Start and End bound the date range, inclusive, as YYYY-MM-DD.
	// Empty means unbounded.
	Start string
	End   string

	Quarters     Set
	Subjects     Set
	ClassTypes   Set
	StudentTypes Set

	// Salespeople narrows the salesperson view only.
	Salespeople Set
}

// Empty reports whether no filter is set.
func (f Filters) Empty() bool {
	return f.Start == "" && f.End == "" &&
		len(f.Quarters) == 0 && len(f.Subjects) == 0 &&
		len(f.ClassTypes) == 0 && len(f.StudentTypes) == 0 &&
		len(f.Salespeople) == 0
}

// FilterByDateRange keeps rows whose date lies in [start, end]. Rows with a
// missing or unparseable date are kept.
func FilterByDateRange(d Data, start, end string) Data {
	if start == "" && end == "" {
		return d
	}
	keep := func(row types.NormalizedRow, fields ...string) bool {
		key, ok := normalize.DateKey(row.First(fields...))
		if !ok {
			return true
		}
		if start != "" && key < start {
			return false
		}
		if end != "" && key > end {
			return false
		}
		return true
	}
	var out Data
	for _, r := range d.Revenue {
		if keep(r, aggregate.FieldPaymentDate, aggregate.FieldOrderCreated) {
			out.Revenue = append(out.Revenue, r)
		}
	}
	for _, r := range d.Refund {
		if keep(r, aggregate.FieldPaymentDate, aggregate.FieldRefundApplied) {
			out.Refund = append(out.Refund, r)
		}
	}
	return out
}

// FilterByChart applies the quarter, subject, class-type and student-type
// sets. Refund rows are matched through their own fields (学期, 科目,
// 是否新生); the class-type set only filters revenue. Rows without a value
// for a selected dimension are dropped.
func FilterByChart(d Data, f Filters) Data {
	match := func(dim aggregate.Dimension, kind types.Kind, row types.NormalizedRow, s Set) bool {
		if len(s) == 0 {
			return true
		}
		key, ok := aggregate.FilterKeyOf(dim, kind, row)
		return ok && s.Has(key)
	}

	var out Data
	for _, r := range d.Revenue {
		if match(aggregate.Quarter, types.Revenue, r, f.Quarters) &&
			match(aggregate.Subject, types.Revenue, r, f.Subjects) &&
			match(aggregate.ClassType, types.Revenue, r, f.ClassTypes) &&
			match(aggregate.StudentType, types.Revenue, r, f.StudentTypes) {
			out.Revenue = append(out.Revenue, r)
		}
	}
	for _, r := range d.Refund {
		if match(aggregate.Quarter, types.Refund, r, f.Quarters) &&
			match(aggregate.Subject, types.Refund, r, f.Subjects) &&
			match(aggregate.StudentType, types.Refund, r, f.StudentTypes) {
			out.Refund = append(out.Refund, r)
		}
	}
	return out
}

// SelectSalespeople narrows salesperson groups to the selection.
func SelectSalespeople(groups []types.AggregatedGroup, s Set) []types.AggregatedGroup {
	if len(s) == 0 {
		return groups
	}
	var out []types.AggregatedGroup
	for _, g := range groups {
		if s.allows(g.Key) {
			out = append(out, g)
		}
	}
	return out
}

// Options lists the distinct values each chart filter can take.
type Options struct {
	Quarters     []string
	Subjects     []string
	ClassTypes   []string
	StudentTypes []string
	Salespeople  []string
}

// FilterOptions collects the filter choices present in the data.
func FilterOptions(d Data) Options {
	keys := func(dim aggregate.Dimension) []string {
		groups := aggregate.AggregateBy(d.Revenue, d.Refund, dim)
		out := make([]string, 0, len(groups))
		for _, g := range groups {
			out = append(out, g.Key)
		}
		sort.Strings(out)
		return out
	}
	return Options{
		Quarters:     keys(aggregate.Quarter),
		Subjects:     keys(aggregate.Subject),
		ClassTypes:   keys(aggregate.ClassType),
		StudentTypes: keys(aggregate.StudentType),
		Salespeople:  keys(aggregate.Salesperson),
	}
}
