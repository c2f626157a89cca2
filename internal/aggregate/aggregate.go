// =============================================================================
// Revenue/Refund Analyzer - Aggregator
// =============================================================================
//
// Groups validated revenue and refund rows by a dimension and sums their
// amounts. Sums are exact decimals, so the result does not depend on row
// order; amounts are rounded to two places (half away from zero) only when
// a group is emitted.
//
// ORDERING:
//   salesperson, quarter     ascending key (Chinese collation)
//   calendar-date            ascending YYYY-MM-DD
//   subject, class-type,
//   student-type             descending revenue, ties in first-seen order
//
// =============================================================================

package aggregate

import (
	"sort"
	"strings"

	"github.com/ginjaninja78/revenue-refund-analyzer/internal/types"
	"github.com/shopspring/decimal"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Amount coerces a cell into a decimal. Blank or non-numeric text is zero.
func Amount(s string) decimal.Decimal {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// Round2 rounds to two decimal places, half away from zero.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// accumulator collects exact sums for one key.
type accumulator struct {
	key         string
	revenue     decimal.Decimal
	refund      decimal.Decimal
	count       int
	refundCount int
}

func (a *accumulator) emit() types.AggregatedGroup {
	rev := Round2(a.revenue)
	ref := Round2(a.refund)
	return types.AggregatedGroup{
		Key:         a.key,
		Revenue:     rev,
		Refund:      ref,
		Net:         Round2(rev.Sub(ref)),
		Count:       a.count,
		RefundCount: a.refundCount,
	}
}

// AggregateBy groups both datasets by dim. Unknown dimensions yield nil.
func AggregateBy(revenue, refund []types.NormalizedRow, dim Dimension) []types.AggregatedGroup {
	spec, ok := registry[dim]
	if !ok {
		return nil
	}

	groups := make(map[string]*accumulator)
	var order []*accumulator
	get := func(key string) *accumulator {
		acc, ok := groups[key]
		if !ok {
			acc = &accumulator{key: key}
			groups[key] = acc
			order = append(order, acc)
		}
		return acc
	}

	for _, row := range revenue {
		key, ok := spec.revenue(row)
		if !ok {
			continue
		}
		acc := get(key)
		acc.revenue = acc.revenue.Add(Amount(row.Get(FieldRevenueAmount)))
		acc.count++
	}
	for _, row := range refund {
		key, ok := spec.refund(row)
		if !ok {
			continue
		}
		acc := get(key)
		acc.refund = acc.refund.Add(Amount(row.Get(FieldRefundAmount)))
		acc.refundCount++
	}

	out := make([]types.AggregatedGroup, 0, len(order))
	for _, acc := range order {
		out = append(out, acc.emit())
	}
	sortGroups(out, spec.order)
	return out
}

func sortGroups(out []types.AggregatedGroup, o ordering) {
	switch o {
	case byKey:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	case byLocaleKey:
		SortByKey(out)
	case byRevenueDesc:
		// Ties keep first-seen order; the emitted slice already is in
		// first-seen order and SliceStable preserves it.
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].Revenue.GreaterThan(out[j].Revenue)
		})
	}
}

// SortByKey orders groups by key using Chinese collation, so pinyin order
// applies to names and plain ordering to "Q1".."Q4".
func SortByKey(groups []types.AggregatedGroup) {
	c := collate.New(language.Chinese)
	sort.SliceStable(groups, func(i, j int) bool {
		return c.CompareString(groups[i].Key, groups[j].Key) < 0
	})
}

// Lookup finds the group with the given key.
func Lookup(groups []types.AggregatedGroup, key string) (types.AggregatedGroup, bool) {
	for _, g := range groups {
		if g.Key == key {
			return g, true
		}
	}
	return types.AggregatedGroup{}, false
}
