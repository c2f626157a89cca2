package aggregate

import (
	"sort"

	"github.com/ginjaninja78/revenue-refund-analyzer/internal/types"
	"github.com/shopspring/decimal"
)

var (
	hundred  = decimal.NewFromInt(100)
	tenThous = decimal.NewFromInt(10000)
	tenMill  = decimal.NewFromInt(10000000)
)

// Share is one slice of a net-revenue breakdown.
type Share struct {
	Key string
	Net decimal.Decimal
	// Percent of the included total, one decimal place.
	Percent decimal.Decimal
}

// Shares computes each group's portion of total net revenue. Groups with
// net <= 0 are left out, and the total covers the included groups only.
func Shares(groups []types.AggregatedGroup) []Share {
	total := decimal.Zero
	for _, g := range groups {
		if g.Net.IsPositive() {
			total = total.Add(g.Net)
		}
	}
	var out []Share
	for _, g := range groups {
		if !g.Net.IsPositive() {
			continue
		}
		out = append(out, Share{
			Key:     g.Key,
			Net:     g.Net,
			Percent: g.Net.Div(total).Mul(hundred).Round(1),
		})
	}
	return out
}

// Summary holds the headline figures for a pair of datasets.
type Summary struct {
	TotalRevenue decimal.Decimal
	TotalRefund  decimal.Decimal
	Net          decimal.Decimal
	RevenueCount int
	RefundCount  int
	// RefundRate and NetRate are percentages of total revenue.
	RefundRate   decimal.Decimal
	NetRate      decimal.Decimal
	AverageOrder decimal.Decimal
}

// Summarize totals both datasets.
func Summarize(revenue, refund []types.NormalizedRow) Summary {
	rev, ref := decimal.Zero, decimal.Zero
	for _, r := range revenue {
		rev = rev.Add(Amount(r.Get(FieldRevenueAmount)))
	}
	for _, r := range refund {
		ref = ref.Add(Amount(r.Get(FieldRefundAmount)))
	}

	s := Summary{
		TotalRevenue: Round2(rev),
		TotalRefund:  Round2(ref),
		RevenueCount: len(revenue),
		RefundCount:  len(refund),
	}
	s.Net = Round2(s.TotalRevenue.Sub(s.TotalRefund))
	if s.TotalRevenue.IsPositive() {
		s.RefundRate = s.TotalRefund.Div(s.TotalRevenue).Mul(hundred).Round(2)
		s.NetRate = s.Net.Div(s.TotalRevenue).Mul(hundred).Round(2)
	}
	if s.RevenueCount > 0 {
		s.AverageOrder = s.TotalRevenue.Div(decimal.NewFromInt(int64(s.RevenueCount))).Round(2)
	}
	return s
}

// FormatWan renders an amount in 万元, switching to 千万元 at ten million.
func FormatWan(amount decimal.Decimal) string {
	if amount.Abs().GreaterThanOrEqual(tenMill) {
		return amount.Div(tenMill).StringFixed(2) + "千万元"
	}
	return amount.Div(tenThous).StringFixed(2) + "万元"
}

// PeriodMatrix is revenue by subject (rows) and period (columns).
type PeriodMatrix struct {
	Periods []string
	Rows    []PeriodRow
}

// PeriodRow is one subject's revenue per period.
type PeriodRow struct {
	Subject string
	Values  map[string]decimal.Decimal
}

// Value returns the amount for a period, zero when absent.
func (r PeriodRow) Value(period string) decimal.Decimal {
	if v, ok := r.Values[period]; ok {
		return v
	}
	return decimal.Zero
}

// SubjectByPeriod builds the subject x period revenue matrix. The period
// is 季度, then 班期, then 未知周期. Periods are sorted; subjects keep
// first-seen order.
func SubjectByPeriod(revenue []types.NormalizedRow) PeriodMatrix {
	var m PeriodMatrix
	rows := make(map[string]*PeriodRow)
	var order []string
	periods := make(map[string]bool)

	for _, r := range revenue {
		subject := r.First(FieldSubject)
		if subject == "" {
			subject = UnknownSubject
		}
		period := r.First(FieldQuarter, FieldClassPeriod)
		if period == "" {
			period = UnknownPeriod
		}
		pr, ok := rows[subject]
		if !ok {
			pr = &PeriodRow{Subject: subject, Values: make(map[string]decimal.Decimal)}
			rows[subject] = pr
			order = append(order, subject)
		}
		pr.Values[period] = pr.Value(period).Add(Amount(r.Get(FieldRevenueAmount)))
		periods[period] = true
	}

	for p := range periods {
		m.Periods = append(m.Periods, p)
	}
	sort.Strings(m.Periods)
	for _, s := range order {
		pr := rows[s]
		for p, v := range pr.Values {
			pr.Values[p] = Round2(v)
		}
		m.Rows = append(m.Rows, *pr)
	}
	return m
}
