package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/ginjaninja78/revenue-refund-analyzer/internal/aggregate"
	"github.com/ginjaninja78/revenue-refund-analyzer/internal/trend"
	"github.com/ginjaninja78/revenue-refund-analyzer/internal/types"
)

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

func printIssues(w io.Writer, name string, issues []types.Issue) {
	if len(issues) == 0 {
		fmt.Fprintf(w, "✓ %s: no issues\n", name)
		return
	}
	fmt.Fprintf(w, "✗ %s: %d row(s) with issues\n", name, len(issues))
	for _, is := range issues {
		for _, r := range is.Reasons {
			fmt.Fprintf(w, "  - %s\n", r)
		}
	}
}

func printSummary(w io.Writer, s aggregate.Summary) {
	tw := newTable(w)
	fmt.Fprintf(tw, "总营收\t%s\t(%s)\n", s.TotalRevenue.StringFixed(2), aggregate.FormatWan(s.TotalRevenue))
	fmt.Fprintf(tw, "总退费\t%s\t(%s)\n", s.TotalRefund.StringFixed(2), aggregate.FormatWan(s.TotalRefund))
	fmt.Fprintf(tw, "净营收\t%s\t(%s)\n", s.Net.StringFixed(2), aggregate.FormatWan(s.Net))
	fmt.Fprintf(tw, "订单数\t%d\t\n", s.RevenueCount)
	fmt.Fprintf(tw, "退费笔数\t%d\t\n", s.RefundCount)
	fmt.Fprintf(tw, "退费率\t%s%%\t\n", s.RefundRate.StringFixed(2))
	fmt.Fprintf(tw, "净营收率\t%s%%\t\n", s.NetRate.StringFixed(2))
	fmt.Fprintf(tw, "平均订单金额\t%s\t\n", s.AverageOrder.StringFixed(2))
	tw.Flush()
}

func dimensionLabel(dim aggregate.Dimension) string {
	switch dim {
	case aggregate.Salesperson:
		return "销售人员"
	case aggregate.Quarter:
		return "季度"
	case aggregate.Subject:
		return "学科"
	case aggregate.ClassType:
		return "班型"
	case aggregate.StudentType:
		return "学生类型"
	case aggregate.CalendarDate:
		return "日期"
	}
	return string(dim)
}

func printGroups(w io.Writer, keyHeader string, groups []types.AggregatedGroup) {
	tw := newTable(w)
	fmt.Fprintf(tw, "%s\t营收\t退费\t净营收\t订单数\t平均订单金额\t退费率(%%)\n", keyHeader)
	for _, g := range groups {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%s\t%s\n",
			g.Key,
			g.Revenue.StringFixed(2),
			g.Refund.StringFixed(2),
			g.Net.StringFixed(2),
			g.Count,
			g.AverageOrder().StringFixed(2),
			g.RefundRate().StringFixed(2))
	}
	tw.Flush()
}

func printShares(w io.Writer, shares []aggregate.Share) {
	tw := newTable(w)
	fmt.Fprintln(tw, "学科\t净营收\t占比(%)")
	for _, s := range shares {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", s.Key, s.Net.StringFixed(2), s.Percent.StringFixed(1))
	}
	tw.Flush()
}

func printMatrix(w io.Writer, m aggregate.PeriodMatrix) {
	if len(m.Rows) == 0 {
		return
	}
	tw := newTable(w)
	fmt.Fprintf(tw, "学科\t%s\n", strings.Join(m.Periods, "\t"))
	for _, r := range m.Rows {
		cells := make([]string, len(m.Periods))
		for i, p := range m.Periods {
			cells[i] = r.Value(p).StringFixed(2)
		}
		fmt.Fprintf(tw, "%s\t%s\n", r.Subject, strings.Join(cells, "\t"))
	}
	tw.Flush()
}

func printTrend(w io.Writer, points []types.TrendPoint, ma []trend.MAPoint) {
	avg := make(map[string]string, len(ma))
	for _, p := range ma {
		avg[p.DateKey] = p.Value.StringFixed(2)
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "日期\t营收\t退费\t净营收\t订单数\t移动平均")
	for _, p := range points {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%s\n",
			p.DateKey, p.Revenue.StringFixed(2), p.Refund.StringFixed(2), p.Net.StringFixed(2), p.Count, avg[p.DateKey])
	}
	tw.Flush()
}

func printComparison(w io.Writer, c trend.Comparison) {
	if c.RecentPoints == 0 {
		return
	}
	fmt.Fprintf(w, "近%d日日均营收 %s，此前%d日日均营收 %s，变化 %s",
		c.RecentPoints, c.RecentAvg.StringFixed(2), c.EarlierPoints, c.EarlierAvg.StringFixed(2), c.Delta.StringFixed(2))
	if c.PercentDefined {
		fmt.Fprintf(w, " (%s%%)", c.Percent.StringFixed(1))
	}
	fmt.Fprintln(w)
}

func printExtremes(w io.Writer, points []types.TrendPoint) {
	e, ok := trend.FindExtremes(points)
	if !ok {
		return
	}
	fmt.Fprintf(w, "最高 %s %s，最低 %s %s，相差 %s%%\n",
		e.High.DateKey, e.High.Revenue.StringFixed(2), e.Low.DateKey, e.Low.Revenue.StringFixed(2), e.SpreadPercent.StringFixed(1))
}
