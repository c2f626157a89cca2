package export

import (
	"strconv"
	"strings"

	"github.com/ginjaninja78/revenue-refund-analyzer/internal/types"
)

// Sheet names.
const (
	SheetIssues = "问题数据"
	SheetAll    = "全部数据"
	SheetClean  = "合格数据"
	SheetSales  = "销售分析"
)

// Extra columns appended to issue exports.
const (
	ColumnReasons = "问题说明"
	ColumnSource  = "数据来源"
)

// Source pairs a dataset's display name with its validated rows.
type Source struct {
	Name    string
	Headers []string
	Checked []types.CheckedRow
}

// unionHeaders merges header lists, first-seen order.
func unionHeaders(sources []Source) []string {
	seen := make(map[string]bool)
	var out []string
	for _, s := range sources {
		for _, h := range s.Headers {
			if !seen[h] {
				seen[h] = true
				out = append(out, h)
			}
		}
		for _, c := range s.Checked {
			for _, k := range c.Row.Keys {
				if !seen[k] {
					seen[k] = true
					out = append(out, k)
				}
			}
		}
	}
	return out
}

func cells(row types.NormalizedRow, headers []string) []string {
	out := make([]string, len(headers))
	for i, h := range headers {
		out[i] = row.Get(h)
	}
	return out
}

// IssueTable lists every flagged row of every source, with its reasons
// joined by "；" and the source name.
func IssueTable(sources ...Source) Table {
	headers := unionHeaders(sources)
	t := Table{Sheet: SheetIssues, Headers: append(append([]string(nil), headers...), ColumnReasons, ColumnSource)}
	for _, s := range sources {
		for _, c := range s.Checked {
			if !c.HasIssue {
				continue
			}
			row := append(cells(c.Row, headers), strings.Join(c.Reasons, "；"), s.Name)
			t.Rows = append(t.Rows, row)
			t.Highlight = append(t.Highlight, true)
		}
	}
	return t
}

// CleanTable lists the issue-free rows of one source.
func CleanTable(s Source) Table {
	headers := unionHeaders([]Source{s})
	t := Table{Sheet: SheetClean, Headers: headers}
	for _, c := range s.Checked {
		if c.HasIssue {
			continue
		}
		t.Rows = append(t.Rows, cells(c.Row, headers))
	}
	return t
}

// AllTable lists every row of one source, shading the flagged ones.
func AllTable(s Source) Table {
	headers := unionHeaders([]Source{s})
	t := Table{Sheet: SheetAll, Headers: headers}
	for _, c := range s.Checked {
		t.Rows = append(t.Rows, cells(c.Row, headers))
		t.Highlight = append(t.Highlight, c.HasIssue)
	}
	return t
}

// SalesTable renders the salesperson view.
func SalesTable(groups []types.AggregatedGroup) Table {
	t := Table{Sheet: SheetSales, Headers: []string{"销售人员", "营收", "退费金额", "净营收"}}
	for _, g := range groups {
		t.Rows = append(t.Rows, []string{
			g.Key, g.Revenue.StringFixed(2), g.Refund.StringFixed(2), g.Net.StringFixed(2),
		})
	}
	return t
}

// GroupTable renders any dimension view with counts and refund rate.
func GroupTable(sheet, keyHeader string, groups []types.AggregatedGroup) Table {
	t := Table{Sheet: sheet, Headers: []string{keyHeader, "营收", "退费", "净营收", "订单数", "平均订单金额", "退费率(%)"}}
	for _, g := range groups {
		t.Rows = append(t.Rows, []string{
			g.Key,
			g.Revenue.StringFixed(2),
			g.Refund.StringFixed(2),
			g.Net.StringFixed(2),
			strconv.Itoa(g.Count),
			g.AverageOrder().StringFixed(2),
			g.RefundRate().StringFixed(2),
		})
	}
	return t
}

// TrendTable renders the daily series.
func TrendTable(points []types.TrendPoint) Table {
	t := Table{Sheet: "趋势", Headers: []string{"日期", "营收", "退费", "净营收", "订单数"}}
	for _, p := range points {
		t.Rows = append(t.Rows, []string{
			p.DateKey, p.Revenue.StringFixed(2), p.Refund.StringFixed(2), p.Net.StringFixed(2), strconv.Itoa(p.Count),
		})
	}
	return t
}
