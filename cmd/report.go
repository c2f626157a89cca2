// =============================================================================
// Revenue/Refund Analyzer - Report Command
// =============================================================================
//
// COMMAND USAGE:
//   analyzer report [--dimension quarter] [filters] [--json]
//
// DATA SOURCE:
//   --revenue/--refund uploads when given (they must validate cleanly),
//   otherwise the hand-off store written by 'validate --handoff'.
//
// FILTERS:
//   --start/--end bound the payment or refund date (rows without a date are
//   kept). --quarter, --subject, --class-type and --student-type narrow the
//   rows; --salesperson narrows only the salesperson table.
//
// =============================================================================

package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/revenue-refund-analyzer/internal/aggregate"
	"github.com/ginjaninja78/revenue-refund-analyzer/internal/normalize"
	"github.com/ginjaninja78/revenue-refund-analyzer/internal/report"
	"github.com/ginjaninja78/revenue-refund-analyzer/internal/types"
)

// filterFlags are shared by report, trend, export and analyze.
type filterFlags struct {
	start        string
	end          string
	quarters     []string
	subjects     []string
	classTypes   []string
	studentTypes []string
	salespeople  []string
}

func (f *filterFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.start, "start", "", "First date to include (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.end, "end", "", "Last date to include (YYYY-MM-DD)")
	cmd.Flags().StringSliceVar(&f.quarters, "quarter", nil, "Only these quarters")
	cmd.Flags().StringSliceVar(&f.subjects, "subject", nil, "Only these subjects")
	cmd.Flags().StringSliceVar(&f.classTypes, "class-type", nil, "Only these class types (revenue only)")
	cmd.Flags().StringSliceVar(&f.studentTypes, "student-type", nil, "Only these student types")
	cmd.Flags().StringSliceVar(&f.salespeople, "salesperson", nil, "Only these salespeople in the salesperson table")
}

func (f *filterFlags) filters() (report.Filters, error) {
	out := report.Filters{
		Quarters:     report.NewSet(f.quarters...),
		Subjects:     report.NewSet(f.subjects...),
		ClassTypes:   report.NewSet(f.classTypes...),
		StudentTypes: report.NewSet(f.studentTypes...),
		Salespeople:  report.NewSet(f.salespeople...),
	}
	for _, d := range []struct {
		name string
		src  string
		dst  *string
	}{{"--start", f.start, &out.Start}, {"--end", f.end, &out.End}} {
		if d.src == "" {
			continue
		}
		key, ok := normalize.DateKey(d.src)
		if !ok {
			return report.Filters{}, fmt.Errorf("%s: cannot parse date %q", d.name, d.src)
		}
		*d.dst = key
	}
	return out, nil
}

// buildState loads the report data and applies the filter flags through
// the same reducer the explorer uses.
func buildState(w io.Writer, input *inputFlags, ff *filterFlags, window int) (report.State, error) {
	data, err := reportData(w, input)
	if err != nil {
		return report.State{}, err
	}
	filters, err := ff.filters()
	if err != nil {
		return report.State{}, err
	}
	if window <= 0 {
		window = appConfig.Report.MovingAverageWindow
	}
	s := report.NewState(data, window)
	if !filters.Empty() {
		s = report.Update(s, report.FiltersChanged{Filters: filters})
	}
	return s, nil
}

var reportFlags struct {
	input     inputFlags
	filter    filterFlags
	dimension string
	json      bool
	options   bool
}

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Aggregate validated data by salesperson, quarter, subject and more",
	Long: `The report command prints the summary figures and one table per
dimension: salesperson, quarter, subject, class type, student type and
calendar date. Use --dimension to print a single table.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runReport(cmd)
	},
}

func init() {
	rootCmd.AddCommand(reportCmd)
	reportFlags.input.register(reportCmd)
	reportFlags.filter.register(reportCmd)
	reportCmd.Flags().StringVarP(&reportFlags.dimension, "dimension", "d", "", "Print only this dimension")
	reportCmd.Flags().BoolVar(&reportFlags.json, "json", false, "Print the views as JSON")
	reportCmd.Flags().BoolVar(&reportFlags.options, "options", false, "List the values each filter can take")
}

func runReport(cmd *cobra.Command) error {
	out := cmd.OutOrStdout()
	s, err := buildState(cmd.ErrOrStderr(), &reportFlags.input, &reportFlags.filter, 0)
	if err != nil {
		return err
	}

	if reportFlags.options {
		return printJSON(out, report.FilterOptions(s.Source))
	}

	dims := aggregate.Dimensions()
	if reportFlags.dimension != "" {
		dim, err := aggregate.ParseDimension(reportFlags.dimension)
		if err != nil {
			return err
		}
		dims = []aggregate.Dimension{dim}
	}

	if reportFlags.json {
		views := make(map[aggregate.Dimension][]groupJSON, len(dims))
		for _, dim := range dims {
			views[dim] = toGroupJSON(s.Views.Dimension(dim))
		}
		return printJSON(out, struct {
			Summary summaryJSON                         `json:"summary"`
			Views   map[aggregate.Dimension][]groupJSON `json:"views"`
		}{toSummaryJSON(s.Views.Summary), views})
	}

	if reportFlags.dimension == "" {
		printSummary(out, s.Views.Summary)
	}
	for _, dim := range dims {
		fmt.Fprintf(out, "\n== %s ==\n", dimensionLabel(dim))
		printGroups(out, dimensionLabel(dim), s.Views.Dimension(dim))
		if dim == aggregate.Subject {
			fmt.Fprintln(out)
			printShares(out, s.Views.SubjectShares)
		}
	}
	if reportFlags.dimension == "" {
		fmt.Fprintln(out, "\n== 学科 × 周期 ==")
		printMatrix(out, s.Views.Matrix)
	}
	return nil
}

type groupJSON struct {
	Key         string `json:"key"`
	Revenue     string `json:"revenue"`
	Refund      string `json:"refund"`
	Net         string `json:"net"`
	Count       int    `json:"count"`
	RefundCount int    `json:"refundCount"`
	RefundRate  string `json:"refundRate"`
}

func toGroupJSON(groups []types.AggregatedGroup) []groupJSON {
	out := make([]groupJSON, 0, len(groups))
	for _, g := range groups {
		out = append(out, groupJSON{
			Key:         g.Key,
			Revenue:     g.Revenue.StringFixed(2),
			Refund:      g.Refund.StringFixed(2),
			Net:         g.Net.StringFixed(2),
			Count:       g.Count,
			RefundCount: g.RefundCount,
			RefundRate:  g.RefundRate().StringFixed(2),
		})
	}
	return out
}

type summaryJSON struct {
	TotalRevenue string `json:"totalRevenue"`
	TotalRefund  string `json:"totalRefund"`
	Net          string `json:"net"`
	RevenueCount int    `json:"revenueCount"`
	RefundCount  int    `json:"refundCount"`
	RefundRate   string `json:"refundRate"`
	NetRate      string `json:"netRate"`
	AverageOrder string `json:"averageOrder"`
}

func toSummaryJSON(s aggregate.Summary) summaryJSON {
	return summaryJSON{
		TotalRevenue: s.TotalRevenue.StringFixed(2),
		TotalRefund:  s.TotalRefund.StringFixed(2),
		Net:          s.Net.StringFixed(2),
		RevenueCount: s.RevenueCount,
		RefundCount:  s.RefundCount,
		RefundRate:   s.RefundRate.StringFixed(2),
		NetRate:      s.NetRate.StringFixed(2),
		AverageOrder: s.AverageOrder.StringFixed(2),
	}
}
