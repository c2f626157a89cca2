package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/revenue-refund-analyzer/internal/trend"
)

var trendFlags struct {
	input  inputFlags
	filter filterFlags
	window int
	json   bool
}

var trendCmd = &cobra.Command{
	Use:   "trend",
	Short: "Show the daily revenue trend and its moving average",
	Long: `The trend command prints revenue, refund and net per calendar day, the
moving average of daily revenue, the recent-versus-earlier comparison and
the best and worst days.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		s, err := buildState(cmd.ErrOrStderr(), &trendFlags.input, &trendFlags.filter, trendFlags.window)
		if err != nil {
			return err
		}

		if trendFlags.json {
			type point struct {
				Date    string `json:"date"`
				Revenue string `json:"revenue"`
				Refund  string `json:"refund"`
				Net     string `json:"net"`
				Count   int    `json:"count"`
			}
			type avg struct {
				Date  string `json:"date"`
				Value string `json:"value"`
			}
			var doc struct {
				Window        int     `json:"window"`
				Points        []point `json:"points"`
				MovingAverage []avg   `json:"movingAverage"`
			}
			doc.Window = s.Window
			for _, p := range s.Views.Trend {
				doc.Points = append(doc.Points, point{p.DateKey, p.Revenue.StringFixed(2), p.Refund.StringFixed(2), p.Net.StringFixed(2), p.Count})
			}
			for _, p := range s.Views.MovingAverage {
				doc.MovingAverage = append(doc.MovingAverage, avg{p.DateKey, p.Value.StringFixed(2)})
			}
			return printJSON(out, doc)
		}

		if len(s.Views.Trend) == 0 {
			fmt.Fprintln(out, "No dated rows.")
			return nil
		}
		printTrend(out, s.Views.Trend, s.Views.MovingAverage)
		if len(s.Views.Trend) < s.Window {
			fmt.Fprintf(out, "(fewer than %d days: no moving average)\n", s.Window)
		}
		fmt.Fprintln(out)
		printComparison(out, s.Views.Comparison)
		printExtremes(out, s.Views.Trend)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(trendCmd)
	trendFlags.input.register(trendCmd)
	trendFlags.filter.register(trendCmd)
	trendCmd.Flags().IntVarP(&trendFlags.window, "window", "w", 0, fmt.Sprintf("Moving-average window in days (default from config, else %d)", trend.DefaultWindow))
	trendCmd.Flags().BoolVar(&trendFlags.json, "json", false, "Print the series as JSON")
}
