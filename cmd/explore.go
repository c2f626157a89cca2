// =============================================================================
// Revenue/Refund Analyzer - Explore Command
// =============================================================================
//
// An interactive prompt over the report. Filter changes go through the
// report controller: they are debounced, recomputation never overlaps, and
// the summary is redrawn once per frame.
//
// PROMPT COMMANDS:
//   quarter|subject|class|student <values...>   set a chart filter
//   sales <names...>                            select salespeople
//   range <start> <end>                         set the date range ("-" = open)
//   clear                                       drop every filter
//   show [dimension]                            print a table
//   options                                     list filter values
//   quit
//
// =============================================================================

package cmd

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/revenue-refund-analyzer/internal/aggregate"
	"github.com/ginjaninja78/revenue-refund-analyzer/internal/normalize"
	"github.com/ginjaninja78/revenue-refund-analyzer/internal/report"
)

var exploreFlags struct {
	input inputFlags
}

var exploreCmd = &cobra.Command{
	Use:   "explore",
	Short: "Filter the report interactively",
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := reportData(cmd.ErrOrStderr(), &exploreFlags.input)
		if err != nil {
			return err
		}
		return runExplore(cmd.InOrStdin(), cmd.OutOrStdout(), report.NewState(data, appConfig.Report.MovingAverageWindow))
	},
}

func init() {
	rootCmd.AddCommand(exploreCmd)
	exploreFlags.input.register(exploreCmd)
}

func runExplore(in io.Reader, out io.Writer, initial report.State) error {
	var mu sync.Mutex
	draw := func(s report.State) {
		mu.Lock()
		defer mu.Unlock()
		fmt.Fprintf(out, "\n[v%d] %d 营收 / %d 退费 行\n", s.Version, len(s.Filtered.Revenue), len(s.Filtered.Refund))
		printSummary(out, s.Views.Summary)
	}

	c := report.NewController(initial, report.ControllerOptions{
		Debounce: time.Duration(appConfig.Report.DebounceMS) * time.Millisecond,
		Frame:    time.Duration(appConfig.Report.FrameMS) * time.Millisecond,
		Logger:   logger,
	}, draw)
	defer c.Close()

	draw(initial)
	sc := bufio.NewScanner(in)
	for {
		mu.Lock()
		fmt.Fprint(out, "> ")
		mu.Unlock()
		if !sc.Scan() {
			return sc.Err()
		}
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		cmd, args := strings.ToLower(fields[0]), fields[1:]

		// Reads see the last committed state; flush a pending filter first.
		current := func() report.State {
			c.Flush()
			return c.State()
		}

		switch cmd {
		case "quit", "exit", "q":
			return nil
		case "quarter", "subject", "class", "student":
			f := current().Filters
			set := report.NewSet(args...)
			switch cmd {
			case "quarter":
				f.Quarters = set
			case "subject":
				f.Subjects = set
			case "class":
				f.ClassTypes = set
			case "student":
				f.StudentTypes = set
			}
			c.Dispatch(report.FiltersChanged{Filters: f})
		case "sales":
			c.Dispatch(report.SelectionChanged{Salespeople: report.NewSet(args...)})
		case "range":
			start, end, err := parseRange(args)
			if err != nil {
				fmt.Fprintln(out, err)
				continue
			}
			c.Dispatch(report.DateRangeChanged{Start: start, End: end})
		case "clear":
			c.Dispatch(report.FiltersCleared{})
		case "show":
			s := current()
			mu.Lock()
			if len(args) == 0 {
				printSummary(out, s.Views.Summary)
			} else if dim, err := aggregate.ParseDimension(args[0]); err != nil {
				fmt.Fprintln(out, err)
			} else {
				printGroups(out, dimensionLabel(dim), s.Views.Dimension(dim))
			}
			mu.Unlock()
		case "options":
			o := report.FilterOptions(current().Source)
			mu.Lock()
			fmt.Fprintf(out, "quarter: %s\nsubject: %s\nclass:   %s\nstudent: %s\nsales:   %s\n",
				strings.Join(o.Quarters, " "), strings.Join(o.Subjects, " "),
				strings.Join(o.ClassTypes, " "), strings.Join(o.StudentTypes, " "),
				strings.Join(o.Salespeople, " "))
			mu.Unlock()
		default:
			fmt.Fprintf(out, "unknown command %q\n", cmd)
		}
	}
}

func parseRange(args []string) (string, string, error) {
	if len(args) != 2 {
		return "", "", fmt.Errorf("usage: range <start|-> <end|->")
	}
	var keys [2]string
	for i, a := range args {
		if a == "-" {
			continue
		}
		key, ok := normalize.DateKey(a)
		if !ok {
			return "", "", fmt.Errorf("cannot parse date %q", a)
		}
		keys[i] = key
	}
	return keys[0], keys[1], nil
}
