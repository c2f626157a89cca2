// =============================================================================
// Revenue/Refund Analyzer - Validate Command
// =============================================================================
//
// COMMAND USAGE:
//   analyzer validate --revenue rev.xlsx --refund ref.csv [flags]
//
// FLAGS:
//   --handoff : Save both datasets to the hand-off store when issue-free
//   --log     : Write an issue log and a run summary to the output directory
//   --strict  : Exit non-zero when any issue is found
//   --json    : Print the issues as JSON
//
// A dataset that fails to load is reported and skipped; the other one is
// still validated.
//
// =============================================================================

package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/revenue-refund-analyzer/internal/pipeline"
)

var validateFlags struct {
	input   inputFlags
	handoff bool
	log     bool
	strict  bool
	json    bool
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check revenue and refund uploads against the business rules",
	Long: `The validate command loads the uploads, normalizes dates and category
labels, and reports every row that misses a required field or pairs a
returning student with a new-student-only class type.

Issue-free datasets can be handed off to the report store with --handoff.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runValidate(cmd)
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
	validateFlags.input.register(validateCmd)
	validateCmd.Flags().BoolVar(&validateFlags.handoff, "handoff", false, "Save issue-free datasets to the hand-off store")
	validateCmd.Flags().BoolVar(&validateFlags.log, "log", false, "Write an issue log and run summary to the output directory")
	validateCmd.Flags().BoolVar(&validateFlags.strict, "strict", false, "Exit with an error when issues are found")
	validateCmd.Flags().BoolVar(&validateFlags.json, "json", false, "Print issues as JSON")
}

type issueJSON struct {
	Dataset string   `json:"dataset"`
	Row     int      `json:"row"`
	RowID   string   `json:"rowId"`
	Reasons []string `json:"reasons"`
}

func runValidate(cmd *cobra.Command) error {
	out := cmd.OutOrStdout()
	ls, err := openSession(cmd.ErrOrStderr(), &validateFlags.input)
	if err != nil {
		return err
	}

	total := 0
	if validateFlags.json {
		list := []issueJSON{}
		for _, e := range ls.issueEntries() {
			list = append(list, issueJSON{Dataset: e.Dataset, Row: e.Row, RowID: e.RowID, Reasons: e.Reasons})
		}
		total = len(list)
		if err := printJSON(out, list); err != nil {
			return err
		}
	} else {
		for _, st := range ls.Stats() {
			fmt.Fprintf(out, "%s: %s, %d row(s)", appConfig.DisplayName(st.Kind), st.Source, st.Checked)
			if st.Truncated {
				fmt.Fprintf(out, " (truncated to %d)", appConfig.Input.RowCap)
			}
			fmt.Fprintln(out)
			printIssues(out, appConfig.DisplayName(st.Kind), ls.Issues(st.Kind))
			total += st.Issues
		}
	}

	var outputs []string
	if validateFlags.log {
		fm := fileManager()
		if path, err := fm.WriteIssueLog(ls.issueEntries()); err != nil {
			logger.Warn("failed to write issue log: %v", err)
		} else if path != "" {
			outputs = append(outputs, path)
		}
	}

	if validateFlags.handoff {
		switch err := ls.Handoff(openStore()); {
		case errors.Is(err, pipeline.ErrUnresolvedIssues):
			fmt.Fprintf(cmd.ErrOrStderr(), "⚠ not handed off: %v\n", err)
		case err != nil:
			return err
		default:
			fmt.Fprintf(cmd.ErrOrStderr(), "✓ handed off to %s\n", appConfig.Store.Path)
		}
	}

	if validateFlags.log {
		if path, err := fileManager().WriteSummaryLog(ls.summary("validate", outputs)); err != nil {
			logger.Warn("failed to write run summary: %v", err)
		} else {
			logger.Info("Wrote run summary to: %s", path)
		}
	}

	if validateFlags.strict && total > 0 {
		return fmt.Errorf("%d row(s) with issues", total)
	}
	return nil
}
