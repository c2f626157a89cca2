// =============================================================================
// Revenue/Refund Analyzer - Fix Command
// =============================================================================
//
// COMMAND USAGE:
//   analyzer fix --revenue rev.xlsx --set revenue:2:教师姓名=王老师 [flags]
//   analyzer fix --revenue rev.xlsx --interactive
//
// EDIT SYNTAX:
//   <dataset>:<row>:<field>=<value>
//   dataset is revenue/refund (or 营收/退费), row is the row number shown in
//   the issue message.
//
// Edits are recorded first and applied together; the datasets are then
// validated again. --save writes the corrected rows back out as workbooks.
//
// =============================================================================

package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/revenue-refund-analyzer/internal/export"
	"github.com/ginjaninja78/revenue-refund-analyzer/internal/pipeline"
	"github.com/ginjaninja78/revenue-refund-analyzer/internal/types"
)

var fixFlags struct {
	input       inputFlags
	sets        []string
	interactive bool
	handoff     bool
	save        bool
}

var fixCmd = &cobra.Command{
	Use:   "fix",
	Short: "Correct flagged rows and validate again",
	Long: `The fix command records corrections for flagged rows, applies them in one
step, and validates the datasets again. Corrections are addressed by the row
number printed in the issue message and stay attached to that row.

With --interactive every flagged row is shown and its fields are prompted
for; an empty answer keeps the current value.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runFix(cmd)
	},
}

func init() {
	rootCmd.AddCommand(fixCmd)
	fixFlags.input.register(fixCmd)
	fixCmd.Flags().StringArrayVar(&fixFlags.sets, "set", nil, "Edit as dataset:row:field=value (repeatable)")
	fixCmd.Flags().BoolVarP(&fixFlags.interactive, "interactive", "i", false, "Prompt for corrections row by row")
	fixCmd.Flags().BoolVar(&fixFlags.handoff, "handoff", false, "Save to the hand-off store when issue-free")
	fixCmd.Flags().BoolVar(&fixFlags.save, "save", false, "Write the corrected datasets to the output directory")
}

type editSpec struct {
	kind  types.Kind
	row   int
	field string
	value string
}

// parseEdit parses dataset:row:field=value. The value may contain ':' and '='.
func parseEdit(s string) (editSpec, error) {
	target, value, ok := strings.Cut(s, "=")
	if !ok {
		return editSpec{}, fmt.Errorf("edit %q: missing '='", s)
	}
	parts := strings.SplitN(target, ":", 3)
	if len(parts) != 3 {
		return editSpec{}, fmt.Errorf("edit %q: want dataset:row:field=value", s)
	}
	kind, err := types.ParseKind(parts[0])
	if err != nil {
		return editSpec{}, fmt.Errorf("edit %q: %w", s, err)
	}
	row, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return editSpec{}, fmt.Errorf("edit %q: bad row number: %w", s, err)
	}
	field := strings.TrimSpace(parts[2])
	if field == "" {
		return editSpec{}, fmt.Errorf("edit %q: empty field name", s)
	}
	return editSpec{kind: kind, row: row, field: field, value: value}, nil
}

func runFix(cmd *cobra.Command) error {
	out := cmd.OutOrStdout()
	if len(fixFlags.sets) == 0 && !fixFlags.interactive {
		return errors.New("nothing to fix: pass --set or --interactive")
	}

	ls, err := openSession(cmd.ErrOrStderr(), &fixFlags.input)
	if err != nil {
		return err
	}

	for _, s := range fixFlags.sets {
		e, err := parseEdit(s)
		if err != nil {
			return err
		}
		if err := ls.Edit(e.kind, e.row, e.field, e.value); err != nil {
			return err
		}
	}
	if fixFlags.interactive {
		if err := promptEdits(cmd.InOrStdin(), out, ls.Session); err != nil {
			return err
		}
	}

	if !ls.HasPendingEdits() {
		fmt.Fprintln(out, "No changes.")
	} else {
		res := ls.ConfirmEdits()
		fmt.Fprintf(out, "Applied %d edit(s)", res.Applied)
		if res.Skipped > 0 {
			fmt.Fprintf(out, ", skipped %d", res.Skipped)
		}
		fmt.Fprintln(out)
	}

	for _, st := range ls.Stats() {
		printIssues(out, appConfig.DisplayName(st.Kind), ls.Issues(st.Kind))
	}

	if fixFlags.save {
		fm := fileManager()
		for _, st := range ls.Stats() {
			d, _ := ls.Dataset(st.Kind)
			t := export.AllTable(export.Source{
				Name:    appConfig.DisplayName(st.Kind),
				Headers: d.Result.Headers,
				Checked: d.Result.Checked,
			})
			path, format, err := export.SaveWithFallback(fm.OutputPath(string(st.Kind)+"_fixed", appConfig.Output.Format), t, export.Format(appConfig.Output.Format))
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "✓ wrote %s (%s)\n", path, format)
		}
	}

	if fixFlags.handoff {
		if err := ls.Handoff(openStore()); err != nil {
			if errors.Is(err, pipeline.ErrUnresolvedIssues) {
				fmt.Fprintf(cmd.ErrOrStderr(), "⚠ not handed off: %v\n", err)
				return nil
			}
			return err
		}
		fmt.Fprintf(out, "✓ handed off to %s\n", appConfig.Store.Path)
	}
	return nil
}

// promptEdits walks the flagged rows and asks for new values of the fields
// each row's profile checks.
func promptEdits(in io.Reader, out io.Writer, s *pipeline.Session) error {
	sc := bufio.NewScanner(in)
	for _, kind := range types.Kinds() {
		d, ok := s.Dataset(kind)
		if !ok {
			continue
		}
		fields := promptFields(kind)
		for _, is := range d.Result.Issues {
			fmt.Fprintf(out, "\n%s\n", strings.Join(is.Reasons, "；"))
			for _, field := range fields {
				fmt.Fprintf(out, "  %s [%s]: ", field, is.Row.Get(field))
				if !sc.Scan() {
					return sc.Err()
				}
				v := strings.TrimSpace(sc.Text())
				if v == "" {
					continue
				}
				if err := s.EditByID(kind, is.RowID, field, v); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// promptFields lists the required fields plus the conflict fields.
func promptFields(kind types.Kind) []string {
	p := appConfig.Profile(kind)
	fields := append([]string(nil), p.Required...)
	for _, f := range []string{p.StudentTypeField, p.ClassTypeField} {
		if f == "" {
			continue
		}
		dup := false
		for _, g := range fields {
			if g == f {
				dup = true
				break
			}
		}
		if !dup {
			fields = append(fields, f)
		}
	}
	return fields
}
