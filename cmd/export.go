// =============================================================================
// Revenue/Refund Analyzer - Export Command
// =============================================================================
//
// COMMAND USAGE:
//   analyzer export --what issues --revenue rev.xlsx --refund ref.csv
//   analyzer export --what sales --format csv
//
// TABLES:
//   issues : flagged rows of both uploads with 问题说明 and 数据来源
//   clean  : issue-free rows, one file per upload
//   all    : every row, one file per upload, flagged rows highlighted
//   sales  : the salesperson table
//   quarter, subject, class-type, student-type, calendar-date : that view
//   trend  : the daily series
//
// The first three need uploads; the rest also read the hand-off store. If
// the workbook cannot be written the table is saved as CSV instead.
//
// =============================================================================

package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/revenue-refund-analyzer/internal/aggregate"
	"github.com/ginjaninja78/revenue-refund-analyzer/internal/export"
	"github.com/ginjaninja78/revenue-refund-analyzer/internal/types"
)

var exportFlags struct {
	input  inputFlags
	filter filterFlags
	what   string
	format string
	out    string
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write issue rows, clean rows or report tables to XLSX or CSV",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runExport(cmd)
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportFlags.input.register(exportCmd)
	exportFlags.filter.register(exportCmd)
	exportCmd.Flags().StringVar(&exportFlags.what, "what", "issues", "Table to export: issues, clean, all, sales, trend or a dimension name")
	exportCmd.Flags().StringVar(&exportFlags.format, "format", "", "xlsx or csv (default from config)")
	exportCmd.Flags().StringVarP(&exportFlags.out, "out", "o", "", "Output path (default: generated in the output directory)")
}

// namedTable is a table plus the name used for its generated file.
type namedTable struct {
	name  string
	table export.Table
}

func runExport(cmd *cobra.Command) error {
	format := exportFlags.format
	if format == "" {
		format = appConfig.Output.Format
	}
	f, err := export.ParseFormat(format)
	if err != nil {
		return err
	}

	tables, err := exportTables(cmd)
	if err != nil {
		return err
	}
	if len(tables) > 1 && exportFlags.out != "" {
		return errors.New("--out names a single file but this export writes one file per upload")
	}

	fm := fileManager()
	for _, t := range tables {
		path := exportFlags.out
		if path == "" {
			path = fm.OutputPath(t.name, string(f))
		}
		written, used, err := export.SaveWithFallback(path, t.table, f)
		if err != nil {
			return err
		}
		if used != f {
			logger.Warn("workbook export failed, wrote CSV instead")
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ %s: %d row(s) → %s\n", t.table.Sheet, len(t.table.Rows), written)
	}
	return nil
}

func exportTables(cmd *cobra.Command) ([]namedTable, error) {
	what := strings.ToLower(strings.TrimSpace(exportFlags.what))
	switch what {
	case "issues", "clean", "all":
		ls, err := openSession(cmd.ErrOrStderr(), &exportFlags.input)
		if err != nil {
			return nil, err
		}
		var kinds []types.Kind
		var sources []export.Source
		for _, kind := range types.Kinds() {
			d, ok := ls.Dataset(kind)
			if !ok {
				continue
			}
			kinds = append(kinds, kind)
			sources = append(sources, export.Source{
				Name:    appConfig.DisplayName(kind),
				Headers: d.Result.Headers,
				Checked: d.Result.Checked,
			})
		}
		if what == "issues" {
			t := export.IssueTable(sources...)
			if len(t.Rows) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No issues to export.")
				return nil, nil
			}
			return []namedTable{{"issues", t}}, nil
		}
		var out []namedTable
		for i, src := range sources {
			t := export.CleanTable(src)
			if what == "all" {
				t = export.AllTable(src)
			}
			out = append(out, namedTable{string(kinds[i]) + "_" + what, t})
		}
		return out, nil
	}

	s, err := buildState(cmd.ErrOrStderr(), &exportFlags.input, &exportFlags.filter, 0)
	if err != nil {
		return nil, err
	}
	switch what {
	case "sales":
		return []namedTable{{"sales", export.SalesTable(s.Views.SelectedSales)}}, nil
	case "trend":
		return []namedTable{{"trend", export.TrendTable(s.Views.Trend)}}, nil
	}
	dim, err := aggregate.ParseDimension(what)
	if err != nil {
		return nil, fmt.Errorf("unknown export %q: %w", exportFlags.what, err)
	}
	label := dimensionLabel(dim)
	return []namedTable{{string(dim), export.GroupTable(label+"分析", label, s.Views.Dimension(dim))}}, nil
}
