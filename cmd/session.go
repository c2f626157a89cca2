package cmd

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/revenue-refund-analyzer/internal/pipeline"
	"github.com/ginjaninja78/revenue-refund-analyzer/internal/report"
	"github.com/ginjaninja78/revenue-refund-analyzer/internal/store"
	"github.com/ginjaninja78/revenue-refund-analyzer/internal/types"
	"github.com/ginjaninja78/revenue-refund-analyzer/pkg/utils"
)

// inputFlags are the upload paths shared by most commands.
type inputFlags struct {
	revenue string
	refund  string
}

func (f *inputFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.revenue, "revenue", "", "Revenue upload (CSV or XLSX)")
	cmd.Flags().StringVar(&f.refund, "refund", "", "Refund upload (CSV or XLSX)")
}

func (f *inputFlags) any() bool {
	return f.revenue != "" || f.refund != ""
}

func (f *inputFlags) paths() map[types.Kind]string {
	out := make(map[types.Kind]string)
	if f.revenue != "" {
		out[types.Revenue] = f.revenue
	}
	if f.refund != "" {
		out[types.Refund] = f.refund
	}
	return out
}

// loadedSession is a session plus the notices produced while loading.
type loadedSession struct {
	*pipeline.Session
	started  time.Time
	failures []utils.FailureInfo
}

// openSession loads every upload named by flags. A failed upload becomes a
// notice on w; the other dataset still loads.
func openSession(w io.Writer, flags *inputFlags) (*loadedSession, error) {
	if !flags.any() {
		return nil, errors.New("nothing to load: pass --revenue and/or --refund")
	}
	ls := &loadedSession{Session: pipeline.New(appConfig, logger), started: time.Now()}

	paths := flags.paths()
	for _, kind := range types.Kinds() {
		path, ok := paths[kind]
		if !ok {
			continue
		}
		if _, err := ls.Load(kind, path); err != nil {
			fmt.Fprintf(w, "⚠ %s: %v\n", appConfig.DisplayName(kind), err)
			ls.failures = append(ls.failures, utils.FailureInfo{Source: path, ErrorMessage: err.Error()})
		}
	}
	if len(ls.Stats()) == 0 {
		return nil, errors.New("no dataset could be loaded")
	}
	return ls, nil
}

// issueEntries flattens the session's issues for the issue log.
func (ls *loadedSession) issueEntries() []utils.IssueLogEntry {
	var out []utils.IssueLogEntry
	for _, kind := range types.Kinds() {
		for _, is := range ls.Issues(kind) {
			out = append(out, utils.IssueLogEntry{
				Dataset: appConfig.DisplayName(kind),
				Row:     is.DisplayRow(),
				RowID:   is.RowID,
				Reasons: is.Reasons,
			})
		}
	}
	return out
}

// summary builds the run summary for the summary log.
func (ls *loadedSession) summary(command string, outputs []string) utils.RunSummary {
	s := utils.RunSummary{
		StartTime: ls.started,
		EndTime:   time.Now(),
		Command:   command,
		Outputs:   outputs,
		Failures:  ls.failures,
	}
	for _, st := range ls.Stats() {
		s.Datasets = append(s.Datasets, utils.DatasetInfo{
			Name:   appConfig.DisplayName(st.Kind),
			Source: st.Source,
			Rows:   st.Checked,
			Issues: st.Issues,
		})
	}
	return s
}

func fileManager() *utils.FileManager {
	return utils.NewFileManager(appConfig.Output.Dir, appConfig.Output.NameFormat)
}

func openStore() *store.Store {
	return store.Open(appConfig.Store.Path)
}

// reportData returns the data a report runs on: freshly validated uploads
// when any are named, else the hand-off store. Uploads with unresolved
// issues block the report.
func reportData(w io.Writer, flags *inputFlags) (report.Data, error) {
	if !flags.any() {
		st := openStore()
		rev, ref := st.LoadDatasets()
		logger.Debug("read %d revenue / %d refund row(s) from %s", len(rev), len(ref), st.Path())
		if len(rev) == 0 && len(ref) == 0 {
			return report.Data{}, fmt.Errorf("hand-off store %s is empty: run 'analyzer validate --handoff' first or pass --revenue/--refund", st.Path())
		}
		return report.Data{Revenue: rev, Refund: ref}, nil
	}

	ls, err := openSession(w, flags)
	if err != nil {
		return report.Data{}, err
	}
	if !ls.Ready() {
		var parts []string
		for _, st := range ls.Stats() {
			if st.Issues > 0 {
				parts = append(parts, fmt.Sprintf("%s %d", appConfig.DisplayName(st.Kind), st.Issues))
			}
		}
		if len(parts) == 0 {
			return report.Data{}, errors.New("uploads contain no data rows")
		}
		return report.Data{}, fmt.Errorf("%w (%s): run 'analyzer validate' to see them", pipeline.ErrUnresolvedIssues, strings.Join(parts, ", "))
	}
	return ls.ReportData(), nil
}
