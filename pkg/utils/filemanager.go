// =============================================================================
// Revenue/Refund Analyzer - File Manager Utility
// =============================================================================
//
// This module provides file utilities for the CLI:
//   - Output directory management
//   - Output file naming
//   - Issue log generation
//   - Run summary generation
//
// Logs are plain text written next to the exports, so a reviewer can read
// them without opening a spreadsheet.
//
// =============================================================================

package utils

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

const logRule = "================================================================================\n"

// =============================================================================
// FILE MANAGER
// =============================================================================

// FileManager places generated files in one output directory.
type FileManager struct {
	// OutputDir receives exports and logs.
	OutputDir string

	// NameFormat is the file name pattern, see GenerateOutputFileName.
	NameFormat string

	now func() time.Time
}

// NewFileManager creates a FileManager.
func NewFileManager(outputDir, nameFormat string) *FileManager {
	if nameFormat == "" {
		nameFormat = "{kind}_{timestamp}"
	}
	return &FileManager{OutputDir: outputDir, NameFormat: nameFormat, now: time.Now}
}

// EnsureDir creates the output directory if it doesn't exist.
func (fm *FileManager) EnsureDir() error {
	if err := os.MkdirAll(fm.OutputDir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", fm.OutputDir, err)
	}
	return nil
}

// OutputPath returns the full path for a new file of the given kind.
func (fm *FileManager) OutputPath(kind, ext string) string {
	name := generateName(fm.NameFormat, map[string]string{"kind": kind}, ext, fm.now())
	return filepath.Join(fm.OutputDir, name)
}

// =============================================================================
// OUTPUT FILE NAMING
// =============================================================================

// GenerateOutputFileName expands a file name pattern.
//
// PARAMETERS:
//   - format: The pattern. Placeholders:
//       {uuid}      - A random UUID
//       {timestamp} - Current timestamp (YYYYMMDD_HHMMSS)
//       {date}      - Current date (YYYYMMDD)
//       {kind}      - Dataset or report kind, from params
//   - params: Extra placeholder values.
//   - ext: The extension to ensure, without the dot. Empty means none.
//
// EXAMPLE:
//   format: "{kind}_{timestamp}"
//   params: {"kind": "issues"}
//   ext:    "xlsx"
//   output: "issues_20240115_143022.xlsx"
func GenerateOutputFileName(format string, params map[string]string, ext string) string {
	return generateName(format, params, ext, time.Now())
}

func generateName(format string, params map[string]string, ext string, now time.Time) string {
	replacements := map[string]string{
		"{timestamp}": now.Format("20060102_150405"),
		"{date}":      now.Format("20060102"),
	}
	if strings.Contains(format, "{uuid}") {
		replacements["{uuid}"] = uuid.New().String()
	}
	for key, value := range params {
		replacements["{"+key+"}"] = sanitizeName(value)
	}

	result := format
	for placeholder, value := range replacements {
		result = strings.ReplaceAll(result, placeholder, value)
	}

	if ext != "" && !strings.HasSuffix(strings.ToLower(result), "."+strings.ToLower(ext)) {
		result += "." + ext
	}
	return result
}

func sanitizeName(s string) string {
	return strings.Map(func(r rune) rune {
		if strings.ContainsRune(`/\:*?"<>|`, r) {
			return '_'
		}
		return r
	}, s)
}

// =============================================================================
// ISSUE LOG
// =============================================================================

// IssueLogEntry is one flagged row.
type IssueLogEntry struct {
	Dataset string
	Row     int
	RowID   string
	Reasons []string
}

// WriteIssueLog writes issue entries to a text file in fm.OutputDir.
//
// RETURNS:
//   - The path to the log, or "" when there is nothing to log.
//   - An error if writing fails.
func (fm *FileManager) WriteIssueLog(entries []IssueLogEntry) (string, error) {
	if len(entries) == 0 {
		return "", nil
	}
	if err := fm.EnsureDir(); err != nil {
		return "", err
	}

	now := fm.now()
	logPath := filepath.Join(fm.OutputDir, fmt.Sprintf("issue_log_%s.txt", now.Format("20060102_150405")))
	file, err := os.Create(logPath)
	if err != nil {
		return "", fmt.Errorf("failed to create issue log: %w", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	fmt.Fprintf(writer, "Revenue/Refund Analyzer - Issue Log\nGenerated: %s\nTotal Issues: %d\n%s\n",
		now.Format("2006-01-02 15:04:05"), len(entries), logRule)

	for i, entry := range entries {
		fmt.Fprintf(writer, "Issue #%d\n  Dataset: %s\n  Row:     %d\n", i+1, entry.Dataset, entry.Row)
		if entry.RowID != "" {
			fmt.Fprintf(writer, "  Row ID:  %s\n", entry.RowID)
		}
		for _, r := range entry.Reasons {
			fmt.Fprintf(writer, "  - %s\n", r)
		}
		writer.WriteString("\n")
	}
	writer.WriteString(logRule + "End of Issue Log\n")

	if err := writer.Flush(); err != nil {
		return "", fmt.Errorf("failed to flush issue log: %w", err)
	}
	return logPath, nil
}

// =============================================================================
// RUN SUMMARY
// =============================================================================

// RunSummary describes one CLI run.
type RunSummary struct {
	StartTime time.Time
	EndTime   time.Time
	Command   string
	Datasets  []DatasetInfo
	Outputs   []string
	Failures  []FailureInfo
}

// DatasetInfo is one loaded dataset.
type DatasetInfo struct {
	Name   string
	Source string
	Rows   int
	Issues int
}

// FailureInfo is one rejected upload or failed output.
type FailureInfo struct {
	Source       string
	ErrorMessage string
}

// WriteSummaryLog writes a run summary to a text file in fm.OutputDir.
func (fm *FileManager) WriteSummaryLog(summary RunSummary) (string, error) {
	if err := fm.EnsureDir(); err != nil {
		return "", err
	}
	summaryPath := filepath.Join(fm.OutputDir, fmt.Sprintf("run_summary_%s.txt", fm.now().Format("20060102_150405")))

	file, err := os.Create(summaryPath)
	if err != nil {
		return "", fmt.Errorf("failed to create summary file: %w", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	fmt.Fprintf(writer, "Revenue/Refund Analyzer - Run Summary\n%s\n"+
		"Run Information:\n"+
		"  Command:    %s\n"+
		"  Start Time: %s\n"+
		"  End Time:   %s\n"+
		"  Duration:   %s\n\n",
		logRule,
		summary.Command,
		summary.StartTime.Format("2006-01-02 15:04:05"),
		summary.EndTime.Format("2006-01-02 15:04:05"),
		summary.EndTime.Sub(summary.StartTime).String())

	if len(summary.Datasets) > 0 {
		writer.WriteString("Datasets:\n")
		for _, d := range summary.Datasets {
			fmt.Fprintf(writer, "  %s: %s (%d rows, %d issues)\n", d.Name, d.Source, d.Rows, d.Issues)
		}
		writer.WriteString("\n")
	}
	if len(summary.Outputs) > 0 {
		writer.WriteString("Outputs:\n")
		for _, o := range summary.Outputs {
			fmt.Fprintf(writer, "  %s\n", o)
		}
		writer.WriteString("\n")
	}
	if len(summary.Failures) > 0 {
		writer.WriteString("Failures:\n")
		for _, f := range summary.Failures {
			fmt.Fprintf(writer, "  %s: %s\n", f.Source, f.ErrorMessage)
		}
		writer.WriteString("\n")
	}
	writer.WriteString(logRule + "End of Summary\n")

	if err := writer.Flush(); err != nil {
		return "", fmt.Errorf("failed to flush summary file: %w", err)
	}
	return summaryPath, nil
}

// FileExists checks if a file exists.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
