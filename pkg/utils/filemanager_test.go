package utils

import (
	"os"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixed(fm *FileManager) *FileManager {
	fm.now = func() time.Time { return time.Date(2024, 1, 15, 14, 30, 22, 0, time.Local) }
	return fm
}

func TestOutputPath(t *testing.T) {
	fm := fixed(NewFileManager("out", ""))
	assert.Equal(t, filepath.Join("out", "issues_20240115_143022.xlsx"), fm.OutputPath("issues", "xlsx"))

	fm = fixed(NewFileManager("out", "{date}_{kind}.csv"))
	assert.Equal(t, filepath.Join("out", "20240115_a_b.csv"), fm.OutputPath("a/b", "csv"))
}

func TestGenerateOutputFileNameUUID(t *testing.T) {
	name := GenerateOutputFileName("{kind}_{uuid}", map[string]string{"kind": "sales"}, "xlsx")
	assert.Regexp(t, regexp.MustCompile(`^sales_[0-9a-f-]{36}\.xlsx$`), name)

	assert.Equal(t, "plain", GenerateOutputFileName("plain", nil, ""))
}

func TestWriteIssueLog(t *testing.T) {
	fm := fixed(NewFileManager(filepath.Join(t.TempDir(), "logs"), ""))

	path, err := fm.WriteIssueLog(nil)
	require.NoError(t, err)
	assert.Empty(t, path)

	path, err = fm.WriteIssueLog([]IssueLogEntry{{
		Dataset: "营收表",
		Row:     2,
		RowID:   "abc",
		Reasons: []string{"营收表第2行【教师姓名】为空"},
	}})
	require.NoError(t, err)
	assert.Equal(t, "issue_log_20240115_143022.txt", filepath.Base(path))

	body, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(body), "Total Issues: 1")
	assert.Contains(t, string(body), "  - 营收表第2行【教师姓名】为空\n")
	assert.Contains(t, string(body), "Row ID:  abc")
}

func TestWriteSummaryLog(t *testing.T) {
	fm := fixed(NewFileManager(t.TempDir(), ""))
	start := time.Date(2024, 1, 15, 14, 30, 0, 0, time.Local)

	path, err := fm.WriteSummaryLog(RunSummary{
		StartTime: start,
		EndTime:   start.Add(2 * time.Second),
		Command:   "validate",
		Datasets:  []DatasetInfo{{Name: "营收表", Source: "r.csv", Rows: 3, Issues: 1}},
		Failures:  []FailureInfo{{Source: "f.xls", ErrorMessage: "unsupported"}},
	})
	require.NoError(t, err)
	assert.True(t, FileExists(path))

	body, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(body), "Duration:   2s")
	assert.Contains(t, string(body), "营收表: r.csv (3 rows, 1 issues)")
	assert.Contains(t, string(body), "f.xls: unsupported")
	assert.NotContains(t, string(body), "Outputs:")
}
