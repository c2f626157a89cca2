package export

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ginjaninja78/revenue-refund-analyzer/internal/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func checked(issue bool, reasons []string, kv ...string) types.CheckedRow {
	r := types.NormalizedRow{ID: types.NewRowID(), Values: map[string]string{}}
	for i := 0; i+1 < len(kv); i += 2 {
		r.Set(kv[i], kv[i+1])
	}
	return types.CheckedRow{Row: r, HasIssue: issue, Reasons: reasons}
}

func sources() (Source, Source) {
	rev := Source{
		Name:    "营收表",
		Headers: []string{"教师姓名", "学科"},
		Checked: []types.CheckedRow{
			checked(false, nil, "教师姓名", "王", "学科", "数学"),
			checked(true, []string{"营收表第2行【教师姓名】为空", "营收表第2行 学生类型=老生 与 班型=VIP 存在冲突"}, "教师姓名", "", "学科", "英语"),
		},
	}
	ref := Source{
		Name:    "退费表",
		Headers: []string{"科目"},
		Checked: []types.CheckedRow{
			checked(true, []string{"退费表第1行【科目】为空"}, "科目", ""),
		},
	}
	return rev, ref
}

func TestIssueTable(t *testing.T) {
	rev, ref := sources()
	tbl := IssueTable(rev, ref)

	assert.Equal(t, SheetIssues, tbl.Sheet)
	assert.Equal(t, []string{"教师姓名", "学科", "科目", ColumnReasons, ColumnSource}, tbl.Headers)
	require.Len(t, tbl.Rows, 2)
	assert.Equal(t, "营收表第2行【教师姓名】为空；营收表第2行 学生类型=老生 与 班型=VIP 存在冲突", tbl.Rows[0][3])
	assert.Equal(t, "营收表", tbl.Rows[0][4])
	assert.Equal(t, "退费表", tbl.Rows[1][4])
	assert.Equal(t, []bool{true, true}, tbl.Highlight)
}

func TestCleanAndAllTables(t *testing.T) {
	rev, _ := sources()
	clean := CleanTable(rev)
	require.Len(t, clean.Rows, 1)
	assert.Equal(t, []string{"王", "数学"}, clean.Rows[0])

	all := AllTable(rev)
	assert.Len(t, all.Rows, 2)
	assert.Equal(t, []bool{false, true}, all.Highlight)
}

func TestSalesTable(t *testing.T) {
	tbl := SalesTable([]types.AggregatedGroup{{
		Key:     "李雷",
		Revenue: decimal.NewFromInt(1000),
		Refund:  decimal.NewFromInt(200),
		Net:     decimal.NewFromInt(800),
	}})
	assert.Equal(t, []string{"销售人员", "营收", "退费金额", "净营收"}, tbl.Headers)
	assert.Equal(t, []string{"李雷", "1000.00", "200.00", "800.00"}, tbl.Rows[0])
}

func TestWriteCSVHasBOM(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, Table{Headers: []string{"a", "b"}, Rows: [][]string{{"x,y"}}}))
	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "\uFEFF"))
	assert.Equal(t, "\uFEFFa,b\n\"x,y\",\n", out)
}

func TestWriteXLSXStylesAndWidths(t *testing.T) {
	rev, _ := sources()
	tbl := AllTable(rev)
	tbl.Rows[0][0] = strings.Repeat("长", 80)

	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, tbl))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetAll}, f.GetSheetList())
	v, err := f.GetCellValue(SheetAll, "B3")
	require.NoError(t, err)
	assert.Equal(t, "英语", v)

	w, err := f.GetColWidth(SheetAll, "A")
	require.NoError(t, err)
	assert.Equal(t, float64(maxColWidth), w)
	w, err = f.GetColWidth(SheetAll, "B")
	require.NoError(t, err)
	assert.Equal(t, float64(4), w)

	headerStyle, err := f.GetCellStyle(SheetAll, "A1")
	require.NoError(t, err)
	issueStyle, err := f.GetCellStyle(SheetAll, "A3")
	require.NoError(t, err)
	plainStyle, err := f.GetCellStyle(SheetAll, "A2")
	require.NoError(t, err)
	assert.NotZero(t, headerStyle)
	assert.NotZero(t, issueStyle)
	assert.NotEqual(t, headerStyle, issueStyle)
	assert.Zero(t, plainStyle)
}

func TestSaveSwapsExtension(t *testing.T) {
	dir := t.TempDir()
	tbl := Table{Sheet: SheetSales, Headers: []string{"a"}, Rows: [][]string{{"1"}}}

	path, err := Save(filepath.Join(dir, "out", "sales.xlsx"), tbl, FormatCSV)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "out", "sales.csv"), path)
	_, err = os.Stat(path)
	assert.NoError(t, err)

	path, format, err := SaveWithFallback(filepath.Join(dir, "sales"), tbl, FormatXLSX)
	require.NoError(t, err)
	assert.Equal(t, FormatXLSX, format)
	assert.Equal(t, filepath.Join(dir, "sales.xlsx"), path)
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("CSV")
	require.NoError(t, err)
	assert.Equal(t, FormatCSV, f)
	f, err = ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatXLSX, f)
	_, err = ParseFormat("pdf")
	assert.Error(t, err)
}

func TestSheetName(t *testing.T) {
	assert.Equal(t, "a_b", sheetName("a/b"))
	assert.Equal(t, "Sheet1", sheetName("  "))
	assert.Len(t, []rune(sheetName(strings.Repeat("x", 40))), 31)
}
