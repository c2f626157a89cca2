package validation

import (
	"testing"

	"github.com/ginjaninja78/revenue-refund-analyzer/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var revenueKeys = []string{"教师姓名", "创建人姓名", "学科", "学生类型", "班型", "课程拆分金额"}

func revenueRow(teacher, creator, subject, student, class string) types.RawRow {
	return types.NewRawRow(revenueKeys, map[string]any{
		"教师姓名":   teacher,
		"创建人姓名":  creator,
		"学科":     subject,
		"学生类型":   student,
		"班型":     class,
		"课程拆分金额": 1000.0,
	})
}

func blankRow() types.RawRow {
	return types.NewRawRow(revenueKeys, map[string]any{"教师姓名": " ", "学科": nil})
}

func TestValidateEmpty(t *testing.T) {
	res := Validate(nil, types.Revenue)
	assert.Empty(t, res.Checked)
	assert.Empty(t, res.Issues)
	assert.Nil(t, res.Headers)
	assert.False(t, res.Ready())
}

func TestValidateRequiredFieldScenario(t *testing.T) {
	rows := []types.RawRow{
		revenueRow("王老师", "李雷", "数学", "新生", "常规班"),
		revenueRow("", "李雷", "数学", "新生", "常规班"),
	}
	res := Validate(rows, types.Revenue)

	require.Len(t, res.Issues, 1)
	is := res.Issues[0]
	assert.Equal(t, 1, is.Index)
	assert.Equal(t, 1, is.OriginalIndex)
	assert.Equal(t, 2, is.DisplayRow())
	assert.Equal(t, []string{"营收表第2行【教师姓名】为空"}, is.Reasons)
	assert.Equal(t, rows[1].ID, is.RowID)
}

func TestValidateConflictScenario(t *testing.T) {
	rows := []types.RawRow{revenueRow("王老师", "李雷", "数学", "老生", "VIP")}
	res := Validate(rows, types.Revenue)

	require.Len(t, res.Issues, 1)
	assert.Equal(t, []string{"营收表第1行 学生类型=老生 与 班型=VIP 存在冲突"}, res.Issues[0].Reasons)
}

func TestValidateConflictUsesCategoryLabels(t *testing.T) {
	rows := []types.RawRow{revenueRow("王老师", "李雷", "数学", "老生续报", "寒假短期")}
	res := Validate(rows, types.Revenue)

	require.Len(t, res.Issues, 1)
	assert.Equal(t, "营收表第1行 学生类型=老生 与 班型=短期班 存在冲突", res.Issues[0].Reasons[0])
}

func TestValidateRefundProfile(t *testing.T) {
	keys := []string{"授课老师", "课程老师", "科目", "是否新生", "班级"}
	rows := []types.RawRow{
		types.NewRawRow(keys, map[string]any{"授课老师": "王", "课程老师": "", "科目": "英语", "是否新生": "老生", "班级": "新生班"}),
	}
	res := Validate(rows, types.Refund)

	require.Len(t, res.Issues, 1)
	assert.Equal(t, []string{
		"退费表第1行【课程老师】为空",
		"退费表第1行 是否新生=老生 与 班级=新生 存在冲突",
	}, res.Issues[0].Reasons)
}

func TestValidateBlankRowsKeepOriginalIndex(t *testing.T) {
	rows := []types.RawRow{
		revenueRow("王老师", "李雷", "数学", "新生", "常规班"),
		blankRow(),
		blankRow(),
		revenueRow("王老师", "", "数学", "新生", "常规班"),
	}
	res := Validate(rows, types.Revenue)

	require.Len(t, res.Checked, 2)
	require.Len(t, res.Issues, 1)
	assert.Equal(t, 1, res.Issues[0].Index)
	assert.Equal(t, 3, res.Issues[0].OriginalIndex)
	assert.Equal(t, "营收表第4行【创建人姓名】为空", res.Issues[0].Reasons[0])
}

func TestIssuesMirrorCheckedRows(t *testing.T) {
	rows := []types.RawRow{
		revenueRow("", "", "数学", "新生", "常规班"),
		blankRow(),
		revenueRow("王老师", "李雷", "数学", "老生", "新生班"),
		revenueRow("王老师", "李雷", "数学", "新生", "常规班"),
	}
	res := Validate(rows, types.Revenue)

	flagged := 0
	for _, c := range res.Checked {
		if c.HasIssue {
			flagged++
		}
	}
	assert.Equal(t, flagged, len(res.Issues))
	for _, is := range res.Issues {
		c := res.Checked[is.Index]
		assert.True(t, c.HasIssue)
		assert.Equal(t, c.Reasons, is.Reasons)
		assert.Equal(t, c.Row.ID, is.RowID)
	}
	assert.Len(t, res.Clean(), 1)
	assert.False(t, res.Ready())
}

func TestValidateIsDeterministic(t *testing.T) {
	rows := []types.RawRow{
		revenueRow("", "李雷", "", "老生", "VIP"),
		revenueRow("王老师", "韩梅梅", "英语", "新生", "常规班"),
	}
	first := Validate(rows, types.Revenue)
	second := Validate(rows, types.Revenue)
	assert.Equal(t, first, second)
}

func TestValidateHeadersFromFirstRow(t *testing.T) {
	rows := []types.RawRow{
		types.NewRawRow([]string{"学科", "教师姓名"}, map[string]any{"学科": "数学", "教师姓名": "王"}),
		revenueRow("王老师", "李雷", "数学", "新生", "常规班"),
	}
	res := Validate(rows, types.Revenue)
	assert.Equal(t, []string{"学科", "教师姓名"}, res.Headers)
	for _, c := range res.Checked {
		assert.Equal(t, res.Headers, c.Headers)
	}
}

func TestReadyWhenClean(t *testing.T) {
	res := Validate([]types.RawRow{revenueRow("王老师", "李雷", "数学", "新生", "常规班")}, types.Revenue)
	assert.True(t, res.Ready())
	_, ok := res.IssueFor(res.Checked[0].Row.ID)
	assert.False(t, ok)
}

func TestUnknownKindHasNoRules(t *testing.T) {
	res := Validate([]types.RawRow{revenueRow("", "", "", "", "")}, types.Kind("orders"))
	assert.Len(t, res.Checked, 1)
	assert.Empty(t, res.Issues)
}

func TestFormatIssues(t *testing.T) {
	assert.Equal(t, "No validation issues found.", FormatIssues(nil))

	out := FormatIssues([]types.Issue{{Reasons: []string{"a", "b"}}})
	assert.Contains(t, out, "Found 2 issue(s) in 1 row(s)")
	assert.Contains(t, out, "a\nb\n")
}
