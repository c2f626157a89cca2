package ledger

import (
	"testing"

	"github.com/ginjaninja78/revenue-refund-analyzer/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func target(ids ...string) Target {
	var t Target
	for _, id := range ids {
		raw := types.RawRow{ID: id, Keys: []string{"教师姓名"}, Values: map[string]any{"教师姓名": ""}}
		t.Raw = append(t.Raw, raw)
		t.Checked = append(t.Checked, types.CheckedRow{
			Row:      types.NormalizedRow{ID: id, Keys: []string{"教师姓名"}, Values: map[string]string{"教师姓名": ""}},
			HasIssue: true,
		})
	}
	return t
}

func TestRecordAndRevert(t *testing.T) {
	l := New(nil)

	assert.True(t, l.Record(types.Revenue, "r1", "教师姓名", "王五", ""))
	assert.True(t, l.HasPending())
	assert.Equal(t, 1, l.Count())

	v, ok := l.Lookup(types.Revenue, "r1", "教师姓名")
	require.True(t, ok)
	assert.Equal(t, "王五", v)

	// typing the original value back removes the pending edit
	assert.False(t, l.Record(types.Revenue, "r1", "教师姓名", "", ""))
	assert.False(t, l.HasPending())
}

func TestRecordOverwritesSameCell(t *testing.T) {
	l := New(nil)
	l.Record(types.Revenue, "r1", "学科", "数", "")
	l.Record(types.Revenue, "r1", "学科", "数学", "")
	assert.Equal(t, 1, l.Count())
	assert.Equal(t, []Edit{{Kind: types.Revenue, RowID: "r1", Field: "学科", Value: "数学"}}, l.Pending(types.Revenue))
}

func TestPendingIsPerKindAndOrdered(t *testing.T) {
	l := New(nil)
	l.Record(types.Revenue, "r2", "学科", "英语", "")
	l.Record(types.Refund, "f1", "科目", "数学", "")
	l.Record(types.Revenue, "r1", "学科", "数学", "")

	rev := l.Pending(types.Revenue)
	require.Len(t, rev, 2)
	assert.Equal(t, "r2", rev[0].RowID)
	assert.Equal(t, "r1", rev[1].RowID)
	assert.Len(t, l.Pending(types.Refund), 1)
}

func TestApplyWritesBothViews(t *testing.T) {
	l := New(nil)
	rev := target("r1", "r2")
	l.Record(types.Revenue, "r2", "教师姓名", "王五", "")
	l.Record(types.Revenue, "r2", "备注", "补录", "")

	res := l.Apply(map[types.Kind]Target{types.Revenue: rev})

	assert.Equal(t, ApplyResult{Applied: 2}, res)
	assert.Equal(t, "王五", rev.Raw[1].Values["教师姓名"])
	assert.Equal(t, "王五", rev.Checked[1].Row.Get("教师姓名"))
	assert.Equal(t, []string{"教师姓名", "备注"}, rev.Raw[1].Keys)
	assert.Equal(t, "", rev.Raw[0].Values["教师姓名"])
	assert.False(t, l.HasPending())
}

func TestApplySkipsVanishedRows(t *testing.T) {
	l := New(nil)
	l.Record(types.Revenue, "gone", "教师姓名", "王五", "")
	l.Record(types.Refund, "f1", "课程老师", "李雷", "")

	res := l.Apply(map[types.Kind]Target{types.Revenue: target("r1")})

	assert.Equal(t, 0, res.Applied)
	assert.Equal(t, 2, res.Skipped)
	assert.False(t, l.HasPending())
}

func TestDiscard(t *testing.T) {
	l := New(nil)
	rev := target("r1")
	l.Record(types.Revenue, "r1", "教师姓名", "王五", "")
	l.Discard()

	assert.False(t, l.HasPending())
	res := l.Apply(map[types.Kind]Target{types.Revenue: rev})
	assert.Equal(t, 0, res.Applied)
	assert.Equal(t, "", rev.Raw[0].Values["教师姓名"])
}

func TestDiscardKind(t *testing.T) {
	l := New(nil)
	l.Record(types.Revenue, "r1", "教师姓名", "王五", "")
	l.Record(types.Refund, "f1", "课程老师", "李雷", "")
	l.Record(types.Revenue, "r2", "教师姓名", "赵六", "")

	assert.Equal(t, 2, l.DiscardKind(types.Revenue))
	assert.Equal(t, 1, l.Count())
	assert.Empty(t, l.Pending(types.Revenue))
	assert.Len(t, l.Pending(types.Refund), 1)
	assert.Equal(t, 0, l.DiscardKind(types.Revenue))
}
