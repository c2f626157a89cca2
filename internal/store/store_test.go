package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ginjaninja78/revenue-refund-analyzer/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func nrow(kv ...string) types.NormalizedRow {
	r := types.NormalizedRow{ID: types.NewRowID(), Values: map[string]string{}}
	for i := 0; i+1 < len(kv); i += 2 {
		r.Set(kv[i], kv[i+1])
	}
	return r
}

func TestSaveAndLoadDatasets(t *testing.T) {
	s := Open(filepath.Join(t.TempDir(), "state", "handoff.json"))

	revenue := []types.NormalizedRow{nrow("创建人姓名", "李雷", "课程拆分金额", "1000")}
	refund := []types.NormalizedRow{nrow("课程老师", "李雷", "退费金额", "200")}
	require.NoError(t, s.SaveDatasets(revenue, refund))

	gotRev, gotRef := s.LoadDatasets()
	require.Len(t, gotRev, 1)
	require.Len(t, gotRef, 1)
	assert.Equal(t, revenue[0].Keys, gotRev[0].Keys)
	assert.Equal(t, revenue[0].Values, gotRev[0].Values)
	assert.Equal(t, "200", gotRef[0].Get("退费金额"))
}

func TestSaveKeepsOtherSlot(t *testing.T) {
	s := Open(filepath.Join(t.TempDir(), "handoff.json"))
	require.NoError(t, s.Save(SlotRevenue, []types.NormalizedRow{nrow("a", "1")}))
	require.NoError(t, s.Save(SlotRefund, nil))

	assert.Len(t, s.Load(SlotRevenue), 1)
	assert.Empty(t, s.Load(SlotRefund))
}

func TestLoadMissingOrMalformed(t *testing.T) {
	dir := t.TempDir()
	assert.Empty(t, Open(filepath.Join(dir, "absent.json")).Load(SlotRevenue))

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("{not json"), 0o644))
	assert.Empty(t, Open(bad).Load(SlotRevenue))

	wrongShape := filepath.Join(dir, "shape.json")
	require.NoError(t, os.WriteFile(wrongShape, []byte(`{"revenueData": {"a": 1}, "refundData": [{"退费金额": 5}]}`), 0o644))
	s := Open(wrongShape)
	assert.Empty(t, s.Load(SlotRevenue))
	refund := s.Load(SlotRefund)
	require.Len(t, refund, 1)
	assert.Equal(t, "5", refund[0].Get("退费金额"))
}

func TestClear(t *testing.T) {
	s := Open(filepath.Join(t.TempDir(), "handoff.json"))
	require.NoError(t, s.Clear())
	require.NoError(t, s.Save(SlotRevenue, []types.NormalizedRow{nrow("a", "1")}))
	require.NoError(t, s.Clear())
	assert.Empty(t, s.Load(SlotRevenue))
}

func TestSlotFor(t *testing.T) {
	assert.Equal(t, SlotRevenue, SlotFor(types.Revenue))
	assert.Equal(t, SlotRefund, SlotFor(types.Refund))
}
