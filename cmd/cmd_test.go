package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/revenue-refund-analyzer/internal/buildinfo"
	"github.com/ginjaninja78/revenue-refund-analyzer/internal/config"
	"github.com/ginjaninja78/revenue-refund-analyzer/internal/report"
	"github.com/ginjaninja78/revenue-refund-analyzer/internal/types"
)

func TestParseEdit(t *testing.T) {
	e, err := parseEdit("revenue:2:教师姓名=王=老师")
	require.NoError(t, err)
	assert.Equal(t, editSpec{kind: types.Revenue, row: 2, field: "教师姓名", value: "王=老师"}, e)

	e, err = parseEdit("退费:1:科目=")
	require.NoError(t, err)
	assert.Equal(t, types.Refund, e.kind)
	assert.Equal(t, "", e.value)

	for _, bad := range []string{"revenue:2:学科", "revenue:学科=x", "other:1:学科=x", "revenue:x:学科=x", "revenue:1: =x"} {
		_, err := parseEdit(bad)
		assert.Error(t, err, bad)
	}
}

func TestParseRange(t *testing.T) {
	start, end, err := parseRange([]string{"2024/1/5", "-"})
	require.NoError(t, err)
	assert.Equal(t, "2024-01-05", start)
	assert.Equal(t, "", end)

	_, _, err = parseRange([]string{"soon", "-"})
	assert.Error(t, err)
	_, _, err = parseRange([]string{"2024-01-01"})
	assert.Error(t, err)
}

func TestFilterFlags(t *testing.T) {
	ff := filterFlags{start: "2024年1月5日", quarters: []string{"Q1", " "}}
	f, err := ff.filters()
	require.NoError(t, err)
	assert.Equal(t, "2024-01-05", f.Start)
	assert.Equal(t, []string{"Q1"}, f.Quarters.Values())

	_, err = (&filterFlags{end: "nope"}).filters()
	assert.Error(t, err)
}

func TestRunExplore(t *testing.T) {
	appConfig = config.Default()
	row := func(kv ...string) types.NormalizedRow {
		r := types.NormalizedRow{ID: types.NewRowID(), Values: map[string]string{}}
		for i := 0; i+1 < len(kv); i += 2 {
			r.Set(kv[i], kv[i+1])
		}
		return r
	}
	data := report.Data{Revenue: []types.NormalizedRow{
		row("创建人姓名", "李雷", "季度", "Q1", "学科", "数学", "课程拆分金额", "1000"),
		row("创建人姓名", "韩梅梅", "季度", "Q2", "学科", "英语", "课程拆分金额", "2000"),
	}}

	in := strings.NewReader("quarter Q2\nshow salesperson\nbogus\nquit\n")
	var out bytes.Buffer
	require.NoError(t, runExplore(in, &out, report.NewState(data, 7)))

	s := out.String()
	assert.Contains(t, s, "韩梅梅")
	assert.Contains(t, s, `unknown command "bogus"`)
}

func TestConfigInitWritesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"--config", path, "config", "init"})
	defer rootCmd.SetArgs(nil)

	require.NoError(t, rootCmd.Execute())
	_, err := os.Stat(path)
	require.NoError(t, err)

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 1000, cfg.Input.RowCap)
}

func TestVersionCommand(t *testing.T) {
	cfg := filepath.Join(t.TempDir(), "missing.yaml")
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	defer rootCmd.SetArgs(nil)

	rootCmd.SetArgs([]string{"--config", cfg, "version", "--short"})
	require.NoError(t, rootCmd.Execute())
	assert.Equal(t, buildinfo.Version+"\n", out.String())

	out.Reset()
	versionShort = false
	rootCmd.SetArgs([]string{"--config", cfg, "version"})
	require.NoError(t, rootCmd.Execute())
	assert.Contains(t, out.String(), cfg+" (not found)")
	assert.Contains(t, out.String(), "(commit: ")
}
