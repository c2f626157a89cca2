package csvparser

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/simplifiedchinese"
)

func TestParseCommaWithQuotes(t *testing.T) {
	input := "教师姓名,学科,备注\n王老师,数学,\"含,逗号 \"\"引号\"\"\"\n\n , , \n李老师,英语\n"
	data, err := Parse([]byte(input), Settings{})
	require.NoError(t, err)

	assert.Equal(t, []string{"教师姓名", "学科", "备注"}, data.Headers)
	assert.Equal(t, ',', data.Delimiter)
	require.Equal(t, 2, data.RowCount())
	assert.Equal(t, `含,逗号 "引号"`, data.Rows[0].Values["备注"])
	assert.Equal(t, "", data.Rows[1].Values["备注"])
	assert.NotEqual(t, data.Rows[0].ID, data.Rows[1].ID)
	assert.Equal(t, data.Headers, data.Rows[0].Keys)
}

func TestDetectDelimiter(t *testing.T) {
	tests := []struct {
		name string
		text string
		want rune
	}{
		{"semicolon", "a;b;c\n1;2;3", ';'},
		{"tab", "\n\na\tb\tc,d\n", '\t'},
		{"tie prefers comma", "a,b;c", ','},
		{"single column", "name\nx", ','},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectDelimiter(tt.text, DefaultDelimiters))
		})
	}
}

func TestParseSemicolonFile(t *testing.T) {
	data, err := Parse([]byte("学科;金额\r\n数学;100\r\n"), Settings{})
	require.NoError(t, err)
	require.Len(t, data.Rows, 1)
	assert.Equal(t, "100", data.Rows[0].Values["金额"])
}

func TestParseStripsBOM(t *testing.T) {
	data, err := Parse(append([]byte{0xEF, 0xBB, 0xBF}, []byte("学科,金额\n数学,1\n")...), Settings{})
	require.NoError(t, err)
	assert.Equal(t, "学科", data.Headers[0])
	assert.Equal(t, "utf-8", data.Encoding)
}

func TestParseGBK(t *testing.T) {
	encoded, err := simplifiedchinese.GBK.NewEncoder().String("教师姓名,学科\n王老师,数学\n")
	require.NoError(t, err)

	data, err := Parse([]byte(encoded), Settings{})
	require.NoError(t, err)
	assert.Equal(t, "gbk", data.Encoding)
	assert.Equal(t, []string{"教师姓名", "学科"}, data.Headers)
	assert.Equal(t, "数学", data.Rows[0].Values["学科"])
}

func TestParseRowCap(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("id\n")
	for i := 0; i < 15; i++ {
		fmt.Fprintf(&sb, "%d\n", i)
	}
	data, err := Parse([]byte(sb.String()), Settings{RowCap: 10})
	require.NoError(t, err)
	assert.Equal(t, 10, data.RowCount())
	assert.True(t, data.Truncated)
	assert.Equal(t, "9", data.Rows[9].Values["id"])
}

func TestParseHeaderCleanup(t *testing.T) {
	data, err := Parse([]byte(" 学科 ,,学科\n数学,x,y\n"), Settings{})
	require.NoError(t, err)
	assert.Equal(t, []string{"学科", "Column_2", "Column_3"}, data.Headers)
}

func TestParseEmpty(t *testing.T) {
	_, err := Parse([]byte("\n\n"), Settings{})
	assert.ErrorIs(t, err, ErrNoHeader)
}

func TestParseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "revenue.csv")
	require.NoError(t, os.WriteFile(path, []byte("学科\n数学\n"), 0o644))

	data, err := ParseFile(path, Settings{})
	require.NoError(t, err)
	assert.Equal(t, path, data.SourceFile)
	assert.Equal(t, []string{"数学"}, GetColumn(data, "学科"))

	_, err = ParseFile(filepath.Join(t.TempDir(), "missing.csv"), Settings{})
	assert.Error(t, err)
}
