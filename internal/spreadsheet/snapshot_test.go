package spreadsheet

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/JonMunkholm/dutysummary/internal/core"
)

func TestRender(t *testing.T) {
	d := core.NewDataset([]core.ReportRow{
		{Assistant: "张三", Date: "3月1日", Shelving: 10, Correction: 2, ShelfRange: "A1", Location: "一楼"},
		{Assistant: "李四", Date: "3月2日", Shelving: 7, Correction: 1, ShelfRange: "B1", Location: "二楼"},
	}, "标签缺失")

	data, err := Render(d)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{RowsSheet, TotalsSheet}, f.GetSheetList())

	rows, err := f.GetRows(RowsSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"值班助理", "日期", "上书量", "纠错量", "整架范围", "工作地点"}, rows[0])
	assert.Equal(t, []string{"李四", "3月2日", "7", "1", "B1", "二楼"}, rows[2])

	shelving, err := f.GetCellValue(TotalsSheet, "B4")
	require.NoError(t, err)
	assert.Equal(t, "17", shelving)

	problems, err := f.GetCellValue(TotalsSheet, "B6")
	require.NoError(t, err)
	assert.Equal(t, "标签缺失", problems)
}

func TestBuild_NilDataset(t *testing.T) {
	_, err := Build(nil)
	assert.ErrorIs(t, err, core.ErrNoDataset)
}

func TestBuild_LongProblemsText(t *testing.T) {
	// excelize truncates a cell to 32767 characters rather than failing
	d := core.NewDataset([]core.ReportRow{{Assistant: "张三"}}, strings.Repeat("问", excelize.TotalCellChars+1))

	f, err := Build(d)
	require.NoError(t, err)
	defer f.Close()

	problems, err := f.GetCellValue(TotalsSheet, "B6")
	require.NoError(t, err)
	assert.Len(t, []rune(problems), excelize.TotalCellChars)
}

func TestWriteErrorsAreReturned(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()

	t.Run("unknown sheet", func(t *testing.T) {
		err := setRow(f, "missing", 1, []interface{}{"a"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "missing cell A1")
	})

	t.Run("invalid row", func(t *testing.T) {
		err := setRow(f, "Sheet1", 0, []interface{}{"a"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Sheet1 row 0")
	})

	t.Run("column width on unknown sheet", func(t *testing.T) {
		err := setColWidths(f, "missing", []colWidth{{"A", "B", 10}})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "missing column width A-B")
	})

	t.Run("column width out of range", func(t *testing.T) {
		err := setColWidths(f, "Sheet1", []colWidth{{"A", "A", 300}})
		assert.Error(t, err)
	})
}
